package imagehost

import (
	"context"
	"fmt"
	"time"

	"github.com/jewelry/jewelry-api/internal/pkg/imaging"
	"github.com/jewelry/jewelry-api/internal/pkg/logger"
)

// Provider hosts an image and returns a URL it can be fetched from.
type Provider interface {
	Name() string
	Upload(ctx context.Context, asset *Asset) (string, error)
}

// Preprocessor shrinks and re-encodes an image before upload.
type Preprocessor interface {
	Process(data []byte, filename string) (*imaging.ProcessedImage, error)
}

// Attempt records one step of the fallback chain.
type Attempt struct {
	Provider  string
	Succeeded bool
	Kind      FailureKind
	Err       error
	Elapsed   time.Duration
}

// Result is the outcome of a pipeline run: exactly one of a hosted URL or
// an inline data URL, in URL.
type Result struct {
	URL       string
	Inline    bool
	Provider  string
	Processed bool
	Width     int
	Height    int
	Bytes     int
	Attempts  []Attempt
}

// Config wires a Pipeline.
type Config struct {
	Preprocessor   Preprocessor // nil disables pre-processing
	Providers      []Provider
	Inline         *InlineEncoder
	AttemptTimeout time.Duration
}

// Pipeline pre-processes an image then tries each provider in order,
// once, until one returns a URL. When all fail the image is inlined.
type Pipeline struct {
	pre       Preprocessor
	providers []Provider
	inline    *InlineEncoder
	timeout   time.Duration
}

func NewPipeline(cfg Config) *Pipeline {
	if cfg.Inline == nil {
		cfg.Inline = NewInlineEncoder(0)
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = DefaultAttemptTimeout
	}
	return &Pipeline{
		pre:       cfg.Preprocessor,
		providers: cfg.Providers,
		inline:    cfg.Inline,
		timeout:   cfg.AttemptTimeout,
	}
}

// Providers returns the chain order, terminal fallback included.
func (p *Pipeline) Providers() []string {
	names := make([]string, 0, len(p.providers)+1)
	for _, provider := range p.providers {
		names = append(names, provider.Name())
	}
	return append(names, p.inline.Name())
}

// Upload runs the pipeline for asset. It returns an error only if the asset
// cannot be read; every other failure falls through to the next step.
func (p *Pipeline) Upload(ctx context.Context, asset *Asset) (*Result, error) {
	log := logger.FromContext(ctx)

	if _, err := asset.Bytes(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAllProvidersFailed, err)
	}

	result := &Result{}
	upload := p.prepare(ctx, asset, result)

	for _, provider := range p.providers {
		if err := ctx.Err(); err != nil {
			log.Warn().Err(err).Msg("Image upload abandoned by caller, skipping remaining providers")
			break
		}

		url, attempt := p.try(ctx, provider, upload)
		result.Attempts = append(result.Attempts, attempt)
		if attempt.Succeeded {
			result.URL = url
			result.Provider = attempt.Provider
			return result, nil
		}
	}

	start := time.Now()
	ref, err := p.inline.Encode(ctx, upload)
	attempt := Attempt{Provider: p.inline.Name(), Succeeded: err == nil, Err: err, Elapsed: time.Since(start)}
	if err != nil {
		attempt.Kind = KindRequest
	}
	result.Attempts = append(result.Attempts, attempt)
	if err != nil {
		log.Error().Err(err).Str("filename", upload.Filename).Msg("Inline image fallback failed")
		return nil, fmt.Errorf("%w: %w", ErrAllProvidersFailed, err)
	}

	log.Info().
		Str("provider", p.inline.Name()).
		Int("attempts", len(result.Attempts)).
		Msg("Image stored inline")

	result.URL = ref
	result.Inline = true
	result.Provider = p.inline.Name()
	return result, nil
}

// prepare runs the preprocessor. Failures are logged and the original is used.
func (p *Pipeline) prepare(ctx context.Context, asset *Asset, result *Result) *Asset {
	data, _ := asset.Bytes()
	result.Bytes = len(data)

	if p.pre == nil {
		return asset
	}

	processed, err := p.pre.Process(data, asset.Filename)
	if err != nil {
		logger.FromContext(ctx).Warn().
			Err(err).
			Str("filename", asset.Filename).
			Msg("Image pre-processing failed, uploading original")
		return asset
	}

	result.Processed = true
	result.Width = processed.Width
	result.Height = processed.Height
	result.Bytes = len(processed.Data)

	logger.FromContext(ctx).Debug().
		Str("filename", asset.Filename).
		Int("original_bytes", len(data)).
		Int("processed_bytes", len(processed.Data)).
		Int("width", processed.Width).
		Int("height", processed.Height).
		Msg("Image pre-processed")

	return NewAsset(processed.Filename, processed.ContentType, processed.Data)
}

func (p *Pipeline) try(ctx context.Context, provider Provider, asset *Asset) (string, Attempt) {
	attemptCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	url, err := provider.Upload(attemptCtx, asset)
	if err == nil && url == "" {
		err = &ProviderError{Provider: provider.Name(), Kind: KindResponse, Err: missing("url")}
	}

	attempt := Attempt{
		Provider:  provider.Name(),
		Succeeded: err == nil,
		Err:       err,
		Elapsed:   time.Since(start),
	}

	log := logger.FromContext(ctx)
	if err != nil {
		attempt.Kind = KindOf(err)
		log.Warn().
			Err(err).
			Str("provider", attempt.Provider).
			Str("failure", string(attempt.Kind)).
			Dur("elapsed", attempt.Elapsed).
			Msg("Image provider failed, trying next")
		return "", attempt
	}

	log.Info().
		Str("provider", attempt.Provider).
		Dur("elapsed", attempt.Elapsed).
		Msg("Image uploaded")
	return url, attempt
}
