// Command imgupload runs the image ingestion pipeline on local files and
// prints the resulting references. It is handy for checking which hosting
// providers currently accept uploads.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/jewelry/jewelry-api/internal/config"
	"github.com/jewelry/jewelry-api/internal/pkg/imagehost"
	"github.com/jewelry/jewelry-api/internal/pkg/imaging"
	"github.com/jewelry/jewelry-api/internal/pkg/logger"
	"github.com/jewelry/jewelry-api/internal/pkg/storage"
)

type options struct {
	noResize bool
	asJSON   bool
	files    []string
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		os.Exit(2)
	}

	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, Environment: "development"})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pipeline, err := buildPipeline(ctx, cfg, opts.noResize)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build image pipeline")
	}

	failed := 0
	for _, path := range opts.files {
		result, err := pipeline.Upload(ctx, imagehost.FileAsset(path))
		if err != nil {
			log.Error().Err(err).Str("file", path).Msg("Upload failed")
			failed++
			continue
		}
		if err := report(os.Stdout, path, result, opts.asJSON); err != nil {
			log.Fatal().Err(err).Msg("Failed to write output")
		}
	}

	if failed > 0 {
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options

	fs := flag.NewFlagSet("imgupload", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.BoolVar(&opts.noResize, "no-resize", false, "upload the original without resizing")
	fs.BoolVar(&opts.asJSON, "json", false, "print one JSON object per file")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: imgupload [-no-resize] [-json] <file>...")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	opts.files = fs.Args()
	if len(opts.files) == 0 {
		fs.Usage()
		return opts, fmt.Errorf("no input files")
	}
	return opts, nil
}

func buildPipeline(ctx context.Context, cfg *config.Config, noResize bool) (*imagehost.Pipeline, error) {
	var objectStore imagehost.ObjectStore
	store, err := storage.New(ctx, cfg.StorageConfig())
	if err != nil {
		log.Warn().Err(err).Msg("Object storage unavailable, storage provider disabled")
	} else {
		objectStore = store
	}

	providers, err := imagehost.NewChain(cfg.ChainConfig(), objectStore, imagehost.NewHTTPClient(cfg.ImageProviderTimeout))
	if err != nil {
		return nil, err
	}

	pc := imagehost.Config{
		Providers:      providers,
		Inline:         imagehost.NewInlineEncoder(cfg.InlineWarnBytes),
		AttemptTimeout: cfg.ImageProviderTimeout,
	}
	if !noResize {
		pc.Preprocessor = imaging.NewProcessor(cfg.ImagingConfig())
	}
	return imagehost.NewPipeline(pc), nil
}

type reportLine struct {
	File      string          `json:"file"`
	URL       string          `json:"url"`
	Provider  string          `json:"provider"`
	Inline    bool            `json:"inline"`
	Processed bool            `json:"processed"`
	Bytes     int             `json:"bytes"`
	Attempts  []reportAttempt `json:"attempts"`
}

type reportAttempt struct {
	Provider   string `json:"provider"`
	Succeeded  bool   `json:"succeeded"`
	Failure    string `json:"failure,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

func report(w io.Writer, path string, result *imagehost.Result, asJSON bool) error {
	if !asJSON {
		ref := result.URL
		if result.Inline {
			ref = fmt.Sprintf("(inline, %d bytes)", len(result.URL))
		}
		_, err := fmt.Fprintf(w, "%s\t%s\t%s\n", path, result.Provider, ref)
		return err
	}

	line := reportLine{
		File:      path,
		URL:       result.URL,
		Provider:  result.Provider,
		Inline:    result.Inline,
		Processed: result.Processed,
		Bytes:     result.Bytes,
	}
	for _, a := range result.Attempts {
		attempt := reportAttempt{
			Provider:   a.Provider,
			Succeeded:  a.Succeeded,
			Failure:    string(a.Kind),
			DurationMs: a.Elapsed.Milliseconds(),
		}
		if a.Err != nil {
			attempt.Error = a.Err.Error()
		}
		line.Attempts = append(line.Attempts, attempt)
	}
	return json.NewEncoder(w).Encode(line)
}
