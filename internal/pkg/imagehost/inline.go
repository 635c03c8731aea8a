package imagehost

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/jewelry/jewelry-api/internal/pkg/logger"
)

// ProviderInline names the terminal fallback in attempt logs and results.
const ProviderInline = "inline"

var ErrNotDataURL = errors.New("not a base64 data URL")

// InlineEncoder is the terminal fallback: it embeds the image in a data URL.
// It needs no network and fails only when the asset cannot be read.
type InlineEncoder struct {
	warnBytes int
}

// NewInlineEncoder logs a warning for references longer than warnBytes.
// There is no hard cap.
func NewInlineEncoder(warnBytes int) *InlineEncoder {
	return &InlineEncoder{warnBytes: warnBytes}
}

func (e *InlineEncoder) Name() string { return ProviderInline }

// Encode returns "data:<type>;base64,<payload>".
func (e *InlineEncoder) Encode(ctx context.Context, asset *Asset) (string, error) {
	data, err := asset.Bytes()
	if err != nil {
		return "", err
	}

	contentType := asset.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	ref := "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)

	if e.warnBytes > 0 && len(ref) > e.warnBytes {
		logger.FromContext(ctx).Warn().
			Str("filename", asset.Filename).
			Int("reference_bytes", len(ref)).
			Int("warn_bytes", e.warnBytes).
			Msg("Inline image reference is large")
	}
	return ref, nil
}

// IsInline reports whether ref is an inline data URL rather than a hosted URL.
func IsInline(ref string) bool {
	return strings.HasPrefix(ref, "data:")
}

// DecodeDataURL splits a base64 data URL into its media type and bytes.
func DecodeDataURL(ref string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(ref, "data:")
	if !ok {
		return "", nil, ErrNotDataURL
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrNotDataURL
	}
	contentType, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", nil, ErrNotDataURL
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, err
	}
	return contentType, data, nil
}
