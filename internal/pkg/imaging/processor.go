package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

var (
	ErrDecode = errors.New("failed to decode image")
	ErrEncode = errors.New("failed to encode image")
)

// OutputContentType is the media type of every processed image.
const OutputContentType = "image/jpeg"

// ProcessedImage is the resized, re-encoded derivative of an upload.
type ProcessedImage struct {
	Data           []byte
	ContentType    string
	Filename       string
	Width          int
	Height         int
	OriginalWidth  int
	OriginalHeight int
}

// Config for image processing
type Config struct {
	MaxWidth  int // default 800
	MaxHeight int // default 800
	Quality   int // JPEG quality 1-100, default 80
}

// DefaultConfig returns default processing config
func DefaultConfig() Config {
	return Config{
		MaxWidth:  800,
		MaxHeight: 800,
		Quality:   80,
	}
}

// Processor handles image processing
type Processor struct {
	config Config
}

// NewProcessor creates image processor. Zero fields fall back to DefaultConfig.
func NewProcessor(config Config) *Processor {
	def := DefaultConfig()
	if config.MaxWidth <= 0 {
		config.MaxWidth = def.MaxWidth
	}
	if config.MaxHeight <= 0 {
		config.MaxHeight = def.MaxHeight
	}
	if config.Quality <= 0 || config.Quality > 100 {
		config.Quality = def.Quality
	}
	return &Processor{config: config}
}

// Config returns the effective configuration.
func (p *Processor) Config() Config {
	return p.config
}

// Process decodes data, shrinks it to fit MaxWidth x MaxHeight keeping the
// aspect ratio, and re-encodes it as JPEG. Images that already fit keep
// their dimensions but are still re-encoded.
func (p *Processor) Process(data []byte, filename string) (*ProcessedImage, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	srcW, srcH := img.Bounds().Dx(), img.Bounds().Dy()
	if srcW == 0 || srcH == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrDecode)
	}

	w, h := FitDimensions(srcW, srcH, p.config.MaxWidth, p.config.MaxHeight)

	var out image.Image = img
	if w != srcW || h != srcH {
		out = imaging.Resize(img, w, h, imaging.Lanczos)
	}

	// JPEG has no alpha channel
	canvas := imaging.New(w, h, color.White)
	canvas = imaging.Overlay(canvas, out, image.Pt(0, 0), 1.0)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, canvas, imaging.JPEG, imaging.JPEGQuality(p.config.Quality)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}

	return &ProcessedImage{
		Data:           buf.Bytes(),
		ContentType:    OutputContentType,
		Filename:       jpegName(filename),
		Width:          w,
		Height:         h,
		OriginalWidth:  srcW,
		OriginalHeight: srcH,
	}, nil
}

// FitDimensions computes the output size for a w x h image bounded by
// maxW x maxH. The dominant side is clamped and the other one scaled
// proportionally. Images that fit are returned unchanged, never upscaled.
func FitDimensions(w, h, maxW, maxH int) (int, int) {
	if w > h {
		if w > maxW {
			h = scale(h, maxW, w)
			w = maxW
		}
	} else {
		if h > maxH {
			w = scale(w, maxH, h)
			h = maxH
		}
	}

	// a very wide or tall image may still overflow the other axis
	if w > maxW {
		h = scale(h, maxW, w)
		w = maxW
	}
	if h > maxH {
		w = scale(w, maxH, h)
		h = maxH
	}
	return w, h
}

func scale(side, num, den int) int {
	v := int(math.Round(float64(side) * float64(num) / float64(den)))
	if v < 1 {
		return 1
	}
	return v
}

func jpegName(filename string) string {
	base := filepath.Base(filename)
	if base == "." || base == "/" || base == "" {
		return "image.jpg"
	}
	ext := filepath.Ext(base)
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg":
		return base
	}
	return strings.TrimSuffix(base, ext) + ".jpg"
}
