package storage

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func TestValidateImage(t *testing.T) {
	t.Parallel()

	data := pngBytes(t)

	got, mimeType, err := ValidateImage(bytes.NewReader(data), 1<<20)
	if err != nil {
		t.Fatalf("ValidateImage: %v", err)
	}
	if mimeType != "image/png" {
		t.Fatalf("mime = %q, want image/png", mimeType)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("returned data differs from input")
	}

	if _, _, err := ValidateImage(bytes.NewReader(data), int64(len(data)-1)); !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}
	if _, _, err := ValidateImage(strings.NewReader(""), 1<<20); !errors.Is(err, ErrEmptyFile) {
		t.Fatalf("expected ErrEmptyFile, got %v", err)
	}
	if _, _, err := ValidateImage(strings.NewReader("%PDF-1.4 hello"), 1<<20); !errors.Is(err, ErrInvalidMimeType) {
		t.Fatalf("expected ErrInvalidMimeType, got %v", err)
	}
}

func TestExtensionForMime(t *testing.T) {
	t.Parallel()

	if got := ExtensionForMime("image/png"); got != ".png" {
		t.Fatalf("ExtensionForMime(png) = %q", got)
	}
	if got := ExtensionForMime("application/x-unknown-thing"); got != "" {
		t.Fatalf("ExtensionForMime(unknown) = %q, want empty", got)
	}
}
