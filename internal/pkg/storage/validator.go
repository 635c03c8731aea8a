package storage

import (
	"errors"
	"fmt"
	"io"

	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrFileTooLarge    = errors.New("file exceeds maximum size")
	ErrInvalidMimeType = errors.New("file type not allowed")
	ErrEmptyFile       = errors.New("file is empty")
)

// AllowedImageTypes are the media types accepted for catalog images.
var AllowedImageTypes = []string{
	"image/jpeg",
	"image/png",
	"image/webp",
	"image/gif",
	"image/bmp",
	"image/tiff",
}

// ValidateImage reads at most maxSize bytes and checks the content is an
// allowed image type by its magic bytes. Returns the data and detected type.
func ValidateImage(reader io.Reader, maxSize int64) ([]byte, string, error) {
	data, err := io.ReadAll(io.LimitReader(reader, maxSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read file: %w", err)
	}

	if len(data) == 0 {
		return nil, "", ErrEmptyFile
	}
	if int64(len(data)) > maxSize {
		return nil, "", ErrFileTooLarge
	}

	mtype := mimetype.Detect(data)
	for _, allowed := range AllowedImageTypes {
		if mtype.Is(allowed) {
			return data, allowed, nil
		}
	}

	return nil, "", fmt.Errorf("%w: %s", ErrInvalidMimeType, mtype.String())
}

// ExtensionForMime returns the file extension for a MIME type, or "".
func ExtensionForMime(mimeType string) string {
	if mtype := mimetype.Lookup(mimeType); mtype != nil {
		return mtype.Extension()
	}
	return ""
}
