package imagehost

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
)

// Asset is an image on its way to a host. Its bytes are loaded at most once.
type Asset struct {
	Filename    string
	ContentType string

	once sync.Once
	load func() ([]byte, error)
	data []byte
	err  error
}

// NewAsset wraps bytes already in memory.
func NewAsset(filename, contentType string, data []byte) *Asset {
	return &Asset{
		Filename:    filename,
		ContentType: contentType,
		load:        func() ([]byte, error) { return data, nil },
	}
}

// FileAsset defers reading path until the bytes are first needed.
func FileAsset(path string) *Asset {
	return &Asset{
		Filename: filepath.Base(path),
		load:     func() ([]byte, error) { return os.ReadFile(path) },
	}
}

// Bytes returns the asset content. When no content type was declared it is
// sniffed from the data.
func (a *Asset) Bytes() ([]byte, error) {
	a.once.Do(func() {
		a.data, a.err = a.load()
		if a.err != nil {
			a.err = fmt.Errorf("%w: %v", ErrAssetUnreadable, a.err)
			return
		}
		if a.ContentType == "" && len(a.data) > 0 {
			a.ContentType = mediaType(mimetype.Detect(a.data).String())
		}
	})
	return a.data, a.err
}

// Size is the byte size of the asset, 0 if it cannot be read.
func (a *Asset) Size() int64 {
	data, err := a.Bytes()
	if err != nil {
		return 0
	}
	return int64(len(data))
}

// mediaType drops parameters such as "; charset=utf-8".
func mediaType(s string) string {
	if i := strings.IndexByte(s, ';'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
