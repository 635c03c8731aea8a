package imagehost

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"time"
)

// ObjectStore is the subset of storage.Storage the storage provider needs.
type ObjectStore interface {
	Put(ctx context.Context, key string, reader io.Reader, contentType string) error
	GetURL(key string) string
}

// ObjectPrefix is the folder catalog images are written to.
const ObjectPrefix = "jewelry_images"

var unsafeKeyChars = regexp.MustCompile(`[^a-zA-Z0-9.-]`)

// ObjectKey builds "<prefix>/<unix-ms>_<sanitised name>".
func ObjectKey(prefix, filename string, at time.Time) string {
	if filename == "" {
		filename = "image"
	}
	return fmt.Sprintf("%s/%d_%s", prefix, at.UnixMilli(), unsafeKeyChars.ReplaceAllString(filename, "_"))
}

// StorageProvider writes the asset to our own bucket.
type StorageProvider struct {
	store  ObjectStore
	prefix string
	now    func() time.Time
}

func NewStorageProvider(store ObjectStore) *StorageProvider {
	return &StorageProvider{store: store, prefix: ObjectPrefix, now: time.Now}
}

func (p *StorageProvider) Name() string { return ProviderStorage }

func (p *StorageProvider) Upload(ctx context.Context, asset *Asset) (string, error) {
	data, err := asset.Bytes()
	if err != nil {
		return "", &ProviderError{Provider: ProviderStorage, Kind: KindRequest, Err: err}
	}

	contentType := asset.ContentType
	if contentType == "" {
		contentType = "image/jpeg"
	}

	key := ObjectKey(p.prefix, asset.Filename, p.now())
	if err := p.store.Put(ctx, key, bytes.NewReader(data), contentType); err != nil {
		return "", classifyRequestError(ctx, ProviderStorage, err)
	}
	return p.store.GetURL(key), nil
}
