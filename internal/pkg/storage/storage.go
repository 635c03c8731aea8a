package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
)

var ErrNotFound = errors.New("file not found")

// Storage is implemented by every object storage backend.
type Storage interface {
	// Put stores the object under key. Overwrites silently.
	Put(ctx context.Context, key string, reader io.Reader, contentType string) error

	// Get opens the object. Returns ErrNotFound if it does not exist.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the object. Returns nil if it does not exist.
	Delete(ctx context.Context, key string) error

	Exists(ctx context.Context, key string) (bool, error)

	// GetURL returns the public URL for key.
	GetURL(key string) string
}

// FileInfo describes a stored object
type FileInfo struct {
	Key         string
	Size        int64
	ContentType string
	URL         string
}

const (
	DriverLocal = "local"
	DriverS3    = "s3"
	DriverR2    = "r2"
)

// Config selects and configures a backend.
type Config struct {
	Driver string

	// S3 / MinIO
	S3Endpoint     string
	S3Region       string
	S3AccessKey    string
	S3SecretKey    string
	S3Bucket       string
	S3PublicURL    string
	S3UsePathStyle bool

	R2 R2Config

	LocalPath string
	LocalURL  string
}

// New builds the backend named by cfg.Driver.
// On error the returned Storage is a nil interface.
func New(ctx context.Context, cfg Config) (Storage, error) {
	var (
		store Storage
		err   error
	)
	switch cfg.Driver {
	case DriverS3:
		var s3 *S3Storage
		if s3, err = NewS3Storage(ctx, cfg); err == nil {
			store = s3
		}
	case DriverR2:
		var r2 *S3Storage
		if r2, err = NewR2Storage(ctx, cfg.R2); err == nil {
			store = r2
		}
	case DriverLocal, "":
		var local *LocalStorage
		if local, err = NewLocalStorage(cfg.LocalPath, cfg.LocalURL); err == nil {
			store = local
		}
	default:
		err = fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	return store, nil
}
