package config

import (
	"github.com/jewelry/jewelry-api/internal/pkg/imagehost"
	"github.com/jewelry/jewelry-api/internal/pkg/imaging"
	"github.com/jewelry/jewelry-api/internal/pkg/storage"
)

// StorageConfig returns the object storage settings for the selected driver.
func (c *Config) StorageConfig() storage.Config {
	return storage.Config{
		Driver: c.StorageDriver,

		S3Endpoint:     c.S3Endpoint,
		S3Region:       c.S3Region,
		S3AccessKey:    c.S3AccessKeyID,
		S3SecretKey:    c.S3SecretAccessKey,
		S3Bucket:       c.S3BucketName,
		S3PublicURL:    c.S3PublicURL,
		S3UsePathStyle: c.S3UsePathStyle,

		R2: storage.R2Config{
			AccountID:       c.R2AccountID,
			AccessKeyID:     c.R2AccessKeyID,
			AccessKeySecret: c.R2AccessKeySecret,
			BucketName:      c.R2BucketName,
			PublicURL:       c.R2PublicURL,
		},

		LocalPath: c.LocalStoragePath,
		LocalURL:  c.LocalStorageURL,
	}
}

// ImagingConfig returns the pre-processing settings.
func (c *Config) ImagingConfig() imaging.Config {
	return imaging.Config{
		MaxWidth:  c.ImageMaxDimension,
		MaxHeight: c.ImageMaxDimension,
		Quality:   c.ImageQuality,
	}
}

// ChainConfig returns the hosting provider order and credentials.
func (c *Config) ChainConfig() imagehost.ChainConfig {
	return imagehost.ChainConfig{
		Order:             c.ImageProviders,
		Strict:            c.IsProduction(),
		FreeImageKey:      c.FreeImageAPIKey,
		FreeImageEndpoint: c.FreeImageEndpoint,
		PostImageEndpoint: c.PostImageEndpoint,
		ImgBBKey:          c.ImgBBAPIKey,
		ImgBBEndpoint:     c.ImgBBEndpoint,
		ImgurClientID:     c.ImgurClientID,
		ImgurEndpoint:     c.ImgurEndpoint,
	}
}
