package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// R2Config holds R2 connection configuration
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	AccessKeySecret string
	BucketName      string
	PublicURL       string // e.g. https://cdn.example.com
}

// NewR2Storage creates a Cloudflare R2 backed storage.
// R2 speaks the S3 API at https://<account_id>.r2.cloudflarestorage.com.
func NewR2Storage(ctx context.Context, cfg R2Config) (*S3Storage, error) {
	if cfg.AccountID == "" {
		return nil, fmt.Errorf("R2 account id is not configured")
	}
	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.AccessKeySecret,
			"",
		)),
		config.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load R2 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})

	publicURL := strings.TrimRight(cfg.PublicURL, "/")
	if publicURL == "" {
		// requires the bucket to be public
		publicURL = fmt.Sprintf("https://%s.r2.dev", cfg.BucketName)
	}

	return &S3Storage{
		client:    client,
		bucket:    cfg.BucketName,
		endpoint:  endpoint,
		publicURL: publicURL,
		label:     "R2",
	}, nil
}
