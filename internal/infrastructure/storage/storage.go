// Package storage publishes generated dish photos either inline as data
// URLs or to an S3 compatible bucket.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Aethermaxx/ChefCulina/internal/domain/ai"
	"github.com/Aethermaxx/ChefCulina/internal/infrastructure/config"
	"github.com/Aethermaxx/ChefCulina/internal/ports/outbound"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"go.uber.org/zap"
)

// imageCacheTTL is long because object keys are content addressed.
const imageCacheTTL = 365 * 24 * time.Hour

// New returns the storage backend selected by cfg.Provider.
func New(cfg *config.StorageConfig, logger *zap.Logger) (outbound.StorageService, error) {
	switch cfg.Provider {
	case "", "inline":
		return InlineStorage{}, nil
	case "s3":
		return NewS3Storage(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.Provider)
	}
}

// InlineStorage returns data URLs and stores nothing.
type InlineStorage struct{}

// Upload encodes data as a data URL.
func (InlineStorage) Upload(_ context.Context, _ string, data []byte, contentType string) (string, error) {
	return ai.DataURL(contentType, data), nil
}

// S3Storage uploads objects to a bucket.
type S3Storage struct {
	client        s3iface.S3API
	bucket        string
	publicBaseURL string
	logger        *zap.Logger
}

// NewS3Storage creates an S3 backend. Static credentials are used when
// configured, otherwise the default AWS credential chain applies.
func NewS3Storage(cfg *config.StorageConfig, logger *zap.Logger) (*S3Storage, error) {
	awsCfg := &aws.Config{
		Region:           aws.String(cfg.Region),
		S3ForcePathStyle: aws.Bool(cfg.ForcePathStyle),
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
	}
	if cfg.AccessKeyID != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return NewS3StorageWithClient(s3.New(sess), cfg, logger), nil
}

// NewS3StorageWithClient wires an existing S3 client.
func NewS3StorageWithClient(client s3iface.S3API, cfg *config.StorageConfig, logger *zap.Logger) *S3Storage {
	base := strings.TrimRight(cfg.PublicBaseURL, "/")
	if base == "" {
		base = defaultBaseURL(cfg)
	}
	return &S3Storage{
		client:        client,
		bucket:        cfg.S3Bucket,
		publicBaseURL: base,
		logger:        logger.Named("s3"),
	}
}

func defaultBaseURL(cfg *config.StorageConfig) string {
	if cfg.Endpoint != "" {
		return strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.S3Bucket
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3Bucket, cfg.Region)
}

// Upload puts data under key and returns its public URL.
func (s *S3Storage) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(data),
		ContentType:  aws.String(contentType),
		CacheControl: aws.String(fmt.Sprintf("public, max-age=%d, immutable", int(imageCacheTTL.Seconds()))),
	})
	if err != nil {
		s.logger.Error("Failed to upload object", zap.String("key", key), zap.Error(err))
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}

	return s.publicBaseURL + "/" + escapeKey(key), nil
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
