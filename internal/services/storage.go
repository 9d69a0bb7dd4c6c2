package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/leduongnhattt/Food-Delivery-App-sub002/internal/config"
)

// StorageService uploads images (avatars, restaurant and menu photos) to an
// S3-compatible bucket and hands back public URLs. Only the upload contract
// matters here; browsers fetch the objects directly.
type StorageService struct {
	cfg    *config.StorageConfig
	client *s3.Client
	retry  RetryPolicy
}

func NewStorageService(cfg *config.StorageConfig) (*StorageService, error) {
	if !cfg.Enabled {
		return &StorageService{cfg: cfg}, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &StorageService{
		cfg:    cfg,
		client: client,
		retry:  ProviderRetryPolicy(),
	}, nil
}

func (s *StorageService) IsEnabled() bool {
	return s.cfg.Enabled
}

// UploadImage stores data under a timestamped key and returns the public URL.
func (s *StorageService) UploadImage(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	if !s.cfg.Enabled {
		return "", errors.New("image storage is disabled")
	}

	key := fmt.Sprintf("images/%d_%s", time.Now().UnixNano(), sanitizeObjectName(name))

	err := s.retry.Do(ctx, "image upload", func(ctx context.Context) error {
		_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.cfg.Bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(data),
			ContentType: aws.String(contentType),
		})
		return err
	})
	if err != nil {
		return "", err
	}

	base := strings.TrimSuffix(s.cfg.PublicURL, "/")
	if base == "" {
		base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", s.cfg.Bucket, s.cfg.Region)
	}
	return base + "/" + key, nil
}

// sanitizeObjectName keeps object keys URL-safe.
func sanitizeObjectName(name string) string {
	var sb strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}
	return sb.String()
}
