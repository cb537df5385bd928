// Package storage stores equipment attachments in S3-compatible object storage.
// Clients upload and download directly through presigned URLs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/mes/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

const (
	defaultRegion            = "us-east-1"
	defaultPresignExpiration = 15 * time.Minute
)

// ErrEmptyKey is returned for operations without an object key
var ErrEmptyKey = errors.New("storage key is required")

// PresignedURL is a time-limited URL for one object
type PresignedURL struct {
	URL       string    `json:"url"`
	Method    string    `json:"method"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// S3Storage implements object storage on the AWS SDK v2. Any S3-compatible
// backend works (AWS, MinIO, RustFS).
type S3Storage struct {
	client            *s3.Client
	presign           *s3.PresignClient
	bucket            string
	presignExpiration time.Duration
	logger            *zap.Logger
	now               func() time.Time
}

// Option configures S3Storage
type Option func(*S3Storage)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *S3Storage) {
		s.logger = logger
	}
}

// NewS3Storage creates an S3Storage from configuration. No request is sent.
func NewS3Storage(ctx context.Context, cfg config.StorageConfig, opts ...Option) (*S3Storage, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, errors.New("storage credentials are required")
	}
	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if ep := normalizeEndpoint(cfg.Endpoint); ep != "" {
			o.BaseEndpoint = aws.String(ep)
		}
	})

	s := &S3Storage{
		client:            client,
		presign:           s3.NewPresignClient(client),
		bucket:            cfg.Bucket,
		presignExpiration: cfg.PresignExpiration,
		logger:            zap.NewNop(),
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.presignExpiration <= 0 {
		s.presignExpiration = defaultPresignExpiration
	}
	return s, nil
}

func normalizeEndpoint(ep string) string {
	ep = strings.TrimRight(strings.TrimSpace(ep), "/")
	if ep == "" || strings.HasPrefix(ep, "http://") || strings.HasPrefix(ep, "https://") {
		return ep
	}
	return "http://" + ep
}

// Bucket returns the bucket name
func (s *S3Storage) Bucket() string {
	return s.bucket
}

// EnsureBucket creates the bucket when it does not exist yet
func (s *S3Storage) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return nil
	}
	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket: %w", err)
	}

	s.logger.Info("Creating attachment bucket", zap.String("bucket", s.bucket))
	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)})
	var owned *types.BucketAlreadyOwnedByYou
	if err != nil && !errors.As(err, &owned) {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// PresignUpload returns a PUT URL for key
func (s *S3Storage) PresignUpload(ctx context.Context, key, contentType string) (*PresignedURL, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	in := &s3.PutObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}
	req, err := s.presign.PresignPutObject(ctx, in, s3.WithPresignExpires(s.presignExpiration))
	if err != nil {
		return nil, fmt.Errorf("failed to presign upload: %w", err)
	}
	return &PresignedURL{URL: req.URL, Method: req.Method, ExpiresAt: s.now().Add(s.presignExpiration)}, nil
}

// PresignDownload returns a GET URL for key
func (s *S3Storage) PresignDownload(ctx context.Context, key string) (*PresignedURL, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.presignExpiration))
	if err != nil {
		return nil, fmt.Errorf("failed to presign download: %w", err)
	}
	return &PresignedURL{URL: req.URL, Method: req.Method, ExpiresAt: s.now().Add(s.presignExpiration)}, nil
}

// Delete removes key; deleting a missing object succeeds
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}
