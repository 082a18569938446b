package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrNotConfigured is returned when S3 credentials or bucket are not set.
// Callers must surface it as a service-unavailable condition, not a client error.
var ErrNotConfigured = errors.New("object storage is not configured")

const (
	// FolderVideos is the S3 prefix for raw video uploads.
	FolderVideos = "videos"
	// FolderThumbnails is the S3 prefix for thumbnail images.
	FolderThumbnails = "thumbnails"
	// MaxThumbnailSize is the maximum allowed thumbnail upload size (5MB).
	MaxThumbnailSize = 5 * 1024 * 1024
)

// AllowedThumbnailTypes maps accepted thumbnail MIME types to extensions.
var AllowedThumbnailTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// S3Config holds S3 client configuration.
type S3Config struct {
	Region               string
	AccessKeyID          string
	SecretAccessKey      string
	Bucket               string
	PresignExpireSeconds int
}

// S3 issues pre-signed upload/download URLs and deletes objects in the video bucket.
// When credentials or bucket are missing the client is nil and every operation
// reports ErrNotConfigured.
type S3 struct {
	client   *s3.Client
	uploader *manager.Uploader
	cfg      S3Config
	logger   *zap.Logger
}

// NewS3 creates an S3 gateway. A missing bucket or credentials is not an error:
// the gateway is returned unconfigured and reports ErrNotConfigured per call.
func NewS3(ctx context.Context, cfg S3Config, logger *zap.Logger) (*S3, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Bucket == "" || cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		logger.Warn("S3 not configured (AWS_S3_BUCKET / AWS_ACCESS_KEY_ID / AWS_SECRET_ACCESS_KEY unset); presigned URLs disabled")
		return &S3{cfg: cfg, logger: logger}, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.SecretAccessKey, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg)
	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 5 * 1024 * 1024
	})
	logger.Info("S3 gateway ready", zap.String("region", cfg.Region), zap.String("bucket", cfg.Bucket))
	return &S3{client: client, uploader: uploader, cfg: cfg, logger: logger}, nil
}

// Configured reports whether the gateway has a usable client.
func (s *S3) Configured() bool {
	return s != nil && s.client != nil
}

// ObjectKey builds a globally unique object key: {folder}/{uuid}.{ext}.
func ObjectKey(folder, fileExtension string) string {
	ext := strings.TrimPrefix(strings.ToLower(fileExtension), ".")
	return path.Join(folder, uuid.New().String()+"."+ext)
}

// PresignExpire returns the configured presign lifetime.
func (s *S3) PresignExpire() time.Duration {
	if s.cfg.PresignExpireSeconds <= 0 {
		return time.Hour
	}
	return time.Duration(s.cfg.PresignExpireSeconds) * time.Second
}

// PresignUpload returns a pre-signed PUT URL for direct client upload of key.
func (s *S3) PresignUpload(ctx context.Context, key, contentType string) (string, error) {
	if !s.Configured() {
		return "", ErrNotConfigured
	}
	presignClient := s3.NewPresignClient(s.client)
	req, err := presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = s.PresignExpire()
	})
	if err != nil {
		return "", fmt.Errorf("presign put: %w", err)
	}
	return req.URL, nil
}

// PresignDownload returns a pre-signed GET URL for key. Zero expires uses the
// configured default lifetime.
func (s *S3) PresignDownload(ctx context.Context, key string, expires time.Duration) (string, error) {
	if !s.Configured() {
		return "", ErrNotConfigured
	}
	if expires <= 0 {
		expires = s.PresignExpire()
	}
	presignClient := s3.NewPresignClient(s.client)
	req, err := presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = expires
	})
	if err != nil {
		return "", fmt.Errorf("presign get: %w", err)
	}
	return req.URL, nil
}

// Upload streams a reader to S3 server-side (e.g. thumbnail images) and returns the object URL.
func (s *S3) Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	if !s.Configured() {
		return "", ErrNotConfigured
	}
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	return s.PublicObjectURL(key), nil
}

// DeleteObject removes an object from the bucket.
func (s *S3) DeleteObject(ctx context.Context, key string) error {
	if !s.Configured() {
		return ErrNotConfigured
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

// PublicObjectURL returns the direct URL for an object (no signing).
func (s *S3) PublicObjectURL(key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.Bucket, s.cfg.Region, key)
}

// ValidateThumbnailType reports whether the content type is allowed for thumbnails.
func ValidateThumbnailType(contentType string) bool {
	_, ok := AllowedThumbnailTypes[strings.ToLower(contentType)]
	return ok
}
