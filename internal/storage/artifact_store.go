package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"feedforge/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// ArtifactStore persists serialized feed documents under stable keys.
// Put overwrites idempotently; Delete treats an absent object as already
// deleted.
type ArtifactStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (int64, error)
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
}

// objectAPI is the slice of the minio client the store uses.
type objectAPI interface {
	PutObject(ctx context.Context, bucket, key string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucket, key string, opts minio.RemoveObjectOptions) error
}

// MinioStore is an ArtifactStore backed by an S3-compatible object
// store.
type MinioStore struct {
	client       objectAPI
	bucket       string
	endpoint     string
	useSSL       bool
	publicDomain string
	logger       *zap.Logger
}

// NewMinioStore connects to the configured object store.
func NewMinioStore(cfg config.StorageConfig, logger *zap.Logger) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object store client: %w", err)
	}

	return &MinioStore{
		client:       client,
		bucket:       cfg.Bucket,
		endpoint:     cfg.Endpoint,
		useSSL:       cfg.UseSSL,
		publicDomain: cfg.PublicDomain,
		logger:       logger,
	}, nil
}

// Put uploads the artifact, overwriting any previous object under the
// key, and returns the number of bytes written.
func (s *MinioStore) Put(ctx context.Context, key string, data []byte, contentType string) (int64, error) {
	info, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType, CacheControl: "max-age=3600"})
	if err != nil {
		return 0, fmt.Errorf("failed to store artifact %s: %w", key, err)
	}

	s.logger.Info("Artifact stored",
		zap.String("key", key),
		zap.Int64("size", info.Size),
		zap.String("url", s.PublicURL(key)),
	)
	return info.Size, nil
}

// Delete removes the artifact. A missing object is success; any other
// failure is reported upward.
func (s *MinioStore) Delete(ctx context.Context, key string) error {
	err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
	if err != nil {
		if resp := minio.ToErrorResponse(err); resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" {
			s.logger.Info("Artifact already absent, treating as deleted", zap.String("key", key))
			return nil
		}
		return fmt.Errorf("failed to delete artifact %s: %w", key, err)
	}
	return nil
}

// PublicURL derives the externally reachable artifact URL. Informational
// only; nothing internal depends on it.
func (s *MinioStore) PublicURL(key string) string {
	if s.publicDomain != "" {
		return fmt.Sprintf("https://%s/%s", s.publicDomain, key)
	}
	scheme := "http"
	if s.useSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.endpoint, s.bucket, key)
}
