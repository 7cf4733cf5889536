package storage

import (
	"bytes"
	"context"
	"strings"

	"virtuefeed/internal/config"
	"virtuefeed/internal/observability"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStore keeps uploads in an S3-compatible bucket.
type MinioStore struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

// NewMinioStore connects to the bucket, creating it on first use.
func NewMinioStore(ctx context.Context, cfg *config.Config) (*MinioStore, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, err
	}

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, err
		}
	}

	publicURL := strings.TrimRight(cfg.MinioPublicURL, "/")
	if publicURL == "" {
		scheme := "http://"
		if cfg.MinioUseSSL {
			scheme = "https://"
		}
		publicURL = scheme + cfg.MinioEndpoint
	}

	return &MinioStore{client: client, bucket: cfg.MinioBucket, publicURL: publicURL}, nil
}

func (s *MinioStore) Driver() string { return "minio" }

func (s *MinioStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	ctx, span := observability.GetTraceLayer().TraceOutboundCall(ctx, "minio", "put_object")
	defer span.End()

	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		observability.RecordErrorInContext(ctx, err)
		return "", err
	}
	return s.url(key), nil
}

func (s *MinioStore) List(ctx context.Context) ([]Object, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var objects []Object
	for info := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Recursive: true}) {
		if info.Err != nil {
			return nil, info.Err
		}
		objects = append(objects, Object{Key: info.Key, URL: s.url(info.Key), Size: info.Size, ModTime: info.LastModified})
	}
	return objects, nil
}

func (s *MinioStore) Delete(ctx context.Context, key string) error {
	return s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}

func (s *MinioStore) url(key string) string {
	return s.publicURL + "/" + s.bucket + "/" + key
}
