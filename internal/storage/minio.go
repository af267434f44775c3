package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"
)

// ObjectStorage keeps the original uploaded submission files. The grading
// pipeline only reads extracted text from the database, so blob storage
// being down never blocks grading.
type ObjectStorage interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

type MinIOStorage struct {
	client *minio.Client
	bucket string
	region string
	logger zerolog.Logger
}

func NewMinIOStorage(endpoint, accessKey, secretKey, bucket, region string, useSSL bool, logger zerolog.Logger) (*MinIOStorage, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	storage := &MinIOStorage{
		client: client,
		bucket: bucket,
		region: region,
		logger: logger,
	}

	if err := storage.ensureBucket(context.Background()); err != nil {
		// Keep running; uploads retry bucket creation on demand.
		logger.Error().Err(err).
			Str("endpoint", endpoint).
			Str("bucket", bucket).
			Msg("MinIO not ready during startup")
	} else {
		logger.Info().
			Str("endpoint", endpoint).
			Str("bucket", bucket).
			Bool("ssl", useSSL).
			Msg("Connected to MinIO")
	}

	return storage, nil
}

func (s *MinIOStorage) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if exists {
		return nil
	}

	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}

	return nil
}

func (s *MinIOStorage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if err := s.ensureBucket(ctx); err != nil {
		return err
	}

	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to store object %s: %w", key, err)
	}

	return nil
}

func (s *MinIOStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", key, err)
	}
	return obj, nil
}
