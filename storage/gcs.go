package storage

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/storage"
)

const uploadTimeout = 50 * time.Second

// GCSStore uploads objects to a public Google Cloud Storage bucket.
type GCSStore struct {
	cl         *storage.Client
	bucketName string
}

func NewGCSStore(ctx context.Context, bucketName string) (*GCSStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}
	return &GCSStore{cl: client, bucketName: bucketName}, nil
}

func (s *GCSStore) Upload(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	wc := s.cl.Bucket(s.bucketName).Object(path).NewWriter(ctx)
	wc.ContentType = contentType
	if _, err := wc.Write(data); err != nil {
		return "", fmt.Errorf("writing object %q: %w", path, err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("closing writer for %q: %w", path, err)
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucketName, path), nil
}

func (s *GCSStore) Close() error {
	return s.cl.Close()
}

var _ BlobStore = (*GCSStore)(nil)
