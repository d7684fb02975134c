// Package storage abstracts the blob store holding generated image bytes.
package storage

import "context"

type BlobStore interface {
	// Upload writes data under path and returns a publicly readable URL.
	Upload(ctx context.Context, path string, data []byte, contentType string) (string, error)
}
