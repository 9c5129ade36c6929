package storage

import (
	"context"
)

// ObjectStorage is the blob-store capability backing the plan archive.
type ObjectStorage interface {
	// PutObject writes body under objectKey, overwriting any previous
	// object.
	PutObject(ctx context.Context, objectKey string, body []byte, contentType string) error
}
