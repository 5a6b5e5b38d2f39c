package storage

import (
	"context"
	"errors"
)

var ErrEmptyKey = errors.New("object key is required")

// PutOptions describes how an object is declared to the store.
type PutOptions struct {
	ContentType     string
	ContentEncoding string
}

// BlobStore is the narrow object-store contract the upload pipeline needs.
// Implementations must be safe for concurrent use.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, opts PutOptions) error
	// PublicURL derives the retrieval URL from the key alone.
	PublicURL(key string) string
	HealthCheck(ctx context.Context) error
}
