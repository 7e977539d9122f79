// Package storage defines the interface for object storage operations.
// Swap implementations by changing the concrete type injected at startup —
// the MinIO implementation works with any S3-compatible provider (MinIO, AWS S3, ArvanCloud).
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrObjectNotFound is returned by Stat when no object exists under the key.
var ErrObjectNotFound = errors.New("object not found")

// ObjectInfo is the storage-side metadata of an object, as reported by the
// store itself. Confirmation logic trusts this over anything a client claims.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// ObjectStore is the interface for authorizing, performing, and verifying
// object writes.
type ObjectStore interface {
	// PresignPut returns a time-limited URL authorizing exactly one PUT of
	// the given key. The signature pins contentType: a PUT with a different
	// Content-Type header is rejected by the store.
	PresignPut(ctx context.Context, key, contentType string, expiry time.Duration) (string, error)
	// Put streams data to the store under the given key (direct upload path).
	Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	// Stat reports whether an object exists and what the store knows about it.
	// Returns ErrObjectNotFound when the key is absent.
	Stat(ctx context.Context, key string) (*ObjectInfo, error)
	// PublicURL constructs the browser-accessible URL for a given key.
	PublicURL(key string) string
}
