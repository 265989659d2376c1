// Package storage implements the object storage gateway: two policy-scoped
// buckets (audio, images) proxied onto a hosted S3-compatible provider.
package storage

import (
	"context"
	"io"
	"time"
)

// ObjectInfo describes one stored object as reported by the provider.
type ObjectInfo struct {
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}

// ObjectStore is the provider seam. The production implementation is MinIO;
// tests use the in-memory store.
type ObjectStore interface {
	EnsureBucket(ctx context.Context, bucket string) error
	// List returns objects whose name contains search; an empty search
	// returns the full listing.
	List(ctx context.Context, bucket, search string) ([]ObjectInfo, error)
	Put(ctx context.Context, bucket, name string, body io.Reader, size int64, contentType string) error
	Get(ctx context.Context, bucket, name string) ([]byte, error)
	Remove(ctx context.Context, bucket, name string) error
	PresignGet(ctx context.Context, bucket, name string, ttl time.Duration) (string, error)
}
