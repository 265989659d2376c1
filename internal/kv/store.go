// Package kv provides the flat key-value table used for contact records and
// analysis profiles. Keys are type-prefixed strings ("contact_...",
// "analysis_..."); values are opaque JSON documents.
package kv

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by Get for absent keys.
var ErrKeyNotFound = errors.New("key not found")

// Entry is one key/value pair.
type Entry struct {
	Key   string
	Value []byte
}

// Store is the persistence seam. Postgres backs production; tests use the
// memory store.
type Store interface {
	// Set upserts a value under key.
	Set(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	// GetByPrefix returns all entries whose key starts with prefix, ordered
	// by key.
	GetByPrefix(ctx context.Context, prefix string) ([]Entry, error)
	// Delete removes key; deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
