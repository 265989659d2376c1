package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"quantumelodic/internal/config"
)

// Category selects one of the two policy-scoped buckets.
type Category string

const (
	CategoryAudio Category = "audio"
	CategoryImage Category = "image"
)

const (
	maxAudioBytes = 50 << 20 // 50 MiB
	maxImageBytes = 10 << 20 // 10 MiB
)

// BucketPolicy is the fixed per-bucket policy applied before any provider
// call: visibility is always private, uploads must carry a MIME type in the
// bucket's category and must not exceed the ceiling.
type BucketPolicy struct {
	Name         string
	MaxSizeBytes int64
	MIMEPrefix   string
	AllowedTypes []string
}

// AudioPolicy returns the audio bucket policy.
func AudioPolicy(bucket string) BucketPolicy {
	return BucketPolicy{
		Name:         bucket,
		MaxSizeBytes: maxAudioBytes,
		MIMEPrefix:   "audio/",
		AllowedTypes: []string{"audio/mpeg", "audio/mp3", "audio/wav", "audio/ogg"},
	}
}

// ImagePolicy returns the image bucket policy.
func ImagePolicy(bucket string) BucketPolicy {
	return BucketPolicy{
		Name:         bucket,
		MaxSizeBytes: maxImageBytes,
		MIMEPrefix:   "image/",
		AllowedTypes: []string{"image/png", "image/jpeg", "image/webp", "image/gif", "image/svg+xml"},
	}
}

// Gateway proxies list/upload/delete/sign operations onto the provider,
// enforcing bucket policy first. It is stateless apart from the provider
// handle and is shared by all requests.
type Gateway struct {
	store    ObjectStore
	policies map[Category]BucketPolicy
	log      *slog.Logger
}

// NewGateway builds a Gateway over the given provider.
func NewGateway(store ObjectStore, cfg *config.Config, log *slog.Logger) *Gateway {
	return &Gateway{
		store: store,
		policies: map[Category]BucketPolicy{
			CategoryAudio: AudioPolicy(cfg.Storage.AudioBucket),
			CategoryImage: ImagePolicy(cfg.Storage.ImageBucket),
		},
		log: log,
	}
}

// Policy returns the policy for a category.
func (g *Gateway) Policy(cat Category) BucketPolicy {
	return g.policies[cat]
}

// EnsureBuckets creates any missing bucket at startup. Best effort: failures
// are logged and never block request serving.
func (g *Gateway) EnsureBuckets(ctx context.Context) {
	for cat, policy := range g.policies {
		if err := g.store.EnsureBucket(ctx, policy.Name); err != nil {
			g.log.Error("bucket init failed", "category", string(cat), "bucket", policy.Name, "error", err)
			continue
		}
		g.log.Info("bucket ready", "category", string(cat), "bucket", policy.Name)
	}
}

// List returns the provider's full listing for the category. No pagination.
func (g *Gateway) List(ctx context.Context, cat Category) ([]ObjectInfo, error) {
	objects, err := g.store.List(ctx, g.policies[cat].Name, "")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return objects, nil
}

// Upload validates the declared MIME type and payload size against the bucket
// policy, then upserts the object. An existing object of the same name is
// silently replaced.
func (g *Gateway) Upload(ctx context.Context, cat Category, name string, body io.Reader, size int64, declaredType string) (string, error) {
	policy := g.policies[cat]
	if !strings.HasPrefix(declaredType, policy.MIMEPrefix) {
		return "", fmt.Errorf("%w: %q is not %s*", ErrInvalidMediaType, declaredType, policy.MIMEPrefix)
	}
	if size > policy.MaxSizeBytes {
		return "", fmt.Errorf("%w: %d bytes exceeds the %d byte ceiling", ErrPayloadTooLarge, size, policy.MaxSizeBytes)
	}
	if err := g.store.Put(ctx, policy.Name, name, body, size, declaredType); err != nil {
		return "", classifyWriteError(err)
	}
	return name, nil
}

// Download fetches the raw object bytes. Used by the analysis worker.
func (g *Gateway) Download(ctx context.Context, cat Category, name string) ([]byte, error) {
	data, err := g.store.Get(ctx, g.policies[cat].Name, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return data, nil
}

// Delete removes the object. No existence check: deleting a nonexistent name
// is indistinguishable from a successful delete.
func (g *Gateway) Delete(ctx context.Context, cat Category, name string) error {
	if err := g.store.Remove(ctx, g.policies[cat].Name, name); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageWriteFailed, err)
	}
	return nil
}

// Exists reports whether an object with exactly this name is present, via a
// filtered list call.
func (g *Gateway) Exists(ctx context.Context, cat Category, name string) (bool, error) {
	objects, err := g.store.List(ctx, g.policies[cat].Name, name)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	for _, obj := range objects {
		if obj.Name == name {
			return true, nil
		}
	}
	return false, nil
}

// SignedURL mints a time-limited GET URL for the object.
func (g *Gateway) SignedURL(ctx context.Context, cat Category, name string, ttl time.Duration) (string, error) {
	u, err := g.store.PresignGet(ctx, g.policies[cat].Name, name, ttl)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSigningFailed, err)
	}
	return u, nil
}
