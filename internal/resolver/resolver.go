// Package resolver turns stored object names into time-limited signed URLs.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"quantumelodic/internal/storage"
)

// SignedAccessGrant is an ephemeral read capability for one object. Grants are
// minted on every resolve call and never cached server-side.
type SignedAccessGrant struct {
	ObjectName string    `json:"objectName"`
	URL        string    `json:"url"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// Resolver resolves audio and image object names against the gateway. Both
// categories follow the same policy: the existence check must succeed, zero
// matches fail fast with ErrObjectNotFound, and only then is a URL signed.
type Resolver struct {
	gateway *storage.Gateway
	ttl     time.Duration
	log     *slog.Logger
}

// New constructs a Resolver with the configured TTL.
func New(gateway *storage.Gateway, ttl time.Duration, log *slog.Logger) *Resolver {
	return &Resolver{gateway: gateway, ttl: ttl, log: log}
}

// TTL returns the grant validity window.
func (r *Resolver) TTL() time.Duration {
	return r.ttl
}

// ResolveAudio resolves a name in the audio bucket.
func (r *Resolver) ResolveAudio(ctx context.Context, name string) (*SignedAccessGrant, error) {
	return r.resolve(ctx, storage.CategoryAudio, name, "/admin/audio")
}

// ResolveImage resolves a name in the image bucket.
func (r *Resolver) ResolveImage(ctx context.Context, name string) (*SignedAccessGrant, error) {
	return r.resolve(ctx, storage.CategoryImage, name, "/admin/images")
}

func (r *Resolver) resolve(ctx context.Context, cat storage.Category, name, adminPath string) (*SignedAccessGrant, error) {
	exists, err := r.gateway.Exists(ctx, cat, name)
	if err != nil {
		r.log.Error("existence check failed", "category", string(cat), "name", name, "error", err)
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s (upload %s via %s)", storage.ErrObjectNotFound, name, name, adminPath)
	}
	issued := time.Now()
	url, err := r.gateway.SignedURL(ctx, cat, name, r.ttl)
	if err != nil {
		return nil, err
	}
	return &SignedAccessGrant{
		ObjectName: name,
		URL:        url,
		ExpiresAt:  issued.Add(r.ttl),
	}, nil
}
