package resolver

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quantumelodic/internal/config"
	"quantumelodic/internal/logging"
	"quantumelodic/internal/storage"
)

type presignSpy struct {
	*storage.MemoryStore
	presigns int
}

func (p *presignSpy) PresignGet(ctx context.Context, bucket, name string, ttl time.Duration) (string, error) {
	p.presigns++
	return p.MemoryStore.PresignGet(ctx, bucket, name, ttl)
}

func newTestResolver(t *testing.T) (*Resolver, *storage.Gateway, *presignSpy) {
	t.Helper()
	cfg, err := config.Load()
	require.NoError(t, err)
	store := &presignSpy{MemoryStore: storage.NewMemoryStore()}
	gw := storage.NewGateway(store, cfg, logging.New("error", "text"))
	return New(gw, time.Hour, logging.New("error", "text")), gw, store
}

func TestResolveMissingObjectShortCircuits(t *testing.T) {
	res, _, store := newTestResolver(t)

	_, err := res.ResolveAudio(context.Background(), "ghost.mp3")
	require.ErrorIs(t, err, storage.ErrObjectNotFound)
	assert.Contains(t, err.Error(), "/admin/audio")
	// The sign call must never have been attempted.
	assert.Zero(t, store.presigns)
}

func TestResolveExistingObject(t *testing.T) {
	res, gw, _ := newTestResolver(t)
	ctx := context.Background()

	_, err := gw.Upload(ctx, storage.CategoryAudio, "ang-bocca.mp3", strings.NewReader("x"), 1, "audio/mpeg")
	require.NoError(t, err)

	before := time.Now()
	grant, err := res.ResolveAudio(ctx, "ang-bocca.mp3")
	require.NoError(t, err)
	assert.Equal(t, "ang-bocca.mp3", grant.ObjectName)
	assert.NotEmpty(t, grant.URL)
	assert.WithinDuration(t, before.Add(time.Hour), grant.ExpiresAt, 5*time.Second)
}

func TestResolveImageUsesSamePolicyAsAudio(t *testing.T) {
	res, gw, store := newTestResolver(t)
	ctx := context.Background()

	// Missing image: same 404 behavior as audio, no sign attempt.
	_, err := res.ResolveImage(ctx, "ghost.png")
	require.ErrorIs(t, err, storage.ErrObjectNotFound)
	assert.Zero(t, store.presigns)

	_, err = gw.Upload(ctx, storage.CategoryImage, "hero.png", strings.NewReader("x"), 1, "image/png")
	require.NoError(t, err)
	grant, err := res.ResolveImage(ctx, "hero.png")
	require.NoError(t, err)
	assert.NotEmpty(t, grant.URL)
}

func TestResolveAbortsWhenExistenceCheckFails(t *testing.T) {
	res, _, store := newTestResolver(t)
	store.ListErr = errors.New("provider down")

	_, err := res.ResolveAudio(context.Background(), "track.mp3")
	require.ErrorIs(t, err, storage.ErrStorageUnavailable)
	assert.Zero(t, store.presigns)
}
