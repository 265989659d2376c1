package kv

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySetGetOverwrite(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte(`{"a":1}`)))
	require.NoError(t, store.Set(ctx, "k", []byte(`{"a":2}`)))

	value, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":2}`, string(value))
}

func TestMemoryGetMissing(t *testing.T) {
	store := NewMemory()
	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestMemoryPrefixScanOrdered(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "contact_2_b", []byte("2")))
	require.NoError(t, store.Set(ctx, "contact_1_a", []byte("1")))
	require.NoError(t, store.Set(ctx, "analysis_x", []byte("ignored")))

	entries, err := store.GetByPrefix(ctx, "contact_")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "contact_1_a", entries[0].Key)
	assert.Equal(t, "contact_2_b", entries[1].Key)
}

func TestMemoryDeleteIsIdempotent(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("v")))
	require.NoError(t, store.Delete(ctx, "k"))
	require.NoError(t, store.Delete(ctx, "k"))

	_, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}
