package stores

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/techtrack/internal/core/kv"
)

func TestMemoryStore_ExpiryFollowsClock(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	store := NewMemoryStore()
	store.now = func() time.Time { return now }

	require.NoError(t, store.SetTTL(ctx, "k", "v", time.Minute))

	has, err := store.Has(ctx, "k")
	require.NoError(t, err)
	assert.True(t, has)

	now = now.Add(2 * time.Minute)

	var v string
	assert.ErrorIs(t, store.Get(ctx, "k", &v), kv.ErrNotFound)
	assert.Zero(t, store.entries.Len())
}

func TestMemoryStore_ValuesAreCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	list := []string{"a"}
	require.NoError(t, store.Set(ctx, "list", list))
	list[0] = "changed"

	var got []string
	require.NoError(t, store.Get(ctx, "list", &got))
	assert.Equal(t, []string{"a"}, got)
}
