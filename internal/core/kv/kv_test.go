package kv_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/techtrack/internal/core/kv"
	"github.com/colonyops/techtrack/internal/data/db"
	"github.com/colonyops/techtrack/internal/data/stores"
	"github.com/colonyops/techtrack/internal/store/jsonfile"
)

var backends = map[string]func(t *testing.T) kv.KV{
	"sqlite": func(t *testing.T) kv.KV {
		database, err := db.Open(t.TempDir(), db.DefaultOpenOptions())
		require.NoError(t, err)
		t.Cleanup(func() { _ = database.Close() })
		return stores.NewKVStore(database)
	},
	"jsonfile": func(t *testing.T) kv.KV {
		store, err := jsonfile.NewKVStore(filepath.Join(t.TempDir(), "techtrack.json"))
		require.NoError(t, err)
		return store
	},
	"memory": func(t *testing.T) kv.KV {
		return stores.NewMemoryStore()
	},
}

// eachBackend runs fn once per storage backend.
func eachBackend(t *testing.T, fn func(t *testing.T, store kv.KV)) {
	for name, newStore := range backends {
		t.Run(name, func(t *testing.T) {
			fn(t, newStore(t))
		})
	}
}

func TestTypedKV_SetAndGet(t *testing.T) {
	eachBackend(t, func(t *testing.T, store kv.KV) {
		ctx := context.Background()
		typed := kv.Scoped[string](store, "test")

		require.NoError(t, typed.Set(ctx, "greeting", "hello"))

		got, err := typed.Get(ctx, "greeting")
		require.NoError(t, err)
		assert.Equal(t, "hello", got)
	})
}

func TestTypedKV_ScopedPrefix(t *testing.T) {
	eachBackend(t, func(t *testing.T, store kv.KV) {
		ctx := context.Background()

		// Two scoped stores with different namespaces
		alpha := kv.Scoped[int](store, "alpha")
		beta := kv.Scoped[int](store, "beta")

		require.NoError(t, alpha.Set(ctx, "count", 10))
		require.NoError(t, beta.Set(ctx, "count", 20))

		// Each scope sees its own value
		a, err := alpha.Get(ctx, "count")
		require.NoError(t, err)
		assert.Equal(t, 10, a)

		b, err := beta.Get(ctx, "count")
		require.NoError(t, err)
		assert.Equal(t, 20, b)

		// Raw store sees both with prefixed keys
		keys, err := store.ListKeys(ctx)
		require.NoError(t, err)
		assert.Contains(t, keys, "alpha:count")
		assert.Contains(t, keys, "beta:count")
	})
}

func TestTypedKV_Delete(t *testing.T) {
	eachBackend(t, func(t *testing.T, store kv.KV) {
		ctx := context.Background()
		typed := kv.Scoped[string](store, "ns")

		require.NoError(t, typed.Set(ctx, "key", "val"))
		require.NoError(t, typed.Delete(ctx, "key"))

		has, err := typed.Has(ctx, "key")
		require.NoError(t, err)
		assert.False(t, has)
	})
}

func TestTypedKV_Has(t *testing.T) {
	eachBackend(t, func(t *testing.T, store kv.KV) {
		ctx := context.Background()
		typed := kv.Scoped[int](store, "ns")

		has, err := typed.Has(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, has)

		require.NoError(t, typed.Set(ctx, "exists", 1))
		has, err = typed.Has(ctx, "exists")
		require.NoError(t, err)
		assert.True(t, has)
	})
}

func TestTypedKV_TTL(t *testing.T) {
	eachBackend(t, func(t *testing.T, store kv.KV) {
		ctx := context.Background()
		typed := kv.Scoped[string](store, "ttl")

		require.NoError(t, typed.SetTTL(ctx, "temp", "gone", time.Millisecond))
		time.Sleep(5 * time.Millisecond)

		_, err := typed.Get(ctx, "temp")
		assert.ErrorIs(t, err, kv.ErrNotFound)
		assert.True(t, kv.IsNotFound(err))
	})
}

func TestTypedKV_StructValue(t *testing.T) {
	eachBackend(t, func(t *testing.T, store kv.KV) {
		ctx := context.Background()

		type Config struct {
			Host string `json:"host"`
			Port int    `json:"port"`
		}

		typed := kv.Scoped[Config](store, "config")
		require.NoError(t, typed.Set(ctx, "api", Config{Host: "localhost", Port: 8080}))

		got, err := typed.Get(ctx, "api")
		require.NoError(t, err)
		assert.Equal(t, "localhost", got.Host)
		assert.Equal(t, 8080, got.Port)
	})
}

func TestTypedKV_LookupAndKeys(t *testing.T) {
	eachBackend(t, func(t *testing.T, store kv.KV) {
		ctx := context.Background()
		typed := kv.Scoped[int](store, "cache")

		_, ok, err := typed.Lookup(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, typed.Set(ctx, "b", 2))
		require.NoError(t, typed.Set(ctx, "a", 1))
		require.NoError(t, store.Set(ctx, "other:c", 3))

		v, ok, err := typed.Lookup(ctx, "a")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 1, v)

		keys, err := typed.Keys(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, keys)
	})
}

func TestKV_GetRaw(t *testing.T) {
	eachBackend(t, func(t *testing.T, store kv.KV) {
		ctx := context.Background()

		require.NoError(t, store.SetTTL(ctx, "k", map[string]int{"n": 1}, time.Hour))

		entry, err := store.GetRaw(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "k", entry.Key)
		assert.JSONEq(t, `{"n":1}`, string(entry.Value))
		require.NotNil(t, entry.ExpiresAt)
		assert.False(t, entry.Expired(time.Now()))

		_, err = store.GetRaw(ctx, "nope")
		assert.ErrorIs(t, err, kv.ErrNotFound)
	})
}

func TestKV_SweepExpired(t *testing.T) {
	eachBackend(t, func(t *testing.T, store kv.KV) {
		ctx := context.Background()
		sweeper, ok := store.(kv.Sweeper)
		require.True(t, ok)

		require.NoError(t, store.SetTTL(ctx, "old", 1, time.Millisecond))
		require.NoError(t, store.Set(ctx, "keep", 2))
		time.Sleep(5 * time.Millisecond)

		require.NoError(t, sweeper.SweepExpired(ctx))

		keys, err := store.ListKeys(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"keep"}, keys)
	})
}
