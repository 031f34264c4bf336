package stores

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/colonyops/techtrack/internal/core/kv"
	pkgkv "github.com/colonyops/techtrack/pkg/kv"
)

// MemoryStore implements kv.KV in process memory. Nothing survives a
// restart; it backs tests and the "memory" storage driver.
type MemoryStore struct {
	entries *pkgkv.Store[string, kv.Entry]
	now     func() time.Time
}

var (
	_ kv.KV      = (*MemoryStore)(nil)
	_ kv.Sweeper = (*MemoryStore)(nil)
)

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: pkgkv.New[string, kv.Entry](),
		now:     time.Now,
	}
}

func (m *MemoryStore) Get(ctx context.Context, key string, dest any) error {
	e, err := m.GetRaw(ctx, key)
	if err != nil {
		return fmt.Errorf("kv get %q: %w", key, kv.ErrNotFound)
	}
	if err := json.Unmarshal(e.Value, dest); err != nil {
		return fmt.Errorf("kv get %q unmarshal: %w", key, err)
	}
	return nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value any) error {
	return m.set(key, value, nil)
}

func (m *MemoryStore) SetTTL(_ context.Context, key string, value any, ttl time.Duration) error {
	at := m.now().Add(ttl)
	return m.set(key, value, &at)
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.entries.Delete(key)
	return nil
}

func (m *MemoryStore) Has(ctx context.Context, key string) (bool, error) {
	_, err := m.GetRaw(ctx, key)
	return err == nil, nil
}

// ListKeys returns all non-expired keys in sorted order.
func (m *MemoryStore) ListKeys(_ context.Context) ([]string, error) {
	now := m.now()
	keys := []string{}
	for _, k := range m.entries.Keys() {
		if e, ok := m.entries.Get(k); ok && !e.Expired(now) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MemoryStore) GetRaw(_ context.Context, key string) (kv.Entry, error) {
	e, ok := m.entries.Get(key)
	if !ok {
		return kv.Entry{}, fmt.Errorf("kv get raw %q: %w", key, kv.ErrNotFound)
	}
	if e.Expired(m.now()) {
		m.entries.Delete(key)
		return kv.Entry{}, fmt.Errorf("kv get raw %q: %w", key, kv.ErrNotFound)
	}
	return e, nil
}

// SweepExpired drops every entry whose TTL has passed.
func (m *MemoryStore) SweepExpired(_ context.Context) error {
	now := m.now()
	m.entries.DeleteFunc(func(_ string, e kv.Entry) bool {
		return e.Expired(now)
	})
	return nil
}

func (m *MemoryStore) set(key string, value any, expiresAt *time.Time) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("kv set %q marshal: %w", key, err)
	}

	now := m.now()
	m.entries.Update(key, func(prev kv.Entry, ok bool) kv.Entry {
		created := now
		if ok {
			created = prev.CreatedAt
		}
		return kv.Entry{
			Key:       key,
			Value:     data,
			ExpiresAt: expiresAt,
			CreatedAt: created,
			UpdatedAt: now,
		}
	})
	return nil
}
