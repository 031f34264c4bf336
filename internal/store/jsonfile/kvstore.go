// Package jsonfile stores KV entries in a single JSON document on disk and
// watches that document for edits made by other processes.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/colonyops/techtrack/internal/core/kv"
)

// entry is the on-disk form of one key.
type entry struct {
	Value     json.RawMessage `json:"value"`
	ExpiresAt *time.Time      `json:"expiresAt,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func (e entry) expired(now time.Time) bool {
	return e.ExpiresAt != nil && e.ExpiresAt.Before(now)
}

// File is the root JSON structure stored on disk.
type File struct {
	Entries map[string]entry `json:"entries"`
}

// KVStore implements kv.KV using a JSON file for persistence. Every write
// rewrites the whole file through a temp file and rename.
type KVStore struct {
	path string
	mu   sync.RWMutex
}

var (
	_ kv.KV      = (*KVStore)(nil)
	_ kv.Sweeper = (*KVStore)(nil)
)

// NewKVStore returns a store backed by path. The parent directory is created
// if needed; the file itself is created on first write.
func NewKVStore(path string) (*KVStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &KVStore{path: path}, nil
}

// Path returns the backing file.
func (s *KVStore) Path() string {
	return s.path
}

func (s *KVStore) Get(ctx context.Context, key string, dest any) error {
	e, err := s.GetRaw(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(e.Value, dest); err != nil {
		return fmt.Errorf("kv get %q unmarshal: %w", key, err)
	}
	return nil
}

func (s *KVStore) Set(_ context.Context, key string, value any) error {
	return s.set(key, value, nil)
}

func (s *KVStore) SetTTL(_ context.Context, key string, value any, ttl time.Duration) error {
	at := time.Now().Add(ttl)
	return s.set(key, value, &at)
}

func (s *KVStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := file.Entries[key]; !ok {
		return nil
	}
	delete(file.Entries, key)
	return s.save(file)
}

func (s *KVStore) Has(ctx context.Context, key string) (bool, error) {
	_, err := s.GetRaw(ctx, key)
	switch {
	case kv.IsNotFound(err):
		return false, nil
	case err != nil:
		return false, err
	}
	return true, nil
}

// ListKeys returns all non-expired keys in sorted order.
func (s *KVStore) ListKeys(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	file, err := s.load()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	keys := []string{}
	for k, e := range file.Entries {
		if !e.expired(now) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// GetRaw returns the entry for key. Expired entries are reported missing but
// left on disk until the next write or sweep.
func (s *KVStore) GetRaw(_ context.Context, key string) (kv.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	file, err := s.load()
	if err != nil {
		return kv.Entry{}, err
	}

	e, ok := file.Entries[key]
	if !ok || e.expired(time.Now()) {
		return kv.Entry{}, fmt.Errorf("kv get %q: %w", key, kv.ErrNotFound)
	}

	return kv.Entry{
		Key:       key,
		Value:     e.Value,
		ExpiresAt: e.ExpiresAt,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}, nil
}

// SweepExpired removes expired entries from the file.
func (s *KVStore) SweepExpired(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.load()
	if err != nil {
		return err
	}

	if pruneExpired(file, time.Now()) == 0 {
		return nil
	}
	return s.save(file)
}

func (s *KVStore) set(key string, value any, expiresAt *time.Time) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("kv set %q marshal: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.load()
	if err != nil {
		return err
	}

	now := time.Now()
	pruneExpired(file, now)

	created := now
	if prev, ok := file.Entries[key]; ok {
		created = prev.CreatedAt
	}
	file.Entries[key] = entry{
		Value:     data,
		ExpiresAt: expiresAt,
		CreatedAt: created,
		UpdatedAt: now,
	}

	return s.save(file)
}

func pruneExpired(file File, now time.Time) int {
	n := 0
	for k, e := range file.Entries {
		if e.expired(now) {
			delete(file.Entries, k)
			n++
		}
	}
	return n
}

// load reads the file from disk. A missing or empty file is an empty store.
func (s *KVStore) load() (File, error) {
	file := File{Entries: map[string]entry{}}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return file, nil
		}
		return file, fmt.Errorf("read %s: %w", s.path, err)
	}

	if len(data) == 0 {
		return file, nil
	}

	if err := json.Unmarshal(data, &file); err != nil {
		return file, fmt.Errorf("decode %s: %w", s.path, err)
	}
	if file.Entries == nil {
		file.Entries = map[string]entry{}
	}

	return file, nil
}

// save writes the file to disk atomically.
func (s *KVStore) save(file File) error {
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}

	return os.Rename(tmp, s.path)
}
