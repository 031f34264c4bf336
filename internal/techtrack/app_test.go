package techtrack

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/techtrack/internal/core/config"
	"github.com/colonyops/techtrack/internal/core/tech"
	"github.com/colonyops/techtrack/internal/data/db"
	"github.com/colonyops/techtrack/internal/data/stores"
	"github.com/colonyops/techtrack/internal/store/jsonfile"
)

func testAppConfig(t *testing.T, driver string) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.Storage.Driver = driver
	return &cfg
}

func TestOpen_Drivers(t *testing.T) {
	tests := []struct {
		driver string
		check  func(t *testing.T, cfg *config.Config, a *App)
	}{
		{
			driver: config.DriverSQLite,
			check: func(t *testing.T, cfg *config.Config, a *App) {
				assert.IsType(t, &stores.KVStore{}, a.Store)
				assert.FileExists(t, filepath.Join(cfg.DataDir, db.FileName))
			},
		},
		{
			driver: config.DriverJSON,
			check: func(t *testing.T, cfg *config.Config, a *App) {
				assert.IsType(t, &jsonfile.KVStore{}, a.Store)
				assert.FileExists(t, cfg.StorageFile())
			},
		},
		{
			driver: config.DriverMemory,
			check: func(t *testing.T, _ *config.Config, a *App) {
				assert.IsType(t, &stores.MemoryStore{}, a.Store)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			ctx := context.Background()
			cfg := testAppConfig(t, tt.driver)

			a, err := Open(ctx, cfg, zerolog.Nop())
			require.NoError(t, err)
			t.Cleanup(func() { assert.NoError(t, a.Close()) })

			assert.Equal(t, tech.Seed(), a.Tracker.Items())
			_, err = a.Tracker.Add(ctx, tech.NewItem{Title: "Go"})
			require.NoError(t, err)

			tt.check(t, cfg, a)
		})
	}
}

func TestOpen_PersistsAcrossRuns(t *testing.T) {
	for _, driver := range []string{config.DriverSQLite, config.DriverJSON} {
		t.Run(driver, func(t *testing.T) {
			ctx := context.Background()
			cfg := testAppConfig(t, driver)

			a, err := Open(ctx, cfg, zerolog.Nop())
			require.NoError(t, err)
			require.NoError(t, a.Tracker.CycleStatus(ctx, "3"))
			require.NoError(t, a.Close())

			b, err := Open(ctx, cfg, zerolog.Nop())
			require.NoError(t, err)
			t.Cleanup(func() { _ = b.Close() })

			it, err := b.Tracker.ByID("3")
			require.NoError(t, err)
			assert.Equal(t, tech.StatusInProgress, it.Status)
		})
	}
}

func TestApp_ReloadsOnExternalEdit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cfg := testAppConfig(t, config.DriverJSON)
	a, err := Open(ctx, cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	require.NoError(t, a.Tracker.MarkAllCompleted(ctx))
	require.NoError(t, a.Start(ctx))

	// Another process edits the file through its own handle.
	other, err := jsonfile.NewKVStore(cfg.StorageFile())
	require.NoError(t, err)
	require.NoError(t, other.Set(ctx, Namespace+":"+SlotKey, []tech.Item{
		{ID: "ext", Title: "Edited elsewhere", Status: tech.StatusNotStarted, Notes: []tech.Note{}},
	}))

	assert.Eventually(t, func() bool {
		items := a.Tracker.Items()
		return len(items) == 1 && items[0].ID == "ext"
	}, 2*time.Second, 20*time.Millisecond)
}

func TestApp_IgnoresCorruptExternalEdit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cfg := testAppConfig(t, config.DriverJSON)
	a, err := Open(ctx, cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	require.NoError(t, a.Tracker.ResetAll(ctx))
	require.NoError(t, a.Start(ctx))

	require.NoError(t, os.WriteFile(cfg.StorageFile(), []byte(`{not json`), 0o644))
	time.Sleep(200 * time.Millisecond)

	assert.Len(t, a.Tracker.Items(), 4)
}
