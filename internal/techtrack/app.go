package techtrack

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/colonyops/techtrack/internal/core/config"
	"github.com/colonyops/techtrack/internal/core/eventbus"
	"github.com/colonyops/techtrack/internal/core/kv"
	"github.com/colonyops/techtrack/internal/core/logging"
	"github.com/colonyops/techtrack/internal/data/db"
	"github.com/colonyops/techtrack/internal/data/stores"
	"github.com/colonyops/techtrack/internal/enrich/github"
	"github.com/colonyops/techtrack/internal/enrich/jobs"
	"github.com/colonyops/techtrack/internal/store/jsonfile"
	"github.com/colonyops/techtrack/internal/techtrack/sweep"
)

const busBuffer = 256

// App is the central entry point for all techtrack operations.
// Commands and the HTTP API consume App instead of cherry-picking raw
// dependencies.
type App struct {
	Config   *config.Config
	Store    kv.KV
	Bus      *eventbus.EventBus
	Tracker  *Tracker
	GitHub   *github.Client
	Jobs     *jobs.Client
	Explorer *Explorer

	log     zerolog.Logger
	closers []func() error
}

// Open builds an App for cfg, opening the configured storage backend.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	store, closer, err := openStore(cfg, log)
	if err != nil {
		return nil, err
	}

	app, err := NewApp(ctx, cfg, store, log)
	if err != nil {
		if closer != nil {
			_ = closer()
		}
		return nil, err
	}
	if closer != nil {
		app.closers = append(app.closers, closer)
	}
	return app, nil
}

// NewApp builds an App around an already opened store.
func NewApp(ctx context.Context, cfg *config.Config, store kv.KV, log zerolog.Logger) (*App, error) {
	bus := eventbus.New(busBuffer)
	eventbus.RegisterDebugLogger(bus, log)

	tracker, err := New(ctx, store, bus, log)
	if err != nil {
		return nil, err
	}

	gh := github.New(cfg.GitHub, store, log)
	jc := jobs.New(cfg.Jobs, log)

	return &App{
		Config:   cfg,
		Store:    store,
		Bus:      bus,
		Tracker:  tracker,
		GitHub:   gh,
		Jobs:     jc,
		Explorer: NewExplorer(gh, jc, log),
		log:      logging.Component(log, "app"),
	}, nil
}

func openStore(cfg *config.Config, log zerolog.Logger) (kv.KV, func() error, error) {
	switch cfg.Storage.Driver {
	case config.DriverJSON:
		store, err := jsonfile.NewKVStore(cfg.StorageFile())
		if err != nil {
			return nil, nil, fmt.Errorf("open json store: %w", err)
		}
		return store, nil, nil
	case config.DriverMemory:
		log.Debug().Msg("using in-memory storage, nothing will be saved")
		return stores.NewMemoryStore(), nil, nil
	default:
		database, err := stores.OpenDB(cfg.DataDir, db.OpenOptions{
			MaxOpenConns: cfg.Database.MaxOpenConns,
			MaxIdleConns: cfg.Database.MaxIdleConns,
			BusyTimeout:  cfg.Database.BusyTimeout,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("open database: %w", err)
		}
		return stores.NewKVStore(database), database.Close, nil
	}
}

// Start runs the background workers: event delivery, the expired-entry
// sweep, and for the json driver a watcher that reloads the collection when
// the data file is edited outside this process. Workers stop when ctx is
// cancelled.
func (a *App) Start(ctx context.Context) error {
	go a.Bus.Start(ctx)

	eventbus.NewNotificationRouter(a.Bus).Register()
	a.Bus.SubscribeNotificationPublished(func(p eventbus.NotificationPublishedPayload) {
		a.log.Info().Str("level", string(p.Level)).Msg(p.Message)
	})

	if s, ok := a.Store.(kv.Sweeper); ok {
		go sweep.Start(ctx, s, a.Config.Cache.SweepInterval)
	}

	if fs, ok := a.Store.(*jsonfile.KVStore); ok {
		if err := a.watch(ctx, fs.Path()); err != nil {
			return fmt.Errorf("watch data file: %w", err)
		}
	}

	return nil
}

func (a *App) watch(ctx context.Context, path string) error {
	w, err := jsonfile.NewWatcher(filepath.Dir(path))
	if err != nil {
		return err
	}
	a.closers = append(a.closers, w.Close)

	events, err := w.Watch(ctx, filepath.Base(path))
	if err != nil {
		return err
	}

	go func() {
		for ev := range events {
			changed, err := a.Tracker.Reload(ctx)
			if err != nil {
				a.log.Warn().Err(err).Str("path", ev.Path).Msg("data file changed but could not be reloaded")
				continue
			}
			if changed {
				a.log.Info().Str("path", ev.Path).Msg("reloaded collection after external edit")
			}
		}
	}()

	a.log.Debug().Str("path", path).Msg("watching data file")
	return nil
}

// Close releases storage and watchers in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
