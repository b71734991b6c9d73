package cli

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/the-dev-tools/storyline/db/pkg/sqlitelocal"
	"github.com/the-dev-tools/storyline/internal/migrations"
	"github.com/the-dev-tools/storyline/pkg/changefeed"
	"github.com/the-dev-tools/storyline/pkg/eventstream"
	"github.com/the-dev-tools/storyline/pkg/eventstream/memory"
	"github.com/the-dev-tools/storyline/pkg/mutation"
	"github.com/the-dev-tools/storyline/pkg/ordering"
	"github.com/the-dev-tools/storyline/pkg/service/sadventure"
	"github.com/the-dev-tools/storyline/pkg/service/squest"
	"github.com/the-dev-tools/storyline/pkg/service/sstory"
)

// App holds everything one command invocation needs.
type App struct {
	Config      Config
	Logger      *slog.Logger
	DB          *sql.DB
	Descriptors ordering.Descriptors
	Hooks       *mutation.Hooks

	Stories    *sstory.Service
	Adventures *sadventure.Service
	Quests     *squest.Service

	out      io.Writer
	errOut   io.Writer
	closeDB  func()
	registry *prometheus.Registry
	streamer eventstream.SyncStreamer[mutation.EntityType, mutation.Event]
	feedDone chan error
	cancel   context.CancelFunc
}

type appOptions struct {
	skipMigrate bool
}

func openApp(ctx context.Context, cfg Config, out, errOut io.Writer, opts appOptions) (*App, error) {
	logger, err := newLogger(cfg.Log, errOut)
	if err != nil {
		return nil, err
	}
	ds, err := loadDescriptors(cfg.Descriptors)
	if err != nil {
		return nil, err
	}

	db, closeDB, err := sqlitelocal.Open(ctx, sqlitelocal.Config{
		Path:         cfg.Database.Path,
		BusyTimeout:  cfg.Database.BusyTimeout,
		MaxOpenConns: cfg.Database.MaxOpenConns,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if cfg.Database.AutoMigrate && !opts.skipMigrate {
		if err := migrations.Run(ctx, db, migrations.Config{
			BackupDir:     cfg.Backup.Dir,
			RetainBackups: cfg.Backup.Retain,
		}, logger); err != nil {
			closeDB()
			return nil, err
		}
	}

	registry := prometheus.NewRegistry()
	if err := ordering.RegisterMetrics(registry); err != nil {
		closeDB()
		return nil, err
	}

	a := &App{
		Config:      cfg,
		Logger:      logger,
		DB:          db,
		Descriptors: ds,
		Hooks:       mutation.NewHooks(logger),
		out:         out,
		errOut:      errOut,
		closeDB:     closeDB,
		registry:    registry,
	}
	a.Stories = sstory.New(db, ds.MustGet("story"), a.Hooks, logger)
	a.Adventures = sadventure.New(db, ds.MustGet("adventure"), a.Hooks, logger)
	a.Quests = squest.New(db, ds.MustGet("quest"), a.Hooks, logger)

	if cfg.Events {
		if err := a.startFeed(); err != nil {
			a.Close()
			return nil, err
		}
	}
	return a, nil
}

func loadDescriptors(path string) (ordering.Descriptors, error) {
	ds := ordering.DefaultDescriptors()
	if path == "" {
		return ds, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("descriptors: %w", err)
	}
	defer f.Close()

	overrides, err := ordering.LoadDescriptors(f)
	if err != nil {
		return nil, fmt.Errorf("descriptors %s: %w", path, err)
	}
	merged, err := ds.Merge(overrides)
	if err != nil {
		return nil, fmt.Errorf("descriptors %s: %w", path, err)
	}
	return merged, nil
}

// startFeed streams every committed change as a JSON line to errOut.
func (a *App) startFeed() error {
	ctx, cancel := context.WithCancel(context.Background())
	streamer := memory.NewInMemorySyncStreamer[mutation.EntityType, mutation.Event]()
	sub, err := streamer.Subscribe(ctx, nil)
	if err != nil {
		cancel()
		return err
	}

	a.streamer, a.cancel = streamer, cancel
	a.feedDone = make(chan error, 1)
	a.Hooks.Register(mutation.NewStreamNotifier(streamer))

	feed := changefeed.NewWriter(a.errOut)
	go func() {
		a.feedDone <- eventstream.Drain(ctx, sub, feed.Handle)
	}()
	return nil
}

// Retry runs fn with the configured retry policy for conflicts.
func (a *App) Retry(ctx context.Context, fn func(context.Context) error) error {
	return mutation.Retry(ctx, a.Config.Retry.Attempts, a.Config.Retry.Backoff, fn)
}

// Close flushes the change feed, dumps metrics when asked to and closes the
// database.
func (a *App) Close() {
	if a.streamer != nil {
		a.streamer.Shutdown()
		if err := <-a.feedDone; err != nil {
			a.Logger.Warn("change feed stopped", "error", err)
		}
		if dropped := a.streamer.Dropped(); dropped > 0 {
			a.Logger.Warn("change feed dropped events", "dropped", dropped)
		}
		a.cancel()
		a.streamer = nil
	}
	if a.Config.Metrics.Dump {
		if err := a.dumpMetrics(a.errOut); err != nil {
			a.Logger.Warn("metrics dump failed", "error", err)
		}
	}
	if a.closeDB != nil {
		a.closeDB()
		a.closeDB = nil
	}
}

func (a *App) dumpMetrics(w io.Writer) error {
	families, err := a.registry.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
