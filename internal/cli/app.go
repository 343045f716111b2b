package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jask/cortracker/internal/config"
	"github.com/jask/cortracker/internal/cor"
	"github.com/jask/cortracker/internal/database"
	"github.com/jask/cortracker/internal/database/repository"
	"github.com/jask/cortracker/internal/filestore"
	"github.com/jask/cortracker/internal/logger"
	"github.com/jask/cortracker/internal/metrics"
	"github.com/jask/cortracker/internal/persist"
	"github.com/jask/cortracker/internal/seed"
	"github.com/jask/cortracker/internal/service"
	"github.com/jask/cortracker/internal/store"
)

// App is the wired set of components a command works with.
type App struct {
	Config      config.Config
	Log         *logger.Logger
	Store       *store.Store
	Records     *persist.Records
	Metrics     *metrics.TrackerMetrics
	Import      *service.ImportService
	Export      *service.ExportService
	Maintenance *service.MaintenanceService
	Now         func() time.Time

	closers []func() error
}

// OpenApp builds the storage backend named by cfg, loads the collection and
// wires the store, metrics and services around it.
func OpenApp(ctx context.Context, cfg config.Config, log *logger.Logger, now func() time.Time) (*App, error) {
	a := &App{Config: cfg, Log: log, Now: now}

	backend, err := a.openBackend()
	if err != nil {
		return nil, err
	}
	a.Records = &persist.Records{
		Backend: backend,
		Key:     cfg.Storage.Key,
		Seed:    seed.Records,
		Log:     log.With("component", "persist"),
	}

	reg := prometheus.NewRegistry()
	a.Metrics, err = metrics.New(reg)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	records := a.Records.Load(ctx, now())
	a.Store = store.New(records,
		store.WithPersister(a.Records),
		store.WithLogger(log.With("component", "store")),
		store.WithClock(now),
	)
	a.Metrics.Observe(a.Store.Snapshot(), now())
	a.Store.Subscribe(a.Metrics.Listener(now))

	a.Import = &service.ImportService{
		Store:      a.Store,
		Log:        log.With("component", "import"),
		OnImported: a.Metrics.RecordImported,
		Now:        now,
	}
	a.Export = &service.ExportService{
		Source: service.SourceFunc(func() []cor.Record { return a.Store.Snapshot().Records }),
	}
	a.Maintenance = &service.MaintenanceService{
		Storage: a.Records,
		Store:   a.Store,
		Seed:    seed.Records,
	}
	log.Debug("app ready", "driver", cfg.Storage.Driver, "records", len(records))
	return a, nil
}

func (a *App) openBackend() (persist.Backend, error) {
	switch a.Config.Storage.Driver {
	case config.DriverFile:
		return filestore.New(a.Config.Storage.Path), nil
	case config.DriverSQLite:
		db, err := database.OpenMigrated(a.Config.Storage.Path)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		return repository.NewKVRepo(db), nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", a.Config.Storage.Driver)
}

// Close writes the metrics textfile when configured and releases storage.
func (a *App) Close() error {
	var first error
	if a.Metrics != nil && a.Config.Metrics.Textfile != "" {
		if err := a.Metrics.WriteTextfile(a.Config.Metrics.Textfile); err != nil {
			a.Log.Warn("write metrics textfile failed", "path", a.Config.Metrics.Textfile, "error", err)
			first = err
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
