// Package bootstrap wires storage, services and metrics from configuration.
// The API server and the command line tool share it.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/angelmondragon/sitestock/internal/ledger"
	"github.com/angelmondragon/sitestock/internal/plans"
	"github.com/angelmondragon/sitestock/internal/projects"
	"github.com/angelmondragon/sitestock/internal/reconcile"
	"github.com/angelmondragon/sitestock/internal/repository"
	"github.com/angelmondragon/sitestock/internal/repository/document"
	"github.com/angelmondragon/sitestock/internal/repository/relational"
	"github.com/angelmondragon/sitestock/pkg/config"
	"github.com/angelmondragon/sitestock/pkg/db"
	"github.com/angelmondragon/sitestock/pkg/logger"
	"github.com/angelmondragon/sitestock/pkg/metrics"
	"github.com/angelmondragon/sitestock/pkg/migrate"
	"github.com/angelmondragon/sitestock/pkg/redis"
)

// Store is a repository that can report its own health.
type Store interface {
	repository.Repository
	Ping(ctx context.Context) error
}

// App holds the wired services. Redis is nil when no endpoint is configured.
type App struct {
	Config   *config.Config
	Logger   *logger.Logger
	Registry *prometheus.Registry

	Store Store
	Redis *redis.Client

	Projects  projects.Service
	Ledger    ledger.Service
	Plans     *plans.Loader
	Reconcile reconcile.Service

	HTTPMetrics *metrics.HTTPMetrics

	closers []func() error
}

// New opens the configured backend and builds every service on top of it.
// On error everything opened so far is closed again.
func New(ctx context.Context, cfg *config.Config, logg *logger.Logger) (app *App, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("config required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	app = &App{Config: cfg, Logger: logg, Registry: prometheus.NewRegistry()}
	defer func() {
		if err != nil {
			err = multierr.Append(err, app.Close())
			app = nil
		}
	}()

	if cfg.Redis.Enabled() {
		client, redisErr := redis.New(ctx, cfg.Redis, logg)
		if redisErr != nil {
			return app, fmt.Errorf("bootstrap redis: %w", redisErr)
		}
		app.Redis = client
		app.closers = append(app.closers, client.Close)
	}

	if app.Store, err = app.openStore(ctx); err != nil {
		return app, err
	}

	ledgerMetrics := metrics.NewLedgerMetrics(app.Registry)
	app.HTTPMetrics = metrics.NewHTTPMetrics(app.Registry)

	if app.Projects, err = projects.NewService(app.Store); err != nil {
		return app, err
	}
	if app.Ledger, err = ledger.NewService(app.Store, cfg.Ledger, ledger.WithMetrics(ledgerMetrics), ledger.WithLogger(logg)); err != nil {
		return app, err
	}
	if app.Plans, err = plans.NewLoader(app.Store, ledgerMetrics, logg); err != nil {
		return app, err
	}

	reconcileMetrics := metrics.NewReconcileMetrics(app.Registry)
	fetcher := reconcile.NewFetcher(cfg.Stock,
		reconcile.WithFetchMetrics(reconcileMetrics),
		reconcile.WithFetchLogger(logg),
	)
	if app.Reconcile, err = reconcile.NewService(app.Store, fetcher, cfg.Stock, reconcileMetrics, logg); err != nil {
		return app, err
	}

	logg.Info(logg.WithFields(ctx, map[string]any{
		"storage_backend": cfg.Storage.Backend,
		"redis_enabled":   app.Redis != nil,
	}), "bootstrap.ready")
	return app, nil
}

func (a *App) openStore(ctx context.Context) (Store, error) {
	cfg := a.Config
	switch cfg.Storage.Backend {
	case config.BackendDocument:
		var blob document.Blob = document.NewMemoryBlob()
		if cfg.Storage.DocumentBlob == config.BlobRedis {
			if a.Redis == nil {
				return nil, fmt.Errorf("redis document blob requires a redis endpoint")
			}
			blob = a.Redis.Blob(cfg.Storage.DocumentKey, cfg.Storage.MaxUpdateRetries)
		}
		return document.New(blob)
	default:
		client, err := db.New(ctx, cfg.DB, a.Logger)
		if err != nil {
			return nil, fmt.Errorf("bootstrap database: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		if err := migrate.MaybeRunDev(ctx, cfg, a.Logger, client); err != nil {
			return nil, fmt.Errorf("run dev migrations: %w", err)
		}
		return relational.New(client)
	}
}

// IdempotencyStore returns the redis client as an idempotency store, or nil
// when redis is not configured.
func (a *App) IdempotencyStore() redis.IdempotencyStore {
	if a.Redis == nil {
		return nil
	}
	return a.Redis
}

// Close releases connections in reverse order of opening.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	var err error
	for i := len(a.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, a.closers[i]())
	}
	a.closers = nil
	return err
}
