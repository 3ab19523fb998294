// Package server wires the relay together: configuration, the PostgreSQL
// datastore and its migrations, the media store, services, metrics and the
// HTTP API. It also handles graceful shutdown on SIGINT/SIGTERM/SIGQUIT.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/docrelay/internal/logging"
	"github.com/dmitrijs2005/docrelay/internal/server/config"
	rhttp "github.com/dmitrijs2005/docrelay/internal/server/http"
	"github.com/dmitrijs2005/docrelay/internal/server/mediastore"
	"github.com/dmitrijs2005/docrelay/internal/server/metrics"
	"github.com/dmitrijs2005/docrelay/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/docrelay/internal/server/services"
	"github.com/dmitrijs2005/docrelay/internal/server/webhook"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	server      *rhttp.Server
}

// openDB is a seam for tests.
var openDB = func(dsn string) (*sql.DB, error) {
	return sql.Open("pgx", dsn)
}

// NewApp validates cfg and builds every component. Configuration faults
// such as a missing DSN or signing secret are returned here, before any
// request is served.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	logger := logging.NewJSONLogger(os.Stdout, cfg.LogLevel)

	db, err := openDB(cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	obs, err := metrics.NewPrometheusObserver(reg)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	store, err := mediastore.New(ctx, cfg)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("media store init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	uploads, err := services.NewUploadService(db, rm, store, cfg, logger, obs)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	limiter, err := rhttp.NewRateLimiter(cfg.RateLimitWindow, cfg.RateLimitMax, cfg.RateLimitCapacity)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	srv := rhttp.NewServer(cfg.HTTPAddr, rhttp.Deps{
		Uploads:       uploads,
		Campaigns:     webhook.NewClient(cfg.CampaignWebhookURL, cfg.WebhookTimeout, logger),
		Limiter:       limiter,
		Gatherer:      reg,
		Metrics:       obs,
		Log:           logger,
		AllowedOrigin: cfg.AllowedOrigin,
		Production:    cfg.IsProduction(),
		Health: rhttp.HealthInfo{
			DatastoreConfigured:  cfg.DatabaseDSN != "",
			MediaStoreConfigured: cfg.MediaBackend == config.MediaBackendS3 || cfg.CloudName != "",
			MediaBackend:         cfg.MediaBackend,
		},
	})

	return &App{config: cfg, logger: logger, db: db, repomanager: rm, server: srv}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run applies migrations and serves until a signal arrives or the server
// fails.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()
	defer app.db.Close()

	app.logger.Info(ctx, "Starting app...", "media_backend", app.config.MediaBackend, "environment", app.config.Environment)

	if err := app.repomanager.RunMigrations(ctx, app.db); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()
	app.logger.Info(context.Background(), "App stopped")
	return nil
}
