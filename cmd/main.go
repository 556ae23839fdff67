package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/trustgraph/trustgraph/internal/adapters/http/api"
	"github.com/trustgraph/trustgraph/internal/adapters/http/swagger"
	"github.com/trustgraph/trustgraph/internal/adapters/jobs"
	"github.com/trustgraph/trustgraph/internal/adapters/repository"
	app "github.com/trustgraph/trustgraph/internal/app"
	"github.com/trustgraph/trustgraph/internal/config"
	"github.com/trustgraph/trustgraph/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env).
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}
	logger.SetLevelString(cfg.LogLevel)

	// Open the event store and bring the schema up to date.
	db, err := repository.Open(cfg.SQLitePath)
	if err != nil {
		log.Error(ctx, "failed to open sqlite store", logger.Err(err))
		return
	}
	if err := repository.RunMigrations(ctx, db); err != nil {
		log.Error(ctx, "failed to run migrations", logger.Err(err))
		return
	}
	store := repository.NewSQLStore(db)
	log.Info(ctx, "sqlite store ready", logger.String("path", cfg.SQLitePath))

	svc := app.New(store,
		app.WithLogger(log),
		app.WithMaxLeaderboardLimit(cfg.MaxLeaderboardLimit),
		app.WithSweepBatchSize(cfg.SweepBatchSize),
	)

	// Background sweeper keeps lazily-updated scores converging.
	var sweeper *jobs.Sweeper
	if cfg.SweepIntervalMinutes > 0 && cfg.SweepBatchSize > 0 {
		sweeper = jobs.NewSweeper(svc,
			jobs.WithInterval(time.Duration(cfg.SweepIntervalMinutes)*time.Minute),
			jobs.WithLogger(log.Named("sweeper")),
		)
		go sweeper.Run(ctx)
	} else {
		log.Info(ctx, "background sweeper disabled; lazy recompute only")
	}

	// HTTP mux and routes.
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc).Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Err(err))
	}
	if sweeper != nil {
		if err := sweeper.Shutdown(shutdownCtx); err != nil {
			log.Error(ctx, "sweeper shutdown failed", logger.Err(err))
		}
	}

	log.Info(ctx, "server stopped")
}
