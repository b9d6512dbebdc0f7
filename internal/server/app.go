// Package server initializes and runs the dashboard server: storage backend
// selection, session and provider wiring, the HTTP endpoint and graceful
// shutdown with a final state flush.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/qubicboard/internal/filex"
	"github.com/dmitrijs2005/qubicboard/internal/logging"
	"github.com/dmitrijs2005/qubicboard/internal/market"
	"github.com/dmitrijs2005/qubicboard/internal/qubic"
	"github.com/dmitrijs2005/qubicboard/internal/server/config"
	"github.com/dmitrijs2005/qubicboard/internal/server/httpapi"
	"github.com/dmitrijs2005/qubicboard/internal/server/repositories/states"
	"github.com/dmitrijs2005/qubicboard/internal/server/services"
	_ "github.com/jackc/pgx/v5/stdlib"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	sessions *services.SessionService
	handler  http.Handler
	db       *sql.DB
}

// NewApp wires the application for the configured storage backend.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	logger := logging.NewJSONLogger(os.Stdout)

	app := &App{config: cfg, logger: logger}

	repo, err := app.initRepository(ctx)
	if err != nil {
		return nil, err
	}

	app.sessions = services.NewSessionService(repo, logger, cfg)

	handlers := httpapi.NewHandlers(logger, app.sessions,
		qubic.NewClient(cfg.QubicRPCEndpoint, cfg.QubicRequestTimeout),
		market.NewClient(cfg.MarketAPIEndpoint, cfg.MarketRequestTimeout),
		cfg)
	app.handler = httpapi.NewRouter(handlers)

	return app, nil
}

func (app *App) initRepository(ctx context.Context) (states.Repository, error) {
	switch app.config.StorageBackend {
	case config.StorageBackendFile:
		dir, err := filex.EnsureDir(app.config.DataDir)
		if err != nil {
			return nil, fmt.Errorf("data dir init error: %w", err)
		}
		return states.NewFileRepository(dir), nil

	case config.StorageBackendPostgres:
		db, err := sql.Open("pgx", app.config.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		if err := states.RunMigrations(ctx, db); err != nil {
			return nil, fmt.Errorf("migration error: %w", err)
		}
		app.db = db
		return states.NewPostgresRepository(db), nil

	case config.StorageBackendS3:
		repo, err := states.NewS3Repository(ctx, app.config)
		if err != nil {
			return nil, fmt.Errorf("s3 init error: %w", err)
		}
		return repo, nil

	default:
		return nil, fmt.Errorf("unknown storage backend: %s", app.config.StorageBackend)
	}
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

// Run serves HTTP until the context is cancelled or a signal arrives, then
// shuts the server down and flushes every live session to storage.
func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.initSignalHandler(cancelFunc)

	srv := &http.Server{
		Addr:         app.config.EndpointAddrHTTP,
		Handler:      app.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info(ctx, "starting server",
			"addr", app.config.EndpointAddrHTTP,
			"backend", app.config.StorageBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	app.logger.Info(ctx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		app.logger.Error(shutdownCtx, "server shutdown error", "error", err)
	}

	app.sessions.Shutdown(shutdownCtx)

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error(shutdownCtx, "db close error", "error", err)
		}
	}

	return nil
}
