// Package server initializes and runs the records backend: it wires the
// store, the feed hub and the HTTP API, and handles graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gigmatch/livesync/internal/logging"
	"github.com/gigmatch/livesync/internal/server/config"
	"github.com/gigmatch/livesync/internal/server/httpapi"
	"github.com/gigmatch/livesync/internal/server/hub"
	"github.com/gigmatch/livesync/internal/server/records"
	"github.com/gigmatch/livesync/internal/server/store"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config  *config.Config
	logger  logging.Logger
	handler http.Handler
	closeDB func() error
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewJSON(os.Stdout)

	var repo store.Repository
	closeDB := func() error { return nil }
	if cfg.DatabaseDSN != "" {
		db, err := store.Open(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		repo = store.NewPostgresRepository(db)
		closeDB = db.Close
	} else {
		logger.Warn(ctx, "no database DSN configured, using in-memory store")
		repo = store.NewMemoryRepository()
	}

	h := hub.New(logger)
	svc := records.NewService(repo, h, logger)
	handler := httpapi.New(svc, hub.NewHandler(h, logger), logger,
		[]byte(cfg.SecretKey), cfg.APIKeyHash, cfg.AccessTokenValidityDuration)

	return &App{config: cfg, logger: logger, handler: handler, closeDB: closeDB}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "addr", app.config.EndpointAddr)

	app.initSignalHandler(cancelFunc)

	srv := &http.Server{Addr: app.config.EndpointAddr, Handler: app.handler}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	app.logger.Info(ctx, "Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		app.logger.Error(ctx, "shutdown error", "error", err)
	}

	return app.closeDB()
}
