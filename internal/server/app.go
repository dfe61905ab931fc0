// Package server initializes and runs the mirror server: it opens the
// document store, applies migrations and serves the HTTP API with graceful
// shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/nexuzy/artsync/internal/logging"
	"github.com/nexuzy/artsync/internal/server/config"
	"github.com/nexuzy/artsync/internal/server/httpapi"
	"github.com/nexuzy/artsync/internal/server/migrations"
	"github.com/nexuzy/artsync/internal/server/repositories/articles"
	"github.com/nexuzy/artsync/internal/server/repositories/users"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	api    *httpapi.Handler
}

func NewApp(c *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	api := httpapi.NewHandler(httpapi.Options{
		Articles:      articles.NewPostgresRepository(db),
		Users:         users.NewPostgresRepository(db),
		Logger:        logger,
		AccessKey:     c.AccessKey,
		AccessSecret:  c.AccessSecret,
		JWTSecret:     c.SecretKey,
		TokenValidity: c.TokenValidityDuration,
	})

	return &App{config: c, logger: logger, db: db, api: api}, nil
}

func (app *App) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}

	return goose.UpContext(ctx, app.db, ".")
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

	app.initSignalHandler(cancelFunc)

	if err := app.RunMigrations(ctx); err != nil {
		return fmt.Errorf("migrating document store: %w", err)
	}

	srv := &http.Server{
		Addr:    app.config.EndpointAddr,
		Handler: app.api.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info(ctx, "mirror server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		app.logger.Info(ctx, "shutting down")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.config.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	if err := app.db.Close(); err != nil {
		return fmt.Errorf("closing db: %w", err)
	}

	app.logger.Info(ctx, "mirror server stopped")
	return nil
}
