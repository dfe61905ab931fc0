// Package cli wires the client together and runs the interactive loop.
package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"

	_ "modernc.org/sqlite"

	"github.com/nexuzy/artsync/internal/client/config"
	"github.com/nexuzy/artsync/internal/client/imagecache"
	"github.com/nexuzy/artsync/internal/client/models"
	"github.com/nexuzy/artsync/internal/client/netcheck"
	"github.com/nexuzy/artsync/internal/client/remote"
	"github.com/nexuzy/artsync/internal/client/services"
	"github.com/nexuzy/artsync/internal/client/storage"
	"github.com/nexuzy/artsync/internal/client/syncer"
	"github.com/nexuzy/artsync/internal/client/upload"
	"github.com/nexuzy/artsync/internal/common"
	"github.com/nexuzy/artsync/internal/logging"
)

type App struct {
	config *config.Config
	logger logging.Logger

	db       *sql.DB
	monitor  *netcheck.Monitor
	engine   *syncer.Engine
	articles *services.ArticleService
	auth     *services.AuthService

	reader      *bufio.Reader
	currentUser *models.User
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	db, repos, err := storage.Open(ctx, cfg.LocalDBPath)
	if err != nil {
		return nil, err
	}

	uploader, err := buildUploader(cfg, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	images, err := imagecache.New(cfg.ImageCacheDir, cfg.ImageFetchTimeout, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	mirror := remote.NewHTTPMirror(cfg.MirrorAddr, cfg.MirrorAccessKey, cfg.MirrorSecretKey, cfg.MirrorTimeout)

	monitor := netcheck.New(
		netcheck.DialProbe(cfg.ProbeAddr, cfg.ProbeTimeout),
		cfg.OnlineCheckInterval, cfg.ProbeTimeout, logger)

	engine := syncer.New(syncer.Options{
		Articles: repos.Articles,
		Users:    repos.Users,
		Mirror:   mirror,
		Uploader: uploader,
		Online:   monitor.Online,
		Images:   images,
		Logger:   logger,
		Interval: cfg.SyncInterval,
	})

	return &App{
		config:   cfg,
		logger:   logger,
		db:       db,
		monitor:  monitor,
		engine:   engine,
		articles: services.NewArticleService(db, engine, logger),
		auth:     services.NewAuthService(repos.Users, engine, logger),
		reader:   bufio.NewReader(os.Stdin),
	}, nil
}

func buildUploader(cfg *config.Config, logger logging.Logger) (upload.Uploader, error) {
	switch cfg.UploadBackend {
	case "ftp":
		return upload.NewFTPUploader(upload.FTPConfig{
			Host:          cfg.FTPHost,
			User:          cfg.FTPUser,
			Pass:          cfg.FTPPass,
			RemoteDir:     cfg.FTPRemoteDir,
			PublicURLBase: cfg.FTPPublicURLBase,
			Timeout:       cfg.FTPTimeout,
			PassiveMode:   cfg.FTPPassiveMode,
		}, logger), nil
	case "s3":
		return upload.NewS3Uploader(upload.S3Config{
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			Bucket:        cfg.S3Bucket,
			Region:        cfg.S3Region,
			BaseEndpoint:  cfg.S3Endpoint,
			KeyPrefix:     cfg.S3KeyPrefix,
			PublicURLBase: cfg.S3PublicURLBase,
			Timeout:       cfg.FTPTimeout,
		}, logger), nil
	default:
		return nil, fmt.Errorf("unknown upload backend %q", cfg.UploadBackend)
	}
}

// Run seeds the admin account, starts the background loops and enters the
// interactive loop. It returns when the user exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	defer a.db.Close()

	if err := a.auth.EnsureAdmin(ctx, a.config.AdminUsername, a.config.AdminPassword); err != nil {
		return fmt.Errorf("seeding admin account: %w", err)
	}

	// One synchronous probe so the cold-start decision sees real
	// connectivity instead of the zero value.
	a.monitor.Check(ctx)
	go a.monitor.Run(ctx)

	if _, err := a.engine.ColdStartImport(ctx); err != nil &&
		!errors.Is(err, common.ErrConnectivityUnavailable) {
		a.logger.Warn(ctx, "cold-start import failed", "cause", err)
	}

	go a.engine.Run(ctx)

	runREPL(ctx, a, a.status, bufio.NewScanner(os.Stdin))
	return nil
}

func (a *App) isLoggedIn() bool {
	return a.currentUser != nil
}

// status renders the prompt suffix: the active username plus the cached
// connectivity state.
func (a *App) status() string {
	mode := "offline"
	if a.monitor.Online() {
		mode = "online"
	}
	if a.currentUser == nil {
		return "(" + mode + ")"
	}
	return "(" + a.currentUser.Username + " " + mode + ")"
}
