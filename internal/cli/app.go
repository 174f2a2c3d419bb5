package cli

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"

	"github.com/reelforge/reelforge-agent/internal/backend"
	"github.com/reelforge/reelforge-agent/internal/config"
	"github.com/reelforge/reelforge-agent/internal/db"
	"github.com/reelforge/reelforge-agent/internal/gallery"
	"github.com/reelforge/reelforge-agent/internal/logging"
	"github.com/reelforge/reelforge-agent/internal/media"
	"github.com/reelforge/reelforge-agent/internal/session"
	"github.com/reelforge/reelforge-agent/internal/store"
	"github.com/reelforge/reelforge-agent/internal/template"
	"github.com/reelforge/reelforge-agent/internal/uploader"
	"github.com/reelforge/reelforge-agent/internal/video"
)

// app wires the shared component graph used by both the long-lived
// serve command and the one-shot CLI commands.
type app struct {
	cfg      *config.EnvConfig
	logger   *slog.Logger
	database *db.DB
	repo     store.Repository
	client   *backend.HTTPClient
	deviceID string

	sessions     *session.Store
	gallery      *gallery.Service
	queue        *uploader.Queue
	templates    *template.Catalog
	orchestrator *video.Orchestrator
	poller       *video.Poller
	media        *media.Library
}

func newApp() (*app, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir(), 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel())

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return nil, fmt.Errorf("initialize database: %w", err)
	}

	repo := store.NewRepository(database.Conn())

	deviceID, err := ensureDeviceID(repo)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("ensure device id: %w", err)
	}

	client := backend.NewHTTPClient(cfg.APIBaseURL(), logger)
	client.SetDeviceID(deviceID)

	sessions := session.NewStore(repo, client, logger)
	gal := gallery.NewService(client, logger)
	queue := uploader.NewQueue(sessions, client, gal, logger)
	templates := template.NewCatalog(client, logger)
	orchestrator := video.NewOrchestrator(client, gal, templates, repo, logger)
	poller := video.NewPoller(client, repo, cfg.PollInterval(), cfg.HandoffDelay(), logger)
	lib := media.NewLibrary(cfg.MediaDir(), client, logger)

	return &app{
		cfg:          cfg,
		logger:       logger,
		database:     database,
		repo:         repo,
		client:       client,
		deviceID:     deviceID,
		sessions:     sessions,
		gallery:      gal,
		queue:        queue,
		templates:    templates,
		orchestrator: orchestrator,
		poller:       poller,
		media:        lib,
	}, nil
}

func (a *app) Close() {
	a.database.Close()
}

func ensureDeviceID(repo store.Repository) (string, error) {
	ctx := context.Background()

	existing, err := repo.GetConfig(ctx, store.ConfigKeyDeviceID)
	if err == nil && existing != "" {
		return existing, nil
	}

	idBytes := make([]byte, 16)
	if _, err := rand.Read(idBytes); err != nil {
		return "", err
	}
	deviceID := hex.EncodeToString(idBytes)

	if err := repo.SetConfig(ctx, store.ConfigKeyDeviceID, deviceID); err != nil {
		return "", err
	}

	return deviceID, nil
}

func ensureAuthToken(repo store.Repository) (string, error) {
	ctx := context.Background()

	existing, err := repo.GetConfig(ctx, store.ConfigKeyAuthToken)
	if err == nil && existing != "" {
		return existing, nil
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := hex.EncodeToString(tokenBytes)

	if err := repo.SetConfig(ctx, store.ConfigKeyAuthToken, token); err != nil {
		return "", err
	}

	return token, nil
}
