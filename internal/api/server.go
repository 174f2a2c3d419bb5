package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/reelforge/reelforge-agent/internal/gallery"
	"github.com/reelforge/reelforge-agent/internal/health"
	"github.com/reelforge/reelforge-agent/internal/media"
	"github.com/reelforge/reelforge-agent/internal/session"
	"github.com/reelforge/reelforge-agent/internal/store"
	"github.com/reelforge/reelforge-agent/internal/template"
	"github.com/reelforge/reelforge-agent/internal/uploader"
	"github.com/reelforge/reelforge-agent/internal/video"
	"github.com/reelforge/reelforge-agent/internal/watch"
)

type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

type ServerConfig struct {
	Port int

	// BaseContext parents background work the handlers spawn, such as
	// job polling after a create. Cancelling it stops that work on
	// shutdown. Nil means context.Background().
	BaseContext context.Context
	Repository   store.Repository
	Sessions     *session.Store
	Gallery      *gallery.Service
	Queue        *uploader.Queue
	Templates    *template.Catalog
	Orchestrator *video.Orchestrator
	Poller       *video.Poller
	Health       *health.Watcher
	Media        *media.Library
	Scanner      *watch.Scanner
	Logger       *slog.Logger
	StartTime    time.Time
	DeviceID     string
}

func NewServer(cfg ServerConfig) *Server {
	router := NewRouter(cfg)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("127.0.0.1:%d", cfg.Port),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 0,
			IdleTimeout:  60 * time.Second,
		},
		logger: cfg.Logger,
	}
}

func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Addr() string {
	return s.httpServer.Addr
}
