package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/reelforge/reelforge-agent/internal/api"
	"github.com/reelforge/reelforge-agent/internal/config"
	"github.com/reelforge/reelforge-agent/internal/health"
	"github.com/reelforge/reelforge-agent/internal/ui"
	"github.com/reelforge/reelforge-agent/internal/watch"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the agent with the local HTTP API and system tray",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	startTime := time.Now()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	logger := a.logger
	logger.Info("starting reelforge agent",
		"version", config.Version,
		"data_dir", a.cfg.DataDir(),
		"backend", a.cfg.APIBaseURL(),
	)

	authToken, err := ensureAuthToken(a.repo)
	if err != nil {
		return fmt.Errorf("ensure auth token: %w", err)
	}

	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Println("║                  REELFORGE AGENT v" + config.Version + "                    ║")
	fmt.Println("╠═══════════════════════════════════════════════════════════╣")
	fmt.Printf("║  API URL:    http://127.0.0.1:%-27d ║\n", a.cfg.Port())
	fmt.Printf("║  Auth Token: %-45s ║\n", authToken)
	fmt.Printf("║  Device ID:  %-45s ║\n", a.deviceID[:16]+"...")
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watcher := health.NewWatcher(a.client, a.cfg.HealthInterval(), a.cfg.HealthErrorInterval(), logger)

	var scanner *watch.Scanner
	if dir := a.cfg.WatchDir(); dir != "" {
		scanner = watch.NewScanner(dir, a.cfg.WatchInterval(), a.queue, logger)
		go scanner.Run(ctx)
		logger.Info("folder watching enabled", "dir", dir)
	}

	apiServer := api.NewServer(api.ServerConfig{
		Port:         a.cfg.Port(),
		BaseContext:  ctx,
		Repository:   a.repo,
		Sessions:     a.sessions,
		Gallery:      a.gallery,
		Queue:        a.queue,
		Templates:    a.templates,
		Orchestrator: a.orchestrator,
		Poller:       a.poller,
		Health:       watcher,
		Media:        a.media,
		Scanner:      scanner,
		Logger:       logger,
		StartTime:    startTime,
		DeviceID:     a.deviceID,
	})

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	quitCh := make(chan struct{})

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", "signal", sig)
			close(quitCh)
		case <-quitCh:
		}
	}()

	if a.cfg.Headless() {
		logger.Info("running in headless mode (no system tray)")
		go watcher.Run(ctx)
	} else {
		tray := ui.NewTray(ui.TrayConfig{
			Scanner: scanner,
			Logger:  logger,
			OnNewSession: func() error {
				if err := a.sessions.Reset(context.Background()); err != nil {
					return err
				}
				code, err := a.sessions.Ensure(context.Background())
				if err != nil {
					return err
				}
				logger.Info("new session started from tray", "session_code", code)
				return nil
			},
			OnQuit: func() {
				close(quitCh)
			},
		})

		watcher.SetOnChange(tray.UpdateBackend)
		go watcher.Run(ctx)

		if code, err := a.sessions.Current(context.Background()); err == nil {
			tray.UpdateSession(code)
		}

		go tray.Run()
	}

	<-quitCh

	logger.Info("initiating graceful shutdown")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}
