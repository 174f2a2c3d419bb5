package ui

import (
	"log/slog"
	"sync"

	"github.com/getlantern/systray"

	"github.com/reelforge/reelforge-agent/internal/watch"
)

type Tray struct {
	scanner *watch.Scanner
	logger  *slog.Logger

	statusItem  *systray.MenuItem
	sessionItem *systray.MenuItem
	pauseItem   *systray.MenuItem

	mu sync.Mutex

	onNewSession func() error
	onQuit       func()
}

type TrayConfig struct {
	Scanner      *watch.Scanner
	Logger       *slog.Logger
	OnNewSession func() error
	OnQuit       func()
}

func NewTray(cfg TrayConfig) *Tray {
	return &Tray{
		scanner:      cfg.Scanner,
		logger:       cfg.Logger,
		onNewSession: cfg.OnNewSession,
		onQuit:       cfg.OnQuit,
	}
}

func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetIcon(iconBytes)
	systray.SetTitle("Reelforge")
	systray.SetTooltip("Reelforge Agent")

	t.statusItem = systray.AddMenuItem("Backend: Checking...", "Backend connection state")
	t.statusItem.Disable()

	t.sessionItem = systray.AddMenuItem("Session: none", "Current session code")
	t.sessionItem.Disable()

	systray.AddSeparator()

	t.pauseItem = systray.AddMenuItem("Pause Auto-Upload", "Pause folder watching")
	if t.scanner == nil {
		t.pauseItem.Disable()
	}

	newSessionItem := systray.AddMenuItem("New Session", "Start a fresh photo session")

	systray.AddSeparator()

	quitItem := systray.AddMenuItem("Quit", "Quit Reelforge Agent")

	go func() {
		for {
			select {
			case <-t.pauseItem.ClickedCh:
				t.togglePause()
			case <-newSessionItem.ClickedCh:
				t.handleNewSession()
			case <-quitItem.ClickedCh:
				t.logger.Info("quit requested from tray")
				if t.onQuit != nil {
					t.onQuit()
				}
				systray.Quit()
				return
			}
		}
	}()

	t.logger.Info("system tray ready")
}

func (t *Tray) onExit() {
	t.logger.Info("system tray exiting")
}

func (t *Tray) togglePause() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.scanner == nil {
		return
	}

	if t.scanner.Paused() {
		t.scanner.Resume()
		t.pauseItem.SetTitle("Pause Auto-Upload")
	} else {
		t.scanner.Pause()
		t.pauseItem.SetTitle("Resume Auto-Upload")
	}
}

func (t *Tray) handleNewSession() {
	if t.onNewSession != nil {
		if err := t.onNewSession(); err != nil {
			t.logger.Error("failed to start new session", "error", err)
		}
	}
}

// UpdateBackend reflects the health watcher's latest observation.
func (t *Tray) UpdateBackend(healthy bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.statusItem == nil {
		return
	}
	if healthy {
		t.statusItem.SetTitle("Backend: Connected")
	} else {
		t.statusItem.SetTitle("Backend: Offline")
	}
}

func (t *Tray) UpdateSession(code string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.sessionItem == nil {
		return
	}
	if code == "" {
		t.sessionItem.SetTitle("Session: none")
	} else {
		t.sessionItem.SetTitle("Session: " + code)
	}
}

func (t *Tray) Quit() {
	systray.Quit()
}
