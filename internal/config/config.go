// Package config provides configuration management for the Reelforge Agent.
// Configuration is loaded from environment variables with sensible defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	// Default values
	DefaultPort     = 8878
	DefaultLogLevel = "info"
	DefaultDataDir  = ".reelforge"
	DefaultAPIURL   = "http://localhost:8000"

	// Environment variable names
	EnvPort     = "REELFORGE_PORT"
	EnvLogLevel = "REELFORGE_LOG_LEVEL"
	EnvDataDir  = "REELFORGE_DATA_DIR"
	EnvAPIURL   = "REELFORGE_API_URL"
	EnvWatchDir = "REELFORGE_WATCH_DIR"
	EnvHeadless = "REELFORGE_HEADLESS"

	// Polling environment variable names
	EnvPollInterval        = "REELFORGE_POLL_INTERVAL"
	EnvHealthInterval      = "REELFORGE_HEALTH_INTERVAL"
	EnvHealthErrorInterval = "REELFORGE_HEALTH_ERROR_INTERVAL"

	// Database filename
	DBFilename = "reelforge.db"

	// Polling defaults (seconds)
	DefaultPollInterval        = 5
	DefaultHealthInterval      = 60
	DefaultHealthErrorInterval = 10
	DefaultWatchInterval       = 10
	DefaultHandoffDelay        = 1
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	MediaDir() string
	APIBaseURL() string
	WatchDir() string
	Headless() bool
	PollInterval() time.Duration
	HealthInterval() time.Duration
	HealthErrorInterval() time.Duration
	WatchInterval() time.Duration
	HandoffDelay() time.Duration
}

// EnvConfig reads configuration from environment variables
type EnvConfig struct {
	port     int
	logLevel string
	dataDir  string
	apiURL   string
	watchDir string
	headless bool

	pollInterval        time.Duration
	healthInterval      time.Duration
	healthErrorInterval time.Duration
}

// New creates a new EnvConfig with defaults and environment variable overrides
func New() (*EnvConfig, error) {
	cfg := &EnvConfig{
		port:                DefaultPort,
		logLevel:            DefaultLogLevel,
		dataDir:             defaultDataDir(),
		apiURL:              DefaultAPIURL,
		pollInterval:        DefaultPollInterval * time.Second,
		healthInterval:      DefaultHealthInterval * time.Second,
		healthErrorInterval: DefaultHealthErrorInterval * time.Second,
	}

	// Override port from environment
	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
		}
		cfg.port = port
	}

	// Override log level from environment
	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}

	// Override data directory from environment
	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}

	if u := os.Getenv(EnvAPIURL); u != "" {
		cfg.apiURL = u
	}

	cfg.watchDir = os.Getenv(EnvWatchDir)
	cfg.headless = os.Getenv(EnvHeadless) == "1" || os.Getenv(EnvHeadless) == "true"

	var err error
	if cfg.pollInterval, err = intervalFromEnv(EnvPollInterval, cfg.pollInterval); err != nil {
		return nil, err
	}
	if cfg.healthInterval, err = intervalFromEnv(EnvHealthInterval, cfg.healthInterval); err != nil {
		return nil, err
	}
	if cfg.healthErrorInterval, err = intervalFromEnv(EnvHealthErrorInterval, cfg.healthErrorInterval); err != nil {
		return nil, err
	}

	return cfg, nil
}

func intervalFromEnv(name string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	if secs < 1 {
		return 0, fmt.Errorf("invalid %s: must be at least 1 second", name)
	}
	return time.Duration(secs) * time.Second, nil
}

// Port returns the local HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// MediaDir returns the directory where downloaded videos are stored
func (c *EnvConfig) MediaDir() string {
	return filepath.Join(c.dataDir, "media")
}

// APIBaseURL returns the backend base URL
func (c *EnvConfig) APIBaseURL() string {
	return c.apiURL
}

// WatchDir returns the auto-upload folder, empty when disabled
func (c *EnvConfig) WatchDir() string {
	return c.watchDir
}

// Headless reports whether the system tray is disabled
func (c *EnvConfig) Headless() bool {
	return c.headless
}

func (c *EnvConfig) PollInterval() time.Duration {
	return c.pollInterval
}

func (c *EnvConfig) HealthInterval() time.Duration {
	return c.healthInterval
}

func (c *EnvConfig) HealthErrorInterval() time.Duration {
	return c.healthErrorInterval
}

func (c *EnvConfig) WatchInterval() time.Duration {
	return time.Duration(DefaultWatchInterval) * time.Second
}

func (c *EnvConfig) HandoffDelay() time.Duration {
	return time.Duration(DefaultHandoffDelay) * time.Second
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
