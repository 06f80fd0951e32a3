// Package config loads environment configuration for deskpilot.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/frudas24/deskpilot/internal/notify"
	"github.com/frudas24/deskpilot/internal/signaling"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
)

const defaultDataDir = "./data"

// Config holds runtime configuration values.
type Config struct {
	ListenAddr        string   `envconfig:"LISTEN_ADDR" default:"127.0.0.1:8788"`
	DataDir           string   `envconfig:"DATA_DIR" default:"./data"`
	PrefsPath         string   `envconfig:"PREFS_PATH"`
	SignalingURL      string   `envconfig:"SIGNALING_URL" required:"true"`
	SignalingInsecure bool     `envconfig:"SIGNALING_INSECURE" default:"false"`
	ClientTag         string   `envconfig:"CLIENT_TAG" default:"web"`
	ICEServers        []string `envconfig:"ICE_SERVERS" default:"stun:stun.l.google.com:19302"`
	ICEUsername       string   `envconfig:"ICE_USERNAME"`
	ICECredential     string   `envconfig:"ICE_CREDENTIAL"`

	HeartbeatIntervalMs int `envconfig:"HEARTBEAT_INTERVAL_MS" default:"5000"`
	HeartbeatTimeoutMs  int `envconfig:"HEARTBEAT_TIMEOUT_MS" default:"15000"`
	ReconnectDelayMs    int `envconfig:"RECONNECT_DELAY_MS" default:"2000"`
	JoinErrorHoldMs     int `envconfig:"JOIN_ERROR_HOLD_MS" default:"3000"`

	VideoSinkAddr string `envconfig:"VIDEO_SINK_ADDR"`
	Locale        string `envconfig:"LOCALE" default:"en"`
	LogLevel      string `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads configuration from <DATA_DIR>/.env and environment variables.
// Variables already set in the environment win over the file.
func Load() (Config, error) {
	dataDir := strings.TrimSpace(os.Getenv("DATA_DIR"))
	if dataDir == "" {
		dataDir = defaultDataDir
	}
	if err := godotenv.Load(filepath.Join(dataDir, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	if cfg.PrefsPath == "" {
		cfg.PrefsPath = filepath.Join(cfg.DataDir, "prefs.yaml")
	}
	cfg.Locale = strings.ToLower(strings.TrimSpace(cfg.Locale))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges and formats.
func (c Config) Validate() error {
	if err := signaling.ValidateURL(c.SignalingURL); err != nil {
		return fmt.Errorf("SIGNALING_URL: %w", err)
	}
	if c.HeartbeatIntervalMs <= 0 {
		return errors.New("HEARTBEAT_INTERVAL_MS must be > 0")
	}
	if c.HeartbeatTimeoutMs <= c.HeartbeatIntervalMs {
		return errors.New("HEARTBEAT_TIMEOUT_MS must be greater than HEARTBEAT_INTERVAL_MS")
	}
	if c.ReconnectDelayMs < 0 {
		return errors.New("RECONNECT_DELAY_MS must be >= 0")
	}
	if c.JoinErrorHoldMs < 0 {
		return errors.New("JOIN_ERROR_HOLD_MS must be >= 0")
	}
	if !notify.HasLocale(c.Locale) {
		return fmt.Errorf("LOCALE %q is not supported", c.Locale)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return nil
}

// Level returns the configured log level.
func (c Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

// HeartbeatInterval returns the ping period.
func (c Config) HeartbeatInterval() time.Duration {
	return time.Duration(c.HeartbeatIntervalMs) * time.Millisecond
}

// HeartbeatTimeout returns how long the link may stay silent.
func (c Config) HeartbeatTimeout() time.Duration {
	return time.Duration(c.HeartbeatTimeoutMs) * time.Millisecond
}

// ReconnectDelay returns the wait before restarting after a dead link.
func (c Config) ReconnectDelay() time.Duration {
	return time.Duration(c.ReconnectDelayMs) * time.Millisecond
}

// JoinErrorHold returns how long join errors stay visible.
func (c Config) JoinErrorHold() time.Duration {
	return time.Duration(c.JoinErrorHoldMs) * time.Millisecond
}
