package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points DATA_DIR at an empty directory and clears overrides.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DATA_DIR", dir)
	for _, key := range []string{
		"LISTEN_ADDR", "PREFS_PATH", "SIGNALING_URL", "SIGNALING_INSECURE", "CLIENT_TAG",
		"ICE_SERVERS", "ICE_USERNAME", "ICE_CREDENTIAL", "HEARTBEAT_INTERVAL_MS",
		"HEARTBEAT_TIMEOUT_MS", "RECONNECT_DELAY_MS", "JOIN_ERROR_HOLD_MS",
		"VIDEO_SINK_ADDR", "LOCALE", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
	return dir
}

// TestLoadDefaults verifies defaults apply when only the signaling URL is set.
func TestLoadDefaults(t *testing.T) {
	dir := isolate(t)
	t.Setenv("SIGNALING_URL", "wss://signal.example.com:9099")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8788", cfg.ListenAddr)
	assert.Equal(t, filepath.Join(dir, "prefs.yaml"), cfg.PrefsPath)
	assert.Equal(t, "web", cfg.ClientTag)
	assert.Equal(t, []string{"stun:stun.l.google.com:19302"}, cfg.ICEServers)
	assert.Equal(t, 5*time.Second, cfg.HeartbeatInterval())
	assert.Equal(t, 15*time.Second, cfg.HeartbeatTimeout())
	assert.Equal(t, 2*time.Second, cfg.ReconnectDelay())
	assert.Equal(t, 3*time.Second, cfg.JoinErrorHold())
	assert.Equal(t, "en", cfg.Locale)
	assert.Equal(t, zerolog.InfoLevel, cfg.Level())
}

// TestLoadRequiresSignalingURL verifies loading fails without a signaling URL.
func TestLoadRequiresSignalingURL(t *testing.T) {
	isolate(t)
	_, err := Load()
	require.Error(t, err)
}

// TestLoadEnvFile verifies values are read from the data dir .env file.
func TestLoadEnvFile(t *testing.T) {
	dir := isolate(t)
	env := "SIGNALING_URL=ws://10.0.0.2:9099\nICE_SERVERS=stun:a:3478,turn:b:3478\nLOCALE=zh\nCLIENT_TAG=from-file\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0o600))
	t.Setenv("CLIENT_TAG", "from-env")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "ws://10.0.0.2:9099", cfg.SignalingURL)
	assert.Equal(t, []string{"stun:a:3478", "turn:b:3478"}, cfg.ICEServers)
	assert.Equal(t, "zh", cfg.Locale)
	assert.Equal(t, "from-env", cfg.ClientTag, "environment wins over .env")
}

// TestValidate verifies out-of-range settings are rejected.
func TestValidate(t *testing.T) {
	base := Config{
		SignalingURL:        "wss://signal.example.com",
		HeartbeatIntervalMs: 5000,
		HeartbeatTimeoutMs:  15000,
		ReconnectDelayMs:    2000,
		JoinErrorHoldMs:     3000,
		Locale:              "en",
		LogLevel:            "info",
	}
	require.NoError(t, base.Validate())

	cases := map[string]func(*Config){
		"scheme":   func(c *Config) { c.SignalingURL = "http://signal.example.com" },
		"interval": func(c *Config) { c.HeartbeatIntervalMs = 0 },
		"timeout":  func(c *Config) { c.HeartbeatTimeoutMs = 5000 },
		"delay":    func(c *Config) { c.ReconnectDelayMs = -1 },
		"hold":     func(c *Config) { c.JoinErrorHoldMs = -1 },
		"locale":   func(c *Config) { c.Locale = "fr" },
		"level":    func(c *Config) { c.LogLevel = "loud" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := base
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}
