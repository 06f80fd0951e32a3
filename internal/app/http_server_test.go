package app

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/frudas24/deskpilot/internal/config"
	"github.com/jonboulle/clockwork"
)

// newTestApp builds an App against an unreachable signaling URL without running it.
func newTestApp(t *testing.T) *App {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Config{
		DataDir:             dir,
		PrefsPath:           filepath.Join(dir, "prefs.yaml"),
		SignalingURL:        "ws://127.0.0.1:1/signal",
		ClientTag:           "web",
		HeartbeatIntervalMs: 5000,
		HeartbeatTimeoutMs:  15000,
		ReconnectDelayMs:    2000,
		JoinErrorHoldMs:     3000,
		Locale:              "en",
		LogLevel:            "info",
	}
	a, err := newApp(cfg, clockwork.NewFakeClock())
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(func() { _ = a.Stop() })
	return a
}

// TestHandleState_ReturnsSnapshot verifies /api/state reports the session snapshot.
func TestHandleState_ReturnsSnapshot(t *testing.T) {
	a := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/state", nil)
	rec := httptest.NewRecorder()
	a.handleState(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["state"] != "disconnected" {
		t.Fatalf("expected disconnected, got %v", resp["state"])
	}
	if resp["link_open"] != false {
		t.Fatalf("expected link closed, got %v", resp["link_open"])
	}
}

// TestHandleState_RejectsPost verifies the state endpoint is read-only.
func TestHandleState_RejectsPost(t *testing.T) {
	a := newTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/api/state", nil)
	rec := httptest.NewRecorder()
	a.handleState(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

// TestRegisterRoutes_ServesEmbeddedIndex verifies the UI page is served from the embedded assets.
func TestRegisterRoutes_ServesEmbeddedIndex(t *testing.T) {
	a := newTestApp(t)
	mux := http.NewServeMux()
	a.RegisterRoutes(mux, "")
	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("get index: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "/ws/ui") {
		t.Fatalf("expected index to reference the UI socket")
	}

	fav, err := http.Get(srv.URL + "/favicon.ico")
	if err != nil {
		t.Fatalf("get favicon: %v", err)
	}
	fav.Body.Close()
	if fav.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", fav.StatusCode)
	}
}
