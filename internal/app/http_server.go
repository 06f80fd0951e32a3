package app

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/frudas24/deskpilot/internal/web"
	"github.com/rs/zerolog/log"
)

// RegisterRoutes wires API and static handlers onto the mux.
func (a *App) RegisterRoutes(mux *http.ServeMux, staticDir string) {
	mux.HandleFunc("/api/state", a.handleState)
	mux.Handle("/ws/ui", a.UI())
	mux.HandleFunc("/favicon.ico", handleFavicon)
	mux.Handle("/", staticFileServer(staticDir))
}

// handleState returns the current session snapshot.
func (a *App) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(a.session.Snapshot()); err != nil {
		log.Debug().Err(err).Msg("write state")
	}
}

// staticFileServer returns a handler for static assets, preferring disk then embed.
func staticFileServer(staticDir string) http.Handler {
	if staticDir != "" {
		if info, err := os.Stat(staticDir); err == nil && info.IsDir() {
			return http.FileServer(http.Dir(staticDir))
		}
		log.Warn().Str("dir", staticDir).Msg("static dir missing, using embedded assets")
	}

	embedded, err := web.StaticFS()
	if err != nil {
		log.Error().Err(err).Msg("static assets unavailable")
		return http.NotFoundHandler()
	}
	return http.FileServer(http.FS(embedded))
}

// handleFavicon avoids noisy 404s for the default browser request.
func handleFavicon(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
