// Package web serves the rendered page and operational endpoints.
package web

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/rickgao/netview/internal/connection"
	"github.com/rickgao/netview/internal/dispatch"
)

// Page is the document served at /.
type Page interface {
	WriteTo(w io.Writer) (int64, error)
	LastUpdated() time.Time
}

// StatsSource reports dispatcher statistics.
type StatsSource interface {
	Stats() dispatch.Stats
}

// ConnState reports the websocket state.
type ConnState interface {
	State() connection.State
	QueueStats() connection.QueueStats
}

// Health is the /health response.
type Health struct {
	Status     string         `json:"status"` // healthy, degraded, unhealthy
	Components map[string]any `json:"components"`
}

// NewHandler creates the HTTP handler:
//
//	GET /             current page
//	GET /health       websocket and page status
//	GET /debug/stats  dispatcher statistics
func NewHandler(page Page, stats StatsSource, conn ConnState, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if _, err := page.WriteTo(w); err != nil {
			logger.Error("failed to write page", "error", err)
		}
	})

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		health := checkHealth(page, conn)

		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	})

	mux.HandleFunc("GET /debug/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(stats.Stats())
	})

	return mux
}

func checkHealth(page Page, conn ConnState) Health {
	health := Health{
		Status:     "healthy",
		Components: make(map[string]any),
	}

	// Check websocket
	state := conn.State()
	health.Components["websocket"] = state.String()
	health.Components["queue"] = conn.QueueStats()

	// Check page
	updated := page.LastUpdated()
	if updated.IsZero() {
		health.Components["page"] = map[string]string{"status": "waiting"}
		health.Status = "degraded"
	} else {
		health.Components["page"] = map[string]any{
			"status":       "rendered",
			"last_updated": updated.UTC().Format(time.RFC3339),
		}
	}

	if state != connection.StateOpen {
		health.Status = "unhealthy"
	}

	return health
}
