package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/diewo77/invoice-api/httpx"
	"github.com/rs/zerolog"
)

// Pinger is satisfied by every store.
type Pinger interface {
	Ping(ctx context.Context) error
}

const pingTimeout = 2 * time.Second

// Health serves liveness and a lightweight store check.
type Health struct {
	store Pinger
	log   zerolog.Logger
}

func NewHealth(store Pinger, log zerolog.Logger) *Health {
	return &Health{store: store, log: log}
}

// Live: GET /health
func (h *Health) Live(w http.ResponseWriter, _ *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready: GET /healthz pings the store; failure details stay in the log.
func (h *Health) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()
	if err := h.store.Ping(ctx); err != nil {
		h.log.Warn().Err(err).Msg("store ping failed")
		httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Banner: GET /
func Banner(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Invoice API is running"))
}

// NotFound answers unmatched paths.
func NotFound(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusNotFound, map[string]string{
		"error":      "not_found",
		"message":    "Path not found: " + r.URL.Path,
		"suggestion": "Check your routes and method (GET/POST/PUT/DELETE)",
	})
}
