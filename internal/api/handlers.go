package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"reelgate/internal/frameio"
	"reelgate/internal/live"
	"reelgate/internal/relay"
)

// Handler bundles the HTTP endpoints of the gateway. Every endpoint forwards
// to the remote media service; the handler owns no durable state of its own.
type Handler struct {
	Remote frameio.Service
	Relay  *relay.Relay
	Live   *live.Gateway
	Logger *slog.Logger
}

// NewHandler initialises a handler around the remote service client.
func NewHandler(remote frameio.Service) *Handler {
	return &Handler{Remote: remote, Logger: slog.Default()}
}

func (h *Handler) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}

// Health reports process liveness without touching the remote service.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ConnectionCheck verifies the remote credential by fetching the caller's own
// profile.
func (h *Handler) ConnectionCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
		return
	}
	user, err := h.Remote.Me(r.Context())
	if err != nil {
		writeRemoteError(w, "connect to remote media service", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "connected",
		"user":   user.Email,
	})
}

// LiveChannel upgrades the request to the live update WebSocket.
func (h *Handler) LiveChannel(w http.ResponseWriter, r *http.Request) {
	if h.Live == nil {
		writeError(w, http.StatusServiceUnavailable, fmt.Errorf("live channel unavailable"))
		return
	}
	h.Live.HandleConnection(w, r)
}
