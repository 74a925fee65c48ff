package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

const maxWebhookBytes = 1 << 20

// Webhook accepts remote event deliveries. Processing happens off the request
// path so the remote service gets its acknowledgement immediately; delivery
// problems are recorded but never surfaced to the sender.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("read webhook body: %w", err))
		return
	}
	if h.Relay != nil {
		go h.Relay.Process(context.WithoutCancel(r.Context()), payload)
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "Webhook processed"})
}
