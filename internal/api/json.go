package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"reelgate/internal/frameio"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

// WriteError emits the gateway's JSON error shape. Middleware reuses it so
// error responses look the same no matter where they originate.
func WriteError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeError(w http.ResponseWriter, status int, err error) {
	WriteError(w, status, err)
}

// writeRemoteError maps a failed remote call to a gateway response. The
// remote failure message is preserved so callers can see what the upstream
// rejected.
func writeRemoteError(w http.ResponseWriter, op string, err error) {
	status := http.StatusBadGateway
	var remote *frameio.RemoteError
	if errors.As(err, &remote) && remote.Status == http.StatusNotFound {
		status = http.StatusNotFound
	}
	writeError(w, status, fmt.Errorf("%s: %w", op, err))
}

func decodeJSON(r *http.Request, out any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read request body: %w", err)
	}
	if len(body) == 0 {
		return errors.New("request body is empty")
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}
