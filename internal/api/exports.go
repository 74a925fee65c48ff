package api

import (
	"fmt"
	"net/http"
	"strings"

	"reelgate/internal/frameio"
)

type exportRequest struct {
	AssetID string `json:"asset_id"`
	Format  string `json:"format"`
	Quality string `json:"quality"`
}

// CreateExport starts a remote export job. Folders are copied first so the
// export runs against a stable snapshot of their contents.
func (h *Handler) CreateExport(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	req.AssetID = strings.TrimSpace(req.AssetID)
	req.Format = strings.ToLower(strings.TrimSpace(req.Format))
	if req.AssetID == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("asset_id is required"))
		return
	}
	if req.Format == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("format is required"))
		return
	}
	quality := strings.ToLower(strings.TrimSpace(req.Quality))
	if quality == "" {
		quality = "high"
	}

	asset, err := h.Remote.GetAsset(r.Context(), req.AssetID)
	if err != nil {
		writeRemoteError(w, "look up asset", err)
		return
	}
	targetID := asset.ID
	if asset.Type == frameio.AssetTypeFolder {
		snapshot, err := h.Remote.CopyAsset(r.Context(), asset.ID)
		if err != nil {
			writeRemoteError(w, "snapshot folder for export", err)
			return
		}
		targetID = snapshot.ID
	}

	job, err := h.Remote.CreateExportJob(r.Context(), targetID, req.Format, quality)
	if err != nil {
		writeRemoteError(w, "create export job", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"job":    job,
	})
}

// GetExport reports the current state of an export job.
func (h *Handler) GetExport(w http.ResponseWriter, r *http.Request, jobID string) {
	job, err := h.Remote.GetExportJob(r.Context(), jobID)
	if err != nil {
		writeRemoteError(w, "look up export job", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"job":    job,
	})
}
