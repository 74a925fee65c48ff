package api

import (
	"fmt"
	"net/http"
	"strings"

	"reelgate/internal/frameio"
)

type sequenceCreateRequest struct {
	Name string `json:"name"`
}

type shotCreateRequest struct {
	Name        string   `json:"name"`
	Description *string  `json:"description"`
	Duration    *float64 `json:"duration"`
}

type reorderRequest struct {
	ShotIDs []string `json:"shot_ids"`
}

// CreateSequence creates a sequence folder under the project's Sequences
// folder.
func (h *Handler) CreateSequence(w http.ResponseWriter, r *http.Request, projectID string) {
	var req sequenceCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("sequence name is required"))
		return
	}

	parent, err := frameio.EnsureFolder(r.Context(), h.Remote, projectID, frameio.FolderSequences)
	if err != nil {
		writeRemoteError(w, "prepare sequences folder", err)
		return
	}
	sequence, err := h.Remote.CreateAsset(r.Context(), parent.ID, frameio.CreateAssetParams{
		Name: req.Name,
		Type: frameio.AssetTypeFolder,
	})
	if err != nil {
		writeRemoteError(w, "create sequence", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "success",
		"sequence": sequence,
	})
}

// CreateShot adds a shot placeholder inside a sequence folder.
func (h *Handler) CreateShot(w http.ResponseWriter, r *http.Request, sequenceID string) {
	var req shotCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("shot name is required"))
		return
	}

	shot, err := h.Remote.CreateAsset(r.Context(), sequenceID, frameio.CreateAssetParams{
		Name: req.Name,
		Type: frameio.AssetTypeFile,
	})
	if err != nil {
		writeRemoteError(w, "create shot", err)
		return
	}

	params := frameio.UpdateAssetParams{Description: req.Description}
	if req.Duration != nil {
		params.Properties = map[string]interface{}{"duration": *req.Duration}
	}
	if params.Description != nil || params.Properties != nil {
		updated, err := h.Remote.UpdateAsset(r.Context(), shot.ID, params)
		if err != nil {
			writeRemoteError(w, "update shot details", err)
			return
		}
		shot = updated
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"shot":   shot,
	})
}

// ReorderShots rewrites the ordering of shots inside a sequence. The target
// must be a folder and every requested shot must already live inside it.
func (h *Handler) ReorderShots(w http.ResponseWriter, r *http.Request, sequenceID string) {
	var req reorderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if len(req.ShotIDs) == 0 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("shot_ids is required"))
		return
	}

	sequence, err := h.Remote.GetAsset(r.Context(), sequenceID)
	if err != nil {
		writeRemoteError(w, "look up sequence", err)
		return
	}
	if sequence.Type != frameio.AssetTypeFolder {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid sequence ID"))
		return
	}

	children, err := h.Remote.ListChildren(r.Context(), sequenceID)
	if err != nil {
		writeRemoteError(w, "list sequence shots", err)
		return
	}
	known := make(map[string]bool, len(children))
	for _, child := range children {
		if child.Type == frameio.AssetTypeFile {
			known[child.ID] = true
		}
	}
	for _, id := range req.ShotIDs {
		if !known[id] {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid shot ID provided"))
			return
		}
	}

	shots, err := h.Remote.ReorderAssets(r.Context(), sequenceID, req.ShotIDs)
	if err != nil {
		writeRemoteError(w, "reorder shots", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"shots":  shots,
	})
}
