package api

import (
	"fmt"
	"net/http"
	"strings"

	"reelgate/internal/frameio"
)

type commentRequest struct {
	Text string `json:"text"`
}

type approveRequest struct {
	Status   string `json:"status"`
	Reviewer string `json:"reviewer"`
}

type directShareRequest struct {
	AssetID    string `json:"asset_id"`
	Email      string `json:"email"`
	Permission string `json:"permission"`
}

// CommentAsset attaches a review comment to an asset.
func (h *Handler) CommentAsset(w http.ResponseWriter, r *http.Request, assetID string) {
	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("comment text is required"))
		return
	}

	comment, err := h.Remote.CreateComment(r.Context(), assetID, req.Text)
	if err != nil {
		writeRemoteError(w, "create comment", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"comment": comment,
	})
}

// ApproveAsset records a review decision on an asset. The decision lands in
// the asset's status field, the reviewer in its properties.
func (h *Handler) ApproveAsset(w http.ResponseWriter, r *http.Request, assetID string) {
	var req approveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	status := strings.ToLower(strings.TrimSpace(req.Status))
	switch status {
	case "approved", "rejected", "needs_review":
	default:
		writeError(w, http.StatusBadRequest, fmt.Errorf("status must be approved, rejected or needs_review"))
		return
	}

	params := frameio.UpdateAssetParams{Status: &status}
	if reviewer := strings.TrimSpace(req.Reviewer); reviewer != "" {
		params.Properties = map[string]interface{}{"reviewer": reviewer}
	}
	asset, err := h.Remote.UpdateAsset(r.Context(), assetID, params)
	if err != nil {
		writeRemoteError(w, "update review status", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"asset":  asset,
	})
}

// ShareAsset shares a single asset directly, outside any project share.
func (h *Handler) ShareAsset(w http.ResponseWriter, r *http.Request) {
	var req directShareRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	req.AssetID = strings.TrimSpace(req.AssetID)
	req.Email = strings.TrimSpace(req.Email)
	if req.AssetID == "" || req.Email == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("asset_id and email are required"))
		return
	}
	if !frameio.ValidPermission(req.Permission) {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid permission %q", req.Permission))
		return
	}

	share, err := h.Remote.ShareAsset(r.Context(), req.AssetID, req.Email, frameio.Permission(strings.ToLower(req.Permission)))
	if err != nil {
		writeRemoteError(w, "share asset", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"share":  share,
	})
}
