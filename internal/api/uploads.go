package api

import (
	"fmt"
	"net/http"
	"strings"

	"reelgate/internal/frameio"
)

const maxUploadBytes = 256 << 20

// UploadToProject receives a multipart upload, stores it under the project
// root, then files it into the Scripts or Media folder depending on the
// declared file type.
func (h *Handler) UploadToProject(w http.ResponseWriter, r *http.Request, projectID string) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("parse multipart form: %w", err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("file is required"))
		return
	}
	defer file.Close()

	fileType := strings.ToLower(strings.TrimSpace(r.FormValue("file_type")))
	var folderName string
	switch fileType {
	case "script":
		folderName = frameio.FolderScripts
	case "media":
		folderName = frameio.FolderMedia
	default:
		writeError(w, http.StatusBadRequest, fmt.Errorf("file_type must be script or media"))
		return
	}

	project, err := h.Remote.GetProject(r.Context(), projectID)
	if err != nil {
		writeRemoteError(w, "look up project", err)
		return
	}

	asset, err := h.Remote.UploadAsset(r.Context(), project.RootAssetID, header.Filename, file)
	if err != nil {
		writeRemoteError(w, "upload asset", err)
		return
	}

	if tags := parseTags(r.FormValue("tags")); len(tags) > 0 {
		updated, err := h.Remote.UpdateAsset(r.Context(), asset.ID, frameio.UpdateAssetParams{Tags: tags})
		if err != nil {
			writeRemoteError(w, "tag asset", err)
			return
		}
		asset = updated
	}

	folder, err := frameio.EnsureFolder(r.Context(), h.Remote, projectID, folderName)
	if err != nil {
		writeRemoteError(w, "prepare destination folder", err)
		return
	}
	moved, err := h.Remote.MoveAsset(r.Context(), asset.ID, folder.ID)
	if err != nil {
		writeRemoteError(w, "move asset", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"asset":  moved,
		"folder": folder.Name,
	})
}

func parseTags(raw string) []string {
	var tags []string
	for _, part := range strings.Split(raw, ",") {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
