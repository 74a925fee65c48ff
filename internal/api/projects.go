package api

import (
	"fmt"
	"net/http"
	"strings"

	"reelgate/internal/frameio"
)

type createProjectRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Genre       *string `json:"genre"`
	Director    *string `json:"director"`
	Producer    *string `json:"producer"`
}

type shareRequest struct {
	Email      string `json:"email"`
	Permission string `json:"permission"`
}

// CreateProject provisions a private remote project and applies the optional
// production metadata in a follow-up update.
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("project name is required"))
		return
	}

	project, err := h.Remote.CreateProject(r.Context(), frameio.CreateProjectParams{
		Name:    req.Name,
		Private: true,
	})
	if err != nil {
		writeRemoteError(w, "create project", err)
		return
	}

	if req.Description != nil || req.Genre != nil || req.Director != nil || req.Producer != nil {
		updated, err := h.Remote.UpdateProject(r.Context(), project.ID, frameio.UpdateProjectParams{
			Description: req.Description,
			Genre:       req.Genre,
			Director:    req.Director,
			Producer:    req.Producer,
		})
		if err != nil {
			writeRemoteError(w, "update project metadata", err)
			return
		}
		project = updated
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"project": project,
	})
}

// ShareProject grants a collaborator access to an entire project.
func (h *Handler) ShareProject(w http.ResponseWriter, r *http.Request, projectID string) {
	var req shareRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("email is required"))
		return
	}
	if !frameio.ValidPermission(req.Permission) {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid permission %q", req.Permission))
		return
	}

	share, err := h.Remote.ShareProject(r.Context(), projectID, req.Email, frameio.Permission(strings.ToLower(req.Permission)))
	if err != nil {
		writeRemoteError(w, "share project", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"share":  share,
	})
}
