package server

import (
	"fmt"
	"net/http"
	"strings"

	"reelgate/internal/api"
)

// The gateway routes nest resource actions one level under the resource ID,
// for example /projects/{id}/upload. splitResourcePath extracts the ID and
// action segments of such paths.
func splitResourcePath(path, prefix string) (id, action string, ok bool) {
	rest := strings.TrimPrefix(path, prefix)
	if rest == path || rest == "" {
		return "", "", false
	}
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	switch len(parts) {
	case 1:
		if parts[0] == "" {
			return "", "", false
		}
		return parts[0], "", true
	case 2:
		if parts[0] == "" || parts[1] == "" {
			return "", "", false
		}
		return parts[0], parts[1], true
	default:
		return "", "", false
	}
}

func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	api.WriteError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
	return false
}

func notFound(w http.ResponseWriter) {
	api.WriteError(w, http.StatusNotFound, fmt.Errorf("resource not found"))
}

func routeProjects(h *api.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodPost) {
			return
		}
		h.CreateProject(w, r)
	}
}

func routeProjectByID(h *api.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, action, ok := splitResourcePath(r.URL.Path, "/projects/")
		if !ok {
			notFound(w)
			return
		}
		switch action {
		case "upload":
			if requireMethod(w, r, http.MethodPost) {
				h.UploadToProject(w, r, id)
			}
		case "sequences":
			if requireMethod(w, r, http.MethodPost) {
				h.CreateSequence(w, r, id)
			}
		case "share":
			if requireMethod(w, r, http.MethodPost) {
				h.ShareProject(w, r, id)
			}
		default:
			notFound(w)
		}
	}
}

func routeSequenceByID(h *api.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, action, ok := splitResourcePath(r.URL.Path, "/sequences/")
		if !ok {
			notFound(w)
			return
		}
		switch action {
		case "shots":
			if requireMethod(w, r, http.MethodPost) {
				h.CreateShot(w, r, id)
			}
		case "reorder":
			if requireMethod(w, r, http.MethodPut) {
				h.ReorderShots(w, r, id)
			}
		default:
			notFound(w)
		}
	}
}

func routeAssetByID(h *api.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, action, ok := splitResourcePath(r.URL.Path, "/assets/")
		if !ok {
			notFound(w)
			return
		}
		switch action {
		case "comment":
			if requireMethod(w, r, http.MethodPost) {
				h.CommentAsset(w, r, id)
			}
		case "approve":
			if requireMethod(w, r, http.MethodPost) {
				h.ApproveAsset(w, r, id)
			}
		default:
			notFound(w)
		}
	}
}

func routeExport(h *api.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodPost) {
			return
		}
		h.CreateExport(w, r)
	}
}

func routeExportByID(h *api.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, action, ok := splitResourcePath(r.URL.Path, "/export/")
		if !ok || action != "" {
			notFound(w)
			return
		}
		if requireMethod(w, r, http.MethodGet) {
			h.GetExport(w, r, id)
		}
	}
}

func routeShare(h *api.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodPost) {
			return
		}
		h.ShareAsset(w, r)
	}
}

func routeWebhook(h *api.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodPost) {
			return
		}
		h.Webhook(w, r)
	}
}
