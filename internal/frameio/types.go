package frameio

import "strings"

// AssetType distinguishes the two kinds of entities the remote service stores
// under a project: plain files (media, scripts, shots) and folders (folders
// proper, sequences).
type AssetType string

const (
	AssetTypeFile   AssetType = "file"
	AssetTypeFolder AssetType = "folder"
)

// Permission enumerates the sharing levels the remote service accepts.
type Permission string

const (
	PermissionView        Permission = "view"
	PermissionReview      Permission = "review"
	PermissionCollaborate Permission = "collaborate"
)

// ValidPermission reports whether the provided string is a recognised sharing
// level.
func ValidPermission(value string) bool {
	switch Permission(strings.ToLower(strings.TrimSpace(value))) {
	case PermissionView, PermissionReview, PermissionCollaborate:
		return true
	default:
		return false
	}
}

// User is the authenticated caller's profile as reported by the remote
// service.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Project mirrors the remote project record. RootAssetID names the folder
// asset all project content hangs off.
type Project struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Genre       string `json:"genre,omitempty"`
	Director    string `json:"director,omitempty"`
	Producer    string `json:"producer,omitempty"`
	RootAssetID string `json:"root_asset_id"`
	Private     bool   `json:"private"`
}

// Asset mirrors the remote asset record for both files and folders.
type Asset struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	Type        AssetType              `json:"type"`
	ParentID    string                 `json:"parent_id,omitempty"`
	ProjectID   string                 `json:"project_id,omitempty"`
	Description string                 `json:"description,omitempty"`
	Status      string                 `json:"status,omitempty"`
	Tags        []string               `json:"tags,omitempty"`
	Properties  map[string]interface{} `json:"properties,omitempty"`
}

// Comment is a review comment attached to an asset.
type Comment struct {
	ID      string `json:"id"`
	AssetID string `json:"asset_id"`
	Text    string `json:"text"`
	UserID  string `json:"user_id,omitempty"`
}

// Share records the outcome of sharing a project or asset with an email
// address at a given permission level.
type Share struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	Permission Permission `json:"permission"`
}

// ExportJob tracks a remote export request for an asset.
type ExportJob struct {
	ID          string `json:"id"`
	AssetID     string `json:"asset_id"`
	Format      string `json:"format"`
	Quality     string `json:"quality,omitempty"`
	Status      string `json:"status"`
	DownloadURL string `json:"download_url,omitempty"`
}

// Activity summarises the latest update on a project, as returned by the
// remote activity feed. It is forwarded verbatim over the live channel.
type Activity struct {
	ProjectID  string `json:"project_id"`
	UpdateType string `json:"update_type"`
	OccurredAt string `json:"occurred_at,omitempty"`
}

// CreateProjectParams configures project creation.
type CreateProjectParams struct {
	Name    string `json:"name"`
	Private bool   `json:"private"`
}

// UpdateProjectParams carries a partial project update. Nil fields are left
// untouched by the remote service.
type UpdateProjectParams struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Genre       *string `json:"genre,omitempty"`
	Director    *string `json:"director,omitempty"`
	Producer    *string `json:"producer,omitempty"`
}

// CreateAssetParams configures asset creation under a parent folder.
type CreateAssetParams struct {
	Name string    `json:"name"`
	Type AssetType `json:"type"`
}

// UpdateAssetParams carries a partial asset update.
type UpdateAssetParams struct {
	Name        *string                `json:"name,omitempty"`
	Description *string                `json:"description,omitempty"`
	Status      *string                `json:"status,omitempty"`
	Tags        []string               `json:"tags,omitempty"`
	Properties  map[string]interface{} `json:"properties,omitempty"`
}
