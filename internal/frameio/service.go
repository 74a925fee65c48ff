package frameio

import (
	"context"
	"io"
)

// Service is the capability surface the gateway requires from the remote
// media service. *Client satisfies it; tests substitute stubs.
type Service interface {
	// Identity.
	Me(ctx context.Context) (User, error)

	// Projects.
	CreateProject(ctx context.Context, params CreateProjectParams) (Project, error)
	GetProject(ctx context.Context, projectID string) (Project, error)
	UpdateProject(ctx context.Context, projectID string, params UpdateProjectParams) (Project, error)
	ShareProject(ctx context.Context, projectID, email string, permission Permission) (Share, error)
	ProjectActivity(ctx context.Context, projectID string) (Activity, error)

	// Assets.
	CreateAsset(ctx context.Context, parentID string, params CreateAssetParams) (Asset, error)
	GetAsset(ctx context.Context, assetID string) (Asset, error)
	UpdateAsset(ctx context.Context, assetID string, params UpdateAssetParams) (Asset, error)
	MoveAsset(ctx context.Context, assetID, parentID string) (Asset, error)
	ReorderAssets(ctx context.Context, parentID string, assetIDs []string) ([]Asset, error)
	ListChildren(ctx context.Context, parentID string) ([]Asset, error)
	CopyAsset(ctx context.Context, assetID string) (Asset, error)
	UploadAsset(ctx context.Context, parentID, name string, content io.Reader) (Asset, error)
	ShareAsset(ctx context.Context, assetID, email string, permission Permission) (Share, error)
	CreateComment(ctx context.Context, assetID, text string) (Comment, error)

	// Export.
	CreateExportJob(ctx context.Context, assetID, format, quality string) (ExportJob, error)
	GetExportJob(ctx context.Context, jobID string) (ExportJob, error)
}

var _ Service = (*Client)(nil)
