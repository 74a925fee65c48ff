package frameio_test

import (
	"context"
	"testing"

	"reelgate/internal/frameio"
	"reelgate/internal/testsupport/remotestub"
)

func TestEnsureFolderCreatesWhenAbsent(t *testing.T) {
	remote := remotestub.New()
	project, err := remote.CreateProject(context.Background(), frameio.CreateProjectParams{Name: "Feature"})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	folder, err := frameio.EnsureFolder(context.Background(), remote, project.ID, frameio.FolderMedia)
	if err != nil {
		t.Fatalf("EnsureFolder: %v", err)
	}
	if folder.Name != "Media" || folder.Type != frameio.AssetTypeFolder {
		t.Fatalf("unexpected folder %+v", folder)
	}

	children, err := remote.ListChildren(context.Background(), project.RootAssetID)
	if err != nil {
		t.Fatalf("ListChildren: %v", err)
	}
	if len(children) != 1 || children[0].ID != folder.ID {
		t.Fatalf("unexpected children %+v", children)
	}
}

func TestEnsureFolderReusesExistingCaseInsensitively(t *testing.T) {
	remote := remotestub.New()
	project, err := remote.CreateProject(context.Background(), frameio.CreateProjectParams{Name: "Feature"})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	existing, err := remote.CreateAsset(context.Background(), project.RootAssetID, frameio.CreateAssetParams{Name: "MEDIA", Type: frameio.AssetTypeFolder})
	if err != nil {
		t.Fatalf("CreateAsset: %v", err)
	}

	folder, err := frameio.EnsureFolder(context.Background(), remote, project.ID, "media")
	if err != nil {
		t.Fatalf("EnsureFolder: %v", err)
	}
	if folder.ID != existing.ID {
		t.Fatalf("expected reuse of %q, got %q", existing.ID, folder.ID)
	}

	children, err := remote.ListChildren(context.Background(), project.RootAssetID)
	if err != nil {
		t.Fatalf("ListChildren: %v", err)
	}
	if len(children) != 1 {
		t.Fatalf("expected no duplicate folder, got %+v", children)
	}
}

func TestEnsureFolderIgnoresMatchingFile(t *testing.T) {
	remote := remotestub.New()
	project, err := remote.CreateProject(context.Background(), frameio.CreateProjectParams{Name: "Feature"})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if _, err := remote.CreateAsset(context.Background(), project.RootAssetID, frameio.CreateAssetParams{Name: "Media", Type: frameio.AssetTypeFile}); err != nil {
		t.Fatalf("CreateAsset: %v", err)
	}

	folder, err := frameio.EnsureFolder(context.Background(), remote, project.ID, frameio.FolderMedia)
	if err != nil {
		t.Fatalf("EnsureFolder: %v", err)
	}
	if folder.Type != frameio.AssetTypeFolder {
		t.Fatalf("expected a fresh folder, got %+v", folder)
	}
}

func TestEnsureFolderRequiresName(t *testing.T) {
	if _, err := frameio.EnsureFolder(context.Background(), remotestub.New(), "project-1", "   "); err == nil {
		t.Fatal("expected error for blank name")
	}
}
