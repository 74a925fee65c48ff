package frameio

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// Well-known organisational folders created under a project root on demand.
const (
	FolderScripts   = "Scripts"
	FolderMedia     = "Media"
	FolderSequences = "Sequences"
)

// EnsureFolder returns the folder with the given name directly under the
// project root, creating it when absent. Existing folders are matched
// case-insensitively so remotes that canonicalise names do not produce
// duplicates.
func EnsureFolder(ctx context.Context, svc Service, projectID, name string) (Asset, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return Asset{}, fmt.Errorf("folder name is required")
	}
	project, err := svc.GetProject(ctx, projectID)
	if err != nil {
		return Asset{}, err
	}
	children, err := svc.ListChildren(ctx, project.RootAssetID)
	if err != nil {
		return Asset{}, err
	}
	caser := cases.Fold()
	want := caser.String(trimmed)
	for _, child := range children {
		if child.Type == AssetTypeFolder && caser.String(child.Name) == want {
			return child, nil
		}
	}
	return svc.CreateAsset(ctx, project.RootAssetID, CreateAssetParams{Name: trimmed, Type: AssetTypeFolder})
}
