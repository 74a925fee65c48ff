// Package remotestub provides an in-memory fake of the remote media service
// for handler and gateway tests. It keeps a real asset tree per project so
// flows that chain several remote calls (upload then move, copy then export)
// behave the way the hosted service does, and it supports per-operation
// failure injection for error-path tests.
package remotestub

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	"reelgate/internal/frameio"
)

type Service struct {
	mu       sync.Mutex
	nextID   int
	user     frameio.User
	projects map[string]frameio.Project
	assets   map[string]*assetNode
	children map[string][]string
	comments map[string][]frameio.Comment
	shares   []frameio.Share
	exports  map[string]frameio.ExportJob
	activity map[string]frameio.Activity
	failures map[string]error
	calls    []string
}

type assetNode struct {
	asset frameio.Asset
	size  int64
}

func New() *Service {
	return &Service{
		user:     frameio.User{ID: "user-1", Email: "producer@example.com", Name: "Producer"},
		projects: make(map[string]frameio.Project),
		assets:   make(map[string]*assetNode),
		children: make(map[string][]string),
		comments: make(map[string][]frameio.Comment),
		exports:  make(map[string]frameio.ExportJob),
		activity: make(map[string]frameio.Activity),
		failures: make(map[string]error),
	}
}

var _ frameio.Service = (*Service)(nil)

// FailWith makes every subsequent call to the named operation return err.
func (s *Service) FailWith(op string, err error) {
	s.mu.Lock()
	s.failures[op] = err
	s.mu.Unlock()
}

// SetActivity fixes the activity record returned for a project.
func (s *Service) SetActivity(projectID string, activity frameio.Activity) {
	s.mu.Lock()
	s.activity[projectID] = activity
	s.mu.Unlock()
}

// Calls lists the operations invoked so far, in order.
func (s *Service) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.calls))
	copy(out, s.calls)
	return out
}

// Shares lists the share records created so far.
func (s *Service) Shares() []frameio.Share {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]frameio.Share, len(s.shares))
	copy(out, s.shares)
	return out
}

func (s *Service) begin(op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, op)
	return s.failures[op]
}

func (s *Service) id(prefix string) string {
	s.nextID++
	return fmt.Sprintf("%s-%d", prefix, s.nextID)
}

func notFound(kind, id string) error {
	return &frameio.RemoteError{Status: http.StatusNotFound, Message: fmt.Sprintf("%s %s not found", kind, id)}
}

func (s *Service) Me(ctx context.Context) (frameio.User, error) {
	if err := s.begin("Me"); err != nil {
		return frameio.User{}, err
	}
	return s.user, nil
}

func (s *Service) CreateProject(ctx context.Context, params frameio.CreateProjectParams) (frameio.Project, error) {
	if err := s.begin("CreateProject"); err != nil {
		return frameio.Project{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rootID := s.id("root")
	s.assets[rootID] = &assetNode{asset: frameio.Asset{ID: rootID, Name: "root", Type: frameio.AssetTypeFolder}}
	project := frameio.Project{
		ID:          s.id("project"),
		Name:        params.Name,
		RootAssetID: rootID,
		Private:     params.Private,
	}
	s.projects[project.ID] = project
	return project, nil
}

func (s *Service) GetProject(ctx context.Context, projectID string) (frameio.Project, error) {
	if err := s.begin("GetProject"); err != nil {
		return frameio.Project{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	project, ok := s.projects[projectID]
	if !ok {
		return frameio.Project{}, notFound("project", projectID)
	}
	return project, nil
}

func (s *Service) UpdateProject(ctx context.Context, projectID string, params frameio.UpdateProjectParams) (frameio.Project, error) {
	if err := s.begin("UpdateProject"); err != nil {
		return frameio.Project{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	project, ok := s.projects[projectID]
	if !ok {
		return frameio.Project{}, notFound("project", projectID)
	}
	if params.Name != nil {
		project.Name = *params.Name
	}
	if params.Description != nil {
		project.Description = *params.Description
	}
	if params.Genre != nil {
		project.Genre = *params.Genre
	}
	if params.Director != nil {
		project.Director = *params.Director
	}
	if params.Producer != nil {
		project.Producer = *params.Producer
	}
	s.projects[projectID] = project
	return project, nil
}

func (s *Service) ShareProject(ctx context.Context, projectID, email string, permission frameio.Permission) (frameio.Share, error) {
	if err := s.begin("ShareProject"); err != nil {
		return frameio.Share{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[projectID]; !ok {
		return frameio.Share{}, notFound("project", projectID)
	}
	share := frameio.Share{ID: s.id("share"), Email: email, Permission: permission}
	s.shares = append(s.shares, share)
	return share, nil
}

func (s *Service) ProjectActivity(ctx context.Context, projectID string) (frameio.Activity, error) {
	if err := s.begin("ProjectActivity"); err != nil {
		return frameio.Activity{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if activity, ok := s.activity[projectID]; ok {
		return activity, nil
	}
	return frameio.Activity{ProjectID: projectID, UpdateType: "comment"}, nil
}

func (s *Service) CreateAsset(ctx context.Context, parentID string, params frameio.CreateAssetParams) (frameio.Asset, error) {
	if err := s.begin("CreateAsset"); err != nil {
		return frameio.Asset{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.assets[parentID]; !ok {
		return frameio.Asset{}, notFound("asset", parentID)
	}
	asset := frameio.Asset{
		ID:       s.id("asset"),
		Name:     params.Name,
		Type:     params.Type,
		ParentID: parentID,
	}
	s.assets[asset.ID] = &assetNode{asset: asset}
	s.children[parentID] = append(s.children[parentID], asset.ID)
	return asset, nil
}

func (s *Service) GetAsset(ctx context.Context, assetID string) (frameio.Asset, error) {
	if err := s.begin("GetAsset"); err != nil {
		return frameio.Asset{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	node, ok := s.assets[assetID]
	if !ok {
		return frameio.Asset{}, notFound("asset", assetID)
	}
	return node.asset, nil
}

func (s *Service) UpdateAsset(ctx context.Context, assetID string, params frameio.UpdateAssetParams) (frameio.Asset, error) {
	if err := s.begin("UpdateAsset"); err != nil {
		return frameio.Asset{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	node, ok := s.assets[assetID]
	if !ok {
		return frameio.Asset{}, notFound("asset", assetID)
	}
	if params.Name != nil {
		node.asset.Name = *params.Name
	}
	if params.Description != nil {
		node.asset.Description = *params.Description
	}
	if params.Status != nil {
		node.asset.Status = *params.Status
	}
	if params.Tags != nil {
		node.asset.Tags = append([]string(nil), params.Tags...)
	}
	if params.Properties != nil {
		if node.asset.Properties == nil {
			node.asset.Properties = make(map[string]interface{})
		}
		for key, value := range params.Properties {
			node.asset.Properties[key] = value
		}
	}
	return node.asset, nil
}

func (s *Service) MoveAsset(ctx context.Context, assetID, parentID string) (frameio.Asset, error) {
	if err := s.begin("MoveAsset"); err != nil {
		return frameio.Asset{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	node, ok := s.assets[assetID]
	if !ok {
		return frameio.Asset{}, notFound("asset", assetID)
	}
	if _, ok := s.assets[parentID]; !ok {
		return frameio.Asset{}, notFound("asset", parentID)
	}
	old := node.asset.ParentID
	if old != "" {
		siblings := s.children[old]
		for i, id := range siblings {
			if id == assetID {
				s.children[old] = append(siblings[:i], siblings[i+1:]...)
				break
			}
		}
	}
	node.asset.ParentID = parentID
	s.children[parentID] = append(s.children[parentID], assetID)
	return node.asset, nil
}

func (s *Service) ReorderAssets(ctx context.Context, parentID string, assetIDs []string) ([]frameio.Asset, error) {
	if err := s.begin("ReorderAssets"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.assets[parentID]; !ok {
		return nil, notFound("asset", parentID)
	}
	s.children[parentID] = append([]string(nil), assetIDs...)
	out := make([]frameio.Asset, 0, len(assetIDs))
	for _, id := range assetIDs {
		if node, ok := s.assets[id]; ok {
			out = append(out, node.asset)
		}
	}
	return out, nil
}

func (s *Service) ListChildren(ctx context.Context, parentID string) ([]frameio.Asset, error) {
	if err := s.begin("ListChildren"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.assets[parentID]; !ok {
		return nil, notFound("asset", parentID)
	}
	out := make([]frameio.Asset, 0, len(s.children[parentID]))
	for _, id := range s.children[parentID] {
		if node, ok := s.assets[id]; ok {
			out = append(out, node.asset)
		}
	}
	return out, nil
}

func (s *Service) CopyAsset(ctx context.Context, assetID string) (frameio.Asset, error) {
	if err := s.begin("CopyAsset"); err != nil {
		return frameio.Asset{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	node, ok := s.assets[assetID]
	if !ok {
		return frameio.Asset{}, notFound("asset", assetID)
	}
	duplicate := node.asset
	duplicate.ID = s.id("asset")
	duplicate.Name = duplicate.Name + " copy"
	s.assets[duplicate.ID] = &assetNode{asset: duplicate, size: node.size}
	if duplicate.ParentID != "" {
		s.children[duplicate.ParentID] = append(s.children[duplicate.ParentID], duplicate.ID)
	}
	return duplicate, nil
}

func (s *Service) UploadAsset(ctx context.Context, parentID, name string, content io.Reader) (frameio.Asset, error) {
	if err := s.begin("UploadAsset"); err != nil {
		return frameio.Asset{}, err
	}
	size, err := io.Copy(io.Discard, content)
	if err != nil {
		return frameio.Asset{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.assets[parentID]; !ok {
		return frameio.Asset{}, notFound("asset", parentID)
	}
	asset := frameio.Asset{
		ID:       s.id("asset"),
		Name:     name,
		Type:     frameio.AssetTypeFile,
		ParentID: parentID,
	}
	s.assets[asset.ID] = &assetNode{asset: asset, size: size}
	s.children[parentID] = append(s.children[parentID], asset.ID)
	return asset, nil
}

func (s *Service) ShareAsset(ctx context.Context, assetID, email string, permission frameio.Permission) (frameio.Share, error) {
	if err := s.begin("ShareAsset"); err != nil {
		return frameio.Share{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.assets[assetID]; !ok {
		return frameio.Share{}, notFound("asset", assetID)
	}
	share := frameio.Share{ID: s.id("share"), Email: email, Permission: permission}
	s.shares = append(s.shares, share)
	return share, nil
}

func (s *Service) CreateComment(ctx context.Context, assetID, text string) (frameio.Comment, error) {
	if err := s.begin("CreateComment"); err != nil {
		return frameio.Comment{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.assets[assetID]; !ok {
		return frameio.Comment{}, notFound("asset", assetID)
	}
	comment := frameio.Comment{ID: s.id("comment"), AssetID: assetID, Text: text, UserID: s.user.ID}
	s.comments[assetID] = append(s.comments[assetID], comment)
	return comment, nil
}

func (s *Service) CreateExportJob(ctx context.Context, assetID, format, quality string) (frameio.ExportJob, error) {
	if err := s.begin("CreateExportJob"); err != nil {
		return frameio.ExportJob{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.assets[assetID]; !ok {
		return frameio.ExportJob{}, notFound("asset", assetID)
	}
	job := frameio.ExportJob{
		ID:      s.id("export"),
		AssetID: assetID,
		Format:  format,
		Quality: quality,
		Status:  "processing",
	}
	s.exports[job.ID] = job
	return job, nil
}

func (s *Service) GetExportJob(ctx context.Context, jobID string) (frameio.ExportJob, error) {
	if err := s.begin("GetExportJob"); err != nil {
		return frameio.ExportJob{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.exports[jobID]
	if !ok {
		return frameio.ExportJob{}, notFound("export job", jobID)
	}
	return job, nil
}
