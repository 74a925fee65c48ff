package frameio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"reelgate/internal/observability/metrics"
)

const defaultTimeout = 10 * time.Second

// DefaultBaseURL points at the hosted remote media service API.
const DefaultBaseURL = "https://api.frame.io"

// RemoteError is the uniform failure the remote service reports for any call:
// network-level faults are wrapped separately, but every 4xx/5xx response
// decodes into one of these.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote service returned status %d", e.Status)
	}
	return e.Message
}

type errorEnvelope struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Config configures the remote media service client.
type Config struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	Logger     *slog.Logger
	HTTPClient *http.Client
}

// Client is the HTTP client for the remote media service. It holds only the
// base configuration and a fixed credential; every call is an independent
// stateless request, so a single Client is safe for concurrent use.
type Client struct {
	baseURL    *url.URL
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient validates the configuration and returns a ready client. The token
// is required; the base URL defaults to the hosted service.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, fmt.Errorf("remote media service token is required")
	}
	rawURL := strings.TrimSpace(cfg.BaseURL)
	if rawURL == "" {
		rawURL = DefaultBaseURL
	}
	baseURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL %q: %w", rawURL, err)
	}
	if baseURL.Scheme == "" || baseURL.Host == "" {
		return nil, fmt.Errorf("base URL %q must include scheme and host", rawURL)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    baseURL,
		token:      cfg.Token,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Me fetches the authenticated caller's profile. It doubles as the
// connectivity check for the gateway.
func (c *Client) Me(ctx context.Context) (User, error) {
	var user User
	err := c.do(ctx, http.MethodGet, "/v2/me", nil, &user)
	c.observe("me", err)
	return user, err
}

// CreateProject creates a new project owned by the credential's account.
func (c *Client) CreateProject(ctx context.Context, params CreateProjectParams) (Project, error) {
	var project Project
	err := c.do(ctx, http.MethodPost, "/v2/projects", params, &project)
	c.observe("create_project", err)
	return project, err
}

// GetProject fetches a project by ID.
func (c *Client) GetProject(ctx context.Context, projectID string) (Project, error) {
	var project Project
	err := c.do(ctx, http.MethodGet, "/v2/projects/"+url.PathEscape(projectID), nil, &project)
	c.observe("get_project", err)
	return project, err
}

// UpdateProject applies a partial update to a project.
func (c *Client) UpdateProject(ctx context.Context, projectID string, params UpdateProjectParams) (Project, error) {
	var project Project
	err := c.do(ctx, http.MethodPatch, "/v2/projects/"+url.PathEscape(projectID), params, &project)
	c.observe("update_project", err)
	return project, err
}

// ShareProject grants the email address the given permission on a project.
func (c *Client) ShareProject(ctx context.Context, projectID, email string, permission Permission) (Share, error) {
	var share Share
	body := map[string]string{"email": email, "permission": string(permission)}
	err := c.do(ctx, http.MethodPost, "/v2/projects/"+url.PathEscape(projectID)+"/shares", body, &share)
	c.observe("share_project", err)
	return share, err
}

// ProjectActivity fetches the latest update recorded on a project. The live
// channel forwards the result to subscribed clients.
func (c *Client) ProjectActivity(ctx context.Context, projectID string) (Activity, error) {
	var activity Activity
	err := c.do(ctx, http.MethodGet, "/v2/projects/"+url.PathEscape(projectID)+"/activity", nil, &activity)
	c.observe("project_activity", err)
	return activity, err
}

// CreateAsset creates a file or folder asset under the parent folder.
func (c *Client) CreateAsset(ctx context.Context, parentID string, params CreateAssetParams) (Asset, error) {
	var asset Asset
	err := c.do(ctx, http.MethodPost, "/v2/assets/"+url.PathEscape(parentID)+"/children", params, &asset)
	c.observe("create_asset", err)
	return asset, err
}

// GetAsset fetches an asset by ID.
func (c *Client) GetAsset(ctx context.Context, assetID string) (Asset, error) {
	var asset Asset
	err := c.do(ctx, http.MethodGet, "/v2/assets/"+url.PathEscape(assetID), nil, &asset)
	c.observe("get_asset", err)
	return asset, err
}

// UpdateAsset applies a partial update to an asset.
func (c *Client) UpdateAsset(ctx context.Context, assetID string, params UpdateAssetParams) (Asset, error) {
	var asset Asset
	err := c.do(ctx, http.MethodPatch, "/v2/assets/"+url.PathEscape(assetID), params, &asset)
	c.observe("update_asset", err)
	return asset, err
}

// MoveAsset reparents an asset under a different folder.
func (c *Client) MoveAsset(ctx context.Context, assetID, parentID string) (Asset, error) {
	var asset Asset
	body := map[string]string{"parent_id": parentID}
	err := c.do(ctx, http.MethodPost, "/v2/assets/"+url.PathEscape(assetID)+"/move", body, &asset)
	c.observe("move_asset", err)
	return asset, err
}

// ReorderAssets rewrites the ordering of a folder's children.
func (c *Client) ReorderAssets(ctx context.Context, parentID string, assetIDs []string) ([]Asset, error) {
	var assets []Asset
	body := map[string][]string{"asset_ids": assetIDs}
	err := c.do(ctx, http.MethodPost, "/v2/assets/"+url.PathEscape(parentID)+"/reorder", body, &assets)
	c.observe("reorder_assets", err)
	return assets, err
}

// ListChildren lists the direct children of a folder asset.
func (c *Client) ListChildren(ctx context.Context, parentID string) ([]Asset, error) {
	var assets []Asset
	err := c.do(ctx, http.MethodGet, "/v2/assets/"+url.PathEscape(parentID)+"/children", nil, &assets)
	c.observe("list_children", err)
	return assets, err
}

// CopyAsset duplicates an asset (recursively for folders) and returns the
// copy.
func (c *Client) CopyAsset(ctx context.Context, assetID string) (Asset, error) {
	var asset Asset
	err := c.do(ctx, http.MethodPost, "/v2/assets/"+url.PathEscape(assetID)+"/copy", nil, &asset)
	c.observe("copy_asset", err)
	return asset, err
}

// ShareAsset grants the email address the given permission on a single asset.
func (c *Client) ShareAsset(ctx context.Context, assetID, email string, permission Permission) (Share, error) {
	var share Share
	body := map[string]string{"email": email, "permission": string(permission)}
	err := c.do(ctx, http.MethodPost, "/v2/assets/"+url.PathEscape(assetID)+"/shares", body, &share)
	c.observe("share_asset", err)
	return share, err
}

// CreateComment attaches a review comment to an asset.
func (c *Client) CreateComment(ctx context.Context, assetID, text string) (Comment, error) {
	var comment Comment
	body := map[string]string{"text": text}
	err := c.do(ctx, http.MethodPost, "/v2/assets/"+url.PathEscape(assetID)+"/comments", body, &comment)
	c.observe("create_comment", err)
	return comment, err
}

// CreateExportJob requests an export of an asset in the given format and
// quality. The job runs remotely; only its handle is returned.
func (c *Client) CreateExportJob(ctx context.Context, assetID, format, quality string) (ExportJob, error) {
	var job ExportJob
	body := map[string]string{"format": format, "quality": quality}
	err := c.do(ctx, http.MethodPost, "/v2/assets/"+url.PathEscape(assetID)+"/exports", body, &job)
	c.observe("create_export_job", err)
	return job, err
}

// GetExportJob fetches the state of a previously requested export job.
func (c *Client) GetExportJob(ctx context.Context, jobID string) (ExportJob, error) {
	var job ExportJob
	err := c.do(ctx, http.MethodGet, "/v2/exports/"+url.PathEscape(jobID), nil, &job)
	c.observe("get_export_job", err)
	return job, err
}

// UploadAsset streams file content into a new asset under the parent folder.
func (c *Client) UploadAsset(ctx context.Context, parentID, name string, content io.Reader) (Asset, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", name)
	if err != nil {
		c.observe("upload_asset", err)
		return Asset{}, fmt.Errorf("build upload form: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		c.observe("upload_asset", err)
		return Asset{}, fmt.Errorf("read upload content: %w", err)
	}
	if err := writer.Close(); err != nil {
		c.observe("upload_asset", err)
		return Asset{}, fmt.Errorf("finalise upload form: %w", err)
	}

	endpoint := c.endpoint("/v2/assets/" + url.PathEscape(parentID) + "/upload")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		c.observe("upload_asset", err)
		return Asset{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var asset Asset
	err = c.send(req, &asset)
	c.observe("upload_asset", err)
	return asset, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func (c *Client) endpoint(path string) string {
	return strings.TrimRight(c.baseURL.String(), "/") + path
}

func (c *Client) send(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("remote service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode remote response: %w", err)
	}
	return nil
}

func (c *Client) decodeError(resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return &RemoteError{Status: resp.StatusCode}
	}
	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil {
		if message := strings.TrimSpace(envelope.Message); message != "" {
			return &RemoteError{Status: resp.StatusCode, Message: message}
		}
		if message := strings.TrimSpace(envelope.Error); message != "" {
			return &RemoteError{Status: resp.StatusCode, Message: message}
		}
	}
	if message := strings.TrimSpace(string(body)); message != "" {
		return &RemoteError{Status: resp.StatusCode, Message: message}
	}
	return &RemoteError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
}

func (c *Client) observe(operation string, err error) {
	metrics.Default().ObserveRemoteCall(operation, err)
	if err != nil {
		c.logger.Warn("remote media service call failed", "operation", operation, "error", err)
	}
}
