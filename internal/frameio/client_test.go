package frameio_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"reelgate/internal/frameio"
)

type capturedRequest struct {
	Method string
	Path   string
	Auth   string
	Accept string
	Body   []byte
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*frameio.Client, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.Method = r.Method
		captured.Path = r.URL.EscapedPath()
		captured.Auth = r.Header.Get("Authorization")
		captured.Accept = r.Header.Get("Accept")
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read request body: %v", err)
		}
		captured.Body = body
		r.Body = io.NopCloser(bytes.NewReader(body))
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	client, err := frameio.NewClient(frameio.Config{BaseURL: server.URL, Token: "test-token"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client, captured
}

func respondJSON(t *testing.T, w http.ResponseWriter, status int, payload any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		t.Errorf("encode response: %v", err)
	}
}

func TestNewClientValidation(t *testing.T) {
	if _, err := frameio.NewClient(frameio.Config{}); err == nil {
		t.Fatal("expected error for missing token")
	}
	if _, err := frameio.NewClient(frameio.Config{Token: "t", BaseURL: "not a url"}); err == nil {
		t.Fatal("expected error for malformed base URL")
	}
	if _, err := frameio.NewClient(frameio.Config{Token: "t", BaseURL: "/relative/only"}); err == nil {
		t.Fatal("expected error for base URL without host")
	}
	if _, err := frameio.NewClient(frameio.Config{Token: "t"}); err != nil {
		t.Fatalf("expected hosted default to be accepted, got %v", err)
	}
}

func TestMeSendsBearerToken(t *testing.T) {
	client, captured := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		respondJSON(t, w, http.StatusOK, frameio.User{ID: "u1", Email: "me@example.com"})
	})
	user, err := client.Me(context.Background())
	if err != nil {
		t.Fatalf("Me: %v", err)
	}
	if user.Email != "me@example.com" {
		t.Fatalf("unexpected user %+v", user)
	}
	if captured.Method != http.MethodGet || captured.Path != "/v2/me" {
		t.Fatalf("unexpected request %s %s", captured.Method, captured.Path)
	}
	if captured.Auth != "Bearer test-token" {
		t.Fatalf("unexpected authorization header %q", captured.Auth)
	}
	if captured.Accept != "application/json" {
		t.Fatalf("unexpected accept header %q", captured.Accept)
	}
}

func TestCreateProjectPostsParams(t *testing.T) {
	client, captured := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		respondJSON(t, w, http.StatusCreated, frameio.Project{ID: "p1", Name: "Feature"})
	})
	project, err := client.CreateProject(context.Background(), frameio.CreateProjectParams{Name: "Feature", Private: true})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if project.ID != "p1" {
		t.Fatalf("unexpected project %+v", project)
	}
	if captured.Method != http.MethodPost || captured.Path != "/v2/projects" {
		t.Fatalf("unexpected request %s %s", captured.Method, captured.Path)
	}
	var sent map[string]any
	if err := json.Unmarshal(captured.Body, &sent); err != nil {
		t.Fatalf("decode sent body: %v", err)
	}
	if sent["name"] != "Feature" || sent["private"] != true {
		t.Fatalf("unexpected body %v", sent)
	}
}

func TestAssetPathsAreEscaped(t *testing.T) {
	client, captured := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		respondJSON(t, w, http.StatusOK, frameio.Asset{ID: "a/b"})
	})
	if _, err := client.GetAsset(context.Background(), "a/b"); err != nil {
		t.Fatalf("GetAsset: %v", err)
	}
	if captured.Path != "/v2/assets/a%2Fb" {
		t.Fatalf("unexpected path %q", captured.Path)
	}
}

func TestMoveAssetBody(t *testing.T) {
	client, captured := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		respondJSON(t, w, http.StatusOK, frameio.Asset{ID: "a1", ParentID: "f1"})
	})
	asset, err := client.MoveAsset(context.Background(), "a1", "f1")
	if err != nil {
		t.Fatalf("MoveAsset: %v", err)
	}
	if asset.ParentID != "f1" {
		t.Fatalf("unexpected asset %+v", asset)
	}
	if captured.Path != "/v2/assets/a1/move" {
		t.Fatalf("unexpected path %q", captured.Path)
	}
	var sent map[string]string
	if err := json.Unmarshal(captured.Body, &sent); err != nil {
		t.Fatalf("decode sent body: %v", err)
	}
	if sent["parent_id"] != "f1" {
		t.Fatalf("unexpected body %v", sent)
	}
}

func TestErrorEnvelopeDecoding(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"message field", http.StatusNotFound, `{"message":"asset not found"}`, "asset not found"},
		{"error field", http.StatusUnprocessableEntity, `{"error":"name taken"}`, "name taken"},
		{"raw body", http.StatusBadGateway, `upstream exploded`, "upstream exploded"},
		{"empty body", http.StatusServiceUnavailable, ``, http.StatusText(http.StatusServiceUnavailable)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})
			_, err := client.GetAsset(context.Background(), "a1")
			var remoteErr *frameio.RemoteError
			if !errors.As(err, &remoteErr) {
				t.Fatalf("expected RemoteError, got %v", err)
			}
			if remoteErr.Status != tc.status || remoteErr.Message != tc.message {
				t.Fatalf("unexpected error %+v", remoteErr)
			}
		})
	}
}

func TestNetworkFailureIsNotRemoteError(t *testing.T) {
	client, err := frameio.NewClient(frameio.Config{BaseURL: "http://127.0.0.1:1", Token: "t"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	_, err = client.Me(context.Background())
	if err == nil {
		t.Fatal("expected connection failure")
	}
	var remoteErr *frameio.RemoteError
	if errors.As(err, &remoteErr) {
		t.Fatalf("network failure should not decode as RemoteError: %v", err)
	}
}

func TestUploadAssetSendsMultipart(t *testing.T) {
	var gotName, gotContent string
	client, captured := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm: %v", err)
			respondJSON(t, w, http.StatusBadRequest, map[string]string{"message": "bad form"})
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile: %v", err)
			respondJSON(t, w, http.StatusBadRequest, map[string]string{"message": "missing file"})
			return
		}
		defer file.Close()
		gotName = header.Filename
		if content, err := io.ReadAll(file); err == nil {
			gotContent = string(content)
		}
		respondJSON(t, w, http.StatusOK, frameio.Asset{ID: "a1", Name: header.Filename, Type: frameio.AssetTypeFile})
	})

	asset, err := client.UploadAsset(context.Background(), "folder-1", "scene.mp4", strings.NewReader("frame data"))
	if err != nil {
		t.Fatalf("UploadAsset: %v", err)
	}
	if asset.Name != "scene.mp4" {
		t.Fatalf("unexpected asset %+v", asset)
	}
	if captured.Path != "/v2/assets/folder-1/upload" {
		t.Fatalf("unexpected path %q", captured.Path)
	}
	if gotName != "scene.mp4" || gotContent != "frame data" {
		t.Fatalf("unexpected upload %q %q", gotName, gotContent)
	}
}

func TestListChildrenDecodesSlice(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		respondJSON(t, w, http.StatusOK, []frameio.Asset{{ID: "a1"}, {ID: "a2"}})
	})
	assets, err := client.ListChildren(context.Background(), "folder-1")
	if err != nil {
		t.Fatalf("ListChildren: %v", err)
	}
	if len(assets) != 2 || assets[0].ID != "a1" {
		t.Fatalf("unexpected assets %+v", assets)
	}
}
