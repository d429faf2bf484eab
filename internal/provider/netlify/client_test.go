package netlify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"log/slog"

	"github.com/harshal-b-98/NextGenWeb-sub006/internal/domain"
	"github.com/harshal-b-98/NextGenWeb-sub006/internal/provider"
)

func TestMapState(t *testing.T) {
	cases := map[string]domain.DeploymentStatus{
		"new":        domain.DeployPending,
		"enqueued":   domain.DeployPending,
		"building":   domain.DeployBuilding,
		"preparing":  domain.DeployBuilding,
		"uploading":  domain.DeployDeploying,
		"processing": domain.DeployDeploying,
		"ready":      domain.DeployReady,
		"current":    domain.DeployReady,
		"error":      domain.DeployError,
		"failed":     domain.DeployError,
		"canceled":   domain.DeployCanceled,
		"deleted":    domain.DeployCanceled,
		"READY":      domain.DeployReady,
		"weird":      domain.DeployBuilding,
	}
	for state, want := range cases {
		if got := mapState(state); got != want {
			t.Errorf("mapState(%q) = %s, want %s", state, got, want)
		}
	}
}

func TestDeployUploadsOnlyRequiredDigests(t *testing.T) {
	var mu sync.Mutex
	var uploadedPaths []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/deploys"):
			var payload struct {
				Files map[string]string `json:"files"`
			}
			json.NewDecoder(r.Body).Decode(&payload)
			if len(payload.Files) != 2 {
				t.Errorf("expected 2 announced digests, got %d", len(payload.Files))
			}
			// Ask for exactly one file back.
			json.NewEncoder(w).Encode(map[string]any{
				"id":       "dep-1",
				"state":    "uploading",
				"required": []string{payload.Files["/package.json"]},
			})
		case r.Method == http.MethodPut:
			mu.Lock()
			uploadedPaths = append(uploadedPaths, r.URL.Path)
			mu.Unlock()
			w.WriteHeader(http.StatusOK)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	defer srv.Close()

	client := New("tok-1", discardLogger(), WithBaseURL(srv.URL))
	files := []domain.ExportedFile{
		{Path: "app", IsDir: true},
		{Path: "package.json", Content: "{}"},
		{Path: "index.html", Content: "<html></html>"},
	}
	deployment, err := client.Deploy(context.Background(), "site-1", files, provider.DeployOptions{Target: "production"})
	if err != nil {
		t.Fatalf("Deploy returned error: %v", err)
	}
	if deployment.ID != "dep-1" {
		t.Fatalf("unexpected deploy id %q", deployment.ID)
	}
	if deployment.Status != domain.DeployDeploying {
		t.Fatalf("expected deploying, got %s", deployment.Status)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(uploadedPaths) != 1 {
		t.Fatalf("expected exactly one upload, got %v", uploadedPaths)
	}
	if !strings.HasSuffix(uploadedPaths[0], "/package.json") {
		t.Fatalf("wrong file uploaded: %s", uploadedPaths[0])
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
