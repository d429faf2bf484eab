package vercel

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"log/slog"

	"github.com/harshal-b-98/NextGenWeb-sub006/internal/domain"
	"github.com/harshal-b-98/NextGenWeb-sub006/internal/provider"
)

func TestMapReadyState(t *testing.T) {
	cases := map[string]domain.DeploymentStatus{
		"QUEUED":       domain.DeployPending,
		"INITIALIZING": domain.DeployBuilding,
		"BUILDING":     domain.DeployBuilding,
		"UPLOADING":    domain.DeployDeploying,
		"DEPLOYING":    domain.DeployDeploying,
		"READY":        domain.DeployReady,
		"ERROR":        domain.DeployError,
		"CANCELED":     domain.DeployCanceled,
		"ready":        domain.DeployReady,
		" ready ":      domain.DeployReady,
		"SOMETHING":    domain.DeployBuilding,
	}
	for state, want := range cases {
		if got := mapReadyState(state); got != want {
			t.Errorf("mapReadyState(%q) = %s, want %s", state, got, want)
		}
	}
}

func TestDeploySendsInlineFilesAndSkipsDirectories(t *testing.T) {
	var captured struct {
		Name   string `json:"name"`
		Target string `json:"target"`
		Files  []struct {
			File string `json:"file"`
			Data string `json:"data"`
		} `json:"files"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v13/deployments" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("unexpected authorization header %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]string{
			"id":         "dpl_1",
			"url":        "acme.vercel.app",
			"readyState": "QUEUED",
		})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, "tok-1")
	files := []domain.ExportedFile{
		{Path: "app", IsDir: true},
		{Path: "app/page.tsx", Content: "export default function Page() {}"},
		{Path: "package.json", Content: "{}"},
	}
	deployment, err := client.Deploy(context.Background(), "acme", files, provider.DeployOptions{Target: "production"})
	if err != nil {
		t.Fatalf("Deploy returned error: %v", err)
	}

	if captured.Name != "acme" || captured.Target != "production" {
		t.Fatalf("unexpected payload: %+v", captured)
	}
	if len(captured.Files) != 2 {
		t.Fatalf("directories must not be uploaded, got %d files", len(captured.Files))
	}
	if deployment.ID != "dpl_1" {
		t.Fatalf("unexpected deployment id %q", deployment.ID)
	}
	if deployment.URL != "https://acme.vercel.app" {
		t.Fatalf("expected scheme added to bare host, got %q", deployment.URL)
	}
	if deployment.Status != domain.DeployPending {
		t.Fatalf("expected pending, got %s", deployment.Status)
	}
}

func TestGetProjectTranslates404(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, "tok-1")
	_, err := client.GetProject(context.Background(), "missing")
	if !errors.Is(err, provider.ErrNotFound) {
		t.Fatalf("expected provider.ErrNotFound, got %v", err)
	}
}

func TestTransientServerErrorIsRetried(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"readyState": "READY", "url": "acme.vercel.app"})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, "tok-1")
	status, err := client.GetDeploymentStatus(context.Background(), "dpl_1")
	if err != nil {
		t.Fatalf("GetDeploymentStatus returned error: %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected one retry after 502, got %d attempts", attempts)
	}
	if status.Status != domain.DeployReady {
		t.Fatalf("expected ready, got %s", status.Status)
	}
}

func TestDeployIsNotRetriedOnServerError(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, "tok-1")
	files := []domain.ExportedFile{{Path: "package.json", Content: "{}"}}
	_, err := client.Deploy(context.Background(), "acme", files, provider.DeployOptions{Target: "production"})
	if err == nil {
		t.Fatal("expected error for 502 response")
	}
	if attempts != 1 {
		t.Fatalf("deployment creation must never be replayed, got %d attempts", attempts)
	}
}

func TestClientErrorIsNotRetried(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"code": "bad_request", "message": "invalid deployment"},
		})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, "tok-1")
	_, err := client.GetDeploymentStatus(context.Background(), "dpl_1")
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
	if attempts != 1 {
		t.Fatalf("4xx responses must not be retried, got %d attempts", attempts)
	}
}

func TestTeamScopedRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("teamId"); got != "team_1" {
			t.Errorf("expected teamId query parameter, got %q", got)
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "prj_1", "name": "acme"})
	}))
	defer srv.Close()

	client := New("tok-1", discardLogger(), WithBaseURL(srv.URL), WithTeam("team_1"))
	if _, err := client.GetProject(context.Background(), "acme"); err != nil {
		t.Fatalf("GetProject returned error: %v", err)
	}
}

func newTestClient(baseURL, token string) *Client {
	return New(token, discardLogger(), WithBaseURL(baseURL))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
