package deploy

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"log/slog"

	"github.com/harshal-b-98/NextGenWeb-sub006/internal/domain"
	"github.com/harshal-b-98/NextGenWeb-sub006/internal/provider"
	"github.com/harshal-b-98/NextGenWeb-sub006/internal/repository"
)

func TestCreateRejectsUnknownProvider(t *testing.T) {
	o := newTestOrchestrator(t, &fakeDeploymentStore{}, &fakeProvider{})

	_, err := o.Create(context.Background(), testWebsite(), testFiles(), "missing", "production")
	if !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("expected ErrUnknownProvider, got %v", err)
	}
}

func TestCreateRejectsEmptyFileSet(t *testing.T) {
	o := newTestOrchestrator(t, &fakeDeploymentStore{}, &fakeProvider{})

	_, err := o.Create(context.Background(), testWebsite(), nil, "fake", "production")
	if err == nil {
		t.Fatal("expected error for empty file set")
	}
}

func TestDeploymentRunsToReady(t *testing.T) {
	store := &fakeDeploymentStore{}
	prov := &fakeProvider{
		deployResult: &provider.Deployment{ID: "prov-dep-1", Status: domain.DeployBuilding},
		statuses: []provider.StatusResult{
			{Status: domain.DeployBuilding},
			{Status: domain.DeployReady, URL: "https://site.example"},
		},
	}
	o := newTestOrchestrator(t, store, prov)

	created, err := o.Create(context.Background(), testWebsite(), testFiles(), "fake", "production")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if created.Status != domain.DeployPending {
		t.Fatalf("freshly created deployment must be pending, got %s", created.Status)
	}

	final := waitForTerminal(t, store, created.ID)
	if final.Status != domain.DeployReady {
		t.Fatalf("expected ready, got %s (error=%q)", final.Status, final.Error)
	}
	if final.URL != "https://site.example" {
		t.Fatalf("expected deployment URL recorded, got %q", final.URL)
	}
	if final.CompletedAt == nil {
		t.Fatal("terminal deployment must have CompletedAt set")
	}
	if prov.createProjectCalls != 1 {
		t.Fatalf("expected project created once, got %d", prov.createProjectCalls)
	}
	if final.ProviderProjectID == "" || final.ProviderDeploymentID != "prov-dep-1" {
		t.Fatalf("provider identifiers not persisted: %+v", final)
	}
}

func TestProviderFailureIsRecordedNotPropagated(t *testing.T) {
	store := &fakeDeploymentStore{}
	prov := &fakeProvider{deployErr: errors.New("upload rejected")}
	o := newTestOrchestrator(t, store, prov)

	if _, err := o.Create(context.Background(), testWebsite(), testFiles(), "fake", "production"); err != nil {
		t.Fatalf("Create must not surface provider errors, got %v", err)
	}

	created := store.onlyDeployment(t)
	final := waitForTerminal(t, store, created.ID)
	if final.Status != domain.DeployError {
		t.Fatalf("expected error status, got %s", final.Status)
	}
	if final.Error == "" {
		t.Fatal("expected provider error message on the row")
	}
	if final.CompletedAt == nil {
		t.Fatal("failed deployment must have CompletedAt set")
	}
}

func TestCancelOfTerminalDeploymentFails(t *testing.T) {
	now := time.Now().UTC()
	store := &fakeDeploymentStore{}
	store.seed(&domain.Deployment{
		ID:          "dep-1",
		WebsiteID:   "site-1",
		Provider:    "fake",
		Status:      domain.DeployReady,
		CompletedAt: &now,
	})
	o := newTestOrchestrator(t, store, &fakeProvider{})

	_, err := o.Cancel(context.Background(), "dep-1")
	if !errors.Is(err, ErrAlreadyTerminal) {
		t.Fatalf("expected ErrAlreadyTerminal, got %v", err)
	}
}

func TestCancelStopsInFlightDeployment(t *testing.T) {
	store := &fakeDeploymentStore{}
	store.seed(&domain.Deployment{
		ID:                   "dep-1",
		WebsiteID:            "site-1",
		Provider:             "fake",
		Status:               domain.DeployDeploying,
		ProviderDeploymentID: "prov-dep-1",
	})
	prov := &fakeProvider{}
	o := newTestOrchestrator(t, store, prov)

	canceled, err := o.Cancel(context.Background(), "dep-1")
	if err != nil {
		t.Fatalf("Cancel returned error: %v", err)
	}
	if canceled.Status != domain.DeployCanceled {
		t.Fatalf("expected canceled status, got %s", canceled.Status)
	}
	if canceled.CompletedAt == nil {
		t.Fatal("canceled deployment must have CompletedAt set")
	}
	if prov.cancelCalls != 1 {
		t.Fatalf("expected provider cancel call, got %d", prov.cancelCalls)
	}
}

func TestStaleTickCannotResurrectTerminalDeployment(t *testing.T) {
	now := time.Now().UTC()
	store := &fakeDeploymentStore{}
	store.seed(&domain.Deployment{
		ID:          "dep-1",
		WebsiteID:   "site-1",
		Provider:    "fake",
		Status:      domain.DeployCanceled,
		CompletedAt: &now,
	})
	prov := &fakeProvider{
		statuses: []provider.StatusResult{{Status: domain.DeployBuilding}},
	}
	o := newTestOrchestrator(t, store, prov)

	done, err := o.pollOnce(context.Background(), "dep-1", "site-1", "prov-dep-1", prov)
	if err != nil {
		t.Fatalf("pollOnce returned error: %v", err)
	}
	if !done {
		t.Fatal("tick against a terminal row must stop the loop")
	}
	if prov.statusCalls != 0 {
		t.Fatalf("provider must not be queried for a terminal row, got %d calls", prov.statusCalls)
	}
	if current, _ := store.GetDeploymentByID(context.Background(), "dep-1"); current.Status != domain.DeployCanceled {
		t.Fatalf("terminal status regressed to %s", current.Status)
	}
}

func TestUpdateAfterTerminalReturnsTerminalState(t *testing.T) {
	now := time.Now().UTC()
	store := &fakeDeploymentStore{}
	store.seed(&domain.Deployment{ID: "dep-1", Status: domain.DeployError, CompletedAt: &now})

	err := store.UpdateDeploymentStatus(context.Background(), domain.DeploymentStatusUpdate{
		DeploymentID: "dep-1",
		Status:       domain.DeployReady,
	})
	if !errors.Is(err, repository.ErrTerminalState) {
		t.Fatalf("expected ErrTerminalState, got %v", err)
	}
}

func newTestOrchestrator(t *testing.T, store *fakeDeploymentStore, prov *fakeProvider) *Orchestrator {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
	o := New(store, provider.Registry{"fake": prov}, nil, logger, Config{
		PollInterval:    5 * time.Millisecond,
		PollMaxAttempts: 20,
	})
	t.Cleanup(o.Close)
	return o
}

func testWebsite() *domain.Website {
	return &domain.Website{ID: "site-1", Slug: "acme", Name: "Acme"}
}

func testFiles() []domain.ExportedFile {
	return []domain.ExportedFile{{Path: "package.json", Content: "{}"}}
}

func waitForTerminal(t *testing.T, store *fakeDeploymentStore, deploymentID string) *domain.Deployment {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		deployment, err := store.GetDeploymentByID(context.Background(), deploymentID)
		if err != nil {
			t.Fatalf("get deployment: %v", err)
		}
		if deployment.Status.Terminal() {
			return deployment
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("deployment never reached a terminal state")
	return nil
}

// fakeDeploymentStore is an in-memory DeploymentRepository with the same
// terminal-state guard the real one enforces.
type fakeDeploymentStore struct {
	mu   sync.Mutex
	rows map[string]*domain.Deployment
}

func (f *fakeDeploymentStore) seed(deployment *domain.Deployment) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rows == nil {
		f.rows = make(map[string]*domain.Deployment)
	}
	f.rows[deployment.ID] = deployment
}

func (f *fakeDeploymentStore) onlyDeployment(t *testing.T) *domain.Deployment {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.rows) != 1 {
		t.Fatalf("expected exactly one deployment, got %d", len(f.rows))
	}
	for _, deployment := range f.rows {
		copied := *deployment
		return &copied
	}
	return nil
}

func (f *fakeDeploymentStore) CreateDeployment(_ context.Context, deployment *domain.Deployment) error {
	f.seed(deployment)
	return nil
}

func (f *fakeDeploymentStore) UpdateDeploymentStatus(_ context.Context, update domain.DeploymentStatusUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[update.DeploymentID]
	if !ok {
		return repository.ErrNotFound
	}
	if row.Status.Terminal() {
		return repository.ErrTerminalState
	}
	row.Status = update.Status
	if update.URL != "" {
		row.URL = update.URL
	}
	if update.InspectorURL != "" {
		row.InspectorURL = update.InspectorURL
	}
	if update.ProviderDeploymentID != "" {
		row.ProviderDeploymentID = update.ProviderDeploymentID
	}
	if update.ProviderProjectID != "" {
		row.ProviderProjectID = update.ProviderProjectID
	}
	if update.Error != "" {
		row.Error = update.Error
	}
	if update.CompletedAt != nil {
		row.CompletedAt = update.CompletedAt
	}
	row.UpdatedAt = time.Now().UTC()
	return nil
}

func (f *fakeDeploymentStore) GetDeploymentByID(_ context.Context, deploymentID string) (*domain.Deployment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[deploymentID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *row
	return &copied, nil
}

func (f *fakeDeploymentStore) ListDeploymentsByWebsite(context.Context, string, int) ([]domain.Deployment, error) {
	return nil, nil
}

func (f *fakeDeploymentStore) ListDeploymentsInFlight(context.Context, time.Time) ([]domain.Deployment, error) {
	return nil, nil
}

// fakeProvider replays scripted poll statuses.
type fakeProvider struct {
	mu                 sync.Mutex
	deployResult       *provider.Deployment
	deployErr          error
	statuses           []provider.StatusResult
	statusCalls        int
	createProjectCalls int
	cancelCalls        int
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) CreateProject(_ context.Context, name, _ string) (*provider.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createProjectCalls++
	return &provider.Project{ID: "proj-1", Name: name}, nil
}

func (f *fakeProvider) GetProject(context.Context, string) (*provider.Project, error) {
	return nil, provider.ErrNotFound
}

func (f *fakeProvider) Deploy(context.Context, string, []domain.ExportedFile, provider.DeployOptions) (*provider.Deployment, error) {
	if f.deployErr != nil {
		return nil, f.deployErr
	}
	if f.deployResult == nil {
		return &provider.Deployment{ID: "prov-dep-1", Status: domain.DeployBuilding}, nil
	}
	return f.deployResult, nil
}

func (f *fakeProvider) GetDeploymentStatus(context.Context, string) (*provider.StatusResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := f.statusCalls
	f.statusCalls++
	if idx >= len(f.statuses) {
		idx = len(f.statuses) - 1
	}
	if idx < 0 {
		return &provider.StatusResult{Status: domain.DeployBuilding}, nil
	}
	status := f.statuses[idx]
	return &status, nil
}

func (f *fakeProvider) CancelDeployment(context.Context, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelCalls++
	return nil
}

func (f *fakeProvider) AddDomain(context.Context, string, string) error { return nil }

func (f *fakeProvider) VerifyDomain(context.Context, string, string) (bool, error) {
	return true, nil
}

func (f *fakeProvider) RemoveDomain(context.Context, string, string) error { return nil }

func (f *fakeProvider) ListDeployments(context.Context, string, provider.ListOptions) ([]provider.Deployment, error) {
	return nil, nil
}
