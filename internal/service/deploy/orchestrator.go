// Package deploy drives deployments through their state machine against a
// hosting provider, including the background poll loop.
package deploy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/harshal-b-98/NextGenWeb-sub006/internal/domain"
	"github.com/harshal-b-98/NextGenWeb-sub006/internal/provider"
	"github.com/harshal-b-98/NextGenWeb-sub006/internal/repository"
)

var (
	// ErrAlreadyTerminal is returned when cancel is requested for a
	// deployment that already reached a terminal state.
	ErrAlreadyTerminal = errors.New("deployment already in terminal state")
	// ErrUnknownProvider is returned when no provider is registered under
	// the requested name.
	ErrUnknownProvider = errors.New("unknown deployment provider")
	errMissingFiles    = errors.New("no files to deploy")
)

// Config tunes the orchestrator. The defaults bound the poll loop at five
// minutes, which covers the expected build+deploy duration.
type Config struct {
	PollInterval    time.Duration
	PollMaxAttempts int
	Framework       string
}

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = 5 * time.Second
	}
	if c.PollMaxAttempts <= 0 {
		c.PollMaxAttempts = 60
	}
	if c.Framework == "" {
		c.Framework = "nextjs"
	}
	return c
}

// Broadcaster pushes deployment events to live subscribers.
type Broadcaster interface {
	Broadcast(key string, payload []byte)
}

// Orchestrator creates deployments and advances them in background tasks.
// The triggering request only ever observes progress by re-reading the
// deployment row.
type Orchestrator struct {
	deployments repository.DeploymentRepository
	providers   provider.Registry
	hub         Broadcaster
	logger      *slog.Logger
	cfg         Config

	baseCtx context.Context
	stop    context.CancelFunc
	wg      sync.WaitGroup

	mu    sync.Mutex
	polls map[string]context.CancelFunc
}

// New returns an Orchestrator. Close must be called on shutdown to stop
// in-flight polls.
func New(deployments repository.DeploymentRepository, providers provider.Registry, hub Broadcaster, logger *slog.Logger, cfg Config) *Orchestrator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		deployments: deployments,
		providers:   providers,
		hub:         hub,
		logger:      logger,
		cfg:         cfg.withDefaults(),
		baseCtx:     ctx,
		stop:        cancel,
		polls:       make(map[string]context.CancelFunc),
	}
}

// Close cancels every in-flight poll and waits for background tasks.
func (o *Orchestrator) Close() {
	o.stop()
	o.wg.Wait()
}

// Create inserts a pending deployment and returns immediately. All provider
// interaction runs in a detached background task.
func (o *Orchestrator) Create(ctx context.Context, website *domain.Website, files []domain.ExportedFile, providerName, target string) (*domain.Deployment, error) {
	if website == nil {
		return nil, fmt.Errorf("website required")
	}
	if len(files) == 0 {
		return nil, errMissingFiles
	}
	prov, err := o.providers.Get(providerName)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, providerName)
	}
	if strings.TrimSpace(target) == "" {
		target = "production"
	}

	now := time.Now().UTC()
	deployment := &domain.Deployment{
		ID:        uuid.NewString(),
		WebsiteID: website.ID,
		Provider:  prov.Name(),
		Status:    domain.DeployPending,
		Target:    target,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := o.deployments.CreateDeployment(ctx, deployment); err != nil {
		return nil, fmt.Errorf("create deployment: %w", err)
	}
	o.logger.Info("deployment created", "deployment_id", deployment.ID, "website_id", website.ID, "provider", prov.Name(), "files", len(files))

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.run(deployment.ID, website, files, prov, target)
	}()
	return deployment, nil
}

// Get returns a deployment row.
func (o *Orchestrator) Get(ctx context.Context, deploymentID string) (*domain.Deployment, error) {
	return o.deployments.GetDeploymentByID(ctx, deploymentID)
}

// ListByWebsite returns recent deployments of a website.
func (o *Orchestrator) ListByWebsite(ctx context.Context, websiteID string, limit int) ([]domain.Deployment, error) {
	return o.deployments.ListDeploymentsByWebsite(ctx, websiteID, limit)
}

// Cancel stops a non-terminal deployment. The provider call is best-effort;
// the stored status flips to canceled regardless of its outcome, and the
// poll loop observes the terminal state on its next tick.
func (o *Orchestrator) Cancel(ctx context.Context, deploymentID string) (*domain.Deployment, error) {
	deployment, err := o.deployments.GetDeploymentByID(ctx, deploymentID)
	if err != nil {
		return nil, err
	}
	if deployment.Status.Terminal() {
		return nil, ErrAlreadyTerminal
	}

	if deployment.ProviderDeploymentID != "" {
		if prov, err := o.providers.Get(deployment.Provider); err == nil {
			if err := prov.CancelDeployment(ctx, deployment.ProviderDeploymentID); err != nil {
				o.logger.Warn("provider cancel failed", "deployment_id", deploymentID, "error", err)
			}
		}
	}

	now := time.Now().UTC()
	err = o.applyUpdate(ctx, domain.DeploymentStatusUpdate{
		DeploymentID: deploymentID,
		Status:       domain.DeployCanceled,
		CompletedAt:  &now,
	}, deployment.WebsiteID)
	if errors.Is(err, repository.ErrTerminalState) {
		// Raced with the poll loop reaching a terminal state first.
		return nil, ErrAlreadyTerminal
	}
	if err != nil {
		return nil, err
	}
	o.stopPoll(deploymentID)
	recordOutcome(domain.DeployCanceled)

	deployment.Status = domain.DeployCanceled
	deployment.CompletedAt = &now
	o.logger.Info("deployment canceled", "deployment_id", deploymentID)
	return deployment, nil
}

// Reconcile resumes deployments left in flight by a previous process. Rows
// with a provider deployment id get their poll loop back; rows without one
// died before the provider accepted the deploy and are marked failed.
func (o *Orchestrator) Reconcile(ctx context.Context) error {
	stale, err := o.deployments.ListDeploymentsInFlight(ctx, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("list in-flight deployments: %w", err)
	}
	for _, deployment := range stale {
		if deployment.ProviderDeploymentID == "" {
			o.fail(ctx, deployment.ID, deployment.WebsiteID, errors.New("interrupted before provider accepted the deploy"))
			continue
		}
		prov, err := o.providers.Get(deployment.Provider)
		if err != nil {
			o.fail(ctx, deployment.ID, deployment.WebsiteID, fmt.Errorf("provider %s no longer configured", deployment.Provider))
			continue
		}
		o.logger.Info("resuming deployment poll", "deployment_id", deployment.ID, "provider", deployment.Provider)
		o.wg.Add(1)
		go func(d domain.Deployment) {
			defer o.wg.Done()
			o.pollLoop(d.ID, d.WebsiteID, d.ProviderDeploymentID, prov)
		}(deployment)
	}
	if len(stale) > 0 {
		o.logger.Info("deployment reconciliation complete", "count", len(stale))
	}
	return nil
}

// run advances a fresh deployment: building, project resolution, deploying,
// then the poll loop. Provider failures are recorded on the row and never
// propagate out of the task.
func (o *Orchestrator) run(deploymentID string, website *domain.Website, files []domain.ExportedFile, prov provider.Provider, target string) {
	ctx := o.baseCtx

	if !o.advance(ctx, deploymentID, website.ID, domain.DeploymentStatusUpdate{
		DeploymentID: deploymentID,
		Status:       domain.DeployBuilding,
	}) {
		return
	}

	projectName := website.Slug
	project, err := prov.GetProject(ctx, projectName)
	if errors.Is(err, provider.ErrNotFound) {
		project, err = prov.CreateProject(ctx, projectName, o.cfg.Framework)
	}
	if err != nil {
		o.fail(ctx, deploymentID, website.ID, fmt.Errorf("resolve project: %w", err))
		return
	}

	if !o.advance(ctx, deploymentID, website.ID, domain.DeploymentStatusUpdate{
		DeploymentID:      deploymentID,
		Status:            domain.DeployDeploying,
		ProviderProjectID: project.ID,
	}) {
		return
	}

	result, err := prov.Deploy(ctx, projectName, files, provider.DeployOptions{
		Target: target,
		Meta: map[string]string{
			"website_id":    website.ID,
			"deployment_id": deploymentID,
		},
	})
	if err != nil {
		o.fail(ctx, deploymentID, website.ID, fmt.Errorf("deploy: %w", err))
		return
	}

	update := domain.DeploymentStatusUpdate{
		DeploymentID:         deploymentID,
		Status:               result.Status,
		URL:                  result.URL,
		InspectorURL:         result.InspectorURL,
		ProviderDeploymentID: result.ID,
	}
	if result.Status.Terminal() {
		now := time.Now().UTC()
		update.CompletedAt = &now
	}
	if !o.advance(ctx, deploymentID, website.ID, update) {
		return
	}
	if result.Status.Terminal() {
		recordOutcome(result.Status)
		o.logger.Info("deployment finished without polling", "deployment_id", deploymentID, "status", result.Status)
		return
	}

	o.pollLoop(deploymentID, website.ID, result.ID, prov)
}

// advance persists a status update and broadcasts it. It returns false when
// the row is already terminal, which aborts the background task.
func (o *Orchestrator) advance(ctx context.Context, deploymentID, websiteID string, update domain.DeploymentStatusUpdate) bool {
	err := o.applyUpdate(ctx, update, websiteID)
	if errors.Is(err, repository.ErrTerminalState) {
		o.logger.Info("deployment reached terminal state elsewhere, stopping", "deployment_id", deploymentID)
		return false
	}
	if err != nil {
		o.logger.Error("deployment status update failed", "deployment_id", deploymentID, "error", err)
		return false
	}
	return true
}

// fail records a provider error as a terminal error state.
func (o *Orchestrator) fail(ctx context.Context, deploymentID, websiteID string, cause error) {
	o.logger.Error("deployment failed", "deployment_id", deploymentID, "error", cause)
	now := time.Now().UTC()
	err := o.applyUpdate(ctx, domain.DeploymentStatusUpdate{
		DeploymentID: deploymentID,
		Status:       domain.DeployError,
		Error:        cause.Error(),
		CompletedAt:  &now,
	}, websiteID)
	if err != nil && !errors.Is(err, repository.ErrTerminalState) {
		o.logger.Error("failed to record deployment error", "deployment_id", deploymentID, "error", err)
		return
	}
	if err == nil {
		recordOutcome(domain.DeployError)
	}
}

func (o *Orchestrator) applyUpdate(ctx context.Context, update domain.DeploymentStatusUpdate, websiteID string) error {
	if err := o.deployments.UpdateDeploymentStatus(ctx, update); err != nil {
		return err
	}
	o.broadcast(websiteID, update)
	return nil
}

// deploymentEvent is the wire shape pushed to websocket subscribers.
type deploymentEvent struct {
	DeploymentID string                  `json:"deployment_id"`
	WebsiteID    string                  `json:"website_id"`
	Status       domain.DeploymentStatus `json:"status"`
	URL          string                  `json:"url,omitempty"`
	Error        string                  `json:"error,omitempty"`
	Timestamp    time.Time               `json:"timestamp"`
}

func (o *Orchestrator) broadcast(websiteID string, update domain.DeploymentStatusUpdate) {
	if o.hub == nil {
		return
	}
	payload, err := json.Marshal(deploymentEvent{
		DeploymentID: update.DeploymentID,
		WebsiteID:    websiteID,
		Status:       update.Status,
		URL:          update.URL,
		Error:        update.Error,
		Timestamp:    time.Now().UTC(),
	})
	if err != nil {
		return
	}
	o.hub.Broadcast(websiteID, payload)
}
