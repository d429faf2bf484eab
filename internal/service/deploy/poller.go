package deploy

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/harshal-b-98/NextGenWeb-sub006/internal/domain"
	"github.com/harshal-b-98/NextGenWeb-sub006/internal/provider"
	"github.com/harshal-b-98/NextGenWeb-sub006/internal/repository"
)

// errStillRunning drives the retry loop while the provider reports a
// non-terminal status.
var errStillRunning = errors.New("deployment still running")

// pollLoop re-checks the provider at a fixed interval until the deployment
// reaches a terminal state or attempts run out. One cancellable context per
// deployment is tracked in the registry so Cancel and shutdown stop the
// loop instead of leaving an orphaned ticker.
//
// When attempts are exhausted the deployment is left in its last observed
// non-terminal status. Forcing it to error would misreport a provider that
// is merely slow; the exhaustion is logged and counted instead.
func (o *Orchestrator) pollLoop(deploymentID, websiteID, providerDeploymentID string, prov provider.Provider) {
	ctx, cancel := context.WithCancel(o.baseCtx)
	o.registerPoll(deploymentID, cancel)
	defer o.unregisterPoll(deploymentID)

	// First tick fires after one interval; the deploy call's own response
	// already covered time zero.
	select {
	case <-time.After(o.cfg.PollInterval):
	case <-ctx.Done():
		return
	}

	attempts := uint64(o.cfg.PollMaxAttempts)
	backoff := retry.WithMaxRetries(attempts-1, retry.NewConstant(o.cfg.PollInterval))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		done, err := o.pollOnce(ctx, deploymentID, websiteID, providerDeploymentID, prov)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		return retry.RetryableError(errStillRunning)
	})
	switch {
	case err == nil, errors.Is(err, context.Canceled):
	case errors.Is(err, errStillRunning):
		recordPollExhausted()
		o.logger.Warn("poll attempts exhausted, deployment left non-terminal",
			"deployment_id", deploymentID,
			"attempts", o.cfg.PollMaxAttempts)
	default:
		o.logger.Error("poll loop stopped", "deployment_id", deploymentID, "error", err)
	}
}

// pollOnce performs a single tick. It reports done=true when no further
// ticks are needed.
func (o *Orchestrator) pollOnce(ctx context.Context, deploymentID, websiteID, providerDeploymentID string, prov provider.Provider) (bool, error) {
	// Re-read persisted state first: a cancel or a concurrent writer may
	// have finished the deployment between ticks, and a stale tick must
	// not resurrect it.
	current, err := o.deployments.GetDeploymentByID(ctx, deploymentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return true, nil
		}
		return false, err
	}
	if current.Status.Terminal() {
		return true, nil
	}

	status, err := prov.GetDeploymentStatus(ctx, providerDeploymentID)
	if err != nil {
		o.fail(ctx, deploymentID, websiteID, err)
		return true, nil
	}

	update := domain.DeploymentStatusUpdate{
		DeploymentID: deploymentID,
		Status:       status.Status,
		URL:          status.URL,
		Error:        status.Error,
	}
	if status.Status.Terminal() {
		now := time.Now().UTC()
		update.CompletedAt = &now
	}
	if status.Status != current.Status || status.URL != current.URL || status.Error != current.Error {
		if !o.advance(ctx, deploymentID, websiteID, update) {
			return true, nil
		}
	}
	if status.Status.Terminal() {
		recordOutcome(status.Status)
		o.logger.Info("deployment reached terminal state", "deployment_id", deploymentID, "status", status.Status, "url", status.URL)
		return true, nil
	}
	return false, nil
}

func (o *Orchestrator) registerPoll(deploymentID string, cancel context.CancelFunc) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.polls[deploymentID] = cancel
}

func (o *Orchestrator) unregisterPoll(deploymentID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if cancel, ok := o.polls[deploymentID]; ok {
		cancel()
		delete(o.polls, deploymentID)
	}
}

func (o *Orchestrator) stopPoll(deploymentID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if cancel, ok := o.polls[deploymentID]; ok {
		cancel()
	}
}
