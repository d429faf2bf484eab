package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/harshal-b-98/NextGenWeb-sub006/internal/domain"
	"github.com/harshal-b-98/NextGenWeb-sub006/internal/repository"
)

const deploymentColumns = `id, website_id, provider, status, target, url, inspector_url, provider_deployment_id, provider_project_id, error, created_at, updated_at, completed_at`

// CreateDeployment inserts a deployment row.
func (r *Repository) CreateDeployment(ctx context.Context, deployment *domain.Deployment) error {
	const query = `INSERT INTO deployments (id, website_id, provider, status, target, url, inspector_url, provider_deployment_id, provider_project_id, error, created_at, updated_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.pool.Exec(ctx, query,
		deployment.ID,
		deployment.WebsiteID,
		deployment.Provider,
		deployment.Status,
		deployment.Target,
		deployment.URL,
		deployment.InspectorURL,
		deployment.ProviderDeploymentID,
		deployment.ProviderProjectID,
		deployment.Error,
		deployment.CreatedAt,
		deployment.UpdatedAt,
		deployment.CompletedAt,
	)
	return err
}

// UpdateDeploymentStatus applies an update while the stored status is still
// non-terminal. Terminal rows are absorbing; a stale poll tick or a late
// provider callback can never resurrect them.
func (r *Repository) UpdateDeploymentStatus(ctx context.Context, update domain.DeploymentStatusUpdate) error {
	const query = `UPDATE deployments
		SET status = COALESCE($2, status),
			url = COALESCE($3, url),
			inspector_url = COALESCE($4, inspector_url),
			provider_deployment_id = COALESCE($5, provider_deployment_id),
			provider_project_id = COALESCE($6, provider_project_id),
			error = COALESCE($7, error),
			completed_at = COALESCE($8, completed_at),
			updated_at = NOW()
		WHERE id = $1 AND status NOT IN ('ready', 'error', 'canceled')`
	tag, err := r.pool.Exec(ctx, query,
		update.DeploymentID,
		emptyToNil(update.Status),
		emptyToNil(update.URL),
		emptyToNil(update.InspectorURL),
		emptyToNil(update.ProviderDeploymentID),
		emptyToNil(update.ProviderProjectID),
		emptyToNil(update.Error),
		update.CompletedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		const existsQuery = `SELECT status FROM deployments WHERE id = $1`
		var status domain.DeploymentStatus
		if err := r.pool.QueryRow(ctx, existsQuery, update.DeploymentID).Scan(&status); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return repository.ErrNotFound
			}
			return err
		}
		return repository.ErrTerminalState
	}
	return nil
}

// GetDeploymentByID fetches a deployment.
func (r *Repository) GetDeploymentByID(ctx context.Context, deploymentID string) (*domain.Deployment, error) {
	query := `SELECT ` + deploymentColumns + ` FROM deployments WHERE id = $1`
	deployment, err := scanDeployment(r.pool.QueryRow(ctx, query, deploymentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return deployment, nil
}

// ListDeploymentsByWebsite returns recent deployments newest first.
func (r *Repository) ListDeploymentsByWebsite(ctx context.Context, websiteID string, limit int) ([]domain.Deployment, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT ` + deploymentColumns + ` FROM deployments WHERE website_id = $1 ORDER BY created_at DESC LIMIT $2`
	return r.listDeployments(ctx, query, websiteID, limit)
}

// ListDeploymentsInFlight returns non-terminal deployments last touched
// before the given time.
func (r *Repository) ListDeploymentsInFlight(ctx context.Context, updatedBefore time.Time) ([]domain.Deployment, error) {
	query := `SELECT ` + deploymentColumns + ` FROM deployments
		WHERE status NOT IN ('ready', 'error', 'canceled') AND updated_at < $1
		ORDER BY updated_at`
	return r.listDeployments(ctx, query, updatedBefore)
}

func (r *Repository) listDeployments(ctx context.Context, query string, args ...any) ([]domain.Deployment, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deployments []domain.Deployment
	for rows.Next() {
		deployment, err := scanDeployment(rows)
		if err != nil {
			return nil, err
		}
		deployments = append(deployments, *deployment)
	}
	return deployments, rows.Err()
}

func scanDeployment(row pgx.Row) (*domain.Deployment, error) {
	var d domain.Deployment
	if err := row.Scan(&d.ID, &d.WebsiteID, &d.Provider, &d.Status, &d.Target, &d.URL, &d.InspectorURL, &d.ProviderDeploymentID, &d.ProviderProjectID, &d.Error, &d.CreatedAt, &d.UpdatedAt, &d.CompletedAt); err != nil {
		return nil, err
	}
	return &d, nil
}
