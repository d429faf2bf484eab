package repository

import (
	"context"
	"time"

	"github.com/harshal-b-98/NextGenWeb-sub006/internal/domain"
)

// WebsiteRepository persists websites and their version pointers.
type WebsiteRepository interface {
	CreateWebsite(ctx context.Context, website *domain.Website) error
	GetWebsiteByID(ctx context.Context, websiteID string) (*domain.Website, error)
	GetWebsiteBySlug(ctx context.Context, slug string) (*domain.Website, error)
}

// PageRepository persists pages.
type PageRepository interface {
	CreatePage(ctx context.Context, page *domain.Page) error
	GetPageByID(ctx context.Context, pageID string) (*domain.Page, error)
	ListPagesByWebsite(ctx context.Context, websiteID string) ([]domain.Page, error)
	// ListPagesWithRevisions returns only pages whose current revision is
	// non-nil, ordered by position then slug.
	ListPagesWithRevisions(ctx context.Context, websiteID string) ([]domain.Page, error)
	ListPagesByIDs(ctx context.Context, pageIDs []string) ([]domain.Page, error)
}

// VersionFilter narrows and paginates version listings.
type VersionFilter struct {
	Status domain.VersionStatus
	Limit  int
	Offset int
}

// VersionRepository persists website version snapshots. Multi-row
// operations (create, switch, publish) run inside a single transaction so
// the website's version pointers never dangle and at most one version per
// website holds production status.
type VersionRepository interface {
	// CreateVersion inserts the version, assigns the next version number
	// under a website row lock, and repoints the website's draft pointer,
	// all in one transaction. The assigned number is written back into
	// version.VersionNumber.
	CreateVersion(ctx context.Context, version *domain.WebsiteVersion) error
	GetVersionByID(ctx context.Context, versionID string) (*domain.WebsiteVersion, error)
	ListVersions(ctx context.Context, websiteID string, filter VersionFilter) ([]domain.WebsiteVersion, error)
	// SwitchToVersion restores every page revision recorded in the
	// snapshot and repoints the website's draft pointer. Snapshot entries
	// whose page no longer exists are skipped; the count of restored
	// pages is returned.
	SwitchToVersion(ctx context.Context, websiteID, versionID string, revisions map[string]string) (int, error)
	// PublishVersion demotes the current production version (if any),
	// promotes the target, and repoints the website's production pointer.
	PublishVersion(ctx context.Context, websiteID, versionID string, publishedAt time.Time) error
	// ArchiveVersionsBefore soft-marks versions created before cutoff,
	// excluding the ids listed, and returns the number archived.
	ArchiveVersionsBefore(ctx context.Context, websiteID string, cutoff time.Time, exclude []string) (int, error)
}

// DeploymentRepository stores deployment history.
type DeploymentRepository interface {
	CreateDeployment(ctx context.Context, deployment *domain.Deployment) error
	// UpdateDeploymentStatus applies the update only while the stored
	// status is non-terminal; it returns ErrTerminalState otherwise.
	UpdateDeploymentStatus(ctx context.Context, update domain.DeploymentStatusUpdate) error
	GetDeploymentByID(ctx context.Context, deploymentID string) (*domain.Deployment, error)
	ListDeploymentsByWebsite(ctx context.Context, websiteID string, limit int) ([]domain.Deployment, error)
	// ListDeploymentsInFlight returns non-terminal deployments last
	// touched before the given time, for startup reconciliation.
	ListDeploymentsInFlight(ctx context.Context, updatedBefore time.Time) ([]domain.Deployment, error)
}
