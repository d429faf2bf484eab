package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/harshal-b-98/NextGenWeb-sub006/internal/domain"
	"github.com/harshal-b-98/NextGenWeb-sub006/internal/repository"
)

// Repository implements persistence interfaces on PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// New constructs a Repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ensure Repository satisfies interfaces.
var (
	_ repository.WebsiteRepository    = (*Repository)(nil)
	_ repository.PageRepository       = (*Repository)(nil)
	_ repository.VersionRepository    = (*Repository)(nil)
	_ repository.DeploymentRepository = (*Repository)(nil)
)

const websiteColumns = `id, slug, name, draft_version_id, production_version_id, brand_config, created_at, updated_at`

// CreateWebsite inserts a website.
func (r *Repository) CreateWebsite(ctx context.Context, website *domain.Website) error {
	const query = `INSERT INTO websites (id, slug, name, draft_version_id, production_version_id, brand_config, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.pool.Exec(ctx, query,
		website.ID,
		website.Slug,
		website.Name,
		website.DraftVersionID,
		website.ProductionVersionID,
		website.BrandConfig,
		website.CreatedAt,
		website.UpdatedAt,
	)
	return err
}

// GetWebsiteByID fetches a website by identifier.
func (r *Repository) GetWebsiteByID(ctx context.Context, websiteID string) (*domain.Website, error) {
	query := `SELECT ` + websiteColumns + ` FROM websites WHERE id = $1`
	return r.scanWebsite(r.pool.QueryRow(ctx, query, websiteID))
}

// GetWebsiteBySlug fetches a website by slug.
func (r *Repository) GetWebsiteBySlug(ctx context.Context, slug string) (*domain.Website, error) {
	query := `SELECT ` + websiteColumns + ` FROM websites WHERE slug = $1`
	return r.scanWebsite(r.pool.QueryRow(ctx, query, slug))
}

func (r *Repository) scanWebsite(row pgx.Row) (*domain.Website, error) {
	var w domain.Website
	if err := row.Scan(&w.ID, &w.Slug, &w.Name, &w.DraftVersionID, &w.ProductionVersionID, &w.BrandConfig, &w.CreatedAt, &w.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &w, nil
}

const pageColumns = `id, website_id, slug, title, current_revision_id, is_homepage, position, sections, created_at, updated_at`

// CreatePage inserts a page.
func (r *Repository) CreatePage(ctx context.Context, page *domain.Page) error {
	sections, err := json.Marshal(page.Sections)
	if err != nil {
		return fmt.Errorf("encode sections: %w", err)
	}
	const query = `INSERT INTO pages (id, website_id, slug, title, current_revision_id, is_homepage, position, sections, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err = r.pool.Exec(ctx, query,
		page.ID,
		page.WebsiteID,
		page.Slug,
		page.Title,
		page.CurrentRevisionID,
		page.IsHomepage,
		page.Position,
		sections,
		page.CreatedAt,
		page.UpdatedAt,
	)
	return err
}

// GetPageByID fetches a page by identifier.
func (r *Repository) GetPageByID(ctx context.Context, pageID string) (*domain.Page, error) {
	query := `SELECT ` + pageColumns + ` FROM pages WHERE id = $1`
	row := r.pool.QueryRow(ctx, query, pageID)
	page, err := scanPage(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return page, nil
}

// ListPagesByWebsite returns all pages of a website in display order.
func (r *Repository) ListPagesByWebsite(ctx context.Context, websiteID string) ([]domain.Page, error) {
	query := `SELECT ` + pageColumns + ` FROM pages WHERE website_id = $1 ORDER BY position, slug`
	return r.listPages(ctx, query, websiteID)
}

// ListPagesWithRevisions returns pages that carry generated content.
func (r *Repository) ListPagesWithRevisions(ctx context.Context, websiteID string) ([]domain.Page, error) {
	query := `SELECT ` + pageColumns + ` FROM pages WHERE website_id = $1 AND current_revision_id IS NOT NULL ORDER BY position, slug`
	return r.listPages(ctx, query, websiteID)
}

// ListPagesByIDs returns the pages that still exist among the given ids.
func (r *Repository) ListPagesByIDs(ctx context.Context, pageIDs []string) ([]domain.Page, error) {
	if len(pageIDs) == 0 {
		return nil, nil
	}
	query := `SELECT ` + pageColumns + ` FROM pages WHERE id = ANY($1::uuid[]) ORDER BY position, slug`
	return r.listPages(ctx, query, pageIDs)
}

func (r *Repository) listPages(ctx context.Context, query string, args ...any) ([]domain.Page, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []domain.Page
	for rows.Next() {
		page, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		pages = append(pages, *page)
	}
	return pages, rows.Err()
}

func scanPage(row pgx.Row) (*domain.Page, error) {
	var p domain.Page
	var sections []byte
	if err := row.Scan(&p.ID, &p.WebsiteID, &p.Slug, &p.Title, &p.CurrentRevisionID, &p.IsHomepage, &p.Position, &sections, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if len(sections) > 0 {
		if err := json.Unmarshal(sections, &p.Sections); err != nil {
			return nil, fmt.Errorf("decode sections: %w", err)
		}
	}
	return &p, nil
}

func emptyToNil[T ~string](value T) any {
	if value == "" {
		return nil
	}
	return string(value)
}
