package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/harshal-b-98/NextGenWeb-sub006/internal/domain"
	"github.com/harshal-b-98/NextGenWeb-sub006/internal/repository"
)

const versionColumns = `id, website_id, version_number, status, page_revisions, version_name, description, trigger_type, created_by, created_at, published_at, archived_at`

// CreateVersion inserts a snapshot and repoints the website's draft pointer
// in one transaction. The website row is locked first so concurrent creates
// serialize on the version number; a UNIQUE constraint on
// (website_id, version_number) backs the lock.
func (r *Repository) CreateVersion(ctx context.Context, version *domain.WebsiteVersion) error {
	if version == nil {
		return fmt.Errorf("website version required")
	}
	revisions, err := json.Marshal(version.PageRevisions)
	if err != nil {
		return fmt.Errorf("encode page revisions: %w", err)
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const lockQuery = `SELECT id FROM websites WHERE id = $1 FOR UPDATE`
	var lockedID string
	if err := tx.QueryRow(ctx, lockQuery, version.WebsiteID).Scan(&lockedID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.ErrNotFound
		}
		return err
	}

	const numberQuery = `SELECT COALESCE(MAX(version_number), 0) + 1 FROM website_versions WHERE website_id = $1`
	if err := tx.QueryRow(ctx, numberQuery, version.WebsiteID).Scan(&version.VersionNumber); err != nil {
		return err
	}

	const insertQuery = `INSERT INTO website_versions (id, website_id, version_number, status, page_revisions, version_name, description, trigger_type, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	if _, err := tx.Exec(ctx, insertQuery,
		version.ID,
		version.WebsiteID,
		version.VersionNumber,
		version.Status,
		revisions,
		version.VersionName,
		version.Description,
		version.TriggerType,
		version.CreatedBy,
		version.CreatedAt,
	); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23503":
				return repository.ErrNotFound
			case "23505":
				return repository.ErrVersionConflict
			}
		}
		return err
	}

	const pointerQuery = `UPDATE websites SET draft_version_id = $2, updated_at = NOW() WHERE id = $1`
	tag, err := tx.Exec(ctx, pointerQuery, version.WebsiteID, version.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return tx.Commit(ctx)
}

// GetVersionByID fetches a version snapshot.
func (r *Repository) GetVersionByID(ctx context.Context, versionID string) (*domain.WebsiteVersion, error) {
	query := `SELECT ` + versionColumns + ` FROM website_versions WHERE id = $1`
	version, err := scanVersion(r.pool.QueryRow(ctx, query, versionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return version, nil
}

// ListVersions returns versions newest first, optionally filtered by status.
func (r *Repository) ListVersions(ctx context.Context, websiteID string, filter repository.VersionFilter) ([]domain.WebsiteVersion, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + versionColumns + ` FROM website_versions
		WHERE website_id = $1 AND ($2::text IS NULL OR status = $2)
		ORDER BY version_number DESC
		LIMIT $3 OFFSET $4`
	rows, err := r.pool.Query(ctx, query, websiteID, emptyToNil(filter.Status), limit, filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []domain.WebsiteVersion
	for rows.Next() {
		version, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		versions = append(versions, *version)
	}
	return versions, rows.Err()
}

// SwitchToVersion restores snapshot revisions onto the live pages and
// repoints the draft pointer, all in one transaction. Snapshot entries for
// pages that have since been deleted are skipped.
func (r *Repository) SwitchToVersion(ctx context.Context, websiteID, versionID string, revisions map[string]string) (int, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	const pageQuery = `UPDATE pages SET current_revision_id = $3, updated_at = NOW() WHERE id = $1 AND website_id = $2`
	restored := 0
	batch := &pgx.Batch{}
	for pageID, revisionID := range revisions {
		batch.Queue(pageQuery, pageID, websiteID, revisionID)
	}
	br := tx.SendBatch(ctx, batch)
	for range revisions {
		tag, err := br.Exec()
		if err != nil {
			br.Close()
			return 0, err
		}
		restored += int(tag.RowsAffected())
	}
	if err := br.Close(); err != nil {
		return 0, err
	}

	const pointerQuery = `UPDATE websites SET draft_version_id = $2, updated_at = NOW() WHERE id = $1`
	tag, err := tx.Exec(ctx, pointerQuery, websiteID, versionID)
	if err != nil {
		return 0, err
	}
	if tag.RowsAffected() == 0 {
		return 0, repository.ErrNotFound
	}
	return restored, tx.Commit(ctx)
}

// PublishVersion promotes the target to production and demotes the previous
// production version in one transaction, keeping at most one production
// version per website.
func (r *Repository) PublishVersion(ctx context.Context, websiteID, versionID string, publishedAt time.Time) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const lockQuery = `SELECT id FROM websites WHERE id = $1 FOR UPDATE`
	var lockedID string
	if err := tx.QueryRow(ctx, lockQuery, websiteID).Scan(&lockedID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.ErrNotFound
		}
		return err
	}

	const demoteQuery = `UPDATE website_versions SET status = $3 WHERE website_id = $1 AND status = $2 AND id <> $4`
	if _, err := tx.Exec(ctx, demoteQuery, websiteID, domain.VersionProduction, domain.VersionDraft, versionID); err != nil {
		return err
	}

	const promoteQuery = `UPDATE website_versions SET status = $3, published_at = $4 WHERE id = $1 AND website_id = $2`
	tag, err := tx.Exec(ctx, promoteQuery, versionID, websiteID, domain.VersionProduction, publishedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	const pointerQuery = `UPDATE websites SET production_version_id = $2, updated_at = NOW() WHERE id = $1`
	if _, err := tx.Exec(ctx, pointerQuery, websiteID, versionID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ArchiveVersionsBefore soft-marks old versions. Versions are never
// deleted; archived rows keep their snapshot and history.
func (r *Repository) ArchiveVersionsBefore(ctx context.Context, websiteID string, cutoff time.Time, exclude []string) (int, error) {
	if exclude == nil {
		exclude = []string{}
	}
	const query = `UPDATE website_versions
		SET archived_at = NOW()
		WHERE website_id = $1 AND created_at < $2 AND archived_at IS NULL AND id <> ALL($3::uuid[])`
	tag, err := r.pool.Exec(ctx, query, websiteID, cutoff, exclude)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func scanVersion(row pgx.Row) (*domain.WebsiteVersion, error) {
	var v domain.WebsiteVersion
	var revisions []byte
	if err := row.Scan(&v.ID, &v.WebsiteID, &v.VersionNumber, &v.Status, &revisions, &v.VersionName, &v.Description, &v.TriggerType, &v.CreatedBy, &v.CreatedAt, &v.PublishedAt, &v.ArchivedAt); err != nil {
		return nil, err
	}
	if len(revisions) > 0 {
		if err := json.Unmarshal(revisions, &v.PageRevisions); err != nil {
			return nil, fmt.Errorf("decode page revisions: %w", err)
		}
	}
	return &v, nil
}
