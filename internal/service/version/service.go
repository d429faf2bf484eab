// Package version manages append-only website version snapshots and the
// draft/production pointers over them.
package version

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/harshal-b-98/NextGenWeb-sub006/internal/domain"
	"github.com/harshal-b-98/NextGenWeb-sub006/internal/repository"
)

var (
	// ErrNoPageRevisions is returned when a snapshot is requested for a
	// website with no generated page content.
	ErrNoPageRevisions = errors.New("website has no pages with revisions to snapshot")
	// ErrVersionMismatch is returned when a version does not belong to
	// the given website.
	ErrVersionMismatch = errors.New("version does not belong to website")
	// ErrInvalidInput is the base of all argument validation failures.
	ErrInvalidInput   = errors.New("invalid input")
	errMissingWebsite = fmt.Errorf("%w: website id required", ErrInvalidInput)
	errMissingVersion = fmt.Errorf("%w: version id required", ErrInvalidInput)
	errInvalidAge     = fmt.Errorf("%w: olderThanDays must be positive", ErrInvalidInput)
)

// CreateInput carries optional snapshot attributes.
type CreateInput struct {
	VersionName string
	Description string
	TriggerType domain.TriggerType
	CreatedBy   string
}

// ListInput filters and paginates version listings.
type ListInput struct {
	Status domain.VersionStatus
	Limit  int
	Offset int
}

// Detail is a version plus resolved metadata for the pages still present.
type Detail struct {
	Version *domain.WebsiteVersion `json:"version"`
	Pages   []domain.VersionPage   `json:"pages"`
}

// Service implements version lifecycle operations.
type Service struct {
	websites repository.WebsiteRepository
	pages    repository.PageRepository
	versions repository.VersionRepository
	logger   *slog.Logger
}

// New returns a version service.
func New(websites repository.WebsiteRepository, pages repository.PageRepository, versions repository.VersionRepository, logger *slog.Logger) Service {
	return Service{websites: websites, pages: pages, versions: versions, logger: logger}
}

// Create snapshots the website's current page revisions into a new draft
// version and repoints the website's draft pointer at it.
func (s Service) Create(ctx context.Context, websiteID string, input CreateInput) (*domain.WebsiteVersion, error) {
	if strings.TrimSpace(websiteID) == "" {
		return nil, errMissingWebsite
	}
	pages, err := s.pages.ListPagesWithRevisions(ctx, websiteID)
	if err != nil {
		return nil, fmt.Errorf("load pages: %w", err)
	}
	if len(pages) == 0 {
		return nil, ErrNoPageRevisions
	}

	revisions := make(map[string]string, len(pages))
	for _, page := range pages {
		if page.CurrentRevisionID != nil {
			revisions[page.ID] = *page.CurrentRevisionID
		}
	}

	trigger := input.TriggerType
	if trigger == "" {
		trigger = domain.TriggerManual
	}
	version := &domain.WebsiteVersion{
		ID:            uuid.NewString(),
		WebsiteID:     websiteID,
		Status:        domain.VersionDraft,
		PageRevisions: revisions,
		VersionName:   strings.TrimSpace(input.VersionName),
		Description:   strings.TrimSpace(input.Description),
		TriggerType:   trigger,
		CreatedBy:     input.CreatedBy,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.versions.CreateVersion(ctx, version); err != nil {
		return nil, fmt.Errorf("create version: %w", err)
	}
	s.logger.Info("version created",
		"website_id", websiteID,
		"version_id", version.ID,
		"version_number", version.VersionNumber,
		"trigger", trigger,
		"pages", len(revisions))
	return version, nil
}

// List returns versions newest first.
func (s Service) List(ctx context.Context, websiteID string, input ListInput) ([]domain.WebsiteVersion, error) {
	if strings.TrimSpace(websiteID) == "" {
		return nil, errMissingWebsite
	}
	return s.versions.ListVersions(ctx, websiteID, repository.VersionFilter{
		Status: input.Status,
		Limit:  input.Limit,
		Offset: input.Offset,
	})
}

// Get returns a version with resolved page metadata. Snapshot entries whose
// page has since been deleted are dropped from the resolved list; the
// snapshot map itself is returned untouched.
func (s Service) Get(ctx context.Context, versionID string) (*Detail, error) {
	if strings.TrimSpace(versionID) == "" {
		return nil, errMissingVersion
	}
	version, err := s.versions.GetVersionByID(ctx, versionID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(version.PageRevisions))
	for pageID := range version.PageRevisions {
		ids = append(ids, pageID)
	}
	pages, err := s.pages.ListPagesByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve pages: %w", err)
	}
	resolved := make([]domain.VersionPage, 0, len(pages))
	for _, page := range pages {
		resolved = append(resolved, domain.VersionPage{
			PageID:     page.ID,
			RevisionID: version.PageRevisions[page.ID],
			Slug:       page.Slug,
			Title:      page.Title,
		})
	}
	return &Detail{Version: version, Pages: resolved}, nil
}

// Switch restores the target version's page revisions onto the live pages
// and makes it the current draft.
func (s Service) Switch(ctx context.Context, websiteID, versionID string) (*domain.WebsiteVersion, error) {
	version, err := s.versions.GetVersionByID(ctx, versionID)
	if err != nil {
		return nil, err
	}
	if version.WebsiteID != websiteID {
		return nil, ErrVersionMismatch
	}
	restored, err := s.versions.SwitchToVersion(ctx, websiteID, versionID, version.PageRevisions)
	if err != nil {
		return nil, fmt.Errorf("switch version: %w", err)
	}
	if restored < len(version.PageRevisions) {
		s.logger.Warn("some snapshot pages no longer exist",
			"website_id", websiteID,
			"version_id", versionID,
			"restored", restored,
			"snapshot", len(version.PageRevisions))
	}
	s.logger.Info("switched to version", "website_id", websiteID, "version_id", versionID, "version_number", version.VersionNumber)
	return version, nil
}

// Publish promotes a version to production, demoting the previous
// production version if one exists.
func (s Service) Publish(ctx context.Context, versionID string) (*domain.WebsiteVersion, error) {
	version, err := s.versions.GetVersionByID(ctx, versionID)
	if err != nil {
		return nil, err
	}
	publishedAt := time.Now().UTC()
	if err := s.versions.PublishVersion(ctx, version.WebsiteID, versionID, publishedAt); err != nil {
		return nil, fmt.Errorf("publish version: %w", err)
	}
	version.Status = domain.VersionProduction
	version.PublishedAt = &publishedAt
	s.logger.Info("version published", "website_id", version.WebsiteID, "version_id", versionID, "version_number", version.VersionNumber)
	return version, nil
}

// Finalize snapshots the current draft content and immediately publishes
// the new version.
func (s Service) Finalize(ctx context.Context, websiteID string, input CreateInput) (*domain.WebsiteVersion, error) {
	input.TriggerType = domain.TriggerFinalization
	version, err := s.Create(ctx, websiteID, input)
	if err != nil {
		return nil, err
	}
	return s.Publish(ctx, version.ID)
}

// Compare partitions the page ids of two snapshots into added, removed,
// modified, and unchanged. The four buckets are disjoint and cover the
// union of both snapshots' page ids.
func (s Service) Compare(ctx context.Context, oldID, newID string) (*domain.VersionDiff, error) {
	oldVersion, err := s.versions.GetVersionByID(ctx, oldID)
	if err != nil {
		return nil, err
	}
	newVersion, err := s.versions.GetVersionByID(ctx, newID)
	if err != nil {
		return nil, err
	}
	diff := &domain.VersionDiff{
		Added:     []string{},
		Removed:   []string{},
		Modified:  []string{},
		Unchanged: []string{},
	}
	for pageID, newRev := range newVersion.PageRevisions {
		oldRev, ok := oldVersion.PageRevisions[pageID]
		switch {
		case !ok:
			diff.Added = append(diff.Added, pageID)
		case oldRev != newRev:
			diff.Modified = append(diff.Modified, pageID)
		default:
			diff.Unchanged = append(diff.Unchanged, pageID)
		}
	}
	for pageID := range oldVersion.PageRevisions {
		if _, ok := newVersion.PageRevisions[pageID]; !ok {
			diff.Removed = append(diff.Removed, pageID)
		}
	}
	sort.Strings(diff.Added)
	sort.Strings(diff.Removed)
	sort.Strings(diff.Modified)
	sort.Strings(diff.Unchanged)
	diff.Summary = summarize(diff)
	return diff, nil
}

// ArchiveOld soft-marks versions older than the cutoff, sparing the
// website's current draft and production versions. Nothing is deleted.
func (s Service) ArchiveOld(ctx context.Context, websiteID string, olderThanDays int) (int, error) {
	if olderThanDays <= 0 {
		return 0, errInvalidAge
	}
	website, err := s.websites.GetWebsiteByID(ctx, websiteID)
	if err != nil {
		return 0, err
	}
	var exclude []string
	if website.DraftVersionID != nil {
		exclude = append(exclude, *website.DraftVersionID)
	}
	if website.ProductionVersionID != nil {
		exclude = append(exclude, *website.ProductionVersionID)
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -olderThanDays)
	archived, err := s.versions.ArchiveVersionsBefore(ctx, websiteID, cutoff, exclude)
	if err != nil {
		return 0, fmt.Errorf("archive versions: %w", err)
	}
	if archived > 0 {
		s.logger.Info("versions archived", "website_id", websiteID, "count", archived, "older_than_days", olderThanDays)
	}
	return archived, nil
}

func summarize(diff *domain.VersionDiff) string {
	var parts []string
	if n := len(diff.Added); n > 0 {
		parts = append(parts, fmt.Sprintf("%d %s added", n, pageWord(n)))
	}
	if n := len(diff.Removed); n > 0 {
		parts = append(parts, fmt.Sprintf("%d %s removed", n, pageWord(n)))
	}
	if n := len(diff.Modified); n > 0 {
		parts = append(parts, fmt.Sprintf("%d %s modified", n, pageWord(n)))
	}
	if len(parts) == 0 {
		return "No changes detected"
	}
	return strings.Join(parts, ", ")
}

func pageWord(n int) string {
	if n == 1 {
		return "page"
	}
	return "pages"
}
