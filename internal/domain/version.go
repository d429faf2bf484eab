package domain

import "time"

// VersionStatus is the branch a version belongs to.
type VersionStatus string

const (
	VersionDraft      VersionStatus = "draft"
	VersionProduction VersionStatus = "production"
)

// TriggerType records why a version was created.
type TriggerType string

const (
	TriggerInitial      TriggerType = "initial"
	TriggerFeedback     TriggerType = "feedback"
	TriggerRollback     TriggerType = "rollback"
	TriggerManual       TriggerType = "manual"
	TriggerFinalization TriggerType = "finalization"
)

// WebsiteVersion is an append-only snapshot of a website's page content.
// PageRevisions maps page id to the revision id captured at creation time
// and is never mutated after insert.
type WebsiteVersion struct {
	ID            string            `json:"id"`
	WebsiteID     string            `json:"website_id"`
	VersionNumber int               `json:"version_number"`
	Status        VersionStatus     `json:"status"`
	PageRevisions map[string]string `json:"page_revisions"`
	VersionName   string            `json:"version_name"`
	Description   string            `json:"description"`
	TriggerType   TriggerType       `json:"trigger_type"`
	CreatedBy     string            `json:"created_by"`
	CreatedAt     time.Time         `json:"created_at"`
	PublishedAt   *time.Time        `json:"published_at"`
	ArchivedAt    *time.Time        `json:"archived_at"`
}

// VersionPage is resolved page metadata for one snapshot entry.
type VersionPage struct {
	PageID     string `json:"page_id"`
	RevisionID string `json:"revision_id"`
	Slug       string `json:"slug"`
	Title      string `json:"title"`
}

// VersionDiff partitions the union of two snapshots' page ids into four
// disjoint buckets.
type VersionDiff struct {
	Added     []string `json:"added"`
	Removed   []string `json:"removed"`
	Modified  []string `json:"modified"`
	Unchanged []string `json:"unchanged"`
	Summary   string   `json:"summary"`
}
