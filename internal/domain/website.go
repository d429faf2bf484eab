package domain

import (
	"encoding/json"
	"time"
)

// Website is the root aggregate: a generated marketing site with two named
// version pointers. DraftVersionID always points at the current working
// snapshot; ProductionVersionID is set once a version has been published.
type Website struct {
	ID                  string          `json:"id"`
	Slug                string          `json:"slug"`
	Name                string          `json:"name"`
	DraftVersionID      *string         `json:"draft_version_id"`
	ProductionVersionID *string         `json:"production_version_id"`
	BrandConfig         json.RawMessage `json:"brand_config"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// BrandConfig captures the styling knobs the exporter bakes into the
// generated stylesheet.
type BrandConfig struct {
	PrimaryColor   string `json:"primary_color"`
	SecondaryColor string `json:"secondary_color"`
	AccentColor    string `json:"accent_color"`
	FontFamily     string `json:"font_family"`
}

// PageSection is one generated content block of a page.
type PageSection struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Page is a single route of a website. CurrentRevisionID is an opaque
// content identity; nil means the page has no generated content yet and is
// excluded from snapshots.
type Page struct {
	ID                string        `json:"id"`
	WebsiteID         string        `json:"website_id"`
	Slug              string        `json:"slug"`
	Title             string        `json:"title"`
	CurrentRevisionID *string       `json:"current_revision_id"`
	IsHomepage        bool          `json:"is_homepage"`
	Position          int           `json:"position"`
	Sections          []PageSection `json:"sections"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}
