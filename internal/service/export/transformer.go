// Package export converts a website and its pages into a deployable
// static-site file tree.
package export

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"log/slog"

	"github.com/harshal-b-98/NextGenWeb-sub006/internal/domain"
)

// Result is the outcome of one transform. TotalSize counts file content
// bytes only; FileCount counts every emitted entry including directories.
type Result struct {
	Files     []domain.ExportedFile `json:"files"`
	TotalSize int                   `json:"total_size"`
	FileCount int                   `json:"file_count"`
}

// Transformer emits a self-contained Next.js app-router project from a
// website's current page content. Output is deterministic for a given
// input: pages ordered by position then slug, sections in array order.
type Transformer struct {
	logger *slog.Logger
}

// New returns a Transformer.
func New(logger *slog.Logger) Transformer {
	return Transformer{logger: logger}
}

// Transform builds the file tree.
func (t Transformer) Transform(website *domain.Website, pages []domain.Page) (*Result, error) {
	if website == nil {
		return nil, fmt.Errorf("website required")
	}

	ordered := make([]domain.Page, len(pages))
	copy(ordered, pages)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Position != ordered[j].Position {
			return ordered[i].Position < ordered[j].Position
		}
		return ordered[i].Slug < ordered[j].Slug
	})

	brand := decodeBrand(website.BrandConfig)

	var files []domain.ExportedFile
	addDir := func(path string) {
		files = append(files, domain.ExportedFile{Path: path, IsDir: true})
	}
	addFile := func(path, content string) {
		files = append(files, domain.ExportedFile{Path: path, Content: content})
	}

	addFile("package.json", packageJSON(website.Slug))
	addFile("next.config.mjs", nextConfig)
	addFile("tsconfig.json", tsConfig)
	addDir("app")
	addFile("app/layout.tsx", layoutFile(website.Name))
	addFile("app/globals.css", globalStyles(brand))

	// Section components are numbered positionally across the whole
	// traversal. The numbering is not stable across re-exports if page or
	// section order changes; every deploy regenerates the tree from
	// scratch, so nothing references the old names.
	sectionIndex := 0
	rootTaken := false
	var sectionFiles []domain.ExportedFile
	for _, page := range ordered {
		var componentNames []string
		for _, section := range page.Sections {
			sectionIndex++
			name := fmt.Sprintf("Section%d", sectionIndex)
			componentNames = append(componentNames, name)
			sectionFiles = append(sectionFiles, domain.ExportedFile{
				Path:    fmt.Sprintf("components/sections/%s.tsx", name),
				Content: sectionComponent(name, section),
			})
		}
		// The slug column is only unique per website, so several pages can
		// qualify as the homepage at once (e.g. "home" and "index"). The
		// first in traversal order takes the root route; the rest fall back
		// to their slug so the tree never contains duplicate paths.
		if isHomepage(page) && !rootTaken {
			rootTaken = true
			addFile("app/page.tsx", pageFile(page, componentNames))
		} else {
			slug := routeSlug(page.Slug)
			if slug == "" {
				slug = page.ID
			}
			addDir("app/" + slug)
			addFile("app/"+slug+"/page.tsx", pageFile(page, componentNames))
		}
	}

	if len(sectionFiles) > 0 {
		addDir("components")
		addDir("components/sections")
		files = append(files, sectionFiles...)
	}

	addFile("README.md", readme(website.Name))
	addFile(".gitignore", gitignore)
	addFile(".env.example", envExample)

	result := &Result{Files: files, FileCount: len(files)}
	for _, f := range files {
		result.TotalSize += len(f.Content)
	}
	return result, nil
}

// isHomepage detects the root route by flag, path, or conventional slug.
func isHomepage(page domain.Page) bool {
	if page.IsHomepage {
		return true
	}
	switch strings.Trim(strings.ToLower(page.Slug), "/") {
	case "", "home", "index":
		return true
	}
	return false
}

func routeSlug(slug string) string {
	return strings.Trim(slug, "/")
}

func decodeBrand(raw json.RawMessage) domain.BrandConfig {
	brand := domain.BrandConfig{
		PrimaryColor:   "#1f2937",
		SecondaryColor: "#4b5563",
		AccentColor:    "#2563eb",
		FontFamily:     "Inter, system-ui, sans-serif",
	}
	if len(raw) > 0 {
		// Partial configs overlay the defaults; a malformed config falls
		// back to them entirely.
		_ = json.Unmarshal(raw, &brand)
	}
	return brand
}
