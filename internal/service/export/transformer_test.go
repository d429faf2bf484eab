package export

import (
	"encoding/json"
	"io"
	"reflect"
	"strings"
	"testing"

	"log/slog"

	"github.com/harshal-b-98/NextGenWeb-sub006/internal/domain"
)

func TestTransformEmitsScaffoldAndPageRoutes(t *testing.T) {
	tr := newTestTransformer()
	website := &domain.Website{ID: "site-1", Slug: "acme", Name: "Acme Corp"}
	pages := []domain.Page{
		{ID: "p-about", Slug: "about", Title: "About", Position: 2, Sections: []domain.PageSection{{Title: "Team", Content: "Our people"}}},
		{ID: "p-home", Slug: "home", Title: "Home", Position: 1, Sections: []domain.PageSection{{Title: "Hero", Content: "Welcome"}}},
	}

	result, err := tr.Transform(website, pages)
	if err != nil {
		t.Fatalf("Transform returned error: %v", err)
	}

	byPath := indexByPath(result.Files)
	for _, path := range []string{
		"package.json", "next.config.mjs", "tsconfig.json",
		"app/layout.tsx", "app/globals.css",
		"app/page.tsx", "app/about/page.tsx",
		"components/sections/Section1.tsx", "components/sections/Section2.tsx",
		"README.md", ".gitignore", ".env.example",
	} {
		if _, ok := byPath[path]; !ok {
			t.Fatalf("missing expected file %s", path)
		}
	}
	if !byPath["app"].IsDir || !byPath["app/about"].IsDir || !byPath["components/sections"].IsDir {
		t.Fatal("expected directory entries for app, route, and section dirs")
	}
	if !strings.Contains(byPath["package.json"].Content, `"name": "acme"`) {
		t.Fatalf("package.json must carry the site slug, got: %s", byPath["package.json"].Content)
	}
}

func TestTransformNumbersSectionsAcrossPages(t *testing.T) {
	tr := newTestTransformer()
	website := &domain.Website{ID: "site-1", Slug: "acme", Name: "Acme"}
	pages := []domain.Page{
		{ID: "p-home", Slug: "home", Position: 1, Sections: []domain.PageSection{
			{Title: "Hero", Content: "a"},
			{Title: "Features", Content: "b"},
		}},
		{ID: "p-pricing", Slug: "pricing", Position: 2, Sections: []domain.PageSection{
			{Title: "Plans", Content: "c"},
		}},
	}

	result, err := tr.Transform(website, pages)
	if err != nil {
		t.Fatalf("Transform returned error: %v", err)
	}
	byPath := indexByPath(result.Files)

	// Home gets Section1 and Section2, pricing continues at Section3.
	if !strings.Contains(byPath["app/page.tsx"].Content, "Section1") || !strings.Contains(byPath["app/page.tsx"].Content, "Section2") {
		t.Fatalf("homepage imports wrong sections: %s", byPath["app/page.tsx"].Content)
	}
	if !strings.Contains(byPath["app/pricing/page.tsx"].Content, "Section3") {
		t.Fatalf("pricing page imports wrong sections: %s", byPath["app/pricing/page.tsx"].Content)
	}
	if _, ok := byPath["components/sections/Section3.tsx"]; !ok {
		t.Fatal("expected Section3 component file")
	}
}

func TestTransformDetectsHomepageBySlugConvention(t *testing.T) {
	tr := newTestTransformer()
	website := &domain.Website{ID: "site-1", Slug: "acme", Name: "Acme"}

	for _, slug := range []string{"", "home", "index", "/home/", "HOME"} {
		pages := []domain.Page{{ID: "p-1", Slug: slug, Sections: []domain.PageSection{{Title: "Hero", Content: "x"}}}}
		result, err := tr.Transform(website, pages)
		if err != nil {
			t.Fatalf("Transform(%q) returned error: %v", slug, err)
		}
		if _, ok := indexByPath(result.Files)["app/page.tsx"]; !ok {
			t.Fatalf("slug %q should map to the root route", slug)
		}
	}

	// An explicit flag wins even with an unconventional slug.
	pages := []domain.Page{{ID: "p-1", Slug: "landing", IsHomepage: true, Sections: []domain.PageSection{{Title: "Hero", Content: "x"}}}}
	result, err := tr.Transform(website, pages)
	if err != nil {
		t.Fatalf("Transform returned error: %v", err)
	}
	byPath := indexByPath(result.Files)
	if _, ok := byPath["app/page.tsx"]; !ok {
		t.Fatal("flagged homepage should map to the root route")
	}
	if _, ok := byPath["app/landing/page.tsx"]; ok {
		t.Fatal("flagged homepage must not also emit a slug route")
	}
}

func TestTransformRoutesOnlyFirstHomepageQualifierToRoot(t *testing.T) {
	tr := newTestTransformer()
	website := &domain.Website{ID: "site-1", Slug: "acme", Name: "Acme"}
	pages := []domain.Page{
		{ID: "p-index", Slug: "index", Title: "Index", Position: 2, Sections: []domain.PageSection{{Title: "Alt", Content: "y"}}},
		{ID: "p-home", Slug: "home", Title: "Home", Position: 1, Sections: []domain.PageSection{{Title: "Hero", Content: "x"}}},
	}

	result, err := tr.Transform(website, pages)
	if err != nil {
		t.Fatalf("Transform returned error: %v", err)
	}

	rootCount := 0
	for _, f := range result.Files {
		if f.Path == "app/page.tsx" {
			rootCount++
		}
	}
	if rootCount != 1 {
		t.Fatalf("expected exactly one root route, got %d", rootCount)
	}
	byPath := indexByPath(result.Files)
	if !strings.Contains(byPath["app/page.tsx"].Content, "<h1>Home</h1>") {
		t.Fatalf("root route should come from the first qualifier, got: %s", byPath["app/page.tsx"].Content)
	}
	if _, ok := byPath["app/index/page.tsx"]; !ok {
		t.Fatal("later qualifier should fall back to its slug route")
	}
}

func TestTransformFallsBackToPageIDForUnroutableSlug(t *testing.T) {
	tr := newTestTransformer()
	website := &domain.Website{ID: "site-1", Slug: "acme", Name: "Acme"}
	pages := []domain.Page{
		{ID: "p-home", Slug: "home", Title: "Home", Position: 1},
		{ID: "p-blank", Slug: "", Title: "Blank", Position: 2},
	}

	result, err := tr.Transform(website, pages)
	if err != nil {
		t.Fatalf("Transform returned error: %v", err)
	}
	byPath := indexByPath(result.Files)
	if _, ok := byPath["app/p-blank/page.tsx"]; !ok {
		t.Fatal("empty-slug page displaced from the root should route by its id")
	}
	if _, ok := byPath["app//page.tsx"]; ok {
		t.Fatal("must never emit a route with an empty segment")
	}
}

func TestTransformEscapesUserContent(t *testing.T) {
	tr := newTestTransformer()
	website := &domain.Website{ID: "site-1", Slug: "acme", Name: "Acme <&> Co"}
	pages := []domain.Page{{
		ID:   "p-home",
		Slug: "home",
		Title: `Say "hi" <now>`,
		Sections: []domain.PageSection{{
			Title:   "Offer {50%}",
			Content: "Use <b>bold</b> & 'quotes'\nsecond line",
		}},
	}}

	result, err := tr.Transform(website, pages)
	if err != nil {
		t.Fatalf("Transform returned error: %v", err)
	}
	byPath := indexByPath(result.Files)

	section := byPath["components/sections/Section1.tsx"].Content
	for _, raw := range []string{"<b>", "{50%}", "'quotes'"} {
		if strings.Contains(section, raw) {
			t.Fatalf("unescaped %q leaked into generated TSX:\n%s", raw, section)
		}
	}
	for _, escaped := range []string{"&lt;b&gt;", "&#123;50%&#125;", "&#39;quotes&#39;", "&amp;"} {
		if !strings.Contains(section, escaped) {
			t.Fatalf("expected %q in generated TSX:\n%s", escaped, section)
		}
	}
	if strings.Contains(section, "\nsecond line") {
		t.Fatal("newlines in section content must collapse to spaces")
	}

	page := byPath["app/page.tsx"].Content
	if strings.Contains(page, `<now>`) {
		t.Fatalf("unescaped page title leaked into generated TSX:\n%s", page)
	}
}

func TestTransformBrandConfigOverlaysDefaults(t *testing.T) {
	tr := newTestTransformer()
	brand, _ := json.Marshal(map[string]string{"primary_color": "#ff0000"})
	website := &domain.Website{ID: "site-1", Slug: "acme", Name: "Acme", BrandConfig: brand}

	result, err := tr.Transform(website, nil)
	if err != nil {
		t.Fatalf("Transform returned error: %v", err)
	}
	css := indexByPath(result.Files)["app/globals.css"].Content
	if !strings.Contains(css, "#ff0000") {
		t.Fatalf("expected overridden primary color in stylesheet:\n%s", css)
	}
	if !strings.Contains(css, "#2563eb") {
		t.Fatalf("expected default accent color retained:\n%s", css)
	}
}

func TestTransformSizeAccounting(t *testing.T) {
	tr := newTestTransformer()
	website := &domain.Website{ID: "site-1", Slug: "acme", Name: "Acme"}
	pages := []domain.Page{{ID: "p-home", Slug: "home", Sections: []domain.PageSection{{Title: "Hero", Content: "x"}}}}

	result, err := tr.Transform(website, pages)
	if err != nil {
		t.Fatalf("Transform returned error: %v", err)
	}
	if result.FileCount != len(result.Files) {
		t.Fatalf("FileCount %d != len(Files) %d", result.FileCount, len(result.Files))
	}
	want := 0
	for _, f := range result.Files {
		want += len(f.Content)
		if f.IsDir && f.Content != "" {
			t.Fatalf("directory entry %s must not carry content", f.Path)
		}
	}
	if result.TotalSize != want {
		t.Fatalf("TotalSize %d != summed content length %d", result.TotalSize, want)
	}
}

func TestTransformIsDeterministic(t *testing.T) {
	tr := newTestTransformer()
	website := &domain.Website{ID: "site-1", Slug: "acme", Name: "Acme"}
	pages := []domain.Page{
		{ID: "p-b", Slug: "beta", Position: 1, Sections: []domain.PageSection{{Title: "B", Content: "b"}}},
		{ID: "p-a", Slug: "alpha", Position: 1, Sections: []domain.PageSection{{Title: "A", Content: "a"}}},
	}

	first, err := tr.Transform(website, pages)
	if err != nil {
		t.Fatalf("Transform returned error: %v", err)
	}
	// Same pages in reverse input order must yield the identical tree.
	reversed := []domain.Page{pages[1], pages[0]}
	second, err := tr.Transform(website, reversed)
	if err != nil {
		t.Fatalf("Transform returned error: %v", err)
	}
	if !reflect.DeepEqual(first.Files, second.Files) {
		t.Fatal("output depends on input page order")
	}
}

func newTestTransformer() Transformer {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func indexByPath(files []domain.ExportedFile) map[string]domain.ExportedFile {
	byPath := make(map[string]domain.ExportedFile, len(files))
	for _, f := range files {
		byPath[f.Path] = f
	}
	return byPath
}
