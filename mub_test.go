package mub

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/finnkauski/mub/internal/search"
)

func TestGenerateSingleMarkdownPost(t *testing.T) {
	cfg := siteFixture(t)
	writeContent(t, cfg.Input, "hello.md",
		"---\ntitle: Hi\ndate: 2024-01-01\npublish: true\n---\n# Hi\nWorld")

	if err := Generate(context.Background(), cfg); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	page := readSiteFile(t, cfg.Output, "posts", "hello.html")
	if !strings.Contains(page, "Hi</h1>") || !strings.Contains(page, "<p>World</p>") {
		t.Fatalf("unexpected item page: %q", page)
	}

	index := readSiteFile(t, cfg.Output, "index.html")
	if !strings.Contains(index, "Hi") {
		t.Fatalf("expected index to list the post, got %q", index)
	}

	wantIndex := `[{"path":"posts/hello.html","title":"Hi","date":"2024-01-01","text":"Hi World "}]`
	if got := readSiteFile(t, cfg.Output, search.IndexFilename); got != wantIndex {
		t.Fatalf("unexpected search index:\n got %s\nwant %s", got, wantIndex)
	}
}

func TestGeneratePhotoProject(t *testing.T) {
	cfg := siteFixture(t)

	project := filepath.Join(cfg.Input, "trip")
	if err := os.MkdirAll(project, 0o755); err != nil {
		t.Fatalf("mkdir project: %v", err)
	}
	writeContent(t, project, "post.html",
		"---\ntitle: Trip\ndate: 2024-05-01\n---\n<p>summer photos</p>")
	writeContent(t, project, "a.jpg", "jpegbytes")

	if err := Generate(context.Background(), cfg); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	page := readSiteFile(t, cfg.Output, "photos", "trip.html")
	if !strings.Contains(page, "<p>summer photos</p>") || !strings.Contains(page, `src="a.jpg"`) {
		t.Fatalf("unexpected project page: %q", page)
	}
	if got := readSiteFile(t, cfg.Output, "photos", "a.jpg"); got != "jpegbytes" {
		t.Fatalf("image not copied intact, got %q", got)
	}
}

func TestGenerateFailurePolicy(t *testing.T) {
	cfg := siteFixture(t)
	writeContent(t, cfg.Input, "good.md",
		"---\ntitle: Good\ndate: 2024-01-01\n---\nfine")
	writeContent(t, cfg.Input, "bad.md",
		"---\ndate: 2024-01-01\n---\nno title")

	if err := Generate(context.Background(), cfg); err != nil {
		t.Fatalf("lenient run must survive a broken item: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.Output, "posts", "good.html")); err != nil {
		t.Fatalf("healthy item must render: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.Output, "posts", "bad.html")); !os.IsNotExist(err) {
		t.Fatalf("broken item must be skipped, stat err: %v", err)
	}

	cfg.Strict = true
	if err := Generate(context.Background(), cfg); err == nil {
		t.Fatalf("strict run must fail on a broken item")
	}
}

func TestGenerateIsRepeatable(t *testing.T) {
	cfg := siteFixture(t)
	writeContent(t, cfg.Input, "one.md",
		"---\ntitle: One\ndate: 2024-01-01\npublish: true\n---\nfirst")
	writeContent(t, cfg.Input, "two.md",
		"---\ntitle: Two\ndate: 2024-02-01\npublish: true\n---\nsecond")

	if err := Generate(context.Background(), cfg); err != nil {
		t.Fatalf("first run: %v", err)
	}
	first := readSiteFile(t, cfg.Output, search.IndexFilename)
	firstIndex := readSiteFile(t, cfg.Output, "index.html")

	if err := Generate(context.Background(), cfg); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if got := readSiteFile(t, cfg.Output, search.IndexFilename); got != first {
		t.Fatalf("search index must be identical across runs:\n%s\nvs\n%s", first, got)
	}
	if got := readSiteFile(t, cfg.Output, "index.html"); got != firstIndex {
		t.Fatalf("index page must be identical across runs")
	}
}

func TestGenerateRejectsInvalidConfig(t *testing.T) {
	cfg := siteFixture(t)
	cfg.Output = cfg.Input

	if err := Generate(context.Background(), cfg); err == nil {
		t.Fatalf("expected validation failure for input == output")
	}
}

// siteFixture builds a minimal site layout in a temp dir: content root,
// templates, and an output path that does not exist yet.
func siteFixture(tb testing.TB) Config {
	tb.Helper()

	base := tb.TempDir()
	input := filepath.Join(base, "content")
	templates := filepath.Join(base, "templates")
	for _, dir := range []string{input, templates} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			tb.Fatalf("mkdir %s: %v", dir, err)
		}
	}

	writeContent(tb, templates, "post.html",
		`<article><h1>{{.Item.Meta.Title}}</h1>{{safeHTML .Item.HTML}}</article>`)
	writeContent(tb, templates, "photo.html",
		`<div>{{safeHTML .Item.HTML}}{{range .Item.Images}}<img src="{{.Name}}">{{end}}</div>`)
	writeContent(tb, templates, "index.html",
		`<ul>{{range .Items}}<li>{{.Meta.Title}}</li>{{end}}</ul>`)

	return Config{
		Input:     input,
		Output:    filepath.Join(base, "public"),
		Templates: templates,
		Search:    true,
		LogLevel:  "error",
		LogFormat: "console",
	}
}

func writeContent(tb testing.TB, dir, name, body string) {
	tb.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		tb.Fatalf("write %s: %v", name, err)
	}
}

func readSiteFile(tb testing.TB, parts ...string) string {
	tb.Helper()
	data, err := os.ReadFile(filepath.Join(parts...))
	if err != nil {
		tb.Fatalf("read %v: %v", parts, err)
	}
	return string(data)
}
