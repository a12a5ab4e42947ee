package generator

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/finnkauski/mub/internal/content"
)

func TestEngineRender(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "post.html",
		`<article><h1>{{.Item.Meta.Title}}</h1>{{safeHTML .Item.HTML}}</article>`)

	engine, err := NewEngine(dir)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	item := &content.Item{
		Meta: content.Metadata{Title: "Hi"},
		HTML: "<p>World</p>",
	}
	out, err := engine.Render("post.html", PageContext{Item: item})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	got := string(out)
	if !strings.Contains(got, "<h1>Hi</h1>") {
		t.Fatalf("expected title rendered, got %q", got)
	}
	if !strings.Contains(got, "<p>World</p>") {
		t.Fatalf("expected body HTML unescaped, got %q", got)
	}
}

func TestEngineRenderUnknownTemplate(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "post.html", `ok`)

	engine, err := NewEngine(dir)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	if _, err := engine.Render("missing.html", PageContext{}); !errors.Is(err, ErrTemplateNotFound) {
		t.Fatalf("expected ErrTemplateNotFound, got %v", err)
	}
}

func TestEngineRenderUndefinedSiteKey(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "post.html", `{{.Site.subtitle}}`)

	engine, err := NewEngine(dir)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	if _, err := engine.Render("post.html", PageContext{Site: map[string]any{}}); !errors.Is(err, ErrTemplateRender) {
		t.Fatalf("expected ErrTemplateRender for undefined site key, got %v", err)
	}
}

func TestEngineHelpers(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "page.html", `built {{datefmt "2006-01-02" .GeneratedAt}}`)

	engine, err := NewEngine(dir)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	out, err := engine.Render("page.html", PageContext{
		GeneratedAt: time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if string(out) != "built 2024-03-04" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestNewEngineEmptyDir(t *testing.T) {
	if _, err := NewEngine(t.TempDir()); err == nil {
		t.Fatalf("expected error for template dir without templates")
	}
}

func writeTemplate(tb testing.TB, dir, name, body string) {
	tb.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		tb.Fatalf("write template %s: %v", name, err)
	}
}
