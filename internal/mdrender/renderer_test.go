package mdrender

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/PinkFox/static-site-builder-webpack-plugin/internal/artifact"
	"github.com/PinkFox/static-site-builder-webpack-plugin/internal/render"
)

func writeContent(t *testing.T, dir, rel, content string) {
	t.Helper()
	full := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func renderPath(t *testing.T, r *Renderer, sitePath string) string {
	t.Helper()
	out, err := r.Render(context.Background(), &render.Page{Path: sitePath})
	require.NoError(t, err)
	s, ok := out.(string)
	require.True(t, ok, "expected string output, got %T", out)
	return s
}

func TestNew_RequiresContentDir(t *testing.T) {
	_, err := New(Options{})
	require.Error(t, err)
}

func TestRender_BasicPage(t *testing.T) {
	dir := t.TempDir()
	writeContent(t, dir, "index.md", "---\ntitle: Home\ndescription: The front page\n---\n# Welcome\n\nHello.\n")

	r, err := New(Options{ContentDir: dir})
	require.NoError(t, err)

	out := renderPath(t, r, "/")
	require.Contains(t, out, "<title>Home</title>")
	require.Contains(t, out, `<meta name="description" content="The front page">`)
	require.Contains(t, out, `<meta name="content-fingerprint" content="`)
	require.Contains(t, out, "<h1>Welcome</h1>")
}

func TestRender_SiteTitleSuffix(t *testing.T) {
	dir := t.TempDir()
	writeContent(t, dir, "index.md", "---\ntitle: Home\n---\nHi.\n")

	r, err := New(Options{ContentDir: dir, SiteTitle: "Example"})
	require.NoError(t, err)

	out := renderPath(t, r, "/")
	require.Contains(t, out, "<title>Home | Example</title>")
}

func TestRender_PathResolution(t *testing.T) {
	dir := t.TempDir()
	writeContent(t, dir, "index.md", "ROOT\n")
	writeContent(t, dir, "about.md", "ABOUT\n")
	writeContent(t, dir, "docs/index.md", "DOCS\n")
	writeContent(t, dir, "guide/index.md", "GUIDE\n")
	writeContent(t, dir, "legacy.md", "LEGACY\n")

	r, err := New(Options{ContentDir: dir})
	require.NoError(t, err)

	cases := []struct {
		path   string
		marker string
	}{
		{"/", "ROOT"},
		{"/about", "ABOUT"},
		{"/docs/", "DOCS"},
		// No guide.md, so the directory index is the fallback.
		{"/guide", "GUIDE"},
		{"/legacy.html", "LEGACY"},
		{"/legacy.htm", "LEGACY"},
	}
	for _, tc := range cases {
		out := renderPath(t, r, tc.path)
		require.Contains(t, out, tc.marker, "path %s", tc.path)
	}
}

func TestRender_MissingContent_ReturnsTypedError(t *testing.T) {
	r, err := New(Options{ContentDir: t.TempDir()})
	require.NoError(t, err)

	_, err = r.Render(context.Background(), &render.Page{Path: "/nowhere"})
	var notFound *ContentNotFoundError
	require.ErrorAs(t, err, &notFound)
	require.Equal(t, "/nowhere", notFound.Path)
	require.Equal(t, []string{"nowhere.md", "nowhere/index.md"}, notFound.Tried)
}

func TestRender_EscapingPathRejected(t *testing.T) {
	r, err := New(Options{ContentDir: t.TempDir()})
	require.NoError(t, err)

	_, err = r.Render(context.Background(), &render.Page{Path: "/../outside/secret"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "escapes the content directory")
}

func TestRender_AssetTags(t *testing.T) {
	dir := t.TempDir()
	writeContent(t, dir, "index.md", "Hi.\n")

	r, err := New(Options{ContentDir: dir})
	require.NoError(t, err)

	out, err := r.Render(context.Background(), &render.Page{
		Path: "/",
		Assets: map[string]string{
			"main":   "main.abc123.js",
			"styles": "styles.def456.css",
		},
	})
	require.NoError(t, err)
	html := out.(string)
	require.Contains(t, html, `<link rel="stylesheet" href="/styles.def456.css">`)
	require.Contains(t, html, `<script defer src="/main.abc123.js"></script>`)
}

func TestRender_CustomLayout(t *testing.T) {
	dir := t.TempDir()
	writeContent(t, dir, "index.md", "---\ntitle: Home\n---\nHi.\n")
	layout := filepath.Join(t.TempDir(), "layout.html")
	require.NoError(t, os.WriteFile(layout, []byte("{{.Title}}::{{.Body}}"), 0o644))

	r, err := New(Options{ContentDir: dir, LayoutPath: layout})
	require.NoError(t, err)

	out := renderPath(t, r, "/")
	require.True(t, strings.HasPrefix(out, "Home::"), "got %q", out)
}

func TestContentFingerprint_IgnoresSourceFormatting(t *testing.T) {
	// Same fields and body, different field order and newline style.
	a := map[string]any{"title": "Home", "draft": false}
	b := map[string]any{"draft": false, "title": "Home"}
	body := []byte("# Welcome\n")

	fpA, err := contentFingerprint(a, body)
	require.NoError(t, err)
	fpB, err := contentFingerprint(b, body)
	require.NoError(t, err)
	require.Equal(t, fpA, fpB)
	require.NotEmpty(t, fpA)

	changed, err := contentFingerprint(map[string]any{"title": "Other", "draft": false}, body)
	require.NoError(t, err)
	require.NotEqual(t, fpA, changed)
}

func TestRender_CrawlOverMarkdownLinks(t *testing.T) {
	dir := t.TempDir()
	writeContent(t, dir, "index.md", "[About](/about) and [Team](/team/)\n")
	writeContent(t, dir, "about.md", "Back [home](/).\n")
	writeContent(t, dir, "team/index.md", "Just us.\n")

	r, err := New(Options{ContentDir: dir})
	require.NoError(t, err)

	store := artifact.NewMemStore()
	orch, err := render.NewOrchestrator(render.Options{
		Renderer: r.Render,
		Store:    store,
		Crawl:    true,
	})
	require.NoError(t, err)

	report, err := orch.RenderPaths(context.Background(), []string{"/"})
	require.NoError(t, err)
	require.True(t, report.IsSuccess())

	require.True(t, store.Has("index.html"))
	require.True(t, store.Has("about/index.html"))
	require.True(t, store.Has("team/index.html"))
	require.Equal(t, 3, store.Len())
}
