package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/PinkFox/static-site-builder-webpack-plugin/internal/config"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func loadConfig(t *testing.T, dir, body string) *config.Config {
	t.Helper()
	cfgPath := filepath.Join(dir, "sitebuild.yaml")
	writeFile(t, cfgPath, body)
	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	require.NoError(t, config.Validate(cfg))
	return cfg
}

func TestBuilder_MarkdownSiteEndToEnd(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "content", "index.md"), "# Home\n\n[About](/about)\n")
	writeFile(t, filepath.Join(dir, "content", "about.md"), "# About\n")

	cfg := loadConfig(t, dir, fmt.Sprintf(`site:
  title: Example
crawl: true
renderer:
  markdown:
    content: %s
store:
  kind: fs
  dir: %s
events:
  journal: %s
`, filepath.Join(dir, "content"), filepath.Join(dir, "public"), filepath.Join(dir, "events.db")))

	b, err := NewBuilder(cfg)
	require.NoError(t, err)
	defer b.Close()

	report, err := b.Build(context.Background())
	require.NoError(t, err)
	require.True(t, report.IsSuccess())
	require.Equal(t, 2, report.Written)

	require.FileExists(t, filepath.Join(dir, "public", "index.html"))
	require.FileExists(t, filepath.Join(dir, "public", "about", "index.html"))
	require.FileExists(t, filepath.Join(dir, "events.db"))
}

func TestBuilder_ModuleRenderer(t *testing.T) {
	dir := t.TempDir()
	modPath := filepath.Join(dir, "renderer.go")
	writeFile(t, modPath, `package main

func Render(page map[string]any) string {
	return "<html><body>" + page["path"].(string) + "</body></html>"
}
`)

	cfg := loadConfig(t, dir, fmt.Sprintf(`renderer:
  module: %s
store:
  kind: memory
`, modPath))

	b, err := NewBuilder(cfg)
	require.NoError(t, err)
	defer b.Close()

	report, err := b.Build(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Written)
	require.True(t, b.store.Has("index.html"))
}

func TestBuilder_SecondPassSkipsExistingArtifacts(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "content", "index.md"), "# Home\n")

	cfg := loadConfig(t, dir, fmt.Sprintf(`renderer:
  markdown:
    content: %s
store:
  kind: fs
  dir: %s
`, filepath.Join(dir, "content"), filepath.Join(dir, "public")))

	b, err := NewBuilder(cfg)
	require.NoError(t, err)
	defer b.Close()

	first, err := b.Build(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, first.Written)

	// The store already holds index.html, so a second pass skips it.
	second, err := b.Build(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, second.Written)
	require.Equal(t, 1, second.Skipped)
}

func TestBuilder_RebuildRefreshesArtifacts(t *testing.T) {
	dir := t.TempDir()
	page := filepath.Join(dir, "content", "index.md")
	writeFile(t, page, "# First draft\n")

	out := filepath.Join(dir, "public")
	cfg := loadConfig(t, dir, fmt.Sprintf(`renderer:
  markdown:
    content: %s
store:
  kind: fs
  dir: %s
`, filepath.Join(dir, "content"), out))

	b, err := NewBuilder(cfg)
	require.NoError(t, err)
	defer b.Close()

	_, err = b.Build(context.Background())
	require.NoError(t, err)

	writeFile(t, page, "# Second draft\n")

	report, err := b.Rebuild(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Written)
	require.Equal(t, 0, report.Skipped)

	html, err := os.ReadFile(filepath.Join(out, "index.html"))
	require.NoError(t, err)
	require.Contains(t, string(html), "Second draft")
}

func TestNewStore_Kinds(t *testing.T) {
	dir := t.TempDir()

	mem, err := newStore(config.StoreConfig{Kind: config.StoreMemory})
	require.NoError(t, err)
	require.NotNil(t, mem)

	fs, err := newStore(config.StoreConfig{Kind: config.StoreFS, Dir: filepath.Join(dir, "out")})
	require.NoError(t, err)
	require.NotNil(t, fs)

	_, err = newStore(config.StoreConfig{Kind: "tape"})
	require.ErrorContains(t, err, "unsupported store kind")
}
