// Package mdrender renders Markdown page sources into complete HTML
// documents. It resolves site paths against a content directory, splits
// YAML frontmatter, converts the body with goldmark, and wraps the
// result in a layout template.
package mdrender

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/PinkFox/static-site-builder-webpack-plugin/internal/frontmatter"
	"github.com/PinkFox/static-site-builder-webpack-plugin/internal/logfields"
	"github.com/PinkFox/static-site-builder-webpack-plugin/internal/render"
)

// ContentNotFoundError reports a site path with no matching Markdown
// source under the content directory.
type ContentNotFoundError struct {
	Path  string
	Tried []string
}

func (e *ContentNotFoundError) Error() string {
	return fmt.Sprintf("no content for %s (tried %s)", e.Path, strings.Join(e.Tried, ", "))
}

// Options configure a Renderer.
type Options struct {
	// ContentDir is the root of the Markdown source tree.
	ContentDir string
	// LayoutPath optionally replaces the built-in layout template.
	LayoutPath string
	// SiteTitle is appended to page titles and used as the title of
	// pages that declare none.
	SiteTitle string
}

// Renderer loads Markdown sources and renders complete HTML pages.
// Safe for concurrent use.
type Renderer struct {
	contentDir string
	siteTitle  string
	tmpl       *template.Template
	md         goldmark.Markdown
}

// New builds a Renderer over the given content directory.
func New(opts Options) (*Renderer, error) {
	if opts.ContentDir == "" {
		return nil, fmt.Errorf("content directory is required")
	}
	contentDir, err := filepath.Abs(opts.ContentDir)
	if err != nil {
		return nil, fmt.Errorf("resolve content directory: %w", err)
	}
	tmpl, err := loadLayout(opts.LayoutPath)
	if err != nil {
		return nil, err
	}
	return &Renderer{
		contentDir: contentDir,
		siteTitle:  opts.SiteTitle,
		tmpl:       tmpl,
		md:         goldmark.New(),
	}, nil
}

// Render satisfies the page render contract used by the build
// orchestrator.
func (r *Renderer) Render(ctx context.Context, page *render.Page) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src, err := r.resolve(page.Path)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", src, err)
	}

	fm, body, _, err := frontmatter.Split(raw)
	if err != nil {
		return nil, fmt.Errorf("split frontmatter in %s: %w", src, err)
	}
	fields, err := frontmatter.ParseYAML(fm)
	if err != nil {
		return nil, fmt.Errorf("parse frontmatter in %s: %w", src, err)
	}

	fingerprint, err := contentFingerprint(fields, body)
	if err != nil {
		return nil, fmt.Errorf("fingerprint %s: %w", src, err)
	}

	var converted bytes.Buffer
	if err := r.md.Convert(body, &converted); err != nil {
		return nil, fmt.Errorf("convert %s: %w", src, err)
	}

	stylesheets, scripts := splitAssets(page.Assets)
	data := pageData{
		Title:       r.title(fields, page.Path),
		Description: stringField(fields, "description"),
		Path:        page.Path,
		Body:        template.HTML(converted.String()),
		Fingerprint: fingerprint,
		Stylesheets: stylesheets,
		Scripts:     scripts,
		Fields:      fields,
		Locals:      page.Locals,
	}

	var out bytes.Buffer
	if err := r.tmpl.Execute(&out, data); err != nil {
		return nil, fmt.Errorf("execute layout for %s: %w", page.Path, err)
	}

	slog.Debug("rendered markdown page",
		logfields.Path(page.Path), slog.String("source", src), slog.String("fingerprint", fingerprint))

	return out.String(), nil
}

// resolve maps a site path to a Markdown source file. Directory style
// paths map to index.md and bare page paths try both the file and the
// directory form.
func (r *Renderer) resolve(sitePath string) (string, error) {
	rel := strings.TrimPrefix(sitePath, "/")

	var candidates []string
	switch {
	case rel == "":
		candidates = []string{"index.md"}
	case strings.HasSuffix(rel, "/"):
		candidates = []string{rel + "index.md"}
	case hasMarkupExt(rel):
		candidates = []string{trimMarkupExt(rel) + ".md"}
	default:
		candidates = []string{rel + ".md", rel + "/index.md"}
	}

	tried := make([]string, 0, len(candidates))
	for _, c := range candidates {
		full, err := r.contentPath(c)
		if err != nil {
			return "", err
		}
		tried = append(tried, c)
		if info, err := os.Stat(full); err == nil && !info.IsDir() {
			return full, nil
		}
	}
	return "", &ContentNotFoundError{Path: sitePath, Tried: tried}
}

// contentPath joins a candidate onto the content root and rejects
// anything that escapes it. Crawled paths come from rendered output and
// are not trusted.
func (r *Renderer) contentPath(rel string) (string, error) {
	full := filepath.Join(r.contentDir, filepath.FromSlash(rel))
	back, err := filepath.Rel(r.contentDir, full)
	if err != nil || back == ".." || strings.HasPrefix(back, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %s escapes the content directory", rel)
	}
	return full, nil
}

func (r *Renderer) title(fields map[string]any, sitePath string) string {
	title := stringField(fields, "title")
	if title == "" {
		title = humanize(sitePath)
	}
	switch {
	case r.siteTitle == "":
		return title
	case title == "":
		return r.siteTitle
	default:
		return title + " | " + r.siteTitle
	}
}

// humanize derives a fallback title from the last path segment.
func humanize(sitePath string) string {
	seg := strings.Trim(sitePath, "/")
	if i := strings.LastIndex(seg, "/"); i >= 0 {
		seg = seg[i+1:]
	}
	seg = trimMarkupExt(seg)
	if seg == "" {
		return "Home"
	}
	seg = strings.NewReplacer("-", " ", "_", " ").Replace(seg)
	return cases.Title(language.English).String(seg)
}

func stringField(fields map[string]any, key string) string {
	if v, ok := fields[key].(string); ok {
		return v
	}
	return ""
}

func splitAssets(assets map[string]string) (stylesheets, scripts []string) {
	for _, file := range assets {
		switch {
		case strings.HasSuffix(file, ".css"):
			stylesheets = append(stylesheets, file)
		case strings.HasSuffix(file, ".js"):
			scripts = append(scripts, file)
		}
	}
	sort.Strings(stylesheets)
	sort.Strings(scripts)
	return stylesheets, scripts
}

func hasMarkupExt(p string) bool {
	lower := strings.ToLower(p)
	return strings.HasSuffix(lower, ".htm") || strings.HasSuffix(lower, ".html")
}

func trimMarkupExt(p string) string {
	lower := strings.ToLower(p)
	switch {
	case strings.HasSuffix(lower, ".html"):
		return p[:len(p)-len(".html")]
	case strings.HasSuffix(lower, ".htm"):
		return p[:len(p)-len(".htm")]
	}
	return p
}
