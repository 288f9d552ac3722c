// Package pathnorm maps logical render paths to canonical artifact names
// and resolves link targets found in rendered HTML. The artifact name is
// the identity the whole pipeline de-duplicates on: two paths that map to
// the same name are the same page.
package pathnorm

import (
	"net/url"
	"path"
	"strings"
)

// ArtifactName derives the artifact name for a logical output path.
// Exactly one leading slash or backslash is stripped, and any path that
// does not already name an .htm/.html document gains an index.html
// segment:
//
//	"/"           -> "index.html"
//	"/about"      -> "about/index.html"
//	"/about.html" -> "about.html"
//	"docs/"       -> "docs/index.html"
//
// The join normalizes redundant separators and dot segments, so "docs/"
// and "docs" produce the same name.
func ArtifactName(outputPath string) string {
	name := outputPath
	if strings.HasPrefix(name, "/") || strings.HasPrefix(name, `\`) {
		name = name[1:]
	}
	if isMarkupFile(name) {
		return name
	}
	return path.Join(name, "index.html")
}

func isMarkupFile(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".htm") || strings.HasSuffix(lower, ".html")
}

// ResolveHref turns an href discovered on the page rendered at basePath
// into a renderable path. It reports false for targets that leave the
// site: protocol-relative hrefs, scheme-qualified URLs, and hrefs with no
// path component (pure fragments or query strings). Site-absolute hrefs
// are returned verbatim; relative ones are resolved against basePath with
// standard relative-reference semantics. Query and fragment parts are
// discarded.
func ResolveHref(href, basePath string) (string, bool) {
	if strings.HasPrefix(href, "//") {
		return "", false
	}
	u, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	if u.Scheme != "" || u.Host != "" {
		return "", false
	}
	if u.Path == "" {
		return "", false
	}
	if strings.HasPrefix(u.Path, "/") {
		return u.Path, true
	}
	base := url.URL{Path: basePath}
	resolved := base.ResolveReference(&url.URL{Path: u.Path})
	return resolved.Path, true
}
