// Package render turns logical site paths into named HTML artifacts. An
// Orchestrator feeds paths through a renderer function, writes each
// artifact at most once, and can crawl rendered pages for further paths
// until no new artifact names turn up.
package render

import (
	"context"
	"encoding/json"
)

// Func renders the page at page.Path. The returned value may be a single
// HTML document (string or []byte), a map of named documents, or any
// other value, which is stringified. Returning (nil, nil) is a render
// failure: a page must either produce output or say why it cannot.
type Func func(ctx context.Context, page *Page) (any, error)

// Page is the context handed to the renderer for one output path.
// Assets, Stats and Locals are shared across every page of a pass and
// must be treated as read-only.
type Page struct {
	// Path is the logical output path being rendered, e.g. "/about".
	Path string
	// Assets maps bundle chunk names to emitted filenames.
	Assets map[string]string
	// Stats carries the opaque bundler stats document, if any.
	Stats json.RawMessage
	// Locals are caller-supplied extras exposed to the renderer.
	Locals map[string]any
}

// BoundaryMap flattens the page into the single map argument that
// loaded renderer modules are called with. Reserved keys are assigned
// last, so a user local named path, assets or buildStats cannot shadow
// the real values.
func (p *Page) BoundaryMap() map[string]any {
	m := make(map[string]any, len(p.Locals)+3)
	for k, v := range p.Locals {
		m[k] = v
	}
	m["path"] = p.Path
	m["assets"] = p.Assets
	m["buildStats"] = p.Stats
	return m
}
