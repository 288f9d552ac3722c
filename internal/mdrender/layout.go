package mdrender

import (
	"fmt"
	"html/template"
	"os"
)

// pageData is the document model handed to layout templates.
type pageData struct {
	Title       string
	Description string
	Path        string
	Body        template.HTML
	Fingerprint string
	Stylesheets []string
	Scripts     []string
	Fields      map[string]any
	Locals      map[string]any
}

const defaultLayout = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
{{- if .Description}}
<meta name="description" content="{{.Description}}">
{{- end}}
{{- if .Fingerprint}}
<meta name="content-fingerprint" content="{{.Fingerprint}}">
{{- end}}
{{- range .Stylesheets}}
<link rel="stylesheet" href="/{{.}}">
{{- end}}
{{- range .Scripts}}
<script defer src="/{{.}}"></script>
{{- end}}
</head>
<body>
<main id="{{slugify .Title}}">
{{.Body}}
</main>
</body>
</html>
`

// loadLayout parses the layout template, falling back to the built-in
// layout when no path is given. Templates may call slugify.
func loadLayout(path string) (*template.Template, error) {
	tmpl := template.New("layout").Funcs(template.FuncMap{"slugify": Slugify})
	if path == "" {
		return tmpl.Parse(defaultLayout)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layout %s: %w", path, err)
	}
	parsed, err := tmpl.Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("parse layout %s: %w", path, err)
	}
	return parsed, nil
}
