// Package frontmatter splits YAML frontmatter from Markdown page
// sources and converts field maps to and from YAML.
package frontmatter

import (
	"bytes"
	"errors"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates a document opened a frontmatter
// block without closing it.
var ErrMissingClosingDelimiter = errors.New("frontmatter opening delimiter found but closing delimiter is missing")

// Split separates a `---` delimited YAML frontmatter block from the
// Markdown body. Documents without a leading delimiter return the full
// input as body. Both LF and CRLF sources are handled.
func Split(content []byte) (frontmatter, body []byte, had bool, err error) {
	nl := detectNewline(content)
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, nil
	}

	rest := content[len(open):]
	if bytes.HasPrefix(rest, open) {
		// Empty frontmatter block.
		return []byte{}, rest[len(open):], true, nil
	}

	closeSeq := []byte(nl + "---" + nl)
	idx := bytes.Index(rest, closeSeq)
	if idx < 0 {
		return nil, nil, false, ErrMissingClosingDelimiter
	}
	return rest[:idx+len(nl)], rest[idx+len(closeSeq):], true, nil
}

// ParseYAML parses raw frontmatter bytes (without delimiters) into a
// field map. Empty input yields an empty map, never nil.
func ParseYAML(frontmatter []byte) (map[string]any, error) {
	if len(frontmatter) == 0 {
		return map[string]any{}, nil
	}

	var fields map[string]any
	if err := yaml.Unmarshal(frontmatter, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

func detectNewline(content []byte) string {
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			if i > 0 && content[i-1] == '\r' {
				return "\r\n"
			}
			return "\n"
		}
	}
	return "\n"
}
