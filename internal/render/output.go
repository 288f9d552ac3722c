package render

import (
	"fmt"
	"reflect"
	"sort"
)

// outputEntry is one normalized (crawl base, document) pair from a
// renderer's return value.
type outputEntry struct {
	base string // path that links inside this document resolve against
	html string
}

// normalizeOutput coerces whatever the renderer returned into entries.
// A plain value is one document whose links resolve against the request
// path. A map with string keys is one document per key, with the key as
// crawl base; keys are visited in sorted order so multi-document renders
// stay deterministic. Anything else is stringified.
func normalizeOutput(path string, out any) ([]outputEntry, error) {
	switch v := out.(type) {
	case nil:
		return nil, fmt.Errorf("renderer returned no output")
	case string:
		return []outputEntry{{base: path, html: v}}, nil
	case []byte:
		return []outputEntry{{base: path, html: string(v)}}, nil
	case map[string]string:
		entries := make([]outputEntry, 0, len(v))
		for _, k := range sortedKeys(v) {
			entries = append(entries, outputEntry{base: k, html: v[k]})
		}
		return entries, nil
	case map[string]any:
		entries := make([]outputEntry, 0, len(v))
		for _, k := range sortedKeys(v) {
			entries = append(entries, outputEntry{base: k, html: stringify(v[k])})
		}
		return entries, nil
	case fmt.Stringer:
		return []outputEntry{{base: path, html: v.String()}}, nil
	default:
		if entries, ok := reflectMapEntries(out); ok {
			return entries, nil
		}
		return []outputEntry{{base: path, html: fmt.Sprint(v)}}, nil
	}
}

// reflectMapEntries handles remaining map types with string-kinded keys,
// e.g. map[string]template.HTML from a loaded module.
func reflectMapEntries(out any) ([]outputEntry, bool) {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	keys := rv.MapKeys()
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	entries := make([]outputEntry, 0, len(keys))
	for _, k := range keys {
		entries = append(entries, outputEntry{base: k.String(), html: stringify(rv.MapIndex(k).Interface())})
	}
	return entries, true
}

func stringify(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	case fmt.Stringer:
		return s.String()
	default:
		return fmt.Sprint(s)
	}
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
