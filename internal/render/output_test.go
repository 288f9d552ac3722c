package render

import (
	"testing"
)

type stringerOutput struct{}

func (stringerOutput) String() string { return "<html>from stringer</html>" }

type htmlish string

func TestNormalizeSingleDocument(t *testing.T) {
	cases := []struct {
		name string
		out  any
		want string
	}{
		{"string", "<html>s</html>", "<html>s</html>"},
		{"bytes", []byte("<html>b</html>"), "<html>b</html>"},
		{"stringer", stringerOutput{}, "<html>from stringer</html>"},
		{"number", 42, "42"},
		{"bool", true, "true"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			entries, err := normalizeOutput("/page", tc.out)
			if err != nil {
				t.Fatalf("normalizeOutput: %v", err)
			}
			if len(entries) != 1 {
				t.Fatalf("got %d entries, want 1", len(entries))
			}
			if entries[0].base != "/page" || entries[0].html != tc.want {
				t.Errorf("entry = %+v", entries[0])
			}
		})
	}
}

func TestNormalizeNilIsError(t *testing.T) {
	if _, err := normalizeOutput("/page", nil); err == nil {
		t.Fatal("nil output should be an error")
	}
}

func TestNormalizeStringMapSortsKeys(t *testing.T) {
	entries, err := normalizeOutput("/req", map[string]string{
		"/zebra": "<html>z</html>",
		"/alpha": "<html>a</html>",
	})
	if err != nil {
		t.Fatalf("normalizeOutput: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].base != "/alpha" || entries[1].base != "/zebra" {
		t.Errorf("key order = %s, %s", entries[0].base, entries[1].base)
	}
	if entries[0].html != "<html>a</html>" {
		t.Errorf("first document = %q", entries[0].html)
	}
}

func TestNormalizeAnyMapStringifiesValues(t *testing.T) {
	entries, err := normalizeOutput("/req", map[string]any{
		"/a": "<html>plain</html>",
		"/b": []byte("<html>bytes</html>"),
		"/c": 7,
	})
	if err != nil {
		t.Fatalf("normalizeOutput: %v", err)
	}
	got := map[string]string{}
	for _, e := range entries {
		got[e.base] = e.html
	}
	if got["/a"] != "<html>plain</html>" || got["/b"] != "<html>bytes</html>" || got["/c"] != "7" {
		t.Errorf("entries = %v", got)
	}
}

func TestNormalizeOtherStringKeyedMaps(t *testing.T) {
	entries, err := normalizeOutput("/req", map[string]htmlish{
		"/only": "<html>typed</html>",
	})
	if err != nil {
		t.Fatalf("normalizeOutput: %v", err)
	}
	if len(entries) != 1 || entries[0].base != "/only" || entries[0].html != "<html>typed</html>" {
		t.Errorf("entries = %+v", entries)
	}
}

func TestNormalizeEmptyMapYieldsNothing(t *testing.T) {
	entries, err := normalizeOutput("/req", map[string]string{})
	if err != nil {
		t.Fatalf("normalizeOutput: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("got %d entries, want 0", len(entries))
	}
}

func TestBoundaryMapReservedKeysWin(t *testing.T) {
	p := &Page{
		Path:   "/about",
		Assets: map[string]string{"main": "main.abc123.js"},
		Locals: map[string]any{"title": "About", "path": "/spoofed"},
	}
	m := p.BoundaryMap()
	if m["path"] != "/about" {
		t.Errorf("path = %v, reserved key must not be shadowed", m["path"])
	}
	if m["title"] != "About" {
		t.Errorf("title = %v", m["title"])
	}
	if assets, ok := m["assets"].(map[string]string); !ok || assets["main"] != "main.abc123.js" {
		t.Errorf("assets = %v", m["assets"])
	}
}
