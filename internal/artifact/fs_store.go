package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FSStore writes artifacts into a directory tree, creating parent
// directories as needed. Artifact names use forward slashes regardless of
// platform; they are converted on the way to disk.
type FSStore struct {
	root string
}

// NewFSStore creates the output directory if missing and returns a store
// rooted there.
func NewFSStore(root string) (*FSStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve output directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	return &FSStore{root: abs}, nil
}

// Root returns the absolute output directory.
func (s *FSStore) Root() string { return s.root }

// Has reports whether a file for name exists under the root.
func (s *FSStore) Has(name string) bool {
	p, err := s.path(name)
	if err != nil {
		return false
	}
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

// Set writes content to the file for name, overwriting an existing file.
func (s *FSStore) Set(name string, content []byte) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create artifact directory for %q: %w", name, err)
	}
	if err := os.WriteFile(p, content, 0o644); err != nil {
		return fmt.Errorf("write artifact %q: %w", name, err)
	}
	return nil
}

// Get reads the content stored under name.
func (s *FSStore) Get(name string) ([]byte, bool) {
	p, err := s.path(name)
	if err != nil {
		return nil, false
	}
	content, err := os.ReadFile(p)
	if err != nil {
		return nil, false
	}
	return content, true
}

// path maps an artifact name to a location under the root. Names that
// would climb out of the root are rejected; crawled links are normalized
// before they get here, but renderer output is not trusted blindly.
func (s *FSStore) path(name string) (string, error) {
	p := filepath.Join(s.root, filepath.FromSlash(name))
	rel, err := filepath.Rel(s.root, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("artifact name %q escapes output directory", name)
	}
	return p, nil
}
