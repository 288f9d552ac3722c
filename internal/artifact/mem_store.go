package artifact

import (
	"sort"
	"sync"
)

// MemStore keeps artifacts in memory. It mirrors the asset map a bundler
// exposes during compilation: the host embedding the render core reads
// the finished artifacts back out after a build pass.
type MemStore struct {
	mu        sync.RWMutex
	artifacts map[string][]byte
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{artifacts: make(map[string][]byte)}
}

// Has reports whether name is present.
func (s *MemStore) Has(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.artifacts[name]
	return ok
}

// Set records content under name, overwriting any previous value.
func (s *MemStore) Set(name string, content []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.artifacts[name] = content
	return nil
}

// Get returns the content stored under name.
func (s *MemStore) Get(name string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.artifacts[name]
	return c, ok
}

// Names returns all artifact names in sorted order.
func (s *MemStore) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.artifacts))
	for n := range s.artifacts {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of stored artifacts.
func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.artifacts)
}
