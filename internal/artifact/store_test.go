package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
)

func TestMemStoreSetAndHas(t *testing.T) {
	s := NewMemStore()
	if s.Has("index.html") {
		t.Error("empty store should not have index.html")
	}
	if err := s.Set("index.html", []byte("<html>home</html>")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if !s.Has("index.html") {
		t.Error("store should have index.html after Set")
	}
	content, ok := s.Get("index.html")
	if !ok || string(content) != "<html>home</html>" {
		t.Errorf("Get = %q, %v", content, ok)
	}
}

func TestMemStoreNamesSorted(t *testing.T) {
	s := NewMemStore()
	for _, n := range []string{"c/index.html", "a/index.html", "b.html"} {
		if err := s.Set(n, []byte("x")); err != nil {
			t.Fatalf("Set %s: %v", n, err)
		}
	}
	want := []string{"a/index.html", "b.html", "c/index.html"}
	if got := s.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names = %v, want %v", got, want)
	}
	if s.Len() != 3 {
		t.Errorf("Len = %d, want 3", s.Len())
	}
}

func TestMemStoreConcurrentAccess(t *testing.T) {
	s := NewMemStore()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("page-%d/index.html", i)
			_ = s.Set(name, []byte("content"))
			s.Has(name)
		}(i)
	}
	wg.Wait()
	if s.Len() != 16 {
		t.Errorf("Len = %d, want 16", s.Len())
	}
}

func TestFreshViewHidesExistingArtifacts(t *testing.T) {
	backing := NewMemStore()
	if err := backing.Set("index.html", []byte("stale")); err != nil {
		t.Fatalf("Set: %v", err)
	}

	view := FreshView(backing)
	if view.Has("index.html") {
		t.Error("fresh view must report existing artifacts as absent")
	}
	if err := view.Set("index.html", []byte("current")); err != nil {
		t.Fatalf("Set through view: %v", err)
	}
	content, ok := backing.Get("index.html")
	if !ok || string(content) != "current" {
		t.Errorf("backing store content = %q, %v", content, ok)
	}
}

func TestFSStoreWritesNestedArtifacts(t *testing.T) {
	s, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}
	if err := s.Set("docs/guide/index.html", []byte("<html>guide</html>")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if !s.Has("docs/guide/index.html") {
		t.Error("Has should see the written artifact")
	}
	raw, err := os.ReadFile(filepath.Join(s.Root(), "docs", "guide", "index.html"))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(raw) != "<html>guide</html>" {
		t.Errorf("content = %q", raw)
	}
}

func TestFSStoreRejectsEscapingNames(t *testing.T) {
	s, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}
	if err := s.Set("../outside/index.html", []byte("nope")); err == nil {
		t.Fatal("Set should reject a name that escapes the root")
	}
	if s.Has("../outside/index.html") {
		t.Error("Has should reject a name that escapes the root")
	}
}

func TestFSStoreHasIgnoresDirectories(t *testing.T) {
	s, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}
	if err := s.Set("docs/index.html", []byte("x")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	// "docs" exists on disk, but only as a directory, not an artifact.
	if s.Has("docs") {
		t.Error("a directory must not count as an artifact")
	}
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "artifacts.db")
	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer s.Close()

	if s.Has("index.html") {
		t.Error("fresh store should be empty")
	}
	if err := s.Set("index.html", []byte("first")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if !s.Has("index.html") {
		t.Error("Has should see the inserted artifact")
	}
	content, ok := s.Get("index.html")
	if !ok || string(content) != "first" {
		t.Errorf("Get = %q, %v", content, ok)
	}
}

func TestSQLiteStoreFirstWriteWins(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "artifacts.db")
	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer s.Close()

	if err := s.Set("page/index.html", []byte("original")); err != nil {
		t.Fatalf("first Set: %v", err)
	}
	if err := s.Set("page/index.html", []byte("imposter")); err != nil {
		t.Fatalf("second Set: %v", err)
	}
	content, _ := s.Get("page/index.html")
	if string(content) != "original" {
		t.Errorf("second Set overwrote content: %q", content)
	}
}

func TestSQLiteStorePersistsAcrossOpens(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "artifacts.db")
	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	if err := s.Set("kept/index.html", []byte("still here")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if !reopened.Has("kept/index.html") {
		t.Error("artifact should survive reopen")
	}
	names, err := reopened.Names()
	if err != nil {
		t.Fatalf("Names: %v", err)
	}
	if len(names) != 1 || names[0] != "kept/index.html" {
		t.Errorf("Names = %v", names)
	}
}
