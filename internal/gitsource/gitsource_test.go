package gitsource

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

func initOrigin(t *testing.T) (*git.Repository, string) {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("init origin: %v", err)
	}
	return repo, dir
}

func addCommit(t *testing.T, repo *git.Repository, repoPath, filename, content, msg string) plumbing.Hash {
	t.Helper()
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("worktree: %v", err)
	}
	if err := os.WriteFile(filepath.Join(repoPath, filename), []byte(content), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := wt.Add(filename); err != nil {
		t.Fatalf("add: %v", err)
	}
	hash, err := wt.Commit(msg, &git.CommitOptions{
		Author: &object.Signature{Name: "tester", Email: "t@example.com", When: time.Now()},
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	return hash
}

func TestSync_ClonesOnFirstUse(t *testing.T) {
	origin, originDir := initOrigin(t)
	addCommit(t, origin, originDir, "index.md", "# Home\n", "initial")

	checkout := filepath.Join(t.TempDir(), "src")
	dir, err := Sync(context.Background(), Source{URL: originDir, Branch: "master", Dir: checkout})
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if dir != checkout {
		t.Fatalf("expected checkout dir %s, got %s", checkout, dir)
	}
	if _, err := os.Stat(filepath.Join(checkout, "index.md")); err != nil {
		t.Fatalf("expected cloned file: %v", err)
	}
}

func TestSync_FastForwardsExistingCheckout(t *testing.T) {
	origin, originDir := initOrigin(t)
	addCommit(t, origin, originDir, "index.md", "# Home\n", "initial")

	checkout := filepath.Join(t.TempDir(), "src")
	src := Source{URL: originDir, Branch: "master", Dir: checkout}
	if _, err := Sync(context.Background(), src); err != nil {
		t.Fatalf("first sync: %v", err)
	}

	want := addCommit(t, origin, originDir, "about.md", "# About\n", "add about")

	if _, err := Sync(context.Background(), src); err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if _, err := os.Stat(filepath.Join(checkout, "about.md")); err != nil {
		t.Fatalf("expected fast-forwarded file: %v", err)
	}

	local, err := git.PlainOpen(checkout)
	if err != nil {
		t.Fatalf("open checkout: %v", err)
	}
	head, err := local.Head()
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if head.Hash() != want {
		t.Fatalf("expected head %s, got %s", want, head.Hash())
	}
}

func TestSync_DiscardsLocalCommits(t *testing.T) {
	origin, originDir := initOrigin(t)
	originHead := addCommit(t, origin, originDir, "index.md", "# Home\n", "initial")

	checkout := filepath.Join(t.TempDir(), "src")
	src := Source{URL: originDir, Branch: "master", Dir: checkout}
	if _, err := Sync(context.Background(), src); err != nil {
		t.Fatalf("first sync: %v", err)
	}

	// Drift: a commit made directly in the checkout.
	local, err := git.PlainOpen(checkout)
	if err != nil {
		t.Fatalf("open checkout: %v", err)
	}
	addCommit(t, local, checkout, "drift.md", "local only\n", "local drift")

	if _, err := Sync(context.Background(), src); err != nil {
		t.Fatalf("second sync: %v", err)
	}

	if _, err := os.Stat(filepath.Join(checkout, "drift.md")); !os.IsNotExist(err) {
		t.Fatalf("expected drift file to be discarded, stat err=%v", err)
	}
	head, err := local.Head()
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if head.Hash() != originHead {
		t.Fatalf("expected head reset to %s, got %s", originHead, head.Hash())
	}
}

func TestSync_MissingRemote_ReturnsNotFound(t *testing.T) {
	checkout := filepath.Join(t.TempDir(), "src")
	_, err := Sync(context.Background(), Source{
		URL: filepath.Join(t.TempDir(), "does-not-exist"),
		Dir: checkout,
	})
	if err == nil {
		t.Fatal("expected error for missing remote")
	}
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %T: %v", err, err)
	}
}

func TestSync_RequiresURLAndDir(t *testing.T) {
	if _, err := Sync(context.Background(), Source{Dir: "x"}); err == nil {
		t.Fatal("expected error for missing URL")
	}
	if _, err := Sync(context.Background(), Source{URL: "x"}); err == nil {
		t.Fatal("expected error for missing dir")
	}
}

func TestSync_PermanentErrorSkipsRetries(t *testing.T) {
	checkout := filepath.Join(t.TempDir(), "src")
	start := time.Now()
	_, err := Sync(context.Background(), Source{
		URL:     filepath.Join(t.TempDir(), "does-not-exist"),
		Dir:     checkout,
		Retries: 5,
	})
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %T: %v", err, err)
	}
	// A retried sync would back off for seconds; permanent failures
	// must return without waiting.
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Fatalf("sync took %v before failing", elapsed)
	}
}

func TestPermanent(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{&AuthError{Op: "fetch", URL: "u", Err: errors.New("denied")}, true},
		{&NotFoundError{Op: "clone", URL: "u", Err: errors.New("missing")}, true},
		{context.Canceled, true},
		{context.DeadlineExceeded, true},
		{errors.New("connection reset by peer"), false},
	}
	for _, c := range cases {
		if got := permanent(c.err); got != c.want {
			t.Errorf("permanent(%v) = %v, want %v", c.err, got, c.want)
		}
	}
}

func TestIsAncestor(t *testing.T) {
	origin, originDir := initOrigin(t)
	a := addCommit(t, origin, originDir, "a.txt", "A", "A")
	b := addCommit(t, origin, originDir, "b.txt", "B", "B")

	same, err := isAncestor(origin, a, a)
	if err != nil || !same {
		t.Fatalf("expected self ancestry, got %v err=%v", same, err)
	}
	res, err := isAncestor(origin, a, b)
	if err != nil || !res {
		t.Fatalf("expected a ancestor of b, got %v err=%v", res, err)
	}
	res, err = isAncestor(origin, b, a)
	if err != nil || res {
		t.Fatalf("expected b not ancestor of a, got %v err=%v", res, err)
	}
}
