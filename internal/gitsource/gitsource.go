// Package gitsource keeps a local checkout of the repository that page
// sources are built from. The checkout directory is machine managed:
// local history never wins against the remote.
package gitsource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	gitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/PinkFox/static-site-builder-webpack-plugin/internal/logfields"
	"github.com/PinkFox/static-site-builder-webpack-plugin/internal/retry"
)

// Source describes the repository to sync.
type Source struct {
	URL string
	// Branch pins the branch to check out. Empty means the remote
	// default.
	Branch string
	// Depth limits history on clone and fetch when positive.
	Depth int
	// Dir is the checkout directory.
	Dir string
	// Retries is the number of additional attempts after a transient
	// failure.
	Retries int
}

// Sync clones the repository on first use and brings an existing
// checkout up to date with the remote. Transient failures are retried
// within the source's retry budget; auth and not-found errors fail
// immediately. It returns the checkout directory.
func Sync(ctx context.Context, src Source) (string, error) {
	if src.URL == "" {
		return "", errors.New("source URL is required")
	}
	if src.Dir == "" {
		return "", errors.New("checkout directory is required")
	}

	pol := retry.DefaultPolicy()
	pol.Retries = src.Retries
	var lastErr error
	for attempt := 0; attempt <= pol.Retries; attempt++ {
		if attempt > 0 {
			slog.Warn("retrying source sync",
				logfields.URL(src.URL), slog.Int("attempt", attempt))
			if err := retry.Wait(ctx, pol.Delay(attempt)); err != nil {
				return "", err
			}
		}
		dir, err := syncOnce(ctx, src)
		if err == nil {
			return dir, nil
		}
		lastErr = err
		if permanent(err) {
			return "", err
		}
	}
	return "", fmt.Errorf("sync failed after %d retries: %w", pol.Retries, lastErr)
}

func syncOnce(ctx context.Context, src Source) (string, error) {
	if _, err := os.Stat(filepath.Join(src.Dir, ".git")); err != nil {
		return clone(ctx, src)
	}
	return update(ctx, src)
}

// permanent reports whether retrying cannot help: bad credentials,
// missing repositories and ended contexts fail the sync at once.
func permanent(err error) bool {
	if errors.As(err, new(*AuthError)) || errors.As(err, new(*NotFoundError)) {
		return true
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func clone(ctx context.Context, src Source) (string, error) {
	slog.Debug("cloning source repository",
		logfields.URL(src.URL), logfields.Branch(src.Branch), logfields.Dir(src.Dir))

	if err := os.RemoveAll(src.Dir); err != nil {
		return "", fmt.Errorf("remove existing directory: %w", err)
	}

	opts := &git.CloneOptions{URL: src.URL}
	if src.Branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(src.Branch)
		opts.SingleBranch = true
	}
	if src.Depth > 0 {
		opts.Depth = src.Depth
	}

	repo, err := git.PlainCloneContext(ctx, src.Dir, false, opts)
	if err != nil {
		return "", classify("clone", src.URL, err)
	}

	if ref, herr := repo.Head(); herr == nil {
		slog.Info("source repository cloned",
			logfields.URL(src.URL), slog.String("commit", shortHash(ref.Hash())), logfields.Dir(src.Dir))
	} else {
		slog.Info("source repository cloned", logfields.URL(src.URL), logfields.Dir(src.Dir))
	}
	return src.Dir, nil
}

func update(ctx context.Context, src Source) (string, error) {
	repo, err := git.PlainOpen(src.Dir)
	if err != nil {
		return "", fmt.Errorf("open checkout: %w", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("worktree: %w", err)
	}

	if err := fetchOrigin(ctx, repo, src); err != nil {
		return "", classify("fetch", src.URL, err)
	}

	branch := resolveBranch(repo, src)
	localRef, remoteRef, err := checkoutBranch(repo, wt, branch)
	if err != nil {
		return "", err
	}

	// Local commits never survive: the checkout tracks the remote and
	// anything else is drift to be discarded.
	ff, ffErr := isAncestor(repo, localRef.Hash(), remoteRef.Hash())
	if ffErr != nil {
		slog.Warn("ancestor check failed", logfields.Error(ffErr))
	}
	if !ff {
		slog.Warn("checkout diverged from remote, resetting",
			logfields.Branch(branch), slog.String("to", shortHash(remoteRef.Hash())))
	}
	if err := wt.Reset(&git.ResetOptions{Commit: remoteRef.Hash(), Mode: git.HardReset}); err != nil {
		return "", fmt.Errorf("reset to remote: %w", err)
	}

	slog.Info("source repository updated",
		logfields.Branch(branch), slog.String("commit", shortHash(remoteRef.Hash())))
	return src.Dir, nil
}

func fetchOrigin(ctx context.Context, repo *git.Repository, src Source) error {
	opts := &git.FetchOptions{
		RemoteName: "origin",
		Tags:       git.NoTags,
		RefSpecs:   []gitcfg.RefSpec{"+refs/heads/*:refs/remotes/origin/*"},
	}
	if src.Depth > 0 {
		opts.Depth = src.Depth
	}
	if err := repo.FetchContext(ctx, opts); err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("fetch: %w", err)
	}
	return nil
}

// resolveBranch picks the branch to track: the configured branch, then
// the current HEAD branch, then the remote default, then main.
func resolveBranch(repo *git.Repository, src Source) string {
	if src.Branch != "" {
		return src.Branch
	}
	if headRef, err := repo.Head(); err == nil && headRef.Name().IsBranch() {
		return headRef.Name().Short()
	}
	if ref, err := repo.Reference(plumbing.ReferenceName("refs/remotes/origin/HEAD"), true); err == nil {
		if target := ref.Target(); target != "" {
			return plumbing.ReferenceName(target).Short()
		}
	}
	return "main"
}

// checkoutBranch ensures the local branch exists and is checked out,
// returning both the local and remote references.
func checkoutBranch(repo *git.Repository, wt *git.Worktree, branch string) (localRef, remoteRef *plumbing.Reference, err error) {
	localName := plumbing.NewBranchReferenceName(branch)
	remoteName := plumbing.NewRemoteReferenceName("origin", branch)

	remoteRef, err = repo.Reference(remoteName, true)
	if err != nil {
		return nil, nil, fmt.Errorf("remote ref %s: %w", remoteName, err)
	}

	localRef, lerr := repo.Reference(localName, true)
	if lerr != nil {
		if err = wt.Checkout(&git.CheckoutOptions{Branch: localName, Create: true, Force: true}); err != nil {
			return nil, nil, fmt.Errorf("checkout new branch: %w", err)
		}
		localRef, _ = repo.Reference(localName, true)
	} else {
		if err = wt.Checkout(&git.CheckoutOptions{Branch: localName, Force: true}); err != nil {
			return nil, nil, fmt.Errorf("checkout existing branch: %w", err)
		}
	}
	return localRef, remoteRef, nil
}

// isAncestor reports whether a is reachable from b.
func isAncestor(repo *git.Repository, a, b plumbing.Hash) (bool, error) {
	if a == b {
		return true, nil
	}
	seen := map[plumbing.Hash]struct{}{}
	queue := []plumbing.Hash{b}
	for len(queue) > 0 {
		h := queue[0]
		queue = queue[1:]
		if h == a {
			return true, nil
		}
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		commit, err := repo.CommitObject(h)
		if err != nil {
			return false, err
		}
		queue = append(queue, commit.ParentHashes...)
	}
	return false, nil
}

func classify(op, url string, err error) error {
	l := strings.ToLower(err.Error())
	switch {
	case strings.Contains(l, "authentication") || strings.Contains(l, "auth fail") || strings.Contains(l, "invalid username or password"):
		return &AuthError{Op: op, URL: url, Err: err}
	case strings.Contains(l, "not found") || strings.Contains(l, "repository does not exist"):
		return &NotFoundError{Op: op, URL: url, Err: err}
	default:
		return fmt.Errorf("%s %s: %w", op, url, err)
	}
}

func shortHash(h plumbing.Hash) string {
	s := h.String()
	if len(s) > 8 {
		return s[:8]
	}
	return s
}
