// Package mirror manages on-disk clones of repositories at deterministic
// paths keyed by owner and name.
package mirror

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"text/template"
	"time"

	"github.com/alanmeadows/refgraph/internal/activity"
	"github.com/alanmeadows/refgraph/internal/store"
)

// ErrNotFound is returned by Open when no mirror exists for a repository.
var ErrNotFound = errors.New("local mirror not found")

const (
	DefaultBaseDir   = "repos"
	DefaultSeparator = "__"
	DefaultCloneURL  = "https://github.com/{{.Owner}}/{{.Name}}.git"
)

// Local is an opened mirror.
type Local struct {
	Repo   activity.RepoID
	Path   string
	Head   string
	Branch string
	Remote string
}

// Manager locates, clones and removes mirrors under BaseDir.
type Manager struct {
	BaseDir     string
	Separator   string
	CloneURL    string // text/template with .Owner and .Name
	LockTimeout time.Duration
}

// NewManager returns a Manager rooted at baseDir with default settings.
func NewManager(baseDir string) *Manager {
	if baseDir == "" {
		baseDir = DefaultBaseDir
	}
	return &Manager{
		BaseDir:     baseDir,
		Separator:   DefaultSeparator,
		CloneURL:    DefaultCloneURL,
		LockTimeout: store.DefaultLockTimeout,
	}
}

// Path returns where the mirror of repo lives.
func (m *Manager) Path(repo activity.RepoID) string {
	sep := m.Separator
	if sep == "" {
		sep = DefaultSeparator
	}
	return filepath.Join(m.BaseDir, repo.Owner+sep+repo.Name)
}

// URL renders the clone URL for repo.
func (m *Manager) URL(repo activity.RepoID) (string, error) {
	tmpl := m.CloneURL
	if tmpl == "" {
		tmpl = DefaultCloneURL
	}
	t, err := template.New("clone_url").Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("parsing clone URL template: %w", err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, repo); err != nil {
		return "", fmt.Errorf("executing clone URL template: %w", err)
	}
	return buf.String(), nil
}

// Open looks up the mirror of repo without modifying anything. It returns
// an error wrapping ErrNotFound when the path is missing or is not the top
// of a git work tree. If the mirror has a lock file, Open holds a shared
// lock on it so it never inspects a clone or removal in progress.
func (m *Manager) Open(ctx context.Context, repo activity.RepoID) (*Local, error) {
	path := m.Path(repo)
	if !store.Exists(path + ".lock") {
		return m.open(ctx, repo, path)
	}

	var local *Local
	err := store.WithReadLock(ctx, path, m.LockTimeout, func() error {
		var err error
		local, err = m.open(ctx, repo, path)
		return err
	})
	return local, err
}

func (m *Manager) open(ctx context.Context, repo activity.RepoID, path string) (*Local, error) {

	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	top, err := git(ctx, path, "rev-parse", "--show-toplevel")
	if err != nil || !samePath(top, path) {
		return nil, fmt.Errorf("%w: %s is not a git work tree", ErrNotFound, path)
	}

	local := &Local{Repo: repo, Path: path}
	// An empty repository has no HEAD commit yet.
	local.Head, _ = git(ctx, path, "rev-parse", "--verify", "-q", "HEAD")
	local.Branch, _ = git(ctx, path, "symbolic-ref", "--short", "-q", "HEAD")
	local.Remote, _ = git(ctx, path, "remote", "get-url", "origin")

	if local.Remote != "" && !local.Matches(repo) {
		slog.Warn("mirror origin does not match repository",
			"repo", repo.String(), "path", path, "remote", local.Remote)
	}

	return local, nil
}

// Clone creates the mirror of repo if it does not exist yet, then opens it.
// Concurrent clones of the same repository are serialized with a file lock.
func (m *Manager) Clone(ctx context.Context, repo activity.RepoID) (*Local, error) {
	path := m.Path(repo)
	url, err := m.URL(repo)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(m.BaseDir, 0755); err != nil {
		return nil, fmt.Errorf("creating mirror directory %s: %w", m.BaseDir, err)
	}

	err = store.WithLock(ctx, path, m.LockTimeout, func() error {
		if store.Exists(path) {
			slog.Debug("mirror already present", "repo", repo.String(), "path", path)
			return nil
		}

		slog.Info("cloning repository", "repo", repo.String(), "path", path)
		if _, err := git(ctx, "", "clone", "--quiet", url, path); err != nil {
			// Leave no half-written mirror behind for Open to find.
			os.RemoveAll(path)
			return fmt.Errorf("cloning %s: %w", repo, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return m.Open(ctx, repo)
}

// Remove deletes the mirror of repo. Removing a missing mirror is not an
// error.
func (m *Manager) Remove(ctx context.Context, repo activity.RepoID) error {
	path := m.Path(repo)
	if !store.Exists(m.BaseDir) {
		return nil
	}

	return store.WithLock(ctx, path, m.LockTimeout, func() error {
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("removing mirror %s: %w", path, err)
		}
		return nil
	})
}

// CloneResult is the outcome of cloning one repository.
type CloneResult struct {
	Repo  activity.RepoID
	Local *Local
	Err   error
}

// CloneAll clones repos with at most maxParallel clones running at once.
// Failures are logged and recorded; the remaining repositories continue.
// Results are returned in the order of repos.
func (m *Manager) CloneAll(ctx context.Context, repos []activity.RepoID, maxParallel int) []CloneResult {
	if maxParallel < 1 {
		maxParallel = 1
	}

	results := make([]CloneResult, len(repos))
	sem := make(chan struct{}, maxParallel)
	var wg sync.WaitGroup

	for i, repo := range repos {
		wg.Add(1)
		go func(i int, repo activity.RepoID) {
			defer wg.Done()
			results[i].Repo = repo

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[i].Err = ctx.Err()
				return
			}

			local, err := m.Clone(ctx, repo)
			if err != nil {
				slog.Warn("clone failed", "repo", repo.String(), "error", err)
			}
			results[i].Local = local
			results[i].Err = err
		}(i, repo)
	}

	wg.Wait()
	return results
}
