package mirror

import (
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanmeadows/refgraph/internal/activity"
	"github.com/alanmeadows/refgraph/internal/store"
)

var widgets = activity.RepoID{Owner: "acme", Name: "widgets"}

func runGit(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v failed: %s", args, string(out))
	return string(out)
}

// initGitRepo creates a repository with a single empty commit.
func initGitRepo(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	runGit(t, dir, "init")
	runGit(t, dir, "config", "user.email", "test@test.com")
	runGit(t, dir, "config", "user.name", "Test")
	runGit(t, dir, "commit", "--allow-empty", "-m", "initial")
}

// newSourceManager returns a Manager whose clone URL points at local
// repositories under a temp source root.
func newSourceManager(t *testing.T) (*Manager, string) {
	t.Helper()
	root := t.TempDir()
	m := NewManager(filepath.Join(root, "mirrors"))
	m.CloneURL = filepath.Join(root, "src", "{{.Owner}}", "{{.Name}}")
	return m, filepath.Join(root, "src")
}

func TestPath(t *testing.T) {
	tests := []struct {
		name string
		mgr  *Manager
		want string
	}{
		{"default", NewManager(""), filepath.Join("repos", "acme__widgets")},
		{"custom base", NewManager("/data/mirrors"), filepath.Join("/data/mirrors", "acme__widgets")},
		{"custom separator", &Manager{BaseDir: "repos", Separator: "-"}, filepath.Join("repos", "acme-widgets")},
		{"empty separator", &Manager{BaseDir: "repos"}, filepath.Join("repos", "acme__widgets")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.mgr.Path(widgets))
		})
	}
}

func TestURL(t *testing.T) {
	url, err := NewManager("").URL(widgets)
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/acme/widgets.git", url)

	m := &Manager{CloneURL: "git@ghe.example.com:{{.Owner}}/{{.Name}}.git"}
	url, err = m.URL(widgets)
	require.NoError(t, err)
	assert.Equal(t, "git@ghe.example.com:acme/widgets.git", url)

	m.CloneURL = "{{.Owner"
	_, err = m.URL(widgets)
	assert.Error(t, err)
}

func TestOpen_Missing(t *testing.T) {
	m := NewManager(t.TempDir())

	_, err := m.Open(t.Context(), widgets)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOpen_NotAGitRepository(t *testing.T) {
	m := NewManager(t.TempDir())
	require.NoError(t, os.MkdirAll(m.Path(widgets), 0755))

	_, err := m.Open(t.Context(), widgets)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOpen_NestedInsideAnotherRepository(t *testing.T) {
	base := t.TempDir()
	initGitRepo(t, base)
	m := NewManager(base)
	require.NoError(t, os.MkdirAll(m.Path(widgets), 0755))

	_, err := m.Open(t.Context(), widgets)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOpen_Existing(t *testing.T) {
	m := NewManager(t.TempDir())
	path := m.Path(widgets)
	initGitRepo(t, path)
	runGit(t, path, "remote", "add", "origin", "https://github.com/acme/widgets.git")

	local, err := m.Open(t.Context(), widgets)
	require.NoError(t, err)
	assert.Equal(t, path, local.Path)
	assert.Len(t, local.Head, 40)
	assert.NotEmpty(t, local.Branch)
	assert.True(t, local.Matches(widgets))
}

func TestOpen_WaitsForWriter(t *testing.T) {
	m := NewManager(t.TempDir())
	m.LockTimeout = 200 * time.Millisecond
	path := m.Path(widgets)
	initGitRepo(t, path)

	// No lock file yet: Open must not create one.
	_, err := m.Open(t.Context(), widgets)
	require.NoError(t, err)
	assert.NoFileExists(t, path+".lock")

	locked := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- store.WithLock(t.Context(), path, time.Second, func() error {
			close(locked)
			<-release
			return nil
		})
	}()
	<-locked

	_, err = m.Open(t.Context(), widgets)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)

	close(release)
	require.NoError(t, <-done)

	local, err := m.Open(t.Context(), widgets)
	require.NoError(t, err)
	assert.Equal(t, path, local.Path)
}

func TestClone(t *testing.T) {
	m, src := newSourceManager(t)
	srcRepo := filepath.Join(src, "acme", "widgets")
	initGitRepo(t, srcRepo)
	wantHead := runGit(t, srcRepo, "rev-parse", "HEAD")

	local, err := m.Clone(t.Context(), widgets)
	require.NoError(t, err)
	assert.Equal(t, m.Path(widgets), local.Path)
	assert.Equal(t, wantHead[:40], local.Head)

	// Second clone is a no-op that opens the same mirror.
	again, err := m.Clone(t.Context(), widgets)
	require.NoError(t, err)
	assert.Equal(t, local.Head, again.Head)

	opened, err := m.Open(t.Context(), widgets)
	require.NoError(t, err)
	assert.Equal(t, local.Head, opened.Head)
}

func TestClone_FailureLeavesNothing(t *testing.T) {
	m, _ := newSourceManager(t)

	_, err := m.Clone(t.Context(), widgets)
	require.Error(t, err)
	assert.NoDirExists(t, m.Path(widgets))

	_, err = m.Open(t.Context(), widgets)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCloneConcurrentSameRepository(t *testing.T) {
	m, src := newSourceManager(t)
	initGitRepo(t, filepath.Join(src, "acme", "widgets"))

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = m.Clone(t.Context(), widgets)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
}

func TestRemove(t *testing.T) {
	m, src := newSourceManager(t)
	initGitRepo(t, filepath.Join(src, "acme", "widgets"))

	_, err := m.Clone(t.Context(), widgets)
	require.NoError(t, err)

	require.NoError(t, m.Remove(t.Context(), widgets))
	assert.NoDirExists(t, m.Path(widgets))

	_, err = m.Open(t.Context(), widgets)
	assert.ErrorIs(t, err, ErrNotFound)

	// Removing again is fine.
	assert.NoError(t, m.Remove(t.Context(), widgets))
}

func TestCloneAll(t *testing.T) {
	m, src := newSourceManager(t)
	gadgets := activity.RepoID{Owner: "acme", Name: "gadgets"}
	missing := activity.RepoID{Owner: "acme", Name: "missing"}
	initGitRepo(t, filepath.Join(src, "acme", "widgets"))
	initGitRepo(t, filepath.Join(src, "acme", "gadgets"))

	results := m.CloneAll(t.Context(), []activity.RepoID{widgets, missing, gadgets}, 2)

	require.Len(t, results, 3)
	assert.Equal(t, widgets, results[0].Repo)
	assert.NoError(t, results[0].Err)
	assert.NotNil(t, results[0].Local)

	assert.Equal(t, missing, results[1].Repo)
	assert.Error(t, results[1].Err)
	assert.Nil(t, results[1].Local)

	assert.Equal(t, gadgets, results[2].Repo)
	assert.NoError(t, results[2].Err)
}

func TestNormalizeGitURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://github.com/Acme/Widgets.git", "github.com/acme/widgets"},
		{"git@github.com:acme/widgets.git", "github.com/acme/widgets"},
		{"http://github.com/acme/widgets/", "github.com/acme/widgets"},
		{"ssh://git@github.com/acme/widgets", "git@github.com/acme/widgets"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeGitURL(tt.in))
		})
	}
}

func TestMatches(t *testing.T) {
	assert.True(t, (&Local{Remote: "git@github.com:acme/widgets.git"}).Matches(widgets))
	assert.True(t, (&Local{Remote: "https://github.com/ACME/widgets"}).Matches(widgets))
	assert.False(t, (&Local{Remote: "https://github.com/acme/widgets-fork"}).Matches(widgets))
	assert.False(t, (&Local{Remote: ""}).Matches(widgets))
}
