package mirror

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/alanmeadows/refgraph/internal/activity"
)

// git runs a git subcommand in dir and returns its trimmed stdout.
func git(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	if dir != "" {
		cmd.Dir = dir
	}
	var stderr strings.Builder
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git %s: %s: %w", args[0], strings.TrimSpace(stderr.String()), err)
	}
	return strings.TrimSpace(string(out)), nil
}

// Matches reports whether the origin remote of l points at repo.
func (l *Local) Matches(repo activity.RepoID) bool {
	remote := normalizeGitURL(l.Remote)
	want := strings.ToLower(repo.Owner + "/" + repo.Name)
	return remote == want || strings.HasSuffix(remote, "/"+want)
}

// normalizeGitURL reduces a remote URL to a comparable host/path form.
func normalizeGitURL(url string) string {
	url = strings.TrimSpace(url)
	url = strings.TrimSuffix(url, "/")
	url = strings.TrimSuffix(url, ".git")

	// git@host:owner/repo → host/owner/repo
	if strings.HasPrefix(url, "git@") {
		url = strings.TrimPrefix(url, "git@")
		url = strings.Replace(url, ":", "/", 1)
	}

	for _, scheme := range []string{"https://", "http://", "ssh://", "file://"} {
		url = strings.TrimPrefix(url, scheme)
	}

	return strings.ToLower(url)
}

func samePath(a, b string) bool {
	ra, err := filepath.EvalSymlinks(a)
	if err != nil {
		return false
	}
	rb, err := filepath.EvalSymlinks(b)
	if err != nil {
		return false
	}
	ra, _ = filepath.Abs(ra)
	rb, _ = filepath.Abs(rb)
	return ra == rb
}
