// Package join aligns fetched activity mappings against a canonical
// repository list and any local mirrors.
package join

import (
	"context"
	"errors"
	"log/slog"

	"github.com/alanmeadows/refgraph/internal/activity"
	"github.com/alanmeadows/refgraph/internal/mirror"
)

// LocalOpener looks up the local mirror of a repository.
type LocalOpener interface {
	Open(ctx context.Context, repo activity.RepoID) (*mirror.Local, error)
}

// RepoAnalysis is the joined view of one repository.
type RepoAnalysis struct {
	Repo         activity.RepoID
	Issues       []activity.Issue
	PullRequests []activity.PullRequestRefs
	Commits      []activity.CommitRefs
	Local        *mirror.Local
}

// LocalAvailable reports whether a local mirror was found.
func (a *RepoAnalysis) LocalAvailable() bool {
	return a.Local != nil
}

// LinkedPullRequests returns the pull requests that reference at least one
// issue.
func (a *RepoAnalysis) LinkedPullRequests() []activity.PullRequestRefs {
	var out []activity.PullRequestRefs
	for _, pr := range a.PullRequests {
		if len(pr.Issues) > 0 {
			out = append(out, pr)
		}
	}
	return out
}

// Align produces one RepoAnalysis per entry of repos, in that order.
// Repositories missing from a mapping get empty lists. opener may be nil;
// otherwise a failed lookup leaves Local unset.
func Align(ctx context.Context, repos []activity.RepoID, m *activity.Mappings, opener LocalOpener) []*RepoAnalysis {
	if m == nil {
		m = activity.NewMappings()
	}

	analyses := make([]*RepoAnalysis, 0, len(repos))
	for _, repo := range repos {
		key := repo.String()
		a := &RepoAnalysis{
			Repo:         repo,
			Issues:       orEmpty(m.Issues[key]),
			PullRequests: orEmpty(m.PullRequests[key]),
			Commits:      orEmpty(m.Commits[key]),
		}

		if opener != nil {
			local, err := opener.Open(ctx, repo)
			switch {
			case err == nil:
				a.Local = local
			case errors.Is(err, mirror.ErrNotFound):
				slog.Debug("no local mirror", "repo", key)
			default:
				slog.Warn("opening local mirror", "repo", key, "error", err)
			}
		}

		analyses = append(analyses, a)
	}
	return analyses
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
