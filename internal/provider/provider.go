package provider

//go:generate mockgen -destination=mock_source.go -package=provider . Source

import (
	"context"

	"github.com/alanmeadows/refgraph/internal/activity"
)

// Source is a read-only, page-at-a-time view of a hosted source-control API.
// Implementations must be safe for concurrent use by many callers.
//
// Every List method takes an opaque cursor (empty for the first page) and
// returns the items of that page together with the cursor of the next page,
// or an empty cursor when the listing is exhausted.
type Source interface {
	// Name returns the short identifier for this source (e.g., "github").
	Name() string

	// ListPullRequests returns one page of pull requests in any state.
	ListPullRequests(ctx context.Context, repo activity.RepoID, cursor string) ([]activity.PullRequest, string, error)

	// ListCommits returns one page of commits on the default branch.
	ListCommits(ctx context.Context, repo activity.RepoID, cursor string) ([]activity.Commit, string, error)

	// ListIssues returns one page of issues in any state.
	ListIssues(ctx context.Context, repo activity.RepoID, cursor string) ([]activity.Issue, string, error)
}

// RepositoryLister lists the repositories owned by a user or organization.
type RepositoryLister interface {
	ListOwnerRepositories(ctx context.Context, owner string, cursor string) ([]RepositoryInfo, string, error)
}

// RepositoryInfo describes a repository discovered through RepositoryLister.
type RepositoryInfo struct {
	Repo       activity.RepoID
	IsArchived bool
	IsFork     bool
}
