package activity

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrMalformedRepo is returned when a repository identifier is not of the
// form "owner/name". It is a caller contract violation and aborts a run.
var ErrMalformedRepo = errors.New("repository must be in format owner/name")

// Kind is one of the record kinds fetched per repository.
type Kind string

const (
	KindPullRequests Kind = "pulls"
	KindCommits      Kind = "commits"
	KindIssues       Kind = "issues"
)

// AllKinds lists every record kind in fetch order.
var AllKinds = []Kind{KindPullRequests, KindCommits, KindIssues}

// ParseKind maps a user-supplied kind name to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pulls", "pull", "prs", "pr", "pull_requests":
		return KindPullRequests, nil
	case "commits", "commit":
		return KindCommits, nil
	case "issues", "issue":
		return KindIssues, nil
	}
	return "", fmt.Errorf("unknown record kind %q", s)
}

// RepoID identifies a repository by owner and name.
type RepoID struct {
	Owner string
	Name  string
}

// ParseRepoID parses "owner/name". Exactly one separator is required and
// neither side may be empty.
func ParseRepoID(s string) (RepoID, error) {
	s = strings.TrimSpace(s)
	if strings.Count(s, "/") != 1 {
		return RepoID{}, fmt.Errorf("%w: %q", ErrMalformedRepo, s)
	}
	owner, name, _ := strings.Cut(s, "/")
	if owner == "" || name == "" {
		return RepoID{}, fmt.Errorf("%w: %q", ErrMalformedRepo, s)
	}
	return RepoID{Owner: owner, Name: name}, nil
}

// ParseRepoList parses every entry, failing on the first malformed one.
// Repeated repositories are kept once, at their first position.
func ParseRepoList(entries []string) ([]RepoID, error) {
	repos := make([]RepoID, 0, len(entries))
	for _, e := range entries {
		id, err := ParseRepoID(e)
		if err != nil {
			return nil, err
		}
		repos = append(repos, id)
	}
	return UniqueRepos(repos), nil
}

// UniqueRepos drops repeated repositories, keeping the first occurrence.
func UniqueRepos(repos []RepoID) []RepoID {
	seen := make(map[RepoID]struct{}, len(repos))
	out := make([]RepoID, 0, len(repos))
	for _, r := range repos {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}

// String returns "owner/name", the key used in every mapping.
func (r RepoID) String() string {
	return r.Owner + "/" + r.Name
}

// PullRequest is a pull request as returned by the upstream API.
// Title and Body are optional; timestamps are passed through untouched.
type PullRequest struct {
	Number    int        `json:"number"`
	Title     *string    `json:"title,omitempty"`
	Body      *string    `json:"body,omitempty"`
	State     string     `json:"state"`
	Author    string     `json:"author,omitempty"`
	URL       string     `json:"html_url,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	MergedAt  *time.Time `json:"merged_at,omitempty"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
}

// Commit is a commit on the default branch.
type Commit struct {
	SHA     string     `json:"sha"`
	Message string     `json:"message"`
	Author  string     `json:"author,omitempty"`
	Date    *time.Time `json:"date,omitempty"`
	URL     string     `json:"html_url,omitempty"`
}

// Issue is an issue (or a pull request listed through the issues API).
type Issue struct {
	Number      int        `json:"number"`
	Title       string     `json:"title"`
	State       string     `json:"state"`
	Author      string     `json:"author,omitempty"`
	Labels      []string   `json:"labels,omitempty"`
	URL         string     `json:"html_url,omitempty"`
	PullRequest bool       `json:"pull_request,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	ClosedAt    *time.Time `json:"closed_at,omitempty"`
}

// PullRequestRefs pairs a pull request with the issue numbers referenced
// from its title and body.
type PullRequestRefs struct {
	PullRequest PullRequest `json:"pull_request"`
	Issues      []string    `json:"issues"`
}

// CommitRefs pairs a commit with the issue numbers referenced from its message.
type CommitRefs struct {
	Commit Commit   `json:"commit"`
	Issues []string `json:"issues"`
}

// Mappings holds the three per-repository result maps, keyed by
// RepoID.String(). They round-trip through JSON unchanged.
type Mappings struct {
	Issues       map[string][]Issue           `json:"issues"`
	PullRequests map[string][]PullRequestRefs `json:"pulls"`
	Commits      map[string][]CommitRefs      `json:"commits"`
}

// NewMappings returns empty, non-nil mappings.
func NewMappings() *Mappings {
	return &Mappings{
		Issues:       make(map[string][]Issue),
		PullRequests: make(map[string][]PullRequestRefs),
		Commits:      make(map[string][]CommitRefs),
	}
}
