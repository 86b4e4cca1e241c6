package collect

import (
	"context"
	"log/slog"
	"slices"

	"github.com/alanmeadows/refgraph/internal/activity"
	"github.com/alanmeadows/refgraph/internal/fetch"
	"github.com/alanmeadows/refgraph/internal/provider"
	"github.com/alanmeadows/refgraph/internal/refs"
)

// RepoResult is everything collected for one repository.
type RepoResult struct {
	Repo         activity.RepoID
	Kinds        []activity.Kind
	Issues       []activity.Issue
	PullRequests []activity.PullRequestRefs
	Commits      []activity.CommitRefs
	Outcomes     map[activity.Kind]fetch.Outcome
}

// Fetched reports whether kind was requested for this repository.
func (r *RepoResult) Fetched(kind activity.Kind) bool {
	return slices.Contains(r.Kinds, kind)
}

// Degraded reports whether any requested kind stopped early.
func (r *RepoResult) Degraded() bool {
	for _, o := range r.Outcomes {
		if o.Degraded() {
			return true
		}
	}
	return false
}

// Processor fetches and extracts references for a single repository.
type Processor struct {
	source    provider.Source
	extractor *refs.Extractor
}

// NewProcessor creates a Processor reading from source.
func NewProcessor(source provider.Source, extractor *refs.Extractor) *Processor {
	if extractor == nil {
		extractor = refs.NewExtractor()
	}
	return &Processor{source: source, extractor: extractor}
}

// Process fetches the requested kinds for repo. Pull requests keep every
// record, even with no references; commits keep only records whose message
// references at least one issue. Fetch failures are logged and recorded in
// Outcomes, never returned.
func (p *Processor) Process(ctx context.Context, repo activity.RepoID, kinds []activity.Kind) *RepoResult {
	slog.Info("processing repository", "repo", repo.String(), "source", p.source.Name())

	res := &RepoResult{
		Repo:     repo,
		Kinds:    kinds,
		Outcomes: make(map[activity.Kind]fetch.Outcome, len(kinds)),
	}

	for _, kind := range kinds {
		label := fetch.Label{Repo: repo.String(), Kind: string(kind)}

		switch kind {
		case activity.KindPullRequests:
			r := fetch.All(ctx, label, func(ctx context.Context, cursor string) ([]activity.PullRequest, string, error) {
				return p.source.ListPullRequests(ctx, repo, cursor)
			})
			res.Outcomes[kind] = r.Outcome
			res.PullRequests = p.pullRequestRefs(r.Items)

		case activity.KindCommits:
			r := fetch.All(ctx, label, func(ctx context.Context, cursor string) ([]activity.Commit, string, error) {
				return p.source.ListCommits(ctx, repo, cursor)
			})
			res.Outcomes[kind] = r.Outcome
			res.Commits = p.commitRefs(repo, r.Items)

		case activity.KindIssues:
			r := fetch.All(ctx, label, func(ctx context.Context, cursor string) ([]activity.Issue, string, error) {
				return p.source.ListIssues(ctx, repo, cursor)
			})
			res.Outcomes[kind] = r.Outcome
			res.Issues = r.Items
		}
	}

	return res
}

func (p *Processor) pullRequestRefs(prs []activity.PullRequest) []activity.PullRequestRefs {
	out := make([]activity.PullRequestRefs, 0, len(prs))
	for _, pr := range prs {
		out = append(out, activity.PullRequestRefs{
			PullRequest: pr,
			Issues:      p.extractor.Extract(pr.Title, pr.Body),
		})
	}
	return out
}

func (p *Processor) commitRefs(repo activity.RepoID, commits []activity.Commit) []activity.CommitRefs {
	out := make([]activity.CommitRefs, 0)
	for _, c := range commits {
		issues := p.extractor.ExtractText(c.Message)
		if len(issues) == 0 {
			continue
		}
		slog.Debug("found issues in commit", "repo", repo.String(), "sha", c.SHA, "issues", issues)
		out = append(out, activity.CommitRefs{Commit: c, Issues: issues})
	}
	return out
}
