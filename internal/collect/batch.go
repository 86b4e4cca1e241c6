package collect

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/alanmeadows/refgraph/internal/activity"
)

// DefaultMaxParallel bounds how many repositories are processed at once.
const DefaultMaxParallel = 4

// Batch runs a Processor over a list of repositories.
type Batch struct {
	processor   *Processor
	maxParallel int
	progress    Progress
}

// BatchOption configures a Batch.
type BatchOption func(*Batch)

// WithMaxParallel sets the number of repositories processed concurrently.
func WithMaxParallel(n int) BatchOption {
	return func(b *Batch) {
		if n > 0 {
			b.maxParallel = n
		}
	}
}

// WithProgress sets the progress reporter. The default reports nothing.
func WithProgress(p Progress) BatchOption {
	return func(b *Batch) {
		if p != nil {
			b.progress = p
		}
	}
}

// NewBatch creates a Batch around processor.
func NewBatch(processor *Processor, opts ...BatchOption) *Batch {
	b := &Batch{
		processor:   processor,
		maxParallel: DefaultMaxParallel,
		progress:    NopProgress{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BatchResult holds the mappings of a run plus the per-repository results
// they were built from.
type BatchResult struct {
	Mappings *activity.Mappings
	Results  map[string]*RepoResult
}

// Degraded returns the repositories where at least one fetch stopped early,
// sorted by identifier.
func (r *BatchResult) Degraded() []activity.RepoID {
	var out []activity.RepoID
	for _, res := range r.Results {
		if res.Degraded() {
			out = append(out, res.Repo)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// Run processes every repository with bounded parallelism and returns the
// mappings keyed by "owner/name".
//
// A repository with no issues is left out of the issues mapping, while
// pull request and commit lists are recorded even when empty. Repositories
// not yet started when ctx is cancelled are skipped. A repository listed
// more than once is processed once.
func (b *Batch) Run(ctx context.Context, repos []activity.RepoID, kinds []activity.Kind) *BatchResult {
	if unique := activity.UniqueRepos(repos); len(unique) != len(repos) {
		slog.Warn("ignoring repeated repositories", "listed", len(repos), "unique", len(unique))
		repos = unique
	}

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		out = &BatchResult{
			Mappings: activity.NewMappings(),
			Results:  make(map[string]*RepoResult, len(repos)),
		}
	)

	b.progress.Start(len(repos))
	sem := make(chan struct{}, b.maxParallel)

	for _, repo := range repos {
		wg.Add(1)
		go func(repo activity.RepoID) {
			defer wg.Done()

			if err := ctx.Err(); err != nil {
				slog.Warn("skipping repository", "repo", repo.String(), "error", err)
				return
			}

			// Acquire semaphore slot.
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				slog.Warn("skipping repository", "repo", repo.String(), "error", ctx.Err())
				return
			}

			res := b.processor.Process(ctx, repo, kinds)

			mu.Lock()
			out.record(res)
			mu.Unlock()

			b.progress.Done(res)
		}(repo)
	}

	wg.Wait()
	b.progress.Finish()
	return out
}

// record inserts res into the mappings. Callers hold the lock.
func (r *BatchResult) record(res *RepoResult) {
	key := res.Repo.String()
	r.Results[key] = res

	if res.Fetched(activity.KindIssues) && len(res.Issues) > 0 {
		r.Mappings.Issues[key] = res.Issues
	}
	if res.Fetched(activity.KindPullRequests) {
		r.Mappings.PullRequests[key] = res.PullRequests
	}
	if res.Fetched(activity.KindCommits) {
		r.Mappings.Commits[key] = res.Commits
	}
}
