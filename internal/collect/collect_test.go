package collect

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/alanmeadows/refgraph/internal/activity"
	"github.com/alanmeadows/refgraph/internal/fetch"
	"github.com/alanmeadows/refgraph/internal/provider"
)

var (
	acme  = activity.RepoID{Owner: "acme", Name: "widgets"}
	other = activity.RepoID{Owner: "x", Name: "y"}
)

func strPtr(s string) *string { return &s }

func newMockSource(t *testing.T) *provider.MockSource {
	t.Helper()
	ctrl := gomock.NewController(t)
	src := provider.NewMockSource(ctrl)
	src.EXPECT().Name().Return("mock").AnyTimes()
	return src
}

// numberedPRs returns PRs numbered from..to inclusive; #5 is titled "Fix #10".
func numberedPRs(from, to int) []activity.PullRequest {
	prs := make([]activity.PullRequest, 0, to-from+1)
	for n := from; n <= to; n++ {
		pr := activity.PullRequest{Number: n, State: "open"}
		if n == 5 {
			pr.Title = strPtr("Fix #10")
		}
		prs = append(prs, pr)
	}
	return prs
}

func TestProcess_PullRequestsAcrossPages(t *testing.T) {
	src := newMockSource(t)
	gomock.InOrder(
		src.EXPECT().ListPullRequests(gomock.Any(), acme, "").Return(numberedPRs(1, 100), "2", nil),
		src.EXPECT().ListPullRequests(gomock.Any(), acme, "2").Return(numberedPRs(101, 150), "", nil),
	)

	res := NewProcessor(src, nil).Process(t.Context(), acme, []activity.Kind{activity.KindPullRequests})

	require.Len(t, res.PullRequests, 150)
	for _, pr := range res.PullRequests {
		if pr.PullRequest.Number == 5 {
			assert.Equal(t, []string{"10"}, pr.Issues)
		} else {
			assert.NotNil(t, pr.Issues)
			assert.Empty(t, pr.Issues, "PR #%d", pr.PullRequest.Number)
		}
	}
	assert.Equal(t, fetch.Outcome{Status: fetch.StatusComplete, Pages: 2, Count: 150}, res.Outcomes[activity.KindPullRequests])
	assert.False(t, res.Degraded())
}

func TestProcess_PullRequestWithoutTitleOrBodyIsKept(t *testing.T) {
	src := newMockSource(t)
	src.EXPECT().ListPullRequests(gomock.Any(), acme, "").
		Return([]activity.PullRequest{{Number: 1}}, "", nil)

	res := NewProcessor(src, nil).Process(t.Context(), acme, []activity.Kind{activity.KindPullRequests})

	require.Len(t, res.PullRequests, 1)
	assert.Equal(t, 1, res.PullRequests[0].PullRequest.Number)
	assert.Empty(t, res.PullRequests[0].Issues)
}

func TestProcess_PullRequestReferencesFromTitleAndBody(t *testing.T) {
	src := newMockSource(t)
	src.EXPECT().ListPullRequests(gomock.Any(), acme, "").Return([]activity.PullRequest{{
		Number: 2,
		Title:  strPtr("closes #7"),
		Body:   strPtr("see https://github.com/acme/widgets/issues/7"),
	}}, "", nil)

	res := NewProcessor(src, nil).Process(t.Context(), acme, []activity.Kind{activity.KindPullRequests})

	require.Len(t, res.PullRequests, 1)
	assert.Equal(t, []string{"7", "7"}, res.PullRequests[0].Issues)
}

func TestProcess_CommitsWithoutReferencesAreDropped(t *testing.T) {
	src := newMockSource(t)
	src.EXPECT().ListCommits(gomock.Any(), acme, "").Return([]activity.Commit{
		{SHA: "a1", Message: "fixes #42"},
		{SHA: "b2", Message: "refactor"},
		{SHA: "c3", Message: "Resolved #1 and #2"},
	}, "", nil)

	res := NewProcessor(src, nil).Process(t.Context(), acme, []activity.Kind{activity.KindCommits})

	require.Len(t, res.Commits, 2)
	assert.Equal(t, "a1", res.Commits[0].Commit.SHA)
	assert.Equal(t, []string{"42"}, res.Commits[0].Issues)
	assert.Equal(t, "c3", res.Commits[1].Commit.SHA)
	assert.Equal(t, []string{"1", "2"}, res.Commits[1].Issues)
	assert.Equal(t, 3, res.Outcomes[activity.KindCommits].Count)
}

func TestProcess_FailuresAreRecordedNotReturned(t *testing.T) {
	src := newMockSource(t)
	src.EXPECT().ListIssues(gomock.Any(), acme, "").Return(nil, "", errors.New("502 bad gateway"))
	gomock.InOrder(
		src.EXPECT().ListCommits(gomock.Any(), acme, "").Return([]activity.Commit{{SHA: "a1", Message: "#3"}}, "2", nil),
		src.EXPECT().ListCommits(gomock.Any(), acme, "2").Return(nil, "", errors.New("timeout")),
	)

	res := NewProcessor(src, nil).Process(t.Context(), acme, []activity.Kind{activity.KindCommits, activity.KindIssues})

	assert.True(t, res.Degraded())
	assert.Empty(t, res.Issues)
	assert.Equal(t, fetch.StatusFailed, res.Outcomes[activity.KindIssues].Status)
	assert.ErrorIs(t, res.Outcomes[activity.KindIssues].Err, fetch.ErrInitialPage)

	require.Len(t, res.Commits, 1)
	assert.Equal(t, fetch.StatusPartial, res.Outcomes[activity.KindCommits].Status)
}

func TestProcess_OnlyRequestedKinds(t *testing.T) {
	src := newMockSource(t)
	src.EXPECT().ListIssues(gomock.Any(), acme, "").Return([]activity.Issue{{Number: 1}}, "", nil)

	res := NewProcessor(src, nil).Process(t.Context(), acme, []activity.Kind{activity.KindIssues})

	assert.True(t, res.Fetched(activity.KindIssues))
	assert.False(t, res.Fetched(activity.KindCommits))
	assert.Len(t, res.Issues, 1)
	assert.Nil(t, res.PullRequests)
}

// countingProgress records calls from concurrent goroutines.
type countingProgress struct {
	mu       sync.Mutex
	total    int
	done     []string
	finished bool
}

func (p *countingProgress) Start(total int) { p.total = total }
func (p *countingProgress) Done(res *RepoResult) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done = append(p.done, res.Repo.String())
}
func (p *countingProgress) Finish() { p.finished = true }

func TestBatchRun_Mappings(t *testing.T) {
	src := newMockSource(t)

	// acme/widgets: 150 PRs over two pages, one referencing commit, issues.
	gomock.InOrder(
		src.EXPECT().ListPullRequests(gomock.Any(), acme, "").Return(numberedPRs(1, 100), "2", nil),
		src.EXPECT().ListPullRequests(gomock.Any(), acme, "2").Return(numberedPRs(101, 150), "", nil),
	)
	src.EXPECT().ListCommits(gomock.Any(), acme, "").Return([]activity.Commit{
		{SHA: "a1", Message: "fixes #10"},
		{SHA: "b2", Message: "docs"},
	}, "", nil)
	src.EXPECT().ListIssues(gomock.Any(), acme, "").Return([]activity.Issue{{Number: 10, State: "closed"}}, "", nil)

	// x/y: everything empty or failing.
	src.EXPECT().ListPullRequests(gomock.Any(), other, "").Return(nil, "", errors.New("404"))
	src.EXPECT().ListCommits(gomock.Any(), other, "").Return(nil, "", errors.New("404"))
	src.EXPECT().ListIssues(gomock.Any(), other, "").Return([]activity.Issue{}, "", nil)

	progress := &countingProgress{}
	batch := NewBatch(NewProcessor(src, nil), WithMaxParallel(2), WithProgress(progress))

	out := batch.Run(t.Context(), []activity.RepoID{acme, other}, activity.AllKinds)
	m := out.Mappings

	require.Contains(t, m.PullRequests, "acme/widgets")
	assert.Len(t, m.PullRequests["acme/widgets"], 150)
	require.Len(t, m.Commits["acme/widgets"], 1)
	assert.Equal(t, "a1", m.Commits["acme/widgets"][0].Commit.SHA)
	assert.Len(t, m.Issues["acme/widgets"], 1)

	// Empty PR and commit lists are recorded; empty issue lists are not.
	require.Contains(t, m.PullRequests, "x/y")
	assert.Empty(t, m.PullRequests["x/y"])
	require.Contains(t, m.Commits, "x/y")
	assert.Empty(t, m.Commits["x/y"])
	assert.NotContains(t, m.Issues, "x/y")

	assert.Equal(t, []activity.RepoID{other}, out.Degraded())
	assert.Equal(t, 2, progress.total)
	assert.ElementsMatch(t, []string{"acme/widgets", "x/y"}, progress.done)
	assert.True(t, progress.finished)
}

func TestBatchRun_ManyRepositoriesConcurrently(t *testing.T) {
	src := newMockSource(t)

	var repos []activity.RepoID
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		repo := activity.RepoID{Owner: "org", Name: name}
		repos = append(repos, repo)
		src.EXPECT().ListCommits(gomock.Any(), repo, "").
			Return([]activity.Commit{{SHA: name, Message: "closes #1"}}, "", nil)
	}

	progress := NewLogProgress()
	out := NewBatch(NewProcessor(src, nil), WithMaxParallel(3), WithProgress(progress)).
		Run(t.Context(), repos, []activity.Kind{activity.KindCommits})

	assert.Len(t, out.Mappings.Commits, len(repos))
	assert.Empty(t, out.Mappings.PullRequests)
	assert.Empty(t, out.Mappings.Issues)
	assert.Equal(t, len(repos), progress.Completed())
	for _, repo := range repos {
		assert.Equal(t, repo.Name, out.Mappings.Commits[repo.String()][0].Commit.SHA)
	}
}

func TestBatchRun_CancelledContextSkipsRepositories(t *testing.T) {
	src := newMockSource(t)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	progress := &countingProgress{}
	out := NewBatch(NewProcessor(src, nil), WithMaxParallel(1), WithProgress(progress)).
		Run(ctx, []activity.RepoID{acme}, activity.AllKinds)

	assert.Empty(t, out.Results)
	assert.Empty(t, progress.done)
	assert.Equal(t, 1, progress.total)
	assert.True(t, progress.finished)
}

func TestBatchRun_RepeatedRepositoryProcessedOnce(t *testing.T) {
	src := newMockSource(t)
	src.EXPECT().ListIssues(gomock.Any(), acme, "").
		Return([]activity.Issue{{Number: 1}}, "", nil).Times(1)

	progress := &countingProgress{}
	out := NewBatch(NewProcessor(src, nil), WithProgress(progress)).
		Run(t.Context(), []activity.RepoID{acme, acme}, []activity.Kind{activity.KindIssues})

	assert.Len(t, out.Results, 1)
	assert.Len(t, out.Mappings.Issues["acme/widgets"], 1)
	assert.Equal(t, 1, progress.total)
	assert.Equal(t, []string{"acme/widgets"}, progress.done)
}
