package github

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	github_ratelimit "github.com/gofri/go-github-ratelimit/v2/github_ratelimit"
	gh "github.com/google/go-github/v82/github"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/alanmeadows/refgraph/internal/activity"
	"github.com/alanmeadows/refgraph/internal/fetch"
	"github.com/alanmeadows/refgraph/internal/provider"
)

// Backend implements provider.Source for GitHub.
type Backend struct {
	client     *gh.Client
	httpClient *http.Client
	gqlOnce    sync.Once
	gqlClient  *githubv4.Client
	limiter    *rate.Limiter
	token      string
	baseURL    string
	graphqlURL string
}

// Option configures a Backend.
type Option func(*Backend)

// WithBaseURL points the backend at a GitHub Enterprise Server API root,
// e.g. "https://ghe.example.com/api/v3/".
func WithBaseURL(baseURL string) Option {
	return func(b *Backend) {
		b.baseURL = baseURL
	}
}

// WithRequestsPerSecond throttles requests to rps. Zero disables throttling.
func WithRequestsPerSecond(rps float64) Option {
	return func(b *Backend) {
		if rps > 0 {
			b.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// NewBackend creates a new GitHub backend authenticated with token.
// Uses go-github-ratelimit middleware for secondary rate limit handling.
func NewBackend(token string, opts ...Option) (*Backend, error) {
	rateLimiter := github_ratelimit.NewClient(nil)
	client := gh.NewClient(rateLimiter)
	if token != "" {
		client = client.WithAuthToken(token)
	}

	b := &Backend{client: client, httpClient: rateLimiter, token: token}
	for _, opt := range opts {
		opt(b)
	}

	if b.baseURL != "" {
		enterprise, err := client.WithEnterpriseURLs(b.baseURL, b.baseURL)
		if err != nil {
			return nil, fmt.Errorf("configuring base URL %q: %w", b.baseURL, err)
		}
		b.client = enterprise
		b.graphqlURL = enterpriseGraphQLURL(b.baseURL)
	}

	return b, nil
}

// Name returns "github".
func (b *Backend) Name() string {
	return "github"
}

// ListPullRequests returns one page of pull requests in every state.
func (b *Backend) ListPullRequests(ctx context.Context, repo activity.RepoID, cursor string) ([]activity.PullRequest, string, error) {
	page, err := parseCursor(cursor)
	if err != nil {
		return nil, "", err
	}
	if err := b.wait(ctx); err != nil {
		return nil, "", err
	}

	opts := &gh.PullRequestListOptions{
		State:       "all",
		ListOptions: gh.ListOptions{PerPage: fetch.PageSize, Page: page},
	}
	prs, resp, err := b.client.PullRequests.List(ctx, repo.Owner, repo.Name, opts)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list pull requests for %s: %w", repo, err)
	}

	out := make([]activity.PullRequest, 0, len(prs))
	for _, pr := range prs {
		out = append(out, mapPR(pr))
	}
	return out, nextCursor(resp), nil
}

// ListCommits returns one page of commits on the default branch.
func (b *Backend) ListCommits(ctx context.Context, repo activity.RepoID, cursor string) ([]activity.Commit, string, error) {
	page, err := parseCursor(cursor)
	if err != nil {
		return nil, "", err
	}
	if err := b.wait(ctx); err != nil {
		return nil, "", err
	}

	opts := &gh.CommitsListOptions{
		ListOptions: gh.ListOptions{PerPage: fetch.PageSize, Page: page},
	}
	commits, resp, err := b.client.Repositories.ListCommits(ctx, repo.Owner, repo.Name, opts)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list commits for %s: %w", repo, err)
	}

	out := make([]activity.Commit, 0, len(commits))
	for _, c := range commits {
		out = append(out, mapCommit(c))
	}
	return out, nextCursor(resp), nil
}

// ListIssues returns one page of issues in every state. GitHub includes
// pull requests in this listing; they are kept and flagged.
func (b *Backend) ListIssues(ctx context.Context, repo activity.RepoID, cursor string) ([]activity.Issue, string, error) {
	page, err := parseCursor(cursor)
	if err != nil {
		return nil, "", err
	}
	if err := b.wait(ctx); err != nil {
		return nil, "", err
	}

	opts := &gh.IssueListByRepoOptions{
		State:       "all",
		ListOptions: gh.ListOptions{PerPage: fetch.PageSize, Page: page},
	}
	issues, resp, err := b.client.Issues.ListByRepo(ctx, repo.Owner, repo.Name, opts)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list issues for %s: %w", repo, err)
	}

	out := make([]activity.Issue, 0, len(issues))
	for _, i := range issues {
		out = append(out, mapIssue(i))
	}
	return out, nextCursor(resp), nil
}

// ListOwnerRepositories returns one page of the repositories owned by a
// user or organization, using the GraphQL API.
func (b *Backend) ListOwnerRepositories(ctx context.Context, owner string, cursor string) ([]provider.RepositoryInfo, string, error) {
	if err := b.wait(ctx); err != nil {
		return nil, "", err
	}

	var q struct {
		RepositoryOwner struct {
			Repositories struct {
				Nodes []struct {
					NameWithOwner string
					IsArchived    bool
					IsFork        bool
				}
				PageInfo struct {
					EndCursor   githubv4.String
					HasNextPage bool
				}
			} `graphql:"repositories(first: $first, after: $cursor, orderBy: {field: NAME, direction: ASC})"`
		} `graphql:"repositoryOwner(login: $login)"`
	}

	vars := map[string]any{
		"login":  githubv4.String(owner),
		"first":  githubv4.Int(fetch.PageSize),
		"cursor": (*githubv4.String)(nil),
	}
	if cursor != "" {
		vars["cursor"] = githubv4.NewString(githubv4.String(cursor))
	}

	if err := b.getGraphQLClient(ctx).Query(ctx, &q, vars); err != nil {
		return nil, "", fmt.Errorf("failed to list repositories for %s: %w", owner, err)
	}

	conn := q.RepositoryOwner.Repositories
	out := make([]provider.RepositoryInfo, 0, len(conn.Nodes))
	for _, n := range conn.Nodes {
		id, err := activity.ParseRepoID(n.NameWithOwner)
		if err != nil {
			return nil, "", err
		}
		out = append(out, provider.RepositoryInfo{Repo: id, IsArchived: n.IsArchived, IsFork: n.IsFork})
	}

	next := ""
	if conn.PageInfo.HasNextPage {
		next = string(conn.PageInfo.EndCursor)
	}
	return out, next, nil
}

// --- Internal helpers ---

// wait blocks on the proactive limiter, if one is configured.
func (b *Backend) wait(ctx context.Context) error {
	if b.limiter == nil {
		return nil
	}
	if err := b.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	return nil
}

// getGraphQLClient returns (and lazily creates) the GitHub GraphQL client.
// It shares the rate-limited transport of the REST client and only adds
// an Authorization header when a token is set. Thread-safe via sync.Once.
func (b *Backend) getGraphQLClient(ctx context.Context) *githubv4.Client {
	b.gqlOnce.Do(func() {
		httpClient := b.httpClient
		if httpClient == nil {
			httpClient = http.DefaultClient
		}
		if b.token != "" {
			ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: b.token})
			httpClient = oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, httpClient), ts)
		}
		if b.graphqlURL != "" {
			b.gqlClient = githubv4.NewEnterpriseClient(b.graphqlURL, httpClient)
		} else {
			b.gqlClient = githubv4.NewClient(httpClient)
		}
	})
	return b.gqlClient
}

// parseCursor turns a continuation token into a go-github page number.
// The empty cursor is the first page.
func parseCursor(cursor string) (int, error) {
	if cursor == "" {
		return 0, nil
	}
	page, err := strconv.Atoi(cursor)
	if err != nil || page < 1 {
		return 0, fmt.Errorf("invalid page cursor %q", cursor)
	}
	return page, nil
}

// nextCursor returns the continuation token from the Link header, or "".
func nextCursor(resp *gh.Response) string {
	if resp == nil || resp.NextPage == 0 {
		return ""
	}
	return strconv.Itoa(resp.NextPage)
}

// enterpriseGraphQLURL derives the GraphQL endpoint from a REST base URL:
// https://host/api/v3/ -> https://host/api/graphql.
func enterpriseGraphQLURL(baseURL string) string {
	u := strings.TrimSuffix(baseURL, "/")
	u = strings.TrimSuffix(u, "/v3")
	if !strings.HasSuffix(u, "/api") {
		u += "/api"
	}
	return u + "/graphql"
}

// mapPR converts a GitHub PullRequest to activity.PullRequest.
func mapPR(pr *gh.PullRequest) activity.PullRequest {
	return activity.PullRequest{
		Number:    pr.GetNumber(),
		Title:     pr.Title,
		Body:      pr.Body,
		State:     pr.GetState(),
		Author:    pr.GetUser().GetLogin(),
		URL:       pr.GetHTMLURL(),
		CreatedAt: timePtr(pr.CreatedAt),
		MergedAt:  timePtr(pr.MergedAt),
		ClosedAt:  timePtr(pr.ClosedAt),
	}
}

func mapCommit(c *gh.RepositoryCommit) activity.Commit {
	out := activity.Commit{
		SHA:     c.GetSHA(),
		Message: c.GetCommit().GetMessage(),
		URL:     c.GetHTMLURL(),
	}
	if author := c.GetCommit().GetAuthor(); author != nil {
		out.Author = author.GetName()
		out.Date = timePtr(author.Date)
	}
	return out
}

func mapIssue(i *gh.Issue) activity.Issue {
	var labels []string
	for _, l := range i.Labels {
		labels = append(labels, l.GetName())
	}
	return activity.Issue{
		Number:      i.GetNumber(),
		Title:       i.GetTitle(),
		State:       i.GetState(),
		Author:      i.GetUser().GetLogin(),
		Labels:      labels,
		URL:         i.GetHTMLURL(),
		PullRequest: i.IsPullRequest(),
		CreatedAt:   timePtr(i.CreatedAt),
		ClosedAt:    timePtr(i.ClosedAt),
	}
}

func timePtr(ts *gh.Timestamp) *time.Time {
	if ts == nil {
		return nil
	}
	t := ts.Time
	return &t
}

// Verify Backend implements the provider interfaces at compile time.
var (
	_ provider.Source           = (*Backend)(nil)
	_ provider.RepositoryLister = (*Backend)(nil)
)
