package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// PageSize is the page size requested from the upstream API.
const PageSize = 100

// ErrInitialPage tags a failure of the very first page request.
var ErrInitialPage = errors.New("initial page request failed")

// Status describes how a paginated fetch ended.
type Status string

const (
	// StatusComplete means every page was retrieved.
	StatusComplete Status = "complete"
	// StatusPartial means a later page failed; earlier pages are kept.
	StatusPartial Status = "partial"
	// StatusFailed means the first page failed and nothing was retrieved.
	StatusFailed Status = "failed"
)

// PageFunc requests one page. cursor is empty for the first page; next is
// the continuation token for the following page, empty when exhausted.
type PageFunc[T any] func(ctx context.Context, cursor string) (items []T, next string, err error)

// Outcome records how a fetch went, without the data.
type Outcome struct {
	Status Status `json:"status"`
	Pages  int    `json:"pages"`
	Count  int    `json:"count"`
	Err    error  `json:"-"`
}

// Degraded reports whether the fetch stopped early.
func (o Outcome) Degraded() bool {
	return o.Status != StatusComplete
}

// Result is the accumulated data of a fetch plus its Outcome. A degraded
// Result still carries everything retrieved before the failure.
type Result[T any] struct {
	Items []T
	Outcome
}

// Label names the fetch in log output, e.g. "acme/widgets pulls".
type Label struct {
	Repo string
	Kind string
}

// All requests pages until no continuation token is returned. Errors never
// escape: a failed first page yields an empty, failed Result, and a failed
// later page yields the items gathered so far. There are no retries.
func All[T any](ctx context.Context, label Label, page PageFunc[T]) Result[T] {
	res := Result[T]{Items: make([]T, 0)}

	items, next, err := page(ctx, "")
	if err != nil {
		slog.Warn("failed to fetch first page", "repo", label.Repo, "kind", label.Kind, "error", err)
		res.Status = StatusFailed
		res.Err = fmt.Errorf("%w: %w", ErrInitialPage, err)
		return res
	}
	res.Pages = 1
	res.Items = append(res.Items, items...)

	for next != "" {
		cursor := next
		items, next, err = page(ctx, cursor)
		if err != nil {
			slog.Warn("failed to fetch next page",
				"repo", label.Repo, "kind", label.Kind, "page", res.Pages+1, "error", err)
			res.Status = StatusPartial
			res.Err = fmt.Errorf("page %d: %w", res.Pages+1, err)
			res.Count = len(res.Items)
			return res
		}
		res.Pages++
		res.Items = append(res.Items, items...)
	}

	res.Status = StatusComplete
	res.Count = len(res.Items)
	slog.Debug("fetched all pages", "repo", label.Repo, "kind", label.Kind, "pages", res.Pages, "count", res.Count)
	return res
}
