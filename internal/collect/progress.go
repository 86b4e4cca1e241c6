package collect

import (
	"log/slog"
	"sync/atomic"
	"time"
)

// Progress is told about a batch as it runs. Done is called exactly once per
// completed repository, possibly from several goroutines at once.
type Progress interface {
	Start(total int)
	Done(res *RepoResult)
	Finish()
}

// NopProgress discards all progress.
type NopProgress struct{}

func (NopProgress) Start(int)        {}
func (NopProgress) Done(*RepoResult) {}
func (NopProgress) Finish()          {}

// LogProgress reports progress through slog.
type LogProgress struct {
	total     atomic.Int64
	completed atomic.Int64
	degraded  atomic.Int64
	started   time.Time
}

// NewLogProgress returns a LogProgress.
func NewLogProgress() *LogProgress {
	return &LogProgress{}
}

func (p *LogProgress) Start(total int) {
	p.total.Store(int64(total))
	p.completed.Store(0)
	p.degraded.Store(0)
	p.started = time.Now()
	slog.Info("starting batch", "repositories", total)
}

func (p *LogProgress) Done(res *RepoResult) {
	n := p.completed.Add(1)
	if res.Degraded() {
		p.degraded.Add(1)
	}
	slog.Info("completed repository",
		"repo", res.Repo.String(),
		"progress", n,
		"total", p.total.Load(),
		"pulls", len(res.PullRequests),
		"commits", len(res.Commits),
		"issues", len(res.Issues),
	)
}

func (p *LogProgress) Finish() {
	slog.Info("batch finished",
		"completed", p.completed.Load(),
		"degraded", p.degraded.Load(),
		"elapsed", time.Since(p.started).Round(time.Millisecond),
	)
}

// Completed returns the number of repositories reported done.
func (p *LogProgress) Completed() int {
	return int(p.completed.Load())
}
