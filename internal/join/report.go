package join

import (
	"fmt"
	"strings"
	"time"

	"github.com/alanmeadows/refgraph/internal/store"
)

// ReportMeta is the frontmatter of a correlation report.
type ReportMeta struct {
	GeneratedAt    time.Time
	Source         string
	Repositories   []string
	LocalAvailable int
	LinkedPulls    int
	LinkedCommits  int
}

// Report builds a markdown document describing analyses.
func Report(analyses []*RepoAnalysis, source string, now time.Time) *store.Document {
	meta := ReportMeta{
		GeneratedAt:  now,
		Source:       source,
		Repositories: make([]string, 0, len(analyses)),
	}

	var b strings.Builder
	b.WriteString("# Correlation report\n")

	for _, a := range analyses {
		meta.Repositories = append(meta.Repositories, a.Repo.String())
		linked := a.LinkedPullRequests()
		meta.LinkedPulls += len(linked)
		meta.LinkedCommits += len(a.Commits)
		if a.LocalAvailable() {
			meta.LocalAvailable++
		}

		fmt.Fprintf(&b, "\n## %s\n\n", a.Repo)
		fmt.Fprintf(&b, "- Issues: %d\n", len(a.Issues))
		fmt.Fprintf(&b, "- Pull requests: %d (%d linked)\n", len(a.PullRequests), len(linked))
		fmt.Fprintf(&b, "- Commits with linked issues: %d\n", len(a.Commits))
		if a.LocalAvailable() {
			fmt.Fprintf(&b, "- Local mirror: `%s` at `%s`\n", a.Local.Path, shortSHA(a.Local.Head))
		} else {
			b.WriteString("- Local mirror: not found\n")
		}

		if len(linked) > 0 {
			b.WriteString("\n### Pull requests\n\n")
			for _, pr := range linked {
				fmt.Fprintf(&b, "- #%d → %s\n", pr.PullRequest.Number, issueLinks(pr.Issues))
			}
		}
		if len(a.Commits) > 0 {
			b.WriteString("\n### Commits\n\n")
			for _, c := range a.Commits {
				fmt.Fprintf(&b, "- `%s` → %s\n", shortSHA(c.Commit.SHA), issueLinks(c.Issues))
			}
		}
	}

	return &store.Document{
		Frontmatter: meta.frontmatter(),
		Body:        b.String(),
	}
}

func (m ReportMeta) frontmatter() map[string]any {
	return map[string]any{
		"generated_at":    store.FormatTime(m.GeneratedAt),
		"source":          m.Source,
		"repositories":    m.Repositories,
		"local_available": m.LocalAvailable,
		"linked_pulls":    m.LinkedPulls,
		"linked_commits":  m.LinkedCommits,
	}
}

// ReadReportMeta extracts the metadata from a report document.
func ReadReportMeta(doc *store.Document) ReportMeta {
	fm := doc.Frontmatter
	return ReportMeta{
		GeneratedAt:    store.GetTime(fm, "generated_at"),
		Source:         store.GetString(fm, "source"),
		Repositories:   store.GetStringSlice(fm, "repositories"),
		LocalAvailable: store.GetInt(fm, "local_available"),
		LinkedPulls:    store.GetInt(fm, "linked_pulls"),
		LinkedCommits:  store.GetInt(fm, "linked_commits"),
	}
}

func issueLinks(issues []string) string {
	links := make([]string, len(issues))
	for i, n := range issues {
		links[i] = "#" + n
	}
	return strings.Join(links, ", ")
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
