package join

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// PrintSummary writes a plain-text summary of each analysis to w.
func PrintSummary(w io.Writer, analyses []*RepoAnalysis) {
	for _, a := range analyses {
		fmt.Fprintf(w, "\nRepository: %s\n", a.Repo)
		fmt.Fprintf(w, "Total issues: %d\n", len(a.Issues))
		fmt.Fprintf(w, "PRs with linked issues: %d\n", len(a.PullRequests))
		fmt.Fprintf(w, "Commits with linked issues: %d\n", len(a.Commits))

		if a.LocalAvailable() {
			fmt.Fprintln(w, "Local repository: Available")
		} else {
			fmt.Fprintln(w, "Local repository: Not found")
		}

		for _, pr := range a.LinkedPullRequests() {
			fmt.Fprintf(w, "PR #%d links to issues: %s\n", pr.PullRequest.Number, formatIssues(pr.Issues))
		}
	}
}

// Table renders one row per analysis.
func Table(analyses []*RepoAnalysis) string {
	headerStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)

	rows := make([][]string, 0, len(analyses))
	for _, a := range analyses {
		local := "no"
		if a.LocalAvailable() {
			local = "yes"
			if a.Local.Branch != "" {
				local = a.Local.Branch
			}
		}
		rows = append(rows, []string{
			a.Repo.String(),
			strconv.Itoa(len(a.Issues)),
			strconv.Itoa(len(a.PullRequests)),
			strconv.Itoa(len(a.LinkedPullRequests())),
			strconv.Itoa(len(a.Commits)),
			local,
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("REPOSITORY", "ISSUES", "PRS", "LINKED PRS", "LINKED COMMITS", "LOCAL").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	return t.String()
}

// formatIssues renders references as a bracketed list of quoted strings.
func formatIssues(issues []string) string {
	quoted := make([]string, len(issues))
	for i, s := range issues {
		quoted[i] = strconv.Quote(s)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
