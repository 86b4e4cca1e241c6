package cli

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/alanmeadows/refgraph/internal/activity"
	"github.com/alanmeadows/refgraph/internal/join"
	"github.com/alanmeadows/refgraph/internal/store"
)

var (
	joinInDir     string
	joinDBPath    string
	joinReport    string
	joinReposFile string
	joinTable     bool
)

func init() {
	joinCmd.Flags().StringVar(&joinInDir, "in", "", "Directory holding the JSON mapping files")
	joinCmd.Flags().StringVar(&joinDBPath, "db", "", "Load mappings from this SQLite database instead of JSON")
	joinCmd.Flags().StringVar(&joinReport, "report", "", "Markdown report path (default from output.report_file; empty disables)")
	joinCmd.Flags().StringVar(&joinReposFile, "repos-file", "", "File listing repositories, one per line or CSV")
	joinCmd.Flags().BoolVar(&joinTable, "table", false, "Print a table instead of the per-repository summary")
	joinCmd.MarkFlagsMutuallyExclusive("in", "db")
}

var joinCmd = &cobra.Command{
	Use:   "join [owner/name...]",
	Short: "Join fetched mappings with local mirrors",
	Long: `Load the mappings written by fetch and produce one analysis per
repository in the canonical list, in list order. Repositories absent from
the mappings get empty lists. Each repository is matched with its local
mirror when one exists.

Without a repository list, every repository found in the mappings is used
in sorted order.`,
	Example: `  refgraph join acme/widgets x/y
  refgraph join --repos-file repos.txt --in data/ --report report.md
  refgraph join --db data/refgraph.db --table`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		mappings, source, err := loadMappings(cmd)
		if err != nil {
			return err
		}

		var repos []activity.RepoID
		if len(args) > 0 || joinReposFile != "" {
			repos, err = resolveRepos(args, joinReposFile)
		} else {
			repos, err = mappingRepos(mappings)
		}
		if err != nil {
			return err
		}

		analyses := join.Align(ctx, repos, mappings, mirrorManager())

		if joinTable {
			fmt.Fprintln(cmd.OutOrStdout(), join.Table(analyses))
		} else {
			join.PrintSummary(cmd.OutOrStdout(), analyses)
		}

		reportPath := joinReport
		if reportPath == "" {
			reportPath = appConfig.Output.ReportFile
		}
		if reportPath != "" {
			if err := store.WriteDocument(reportPath, join.Report(analyses, source, time.Now())); err != nil {
				return fmt.Errorf("writing report: %w", err)
			}
			slog.Info("wrote report", "path", reportPath)
		}
		return nil
	},
}

// loadMappings reads mappings from the database or the JSON files and
// returns a description of where they came from.
func loadMappings(cmd *cobra.Command) (*activity.Mappings, string, error) {
	dbPath := joinDBPath
	if dbPath == "" && joinInDir == "" {
		dbPath = appConfig.Output.Database
	}

	if dbPath != "" {
		db, err := store.OpenSnapshot(dbPath)
		if err != nil {
			return nil, "", err
		}
		defer db.Close()

		if fetched, err := db.FetchedAt(cmd.Context()); err == nil && !fetched.IsZero() {
			slog.Info("loading snapshot", "path", dbPath, "fetched_at", fetched)
		}
		m, err := db.Load(cmd.Context())
		if err != nil {
			return nil, "", fmt.Errorf("loading snapshot: %w", err)
		}
		return m, dbPath, nil
	}

	files := mappingFiles(joinInDir)
	m, err := store.ReadMappings(files)
	if err != nil {
		return nil, "", fmt.Errorf("loading mappings: %w", err)
	}
	return m, files.Dir, nil
}

// mappingRepos returns every repository present in m, sorted.
func mappingRepos(m *activity.Mappings) ([]activity.RepoID, error) {
	seen := make(map[string]bool)
	for k := range m.Issues {
		seen[k] = true
	}
	for k := range m.PullRequests {
		seen[k] = true
	}
	for k := range m.Commits {
		seen[k] = true
	}

	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	if len(keys) == 0 {
		return nil, fmt.Errorf("no repositories in mappings; run fetch first or pass a repository list")
	}
	return activity.ParseRepoList(keys)
}
