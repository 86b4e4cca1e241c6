package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/alanmeadows/refgraph/internal/activity"
	"github.com/alanmeadows/refgraph/internal/collect"
	"github.com/alanmeadows/refgraph/internal/store"
)

var (
	fetchKinds     []string
	fetchParallel  int
	fetchOutDir    string
	fetchDBPath    string
	fetchReposFile string
)

func init() {
	fetchCmd.Flags().StringSliceVar(&fetchKinds, "kinds", nil, "Record kinds to fetch (pulls, commits, issues)")
	fetchCmd.Flags().IntVar(&fetchParallel, "parallel", 0, "Repositories fetched concurrently")
	fetchCmd.Flags().StringVar(&fetchOutDir, "out", "", "Directory for the JSON mapping files")
	fetchCmd.Flags().StringVar(&fetchDBPath, "db", "", "Also save the mappings to this SQLite database")
	fetchCmd.Flags().StringVar(&fetchReposFile, "repos-file", "", "File listing repositories, one per line or CSV")
}

var fetchCmd = &cobra.Command{
	Use:   "fetch [owner/name...]",
	Short: "Fetch activity and extract issue references",
	Long: `Fetch pull requests, commits and issues for every repository and
extract the issue references found in PR titles and bodies and in commit
messages.

Pull requests are kept whether or not they reference an issue. Commits are
kept only when their message references at least one issue. Fetch failures
are logged and the remaining pages and repositories continue.`,
	Example: `  refgraph fetch acme/widgets acme/gadgets
  refgraph fetch --repos-file repos.csv --kinds pulls,commits --out data/
  refgraph fetch acme/widgets --db data/refgraph.db`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		repos, err := resolveRepos(args, fetchReposFile)
		if err != nil {
			return err
		}

		kinds, err := parseKinds(fetchKinds, appConfig.Fetch.Kinds)
		if err != nil {
			return err
		}

		parallel := appConfig.Fetch.MaxParallel
		if fetchParallel > 0 {
			parallel = fetchParallel
		}

		backend, err := newBackend(ctx)
		if err != nil {
			return err
		}

		batch := collect.NewBatch(
			collect.NewProcessor(backend, nil),
			collect.WithMaxParallel(parallel),
			collect.WithProgress(collect.NewLogProgress()),
		)
		result := batch.Run(ctx, repos, kinds)

		files := mappingFiles(fetchOutDir)
		if err := store.WriteMappings(files, result.Mappings); err != nil {
			return fmt.Errorf("writing mappings: %w", err)
		}

		dbPath := fetchDBPath
		if dbPath == "" {
			dbPath = appConfig.Output.Database
		}
		if dbPath != "" {
			if err := saveSnapshot(cmd, dbPath, result.Mappings); err != nil {
				return err
			}
		}

		printFetchSummary(cmd, repos, result)
		return nil
	},
}

// parseKinds parses flag values, falling back to the configured kinds and
// then to all kinds. Duplicates are dropped.
func parseKinds(flagKinds, configured []string) ([]activity.Kind, error) {
	raw := flagKinds
	if len(raw) == 0 {
		raw = configured
	}
	if len(raw) == 0 {
		return activity.AllKinds, nil
	}

	seen := make(map[activity.Kind]bool, len(raw))
	kinds := make([]activity.Kind, 0, len(raw))
	for _, s := range raw {
		k, err := activity.ParseKind(s)
		if err != nil {
			return nil, err
		}
		if !seen[k] {
			seen[k] = true
			kinds = append(kinds, k)
		}
	}
	return kinds, nil
}

func mappingFiles(dirOverride string) store.MappingFiles {
	out := appConfig.Output
	dir := out.Dir
	if dirOverride != "" {
		dir = dirOverride
	}
	files := store.DefaultMappingFiles(dir)
	if out.IssuesFile != "" {
		files.Issues = out.IssuesFile
	}
	if out.PullsFile != "" {
		files.PullRequests = out.PullsFile
	}
	if out.CommitsFile != "" {
		files.Commits = out.CommitsFile
	}
	return files
}

func saveSnapshot(cmd *cobra.Command, path string, m *activity.Mappings) error {
	db, err := store.OpenSnapshot(path)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Save(cmd.Context(), m); err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	return nil
}

func printFetchSummary(cmd *cobra.Command, repos []activity.RepoID, result *collect.BatchResult) {
	w := cmd.OutOrStdout()
	m := result.Mappings

	var prs, commits, issues int
	for _, list := range m.PullRequests {
		prs += len(list)
	}
	for _, list := range m.Commits {
		commits += len(list)
	}
	for _, list := range m.Issues {
		issues += len(list)
	}

	fmt.Fprintf(w, "Fetched %d repositories: %d pull requests, %d referencing commits, %d issues\n",
		len(repos), prs, commits, issues)

	degraded := result.Degraded()
	if len(degraded) == 0 {
		return
	}
	fmt.Fprintf(w, "%d repositories have incomplete data:\n", len(degraded))
	for _, repo := range degraded {
		res := result.Results[repo.String()]
		kinds := make([]string, 0, len(res.Outcomes))
		for kind, o := range res.Outcomes {
			if o.Degraded() {
				kinds = append(kinds, fmt.Sprintf("%s %s after %d pages", kind, o.Status, o.Pages))
			}
		}
		sort.Strings(kinds)
		fmt.Fprintf(w, "  %s: %v\n", repo, kinds)
	}
}
