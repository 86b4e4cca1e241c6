package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alanmeadows/refgraph/internal/fetch"
	"github.com/alanmeadows/refgraph/internal/provider"
)

var (
	reposSkipArchived bool
	reposSkipForks    bool
	reposOutput       string
)

func init() {
	reposCmd.Flags().BoolVar(&reposSkipArchived, "skip-archived", false, "Leave out archived repositories")
	reposCmd.Flags().BoolVar(&reposSkipForks, "skip-forks", false, "Leave out forks")
	reposCmd.Flags().StringVarP(&reposOutput, "output", "o", "", "Write the list to a file instead of stdout")
}

var reposCmd = &cobra.Command{
	Use:   "repos <owner>",
	Short: "List an owner's repositories as a canonical list",
	Long: `List every repository owned by a user or organization, one
owner/name per line, suitable for --repos-file.`,
	Example: `  refgraph repos acme
  refgraph repos acme --skip-archived -o repos.txt`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		owner := args[0]

		backend, err := newBackend(ctx)
		if err != nil {
			return err
		}

		lines, err := listOwnerRepos(ctx, backend, owner, reposSkipArchived, reposSkipForks)
		if err != nil {
			return err
		}

		out := strings.Join(lines, "\n")
		if len(lines) > 0 {
			out += "\n"
		}
		if reposOutput != "" {
			if err := os.WriteFile(reposOutput, []byte(out), 0644); err != nil {
				return fmt.Errorf("writing %s: %w", reposOutput, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d repositories to %s\n", len(lines), reposOutput)
			return nil
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

// listOwnerRepos pages through owner's repositories. Unlike fetch, a failed
// page is an error here since a truncated canonical list is misleading.
func listOwnerRepos(ctx context.Context, lister provider.RepositoryLister, owner string, skipArchived, skipForks bool) ([]string, error) {
	label := fetch.Label{Repo: owner, Kind: "repositories"}
	res := fetch.All(ctx, label, func(ctx context.Context, cursor string) ([]provider.RepositoryInfo, string, error) {
		return lister.ListOwnerRepositories(ctx, owner, cursor)
	})
	if res.Err != nil {
		return nil, fmt.Errorf("listing repositories for %s: %w", owner, res.Err)
	}

	lines := make([]string, 0, len(res.Items))
	for _, info := range res.Items {
		if skipArchived && info.IsArchived {
			continue
		}
		if skipForks && info.IsFork {
			continue
		}
		lines = append(lines, info.Repo.String())
	}
	return lines, nil
}
