package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alanmeadows/refgraph/internal/mirror"
)

var (
	cloneParallel  int
	cloneReposFile string
	cloneRemove    bool
)

func init() {
	cloneCmd.Flags().IntVar(&cloneParallel, "parallel", 0, "Clones run concurrently")
	cloneCmd.Flags().StringVar(&cloneReposFile, "repos-file", "", "File listing repositories, one per line or CSV")
	cloneCmd.Flags().BoolVar(&cloneRemove, "remove", false, "Delete the local mirrors instead of cloning")
}

var cloneCmd = &cobra.Command{
	Use:   "clone [owner/name...]",
	Short: "Create or remove local mirrors",
	Long: `Clone each repository into the mirror directory (repos/owner__name by
default) so join can find it. Existing mirrors are left alone. A failed
clone is reported and the remaining repositories continue.`,
	Example: `  refgraph clone acme/widgets
  refgraph clone --repos-file repos.txt --parallel 8
  refgraph clone --remove acme/widgets`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		repos, err := resolveRepos(args, cloneReposFile)
		if err != nil {
			return err
		}
		mgr := mirrorManager()
		w := cmd.OutOrStdout()

		if cloneRemove {
			for _, repo := range repos {
				if err := mgr.Remove(ctx, repo); err != nil {
					return err
				}
				fmt.Fprintf(w, "Removed %s\n", mgr.Path(repo))
			}
			return nil
		}

		parallel := appConfig.Fetch.MaxParallel
		if cloneParallel > 0 {
			parallel = cloneParallel
		}

		var failed int
		for _, res := range mgr.CloneAll(ctx, repos, parallel) {
			if res.Err != nil {
				failed++
				fmt.Fprintf(w, "FAIL %s: %v\n", res.Repo, res.Err)
				continue
			}
			fmt.Fprintf(w, "ok   %s -> %s\n", res.Repo, res.Local.Path)
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d clones failed", failed, len(repos))
		}
		return nil
	},
}

// mirrorManager builds a mirror manager from the loaded configuration.
func mirrorManager() *mirror.Manager {
	mc := appConfig.Mirror
	mgr := mirror.NewManager(mc.BaseDir)
	if mc.Separator != "" {
		mgr.Separator = mc.Separator
	}
	if mc.CloneURL != "" {
		mgr.CloneURL = mc.CloneURL
	}
	mgr.LockTimeout = mc.ParseLockTimeout()
	return mgr
}
