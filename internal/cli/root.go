package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alanmeadows/refgraph/internal/config"
	"github.com/alanmeadows/refgraph/internal/logging"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string
	appConfig  *config.Config

	rootCmd = &cobra.Command{
		Use:   "refgraph",
		Short: "Cross-reference pull requests, commits and issues across repositories",
		Long: `refgraph fetches pull requests, commits and issues for a list of
repositories, extracts the issue references written in titles, bodies and
commit messages, and joins the results with local clones for analysis.`,
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose/debug output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to an additional config file")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		logging.Setup(verbose)

		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		appConfig = cfg
		return nil
	}

	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(joinCmd)
	rootCmd.AddCommand(cloneCmd)
	rootCmd.AddCommand(reposCmd)
	rootCmd.AddCommand(configCmd)
}

// Execute runs the root command. An interrupt cancels the command context,
// so batches stop starting new repositories.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}
