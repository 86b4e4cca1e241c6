package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/alanmeadows/refgraph/internal/activity"
	ghbackend "github.com/alanmeadows/refgraph/internal/provider/github"
)

// newBackend builds a GitHub backend from the loaded configuration.
func newBackend(ctx context.Context) (*ghbackend.Backend, error) {
	token, err := resolveToken(ctx)
	if err != nil {
		return nil, err
	}

	opts := []ghbackend.Option{
		ghbackend.WithRequestsPerSecond(appConfig.GitHub.RequestsPerSecond),
	}
	if appConfig.GitHub.BaseURL != "" {
		opts = append(opts, ghbackend.WithBaseURL(appConfig.GitHub.BaseURL))
	}
	return ghbackend.NewBackend(token, opts...)
}

// resolveToken returns the configured token, falling back to the gh CLI and
// then, on a terminal, an interactive prompt. An empty token means
// unauthenticated access.
func resolveToken(ctx context.Context) (string, error) {
	if token := appConfig.GitHub.Token; token != "" {
		return token, nil
	}

	if out, err := exec.CommandContext(ctx, "gh", "auth", "token").Output(); err == nil {
		if token := strings.TrimSpace(string(out)); token != "" {
			slog.Debug("using token from gh CLI")
			return token, nil
		}
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		slog.Warn("no GitHub token configured; using unauthenticated requests")
		return "", nil
	}

	var token string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("GitHub token").
				Description("Leave empty for unauthenticated requests (low rate limit).").
				EchoMode(huh.EchoModePassword).
				Value(&token),
		),
	)
	if err := form.RunWithContext(ctx); err != nil {
		return "", fmt.Errorf("token prompt cancelled: %w", err)
	}
	return strings.TrimSpace(token), nil
}

// resolveRepos returns the canonical repository list from args and, when
// set, the repository file. File entries come first and repeats are dropped.
func resolveRepos(args []string, reposFile string) ([]activity.RepoID, error) {
	var repos []activity.RepoID
	if reposFile != "" {
		fromFile, err := activity.ReadRepoFile(reposFile)
		if err != nil {
			return nil, err
		}
		repos = append(repos, fromFile...)
	}

	fromArgs, err := activity.ParseRepoList(args)
	if err != nil {
		return nil, err
	}
	repos = append(repos, fromArgs...)

	if len(repos) == 0 {
		return nil, fmt.Errorf("no repositories given; pass owner/name arguments or --repos-file")
	}
	return activity.UniqueRepos(repos), nil
}
