package config

import "time"

// Config is the top-level refgraph configuration.
type Config struct {
	GitHub GitHubConfig `json:"github"`
	Fetch  FetchConfig  `json:"fetch"`
	Output OutputConfig `json:"output"`
	Mirror MirrorConfig `json:"mirror"`
}

// GitHubConfig holds API access settings.
type GitHubConfig struct {
	Token string `json:"token,omitempty"`
	// BaseURL selects a GitHub Enterprise server; empty means github.com.
	BaseURL           string  `json:"base_url,omitempty"`
	RequestsPerSecond float64 `json:"requests_per_second"`
}

// FetchConfig controls collection.
type FetchConfig struct {
	MaxParallel int      `json:"max_parallel"`
	Kinds       []string `json:"kinds"`
}

// OutputConfig names the artifacts written by fetch and join.
type OutputConfig struct {
	Dir         string `json:"dir"`
	IssuesFile  string `json:"issues_file"`
	PullsFile   string `json:"pulls_file"`
	CommitsFile string `json:"commits_file"`
	Database    string `json:"database,omitempty"`
	ReportFile  string `json:"report_file"`
}

// MirrorConfig locates local clones.
type MirrorConfig struct {
	BaseDir     string `json:"base_dir"`
	Separator   string `json:"separator"`
	LockTimeout string `json:"lock_timeout"`
	CloneURL    string `json:"clone_url"`
}

// ParseLockTimeout returns the lock timeout as a time.Duration.
func (m MirrorConfig) ParseLockTimeout() time.Duration {
	d, err := time.ParseDuration(m.LockTimeout)
	if err != nil || d <= 0 {
		return 5 * time.Minute
	}
	return d
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		GitHub: GitHubConfig{
			RequestsPerSecond: 10,
		},
		Fetch: FetchConfig{
			MaxParallel: 4,
			Kinds:       []string{"pulls", "commits", "issues"},
		},
		Output: OutputConfig{
			Dir:         ".",
			IssuesFile:  "issues.json",
			PullsFile:   "pulls.json",
			CommitsFile: "commits.json",
			ReportFile:  "report.md",
		},
		Mirror: MirrorConfig{
			BaseDir:     "repos",
			Separator:   "__",
			LockTimeout: "5m",
			CloneURL:    "https://github.com/{{.Owner}}/{{.Name}}.git",
		},
	}
}
