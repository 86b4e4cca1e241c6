package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"dario.cat/mergo"
	"github.com/tidwall/jsonc"
)

const (
	dirName  = "refgraph"
	fileName = "refgraph.jsonc"
)

// Load reads and merges configuration. Resolution order: defaults → user
// config (<UserConfigDir>/refgraph/refgraph.jsonc) → project config
// (.refgraph/refgraph.jsonc in the repository root or working directory)
// → the file at path, if non-empty → environment variables.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if userPath, err := UserConfigPath(); err == nil {
		if err := mergeFile(&cfg, userPath, false); err != nil {
			return nil, fmt.Errorf("merging user config: %w", err)
		}
	}

	if err := mergeFile(&cfg, ProjectConfigPath(), false); err != nil {
		return nil, fmt.Errorf("merging project config: %w", err)
	}

	if path != "" {
		if err := mergeFile(&cfg, path, true); err != nil {
			return nil, fmt.Errorf("merging %s: %w", path, err)
		}
	}

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// UserConfigPath returns the per-user config file location.
func UserConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, dirName, fileName), nil
}

// ProjectConfigPath returns the project config file location: under the
// git repository root when inside one, else under the working directory.
func ProjectConfigPath() string {
	root := findRepoRoot()
	if root == "" {
		root = "."
	}
	return filepath.Join(root, "."+dirName, fileName)
}

// mergeFile merges the JSONC file at path into cfg. A missing file is
// skipped unless required is set.
func mergeFile(cfg *Config, path string, required bool) error {
	m, err := loadJSONC(path)
	if errors.Is(err, fs.ErrNotExist) && !required {
		return nil
	}
	if err != nil {
		return err
	}
	slog.Debug("loaded config file", "path", path)
	return mergeIntoConfig(cfg, m)
}

// loadJSONC reads a JSONC file and returns it as a map.
func loadJSONC(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(jsonc.ToJSON(data), &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return m, nil
}

// mergeIntoConfig deep-merges src over the JSON form of cfg.
func mergeIntoConfig(cfg *Config, src map[string]any) error {
	cfgBytes, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	var dst map[string]any
	if err := json.Unmarshal(cfgBytes, &dst); err != nil {
		return err
	}

	if err := mergo.Merge(&dst, src, mergo.WithOverride); err != nil {
		return err
	}

	merged, err := json.Marshal(dst)
	if err != nil {
		return err
	}
	return json.Unmarshal(merged, cfg)
}

// findRepoRoot finds the git repository root via git rev-parse.
func findRepoRoot() string {
	out, err := exec.Command("git", "rev-parse", "--show-toplevel").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

func applyEnvOverrides(cfg *Config) {
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		cfg.GitHub.Token = token
	}
	if v := os.Getenv("REFGRAPH_MAX_PARALLEL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			slog.Warn("ignoring invalid REFGRAPH_MAX_PARALLEL", "value", v)
		} else {
			cfg.Fetch.MaxParallel = n
		}
	}
	if dir := os.Getenv("REFGRAPH_MIRROR_DIR"); dir != "" {
		cfg.Mirror.BaseDir = dir
	}
}

// Redacted returns a copy of cfg with secrets masked.
func (c *Config) Redacted() *Config {
	cp := *c
	if cp.GitHub.Token != "" {
		cp.GitHub.Token = "***"
	}
	cp.Fetch.Kinds = append([]string(nil), c.Fetch.Kinds...)
	return &cp
}
