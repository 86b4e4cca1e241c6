package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alanmeadows/refgraph/internal/activity"
)

// WriteJSON marshals v with indentation and writes it atomically.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", path, err)
	}
	return writeFile(path, append(data, '\n'))
}

// ReadJSON unmarshals the file at path into v.
func ReadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// MappingFiles names the three mapping artifacts inside Dir.
type MappingFiles struct {
	Dir          string
	Issues       string
	PullRequests string
	Commits      string
}

// DefaultMappingFiles returns the standard file names under dir.
func DefaultMappingFiles(dir string) MappingFiles {
	return MappingFiles{
		Dir:          dir,
		Issues:       "issues.json",
		PullRequests: "pulls.json",
		Commits:      "commits.json",
	}
}

func (f MappingFiles) path(name string) string {
	return filepath.Join(f.Dir, name)
}

// WriteMappings writes each mapping to its own file.
func WriteMappings(f MappingFiles, m *activity.Mappings) error {
	if err := WriteJSON(f.path(f.Issues), m.Issues); err != nil {
		return err
	}
	if err := WriteJSON(f.path(f.PullRequests), m.PullRequests); err != nil {
		return err
	}
	return WriteJSON(f.path(f.Commits), m.Commits)
}

// ReadMappings loads the mapping files written by WriteMappings. A missing
// file leaves that mapping empty.
func ReadMappings(f MappingFiles) (*activity.Mappings, error) {
	m := activity.NewMappings()

	targets := []struct {
		name string
		v    any
	}{
		{f.Issues, &m.Issues},
		{f.PullRequests, &m.PullRequests},
		{f.Commits, &m.Commits},
	}
	for _, t := range targets {
		path := f.path(t.name)
		err := ReadJSON(path, t.v)
		if errors.Is(err, fs.ErrNotExist) {
			slog.Debug("mapping file not found", "path", path)
			continue
		}
		if err != nil {
			return nil, err
		}
	}

	// A file containing "null" decodes to a nil map.
	if m.Issues == nil {
		m.Issues = make(map[string][]activity.Issue)
	}
	if m.PullRequests == nil {
		m.PullRequests = make(map[string][]activity.PullRequestRefs)
	}
	if m.Commits == nil {
		m.Commits = make(map[string][]activity.CommitRefs)
	}
	return m, nil
}
