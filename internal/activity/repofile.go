package activity

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadRepoList reads a canonical repository list. Each record's first
// column is the repository; further columns are ignored, so both plain
// one-per-line files and CSV exports work. Blank lines, lines starting with
// '#', and a leading "repo" or "repository" header are skipped.
func ReadRepoList(r io.Reader) ([]RepoID, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var entries []string
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading repository list: %w", err)
		}
		first := strings.TrimSpace(record[0])
		if first == "" {
			continue
		}
		if len(entries) == 0 && isHeader(first) {
			continue
		}
		entries = append(entries, first)
	}

	return ParseRepoList(entries)
}

// ReadRepoFile reads a repository list from path.
func ReadRepoFile(path string) ([]RepoID, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening repository list: %w", err)
	}
	defer f.Close()

	repos, err := ReadRepoList(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return repos, nil
}

func isHeader(s string) bool {
	switch strings.ToLower(s) {
	case "repo", "repository", "repo_name", "name_with_owner":
		return true
	}
	return false
}
