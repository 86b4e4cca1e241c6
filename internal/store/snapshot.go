package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/alanmeadows/refgraph/internal/activity"
)

const snapshotSchema = `
	CREATE TABLE IF NOT EXISTS mappings (
		kind       TEXT NOT NULL,
		repo       TEXT NOT NULL,
		payload    TEXT NOT NULL,
		fetched_at TEXT NOT NULL,
		PRIMARY KEY (kind, repo)
	)
`

// SnapshotDB persists mappings in a SQLite database, one row per kind and
// repository with the list stored as JSON.
type SnapshotDB struct {
	db   *sql.DB
	path string
}

// OpenSnapshot opens or creates the snapshot database at path.
func OpenSnapshot(path string) (*SnapshotDB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating directory for %s: %w", path, err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec(snapshotSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating mappings table: %w", err)
	}

	return &SnapshotDB{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *SnapshotDB) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *SnapshotDB) Path() string {
	return s.path
}

// Save replaces the stored snapshot with m.
func (s *SnapshotDB) Save(ctx context.Context, m *activity.Mappings) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, `DELETE FROM mappings`); err != nil {
		return fmt.Errorf("clearing mappings: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO mappings (kind, repo, payload, fetched_at) VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	now := FormatTime(time.Now())
	insert := func(kind activity.Kind, repo string, list any) error {
		payload, err := json.Marshal(list)
		if err != nil {
			return fmt.Errorf("marshaling %s for %s: %w", kind, repo, err)
		}
		if _, err := stmt.ExecContext(ctx, string(kind), repo, string(payload), now); err != nil {
			return fmt.Errorf("inserting %s for %s: %w", kind, repo, err)
		}
		return nil
	}

	for repo, list := range m.Issues {
		if err := insert(activity.KindIssues, repo, list); err != nil {
			return err
		}
	}
	for repo, list := range m.PullRequests {
		if err := insert(activity.KindPullRequests, repo, list); err != nil {
			return err
		}
	}
	for repo, list := range m.Commits {
		if err := insert(activity.KindCommits, repo, list); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing snapshot: %w", err)
	}
	return nil
}

// Load reads the stored snapshot.
func (s *SnapshotDB) Load(ctx context.Context) (*activity.Mappings, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT kind, repo, payload FROM mappings`)
	if err != nil {
		return nil, fmt.Errorf("querying mappings: %w", err)
	}
	defer rows.Close()

	m := activity.NewMappings()
	for rows.Next() {
		var kind, repo, payload string
		if err := rows.Scan(&kind, &repo, &payload); err != nil {
			return nil, fmt.Errorf("scanning mapping: %w", err)
		}

		switch activity.Kind(kind) {
		case activity.KindIssues:
			var list []activity.Issue
			err = json.Unmarshal([]byte(payload), &list)
			m.Issues[repo] = list
		case activity.KindPullRequests:
			var list []activity.PullRequestRefs
			err = json.Unmarshal([]byte(payload), &list)
			m.PullRequests[repo] = list
		case activity.KindCommits:
			var list []activity.CommitRefs
			err = json.Unmarshal([]byte(payload), &list)
			m.Commits[repo] = list
		default:
			return nil, fmt.Errorf("unknown mapping kind %q for %s", kind, repo)
		}
		if err != nil {
			return nil, fmt.Errorf("decoding %s for %s: %w", kind, repo, err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating mappings: %w", err)
	}

	return m, nil
}

// FetchedAt returns when the stored snapshot was saved, or the zero time
// when it is empty.
func (s *SnapshotDB) FetchedAt(ctx context.Context) (time.Time, error) {
	var ts sql.NullString
	row := s.db.QueryRowContext(ctx, `SELECT MAX(fetched_at) FROM mappings`)
	if err := row.Scan(&ts); err != nil {
		return time.Time{}, fmt.Errorf("reading snapshot time: %w", err)
	}
	if !ts.Valid {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, ts.String)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing snapshot time %q: %w", ts.String, err)
	}
	return t, nil
}
