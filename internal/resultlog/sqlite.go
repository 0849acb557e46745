package resultlog

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS entries (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    entry_version INTEGER NOT NULL,
    timestamp     TEXT    NOT NULL,
    pinged_url    TEXT    NOT NULL,
    request_state TEXT    NOT NULL,
    ping_result   TEXT    NOT NULL CHECK(ping_result IN ('Success', 'Failure')),
    ping_error    TEXT    NOT NULL DEFAULT '',
    email_result  TEXT    NOT NULL CHECK(email_result IN ('SentSuccessfully', 'FailedToSend', 'NotSent')),
    email_error   TEXT    NOT NULL DEFAULT ''
);
`

// SQLite stores entries in a single table whose rowid preserves append
// order. The database is opened per call, which suits one probe cycle per
// process and an occasional dashboard read.
type SQLite struct {
	path string
}

// NewSQLite returns the SQLite store at path.
func NewSQLite(path string) *SQLite {
	return &SQLite{path: path}
}

func (s *SQLite) open(ctx context.Context) (*sql.DB, error) {
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)", s.path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite at %q: %w", s.path, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening sqlite at %q: %w", s.path, err)
	}
	return db, nil
}

func (s *SQLite) create(ctx context.Context) (*sql.DB, error) {
	if _, _, err := stat(s.path); err != nil {
		return nil, err
	}
	db, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return db, nil
}

// Append inserts e as the newest row, creating the database if needed.
func (s *SQLite) Append(ctx context.Context, e Entry) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("appending to result log: %w", err)
	}
	db, err := s.create(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	rec := e.record()
	_, err = db.ExecContext(ctx,
		`INSERT INTO entries (entry_version, timestamp, pinged_url, request_state, ping_result, ping_error, email_result, email_error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Version, rec[1], rec[2], rec[3], rec[4], rec[5], rec[6], rec[7],
	)
	if err != nil {
		return fmt.Errorf("inserting entry: %w", err)
	}
	return nil
}

// Init creates the database and its schema if absent.
func (s *SQLite) Init(ctx context.Context) error {
	db, err := s.create(ctx)
	if err != nil {
		return err
	}
	return db.Close()
}

// LoadAll returns every row in insertion order.
func (s *SQLite) LoadAll(ctx context.Context) ([]Entry, error) {
	if _, err := mustExist(s.path); err != nil {
		return nil, err
	}
	db, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx,
		`SELECT id, entry_version, timestamp, pinged_url, request_state, ping_result, ping_error, email_result, email_error
		 FROM entries ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var id int
		rec := make([]string, len(Header))
		dest := []any{&id}
		for i := range rec {
			dest = append(dest, &rec[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning entry row: %w", err)
		}
		e, err := parseRecord(rec)
		if err != nil {
			return nil, &ParseError{Path: s.path, Line: id, Err: err}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entry rows: %w", err)
	}
	return entries, nil
}
