// Package resultlog is the append-only store of probe cycle outcomes.
//
// A store is created on first append and only ever grown afterwards. It
// assumes a single writer; concurrent appends from several processes are
// not supported.
package resultlog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Log is a durable, append-only sequence of entries.
type Log interface {
	// Append writes e after all existing entries, creating the store if
	// needed.
	Append(ctx context.Context, e Entry) error
	// LoadAll returns every entry in append order. It fails if the store is
	// missing or any entry is malformed.
	LoadAll(ctx context.Context) ([]Entry, error)
	// Init creates an empty store if none exists.
	Init(ctx context.Context) error
}

// ErrNotRegularFile is returned when the store path names something other
// than a regular file.
var ErrNotRegularFile = errors.New("not a regular file")

// ParseError reports a stored entry that does not match the schema. Line is
// the CSV line number or the SQLite row id.
type ParseError struct {
	Path string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("result log %s: line %d: %v", e.Path, e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Open returns the store for backend ("csv" or "sqlite") at path. An empty
// backend selects csv.
func Open(backend, path string) (Log, error) {
	switch backend {
	case "", "csv":
		return NewCSV(path), nil
	case "sqlite":
		return NewSQLite(path), nil
	default:
		return nil, fmt.Errorf("unknown result log backend %q", backend)
	}
}

// stat reports whether path exists, failing if it exists but is not a
// regular file.
func stat(path string) (os.FileInfo, bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("inspecting result log %q: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, false, fmt.Errorf("result log %q: %w", path, ErrNotRegularFile)
	}
	return info, true, nil
}

// mustExist is stat for readers: a missing store is an error.
func mustExist(path string) (os.FileInfo, error) {
	info, exists, err := stat(path)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("result log %q: %w", path, fs.ErrNotExist)
	}
	return info, nil
}
