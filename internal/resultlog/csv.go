package resultlog

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
)

// encoding/csv folds CRLF inside quoted fields into LF, so carriage returns
// are stored as the two characters \r, with backslash itself doubled.
var (
	fieldEscaper   = strings.NewReplacer(`\`, `\\`, "\r", `\r`)
	fieldUnescaper = strings.NewReplacer(`\\`, `\`, `\r`, "\r")
)

// CSV stores entries as comma-separated rows under a single header row.
type CSV struct {
	path string
}

// NewCSV returns the CSV store at path. Nothing is touched on disk until
// the first call.
func NewCSV(path string) *CSV {
	return &CSV{path: path}
}

// Path returns the location of the store.
func (c *CSV) Path() string {
	return c.path
}

// Append creates the store with a header if it is absent (or empty) and
// otherwise appends e as one new row. The row is written with a single
// write on a file opened in append mode.
func (c *CSV) Append(ctx context.Context, e Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := e.Validate(); err != nil {
		return fmt.Errorf("appending to result log: %w", err)
	}

	info, exists, err := stat(c.path)
	if err != nil {
		return err
	}

	var rows [][]string
	flags := os.O_WRONLY | os.O_APPEND
	if !exists {
		flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
		rows = append(rows, Header)
	} else if info.Size() == 0 {
		rows = append(rows, Header)
	}
	rows = append(rows, escapeRecord(e.record()))

	data, err := encodeRows(rows)
	if err != nil {
		return fmt.Errorf("encoding entry: %w", err)
	}

	f, err := os.OpenFile(c.path, flags, 0o644)
	if err != nil {
		return fmt.Errorf("opening result log %q: %w", c.path, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("writing result log %q: %w", c.path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing result log %q: %w", c.path, err)
	}
	return nil
}

// Init writes a header-only store if none exists.
func (c *CSV) Init(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, exists, err := stat(c.path)
	if err != nil || exists {
		return err
	}

	data, err := encodeRows([][]string{Header})
	if err != nil {
		return fmt.Errorf("encoding header: %w", err)
	}
	f, err := os.OpenFile(c.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("creating result log %q: %w", c.path, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("writing result log %q: %w", c.path, err)
	}
	return f.Close()
}

// LoadAll reads every entry in file order. A single malformed row fails the
// whole load. A zero-length file holds no entries.
func (c *CSV) LoadAll(ctx context.Context) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := mustExist(c.path); err != nil {
		return nil, err
	}

	f, err := os.Open(c.path)
	if err != nil {
		return nil, fmt.Errorf("opening result log %q: %w", c.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(Header)

	header, err := r.Read()
	if err == io.EOF {
		return []Entry{}, nil
	}
	if err != nil {
		return nil, c.parseError(err)
	}
	if !slices.Equal(header, Header) {
		return nil, &ParseError{Path: c.path, Line: 1, Err: fmt.Errorf("unexpected header %q", header)}
	}

	entries := []Entry{}
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, c.parseError(err)
		}
		e, err := parseRecord(unescapeRecord(rec))
		if err != nil {
			line, _ := r.FieldPos(0)
			return nil, &ParseError{Path: c.path, Line: line, Err: err}
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (c *CSV) parseError(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &ParseError{Path: c.path, Line: pe.Line, Err: err}
	}
	return fmt.Errorf("reading result log %q: %w", c.path, err)
}

func escapeRecord(rec []string) []string {
	for i, f := range rec {
		rec[i] = fieldEscaper.Replace(f)
	}
	return rec
}

func unescapeRecord(rec []string) []string {
	for i, f := range rec {
		rec[i] = fieldUnescaper.Replace(f)
	}
	return rec
}

func encodeRows(rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
