// Package history turns raw result log entries into display rows.
package history

import (
	"slices"
	"time"

	"github.com/hazz-dev/echoprobe/internal/resultlog"
)

// Color classifies an outcome for display.
type Color string

const (
	ColorOk    Color = "ok"
	ColorError Color = "error"
)

// NoError stands in for an absent error detail.
const NoError = "No error"

// TimeFormat is the layout of Row.Time.
const TimeFormat = "2006-01-02 15:04:05"

// Row is one display-ready entry.
type Row struct {
	Version      int       `json:"version"`
	Timestamp    time.Time `json:"timestamp"`
	Time         string    `json:"time"`
	RequestState string    `json:"request_state"`
	FullURL      string    `json:"full_url"`
	PingResult   string    `json:"ping_result"`
	PingError    string    `json:"ping_error"`
	PingColor    Color     `json:"ping_color"`
	EmailResult  string    `json:"email_result"`
	EmailError   string    `json:"email_error"`
	EmailColor   Color     `json:"email_color"`
}

// View is the reconciled history. ShowTable is false when there is nothing
// to list, in which case callers render an empty-state message.
type View struct {
	ShowTable bool  `json:"show_table"`
	Rows      []Row `json:"rows"`
}

// PingColor maps Success to ok and Failure to error.
func PingColor(r resultlog.PingResult) Color {
	if r == resultlog.PingSuccess {
		return ColorOk
	}
	return ColorError
}

// EmailColor maps FailedToSend to error and everything else to ok.
func EmailColor(r resultlog.EmailResult) Color {
	if r == resultlog.EmailFailedToSend {
		return ColorError
	}
	return ColorOk
}

// Reconcile orders entries newest first and classifies each one. Entries
// sharing a timestamp keep their append order. The input is not modified.
func Reconcile(entries []resultlog.Entry) View {
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b resultlog.Entry) int {
		return b.Timestamp.Compare(a.Timestamp)
	})

	rows := make([]Row, 0, len(sorted))
	for _, e := range sorted {
		rows = append(rows, toRow(e))
	}
	return View{ShowTable: len(rows) > 0, Rows: rows}
}

func toRow(e resultlog.Entry) Row {
	ts := e.Timestamp.UTC()
	return Row{
		Version:      e.Version,
		Timestamp:    ts,
		Time:         ts.Format(TimeFormat),
		RequestState: e.RequestState,
		FullURL:      e.PingedURL,
		PingResult:   string(e.PingResult),
		PingError:    orNoError(e.PingError),
		PingColor:    PingColor(e.PingResult),
		EmailResult:  string(e.EmailResult),
		EmailError:   orNoError(e.EmailError),
		EmailColor:   EmailColor(e.EmailResult),
	}
}

func orNoError(s string) string {
	if s == "" {
		return NoError
	}
	return s
}
