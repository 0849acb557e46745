package resultlog

import (
	"fmt"
	"strconv"
	"time"
)

// CurrentVersion is the schema version written with every new entry.
const CurrentVersion = 1

// Header names the fields of a stored entry, in column order.
var Header = []string{
	"entry_version",
	"timestamp",
	"pinged_url",
	"request_state",
	"ping_result",
	"ping_error",
	"email_result",
	"email_error",
}

// PingResult is the outcome of the liveness probe.
type PingResult string

const (
	PingSuccess PingResult = "Success"
	PingFailure PingResult = "Failure"
)

// EmailResult is the outcome of the failure notification.
type EmailResult string

const (
	EmailSentSuccessfully EmailResult = "SentSuccessfully"
	EmailFailedToSend     EmailResult = "FailedToSend"
	EmailNotSent          EmailResult = "NotSent"
)

// Entry records one probe cycle. Entries are immutable once appended.
// An empty PingError or EmailError means no detail was recorded.
type Entry struct {
	Version      int
	Timestamp    time.Time
	PingedURL    string
	RequestState string
	PingResult   PingResult
	PingError    string
	EmailResult  EmailResult
	EmailError   string
}

// Validate checks the entry against the current schema. A notification is
// attempted exactly when the probe failed.
func (e Entry) Validate() error {
	if e.Version != CurrentVersion {
		return fmt.Errorf("unsupported entry version %d", e.Version)
	}
	if e.Timestamp.IsZero() {
		return fmt.Errorf("missing timestamp")
	}
	switch e.PingResult {
	case PingSuccess, PingFailure:
	default:
		return fmt.Errorf("unknown ping result %q", e.PingResult)
	}
	switch e.EmailResult {
	case EmailSentSuccessfully, EmailFailedToSend, EmailNotSent:
	default:
		return fmt.Errorf("unknown email result %q", e.EmailResult)
	}
	if (e.PingResult == PingSuccess) != (e.EmailResult == EmailNotSent) {
		return fmt.Errorf("email result %s inconsistent with ping result %s", e.EmailResult, e.PingResult)
	}
	return nil
}

func (e Entry) record() []string {
	return []string{
		strconv.Itoa(e.Version),
		e.Timestamp.UTC().Format(time.RFC3339Nano),
		e.PingedURL,
		e.RequestState,
		string(e.PingResult),
		e.PingError,
		string(e.EmailResult),
		e.EmailError,
	}
}

func parseRecord(rec []string) (Entry, error) {
	if len(rec) != len(Header) {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", len(Header), len(rec))
	}
	version, err := strconv.Atoi(rec[0])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing entry_version %q: %w", rec[0], err)
	}
	ts, err := time.Parse(time.RFC3339Nano, rec[1])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", rec[1], err)
	}
	e := Entry{
		Version:      version,
		Timestamp:    ts.UTC(),
		PingedURL:    rec[2],
		RequestState: rec[3],
		PingResult:   PingResult(rec[4]),
		PingError:    rec[5],
		EmailResult:  EmailResult(rec[6]),
		EmailError:   rec[7],
	}
	if err := e.Validate(); err != nil {
		return Entry{}, err
	}
	return e, nil
}
