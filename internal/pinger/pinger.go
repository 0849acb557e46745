// Package pinger runs one probe cycle: challenge, probe, notify on failure,
// record.
package pinger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazz-dev/echoprobe/internal/challenge"
	"github.com/hazz-dev/echoprobe/internal/checker"
	"github.com/hazz-dev/echoprobe/internal/notify"
	"github.com/hazz-dev/echoprobe/internal/resultlog"
)

// Runner wires the collaborators of a probe cycle.
type Runner struct {
	checker  checker.Checker
	notifier notify.Notifier
	log      resultlog.Log
	sendTo   string
	token    func() string
	now      func() time.Time
	logger   *slog.Logger
}

// New creates a Runner that alerts sendTo on failure. Pass nil logger to use
// the default logger.
func New(c checker.Checker, n notify.Notifier, log resultlog.Log, sendTo string, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		checker:  c,
		notifier: n,
		log:      log,
		sendTo:   sendTo,
		token:    challenge.Generate,
		now:      time.Now,
		logger:   logger,
	}
}

// SetTokenFunc replaces the challenge generator.
func (r *Runner) SetTokenFunc(fn func() string) {
	r.token = fn
}

// SetClock replaces the source of entry timestamps.
func (r *Runner) SetClock(now func() time.Time) {
	r.now = now
}

// Run executes one cycle and returns the recorded entry. Probe and
// notification failures are recorded in the entry; the returned error is
// non-nil only when the entry could not be written.
func (r *Runner) Run(ctx context.Context) (resultlog.Entry, error) {
	token := r.token()
	issued := r.now().UTC()

	result := r.checker.Check(ctx, token)

	entry := resultlog.Entry{
		Version:      resultlog.CurrentVersion,
		Timestamp:    issued,
		PingedURL:    result.URL,
		RequestState: token,
	}

	if result.OK() {
		r.logger.Info("healthcheck ok", "url", result.URL, "response_time", result.ResponseTime)
		entry.PingResult = resultlog.PingSuccess
		entry.EmailResult = resultlog.EmailNotSent
	} else {
		r.logger.Error("healthcheck failed", "url", result.URL, "error", result.Error)
		entry.PingResult = resultlog.PingFailure
		entry.PingError = result.Error

		subject, body := notify.FailureMessage(result.Error)
		if err := r.notifier.Send(ctx, r.sendTo, subject, body); err != nil {
			entry.EmailResult = resultlog.EmailFailedToSend
			entry.EmailError = err.Error()
		} else {
			r.logger.Info("failure notification sent", "to", r.sendTo)
			entry.EmailResult = resultlog.EmailSentSuccessfully
		}
	}

	if err := r.log.Append(ctx, entry); err != nil {
		return entry, fmt.Errorf("recording probe result: %w", err)
	}
	return entry, nil
}
