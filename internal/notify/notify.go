// Package notify delivers failure alerts to an operator.
package notify

import "context"

// Notifier sends a single message to a recipient.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

// FailureSubject is the subject of every failed-probe alert.
const FailureSubject = "Healthcheck failed"

// FailureMessage returns the subject and body announcing a failed probe.
func FailureMessage(reason string) (subject, body string) {
	return FailureSubject, "Server healthcheck has failed with error: " + reason
}
