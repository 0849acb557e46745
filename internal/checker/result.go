package checker

import "time"

// Status represents the outcome of a single probe.
type Status string

const (
	StatusUp   Status = "up"
	StatusDown Status = "down"
)

// CheckResult is the outcome of a single probe. Error is empty exactly when
// Status is StatusUp.
type CheckResult struct {
	URL          string
	Token        string
	Status       Status
	ResponseTime time.Duration
	Error        string
	CheckedAt    time.Time
}

// OK reports whether every validation step passed.
func (r CheckResult) OK() bool {
	return r.Status == StatusUp
}
