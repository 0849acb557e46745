// Package checker runs the challenge/response liveness probe against a
// target's health endpoint.
package checker

import (
	"context"
	"net/url"
	"strings"
)

// HealthPath is the endpoint every probed service exposes.
const HealthPath = "/api/health"

// Checker performs a single probe carrying token.
type Checker interface {
	Check(ctx context.Context, token string) CheckResult
}

// ProbeURL returns the URL that asks the service at base to echo token.
func ProbeURL(base, token string) string {
	return strings.TrimSuffix(base, "/") + HealthPath + "?state=" + url.QueryEscape(token)
}
