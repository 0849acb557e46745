package checker

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"
)

// HealthChecker probes a single base URL. Each Check is one blocking GET with
// no retry; validation stops at the first failing step.
type HealthChecker struct {
	baseURL string
	client  *http.Client
}

// NewHealthChecker returns a checker for the service at baseURL. A zero
// timeout leaves the request unbounded.
func NewHealthChecker(baseURL string, timeout time.Duration) *HealthChecker {
	return &HealthChecker{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// NewHealthCheckerWithClient creates a checker with a custom HTTP client (for testing).
func NewHealthCheckerWithClient(baseURL string, client *http.Client) *HealthChecker {
	return &HealthChecker{baseURL: baseURL, client: client}
}

func (c *HealthChecker) Check(ctx context.Context, token string) CheckResult {
	start := time.Now()
	result := CheckResult{
		URL:       ProbeURL(c.baseURL, token),
		Token:     token,
		CheckedAt: start.UTC(),
	}
	fail := func(format string, args ...any) CheckResult {
		result.ResponseTime = time.Since(start)
		result.Status = StatusDown
		result.Error = fmt.Sprintf(format, args...)
		return result
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, result.URL, nil)
	if err != nil {
		return fail("failed to send request: %v", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fail("failed to send request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fail("got error response %s from server", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fail("failed to read text response: %v", err)
	}
	if !utf8.Valid(body) {
		return fail("failed to read text response: body is not valid UTF-8")
	}

	if got := string(body); got != token {
		return fail("got invalid state response, expected %s, got %s", token, got)
	}

	result.ResponseTime = time.Since(start)
	result.Status = StatusUp
	return result
}
