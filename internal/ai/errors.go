package ai

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var ErrNotConfigured = errors.New("llm client is not configured")

type UpstreamKind string

const (
	KindRateLimited    UpstreamKind = "rate_limited"
	KindQuotaExhausted UpstreamKind = "quota_exhausted"
	KindFailed         UpstreamKind = "failed"
)

// UpstreamError is a non-success HTTP status from the model provider.
type UpstreamError struct {
	StatusCode int
	Kind       UpstreamKind
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("llm response status %d (%s): %s", e.StatusCode, e.Kind, truncate(e.Body, 512))
}

func newUpstreamError(status int, body string) *UpstreamError {
	return &UpstreamError{StatusCode: status, Kind: classify(status, body), Body: body}
}

// classify separates billing exhaustion from throttling. Some providers
// report an empty balance as 429 with an insufficient_quota code.
func classify(status int, body string) UpstreamKind {
	lower := strings.ToLower(body)
	quota := strings.Contains(lower, "insufficient_quota") ||
		strings.Contains(lower, "billing") ||
		strings.Contains(lower, "credit") ||
		strings.Contains(lower, "quota")
	switch {
	case status == http.StatusPaymentRequired:
		return KindQuotaExhausted
	case status == http.StatusTooManyRequests && quota:
		return KindQuotaExhausted
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	default:
		return KindFailed
	}
}

// KindOf reports the upstream kind of err, or "" when err did not come from a
// provider response.
func KindOf(err error) UpstreamKind {
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return upstream.Kind
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
