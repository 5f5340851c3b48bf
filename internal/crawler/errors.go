package crawler

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
)

// ErrCaptchaDetected is returned when a response body carries the site's
// captcha challenge marker. Never retried: hammering a captcha wall wastes
// request budget and risks the source IP.
var ErrCaptchaDetected = errors.New("captcha challenge detected")

// ErrRootUnreachable aborts a run when the catalog root cannot be fetched.
var ErrRootUnreachable = errors.New("catalog root unreachable")

// HTTPStatusError reports a non-2xx response that survived the retry policy.
type HTTPStatusError struct {
	URL  string
	Code int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d fetching %s", e.Code, e.URL)
}

// IsTransient classifies an error as a transient network fault: timeouts,
// connection resets, and 5xx/429 statuses qualify for a retry.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, ErrCaptchaDetected) {
		return false
	}
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code >= 500 || statusErr.Code == 429
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

// IsRateLimited reports whether the error is an HTTP 429.
func IsRateLimited(err error) bool {
	var statusErr *HTTPStatusError
	return errors.As(err, &statusErr) && statusErr.Code == 429
}
