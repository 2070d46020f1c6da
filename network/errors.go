package network

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Kind classifies an upstream failure.
type Kind int

const (
	// KindTransport covers connection and protocol failures.
	KindTransport Kind = iota
	// KindTimeout covers an attempt that exceeded its deadline or was cancelled.
	KindTimeout
	// KindHTTP covers a non-2xx response.
	KindHTTP
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindHTTP:
		return "http"
	default:
		return "transport"
	}
}

// UpstreamError is the terminal failure of a fetch after its attempts ran out
// or after a response that must not be retried.
type UpstreamError struct {
	URL        string
	Kind       Kind
	StatusCode int
	Attempts   int
	Err        error
}

func (e *UpstreamError) Error() string {
	switch e.Kind {
	case KindHTTP:
		return fmt.Sprintf("upstream %s: status %d after %d attempt(s)", e.URL, e.StatusCode, e.Attempts)
	case KindTimeout:
		return fmt.Sprintf("upstream %s: timed out after %d attempt(s)", e.URL, e.Attempts)
	default:
		return fmt.Sprintf("upstream %s: %v", e.URL, e.Err)
	}
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// IsTimeout reports whether err is a deadline or cancellation failure.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}

	var upErr *UpstreamError
	if errors.As(err, &upErr) && upErr.Kind == KindTimeout {
		return true
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// StatusCode returns the upstream status carried by err, or 0.
func StatusCode(err error) int {
	var upErr *UpstreamError
	if errors.As(err, &upErr) {
		return upErr.StatusCode
	}
	return 0
}
