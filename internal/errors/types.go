package errors

import (
	"context"
	"errors"
	"net"
	"net/http"
	"syscall"
)

// StatusCoder is implemented by errors that carry an HTTP status code.
type StatusCoder interface {
	StatusCode() int
}

// IsTransient reports whether an error is worth retrying on a later cycle:
// network failures, timeouts, and retryable HTTP statuses. Explicit
// cancellation is not transient because the caller asked for it.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var sc StatusCoder
	if errors.As(err, &sc) {
		return isTransientHTTPStatus(sc.StatusCode())
	}

	return isNetworkError(err)
}

func isTransientHTTPStatus(status int) bool {
	switch status {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func isNetworkError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	switch {
	case errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.EPIPE),
		errors.Is(err, syscall.ETIMEDOUT):
		return true
	}

	var opErr *net.OpError
	return errors.As(err, &opErr)
}
