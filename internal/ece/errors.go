package ece

import (
	"context"
	"errors"
	"net"
)

// Error kinds for failed fetches. Callers match with errors.Is; everything the
// client returns wraps exactly one of these.
var (
	// ErrAuth means the configured credentials were rejected (401/403).
	ErrAuth = errors.New("ece: credentials rejected")

	// ErrTransport covers connection, DNS and TLS failures, and any
	// unexpected HTTP status that is not an auth rejection.
	ErrTransport = errors.New("ece: transport failure")

	// ErrTimeout means the request deadline elapsed before a response settled.
	ErrTimeout = errors.New("ece: deadline exceeded")

	// ErrDecode means the response body was not a well-formed document.
	ErrDecode = errors.New("ece: malformed response")
)

// Reason returns a short stable string for the error's kind, suitable as a
// metric label value.
func Reason(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrAuth):
		return "auth"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrDecode):
		return "decode"
	case errors.Is(err, ErrTransport):
		return "transport"
	default:
		return "unknown"
	}
}

// kindOf maps a raw http.Client error to ErrTimeout or ErrTransport.
func kindOf(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return ErrTimeout
	}
	return ErrTransport
}
