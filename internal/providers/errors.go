package providers

import (
	"errors"
	"fmt"
)

// TransportError reports that a provider could not complete a request:
// network failure, rejected credentials, exhausted quota or any non-success
// HTTP status. StatusCode is 0 when no response was received.
type TransportError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s transport failure (status %d): %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s transport failure: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// MalformedResponseError reports that a structured call returned content that
// could not be parsed as JSON or does not match the requested schema.
type MalformedResponseError struct {
	Provider string
	Schema   string
	Content  string
	Err      error
}

func (e *MalformedResponseError) Error() string {
	if e.Schema != "" {
		return fmt.Sprintf("%s returned malformed %s response: %v", e.Provider, e.Schema, e.Err)
	}
	return fmt.Sprintf("%s returned malformed response: %v", e.Provider, e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// IsTransport reports whether err is, or wraps, a *TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsMalformed reports whether err is, or wraps, a *MalformedResponseError.
func IsMalformed(err error) bool {
	var me *MalformedResponseError
	return errors.As(err, &me)
}

// isRetryableStatus returns true for status codes worth retrying.
func isRetryableStatus(statusCode int) bool {
	switch statusCode {
	case 413, 422: // often cache/format issues upstream; retry with nonce
		return true
	case 429:
		return true
	case 520, 521, 522, 523, 524: // Cloudflare
		return true
	default:
		return statusCode >= 500
	}
}

// isRetryable decides whether a failed attempt should be retried.
func isRetryable(err error) bool {
	var te *TransportError
	if !errors.As(err, &te) {
		return false
	}
	// No status means the request never completed (network error).
	if te.StatusCode == 0 {
		return true
	}
	return isRetryableStatus(te.StatusCode)
}
