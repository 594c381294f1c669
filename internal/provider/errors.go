package provider

import "fmt"

// ProtocolError is a failure reported by the identity server itself through
// the callback's error/error_description pair. The message is surfaced
// verbatim to the error channel.
type ProtocolError struct {
	Code        string
	Description string
}

func (e *ProtocolError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Description)
	}
	return e.Code
}

// MissingDataError is a callback that carries neither an error nor the data
// needed to proceed. Field names what was absent.
type MissingDataError struct {
	Field string
}

func (e *MissingDataError) Error() string {
	return fmt.Sprintf("callback is missing required field %q", e.Field)
}

// ExchangeError wraps a failed backend token exchange or user lookup.
type ExchangeError struct {
	Op  string
	Err error
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *ExchangeError) Unwrap() error {
	return e.Err
}

// SessionReadError wraps an unavailable or corrupt persistence read. It is
// always downgraded to "no session" before reaching a caller; the type
// exists so implementations can log the underlying cause.
type SessionReadError struct {
	Err error
}

func (e *SessionReadError) Error() string {
	return fmt.Sprintf("session read failed: %v", e.Err)
}

func (e *SessionReadError) Unwrap() error {
	return e.Err
}
