package remote

import (
	"errors"
	"fmt"
)

// ErrServer is wrapped by every non-2xx gateway response. Match with
// errors.Is.
var ErrServer = errors.New("server error")

// ErrTransport is wrapped by network-level failures (DNS, refused
// connections, timeouts).
var ErrTransport = errors.New("transport error")

// Error is a classified gateway failure. StatusCode is zero for transport
// errors. Recoverable failures are worth retrying with backoff; the rest
// should fail immediately.
type Error struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrServer
}

// Recoverable reports whether the failure may be transient. Transport
// errors and 5xx (plus 408/429) responses are recoverable; other 4xx are
// not.
func (e *Error) Recoverable() bool {
	if e.StatusCode == 0 {
		return true
	}
	switch {
	case e.StatusCode == 408, e.StatusCode == 429:
		return true
	case e.StatusCode >= 500:
		return true
	default:
		return false
	}
}

func newServerError(op string, status int, message string) *Error {
	return &Error{Op: op, StatusCode: status, Message: message}
}

func newTransportError(op string, err error) *Error {
	return &Error{Op: op, Err: fmt.Errorf("%w: %w", ErrTransport, err)}
}
