package adapter

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized is returned when the server rejects the bearer token.
	ErrUnauthorized = errors.New("client unauthorized")

	// ErrServerUnavailable is returned by Health when the server cannot be
	// reached.
	ErrServerUnavailable = errors.New("server unavailable")
)

// TransportError wraps any transport-level push failure: connection errors,
// timeouts, and non-2xx responses. The sync engine treats it as transient
// and schedules a bounded retry; it never carries per-mutation rejections.
type TransportError struct {
	// Op names the failed operation (e.g. "push").
	Op string

	// Err is the underlying cause.
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransportError reports whether err is (or wraps) a transport-level
// failure.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
