package config

import "errors"

// Validation sentinel errors. Callers should use [errors.Is] to match
// against these values.
var (
	// ErrEmptyBaseURL is returned when no server base URL is configured.
	ErrEmptyBaseURL = errors.New("server base url is empty")

	// ErrInvalidBaseURL is returned when the configured base URL cannot be
	// parsed.
	ErrInvalidBaseURL = errors.New("server base url is invalid")

	// ErrInvalidRequestTimeout is returned when the outbound request timeout
	// is zero or negative.
	ErrInvalidRequestTimeout = errors.New("request timeout must be positive")

	// ErrEmptyDSN is returned when no local database path is configured.
	ErrEmptyDSN = errors.New("local database dsn is empty")

	// ErrInvalidBaseDelay is returned when the retry base delay is zero or
	// negative, which would make the backoff schedule degenerate.
	ErrInvalidBaseDelay = errors.New("retry base delay must be positive")

	// ErrInvalidMaxRetries is returned when the automatic retry bound is
	// negative.
	ErrInvalidMaxRetries = errors.New("max retries must not be negative")
)
