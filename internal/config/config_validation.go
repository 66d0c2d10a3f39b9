package config

import (
	"errors"
	"fmt"
	"net/url"
)

// validate checks the merged configuration for values the sync core cannot
// run with. Defaults are merged before validation, so failures here mean an
// explicitly supplied value is unusable.
func (c *StructuredConfig) validate() error {
	var errs []error

	if c.Adapter.BaseURL == "" {
		errs = append(errs, ErrEmptyBaseURL)
	} else if _, err := url.ParseRequestURI(c.Adapter.BaseURL); err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", ErrInvalidBaseURL, err))
	}

	if c.Adapter.RequestTimeout <= 0 {
		errs = append(errs, ErrInvalidRequestTimeout)
	}

	if c.Storage.DB.DSN == "" {
		errs = append(errs, ErrEmptyDSN)
	}

	if c.Sync.BaseDelay <= 0 {
		errs = append(errs, ErrInvalidBaseDelay)
	}

	if c.Sync.MaxRetries < 0 {
		errs = append(errs, ErrInvalidMaxRetries)
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation: %w", errors.Join(errs...))
	}

	return nil
}
