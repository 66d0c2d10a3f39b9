package config

import (
	"time"
)

// StructuredConfig is the top-level configuration container for the liims
// sync client. It is populated by merging values from environment variables,
// command-line flags, and built-in defaults.
//
// Struct tags:
//   - envPrefix — prefix applied to all nested env tag lookups (caarlos0/env).
//   - env       — direct environment variable name for scalar fields.
type StructuredConfig struct {
	// App holds application-level settings such as the transport hash key.
	App App `envPrefix:"APP_"`

	// Adapter holds network settings for the outbound server transport.
	Adapter Adapter `envPrefix:"ADAPTER_"`

	// Storage holds configuration for the local persistence backend.
	Storage Storage `envPrefix:"STORAGE_"`

	// Sync holds sync engine and background worker settings.
	Sync Sync `envPrefix:"SYNC_"`
}

// App holds application-level configuration values.
type App struct {
	// HashKey is the HMAC key used for push request integrity checking.
	// When empty, no integrity header is attached.
	// Env: APP_HASH_KEY
	HashKey string `env:"HASH_KEY"`
}

// Adapter holds settings for the outbound HTTP transport.
type Adapter struct {
	// BaseURL is the server base URL (e.g. "https://lab.example.org").
	// Env: ADAPTER_BASE_URL
	BaseURL string `env:"BASE_URL"`

	// RequestTimeout is the maximum duration of a single outbound request.
	// Env: ADAPTER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
}

// Storage groups configuration for local persistence backends.
type Storage struct {
	// DB holds the local SQLite connection settings.
	DB DB `envPrefix:"DB_"`
}

// DB holds connection settings for the local SQLite database.
type DB struct {
	// DSN is the SQLite file path (e.g. "liims.db").
	// Env: STORAGE_DB_DSN
	DSN string `env:"DSN"`
}

// Sync holds sync engine timing and retry settings.
type Sync struct {
	// Interval is how often the background job checks for pending mutations
	// and triggers a cycle.
	// Env: SYNC_INTERVAL
	Interval time.Duration `env:"INTERVAL"`

	// ProbeInterval is how often the connectivity monitor probes the server
	// health endpoint.
	// Env: SYNC_PROBE_INTERVAL
	ProbeInterval time.Duration `env:"PROBE_INTERVAL"`

	// BaseDelay is the first retry delay after a transport failure; attempt
	// j is scheduled after BaseDelay * 2^j.
	// Env: SYNC_BASE_DELAY
	BaseDelay time.Duration `env:"BASE_DELAY"`

	// MaxRetries bounds the number of automatic retries after transport
	// failures before the engine waits for an external trigger.
	// Env: SYNC_MAX_RETRIES
	MaxRetries int `env:"MAX_RETRIES"`
}

// defaults returns the built-in configuration merged in last, so any value
// the environment or flags leave empty falls back to something workable.
func defaults() *StructuredConfig {
	return &StructuredConfig{
		Adapter: Adapter{
			BaseURL:        "http://localhost:8080",
			RequestTimeout: 15 * time.Second,
		},
		Storage: Storage{
			DB: DB{DSN: "liims.db"},
		},
		Sync: Sync{
			Interval:      5 * time.Minute,
			ProbeInterval: 30 * time.Second,
			BaseDelay:     2 * time.Second,
			MaxRetries:    5,
		},
	}
}

// GetStructuredConfig builds the merged configuration: environment variables
// take precedence over flags, which take precedence over defaults.
func GetStructuredConfig() (*StructuredConfig, error) {
	return newConfigBuilder().
		withEnv().
		withFlags().
		withDefaults().
		build()
}
