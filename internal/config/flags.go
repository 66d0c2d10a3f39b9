package config

import (
	"flag"
	"time"
)

// ParseFlags parses all configuration flags.
//
// Flags:
//
//	-a server base URL
//	-d local database DSN (SQLite file path)
//	-hash-key transport integrity hash key
//	-request-timeout outbound request timeout (e.g., "15s")
//	-sync-interval background sync interval (e.g., "5m")
//	-probe-interval connectivity probe interval (e.g., "30s")
//	-base-delay first retry delay after a transport failure (e.g., "2s")
//	-max-retries automatic retry bound after transport failures
func ParseFlags() *StructuredConfig {
	var baseURL string
	var databaseDSN string
	var hashKey string
	var requestTimeout time.Duration
	var syncInterval time.Duration
	var probeInterval time.Duration
	var baseDelay time.Duration
	var maxRetries int

	flag.StringVar(&baseURL, "a", "", "Server base URL")
	flag.StringVar(&databaseDSN, "d", "", "Local database DSN")
	flag.StringVar(&hashKey, "hash-key", "", "Transport hash key")
	flag.DurationVar(&requestTimeout, "request-timeout", 0, "Request timeout (e.g., 15s)")
	flag.DurationVar(&syncInterval, "sync-interval", 0, "Background sync interval (e.g., 5m)")
	flag.DurationVar(&probeInterval, "probe-interval", 0, "Connectivity probe interval (e.g., 30s)")
	flag.DurationVar(&baseDelay, "base-delay", 0, "First retry delay (e.g., 2s)")
	flag.IntVar(&maxRetries, "max-retries", 0, "Automatic retry bound")

	flag.Parse()

	return &StructuredConfig{
		App: App{
			HashKey: hashKey,
		},
		Adapter: Adapter{
			BaseURL:        baseURL,
			RequestTimeout: requestTimeout,
		},
		Storage: Storage{
			DB: DB{
				DSN: databaseDSN,
			},
		},
		Sync: Sync{
			Interval:      syncInterval,
			ProbeInterval: probeInterval,
			BaseDelay:     baseDelay,
			MaxRetries:    maxRetries,
		},
	}
}
