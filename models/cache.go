package models

import (
	"encoding/json"
	"time"
)

// CacheEntry is a read-through snapshot of a server resource, keyed by
// resource identity. It is not authoritative: the next successful read
// overwrites it, and there is no automatic expiry.
type CacheEntry struct {
	// Key is the resource identity (e.g. "sample:42").
	Key string `json:"key"`

	// EntityType groups entries for bulk lookup by kind.
	EntityType string `json:"entity_type"`

	// Data is the opaque cached representation.
	Data json.RawMessage `json:"data"`

	// UpdatedAt is when this snapshot was last written.
	UpdatedAt time.Time `json:"updated_at"`
}

// MetaEntry is a singleton key/value pair owned by the sync engine and
// environment glue (e.g. "last_sync_time").
type MetaEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// MetaLastSyncTime is the meta key under which the engine persists the
// completion time of the last successful cycle, in RFC 3339 format.
const MetaLastSyncTime = "last_sync_time"
