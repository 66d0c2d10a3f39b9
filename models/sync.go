package models

import (
	"encoding/json"
	"time"
)

// SyncState is the state of the sync engine's cycle state machine. There are
// exactly three states; individual mutation rejections never produce
// SyncError, only transport-level failures do.
type SyncState string

const (
	// SyncIdle means no cycle is running.
	SyncIdle SyncState = "idle"

	// SyncSyncing means exactly one cycle is in flight.
	SyncSyncing SyncState = "syncing"

	// SyncError means the last cycle failed at the transport level and the
	// engine is waiting for a scheduled retry or an external trigger.
	SyncError SyncState = "error"
)

// Conflict describes a server-detected divergence between a client write and
// a newer authoritative value. The server has already resolved it
// (server-wins); the client only displays the outcome.
type Conflict struct {
	// EntityType is the domain entity kind (e.g. "sample").
	EntityType string `json:"entity_type"`

	// EntityID identifies the conflicting record.
	EntityID string `json:"entity_id"`

	// Field names the attribute that collided.
	Field string `json:"field"`

	// ClientValue is the value the client submitted.
	ClientValue json.RawMessage `json:"client_value"`

	// ServerValue is the authoritative value at the time of the push.
	ServerValue json.RawMessage `json:"server_value"`

	// ResolvedValue is the value the server kept.
	ResolvedValue json.RawMessage `json:"resolved_value"`
}

// SyncProgress is the immutable snapshot of sync state published to
// subscribers. It is rebuilt each cycle, never persisted, and is the single
// source of truth for anything rendering sync status.
type SyncProgress struct {
	// State is the engine state after the event that produced this snapshot.
	State SyncState `json:"state"`

	// Total is the number of mutations submitted in the current or most
	// recent cycle.
	Total int `json:"total"`

	// Completed is the number of mutations the server applied. Duplicates
	// the server skipped are removed from the queue but not counted here.
	Completed int `json:"completed"`

	// Failed is the number of per-mutation rejections in the last response.
	Failed int `json:"failed"`

	// Conflicts lists the server-resolved conflicts from the last cycle.
	Conflicts []Conflict `json:"conflicts"`

	// LastSyncTime is when the last cycle completed without a transport
	// error, nil if no cycle has ever completed.
	LastSyncTime *time.Time `json:"last_sync_time,omitempty"`

	// Error holds the transport failure message when State is SyncError,
	// empty otherwise.
	Error string `json:"error,omitempty"`
}

// NewSyncProgress returns the snapshot a fresh engine publishes before any
// cycle has run.
func NewSyncProgress() SyncProgress {
	return SyncProgress{State: SyncIdle, Conflicts: []Conflict{}}
}

// Clone returns a deep copy of the snapshot so subscribers cannot corrupt
// shared engine state by mutating what they receive.
func (p SyncProgress) Clone() SyncProgress {
	out := p

	out.Conflicts = make([]Conflict, len(p.Conflicts))
	copy(out.Conflicts, p.Conflicts)

	if p.LastSyncTime != nil {
		t := *p.LastSyncTime
		out.LastSyncTime = &t
	}

	return out
}
