package models

import (
	"encoding/json"
	"time"
)

// MutationRecord is the wire representation of one queued mutation inside a
// push request.
type MutationRecord struct {
	// ID is the client-generated mutation UUID. The server deduplicates
	// resubmissions by this value.
	ID string `json:"id"`

	// Type tags the domain operation.
	Type string `json:"type"`

	// EntityID optionally names the target entity.
	EntityID string `json:"entity_id,omitempty"`

	// Timestamp is the client-side creation time of the mutation.
	Timestamp time.Time `json:"timestamp"`

	// Payload is the opaque mutation body.
	Payload json.RawMessage `json:"payload"`
}

// PushRequest is the single batched exchange submitting all currently pending
// mutations, in the order they were created on this client.
type PushRequest struct {
	Mutations []MutationRecord `json:"mutations"`
}

// MutationError is a per-mutation business rejection reported by the server.
// It is permanent from the engine's perspective: the mutation is kept locally
// as failed and never auto-retried on its own.
type MutationError struct {
	// MutationID is the id of the rejected mutation. May be empty when the
	// server could not attribute the error to a specific record.
	MutationID string `json:"mutation_id,omitempty"`

	// Error is the server's rejection message.
	Error string `json:"error"`
}

// PushResponse is the server's verdict on one push batch. Applied and skipped
// mutations are both terminal successes from the client's perspective.
type PushResponse struct {
	// Applied is the number of mutations the server applied.
	Applied int `json:"applied"`

	// Skipped is the number of mutations the server recognised as already
	// applied (idempotent resubmissions) and ignored.
	Skipped int `json:"skipped"`

	// Conflicts lists server-resolved conflicts, for display only.
	Conflicts []Conflict `json:"conflicts"`

	// Errors lists per-mutation rejections keyed by mutation id.
	Errors []MutationError `json:"errors"`
}
