package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MutationStatus is the lifecycle state of a queued mutation. Using a typed
// enum instead of free-form strings means every transition is checked at
// compile time.
type MutationStatus string

const (
	// MutationPending marks a mutation waiting to be submitted to the server.
	MutationPending MutationStatus = "pending"

	// MutationSyncing marks a mutation that is part of the batch currently
	// in flight. Rows left in this state after a crash are reset to pending
	// before the engine's first cycle runs.
	MutationSyncing MutationStatus = "syncing"

	// MutationSynced marks a mutation the server has confirmed as applied or
	// skipped. Synced rows are removed right away; any stragglers from an
	// interrupted cycle are purged on the next one.
	MutationSynced MutationStatus = "synced"

	// MutationFailed marks a mutation the server rejected. Failed rows stay
	// in the store for external visibility and are only resubmitted when the
	// next cycle picks them up again.
	MutationFailed MutationStatus = "failed"
)

// Valid reports whether s is one of the four known statuses. Repositories
// call this before writing a status to the database.
func (s MutationStatus) Valid() bool {
	switch s {
	case MutationPending, MutationSyncing, MutationSynced, MutationFailed:
		return true
	}
	return false
}

// String implements fmt.Stringer.
func (s MutationStatus) String() string { return string(s) }

// Mutation is a durable record of one client-initiated write made before or
// without server confirmation. The ID is generated on the client and stays
// stable across retries of the same logical write, which is what lets the
// server deduplicate resubmissions.
type Mutation struct {
	// ID is the client-generated UUID of this mutation. Immutable.
	ID string `json:"id"`

	// Type tags the domain operation (e.g. "sample.register"). The sync core
	// treats it as opaque.
	Type string `json:"type"`

	// EntityID optionally names the domain entity this mutation targets.
	EntityID string `json:"entity_id,omitempty"`

	// Payload is the opaque structured body of the write.
	Payload json.RawMessage `json:"payload"`

	// CreatedAt orders mutations for FIFO submission.
	CreatedAt time.Time `json:"created_at"`

	// Status is the current lifecycle state.
	Status MutationStatus `json:"status"`

	// RetryCount is incremented by exactly one each time the server returns
	// this mutation as rejected.
	RetryCount int `json:"retry_count"`
}

// NewMutation builds a pending mutation with a fresh UUID and the current
// timestamp. Returns an error when the mutation type is empty, since a
// typeless record could never be interpreted by the server.
func NewMutation(mutationType string, payload json.RawMessage, entityID string) (Mutation, error) {
	if mutationType == "" {
		return Mutation{}, fmt.Errorf("mutation type must not be empty")
	}

	return Mutation{
		ID:        uuid.NewString(),
		Type:      mutationType,
		EntityID:  entityID,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
		Status:    MutationPending,
	}, nil
}
