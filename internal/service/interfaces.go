// Package service contains the sync engine: the state machine that drains the
// offline mutation queue into the server in ordered batches, with bounded
// retry after transport failures, and a progress bus any number of consumers
// can subscribe to.
package service

import (
	"context"

	"github.com/adb3502/liims-sub002/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/service_mock.go -package=mock

// SyncEngine drives push cycles against the server of record. All engine
// failures land in the returned snapshot, never in an error value: callers
// that render sync status have exactly one thing to look at.
type SyncEngine interface {
	// TriggerSync runs one full push cycle and returns the resulting
	// snapshot. If a cycle is already in flight, or the device is offline,
	// it returns the current snapshot without starting a second submission.
	// A manual trigger resets the automatic retry counter.
	TriggerSync(ctx context.Context) models.SyncProgress

	// GetProgress returns a copy of the current snapshot synchronously.
	GetProgress() models.SyncProgress

	// Subscribe registers fn for every published snapshot and returns an
	// unsubscribe func. The subscriber immediately receives the current
	// snapshot; every emission is a deep copy.
	Subscribe(fn func(models.SyncProgress)) func()

	// Refresh re-reads persisted sync state from the store and republishes
	// the snapshot. Used after a cycle ran in another context against the
	// same database.
	Refresh(ctx context.Context) models.SyncProgress

	// Close cancels any scheduled retry and detaches the connectivity
	// subscription. No cycle starts after Close returns.
	Close()
}

// SyncJob is the background trigger: it fires a cycle on a ticker and on
// queue changes, but only while pending mutations exist.
type SyncJob interface {
	// Run starts the background loop. It returns immediately; the loop
	// stops when ctx is cancelled or Stop is called.
	Run(ctx context.Context)

	// Stop cancels the loop and blocks until it has exited.
	Stop()

	// Completions relays snapshots of cycles the job triggered, so a
	// foreground consumer can observe background outcomes without polling.
	Completions() <-chan models.SyncProgress
}
