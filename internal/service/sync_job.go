package service

import (
	"context"
	"sync"
	"time"

	"github.com/adb3502/liims-sub002/internal/logger"
	"github.com/adb3502/liims-sub002/internal/store"
	"github.com/adb3502/liims-sub002/models"
)

const defaultSyncInterval = 5 * time.Minute

// syncJob is the [SyncJob] implementation: a ticker plus the store's
// queue-changed event, gated on the pending count so an idle queue never
// produces network traffic.
type syncJob struct {
	engine    SyncEngine
	mutations store.MutationRepository
	interval  time.Duration
	logger    *logger.Logger

	completions chan models.SyncProgress
	kick        chan struct{}

	mu         sync.Mutex
	cancel     context.CancelFunc
	unsubQueue func()
	wg         sync.WaitGroup
}

var _ SyncJob = (*syncJob)(nil)

// NewSyncJob creates the background trigger for engine. interval <= 0 falls
// back to five minutes.
func NewSyncJob(engine SyncEngine, mutations store.MutationRepository, interval time.Duration, log *logger.Logger) SyncJob {
	if interval <= 0 {
		interval = defaultSyncInterval
	}

	return &syncJob{
		engine:      engine,
		mutations:   mutations,
		interval:    interval,
		logger:      log,
		completions: make(chan models.SyncProgress, 8),
		kick:        make(chan struct{}, 1),
	}
}

// Run implements [SyncJob]. Calling Run on a job that is already running is
// a no-op.
func (j *syncJob) Run(ctx context.Context) {
	j.mu.Lock()
	if j.cancel != nil {
		j.mu.Unlock()
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.unsubQueue = j.mutations.SubscribeQueue(func() {
		select {
		case j.kick <- struct{}{}:
		default:
		}
	})
	j.wg.Add(1)
	j.mu.Unlock()

	j.logger.Info().
		Str("func", "syncJob.Run").
		Dur("interval", j.interval).
		Msg("background sync job started")

	go func() {
		defer j.wg.Done()

		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()

		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
			case <-j.kick:
			}
			j.syncIfPending(runCtx)
		}
	}()
}

// Stop implements [SyncJob]. Safe to call on a job that never ran.
func (j *syncJob) Stop() {
	j.mu.Lock()
	cancel := j.cancel
	unsubscribe := j.unsubQueue
	j.cancel = nil
	j.unsubQueue = nil
	j.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	if cancel != nil {
		cancel()
	}
	j.wg.Wait()
}

// Completions implements [SyncJob].
func (j *syncJob) Completions() <-chan models.SyncProgress {
	return j.completions
}

func (j *syncJob) syncIfPending(ctx context.Context) {
	count, err := j.mutations.CountPending(ctx)
	if err != nil {
		j.logger.Error().
			Str("func", "syncJob.syncIfPending").
			Err(err).
			Msg("error counting pending mutations")
		return
	}
	if count == 0 {
		return
	}

	progress := j.engine.TriggerSync(ctx)

	// Nonblocking relay: a slow consumer can always fall back to
	// engine.GetProgress for the latest snapshot.
	select {
	case j.completions <- progress:
	default:
	}
}
