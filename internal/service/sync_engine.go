package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/adb3502/liims-sub002/internal/adapter"
	"github.com/adb3502/liims-sub002/internal/config"
	"github.com/adb3502/liims-sub002/internal/connectivity"
	"github.com/adb3502/liims-sub002/internal/logger"
	"github.com/adb3502/liims-sub002/internal/store"
	"github.com/adb3502/liims-sub002/models"
)

const (
	defaultBaseDelay  = 2 * time.Second
	defaultMaxRetries = 5
	defaultLockTTL    = 30 * time.Second
)

// Engine is the [SyncEngine] implementation. A single Engine owns the
// in-memory single-flight guard; the store-level sync lock extends that
// guard across processes sharing the same database file.
type Engine struct {
	mutations store.MutationRepository
	meta      store.MetaRepository
	adapter   adapter.ServerAdapter
	monitor   connectivity.Monitor
	logger    *logger.Logger

	baseDelay  time.Duration
	maxRetries int
	lockOwner  string
	lockTTL    time.Duration

	bus *progressBus

	mu           sync.Mutex
	syncing      bool
	closed       bool
	retryCount   int
	retryTimer   *time.Timer
	progress     models.SyncProgress
	unsubMonitor func()
}

var _ SyncEngine = (*Engine)(nil)

// NewSyncEngine wires an engine to its store, transport and connectivity
// signal. monitor may be nil, in which case the engine assumes the server is
// reachable and relies on transport errors alone. On construction the engine
// resets rows a crashed cycle left in flight and loads the persisted last
// sync time, so the first published snapshot reflects storage.
func NewSyncEngine(storages *store.Storages, serverAdapter adapter.ServerAdapter, monitor connectivity.Monitor, cfg *config.ClientConfig, log *logger.Logger) *Engine {
	baseDelay := cfg.Sync.BaseDelay
	if baseDelay <= 0 {
		baseDelay = defaultBaseDelay
	}
	maxRetries := cfg.Sync.MaxRetries
	if maxRetries < 0 {
		maxRetries = defaultMaxRetries
	}
	lockTTL := 2 * cfg.Adapter.RequestTimeout
	if lockTTL <= 0 {
		lockTTL = defaultLockTTL
	}

	e := &Engine{
		mutations:  storages.Mutations,
		meta:       storages.Meta,
		adapter:    serverAdapter,
		monitor:    monitor,
		logger:     log,
		baseDelay:  baseDelay,
		maxRetries: maxRetries,
		lockOwner:  uuid.NewString(),
		lockTTL:    lockTTL,
		bus:        newProgressBus(),
		progress:   models.NewSyncProgress(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), lockTTL)
	defer cancel()

	if err := e.mutations.ResetInFlight(ctx); err != nil {
		log.Error().
			Str("func", "NewSyncEngine").
			Err(err).
			Msg("error resetting in-flight mutations")
	}
	e.progress.LastSyncTime = e.loadLastSync(ctx)

	if monitor != nil {
		e.unsubMonitor = monitor.Subscribe(func(online bool) {
			if !online {
				return
			}
			go func() {
				triggerCtx, triggerCancel := context.WithTimeout(context.Background(), e.lockTTL)
				defer triggerCancel()
				e.TriggerSync(triggerCtx)
			}()
		})
	}

	return e
}

// TriggerSync implements [SyncEngine].
func (e *Engine) TriggerSync(ctx context.Context) models.SyncProgress {
	return e.trigger(ctx, true)
}

// GetProgress implements [SyncEngine].
func (e *Engine) GetProgress() models.SyncProgress {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.progress.Clone()
}

// Subscribe implements [SyncEngine].
func (e *Engine) Subscribe(fn func(models.SyncProgress)) func() {
	unsubscribe := e.bus.subscribe(fn)

	e.mu.Lock()
	snapshot := e.progress.Clone()
	e.mu.Unlock()
	fn(snapshot)

	return unsubscribe
}

// Refresh implements [SyncEngine].
func (e *Engine) Refresh(ctx context.Context) models.SyncProgress {
	last := e.loadLastSync(ctx)

	e.mu.Lock()
	if !e.syncing && last != nil {
		e.progress.LastSyncTime = last
	}
	snapshot := e.progress.Clone()
	e.mu.Unlock()

	e.bus.publish(snapshot)
	return snapshot
}

// Close implements [SyncEngine].
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	if e.retryTimer != nil {
		e.retryTimer.Stop()
		e.retryTimer = nil
	}
	unsubscribe := e.unsubMonitor
	e.unsubMonitor = nil
	e.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// trigger is the single entry point for cycles. manual triggers reset the
// retry counter and cancel a scheduled retry; the retry timer path keeps the
// counter so the backoff stays bounded.
func (e *Engine) trigger(ctx context.Context, manual bool) models.SyncProgress {
	e.mu.Lock()
	if e.closed || e.syncing {
		snapshot := e.progress.Clone()
		e.mu.Unlock()
		return snapshot
	}
	if e.monitor != nil && !e.monitor.Online() {
		snapshot := e.progress.Clone()
		e.mu.Unlock()
		return snapshot
	}
	if manual {
		e.retryCount = 0
		if e.retryTimer != nil {
			e.retryTimer.Stop()
			e.retryTimer = nil
		}
	}
	e.syncing = true
	e.mu.Unlock()

	return e.runCycle(ctx)
}

func (e *Engine) runCycle(ctx context.Context) models.SyncProgress {
	log := e.logger.With().Str("func", "Engine.runCycle").Logger()

	if err := e.meta.AcquireSyncLock(ctx, e.lockOwner, e.lockTTL); err != nil {
		if errors.Is(err, store.ErrSyncLockHeld) {
			log.Info().Msg("cycle already in progress in another context")
			return e.settle(false, nil)
		}
		return e.failStore(err)
	}
	defer func() {
		if err := e.meta.ReleaseSyncLock(context.WithoutCancel(ctx), e.lockOwner); err != nil {
			log.Error().Err(err).Msg("error releasing sync lock")
		}
	}()

	if err := e.mutations.PurgeTerminal(ctx); err != nil {
		return e.failStore(err)
	}

	pending, err := e.mutations.ListPending(ctx)
	if err != nil {
		return e.failStore(err)
	}

	if len(pending) == 0 {
		last := e.loadLastSync(ctx)
		return e.settle(true, func(p *models.SyncProgress) {
			p.State = models.SyncIdle
			p.Total = 0
			p.Completed = 0
			p.Failed = 0
			p.Conflicts = []models.Conflict{}
			p.Error = ""
			if last != nil {
				p.LastSyncTime = last
			}
		})
	}

	ids := make([]string, len(pending))
	for i, m := range pending {
		ids[i] = m.ID
	}
	if err = e.mutations.MarkSyncing(ctx, ids); err != nil {
		return e.failStore(err)
	}

	e.publishSyncing(len(pending))

	response, err := e.adapter.PushMutations(ctx, buildPushRequest(pending))
	if err != nil {
		// Nothing reached the server; fold the batch back to pending so
		// the scheduled retry resubmits it in the same order.
		if resetErr := e.mutations.ResetInFlight(context.WithoutCancel(ctx)); resetErr != nil {
			log.Error().Err(resetErr).Msg("error returning in-flight mutations to pending")
		}
		return e.failTransport(err)
	}

	rejected := make(map[string]struct{}, len(response.Errors))
	for _, mutationErr := range response.Errors {
		rejected[mutationErr.MutationID] = struct{}{}
	}

	for _, m := range pending {
		if _, isRejected := rejected[m.ID]; isRejected {
			if err = e.mutations.SetStatus(ctx, m.ID, models.MutationFailed); err != nil {
				log.Error().Str("mutation_id", m.ID).Err(err).Msg("error marking mutation failed")
			}
			continue
		}
		if err = e.mutations.Remove(ctx, m.ID); err != nil {
			log.Error().Str("mutation_id", m.ID).Err(err).Msg("error removing confirmed mutation")
		}
	}

	now := time.Now().UTC()
	if err = e.meta.Set(ctx, models.MetaLastSyncTime, now.Format(time.RFC3339Nano)); err != nil {
		log.Error().Err(err).Msg("error persisting last sync time")
	}

	log.Info().
		Int("total", len(pending)).
		Int("applied", response.Applied).
		Int("skipped", response.Skipped).
		Int("rejected", len(response.Errors)).
		Int("conflicts", len(response.Conflicts)).
		Msg("push cycle completed")

	return e.settle(true, func(p *models.SyncProgress) {
		p.State = models.SyncIdle
		p.Total = len(pending)
		p.Completed = response.Applied
		p.Failed = len(response.Errors)
		p.Conflicts = response.Conflicts
		p.Error = ""
		p.LastSyncTime = &now
	})
}

// settle ends a cycle: clears the in-flight guard, applies mutate to the
// snapshot under the lock and publishes the result. mutate == nil leaves the
// snapshot as is and publishes nothing.
func (e *Engine) settle(success bool, mutate func(*models.SyncProgress)) models.SyncProgress {
	e.mu.Lock()
	e.syncing = false
	if success {
		e.retryCount = 0
	}
	if mutate != nil {
		mutate(&e.progress)
	}
	snapshot := e.progress.Clone()
	e.mu.Unlock()

	if mutate != nil {
		e.bus.publish(snapshot)
	}
	return snapshot
}

// failStore ends the cycle in the error state without scheduling a retry:
// an unusable store is not something a resubmission can fix.
func (e *Engine) failStore(err error) models.SyncProgress {
	e.logger.Error().
		Str("func", "Engine.failStore").
		Err(err).
		Msg("store failure during push cycle")

	return e.settle(false, func(p *models.SyncProgress) {
		p.State = models.SyncError
		p.Error = err.Error()
	})
}

// failTransport ends the cycle in the error state and schedules an automatic
// retry after baseDelay * 2^retryCount, until maxRetries attempts have been
// spent. The queue is untouched; the next cycle resubmits everything.
func (e *Engine) failTransport(err error) models.SyncProgress {
	e.mu.Lock()
	e.syncing = false
	e.progress.State = models.SyncError
	e.progress.Error = err.Error()

	if !e.closed && e.retryCount < e.maxRetries {
		delay := e.baseDelay << uint(e.retryCount)
		e.retryCount++
		e.retryTimer = time.AfterFunc(delay, e.retryNow)

		e.logger.Warn().
			Str("func", "Engine.failTransport").
			Dur("delay", delay).
			Int("attempt", e.retryCount).
			Err(err).
			Msg("push failed, retry scheduled")
	} else {
		e.logger.Error().
			Str("func", "Engine.failTransport").
			Err(err).
			Msg("push failed, waiting for an external trigger")
	}

	snapshot := e.progress.Clone()
	e.mu.Unlock()

	e.bus.publish(snapshot)
	return snapshot
}

func (e *Engine) retryNow() {
	ctx, cancel := context.WithTimeout(context.Background(), e.lockTTL)
	defer cancel()
	e.trigger(ctx, false)
}

// publishSyncing emits the transient in-cycle snapshot once the batch is
// marked in the store, so subscribers see progress before the server answers.
func (e *Engine) publishSyncing(total int) {
	e.mu.Lock()
	e.progress.State = models.SyncSyncing
	e.progress.Total = total
	e.progress.Completed = 0
	e.progress.Failed = 0
	e.progress.Conflicts = []models.Conflict{}
	e.progress.Error = ""
	snapshot := e.progress.Clone()
	e.mu.Unlock()

	e.bus.publish(snapshot)
}

func (e *Engine) loadLastSync(ctx context.Context) *time.Time {
	raw, err := e.meta.Get(ctx, models.MetaLastSyncTime)
	if err != nil {
		if !errors.Is(err, store.ErrMetaNotFound) {
			e.logger.Error().
				Str("func", "Engine.loadLastSync").
				Err(err).
				Msg("error reading last sync time")
		}
		return nil
	}

	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		e.logger.Warn().
			Str("func", "Engine.loadLastSync").
			Str("value", raw).
			Err(err).
			Msg("unparseable last sync time in meta")
		return nil
	}

	t = t.UTC()
	return &t
}

func buildPushRequest(pending []models.Mutation) models.PushRequest {
	records := make([]models.MutationRecord, 0, len(pending))
	for _, m := range pending {
		records = append(records, models.MutationRecord{
			ID:        m.ID,
			Type:      m.Type,
			EntityID:  m.EntityID,
			Timestamp: m.CreatedAt,
			Payload:   m.Payload,
		})
	}
	return models.PushRequest{Mutations: records}
}
