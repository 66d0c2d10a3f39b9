// Package connectivity tracks whether the server of record is reachable and
// notifies subscribers on transitions, so consumers never have to poll.
package connectivity

import (
	"context"
	"sync"
	"time"

	"github.com/adb3502/liims-sub002/internal/adapter"
	"github.com/adb3502/liims-sub002/internal/logger"
)

// Monitor exposes the current online/offline signal and a subscription for
// transitions. A transition to online is the primary external trigger for a
// sync cycle.
type Monitor interface {
	// Online reports the current connectivity state synchronously.
	Online() bool

	// Subscribe registers fn to run on every transition and returns an
	// unsubscribe func. fn receives the new state.
	Subscribe(fn func(online bool)) func()
}

// ProbeMonitor implements [Monitor] by periodically probing the server
// health endpoint and edge-detecting transitions. It also accepts manual
// overrides via SetOnline, used when the host environment has a better
// signal than the probe.
type ProbeMonitor struct {
	adapter  adapter.ServerAdapter
	interval time.Duration
	logger   *logger.Logger

	mu          sync.Mutex
	online      bool
	nextID      int
	subscribers map[int]func(online bool)

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewProbeMonitor creates a monitor that probes serverAdapter every
// interval once Run is called. The monitor starts offline; the first
// successful probe flips it online.
func NewProbeMonitor(serverAdapter adapter.ServerAdapter, interval time.Duration, log *logger.Logger) *ProbeMonitor {
	if interval <= 0 {
		interval = 30 * time.Second
	}

	return &ProbeMonitor{
		adapter:     serverAdapter,
		interval:    interval,
		logger:      log,
		subscribers: make(map[int]func(online bool)),
	}
}

// Online implements [Monitor].
func (m *ProbeMonitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Subscribe implements [Monitor].
func (m *ProbeMonitor) Subscribe(fn func(online bool)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	m.subscribers[id] = fn

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subscribers, id)
	}
}

// SetOnline overrides the current state, notifying subscribers if it
// changed.
func (m *ProbeMonitor) SetOnline(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	fns := make([]func(bool), 0, len(m.subscribers))
	for _, fn := range m.subscribers {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	m.logger.Info().
		Str("func", "ProbeMonitor.SetOnline").
		Bool("online", online).
		Msg("connectivity transition")

	for _, fn := range fns {
		fn(online)
	}
}

// Run probes immediately, then on every tick, until ctx is cancelled or
// Stop is called. Implements the workers.Worker contract via the aggregate
// in cmd/client.
func (m *ProbeMonitor) Run(ctx context.Context) {
	m.mu.Lock()
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.wg.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.wg.Done()

		m.probe(runCtx)

		t := time.NewTicker(m.interval)
		defer t.Stop()

		for {
			select {
			case <-runCtx.Done():
				return
			case <-t.C:
				m.probe(runCtx)
			}
		}
	}()
}

// Stop cancels the probe goroutine and blocks until it has exited. Safe to
// call when the monitor is not running.
func (m *ProbeMonitor) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	m.cancel = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	m.wg.Wait()
}

func (m *ProbeMonitor) probe(ctx context.Context) {
	err := m.adapter.Health(ctx)
	m.SetOnline(err == nil)
}
