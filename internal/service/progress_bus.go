package service

import (
	"sync"

	"github.com/adb3502/liims-sub002/models"
)

// progressBus fans snapshots out to subscribers. Every delivery is a deep
// copy so no subscriber can alter what another one sees.
type progressBus struct {
	mu          sync.Mutex
	nextID      int
	subscribers map[int]func(models.SyncProgress)
}

func newProgressBus() *progressBus {
	return &progressBus{subscribers: make(map[int]func(models.SyncProgress))}
}

func (b *progressBus) subscribe(fn func(models.SyncProgress)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.subscribers[id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subscribers, id)
	}
}

// publish delivers p to every subscriber outside the bus lock, so a
// subscriber may unsubscribe (or resubscribe) from inside its callback.
func (b *progressBus) publish(p models.SyncProgress) {
	b.mu.Lock()
	fns := make([]func(models.SyncProgress), 0, len(b.subscribers))
	for _, fn := range b.subscribers {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(p.Clone())
	}
}
