package store

import "sync"

// queueNotifier is a small observer registry fired whenever the mutation
// queue changes (enqueue, status change, removal). It exists so consumers
// such as the background sync job can react to queue changes instead of
// polling pending counts.
type queueNotifier struct {
	mu          sync.Mutex
	nextID      int
	subscribers map[int]func()
}

func newQueueNotifier() *queueNotifier {
	return &queueNotifier{subscribers: make(map[int]func())}
}

// subscribe registers fn and returns an unsubscribe func. Safe to call the
// returned func more than once.
func (n *queueNotifier) subscribe(fn func()) func() {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	n.subscribers[id] = fn

	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.subscribers, id)
	}
}

// notify invokes every subscriber outside the registry lock so a subscriber
// may unsubscribe from within its callback.
func (n *queueNotifier) notify() {
	n.mu.Lock()
	fns := make([]func(), 0, len(n.subscribers))
	for _, fn := range n.subscribers {
		fns = append(fns, fn)
	}
	n.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
