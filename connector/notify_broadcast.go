package connector

import (
	"context"
	"sync"
)

// notifyBroadcaster fans a single physical LISTEN connection's
// notifications out to any number of in-process sinks. Every sink is
// called in its own goroutine, so a slow or stuck sink never blocks
// delivery to the others or the goroutine reading WaitForNotification.
// NOTIFY is advisory only: a sink that drops a notification is always
// safe, since the worker it belongs to will still see the job on its
// next poll.
type notifyBroadcaster struct {
	mu        sync.Mutex
	sinks     map[int]func(Notification)
	nextID    int
	listening bool
}

func newNotifyBroadcaster() *notifyBroadcaster {
	return &notifyBroadcaster{sinks: make(map[int]func(Notification))}
}

// subscribe registers sink and removes it automatically when ctx is done.
func (b *notifyBroadcaster) subscribe(ctx context.Context, sink func(Notification)) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.sinks[id] = sink
	b.mu.Unlock()

	if ctx.Done() != nil {
		go func() {
			<-ctx.Done()
			b.mu.Lock()
			delete(b.sinks, id)
			b.mu.Unlock()
		}()
	}
}

// broadcast delivers n to every current sink. Each sink runs in its own
// goroutine so a sink that blocks (a full channel, a slow handler) never
// delays delivery to the others.
func (b *notifyBroadcaster) broadcast(n Notification) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sink := range b.sinks {
		go sink(n)
	}
}

// markListening returns true the first time it is called, false on every
// subsequent call — used to start exactly one reconnect-and-listen
// goroutine per channel regardless of how many sinks subscribe to it.
func (b *notifyBroadcaster) markListening() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.listening {
		return false
	}
	b.listening = true
	return true
}

func (b *notifyBroadcaster) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sinks = nil
}
