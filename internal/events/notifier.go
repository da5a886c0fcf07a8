package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Meta describes the mutation that produced a notification.
type Meta struct {
	EventID    string
	Action     string
	EntityIDs  []string
	OccurredAt time.Time
}

// NewMeta builds notification metadata for the given action and entity ids.
func NewMeta(action string, entityIDs ...string) Meta {
	return Meta{
		EventID:    uuid.NewString(),
		Action:     action,
		EntityIDs:  entityIDs,
		OccurredAt: time.Now().UTC(),
	}
}

// Listener receives the published payload together with mutation metadata.
type Listener[T any] func(payload T, meta Meta)

type listenerEntry[T any] struct {
	id int64
	fn Listener[T]
}

// Notifier fans mutation notifications out to registered listeners. Each store
// owns its own instance; nothing is shared process-wide. Delivery is
// synchronous, in registration order, and fire-and-forget: a publish with no
// listeners registered is lost.
type Notifier[T any] struct {
	mu      sync.Mutex
	nextID  int64
	entries []listenerEntry[T]
	logger  *zap.Logger
}

// NewNotifier constructs a notifier. A nil logger falls back to a no-op logger.
func NewNotifier[T any](logger *zap.Logger) *Notifier[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier[T]{logger: logger}
}

// Subscribe registers a listener and returns its disposer. Listeners are not
// de-duplicated; subscribing the same function twice delivers twice.
func (n *Notifier[T]) Subscribe(fn Listener[T]) func() {
	if fn == nil {
		return func() {}
	}
	n.mu.Lock()
	n.nextID++
	id := n.nextID
	n.entries = append(n.entries, listenerEntry[T]{id: id, fn: fn})
	n.mu.Unlock()
	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		for index, entry := range n.entries {
			if entry.id == id {
				n.entries = append(n.entries[:index], n.entries[index+1:]...)
				return
			}
		}
	}
}

// Publish invokes every registered listener with the payload and metadata.
// A panicking listener is recovered and logged; remaining listeners still run.
func (n *Notifier[T]) Publish(payload T, meta Meta) {
	n.mu.Lock()
	entries := make([]listenerEntry[T], len(n.entries))
	copy(entries, n.entries)
	n.mu.Unlock()

	for _, entry := range entries {
		n.invoke(entry, payload, meta)
	}
}

func (n *Notifier[T]) invoke(entry listenerEntry[T], payload T, meta Meta) {
	defer func() {
		if recovered := recover(); recovered != nil {
			n.logger.Error("change listener panicked",
				zap.String("action", meta.Action),
				zap.String("event_id", meta.EventID),
				zap.Any("panic", recovered))
		}
	}()
	entry.fn(payload, meta)
}
