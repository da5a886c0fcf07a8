package server

import (
	"context"
	"sync"
	"time"
)

const (
	realtimeEventChange    = "change"
	realtimeEventHeartbeat = "heartbeat"

	realtimeHeartbeatInterval = 25 * time.Second
)

// ChangeEvent is one store mutation fanned out to realtime clients.
type ChangeEvent struct {
	EventID   string    `json:"event_id"`
	Domain    string    `json:"domain"`
	Action    string    `json:"action"`
	EntityIDs []string  `json:"entity_ids,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// RealtimeDispatcher fans store change events out to connected SSE clients.
// Delivery is best effort: a subscriber whose buffer is full misses the event.
type RealtimeDispatcher struct {
	mu          sync.RWMutex
	subscribers map[int64]*realtimeSubscriber
	nextID      int64
	bufferSize  int
}

type realtimeSubscriber struct {
	id     int64
	stream chan ChangeEvent
}

// NewRealtimeDispatcher constructs an empty dispatcher.
func NewRealtimeDispatcher() *RealtimeDispatcher {
	return &RealtimeDispatcher{
		subscribers: make(map[int64]*realtimeSubscriber),
		bufferSize:  16,
	}
}

// Subscribe registers a client stream; the stream is cleaned up when the
// context ends or the returned cleanup runs.
func (d *RealtimeDispatcher) Subscribe(ctx context.Context) (<-chan ChangeEvent, func()) {
	subscriber := &realtimeSubscriber{
		stream: make(chan ChangeEvent, d.bufferSize),
	}
	d.mu.Lock()
	d.nextID++
	subscriber.id = d.nextID
	d.subscribers[subscriber.id] = subscriber
	d.mu.Unlock()

	cleanup := func() {
		d.mu.Lock()
		delete(d.subscribers, subscriber.id)
		d.mu.Unlock()
	}
	go func() {
		<-ctx.Done()
		cleanup()
	}()
	return subscriber.stream, cleanup
}

// Publish delivers the event to every connected subscriber without blocking.
func (d *RealtimeDispatcher) Publish(event ChangeEvent) {
	if event.Domain == "" || event.Action == "" {
		return
	}
	d.mu.RLock()
	copies := make([]*realtimeSubscriber, 0, len(d.subscribers))
	for _, subscriber := range d.subscribers {
		copies = append(copies, subscriber)
	}
	d.mu.RUnlock()
	for _, subscriber := range copies {
		select {
		case subscriber.stream <- event:
		default:
		}
	}
}

// SubscriberCount reports the number of connected subscribers.
func (d *RealtimeDispatcher) SubscriberCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.subscribers)
}
