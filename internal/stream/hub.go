// Package stream provides change-event distribution to live-update
// consumers.
package stream

import (
	"context"
	"sync"
	"time"

	"tradedesk/internal/errors"
	"tradedesk/internal/store"
)

// HubConfig holds configuration for the change-event hub.
type HubConfig struct {
	// BufferSize is the size of the internal event channel buffer.
	BufferSize int
	// SubscriberBufferSize is the size of each subscriber's channel buffer.
	SubscriberBufferSize int
	// BroadcastTimeout is the maximum time to wait when sending to a subscriber.
	BroadcastTimeout time.Duration
}

// DefaultHubConfig returns the default hub configuration.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		BufferSize:           256,
		SubscriberBufferSize: 64,
		BroadcastTimeout:     10 * time.Millisecond,
	}
}

// Hub fans out store change events to multiple subscribers. Events from a
// single source channel are distributed to every subscriber; a slow
// subscriber drops events rather than blocking the rest.
type Hub struct {
	config      HubConfig
	mu          sync.RWMutex
	subscribers map[string]*Subscriber
	eventChan   chan store.ChangeEvent
	done        chan struct{}
	started     bool

	metricsMu      sync.RWMutex
	eventsReceived uint64
	eventsDropped  uint64
}

// Subscriber represents a channel subscriber with metadata.
type Subscriber struct {
	ID           string
	Channel      chan store.ChangeEvent
	DroppedCount int
	CreatedAt    time.Time
}

// NewHub creates a new hub with default configuration.
func NewHub() *Hub {
	return NewHubWithConfig(DefaultHubConfig())
}

// NewHubWithConfig creates a new hub with custom configuration.
func NewHubWithConfig(config HubConfig) *Hub {
	return &Hub{
		config:      config,
		subscribers: make(map[string]*Subscriber),
		eventChan:   make(chan store.ChangeEvent, config.BufferSize),
		done:        make(chan struct{}),
	}
}

// Start begins the distribution loop, draining source until it closes or
// ctx is cancelled.
func (h *Hub) Start(ctx context.Context, source <-chan store.ChangeEvent) {
	h.mu.Lock()
	if h.started {
		h.mu.Unlock()
		return
	}
	h.started = true
	h.mu.Unlock()

	go h.pump(ctx, source)
	go h.broadcastLoop(ctx)
}

func (h *Hub) pump(ctx context.Context, source <-chan store.ChangeEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.done:
			return
		case ev, ok := <-source:
			if !ok {
				return
			}
			h.Publish(ev)
		}
	}
}

// Publish enqueues an event for broadcast. Events are dropped when the
// internal buffer is full.
func (h *Hub) Publish(ev store.ChangeEvent) {
	h.metricsMu.Lock()
	h.eventsReceived++
	h.metricsMu.Unlock()

	select {
	case h.eventChan <- ev:
	default:
		h.metricsMu.Lock()
		h.eventsDropped++
		h.metricsMu.Unlock()
	}
}

func (h *Hub) broadcastLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.done:
			return
		case ev := <-h.eventChan:
			h.broadcast(ev)
		}
	}
}

func (h *Hub) broadcast(ev store.ChangeEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.subscribers {
		select {
		case sub.Channel <- ev:
		case <-time.After(h.config.BroadcastTimeout):
			sub.DroppedCount++
			h.metricsMu.Lock()
			h.eventsDropped++
			h.metricsMu.Unlock()
		}
	}
}

// Subscribe registers a consumer and returns its event channel.
func (h *Hub) Subscribe(id string) (<-chan store.ChangeEvent, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subscribers[id]; ok {
		return nil, errors.ErrSubscriberExists
	}

	sub := &Subscriber{
		ID:        id,
		Channel:   make(chan store.ChangeEvent, h.config.SubscriberBufferSize),
		CreatedAt: time.Now(),
	}
	h.subscribers[id] = sub
	return sub.Channel, nil
}

// Unsubscribe removes a consumer and closes its channel.
func (h *Hub) Unsubscribe(id string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub, ok := h.subscribers[id]
	if !ok {
		return errors.ErrSubscriberUnknown
	}
	delete(h.subscribers, id)
	close(sub.Channel)
	return nil
}

// Stop halts distribution. Subscriber channels stay open so late reads
// drain whatever was already delivered.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.started {
		return
	}
	h.started = false
	close(h.done)
}

// Metrics is a snapshot of hub counters.
type Metrics struct {
	Subscribers    int
	EventsReceived uint64
	EventsDropped  uint64
}

// Stats returns a snapshot of hub counters.
func (h *Hub) Stats() Metrics {
	h.mu.RLock()
	subs := len(h.subscribers)
	h.mu.RUnlock()

	h.metricsMu.RLock()
	defer h.metricsMu.RUnlock()
	return Metrics{
		Subscribers:    subs,
		EventsReceived: h.eventsReceived,
		EventsDropped:  h.eventsDropped,
	}
}
