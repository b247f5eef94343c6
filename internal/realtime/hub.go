package realtime

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-tracker/internal/events"
	"github.com/spec-kit/ticket-tracker/internal/observability"
)

const defaultObserverBuffer = 16

// Observer is one connected realtime client.
type Observer struct {
	ID          string
	PrincipalID string
	Outbound    chan events.Event

	done      chan struct{}
	closeOnce sync.Once
}

// Done is closed once the observer has been disconnected.
func (o *Observer) Done() <-chan struct{} { return o.done }

// Hub fans ticket events out to every connected observer in this process.
type Hub struct {
	mu        sync.RWMutex
	logger    *zap.Logger
	metrics   *observability.Metrics
	buffer    int
	observers map[*Observer]struct{}
}

// NewHub creates an empty hub. buffer is the per-observer queue length.
func NewHub(logger *zap.Logger, metrics *observability.Metrics, buffer int) *Hub {
	if buffer <= 0 {
		buffer = defaultObserverBuffer
	}
	return &Hub{
		logger:    logger.With(zap.String("component", "realtime_hub")),
		metrics:   metrics,
		buffer:    buffer,
		observers: make(map[*Observer]struct{}),
	}
}

// Connect registers a new observer.
func (h *Hub) Connect(principalID string) *Observer {
	o := &Observer{
		ID:          uuid.NewString(),
		PrincipalID: principalID,
		Outbound:    make(chan events.Event, h.buffer),
		done:        make(chan struct{}),
	}

	h.mu.Lock()
	h.observers[o] = struct{}{}
	h.mu.Unlock()

	h.metrics.ObserverConnected(1)
	h.logger.Debug("observer connected", zap.String("observer_id", o.ID), zap.String("principal_id", principalID))
	return o
}

// Disconnect removes an observer. Safe to call more than once.
func (h *Hub) Disconnect(o *Observer) {
	h.mu.Lock()
	_, ok := h.observers[o]
	delete(h.observers, o)
	h.mu.Unlock()

	o.closeOnce.Do(func() { close(o.done) })
	if ok {
		h.metrics.ObserverConnected(-1)
		h.logger.Debug("observer disconnected", zap.String("observer_id", o.ID))
	}
}

// Count returns the number of connected observers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.observers)
}

// Broadcast queues event for every observer. Observers whose queue is full
// miss the event; Broadcast never blocks and never fails.
func (h *Hub) Broadcast(_ context.Context, event events.Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for o := range h.observers {
		select {
		case o.Outbound <- event:
		default:
			h.logger.Warn("dropping event; observer queue full",
				zap.String("observer_id", o.ID),
				zap.String("event_type", string(event.Type)))
		}
	}
	return nil
}

// Close disconnects every observer.
func (h *Hub) Close() {
	h.mu.RLock()
	all := make([]*Observer, 0, len(h.observers))
	for o := range h.observers {
		all = append(all, o)
	}
	h.mu.RUnlock()

	for _, o := range all {
		h.Disconnect(o)
	}
}
