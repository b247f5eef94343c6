package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-tracker/internal/domain"
	"github.com/spec-kit/ticket-tracker/internal/events"
	"github.com/spec-kit/ticket-tracker/internal/observability"
)

// TicketNotifier broadcasts ticket changes to realtime observers. It is
// built without a target; Attach binds one once the transport exists.
// Notifications sent before that are dropped.
type TicketNotifier struct {
	target  atomic.Pointer[notifierTarget]
	logger  *zap.Logger
	metrics *observability.Metrics
	timeout time.Duration
}

type notifierTarget struct {
	broadcaster events.Broadcaster
}

// NewTicketNotifier creates an unattached notifier. timeout bounds each
// broadcast call.
func NewTicketNotifier(logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) *TicketNotifier {
	return &TicketNotifier{
		logger:  logger.With(zap.String("component", "ticket_notifier")),
		metrics: metrics,
		timeout: timeout,
	}
}

// Attach sets the broadcast target. A nil target detaches.
func (n *TicketNotifier) Attach(b events.Broadcaster) {
	if b == nil {
		n.target.Store(nil)
		return
	}
	n.target.Store(&notifierTarget{broadcaster: b})
}

// Attached reports whether a target is bound.
func (n *TicketNotifier) Attached() bool {
	return n.target.Load() != nil
}

// TicketCreated announces a new ticket.
func (n *TicketNotifier) TicketCreated(ctx context.Context, ticket *domain.Ticket) {
	n.publish(ctx, events.EventTicketCreated, events.NewTicketPayload(ticket))
}

// TicketUpdated announces the authoritative state of a changed ticket.
func (n *TicketNotifier) TicketUpdated(ctx context.Context, ticket *domain.Ticket) {
	n.publish(ctx, events.EventTicketUpdated, events.NewTicketPayload(ticket))
}

// TicketDeleted announces the removal of a ticket by id.
func (n *TicketNotifier) TicketDeleted(ctx context.Context, id string) {
	n.publish(ctx, events.EventTicketDeleted, id)
}

func (n *TicketNotifier) publish(ctx context.Context, eventType events.EventType, payload any) {
	target := n.target.Load()
	if target == nil {
		return
	}

	event, err := events.New(eventType, payload)
	if err != nil {
		n.logger.Warn("encode event failed", zap.String("event_type", string(eventType)), zap.Error(err))
		n.metrics.RecordNotification(string(eventType), err)
		return
	}

	// The mutation has already succeeded; its request being cancelled must
	// not cancel the broadcast.
	bctx := context.WithoutCancel(ctx)
	if n.timeout > 0 {
		var cancel context.CancelFunc
		bctx, cancel = context.WithTimeout(bctx, n.timeout)
		defer cancel()
	}

	err = safeBroadcast(bctx, target.broadcaster, event)
	n.metrics.RecordNotification(string(eventType), err)
	if err != nil {
		n.logger.Warn("broadcast failed",
			zap.String("event_type", string(eventType)),
			zap.String("event_id", event.ID),
			zap.Error(err))
	}
}

func safeBroadcast(ctx context.Context, b events.Broadcaster, event events.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("broadcaster panicked: %v", r)
		}
	}()
	return b.Broadcast(ctx, event)
}
