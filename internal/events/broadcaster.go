package events

import "context"

// Broadcaster delivers an event to every currently connected observer.
// Implementations must not block on slow observers.
type Broadcaster interface {
	Broadcast(ctx context.Context, event Event) error
}

// BroadcasterFunc adapts a function to Broadcaster.
type BroadcasterFunc func(ctx context.Context, event Event) error

// Broadcast calls f.
func (f BroadcasterFunc) Broadcast(ctx context.Context, event Event) error {
	return f(ctx, event)
}
