package worker

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-tracker/internal/events"
	"github.com/spec-kit/ticket-tracker/internal/realtime"
)

// StartRealtimeForwarder subscribes the bus and relays every event it
// receives into the local hub until ctx is cancelled.
func StartRealtimeForwarder(ctx context.Context, bus *realtime.RedisBus, hub events.Broadcaster, logger *zap.Logger) error {
	if bus == nil || hub == nil {
		return errors.New("realtime forwarder requires a bus and a hub")
	}
	if err := bus.StartForwarder(ctx, hub); err != nil {
		logger.Warn("realtime forwarder not started", zap.Error(err))
		return err
	}
	return nil
}
