package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-tracker/internal/events"
)

// RedisBus carries ticket events between service instances over Redis
// pub/sub. Every instance forwards what it receives into its local hub.
type RedisBus struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

// NewRedisBus wraps an existing client.
func NewRedisBus(client *redis.Client, channel string, logger *zap.Logger) *RedisBus {
	if channel == "" {
		channel = "tickets"
	}
	return &RedisBus{
		client:  client,
		channel: channel,
		logger:  logger.With(zap.String("component", "realtime_redis_bus")),
	}
}

// Broadcast publishes event to the shared channel.
func (b *RedisBus) Broadcast(ctx context.Context, event events.Event) error {
	if b == nil || b.client == nil {
		return errors.New("redis bus not initialized")
	}
	raw, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	return b.client.Publish(ctx, b.channel, raw).Err()
}

// StartForwarder subscribes to the channel and hands every decoded event to
// sink until ctx is cancelled.
func (b *RedisBus) StartForwarder(ctx context.Context, sink events.Broadcaster) error {
	if b == nil || b.client == nil {
		return errors.New("redis bus not initialized")
	}
	if sink == nil {
		return errors.New("sink required")
	}

	sub := b.client.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok || msg == nil {
					return
				}
				event, err := decodeEvent(msg.Payload)
				if err != nil {
					b.logger.Warn("bad event payload", zap.Error(err))
					continue
				}
				_ = sink.Broadcast(ctx, event)
			}
		}
	}()

	b.logger.Info("forwarding realtime events", zap.String("channel", b.channel))
	return nil
}

func decodeEvent(payload string) (events.Event, error) {
	var event events.Event
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return events.Event{}, err
	}
	if event.Type == "" {
		return events.Event{}, errors.New("missing event type")
	}
	return event, nil
}
