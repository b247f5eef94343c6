package realtime

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-tracker/internal/events"
	"github.com/spec-kit/ticket-tracker/internal/observability"
)

func recvEvent(t *testing.T, ch <-chan events.Event, timeout time.Duration) events.Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for event")
	}
	return events.Event{}
}

func mustEvent(t *testing.T, typ events.EventType, payload any) events.Event {
	t.Helper()
	ev, err := events.New(typ, payload)
	require.NoError(t, err)
	return ev
}

func TestHubBroadcastReachesAllObservers(t *testing.T) {
	hub := NewHub(zap.NewNop(), observability.NewMetrics(), 4)
	a := hub.Connect("u1")
	b := hub.Connect("u2")
	require.Equal(t, 2, hub.Count())

	ev := mustEvent(t, events.EventTicketDeleted, "t1")
	require.NoError(t, hub.Broadcast(context.Background(), ev))

	assert.Equal(t, ev.ID, recvEvent(t, a.Outbound, time.Second).ID)
	assert.Equal(t, ev.ID, recvEvent(t, b.Outbound, time.Second).ID)
}

func TestHubBroadcastWithoutObserversIsNoop(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil, 1)
	assert.NoError(t, hub.Broadcast(context.Background(), mustEvent(t, events.EventTicketDeleted, "t1")))
}

func TestHubDropsWhenObserverQueueFull(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil, 1)
	o := hub.Connect("u1")

	first := mustEvent(t, events.EventTicketDeleted, "t1")
	second := mustEvent(t, events.EventTicketDeleted, "t2")

	done := make(chan struct{})
	go func() {
		_ = hub.Broadcast(context.Background(), first)
		_ = hub.Broadcast(context.Background(), second)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked on a full observer queue")
	}

	assert.Equal(t, first.ID, recvEvent(t, o.Outbound, time.Second).ID)
	select {
	case ev := <-o.Outbound:
		t.Fatalf("expected second event to be dropped, got %s", ev.ID)
	default:
	}
}

func TestHubDisconnect(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil, 1)
	o := hub.Connect("u1")

	hub.Disconnect(o)
	hub.Disconnect(o)
	assert.Equal(t, 0, hub.Count())

	select {
	case <-o.Done():
	default:
		t.Fatal("done should be closed after disconnect")
	}

	require.NoError(t, hub.Broadcast(context.Background(), mustEvent(t, events.EventTicketDeleted, "t1")))
	assert.Len(t, o.Outbound, 0)
}

func TestHubStreamWritesEventStream(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil, 4)
	o := hub.Connect("u1")

	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	finished := make(chan struct{})
	go func() {
		hub.Stream(w, o, time.Hour)
		close(finished)
	}()

	ev := mustEvent(t, events.EventTicketDeleted, "t-42")
	require.NoError(t, hub.Broadcast(context.Background(), ev))

	require.Eventually(t, func() bool { return len(o.Outbound) == 0 }, time.Second, 5*time.Millisecond)
	hub.Close()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("stream did not stop after disconnect")
	}

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, ": connected\n\n"))
	assert.Contains(t, out, "id: "+ev.ID+"\n")
	assert.Contains(t, out, "event: ticket:deleted\n")
	assert.Contains(t, out, "data: \"t-42\"\n\n")
	assert.Equal(t, 0, hub.Count())
}

func TestDecodeEvent(t *testing.T) {
	ev := mustEvent(t, events.EventTicketUpdated, map[string]string{"id": "t1"})
	raw, err := json.Marshal(ev)
	require.NoError(t, err)

	got, err := decodeEvent(string(raw))
	require.NoError(t, err)
	assert.Equal(t, ev.ID, got.ID)
	assert.Equal(t, events.EventTicketUpdated, got.Type)
	assert.JSONEq(t, `{"id":"t1"}`, string(got.Payload))

	_, err = decodeEvent(`{"id":"x"}`)
	assert.Error(t, err)
	_, err = decodeEvent(`not json`)
	assert.Error(t, err)
}

func TestRedisBusRoundTrip(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })

	hub := NewHub(zap.NewNop(), nil, 4)
	o := hub.Connect("u1")
	bus := NewRedisBus(client, "tickets-test-"+o.ID, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, bus.StartForwarder(ctx, hub))

	ev := mustEvent(t, events.EventTicketDeleted, "t1")
	require.NoError(t, bus.Broadcast(ctx, ev))
	assert.Equal(t, ev.ID, recvEvent(t, o.Outbound, 2*time.Second).ID)
}
