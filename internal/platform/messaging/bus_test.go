package messaging

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"agora/contexts/association-governance/governance-engine/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestBusDeliversToEverySubscription(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus := NewBus([]string{"localhost:9092"}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())

	received := make(chan string, 4)
	for _, group := range []string{"audit-cg", "notify-cg"} {
		require.NoError(t, bus.Subscribe(ctx, "governance.election.resolved", group, func(_ context.Context, event ports.EventEnvelope) error {
			received <- group + ":" + event.EventID
			return nil
		}))
	}

	require.NoError(t, bus.Publish(ctx, "governance.election.resolved", ports.EventEnvelope{
		EventID: "evt-1",
		Data:    json.RawMessage(`{"round_id":"r-1"}`),
	}))
	require.NoError(t, bus.Publish(ctx, "governance.motion.resolved", ports.EventEnvelope{EventID: "evt-2"}))

	got := map[string]bool{}
	for len(got) < 2 {
		select {
		case id := <-received:
			got[id] = true
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for delivery, got %v", got)
		}
	}
	assert.True(t, got["audit-cg:evt-1"])
	assert.True(t, got["notify-cg:evt-1"])

	cancel()
	bus.Wait()
	assert.Equal(t, []string{"localhost:9092"}, bus.Brokers())
}

func TestBusSubscribeRejectsCancelledContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus := NewBus(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := bus.Subscribe(ctx, "topic", "cg", func(context.Context, ports.EventEnvelope) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
	bus.Wait()
}
