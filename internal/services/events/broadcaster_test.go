package events

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcaster_PublishesToSessionChannel(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sessionID := uuid.New()
	sub := rdb.Subscribe(ctx, Channel(sessionID))
	defer sub.Close()
	_, err := sub.Receive(ctx) // subscription confirmation
	require.NoError(t, err)

	b := NewBroadcaster(rdb, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, b.PublishStatus(ctx, sessionID, "busy", "Simulation suite powering up.", true))
	require.NoError(t, b.PublishNarration(ctx, sessionID, "The suite hums to life."))
	require.NoError(t, b.PublishRoundCompleted(ctx, sessionID, "req-1", map[string]any{"closing": "narrate_round"}))

	want := []EventType{EventTypeStatus, EventTypeNarration, EventTypeRoundCompleted}
	for _, wantType := range want {
		msg, err := sub.ReceiveMessage(ctx)
		require.NoError(t, err)

		var event Event
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &event))
		assert.Equal(t, wantType, event.Type)
		assert.Equal(t, sessionID.String(), event.SessionID)

		switch event.Type {
		case EventTypeStatus:
			assert.Equal(t, "busy", event.Data["level"])
			assert.Equal(t, true, event.Data["visible"])
		case EventTypeNarration:
			assert.Equal(t, "The suite hums to life.", event.Data["text"])
		case EventTypeRoundCompleted:
			assert.Equal(t, "req-1", event.RequestID)
		}
	}
}

func TestBroadcaster_OtherSessionsDoNotReceive(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	ctx := context.Background()
	b := NewBroadcaster(rdb, slog.New(slog.NewTextHandler(io.Discard, nil)))

	listener := uuid.New()
	sub := rdb.Subscribe(ctx, Channel(listener))
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	require.NoError(t, b.PublishNarration(ctx, uuid.New(), "elsewhere"))
	assert.Equal(t, 1, mr.PubSubNumSub(Channel(listener))[Channel(listener)])

	timeout, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer cancel()
	_, err = sub.ReceiveMessage(timeout)
	assert.Error(t, err)
}
