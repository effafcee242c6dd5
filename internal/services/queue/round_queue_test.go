package queue

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jwebster45206/simulation-suite/pkg/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()

	// Start miniredis
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	// Create queue client
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	redisURL := "redis://" + mr.Addr()

	client, err := NewClient(redisURL, logger)
	if err != nil {
		mr.Close()
		t.Fatalf("Failed to create queue client: %v", err)
	}

	return client, mr
}

func TestRoundQueue_EnqueueAndDequeue(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	q := NewRoundQueue(client)
	ctx := context.Background()
	sessionID := uuid.New()

	messages := []string{"Computer, a desert island", "I look around", ""}
	for _, msg := range messages {
		require.NoError(t, q.EnqueueRequest(ctx, queue.NewRoundRequest(sessionID, msg)))
	}
	require.NoError(t, q.EnqueueRequest(ctx, queue.NewPortraitRequest(sessionID, "Bess")))

	depth, err := q.RequestQueueDepth(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, depth)

	for _, msg := range messages {
		req, err := q.DequeueRequest(ctx)
		require.NoError(t, err)
		require.NotNil(t, req)
		assert.Equal(t, queue.RequestTypeRound, req.Type)
		assert.Equal(t, msg, req.Message)
		assert.Equal(t, sessionID, req.SessionID)
	}

	req, err := q.BlockingDequeueRequest(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, req)
	assert.Equal(t, queue.RequestTypePortrait, req.Type)
	assert.Equal(t, "Bess", req.Character)

	req, err = q.DequeueRequest(ctx)
	require.NoError(t, err)
	assert.Nil(t, req)
}

func TestRoundQueue_EnqueueRejectsInvalid(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	q := NewRoundQueue(client)
	err := q.EnqueueRequest(context.Background(), &queue.Request{Type: queue.RequestTypeRound})
	assert.Error(t, err)

	depth, err := q.RequestQueueDepth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, depth)
}

func TestRoundQueue_BlockingDequeueTimeout(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	q := NewRoundQueue(client)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, err := q.BlockingDequeueRequest(ctx, 100*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, req)
}

func TestRoundQueue_DequeueMalformed(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	_, err := mr.Lpush(RequestsKey, "not json")
	require.NoError(t, err)

	q := NewRoundQueue(client)
	_, err = q.DequeueRequest(context.Background())
	assert.Error(t, err)
}
