package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// EventType represents the type of event being broadcast
type EventType string

const (
	EventTypeRoundQueued     EventType = "round.queued"
	EventTypeRoundProcessing EventType = "round.processing"
	EventTypeRoundCompleted  EventType = "round.completed"
	EventTypeRoundFailed     EventType = "round.failed"
	EventTypeStatus          EventType = "suite.status"
	EventTypeNarration       EventType = "suite.narration"
	EventTypeSessionUpdated  EventType = "session.updated"
)

// Event represents a generic event structure
type Event struct {
	Type      EventType      `json:"type"`
	RequestID string         `json:"request_id,omitempty"`
	SessionID string         `json:"session_id,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// Channel returns the Pub/Sub channel for a session's events
func Channel(sessionID uuid.UUID) string {
	return fmt.Sprintf("session-events:%s", sessionID.String())
}

// Broadcaster publishes events to Redis Pub/Sub for SSE distribution
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster(redisClient *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
	}
}

// PublishRoundQueued publishes a round.queued event
func (b *Broadcaster) PublishRoundQueued(ctx context.Context, sessionID uuid.UUID, requestID string) error {
	return b.publish(ctx, sessionID, Event{
		Type:      EventTypeRoundQueued,
		RequestID: requestID,
		Data: map[string]any{
			"status": "queued",
		},
	})
}

// PublishRoundProcessing publishes a round.processing event
func (b *Broadcaster) PublishRoundProcessing(ctx context.Context, sessionID uuid.UUID, requestID string, playerMessage string) error {
	return b.publish(ctx, sessionID, Event{
		Type:      EventTypeRoundProcessing,
		RequestID: requestID,
		Data: map[string]any{
			"status":         "processing",
			"player_message": playerMessage,
		},
	})
}

// PublishRoundCompleted publishes a round.completed event
func (b *Broadcaster) PublishRoundCompleted(ctx context.Context, sessionID uuid.UUID, requestID string, result map[string]any) error {
	return b.publish(ctx, sessionID, Event{
		Type:      EventTypeRoundCompleted,
		RequestID: requestID,
		Data: map[string]any{
			"status": "completed",
			"result": result,
		},
	})
}

// PublishRoundFailed publishes a round.failed event
func (b *Broadcaster) PublishRoundFailed(ctx context.Context, sessionID uuid.UUID, requestID string, errorMsg string) error {
	return b.publish(ctx, sessionID, Event{
		Type:      EventTypeRoundFailed,
		RequestID: requestID,
		Data: map[string]any{
			"status": "failed",
			"error":  errorMsg,
		},
	})
}

// PublishStatus publishes a suite.status event
func (b *Broadcaster) PublishStatus(ctx context.Context, sessionID uuid.UUID, level string, text string, visible bool) error {
	return b.publish(ctx, sessionID, Event{
		Type: EventTypeStatus,
		Data: map[string]any{
			"level":   level,
			"text":    text,
			"visible": visible,
		},
	})
}

// PublishNarration publishes a suite.narration event for player-visible narration
func (b *Broadcaster) PublishNarration(ctx context.Context, sessionID uuid.UUID, text string) error {
	return b.publish(ctx, sessionID, Event{
		Type: EventTypeNarration,
		Data: map[string]any{
			"text": text,
		},
	})
}

// PublishSessionUpdated publishes a session.updated event
func (b *Broadcaster) PublishSessionUpdated(ctx context.Context, sessionID uuid.UUID, round int) error {
	return b.publish(ctx, sessionID, Event{
		Type: EventTypeSessionUpdated,
		Data: map[string]any{
			"round": round,
		},
	})
}

// publish publishes an event to the session-specific channel
func (b *Broadcaster) publish(ctx context.Context, sessionID uuid.UUID, event Event) error {
	channel := Channel(sessionID)
	event.SessionID = sessionID.String()

	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("Failed to marshal event", "error", err, "event", event)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish event", "error", err, "channel", channel)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Event published",
		"channel", channel,
		"event_type", event.Type,
		"request_id", event.RequestID,
	)

	return nil
}
