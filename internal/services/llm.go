package services

import (
	"context"

	"github.com/jwebster45206/simulation-suite/pkg/chat"
)

// LLMService defines the interface for interacting with the LLM API
type LLMService interface {
	// InitModel prepares the model on startup
	InitModel(ctx context.Context, modelName string) error

	// Chat generates a player-facing completion with the main model
	Chat(ctx context.Context, messages []chat.ChatMessage) (*chat.ChatResponse, error)

	// BackendChat generates a completion with the backend model, used for
	// extraction, world-state summaries and yes/no checks
	BackendChat(ctx context.Context, messages []chat.ChatMessage) (*chat.ChatResponse, error)
}
