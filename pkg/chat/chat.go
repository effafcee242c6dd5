package chat

import (
	"fmt"

	"github.com/google/uuid"
)

// MaxMessageLength caps a single player message.
const MaxMessageLength = 4000

// RoundRequest represents a player message submitted to a simulation session.
// An empty message runs a round without new player input.
type RoundRequest struct {
	SessionID uuid.UUID `json:"session_id"`
	Message   string    `json:"message"`
	Async     bool      `json:"async,omitempty"` // queue the round for a worker instead of running it inline
}

// RoundResponse is returned by the simulation-suite api after a round.
type RoundResponse struct {
	SessionID uuid.UUID     `json:"session_id,omitempty"`
	RequestID string        `json:"request_id,omitempty"`
	Phase     string        `json:"phase,omitempty"`
	Closing   string        `json:"closing,omitempty"`
	Reset     bool          `json:"reset,omitempty"`
	Messages  []ChatMessage `json:"messages,omitempty"` // visible messages produced by the round
	Error     string        `json:"error,omitempty"`
}

// ChatResponse is a single completion returned by an LLM provider.
type ChatResponse struct {
	Message string `json:"message,omitempty"`
}

const (
	ChatRoleUser   = "user"      // Player
	ChatRoleAgent  = "assistant" // Narrator
	ChatRoleSystem = "system"    // Instructions
)

// ChatMessage represents a single chat message in the conversation
// sent to the LLM.
type ChatMessage struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

func (rr *RoundRequest) Validate() error {
	if len(rr.Message) > MaxMessageLength {
		return fmt.Errorf("message exceeds maximum length of %d characters", MaxMessageLength)
	}
	return nil
}
