package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RequestType identifies the type of request in the queue
type RequestType string

const (
	// RequestTypeRound runs one simulation-suite round for a session
	RequestTypeRound RequestType = "round"

	// RequestTypePortrait generates a portrait prompt for a character
	RequestTypePortrait RequestType = "portrait"
)

// Request represents a unified request in the queue
type Request struct {
	RequestID string      `json:"request_id"`
	Type      RequestType `json:"type"`
	SessionID uuid.UUID   `json:"session_id"`

	// Round-specific fields
	Message string `json:"message,omitempty"`

	// Portrait-specific fields
	Character string `json:"character,omitempty"`

	EnqueuedAt time.Time `json:"enqueued_at"`
	Attempts   int       `json:"attempts,omitempty"` // times the request was re-queued behind a locked session
}

// NewRoundRequest creates a round request for the session
func NewRoundRequest(sessionID uuid.UUID, message string) *Request {
	return &Request{
		RequestID:  uuid.New().String(),
		Type:       RequestTypeRound,
		SessionID:  sessionID,
		Message:    message,
		EnqueuedAt: time.Now(),
	}
}

// NewPortraitRequest creates a portrait request for a character in the session
func NewPortraitRequest(sessionID uuid.UUID, character string) *Request {
	return &Request{
		RequestID:  uuid.New().String(),
		Type:       RequestTypePortrait,
		SessionID:  sessionID,
		Character:  character,
		EnqueuedAt: time.Now(),
	}
}

// Validate checks the fields required by the request type
func (r *Request) Validate() error {
	if r.SessionID == uuid.Nil {
		return errors.New("session_id is required")
	}
	switch r.Type {
	case RequestTypeRound:
		return nil
	case RequestTypePortrait:
		if r.Character == "" {
			return errors.New("character is required for portrait requests")
		}
		return nil
	default:
		return fmt.Errorf("unknown request type: %q", r.Type)
	}
}

// ToJSON converts the request to JSON bytes for Redis
func (r *Request) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}

// FromJSON parses a request from JSON bytes
func FromJSON(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	return &req, nil
}
