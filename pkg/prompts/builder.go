package prompts

import (
	"fmt"
	"strings"

	"github.com/jwebster45206/simulation-suite/pkg/chat"
	"github.com/jwebster45206/simulation-suite/pkg/state"
)

// DefaultHistoryLimit is the chat history window used when none is set.
const DefaultHistoryLimit = 20

// Builder constructs chat messages for LLM interaction using a fluent interface.
// It separates prompt building logic from session state management.
type Builder struct {
	session      *state.Session
	systemPrompt string
	userMessage  string
	userRole     string
	finalPrompt  string
	historyLimit int
	messages     []chat.ChatMessage
}

// New creates a new prompt builder with default settings.
func New() *Builder {
	return &Builder{
		historyLimit: DefaultHistoryLimit,
		messages:     make([]chat.ChatMessage, 0),
	}
}

// WithSession sets the session whose state and history are rendered.
func (b *Builder) WithSession(s *state.Session) *Builder {
	b.session = s
	return b
}

// WithSystemPrompt replaces the narrator system prompt.
func (b *Builder) WithSystemPrompt(prompt string) *Builder {
	b.systemPrompt = prompt
	return b
}

// WithUserMessage sets the user's message and role.
func (b *Builder) WithUserMessage(message string, role string) *Builder {
	b.userMessage = message
	b.userRole = role
	return b
}

// WithHistoryLimit sets the chat history window size. Zero leaves the history out.
func (b *Builder) WithHistoryLimit(limit int) *Builder {
	b.historyLimit = limit
	return b
}

// WithFinalPrompt sets a closing system instruction.
func (b *Builder) WithFinalPrompt(prompt string) *Builder {
	b.finalPrompt = prompt
	return b
}

// Build constructs and returns the final message array for LLM consumption.
func (b *Builder) Build() ([]chat.ChatMessage, error) {
	if b.session == nil {
		return nil, fmt.Errorf("session is required")
	}

	b.messages = make([]chat.ChatMessage, 0)

	// 1. System prompt with state
	if err := b.addSystemPrompt(); err != nil {
		return nil, fmt.Errorf("error building system prompt: %w", err)
	}

	// 2. Windowed chat history
	b.addHistory()

	// 3. User message
	b.addUserMessage()

	// 4. Final instruction
	b.addFinalPrompt()

	return b.messages, nil
}

func (b *Builder) addSystemPrompt() error {
	var sb strings.Builder

	prompt := b.systemPrompt
	if prompt == "" {
		prompt = BuildNarratorSystemPrompt(b.session.PlayerCharacter())
	}
	sb.WriteString(prompt)

	statePrompt, err := GetStatePrompt(b.session)
	if err != nil {
		return fmt.Errorf("error generating state prompt: %w", err)
	}
	sb.WriteString("\n\n" + statePrompt.Content)

	b.messages = append(b.messages, chat.ChatMessage{
		Role:    chat.ChatRoleSystem,
		Content: sb.String(),
	})
	return nil
}

// addHistory adds the visible player and narrator messages, most recent last.
func (b *Builder) addHistory() {
	if b.historyLimit <= 0 {
		return
	}

	var history []chat.ChatMessage
	for _, msg := range b.session.VisibleMessagesAfter(0) {
		switch msg.Role {
		case state.MessageRolePlayer:
			history = append(history, chat.ChatMessage{Role: chat.ChatRoleUser, Content: msg.Text})
		case state.MessageRoleNarrator:
			history = append(history, chat.ChatMessage{Role: chat.ChatRoleAgent, Content: msg.Text})
		}
	}

	if len(history) > b.historyLimit {
		history = history[len(history)-b.historyLimit:]
	}
	b.messages = append(b.messages, history...)
}

func (b *Builder) addUserMessage() {
	if b.userMessage == "" {
		return
	}

	b.messages = append(b.messages, chat.ChatMessage{
		Role:    b.userRole,
		Content: b.userMessage,
	})
}

func (b *Builder) addFinalPrompt() {
	if b.finalPrompt == "" {
		return
	}

	b.messages = append(b.messages, chat.ChatMessage{
		Role:    chat.ChatRoleSystem,
		Content: b.finalPrompt,
	})
}

// BuildMessages is a convenience function for the common case.
// It creates a builder, sets all parameters, and builds the messages in one call.
func BuildMessages(
	s *state.Session,
	systemPrompt string,
	message string,
	role string,
	historyLimit int,
) ([]chat.ChatMessage, error) {
	return New().
		WithSession(s).
		WithSystemPrompt(systemPrompt).
		WithUserMessage(message, role).
		WithHistoryLimit(historyLimit).
		Build()
}
