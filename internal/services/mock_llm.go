package services

import (
	"context"
	"sync"

	"github.com/jwebster45206/simulation-suite/pkg/chat"
)

// MockLLMAPI is a mock implementation of LLMService for testing
type MockLLMAPI struct {
	InitModelFunc   func(ctx context.Context, modelName string) error
	ChatFunc        func(ctx context.Context, messages []chat.ChatMessage) (*chat.ChatResponse, error)
	BackendChatFunc func(ctx context.Context, messages []chat.ChatMessage) (*chat.ChatResponse, error)

	// Track calls for testing
	InitModelCalls   []string
	ChatCalls        []ChatCall
	BackendChatCalls []ChatCall

	mu sync.Mutex // protects all fields above
}

var _ LLMService = (*MockLLMAPI)(nil)

type ChatCall struct {
	Messages []chat.ChatMessage
}

// NewMockLLMAPI creates a new mock LLM service
func NewMockLLMAPI() *MockLLMAPI {
	return &MockLLMAPI{
		InitModelCalls:   make([]string, 0),
		ChatCalls:        make([]ChatCall, 0),
		BackendChatCalls: make([]ChatCall, 0),
	}
}

// InitModel mocks model initialization
func (m *MockLLMAPI) InitModel(ctx context.Context, modelName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.InitModelCalls = append(m.InitModelCalls, modelName)

	if m.InitModelFunc != nil {
		return m.InitModelFunc(ctx, modelName)
	}

	// Default behavior - success
	return nil
}

// Chat mocks response generation with the main model
func (m *MockLLMAPI) Chat(ctx context.Context, messages []chat.ChatMessage) (*chat.ChatResponse, error) {
	m.mu.Lock()
	m.ChatCalls = append(m.ChatCalls, ChatCall{Messages: messages})
	fn := m.ChatFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, messages)
	}

	return &chat.ChatResponse{
		Message: "Mock response",
	}, nil
}

// BackendChat mocks response generation with the backend model
func (m *MockLLMAPI) BackendChat(ctx context.Context, messages []chat.ChatMessage) (*chat.ChatResponse, error) {
	m.mu.Lock()
	m.BackendChatCalls = append(m.BackendChatCalls, ChatCall{Messages: messages})
	fn := m.BackendChatFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, messages)
	}

	return &chat.ChatResponse{
		Message: "Mock backend response",
	}, nil
}

// Reset clears all call tracking
func (m *MockLLMAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InitModelCalls = make([]string, 0)
	m.ChatCalls = make([]ChatCall, 0)
	m.BackendChatCalls = make([]ChatCall, 0)
}

// SetInitModelError sets up the mock to return an error on InitModel
func (m *MockLLMAPI) SetInitModelError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InitModelFunc = func(ctx context.Context, modelName string) error {
		return err
	}
}

// SetChatError sets up the mock to return an error on Chat and BackendChat
func (m *MockLLMAPI) SetChatError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fail := func(ctx context.Context, messages []chat.ChatMessage) (*chat.ChatResponse, error) {
		return nil, err
	}
	m.ChatFunc = fail
	m.BackendChatFunc = fail
}

// SetResponses makes Chat and BackendChat return the given replies in order,
// repeating the last one when exhausted
func (m *MockLLMAPI) SetResponses(replies ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var next int
	var replyMu sync.Mutex
	respond := func(ctx context.Context, messages []chat.ChatMessage) (*chat.ChatResponse, error) {
		replyMu.Lock()
		defer replyMu.Unlock()
		if len(replies) == 0 {
			return &chat.ChatResponse{}, nil
		}
		reply := replies[min(next, len(replies)-1)]
		next++
		return &chat.ChatResponse{Message: reply}, nil
	}
	m.ChatFunc = respond
	m.BackendChatFunc = respond
}

// GetCalls returns a copy of the call tracking data in a thread-safe way
func (m *MockLLMAPI) GetCalls() ([]string, []ChatCall, []ChatCall) {
	m.mu.Lock()
	defer m.mu.Unlock()

	initCalls := make([]string, len(m.InitModelCalls))
	copy(initCalls, m.InitModelCalls)

	chatCalls := make([]ChatCall, len(m.ChatCalls))
	copy(chatCalls, m.ChatCalls)

	backendCalls := make([]ChatCall, len(m.BackendChatCalls))
	copy(backendCalls, m.BackendChatCalls)

	return initCalls, chatCalls, backendCalls
}
