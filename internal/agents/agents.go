package agents

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jwebster45206/simulation-suite/internal/services"
	"github.com/jwebster45206/simulation-suite/pkg/chat"
	"github.com/jwebster45206/simulation-suite/pkg/prompts"
	"github.com/jwebster45206/simulation-suite/pkg/queue"
	"github.com/jwebster45206/simulation-suite/pkg/state"
	"github.com/jwebster45206/simulation-suite/pkg/suite"
)

// DefaultWorldStateInterval is the number of rounds between unforced
// world-state refreshes.
const DefaultWorldStateInterval = 5

// DefaultHistoryLimit is the chat history window for narration prompts.
const DefaultHistoryLimit = 6

// Publisher delivers suite output to connected clients.
type Publisher interface {
	PublishStatus(ctx context.Context, sessionID uuid.UUID, level string, text string, visible bool) error
	PublishNarration(ctx context.Context, sessionID uuid.UUID, text string) error
}

// PortraitQueue accepts portrait requests for background processing.
type PortraitQueue interface {
	EnqueueRequest(ctx context.Context, req *queue.Request) error
}

// Options tunes the agents.
type Options struct {
	WorldStateInterval int
	HistoryLimit       int
}

func (o Options) withDefaults() Options {
	if o.WorldStateInterval <= 0 {
		o.WorldStateInterval = DefaultWorldStateInterval
	}
	if o.HistoryLimit <= 0 {
		o.HistoryLimit = DefaultHistoryLimit
	}
	return o
}

// agent holds what every LLM-backed collaborator shares. All agents of one
// round operate on the same session.
type agent struct {
	session   *state.Session
	llm       services.LLMService
	publisher Publisher
	opts      Options
	logger    *slog.Logger
}

// New returns LLM-backed collaborators for one session. publisher and
// portraits may be nil.
func New(
	session *state.Session,
	llm services.LLMService,
	publisher Publisher,
	portraits PortraitQueue,
	opts Options,
	logger *slog.Logger,
) suite.Collaborators {
	a := &agent{
		session:   session,
		llm:       llm,
		publisher: publisher,
		opts:      opts.withDefaults(),
		logger:    logger.With("session_id", session.ID.String()),
	}
	return suite.Collaborators{
		Client:     &DirectiveAgent{agent: a},
		Narrator:   &Narrator{agent: a},
		WorldState: &WorldStateAgent{agent: a},
		Creator:    &Creator{agent: a},
		Director:   &Director{agent: a},
		Visual:     &Visual{agent: a, queue: portraits},
		Status:     &StatusEmitter{agent: a},
	}
}

// backendMessages builds a state-aware prompt for the backend model with up
// to historyLimit recent player and narrator messages.
func (a *agent) backendMessages(task string, historyLimit int) ([]chat.ChatMessage, error) {
	messages, err := prompts.BuildMessages(a.session, prompts.BackendSystemPrompt, task, chat.ChatRoleUser, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to build backend prompt: %w", err)
	}
	return messages, nil
}

// askBackend sends task to the backend model and returns the trimmed reply.
func (a *agent) askBackend(ctx context.Context, task string) (string, error) {
	return a.backendReply(ctx, task, 0)
}

// askBackendWithHistory is askBackend with the recent story in the prompt.
func (a *agent) askBackendWithHistory(ctx context.Context, task string) (string, error) {
	return a.backendReply(ctx, task, a.opts.HistoryLimit)
}

func (a *agent) backendReply(ctx context.Context, task string, historyLimit int) (string, error) {
	messages, err := a.backendMessages(task, historyLimit)
	if err != nil {
		return "", err
	}
	resp, err := a.llm.BackendChat(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("backend chat failed: %w", err)
	}
	return strings.TrimSpace(resp.Message), nil
}

// askMain sends task to the main model and returns the trimmed reply.
func (a *agent) askMain(ctx context.Context, task string) (string, error) {
	messages, err := a.backendMessages(task, 0)
	if err != nil {
		return "", err
	}
	resp, err := a.llm.Chat(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("LLM chat failed: %w", err)
	}
	return strings.TrimSpace(resp.Message), nil
}
