package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/simulation-suite/internal/agents"
	"github.com/jwebster45206/simulation-suite/internal/logger"
	"github.com/jwebster45206/simulation-suite/internal/services"
	"github.com/jwebster45206/simulation-suite/internal/services/lock"
	"github.com/jwebster45206/simulation-suite/pkg/chat"
	"github.com/jwebster45206/simulation-suite/pkg/queue"
	"github.com/jwebster45206/simulation-suite/pkg/state"
	"github.com/jwebster45206/simulation-suite/pkg/storage"
	"github.com/jwebster45206/simulation-suite/pkg/suite"
)

var (
	// ErrSessionLocked is returned when another round holds the session.
	ErrSessionLocked = errors.New("session is locked by another round")

	// ErrSessionNotFound is returned when the session does not exist.
	ErrSessionNotFound = errors.New("session not found")
)

// Publisher delivers round lifecycle and suite events to clients.
type Publisher interface {
	agents.Publisher
	PublishRoundProcessing(ctx context.Context, sessionID uuid.UUID, requestID string, playerMessage string) error
	PublishRoundCompleted(ctx context.Context, sessionID uuid.UUID, requestID string, result map[string]any) error
	PublishRoundFailed(ctx context.Context, sessionID uuid.UUID, requestID string, errorMsg string) error
	PublishSessionUpdated(ctx context.Context, sessionID uuid.UUID, round int) error
}

// RoundProcessor runs suite rounds against stored sessions.
// It's used by both the HTTP handler (synchronously) and the worker (asynchronously)
type RoundProcessor struct {
	storage      storage.Storage
	llmService   services.LLMService
	locker       lock.Locker
	publisher    Publisher
	portraits    agents.PortraitQueue
	opts         agents.Options
	roundTimeout time.Duration
	logger       *slog.Logger
}

// NewRoundProcessor creates a new round processor. portraits may be nil.
func NewRoundProcessor(
	storage storage.Storage,
	llmService services.LLMService,
	locker lock.Locker,
	publisher Publisher,
	portraits agents.PortraitQueue,
	opts agents.Options,
	roundTimeout time.Duration,
	logger *slog.Logger,
) *RoundProcessor {
	return &RoundProcessor{
		storage:      storage,
		llmService:   llmService,
		locker:       locker,
		publisher:    publisher,
		portraits:    portraits,
		opts:         opts,
		roundTimeout: roundTimeout,
		logger:       logger,
	}
}

// ProcessRound runs one round for the request. The session is saved only
// when the round completes; a failed round leaves the stored session as it was.
func (p *RoundProcessor) ProcessRound(ctx context.Context, req *queue.Request) (*chat.RoundResponse, error) {
	var resp *chat.RoundResponse
	err := p.withSession(ctx, req.SessionID, func(s *state.Session) (bool, error) {
		var err error
		resp, err = p.runRound(ctx, req, s)
		return err == nil, err
	})
	if err != nil {
		if !errors.Is(err, ErrSessionLocked) {
			if pubErr := p.publisher.PublishRoundFailed(ctx, req.SessionID, req.RequestID, err.Error()); pubErr != nil {
				p.logger.Error("Failed to publish failure event", "error", pubErr)
			}
		}
		return nil, err
	}

	result := map[string]any{
		"phase":    resp.Phase,
		"closing":  resp.Closing,
		"reset":    resp.Reset,
		"messages": resp.Messages,
	}
	if err := p.publisher.PublishRoundCompleted(ctx, req.SessionID, req.RequestID, result); err != nil {
		p.logger.Error("Failed to publish completion event", "error", err)
	}
	return resp, nil
}

func (p *RoundProcessor) runRound(ctx context.Context, req *queue.Request, s *state.Session) (*chat.RoundResponse, error) {
	if err := p.publisher.PublishRoundProcessing(ctx, s.ID, req.RequestID, req.Message); err != nil {
		p.logger.Error("Failed to publish processing event", "error", err)
	}

	lastID := s.NextMessageID
	if req.Message != "" {
		s.AppendMessage(state.MessageRolePlayer, req.Message)
	}
	s.Round++

	log := logger.WithRequestID(logger.WithSession(p.logger, s.ID.String(), s.Round), req.RequestID)

	roundCtx := ctx
	if p.roundTimeout > 0 {
		var cancel context.CancelFunc
		roundCtx, cancel = context.WithTimeout(ctx, p.roundTimeout)
		defer cancel()
	}

	start := time.Now()
	deps := agents.New(s, p.llmService, p.publisher, p.portraits, p.opts, log)
	outcome, err := suite.New(s, deps, log).Run(roundCtx)
	if err != nil {
		return nil, fmt.Errorf("round failed: %w", err)
	}
	log.Info("Round processed",
		"phase", outcome.Phase,
		"closing", outcome.Closing,
		"calls", len(outcome.Trace),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return &chat.RoundResponse{
		SessionID: s.ID,
		RequestID: req.RequestID,
		Phase:     string(outcome.Phase),
		Closing:   string(outcome.Closing),
		Reset:     outcome.Reset,
		Messages:  ToChatMessages(s.VisibleMessagesAfter(lastID)),
	}, nil
}

// ProcessPortrait writes a portrait prompt onto the requested character.
// Characters that left the scene are skipped.
func (p *RoundProcessor) ProcessPortrait(ctx context.Context, req *queue.Request) error {
	return p.withSession(ctx, req.SessionID, func(s *state.Session) (bool, error) {
		c := s.CharacterByName(req.Character)
		if c == nil {
			p.logger.Info("Portrait character not in scene", "session_id", s.ID.String(), "character", req.Character)
			return false, nil
		}
		prompt, err := agents.ComposePortrait(ctx, p.llmService, c)
		if err != nil {
			return false, fmt.Errorf("failed to compose portrait: %w", err)
		}
		c.Portrait = prompt
		return true, nil
	})
}

// SetStopped sets or clears the stopped flag of a session.
func (p *RoundProcessor) SetStopped(ctx context.Context, sessionID uuid.UUID, stopped bool) (*state.Session, error) {
	var updated *state.Session
	err := p.withSession(ctx, sessionID, func(s *state.Session) (bool, error) {
		if stopped {
			s.SetFlag(state.FlagSimulationStopped, "yes")
		} else {
			s.ClearFlag(state.FlagSimulationStopped)
		}
		updated = s
		return true, nil
	})
	return updated, err
}

// withSession locks, loads and, when fn reports a change, saves the session.
func (p *RoundProcessor) withSession(ctx context.Context, sessionID uuid.UUID, fn func(s *state.Session) (bool, error)) error {
	locked, err := p.locker.Acquire(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to acquire session lock: %w", err)
	}
	if !locked {
		return ErrSessionLocked
	}
	defer func() {
		if err := p.locker.Release(context.WithoutCancel(ctx), sessionID); err != nil {
			p.logger.Error("Failed to release session lock", "error", err, "session_id", sessionID.String())
		}
	}()

	s, err := p.storage.LoadSession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	if s == nil {
		return ErrSessionNotFound
	}

	changed, err := fn(s)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	s.UpdatedAt = time.Now()
	if err := p.storage.SaveSession(ctx, s); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	if err := p.publisher.PublishSessionUpdated(ctx, s.ID, s.Round); err != nil {
		p.logger.Error("Failed to publish session update", "error", err)
	}
	return nil
}

// ToChatMessages converts session messages for api responses.
func ToChatMessages(messages []state.Message) []chat.ChatMessage {
	out := make([]chat.ChatMessage, 0, len(messages))
	for _, msg := range messages {
		role := chat.ChatRoleSystem
		switch msg.Role {
		case state.MessageRolePlayer:
			role = chat.ChatRoleUser
		case state.MessageRoleNarrator:
			role = chat.ChatRoleAgent
		}
		out = append(out, chat.ChatMessage{Role: role, Content: msg.Text})
	}
	return out
}
