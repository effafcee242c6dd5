package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/simulation-suite/internal/agents"
	"github.com/jwebster45206/simulation-suite/internal/services"
	"github.com/jwebster45206/simulation-suite/internal/services/lock"
	"github.com/jwebster45206/simulation-suite/pkg/chat"
	"github.com/jwebster45206/simulation-suite/pkg/queue"
	"github.com/jwebster45206/simulation-suite/pkg/state"
	"github.com/jwebster45206/simulation-suite/pkg/storage"
	"github.com/jwebster45206/simulation-suite/pkg/suite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) add(event string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Events() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

func (p *recordingPublisher) PublishStatus(ctx context.Context, sessionID uuid.UUID, level string, text string, visible bool) error {
	return p.add("status")
}

func (p *recordingPublisher) PublishNarration(ctx context.Context, sessionID uuid.UUID, text string) error {
	return p.add("narration")
}

func (p *recordingPublisher) PublishRoundProcessing(ctx context.Context, sessionID uuid.UUID, requestID string, playerMessage string) error {
	return p.add("processing")
}

func (p *recordingPublisher) PublishRoundCompleted(ctx context.Context, sessionID uuid.UUID, requestID string, result map[string]any) error {
	return p.add("completed")
}

func (p *recordingPublisher) PublishRoundFailed(ctx context.Context, sessionID uuid.UUID, requestID string, errorMsg string) error {
	return p.add("failed")
}

func (p *recordingPublisher) PublishSessionUpdated(ctx context.Context, sessionID uuid.UUID, round int) error {
	return p.add("session_updated")
}

type processorFixture struct {
	store     *storage.MockStorage
	llm       *services.MockLLMAPI
	locker    *lock.MockLocker
	publisher *recordingPublisher
	processor *RoundProcessor
	session   *state.Session
}

func newProcessorFixture(t *testing.T) *processorFixture {
	t.Helper()
	f := &processorFixture{
		store:     storage.NewMockStorage(),
		llm:       services.NewMockLLMAPI(),
		locker:    lock.NewMockLocker(),
		publisher: &recordingPublisher{},
	}
	f.processor = NewRoundProcessor(f.store, f.llm, f.locker, f.publisher, nil, agents.Options{WorldStateInterval: 5}, time.Minute, slog.Default())

	f.session = state.NewSession(&state.Character{Name: "Player"})
	f.session.CaptureSnapshot()
	require.NoError(t, f.store.SaveSession(context.Background(), f.session))
	return f
}

func (f *processorFixture) load(t *testing.T) *state.Session {
	t.Helper()
	s, err := f.store.LoadSession(context.Background(), f.session.ID)
	require.NoError(t, err)
	require.NotNil(t, s)
	return s
}

func TestRoundProcessor_StartupRound(t *testing.T) {
	f := newProcessorFixture(t)
	f.llm.SetResponses("The suite hums.", "- empty suite")

	resp, err := f.processor.ProcessRound(context.Background(), queue.NewRoundRequest(f.session.ID, ""))
	require.NoError(t, err)
	assert.Equal(t, string(suite.PhaseStartup), resp.Phase)
	assert.Equal(t, string(suite.ClosingNone), resp.Closing)

	require.NotEmpty(t, resp.Messages)
	var narrations []string
	for _, m := range resp.Messages {
		if m.Role == chat.ChatRoleAgent {
			narrations = append(narrations, m.Content)
		}
	}
	assert.Equal(t, []string{suite.MsgHelp}, narrations)

	saved := f.load(t)
	assert.Equal(t, 1, saved.Round)
	assert.True(t, saved.HasFlag(state.FlagSimulationStarted))
	assert.Contains(t, saved.WorldEntries, suite.EntryQuarantined)
	assert.Equal(t, "- empty suite", saved.WorldState)
	assert.Equal(t, 1, f.locker.Released)
	assert.False(t, f.locker.IsHeld(f.session.ID))

	events := f.publisher.Events()
	assert.Equal(t, "processing", events[0])
	assert.Equal(t, "completed", events[len(events)-1])
	assert.Contains(t, events, "session_updated")
}

func TestRoundProcessor_InstructionRound(t *testing.T) {
	f := newProcessorFixture(t)
	f.session.SetFlag(state.FlagSimulationStarted, "yes")
	require.NoError(t, f.store.SaveSession(context.Background(), f.session))

	f.llm.SetResponses(
		"set_simulation_goal(pirates)\nchange_environment(a ship deck)",
		"Salt spray hits your face.",
		"- on a pirate ship",
	)

	msg := "Computer, I want to be on a pirate ship"
	resp, err := f.processor.ProcessRound(context.Background(), queue.NewRoundRequest(f.session.ID, msg))
	require.NoError(t, err)
	assert.Equal(t, string(suite.PhaseCallProcessing), resp.Phase)
	assert.Equal(t, string(suite.ClosingInstructionsProcessed), resp.Closing)

	for _, m := range resp.Messages {
		assert.NotEqual(t, msg, m.Content, "processed instruction should be hidden")
	}

	saved := f.load(t)
	player := saved.LatestPlayerMessage()
	require.NotNil(t, player)
	assert.True(t, player.Hidden)
	assert.Equal(t, player.ID, saved.LastProcessedCall())
	assert.Equal(t, msg, saved.WorldEntries[suite.EntryGoal].Text)
	assert.Equal(t, "- on a pirate ship", saved.WorldState)
}

func TestRoundProcessor_FailedRoundIsNotSaved(t *testing.T) {
	f := newProcessorFixture(t)
	f.llm.SetChatError(errors.New("model offline"))
	saves := f.store.SaveCalls

	_, err := f.processor.ProcessRound(context.Background(), queue.NewRoundRequest(f.session.ID, "hello"))
	require.Error(t, err)

	assert.Equal(t, saves, f.store.SaveCalls)
	saved := f.load(t)
	assert.Equal(t, 0, saved.Round)
	assert.Empty(t, saved.Messages)
	assert.False(t, f.locker.IsHeld(f.session.ID))
	assert.Contains(t, f.publisher.Events(), "failed")
}

func TestRoundProcessor_LockedSession(t *testing.T) {
	f := newProcessorFixture(t)
	f.locker.Hold(f.session.ID)

	_, err := f.processor.ProcessRound(context.Background(), queue.NewRoundRequest(f.session.ID, "hello"))
	assert.ErrorIs(t, err, ErrSessionLocked)
	assert.NotContains(t, f.publisher.Events(), "failed")
	assert.True(t, f.locker.IsHeld(f.session.ID))
}

func TestRoundProcessor_SessionNotFound(t *testing.T) {
	f := newProcessorFixture(t)

	_, err := f.processor.ProcessRound(context.Background(), queue.NewRoundRequest(uuid.New(), "hello"))
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRoundProcessor_ProcessPortrait(t *testing.T) {
	f := newProcessorFixture(t)
	f.session.AddCharacter(&state.Character{Name: "Mira", Description: "A captain"})
	require.NoError(t, f.store.SaveSession(context.Background(), f.session))
	f.llm.SetResponses("portrait of a captain")

	require.NoError(t, f.processor.ProcessPortrait(context.Background(), queue.NewPortraitRequest(f.session.ID, "Mira")))
	saved := f.load(t)
	assert.Equal(t, "portrait of a captain", saved.CharacterByName("Mira").Portrait)

	saves := f.store.SaveCalls
	require.NoError(t, f.processor.ProcessPortrait(context.Background(), queue.NewPortraitRequest(f.session.ID, "Nobody")))
	assert.Equal(t, saves, f.store.SaveCalls)
}

func TestRoundProcessor_SetStopped(t *testing.T) {
	f := newProcessorFixture(t)
	ctx := context.Background()

	s, err := f.processor.SetStopped(ctx, f.session.ID, true)
	require.NoError(t, err)
	assert.True(t, s.HasFlag(state.FlagSimulationStopped))
	assert.True(t, f.load(t).HasFlag(state.FlagSimulationStopped))

	_, err = f.processor.SetStopped(ctx, f.session.ID, false)
	require.NoError(t, err)
	assert.False(t, f.load(t).HasFlag(state.FlagSimulationStopped))
}

func TestToChatMessages(t *testing.T) {
	got := ToChatMessages([]state.Message{
		{Role: state.MessageRolePlayer, Text: "hi"},
		{Role: state.MessageRoleNarrator, Text: "hello"},
		{Role: state.MessageRoleStatus, Text: "busy"},
	})
	assert.Equal(t, []chat.ChatMessage{
		{Role: chat.ChatRoleUser, Content: "hi"},
		{Role: chat.ChatRoleAgent, Content: "hello"},
		{Role: chat.ChatRoleSystem, Content: "busy"},
	}, got)
}
