package suite

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jwebster45206/simulation-suite/pkg/state"
)

// Round is the transient state of one player turn.
type Round struct {
	Scene Scene
	Deps  Collaborators

	Player        *state.Character
	Message       *state.Message // latest player message, may be nil
	IsInstruction bool

	UpdateWorldState bool
	ForceRefresh     bool // set by startup
	SimulationReset  bool

	logger *slog.Logger
}

// MessageText returns the raw text of the player's message, or "".
func (r *Round) MessageText() string {
	if r.Message == nil {
		return ""
	}
	return r.Message.Text
}

func (r *Round) status(ctx context.Context, level StatusLevel, text string) {
	r.Deps.Status.EmitStatus(ctx, level, text, true)
}

// Outcome summarizes a completed round.
type Outcome struct {
	Phase     Phase
	Closing   Closing
	Trace     []string
	Reset     bool
	Refreshed bool
}

// Suite runs simulation-suite rounds against a scene.
type Suite struct {
	scene    Scene
	deps     Collaborators
	registry Registry
	logger   *slog.Logger
}

// New creates a suite with the default registry.
func New(scene Scene, deps Collaborators, logger *slog.Logger) *Suite {
	return &Suite{
		scene:    scene,
		deps:     deps,
		registry: DefaultRegistry(),
		logger:   logger,
	}
}

// WithRegistry replaces the handler registry.
func (s *Suite) WithRegistry(registry Registry) *Suite {
	s.registry = registry
	return s
}

// Registry returns the registry used by the suite so callers can extend it.
func (s *Suite) Registry() Registry {
	return s.registry
}

// Run executes one round to completion. Collaborator errors abort the round
// and are returned unchanged apart from wrapping.
func (s *Suite) Run(ctx context.Context) (*Outcome, error) {
	r := s.newRound()
	out := &Outcome{Phase: decidePhase(s.scene)}

	s.logger.Debug("Simulation suite round",
		"phase", out.Phase,
		"instruction", r.IsInstruction,
		"last_processed_call", s.scene.LastProcessedCall())

	switch out.Phase {
	case PhaseStartup:
		if err := s.startup(ctx, r); err != nil {
			return nil, err
		}
	case PhaseCallProcessing:
		trace, err := s.processCalls(ctx, r)
		if err != nil {
			return nil, err
		}
		out.Trace = trace
	}

	closing, err := s.finalize(ctx, r)
	if err != nil {
		return nil, err
	}
	out.Closing = closing
	out.Reset = r.SimulationReset
	out.Refreshed = r.UpdateWorldState

	s.logger.Debug("Simulation suite round finished", "phase", out.Phase, "closing", out.Closing, "calls", len(out.Trace))
	return out, nil
}

func (s *Suite) newRound() *Round {
	msg := s.scene.LatestPlayerMessage()
	return &Round{
		Scene:         s.scene,
		Deps:          s.deps,
		Player:        s.scene.PlayerCharacter(),
		Message:       msg,
		IsInstruction: IsInstruction(msg, s.scene.LastProcessedCall()),
		logger:        s.logger,
	}
}

func (s *Suite) startup(ctx context.Context, r *Round) error {
	r.status(ctx, StatusBusy, MsgPoweringUp)
	s.scene.SetFlag(state.FlagSimulationStarted, "yes")

	if _, err := s.deps.Narrator.Narrate(ctx, NarrateAdvance, PromptStartup, false); err != nil {
		return fmt.Errorf("failed to narrate startup: %w", err)
	}
	if _, err := s.deps.Narrator.Narrate(ctx, NarratePassthrough, MsgHelp, true); err != nil {
		return fmt.Errorf("failed to emit help: %w", err)
	}
	if err := s.deps.WorldState.SavePinnedEntry(ctx, EntryQuarantined, CtxPinUnaware, nil); err != nil {
		return fmt.Errorf("failed to pin %s: %w", EntryQuarantined, err)
	}

	r.status(ctx, StatusSuccess, MsgReady)
	r.UpdateWorldState = true
	r.ForceRefresh = true
	return nil
}

func (s *Suite) processCalls(ctx context.Context, r *Round) ([]string, error) {
	if !r.IsInstruction {
		return nil, nil
	}
	s.scene.SetFlag(state.FlagHasIssuedInstruction, "yes")

	response, err := s.deps.Client.GenerateDirectives(ctx, r.Message.Text, s.scene)
	if err != nil {
		return nil, fmt.Errorf("failed to generate directives: %w", err)
	}
	calls := SplitCalls(response)
	s.logger.Debug("Simulation suite calls", "calls", calls)

	trace, err := NewDispatcher(s.registry, s.logger).Dispatch(ctx, r, calls)
	if err != nil {
		return nil, err
	}

	r.status(ctx, StatusBusy, MsgAlteringEnvironment)
	if !r.SimulationReset {
		direction := fmt.Sprintf(PromptEnvironmentShift, strings.Join(trace, "\n"))
		if _, err := s.deps.Narrator.Narrate(ctx, NarrateAdvance, direction, true); err != nil {
			return nil, fmt.Errorf("failed to narrate environment changes: %w", err)
		}
	}
	r.UpdateWorldState = true
	return trace, nil
}

func (s *Suite) finalize(ctx context.Context, r *Round) (Closing, error) {
	if r.UpdateWorldState {
		s.logger.Debug("Simulation suite updating world state", "force", r.ForceRefresh)
		r.status(ctx, StatusBusy, MsgUpdatingWorldState)
		if err := s.deps.WorldState.Refresh(ctx, r.ForceRefresh); err != nil {
			return ClosingNone, fmt.Errorf("failed to refresh world state: %w", err)
		}
		r.status(ctx, StatusSuccess, MsgUpdatedWorldState)
	}

	closing := decideClosing(
		r.IsInstruction,
		r.Message != nil,
		s.scene.HasFlag(state.FlagHasIssuedInstruction),
		len(s.scene.NonPlayerCharacterNames()),
	)

	switch closing {
	case ClosingInstructionsProcessed:
		s.scene.HideMessage(r.Message.ID)
		s.scene.RecordProcessedCall(r.Message.ID)
		r.status(ctx, StatusSuccess, MsgProcessedInstructions)
	case ClosingGuidePlayer:
		if _, err := s.deps.Narrator.Narrate(ctx, NarrateParaphrase, MsgHelp, true); err != nil {
			return ClosingNone, fmt.Errorf("failed to guide player: %w", err)
		}
	case ClosingNarrateRound:
		if _, err := s.deps.Narrator.Narrate(ctx, NarrateAdvance, PromptNarrateRound, true); err != nil {
			return ClosingNone, fmt.Errorf("failed to narrate round: %w", err)
		}
	}
	return closing, nil
}
