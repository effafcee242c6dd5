package suite

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/jwebster45206/simulation-suite/pkg/state"
)

func runRound(t *testing.T, s *state.Session, mock *MockCollaborators) *Outcome {
	t.Helper()
	out, err := New(s, mock.Collaborators(), slog.Default()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	return out
}

func assertCalls(t *testing.T, got, want []string) {
	t.Helper()
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("calls:\n  got  %v\n  want %v", got, want)
	}
}

func TestRun_Startup(t *testing.T) {
	s := state.NewSession(&state.Character{Name: "Player"})
	mock := NewMockCollaborators(s)

	out := runRound(t, s, mock)

	if out.Phase != PhaseStartup {
		t.Errorf("phase = %q, want %q", out.Phase, PhaseStartup)
	}
	if out.Closing != ClosingNone {
		t.Errorf("closing = %q, want none without a player message", out.Closing)
	}
	if !out.Refreshed {
		t.Error("expected world-state refresh")
	}
	assertCalls(t, mock.CallLog(), []string{
		"status:busy",
		"narrate:progress_story",
		"narrate:passthrough",
		"pin:" + EntryQuarantined,
		"status:success",
		"status:busy",
		"refresh:true",
		"status:success",
	})

	if !s.HasFlag(state.FlagSimulationStarted) {
		t.Error("expected started flag")
	}
	if mock.Narrations[0].Emit {
		t.Error("startup direction must not be emitted")
	}
	if !mock.Narrations[1].Emit || mock.Narrations[1].Text != MsgHelp {
		t.Errorf("second narration = %+v, want emitted help", mock.Narrations[1])
	}
	entry := s.WorldEntries[EntryQuarantined]
	if !entry.Pinned || entry.Text != CtxPinUnaware {
		t.Errorf("quarantine entry = %+v", entry)
	}
	if mock.Statuses[0].Text != MsgPoweringUp || mock.Statuses[1].Text != MsgReady {
		t.Errorf("statuses = %+v", mock.Statuses)
	}
}

func TestRun_StartupWithChatter(t *testing.T) {
	s := state.NewSession(&state.Character{Name: "Player"})
	s.AppendMessage(state.MessageRolePlayer, "hello?")
	mock := NewMockCollaborators(s)

	out := runRound(t, s, mock)

	if out.Closing != ClosingGuidePlayer {
		t.Errorf("closing = %q, want %q", out.Closing, ClosingGuidePlayer)
	}
	last := mock.Narrations[len(mock.Narrations)-1]
	if last.Mode != NarrateParaphrase || last.Text != MsgHelp || !last.Emit {
		t.Errorf("last narration = %+v", last)
	}
}

func TestRun_StartupInstructionIsProcessed(t *testing.T) {
	s := state.NewSession(&state.Character{Name: "Player"})
	msg := s.AppendMessage(state.MessageRolePlayer, "Computer, a jungle please")
	mock := NewMockCollaborators(s)

	out := runRound(t, s, mock)

	if out.Closing != ClosingInstructionsProcessed {
		t.Errorf("closing = %q", out.Closing)
	}
	if s.LastProcessedCall() != msg.ID {
		t.Errorf("last processed = %d, want %d", s.LastProcessedCall(), msg.ID)
	}
	for _, c := range mock.CallLog() {
		if c == "generate_directives" {
			t.Error("startup must not request directives")
		}
	}
}

func TestRun_CallProcessing(t *testing.T) {
	s := newStartedSession("Computer, put me on a ship in a storm")
	msg := s.LatestPlayerMessage()
	mock := NewMockCollaborators(s)
	mock.GenerateDirectivesFunc = func(ctx context.Context, instruction string, scene Scene) (string, error) {
		if instruction != msg.Text {
			t.Errorf("instruction = %q, want raw player text", instruction)
		}
		return "change_environment(ship)\nchange_environment(storm)", nil
	}

	out := runRound(t, s, mock)

	if out.Phase != PhaseCallProcessing || out.Closing != ClosingInstructionsProcessed {
		t.Errorf("outcome = %+v", out)
	}
	if strings.Join(out.Trace, "|") != "change_environment(ship)|change_environment(storm)" {
		t.Errorf("trace = %q", out.Trace)
	}
	assertCalls(t, mock.CallLog(), []string{
		"generate_directives",
		"status:busy",
		"narrate:progress_story",
		"status:busy",
		"refresh:false",
		"status:success",
		"status:success",
	})

	direction := mock.Narrations[0].Text
	if !strings.Contains(direction, "change_environment(ship)\nchange_environment(storm)") {
		t.Errorf("environment direction = %q", direction)
	}
	if !mock.Narrations[0].Emit {
		t.Error("environment narration must be emitted")
	}
	if !s.HasFlag(state.FlagHasIssuedInstruction) {
		t.Error("expected has_issued_instructions flag")
	}
	if latest := s.LatestPlayerMessage(); !latest.Hidden {
		t.Error("expected instruction to be hidden")
	}
	if s.LastProcessedCall() != msg.ID {
		t.Errorf("last processed = %d, want %d", s.LastProcessedCall(), msg.ID)
	}
	if got := mock.Statuses[len(mock.Statuses)-1].Text; got != MsgProcessedInstructions {
		t.Errorf("final status = %q", got)
	}
}

func TestRun_InstructionIsNotReprocessed(t *testing.T) {
	s := newStartedSession("Computer, add rain")
	mock := NewMockCollaborators(s)
	mock.GenerateDirectivesFunc = func(ctx context.Context, instruction string, scene Scene) (string, error) {
		return "change_environment(rain)", nil
	}
	runRound(t, s, mock)

	second := NewMockCollaborators(s)
	out := runRound(t, s, second)

	for _, c := range second.CallLog() {
		if c == "generate_directives" {
			t.Fatal("instruction was processed twice")
		}
	}
	if out.Refreshed {
		t.Error("no refresh expected on a replayed round")
	}
	if out.Closing != ClosingNarrateRound {
		t.Errorf("closing = %q, want %q", out.Closing, ClosingNarrateRound)
	}
}

func TestRun_ChatterBeforeAnyInstruction(t *testing.T) {
	s := newStartedSession("I look around")
	mock := NewMockCollaborators(s)

	out := runRound(t, s, mock)

	if out.Closing != ClosingGuidePlayer {
		t.Errorf("closing = %q, want %q", out.Closing, ClosingGuidePlayer)
	}
	assertCalls(t, mock.CallLog(), []string{"narrate:paraphrase"})
}

func TestRun_ChatterWithCharactersPresent(t *testing.T) {
	s := newStartedSession("I wave at the pirate")
	s.SetFlag(state.FlagHasIssuedInstruction, "yes")
	s.AddCharacter(&state.Character{Name: "Bess"})
	mock := NewMockCollaborators(s)

	out := runRound(t, s, mock)

	if out.Closing != ClosingNone {
		t.Errorf("closing = %q, want none", out.Closing)
	}
	if len(mock.CallLog()) != 0 {
		t.Errorf("unexpected calls %v", mock.CallLog())
	}
}

func TestRun_Stopped(t *testing.T) {
	s := newStartedSession("Computer, add a dragon")
	s.SetFlag(state.FlagSimulationStopped, "yes")
	mock := NewMockCollaborators(s)

	out := runRound(t, s, mock)

	if out.Phase != PhaseFinalize {
		t.Errorf("phase = %q, want %q", out.Phase, PhaseFinalize)
	}
	// The instruction is still acknowledged so it is not replayed on resume.
	if out.Closing != ClosingInstructionsProcessed {
		t.Errorf("closing = %q", out.Closing)
	}
	assertCalls(t, mock.CallLog(), []string{"status:success"})
}

func TestRun_EndSimulationSkipsEnvironmentNarration(t *testing.T) {
	s := newStartedSession("Computer, end the simulation now")
	s.AddCharacter(&state.Character{Name: "Bess"})
	mock := NewMockCollaborators(s)
	mock.GenerateDirectivesFunc = func(ctx context.Context, instruction string, scene Scene) (string, error) {
		return "end_simulation()", nil
	}
	mock.ExplicitIntentFunc = func(ctx context.Context, question, text string) (bool, error) {
		return true, nil
	}

	out := runRound(t, s, mock)

	if !out.Reset {
		t.Error("expected reset")
	}
	if len(out.Trace) != 0 {
		t.Errorf("trace = %q, want empty", out.Trace)
	}
	if len(mock.Narrations) != 1 {
		t.Errorf("narrations = %+v, want only the ending", mock.Narrations)
	}
	if !out.Refreshed || mock.Refreshes[0] {
		t.Errorf("refreshes = %v, want one non-forced refresh", mock.Refreshes)
	}
	if s.HasFlag(state.FlagSimulationStarted) {
		t.Error("expected the scene to return to its pre-simulation flags")
	}
	if s.LastProcessedCall() != s.LatestPlayerMessage().ID {
		t.Error("expected the ending instruction to be recorded")
	}
}

func TestRun_NarrateRoundInEmptyScene(t *testing.T) {
	s := newStartedSession("I wait")
	s.SetFlag(state.FlagHasIssuedInstruction, "yes")
	mock := NewMockCollaborators(s)

	out := runRound(t, s, mock)

	if out.Closing != ClosingNarrateRound {
		t.Errorf("closing = %q", out.Closing)
	}
	if n := mock.Narrations[0]; n.Mode != NarrateAdvance || n.Text != PromptNarrateRound || !n.Emit {
		t.Errorf("narration = %+v", n)
	}
}

func TestRun_ErrorsAbortTheRound(t *testing.T) {
	boom := errors.New("backend down")

	tests := []struct {
		name  string
		setup func(m *MockCollaborators)
	}{
		{"directives", func(m *MockCollaborators) {
			m.GenerateDirectivesFunc = func(ctx context.Context, instruction string, scene Scene) (string, error) {
				return "", boom
			}
		}},
		{"narrator", func(m *MockCollaborators) {
			m.NarrateFunc = func(ctx context.Context, mode NarrationMode, text string, emit bool) (string, error) {
				return "", boom
			}
		}},
		{"refresh", func(m *MockCollaborators) {
			m.RefreshFunc = func(ctx context.Context, force bool) error {
				return boom
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStartedSession("Computer, add rain")
			mock := NewMockCollaborators(s)
			mock.GenerateDirectivesFunc = func(ctx context.Context, instruction string, scene Scene) (string, error) {
				return "change_environment(rain)", nil
			}
			tt.setup(mock)

			out, err := New(s, mock.Collaborators(), slog.Default()).Run(context.Background())
			if !errors.Is(err, boom) {
				t.Fatalf("Run() error = %v, want %v", err, boom)
			}
			if out != nil {
				t.Errorf("outcome = %+v, want nil", out)
			}
			if s.LastProcessedCall() != state.NoProcessedCall {
				t.Error("failed round must not record the instruction")
			}
			if s.LatestPlayerMessage().Hidden {
				t.Error("failed round must not hide the instruction")
			}
		})
	}
}
