package suite

import (
	"testing"

	"github.com/jwebster45206/simulation-suite/pkg/state"
)

func TestIsInstruction(t *testing.T) {
	tests := []struct {
		name          string
		msg           *state.Message
		lastProcessed int
		want          bool
	}{
		{"no message", nil, state.NoProcessedCall, false},
		{"addressed", &state.Message{ID: 1, Text: "Computer, add rain"}, state.NoProcessedCall, true},
		{"lowercase", &state.Message{ID: 1, Text: "computer add rain"}, state.NoProcessedCall, true},
		{"uppercase", &state.Message{ID: 1, Text: "COMPUTER: add rain"}, state.NoProcessedCall, true},
		{"not at start", &state.Message{ID: 1, Text: "Hey computer, add rain"}, state.NoProcessedCall, false},
		{"leading space", &state.Message{ID: 1, Text: " computer, add rain"}, state.NoProcessedCall, false},
		{"hidden", &state.Message{ID: 1, Text: "computer, add rain", Hidden: true}, state.NoProcessedCall, false},
		{"already processed", &state.Message{ID: 4, Text: "computer, add rain"}, 4, false},
		{"older than processed", &state.Message{ID: 3, Text: "computer, add rain"}, 4, false},
		{"newer than processed", &state.Message{ID: 5, Text: "computer, add rain"}, 4, true},
		{"empty text", &state.Message{ID: 1, Text: ""}, state.NoProcessedCall, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsInstruction(tt.msg, tt.lastProcessed); got != tt.want {
				t.Errorf("IsInstruction() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDecidePhase(t *testing.T) {
	tests := []struct {
		name  string
		flags map[string]string
		want  Phase
	}{
		{"fresh session", nil, PhaseStartup},
		{"started", map[string]string{state.FlagSimulationStarted: "yes"}, PhaseCallProcessing},
		{"stopped before start", map[string]string{state.FlagSimulationStopped: "yes"}, PhaseFinalize},
		{"stopped after start", map[string]string{
			state.FlagSimulationStarted: "yes",
			state.FlagSimulationStopped: "yes",
		}, PhaseFinalize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := state.NewSession(&state.Character{Name: "Player"})
			for k, v := range tt.flags {
				s.SetFlag(k, v)
			}
			if got := decidePhase(s); got != tt.want {
				t.Errorf("decidePhase() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecideClosing(t *testing.T) {
	tests := []struct {
		name          string
		isInstruction bool
		hasMessage    bool
		hasIssued     bool
		npcCount      int
		want          Closing
	}{
		{"instruction wins", true, true, false, 0, ClosingInstructionsProcessed},
		{"instruction with npcs", true, true, true, 3, ClosingInstructionsProcessed},
		{"never instructed", false, true, false, 0, ClosingGuidePlayer},
		{"never instructed with npcs", false, true, false, 2, ClosingGuidePlayer},
		{"empty scene", false, true, true, 0, ClosingNarrateRound},
		{"npcs present", false, true, true, 1, ClosingNone},
		{"no message", false, false, false, 0, ClosingNone},
		{"no message after instructions", false, false, true, 0, ClosingNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := decideClosing(tt.isInstruction, tt.hasMessage, tt.hasIssued, tt.npcCount)
			if got != tt.want {
				t.Errorf("decideClosing() = %q, want %q", got, tt.want)
			}
		})
	}
}
