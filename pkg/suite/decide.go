package suite

import (
	"strings"

	"github.com/jwebster45206/simulation-suite/pkg/state"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Phase is the branch a round takes after intake.
type Phase string

const (
	PhaseStartup        Phase = "startup"
	PhaseCallProcessing Phase = "call_processing"
	PhaseFinalize       Phase = "finalize" // stopped simulation, straight to finalize
)

// Closing is the single player-facing action at the end of a round.
type Closing string

const (
	ClosingNone                  Closing = ""
	ClosingInstructionsProcessed Closing = "instructions_processed"
	ClosingGuidePlayer           Closing = "guide_player"
	ClosingNarrateRound          Closing = "narrate_round"
)

// IsInstruction reports whether msg is addressed to the computer and not yet
// processed.
func IsInstruction(msg *state.Message, lastProcessed int) bool {
	if msg == nil || msg.Hidden || msg.ID <= lastProcessed {
		return false
	}
	// Casers are stateful, so one is built per call.
	lower := cases.Lower(language.Und).String(msg.Text)
	return strings.HasPrefix(lower, TriggerWord)
}

func decidePhase(scene Scene) Phase {
	switch {
	case scene.HasFlag(state.FlagSimulationStopped):
		return PhaseFinalize
	case !scene.HasFlag(state.FlagSimulationStarted):
		return PhaseStartup
	default:
		return PhaseCallProcessing
	}
}

// decideClosing picks at most one closing action, in priority order.
func decideClosing(isInstruction, hasMessage, hasIssuedInstructions bool, npcCount int) Closing {
	switch {
	case isInstruction:
		return ClosingInstructionsProcessed
	case hasMessage && !hasIssuedInstructions:
		return ClosingGuidePlayer
	case hasMessage && npcCount == 0:
		return ClosingNarrateRound
	default:
		return ClosingNone
	}
}
