package suite

import (
	"context"

	"github.com/jwebster45206/simulation-suite/pkg/state"
)

// NarrationMode selects how the narrator treats the text it is given.
type NarrationMode string

const (
	NarrateAdvance     NarrationMode = "progress_story" // text is a direction for new narration
	NarratePassthrough NarrationMode = "passthrough"    // text is narration as-is
	NarrateParaphrase  NarrationMode = "paraphrase"     // text is reworded in the narrator's voice
)

// StatusLevel is the severity of a status emission.
type StatusLevel string

const (
	StatusBusy    StatusLevel = "busy"
	StatusSuccess StatusLevel = "success"
)

// Scene is the session state a round reads and mutates. Writes are committed
// by the host once the round returns.
type Scene interface {
	Flag(key string) (string, bool)
	HasFlag(key string) bool
	SetFlag(key, value string)
	LastProcessedCall() int
	RecordProcessedCall(id int) bool

	PlayerCharacter() *state.Character
	LatestPlayerMessage() *state.Message
	HideMessage(id int) bool
	CharacterByName(name string) *state.Character
	NonPlayerCharacterNames() []string
	RestoreSnapshot()
}

var _ Scene = (*state.Session)(nil)

// DirectiveClient asks the language model for directive lists and simple
// yes/no evaluations.
type DirectiveClient interface {
	// GenerateDirectives returns a newline-delimited list of calls for the
	// player's instruction.
	GenerateDirectives(ctx context.Context, instruction string, scene Scene) (string, error)

	// ExplicitIntent answers question about text.
	ExplicitIntent(ctx context.Context, question, text string) (bool, error)
}

// Narrator produces narration and optionally shows it to the player.
type Narrator interface {
	Narrate(ctx context.Context, mode NarrationMode, text string, emit bool) (string, error)
}

// WorldState manages world entries, character sheets and the world-state summary.
type WorldState interface {
	SavePinnedEntry(ctx context.Context, id, text string, meta map[string]string) error
	ExtractAttributeSheet(ctx context.Context, name, grounding, instructions string) (map[string]string, error)
	ScheduleReinforcement(ctx context.Context, r state.Reinforcement, runImmediately bool) error
	DeactivateCharacter(ctx context.Context, name string) error
	Refresh(ctx context.Context, force bool) error
}

// Creator resolves character names and writes character descriptions.
type Creator interface {
	// ResolveCharacterName answers grounding with a name. When allowed is not
	// empty the answer is constrained to those names.
	ResolveCharacterName(ctx context.Context, grounding string, allowed []string) (string, error)
	ComposeDescription(ctx context.Context, c *state.Character) (string, error)
}

// Director brings new characters into the scene.
type Director interface {
	PersistCharacter(ctx context.Context, name, source string) (*state.Character, error)
}

// Visual requests character artwork.
type Visual interface {
	GeneratePortrait(ctx context.Context, name string) error
}

// StatusSink receives status updates for the presentation layer.
type StatusSink interface {
	EmitStatus(ctx context.Context, level StatusLevel, text string, visible bool)
}

// Collaborators bundles the services a round calls into.
type Collaborators struct {
	Client     DirectiveClient
	Narrator   Narrator
	WorldState WorldState
	Creator    Creator
	Director   Director
	Visual     Visual
	Status     StatusSink
}
