package suite

import (
	"context"
	"fmt"
	"sync"

	"github.com/jwebster45206/simulation-suite/pkg/state"
)

// MockCollaborators implements every collaborator interface for tests.
// Without a configured func, each method records the call and, when Session
// is set, applies the obvious effect to it.
type MockCollaborators struct {
	Session *state.Session

	GenerateDirectivesFunc    func(ctx context.Context, instruction string, scene Scene) (string, error)
	ExplicitIntentFunc        func(ctx context.Context, question, text string) (bool, error)
	NarrateFunc               func(ctx context.Context, mode NarrationMode, text string, emit bool) (string, error)
	SavePinnedEntryFunc       func(ctx context.Context, id, text string, meta map[string]string) error
	ExtractAttributeSheetFunc func(ctx context.Context, name, grounding, instructions string) (map[string]string, error)
	ScheduleReinforcementFunc func(ctx context.Context, r state.Reinforcement, runImmediately bool) error
	DeactivateCharacterFunc   func(ctx context.Context, name string) error
	RefreshFunc               func(ctx context.Context, force bool) error
	ResolveCharacterNameFunc  func(ctx context.Context, grounding string, allowed []string) (string, error)
	ComposeDescriptionFunc    func(ctx context.Context, c *state.Character) (string, error)
	PersistCharacterFunc      func(ctx context.Context, name, source string) (*state.Character, error)
	GeneratePortraitFunc      func(ctx context.Context, name string) error

	// Calls lists every invocation in order, e.g. "narrate:progress_story".
	Calls      []string
	Narrations []NarrateCall
	Statuses   []StatusCall
	Refreshes  []bool

	mu sync.Mutex
}

type NarrateCall struct {
	Mode NarrationMode
	Text string
	Emit bool
}

type StatusCall struct {
	Level   StatusLevel
	Text    string
	Visible bool
}

// NewMockCollaborators creates a mock bound to session, which may be nil.
func NewMockCollaborators(session *state.Session) *MockCollaborators {
	return &MockCollaborators{Session: session}
}

// Collaborators returns a bundle where every collaborator is m.
func (m *MockCollaborators) Collaborators() Collaborators {
	return Collaborators{
		Client:     m,
		Narrator:   m,
		WorldState: m,
		Creator:    m,
		Director:   m,
		Visual:     m,
		Status:     m,
	}
}

func (m *MockCollaborators) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, call)
}

// CallLog returns a copy of the recorded calls.
func (m *MockCollaborators) CallLog() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Calls...)
}

func (m *MockCollaborators) GenerateDirectives(ctx context.Context, instruction string, scene Scene) (string, error) {
	m.record("generate_directives")
	if m.GenerateDirectivesFunc != nil {
		return m.GenerateDirectivesFunc(ctx, instruction, scene)
	}
	return "", nil
}

func (m *MockCollaborators) ExplicitIntent(ctx context.Context, question, text string) (bool, error) {
	m.record("explicit_intent")
	if m.ExplicitIntentFunc != nil {
		return m.ExplicitIntentFunc(ctx, question, text)
	}
	return false, nil
}

func (m *MockCollaborators) Narrate(ctx context.Context, mode NarrationMode, text string, emit bool) (string, error) {
	m.record("narrate:" + string(mode))
	m.mu.Lock()
	m.Narrations = append(m.Narrations, NarrateCall{Mode: mode, Text: text, Emit: emit})
	m.mu.Unlock()
	if m.NarrateFunc != nil {
		return m.NarrateFunc(ctx, mode, text, emit)
	}
	return "narration", nil
}

func (m *MockCollaborators) SavePinnedEntry(ctx context.Context, id, text string, meta map[string]string) error {
	m.record("pin:" + id)
	if m.SavePinnedEntryFunc != nil {
		return m.SavePinnedEntryFunc(ctx, id, text, meta)
	}
	if m.Session != nil {
		m.Session.SaveWorldEntry(state.WorldEntry{ID: id, Text: text, Meta: meta, Pinned: true})
	}
	return nil
}

func (m *MockCollaborators) ExtractAttributeSheet(ctx context.Context, name, grounding, instructions string) (map[string]string, error) {
	m.record("extract_attributes:" + name)
	if m.ExtractAttributeSheetFunc != nil {
		return m.ExtractAttributeSheetFunc(ctx, name, grounding, instructions)
	}
	return map[string]string{"instructions": instructions}, nil
}

func (m *MockCollaborators) ScheduleReinforcement(ctx context.Context, r state.Reinforcement, runImmediately bool) error {
	m.record("schedule_reinforcement:" + r.Character)
	if m.ScheduleReinforcementFunc != nil {
		return m.ScheduleReinforcementFunc(ctx, r, runImmediately)
	}
	if m.Session != nil {
		m.Session.AddReinforcement(r)
	}
	return nil
}

func (m *MockCollaborators) DeactivateCharacter(ctx context.Context, name string) error {
	m.record("deactivate:" + name)
	if m.DeactivateCharacterFunc != nil {
		return m.DeactivateCharacterFunc(ctx, name)
	}
	if m.Session != nil {
		m.Session.DeactivateCharacter(name)
	}
	return nil
}

func (m *MockCollaborators) Refresh(ctx context.Context, force bool) error {
	m.record(fmt.Sprintf("refresh:%t", force))
	m.mu.Lock()
	m.Refreshes = append(m.Refreshes, force)
	m.mu.Unlock()
	if m.RefreshFunc != nil {
		return m.RefreshFunc(ctx, force)
	}
	return nil
}

func (m *MockCollaborators) ResolveCharacterName(ctx context.Context, grounding string, allowed []string) (string, error) {
	m.record("resolve_name")
	if m.ResolveCharacterNameFunc != nil {
		return m.ResolveCharacterNameFunc(ctx, grounding, allowed)
	}
	return "", nil
}

func (m *MockCollaborators) ComposeDescription(ctx context.Context, c *state.Character) (string, error) {
	m.record("compose_description:" + c.Name)
	if m.ComposeDescriptionFunc != nil {
		return m.ComposeDescriptionFunc(ctx, c)
	}
	return "A description of " + c.Name, nil
}

func (m *MockCollaborators) PersistCharacter(ctx context.Context, name, source string) (*state.Character, error) {
	m.record("persist_character:" + name)
	if m.PersistCharacterFunc != nil {
		return m.PersistCharacterFunc(ctx, name, source)
	}
	c := &state.Character{Name: name, Description: source}
	if m.Session != nil {
		return m.Session.AddCharacter(c), nil
	}
	return c, nil
}

func (m *MockCollaborators) GeneratePortrait(ctx context.Context, name string) error {
	m.record("portrait:" + name)
	if m.GeneratePortraitFunc != nil {
		return m.GeneratePortraitFunc(ctx, name)
	}
	return nil
}

func (m *MockCollaborators) EmitStatus(ctx context.Context, level StatusLevel, text string, visible bool) {
	m.record("status:" + string(level))
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Statuses = append(m.Statuses, StatusCall{Level: level, Text: text, Visible: visible})
}
