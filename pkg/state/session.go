package state

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// WorldEntry is a fact kept in the world state. Pinned entries are never
// evicted by a world-state refresh.
type WorldEntry struct {
	ID     string            `json:"id"`
	Text   string            `json:"text"`
	Meta   map[string]string `json:"meta,omitempty"`
	Pinned bool              `json:"pinned,omitempty"`
}

// Reinforcement is a recurring question about a character whose answer is
// kept in the world state.
type Reinforcement struct {
	Character    string `json:"character"`
	Question     string `json:"question"`
	Instructions string `json:"instructions,omitempty"`
	Interval     int    `json:"interval"`           // rounds between runs
	LastRun      int    `json:"last_run,omitempty"` // round of the last run
	Answer       string `json:"answer,omitempty"`
}

// Due reports whether the reinforcement should run in round.
func (r Reinforcement) Due(round int) bool {
	if r.Interval <= 0 {
		return false
	}
	return round-r.LastRun >= r.Interval
}

// Session is the persisted state of one simulation-suite scene.
type Session struct {
	ID              uuid.UUID             `json:"id"`
	Round           int                   `json:"round"`
	Flags           Flags                 `json:"flags,omitempty"`
	Characters      []*Character          `json:"characters,omitempty"`
	Messages        []Message             `json:"messages,omitempty"`
	NextMessageID   int                   `json:"next_message_id"`
	WorldEntries    map[string]WorldEntry `json:"world_entries,omitempty"`
	WorldState      string                `json:"world_state,omitempty"`
	WorldStateRound int                   `json:"world_state_round,omitempty"` // round of the last refresh
	Reinforcements  []Reinforcement       `json:"reinforcements,omitempty"`
	Snapshot        *Snapshot             `json:"snapshot,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// NewSession creates a session with the given player character.
func NewSession(player *Character) *Session {
	s := &Session{
		ID:           uuid.New(),
		Flags:        make(Flags),
		WorldEntries: make(map[string]WorldEntry),
		CreatedAt:    time.Now(),
	}
	if player != nil {
		p := player.Clone()
		p.IsPlayer = true
		p.Active = true
		s.Characters = append(s.Characters, p)
	}
	return s
}

// DeepCopy returns an independent copy of the session.
func (s *Session) DeepCopy() (*Session, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session: %w", err)
	}
	var cp Session
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &cp, nil
}

// PlayerCharacter returns the player's character, or nil.
func (s *Session) PlayerCharacter() *Character {
	for _, c := range s.Characters {
		if c.IsPlayer {
			return c
		}
	}
	return nil
}

// CharacterByName returns the active character with the exact name, or nil.
func (s *Session) CharacterByName(name string) *Character {
	for _, c := range s.Characters {
		if c.Active && c.Name == name {
			return c
		}
	}
	return nil
}

// NonPlayerCharacterNames returns the names of active non-player characters
// in the order they joined the scene.
func (s *Session) NonPlayerCharacterNames() []string {
	names := make([]string, 0)
	for _, c := range s.Characters {
		if c.Active && !c.IsPlayer {
			names = append(names, c.Name)
		}
	}
	return names
}

// AddCharacter adds c to the scene. A known character with the same name is
// replaced and reactivated.
func (s *Session) AddCharacter(c *Character) *Character {
	c.Active = true
	idx := slices.IndexFunc(s.Characters, func(existing *Character) bool {
		return existing.Name == c.Name && !existing.IsPlayer
	})
	if idx >= 0 {
		s.Characters[idx] = c
		return c
	}
	s.Characters = append(s.Characters, c)
	return c
}

// DeactivateCharacter removes the named non-player character from the scene
// while keeping its record. Unknown names are a no-op.
func (s *Session) DeactivateCharacter(name string) bool {
	c := s.CharacterByName(name)
	if c == nil || c.IsPlayer {
		return false
	}
	c.Active = false
	return true
}

// SaveWorldEntry stores or replaces a world entry.
func (s *Session) SaveWorldEntry(entry WorldEntry) {
	if s.WorldEntries == nil {
		s.WorldEntries = make(map[string]WorldEntry)
	}
	s.WorldEntries[entry.ID] = entry
}

// PinnedEntries returns the pinned world entries sorted by id.
func (s *Session) PinnedEntries() []WorldEntry {
	var out []WorldEntry
	for _, e := range s.WorldEntries {
		if e.Pinned {
			out = append(out, e)
		}
	}
	slices.SortFunc(out, func(a, b WorldEntry) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out
}

// AddReinforcement registers r, replacing an existing reinforcement with the
// same character and question.
func (s *Session) AddReinforcement(r Reinforcement) {
	for i, existing := range s.Reinforcements {
		if existing.Character == r.Character && existing.Question == r.Question {
			s.Reinforcements[i] = r
			return
		}
	}
	s.Reinforcements = append(s.Reinforcements, r)
}
