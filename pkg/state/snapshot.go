package state

import "maps"

// Snapshot is the pre-simulation state a session returns to when the
// simulation ends. The message log is not part of it.
type Snapshot struct {
	Characters     []*Character          `json:"characters,omitempty"`
	WorldEntries   map[string]WorldEntry `json:"world_entries,omitempty"`
	WorldState     string                `json:"world_state,omitempty"`
	Reinforcements []Reinforcement       `json:"reinforcements,omitempty"`
	Flags          Flags                 `json:"flags,omitempty"`
}

// CaptureSnapshot records the current scene as the restore point.
func (s *Session) CaptureSnapshot() {
	s.Snapshot = &Snapshot{
		Characters:     cloneCharacters(s.Characters),
		WorldEntries:   maps.Clone(s.WorldEntries),
		WorldState:     s.WorldState,
		Reinforcements: append([]Reinforcement(nil), s.Reinforcements...),
		Flags:          s.Flags.Clone(),
	}
}

// RestoreSnapshot returns the scene to the captured restore point. The last
// processed call id survives the restore so instructions are never replayed.
// Without a snapshot it is a no-op.
func (s *Session) RestoreSnapshot() {
	if s.Snapshot == nil {
		return
	}
	lastProcessed, hasLast := s.Flags[FlagLastProcessedCall]

	s.Characters = cloneCharacters(s.Snapshot.Characters)
	s.WorldEntries = maps.Clone(s.Snapshot.WorldEntries)
	if s.WorldEntries == nil {
		s.WorldEntries = make(map[string]WorldEntry)
	}
	s.WorldState = s.Snapshot.WorldState
	s.Reinforcements = append([]Reinforcement(nil), s.Snapshot.Reinforcements...)
	s.Flags = s.Snapshot.Flags.Clone()
	if s.Flags == nil {
		s.Flags = make(Flags)
	}
	if hasLast {
		s.Flags[FlagLastProcessedCall] = lastProcessed
	}
}

func cloneCharacters(in []*Character) []*Character {
	if in == nil {
		return nil
	}
	out := make([]*Character, 0, len(in))
	for _, c := range in {
		out = append(out, c.Clone())
	}
	return out
}
