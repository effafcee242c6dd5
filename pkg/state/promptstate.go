package state

// PromptState is a reduced session view for LLM prompts.
type PromptState struct {
	Player         *Character          `json:"player,omitempty"`
	Characters     map[string]string   `json:"characters,omitempty"` // name -> description
	PinnedEntries  []string            `json:"pinned,omitempty"`
	WorldState     string              `json:"world_state,omitempty"`
	Reinforcements map[string][]string `json:"character_details,omitempty"`
}

func ToPromptState(s *Session) *PromptState {
	ps := &PromptState{
		Player:     s.PlayerCharacter(),
		Characters: make(map[string]string),
		WorldState: s.WorldState,
	}
	for _, c := range s.Characters {
		if c.Active && !c.IsPlayer {
			ps.Characters[c.Name] = c.Description
		}
	}
	for _, e := range s.PinnedEntries() {
		ps.PinnedEntries = append(ps.PinnedEntries, e.Text)
	}
	for _, r := range s.Reinforcements {
		if r.Answer == "" {
			continue
		}
		if ps.Reinforcements == nil {
			ps.Reinforcements = make(map[string][]string)
		}
		ps.Reinforcements[r.Character] = append(ps.Reinforcements[r.Character], r.Question+": "+r.Answer)
	}
	return ps
}
