package state

import "maps"

// Character is a named actor in the scene, either the player or an
// AI-controlled character.
type Character struct {
	Name           string            `json:"name"`
	Description    string            `json:"description,omitempty"`
	BaseAttributes map[string]string `json:"base_attributes,omitempty"`
	IsPlayer       bool              `json:"is_player,omitempty"`
	Active         bool              `json:"active"`
	Portrait       string            `json:"portrait,omitempty"` // visual prompt for an external renderer
}

// Rename changes the character's name. Renaming to the current name is a no-op.
func (c *Character) Rename(name string) bool {
	if name == "" || name == c.Name {
		return false
	}
	c.Name = name
	return true
}

// UpdateAttributes replaces the character's attribute sheet.
func (c *Character) UpdateAttributes(attrs map[string]string) {
	c.BaseAttributes = maps.Clone(attrs)
}

// UpdateDescription replaces the character's description.
func (c *Character) UpdateDescription(description string) {
	c.Description = description
}

// Clone returns a deep copy of the character.
func (c *Character) Clone() *Character {
	if c == nil {
		return nil
	}
	cp := *c
	cp.BaseAttributes = maps.Clone(c.BaseAttributes)
	return &cp
}
