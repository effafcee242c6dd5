package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/jwebster45206/simulation-suite/pkg/prompts"
	"github.com/jwebster45206/simulation-suite/pkg/state"
	"github.com/jwebster45206/simulation-suite/pkg/suite"
	"golang.org/x/text/cases"
)

// Creator resolves character names and writes descriptions.
type Creator struct {
	*agent
}

var _ suite.Creator = (*Creator)(nil)

// ResolveCharacterName asks the backend model for a name. With allowed names
// the answer is matched to one of them case-insensitively; an answer that
// matches none is returned as given.
func (c *Creator) ResolveCharacterName(ctx context.Context, grounding string, allowed []string) (string, error) {
	task := fmt.Sprintf(prompts.NameResolutionPrompt, grounding)
	if len(allowed) > 0 {
		task += fmt.Sprintf(prompts.NameChoicesPrompt, strings.Join(allowed, ", "))
	}

	reply, err := c.askBackend(ctx, task)
	if err != nil {
		return "", fmt.Errorf("failed to resolve name: %w", err)
	}
	name := cleanName(reply)
	if len(allowed) > 0 {
		name = matchName(name, allowed)
	}
	c.logger.Debug("Resolved character name", "name", name)
	return name, nil
}

// ComposeDescription writes a description of ch from its attribute sheet.
func (c *Creator) ComposeDescription(ctx context.Context, ch *state.Character) (string, error) {
	description, err := c.askMain(ctx, fmt.Sprintf(prompts.DescriptionPrompt, ch.Name, prompts.FormatAttributes(ch.BaseAttributes)))
	if err != nil {
		return "", fmt.Errorf("failed to describe %q: %w", ch.Name, err)
	}
	return description, nil
}

// cleanName strips quotes, labels and trailing punctuation from a model reply.
func cleanName(reply string) string {
	name := strings.TrimSpace(reply)
	if i := strings.IndexByte(name, '\n'); i >= 0 {
		name = name[:i]
	}
	if i := strings.IndexByte(name, ':'); i >= 0 && strings.EqualFold(strings.TrimSpace(name[:i]), "name") {
		name = name[i+1:]
	}
	return strings.Trim(name, " \t\"'`*.")
}

// matchName returns the allowed name equal to name under case folding, or
// name itself when none is.
func matchName(name string, allowed []string) string {
	fold := cases.Fold()
	folded := fold.String(name)
	for _, candidate := range allowed {
		if fold.String(candidate) == folded {
			return candidate
		}
	}
	return name
}

// Director brings characters into the scene.
type Director struct {
	*agent
}

var _ suite.Director = (*Director)(nil)

// PersistCharacter adds name to the scene. A known character is reactivated
// with its description; a new one is described from source. An empty name
// adds nobody.
func (d *Director) PersistCharacter(ctx context.Context, name, source string) (*state.Character, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}

	if known := d.knownCharacter(name); known != nil {
		cp := known.Clone()
		d.logger.Debug("Reactivating character", "name", name)
		return d.session.AddCharacter(cp), nil
	}

	description, err := d.askMain(ctx, fmt.Sprintf(prompts.CharacterCreationPrompt, source, name))
	if err != nil {
		return nil, fmt.Errorf("failed to create %q: %w", name, err)
	}
	d.logger.Debug("Creating character", "name", name)
	return d.session.AddCharacter(&state.Character{Name: name, Description: description}), nil
}

func (d *Director) knownCharacter(name string) *state.Character {
	for _, ch := range d.session.Characters {
		if !ch.IsPlayer && ch.Name == name && ch.Description != "" {
			return ch
		}
	}
	return nil
}
