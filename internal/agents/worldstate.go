package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"strings"

	"github.com/jwebster45206/simulation-suite/pkg/prompts"
	"github.com/jwebster45206/simulation-suite/pkg/state"
	"github.com/jwebster45206/simulation-suite/pkg/suite"
)

// WorldStateAgent keeps the session's world entries, character sheets,
// reinforcements and world-state summary.
type WorldStateAgent struct {
	*agent
}

var _ suite.WorldState = (*WorldStateAgent)(nil)

// SavePinnedEntry stores a world entry that refreshes never evict.
func (w *WorldStateAgent) SavePinnedEntry(ctx context.Context, id, text string, meta map[string]string) error {
	w.session.SaveWorldEntry(state.WorldEntry{
		ID:     id,
		Text:   text,
		Meta:   maps.Clone(meta),
		Pinned: true,
	})
	w.logger.Debug("Pinned world entry", "id", id)
	return nil
}

// ExtractAttributeSheet asks the backend model for name's attribute sheet.
func (w *WorldStateAgent) ExtractAttributeSheet(ctx context.Context, name, grounding, instructions string) (map[string]string, error) {
	reply, err := w.askBackend(ctx, fmt.Sprintf(prompts.AttributeSheetPrompt, name, grounding, instructions))
	if err != nil {
		return nil, err
	}
	attrs, err := parseAttributeSheet(reply)
	if err != nil {
		return nil, fmt.Errorf("failed to parse attribute sheet for %q: %w", name, err)
	}
	return attrs, nil
}

// ScheduleReinforcement registers r, answering it right away when asked.
func (w *WorldStateAgent) ScheduleReinforcement(ctx context.Context, r state.Reinforcement, runImmediately bool) error {
	if runImmediately {
		if err := w.runReinforcement(ctx, &r); err != nil {
			return err
		}
	}
	w.session.AddReinforcement(r)
	return nil
}

// DeactivateCharacter takes name out of the scene. Unknown names are ignored.
func (w *WorldStateAgent) DeactivateCharacter(ctx context.Context, name string) error {
	if !w.session.DeactivateCharacter(name) {
		w.logger.Debug("No active character to deactivate", "name", name)
	}
	return nil
}

// Refresh runs due reinforcements and rewrites the world-state summary.
// Without force it is skipped until the refresh interval has passed.
func (w *WorldStateAgent) Refresh(ctx context.Context, force bool) error {
	round := w.session.Round
	if !force && w.session.WorldState != "" && round-w.session.WorldStateRound < w.opts.WorldStateInterval {
		w.logger.Debug("World state refresh skipped", "round", round, "last_refresh", w.session.WorldStateRound)
		return nil
	}

	for i := range w.session.Reinforcements {
		r := &w.session.Reinforcements[i]
		if !r.Due(round) {
			continue
		}
		if err := w.runReinforcement(ctx, r); err != nil {
			return err
		}
	}

	summary, err := w.askBackendWithHistory(ctx, prompts.WorldStatePrompt)
	if err != nil {
		return fmt.Errorf("failed to summarize world state: %w", err)
	}
	w.session.WorldState = summary
	w.session.WorldStateRound = round
	w.logger.Debug("World state refreshed", "round", round, "force", force)
	return nil
}

func (w *WorldStateAgent) runReinforcement(ctx context.Context, r *state.Reinforcement) error {
	answer, err := w.askBackendWithHistory(ctx, fmt.Sprintf(prompts.ReinforcementPrompt, r.Character, r.Question, r.Instructions))
	if err != nil {
		return fmt.Errorf("failed to answer %q for %q: %w", r.Question, r.Character, err)
	}
	r.Answer = answer
	r.LastRun = w.session.Round
	return nil
}

// parseAttributeSheet reads a JSON object from reply, tolerating code fences
// and prose around it. Non-string values are rendered as JSON.
func parseAttributeSheet(reply string) (map[string]string, error) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("no JSON object in reply")
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(reply[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("invalid JSON object: %w", err)
	}

	attrs := make(map[string]string, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case string:
			attrs[k] = val
		case nil:
			attrs[k] = ""
		default:
			data, err := json.Marshal(val)
			if err != nil {
				return nil, fmt.Errorf("failed to encode attribute %q: %w", k, err)
			}
			attrs[k] = string(data)
		}
	}
	return attrs, nil
}
