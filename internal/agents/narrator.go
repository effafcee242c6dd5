package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/jwebster45206/simulation-suite/pkg/prompts"
	"github.com/jwebster45206/simulation-suite/pkg/state"
	"github.com/jwebster45206/simulation-suite/pkg/suite"
)

// Narrator writes the player-facing narration with the main model.
type Narrator struct {
	*agent
}

var _ suite.Narrator = (*Narrator)(nil)

// Narrate produces narration for text according to mode. Emitted narration
// is appended to the session log and published.
func (n *Narrator) Narrate(ctx context.Context, mode suite.NarrationMode, text string, emit bool) (string, error) {
	var narration string
	switch mode {
	case suite.NarratePassthrough:
		narration = text
	case suite.NarrateAdvance:
		out, err := n.complete(ctx, fmt.Sprintf(prompts.NarratorAdvancePrompt, text))
		if err != nil {
			return "", err
		}
		narration = out
	case suite.NarrateParaphrase:
		out, err := n.complete(ctx, fmt.Sprintf(prompts.NarratorParaphrasePrompt, text))
		if err != nil {
			return "", err
		}
		narration = out
	default:
		return "", fmt.Errorf("unknown narration mode %q", mode)
	}

	if emit && narration != "" {
		n.session.AppendMessage(state.MessageRoleNarrator, narration)
		if n.publisher != nil {
			if err := n.publisher.PublishNarration(ctx, n.session.ID, narration); err != nil {
				n.logger.Warn("Failed to publish narration", "error", err)
			}
		}
	}
	return narration, nil
}

func (n *Narrator) complete(ctx context.Context, direction string) (string, error) {
	messages, err := prompts.New().
		WithSession(n.session).
		WithHistoryLimit(n.opts.HistoryLimit).
		WithFinalPrompt(direction).
		Build()
	if err != nil {
		return "", fmt.Errorf("failed to build narration prompt: %w", err)
	}

	n.logger.Debug("Sending narration request to LLM", "direction", direction)
	resp, err := n.llm.Chat(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("LLM chat failed: %w", err)
	}
	return strings.TrimRight(resp.Message, "\n"), nil
}
