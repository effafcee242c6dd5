package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/jwebster45206/simulation-suite/internal/services"
	"github.com/jwebster45206/simulation-suite/pkg/chat"
	"github.com/jwebster45206/simulation-suite/pkg/prompts"
	"github.com/jwebster45206/simulation-suite/pkg/queue"
	"github.com/jwebster45206/simulation-suite/pkg/state"
	"github.com/jwebster45206/simulation-suite/pkg/suite"
)

// Visual requests character portraits. Portraits are produced by the worker
// after the round has been saved.
type Visual struct {
	*agent
	queue PortraitQueue
}

var _ suite.Visual = (*Visual)(nil)

// GeneratePortrait enqueues a portrait request for name.
func (v *Visual) GeneratePortrait(ctx context.Context, name string) error {
	if v.queue == nil {
		v.logger.Debug("Portrait queue not configured, skipping portrait", "name", name)
		return nil
	}
	if err := v.queue.EnqueueRequest(ctx, queue.NewPortraitRequest(v.session.ID, name)); err != nil {
		return fmt.Errorf("failed to enqueue portrait: %w", err)
	}
	return nil
}

// ComposePortrait asks the model for an image prompt describing c.
func ComposePortrait(ctx context.Context, llm services.LLMService, c *state.Character) (string, error) {
	if c == nil {
		return "", fmt.Errorf("character is nil")
	}
	messages := []chat.ChatMessage{
		{Role: chat.ChatRoleSystem, Content: prompts.BackendSystemPrompt},
		{Role: chat.ChatRoleUser, Content: fmt.Sprintf(prompts.PortraitPrompt, c.Name, c.Description)},
	}
	resp, err := llm.BackendChat(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("backend chat failed: %w", err)
	}
	return strings.TrimSpace(resp.Message), nil
}
