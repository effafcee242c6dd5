package agents

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/jwebster45206/simulation-suite/pkg/chat"
	"github.com/jwebster45206/simulation-suite/pkg/prompts"
	"github.com/jwebster45206/simulation-suite/pkg/suite"
)

// DirectiveAgent plays the simulation computer: it turns instructions into
// call lists and answers yes/no evaluations.
type DirectiveAgent struct {
	*agent
}

var _ suite.DirectiveClient = (*DirectiveAgent)(nil)

// GenerateDirectives asks the backend model for the calls that satisfy
// instruction. The reply is returned as-is; malformed lines are dropped by
// the suite's lexer.
func (d *DirectiveAgent) GenerateDirectives(ctx context.Context, instruction string, scene suite.Scene) (string, error) {
	messages, err := prompts.New().
		WithSession(d.session).
		WithSystemPrompt(prompts.BuildComputerPrompt()).
		WithHistoryLimit(0).
		WithUserMessage(instruction, chat.ChatRoleUser).
		Build()
	if err != nil {
		return "", fmt.Errorf("failed to build computer prompt: %w", err)
	}

	resp, err := d.llm.BackendChat(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("backend chat failed: %w", err)
	}
	d.logger.Debug("Computer response", "instruction", instruction, "response", resp.Message)
	return resp.Message, nil
}

// ExplicitIntent answers question about text with the backend model.
func (d *DirectiveAgent) ExplicitIntent(ctx context.Context, question, text string) (bool, error) {
	messages := []chat.ChatMessage{
		{Role: chat.ChatRoleSystem, Content: prompts.BackendSystemPrompt},
		{Role: chat.ChatRoleUser, Content: fmt.Sprintf(prompts.YesNoPrompt, text, question)},
	}
	resp, err := d.llm.BackendChat(ctx, messages)
	if err != nil {
		return false, fmt.Errorf("backend chat failed: %w", err)
	}
	answer := parseYesNo(resp.Message)
	d.logger.Debug("Explicit intent", "question", question, "answer", answer)
	return answer, nil
}

// parseYesNo reads the first word of reply as yes or no. Anything else is no.
func parseYesNo(reply string) bool {
	word := strings.FieldsFunc(strings.ToLower(reply), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	return len(word) > 0 && word[0] == "yes"
}
