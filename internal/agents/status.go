package agents

import (
	"context"

	"github.com/jwebster45206/simulation-suite/pkg/state"
	"github.com/jwebster45206/simulation-suite/pkg/suite"
)

// StatusEmitter forwards suite status updates to clients.
type StatusEmitter struct {
	*agent
}

var _ suite.StatusSink = (*StatusEmitter)(nil)

// EmitStatus publishes the status. Visible statuses are also kept in the
// session log.
func (s *StatusEmitter) EmitStatus(ctx context.Context, level suite.StatusLevel, text string, visible bool) {
	if visible {
		s.session.AppendMessage(state.MessageRoleStatus, text)
	}
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishStatus(ctx, s.session.ID, string(level), text, visible); err != nil {
		s.logger.Warn("Failed to publish status", "error", err, "level", level)
	}
}
