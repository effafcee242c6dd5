package state

import "time"

// Message roles in the session log.
const (
	MessageRolePlayer   = "player"
	MessageRoleNarrator = "narrator"
	MessageRoleStatus   = "status"
)

// Message is one entry of the session's chat log.
type Message struct {
	ID        int       `json:"id"`
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	Hidden    bool      `json:"hidden,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// AppendMessage adds a message to the log and returns it. Ids increase
// monotonically per session.
func (s *Session) AppendMessage(role, text string) Message {
	s.NextMessageID++
	msg := Message{
		ID:        s.NextMessageID,
		Role:      role,
		Text:      text,
		CreatedAt: time.Now(),
	}
	s.Messages = append(s.Messages, msg)
	return msg
}

// LatestPlayerMessage returns a copy of the most recent player message, or nil.
func (s *Session) LatestPlayerMessage() *Message {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == MessageRolePlayer {
			msg := s.Messages[i]
			return &msg
		}
	}
	return nil
}

// HideMessage marks the message with id as hidden. Hiding an already hidden
// or unknown message is a no-op; it returns whether anything changed.
func (s *Session) HideMessage(id int) bool {
	for i := range s.Messages {
		if s.Messages[i].ID != id {
			continue
		}
		if s.Messages[i].Hidden {
			return false
		}
		s.Messages[i].Hidden = true
		return true
	}
	return false
}

// VisibleMessagesAfter returns the visible messages with an id greater than id.
func (s *Session) VisibleMessagesAfter(id int) []Message {
	var out []Message
	for _, msg := range s.Messages {
		if msg.ID > id && !msg.Hidden {
			out = append(out, msg)
		}
	}
	return out
}
