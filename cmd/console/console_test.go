package main

import (
	"context"
	"strings"
	"testing"

	"github.com/jwebster45206/simulation-suite/pkg/chat"
	"github.com/jwebster45206/simulation-suite/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadSSE(t *testing.T) {
	stream := strings.Join([]string{
		`event: connected`,
		`data: {"session_id":"abc","message":"Connected to event stream"}`,
		``,
		`: keepalive`,
		``,
		`event: round.completed`,
		`data: {"type":"round.completed","request_id":"req-1","data":{"status":"completed"}}`,
		``,
	}, "\n")

	events := make(chan SSEEvent, 4)
	require.NoError(t, readSSE(context.Background(), strings.NewReader(stream), events))
	close(events)

	var got []SSEEvent
	for ev := range events {
		got = append(got, ev)
	}
	require.Len(t, got, 2)
	assert.Equal(t, "connected", got[0].Type)
	assert.Equal(t, "abc", got[0].Data["session_id"])
	assert.Equal(t, "round.completed", got[1].Type)
	assert.Equal(t, "req-1", got[1].RequestID)
	assert.Equal(t, "completed", got[1].Data["status"])
}

func TestSessionTranscript(t *testing.T) {
	s := state.NewSession(&state.Character{Name: "Ada"})
	s.AppendMessage(state.MessageRolePlayer, "hello")
	s.AppendMessage(state.MessageRoleNarrator, "The suite hums.")
	s.AppendMessage(state.MessageRoleStatus, "Simulation reset.")
	hidden := s.AppendMessage(state.MessageRolePlayer, "Computer, end program")
	s.HideMessage(hidden.ID)

	assert.Equal(t, []chat.ChatMessage{
		{Role: chat.ChatRoleUser, Content: "hello"},
		{Role: chat.ChatRoleAgent, Content: "The suite hums."},
		{Role: chat.ChatRoleSystem, Content: "Simulation reset."},
	}, sessionTranscript(s))
}

func TestConsoleUI_OwnsRound(t *testing.T) {
	m := &ConsoleUI{loading: true}
	assert.True(t, m.ownsRound("req-1"), "event before acknowledgement")

	m.pending = "req-1"
	assert.True(t, m.ownsRound("req-1"))
	assert.False(t, m.ownsRound("req-2"))

	m.loading = false
	assert.False(t, m.ownsRound("req-1"))
}

func TestFormatNarratorResponse(t *testing.T) {
	out := formatNarratorResponse("The lights dim.", 80)
	assert.Contains(t, out, AgentName+":")
	assert.Contains(t, out, "The lights dim.")

	out = formatNarratorResponse("Mira: Welcome aboard.", 80)
	assert.NotContains(t, out, AgentName+":")
	assert.Contains(t, out, "Welcome aboard.")
}
