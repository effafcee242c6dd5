package handlers

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/jwebster45206/simulation-suite/pkg/chat"
	"github.com/jwebster45206/simulation-suite/pkg/state"
	"github.com/yuin/goldmark"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
)

// unsafeHrefRe matches href/src attributes with dangerous URL schemes in goldmark output.
var unsafeHrefRe = regexp.MustCompile(`(?i)(href|src)="(?:javascript|vbscript|data):[^"]*"`)

var transcriptMarkdown = goldmark.New(
	goldmark.WithRendererOptions(goldmarkhtml.WithHardWraps()),
)

var transcriptPage = template.Must(template.New("transcript").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Simulation transcript {{.ID}}</title></head>
<body>
<h1>Simulation transcript</h1>
{{.Body}}
</body>
</html>
`))

// TranscriptMarkdown renders the visible session log as markdown.
func TranscriptMarkdown(s *state.Session) string {
	var sb strings.Builder
	for _, msg := range s.VisibleMessagesAfter(0) {
		switch msg.Role {
		case state.MessageRolePlayer:
			playerName := "You"
			if p := s.PlayerCharacter(); p != nil {
				playerName = p.Name
			}
			sb.WriteString(chat.FormatWithSpeaker(msg.Text, playerName) + "\n\n")
		case state.MessageRoleStatus:
			fmt.Fprintf(&sb, "*%s*\n\n", msg.Text)
		default:
			sb.WriteString(msg.Text + "\n\n")
		}
	}
	return sb.String()
}

// RenderTranscript converts the session log to an HTML page.
func RenderTranscript(s *state.Session) ([]byte, error) {
	var body bytes.Buffer
	if err := transcriptMarkdown.Convert([]byte(TranscriptMarkdown(s)), &body); err != nil {
		return nil, fmt.Errorf("failed to render markdown: %w", err)
	}
	safe := unsafeHrefRe.ReplaceAllString(body.String(), `$1="#"`)

	var page bytes.Buffer
	if err := transcriptPage.Execute(&page, map[string]any{
		"ID":   s.ID.String(),
		"Body": template.HTML(safe),
	}); err != nil {
		return nil, fmt.Errorf("failed to render transcript page: %w", err)
	}
	return page.Bytes(), nil
}

func (h *SessionHandler) handleTranscript(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	s, ok := h.load(w, r, id)
	if !ok {
		return
	}

	page, err := RenderTranscript(s)
	if err != nil {
		h.logger.Error("Failed to render transcript", "error", err, "session_id", id.String())
		h.writeError(w, http.StatusInternalServerError, "Failed to render transcript")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(page); err != nil {
		h.logger.Error("Failed to write transcript", "error", err)
	}
}
