package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jwebster45206/simulation-suite/pkg/chat"
	"github.com/jwebster45206/simulation-suite/pkg/state"
	"github.com/muesli/reflow/wordwrap"
)

const (
	AgentName       = "Computer"
	PlaceHolderText = "Speak to the suite, or address the Computer..."
)

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config       *ConsoleConfig
	client       *http.Client
	session      *state.Session
	transcript   []chat.ChatMessage
	chatViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	err          error
	notice       string
	loading      bool
	pending      string // request id of the round in flight

	events chan SSEEvent
	cancel context.CancelFunc

	// Quit confirmation state
	showQuitModal bool

	// Progress bar state
	progressTick int
}

type roundQueuedMsg struct {
	requestID string
	err       error
}

type sseEventMsg struct {
	event SSEEvent
}

type sessionMsg struct {
	session *state.Session
	err     error
}

type noticeMsg struct {
	text string
	err  error
}

type progressTickMsg struct{}

var (
	chatPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	speakerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	narratorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

// NewConsoleUI builds the UI and starts listening for session events.
func NewConsoleUI(cfg *ConsoleConfig, client *http.Client, s *state.Session) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = chat.MaxMessageLength
	ta.SetWidth(50)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	chatVp := viewport.New(50, 20)
	chatVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan SSEEvent, 32)
	go func() {
		defer close(events)
		// The event stream is long-lived; it gets a client without a timeout.
		_ = listenToSSE(ctx, &http.Client{}, cfg.APIBaseURL, s.ID, events)
	}()

	return ConsoleUI{
		config:       cfg,
		client:       client,
		session:      s,
		transcript:   sessionTranscript(s),
		textarea:     ta,
		chatViewport: chatVp,
		metaViewport: metaVp,
		events:       events,
		cancel:       cancel,
		loading:      s.Round == 0,
	}
}

// Close stops the event listener.
func (m ConsoleUI) Close() {
	if m.cancel != nil {
		m.cancel()
	}
}

// sessionTranscript converts the visible session log to display messages.
func sessionTranscript(s *state.Session) []chat.ChatMessage {
	visible := s.VisibleMessagesAfter(0)
	out := make([]chat.ChatMessage, 0, len(visible))
	for _, msg := range visible {
		role := chat.ChatRoleSystem
		switch msg.Role {
		case state.MessageRolePlayer:
			role = chat.ChatRoleUser
		case state.MessageRoleNarrator:
			role = chat.ChatRoleAgent
		}
		out = append(out, chat.ChatMessage{Role: role, Content: msg.Text})
	}
	return out
}

func writeMetadata(s *state.Session, width int) string {
	if width < 10 {
		width = 10
	}
	var content strings.Builder
	content.WriteString(titleStyle.Render("SIMULATION") + "\n\n")

	content.WriteString("Session:\n")
	content.WriteString(s.ID.String()[:8] + "...\n\n")

	content.WriteString(fmt.Sprintf("Round: %d\n", s.Round))
	status := "not started"
	switch {
	case s.HasFlag(state.FlagSimulationStopped):
		status = "stopped"
	case s.HasFlag(state.FlagSimulationStarted):
		status = "running"
	}
	content.WriteString("Status: " + status + "\n\n")

	content.WriteString("Characters:\n")
	count := 0
	for _, c := range s.Characters {
		if !c.Active {
			continue
		}
		count++
		if c.IsPlayer {
			content.WriteString(fmt.Sprintf("• %s (you)\n", c.Name))
		} else {
			content.WriteString(fmt.Sprintf("• %s\n", c.Name))
		}
	}
	if count == 0 {
		content.WriteString("None\n")
	}

	if pinned := s.PinnedEntries(); len(pinned) > 0 {
		content.WriteString("\nPinned:\n")
		for _, e := range pinned {
			content.WriteString(wordwrap.String("• "+e.ID+": "+e.Text, width) + "\n")
		}
	}

	if s.WorldState != "" {
		content.WriteString("\nWorld state:\n")
		content.WriteString(wordwrap.String(s.WorldState, width) + "\n")
	}

	content.WriteString("\n")
	content.WriteString("Commands:\n")
	content.WriteString("• Enter: Send\n")
	content.WriteString("• Ctrl+Y: Copy reply\n")
	content.WriteString("• /stop /resume\n")
	content.WriteString("• /state /help /quit\n")

	return content.String()
}

// writeChatContent builds the chat content for the current viewport width
func (m *ConsoleUI) writeChatContent() {
	chatWidth := m.chatViewport.Width - 6 // Account for left(3) + right(3) padding
	if chatWidth < 20 {
		chatWidth = 20
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render("SIMULATION SUITE") + "\n\n")
	content.WriteString("Say \"Computer, ...\" to give the suite instructions.\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", chatWidth-6)) + "\n\n")

	for _, msg := range m.transcript {
		switch msg.Role {
		case chat.ChatRoleAgent:
			content.WriteString(formatNarratorResponse(msg.Content, chatWidth) + "\n\n")
		case chat.ChatRoleUser:
			content.WriteString(userStyle.Render("You: ") + wordwrap.String(msg.Content, chatWidth-6) + "\n\n")
		default:
			content.WriteString(statusStyle.Render(wordwrap.String(msg.Content, chatWidth)) + "\n\n")
		}
	}

	if m.notice != "" {
		content.WriteString(m.notice + "\n\n")
	}
	if m.err != nil {
		content.WriteString(errorStyle.Render("Error: "+m.err.Error()) + "\n\n")
	}

	if m.loading {
		content.WriteString(m.renderProgressBar())
	}

	m.chatViewport.SetContent(content.String())
	m.chatViewport.GotoBottom()
}

func (m ConsoleUI) Init() tea.Cmd {
	cmds := []tea.Cmd{textarea.Blink, waitForEvent(m.events)}
	if m.loading {
		// First round starts the simulation and prints the help text.
		cmds = append(cmds, m.sendRound(""), progressTick())
	}
	return tea.Batch(cmds...)
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.chatViewport, vpCmd = m.chatViewport.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		chatWidth := int(float64(m.width)*0.75) - 4
		metaWidth := m.width - chatWidth - 6

		m.chatViewport.Width = chatWidth - 2
		m.chatViewport.Height = m.height - 7
		m.metaViewport.Width = metaWidth - 2
		m.metaViewport.Height = m.height - 4
		m.textarea.SetWidth(chatWidth - 4)

		m.ready = true
		m.writeChatContent()
		m.metaViewport.SetContent(writeMetadata(m.session, m.metaViewport.Width))

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyCtrlY:
			return m, copyLastReply(m.transcript)
		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}

			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}

			if strings.HasPrefix(input, "/") {
				return m.handleCommand(input)
			}

			m.textarea.Reset()
			m.loading = true
			m.err = nil
			m.notice = ""
			m.progressTick = 0
			m.transcript = append(m.transcript, chat.ChatMessage{Role: chat.ChatRoleUser, Content: input})
			m.writeChatContent()

			return m, tea.Batch(m.sendRound(input), progressTick())
		}

	case roundQueuedMsg:
		if msg.err != nil {
			m.loading = false
			m.err = msg.err
		} else if m.loading {
			m.pending = msg.requestID
		}
		m.writeChatContent()

	case sseEventMsg:
		cmd := m.handleEvent(msg.event)
		m.writeChatContent()
		return m, tea.Batch(cmd, waitForEvent(m.events))

	case sessionMsg:
		if msg.err != nil {
			m.err = msg.err
		} else if msg.session != nil {
			m.session = msg.session
			if !m.loading {
				// The stored log is authoritative once no round is in flight.
				m.transcript = sessionTranscript(msg.session)
			}
			m.metaViewport.SetContent(writeMetadata(m.session, m.metaViewport.Width))
		}
		m.writeChatContent()

	case noticeMsg:
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.notice = statusStyle.Render(msg.text)
		}
		m.writeChatContent()
		return m, m.refreshSession()

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeChatContent()
			return m, progressTick()
		}
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.chatViewport, vpCmd = m.chatViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

// handleEvent applies one streamed event to the model.
func (m *ConsoleUI) handleEvent(ev SSEEvent) tea.Cmd {
	switch ev.Type {
	case "suite.narration":
		if text, ok := ev.Data["text"].(string); ok && text != "" {
			m.transcript = append(m.transcript, chat.ChatMessage{Role: chat.ChatRoleAgent, Content: text})
		}
	case "suite.status":
		visible, _ := ev.Data["visible"].(bool)
		if text, ok := ev.Data["text"].(string); ok && visible && text != "" {
			m.transcript = append(m.transcript, chat.ChatMessage{Role: chat.ChatRoleSystem, Content: text})
		}
	case "round.completed":
		if m.ownsRound(ev.RequestID) {
			m.loading = false
			m.pending = ""
		}
		return m.refreshSession()
	case "round.failed":
		if m.ownsRound(ev.RequestID) {
			m.loading = false
			m.pending = ""
			if errMsg, ok := ev.Data["error"].(string); ok {
				m.err = fmt.Errorf("round failed: %s", errMsg)
			}
		}
		return m.refreshSession()
	case "session.updated":
		return m.refreshSession()
	}
	return nil
}

// ownsRound reports whether a round event belongs to the round in flight.
// The event may arrive before the queue acknowledgement.
func (m *ConsoleUI) ownsRound(requestID string) bool {
	return m.loading && (m.pending == "" || m.pending == requestID)
}

func formatNarratorResponse(response string, width int) string {
	// Check if response already has a speaker prefix
	hasPrefix := false
	if idx := strings.Index(response, ":"); idx > 0 && idx <= 20 {
		speaker := response[:idx]
		if len(strings.Fields(speaker)) <= 2 {
			hasPrefix = true
		}
	}

	wrapWidth := width
	if !hasPrefix {
		wrapWidth = width - len(AgentName+": ")
	}

	wrappedResponse := wordwrap.String(response, wrapWidth)
	lines := strings.Split(wrappedResponse, "\n")
	formattedLines := make([]string, 0, len(lines))

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			formattedLines = append(formattedLines, "")
			continue
		}

		if idx := strings.Index(trimmed, ":"); idx > 0 && idx <= 20 {
			speaker := trimmed[:idx]
			rest := trimmed[idx+1:]
			if len(strings.Fields(speaker)) <= 2 {
				formattedLines = append(formattedLines, speakerStyle.Render(speaker+":")+rest)
				continue
			}
		}

		formattedLines = append(formattedLines, line)
	}

	result := strings.Join(formattedLines, "\n")
	if !hasPrefix {
		result = narratorStyle.Render(AgentName+": ") + result
	}
	return result
}

func (m ConsoleUI) handleCommand(input string) (tea.Model, tea.Cmd) {
	cmd := strings.ToLower(strings.TrimSpace(input))
	m.textarea.Reset()

	switch cmd {
	case "/help":
		m.notice = titleStyle.Render("Help:") + `
• Speak normally to act in the scene
• Start with "Computer," to instruct the suite
• /stop and /resume pause the simulation
• /state shows the world state
• Ctrl+Y copies the last reply
• /quit or Ctrl+C quits`
	case "/state":
		ws := m.session.WorldState
		if ws == "" {
			ws = "No world state yet."
		}
		m.notice = titleStyle.Render("World state:") + "\n" + ws
	case "/stop", "/resume":
		m.notice = ""
		return m, m.setStopped(cmd == "/stop")
	case "/quit":
		m.showQuitModal = true
		return m, nil
	default:
		m.notice = errorStyle.Render("Unknown command " + cmd + ", try /help")
	}

	m.writeChatContent()
	return m, nil
}

func (m ConsoleUI) sendRound(message string) tea.Cmd {
	return func() tea.Msg {
		id, err := sendRoundAsync(m.client, m.config.APIBaseURL, m.session.ID, message)
		return roundQueuedMsg{id, err}
	}
}

func (m ConsoleUI) refreshSession() tea.Cmd {
	return func() tea.Msg {
		s, err := getSession(m.client, m.config.APIBaseURL, m.session.ID)
		return sessionMsg{s, err}
	}
}

func (m ConsoleUI) setStopped(stopped bool) tea.Cmd {
	return func() tea.Msg {
		_, err := setStopped(m.client, m.config.APIBaseURL, m.session.ID, stopped)
		if stopped {
			return noticeMsg{"Simulation stopped.", err}
		}
		return noticeMsg{"Simulation resumed.", err}
	}
}

// waitForEvent delivers the next streamed event as a message. A closed
// stream stops delivery.
func waitForEvent(events <-chan SSEEvent) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return sseEventMsg{ev}
	}
}

// copyLastReply puts the most recent narrator reply on the clipboard.
func copyLastReply(transcript []chat.ChatMessage) tea.Cmd {
	return func() tea.Msg {
		for i := len(transcript) - 1; i >= 0; i-- {
			if transcript[i].Role != chat.ChatRoleAgent {
				continue
			}
			if err := clipboard.WriteAll(transcript[i].Content); err != nil {
				return noticeMsg{err: fmt.Errorf("failed to copy: %w", err)}
			}
			return noticeMsg{text: "Copied the last reply to the clipboard."}
		}
		return noticeMsg{text: "Nothing to copy yet."}
	}
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				m.textarea.Focus()
				return m, textarea.Blink
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("End Simulation?"))
	content.WriteString("\n\n")
	content.WriteString("Are you sure you want to leave the suite?")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	chatWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - chatWidth - 6

	chatPanel := chatPanelStyle.Width(chatWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.chatViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", max(chatWidth-4, 0))),
			m.textarea.View(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, chatPanel, metaPanel)
}

// renderProgressBar creates an animated progress bar for loading states
func (m ConsoleUI) renderProgressBar() string {
	usable := m.chatViewport.Width - 6
	if usable <= 0 {
		usable = 30 // fallback before sizing
	}

	if usable > 80 {
		usable = 80
	} else if usable < 10 {
		usable = 10
	}

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		if i < filled {
			bar.WriteString("█")
		} else if i == filled && frame%4 < 2 {
			bar.WriteString("▓") // Blinking effect at the progress point
		} else {
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}

// progressTick creates a command that sends a progress tick message
func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}
