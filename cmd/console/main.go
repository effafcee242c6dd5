package main

import (
	"bufio"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/jwebster45206/simulation-suite/pkg/state"
)

type ConsoleConfig struct {
	APIBaseURL string        `env:"API_BASE_URL" envDefault:"http://localhost:8080"`
	SessionID  string        `env:"SESSION_ID"` // resume an existing session instead of creating one
	PlayerName string        `env:"PLAYER_NAME"`
	Timeout    time.Duration `env:"CONSOLE_TIMEOUT" envDefault:"30s"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func main() {
	var cfg ConsoleConfig
	if err := env.Parse(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid console configuration: %v\n", err)
		os.Exit(1)
	}

	client := &http.Client{
		Timeout: cfg.Timeout,
	}

	if !testConnection(client, cfg.APIBaseURL) {
		fmt.Fprintf(os.Stderr, "Could not connect to API. Please ensure the API is running.\nTry: docker-compose up -d\n")
		os.Exit(1)
	}

	s, err := openSession(client, &cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	ui := NewConsoleUI(&cfg, client, s)
	p := tea.NewProgram(ui,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
	ui.Close()
}

// openSession resumes SESSION_ID or creates a new session for the player.
func openSession(client *http.Client, cfg *ConsoleConfig) (*state.Session, error) {
	if cfg.SessionID != "" {
		id, err := uuid.Parse(cfg.SessionID)
		if err != nil {
			return nil, fmt.Errorf("invalid SESSION_ID: %w", err)
		}
		return getSession(client, cfg.APIBaseURL, id)
	}

	name := cfg.PlayerName
	if name == "" {
		fmt.Print("Your name (blank for Player): ")
		line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		name = strings.TrimSpace(line)
	}
	return createSession(client, cfg.APIBaseURL, name)
}
