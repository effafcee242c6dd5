package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jwebster45206/simulation-suite/pkg/chat"
	"github.com/jwebster45206/simulation-suite/pkg/state"
)

func testConnection(client *http.Client, baseURL string) bool {
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	return resp.StatusCode == http.StatusOK
}

// doJSON sends body (when non-nil) and decodes the response into out when the
// status matches want.
func doJSON(client *http.Client, method, url string, body any, want int, out any) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != want {
		var errorResp ErrorResponse
		if err := json.Unmarshal(respBody, &errorResp); err != nil || errorResp.Error == "" {
			return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(respBody))
		}
		return fmt.Errorf("API error: %s", errorResp.Error)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// CreateSessionRequest matches the API request structure
type CreateSessionRequest struct {
	PlayerName string `json:"player_name,omitempty"`
}

func createSession(client *http.Client, baseURL string, playerName string) (*state.Session, error) {
	var s state.Session
	if err := doJSON(client, http.MethodPost, baseURL+"/v1/sessions", CreateSessionRequest{PlayerName: playerName}, http.StatusCreated, &s); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return &s, nil
}

func getSession(client *http.Client, baseURL string, sessionID uuid.UUID) (*state.Session, error) {
	var s state.Session
	if err := doJSON(client, http.MethodGet, fmt.Sprintf("%s/v1/sessions/%s", baseURL, sessionID), nil, http.StatusOK, &s); err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &s, nil
}

// sendRoundAsync queues a round and returns the request ID
func sendRoundAsync(client *http.Client, baseURL string, sessionID uuid.UUID, message string) (string, error) {
	req := chat.RoundRequest{
		SessionID: sessionID,
		Message:   message,
		Async:     true,
	}
	var resp chat.RoundResponse
	url := fmt.Sprintf("%s/v1/sessions/%s/rounds", baseURL, sessionID)
	if err := doJSON(client, http.MethodPost, url, req, http.StatusAccepted, &resp); err != nil {
		return "", fmt.Errorf("failed to send round: %w", err)
	}
	return resp.RequestID, nil
}

// setStopped calls the stop or resume endpoint
func setStopped(client *http.Client, baseURL string, sessionID uuid.UUID, stopped bool) (*state.Session, error) {
	action := "resume"
	if stopped {
		action = "stop"
	}
	var s state.Session
	url := fmt.Sprintf("%s/v1/sessions/%s/%s", baseURL, sessionID, action)
	if err := doJSON(client, http.MethodPost, url, nil, http.StatusOK, &s); err != nil {
		return nil, fmt.Errorf("failed to %s simulation: %w", action, err)
	}
	return &s, nil
}

// SSEEvent represents an event from the SSE stream
type SSEEvent struct {
	Type      string         `json:"type"`
	RequestID string         `json:"request_id,omitempty"`
	Data      map[string]any `json:"data"`
}

// listenToSSE connects to the SSE endpoint and streams events to a channel
func listenToSSE(ctx context.Context, client *http.Client, baseURL string, sessionID uuid.UUID, eventChan chan<- SSEEvent) error {
	url := fmt.Sprintf("%s/v1/events/sessions/%s", baseURL, sessionID.String())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to SSE: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("SSE connection failed with status %d: %s", resp.StatusCode, string(body))
	}

	return readSSE(ctx, resp.Body, eventChan)
}

// readSSE parses an event stream. Data lines carry the full event envelope
// except for the "connected" greeting, which carries plain data.
func readSSE(ctx context.Context, r io.Reader, eventChan chan<- SSEEvent) error {
	scanner := bufio.NewScanner(r)
	var current SSEEvent

	for scanner.Scan() {
		line := scanner.Text()

		if line == "" {
			// Empty line signals end of event
			if current.Type != "" {
				select {
				case eventChan <- current:
				case <-ctx.Done():
					return ctx.Err()
				}
				current = SSEEvent{}
			}
			continue
		}

		switch {
		case strings.HasPrefix(line, "event: "):
			current.Type = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			payload := []byte(strings.TrimPrefix(line, "data: "))
			var envelope SSEEvent
			if err := json.Unmarshal(payload, &envelope); err == nil && envelope.Type != "" {
				current.RequestID = envelope.RequestID
				current.Data = envelope.Data
				continue
			}
			var data map[string]any
			if err := json.Unmarshal(payload, &data); err == nil {
				current.Data = data
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading SSE stream: %w", err)
	}
	return nil
}
