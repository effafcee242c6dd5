package services

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/jwebster45206/simulation-suite/pkg/chat"
)

type fakeOllama struct {
	mu     sync.Mutex
	models []string
	pulled []string
	chats  []string
}

func (f *fakeOllama) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.URL.Path {
	case "/api/tags":
		var resp struct {
			Models []map[string]string `json:"models"`
		}
		for _, m := range f.models {
			resp.Models = append(resp.Models, map[string]string{"name": m})
		}
		_ = json.NewEncoder(w).Encode(resp)
	case "/api/pull":
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.pulled = append(f.pulled, req["name"])
		f.models = append(f.models, req["name"])
	case "/api/chat":
		var req struct {
			Model string `json:"model"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.chats = append(f.chats, req.Model)
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"reply from ` + req.Model + `"}}`))
	default:
		http.NotFound(w, r)
	}
}

func newTestOllama(t *testing.T, fake http.Handler) *OllamaService {
	t.Helper()
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := NewOllamaService(server.URL+"/", "main-model", "backend-model", log)
	s.readyRetries = 2
	s.readyRetryDelay = time.Millisecond
	return s
}

func TestOllamaService_InitModelPullsMissingModels(t *testing.T) {
	fake := &fakeOllama{models: []string{"main-model"}}
	service := newTestOllama(t, fake)

	if err := service.InitModel(context.Background(), "main-model"); err != nil {
		t.Fatalf("InitModel() error = %v", err)
	}

	if len(fake.pulled) != 1 || fake.pulled[0] != "backend-model" {
		t.Errorf("Expected only backend-model to be pulled, got %v", fake.pulled)
	}
}

func TestOllamaService_ChatAndBackendChat(t *testing.T) {
	fake := &fakeOllama{}
	service := newTestOllama(t, fake)
	messages := []chat.ChatMessage{{Role: chat.ChatRoleUser, Content: "hello"}}

	resp, err := service.Chat(context.Background(), messages)
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if resp.Message != "reply from main-model" {
		t.Errorf("Unexpected reply %q", resp.Message)
	}

	resp, err = service.BackendChat(context.Background(), messages)
	if err != nil {
		t.Fatalf("BackendChat() error = %v", err)
	}
	if resp.Message != "reply from backend-model" {
		t.Errorf("Unexpected reply %q", resp.Message)
	}
}

func TestOllamaService_NotReady(t *testing.T) {
	service := newTestOllama(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	if err := service.InitModel(context.Background(), "main-model"); err == nil {
		t.Error("Expected error when ollama never becomes ready")
	}
}

func TestNewOllamaService_BackendDefaultsToMain(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := NewOllamaService("http://localhost:11434", "main-model", "", log)
	if s.backendModelName != "main-model" {
		t.Errorf("Expected backend model main-model, got %s", s.backendModelName)
	}
}
