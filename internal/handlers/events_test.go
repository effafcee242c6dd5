package handlers

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jwebster45206/simulation-suite/internal/services/events"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestEventsHandler_InvalidRequests(t *testing.T) {
	handler := NewEventsHandler(newTestRedis(t), testLogger())

	tests := []struct {
		name     string
		method   string
		path     string
		expected int
	}{
		{"wrong method", http.MethodPost, "/v1/events/sessions/" + uuid.NewString(), http.StatusMethodNotAllowed},
		{"wrong path", http.MethodGet, "/v1/events/games/" + uuid.NewString(), http.StatusBadRequest},
		{"bad id", http.MethodGet, "/v1/events/sessions/nope", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.expected, rr.Code)
		})
	}
}

func TestEventsHandler_StreamsSessionEvents(t *testing.T) {
	rdb := newTestRedis(t)
	srv := httptest.NewServer(NewEventsHandler(rdb, testLogger()))
	defer srv.Close()

	sessionID := uuid.New()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/v1/events/sessions/"+sessionID.String(), nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	readEvent := func() (string, string) {
		var name, data string
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			line = strings.TrimRight(line, "\n")
			switch {
			case strings.HasPrefix(line, "event: "):
				name = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				data = strings.TrimPrefix(line, "data: ")
			case line == "" && name != "":
				return name, data
			}
		}
	}

	name, data := readEvent()
	assert.Equal(t, "connected", name)
	assert.Contains(t, data, sessionID.String())

	// The handler subscribes before sending "connected".
	b := events.NewBroadcaster(rdb, testLogger())
	require.NoError(t, b.PublishNarration(ctx, sessionID, "The lights dim."))

	name, data = readEvent()
	assert.Equal(t, string(events.EventTypeNarration), name)
	assert.Contains(t, data, "The lights dim.")
}
