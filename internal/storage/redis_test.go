package storage

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jwebster45206/simulation-suite/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStorage(t *testing.T) (*RedisStorage, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s, err := NewRedisStorage("redis://"+mr.Addr(), time.Hour, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s, mr
}

func TestRedisStorage_SaveAndLoadSession(t *testing.T) {
	store, mr := setupTestStorage(t)
	ctx := context.Background()

	session := state.NewSession(&state.Character{Name: "Player"})
	session.CaptureSnapshot()
	session.SetFlag(state.FlagSimulationStarted, "yes")
	session.AppendMessage(state.MessageRolePlayer, "Computer, add rain")
	session.AddCharacter(&state.Character{Name: "Bess", Description: "A pirate."})

	require.NoError(t, store.SaveSession(ctx, session))
	assert.False(t, session.UpdatedAt.IsZero())
	assert.Equal(t, time.Hour, mr.TTL(sessionKey(session.ID)))

	loaded, err := store.LoadSession(ctx, session.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, session.ID, loaded.ID)
	assert.True(t, loaded.HasFlag(state.FlagSimulationStarted))
	assert.Equal(t, []string{"Bess"}, loaded.NonPlayerCharacterNames())
	require.NotNil(t, loaded.LatestPlayerMessage())
	assert.Equal(t, "Computer, add rain", loaded.LatestPlayerMessage().Text)
	require.NotNil(t, loaded.Snapshot)
	assert.Len(t, loaded.Snapshot.Characters, 1)
}

func TestRedisStorage_LoadMissingSession(t *testing.T) {
	store, _ := setupTestStorage(t)

	loaded, err := store.LoadSession(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestRedisStorage_LoadCorruptSession(t *testing.T) {
	store, mr := setupTestStorage(t)
	id := uuid.New()
	require.NoError(t, mr.Set(sessionKey(id), "{not json"))

	_, err := store.LoadSession(context.Background(), id)
	assert.Error(t, err)
}

func TestRedisStorage_DeleteAndList(t *testing.T) {
	store, mr := setupTestStorage(t)
	ctx := context.Background()

	first := state.NewSession(&state.Character{Name: "A"})
	second := state.NewSession(&state.Character{Name: "B"})
	require.NoError(t, store.SaveSession(ctx, first))
	require.NoError(t, store.SaveSession(ctx, second))
	require.NoError(t, mr.Set(sessionKeyPrefix+"not-a-uuid", "{}"))

	ids, err := store.ListSessions(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{first.ID, second.ID}, ids)

	require.NoError(t, store.DeleteSession(ctx, first.ID))
	loaded, err := store.LoadSession(ctx, first.ID)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestRedisStorage_SessionExpires(t *testing.T) {
	store, mr := setupTestStorage(t)
	ctx := context.Background()

	session := state.NewSession(&state.Character{Name: "Player"})
	require.NoError(t, store.SaveSession(ctx, session))

	mr.FastForward(2 * time.Hour)

	loaded, err := store.LoadSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestRedisStorage_Ping(t *testing.T) {
	store, mr := setupTestStorage(t)
	require.NoError(t, store.Ping(context.Background()))

	mr.Close()
	assert.Error(t, store.Ping(context.Background()))
}
