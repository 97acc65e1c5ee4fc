package persistence

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suderio/turnflow/internal/engine"
)

func TestStoreAppendLoad(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(filepath.Join(dir, "match.jsonl"))
	require.NoError(t, err)
	defer store.Close()

	info := MatchInfo{ID: "m1", Game: "tictactoe", NumPlayers: 2, Seed: "abc"}
	require.NoError(t, store.WriteHeader(info))
	require.NoError(t, store.Append(engine.MakeMove("mark", []any{int64(4)}, "0", "")))
	require.NoError(t, store.Append(engine.GameEvent(engine.EventEndTurn, nil, "0", "")))
	require.NoError(t, store.Append(engine.Undo("1", "")))

	got, actions, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, info, *got)

	require.Len(t, actions, 3)
	assert.Equal(t, engine.ActionMakeMove, actions[0].Type)
	assert.Equal(t, "mark", actions[0].Payload.Type)
	// Numbers come back as JSON numbers.
	assert.Equal(t, []any{float64(4)}, actions[0].Payload.Args)
	assert.Equal(t, string(engine.EventEndTurn), actions[1].Payload.Type)
	assert.Equal(t, "1", actions[2].Payload.PlayerID)
}

func TestStoreLoadRejectsHeaderlessJournal(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "match.jsonl"))
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Append(engine.Redo("0", "")))
	_, _, err = store.Load()
	assert.ErrorIs(t, err, ErrNoHeader)
}

func TestStoreLoadRejectsUnknownRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "match.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(`{"kind":"chat","data":{}}`+"\n"), 0644))

	store, err := NewStore(path)
	require.NoError(t, err)
	defer store.Close()

	_, _, err = store.Load()
	assert.ErrorContains(t, err, "unknown record kind")
}

func TestEmptyStoreLoads(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "match.jsonl"))
	require.NoError(t, err)
	defer store.Close()

	info, actions, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, info)
	assert.Empty(t, actions)
}

func TestJournals(t *testing.T) {
	j := NewJournals(t.TempDir())

	ids, err := j.List("tictactoe")
	require.NoError(t, err)
	assert.Empty(t, ids)

	for _, id := range []string{"b", "a"} {
		store, err := j.Create("tictactoe", id)
		require.NoError(t, err)
		require.NoError(t, store.Close())
	}

	_, err = j.Create("tictactoe", "a")
	assert.Error(t, err, "journals are never overwritten")

	ids, err = j.List("tictactoe")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)

	store, err := j.Open("tictactoe", "a")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = j.Open("tictactoe", "zzz")
	assert.Error(t, err)
}
