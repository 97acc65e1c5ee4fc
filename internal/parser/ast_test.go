package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suderio/turnflow/internal/parser"
)

func TestParseMove(t *testing.T) {
	cmd, err := parser.Parse(`move mark 4 by: 1`)
	require.NoError(t, err)
	require.NotNil(t, cmd.Move)

	assert.Equal(t, "mark", cmd.Move.Name)
	assert.Equal(t, []any{int64(4)}, parser.Values(cmd.Move.Args))
	assert.Equal(t, "1", parser.PlayerOf(cmd.Move.Actor))
}

func TestParseMoveValues(t *testing.T) {
	cmd, err := parser.Parse(`move play -2 1.5 "two words" sword TRUE false null`)
	require.NoError(t, err)
	require.NotNil(t, cmd.Move)

	assert.Equal(t, []any{int64(-2), 1.5, "two words", "sword", true, false, nil}, parser.Values(cmd.Move.Args))
	assert.Nil(t, cmd.Move.Actor)
}

func TestParseMoveWithoutArgs(t *testing.T) {
	cmd, err := parser.Parse("MOVE pass")
	require.NoError(t, err)
	require.NotNil(t, cmd.Move)
	assert.Nil(t, parser.Values(cmd.Move.Args))
}

func TestParseEvent(t *testing.T) {
	cmd, err := parser.Parse(`event endTurn "2" by: 0`)
	require.NoError(t, err)
	require.NotNil(t, cmd.Event)

	assert.Equal(t, "endTurn", cmd.Event.Name)
	assert.Equal(t, []any{"2"}, parser.Values(cmd.Event.Args))
	assert.Equal(t, "0", parser.PlayerOf(cmd.Event.Actor))
}

func TestParseUndoRedo(t *testing.T) {
	cmd, err := parser.Parse("undo by: 0")
	require.NoError(t, err)
	require.NotNil(t, cmd.Undo)
	assert.Equal(t, "0", parser.PlayerOf(cmd.Undo.Actor))

	cmd, err = parser.Parse("redo")
	require.NoError(t, err)
	require.NotNil(t, cmd.Redo)
	assert.Equal(t, "", parser.PlayerOf(cmd.Redo.Actor))
}

func TestParseStateAndLog(t *testing.T) {
	cmd, err := parser.Parse("state as: 1")
	require.NoError(t, err)
	require.NotNil(t, cmd.State)
	require.NotNil(t, cmd.State.Viewer)
	assert.Equal(t, "1", cmd.State.Viewer.Player)

	cmd, err = parser.Parse("state")
	require.NoError(t, err)
	assert.Nil(t, cmd.State.Viewer)

	cmd, err = parser.Parse("log")
	require.NoError(t, err)
	assert.NotNil(t, cmd.Log)

	cmd, err = parser.Parse("help")
	require.NoError(t, err)
	assert.NotNil(t, cmd.Help)
}

func TestParseErrorsMapToUsage(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"move", "The command move must be: move <name> [value ...] [by: player]"},
		{"event endTurn by:", "The command event must be: event <name> [value ...] [by: player]"},
		{"undo 3", "The command undo must be: undo [by: player]"},
		{"state by: 1", "The command state must be: state [as: player]"},
		{"jump", "I wasn't able to understand your command"},
		{"   ", "I wasn't able to understand your command"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := parser.Parse(tt.input)
			require.Error(t, err)
			assert.Equal(t, tt.want, err.Error())
		})
	}
}
