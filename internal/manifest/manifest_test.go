package manifest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suderio/turnflow/internal/engine"
)

func load(t *testing.T, path string) (*engine.Reducer, engine.State) {
	t.Helper()
	m, err := Load(path)
	require.NoError(t, err)
	return compile(t, m)
}

func compile(t *testing.T, m *Manifest) (*engine.Reducer, engine.State) {
	t.Helper()
	game, err := Compile(m, nil)
	require.NoError(t, err)
	pg, err := engine.Compile(game)
	require.NoError(t, err)
	s, err := engine.InitializeGame(pg, 2, nil)
	require.NoError(t, err)
	return engine.NewReducer(pg, false), s
}

func parse(t *testing.T, doc string) *Manifest {
	t.Helper()
	m, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	return m
}

func errType(s engine.State) engine.ErrorType {
	if s.Transients == nil || s.Transients.Error == nil {
		return ""
	}
	return s.Transients.Error.Type
}

func TestTicTacToe(t *testing.T) {
	r, s := load(t, "testdata/tictactoe.yaml")
	require.Len(t, s.G.(map[string]any)["cells"], 9)

	play := func(player string, cell int) {
		s = r.Reduce(s, engine.MakeMove("mark", []any{cell}, player, ""))
		require.Empty(t, errType(s), "player %s cell %d", player, cell)
	}
	play("0", 0)
	play("1", 3)
	play("0", 1)

	taken := r.Reduce(s, engine.MakeMove("mark", []any{3}, "1", ""))
	assert.Equal(t, engine.ErrorInvalidMove, errType(taken))

	outside := r.Reduce(s, engine.MakeMove("mark", []any{9}, "1", ""))
	assert.Equal(t, engine.ErrorInvalidMove, errType(outside))

	missing := r.Reduce(s, engine.MakeMove("mark", nil, "1", ""))
	assert.Equal(t, engine.ErrorInvalidMove, errType(missing))

	play("1", 4)
	assert.False(t, s.Ctx.IsGameOver())
	play("0", 2)

	require.True(t, s.Ctx.IsGameOver())
	assert.Equal(t, map[string]any{"winner": "0"}, s.Ctx.Gameover)
	cells := s.G.(map[string]any)["cells"].([]any)
	assert.Equal(t, []any{"0", "0", "0", "1", "1", nil, nil, nil, nil}, cells)
}

func TestAuctionPhasesAndStages(t *testing.T) {
	r, s := load(t, "testdata/auction.yaml")
	assert.Equal(t, "bidding", s.Ctx.Phase)
	assert.Equal(t, int64(1), s.G.(map[string]any)["round"], "phase on_begin ran")
	assert.Equal(t, map[string]string{"0": "bid", "1": "bid"}, s.Ctx.ActivePlayers)

	bad := r.Reduce(s, engine.MakeMove("bid", []any{0}, "1", ""))
	assert.Equal(t, engine.ErrorInvalidMove, errType(bad))

	s = r.Reduce(s, engine.MakeMove("bid", []any{3}, "1", ""))
	require.Empty(t, errType(s))
	assert.Equal(t, map[string]string{"0": "bid"}, s.Ctx.ActivePlayers)
	// The bid, then the stage its move limit ended.
	require.Len(t, s.Deltalog, 2)
	assert.True(t, s.Deltalog[0].Redact)
	assert.Equal(t, string(engine.EventEndStage), s.Deltalog[1].Action.Payload.Type)

	s = r.Reduce(s, engine.MakeMove("bid", []any{7}, "0", ""))
	require.Empty(t, errType(s))
	assert.Equal(t, "reveal", s.Ctx.Phase)
	assert.Equal(t, "1", s.Ctx.CurrentPlayer)

	// Players may not end the game directly.
	blocked := r.Reduce(s, engine.GameEvent(engine.EventEndGame, nil, "1", ""))
	assert.Equal(t, engine.ErrorActionDisabled, errType(blocked))

	s = r.Reduce(s, engine.MakeMove("claim", nil, "1", ""))
	require.Empty(t, errType(s))
	assert.Equal(t, map[string]any{"winner": "0", "bid": int64(7)}, s.Ctx.Gameover)
}

func TestDieUsesSeededRandom(t *testing.T) {
	doc := `
name: dice
seed: fixed
setup: '{"rolls": []}'
moves:
  roll:
    update:
      - key: rolls
        formula: "G.rolls + [die(6)]"
`
	r1, s1 := compile(t, parse(t, doc))
	r2, s2 := compile(t, parse(t, doc))
	for i := 0; i < 3; i++ {
		s1 = r1.Reduce(s1, engine.MakeMove("roll", nil, "0", ""))
		s2 = r2.Reduce(s2, engine.MakeMove("roll", nil, "0", ""))
	}
	require.Empty(t, errType(s1))

	rolls := s1.G.(map[string]any)["rolls"].([]any)
	require.Len(t, rolls, 3)
	for _, roll := range rolls {
		assert.GreaterOrEqual(t, roll.(int64), int64(1))
		assert.LessOrEqual(t, roll.(int64), int64(6))
	}
	assert.Equal(t, s1.G, s2.G)
}

func TestTurnEndIfAndHookEvents(t *testing.T) {
	doc := `
name: relay
setup: '{"n": 0}'
moves:
  step:
    update:
      - key: n
        formula: "G.n + 1"
turn:
  order: custom
  play_order: ["1", "0"]
  end_if: "G.n % 2 == 0 && G.n > 0"
  on_end:
    events:
      - event: endPhase
        if: "G.n >= 4"
`
	r, s := compile(t, parse(t, doc))
	assert.Equal(t, "1", s.Ctx.CurrentPlayer)

	s = r.Reduce(s, engine.MakeMove("step", nil, "1", ""))
	assert.Equal(t, "1", s.Ctx.CurrentPlayer)
	s = r.Reduce(s, engine.MakeMove("step", nil, "1", ""))
	assert.Equal(t, "0", s.Ctx.CurrentPlayer)
	assert.Equal(t, 2, s.Ctx.Turn)
}

func TestCompileRejectsBadManifests(t *testing.T) {
	cases := map[string]string{
		"formula":    "moves:\n  x:\n    update:\n      - key: n\n        formula: 'G.n +'\n",
		"event":      "moves:\n  x:\n    events:\n      - event: explode\n",
		"order":      "turn:\n  order: sideways\n",
		"next phase": "phases:\n  a:\n    next: b\n",
		"next stage": "turn:\n  stages:\n    a:\n      next: b\n",
		"preset":     "turn:\n  active_players:\n    preset: everyone\n",
		"disabled":   "disabled_events: [explode]\n",
		"custom":     "turn:\n  order: custom\n",
		"end_if":     "end_if:\n  - result: 'true'\n",
		"no formula": "moves:\n  x:\n    prereq:\n      - error: nope\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Compile(parse(t, doc), nil)
			assert.ErrorIs(t, err, ErrInvalidManifest)
		})
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse(strings.NewReader("name: x\nmovez: {}\n"))
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("testdata/nope.yaml")
	assert.Error(t, err)
}

func TestSetEntry(t *testing.T) {
	out, err := setEntry(map[string]any{"a": int64(1)}, "b", int64(2))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": int64(1), "b": int64(2)}, out)

	out, err = setEntry([]any{nil, nil}, int64(1), "x")
	require.NoError(t, err)
	assert.Equal(t, []any{nil, "x"}, out)

	_, err = setEntry([]any{nil}, int64(3), "x")
	assert.Error(t, err)

	_, err = setEntry("str", "k", 1)
	assert.Error(t, err)
}

func TestToCELNormalizesNumbers(t *testing.T) {
	in := map[string]any{"a": 1, "b": float64(2), "c": 2.5, "d": []any{3}}
	assert.Equal(t, map[string]any{"a": int64(1), "b": int64(2), "c": 2.5, "d": []any{int64(3)}}, toCEL(in))
}
