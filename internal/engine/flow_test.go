package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhaseTransition(t *testing.T) {
	game := counterGame()
	game.Phases = map[string]Phase{
		"draw": {
			Start: true,
			Next:  "play",
			Moves: map[string]Move{"draw": {Move: inc}},
			EndIf: func(c *Context) *PhaseArg {
				if counter(c)["n"].(int) >= 1 {
					return &PhaseArg{}
				}
				return nil
			},
		},
		"play": {Moves: map[string]Move{"score": {Move: inc}}},
	}
	r, s := start(t, game, 2)
	assert.Equal(t, "draw", s.Ctx.Phase)

	// Global moves are shadowed by phase moves.
	next := r.Reduce(s, MakeMove("inc", nil, "0", ""))
	assert.Equal(t, ErrorUnavailableMove, errType(next))

	s = r.Reduce(s, MakeMove("draw", nil, "0", ""))
	require.Empty(t, errType(s))
	assert.Equal(t, "play", s.Ctx.Phase)
	assert.Equal(t, 2, s.Ctx.Turn)
	assert.Equal(t, "1", s.Ctx.CurrentPlayer)

	require.Len(t, s.Deltalog, 3)
	assert.Equal(t, ActionMakeMove, s.Deltalog[0].Action.Type)
	assert.Equal(t, string(EventEndTurn), s.Deltalog[1].Action.Payload.Type)
	assert.Equal(t, string(EventEndPhase), s.Deltalog[2].Action.Payload.Type)
	assert.True(t, s.Deltalog[2].Automatic)
	assert.Equal(t, "draw", s.Deltalog[2].Phase)

	next = r.Reduce(s, MakeMove("draw", nil, "1", ""))
	assert.Equal(t, ErrorUnavailableMove, errType(next))
}

func TestSetPhaseEvent(t *testing.T) {
	game := counterGame()
	game.Phases = map[string]Phase{
		"a": {Start: true},
		"b": {},
	}
	r, s := start(t, game, 2)
	assert.Equal(t, []string{"a", "b"}, r.Game().Flow.PhaseNames())

	s = r.Reduce(s, GameEvent(EventSetPhase, []any{"b"}, "0", ""))
	require.Empty(t, errType(s))
	assert.Equal(t, "b", s.Ctx.Phase)
	assert.Equal(t, 2, s.Ctx.Turn)
	assert.Equal(t, "1", s.Ctx.CurrentPlayer)
}

func TestPhaseEndLoopIsBroken(t *testing.T) {
	always := func(*Context) *PhaseArg { return &PhaseArg{} }
	game := counterGame()
	game.Phases = map[string]Phase{
		"a": {Start: true, Next: "b", EndIf: always},
		"b": {Next: "a", EndIf: always},
	}
	_, s := start(t, game, 2)
	assert.Equal(t, "", s.Ctx.Phase)
}

func TestMoveLimits(t *testing.T) {
	game := counterGame()
	game.Turn = &Turn{MinMoves: 1, MaxMoves: 2}
	r, s := start(t, game, 2)

	// Too early: the event is accepted but the turn does not end.
	s = r.Reduce(s, GameEvent(EventEndTurn, nil, "0", ""))
	require.Empty(t, errType(s))
	assert.Equal(t, 1, s.Ctx.Turn)

	s = r.Reduce(s, MakeMove("inc", nil, "0", ""))
	assert.Equal(t, 1, s.Ctx.Turn)
	s = r.Reduce(s, MakeMove("inc", nil, "0", ""))
	assert.Equal(t, 2, s.Ctx.Turn)
	assert.Equal(t, "1", s.Ctx.CurrentPlayer)
}

func TestNoLimitMoveIsNotCounted(t *testing.T) {
	game := counterGame()
	game.Turn = &Turn{MaxMoves: 1}
	game.Moves["peek"] = Move{Move: func(*Context, ...any) (any, error) { return nil, nil }, NoLimit: true}
	r, s := start(t, game, 2)

	s = r.Reduce(s, MakeMove("peek", nil, "0", ""))
	assert.Equal(t, 0, s.Ctx.NumMoves)
	assert.Equal(t, 1, s.Ctx.Turn)
}

func TestPassRemovesPlayer(t *testing.T) {
	r, s := start(t, counterGame(), 3)

	s = r.Reduce(s, GameEvent(EventPass, []any{TurnArg{Remove: true}}, "0", ""))
	require.Empty(t, errType(s))
	assert.Equal(t, []string{"1", "2"}, s.Ctx.PlayOrder)
	assert.Equal(t, "1", s.Ctx.CurrentPlayer)
	assert.Equal(t, 2, s.Ctx.Turn)
}

func TestEndTurnNext(t *testing.T) {
	r, s := start(t, counterGame(), 3)

	s = r.Reduce(s, GameEvent(EventEndTurn, []any{map[string]any{"next": "2"}}, "0", ""))
	assert.Equal(t, "2", s.Ctx.CurrentPlayer)
	assert.Equal(t, 2, s.Ctx.PlayOrderPos)
}

func TestOrderOnceEndsPhase(t *testing.T) {
	game := counterGame()
	game.Phases = map[string]Phase{
		"setup": {Start: true, Next: "main", Turn: &Turn{Order: OrderOnce}},
		"main":  {},
	}
	r, s := start(t, game, 2)
	assert.Equal(t, "setup", s.Ctx.Phase)

	s = r.Reduce(s, GameEvent(EventEndTurn, nil, "0", ""))
	assert.Equal(t, "setup", s.Ctx.Phase)
	assert.Equal(t, "1", s.Ctx.CurrentPlayer)

	s = r.Reduce(s, GameEvent(EventEndTurn, nil, "1", ""))
	assert.Equal(t, "main", s.Ctx.Phase)
}

func biddingGame() *Game {
	bid := func(c *Context, args ...any) (any, error) {
		counter(c)["bid"+c.PlayerID] = args[0]
		return nil, nil
	}
	return &Game{
		Setup: func(*Context, any) any { return map[string]any{} },
		Turn: &Turn{
			ActivePlayers: &ActivePlayersArg{All: InStage("bid"), MaxMoves: 1},
			EndIf: func(c *Context) *TurnArg {
				if c.Ctx.ActivePlayers == nil {
					return &TurnArg{}
				}
				return nil
			},
			Stages: map[string]Stage{
				"bid": {Moves: map[string]Move{"bid": {Move: bid}}},
			},
		},
	}
}

func TestStagesAndActivePlayers(t *testing.T) {
	r, s := start(t, biddingGame(), 2)
	assert.Equal(t, map[string]string{"0": "bid", "1": "bid"}, s.Ctx.ActivePlayers)

	// Player 1 may act outside of its turn while in a stage.
	s = r.Reduce(s, MakeMove("bid", []any{5}, "1", ""))
	require.Empty(t, errType(s))
	assert.Equal(t, map[string]string{"0": "bid"}, s.Ctx.ActivePlayers)
	assert.Equal(t, 0, s.Ctx.NumMoves)

	// Reaching its move limit took player 1 out of the stage, and the move
	// only exists inside it.
	next := r.Reduce(s, MakeMove("bid", []any{6}, "1", ""))
	assert.Equal(t, ErrorUnavailableMove, errType(next))

	s = r.Reduce(s, MakeMove("bid", []any{7}, "0", ""))
	require.Empty(t, errType(s))
	assert.Equal(t, 2, s.Ctx.Turn)
	assert.Equal(t, "1", s.Ctx.CurrentPlayer)
	assert.Equal(t, map[string]string{"0": "bid", "1": "bid"}, s.Ctx.ActivePlayers)
	assert.Equal(t, map[string]any{"bid1": 5, "bid0": 7}, s.G)
}

func TestSetStageEvent(t *testing.T) {
	game := counterGame()
	game.Turn = &Turn{Stages: map[string]Stage{"discard": {Next: "draw"}, "draw": {}}}
	r, s := start(t, game, 2)

	s = r.Reduce(s, GameEvent(EventSetStage, []any{"discard"}, "0", ""))
	assert.Equal(t, map[string]string{"0": "discard"}, s.Ctx.ActivePlayers)

	// Ending a stage moves the player to its next stage.
	s = r.Reduce(s, GameEvent(EventEndStage, nil, "0", ""))
	assert.Equal(t, map[string]string{"0": "draw"}, s.Ctx.ActivePlayers)
}

func TestEventsFromMove(t *testing.T) {
	game := counterGame()
	game.Moves["finish"] = Move{Move: func(c *Context, _ ...any) (any, error) {
		c.Events.EndTurn()
		return nil, nil
	}}
	r, s := start(t, game, 2)

	s = r.Reduce(s, MakeMove("finish", nil, "0", ""))
	require.Empty(t, errType(s))
	assert.Equal(t, 2, s.Ctx.Turn)
	assert.Equal(t, "1", s.Ctx.CurrentPlayer)
	require.Len(t, s.Deltalog, 2)
	assert.Equal(t, string(EventEndTurn), s.Deltalog[1].Action.Payload.Type)
}

func TestEndTurnFromMoveAfterMinMoves(t *testing.T) {
	game := counterGame()
	game.Turn = &Turn{MinMoves: 1}
	game.Moves["finish"] = Move{Move: func(c *Context, _ ...any) (any, error) {
		c.Events.EndTurn()
		return nil, nil
	}}
	r, s := start(t, game, 2)

	s = r.Reduce(s, MakeMove("finish", nil, "0", ""))
	require.Empty(t, errType(s))
	assert.Equal(t, 2, s.Ctx.Turn)
	assert.Equal(t, "1", s.Ctx.CurrentPlayer)
	assert.Equal(t, 0, s.Ctx.NumMoves)

	var endTurns []LogEntry
	for _, e := range s.Deltalog {
		if e.Action.Type == ActionGameEvent && e.Action.Payload.Type == string(EventEndTurn) {
			endTurns = append(endTurns, e)
		}
	}
	require.Len(t, endTurns, 1)
	assert.Equal(t, 1, endTurns[0].Turn)
}

func TestAllOnceEmptiesActivePlayers(t *testing.T) {
	game := counterGame()
	game.Turn = &Turn{ActivePlayers: &ActivePlayersAllOnce}
	r, s := start(t, game, 3)
	assert.Equal(t, map[string]string{"0": StageNull, "1": StageNull, "2": StageNull}, s.Ctx.ActivePlayers)

	s = r.Reduce(s, MakeMove("inc", nil, "1", ""))
	require.Empty(t, errType(s))
	assert.Equal(t, map[string]string{"0": StageNull, "2": StageNull}, s.Ctx.ActivePlayers)

	next := r.Reduce(s, MakeMove("inc", nil, "1", ""))
	assert.Equal(t, ErrorInactivePlayer, errType(next))

	s = r.Reduce(s, MakeMove("inc", nil, "0", ""))
	s = r.Reduce(s, MakeMove("inc", nil, "2", ""))
	require.Empty(t, errType(s))
	assert.Nil(t, s.Ctx.ActivePlayers)
	assert.Equal(t, 3, counter(&Context{G: s.G})["n"])
	assert.Equal(t, 1, s.Ctx.Turn)
}

func TestEventsFromTurnBegin(t *testing.T) {
	game := counterGame()
	game.Turn = &Turn{
		OnBegin: func(c *Context) any {
			c.Events.SetActivePlayers(ActivePlayersOthers)
			return nil
		},
	}
	_, s := start(t, game, 3)
	assert.Equal(t, map[string]string{"1": StageNull, "2": StageNull}, s.Ctx.ActivePlayers)
}

func TestEndTurnInOnEndIsRejected(t *testing.T) {
	game := counterGame()
	game.Turn = &Turn{
		OnEnd: func(c *Context) any {
			c.Events.EndTurn()
			return nil
		},
	}
	r, s := start(t, game, 2)

	next := r.Reduce(s, GameEvent(EventEndTurn, nil, "0", ""))
	require.Equal(t, ErrorPluginActionInvalid, errType(next))
	invalid, ok := next.Transients.Error.Payload.(InvalidPlugin)
	require.True(t, ok)
	assert.Equal(t, eventsPluginName, invalid.Plugin)
	assert.Contains(t, invalid.Message, "`endTurn` is disallowed in `onEnd` hooks")
	assert.Equal(t, s.StateID, next.StateID)
	assert.Equal(t, 1, next.Ctx.Turn)
}

func TestStageEventInPhaseBeginIsRejected(t *testing.T) {
	game := counterGame()
	game.Phases = map[string]Phase{
		"main": {Start: true, OnBegin: func(c *Context) any {
			c.Events.SetStage(StageArg{Stage: "x"})
			return nil
		}},
	}
	pg, err := Compile(game)
	require.NoError(t, err)

	_, err = InitializeGame(pg, 2, nil)
	assert.ErrorIs(t, err, ErrInvalidSetup)
	assert.Contains(t, err.Error(), "disallowed in a phase’s `onBegin` hook")
}

func TestEventFromTriggerIsRejected(t *testing.T) {
	game := counterGame()
	game.EndIf = func(c *Context) any {
		c.Events.EndTurn()
		return nil
	}
	pg, err := Compile(game)
	require.NoError(t, err)

	_, err = InitializeGame(pg, 2, nil)
	assert.ErrorIs(t, err, ErrInvalidSetup)
	assert.Contains(t, err.Error(), "Events must be called from moves")
}

func TestInfiniteTurnEndingsAreStopped(t *testing.T) {
	game := counterGame()
	game.Turn = &Turn{
		OnBegin: func(c *Context) any {
			c.Events.EndTurn()
			return nil
		},
	}
	pg, err := Compile(game)
	require.NoError(t, err)

	_, err = InitializeGame(pg, 2, nil)
	assert.ErrorIs(t, err, ErrInvalidSetup)
	assert.Contains(t, err.Error(), "Maximum number of turn endings exceeded")
}

func TestGetMoveResolution(t *testing.T) {
	game := counterGame()
	game.Turn = &Turn{Stages: map[string]Stage{
		"busy": {Moves: map[string]Move{"work": {Move: inc}}},
		"idle": {},
	}}
	pg, err := Compile(game)
	require.NoError(t, err)
	f := pg.Flow

	ctx := Ctx{ActivePlayers: map[string]string{"0": "busy", "1": "idle", "2": StageNull}}

	_, ok := f.GetMove(ctx, "work", "0")
	assert.True(t, ok)
	_, ok = f.GetMove(ctx, "inc", "0")
	assert.False(t, ok, "a stage with moves hides the global ones")
	_, ok = f.GetMove(ctx, "inc", "1")
	assert.True(t, ok, "a stage without moves falls back")
	_, ok = f.GetMove(ctx, "inc", "2")
	assert.True(t, ok)

	assert.Equal(t, []string{"fail", "inc", "locked", "work"}, pg.MoveNames())
}

func TestIsPlayerActive(t *testing.T) {
	pg, err := Compile(counterGame())
	require.NoError(t, err)

	assert.True(t, pg.Flow.IsPlayerActive(Ctx{CurrentPlayer: "1"}, "1"))
	assert.False(t, pg.Flow.IsPlayerActive(Ctx{CurrentPlayer: "1"}, "0"))
	assert.True(t, pg.Flow.IsPlayerActive(Ctx{CurrentPlayer: "1", ActivePlayers: map[string]string{"0": ""}}, "0"))
	assert.False(t, pg.Flow.IsPlayerActive(Ctx{CurrentPlayer: "1", ActivePlayers: map[string]string{"0": ""}}, "1"))
}
