package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func threePlayerCtx() Ctx {
	return Ctx{NumPlayers: 3, PlayOrder: []string{"0", "1", "2"}, CurrentPlayer: "0", Turn: 1}
}

func TestSetActivePlayersAllOnce(t *testing.T) {
	ctx := SetActivePlayers(threePlayerCtx(), ActivePlayersAllOnce)

	assert.Equal(t, map[string]string{"0": StageNull, "1": StageNull, "2": StageNull}, ctx.ActivePlayers)
	assert.Equal(t, map[string]int{"0": 1, "1": 1, "2": 1}, ctx.ActivePlayersMinMoves)
	assert.Equal(t, map[string]int{"0": 1, "1": 1, "2": 1}, ctx.ActivePlayersMaxMoves)
	assert.Equal(t, map[string]int{"0": 0, "1": 0, "2": 0}, ctx.ActivePlayersNumMoves)
}

func TestSetActivePlayersOthersInStage(t *testing.T) {
	ctx := SetActivePlayers(threePlayerCtx(), ActivePlayersArg{Others: InStage("discard")})

	assert.Equal(t, map[string]string{"1": "discard", "2": "discard"}, ctx.ActivePlayers)
	assert.Nil(t, ctx.ActivePlayersMinMoves)
	assert.Nil(t, ctx.ActivePlayersMaxMoves)
}

func TestSetActivePlayersExplicitValueOverridesDefaults(t *testing.T) {
	ctx := SetActivePlayers(threePlayerCtx(), ActivePlayersArg{
		CurrentPlayer: InStage("play"),
		Value:         map[string]StageArg{"2": {Stage: "wait", MaxMoves: 3}},
		MaxMoves:      1,
	})

	assert.Equal(t, map[string]string{"0": "play", "2": "wait"}, ctx.ActivePlayers)
	assert.Equal(t, map[string]int{"0": 1, "2": 3}, ctx.ActivePlayersMaxMoves)
}

func TestSetActivePlayersDeprecatedMoveLimit(t *testing.T) {
	ctx := SetActivePlayers(threePlayerCtx(), ActivePlayersArg{All: &StageArg{}, MoveLimit: 2})

	// The limit only caps moves; it does not force a minimum.
	assert.Nil(t, ctx.ActivePlayersMinMoves)
	assert.Equal(t, map[string]int{"0": 2, "1": 2, "2": 2}, ctx.ActivePlayersMaxMoves)
}

func TestSetActivePlayersEmptyIsNull(t *testing.T) {
	ctx := SetActivePlayers(threePlayerCtx(), ActivePlayersArg{})
	assert.Nil(t, ctx.ActivePlayers)
}

func TestRevertRestoresPreviousSet(t *testing.T) {
	ctx := SetActivePlayers(threePlayerCtx(), ActivePlayersArg{Others: &StageArg{}})
	ctx = SetActivePlayers(ctx, ActivePlayersArg{CurrentPlayer: InStage("respond"), Revert: true})
	assert.Equal(t, map[string]string{"0": "respond"}, ctx.ActivePlayers)
	assert.Len(t, ctx.PrevActivePlayers, 1)

	// Simulate the only active player leaving the set.
	ctx.ActivePlayers = map[string]string{}
	ctx = UpdateActivePlayersOnceEmpty(ctx)

	assert.Equal(t, map[string]string{"1": StageNull, "2": StageNull}, ctx.ActivePlayers)
	assert.Empty(t, ctx.PrevActivePlayers)
}

func TestNextActivePlayersTakeOver(t *testing.T) {
	ctx := SetActivePlayers(threePlayerCtx(), ActivePlayersArg{
		CurrentPlayer: InStage("a"),
		Next:          &ActivePlayersArg{Others: InStage("b")},
	})
	ctx.ActivePlayers = map[string]string{}
	ctx = UpdateActivePlayersOnceEmpty(ctx)

	assert.Equal(t, map[string]string{"1": "b", "2": "b"}, ctx.ActivePlayers)
	assert.Nil(t, ctx.NextActivePlayers)
}

func TestEmptySetWithoutFallbackBecomesNull(t *testing.T) {
	ctx := threePlayerCtx()
	ctx.ActivePlayers = map[string]string{}
	ctx.ActivePlayersMaxMoves = map[string]int{}

	ctx = UpdateActivePlayersOnceEmpty(ctx)
	assert.Nil(t, ctx.ActivePlayers)
	assert.Nil(t, ctx.ActivePlayersMaxMoves)
}

func TestOrderOnce(t *testing.T) {
	c := &Context{Ctx: Ctx{PlayOrder: []string{"0", "1", "2"}, PlayOrderPos: 1}}
	pos, ok := OrderOnce.Next(c)
	assert.True(t, ok)
	assert.Equal(t, 2, pos)

	c.Ctx.PlayOrderPos = 2
	_, ok = OrderOnce.Next(c)
	assert.False(t, ok, "last player ends the phase")
}

func TestOrderDefaultFirst(t *testing.T) {
	c := &Context{Ctx: Ctx{PlayOrder: []string{"0", "1"}, PlayOrderPos: 0, Turn: 0}}
	assert.Equal(t, 0, OrderDefault.First(c))

	c.Ctx.Turn = 3
	assert.Equal(t, 1, OrderDefault.First(c))
}

func TestOrderCustomFrom(t *testing.T) {
	c := &Context{G: map[string]any{"seats": []any{"2", "0"}}}
	assert.Equal(t, []string{"2", "0"}, OrderCustomFrom("seats").PlayOrder(c))

	type table struct {
		Seats []string `json:"seats"`
	}
	c.G = table{Seats: []string{"1"}}
	assert.Equal(t, []string{"1"}, OrderCustomFrom("seats").PlayOrder(c))
}

func TestUpdateTurnOrderStateNextOutsidePlayOrder(t *testing.T) {
	s := State{Ctx: threePlayerCtx()}
	endPhase, ctx := UpdateTurnOrderState(s, "0", &Turn{Order: OrderDefault}, &TurnArg{Next: "9"}, zap.NewNop())

	assert.False(t, endPhase)
	assert.Equal(t, "0", ctx.CurrentPlayer)
	assert.Equal(t, 0, ctx.PlayOrderPos)
}

func TestInitTurnOrderStateClampsBadFirst(t *testing.T) {
	s := State{Ctx: threePlayerCtx()}
	order := &TurnOrder{First: func(*Context) int { return 7 }, Next: nextPosition}

	ctx := InitTurnOrderState(s, &Turn{Order: order}, zap.NewNop())
	assert.Equal(t, 0, ctx.PlayOrderPos)
	assert.Equal(t, "0", ctx.CurrentPlayer)
}
