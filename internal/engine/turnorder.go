package engine

import (
	"encoding/json"
	"fmt"
	"strconv"

	"go.uber.org/zap"
)

// StageArg places a player in a stage.
type StageArg struct {
	Stage    string `json:"stage"`
	MinMoves int    `json:"minMoves,omitempty"`
	MaxMoves int    `json:"maxMoves,omitempty"`
	// Deprecated: MoveLimit is rewritten to MaxMoves.
	MoveLimit int `json:"moveLimit,omitempty"`
}

// InStage is shorthand for a StageArg with no move limits.
func InStage(name string) *StageArg {
	return &StageArg{Stage: name}
}

func (a StageArg) normalized() StageArg {
	if a.MoveLimit > 0 {
		a.MaxMoves = a.MoveLimit
		a.MoveLimit = 0
	}
	return a
}

// ActivePlayersArg describes a new set of active players.
type ActivePlayersArg struct {
	CurrentPlayer *StageArg           `json:"currentPlayer,omitempty"`
	Others        *StageArg           `json:"others,omitempty"`
	All           *StageArg           `json:"all,omitempty"`
	Value         map[string]StageArg `json:"value,omitempty"`
	MinMoves      int                 `json:"minMoves,omitempty"`
	MaxMoves      int                 `json:"maxMoves,omitempty"`
	// Deprecated: MoveLimit is rewritten to MaxMoves.
	MoveLimit int `json:"moveLimit,omitempty"`
	// Revert restores the current set once the new one empties.
	Revert bool `json:"revert,omitempty"`
	// Next becomes the active set once the new one empties.
	Next *ActivePlayersArg `json:"next,omitempty"`
}

func (a ActivePlayersArg) normalized() ActivePlayersArg {
	if a.MoveLimit > 0 {
		a.MaxMoves = a.MoveLimit
		a.MoveLimit = 0
	}
	return a
}

// ActivePlayersList makes every listed player active with no stage.
func ActivePlayersList(ids ...string) ActivePlayersArg {
	value := make(map[string]StageArg, len(ids))
	for _, id := range ids {
		value[id] = StageArg{Stage: StageNull}
	}
	return ActivePlayersArg{Value: value}
}

var (
	ActivePlayersAll        = ActivePlayersArg{All: &StageArg{}}
	ActivePlayersAllOnce    = ActivePlayersArg{All: &StageArg{}, MinMoves: 1, MaxMoves: 1}
	ActivePlayersOthers     = ActivePlayersArg{Others: &StageArg{}}
	ActivePlayersOthersOnce = ActivePlayersArg{Others: &StageArg{}, MinMoves: 1, MaxMoves: 1}
)

// TurnArg is the optional argument of endTurn and pass.
// A zero TurnArg ends the turn and lets the turn order pick the next player.
type TurnArg struct {
	Remove bool   `json:"remove,omitempty"`
	Next   string `json:"next,omitempty"`
}

func (a *TurnArg) isZero() bool {
	return a == nil || (!a.Remove && a.Next == "")
}

// PhaseArg is the argument passed on to the phase transition.
// A zero PhaseArg lets the ending phase pick its successor.
type PhaseArg struct {
	Next string `json:"next,omitempty"`
}

// SetActivePlayers replaces the active player set of ctx.
func SetActivePlayers(ctx Ctx, arg ActivePlayersArg) Ctx {
	arg = arg.normalized()

	active := map[string]string{}
	minMoves := map[string]int{}
	maxMoves := map[string]int{}
	var prev []ActivePlayersSnapshot
	var next *ActivePlayersArg

	if arg.Next != nil {
		n := *arg.Next
		next = &n
	}

	if arg.Revert {
		prev = make([]ActivePlayersSnapshot, 0, len(ctx.PrevActivePlayers)+1)
		prev = append(prev, ctx.PrevActivePlayers...)
		prev = append(prev, ActivePlayersSnapshot{
			ActivePlayers:         ctx.ActivePlayers,
			ActivePlayersMinMoves: ctx.ActivePlayersMinMoves,
			ActivePlayersMaxMoves: ctx.ActivePlayersMaxMoves,
			ActivePlayersNumMoves: ctx.ActivePlayersNumMoves,
		})
	}

	apply := func(id string, sa StageArg) {
		sa = sa.normalized()
		active[id] = sa.Stage
		if sa.MinMoves > 0 {
			minMoves[id] = sa.MinMoves
		}
		if sa.MaxMoves > 0 {
			maxMoves[id] = sa.MaxMoves
		}
	}

	if arg.CurrentPlayer != nil {
		apply(ctx.CurrentPlayer, *arg.CurrentPlayer)
	}
	if arg.Others != nil {
		for _, id := range ctx.PlayOrder {
			if id != ctx.CurrentPlayer {
				apply(id, *arg.Others)
			}
		}
	}
	if arg.All != nil {
		for _, id := range ctx.PlayOrder {
			apply(id, *arg.All)
		}
	}
	for id, sa := range arg.Value {
		apply(id, sa)
	}

	if arg.MinMoves > 0 {
		for id := range active {
			if _, ok := minMoves[id]; !ok {
				minMoves[id] = arg.MinMoves
			}
		}
	}
	if arg.MaxMoves > 0 {
		for id := range active {
			if _, ok := maxMoves[id]; !ok {
				maxMoves[id] = arg.MaxMoves
			}
		}
	}

	var numMoves map[string]int
	if len(active) > 0 {
		numMoves = make(map[string]int, len(active))
		for id := range active {
			numMoves[id] = 0
		}
	}

	ctx.ActivePlayers = nilIfEmpty(active)
	ctx.ActivePlayersMinMoves = nilIfEmpty(minMoves)
	ctx.ActivePlayersMaxMoves = nilIfEmpty(maxMoves)
	ctx.ActivePlayersNumMoves = numMoves
	ctx.PrevActivePlayers = prev
	ctx.NextActivePlayers = next
	return ctx
}

// UpdateActivePlayersOnceEmpty resolves an emptied active player set:
// the pending next set, then the last reverted set, then no set at all.
func UpdateActivePlayersOnceEmpty(ctx Ctx) Ctx {
	if ctx.ActivePlayers == nil || len(ctx.ActivePlayers) > 0 {
		return ctx
	}

	switch {
	case ctx.NextActivePlayers != nil:
		return SetActivePlayers(ctx, *ctx.NextActivePlayers)
	case len(ctx.PrevActivePlayers) > 0:
		last := len(ctx.PrevActivePlayers) - 1
		snap := ctx.PrevActivePlayers[last]
		ctx.ActivePlayers = snap.ActivePlayers
		ctx.ActivePlayersMinMoves = snap.ActivePlayersMinMoves
		ctx.ActivePlayersMaxMoves = snap.ActivePlayersMaxMoves
		ctx.ActivePlayersNumMoves = snap.ActivePlayersNumMoves
		ctx.PrevActivePlayers = append([]ActivePlayersSnapshot(nil), ctx.PrevActivePlayers[:last]...)
	default:
		ctx.ActivePlayers = nil
		ctx.ActivePlayersMinMoves = nil
		ctx.ActivePlayersMaxMoves = nil
	}
	return ctx
}

// InitTurnOrderState computes the play order, the first player and the
// initial active players at the start of a phase.
func InitTurnOrderState(s State, turn *Turn, logger *zap.Logger) Ctx {
	ctx := s.Ctx
	c := newContext(s, "")
	order := turn.Order

	playOrder := defaultPlayOrder(ctx.NumPlayers)
	if order.PlayOrder != nil {
		playOrder = order.PlayOrder(c)
	}

	pos := checkPosition(order.First(c), playOrder, "first", logger)
	ctx.PlayOrder = playOrder
	ctx.PlayOrderPos = pos
	ctx.CurrentPlayer = playerAt(playOrder, pos)

	var ap ActivePlayersArg
	if turn.ActivePlayers != nil {
		ap = *turn.ActivePlayers
	}
	return SetActivePlayers(ctx, ap)
}

// UpdateTurnOrderState moves play to the next player. It reports true when
// the turn order is exhausted and the phase must end.
func UpdateTurnOrderState(s State, currentPlayer string, turn *Turn, arg *TurnArg, logger *zap.Logger) (bool, Ctx) {
	ctx := s.Ctx
	pos := ctx.PlayOrderPos
	endPhase := false

	if !arg.isZero() {
		if arg.Remove {
			currentPlayer = playerAt(ctx.PlayOrder, pos)
		}
		if arg.Next != "" {
			idx := indexOf(ctx.PlayOrder, arg.Next)
			if idx < 0 {
				logger.Error("invalid argument to endTurn: player not in play order", zap.String("next", arg.Next))
			} else {
				pos = idx
				currentPlayer = arg.Next
			}
		}
	} else {
		t, ok := turn.Order.Next(newContext(s, ""))
		if !ok {
			endPhase = true
		} else {
			pos = checkPosition(t, ctx.PlayOrder, "next", logger)
			currentPlayer = playerAt(ctx.PlayOrder, pos)
		}
	}

	ctx.PlayOrderPos = pos
	ctx.CurrentPlayer = currentPlayer
	return endPhase, ctx
}

func checkPosition(pos int, playOrder []string, method string, logger *zap.Logger) int {
	if pos < 0 || pos >= len(playOrder) {
		logger.Error("invalid value returned by turn.order."+method,
			zap.Int("position", pos), zap.Int("players", len(playOrder)))
		return 0
	}
	return pos
}

func playerAt(playOrder []string, pos int) string {
	if pos < 0 || pos >= len(playOrder) {
		return ""
	}
	return playOrder[pos]
}

func indexOf(list []string, v string) int {
	for i, s := range list {
		if s == v {
			return i
		}
	}
	return -1
}

func defaultPlayOrder(numPlayers int) []string {
	order := make([]string, numPlayers)
	for i := range order {
		order[i] = strconv.Itoa(i)
	}
	return order
}

func nextPosition(c *Context) (int, bool) {
	if len(c.Ctx.PlayOrder) == 0 {
		return 0, false
	}
	return (c.Ctx.PlayOrderPos + 1) % len(c.Ctx.PlayOrder), true
}

func firstPosition(*Context) int { return 0 }

// --- Built-in turn orders ---

var (
	// OrderDefault continues round-robin from the previous phase, starting
	// with the player after the last one to play.
	OrderDefault = &TurnOrder{
		First: func(c *Context) int {
			if c.Ctx.Turn == 0 || len(c.Ctx.PlayOrder) == 0 {
				return c.Ctx.PlayOrderPos
			}
			return (c.Ctx.PlayOrderPos + 1) % len(c.Ctx.PlayOrder)
		},
		Next: nextPosition,
	}

	// OrderReset starts every phase with the first player.
	OrderReset = &TurnOrder{First: firstPosition, Next: nextPosition}

	// OrderContinue starts the phase with the player who ended the last one.
	OrderContinue = &TurnOrder{
		First: func(c *Context) int { return c.Ctx.PlayOrderPos },
		Next:  nextPosition,
	}

	// OrderOnce gives every player one turn, then ends the phase.
	OrderOnce = &TurnOrder{
		First: firstPosition,
		Next: func(c *Context) (int, bool) {
			if c.Ctx.PlayOrderPos < len(c.Ctx.PlayOrder)-1 {
				return c.Ctx.PlayOrderPos + 1, true
			}
			return 0, false
		},
	}
)

// OrderCustom plays round-robin over a fixed play order.
func OrderCustom(playOrder []string) *TurnOrder {
	return &TurnOrder{
		PlayOrder: func(*Context) []string { return append([]string(nil), playOrder...) },
		First:     firstPosition,
		Next:      nextPosition,
	}
}

// OrderCustomFrom plays round-robin over the play order stored in G[field].
func OrderCustomFrom(field string) *TurnOrder {
	return &TurnOrder{
		PlayOrder: func(c *Context) []string { return playOrderFrom(c.G, field) },
		First:     firstPosition,
		Next:      nextPosition,
	}
}

func playOrderFrom(G any, field string) []string {
	var fields map[string]any
	switch g := G.(type) {
	case map[string]any:
		fields = g
	default:
		b, err := json.Marshal(G)
		if err != nil || json.Unmarshal(b, &fields) != nil {
			return nil
		}
	}
	switch v := fields[field].(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, id := range v {
			out = append(out, fmt.Sprint(id))
		}
		return out
	}
	return nil
}
