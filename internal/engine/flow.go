package engine

import (
	"fmt"
	"reflect"
	"sort"

	"go.uber.org/zap"
)

type stepKind int

const (
	stepStartGame stepKind = iota
	stepStartPhase
	stepStartTurn
	stepUpdatePhase
	stepUpdateTurn
	stepUpdateStage
	stepUpdateActivePlayers
	stepOnMove
	stepEndGame
	stepEndPhase
	stepEndTurn
	stepEndStage
)

// noTurn marks a flow event that is not bound to a turn.
const noTurn = -1

// flowEvent is one unit of work in the flow queue.
type flowEvent struct {
	kind stepKind

	phaseArg  *PhaseArg
	turnArg   *TurnArg
	stageArg  *StageArg
	activeArg *ActivePlayersArg
	gameover  any

	turn          int
	phase         string
	force         bool
	automatic     bool
	playerID      string
	currentPlayer string
}

// hookRunner runs a wrapped hook against a state and returns the new G.
type hookRunner func(s State, playerID string) any

type moveEntry struct {
	move    Move
	wrapped MoveFn
}

type stageConfig struct {
	Stage
	moves map[string]*moveEntry
}

type turnConfig struct {
	Turn
	minMoves int
	maxMoves int
	stages   map[string]*stageConfig

	onBegin hookRunner
	onEnd   hookRunner
	onMove  hookRunner
}

type phaseConfig struct {
	Phase
	name  string
	moves map[string]*moveEntry
	turn  *turnConfig

	onBegin hookRunner
	onEnd   hookRunner
}

// Flow is the phase, turn and stage state machine of a compiled game.
type Flow struct {
	game   *ProcessedGame
	logger *zap.Logger

	moves         map[string]*moveEntry
	phases        map[string]*phaseConfig
	startingPhase string
	moveNames     []string

	onEnd hookRunner
}

func newFlow(g *ProcessedGame) *Flow {
	f := &Flow{
		game:   g,
		logger: g.logger,
		moves:  map[string]*moveEntry{},
		phases: map[string]*phaseConfig{},
		onEnd:  g.hook(g.OnEnd, MethodGameOnEnd),
	}

	names := map[string]bool{}
	for name, m := range g.Moves {
		f.moves[name] = f.entry(m)
		names[name] = true
	}

	gameTurn := g.Turn
	if gameTurn == nil {
		gameTurn = &Turn{}
	}

	phases := make(map[string]Phase, len(g.Phases)+1)
	for name, p := range g.Phases {
		if name == "" {
			f.logger.Error("cannot specify phase with empty name")
			continue
		}
		phases[name] = p
	}
	phases[""] = Phase{}

	for _, name := range sortedKeys(phases) {
		p := phases[name]
		if p.Start {
			if f.startingPhase != "" {
				f.logger.Warn("multiple starting phases", zap.String("using", f.startingPhase), zap.String("ignored", name))
			} else {
				f.startingPhase = name
			}
		}

		pc := &phaseConfig{
			Phase:   p,
			name:    name,
			onBegin: g.hook(p.OnBegin, MethodPhaseOnBegin),
			onEnd:   g.hook(p.OnEnd, MethodPhaseOnEnd),
		}
		if p.Moves != nil {
			pc.moves = make(map[string]*moveEntry, len(p.Moves))
			for mn, m := range p.Moves {
				pc.moves[mn] = f.entry(m)
				names[mn] = true
			}
		}

		t := p.Turn
		if t == nil {
			t = gameTurn
		}
		pc.turn = f.turnConfig(*t, names)
		f.phases[name] = pc
	}

	f.moveNames = sortedKeys(names)
	return f
}

func (f *Flow) entry(m Move) *moveEntry {
	e := &moveEntry{move: m}
	if m.Move != nil {
		e.wrapped = f.game.wrap(m.Move, MethodMove)
	}
	return e
}

func (f *Flow) turnConfig(t Turn, names map[string]bool) *turnConfig {
	if t.Order == nil {
		t.Order = OrderDefault
	} else if t.Order.First == nil || t.Order.Next == nil {
		order := *t.Order
		if order.First == nil {
			order.First = OrderDefault.First
		}
		if order.Next == nil {
			order.Next = nextPosition
		}
		t.Order = &order
	}

	tc := &turnConfig{
		Turn:     t,
		minMoves: t.MinMoves,
		maxMoves: t.MaxMoves,
		stages:   make(map[string]*stageConfig, len(t.Stages)),
		onBegin:  f.game.hook(t.OnBegin, MethodTurnOnBegin),
		onEnd:    f.game.hook(t.OnEnd, MethodTurnOnEnd),
		onMove:   f.game.hook(t.OnMove, MethodTurnOnMove),
	}
	if t.MoveLimit > 0 {
		tc.minMoves = t.MoveLimit
		tc.maxMoves = t.MoveLimit
	}

	for sn, st := range t.Stages {
		sc := &stageConfig{Stage: st}
		if st.Moves != nil {
			sc.moves = make(map[string]*moveEntry, len(st.Moves))
			for mn, m := range st.Moves {
				sc.moves[mn] = f.entry(m)
				names[mn] = true
			}
		}
		tc.stages[sn] = sc
	}
	return tc
}

func (f *Flow) phase(ctx Ctx) *phaseConfig {
	if pc, ok := f.phases[ctx.Phase]; ok {
		return pc
	}
	return f.phases[""]
}

// --- Queue processing ---

func (f *Flow) process(s State, events []flowEvent) State {
	phasesEnded := map[string]bool{}

	for i := 0; i < len(events); i++ {
		ev := events[i]

		// A phase ending twice in one pass means the endIf triggers loop;
		// bail out of all phases.
		if ev.kind == stepEndPhase {
			if phasesEnded[s.Ctx.Phase] {
				f.logger.Warn("phase end loop detected", zap.String("phase", s.Ctx.Phase))
				s.Ctx.Phase = ""
				return s
			}
			phasesEnded[s.Ctx.Phase] = true
		}

		var next []flowEvent
		s = f.step(s, ev, &next)

		if ev.kind == stepEndGame {
			break
		}

		if gameover := f.shouldEndGame(s); gameover != nil {
			events = append(events, flowEvent{
				kind: stepEndGame, gameover: gameover,
				turn: s.Ctx.Turn, phase: s.Ctx.Phase, automatic: true,
			})
			continue
		}

		if arg := f.shouldEndPhase(s); arg != nil {
			events = append(events, flowEvent{
				kind: stepEndPhase, phaseArg: arg,
				turn: s.Ctx.Turn, phase: s.Ctx.Phase, automatic: true,
			})
			continue
		}

		switch ev.kind {
		case stepOnMove, stepUpdateStage, stepUpdateActivePlayers:
			if arg := f.shouldEndTurn(s); arg != nil {
				events = append(events, flowEvent{
					kind: stepEndTurn, turnArg: arg,
					turn: s.Ctx.Turn, phase: s.Ctx.Phase, automatic: true,
				})
				continue
			}
		}

		events = append(events, next...)
	}
	return s
}

func (f *Flow) step(s State, ev flowEvent, next *[]flowEvent) State {
	switch ev.kind {
	case stepStartGame:
		*next = append(*next, flowEvent{kind: stepStartPhase})
		return s
	case stepStartPhase:
		return f.startPhase(s, next)
	case stepStartTurn:
		return f.startTurn(s, ev)
	case stepUpdatePhase:
		return f.updatePhase(s, ev, next)
	case stepUpdateTurn:
		return f.updateTurn(s, ev, next)
	case stepUpdateStage:
		return f.updateStage(s, ev)
	case stepUpdateActivePlayers:
		var arg ActivePlayersArg
		if ev.activeArg != nil {
			arg = *ev.activeArg
		}
		s.Ctx = SetActivePlayers(s.Ctx, arg)
		return s
	case stepOnMove:
		return s
	case stepEndGame:
		return f.endGame(s, ev)
	case stepEndPhase:
		return f.endPhase(s, ev, next)
	case stepEndTurn:
		return f.endTurn(s, ev, next)
	case stepEndStage:
		return f.endStage(s, ev, next)
	}
	return s
}

// --- Start / update ---

func (f *Flow) startPhase(s State, next *[]flowEvent) State {
	conf := f.phase(s.Ctx)
	s.G = conf.onBegin(s, "")
	*next = append(*next, flowEvent{kind: stepStartTurn})
	return s
}

func (f *Flow) startTurn(s State, ev flowEvent) State {
	conf := f.phase(s.Ctx)
	ctx := s.Ctx

	if ev.currentPlayer != "" {
		ctx.CurrentPlayer = ev.currentPlayer
		if conf.turn.ActivePlayers != nil {
			ctx = SetActivePlayers(ctx, *conf.turn.ActivePlayers)
		}
	} else {
		// Only reached when a phase begins and no player holds the turn yet.
		ctx = InitTurnOrderState(s, &conf.turn.Turn, f.logger)
	}

	ctx.Turn++
	ctx.NumMoves = 0
	ctx.PrevActivePlayers = nil
	s.Ctx = ctx

	s.G = conf.turn.onBegin(s, "")
	s.Undo = nil
	s.Redo = nil
	return s
}

func (f *Flow) updatePhase(s State, ev flowEvent, next *[]flowEvent) State {
	conf := f.phases[ev.phase]
	if conf == nil {
		conf = f.phases[""]
	}

	if ev.phaseArg != nil && ev.phaseArg.Next != "" {
		if _, ok := f.phases[ev.phaseArg.Next]; !ok {
			f.logger.Error("invalid phase", zap.String("phase", ev.phaseArg.Next))
			return s
		}
		s.Ctx.Phase = ev.phaseArg.Next
	} else {
		s.Ctx.Phase = f.nextPhase(conf, s)
	}

	*next = append(*next, flowEvent{kind: stepStartPhase})
	return s
}

func (f *Flow) nextPhase(conf *phaseConfig, s State) string {
	name := conf.Next
	if conf.NextFn != nil {
		name = conf.NextFn(newContext(s, ""))
	}
	if name == "" {
		return ""
	}
	if _, ok := f.phases[name]; !ok {
		f.logger.Error("invalid next phase", zap.String("from", conf.name), zap.String("next", name))
		return ""
	}
	return name
}

func (f *Flow) updateTurn(s State, ev flowEvent, next *[]flowEvent) State {
	conf := f.phase(s.Ctx)
	endPhase, ctx := UpdateTurnOrderState(s, ev.currentPlayer, &conf.turn.Turn, ev.turnArg, f.logger)
	s.Ctx = ctx

	if endPhase {
		*next = append(*next, flowEvent{kind: stepEndPhase, turn: ctx.Turn, phase: ctx.Phase})
	} else {
		*next = append(*next, flowEvent{kind: stepStartTurn, currentPlayer: ctx.CurrentPlayer})
	}
	return s
}

func (f *Flow) updateStage(s State, ev flowEvent) State {
	if ev.stageArg == nil {
		return s
	}
	arg := ev.stageArg.normalized()
	ctx := s.Ctx
	id := ev.playerID

	active := copyStringMap(ctx.ActivePlayers)
	if active == nil {
		active = map[string]string{}
	}
	active[id] = arg.Stage

	numMoves := copyIntMap(ctx.ActivePlayersNumMoves)
	if numMoves == nil {
		numMoves = map[string]int{}
	}
	numMoves[id] = 0

	if arg.MinMoves > 0 {
		minMoves := copyIntMap(ctx.ActivePlayersMinMoves)
		if minMoves == nil {
			minMoves = map[string]int{}
		}
		minMoves[id] = arg.MinMoves
		ctx.ActivePlayersMinMoves = minMoves
	}
	if arg.MaxMoves > 0 {
		maxMoves := copyIntMap(ctx.ActivePlayersMaxMoves)
		if maxMoves == nil {
			maxMoves = map[string]int{}
		}
		maxMoves[id] = arg.MaxMoves
		ctx.ActivePlayersMaxMoves = maxMoves
	}

	ctx.ActivePlayers = active
	ctx.ActivePlayersNumMoves = numMoves
	s.Ctx = ctx
	return s
}

// --- Triggers ---

func (f *Flow) shouldEndGame(s State) any {
	if f.game.EndIf == nil {
		return nil
	}
	if v := f.game.EndIf(newContext(s, "")); truthy(v) {
		return v
	}
	return nil
}

// truthy reports whether a gameover value ends the match. nil, false, zero
// numbers, the empty string and nil pointers, maps or slices do not.
func truthy(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()
	case reflect.String:
		return rv.Len() > 0
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return f != 0 && f == f
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return !rv.IsNil()
	}
	return true
}

func (f *Flow) shouldEndPhase(s State) *PhaseArg {
	conf := f.phase(s.Ctx)
	if conf.EndIf == nil {
		return nil
	}
	return conf.EndIf(newContext(s, ""))
}

func (f *Flow) shouldEndTurn(s State) *TurnArg {
	conf := f.phase(s.Ctx)
	if conf.turn.maxMoves > 0 && s.Ctx.NumMoves >= conf.turn.maxMoves {
		return &TurnArg{}
	}
	if conf.turn.EndIf == nil {
		return nil
	}
	return conf.turn.EndIf(newContext(s, ""))
}

// --- End ---

func (f *Flow) endGame(s State, ev flowEvent) State {
	s = f.endPhase(s, flowEvent{kind: stepEndPhase, turn: noTurn, phase: ev.phase}, nil)

	gameover := ev.gameover
	if gameover == nil {
		gameover = true
	}
	s.Ctx.Gameover = gameover
	s.G = f.onEnd(s, "")
	return s
}

func (f *Flow) endPhase(s State, ev flowEvent, next *[]flowEvent) State {
	s = f.endTurn(s, flowEvent{kind: stepEndTurn, turn: ev.turn, force: true, automatic: true}, nil)

	phase, turn := s.Ctx.Phase, s.Ctx.Turn
	if next != nil {
		*next = append(*next, flowEvent{kind: stepUpdatePhase, phaseArg: ev.phaseArg, phase: phase})
	}

	if phase == "" {
		return s
	}

	conf := f.phase(s.Ctx)
	s.G = conf.onEnd(s, "")
	s.Ctx.Phase = ""

	return s.appendLog(LogEntry{
		Action:    gameEventLog(EventEndPhase, logArg(ev.phaseArg)),
		StateID:   s.StateID,
		Turn:      turn,
		Phase:     phase,
		Automatic: ev.automatic,
	})
}

func (f *Flow) endTurn(s State, ev flowEvent, next *[]flowEvent) State {
	// The turn was already ended some other way.
	if ev.turn != s.Ctx.Turn {
		return s
	}

	ctx := s.Ctx
	conf := f.phase(ctx)

	if !ev.force && conf.turn.minMoves > 0 && ctx.NumMoves < conf.turn.minMoves {
		f.logger.Info(fmt.Sprintf("cannot end turn before making %d moves", conf.turn.minMoves))
		return s
	}

	G := conf.turn.onEnd(s, "")

	newCtx := ctx
	newCtx.ActivePlayers = nil

	if ev.turnArg != nil && ev.turnArg.Remove {
		id := ev.playerID
		if id == "" {
			id = ctx.CurrentPlayer
		}
		playOrder := make([]string, 0, len(ctx.PlayOrder))
		for _, p := range ctx.PlayOrder {
			if p != id {
				playOrder = append(playOrder, p)
			}
		}
		if len(playOrder) == 0 {
			if next != nil {
				*next = append(*next, flowEvent{kind: stepEndPhase, turn: ctx.Turn, phase: ctx.Phase})
			}
			return s
		}
		newCtx.PlayOrder = playOrder
		if newCtx.PlayOrderPos > len(playOrder)-1 {
			newCtx.PlayOrderPos = 0
		}
	}

	if next != nil {
		*next = append(*next, flowEvent{kind: stepUpdateTurn, turnArg: ev.turnArg, currentPlayer: ctx.CurrentPlayer})
	}

	s.G = G
	s.Ctx = newCtx
	s.Undo = nil
	s.Redo = nil
	return s.appendLog(LogEntry{
		Action:    gameEventLog(EventEndTurn, logArg(ev.turnArg)),
		StateID:   s.StateID,
		Turn:      ctx.Turn,
		Phase:     ctx.Phase,
		Automatic: ev.automatic,
	})
}

func (f *Flow) endStage(s State, ev flowEvent, next *[]flowEvent) State {
	ctx := s.Ctx
	id := ev.playerID
	if id == "" {
		id = ctx.CurrentPlayer
	}

	stage, inStage := ctx.ActivePlayers[id]
	arg := ev.stageArg
	if arg == nil && inStage {
		if sc, ok := f.phase(ctx).turn.stages[stage]; ok && sc.Next != "" {
			arg = &StageArg{Stage: sc.Next}
		}
	}

	if next != nil {
		*next = append(*next, flowEvent{kind: stepUpdateStage, stageArg: arg, playerID: id})
	}

	if !inStage {
		return s
	}

	if limit := ctx.ActivePlayersMinMoves[id]; limit > 0 && ctx.ActivePlayersNumMoves[id] < limit {
		f.logger.Info(fmt.Sprintf("cannot end stage before making %d moves", limit))
		return s
	}

	active := copyStringMap(ctx.ActivePlayers)
	delete(active, id)
	ctx.ActivePlayers = active
	if ctx.ActivePlayersMinMoves != nil {
		ctx.ActivePlayersMinMoves = copyIntMap(ctx.ActivePlayersMinMoves)
		delete(ctx.ActivePlayersMinMoves, id)
	}
	if ctx.ActivePlayersMaxMoves != nil {
		ctx.ActivePlayersMaxMoves = copyIntMap(ctx.ActivePlayersMaxMoves)
		delete(ctx.ActivePlayersMaxMoves, id)
	}
	ctx = UpdateActivePlayersOnceEmpty(ctx)

	turn, phase := s.Ctx.Turn, s.Ctx.Phase
	s.Ctx = ctx
	return s.appendLog(LogEntry{
		Action:    gameEventLog(EventEndStage, logArg(arg)),
		StateID:   s.StateID,
		Turn:      turn,
		Phase:     phase,
		Automatic: ev.automatic,
	})
}

func logArg[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

// --- Public surface ---

// Ctx returns the initial context for a match with numPlayers players.
func (f *Flow) Ctx(numPlayers int) Ctx {
	return Ctx{
		NumPlayers:    numPlayers,
		Turn:          0,
		CurrentPlayer: "0",
		PlayOrder:     defaultPlayOrder(numPlayers),
		PlayOrderPos:  0,
		Phase:         f.startingPhase,
	}
}

// Init starts the game: the starting phase and its first turn begin.
func (f *Flow) Init(s State) State {
	return f.process(s, []flowEvent{{kind: stepStartGame}})
}

// IsPlayerActive reports whether playerID may act. When a set of active
// players exists only they may act, otherwise only the current player.
func (f *Flow) IsPlayerActive(ctx Ctx, playerID string) bool {
	if ctx.ActivePlayers != nil {
		_, ok := ctx.ActivePlayers[playerID]
		return ok
	}
	return ctx.CurrentPlayer == playerID
}

// getMove resolves a move by name: the player's stage first, then the
// current phase, then the global moves.
func (f *Flow) getMove(ctx Ctx, name, playerID string) *moveEntry {
	conf := f.phase(ctx)
	if stage, ok := ctx.ActivePlayers[playerID]; ok && stage != StageNull {
		if sc, ok := conf.turn.stages[stage]; ok && sc.moves != nil {
			return sc.moves[name]
		}
	}
	if conf.moves != nil {
		return conf.moves[name]
	}
	return f.moves[name]
}

// GetMove returns the declaration of the named move available to playerID.
func (f *Flow) GetMove(ctx Ctx, name, playerID string) (Move, bool) {
	e := f.getMove(ctx, name, playerID)
	if e == nil {
		return Move{}, false
	}
	return e.move, true
}

// ProcessMove updates move counters after a successful move, runs onMove and
// the end-of-move triggers.
func (f *Flow) ProcessMove(s State, payload ActionPayload) State {
	ctx := s.Ctx
	id := payload.PlayerID
	entry := f.getMove(ctx, payload.Type, id)

	if entry == nil || !entry.move.NoLimit {
		if id == ctx.CurrentPlayer {
			ctx.NumMoves++
		}
		if ctx.ActivePlayers != nil {
			numMoves := copyIntMap(ctx.ActivePlayersNumMoves)
			if numMoves == nil {
				numMoves = map[string]int{}
			}
			numMoves[id]++
			ctx.ActivePlayersNumMoves = numMoves
		}
	}
	s.Ctx = ctx

	if limit, ok := ctx.ActivePlayersMaxMoves[id]; ok && ctx.ActivePlayersNumMoves[id] >= limit {
		s = f.endStage(s, flowEvent{kind: stepEndStage, playerID: id, automatic: true}, nil)
	}

	s.G = f.phase(s.Ctx).turn.onMove(s, id)
	return f.process(s, []flowEvent{{kind: stepOnMove}})
}

// ProcessEvent applies a GAME_EVENT action to the flow.
func (f *Flow) ProcessEvent(s State, a Action) State {
	if a.Payload == nil {
		return s
	}
	p := a.Payload
	var arg any
	if len(p.Args) > 0 {
		arg = p.Args[0]
	}
	turn, phase := s.Ctx.Turn, s.Ctx.Phase

	var ev flowEvent
	switch EventType(p.Type) {
	case EventEndStage:
		ev = flowEvent{kind: stepEndStage, playerID: p.PlayerID}
	case EventSetStage:
		ev = flowEvent{kind: stepEndStage, stageArg: decodeStageArg(arg), playerID: p.PlayerID}
	case EventSetActivePlayers:
		ev = flowEvent{kind: stepUpdateActivePlayers, activeArg: decodeActivePlayersArg(arg)}
	case EventSetPhase:
		ev = flowEvent{kind: stepEndPhase, phaseArg: decodePhaseArg(arg), turn: turn, phase: phase}
	case EventEndPhase:
		ev = flowEvent{kind: stepEndPhase, turn: turn, phase: phase}
	case EventEndTurn:
		ev = flowEvent{kind: stepEndTurn, turnArg: decodeTurnArg(arg), turn: turn, phase: phase}
	case EventPass:
		ev = flowEvent{kind: stepEndTurn, turnArg: decodeTurnArg(arg), turn: turn, phase: phase, force: true}
	case EventEndGame:
		ev = flowEvent{kind: stepEndGame, gameover: arg, turn: turn, phase: phase}
	default:
		f.logger.Warn("unknown event", zap.String("event", p.Type))
		return s
	}
	return f.process(s, []flowEvent{ev})
}

// EventNames lists every event the flow handles.
func (f *Flow) EventNames() []EventType {
	return append([]EventType(nil), AllEvents...)
}

// EnabledEventNames lists the events players may dispatch directly.
func (f *Flow) EnabledEventNames() []EventType {
	out := make([]EventType, 0, len(AllEvents))
	for _, e := range AllEvents {
		if f.game.EventEnabled(e) {
			out = append(out, e)
		}
	}
	return out
}

// MoveNames lists every move declared globally, in phases or in stages.
func (f *Flow) MoveNames() []string {
	return append([]string(nil), f.moveNames...)
}

// PhaseNames lists the declared phases, sorted.
func (f *Flow) PhaseNames() []string {
	names := make([]string, 0, len(f.phases))
	for name := range f.phases {
		if name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// StartingPhase returns the phase the game starts in, or "" for none.
func (f *Flow) StartingPhase() string {
	return f.startingPhase
}

// --- Argument decoding ---

func decodeStageArg(v any) *StageArg {
	switch a := v.(type) {
	case nil:
		return nil
	case string:
		return &StageArg{Stage: a}
	case StageArg:
		return &a
	case *StageArg:
		return a
	}
	a, ok := decodeAs[StageArg](v)
	if !ok {
		return nil
	}
	return &a
}

func decodeTurnArg(v any) *TurnArg {
	switch a := v.(type) {
	case nil, bool:
		return nil
	case string:
		return &TurnArg{Next: a}
	case TurnArg:
		return &a
	case *TurnArg:
		return a
	}
	a, ok := decodeAs[TurnArg](v)
	if !ok {
		return nil
	}
	return &a
}

func decodePhaseArg(v any) *PhaseArg {
	switch a := v.(type) {
	case nil:
		return nil
	case string:
		return &PhaseArg{Next: a}
	case PhaseArg:
		return &a
	case *PhaseArg:
		return a
	}
	a, ok := decodeAs[PhaseArg](v)
	if !ok {
		return nil
	}
	return &a
}

func decodeActivePlayersArg(v any) *ActivePlayersArg {
	switch a := v.(type) {
	case nil:
		return nil
	case ActivePlayersArg:
		return &a
	case *ActivePlayersArg:
		return a
	case []string:
		l := ActivePlayersList(a...)
		return &l
	case []any:
		ids := make([]string, 0, len(a))
		for _, id := range a {
			ids = append(ids, fmt.Sprint(id))
		}
		l := ActivePlayersList(ids...)
		return &l
	}
	a, ok := decodeAs[ActivePlayersArg](v)
	if !ok {
		return nil
	}
	return &a
}
