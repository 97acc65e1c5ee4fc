package engine

import (
	"fmt"
	"runtime"
	"strings"
)

// EventType names a flow event.
type EventType string

const (
	EventEndStage         EventType = "endStage"
	EventSetStage         EventType = "setStage"
	EventEndTurn          EventType = "endTurn"
	EventPass             EventType = "pass"
	EventEndPhase         EventType = "endPhase"
	EventSetPhase         EventType = "setPhase"
	EventEndGame          EventType = "endGame"
	EventSetActivePlayers EventType = "setActivePlayers"
)

// AllEvents lists every event in dispatch-table order.
var AllEvents = []EventType{
	EventEndStage, EventSetStage, EventEndTurn, EventPass,
	EventEndPhase, EventSetPhase, EventEndGame, EventSetActivePlayers,
}

// GameMethod identifies which game function is currently running.
type GameMethod string

const (
	MethodMove         GameMethod = "MOVE"
	MethodGameOnEnd    GameMethod = "GAME_ON_END"
	MethodPhaseOnBegin GameMethod = "PHASE_ON_BEGIN"
	MethodPhaseOnEnd   GameMethod = "PHASE_ON_END"
	MethodTurnOnBegin  GameMethod = "TURN_ON_BEGIN"
	MethodTurnOnMove   GameMethod = "TURN_ON_MOVE"
	MethodTurnOnEnd    GameMethod = "TURN_ON_END"
)

const (
	msgCalledOutsideHook = "Events must be called from moves or the `onBegin`, `onEnd`, and `onMove` hooks.\n" +
		"This error probably means you called an event from other game code, like an `endIf` trigger or one of the `turn.order` methods."
	msgEndTurnInOnEnd    = "`endTurn` is disallowed in `onEnd` hooks — the turn is already ending."
	msgMaxTurnEndings    = "Maximum number of turn endings exceeded for this update.\nThis likely means game code is triggering an infinite loop."
	msgPhaseEventInOnEnd = "`setPhase` & `endPhase` are disallowed in a phase’s `onEnd` hook — the phase is already ending.\n" +
		"If you’re trying to dynamically choose the next phase when a phase ends, use the phase’s `next` trigger."
	msgStageEventInOnEnd      = "`setStage`, `endStage` & `setActivePlayers` are disallowed in `onEnd` hooks."
	msgStageEventInPhaseBegin = "`setStage`, `endStage` & `setActivePlayers` are disallowed in a phase’s `onBegin` hook.\n" +
		"Use `setActivePlayers` in a `turn.onBegin` hook or declare stages with `turn.activePlayers` instead."
	msgStageEventInTurnBegin = "`setStage` & `endStage` are disallowed in `turn.onBegin`.\n" +
		"Use `setActivePlayers` or declare stages with `turn.activePlayers` instead."
)

type queuedEvent struct {
	typ        EventType
	args       []any
	phase      string
	turn       int
	calledFrom GameMethod
	stack      string
}

// Events queues flow events from moves and hooks. Queued events are
// replayed against the flow when the action is flushed.
type Events struct {
	flow     *Flow
	playerID string

	dispatch    []queuedEvent
	initialTurn int
	maxEndings  int

	currentPhase  string
	currentTurn   int
	currentMethod GameMethod
}

func newEvents(flow *Flow, ctx Ctx, playerID string) *Events {
	e := &Events{
		flow:        flow,
		playerID:    playerID,
		initialTurn: ctx.Turn,
		maxEndings:  ctx.NumPlayers * 100,
	}
	e.updateTurnContext(ctx, "")
	return e
}

func (e *Events) EndStage()                           { e.push(EventEndStage) }
func (e *Events) SetStage(arg StageArg)               { e.push(EventSetStage, arg) }
func (e *Events) EndPhase()                           { e.push(EventEndPhase) }
func (e *Events) SetPhase(phase string)               { e.push(EventSetPhase, PhaseArg{Next: phase}) }
func (e *Events) SetActivePlayers(a ActivePlayersArg) { e.push(EventSetActivePlayers, a) }

// EndTurn ends the turn. An optional argument picks the next player.
func (e *Events) EndTurn(arg ...TurnArg) { e.push(EventEndTurn, variadic(arg)...) }

// Pass ends the turn; with Remove set the player leaves the play order.
func (e *Events) Pass(arg ...TurnArg) { e.push(EventPass, variadic(arg)...) }

// EndGame ends the match. A nil gameover is recorded as true.
func (e *Events) EndGame(gameover any) { e.push(EventEndGame, gameover) }

// Dispatch queues an event by name.
func (e *Events) Dispatch(t EventType, args ...any) { e.push(t, args...) }

func variadic[T any](arg []T) []any {
	if len(arg) == 0 {
		return nil
	}
	return []any{arg[0]}
}

func (e *Events) push(t EventType, args ...any) {
	e.dispatch = append(e.dispatch, queuedEvent{
		typ:        t,
		args:       args,
		phase:      e.currentPhase,
		turn:       e.currentTurn,
		calledFrom: e.currentMethod,
		stack:      callerStack(),
	})
}

func callerStack() string {
	pcs := make([]uintptr, 16)
	n := runtime.Callers(4, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	var b strings.Builder
	for {
		f, more := frames.Next()
		fmt.Fprintf(&b, "    at %s (%s:%d)\n", f.Function, f.File, f.Line)
		if !more {
			break
		}
	}
	return b.String()
}

// Used reports whether any event was queued.
func (e *Events) Used() bool { return len(e.dispatch) > 0 }

func (e *Events) updateTurnContext(ctx Ctx, method GameMethod) {
	e.currentPhase = ctx.Phase
	e.currentTurn = ctx.Turn
	e.currentMethod = method
}

func (e *Events) unsetCurrentMethod() {
	e.currentMethod = ""
}

// update replays the queue against the flow. Hooks run by the flow may queue
// further events, which are processed in the same pass.
func (e *Events) update(s State) State {
	initial := s
	withError := func(ev queuedEvent, msg string) State {
		ps := initial.Plugins[eventsPluginName]
		ps.Data = eventsData{Error: msg + "\n" + ev.stack}
		return initial.withPlugin(eventsPluginName, ps)
	}

	for i := 0; i < len(e.dispatch); i++ {
		ev := e.dispatch[i]
		turnHasEnded := ev.turn != s.Ctx.Turn

		if e.currentTurn-e.initialTurn >= e.maxEndings {
			return withError(ev, msgMaxTurnEndings)
		}
		if ev.calledFrom == "" {
			return withError(ev, msgCalledOutsideHook)
		}
		if s.Ctx.IsGameOver() {
			break
		}

		switch ev.typ {
		case EventEndStage, EventSetStage, EventSetActivePlayers:
			switch ev.calledFrom {
			case MethodTurnOnEnd, MethodPhaseOnEnd:
				return withError(ev, msgStageEventInOnEnd)
			case MethodPhaseOnBegin:
				return withError(ev, msgStageEventInPhaseBegin)
			case MethodTurnOnBegin:
				if ev.typ != EventSetActivePlayers {
					return withError(ev, msgStageEventInTurnBegin)
				}
			}
			if turnHasEnded {
				continue
			}
		case EventEndTurn:
			if ev.calledFrom == MethodTurnOnEnd || ev.calledFrom == MethodPhaseOnEnd {
				return withError(ev, msgEndTurnInOnEnd)
			}
			if turnHasEnded {
				continue
			}
		case EventEndPhase, EventSetPhase:
			if ev.calledFrom == MethodPhaseOnEnd {
				return withError(ev, msgPhaseEventInOnEnd)
			}
			if ev.phase != s.Ctx.Phase {
				continue
			}
		}

		s = e.flow.ProcessEvent(s, AutomaticGameEvent(ev.typ, ev.args, e.playerID))
	}
	return s
}

type eventsData struct {
	Error string `json:"error,omitempty"`
}

// eventsPlugin exposes Events to moves and hooks and replays them on flush.
type eventsPlugin struct{}

func (eventsPlugin) Name() string { return eventsPluginName }

func (eventsPlugin) API(pc PluginContext) any {
	return newEvents(pc.Game.Flow, pc.Ctx, pc.PlayerID)
}

func (eventsPlugin) Wrap(fn MoveFn, method GameMethod) MoveFn {
	return func(c *Context, args ...any) (any, error) {
		if c.Events == nil {
			return fn(c, args...)
		}
		c.Events.updateTurnContext(c.Ctx, method)
		defer c.Events.unsetCurrentMethod()
		return fn(c, args...)
	}
}

func (eventsPlugin) FlushRaw(s State, pc PluginContext) State {
	e, ok := pc.API.(*Events)
	if !ok {
		return s
	}
	return e.update(s)
}

func (eventsPlugin) NoClient(pc PluginContext) bool {
	e, ok := pc.API.(*Events)
	return ok && e.Used()
}

func (eventsPlugin) IsInvalid(pc PluginContext) string {
	d, _ := DecodePluginData[eventsData](pc.Data)
	return d.Error
}
