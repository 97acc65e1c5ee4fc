package manifest

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/suderio/turnflow/internal/engine"
)

// ErrInvalidManifest is returned when a manifest cannot be compiled.
var ErrInvalidManifest = errors.New("invalid manifest")

type builder struct {
	ev     *Evaluator
	logger *zap.Logger
}

// Compile turns a manifest into an engine game. Every formula is compiled
// up front, so a manifest that compiles only fails at runtime on data.
func Compile(m *Manifest, logger *zap.Logger) (*engine.Game, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ev, err := NewEvaluator()
	if err != nil {
		return nil, err
	}
	b := &builder{ev: ev, logger: logger}

	game := &engine.Game{
		Name:        m.Name,
		MinPlayers:  m.MinPlayers,
		MaxPlayers:  m.MaxPlayers,
		Seed:        m.Seed,
		DisableUndo: m.DisableUndo,
	}

	for _, e := range m.DisabledEvents {
		if !knownEvent(e) {
			return nil, fmt.Errorf("%w: unknown event %q in disabled_events", ErrInvalidManifest, e)
		}
		game.DisabledEvents = append(game.DisabledEvents, engine.EventType(e))
	}

	if m.Setup != "" {
		if err := b.check("setup", m.Setup); err != nil {
			return nil, err
		}
		game.Setup = b.setup(m.Setup)
	}

	if game.Moves, err = b.moves("moves", m.Moves); err != nil {
		return nil, err
	}

	if m.Turn != nil {
		if game.Turn, err = b.turn("turn", m.Turn); err != nil {
			return nil, err
		}
	}

	if len(m.Phases) > 0 {
		game.Phases = make(map[string]engine.Phase, len(m.Phases))
		for _, name := range sortedKeys(m.Phases) {
			def := m.Phases[name]
			if _, ok := m.Phases[def.Next]; def.Next != "" && !ok {
				return nil, fmt.Errorf("%w: phase %q: next phase %q does not exist", ErrInvalidManifest, name, def.Next)
			}
			p, err := b.phase("phases."+name, def)
			if err != nil {
				return nil, err
			}
			game.Phases[name] = p
		}
	}

	if len(m.EndIf) > 0 {
		for i, o := range m.EndIf {
			if o.If == "" {
				return nil, fmt.Errorf("%w: end_if[%d]: missing if", ErrInvalidManifest, i)
			}
			if err := b.check(fmt.Sprintf("end_if[%d]", i), o.If, o.Result); err != nil {
				return nil, err
			}
		}
		game.EndIf = b.endIf(m.EndIf)
	}

	if m.OnEnd != nil {
		if game.OnEnd, err = b.hook("on_end", m.OnEnd); err != nil {
			return nil, err
		}
	}

	return game, nil
}

// check compiles every non-empty formula.
func (b *builder) check(where string, formulas ...string) error {
	for _, f := range formulas {
		if f == "" {
			continue
		}
		if err := b.ev.Compile(f); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidManifest, where, err)
		}
	}
	return nil
}

func (b *builder) checkEffect(where string, eff Effect) error {
	for i, st := range eff.Update {
		if st.Formula == "" {
			return fmt.Errorf("%w: %s.update[%d]: missing formula", ErrInvalidManifest, where, i)
		}
		if err := b.check(fmt.Sprintf("%s.update[%d]", where, i), st.Formula); err != nil {
			return err
		}
	}
	for i, e := range eff.Events {
		if !knownEvent(e.Event) {
			return fmt.Errorf("%w: %s.events[%d]: unknown event %q", ErrInvalidManifest, where, i, e.Event)
		}
		if err := b.check(fmt.Sprintf("%s.events[%d]", where, i), e.If, e.Arg); err != nil {
			return err
		}
	}
	return nil
}

func knownEvent(name string) bool {
	for _, e := range engine.AllEvents {
		if string(e) == name {
			return true
		}
	}
	return false
}

// scopeOf builds the formula scope of a move or hook. Moves dispatched
// without a player act as the current player.
func scopeOf(c *engine.Context, params []Param, args []any) Scope {
	named := make(map[string]any, len(params))
	for i, p := range params {
		if i < len(args) {
			named[p.Name] = args[i]
		}
	}
	playerID := c.PlayerID
	if playerID == "" {
		playerID = c.Ctx.CurrentPlayer
	}
	return Scope{G: c.G, Ctx: c.Ctx, PlayerID: playerID, Args: args, Params: named, Random: c.Random}
}

// apply runs the update steps of an effect against c.G, then queues its events.
func (b *builder) apply(eff Effect, c *engine.Context, scope Scope) (any, error) {
	for _, st := range eff.Update {
		v, err := b.ev.Eval(st.Formula, scope)
		if err != nil {
			return nil, err
		}
		if st.Key == "" {
			g, ok := v.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("formula %q must return a map to replace G, got %T", st.Formula, v)
			}
			scope.G = g
			continue
		}
		g, ok := scope.G.(map[string]any)
		if !ok {
			g = map[string]any{}
		}
		g[st.Key] = v
		scope.G = g
	}

	for _, e := range eff.Events {
		if e.If != "" {
			ok, err := b.ev.EvalBool(e.If, scope)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		var args []any
		if e.Arg != "" {
			v, err := b.ev.Eval(e.Arg, scope)
			if err != nil {
				return nil, err
			}
			args = append(args, v)
		}
		if c.Events != nil {
			c.Events.Dispatch(engine.EventType(e.Event), args...)
		}
	}
	return scope.G, nil
}

func (b *builder) setup(formula string) func(c *engine.Context, setupData any) any {
	return func(c *engine.Context, setupData any) any {
		scope := scopeOf(c, nil, nil)
		if setupData != nil {
			scope.Args = []any{setupData}
		}
		v, err := b.ev.Eval(formula, scope)
		if err != nil {
			b.logger.Error("setup failed", zap.Error(err))
			return map[string]any{}
		}
		if v == nil {
			return map[string]any{}
		}
		return v
	}
}

func (b *builder) moves(where string, defs map[string]MoveDef) (map[string]engine.Move, error) {
	if len(defs) == 0 {
		return nil, nil
	}
	out := make(map[string]engine.Move, len(defs))
	for _, name := range sortedKeys(defs) {
		mv, err := b.move(where+"."+name, name, defs[name])
		if err != nil {
			return nil, err
		}
		out[name] = mv
	}
	return out, nil
}

func (b *builder) move(where, name string, def MoveDef) (engine.Move, error) {
	for i, p := range def.Prereqs {
		if p.Formula == "" {
			return engine.Move{}, fmt.Errorf("%w: %s.prereq[%d]: missing formula", ErrInvalidManifest, where, i)
		}
		if err := b.check(fmt.Sprintf("%s.prereq[%d]", where, i), p.Formula); err != nil {
			return engine.Move{}, err
		}
	}
	if err := b.checkEffect(where, def.Effect); err != nil {
		return engine.Move{}, err
	}

	fn := func(c *engine.Context, args ...any) (any, error) {
		for i, p := range def.Params {
			if p.Required && (i >= len(args) || args[i] == nil) {
				return nil, fmt.Errorf("%w: %s: missing %s", engine.ErrInvalidMove, name, p.Name)
			}
		}
		scope := scopeOf(c, def.Params, args)
		for _, p := range def.Prereqs {
			ok, err := b.ev.EvalBool(p.Formula, scope)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %v", engine.ErrInvalidMove, name, err)
			}
			if !ok {
				msg := p.Error
				if msg == "" {
					msg = p.Formula
				}
				return nil, fmt.Errorf("%w: %s: %s", engine.ErrInvalidMove, name, msg)
			}
		}
		return b.apply(def.Effect, c, scope)
	}

	mv := engine.Move{
		Move:               fn,
		NoLimit:            def.NoLimit,
		ServerOnly:         def.ServerOnly,
		IgnoreStaleStateID: def.IgnoreStaleStateID,
	}
	if def.Undoable != nil {
		mv.Undoable = engine.Bool(*def.Undoable)
	}
	if def.Redact {
		mv.Redact = engine.Bool(true)
	}
	return mv, nil
}

func (b *builder) hook(where string, eff *Effect) (engine.HookFn, error) {
	if eff == nil {
		return nil, nil
	}
	if err := b.checkEffect(where, *eff); err != nil {
		return nil, err
	}
	return func(c *engine.Context) any {
		G, err := b.apply(*eff, c, scopeOf(c, nil, nil))
		if err != nil {
			b.logger.Error("hook failed", zap.String("hook", where), zap.Error(err))
			return nil
		}
		return G
	}, nil
}

func (b *builder) turn(where string, def *TurnDef) (*engine.Turn, error) {
	t := &engine.Turn{MinMoves: def.MinMoves, MaxMoves: def.MaxMoves}

	switch def.Order {
	case "", "default":
		t.Order = engine.OrderDefault
	case "reset":
		t.Order = engine.OrderReset
	case "continue":
		t.Order = engine.OrderContinue
	case "once":
		t.Order = engine.OrderOnce
	case "custom":
		if len(def.PlayOrder) == 0 {
			return nil, fmt.Errorf("%w: %s: custom order needs play_order", ErrInvalidManifest, where)
		}
		t.Order = engine.OrderCustom(def.PlayOrder)
	case "custom_from":
		if def.PlayOrderField == "" {
			return nil, fmt.Errorf("%w: %s: custom_from order needs play_order_field", ErrInvalidManifest, where)
		}
		t.Order = engine.OrderCustomFrom(def.PlayOrderField)
	default:
		return nil, fmt.Errorf("%w: %s: unknown order %q", ErrInvalidManifest, where, def.Order)
	}

	if def.ActivePlayers != nil {
		arg, err := activePlayers(def.ActivePlayers)
		if err != nil {
			return nil, fmt.Errorf("%w: %s.active_players: %v", ErrInvalidManifest, where, err)
		}
		t.ActivePlayers = &arg
	}

	if def.EndIf != "" {
		if err := b.check(where+".end_if", def.EndIf); err != nil {
			return nil, err
		}
		t.EndIf = b.turnEndIf(where, def.EndIf)
	}

	var err error
	if t.OnBegin, err = b.hook(where+".on_begin", def.OnBegin); err != nil {
		return nil, err
	}
	if t.OnEnd, err = b.hook(where+".on_end", def.OnEnd); err != nil {
		return nil, err
	}
	if t.OnMove, err = b.hook(where+".on_move", def.OnMove); err != nil {
		return nil, err
	}

	if len(def.Stages) > 0 {
		t.Stages = make(map[string]engine.Stage, len(def.Stages))
		for _, name := range sortedKeys(def.Stages) {
			st := def.Stages[name]
			if _, ok := def.Stages[st.Next]; st.Next != "" && !ok {
				return nil, fmt.Errorf("%w: %s.stages.%s: next stage %q does not exist", ErrInvalidManifest, where, name, st.Next)
			}
			moves, err := b.moves(where+".stages."+name, st.Moves)
			if err != nil {
				return nil, err
			}
			t.Stages[name] = engine.Stage{Moves: moves, Next: st.Next}
		}
	}
	return t, nil
}

func activePlayers(def *ActivePlayersDef) (engine.ActivePlayersArg, error) {
	var arg engine.ActivePlayersArg
	switch def.Preset {
	case "":
	case "all":
		arg = engine.ActivePlayersAll
	case "all_once":
		arg = engine.ActivePlayersAllOnce
	case "others":
		arg = engine.ActivePlayersOthers
	case "others_once":
		arg = engine.ActivePlayersOthersOnce
	default:
		return arg, fmt.Errorf("unknown preset %q", def.Preset)
	}
	if def.CurrentPlayer != nil {
		arg.CurrentPlayer = engine.InStage(*def.CurrentPlayer)
	}
	if def.Others != nil {
		arg.Others = engine.InStage(*def.Others)
	}
	if def.All != nil {
		arg.All = engine.InStage(*def.All)
	}
	if def.MinMoves > 0 {
		arg.MinMoves = def.MinMoves
	}
	if def.MaxMoves > 0 {
		arg.MaxMoves = def.MaxMoves
	}
	arg.Revert = def.Revert
	return arg, nil
}

func (b *builder) turnEndIf(where, formula string) func(c *engine.Context) *engine.TurnArg {
	return func(c *engine.Context) *engine.TurnArg {
		v, err := b.ev.Eval(formula, scopeOf(c, nil, nil))
		if err != nil {
			b.logger.Error("end_if failed", zap.String("at", where), zap.Error(err))
			return nil
		}
		switch x := v.(type) {
		case bool:
			if x {
				return &engine.TurnArg{}
			}
		case string:
			return &engine.TurnArg{Next: x}
		case map[string]any:
			arg := &engine.TurnArg{}
			arg.Next, _ = x["next"].(string)
			arg.Remove, _ = x["remove"].(bool)
			return arg
		}
		return nil
	}
}

func (b *builder) phase(where string, def PhaseDef) (engine.Phase, error) {
	p := engine.Phase{Start: def.Start, Next: def.Next}

	var err error
	if p.Moves, err = b.moves(where+".moves", def.Moves); err != nil {
		return p, err
	}
	if def.Turn != nil {
		if p.Turn, err = b.turn(where+".turn", def.Turn); err != nil {
			return p, err
		}
	}
	if def.EndIf != "" {
		if err := b.check(where+".end_if", def.EndIf); err != nil {
			return p, err
		}
		p.EndIf = b.phaseEndIf(where, def.EndIf)
	}
	if p.OnBegin, err = b.hook(where+".on_begin", def.OnBegin); err != nil {
		return p, err
	}
	if p.OnEnd, err = b.hook(where+".on_end", def.OnEnd); err != nil {
		return p, err
	}
	return p, nil
}

func (b *builder) phaseEndIf(where, formula string) func(c *engine.Context) *engine.PhaseArg {
	return func(c *engine.Context) *engine.PhaseArg {
		v, err := b.ev.Eval(formula, scopeOf(c, nil, nil))
		if err != nil {
			b.logger.Error("end_if failed", zap.String("at", where), zap.Error(err))
			return nil
		}
		switch x := v.(type) {
		case bool:
			if x {
				return &engine.PhaseArg{}
			}
		case string:
			return &engine.PhaseArg{Next: x}
		case map[string]any:
			next, _ := x["next"].(string)
			return &engine.PhaseArg{Next: next}
		}
		return nil
	}
}

func (b *builder) endIf(outcomes []Outcome) func(c *engine.Context) any {
	return func(c *engine.Context) any {
		scope := scopeOf(c, nil, nil)
		for i, o := range outcomes {
			ok, err := b.ev.EvalBool(o.If, scope)
			if err != nil {
				b.logger.Error("end_if failed", zap.Int("outcome", i), zap.Error(err))
				continue
			}
			if !ok {
				continue
			}
			if o.Result == "" {
				return true
			}
			v, err := b.ev.Eval(o.Result, scope)
			if err != nil || v == nil {
				b.logger.Error("end_if result failed", zap.Int("outcome", i), zap.Error(err))
				return true
			}
			return v
		}
		return nil
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
