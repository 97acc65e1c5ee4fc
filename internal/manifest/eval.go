package manifest

import (
	"fmt"
	"math"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/ext"

	"github.com/suderio/turnflow/internal/engine"
)

// Evaluator wraps a CEL environment configured for manifest formulas.
// Programs are compiled once and cached by source.
type Evaluator struct {
	env      *cel.Env
	programs map[string]cel.Program

	mu     sync.Mutex
	random *engine.Random
}

// Scope is the set of variables a formula is evaluated against.
type Scope struct {
	G        any
	Ctx      engine.Ctx
	PlayerID string
	Args     []any
	Params   map[string]any
	Random   *engine.Random
}

// NewEvaluator creates a CEL environment with the variables and functions
// available to manifest formulas.
func NewEvaluator() (*Evaluator, error) {
	ev := &Evaluator{programs: map[string]cel.Program{}}

	env, err := cel.NewEnv(
		ext.Strings(),
		ext.Lists(),

		cel.Variable("G", cel.DynType),
		cel.Variable("ctx", cel.DynType),
		cel.Variable("playerID", cel.StringType),
		cel.Variable("args", cel.ListType(cel.DynType)),
		cel.Variable("params", cel.MapType(cel.StringType, cel.DynType)),

		// set returns a copy of a map or list with one entry replaced.
		cel.Function("set",
			cel.Overload("set_dyn_dyn_dyn",
				[]*cel.Type{cel.DynType, cel.DynType, cel.DynType},
				cel.DynType,
				cel.FunctionBinding(func(args ...ref.Val) ref.Val {
					out, err := setEntry(native(args[0]), native(args[1]), native(args[2]))
					if err != nil {
						return types.NewErr("set: %v", err)
					}
					return types.DefaultTypeAdapter.NativeToValue(toCEL(out))
				}),
			),
		),
		cel.Function("die",
			cel.Overload("die_int",
				[]*cel.Type{cel.IntType},
				cel.IntType,
				cel.UnaryBinding(func(val ref.Val) ref.Val {
					if ev.random == nil {
						return types.NewErr("die: no random source")
					}
					spots, _ := val.Value().(int64)
					return types.Int(ev.random.Die(int(spots)))
				}),
			),
		),
		cel.Function("roll",
			cel.Overload("roll_string",
				[]*cel.Type{cel.StringType},
				cel.IntType,
				cel.UnaryBinding(func(val ref.Val) ref.Val {
					notation, _ := val.Value().(string)
					res, err := Roll(ev.random, notation)
					if err != nil {
						return types.NewErr("roll: %v", err)
					}
					return types.Int(res.Total)
				}),
			),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	ev.env = env
	return ev, nil
}

// Compile checks formula and caches its program.
func (ev *Evaluator) Compile(formula string) error {
	ev.mu.Lock()
	defer ev.mu.Unlock()
	_, err := ev.program(formula)
	return err
}

func (ev *Evaluator) program(formula string) (cel.Program, error) {
	if prg, ok := ev.programs[formula]; ok {
		return prg, nil
	}
	ast, issues := ev.env.Compile(formula)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("CEL compile error in %q: %w", formula, issues.Err())
	}
	prg, err := ev.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("CEL program error in %q: %w", formula, err)
	}
	ev.programs[formula] = prg
	return prg, nil
}

// Eval evaluates formula against scope and returns a native Go value.
// CEL integers come back as int64.
func (ev *Evaluator) Eval(formula string, scope Scope) (any, error) {
	ev.mu.Lock()
	defer ev.mu.Unlock()

	prg, err := ev.program(formula)
	if err != nil {
		return nil, err
	}

	ev.random = scope.Random
	defer func() { ev.random = nil }()

	params := scope.Params
	if params == nil {
		params = map[string]any{}
	}
	args := scope.Args
	if args == nil {
		args = []any{}
	}

	out, _, err := prg.Eval(map[string]any{
		"G":        toCEL(scope.G),
		"ctx":      ctxToMap(scope.Ctx),
		"playerID": scope.PlayerID,
		"args":     toCEL(args),
		"params":   toCEL(params),
	})
	if err != nil {
		return nil, fmt.Errorf("CEL eval error in %q: %w", formula, err)
	}
	return native(out), nil
}

// EvalBool evaluates a formula that must produce a bool.
func (ev *Evaluator) EvalBool(formula string, scope Scope) (bool, error) {
	out, err := ev.Eval(formula, scope)
	if err != nil {
		return false, err
	}
	b, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("formula %q returned %T, want bool", formula, out)
	}
	return b, nil
}

// ctxToMap exposes the flow context to formulas with CEL-friendly types.
func ctxToMap(c engine.Ctx) map[string]any {
	active := map[string]any{}
	for id, stage := range c.ActivePlayers {
		active[id] = stage
	}
	playOrder := make([]any, len(c.PlayOrder))
	for i, id := range c.PlayOrder {
		playOrder[i] = id
	}
	return map[string]any{
		"numPlayers":    int64(c.NumPlayers),
		"playOrder":     playOrder,
		"playOrderPos":  int64(c.PlayOrderPos),
		"activePlayers": active,
		"currentPlayer": c.CurrentPlayer,
		"numMoves":      int64(c.NumMoves),
		"turn":          int64(c.Turn),
		"phase":         c.Phase,
		"gameover":      toCEL(c.Gameover),
	}
}

// toCEL converts Go values into the shapes CEL handles dynamically: every
// integer becomes int64, including whole floats left by a JSON round trip.
func toCEL(v any) any {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1<<53 {
			return int64(x)
		}
		return x
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = toCEL(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = toCEL(e)
		}
		return out
	}
	return v
}

// native converts a CEL value to a native Go value, recursively handling
// maps and lists so that downstream code can use plain type assertions.
func native(v any) any {
	switch x := v.(type) {
	case types.Null:
		return nil
	case ref.Val:
		return native(x.Value())
	case map[ref.Val]ref.Val:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[fmt.Sprintf("%v", k.Value())] = native(e)
		}
		return out
	case []ref.Val:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = native(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = native(e)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = native(e)
		}
		return out
	}
	return v
}

func setEntry(container, key, value any) (any, error) {
	switch c := container.(type) {
	case map[string]any:
		out := make(map[string]any, len(c)+1)
		for k, v := range c {
			out[k] = v
		}
		out[fmt.Sprint(key)] = value
		return out, nil
	case []any:
		i, ok := key.(int64)
		if !ok || i < 0 || int(i) >= len(c) {
			return nil, fmt.Errorf("index %v out of range [0, %d)", key, len(c))
		}
		out := append([]any(nil), c...)
		out[i] = value
		return out, nil
	case nil:
		return map[string]any{fmt.Sprint(key): value}, nil
	}
	return nil, fmt.Errorf("cannot set a key on %T", container)
}
