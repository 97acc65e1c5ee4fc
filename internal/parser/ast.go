package parser

import (
	"strings"
)

// Command represents one line of the command language
type Command struct {
	Move  *MoveCmd  `parser:"( @@"`
	Event *EventCmd `parser:"| @@"`
	Undo  *UndoCmd  `parser:"| @@"`
	Redo  *RedoCmd  `parser:"| @@"`
	State *StateCmd `parser:"| @@"`
	Log   *LogCmd   `parser:"| @@"`
	Help  *HelpCmd  `parser:"| @@ )"`
}

// MoveCmd makes a move with positional arguments
type MoveCmd struct {
	Keyword string     `parser:"@\"move\""`
	Name    string     `parser:"@Ident"`
	Args    []*Value   `parser:"@@*"`
	Actor   *ActorExpr `parser:"@@?"`
}

// EventCmd dispatches a flow event such as endTurn
type EventCmd struct {
	Keyword string     `parser:"@\"event\""`
	Name    string     `parser:"@Ident"`
	Args    []*Value   `parser:"@@*"`
	Actor   *ActorExpr `parser:"@@?"`
}

// UndoCmd reverts the last move of the turn
type UndoCmd struct {
	Keyword string     `parser:"@\"undo\""`
	Actor   *ActorExpr `parser:"@@?"`
}

// RedoCmd replays the last undone move
type RedoCmd struct {
	Keyword string     `parser:"@\"redo\""`
	Actor   *ActorExpr `parser:"@@?"`
}

// StateCmd prints the state, optionally as seen by one player
type StateCmd struct {
	Keyword string      `parser:"@\"state\""`
	Viewer  *ViewerExpr `parser:"@@?"`
}

// LogCmd prints the match log
type LogCmd struct {
	Keyword string `parser:"@\"log\""`
}

// HelpCmd lists the available commands
type HelpCmd struct {
	Keyword string `parser:"@\"help\""`
}

// ActorExpr maps parsing the optional "by: player" block
type ActorExpr struct {
	Keyword string `parser:"\"by\" \":\""`
	Player  string `parser:"@(Ident|Int|String)"`
}

// ViewerExpr maps parsing the optional "as: player" block
type ViewerExpr struct {
	Keyword string `parser:"\"as\" \":\""`
	Player  string `parser:"@(Ident|Int|String)"`
}

// Value is a literal argument. Bare words are strings.
type Value struct {
	Float  *float64 `parser:"  @Float"`
	Int    *int64   `parser:"| @Int"`
	String *string  `parser:"| @(String|Ident)"`
	Bool   *string  `parser:"| @(\"true\"|\"false\")"`
	Null   bool     `parser:"| @\"null\""`
}

// Any returns the Go value of the literal.
func (v *Value) Any() any {
	switch {
	case v.Float != nil:
		return *v.Float
	case v.Int != nil:
		return *v.Int
	case v.String != nil:
		return *v.String
	case v.Bool != nil:
		return strings.EqualFold(*v.Bool, "true")
	}
	return nil
}

// Values converts a list of literals to Go values.
func Values(vs []*Value) []any {
	if len(vs) == 0 {
		return nil
	}
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = v.Any()
	}
	return out
}

// PlayerOf returns the player named by an optional actor block.
func PlayerOf(a *ActorExpr) string {
	if a == nil {
		return ""
	}
	return a.Player
}
