package engine

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// --- Game definition ---

// MoveFn is the body of a move or, once adapted, of a hook.
// Returning (nil, nil) keeps whatever the function did to c.G in place;
// returning ErrInvalidMove rejects the move.
type MoveFn func(c *Context, args ...any) (any, error)

// HookFn is a flow hook. A nil result keeps the in-place changes made to c.G.
type HookFn func(c *Context) any

// Predicate is evaluated against the state a move was made on.
type Predicate func(G any, ctx Ctx) bool

// Bool returns a Predicate with a constant answer.
func Bool(b bool) Predicate {
	return func(any, Ctx) bool { return b }
}

// Move is a move declaration. A Move with only Move set is the short form.
type Move struct {
	Move MoveFn
	// Undoable defaults to true when nil.
	Undoable Predicate
	// Redact hides the move arguments from other players' logs.
	Redact Predicate
	// ServerOnly moves are never applied optimistically on a client.
	ServerOnly bool
	// NoLimit moves are not counted against move limits.
	NoLimit bool
	// IgnoreStaleStateID moves are accepted even when the client is behind.
	IgnoreStaleStateID bool
}

// TurnOrder decides who plays and in which order within a phase.
// Next returning false ends the phase.
type TurnOrder struct {
	PlayOrder func(c *Context) []string
	First     func(c *Context) int
	Next      func(c *Context) (int, bool)
}

// Stage is a named sub-mode of a turn.
type Stage struct {
	Moves map[string]Move
	Next  string
}

// Turn configures turns within a phase.
type Turn struct {
	Order         *TurnOrder
	ActivePlayers *ActivePlayersArg
	MinMoves      int
	MaxMoves      int
	// Deprecated: MoveLimit sets both MinMoves and MaxMoves.
	MoveLimit int

	OnBegin HookFn
	OnEnd   HookFn
	OnMove  HookFn
	// EndIf returns a non-nil argument to end the turn.
	EndIf  func(c *Context) *TurnArg
	Stages map[string]Stage
}

// Phase configures a phase of the game.
type Phase struct {
	Start bool
	Next  string
	// NextFn overrides Next and may return "" for no phase.
	NextFn  func(c *Context) string
	Moves   map[string]Move
	Turn    *Turn
	OnBegin HookFn
	OnEnd   HookFn
	// EndIf returns a non-nil argument to end the phase.
	EndIf func(c *Context) *PhaseArg
}

// Game is an author-supplied game definition.
type Game struct {
	Name       string
	MinPlayers int
	MaxPlayers int
	// Seed for the random plugin; a fresh one is generated when empty.
	Seed string

	Setup             func(c *Context, setupData any) any
	ValidateSetupData func(setupData any, numPlayers int) error

	Moves  map[string]Move
	Phases map[string]Phase
	Turn   *Turn

	// DisabledEvents cannot be dispatched by players as GAME_EVENT actions.
	DisabledEvents []EventType

	// EndIf returns a truthy gameover value to end the game. nil, false,
	// zero and "" keep it going.
	EndIf func(c *Context) any
	OnEnd HookFn

	PlayerView func(G any, ctx Ctx, playerID string) any
	Plugins    []Plugin

	DisableUndo bool
	DeltaState  bool
}

// --- Move/hook context ---

// Context is what moves, hooks and triggers receive.
type Context struct {
	G        any
	Ctx      Ctx
	PlayerID string

	Events *Events
	Random *Random
	Log    *LogAPI

	apis map[string]any
}

// Plugin returns the API of the named plugin, or nil.
func (c *Context) Plugin(name string) any {
	return c.apis[name]
}

func newContext(s State, playerID string) *Context {
	apis := GetAPIs(s)
	c := &Context{G: s.G, Ctx: s.Ctx, PlayerID: playerID, apis: apis}
	c.Events, _ = apis[eventsPluginName].(*Events)
	c.Random, _ = apis[randomPluginName].(*Random)
	c.Log, _ = apis[logPluginName].(*LogAPI)
	return c
}

// --- Processed game ---

// Option configures Compile.
type Option func(*ProcessedGame)

// WithLogger sets the logger used for author misconfiguration and rejected actions.
func WithLogger(l *zap.Logger) Option {
	return func(g *ProcessedGame) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithProduction disables development-time checks such as the serializable guard.
func WithProduction(production bool) Option {
	return func(g *ProcessedGame) { g.production = production }
}

// ProcessedGame is a validated game definition bound to its flow.
type ProcessedGame struct {
	Game
	Flow *Flow

	core       []Plugin
	events     Plugin
	wrappers   []WrapPlugin
	disabled   map[EventType]bool
	logger     *zap.Logger
	production bool
}

// Compile validates a game definition, applies defaults and builds its flow.
func Compile(game *Game, opts ...Option) (*ProcessedGame, error) {
	g := &ProcessedGame{Game: *game, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(g)
	}

	if g.Name == "" {
		g.Name = "default"
	}
	if strings.Contains(g.Name, " ") {
		return nil, fmt.Errorf("%w: %q must not include spaces", ErrInvalidGameName, g.Name)
	}
	if g.Setup == nil {
		g.Setup = func(*Context, any) any { return map[string]any{} }
	}
	if g.Moves == nil {
		g.Moves = map[string]Move{}
	}
	if g.PlayerView == nil {
		g.PlayerView = func(G any, _ Ctx, _ string) any { return G }
	}

	g.core = []Plugin{immerPlugin{}, randomPlugin{}, logPlugin{}, serializablePlugin{production: g.production}}
	g.events = eventsPlugin{}

	if err := g.validatePlugins(); err != nil {
		return nil, err
	}

	for _, p := range g.wrapOrder() {
		if w, ok := p.(WrapPlugin); ok {
			g.wrappers = append(g.wrappers, w)
		}
	}

	g.disabled = make(map[EventType]bool, len(g.DisabledEvents))
	for _, e := range g.DisabledEvents {
		g.disabled[e] = true
	}

	g.Flow = newFlow(g)
	return g, nil
}

func (g *ProcessedGame) validatePlugins() error {
	seen := map[string]bool{eventsPluginName: true}
	for _, p := range g.core {
		seen[p.Name()] = true
	}
	for _, p := range g.Plugins {
		if p == nil || p.Name() == "" {
			return fmt.Errorf("%w: plugin missing name", ErrInvalidPluginName)
		}
		name := p.Name()
		if strings.Contains(name, " ") {
			return fmt.Errorf("%w: %q must not include spaces", ErrInvalidPluginName, name)
		}
		if seen[name] {
			return fmt.Errorf("%w: duplicate plugin %q", ErrInvalidPluginName, name)
		}
		seen[name] = true
	}
	return nil
}

// Logger returns the logger the game was compiled with.
func (g *ProcessedGame) Logger() *zap.Logger {
	return g.logger
}

// PluginNames lists the game-supplied plugins in declaration order.
func (g *ProcessedGame) PluginNames() []string {
	names := make([]string, 0, len(g.Plugins))
	for _, p := range g.Plugins {
		names = append(names, p.Name())
	}
	return names
}

// MoveNames lists every move name declared anywhere in the game, sorted.
func (g *ProcessedGame) MoveNames() []string {
	return g.Flow.MoveNames()
}

// EventEnabled reports whether players may dispatch the event directly.
func (g *ProcessedGame) EventEnabled(e EventType) bool {
	return !g.disabled[e]
}

// ProcessMove runs the move named by the payload through the plugin wrappers
// and returns the resulting G.
func (g *ProcessedGame) ProcessMove(s State, payload ActionPayload) (any, error) {
	entry := g.Flow.getMove(s.Ctx, payload.Type, payload.PlayerID)
	if entry == nil || entry.wrapped == nil {
		g.logger.Error("invalid move object", zap.String("move", payload.Type))
		return s.G, nil
	}
	c := newContext(s, payload.PlayerID)
	return entry.wrapped(c, payload.Args...)
}

// CheckStateID reports whether an action built against clientStateID may be
// applied to s. Moves declared IgnoreStaleStateID are always accepted.
func (g *ProcessedGame) CheckStateID(s State, a Action, clientStateID int) bool {
	if clientStateID == s.StateID {
		return true
	}
	if a.Type != ActionMakeMove || a.Payload == nil {
		return false
	}
	playerID := a.Payload.PlayerID
	if playerID == "" {
		playerID = s.Ctx.CurrentPlayer
	}
	entry := g.Flow.getMove(s.Ctx, a.Payload.Type, playerID)
	return entry != nil && entry.move.IgnoreStaleStateID
}

// wrap folds every wrapper plugin around fn, core plugins innermost and the
// events plugin outermost.
func (g *ProcessedGame) wrap(fn MoveFn, method GameMethod) MoveFn {
	for _, w := range g.wrappers {
		fn = w.Wrap(fn, method)
	}
	return fn
}

// hook adapts a HookFn into a MoveFn and wraps it.
func (g *ProcessedGame) hook(h HookFn, method GameMethod) hookRunner {
	if h == nil {
		h = func(c *Context) any { return c.G }
	}
	fn := g.wrap(func(c *Context, _ ...any) (any, error) {
		return h(c), nil
	}, method)
	return func(s State, playerID string) any {
		G, err := fn(newContext(s, playerID))
		if err != nil {
			g.logger.Error("hook failed", zap.String("method", string(method)), zap.Error(err))
			return s.G
		}
		return G
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
