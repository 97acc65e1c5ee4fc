package session

import (
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/suderio/turnflow/internal/engine"
	"github.com/suderio/turnflow/internal/parser"
	"github.com/suderio/turnflow/internal/persistence"
)

// ErrNoChange is returned when an action was accepted but did not advance
// the state, such as a strip of transients.
var ErrNoChange = errors.New("action had no effect")

// Store defines the dependency required by Session to persist actions
type Store interface {
	WriteHeader(info persistence.MatchInfo) error
	Append(a engine.Action) error
	Load() (*persistence.MatchInfo, []engine.Action, error)
	Close() error
}

// Option configures a Session.
type Option func(*config)

type config struct {
	store      Store
	logger     *zap.Logger
	matchID    string
	engineOpts []engine.Option
}

// WithStore journals every accepted action to st.
func WithStore(st Store) Option {
	return func(c *config) { c.store = st }
}

// WithLogger sets the logger of the session and of the engine.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithMatchID overrides the generated match id.
func WithMatchID(id string) Option {
	return func(c *config) { c.matchID = id }
}

// WithEngineOptions passes options through to engine.Compile.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(c *config) { c.engineOpts = append(c.engineOpts, opts...) }
}

// Session manages the cohesive loop of taking commands, running them through
// the reducer, persisting accepted actions and keeping the match log.
// A Session is not safe for concurrent use.
type Session struct {
	game    *engine.ProcessedGame
	reducer *engine.Reducer
	state   engine.State
	log     []engine.LogEntry
	info    persistence.MatchInfo
	store   Store
	logger  *zap.Logger
}

func newConfig(opts []Option) *config {
	c := &config{}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.matchID == "" {
		c.matchID = uuid.NewString()
	}
	return c
}

func compile(def *engine.Game, c *config) (*engine.ProcessedGame, error) {
	opts := append([]engine.Option{engine.WithLogger(c.logger)}, c.engineOpts...)
	return engine.Compile(def, opts...)
}

// New starts a match of def. When a store is configured, the match header is
// written before anything else.
func New(def *engine.Game, numPlayers int, setupData any, opts ...Option) (*Session, error) {
	c := newConfig(opts)
	game, err := compile(def, c)
	if err != nil {
		return nil, err
	}

	state, err := engine.InitializeGame(game, numPlayers, setupData)
	if err != nil {
		return nil, err
	}

	s := &Session{
		game:    game,
		reducer: engine.NewReducer(game, false),
		state:   state,
		store:   c.store,
		logger:  c.logger,
		info: persistence.MatchInfo{
			ID:         c.matchID,
			Game:       game.Name,
			NumPlayers: state.Ctx.NumPlayers,
			Seed:       engine.MatchSeed(state),
			SetupData:  setupData,
		},
	}

	if s.store != nil {
		if err := s.store.WriteHeader(s.info); err != nil {
			return nil, fmt.Errorf("failed to persist match header: %w", err)
		}
	}
	s.logger.Info("match started",
		zap.String("match", s.info.ID), zap.String("game", s.info.Game), zap.Int("players", s.info.NumPlayers))
	return s, nil
}

// Replay rebuilds a match by folding its journaled actions through the
// reducer. Any rejected action means the journal does not belong to def.
func Replay(def *engine.Game, info persistence.MatchInfo, actions []engine.Action, opts ...Option) (*Session, error) {
	seeded := *def
	seeded.Seed = info.Seed

	c := newConfig(append([]Option{WithMatchID(info.ID)}, opts...))
	store := c.store
	c.store = nil

	game, err := compile(&seeded, c)
	if err != nil {
		return nil, err
	}
	if info.Game != "" && info.Game != game.Name {
		return nil, fmt.Errorf("journal is for game %q, not %q", info.Game, game.Name)
	}

	state, err := engine.InitializeGame(game, info.NumPlayers, info.SetupData)
	if err != nil {
		return nil, err
	}

	s := &Session{
		game:    game,
		reducer: engine.NewReducer(game, false),
		state:   state,
		info:    info,
		logger:  c.logger,
	}
	for i, a := range actions {
		if err := s.Dispatch(a); err != nil && !errors.Is(err, ErrNoChange) {
			return nil, fmt.Errorf("replay action %d (%s): %w", i, a.Type, err)
		}
	}

	s.store = store
	return s, nil
}

// Resume replays the journal held by store and keeps journaling to it.
func Resume(def *engine.Game, store Store, opts ...Option) (*Session, error) {
	info, actions, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load journal: %w", err)
	}
	if info == nil {
		return nil, persistence.ErrNoHeader
	}
	return Replay(def, *info, actions, append(opts, WithStore(store))...)
}

// Game returns the compiled game of the match.
func (s *Session) Game() *engine.ProcessedGame {
	return s.game
}

// Info returns the match header.
func (s *Session) Info() persistence.MatchInfo {
	return s.info
}

// State returns the current state, without transients.
func (s *Session) State() engine.State {
	return s.state
}

// View returns the state as seen by playerID; "" is a spectator.
func (s *Session) View(playerID string) engine.State {
	return engine.PlayerView(s.game, s.state, playerID)
}

// Log returns the match log as seen by playerID.
func (s *Session) Log(playerID string) []engine.LogEntry {
	return engine.RedactLog(s.log, playerID)
}

// Dispatch applies a to the current state.
func (s *Session) Dispatch(a engine.Action) error {
	return s.DispatchAt(a, s.state.StateID)
}

// DispatchAt applies a built against clientStateID. Stale actions are
// rejected unless the move ignores stale state ids. Rejections are returned
// as *engine.ActionError and leave the state untouched.
func (s *Session) DispatchAt(a engine.Action, clientStateID int) error {
	if !s.game.CheckStateID(s.state, a, clientStateID) {
		s.logger.Debug("stale action",
			zap.Int("stateID", s.state.StateID), zap.Int("clientStateID", clientStateID))
		return &engine.ActionError{Type: engine.ErrorStaleStateID}
	}

	next, transients := engine.ExtractTransients(s.reducer.Reduce(s.state, a))
	if transients != nil && transients.Error != nil {
		s.logger.Debug("action rejected", zap.String("action", string(a.Type)), zap.Error(transients.Error))
		return transients.Error
	}
	// Plugin actions only touch plugin data and keep the state id.
	if next.StateID == s.state.StateID && a.Type != engine.ActionPlugin {
		return ErrNoChange
	}

	if next.StateID != s.state.StateID {
		s.log = append(s.log, next.Deltalog...)
	}
	s.state = next

	if s.store != nil {
		if err := s.store.Append(a); err != nil {
			return fmt.Errorf("failed to persist action: %w", err)
		}
	}
	return nil
}

// Result is what a command produced.
type Result struct {
	// Action is the dispatched action; nil for queries.
	Action *engine.Action
	// Entries are the log entries the action added.
	Entries []engine.LogEntry
	View    *engine.State
	History []engine.LogEntry
	Help    string
}

// Execute takes a raw command string, builds the action it names and
// dispatches it. Moves and events without "by:" act as the current player.
func (s *Session) Execute(input string) (*Result, error) {
	cmd, err := parser.Parse(input)
	if err != nil {
		return nil, err
	}

	var a engine.Action
	switch {
	case cmd.Move != nil:
		a = engine.MakeMove(cmd.Move.Name, parser.Values(cmd.Move.Args), s.actor(cmd.Move.Actor), "")
	case cmd.Event != nil:
		if !slices.Contains(s.game.Flow.EventNames(), engine.EventType(cmd.Event.Name)) {
			return nil, fmt.Errorf("unknown event %q", cmd.Event.Name)
		}
		a = engine.GameEvent(engine.EventType(cmd.Event.Name), parser.Values(cmd.Event.Args), s.actor(cmd.Event.Actor), "")
	case cmd.Undo != nil:
		a = engine.Undo(parser.PlayerOf(cmd.Undo.Actor), "")
	case cmd.Redo != nil:
		a = engine.Redo(parser.PlayerOf(cmd.Redo.Actor), "")
	case cmd.State != nil:
		viewer := ""
		if cmd.State.Viewer != nil {
			viewer = cmd.State.Viewer.Player
		}
		view := s.View(viewer)
		return &Result{View: &view}, nil
	case cmd.Log != nil:
		return &Result{History: s.Log("")}, nil
	case cmd.Help != nil:
		return &Result{Help: parser.Usage()}, nil
	default:
		return nil, fmt.Errorf("unsupported command pattern")
	}

	before := len(s.log)
	if err := s.Dispatch(a); err != nil {
		return nil, err
	}
	return &Result{Action: &a, Entries: s.log[before:]}, nil
}

func (s *Session) actor(a *parser.ActorExpr) string {
	if id := parser.PlayerOf(a); id != "" {
		return id
	}
	return s.state.Ctx.CurrentPlayer
}

// Close releases the journal, if any.
func (s *Session) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}
