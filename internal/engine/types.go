// Package engine implements the turn-based game state engine.
// It provides the phase/turn/stage flow state machine, the plugin pipeline
// and the game reducer that evolves a State one action at a time.
package engine

import "encoding/json"

// StageNull marks a player as active without being in a named stage.
const StageNull = ""

// --- Context ---

// ActivePlayersSnapshot is a saved set of active players, restored when a
// set created with Revert empties.
type ActivePlayersSnapshot struct {
	ActivePlayers         map[string]string `json:"activePlayers"`
	ActivePlayersMinMoves map[string]int    `json:"_activePlayersMinMoves"`
	ActivePlayersMaxMoves map[string]int    `json:"_activePlayersMaxMoves"`
	ActivePlayersNumMoves map[string]int    `json:"_activePlayersNumMoves"`
}

// Ctx is the engine-managed part of the state.
// A nil ActivePlayers map means no player set is active; an empty non-nil map
// only exists transiently and is normalized back to nil.
type Ctx struct {
	NumPlayers    int               `json:"numPlayers"`
	PlayOrder     []string          `json:"playOrder"`
	PlayOrderPos  int               `json:"playOrderPos"`
	ActivePlayers map[string]string `json:"activePlayers"`
	CurrentPlayer string            `json:"currentPlayer"`
	NumMoves      int               `json:"numMoves"`
	Gameover      any               `json:"gameover,omitempty"`
	Turn          int               `json:"turn"`
	Phase         string            `json:"phase"`

	ActivePlayersMinMoves map[string]int          `json:"_activePlayersMinMoves"`
	ActivePlayersMaxMoves map[string]int          `json:"_activePlayersMaxMoves"`
	ActivePlayersNumMoves map[string]int          `json:"_activePlayersNumMoves"`
	PrevActivePlayers     []ActivePlayersSnapshot `json:"_prevActivePlayers"`
	NextActivePlayers     *ActivePlayersArg       `json:"_nextActivePlayers"`
}

// IsGameOver reports whether the match has reached a terminal state.
func (c Ctx) IsGameOver() bool {
	return c.Gameover != nil
}

// MarshalJSON writes an empty phase as null.
func (c Ctx) MarshalJSON() ([]byte, error) {
	type plain Ctx
	return json.Marshal(struct {
		plain
		Phase *string `json:"phase"`
	}{plain(c), phaseOrNil(c.Phase)})
}

func phaseOrNil(phase string) *string {
	if phase == "" {
		return nil
	}
	return &phase
}

// --- State ---

// PluginState holds the persisted data of a plugin and its ephemeral API.
type PluginState struct {
	Data any `json:"data"`
	API  any `json:"-"`
}

// UndoEntry is a snapshot pushed onto the undo/redo stacks.
type UndoEntry struct {
	G        any                    `json:"G"`
	Ctx      Ctx                    `json:"ctx"`
	Plugins  map[string]PluginState `json:"plugins"`
	PlayerID string                 `json:"playerID,omitempty"`
	MoveType string                 `json:"moveType,omitempty"`
}

// LogEntry records one action processed by a transition.
type LogEntry struct {
	Action    Action `json:"action"`
	StateID   int    `json:"_stateID"`
	Turn      int    `json:"turn"`
	Phase     string `json:"phase"`
	Redact    bool   `json:"redact,omitempty"`
	Automatic bool   `json:"automatic,omitempty"`
	Metadata  any    `json:"metadata,omitempty"`
}

// MarshalJSON writes an empty phase as null.
func (e LogEntry) MarshalJSON() ([]byte, error) {
	type plain LogEntry
	return json.Marshal(struct {
		plain
		Phase *string `json:"phase"`
	}{plain(e), phaseOrNil(e.Phase)})
}

// Transients carries annotations that are never persisted.
type Transients struct {
	Error *ActionError `json:"error,omitempty"`
}

// State is the unit of truth passed between reducer invocations.
type State struct {
	G          any                    `json:"G"`
	Ctx        Ctx                    `json:"ctx"`
	Plugins    map[string]PluginState `json:"plugins"`
	Undo       []UndoEntry            `json:"_undo"`
	Redo       []UndoEntry            `json:"_redo"`
	StateID    int                    `json:"_stateID"`
	Deltalog   []LogEntry             `json:"deltalog,omitempty"`
	Transients *Transients            `json:"transients,omitempty"`
}

// withPlugin returns a copy of the state whose plugin map has name set to ps.
func (s State) withPlugin(name string, ps PluginState) State {
	plugins := make(map[string]PluginState, len(s.Plugins)+1)
	for k, v := range s.Plugins {
		plugins[k] = v
	}
	plugins[name] = ps
	s.Plugins = plugins
	return s
}

// appendLog returns a copy of the state with entry appended to the deltalog.
func (s State) appendLog(entry LogEntry) State {
	log := make([]LogEntry, 0, len(s.Deltalog)+1)
	log = append(log, s.Deltalog...)
	s.Deltalog = append(log, entry)
	return s
}

// --- Helpers ---

func copyStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyIntMap(m map[string]int) map[string]int {
	if m == nil {
		return nil
	}
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// nilIfEmpty normalizes an empty map to nil.
func nilIfEmpty[V any](m map[string]V) map[string]V {
	if len(m) == 0 {
		return nil
	}
	return m
}
