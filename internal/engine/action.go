package engine

import "encoding/json"

// ActionType is the literal type string of a dispatched action.
type ActionType string

const (
	ActionMakeMove        ActionType = "MAKE_MOVE"
	ActionGameEvent       ActionType = "GAME_EVENT"
	ActionUndo            ActionType = "UNDO"
	ActionRedo            ActionType = "REDO"
	ActionReset           ActionType = "RESET"
	ActionSync            ActionType = "SYNC"
	ActionUpdate          ActionType = "UPDATE"
	ActionPatch           ActionType = "PATCH"
	ActionPlugin          ActionType = "PLUGIN"
	ActionStripTransients ActionType = "STRIP_TRANSIENTS"
)

// ActionPayload is the payload of MAKE_MOVE, GAME_EVENT, UNDO, REDO and PLUGIN.
// An empty PlayerID means the action carries no player.
type ActionPayload struct {
	Type        string `json:"type"`
	Args        []any  `json:"args"`
	PlayerID    string `json:"playerID,omitempty"`
	Credentials string `json:"credentials,omitempty"`
}

// hasPlayerID reports whether an acting player was supplied.
func (p *ActionPayload) hasPlayerID() bool {
	return p != nil && p.PlayerID != ""
}

// Action is a dispatched reducer input.
type Action struct {
	Type        ActionType      `json:"type"`
	Payload     *ActionPayload  `json:"payload,omitempty"`
	State       *State          `json:"state,omitempty"`
	Deltalog    []LogEntry      `json:"deltalog,omitempty"`
	Patch       json.RawMessage `json:"patch,omitempty"`
	PrevStateID int             `json:"prevStateID,omitempty"`
	StateID     int             `json:"stateID,omitempty"`
	Automatic   bool            `json:"automatic,omitempty"`
}

// MakeMove creates a MAKE_MOVE action.
func MakeMove(moveType string, args []any, playerID, credentials string) Action {
	return Action{
		Type:    ActionMakeMove,
		Payload: &ActionPayload{Type: moveType, Args: args, PlayerID: playerID, Credentials: credentials},
	}
}

// GameEvent creates a GAME_EVENT action.
func GameEvent(eventType EventType, args []any, playerID, credentials string) Action {
	return Action{
		Type:    ActionGameEvent,
		Payload: &ActionPayload{Type: string(eventType), Args: args, PlayerID: playerID, Credentials: credentials},
	}
}

// AutomaticGameEvent creates a GAME_EVENT triggered by game code rather than a player.
func AutomaticGameEvent(eventType EventType, args []any, playerID string) Action {
	a := GameEvent(eventType, args, playerID, "")
	a.Automatic = true
	return a
}

// Undo creates an UNDO action.
func Undo(playerID, credentials string) Action {
	return Action{Type: ActionUndo, Payload: &ActionPayload{PlayerID: playerID, Credentials: credentials}}
}

// Redo creates a REDO action.
func Redo(playerID, credentials string) Action {
	return Action{Type: ActionRedo, Payload: &ActionPayload{PlayerID: playerID, Credentials: credentials}}
}

// Sync replaces the state with one fetched from an authority.
func Sync(state State, log []LogEntry) Action {
	return Action{Type: ActionSync, State: &state, Deltalog: log}
}

// Update replaces the state after an authoritative transition.
func Update(state State, deltalog []LogEntry) Action {
	return Action{Type: ActionUpdate, State: &state, Deltalog: deltalog}
}

// Reset replaces the state with an initial state.
func Reset(state State) Action {
	return Action{Type: ActionReset, State: &state}
}

// Patch creates a PATCH action carrying an RFC 6902 document.
func Patch(prevStateID, stateID int, patch json.RawMessage, deltalog []LogEntry) Action {
	return Action{Type: ActionPatch, PrevStateID: prevStateID, StateID: stateID, Patch: patch, Deltalog: deltalog}
}

// PluginAction routes a raw action to the plugin named pluginType.
func PluginAction(pluginType string, args []any, playerID, credentials string) Action {
	return Action{
		Type:    ActionPlugin,
		Payload: &ActionPayload{Type: pluginType, Args: args, PlayerID: playerID, Credentials: credentials},
	}
}

// StripTransients creates the no-op carrier used by transient handling middleware.
func StripTransients() Action {
	return Action{Type: ActionStripTransients}
}

// gameEventLog builds the action recorded in the deltalog for flow events.
func gameEventLog(eventType EventType, arg any) Action {
	var args []any
	if arg != nil {
		args = []any{arg}
	}
	return GameEvent(eventType, args, "", "")
}
