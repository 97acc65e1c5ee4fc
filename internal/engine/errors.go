package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidMove is returned by a move to declare it invalid for the current state.
	ErrInvalidMove = errors.New("invalid move")
	// ErrNotSerializable is reported when a move result cannot be encoded as JSON.
	ErrNotSerializable = errors.New("move state is not JSON-serializable")
	// ErrInvalidGameName is returned when a game name is malformed.
	ErrInvalidGameName = errors.New("invalid game name")
	// ErrInvalidPluginName is returned when a plugin name is missing, malformed or duplicated.
	ErrInvalidPluginName = errors.New("invalid plugin name")
	// ErrInvalidSetup is returned when a match cannot be initialized.
	ErrInvalidSetup = errors.New("invalid setup")
)

// ErrorType classifies a transient error attached to a state.
type ErrorType string

const (
	ErrorStaleStateID        ErrorType = "action/stale_state_id"
	ErrorUnavailableMove     ErrorType = "action/unavailable_move"
	ErrorInvalidMove         ErrorType = "action/invalid_move"
	ErrorInactivePlayer      ErrorType = "action/inactive_player"
	ErrorGameOver            ErrorType = "action/gameover"
	ErrorActionDisabled      ErrorType = "action/action_disabled"
	ErrorActionInvalid       ErrorType = "action/action_invalid"
	ErrorPluginActionInvalid ErrorType = "action/plugin_invalid"

	ErrorUnauthorizedAction ErrorType = "update/unauthorized_action"
	ErrorMatchNotFound      ErrorType = "update/match_not_found"
	ErrorPatchFailed        ErrorType = "update/patch_failed"
)

// ActionError is the rejection reason of an action.
type ActionError struct {
	Type    ErrorType `json:"type"`
	Payload any       `json:"payload,omitempty"`
}

func (e *ActionError) Error() string {
	if e.Payload == nil {
		return string(e.Type)
	}
	return fmt.Sprintf("%s: %v", e.Type, e.Payload)
}

// InvalidPlugin is the payload of a PluginActionInvalid error.
type InvalidPlugin struct {
	Plugin  string `json:"plugin"`
	Message string `json:"message"`
}

func (p InvalidPlugin) String() string {
	return p.Plugin + " plugin declared action invalid: " + p.Message
}

// PatchError is the payload of a PatchFailed error.
type PatchError struct {
	Index   int    `json:"index"`
	Op      string `json:"op"`
	Message string `json:"message"`
}

func (p PatchError) String() string {
	return fmt.Sprintf("operation %d (%s) failed: %s", p.Index, p.Op, p.Message)
}

// WithError attaches a transient error to the state without touching game data.
func WithError(s State, t ErrorType, payload any) State {
	s.Transients = &Transients{Error: &ActionError{Type: t, Payload: payload}}
	return s
}

// ExtractTransients splits a state into its persistent part and its transients.
func ExtractTransients(s State) (State, *Transients) {
	t := s.Transients
	s.Transients = nil
	return s, t
}
