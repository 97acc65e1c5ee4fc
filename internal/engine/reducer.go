package engine

import (
	"encoding/json"
	"errors"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"go.uber.org/zap"
)

// Reducer evolves a State one action at a time. It never mutates its input.
type Reducer struct {
	game     *ProcessedGame
	isClient bool
	logger   *zap.Logger
}

// NewReducer builds a reducer for a compiled game. A client reducer applies
// moves optimistically and leaves flow triggers to the authority.
func NewReducer(game *ProcessedGame, isClient bool) *Reducer {
	return &Reducer{game: game, isClient: isClient, logger: game.logger}
}

// Game returns the compiled game the reducer runs.
func (r *Reducer) Game() *ProcessedGame {
	return r.game
}

// Reduce applies a to s. Rejections never fail: they return the previous
// state annotated with a transient error.
func (r *Reducer) Reduce(s State, a Action) State {
	s, _ = ExtractTransients(s)

	switch a.Type {
	case ActionStripTransients:
		return s
	case ActionGameEvent:
		return r.gameEvent(s, a)
	case ActionMakeMove:
		return r.makeMove(s, a)
	case ActionReset, ActionUpdate, ActionSync:
		if a.State == nil {
			return s
		}
		return *a.State
	case ActionUndo:
		return r.undo(s, a)
	case ActionRedo:
		return r.redo(s, a)
	case ActionPlugin:
		if a.Payload == nil {
			return s
		}
		return r.game.ProcessAction(s, *a.Payload)
	case ActionPatch:
		return r.patch(s, a)
	}
	return s
}

func (r *Reducer) gameEvent(s State, a Action) State {
	s.Deltalog = nil
	if r.isClient {
		return s
	}
	if a.Payload == nil {
		return WithError(s, ErrorActionInvalid, "missing payload")
	}
	p := a.Payload

	if s.Ctx.IsGameOver() {
		r.logger.Error("cannot call event after game end", zap.String("event", p.Type))
		return WithError(s, ErrorGameOver, nil)
	}
	if !a.Automatic && !r.game.EventEnabled(EventType(p.Type)) {
		r.logger.Error("disabled event", zap.String("event", p.Type))
		return WithError(s, ErrorActionDisabled, p.Type)
	}
	if p.hasPlayerID() && !r.game.Flow.IsPlayerActive(s.Ctx, p.PlayerID) {
		r.logger.Error("disallowed event", zap.String("event", p.Type), zap.String("playerID", p.PlayerID))
		return WithError(s, ErrorInactivePlayer, nil)
	}

	enhanced := r.game.Enhance(s, p.PlayerID)
	next := r.game.Flow.ProcessEvent(enhanced, a)

	next, invalid := r.game.FlushAndValidate(next)
	if invalid != nil {
		return WithError(s, ErrorPluginActionInvalid, *invalid)
	}

	next = r.updateUndoRedo(next, a)
	next.StateID = s.StateID + 1
	return next
}

func (r *Reducer) makeMove(s State, a Action) State {
	s.Deltalog = nil
	old := s
	if a.Payload == nil {
		return WithError(s, ErrorActionInvalid, "missing payload")
	}
	p := a.Payload

	playerID := p.PlayerID
	if playerID == "" {
		playerID = s.Ctx.CurrentPlayer
	}
	move, ok := r.game.Flow.GetMove(s.Ctx, p.Type, playerID)
	if !ok {
		r.logger.Error("disallowed move", zap.String("move", p.Type))
		return WithError(s, ErrorUnavailableMove, nil)
	}
	if r.isClient && move.ServerOnly {
		return s
	}
	if s.Ctx.IsGameOver() {
		r.logger.Error("cannot make move after game end", zap.String("move", p.Type))
		return WithError(s, ErrorGameOver, nil)
	}
	if p.hasPlayerID() && !r.game.Flow.IsPlayerActive(s.Ctx, p.PlayerID) {
		r.logger.Error("disallowed move", zap.String("move", p.Type), zap.String("playerID", p.PlayerID))
		return WithError(s, ErrorInactivePlayer, nil)
	}

	s = r.game.Enhance(s, p.PlayerID)

	G, err := r.game.ProcessMove(s, *p)
	if err != nil {
		if errors.Is(err, ErrInvalidMove) {
			r.logger.Error("invalid move", zap.String("move", p.Type), zap.Any("args", p.Args))
			return WithError(old, ErrorInvalidMove, nil)
		}
		r.logger.Error("move failed", zap.String("move", p.Type), zap.Error(err))
		return WithError(old, ErrorActionInvalid, err.Error())
	}

	moved := s
	moved.G = G
	if r.isClient && r.game.NoClient(moved) {
		return old
	}
	s = moved

	if r.isClient {
		next, invalid := r.game.FlushAndValidate(s)
		if invalid != nil {
			return WithError(old, ErrorPluginActionInvalid, *invalid)
		}
		next.StateID++
		return next
	}

	s = r.initializeDeltalog(s, a, &move)
	s = r.game.Flow.ProcessMove(s, *p)

	next, invalid := r.game.FlushAndValidate(s)
	if invalid != nil {
		return WithError(old, ErrorPluginActionInvalid, *invalid)
	}

	next = r.updateUndoRedo(next, a)
	next.StateID++
	return next
}

func (r *Reducer) undo(s State, a Action) State {
	s.Deltalog = nil
	if r.game.DisableUndo {
		r.logger.Error("undo is not enabled")
		return WithError(s, ErrorActionDisabled, nil)
	}
	if len(s.Undo) < 2 {
		r.logger.Error("no moves to undo")
		return WithError(s, ErrorActionInvalid, "no moves to undo")
	}

	last := s.Undo[len(s.Undo)-1]
	restore := s.Undo[len(s.Undo)-2]

	if a.Payload.hasPlayerID() && a.Payload.PlayerID != last.PlayerID {
		r.logger.Error("cannot undo other players' moves", zap.String("playerID", a.Payload.PlayerID))
		return WithError(s, ErrorActionInvalid, "cannot undo other players' moves")
	}

	if last.MoveType != "" {
		move, _ := r.game.Flow.GetMove(restore.Ctx, last.MoveType, last.PlayerID)
		if !CanUndoMove(s.G, s.Ctx, move) {
			r.logger.Error("move cannot be undone", zap.String("move", last.MoveType))
			return WithError(s, ErrorActionInvalid, "move cannot be undone")
		}
	}

	s = r.initializeDeltalog(s, a, nil)
	s.G = restore.G
	s.Ctx = restore.Ctx
	s.Plugins = restore.Plugins
	s.StateID++
	s.Undo = append([]UndoEntry(nil), s.Undo[:len(s.Undo)-1]...)
	s.Redo = append([]UndoEntry{last}, s.Redo...)
	return s
}

func (r *Reducer) redo(s State, a Action) State {
	s.Deltalog = nil
	if r.game.DisableUndo {
		r.logger.Error("redo is not enabled")
		return WithError(s, ErrorActionDisabled, nil)
	}
	if len(s.Redo) == 0 {
		r.logger.Error("no moves to redo")
		return WithError(s, ErrorActionInvalid, "no moves to redo")
	}

	first := s.Redo[0]
	if a.Payload.hasPlayerID() && a.Payload.PlayerID != first.PlayerID {
		r.logger.Error("cannot redo other players' moves", zap.String("playerID", a.Payload.PlayerID))
		return WithError(s, ErrorActionInvalid, "cannot redo other players' moves")
	}

	s = r.initializeDeltalog(s, a, nil)
	s.G = first.G
	s.Ctx = first.Ctx
	s.Plugins = first.Plugins
	s.StateID++
	s.Undo = append(append([]UndoEntry(nil), s.Undo...), first)
	s.Redo = append([]UndoEntry(nil), s.Redo[1:]...)
	return s
}

func (r *Reducer) patch(s State, a Action) State {
	old := s
	next, perr := applyPatch(s, a.Patch)
	if perr != nil {
		r.logger.Error("patch apply failed", zap.ByteString("patch", a.Patch), zap.String("error", perr.String()))
		return WithError(old, ErrorPatchFailed, *perr)
	}
	return next
}

// applyPatch applies an RFC 6902 document to the JSON form of s, one
// operation at a time so that a failure can be attributed.
func applyPatch(s State, patch json.RawMessage) (State, *PatchError) {
	var ops []json.RawMessage
	if err := json.Unmarshal(patch, &ops); err != nil {
		return s, &PatchError{Index: 0, Message: err.Error()}
	}

	doc, err := json.Marshal(s)
	if err != nil {
		return s, &PatchError{Index: 0, Message: err.Error()}
	}

	for i, raw := range ops {
		var head struct {
			Op string `json:"op"`
		}
		_ = json.Unmarshal(raw, &head)

		p, err := jsonpatch.DecodePatch([]byte("[" + string(raw) + "]"))
		if err != nil {
			return s, &PatchError{Index: i, Op: head.Op, Message: err.Error()}
		}
		if doc, err = p.Apply(doc); err != nil {
			return s, &PatchError{Index: i, Op: head.Op, Message: err.Error()}
		}
	}

	var next State
	if err := json.Unmarshal(doc, &next); err != nil {
		return s, &PatchError{Index: len(ops) - 1, Message: fmt.Sprintf("decode patched state: %v", err)}
	}
	return next, nil
}

// initializeDeltalog starts the deltalog of a transition with the entry of
// the action that caused it.
func (r *Reducer) initializeDeltalog(s State, a Action, move *Move) State {
	entry := LogEntry{
		Action:  a,
		StateID: s.StateID,
		Turn:    s.Ctx.Turn,
		Phase:   s.Ctx.Phase,
	}
	if md, ok := logMetadata(s); ok {
		entry.Metadata = md
	}
	if move != nil && move.Redact != nil {
		entry.Redact = move.Redact(s.G, s.Ctx)
	}
	s.Deltalog = []LogEntry{entry}
	return s
}

func (r *Reducer) updateUndoRedo(s State, a Action) State {
	if r.game.DisableUndo {
		return s
	}
	playerID := s.Ctx.CurrentPlayer
	if a.Payload.hasPlayerID() {
		playerID = a.Payload.PlayerID
	}
	entry := UndoEntry{G: s.G, Ctx: s.Ctx, Plugins: s.Plugins, PlayerID: playerID}
	if a.Type == ActionMakeMove {
		entry.MoveType = a.Payload.Type
	}
	s.Undo = append(append([]UndoEntry(nil), s.Undo...), entry)
	s.Redo = nil
	return s
}

// CanUndoMove reports whether a move made on (G, ctx) may be undone.
func CanUndoMove(G any, ctx Ctx, move Move) bool {
	if move.Undoable == nil {
		return true
	}
	return move.Undoable(G, ctx)
}
