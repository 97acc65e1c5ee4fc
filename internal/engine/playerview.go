package engine

// PlayerView returns the state as seen by playerID. An empty playerID is a
// spectator. Undo history is dropped since it carries unfiltered snapshots.
func PlayerView(game *ProcessedGame, s State, playerID string) State {
	view := s
	view.G = game.PlayerView(s.G, s.Ctx, playerID)
	view.Plugins = game.PluginsView(s, playerID)
	view.Deltalog = RedactLog(s.Deltalog, playerID)
	view.Undo = nil
	view.Redo = nil
	return view
}

// RedactLog strips the arguments of redacted entries made by other players.
func RedactLog(log []LogEntry, playerID string) []LogEntry {
	if log == nil {
		return nil
	}
	out := make([]LogEntry, len(log))
	for i, e := range log {
		p := e.Action.Payload
		if !e.Redact || (playerID != "" && p != nil && p.PlayerID == playerID) {
			out[i] = e
			continue
		}
		if p != nil {
			redacted := *p
			redacted.Args = nil
			e.Action.Payload = &redacted
		}
		e.Redact = false
		out[i] = e
	}
	return out
}
