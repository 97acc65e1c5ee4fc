package engine

import "fmt"

// DefaultNumPlayers is used when a match is created without a player count.
const DefaultNumPlayers = 2

// InitializeGame creates the initial state of a match: plugins are set up,
// the game's setup runs, then the flow starts the first phase and turn.
func InitializeGame(game *ProcessedGame, numPlayers int, setupData any) (State, error) {
	if numPlayers <= 0 {
		numPlayers = DefaultNumPlayers
	}
	if game.MinPlayers > 0 && numPlayers < game.MinPlayers {
		return State{}, fmt.Errorf("%w: %d players, need at least %d", ErrInvalidSetup, numPlayers, game.MinPlayers)
	}
	if game.MaxPlayers > 0 && numPlayers > game.MaxPlayers {
		return State{}, fmt.Errorf("%w: %d players, at most %d allowed", ErrInvalidSetup, numPlayers, game.MaxPlayers)
	}
	if game.ValidateSetupData != nil {
		if err := game.ValidateSetupData(setupData, numPlayers); err != nil {
			return State{}, fmt.Errorf("%w: %w", ErrInvalidSetup, err)
		}
	}

	s := State{
		G:       map[string]any{},
		Ctx:     game.Flow.Ctx(numPlayers),
		Plugins: map[string]PluginState{},
	}
	s = game.SetupPlugins(s)
	s = game.Enhance(s, "")

	G := game.Setup(newContext(s, ""), setupData)
	if G == nil {
		G = map[string]any{}
	}
	s.G = G

	s = game.Flow.Init(s)
	s, invalid := game.FlushAndValidate(s)
	if invalid != nil {
		return State{}, fmt.Errorf("%w: %s", ErrInvalidSetup, invalid.String())
	}

	s.Undo = nil
	s.Redo = nil
	if !game.DisableUndo {
		s.Undo = []UndoEntry{{G: s.G, Ctx: s.Ctx, Plugins: s.Plugins}}
	}
	return s, nil
}
