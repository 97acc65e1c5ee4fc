// Package manifest loads declarative game definitions from YAML and compiles
// them into engine games whose moves, hooks and triggers are CEL formulas.
package manifest

// Manifest is the root of a game definition file.
type Manifest struct {
	Name        string `yaml:"name"`
	MinPlayers  int    `yaml:"min_players"`
	MaxPlayers  int    `yaml:"max_players"`
	Seed        string `yaml:"seed"`
	DisableUndo bool   `yaml:"disable_undo"`

	// Setup is a formula returning the initial G map.
	Setup string `yaml:"setup"`

	Moves  map[string]MoveDef  `yaml:"moves"`
	Turn   *TurnDef            `yaml:"turn"`
	Phases map[string]PhaseDef `yaml:"phases"`

	// EndIf outcomes are checked in order; the first that holds ends the game.
	EndIf []Outcome `yaml:"end_if"`
	OnEnd *Effect   `yaml:"on_end"`

	DisabledEvents []string `yaml:"disabled_events"`
}

// Param names a positional move argument.
type Param struct {
	Name     string `yaml:"name"`
	Required bool   `yaml:"required"`
}

// Prereq is a boolean formula that must hold for a move to be valid.
type Prereq struct {
	Formula string `yaml:"formula"`
	Error   string `yaml:"error"`
}

// Step assigns the result of Formula to G[Key]. An empty Key replaces G.
type Step struct {
	Key     string `yaml:"key"`
	Formula string `yaml:"formula"`
}

// EventDef queues a flow event, optionally guarded by If.
type EventDef struct {
	Event string `yaml:"event"`
	If    string `yaml:"if"`
	Arg   string `yaml:"arg"`
}

// Effect is what a move or hook does: update G, then queue events.
type Effect struct {
	Update []Step     `yaml:"update"`
	Events []EventDef `yaml:"events"`
}

// MoveDef declares one move.
type MoveDef struct {
	Params  []Param  `yaml:"params"`
	Prereqs []Prereq `yaml:"prereq"`
	Effect  `yaml:",inline"`

	Undoable           *bool `yaml:"undoable"`
	Redact             bool  `yaml:"redact"`
	NoLimit            bool  `yaml:"no_limit"`
	ServerOnly         bool  `yaml:"server_only"`
	IgnoreStaleStateID bool  `yaml:"ignore_stale_state_id"`
}

// ActivePlayersDef describes an active player set. A nil stage pointer leaves
// that group out; an empty stage name makes it active outside any stage.
type ActivePlayersDef struct {
	Preset        string  `yaml:"preset"`
	CurrentPlayer *string `yaml:"current_player"`
	Others        *string `yaml:"others"`
	All           *string `yaml:"all"`
	MinMoves      int     `yaml:"min_moves"`
	MaxMoves      int     `yaml:"max_moves"`
	Revert        bool    `yaml:"revert"`
}

// StageDef declares a stage of a turn.
type StageDef struct {
	Moves map[string]MoveDef `yaml:"moves"`
	Next  string             `yaml:"next"`
}

// TurnDef configures turns.
type TurnDef struct {
	// Order is one of default, reset, continue, once, custom, custom_from.
	Order          string   `yaml:"order"`
	PlayOrder      []string `yaml:"play_order"`
	PlayOrderField string   `yaml:"play_order_field"`

	MinMoves      int               `yaml:"min_moves"`
	MaxMoves      int               `yaml:"max_moves"`
	ActivePlayers *ActivePlayersDef `yaml:"active_players"`

	// EndIf returns true, a next player id, or a {next, remove} map.
	EndIf   string  `yaml:"end_if"`
	OnBegin *Effect `yaml:"on_begin"`
	OnEnd   *Effect `yaml:"on_end"`
	OnMove  *Effect `yaml:"on_move"`

	Stages map[string]StageDef `yaml:"stages"`
}

// PhaseDef configures a phase.
type PhaseDef struct {
	Start bool               `yaml:"start"`
	Next  string             `yaml:"next"`
	Moves map[string]MoveDef `yaml:"moves"`
	Turn  *TurnDef           `yaml:"turn"`

	// EndIf returns true, a next phase name, or a {next} map.
	EndIf   string  `yaml:"end_if"`
	OnBegin *Effect `yaml:"on_begin"`
	OnEnd   *Effect `yaml:"on_end"`
}

// Outcome ends the game with Result when If holds. An empty Result is true.
type Outcome struct {
	If     string `yaml:"if"`
	Result string `yaml:"result"`
}
