package engine

import (
	"encoding/json"

	"go.uber.org/zap"
)

// Plugin is an extension that owns a slice of the state. A plugin opts into
// pipeline stages by implementing the capability interfaces below.
type Plugin interface {
	Name() string
}

// PluginContext is what the pipeline hands to a plugin.
type PluginContext struct {
	G        any
	Ctx      Ctx
	Game     *ProcessedGame
	Data     any
	API      any
	PlayerID string
}

// SetupPlugin returns the initial plugin data when a match is created.
type SetupPlugin interface {
	Plugin
	Setup(pc PluginContext) any
}

// APIPlugin builds the ephemeral API exposed to moves and hooks.
type APIPlugin interface {
	Plugin
	API(pc PluginContext) any
}

// FlushPlugin converts a used API back into plugin data.
type FlushPlugin interface {
	Plugin
	Flush(pc PluginContext) any
}

// RawFlushPlugin may rewrite the entire state when flushed.
type RawFlushPlugin interface {
	Plugin
	FlushRaw(s State, pc PluginContext) State
}

// WrapPlugin decorates every move and hook of the game.
type WrapPlugin interface {
	Plugin
	Wrap(fn MoveFn, method GameMethod) MoveFn
}

// NoClientPlugin reports that an optimistic client result must be discarded.
type NoClientPlugin interface {
	Plugin
	NoClient(pc PluginContext) bool
}

// ValidatePlugin returns a non-empty message when the flushed state is invalid.
type ValidatePlugin interface {
	Plugin
	IsInvalid(pc PluginContext) string
}

// ViewPlugin filters its data for a given player.
type ViewPlugin interface {
	Plugin
	PlayerView(pc PluginContext) any
}

// ActionHandlerPlugin handles PLUGIN actions addressed to it.
type ActionHandlerPlugin interface {
	Plugin
	Action(data any, payload ActionPayload) any
}

// setupOrder is the order plugins are set up and enhanced in.
func (g *ProcessedGame) setupOrder() []Plugin {
	out := make([]Plugin, 0, len(g.core)+len(g.Plugins))
	out = append(out, g.core...)
	return append(out, g.Plugins...)
}

// wrapOrder is the order wrappers are folded in: core plugins innermost,
// the events plugin outermost.
func (g *ProcessedGame) wrapOrder() []Plugin {
	return append(g.setupOrder(), g.events)
}

func (g *ProcessedGame) pluginContext(s State, name, playerID string) PluginContext {
	ps := s.Plugins[name]
	return PluginContext{G: s.G, Ctx: s.Ctx, Game: g, Data: ps.Data, API: ps.API, PlayerID: playerID}
}

// SetupPlugins stores the initial data of every plugin that has any.
func (g *ProcessedGame) SetupPlugins(s State) State {
	for _, p := range g.setupOrder() {
		sp, ok := p.(SetupPlugin)
		if !ok {
			continue
		}
		data := sp.Setup(PluginContext{G: s.G, Ctx: s.Ctx, Game: g})
		s = s.withPlugin(p.Name(), PluginState{Data: data})
	}
	return s
}

// Enhance attaches a fresh API to every plugin that provides one.
func (g *ProcessedGame) Enhance(s State, playerID string) State {
	for _, p := range g.wrapOrder() {
		ap, ok := p.(APIPlugin)
		if !ok {
			continue
		}
		ps := s.Plugins[p.Name()]
		ps.API = ap.API(g.pluginContext(s, p.Name(), playerID))
		s = s.withPlugin(p.Name(), ps)
	}
	return s
}

// flushOrder runs the events plugin first so that queued events are
// processed before other plugins persist their data.
func (g *ProcessedGame) flushOrder() []Plugin {
	order := g.wrapOrder()
	out := make([]Plugin, 0, len(order))
	for i := len(order) - 1; i >= 0; i-- {
		out = append(out, order[i])
	}
	return out
}

// Flush folds every plugin API back into plugin data and drops the APIs.
func (g *ProcessedGame) Flush(s State) State {
	for _, p := range g.flushOrder() {
		name := p.Name()
		switch fp := p.(type) {
		case FlushPlugin:
			data := fp.Flush(g.pluginContext(s, name, ""))
			s = s.withPlugin(name, PluginState{Data: data})
		case RawFlushPlugin:
			s = fp.FlushRaw(s, g.pluginContext(s, name, ""))
			s = s.withPlugin(name, PluginState{Data: s.Plugins[name].Data})
		}
	}
	return s
}

// NoClient reports whether any plugin vetoes an optimistic client update.
func (g *ProcessedGame) NoClient(s State) bool {
	for _, p := range g.wrapOrder() {
		if nc, ok := p.(NoClientPlugin); ok && nc.NoClient(g.pluginContext(s, p.Name(), "")) {
			return true
		}
	}
	return false
}

// IsInvalid returns the first plugin that declares the state invalid.
func (g *ProcessedGame) IsInvalid(s State) *InvalidPlugin {
	for _, p := range g.wrapOrder() {
		vp, ok := p.(ValidatePlugin)
		if !ok {
			continue
		}
		if msg := vp.IsInvalid(g.pluginContext(s, p.Name(), "")); msg != "" {
			return &InvalidPlugin{Plugin: p.Name(), Message: msg}
		}
	}
	return nil
}

// FlushAndValidate flushes the state, then checks it with every validating plugin.
func (g *ProcessedGame) FlushAndValidate(s State) (State, *InvalidPlugin) {
	s = g.Flush(s)
	invalid := g.IsInvalid(s)
	if invalid != nil {
		g.logger.Error("plugin declared action invalid",
			zap.String("plugin", invalid.Plugin), zap.String("message", invalid.Message))
	}
	return s, invalid
}

// ProcessAction routes a PLUGIN action to the game plugin it names.
func (g *ProcessedGame) ProcessAction(s State, payload ActionPayload) State {
	for _, p := range g.Plugins {
		ap, ok := p.(ActionHandlerPlugin)
		if !ok || p.Name() != payload.Type {
			continue
		}
		ps := s.Plugins[p.Name()]
		ps.Data = ap.Action(ps.Data, payload)
		s = s.withPlugin(p.Name(), ps)
	}
	return s
}

// PluginsView returns the plugin data visible to playerID.
func (g *ProcessedGame) PluginsView(s State, playerID string) map[string]PluginState {
	plugins := s.Plugins
	for _, p := range g.setupOrder() {
		vp, ok := p.(ViewPlugin)
		if !ok {
			continue
		}
		data := vp.PlayerView(g.pluginContext(s, p.Name(), playerID))
		next := make(map[string]PluginState, len(plugins))
		for k, v := range plugins {
			next[k] = v
		}
		next[p.Name()] = PluginState{Data: data}
		plugins = next
	}
	return plugins
}

// GetAPIs collects the API of every enhanced plugin by name.
func GetAPIs(s State) map[string]any {
	apis := make(map[string]any, len(s.Plugins))
	for name, ps := range s.Plugins {
		if ps.API != nil {
			apis[name] = ps.API
		}
	}
	return apis
}

// DecodePluginData reads plugin data as T. Data that went through a JSON
// round trip arrives as generic maps and is re-decoded.
func DecodePluginData[T any](data any) (T, bool) {
	return decodeAs[T](data)
}

func decodeAs[T any](data any) (T, bool) {
	var out T
	if data == nil {
		return out, false
	}
	if v, ok := data.(T); ok {
		return v, true
	}
	if v, ok := data.(*T); ok && v != nil {
		return *v, true
	}
	b, err := json.Marshal(data)
	if err != nil {
		return out, false
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, false
	}
	return out, true
}
