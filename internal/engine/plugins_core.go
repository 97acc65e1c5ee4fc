package engine

import (
	"encoding/json"
	"fmt"

	"github.com/huandu/go-clone"
)

const (
	immerPluginName        = "plugin-immer"
	randomPluginName       = "random"
	logPluginName          = "log"
	serializablePluginName = "plugin-serializable"
	eventsPluginName       = "events"
)

// immerPlugin hands every move and hook a deep copy of G, so that in-place
// mutation never leaks into the state it was called with.
type immerPlugin struct{}

func (immerPlugin) Name() string { return immerPluginName }

func (immerPlugin) Wrap(fn MoveFn, _ GameMethod) MoveFn {
	return func(c *Context, args ...any) (any, error) {
		c.G = clone.Clone(c.G)
		G, err := fn(c, args...)
		if err != nil {
			return nil, err
		}
		if G == nil {
			return c.G, nil
		}
		return G, nil
	}
}

// --- Log ---

// LogAPI lets moves attach metadata to their log entry.
type LogAPI struct {
	metadata any
	set      bool
}

// SetMetadata attaches m to the log entry of the current move.
func (l *LogAPI) SetMetadata(m any) {
	l.metadata = m
	l.set = true
}

// Metadata returns the metadata set during the current action.
func (l *LogAPI) Metadata() (any, bool) {
	return l.metadata, l.set
}

type logPlugin struct{}

func (logPlugin) Name() string { return logPluginName }

func (logPlugin) Setup(PluginContext) any { return map[string]any{} }

func (logPlugin) API(PluginContext) any { return &LogAPI{} }

func (logPlugin) Flush(PluginContext) any { return map[string]any{} }

// logMetadata reads metadata set through the log API, if any.
func logMetadata(s State) (any, bool) {
	if api, ok := s.Plugins[logPluginName].API.(*LogAPI); ok {
		return api.Metadata()
	}
	return nil, false
}

// --- Serializable ---

// serializablePlugin rejects moves whose result cannot be encoded as JSON.
type serializablePlugin struct {
	production bool
}

func (serializablePlugin) Name() string { return serializablePluginName }

func (p serializablePlugin) Wrap(fn MoveFn, method GameMethod) MoveFn {
	if p.production {
		return fn
	}
	return func(c *Context, args ...any) (any, error) {
		G, err := fn(c, args...)
		if err != nil {
			return nil, err
		}
		if _, err := json.Marshal(G); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrNotSerializable, method, err)
		}
		return G, nil
	}
}
