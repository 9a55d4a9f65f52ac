// Package tool defines the tool abstraction agents use to act on the
// world, and a registry for in-process tools.
package tool

import (
	"context"
	"fmt"
	"sync"
)

// Tool is a single callable capability. Schema is a JSON schema object
// describing the arguments.
type Tool interface {
	Name() string
	Description() string
	Schema() map[string]any

	// Call executes the tool. The returned string is fed back to the
	// model verbatim.
	Call(ctx context.Context, args map[string]any) (string, error)
}

// Toolset is a named collection of tools.
type Toolset interface {
	Name() string

	// Tools returns the available tools. Implementations may connect
	// lazily on first call.
	Tools(ctx context.Context) ([]Tool, error)

	Close() error
}

// Func is the implementation signature for in-process tools.
type Func func(ctx context.Context, args map[string]any) (string, error)

// funcTool adapts a Func to the Tool interface.
type funcTool struct {
	name   string
	desc   string
	schema map[string]any
	fn     Func
}

// NewFunc wraps fn as a Tool.
func NewFunc(name, description string, schema map[string]any, fn Func) Tool {
	return &funcTool{name: name, desc: description, schema: schema, fn: fn}
}

func (t *funcTool) Name() string           { return t.name }
func (t *funcTool) Description() string    { return t.desc }
func (t *funcTool) Schema() map[string]any { return t.schema }

func (t *funcTool) Call(ctx context.Context, args map[string]any) (string, error) {
	return t.fn(ctx, args)
}

// StaticToolset serves a fixed set of in-process tools.
type StaticToolset struct {
	name  string
	mu    sync.RWMutex
	tools []Tool
}

// NewStaticToolset creates a toolset over a fixed tool list.
func NewStaticToolset(name string, tools ...Tool) *StaticToolset {
	return &StaticToolset{name: name, tools: tools}
}

func (s *StaticToolset) Name() string { return s.name }

func (s *StaticToolset) Tools(_ context.Context) ([]Tool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tools, nil
}

// Add appends a tool.
func (s *StaticToolset) Add(t Tool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tools = append(s.tools, t)
}

func (s *StaticToolset) Close() error { return nil }

// StringArg extracts a required string argument.
func StringArg(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok {
		return "", fmt.Errorf("missing required argument: %s", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("argument %s must be a string", key)
	}
	return s, nil
}

// IntArg extracts an integer argument, returning def when absent. JSON
// numbers arrive as float64.
func IntArg(args map[string]any, key string, def int) (int, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case float64:
		return int(n), nil
	case int:
		return n, nil
	default:
		return 0, fmt.Errorf("argument %s must be a number", key)
	}
}
