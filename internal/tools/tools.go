// Package tools defines the tools available to the agent.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/setusher/Maldevta-farms/internal/notify"
	"github.com/setusher/Maldevta-farms/internal/travelstudio"
)

// Tool represents a callable tool.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
	Handler     func(ctx context.Context, args map[string]any) *Result `json:"-"`
}

// Result is the outcome of one tool execution. It is marshaled to JSON
// and handed back to the planner as the tool response.
type Result struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Ok builds a successful result.
func Ok(data any, message string) *Result {
	return &Result{Success: true, Data: data, Message: message}
}

// Fail builds a failed result.
func Fail(format string, args ...any) *Result {
	return &Result{Success: false, Error: fmt.Sprintf(format, args...)}
}

// Registry holds the available tools. The set is fixed at construction;
// there is no runtime registration.
type Registry struct {
	tools      map[string]*Tool
	backend    travelstudio.Backend
	notifier   notify.Notifier
	ownerEmail string
	logger     *slog.Logger
}

// NewRegistry creates the tool registry. Every declared tool must carry
// a handler; a missing handler is a programming error and fails
// construction.
func NewRegistry(backend travelstudio.Backend, notifier notify.Notifier, ownerEmail string, logger *slog.Logger) (*Registry, error) {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{
		tools:      make(map[string]*Tool),
		backend:    backend,
		notifier:   notifier,
		ownerEmail: ownerEmail,
		logger:     logger.With("component", "tools"),
	}
	r.registerBuiltins()

	for name, t := range r.tools {
		if t.Handler == nil {
			return nil, fmt.Errorf("tool %s declared without handler", name)
		}
		if t.Parameters == nil {
			return nil, fmt.Errorf("tool %s declared without parameters schema", name)
		}
	}
	return r, nil
}

func (r *Registry) register(t *Tool) {
	r.tools[t.Name] = t
}

// Get retrieves a tool by name, or nil.
func (r *Registry) Get(name string) *Tool {
	return r.tools[name]
}

// Names returns the registered tool names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	return names
}

// Declarations returns all tools in the planner wire format.
func (r *Registry) Declarations() []map[string]any {
	var result []map[string]any
	for _, t := range r.tools {
		result = append(result, map[string]any{
			"type": "function",
			"function": map[string]any{
				"name":        t.Name,
				"description": t.Description,
				"parameters":  t.Parameters,
			},
		})
	}
	return result
}

// Execute runs a tool by name. Arguments are sanitized before the
// handler sees them. A handler panic is converted into a failed result
// so one bad tool call never takes down the conversation loop.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (result *Result) {
	tool := r.tools[name]
	if tool == nil {
		return Fail("unknown tool: %s", name)
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("tool handler panicked",
				"tool", name,
				"panic", rec,
				"stack", string(debug.Stack()))
			result = Fail("tool %s failed: internal error", name)
		}
	}()

	clean := Sanitize(args)
	r.logger.Debug("executing tool", "tool", name, "args", clean)

	result = tool.Handler(ctx, clean)
	if result == nil {
		result = Fail("tool %s returned no result", name)
	}
	return result
}

// MarshalResult renders a result as the JSON string handed to the
// planner. Marshal failures fall back to a plain error payload.
func MarshalResult(res *Result) string {
	b, err := json.Marshal(res)
	if err != nil {
		return fmt.Sprintf(`{"success":false,"error":"marshal result: %s"}`, err)
	}
	return string(b)
}
