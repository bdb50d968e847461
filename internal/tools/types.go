// Package tools defines the explicit tool registry exposed to the agent
// loop. Every operation is a named handler with a declared argument schema,
// registered once at startup; there is no reflective discovery and no
// process-global registry.
package tools

import (
	"context"
)

// Category classifies tools for surface grouping.
type Category string

const (
	// CategoryFile covers list/read/write/edit/undo.
	CategoryFile Category = "file"

	// CategorySearch covers grep and glob.
	CategorySearch Category = "search"

	// CategoryShell covers terminal command execution.
	CategoryShell Category = "shell"

	// CategoryPatch covers multi-file patch application.
	CategoryPatch Category = "patch"

	// CategoryCapability covers capability discovery sub-tools.
	CategoryCapability Category = "capability"
)

// Property describes a single parameter property for JSON schema.
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Default     any    `json:"default,omitempty"`
	Enum        []any  `json:"enum,omitempty"`
}

// Schema defines the JSON schema for tool arguments, enabling LLM tool
// calling with proper validation.
type Schema struct {
	// Required lists parameters that must be provided.
	Required []string `json:"required"`

	// Properties describes each parameter.
	Properties map[string]Property `json:"properties"`
}

// ExecuteFunc is the signature for tool execution. The args bag carries the
// named arguments from the tool call; results are plain text for the agent.
type ExecuteFunc func(ctx context.Context, args map[string]any) (string, error)

// Tool is one operation in the surface.
type Tool struct {
	// Name is the unique identifier for the tool.
	Name string

	// Description explains what the tool does, for LLM tool calling.
	Description string

	// Category groups the tool within the surface.
	Category Category

	// Execute runs the tool with the given arguments.
	Execute ExecuteFunc

	// Schema defines the expected arguments.
	Schema Schema

	// Gated marks tools whose calls pass through the command gate before
	// execution (currently the shell runner).
	Gated bool
}

// Validate checks the tool definition.
func (t *Tool) Validate() error {
	if t.Name == "" {
		return ErrToolNameEmpty
	}
	if t.Execute == nil {
		return ErrToolExecuteNil
	}
	return nil
}

// Result wraps the outcome of a tool execution with metadata.
type Result struct {
	// ToolName identifies which tool was executed.
	ToolName string

	// Output is the text result for the agent loop.
	Output string

	// Error is set if the tool failed.
	Error error

	// DurationMs is how long execution took.
	DurationMs int64
}

// IsSuccess reports whether the tool executed without error.
func (r *Result) IsSuccess() bool {
	return r.Error == nil
}

// Helpers for pulling typed values out of the argument bag. JSON numbers
// arrive as float64; tolerate int as well for direct Go callers.

// StringArg returns args[key] as a string, or "" when absent.
func StringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

// BoolArg returns args[key] as a bool, or def when absent.
func BoolArg(args map[string]any, key string, def bool) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return def
}

// IntArg returns args[key] as an int, or def when absent.
func IntArg(args map[string]any, key string, def int) int {
	switch v := args[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return def
	}
}
