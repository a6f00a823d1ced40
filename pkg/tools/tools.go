// Package tools provides the tool catalog exposed to the language model:
// definitions in JSON-schema form, an instance registry, and the handlers
// that talk to GitHub, Railway, and the Omni content service.
package tools

import (
	"context"
	"fmt"
)

// Property describes one parameter in a tool's input schema.
type Property struct {
	Items       *Property `json:"items,omitempty"`
	Type        string    `json:"type"`
	Description string    `json:"description,omitempty"`
	Enum        []string  `json:"enum,omitempty"`
}

// InputSchema is the JSON-schema object describing a tool's parameters.
type InputSchema struct {
	Properties map[string]Property `json:"properties"`
	Type       string              `json:"type"`
	Required   []string            `json:"required,omitempty"`
}

// ToolDefinition is the model-facing description of a tool.
type ToolDefinition struct {
	InputSchema InputSchema `json:"input_schema"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
}

// Tool is a single callable action. Exec returns a textual result for the
// model; handler errors are converted to text at the dispatch boundary, not
// surfaced as Go errors to the loop.
type Tool interface {
	// Definition returns the tool's model-facing definition.
	Definition() ToolDefinition
	// RequiresApproval reports whether execution must go through the
	// approval gate instead of running inline.
	RequiresApproval() bool
	// Exec executes the tool with already-parsed arguments.
	Exec(ctx context.Context, args map[string]any) (string, error)
}

// objectSchema builds the standard object-typed input schema.
func objectSchema(required []string, props map[string]Property) InputSchema {
	return InputSchema{
		Type:       "object",
		Properties: props,
		Required:   required,
	}
}

type contextKey int

const userIDKey contextKey = iota

// WithUserID tags a context with the requesting user's id so that tools
// operating on per-user state can scope their reads and writes.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the user id set by WithUserID, or "".
func UserIDFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(userIDKey).(string)
	return userID
}

// StringArg extracts a required string argument.
func StringArg(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok {
		return "", fmt.Errorf("missing required parameter %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("parameter %q must be a string", key)
	}
	return s, nil
}

// OptionalStringArg extracts an optional string argument, returning fallback
// when absent or not a string.
func OptionalStringArg(args map[string]any, key, fallback string) string {
	if v, ok := args[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return fallback
}

// OptionalIntArg extracts an optional integer argument. JSON numbers decode
// as float64, so both forms are accepted.
func OptionalIntArg(args map[string]any, key string, fallback int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return fallback
	}
}

// OptionalBoolArg extracts an optional boolean argument.
func OptionalBoolArg(args map[string]any, key string, fallback bool) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return fallback
}
