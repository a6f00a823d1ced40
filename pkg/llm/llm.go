// Package llm defines the language-model client interface and the message
// types shared by the provider backends.
package llm

import (
	"context"
	"encoding/json"

	"phoenix/pkg/tools"
)

// Role identifies who produced a message.
type Role string

const (
	// RoleSystem is an instruction message.
	RoleSystem Role = "system"
	// RoleUser is a human message.
	RoleUser Role = "user"
	// RoleAssistant is a model message.
	RoleAssistant Role = "assistant"
	// RoleTool is a tool execution result fed back to the model.
	RoleTool Role = "tool"
)

// ToolCall is a tool invocation requested by the model. Arguments is the raw
// JSON string as returned by the provider.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ParseArguments decodes the call's arguments defensively: malformed or empty
// JSON yields an empty map rather than an error, so a single bad call cannot
// wedge the loop.
func (tc ToolCall) ParseArguments() map[string]any {
	args := make(map[string]any)
	if tc.Arguments == "" {
		return args
	}
	if err := json.Unmarshal([]byte(tc.Arguments), &args); err != nil {
		return make(map[string]any)
	}
	return args
}

// Message is one turn in a completion request. ToolCalls is set on assistant
// turns that requested tools; ToolCallID and ToolName are set on tool-result
// turns.
type Message struct {
	Role       Role
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
	ToolName   string
}

// CompletionRequest is a request to generate a completion.
type CompletionRequest struct {
	System      string
	Messages    []Message
	Tools       []tools.ToolDefinition
	MaxTokens   int
	Temperature float32
}

// CompletionResponse is the model's reply: text, tool calls, or both.
type CompletionResponse struct {
	Content   string
	ToolCalls []ToolCall
}

// Client is the interface all provider backends implement.
type Client interface {
	// Complete generates a completion synchronously.
	Complete(ctx context.Context, in CompletionRequest) (CompletionResponse, error)
}

// UserMessage creates a user message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage creates an assistant message.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// ToolResultMessage creates a tool-result message for the given call.
func ToolResultMessage(call ToolCall, result string) Message {
	return Message{
		Role:       RoleTool,
		Content:    result,
		ToolCallID: call.ID,
		ToolName:   call.Name,
	}
}
