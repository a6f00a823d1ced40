package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseArguments(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want map[string]any
	}{
		{"valid object", `{"path":"main.go","limit":5}`, map[string]any{"path": "main.go", "limit": float64(5)}},
		{"empty string", "", map[string]any{}},
		{"malformed json", `{"path":`, map[string]any{}},
		{"wrong type", `["not","an","object"]`, map[string]any{}},
		{"empty object", `{}`, map[string]any{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			call := ToolCall{Arguments: tt.raw}
			assert.Equal(t, tt.want, call.ParseArguments())
		})
	}
}

func TestMessageHelpers(t *testing.T) {
	user := UserMessage("hello")
	assert.Equal(t, RoleUser, user.Role)
	assert.Equal(t, "hello", user.Content)

	asst := AssistantMessage("hi")
	assert.Equal(t, RoleAssistant, asst.Role)

	call := ToolCall{ID: "call_1", Name: "check_omni_agent", Arguments: "{}"}
	result := ToolResultMessage(call, "all healthy")
	assert.Equal(t, RoleTool, result.Role)
	assert.Equal(t, "call_1", result.ToolCallID)
	assert.Equal(t, "check_omni_agent", result.ToolName)
	assert.Equal(t, "all healthy", result.Content)
}
