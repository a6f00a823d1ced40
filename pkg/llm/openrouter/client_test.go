package openrouter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phoenix/pkg/llm"
	"phoenix/pkg/tools"
)

func TestCompleteTextResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "anthropic/claude-sonnet-4", req["model"])

		msgs, ok := req["messages"].([]any)
		require.True(t, ok)
		require.Len(t, msgs, 2) // system + user

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "gen-1",
			"choices": [{"message": {"role": "assistant", "content": "hello there"}}]
		}`))
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("test-key", "anthropic/claude-sonnet-4", srv.URL)
	resp, err := c.Complete(context.Background(), llm.CompletionRequest{
		System:    "be helpful",
		Messages:  []llm.Message{llm.UserMessage("hi")},
		MaxTokens: 100,
	})
	require.NoError(t, err)
	assert.Equal(t, "hello there", resp.Content)
	assert.Empty(t, resp.ToolCalls)
}

func TestCompleteToolCallResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		reqTools, ok := req["tools"].([]any)
		require.True(t, ok)
		require.Len(t, reqTools, 1)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "gen-2",
			"choices": [{"message": {
				"role": "assistant",
				"content": "",
				"tool_calls": [{
					"id": "call_abc",
					"type": "function",
					"function": {"name": "check_task", "arguments": "{\"task_id\":\"t-1\"}"}
				}]
			}}]
		}`))
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("test-key", "anthropic/claude-sonnet-4", srv.URL)
	resp, err := c.Complete(context.Background(), llm.CompletionRequest{
		Messages: []llm.Message{llm.UserMessage("check task t-1")},
		Tools: []tools.ToolDefinition{{
			Name:        "check_task",
			Description: "Check a task by ID",
			InputSchema: tools.InputSchema{
				Type: "object",
				Properties: map[string]tools.Property{
					"task_id": {Type: "string", Description: "Task ID"},
				},
				Required: []string{"task_id"},
			},
		}},
		MaxTokens: 100,
	})
	require.NoError(t, err)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "call_abc", resp.ToolCalls[0].ID)
	assert.Equal(t, "check_task", resp.ToolCalls[0].Name)
	assert.Equal(t, map[string]any{"task_id": "t-1"}, resp.ToolCalls[0].ParseArguments())
}

func TestCompleteToolRoundTripMessages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Role       string `json:"role"`
				Content    string `json:"content"`
				ToolCallID string `json:"tool_call_id"`
				ToolCalls  []struct {
					ID string `json:"id"`
				} `json:"tool_calls"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 3)
		assert.Equal(t, "user", req.Messages[0].Role)
		assert.Equal(t, "assistant", req.Messages[1].Role)
		require.Len(t, req.Messages[1].ToolCalls, 1)
		assert.Equal(t, "call_abc", req.Messages[1].ToolCalls[0].ID)
		assert.Equal(t, "tool", req.Messages[2].Role)
		assert.Equal(t, "call_abc", req.Messages[2].ToolCallID)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "gen-3",
			"choices": [{"message": {"role": "assistant", "content": "task t-1 is done"}}]
		}`))
	}))
	defer srv.Close()

	call := llm.ToolCall{ID: "call_abc", Name: "check_task", Arguments: `{"task_id":"t-1"}`}
	c := NewClientWithBaseURL("test-key", "anthropic/claude-sonnet-4", srv.URL)
	resp, err := c.Complete(context.Background(), llm.CompletionRequest{
		Messages: []llm.Message{
			llm.UserMessage("check task t-1"),
			{Role: llm.RoleAssistant, ToolCalls: []llm.ToolCall{call}},
			llm.ToolResultMessage(call, `{"status":"done"}`),
		},
		MaxTokens: 100,
	})
	require.NoError(t, err)
	assert.Equal(t, "task t-1 is done", resp.Content)
}

func TestCompleteTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": {"message": "upstream overloaded"}}`))
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("test-key", "anthropic/claude-sonnet-4", srv.URL)
	_, err := c.Complete(context.Background(), llm.CompletionRequest{
		Messages:  []llm.Message{llm.UserMessage("hi")},
		MaxTokens: 100,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openrouter chat completion failed")
}
