// Package anthropic provides an llm.Client backed by the Anthropic Messages API.
package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"phoenix/pkg/llm"
)

// Client wraps the Anthropic API client to implement llm.Client.
type Client struct {
	client anthropic.Client
	model  anthropic.Model
}

// NewClient creates an Anthropic client for the given model.
func NewClient(apiKey, model string) *Client {
	return &Client{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  anthropic.Model(model),
	}
}

// ensureAlternation prepares messages for the Messages API, which requires
// strict user/assistant alternation starting and ending with user. Tool
// results and any other non-assistant turns are merged into user messages;
// assistant tool-call turns are rendered as text.
func ensureAlternation(messages []llm.Message) ([]anthropic.MessageParam, error) {
	if len(messages) == 0 {
		return nil, fmt.Errorf("message list cannot be empty")
	}

	type flat struct {
		role    llm.Role
		content string
	}

	var merged []flat
	var userParts []string

	flush := func() {
		if len(userParts) > 0 {
			merged = append(merged, flat{role: llm.RoleUser, content: strings.Join(userParts, "\n\n")})
			userParts = nil
		}
	}

	for i := range messages {
		msg := &messages[i]
		switch msg.Role {
		case llm.RoleAssistant:
			flush()
			content := msg.Content
			for _, call := range msg.ToolCalls {
				if content != "" {
					content += "\n"
				}
				content += fmt.Sprintf("[called tool %s with %s]", call.Name, call.Arguments)
			}
			merged = append(merged, flat{role: llm.RoleAssistant, content: content})
		case llm.RoleTool:
			userParts = append(userParts, fmt.Sprintf("Tool result (%s): %s", msg.ToolName, msg.Content))
		default:
			userParts = append(userParts, msg.Content)
		}
	}
	flush()

	if len(merged) == 0 || merged[0].role != llm.RoleUser {
		return nil, fmt.Errorf("first message must be user role")
	}
	if merged[len(merged)-1].role != llm.RoleUser {
		return nil, fmt.Errorf("last message must be user role")
	}

	out := make([]anthropic.MessageParam, 0, len(merged))
	for _, m := range merged {
		out = append(out, anthropic.MessageParam{
			Role:    anthropic.MessageParamRole(m.role),
			Content: []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(m.content)},
		})
	}
	return out, nil
}

// Complete implements the llm.Client interface.
func (c *Client) Complete(ctx context.Context, in llm.CompletionRequest) (llm.CompletionResponse, error) {
	messages, err := ensureAlternation(in.Messages)
	if err != nil {
		return llm.CompletionResponse{}, fmt.Errorf("message alternation error: %w", err)
	}

	params := anthropic.MessageNewParams{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   int64(in.MaxTokens),
		Temperature: anthropic.Float(float64(in.Temperature)),
	}

	if in.System != "" {
		params.System = []anthropic.TextBlockParam{{
			Text: in.System,
			Type: "text",
		}}
	}

	if len(in.Tools) > 0 {
		var toolParams []anthropic.ToolUnionParam
		for i := range in.Tools {
			tool := &in.Tools[i]

			var properties any
			if len(tool.InputSchema.Properties) > 0 {
				props := make(map[string]any)
				for name, prop := range tool.InputSchema.Properties {
					propMap := map[string]any{"type": prop.Type}
					if prop.Description != "" {
						propMap["description"] = prop.Description
					}
					if len(prop.Enum) > 0 {
						propMap["enum"] = prop.Enum
					}
					props[name] = propMap
				}
				properties = props
			}

			schema := anthropic.ToolInputSchemaParam{
				Type:       "object",
				Properties: properties,
				Required:   tool.InputSchema.Required,
			}
			toolParams = append(toolParams, anthropic.ToolUnionParamOfTool(schema, tool.Name))
		}
		params.Tools = toolParams
		params.ToolChoice = anthropic.ToolChoiceUnionParam{
			OfAuto: &anthropic.ToolChoiceAutoParam{},
		}
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return llm.CompletionResponse{}, fmt.Errorf("anthropic completion failed: %w", err)
	}
	if resp == nil || len(resp.Content) == 0 {
		return llm.CompletionResponse{}, fmt.Errorf("empty response from anthropic")
	}

	var out llm.CompletionResponse
	for i := range resp.Content {
		block := &resp.Content[i]
		switch block.Type {
		case "text":
			out.Content += block.AsText().Text
		case "tool_use":
			toolUse := block.AsToolUse()
			out.ToolCalls = append(out.ToolCalls, llm.ToolCall{
				ID:        toolUse.ID,
				Name:      toolUse.Name,
				Arguments: string(toolUse.Input),
			})
		}
	}
	return out, nil
}
