// Package google provides an llm.Client backed by the Gemini API.
package google

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/genai"

	"phoenix/pkg/llm"
	"phoenix/pkg/tools"
)

// Client wraps the Google GenAI client to implement llm.Client.
type Client struct {
	client *genai.Client
	apiKey string
	model  string
}

// NewClient creates a Gemini client for the given model. The underlying SDK
// client needs a context, so it is created lazily on first use.
func NewClient(apiKey, model string) *Client {
	return &Client{
		apiKey: apiKey,
		model:  model,
	}
}

// Complete implements the llm.Client interface.
func (c *Client) Complete(ctx context.Context, in llm.CompletionRequest) (llm.CompletionResponse, error) {
	if c.client == nil {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  c.apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return llm.CompletionResponse{}, fmt.Errorf("failed to create gemini client: %w", err)
		}
		c.client = client
	}

	contents, err := convertMessages(in.Messages)
	if err != nil {
		return llm.CompletionResponse{}, fmt.Errorf("message conversion error: %w", err)
	}

	//nolint:gosec // MaxTokens validated at higher layer, overflow acceptable
	maxTokens := int32(in.MaxTokens)
	temperature := in.Temperature
	config := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: maxTokens,
	}

	if in.System != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: in.System}},
		}
	}

	if len(in.Tools) > 0 {
		config.Tools = []*genai.Tool{
			{FunctionDeclarations: convertTools(in.Tools)},
		}
		config.ToolConfig = &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{
				Mode: genai.FunctionCallingConfigModeAuto,
			},
		}
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return llm.CompletionResponse{}, fmt.Errorf("gemini completion failed: %w", err)
	}
	if result == nil {
		return llm.CompletionResponse{}, fmt.Errorf("empty response from gemini")
	}

	out := llm.CompletionResponse{Content: result.Text()}
	for _, call := range result.FunctionCalls() {
		args, err := json.Marshal(call.Args)
		if err != nil {
			args = []byte("{}")
		}
		id := call.ID
		if id == "" {
			// Gemini does not always provide call IDs; the function name
			// lets responses match back to calls.
			id = call.Name
		}
		out.ToolCalls = append(out.ToolCalls, llm.ToolCall{
			ID:        id,
			Name:      call.Name,
			Arguments: string(args),
		})
	}
	return out, nil
}

// convertMessages converts our message format to Gemini's Content format.
// Gemini uses role "model" for assistant turns and carries tool traffic as
// FunctionCall/FunctionResponse parts.
func convertMessages(messages []llm.Message) ([]*genai.Content, error) {
	if len(messages) == 0 {
		return nil, fmt.Errorf("message list cannot be empty")
	}

	var contents []*genai.Content
	for i := range messages {
		msg := &messages[i]

		var role string
		var parts []*genai.Part

		switch msg.Role {
		case llm.RoleUser:
			role = "user"
			parts = append(parts, &genai.Part{Text: msg.Content})
		case llm.RoleAssistant:
			role = "model"
			if msg.Content != "" {
				parts = append(parts, &genai.Part{Text: msg.Content})
			}
			for j := range msg.ToolCalls {
				call := &msg.ToolCalls[j]
				parts = append(parts, &genai.Part{
					FunctionCall: &genai.FunctionCall{
						ID:   call.ID,
						Name: call.Name,
						Args: call.ParseArguments(),
					},
				})
			}
		case llm.RoleTool:
			role = "user"
			if msg.ToolName == "" {
				continue
			}
			parts = append(parts, &genai.Part{
				FunctionResponse: &genai.FunctionResponse{
					Name: msg.ToolName,
					Response: map[string]any{
						"content": msg.Content,
					},
				},
			})
		default:
			return nil, fmt.Errorf("unsupported message role: %s", msg.Role)
		}

		if len(parts) > 0 {
			contents = append(contents, &genai.Content{
				Role:  role,
				Parts: parts,
			})
		}
	}
	return contents, nil
}

// convertTools converts our tool definitions to Gemini function declarations.
func convertTools(toolDefs []tools.ToolDefinition) []*genai.FunctionDeclaration {
	declarations := make([]*genai.FunctionDeclaration, len(toolDefs))
	for i := range toolDefs {
		tool := &toolDefs[i]

		properties := make(map[string]*genai.Schema)
		//nolint:gocritic // rangeValCopy: Property size acceptable for this use case
		for propName, prop := range tool.InputSchema.Properties {
			properties[propName] = convertProperty(&prop)
		}

		declarations[i] = &genai.FunctionDeclaration{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: properties,
				Required:   tool.InputSchema.Required,
			},
		}
	}
	return declarations
}

// convertProperty recursively converts a Property to a Gemini schema.
func convertProperty(prop *tools.Property) *genai.Schema {
	schema := &genai.Schema{
		Description: prop.Description,
	}

	switch prop.Type {
	case "string":
		schema.Type = genai.TypeString
	case "number":
		schema.Type = genai.TypeNumber
	case "integer":
		schema.Type = genai.TypeInteger
	case "boolean":
		schema.Type = genai.TypeBoolean
	case "array":
		schema.Type = genai.TypeArray
		if prop.Items != nil {
			schema.Items = convertProperty(prop.Items)
		}
	default:
		schema.Type = genai.TypeString
	}

	if len(prop.Enum) > 0 {
		schema.Enum = prop.Enum
	}
	return schema
}
