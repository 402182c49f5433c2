package agent

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/ollama/ollama/api"
)

/*
Ollama drives a local model through the Ollama HTTP API. OLLAMA_HOST
selects the server, defaulting to localhost.
*/
type Ollama struct {
	client *api.Client
	model  string
}

func NewOllama(model string) (*Ollama, error) {
	if model == "" {
		model = DefaultOllamaModel
	}

	client, err := api.ClientFromEnvironment()

	if err != nil {
		return nil, fmt.Errorf("failed to create ollama client: %w", err)
	}

	return &Ollama{client: client, model: model}, nil
}

func (prvdr *Ollama) Name() string { return "ollama" }

func (prvdr *Ollama) Step(
	ctx context.Context, conversation *Conversation, tools []mcp.Tool,
) (*StepResult, error) {
	stream := false

	request := &api.ChatRequest{
		Model:    prvdr.model,
		Messages: prvdr.convertMessages(conversation),
		Tools:    prvdr.convertTools(tools),
		Stream:   &stream,
	}

	result := &StepResult{}

	respFunc := func(resp api.ChatResponse) error {
		result.Text += resp.Message.Content

		for _, toolCall := range resp.Message.ToolCalls {
			result.Calls = append(result.Calls, ToolCall{
				Name: toolCall.Function.Name,
				Args: toolCall.Function.Arguments,
			})
		}

		return nil
	}

	if err := prvdr.client.Chat(ctx, request, respFunc); err != nil {
		return nil, fmt.Errorf("ollama chat failed: %w", err)
	}

	return result, nil
}

func (prvdr *Ollama) convertMessages(conversation *Conversation) []api.Message {
	out := make([]api.Message, 0, len(conversation.Messages()))

	for _, message := range conversation.Messages() {
		switch message.Role {
		case "tool":
			out = append(out, api.Message{
				Role:    "tool",
				Content: message.Content,
			})
		default:
			out = append(out, api.Message{
				Role:    message.Role,
				Content: message.Content,
			})
		}
	}

	return out
}

func (prvdr *Ollama) convertTools(tools []mcp.Tool) []api.Tool {
	type property = struct {
		Type        api.PropertyType `json:"type"`
		Items       any              `json:"items,omitempty"`
		Description string           `json:"description"`
		Enum        []any            `json:"enum,omitempty"`
	}

	out := make([]api.Tool, 0, len(tools))

	for _, tool := range tools {
		props := make(map[string]property)

		for name, prop := range tool.InputSchema.Properties {
			propMap, ok := prop.(map[string]any)

			if !ok {
				continue
			}

			typeStr, ok := propMap["type"].(string)

			if !ok {
				continue
			}

			desc, _ := propMap["description"].(string)
			enum, _ := propMap["enum"].([]any)

			props[name] = property{
				Type:        api.PropertyType{typeStr},
				Description: desc,
				Enum:        enum,
			}
		}

		out = append(out, api.Tool{
			Type: "function",
			Function: api.ToolFunction{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters: struct {
					Type       string              `json:"type"`
					Defs       any                 `json:"$defs,omitempty"`
					Items      any                 `json:"items,omitempty"`
					Required   []string            `json:"required"`
					Properties map[string]property `json:"properties"`
				}{
					Type:       tool.InputSchema.Type,
					Required:   tool.InputSchema.Required,
					Properties: props,
				},
			},
		})
	}

	return out
}
