package agent

import (
	"context"
	"fmt"
	"os"
	"strings"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
	"github.com/mark3labs/mcp-go/mcp"
)

/*
Cohere drives the chat API. COHERE_API_KEY supplies the credential. The
conversation is folded into a single built-up message string, with the
system instruction carried as the preamble.
*/
type Cohere struct {
	client *cohereclient.Client
	model  string
}

func NewCohere(model string) (*Cohere, error) {
	if model == "" {
		model = DefaultCohereModel
	}

	client := cohereclient.NewClient(
		cohereclient.WithToken(os.Getenv("COHERE_API_KEY")),
	)

	return &Cohere{client: client, model: model}, nil
}

func (prvdr *Cohere) Name() string { return "cohere" }

func (prvdr *Cohere) Step(
	ctx context.Context, conversation *Conversation, tools []mcp.Tool,
) (*StepResult, error) {
	message, preamble := prvdr.convertMessages(conversation)

	request := &cohere.ChatRequest{
		Model:   &prvdr.model,
		Message: message,
		Tools:   prvdr.convertTools(tools),
	}

	if preamble != "" {
		request.Preamble = &preamble
	}

	response, err := prvdr.client.Chat(ctx, request)

	if err != nil {
		return nil, fmt.Errorf("cohere chat failed: %w", err)
	}

	result := &StepResult{Text: response.GetText()}

	for _, toolCall := range response.GetToolCalls() {
		result.Calls = append(result.Calls, ToolCall{
			Name: toolCall.Name,
			Args: toolCall.Parameters,
		})
	}

	return result, nil
}

func (prvdr *Cohere) convertMessages(conversation *Conversation) (string, string) {
	builder := &strings.Builder{}
	preamble := ""

	for _, entry := range conversation.Messages() {
		switch entry.Role {
		case "system":
			preamble = entry.Content
		case "assistant":
			if entry.Content != "" {
				fmt.Fprintf(builder, "Assistant: %s\n", entry.Content)
			}
		case "tool":
			fmt.Fprintf(builder, "Result of %s: %s\n", entry.ToolName, entry.Content)
		default:
			fmt.Fprintf(builder, "%s\n", entry.Content)
		}
	}

	return builder.String(), preamble
}

func (prvdr *Cohere) convertTools(tools []mcp.Tool) []*cohere.Tool {
	out := make([]*cohere.Tool, 0, len(tools))

	for _, tool := range tools {
		paramDefs := make(map[string]*cohere.ToolParameterDefinitionsValue)

		for name, prop := range tool.InputSchema.Properties {
			propMap, ok := prop.(map[string]any)

			if !ok {
				continue
			}

			definition := &cohere.ToolParameterDefinitionsValue{}

			if typeStr, ok := propMap["type"].(string); ok {
				definition.Type = typeStr
			}

			if desc, ok := propMap["description"].(string); ok {
				definition.Description = cohere.String(desc)
			}

			paramDefs[name] = definition
		}

		out = append(out, &cohere.Tool{
			Name:                 tool.Name,
			Description:          tool.Description,
			ParameterDefinitions: paramDefs,
		})
	}

	return out
}
