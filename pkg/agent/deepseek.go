package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	deepseek "github.com/cohesion-org/deepseek-go"
	"github.com/mark3labs/mcp-go/mcp"
)

/*
Deepseek drives the DeepSeek chat API. DEEPSEEK_API_KEY supplies the
credential.
*/
type Deepseek struct {
	client *deepseek.Client
	model  string
}

func NewDeepseek(model string) (*Deepseek, error) {
	if model == "" {
		model = deepseek.DeepSeekChat
	}

	return &Deepseek{
		client: deepseek.NewClient(os.Getenv("DEEPSEEK_API_KEY")),
		model:  model,
	}, nil
}

func (prvdr *Deepseek) Name() string { return "deepseek" }

func (prvdr *Deepseek) Step(
	ctx context.Context, conversation *Conversation, tools []mcp.Tool,
) (*StepResult, error) {
	request := &deepseek.ChatCompletionRequest{
		Model:    prvdr.model,
		Messages: prvdr.convertMessages(conversation),
		Tools:    prvdr.convertTools(tools),
	}

	response, err := prvdr.client.CreateChatCompletion(ctx, request)

	if err != nil {
		return nil, fmt.Errorf("deepseek completion failed: %w", err)
	}

	if len(response.Choices) == 0 {
		return nil, fmt.Errorf("deepseek completion returned no choices")
	}

	message := response.Choices[0].Message
	result := &StepResult{Text: message.Content}

	for _, toolCall := range message.ToolCalls {
		args := map[string]any{}

		if toolCall.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(toolCall.Function.Arguments), &args); err != nil {
				return nil, fmt.Errorf(
					"deepseek tool call %s carried invalid arguments: %w",
					toolCall.Function.Name, err,
				)
			}
		}

		result.Calls = append(result.Calls, ToolCall{
			ID:   toolCall.ID,
			Name: toolCall.Function.Name,
			Args: args,
		})
	}

	return result, nil
}

func (prvdr *Deepseek) convertMessages(
	conversation *Conversation,
) []deepseek.ChatCompletionMessage {
	out := make([]deepseek.ChatCompletionMessage, 0, len(conversation.Messages()))

	for _, message := range conversation.Messages() {
		switch message.Role {
		case "system":
			out = append(out, deepseek.ChatCompletionMessage{
				Role:    deepseek.ChatMessageRoleSystem,
				Content: message.Content,
			})
		case "assistant":
			out = append(out, deepseek.ChatCompletionMessage{
				Role:    deepseek.ChatMessageRoleAssistant,
				Content: message.Content,
			})
		case "tool":
			// The API rejects bare tool roles without echoed call IDs, so
			// results travel as user turns instead.
			out = append(out, deepseek.ChatCompletionMessage{
				Role:    deepseek.ChatMessageRoleUser,
				Content: fmt.Sprintf("Result of %s: %s", message.ToolName, message.Content),
			})
		default:
			out = append(out, deepseek.ChatCompletionMessage{
				Role:    deepseek.ChatMessageRoleUser,
				Content: message.Content,
			})
		}
	}

	return out
}

func (prvdr *Deepseek) convertTools(tools []mcp.Tool) []deepseek.Tool {
	out := make([]deepseek.Tool, 0, len(tools))

	for _, tool := range tools {
		out = append(out, deepseek.Tool{
			Type: "function",
			Function: deepseek.Function{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters: &deepseek.FunctionParameters{
					Type:       tool.InputSchema.Type,
					Properties: tool.InputSchema.Properties,
					Required:   tool.InputSchema.Required,
				},
			},
		})
	}

	return out
}
