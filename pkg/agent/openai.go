package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/openai/openai-go"
)

/*
OpenAI drives the chat completions API. OPENAI_API_KEY supplies the
credential via the SDK's default client.
*/
type OpenAI struct {
	client *openai.Client
	model  string
}

func NewOpenAI(model string) *OpenAI {
	if model == "" {
		model = DefaultOpenAIModel
	}

	client := openai.NewClient()

	return &OpenAI{client: &client, model: model}
}

func (prvdr *OpenAI) Name() string { return "openai" }

func (prvdr *OpenAI) Step(
	ctx context.Context, conversation *Conversation, tools []mcp.Tool,
) (*StepResult, error) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(prvdr.model),
		Messages: prvdr.convertMessages(conversation),
		Tools:    prvdr.convertTools(tools),
	}

	completion, err := prvdr.client.Chat.Completions.New(ctx, params)

	if err != nil {
		return nil, fmt.Errorf("openai completion failed: %w", err)
	}

	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("openai completion returned no choices")
	}

	message := completion.Choices[0].Message
	result := &StepResult{Text: message.Content}

	for _, toolCall := range message.ToolCalls {
		args := map[string]any{}

		if toolCall.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(toolCall.Function.Arguments), &args); err != nil {
				return nil, fmt.Errorf(
					"openai tool call %s carried invalid arguments: %w",
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

func (prvdr *OpenAI) convertMessages(
	conversation *Conversation,
) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(conversation.Messages()))

	for _, message := range conversation.Messages() {
		switch message.Role {
		case "system":
			out = append(out, openai.SystemMessage(message.Content))
		case "assistant":
			assistant := openai.ChatCompletionAssistantMessageParam{}

			if message.Content != "" {
				assistant.Content.OfString = openai.String(message.Content)
			}

			for _, call := range message.Calls {
				args, _ := json.Marshal(call.Args)

				assistant.ToolCalls = append(assistant.ToolCalls,
					openai.ChatCompletionMessageToolCallParam{
						ID: call.ID,
						Function: openai.ChatCompletionMessageToolCallFunctionParam{
							Name:      call.Name,
							Arguments: string(args),
						},
					})
			}

			out = append(out, openai.ChatCompletionMessageParamUnion{
				OfAssistant: &assistant,
			})
		case "tool":
			out = append(out, openai.ToolMessage(message.Content, message.ToolCallID))
		default:
			out = append(out, openai.UserMessage(message.Content))
		}
	}

	return out
}

func (prvdr *OpenAI) convertTools(tools []mcp.Tool) []openai.ChatCompletionToolParam {
	out := make([]openai.ChatCompletionToolParam, 0, len(tools))

	for _, tool := range tools {
		out = append(out, openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        tool.Name,
				Description: openai.String(tool.Description),
				Parameters: openai.FunctionParameters(map[string]any{
					"type":       tool.InputSchema.Type,
					"properties": tool.InputSchema.Properties,
					"required":   tool.InputSchema.Required,
				}),
			},
		})
	}

	return out
}
