package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/mark3labs/mcp-go/mcp"
)

const anthropicMaxTokens = 2048

/*
Anthropic drives the Claude API. ANTHROPIC_API_KEY supplies the credential.
*/
type Anthropic struct {
	client *anthropic.Client
	model  string
}

func NewAnthropic(model string) *Anthropic {
	if model == "" {
		model = DefaultAnthropicModel
	}

	client := anthropic.NewClient(
		option.WithAPIKey(os.Getenv("ANTHROPIC_API_KEY")),
	)

	return &Anthropic{client: &client, model: model}
}

func (prvdr *Anthropic) Name() string { return "anthropic" }

func (prvdr *Anthropic) Step(
	ctx context.Context, conversation *Conversation, tools []mcp.Tool,
) (*StepResult, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(prvdr.model),
		Messages:  prvdr.convertMessages(conversation),
		Tools:     prvdr.convertTools(tools),
		MaxTokens: anthropicMaxTokens,
	}

	if system := conversation.System(); system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	response, err := prvdr.client.Messages.New(ctx, params)

	if err != nil {
		return nil, fmt.Errorf("anthropic message failed: %w", err)
	}

	result := &StepResult{}

	for _, block := range response.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			result.Text += variant.Text
		case anthropic.ToolUseBlock:
			args := map[string]any{}

			if err := json.Unmarshal(variant.Input, &args); err != nil {
				return nil, fmt.Errorf(
					"anthropic tool call %s carried invalid arguments: %w",
					variant.Name, err,
				)
			}

			result.Calls = append(result.Calls, ToolCall{
				ID:   variant.ID,
				Name: variant.Name,
				Args: args,
			})
		}
	}

	return result, nil
}

func (prvdr *Anthropic) convertMessages(
	conversation *Conversation,
) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(conversation.Messages()))

	for _, message := range conversation.Messages() {
		switch message.Role {
		case "system":
			// handled via params.System
		case "assistant":
			blocks := []anthropic.ContentBlockParamUnion{}

			if message.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(message.Content))
			}

			for _, call := range message.Calls {
				blocks = append(blocks, anthropic.NewToolUseBlock(
					call.ID, call.Args, call.Name,
				))
			}

			out = append(out, anthropic.NewAssistantMessage(blocks...))
		case "tool":
			out = append(out, anthropic.NewUserMessage(
				anthropic.NewToolResultBlock(message.ToolCallID, message.Content, false),
			))
		default:
			out = append(out, anthropic.NewUserMessage(
				anthropic.NewTextBlock(message.Content),
			))
		}
	}

	return out
}

func (prvdr *Anthropic) convertTools(tools []mcp.Tool) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(tools))

	for _, tool := range tools {
		toolParam := anthropic.ToolParam{
			Name:        tool.Name,
			Description: anthropic.String(tool.Description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: tool.InputSchema.Properties,
			},
		}

		out = append(out, anthropic.ToolUnionParam{OfTool: &toolParam})
	}

	return out
}
