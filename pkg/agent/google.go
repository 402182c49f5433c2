package agent

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
	"google.golang.org/genai"
)

/*
Google drives the Gemini API. The client picks up GOOGLE_API_KEY (or
GEMINI_API_KEY) from the environment.
*/
type Google struct {
	client *genai.Client
	model  string
}

func NewGoogle(ctx context.Context, model string) (*Google, error) {
	if model == "" {
		model = DefaultGoogleModel
	}

	client, err := genai.NewClient(ctx, nil)

	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &Google{client: client, model: model}, nil
}

func (prvdr *Google) Name() string { return "google" }

func (prvdr *Google) Step(
	ctx context.Context, conversation *Conversation, tools []mcp.Tool,
) (*StepResult, error) {
	contents, system := prvdr.convertMessages(conversation)

	config := &genai.GenerateContentConfig{
		Tools: prvdr.convertTools(tools),
	}

	if system != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		}
	}

	response, err := prvdr.client.Models.GenerateContent(
		ctx, prvdr.model, contents, config,
	)

	if err != nil {
		return nil, fmt.Errorf("gemini generate failed: %w", err)
	}

	result := &StepResult{}

	if len(response.Candidates) == 0 || response.Candidates[0].Content == nil {
		return result, nil
	}

	for _, part := range response.Candidates[0].Content.Parts {
		if part.FunctionCall != nil {
			result.Calls = append(result.Calls, ToolCall{
				ID:   part.FunctionCall.ID,
				Name: part.FunctionCall.Name,
				Args: part.FunctionCall.Args,
			})
			continue
		}

		if part.Text != "" {
			result.Text += part.Text
		}
	}

	return result, nil
}

func (prvdr *Google) convertMessages(
	conversation *Conversation,
) ([]*genai.Content, string) {
	out := make([]*genai.Content, 0, len(conversation.Messages()))
	system := ""

	for _, message := range conversation.Messages() {
		switch message.Role {
		case "system":
			system = message.Content
		case "assistant":
			out = append(out, &genai.Content{
				Role:  "model",
				Parts: []*genai.Part{{Text: message.Content}},
			})
		case "tool":
			out = append(out, &genai.Content{
				Role: "user",
				Parts: []*genai.Part{{
					FunctionResponse: &genai.FunctionResponse{
						Name:     message.ToolName,
						Response: map[string]any{"content": message.Content},
					},
				}},
			})
		default:
			out = append(out, &genai.Content{
				Role:  "user",
				Parts: []*genai.Part{{Text: message.Content}},
			})
		}
	}

	return out, system
}

func (prvdr *Google) convertTools(tools []mcp.Tool) []*genai.Tool {
	out := make([]*genai.Tool, 0, len(tools))

	for _, tool := range tools {
		properties := make(map[string]*genai.Schema)

		for key, value := range tool.InputSchema.Properties {
			propMap, ok := value.(map[string]any)

			if !ok {
				log.Warn(
					"skipping tool property with unexpected shape",
					"tool", tool.Name, "property", key,
				)
				continue
			}

			schemaType := genai.TypeString

			if typeStr, ok := propMap["type"].(string); ok {
				switch typeStr {
				case "number":
					schemaType = genai.TypeNumber
				case "integer":
					schemaType = genai.TypeInteger
				case "boolean":
					schemaType = genai.TypeBoolean
				case "array":
					schemaType = genai.TypeArray
				case "object":
					schemaType = genai.TypeObject
				}
			}

			description := ""

			if desc, ok := propMap["description"].(string); ok {
				description = desc
			}

			properties[key] = &genai.Schema{
				Type:        schemaType,
				Description: description,
			}
		}

		out = append(out, &genai.Tool{
			FunctionDeclarations: []*genai.FunctionDeclaration{{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters: &genai.Schema{
					Type:       genai.TypeObject,
					Properties: properties,
					Required:   tool.InputSchema.Required,
				},
			}},
		})
	}

	return out
}
