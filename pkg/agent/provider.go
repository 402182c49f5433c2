package agent

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"queryfanout/pkg/errors"
)

/*
ToolCall is a provider-agnostic request from the model to execute one of
the page tools.
*/
type ToolCall struct {
	ID   string
	Name string
	Args map[string]any
}

/*
StepResult holds what the model produced for a single turn: free text,
tool calls, or both.
*/
type StepResult struct {
	Text  string
	Calls []ToolCall
}

/*
Provider abstracts one LLM backend. Step sends the conversation so far,
together with the available tools, and returns the model's next move.
*/
type Provider interface {
	Name() string
	Step(ctx context.Context, conversation *Conversation, tools []mcp.Tool) (*StepResult, error)
}

// Default models per backend, chosen for tool-use support.
const (
	DefaultGoogleModel    = "gemini-2.5-computer-use-preview-10-2025"
	DefaultAnthropicModel = "claude-sonnet-4-20250514"
	DefaultOpenAIModel    = "gpt-4o"
	DefaultCohereModel    = "command-r-plus"
	DefaultOllamaModel    = "qwen3"
)

/*
NewProvider constructs the named backend. An empty model selects the
backend's default. Credentials come from the environment, matching each
SDK's conventions.
*/
func NewProvider(ctx context.Context, name, model string) (Provider, error) {
	switch name {
	case "google", "gemini":
		return NewGoogle(ctx, model)
	case "anthropic", "claude":
		return NewAnthropic(model), nil
	case "openai":
		return NewOpenAI(model), nil
	case "cohere":
		return NewCohere(model)
	case "deepseek":
		return NewDeepseek(model)
	case "ollama":
		return NewOllama(model)
	}

	return nil, &errors.UnknownProviderError{Name: name}
}

// ProviderKeys lists the accepted --provider values for the agent driver.
func ProviderKeys() []string {
	return []string{"google", "anthropic", "openai", "cohere", "deepseek", "ollama"}
}
