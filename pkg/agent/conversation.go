package agent

import (
	"fmt"
)

// Message is one provider-agnostic conversation entry. Providers convert
// these into their SDK's message shapes.
type Message struct {
	Role       string // system, user, assistant, tool
	Content    string
	Calls      []ToolCall // assistant turns only
	ToolName   string
	ToolCallID string
}

// Conversation accumulates the agent's step history for one run.
type Conversation struct {
	messages []Message
}

func NewConversation(system, goal string) *Conversation {
	return &Conversation{
		messages: []Message{
			{Role: "system", Content: system},
			{Role: "user", Content: goal},
		},
	}
}

/*
AddStep records the model's turn. Tool calls are kept on the assistant
message because several APIs require tool results to reference a call the
assistant visibly made.
*/
func (c *Conversation) AddStep(result *StepResult) {
	c.messages = append(c.messages, Message{
		Role:    "assistant",
		Content: result.Text,
		Calls:   result.Calls,
	})
}

// AddToolResult appends the outcome of an executed tool call. Failures are
// surfaced to the model as content rather than aborting the run, so it can
// try a different action.
func (c *Conversation) AddToolResult(call ToolCall, content string, isError bool) {
	if isError {
		content = fmt.Sprintf("Error executing %s: %s", call.Name, content)
	}

	c.messages = append(c.messages, Message{
		Role:       "tool",
		Content:    content,
		ToolName:   call.Name,
		ToolCallID: call.ID,
	})
}

// Messages returns the entries in order. The slice is shared; providers
// must only read it.
func (c *Conversation) Messages() []Message {
	return c.messages
}

// System returns the system instruction, empty when none was set.
func (c *Conversation) System() string {
	for _, message := range c.messages {
		if message.Role == "system" {
			return message.Content
		}
	}
	return ""
}
