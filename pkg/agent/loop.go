package agent

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
)

const DefaultMaxSteps = 15

const systemInstruction = `You are operating a real web browser on behalf of a user.
You interact with the page exclusively through the provided tools. Work in
small steps: take an action, read the tool result, then decide the next
action. Coordinates are CSS pixels from the top-left of the viewport. When
the goal is accomplished, reply with a short confirmation and stop calling
tools.`

/*
Executor runs a named tool against the live page. Satisfied by
tools.PageTools.
*/
type Executor interface {
	Execute(ctx context.Context, name string, args map[string]any) (string, error)
}

/*
Agent runs a provider-driven step loop over a set of page tools until the
model stops requesting actions or the step cap is reached.
*/
type Agent struct {
	provider Provider
	executor Executor
	tools    []mcp.Tool
	maxSteps int
}

type Option func(*Agent)

func WithMaxSteps(steps int) Option {
	return func(agent *Agent) {
		if steps > 0 {
			agent.maxSteps = steps
		}
	}
}

func New(provider Provider, executor Executor, tools []mcp.Tool, options ...Option) *Agent {
	agent := &Agent{
		provider: provider,
		executor: executor,
		tools:    tools,
		maxSteps: DefaultMaxSteps,
	}

	for _, option := range options {
		option(agent)
	}

	return agent
}

/*
Run pursues the goal until the model produces a turn with no tool calls,
the step cap is reached, or a step fails hard. It returns the model's last
free-text output either way; reaching the cap is not an error because the
page may still be in a usable state for the caller's own heuristics.
*/
func (agent *Agent) Run(ctx context.Context, goal string) (string, error) {
	conversation := NewConversation(systemInstruction, goal)
	reasoning := ""

	for step := 1; step <= agent.maxSteps; step++ {
		result, err := agent.provider.Step(ctx, conversation, agent.tools)

		if err != nil {
			return reasoning, fmt.Errorf("agent step %d failed: %w", step, err)
		}

		if result.Text != "" {
			reasoning = result.Text
		}

		conversation.AddStep(result)

		if len(result.Calls) == 0 {
			log.Debug("agent finished", "provider", agent.provider.Name(), "steps", step)
			return reasoning, nil
		}

		for _, call := range result.Calls {
			output, err := agent.executor.Execute(ctx, call.Name, call.Args)

			if err != nil {
				log.Warn(
					"tool execution failed",
					"tool", call.Name, "error", err,
				)
				conversation.AddToolResult(call, err.Error(), true)
				continue
			}

			conversation.AddToolResult(call, output, false)
		}

		if ctx.Err() != nil {
			return reasoning, ctx.Err()
		}
	}

	log.Warn(
		"agent reached step cap without a final answer",
		"provider", agent.provider.Name(), "steps", agent.maxSteps,
	)

	return reasoning, nil
}
