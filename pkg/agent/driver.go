package agent

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"queryfanout/pkg/browser"
	"queryfanout/pkg/errors"
	"queryfanout/pkg/services"
	"queryfanout/pkg/tools"
)

const chatgptInstruction = `You are on the ChatGPT homepage. Your task is to submit a query WITH WEB SEARCH enabled.

Steps:
1. Find the text input box (large textarea in the middle of the page with "Ask anything" written inside)
2. Click on the textarea to focus it
3. IMPORTANT: Before typing, look for the web search option with a globe symbol beside Attach and click it (it enables web search)
4. Then type this exact query: %s
5. Press Enter to send the query
6. Wait 5-10 seconds for the response to start appearing, then your job is done

Do NOT wait for the entire response to complete. Without the search option enabled ChatGPT answers from training data only, so enabling it is critical.

Use these tools: click_at, type_text_at (with press_enter=true), wait_seconds`

const perplexityInstruction = `You are on the Perplexity homepage. Submit this query and wait for the answer to begin.

Steps:
1. Find the search input box
2. Click on it to focus
3. Type this exact query: %s
4. Press Enter to submit
5. Wait a few seconds for the answer to start appearing

Use these tools: click_at, type_text_at (with press_enter=true), wait_seconds`

/*
Instruction renders the per-service submission goal handed to the model.
Unknown services get a generic instruction built from the descriptor.
*/
func Instruction(descriptor services.Descriptor, query string) string {
	switch descriptor.Key {
	case "chatgpt":
		return fmt.Sprintf(chatgptInstruction, query)
	case "perplexity":
		return fmt.Sprintf(perplexityInstruction, query)
	}

	return fmt.Sprintf(
		"You are on %s (%s). Submit this exact query through the page's main input and press Enter: %s",
		descriptor.Name, descriptor.URL, query,
	)
}

/*
Driver replaces direct DOM submission with a model-guided loop over the
page tools. Polling and extraction still run through the adapter.
*/
type Driver struct {
	provider Provider
	maxSteps int
}

type DriverOption func(*Driver)

func WithDriverMaxSteps(steps int) DriverOption {
	return func(driver *Driver) {
		if steps > 0 {
			driver.maxSteps = steps
		}
	}
}

func NewDriver(provider Provider, options ...DriverOption) *Driver {
	driver := &Driver{provider: provider, maxSteps: DefaultMaxSteps}

	for _, option := range options {
		option(driver)
	}

	return driver
}

func (driver *Driver) Method() string {
	return "dom_extraction_via_agent"
}

func (driver *Driver) Submit(
	ctx context.Context,
	adapter services.Adapter,
	session *browser.Session,
	query string,
) bool {
	goal := Instruction(adapter.Describe(), query)

	runner := New(
		driver.provider,
		tools.NewPageTools(session),
		tools.Definitions(),
		WithMaxSteps(driver.maxSteps),
	)

	reasoning, err := runner.Run(ctx, goal)

	if err != nil {
		if errors.IsSessionClosed(err) {
			log.Error(
				"browser session closed during agent submission",
				"service", adapter.Describe().Key, "error", err,
			)
		} else {
			log.Error(
				"agent submission failed",
				"service", adapter.Describe().Key, "error", err,
			)
		}

		return false
	}

	if reasoning != "" {
		log.Debug("agent submission finished", "reasoning", reasoning)
	}

	return true
}
