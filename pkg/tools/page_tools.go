package tools

// The page tools are the complete action surface the computer-use agent
// gets: click at coordinates, type at coordinates, wait, screenshot. They
// are declared as MCP tools so every provider SDK sees one schema, and
// executed directly against the session's page.

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
	"github.com/mark3labs/mcp-go/mcp"

	"queryfanout/pkg/browser"
)

// maxWaitSeconds bounds the wait_seconds tool so a confused model cannot
// stall a run.
const maxWaitSeconds = 30

// PageTools binds the agent-facing page actions to one live session.
type PageTools struct {
	session *browser.Session
}

func NewPageTools(session *browser.Session) *PageTools {
	return &PageTools{session: session}
}

// Definitions returns the MCP declarations for every page tool.
func Definitions() []mcp.Tool {
	return []mcp.Tool{
		mcp.NewTool(
			"click_at",
			mcp.WithDescription("Clicks the page at the given viewport coordinates."),
			mcp.WithNumber("x",
				mcp.Description("Horizontal coordinate in CSS pixels"),
				mcp.Required(),
			),
			mcp.WithNumber("y",
				mcp.Description("Vertical coordinate in CSS pixels"),
				mcp.Required(),
			),
		),
		mcp.NewTool(
			"type_text_at",
			mcp.WithDescription("Clicks the page at the given coordinates to focus, then types the text. Optionally presses Enter afterwards."),
			mcp.WithNumber("x",
				mcp.Description("Horizontal coordinate in CSS pixels"),
				mcp.Required(),
			),
			mcp.WithNumber("y",
				mcp.Description("Vertical coordinate in CSS pixels"),
				mcp.Required(),
			),
			mcp.WithString("text",
				mcp.Description("Text to type"),
				mcp.Required(),
			),
			mcp.WithBoolean("press_enter",
				mcp.Description("Press Enter after typing"),
			),
		),
		mcp.NewTool(
			"wait_seconds",
			mcp.WithDescription("Waits the given number of seconds for the page to settle."),
			mcp.WithNumber("seconds",
				mcp.Description("Seconds to wait, capped at 30"),
				mcp.Required(),
			),
		),
		mcp.NewTool(
			"screenshot",
			mcp.WithDescription("Takes a screenshot of the current page and returns it as a base64-encoded PNG."),
		),
	}
}

// Execute runs one named page tool with the given arguments and returns a
// text result for the model.
func (pt *PageTools) Execute(ctx context.Context, name string, args map[string]any) (string, error) {
	switch name {
	case "click_at":
		return pt.clickAt(ctx, args)
	case "type_text_at":
		return pt.typeTextAt(ctx, args)
	case "wait_seconds":
		return pt.waitSeconds(ctx, args)
	case "screenshot":
		return pt.screenshot(ctx)
	default:
		return "", fmt.Errorf("unknown page tool: %s", name)
	}
}

func (pt *PageTools) clickAt(ctx context.Context, args map[string]any) (string, error) {
	x, y, err := coordinates(args)
	if err != nil {
		return "", err
	}

	page := pt.session.Page.Context(ctx)
	if err := page.Mouse.MoveTo(proto.Point{X: x, Y: y}); err != nil {
		return "", fmt.Errorf("failed to move mouse: %w", err)
	}
	if err := page.Mouse.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return "", fmt.Errorf("failed to click: %w", err)
	}

	log.Debug("agent clicked", "session", pt.session.ID, "x", x, "y", y)
	return fmt.Sprintf("clicked at (%.0f, %.0f)", x, y), nil
}

func (pt *PageTools) typeTextAt(ctx context.Context, args map[string]any) (string, error) {
	x, y, err := coordinates(args)
	if err != nil {
		return "", err
	}

	text, _ := args["text"].(string)
	if text == "" {
		return "", fmt.Errorf("text parameter is required")
	}
	pressEnter, _ := args["press_enter"].(bool)

	page := pt.session.Page.Context(ctx)
	if err := page.Mouse.MoveTo(proto.Point{X: x, Y: y}); err != nil {
		return "", fmt.Errorf("failed to move mouse: %w", err)
	}
	if err := page.Mouse.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return "", fmt.Errorf("failed to focus: %w", err)
	}
	if err := page.InsertText(text); err != nil {
		return "", fmt.Errorf("failed to type text: %w", err)
	}

	if pressEnter {
		if err := page.Keyboard.Press(input.Enter); err != nil {
			return "", fmt.Errorf("failed to press enter: %w", err)
		}
	}

	log.Debug("agent typed", "session", pt.session.ID, "chars", len(text), "enter", pressEnter)
	return fmt.Sprintf("typed %d characters at (%.0f, %.0f)", len(text), x, y), nil
}

func (pt *PageTools) waitSeconds(ctx context.Context, args map[string]any) (string, error) {
	seconds, ok := number(args, "seconds")
	if !ok || seconds <= 0 {
		return "", fmt.Errorf("seconds parameter is required")
	}
	if seconds > maxWaitSeconds {
		seconds = maxWaitSeconds
	}

	select {
	case <-time.After(time.Duration(seconds * float64(time.Second))):
	case <-ctx.Done():
		return "", ctx.Err()
	}

	return fmt.Sprintf("waited %.0f seconds", seconds), nil
}

func (pt *PageTools) screenshot(ctx context.Context) (string, error) {
	data, err := pt.session.Screenshot(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to take screenshot: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

func coordinates(args map[string]any) (float64, float64, error) {
	x, okX := number(args, "x")
	y, okY := number(args, "y")
	if !okX || !okY {
		return 0, 0, fmt.Errorf("x and y parameters are required")
	}
	return x, y, nil
}

// number tolerates the integer/float ambiguity of decoded JSON arguments.
func number(args map[string]any, key string) (float64, bool) {
	switch v := args[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
