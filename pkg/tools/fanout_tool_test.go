package tools

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"queryfanout/pkg/fanout"
)

type stubRunner struct {
	query    string
	services []string
	output   string
	results  []fanout.QueryResult
}

func (r *stubRunner) Run(ctx context.Context, query string, serviceKeys []string, outputPath string) []fanout.QueryResult {
	r.query = query
	r.services = serviceKeys
	r.output = outputPath
	return r.results
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = "query_fanout"
	req.Params.Arguments = args
	return req
}

func TestFanoutToolHandle(t *testing.T) {
	runner := &stubRunner{results: []fanout.QueryResult{
		{Service: "perplexity", Query: "capital of France", Success: true},
	}}
	tool := &FanoutTool{Runner: runner}

	result, err := tool.Handle(context.Background(), callRequest(map[string]any{
		"query":    "capital of France",
		"services": "perplexity, chatgpt",
		"output":   "/tmp/report.json",
	}))
	require.NoError(t, err)

	assert.Equal(t, "capital of France", runner.query)
	assert.Equal(t, []string{"perplexity", "chatgpt"}, runner.services)
	assert.Equal(t, "/tmp/report.json", runner.output)

	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)
	assert.Contains(t, text.Text, `"service":"perplexity"`)
	assert.Contains(t, text.Text, `"success":true`)
}

func TestFanoutToolDefaults(t *testing.T) {
	runner := &stubRunner{}
	tool := &FanoutTool{Runner: runner}

	_, err := tool.Handle(context.Background(), callRequest(map[string]any{
		"query": "capital of France",
	}))
	require.NoError(t, err)

	assert.Nil(t, runner.services)
	assert.Empty(t, runner.output)
}

func TestFanoutToolRequiresQuery(t *testing.T) {
	tool := &FanoutTool{Runner: &stubRunner{}}

	_, err := tool.Handle(context.Background(), callRequest(map[string]any{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query parameter is required")
}

func TestPageToolDefinitions(t *testing.T) {
	defs := Definitions()
	require.Len(t, defs, 4)

	names := make([]string, 0, len(defs))
	for _, def := range defs {
		names = append(names, def.Name)
	}
	assert.Equal(t, []string{"click_at", "type_text_at", "wait_seconds", "screenshot"}, names)

	// type_text_at carries the full coordinate/text schema.
	var typeText mcp.Tool
	for _, def := range defs {
		if def.Name == "type_text_at" {
			typeText = def
		}
	}
	assert.ElementsMatch(t, []string{"x", "y", "text"}, typeText.InputSchema.Required)
	assert.Contains(t, typeText.InputSchema.Properties, "press_enter")
}

func TestNumberCoercion(t *testing.T) {
	args := map[string]any{"x": 12.0, "y": 34, "z": "nope"}

	x, ok := number(args, "x")
	require.True(t, ok)
	assert.Equal(t, 12.0, x)

	y, ok := number(args, "y")
	require.True(t, ok)
	assert.Equal(t, 34.0, y)

	_, ok = number(args, "z")
	assert.False(t, ok)
}
