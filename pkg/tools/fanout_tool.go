package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"queryfanout/pkg/fanout"
)

// FanoutRunner is the slice of the runner the MCP tool needs.
type FanoutRunner interface {
	Run(ctx context.Context, query string, serviceKeys []string, outputPath string) []fanout.QueryResult
}

// NewQueryFanoutTool declares the query_fanout MCP tool.
func NewQueryFanoutTool() mcp.Tool {
	return mcp.NewTool(
		"query_fanout",
		mcp.WithDescription("Submits a query to the configured AI chat services, waits for their answers, and returns the aggregated extraction results as JSON."),
		mcp.WithString("query",
			mcp.Description("The query to execute across the services"),
			mcp.Required(),
		),
		mcp.WithString("services",
			mcp.Description("Comma-separated service keys to restrict the fanout (default: all)"),
		),
		mcp.WithString("output",
			mcp.Description("Optional file path to also save the JSON report to"),
		),
	)
}

// FanoutTool handles query_fanout invocations against a runner.
type FanoutTool struct {
	Runner FanoutRunner
}

func (tool *FanoutTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()

	query, _ := args["query"].(string)
	if query == "" {
		return nil, fmt.Errorf("query parameter is required")
	}

	var serviceKeys []string
	if raw, _ := args["services"].(string); raw != "" {
		for _, key := range strings.Split(raw, ",") {
			if key = strings.TrimSpace(key); key != "" {
				serviceKeys = append(serviceKeys, key)
			}
		}
	}

	output, _ := args["output"].(string)

	results := tool.Runner.Run(ctx, query, serviceKeys, output)

	data, err := json.Marshal(results)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal results: %w", err)
	}

	return mcp.NewToolResultText(string(data)), nil
}
