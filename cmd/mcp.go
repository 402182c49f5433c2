package cmd

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"queryfanout/pkg/fanout"
	"queryfanout/pkg/services"
	"queryfanout/pkg/tools"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the query_fanout tool over MCP stdio",
	Long:  longMCP,
	RunE:  runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	provider, err := buildBrowserProvider()
	if err != nil {
		return err
	}

	driver, err := buildDriver(cmd.Context())
	if err != nil {
		return err
	}

	runner := fanout.NewRunner(
		provider,
		services.DefaultRegistry(),
		fanout.WithDriver(driver),
	)

	srv := server.NewMCPServer(
		"Query Fanout",
		"1.0.0",
		server.WithLogging(),
	)

	tool := &tools.FanoutTool{Runner: runner}
	srv.AddTool(tools.NewQueryFanoutTool(), tool.Handle)

	return server.ServeStdio(srv)
}

var longMCP = `
Serve an MCP stdio server exposing the query_fanout tool, so MCP hosts can
fan queries out across the configured services and receive the aggregated
JSON report as the tool result.
`
