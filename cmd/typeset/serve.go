package main

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	typesetmcp "github.com/gorewood/typeset/internal/mcp"
)

// newServeCmd creates the serve command for running as an MCP server.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run as MCP server (stdio transport)",
		Long: `Run typeset as a Model Context Protocol (MCP) server over stdio.

This exposes template rendering as MCP tools that any MCP-capable agent
environment can use.

Configure in your agent's MCP settings:
  {
    "mcpServers": {
      "typeset": {
        "command": "typeset",
        "args": ["serve"]
      }
    }
  }

Available tools: prepare_text, render_document, list_templates, list_engines`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			server := typesetmcp.NewServer(buildVersion(), a.runner)
			return server.Run(cmd.Context(), &mcp.StdioTransport{})
		},
	}
}
