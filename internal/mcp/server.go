// Package mcp provides a Model Context Protocol server for typeset.
// It exposes template rendering as MCP tools that any MCP-capable agent can use.
package mcp

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/gorewood/typeset/internal/job"
)

// NewServer creates an MCP server with all typeset tools registered.
func NewServer(version string, runner *job.Runner) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "typeset",
		Version: version,
	}, nil)
	registerTools(server, runner)
	return server
}

// boolPtr returns a pointer to a bool value.
func boolPtr(b bool) *bool {
	return &b
}

// readOnlyAnnotations returns annotations for read-only tools.
func readOnlyAnnotations() *mcp.ToolAnnotations {
	return &mcp.ToolAnnotations{
		ReadOnlyHint:   true,
		IdempotentHint: true,
		OpenWorldHint:  boolPtr(false),
	}
}

// writeAnnotations returns annotations for tools that write output files.
// Re-rendering the same inputs replaces the file with the same content.
func writeAnnotations() *mcp.ToolAnnotations {
	return &mcp.ToolAnnotations{
		IdempotentHint:  true,
		DestructiveHint: boolPtr(false),
		OpenWorldHint:   boolPtr(false),
	}
}

// registerTools adds all typeset tools to the server.
func registerTools(server *mcp.Server, runner *job.Runner) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "prepare_text",
		Description: "Render a LaTeX template with data and return the resulting text without compiling it. Use this to preview or debug a template.",
		Annotations: readOnlyAnnotations(),
	}, handlePrepareText(runner))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "render_document",
		Description: "Render a LaTeX template with data and compile it to a PDF at the given output path. Optionally also writes the rendered text.",
		Annotations: writeAnnotations(),
	}, handleRenderDocument(runner))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_templates",
		Description: "List the templates available by name: project, global and built-in.",
		Annotations: readOnlyAnnotations(),
	}, handleListTemplates(runner))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_engines",
		Description: "List the known LaTeX engines and whether each is installed.",
		Annotations: readOnlyAnnotations(),
	}, handleListEngines())
}
