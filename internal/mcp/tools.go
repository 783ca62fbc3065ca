package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/gorewood/typeset/internal/compile"
	"github.com/gorewood/typeset/internal/job"
	"github.com/gorewood/typeset/internal/templates"
)

// --- Prepare text tool ---

// PrepareTextInput is the input for the prepare_text tool.
type PrepareTextInput struct {
	Template  string            `json:"template"             jsonschema:"template name or path to a .tex template"`
	Data      map[string]any    `json:"data,omitempty"       jsonschema:"data substituted into the template; merged over data_file"`
	DataFile  string            `json:"data_file,omitempty"  jsonschema:"YAML or JSON data file"`
	Set       map[string]string `json:"set,omitempty"        jsonschema:"dotted key=value overrides applied last"`
	Schema    string            `json:"schema,omitempty"     jsonschema:"JSON Schema file the data must satisfy"`
	NoHelpers bool              `json:"no_helpers,omitempty" jsonschema:"render without the standard helper functions"`
}

// PrepareTextOutput is the output for the prepare_text tool.
type PrepareTextOutput struct {
	Text string `json:"text" jsonschema:"the rendered LaTeX source"`
}

func handlePrepareText(runner *job.Runner) mcp.ToolHandlerFor[PrepareTextInput, PrepareTextOutput] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input PrepareTextInput) (*mcp.CallToolResult, PrepareTextOutput, error) {
		if input.Template == "" {
			return nil, PrepareTextOutput{}, errors.New("template is required")
		}

		text, err := runner.Text(job.Spec{
			Template:  input.Template,
			DataFile:  input.DataFile,
			Data:      input.Data,
			Set:       input.Set,
			Schema:    input.Schema,
			NoHelpers: input.NoHelpers,
		})
		if err != nil {
			return nil, PrepareTextOutput{}, fmt.Errorf("preparing text: %w", err)
		}
		return nil, PrepareTextOutput{Text: text}, nil
	}
}

// --- Render document tool ---

// RenderDocumentInput is the input for the render_document tool.
type RenderDocumentInput struct {
	Template  string            `json:"template"             jsonschema:"template name or path to a .tex template"`
	Data      map[string]any    `json:"data,omitempty"       jsonschema:"data substituted into the template; merged over data_file"`
	DataFile  string            `json:"data_file,omitempty"  jsonschema:"YAML or JSON data file"`
	Set       map[string]string `json:"set,omitempty"        jsonschema:"dotted key=value overrides applied last"`
	Schema    string            `json:"schema,omitempty"     jsonschema:"JSON Schema file the data must satisfy"`
	NoHelpers bool              `json:"no_helpers,omitempty" jsonschema:"render without the standard helper functions"`
	Output    string            `json:"output"               jsonschema:"path the PDF is written to; an existing file is replaced"`
	Text      string            `json:"text,omitempty"       jsonschema:"also write the rendered text to this path"`
	Engine    string            `json:"engine,omitempty"     jsonschema:"LaTeX engine (tectonic, latexmk, pdflatex, xelatex, lualatex)"`
	Passes    int               `json:"passes,omitempty"     jsonschema:"number of engine runs (default depends on the engine)"`
}

// RenderDocumentOutput is the output for the render_document tool.
type RenderDocumentOutput struct {
	Output     string `json:"output"                jsonschema:"path of the written PDF"`
	TextOutput string `json:"text_output,omitempty" jsonschema:"path of the written text, if requested"`
	Engine     string `json:"engine"                jsonschema:"engine that compiled the document"`
	Bytes      int64  `json:"bytes"                 jsonschema:"size of the PDF in bytes"`
}

func handleRenderDocument(runner *job.Runner) mcp.ToolHandlerFor[RenderDocumentInput, RenderDocumentOutput] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input RenderDocumentInput) (*mcp.CallToolResult, RenderDocumentOutput, error) {
		if input.Template == "" || input.Output == "" {
			return nil, RenderDocumentOutput{}, errors.New("template and output are required")
		}
		if input.Passes < 0 {
			return nil, RenderDocumentOutput{}, errors.New("passes must not be negative")
		}

		result, err := runner.Run(ctx, job.Spec{
			Template:  input.Template,
			DataFile:  input.DataFile,
			Data:      input.Data,
			Set:       input.Set,
			Schema:    input.Schema,
			NoHelpers: input.NoHelpers,
			Output:    input.Output,
			Text:      input.Text,
			Engine:    input.Engine,
			Passes:    input.Passes,
		})
		if err != nil {
			return nil, RenderDocumentOutput{}, fmt.Errorf("rendering document: %w", err)
		}
		return nil, RenderDocumentOutput{
			Output:     result.Output,
			TextOutput: result.Text,
			Engine:     result.Engine,
			Bytes:      result.Bytes,
		}, nil
	}
}

// --- List templates tool ---

// ListTemplatesInput is the input for the list_templates tool (no parameters needed).
type ListTemplatesInput struct{}

// ListTemplatesOutput is the output for the list_templates tool.
type ListTemplatesOutput struct {
	Templates []templates.Info `json:"templates" jsonschema:"available templates, project first"`
}

func handleListTemplates(runner *job.Runner) mcp.ToolHandlerFor[ListTemplatesInput, ListTemplatesOutput] {
	return func(_ context.Context, _ *mcp.CallToolRequest, _ ListTemplatesInput) (*mcp.CallToolResult, ListTemplatesOutput, error) {
		infos, err := runner.Store().List()
		if err != nil {
			return nil, ListTemplatesOutput{}, fmt.Errorf("listing templates: %w", err)
		}
		return nil, ListTemplatesOutput{Templates: infos}, nil
	}
}

// --- List engines tool ---

// ListEnginesInput is the input for the list_engines tool (no parameters needed).
type ListEnginesInput struct{}

// EngineInfo describes one engine.
type EngineInfo struct {
	Name      string `json:"name"           jsonschema:"engine name"`
	Program   string `json:"program"        jsonschema:"executable looked up on PATH"`
	Passes    int    `json:"passes"         jsonschema:"default number of runs"`
	Available bool   `json:"available"      jsonschema:"whether the executable was found"`
	Path      string `json:"path,omitempty" jsonschema:"resolved executable path"`
}

// ListEnginesOutput is the output for the list_engines tool.
type ListEnginesOutput struct {
	Engines []EngineInfo `json:"engines" jsonschema:"known engines"`
}

func handleListEngines() mcp.ToolHandlerFor[ListEnginesInput, ListEnginesOutput] {
	return func(_ context.Context, _ *mcp.CallToolRequest, _ ListEnginesInput) (*mcp.CallToolResult, ListEnginesOutput, error) {
		var out ListEnginesOutput
		for _, e := range compile.Engines() {
			path, ok := compile.Available(e)
			out.Engines = append(out.Engines, EngineInfo{
				Name:      e.Name,
				Program:   e.Program,
				Passes:    e.Passes,
				Available: ok,
				Path:      path,
			})
		}
		return nil, out, nil
	}
}
