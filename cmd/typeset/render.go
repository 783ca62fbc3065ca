package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/gorewood/typeset/internal/job"
	"github.com/gorewood/typeset/internal/output"
)

// renderFlags holds the flags of the render command.
type renderFlags struct {
	template  string
	dataFile  string
	set       map[string]string
	schema    string
	output    string
	text      string
	textOnly  bool
	engine    string
	passes    int
	noHelpers bool
}

// newRenderCmd creates the render command.
func newRenderCmd() *cobra.Command {
	var flags renderFlags
	cmd := &cobra.Command{
		Use:   "render [template]",
		Short: "Render a template with data into a PDF",
		Long: `Render a template with data and compile it into a PDF.

The template is a name looked up in .typeset/templates/, the global
template directory, or a path to a .tex file. Data is read from a YAML or
JSON file (- for stdin); --set overrides single values using dotted keys.

Examples:
  typeset render -t letter -d alice.yaml -o alice.pdf
  typeset render letter.tex -d alice.yaml --set recipient.name=Bob -o bob.pdf
  typeset render -t letter -d alice.yaml -o alice.pdf --text alice.tex
  typeset render -t letter -d alice.yaml --text-only          # print LaTeX
  typeset render -t invoice -d inv.json --schema inv.schema.json -o inv.pdf`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				if flags.template != "" && flags.template != args[0] {
					printer := newPrinter(cmd)
					return fail(printer, output.NewUserError("template given both as argument and --template"))
				}
				flags.template = args[0]
			}
			return runRender(cmd, flags)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.template, "template", "t", "", "Template name or path")
	f.StringVarP(&flags.dataFile, "data", "d", "", "YAML or JSON data file (- for stdin)")
	f.StringToStringVar(&flags.set, "set", nil, "Override a data value (key.path=value, repeatable)")
	f.StringVar(&flags.schema, "schema", "", "JSON Schema the data must satisfy")
	f.StringVarP(&flags.output, "output", "o", "", "Output file")
	f.StringVar(&flags.text, "text", "", "Also write the rendered LaTeX to this file")
	f.BoolVar(&flags.textOnly, "text-only", false, "Write the rendered LaTeX instead of compiling it")
	f.StringVar(&flags.engine, "engine", "", "LaTeX engine (default from template or config)")
	f.IntVar(&flags.passes, "passes", 0, "Number of engine runs (default depends on the engine)")
	f.BoolVar(&flags.noHelpers, "no-helpers", false, "Render without the standard helper functions")

	return cmd
}

// runRender executes the render command.
func runRender(cmd *cobra.Command, flags renderFlags) error {
	printer := newPrinter(cmd)

	if err := flags.validate(); err != nil {
		return fail(printer, err)
	}

	a, err := newApp(cmd)
	if err != nil {
		return fail(printer, err)
	}

	spec := job.Spec{
		Template:  flags.template,
		DataFile:  flags.dataFile,
		Set:       flags.set,
		Schema:    flags.schema,
		Output:    flags.output,
		Text:      flags.text,
		TextOnly:  flags.textOnly,
		Engine:    flags.engine,
		Passes:    flags.passes,
		NoHelpers: flags.noHelpers,
	}

	if flags.textOnly && flags.output == "" {
		text, err := a.runner.Text(spec)
		if err != nil {
			return fail(printer, err)
		}
		if printer.IsJSON() {
			return printer.Success(map[string]any{"template": flags.template, "text": text})
		}
		printer.Print("%s", text)
		return nil
	}

	result, err := a.runner.Run(cmd.Context(), spec)
	if err != nil {
		return fail(printer, err)
	}

	if printer.IsJSON() {
		return printer.WriteJSON(result)
	}
	printRenderResult(printer, result)
	return nil
}

func (f renderFlags) validate() error {
	switch {
	case f.template == "":
		return output.NewUserError("no template given (use --template or an argument)")
	case f.passes < 0:
		return output.NewUserError("--passes must not be negative")
	case f.textOnly && f.text != "":
		return output.NewUserError("--text and --text-only cannot be combined")
	case !f.textOnly && f.output == "":
		return output.NewUserError("--output is required unless --text-only is set")
	case f.textOnly && (f.engine != "" || f.passes != 0):
		return output.NewUserError("--engine and --passes have no effect with --text-only")
	}
	return nil
}

func printRenderResult(printer *output.Printer, result job.Result) {
	line := "Wrote " + result.Output
	if result.Engine != "" {
		line += printer.Muted(" (" + result.Engine + ", " + result.Duration.Round(time.Millisecond).String() + ")")
	}
	printer.Println(line)
	if result.Text != "" {
		printer.Println("Wrote " + result.Text)
	}
}
