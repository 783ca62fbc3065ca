package main

import (
	"github.com/spf13/cobra"

	"github.com/gorewood/typeset/internal/output"
	"github.com/gorewood/typeset/internal/templates"
)

// newTemplatesCmd creates the templates command and its subcommands.
func newTemplatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List, show and install templates",
		Long: `Manage the template library.

Templates are looked up by name in .typeset/templates/ of the project,
then in the global template directory. Built-in templates must be copied
with 'typeset templates init' before they can be rendered.`,
	}
	cmd.AddCommand(newTemplatesListCmd(), newTemplatesShowCmd(), newTemplatesInitCmd())
	return cmd
}

func newTemplatesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			printer := newPrinter(cmd)
			a, err := newApp(cmd)
			if err != nil {
				return fail(printer, err)
			}

			infos, err := a.store.List()
			if err != nil {
				return fail(printer, output.NewSystemErrorWithCause(err.Error(), err))
			}

			if printer.IsJSON() {
				return printer.WriteJSON(map[string]any{"templates": infos})
			}
			rows := make([][]string, 0, len(infos))
			for _, info := range infos {
				source := info.Source
				if info.Overrides != "" {
					source += printer.Muted(" (shadowed by " + info.Overrides + ")")
				}
				rows = append(rows, []string{info.Name, source, info.Description})
			}
			printer.Table([]string{"NAME", "SOURCE", "DESCRIPTION"}, rows)
			return nil
		},
	}
}

func newTemplatesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Print a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			printer := newPrinter(cmd)
			a, err := newApp(cmd)
			if err != nil {
				return fail(printer, err)
			}

			tmpl, err := a.store.Load(args[0])
			if err != nil {
				return fail(printer, err)
			}

			if printer.IsJSON() {
				return printer.WriteJSON(map[string]any{
					"name":        tmpl.Name,
					"description": tmpl.Description,
					"engine":      tmpl.Engine,
					"source":      tmpl.Source,
					"path":        tmpl.Path,
					"content":     tmpl.Content,
				})
			}
			printer.Print("%s", tmpl.Content)
			return nil
		},
	}
}

func newTemplatesInitCmd() *cobra.Command {
	var (
		dir    string
		global bool
		force  bool
	)
	cmd := &cobra.Command{
		Use:   "init <name>",
		Short: "Copy a built-in template and its sample data",
		Long: `Copy a built-in template and its sample data into the project
template directory (or --dir, or the global directory with --global).

Examples:
  typeset templates init letter
  typeset render -t letter -d .typeset/templates/letter.yaml -o letter.pdf`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			printer := newPrinter(cmd)
			a, err := newApp(cmd)
			if err != nil {
				return fail(printer, err)
			}

			target := a.store.ProjectDir
			switch {
			case dir != "" && global:
				return fail(printer, output.NewUserError("--dir and --global cannot be combined"))
			case dir != "":
				target = dir
			case global:
				if a.store.GlobalDir == "" {
					return fail(printer, output.NewSystemError("no global config directory"))
				}
				target = a.store.GlobalDir
			}

			paths, err := templates.Init(args[0], target, force)
			if err != nil {
				return fail(printer, err)
			}

			if printer.IsJSON() {
				return printer.WriteJSON(map[string]any{"name": args[0], "files": paths})
			}
			for _, p := range paths {
				printer.Println("Wrote " + p)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "Target directory")
	cmd.Flags().BoolVar(&global, "global", false, "Install into the global template directory")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing files")
	return cmd
}
