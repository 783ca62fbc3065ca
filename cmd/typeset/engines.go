package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/gorewood/typeset/internal/compile"
)

// engineStatus describes one engine for output.
type engineStatus struct {
	Name      string `json:"name"`
	Program   string `json:"program"`
	Passes    int    `json:"passes"`
	Available bool   `json:"available"`
	Path      string `json:"path,omitempty"`
	Default   bool   `json:"default"`
}

// newEnginesCmd creates the engines command.
func newEnginesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "engines",
		Short: "List LaTeX engines and whether they are installed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			printer := newPrinter(cmd)
			a, err := newApp(cmd)
			if err != nil {
				return fail(printer, err)
			}

			var statuses []engineStatus
			for _, e := range compile.Engines() {
				path, ok := compile.Available(e)
				statuses = append(statuses, engineStatus{
					Name:      e.Name,
					Program:   e.Program,
					Passes:    e.Passes,
					Available: ok,
					Path:      path,
					Default:   e.Name == a.cfg.Engine,
				})
			}

			if printer.IsJSON() {
				return printer.WriteJSON(map[string]any{"engines": statuses})
			}
			rows := make([][]string, 0, len(statuses))
			for _, s := range statuses {
				name := s.Name
				if s.Default {
					name += "*"
				}
				found := "missing"
				if s.Available {
					found = s.Path
				}
				rows = append(rows, []string{name, strconv.Itoa(s.Passes), found})
			}
			printer.Table([]string{"ENGINE", "PASSES", "PROGRAM"}, rows)
			return nil
		},
	}
}
