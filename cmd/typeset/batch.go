package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/gorewood/typeset/internal/job"
	"github.com/gorewood/typeset/internal/manifest"
	"github.com/gorewood/typeset/internal/output"
)

// batchResult is the outcome of one manifest task.
type batchResult struct {
	Task     int           `json:"task"`
	Job      int           `json:"job"`
	Template string        `json:"template"`
	Output   string        `json:"output"`
	Status   string        `json:"status"`
	Engine   string        `json:"engine,omitempty"`
	Bytes    int64         `json:"bytes,omitempty"`
	Duration time.Duration `json:"duration_ns,omitempty"`
	Error    string        `json:"error,omitempty"`

	err error
}

// Task statuses.
const (
	statusOK      = "ok"
	statusFailed  = "failed"
	statusSkipped = "skipped"
	statusPlanned = "planned"
)

// newBatchCmd creates the batch command.
func newBatchCmd() *cobra.Command {
	var (
		jobs      int
		keepGoing bool
		dryRun    bool
	)
	cmd := &cobra.Command{
		Use:   "batch [manifest]",
		Short: "Render every job of a manifest",
		Long: `Render every job listed in a manifest file (default: typeset.yaml in
the project root).

A job whose template is a glob pattern renders once per matching file.
Jobs run concurrently, at most --jobs at a time. The first failure stops
the batch unless --keep-going is set.

Example manifest:
  engine: tectonic
  jobs:
    - template: letters/**/*.tex
      data: data/common.yaml
      output: out/

Examples:
  typeset batch                     # Render typeset.yaml
  typeset batch site.yaml --jobs 8  # Custom manifest, 8 workers
  typeset batch --dry-run           # List the expanded tasks`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, args, jobs, keepGoing, dryRun)
		},
	}
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "Maximum concurrent renders (default from config)")
	cmd.Flags().BoolVarP(&keepGoing, "keep-going", "k", false, "Render remaining jobs after a failure")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List tasks without rendering")
	return cmd
}

// runBatch executes the batch command.
func runBatch(cmd *cobra.Command, args []string, jobs int, keepGoing, dryRun bool) error {
	printer := newPrinter(cmd)

	if jobs < 0 {
		return fail(printer, output.NewUserError("--jobs must not be negative"))
	}

	a, err := newApp(cmd)
	if err != nil {
		return fail(printer, err)
	}

	path := filepath.Join(a.root, manifest.DefaultFile)
	if len(args) == 1 {
		path = args[0]
	}

	m, err := manifest.Load(path)
	if err != nil {
		return fail(printer, err)
	}
	tasks, err := m.Expand()
	if err != nil {
		return fail(printer, err)
	}

	if jobs == 0 {
		jobs = max(a.cfg.Jobs, 1)
	}
	a.logger.Info("batch", "manifest", path, "tasks", len(tasks), "jobs", jobs)

	var (
		results []batchResult
		cause   error
	)
	if dryRun {
		results = planBatch(tasks)
	} else {
		results, cause = executeBatch(cmd.Context(), a.runner, tasks, jobs, keepGoing)
	}

	if printer.IsJSON() {
		if err := printer.WriteJSON(map[string]any{
			"manifest": path,
			"results":  results,
			"failed":   countStatus(results, statusFailed),
		}); err != nil {
			return err
		}
	} else {
		printBatchResults(printer, results)
	}

	if err := batchError(results, cause); err != nil {
		if !printer.IsJSON() {
			printer.Error(err)
		}
		return err
	}
	return nil
}

func planBatch(tasks []manifest.Task) []batchResult {
	results := make([]batchResult, len(tasks))
	for i, task := range tasks {
		results[i] = newBatchResult(i, task)
		results[i].Status = statusPlanned
	}
	return results
}

// executeBatch renders tasks on at most limit goroutines. Each goroutine
// writes only its own slot of the result slice. The returned error is the
// failure that stopped the batch, or nil when every task ran.
func executeBatch(ctx context.Context, runner *job.Runner, tasks []manifest.Task, limit int, keepGoing bool) ([]batchResult, error) {
	results := make([]batchResult, len(tasks))
	for i, task := range tasks {
		results[i] = newBatchResult(i, task)
		results[i].Status = statusSkipped
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, task := range tasks {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			res, err := runner.Run(gctx, taskSpec(task))
			if err != nil && gctx.Err() != nil && errors.Is(err, context.Canceled) {
				// Interrupted by another task's failure; stays skipped.
				return nil
			}
			if err != nil {
				results[i].Status = statusFailed
				results[i].Error = err.Error()
				results[i].err = err
				if keepGoing {
					return nil
				}
				return err
			}
			results[i].Status = statusOK
			results[i].Engine = res.Engine
			results[i].Bytes = res.Bytes
			results[i].Duration = res.Duration
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	return results, err
}

func newBatchResult(i int, task manifest.Task) batchResult {
	return batchResult{
		Task:     i + 1,
		Job:      task.Job + 1,
		Template: task.Template,
		Output:   task.Output,
	}
}

func taskSpec(task manifest.Task) job.Spec {
	return job.Spec{
		Template: task.Template,
		DataFile: task.Data,
		Set:      task.Set,
		Schema:   task.Schema,
		Output:   task.Output,
		Text:     task.Text,
		TextOnly: task.TextOnly,
		Engine:   task.Engine,
	}
}

func countStatus(results []batchResult, status string) int {
	n := 0
	for _, r := range results {
		if r.Status == status {
			n++
		}
	}
	return n
}

func printBatchResults(printer *output.Printer, results []batchResult) {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		detail := r.Engine
		if r.Duration > 0 {
			detail += " " + r.Duration.Round(time.Millisecond).String()
		}
		rows = append(rows, []string{strconv.Itoa(r.Task), r.Template, r.Output, r.Status, detail})
	}
	printer.Table([]string{"#", "TEMPLATE", "OUTPUT", "STATUS", "ENGINE"}, rows)

	for _, r := range results {
		if r.Status == statusFailed {
			printer.Warn("task %d (%s): %s", r.Task, r.Template, r.Error)
		}
	}
}

// batchError returns nil when the batch ran to completion without failures.
// The exit code follows cause, the failure that stopped the batch, or else
// the first failed task.
func batchError(results []batchResult, cause error) error {
	if cause == nil {
		for _, r := range results {
			if r.err != nil {
				cause = r.err
				break
			}
		}
	}
	if cause == nil {
		return nil
	}

	failed := countStatus(results, statusFailed)
	msg := fmt.Sprintf("%d of %d tasks failed", failed, len(results))
	if failed == 0 {
		msg = "batch interrupted"
	}
	return &output.ExitError{
		Code:    classify(cause).Code,
		Message: msg,
		Cause:   cause,
	}
}
