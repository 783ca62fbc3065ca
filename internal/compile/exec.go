package compile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

const (
	sourceFile = "document.tex"
	outputFile = "document.pdf"

	// logTailLines bounds how much engine output ends up in an Error.
	logTailLines = 40
)

// Exec runs an external TeX engine.
type Exec struct {
	engine      Engine
	extraArgs   []string
	passes      int
	keepWorkdir bool
	logger      *slog.Logger
}

// ExecOption configures an Exec.
type ExecOption func(*Exec)

// WithLogger sets the logger used for engine invocations.
func WithLogger(logger *slog.Logger) ExecOption {
	return func(e *Exec) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithExtraArgs appends arguments after the engine defaults.
func WithExtraArgs(args ...string) ExecOption {
	return func(e *Exec) { e.extraArgs = append(e.extraArgs, args...) }
}

// WithPasses overrides the engine's pass count. Values below 1 are ignored.
func WithPasses(n int) ExecOption {
	return func(e *Exec) {
		if n > 0 {
			e.passes = n
		}
	}
}

// WithKeepWorkdir leaves the temporary directory behind for inspection.
func WithKeepWorkdir(keep bool) ExecOption {
	return func(e *Exec) { e.keepWorkdir = keep }
}

// NewExec returns a backend running engine.
func NewExec(engine Engine, opts ...ExecOption) *Exec {
	e := &Exec{
		engine: engine,
		passes: max(engine.Passes, 1),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ForName is Lookup followed by NewExec.
func ForName(name string, opts ...ExecOption) (*Exec, error) {
	engine, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	return NewExec(engine, opts...), nil
}

// Engine returns the engine this backend runs.
func (e *Exec) Engine() Engine { return e.engine }

// Compile writes source into a fresh directory, runs the engine there and
// returns the produced PDF.
func (e *Exec) Compile(ctx context.Context, source string) ([]byte, error) {
	dir, err := os.MkdirTemp("", "typeset-*")
	if err != nil {
		return nil, fmt.Errorf("creating work directory: %w", err)
	}
	if e.keepWorkdir {
		e.logger.Info("keeping work directory", "dir", dir)
	} else {
		defer func() { _ = os.RemoveAll(dir) }()
	}

	if err := os.WriteFile(filepath.Join(dir, sourceFile), []byte(source), 0o600); err != nil {
		return nil, fmt.Errorf("writing %s: %w", sourceFile, err)
	}

	for pass := 1; pass <= e.passes; pass++ {
		if err := e.run(ctx, dir, pass); err != nil {
			return nil, err
		}
	}

	pdf, err := os.ReadFile(filepath.Join(dir, outputFile))
	if err != nil {
		return nil, &Error{Engine: e.engine.Name, Err: fmt.Errorf("no %s produced: %w", outputFile, err)}
	}
	return pdf, nil
}

func (e *Exec) run(ctx context.Context, dir string, pass int) error {
	args := make([]string, 0, len(e.engine.Args)+len(e.extraArgs)+1)
	args = append(args, e.engine.Args...)
	args = append(args, e.extraArgs...)
	args = append(args, sourceFile)

	cmd := exec.CommandContext(ctx, e.engine.Program, args...)
	cmd.Dir = dir

	var combined bytes.Buffer
	cmd.Stdout = &combined
	cmd.Stderr = &combined

	start := time.Now()
	err := cmd.Run()
	e.logger.Debug("engine pass",
		"engine", e.engine.Name,
		"pass", pass,
		"duration", time.Since(start),
		"err", err,
	)
	if err == nil {
		return nil
	}

	var execErr *exec.Error
	if errors.As(err, &execErr) {
		return fmt.Errorf("%w: %s: ensure it is installed and in PATH", ErrEngineNotFound, e.engine.Program)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return &Error{Engine: e.engine.Name, Log: tail(combined.String(), logTailLines), Err: ctxErr}
	}
	return &Error{Engine: e.engine.Name, Log: tail(combined.String(), logTailLines), Err: err}
}

// tail returns the last n lines of s after trimming surrounding space.
func tail(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
