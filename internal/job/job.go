// Package job assembles a render from user-level inputs (template names,
// data files, overrides, engine choice) and runs it. The CLI and the MCP
// server both go through here.
package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"time"

	"github.com/gorewood/typeset/internal/compile"
	"github.com/gorewood/typeset/internal/config"
	"github.com/gorewood/typeset/internal/data"
	"github.com/gorewood/typeset/internal/helpers"
	"github.com/gorewood/typeset/internal/recipe"
	"github.com/gorewood/typeset/internal/render"
	"github.com/gorewood/typeset/internal/templates"
)

// Spec describes one render.
type Spec struct {
	// Template is a template name or path.
	Template string
	// DataFile is a YAML or JSON file; "-" reads stdin.
	DataFile string
	// Data is merged over DataFile.
	Data map[string]any
	// Set holds dotted key=value overrides applied last.
	Set    map[string]string
	Schema string

	// Output receives the document, or the text when TextOnly is set.
	Output string
	// Text, if set, also receives the text.
	Text     string
	TextOnly bool

	// Engine overrides the template's and the configured engine.
	Engine    string
	Passes    int
	NoHelpers bool
}

// Result reports a finished render.
type Result struct {
	Template string        `json:"template"`
	Output   string        `json:"output,omitempty"`
	Text     string        `json:"text,omitempty"`
	Engine   string        `json:"engine,omitempty"`
	Bytes    int64         `json:"bytes"`
	Duration time.Duration `json:"duration_ns"`
}

// CompilerFactory builds the backend for an engine name. passes is 0 for
// the engine's default.
type CompilerFactory func(engine string, passes int) (compile.Compiler, error)

// Runner runs specs against a template store and configuration.
type Runner struct {
	store       templates.Store
	cfg         config.Config
	logger      *slog.Logger
	newCompiler CompilerFactory
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger passed down to the renderer and engines.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithCompilerFactory replaces the exec engine backend.
func WithCompilerFactory(f CompilerFactory) Option {
	return func(r *Runner) { r.newCompiler = f }
}

// NewRunner returns a Runner using store and cfg.
func NewRunner(store templates.Store, cfg config.Config, opts ...Option) *Runner {
	r := &Runner{
		store:  store,
		cfg:    cfg,
		logger: slog.New(slog.DiscardHandler),
	}
	r.newCompiler = r.execCompiler
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Store returns the runner's template store.
func (r *Runner) Store() templates.Store { return r.store }

// Recipe resolves the template and assembles the data of spec.
func (r *Runner) Recipe(spec Spec) (recipe.Recipe, error) {
	path, err := r.store.Resolve(spec.Template)
	if err != nil {
		return recipe.Recipe{}, err
	}

	values, err := r.loadData(spec)
	if err != nil {
		return recipe.Recipe{}, err
	}

	var hs []recipe.NamedHelper
	if !spec.NoHelpers {
		hs = helpers.Standard()
	}
	return recipe.New(path, spec.Output, values, hs...), nil
}

func (r *Runner) loadData(spec Spec) (map[string]any, error) {
	values := map[string]any{}
	if spec.DataFile != "" {
		loaded, err := data.Load(spec.DataFile)
		if err != nil {
			return nil, err
		}
		values = loaded
	}
	maps.Copy(values, data.Clone(spec.Data))
	if err := data.Merge(values, spec.Set); err != nil {
		return nil, fmt.Errorf("applying overrides: %w", err)
	}

	if spec.Schema != "" {
		if err := data.Validate(spec.Schema, values); err != nil {
			return nil, err
		}
	}
	return values, nil
}

// Text renders spec's template to a string without writing anything.
func (r *Runner) Text(spec Spec) (string, error) {
	rec, err := r.Recipe(spec)
	if err != nil {
		return "", err
	}
	return render.New(nil, render.WithLogger(r.logger)).PrepareText(rec)
}

// Run renders spec to its outputs.
func (r *Runner) Run(ctx context.Context, spec Spec) (Result, error) {
	start := time.Now()
	if spec.Output == "" {
		return Result{}, errors.New("no output path")
	}

	rec, err := r.Recipe(spec)
	if err != nil {
		return Result{}, err
	}
	result := Result{Template: rec.Template, Output: spec.Output, Text: spec.Text}

	for _, p := range []string{spec.Output, spec.Text} {
		if err := ensureDir(p); err != nil {
			return Result{}, err
		}
	}

	if spec.TextOnly {
		if err := render.New(nil, render.WithLogger(r.logger)).WriteText(rec); err != nil {
			return Result{}, err
		}
		result.Text = ""
		return r.finish(result, start)
	}

	engine := r.engineFor(spec, rec.Template)
	result.Engine = engine
	compiler, err := r.newCompiler(engine, spec.Passes)
	if err != nil {
		return Result{}, err
	}

	renderer := render.New(compiler, render.WithLogger(r.logger))
	if spec.Text != "" {
		err = renderer.RenderTextAndDocument(ctx, rec, spec.Text)
	} else {
		err = renderer.RenderDocument(ctx, rec)
	}
	if err != nil {
		return Result{}, err
	}
	return r.finish(result, start)
}

func (r *Runner) finish(result Result, start time.Time) (Result, error) {
	info, err := os.Stat(result.Output)
	if err != nil {
		return Result{}, fmt.Errorf("checking output: %w", err)
	}
	result.Bytes = info.Size()
	result.Duration = time.Since(start)
	r.logger.Info("rendered",
		"template", result.Template,
		"output", result.Output,
		"engine", result.Engine,
		"bytes", result.Bytes,
		"duration", result.Duration,
	)
	return result, nil
}

// engineFor picks the spec's engine, then the template's declared one,
// then the configured default.
func (r *Runner) engineFor(spec Spec, templatePath string) string {
	if spec.Engine != "" {
		return spec.Engine
	}
	if raw, err := os.ReadFile(templatePath); err == nil {
		if engine := templates.Parse(string(raw)).Engine; engine != "" {
			return engine
		}
	}
	if r.cfg.Engine != "" {
		return r.cfg.Engine
	}
	return compile.DefaultEngine
}

func (r *Runner) execCompiler(engine string, passes int) (compile.Compiler, error) {
	if passes == 0 {
		passes = r.cfg.Passes
	}
	return compile.ForName(engine,
		compile.WithLogger(r.logger),
		compile.WithPasses(passes),
		compile.WithExtraArgs(r.cfg.ExtraArgs...),
	)
}

func ensureDir(path string) error {
	if path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	return nil
}
