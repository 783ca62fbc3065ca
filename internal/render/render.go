// Package render turns a recipe into a text document and, through a
// compile.Compiler, into a binary document.
//
// Substitution uses text/template with escaping off: values are inserted
// exactly as they serialize. Top-level data keys are also callable by name,
// so {{customer.name}} works the same as {{.customer.name}}. Referencing a
// key that does not exist is an error.
//
// A Renderer holds no per-call state. Every call builds its own template
// set, function map and helper state, so independent calls may run
// concurrently.
package render

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/natefinch/atomic"

	"github.com/gorewood/typeset/internal/compile"
	"github.com/gorewood/typeset/internal/data"
	"github.com/gorewood/typeset/internal/recipe"
)

// Renderer runs the text and document stages.
type Renderer struct {
	compiler compile.Compiler
	logger   *slog.Logger
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the logger used for stage timings.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New returns a Renderer that compiles documents with compiler. compiler
// may be nil when only the text stage is used.
func New(compiler compile.Compiler, opts ...Option) *Renderer {
	r := &Renderer{
		compiler: compiler,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// PrepareText renders the recipe's template without a Renderer.
func PrepareText(rec recipe.Recipe) (string, error) {
	return New(nil).PrepareText(rec)
}

// PrepareText loads the template, substitutes the data and returns the text.
func (r *Renderer) PrepareText(rec recipe.Recipe) (string, error) {
	start := time.Now()

	normalized, err := data.Normalize(rec.Data)
	if err != nil {
		return "", failed("normalize", "", err)
	}
	root := blankNulls(normalized)

	eng, err := newEngine(root, rec.Helpers)
	if err != nil {
		return "", failed("register", "", err)
	}

	source, err := os.ReadFile(rec.Template)
	if err != nil {
		return "", unreadable(rec.Template, err)
	}

	tmpl, err := eng.parse(templateName, string(source))
	if err != nil {
		return "", failed("parse", rec.Template, err)
	}

	text, err := eng.execute(tmpl, root)
	if err != nil {
		return "", failed("execute", rec.Template, err)
	}

	r.logger.Debug("text stage",
		"template", rec.Template,
		"helpers", len(rec.Helpers),
		"bytes", len(text),
		"duration", time.Since(start),
	)
	return text, nil
}

// WriteText renders the text and writes it to rec.Output.
func (r *Renderer) WriteText(rec recipe.Recipe) error {
	text, err := r.PrepareText(rec)
	if err != nil {
		return err
	}
	return r.write(rec.Output, []byte(text))
}

// RenderDocument renders the text, compiles it and writes the document to
// rec.Output. A failed write leaves any existing file untouched.
func (r *Renderer) RenderDocument(ctx context.Context, rec recipe.Recipe) error {
	text, err := r.PrepareText(rec)
	if err != nil {
		return err
	}
	return r.compileTo(ctx, text, rec.Output)
}

// RenderTextAndDocument writes the rendered text to textPath and the
// compiled document to rec.Output. The text is written first and stays on
// disk when compilation fails.
func (r *Renderer) RenderTextAndDocument(ctx context.Context, rec recipe.Recipe, textPath string) error {
	text, err := r.PrepareText(rec)
	if err != nil {
		return err
	}
	if err := r.write(textPath, []byte(text)); err != nil {
		return err
	}
	return r.compileTo(ctx, text, rec.Output)
}

func (r *Renderer) compileTo(ctx context.Context, text, output string) error {
	if r.compiler == nil {
		return failed("compile", "", errors.New("no compiler configured"))
	}

	start := time.Now()
	doc, err := r.compiler.Compile(ctx, text)
	if err != nil {
		return failed("compile", output, err)
	}
	r.logger.Debug("document stage",
		"output", output,
		"bytes", len(doc),
		"duration", time.Since(start),
	)
	return r.write(output, doc)
}

func (r *Renderer) write(path string, content []byte) error {
	if err := writeFile(path, content); err != nil {
		return failed("write", path, err)
	}
	return nil
}

// writeFile replaces path atomically. Existing files keep their mode; new
// ones are created 0644.
func writeFile(path string, content []byte) error {
	_, statErr := os.Stat(path)
	created := errors.Is(statErr, os.ErrNotExist)

	if err := atomic.WriteFile(path, bytes.NewReader(content)); err != nil {
		return err
	}
	if created {
		return os.Chmod(path, 0o644)
	}
	return nil
}
