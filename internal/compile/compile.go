// Package compile turns LaTeX source into PDF bytes.
//
// The default backend runs an external TeX engine in a private temporary
// directory. Any function with the right shape can stand in for it through
// CompilerFunc.
package compile

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrEngineNotFound is returned when the engine program is not on PATH.
var ErrEngineNotFound = errors.New("engine not found")

// Compiler converts markup text into a binary document.
type Compiler interface {
	Compile(ctx context.Context, source string) ([]byte, error)
}

// CompilerFunc adapts a plain function to Compiler.
type CompilerFunc func(ctx context.Context, source string) ([]byte, error)

// Compile calls f.
func (f CompilerFunc) Compile(ctx context.Context, source string) ([]byte, error) {
	return f(ctx, source)
}

// Error is a failed engine run. Log holds the tail of the engine output.
type Error struct {
	Engine string
	Log    string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Engine + " failed"
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Log != "" {
		msg += "\n" + e.Log
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Engine describes how to invoke one TeX engine.
type Engine struct {
	Name    string
	Program string
	Args    []string
	// Passes is how many times the engine runs by default. Engines that
	// resolve references themselves need one.
	Passes int
}

// DefaultEngine is used when no engine is configured.
const DefaultEngine = "tectonic"

var engines = []Engine{
	{Name: "tectonic", Program: "tectonic", Args: []string{"--chatter", "minimal"}, Passes: 1},
	{Name: "latexmk", Program: "latexmk", Args: []string{"-pdf", "-interaction=nonstopmode", "-halt-on-error"}, Passes: 1},
	{Name: "pdflatex", Program: "pdflatex", Args: latexArgs(), Passes: 2},
	{Name: "xelatex", Program: "xelatex", Args: latexArgs(), Passes: 2},
	{Name: "lualatex", Program: "lualatex", Args: latexArgs(), Passes: 2},
}

func latexArgs() []string {
	return []string{"-interaction=nonstopmode", "-halt-on-error", "-no-shell-escape"}
}

// Engines returns every known engine in preference order.
func Engines() []Engine {
	out := make([]Engine, len(engines))
	for i, e := range engines {
		e.Args = append([]string(nil), e.Args...)
		out[i] = e
	}
	return out
}

// Lookup returns the engine registered under name.
func Lookup(name string) (Engine, error) {
	for _, e := range Engines() {
		if e.Name == name {
			return e, nil
		}
	}
	return Engine{}, fmt.Errorf("unknown engine %q (known: %s)", name, strings.Join(Names(), ", "))
}

// Names returns the names of all known engines.
func Names() []string {
	names := make([]string, len(engines))
	for i, e := range engines {
		names[i] = e.Name
	}
	return names
}

// Available reports whether the engine's program can be found on PATH,
// returning its resolved path.
func Available(e Engine) (string, bool) {
	path, err := exec.LookPath(e.Program)
	if err != nil {
		return "", false
	}
	return path, true
}
