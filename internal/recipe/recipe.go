// Package recipe defines the input of one rendering request and the contract
// that custom substitution functions (helpers) implement.
//
// A Recipe is a plain value. The pipeline in package render reads it and never
// keeps it past the call it was passed to.
package recipe

import "io"

// Recipe describes one rendering request.
type Recipe struct {
	// Template is the path of the text template to load.
	Template string

	// Output is where the artifact (or, for text-only writes, the text) goes.
	// An existing file is overwritten.
	Output string

	// Data is substituted into the template. It must be serializable with
	// encoding/json; struct json tags are honored.
	Data any

	// Helpers are registered in order. A later helper replaces an earlier one
	// with the same name.
	Helpers []NamedHelper
}

// New returns a Recipe for the given paths, data and helpers.
func New(template, output string, data any, helpers ...NamedHelper) Recipe {
	return Recipe{
		Template: template,
		Output:   output,
		Data:     data,
		Helpers:  helpers,
	}
}

// WithHelpers returns a copy of r with extra helpers appended after the
// existing ones. The receiver is not modified.
func (r Recipe) WithHelpers(helpers ...NamedHelper) Recipe {
	merged := make([]NamedHelper, 0, len(r.Helpers)+len(helpers))
	merged = append(merged, r.Helpers...)
	merged = append(merged, helpers...)
	r.Helpers = merged
	return r
}

// WithOutput returns a copy of r writing to output.
func (r Recipe) WithOutput(output string) Recipe {
	r.Output = output
	return r
}

// Helper is a custom substitution function invocable by name from a template.
type Helper interface {
	// Render appends the helper's output for one invocation to out.
	// A returned error aborts the render.
	Render(call *Call, out io.Writer) error
}

// HelperFunc adapts a plain function to Helper.
type HelperFunc func(call *Call, out io.Writer) error

// Render calls f.
func (f HelperFunc) Render(call *Call, out io.Writer) error {
	return f(call, out)
}

// NamedHelper pairs a helper with the name templates use to invoke it.
type NamedHelper struct {
	Name   string
	Helper Helper
}

// Named is shorthand for building a NamedHelper from a function.
func Named(name string, fn func(call *Call, out io.Writer) error) NamedHelper {
	return NamedHelper{Name: name, Helper: HelperFunc(fn)}
}

// Call is one helper invocation.
type Call struct {
	// Name is the name the helper was invoked under.
	Name string

	// Args are the invocation arguments as evaluated by the engine.
	Args []any

	// Data is the root data context of the render.
	Data any

	// Engine renders nested template source with the same helpers.
	Engine Engine

	// State is shared by every helper call of a single render.
	State *State
}

// Arg returns the i-th argument, or nil when there are fewer arguments.
func (c *Call) Arg(i int) any {
	if i < 0 || i >= len(c.Args) {
		return nil
	}
	return c.Args[i]
}

// Engine is the handle a helper uses for recursive rendering.
type Engine interface {
	// Render parses source as a template and executes it against data.
	Render(source string, data any) (string, error)
}
