package main

import (
	"errors"

	"github.com/gorewood/typeset/internal/compile"
	"github.com/gorewood/typeset/internal/data"
	"github.com/gorewood/typeset/internal/output"
	"github.com/gorewood/typeset/internal/render"
	"github.com/gorewood/typeset/internal/templates"
)

// classify attaches an exit code to err. A missing engine program is a
// system error; template and data problems are user errors; anything else
// the renderer reports is a render failure.
func classify(err error) *output.ExitError {
	var exitErr *output.ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}

	var verr *data.ValidationError
	switch {
	case errors.Is(err, compile.ErrEngineNotFound):
		return output.NewSystemErrorWithCause(err.Error(), err)
	case errors.Is(err, render.ErrTemplateUnreadable),
		errors.Is(err, templates.ErrNotFound),
		errors.As(err, &verr):
		return output.NewUserErrorWithCause(err.Error(), err)
	case errors.Is(err, render.ErrRenderFailed):
		return output.NewRenderError(err.Error(), err)
	default:
		return output.NewUserErrorWithCause(err.Error(), err)
	}
}

// fail prints err once and returns it with its exit code.
func fail(printer *output.Printer, err error) error {
	exitErr := classify(err)
	printer.Error(exitErr)
	return exitErr
}
