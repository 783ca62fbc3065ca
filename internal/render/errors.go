package render

import (
	"errors"
	"fmt"
)

// Failure categories. Every error returned by this package matches exactly
// one of them with errors.Is.
var (
	ErrTemplateUnreadable = errors.New("template unreadable")
	ErrRenderFailed       = errors.New("render failed")
)

// Error describes a failed pipeline operation.
type Error struct {
	// Op is the stage that failed: "read", "parse", "execute", "compile"
	// or "write".
	Op   string
	Path string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the error's category.
func (e *Error) Is(target error) bool { return target == e.Kind }

func failed(op, path string, err error) error {
	return &Error{Op: op, Path: path, Kind: ErrRenderFailed, Err: err}
}

func unreadable(path string, err error) error {
	return &Error{Op: "read", Path: path, Kind: ErrTemplateUnreadable, Err: err}
}
