// Package output formats typeset CLI results for people and for scripts.
//
// With --json every command writes one JSON document to stdout, including
// failures ({"error": "...", "code": N}). Otherwise results are styled with
// lipgloss when stdout is a terminal and plain when piped; errors and
// warnings go to stderr.
//
// Errors that should end the process with a specific status carry it in an
// *ExitError:
//
//	0  success
//	1  user error (bad flags, unknown template, invalid data)
//	2  system error (engine missing, I/O failure)
//	3  render failure (template or engine error)
package output
