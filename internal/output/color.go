package output

import (
	"io"
	"os"
)

// ResolveColorMode determines the effective isTTY value from the --color
// flag and the detected terminal state. The colorMode parameter accepts
// "never", "always", or "auto":
//   - "never":  disable colors and styling (returns false)
//   - "always": enable them even when piped (returns true)
//   - "auto":   use the detected isTTY value (default behavior)
//
// Unknown values behave like "auto".
func ResolveColorMode(colorMode string, isTTY bool) bool {
	switch colorMode {
	case "never":
		return false
	case "always":
		return true
	default:
		return isTTY
	}
}

// IsTTY checks if a writer is a terminal.
// Returns true only for an *os.File backed by a character device.
func IsTTY(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	stat, err := file.Stat()
	if err != nil {
		return false
	}
	return stat.Mode()&os.ModeCharDevice != 0
}
