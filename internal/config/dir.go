// Package config resolves typeset's configuration directories and settings.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// ProjectDir is the per-project directory, relative to the project root.
// It holds config.yaml, the env file and templates/.
const ProjectDir = ".typeset"

// Dir returns the global typeset configuration directory. It holds the
// global config.yaml, env file and templates/.
//
// Resolution:
//   - $TYPESET_CONFIG_HOME if set (explicit override)
//   - $XDG_CONFIG_HOME/typeset if set (respects XDG on any platform)
//   - %AppData%/typeset on Windows
//   - ~/.config/typeset on macOS and Linux
//
// Returns "" when no home directory can be determined.
func Dir() string {
	// Explicit override
	if dir := os.Getenv("TYPESET_CONFIG_HOME"); dir != "" {
		return dir
	}

	// XDG override (works on any platform)
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "typeset")
	}

	// Windows: use AppData
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "typeset")
		}
	}

	// macOS and Linux: ~/.config/typeset
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "typeset")
}
