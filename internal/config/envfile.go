package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// EnvFileName holds TYPESET_* variables in the global and project
// directories, one KEY=VALUE per line.
const EnvFileName = "env"

// ReadEnvFile parses a KEY=VALUE file. Blank lines, # comments, an
// optional "export " prefix and matching quotes around values are
// accepted. A missing file yields an empty map.
func ReadEnvFile(path string) (map[string]string, error) {
	vars := map[string]string{}

	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return vars, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening env file %s: %w", path, err)
	}
	defer file.Close() //nolint:errcheck // read-only

	scanner := bufio.NewScanner(file)
	for n := 1; scanner.Scan(); n++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := parseEnvLine(line)
		if !ok {
			return nil, fmt.Errorf("%s:%d: want KEY=VALUE", path, n)
		}
		vars[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading env file %s: %w", path, err)
	}
	return vars, nil
}

func parseEnvLine(line string) (key, value string, ok bool) {
	key, value, ok = strings.Cut(line, "=")
	if !ok {
		return "", "", false
	}
	key = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(key), "export "))
	if key == "" {
		return "", "", false
	}

	value = strings.TrimSpace(value)
	if len(value) >= 2 && (value[0] == '"' || value[0] == '\'') && value[len(value)-1] == value[0] {
		value = value[1 : len(value)-1]
	}
	return key, value, true
}

// envLookup returns a lookup that prefers the process environment, then
// the files in order.
func envLookup(paths ...string) (func(string) string, error) {
	var files []map[string]string
	for _, path := range paths {
		vars, err := ReadEnvFile(path)
		if err != nil {
			return nil, err
		}
		files = append(files, vars)
	}

	return func(key string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		for _, vars := range files {
			if v := vars[key]; v != "" {
				return v
			}
		}
		return ""
	}, nil
}
