package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// FileName is the settings file looked up in the global and project
// directories.
const FileName = "config.yaml"

// Config holds user settings. Zero values mean "use the default".
type Config struct {
	Engine    string   `yaml:"engine"`
	Passes    int      `yaml:"passes"`
	ExtraArgs []string `yaml:"extra_args"`
	Jobs      int      `yaml:"jobs"`
	LogLevel  string   `yaml:"log_level"`
	LogFormat string   `yaml:"log_format"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Engine:    "tectonic",
		Jobs:      4,
		LogLevel:  "warn",
		LogFormat: "text",
	}
}

// Load layers the built-in defaults, the global config file, the project
// config file under projectRoot and the environment, in that order.
// TYPESET_* variables missing from the environment are read from the
// project env file, then the global one. Missing files are skipped.
func Load(projectRoot string) (Config, error) {
	cfg := Default()

	paths := []string{filepath.Join(Dir(), FileName)}
	envFiles := []string{filepath.Join(Dir(), EnvFileName)}
	if projectRoot != "" {
		paths = append(paths, filepath.Join(projectRoot, ProjectDir, FileName))
		envFiles = append([]string{filepath.Join(projectRoot, ProjectDir, EnvFileName)}, envFiles...)
	}
	for _, path := range paths {
		if err := mergeFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	getenv, err := envLookup(envFiles...)
	if err != nil {
		return Config{}, err
	}
	if err := mergeEnv(&cfg, getenv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func mergeFile(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}

	// Fields absent from the file keep their current value.
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

func mergeEnv(cfg *Config, getenv func(string) string) error {
	if v := getenv("TYPESET_ENGINE"); v != "" {
		cfg.Engine = v
	}
	if v := getenv("TYPESET_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := getenv("TYPESET_JOBS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return fmt.Errorf("TYPESET_JOBS: want a positive integer, got %q", v)
		}
		cfg.Jobs = n
	}
	return nil
}
