package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func isolate(t *testing.T) string {
	t.Helper()
	global := t.TempDir()
	t.Setenv("TYPESET_CONFIG_HOME", global)
	t.Setenv("TYPESET_ENGINE", "")
	t.Setenv("TYPESET_LOG_LEVEL", "")
	t.Setenv("TYPESET_JOBS", "")
	return global
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Engine != "tectonic" || cfg.Jobs != 4 || cfg.LogLevel != "warn" {
		t.Errorf("Load() = %+v, want defaults", cfg)
	}
}

func TestLoad_Layering(t *testing.T) {
	global := isolate(t)
	project := t.TempDir()

	writeConfig(t, global, "engine: xelatex\npasses: 3\nlog_format: json\n")
	writeConfig(t, filepath.Join(project, ProjectDir), "engine: lualatex\n")

	cfg, err := Load(project)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Engine != "lualatex" {
		t.Errorf("Engine = %q, want project override", cfg.Engine)
	}
	if cfg.Passes != 3 || cfg.LogFormat != "json" {
		t.Errorf("global settings lost: %+v", cfg)
	}
	if cfg.Jobs != 4 {
		t.Errorf("Jobs = %d, want default kept", cfg.Jobs)
	}

	t.Setenv("TYPESET_ENGINE", "pdflatex")
	t.Setenv("TYPESET_LOG_LEVEL", "debug")
	t.Setenv("TYPESET_JOBS", "8")
	cfg, err = Load(project)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Engine != "pdflatex" || cfg.LogLevel != "debug" || cfg.Jobs != 8 {
		t.Errorf("environment not applied: %+v", cfg)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Run("bad yaml", func(t *testing.T) {
		global := isolate(t)
		writeConfig(t, global, "engine: [unclosed\n")
		if _, err := Load(""); err == nil {
			t.Error("Load() accepted malformed YAML")
		}
	})

	t.Run("bad jobs", func(t *testing.T) {
		isolate(t)
		t.Setenv("TYPESET_JOBS", "zero")
		if _, err := Load(""); err == nil {
			t.Error("Load() accepted TYPESET_JOBS=zero")
		}
	})
}
