package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorewood/typeset/internal/output"
	"github.com/gorewood/typeset/internal/templates"
)

func TestTemplatesList(t *testing.T) {
	root := testProject(t)
	writeFile(t, filepath.Join(root, ".typeset", "templates", "letter.tex"), "% description: House letter.\n")

	out, _, err := execute(t, root, "--json", "templates", "list")
	if err != nil {
		t.Fatalf("templates list error = %v", err)
	}

	var result struct {
		Templates []templates.Info `json:"templates"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}

	first := result.Templates[0]
	if first.Name != "letter" || first.Source != templates.SourceProject || first.Description != "House letter." {
		t.Errorf("Templates[0] = %+v", first)
	}
	var shadowed bool
	for _, info := range result.Templates {
		if info.Name == "letter" && info.Source == templates.SourceBuiltin {
			shadowed = info.Overrides == templates.SourceProject
		}
	}
	if !shadowed {
		t.Error("built-in letter not marked as shadowed")
	}
}

func TestTemplatesList_Human(t *testing.T) {
	root := testProject(t)

	out, _, err := execute(t, root, "templates", "list")
	if err != nil {
		t.Fatalf("templates list error = %v", err)
	}
	for _, want := range []string{"NAME", "invoice", "letter", "article", templates.SourceBuiltin} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestTemplatesShow(t *testing.T) {
	root := testProject(t)

	out, _, err := execute(t, root, "templates", "show", "letter")
	if err != nil {
		t.Fatalf("templates show error = %v", err)
	}
	if !strings.Contains(out, `\documentclass`) {
		t.Errorf("output = %q", out)
	}

	_, _, err = execute(t, root, "templates", "show", "nope")
	if code := output.GetExitCode(err); code != output.ExitUserError {
		t.Errorf("exit code = %d, want %d", code, output.ExitUserError)
	}
}

func TestTemplatesInit_ThenRender(t *testing.T) {
	root := testProject(t)

	if _, _, err := execute(t, root, "templates", "init", "invoice"); err != nil {
		t.Fatalf("templates init error = %v", err)
	}
	dir := filepath.Join(root, ".typeset", "templates")
	for _, name := range []string{"invoice.tex", "invoice.yaml"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}

	_, _, err := execute(t, root, "templates", "init", "invoice")
	if code := output.GetExitCode(err); code != output.ExitUserError {
		t.Errorf("second init exit code = %d, want %d", code, output.ExitUserError)
	}
	if _, _, err := execute(t, root, "templates", "init", "invoice", "--force"); err != nil {
		t.Errorf("init --force error = %v", err)
	}

	out, _, err := execute(t, root, "render", "-t", "invoice", "-d", filepath.Join(dir, "invoice.yaml"), "--text-only")
	if err != nil {
		t.Fatalf("render error = %v", err)
	}
	if !strings.Contains(out, "Total & 37.00 EUR") {
		t.Errorf("invoice text missing total:\n%s", out)
	}
}

func TestTemplatesInit_Targets(t *testing.T) {
	root := testProject(t)
	custom := filepath.Join(t.TempDir(), "custom")

	out, _, err := execute(t, root, "--json", "templates", "init", "letter", "--dir", custom)
	if err != nil {
		t.Fatalf("templates init error = %v", err)
	}
	var result struct {
		Files []string `json:"files"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(result.Files) != 2 || filepath.Dir(result.Files[0]) != custom {
		t.Errorf("files = %v", result.Files)
	}

	if _, _, err := execute(t, root, "templates", "init", "letter", "--global"); err != nil {
		t.Fatalf("templates init --global error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(os.Getenv("TYPESET_CONFIG_HOME"), "templates", "letter.tex")); err != nil {
		t.Errorf("global letter not written: %v", err)
	}

	_, _, err = execute(t, root, "templates", "init", "letter", "--global", "--dir", custom)
	if code := output.GetExitCode(err); code != output.ExitUserError {
		t.Errorf("exit code = %d, want %d", code, output.ExitUserError)
	}
}
