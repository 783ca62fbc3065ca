package templates

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/natefinch/atomic"
)

//go:embed builtin/*.tex builtin/*.yaml
var builtinFS embed.FS

// BuiltinNames returns the names of the built-in templates, sorted.
func BuiltinNames() []string {
	entries, err := builtinFS.ReadDir("builtin")
	if err != nil {
		return nil
	}
	var names []string
	for _, entry := range entries {
		if name, ok := strings.CutSuffix(entry.Name(), Ext); ok {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

// IsBuiltin reports whether name is a built-in template.
func IsBuiltin(name string) bool {
	return slices.Contains(BuiltinNames(), name)
}

// SampleData returns the example data shipped with a built-in template.
func SampleData(name string) ([]byte, error) {
	raw, err := builtinFS.ReadFile("builtin/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("%w: no built-in template %q", ErrNotFound, name)
	}
	return raw, nil
}

func loadBuiltin(name string) (*Template, error) {
	raw, err := builtinFS.ReadFile("builtin/" + name + Ext)
	if err != nil {
		return nil, fmt.Errorf("%w: no built-in template %q", ErrNotFound, name)
	}
	tmpl := Parse(string(raw))
	tmpl.Source = SourceBuiltin
	if tmpl.Name == "" {
		tmpl.Name = name
	}
	return tmpl, nil
}

func listBuiltins() []Info {
	var infos []Info
	for _, name := range BuiltinNames() {
		tmpl, err := loadBuiltin(name)
		if err != nil {
			continue
		}
		infos = append(infos, Info{
			Name:        name,
			Description: tmpl.Description,
			Engine:      tmpl.Engine,
			Source:      SourceBuiltin,
		})
	}
	return infos
}

// Init copies the built-in template name and its sample data into dir as
// <name>.tex and <name>.yaml, returning the written paths. Existing files
// are only replaced when force is set.
func Init(name, dir string, force bool) ([]string, error) {
	tmpl, err := loadBuiltin(name)
	if err != nil {
		return nil, err
	}
	sample, err := SampleData(name)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", dir, err)
	}

	files := []struct {
		path    string
		content []byte
	}{
		{filepath.Join(dir, name+Ext), []byte(tmpl.Content)},
		{filepath.Join(dir, name+".yaml"), sample},
	}

	if !force {
		for _, f := range files {
			if _, err := os.Stat(f.path); err == nil {
				return nil, fmt.Errorf("%s already exists (use --force to overwrite)", f.path)
			} else if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("checking %s: %w", f.path, err)
			}
		}
	}

	paths := make([]string, 0, len(files))
	for _, f := range files {
		if err := atomic.WriteFile(f.path, bytes.NewReader(f.content)); err != nil {
			return paths, fmt.Errorf("writing %s: %w", f.path, err)
		}
		if err := os.Chmod(f.path, 0o644); err != nil {
			return paths, fmt.Errorf("setting mode on %s: %w", f.path, err)
		}
		paths = append(paths, f.path)
	}
	return paths, nil
}
