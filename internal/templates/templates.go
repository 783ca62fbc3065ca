// Package templates finds typeset templates by name and manages the
// built-in template library.
//
// A name resolves to the first of:
//
//	an existing file path
//	.typeset/templates/<name>.tex   (project)
//	<config dir>/templates/<name>.tex (global)
//
// Built-in templates live in the binary and are copied to disk with Init
// before use, so they can be edited.
//
// A template may start with a block of % comment lines holding YAML
// metadata:
//
//	% name: invoice
//	% description: Itemized invoice with totals.
//	% engine: tectonic
//
// The block is ordinary LaTeX comment text and is rendered unchanged.
package templates

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gorewood/typeset/internal/config"
)

// Ext is the file extension of templates.
const Ext = ".tex"

// Sources reported in Info.Source and Template.Source.
const (
	SourceProject = "project"
	SourceGlobal  = "global"
	SourceBuiltin = "built-in"
	SourcePath    = "path"
)

// ErrNotFound is returned when a name matches no template.
var ErrNotFound = errors.New("template not found")

// Metadata is read from a template's leading comment block.
type Metadata struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Engine      string `yaml:"engine"`
}

// Template is a template read from disk or from the built-in library.
type Template struct {
	Metadata
	Content string
	Source  string
	// Path is empty for built-ins.
	Path string
}

// Info describes a template for listing.
type Info struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Engine      string `json:"engine,omitempty"`
	Source      string `json:"source"`
	Path        string `json:"path,omitempty"`
	// Overrides names the source shadowing this built-in, if any.
	Overrides string `json:"overrides,omitempty"`
}

// Store looks templates up in a project and a global directory.
type Store struct {
	ProjectDir string
	GlobalDir  string
}

// NewStore returns the store for the project rooted at projectRoot.
func NewStore(projectRoot string) Store {
	global := ""
	if dir := config.Dir(); dir != "" {
		global = filepath.Join(dir, "templates")
	}
	return Store{
		ProjectDir: filepath.Join(projectRoot, config.ProjectDir, "templates"),
		GlobalDir:  global,
	}
}

type location struct {
	source string
	dir    string
}

func (s Store) locations() []location {
	return []location{
		{SourceProject, s.ProjectDir},
		{SourceGlobal, s.GlobalDir},
	}
}

// Resolve returns the file path for name.
func (s Store) Resolve(name string) (string, error) {
	if name == "" {
		return "", errors.New("empty template name")
	}

	if info, err := os.Stat(name); err == nil && !info.IsDir() {
		return name, nil
	}

	for _, loc := range s.locations() {
		if loc.dir == "" {
			continue
		}
		path := filepath.Join(loc.dir, name+Ext)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}

	if IsBuiltin(name) {
		return "", fmt.Errorf("%w: %q is built in; run `typeset templates init %s` to copy it first", ErrNotFound, name, name)
	}
	return "", fmt.Errorf("%w: %q", ErrNotFound, name)
}

// Load reads a template by name or path, falling back to the built-in
// library.
func (s Store) Load(name string) (*Template, error) {
	path, err := s.Resolve(name)
	if err == nil {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", path, err)
		}
		tmpl := Parse(string(raw))
		tmpl.Path = path
		tmpl.Source = s.sourceOf(path)
		if tmpl.Name == "" {
			tmpl.Name = strings.TrimSuffix(filepath.Base(path), Ext)
		}
		return tmpl, nil
	}

	if tmpl, builtinErr := loadBuiltin(name); builtinErr == nil {
		return tmpl, nil
	}
	return nil, err
}

func (s Store) sourceOf(path string) string {
	for _, loc := range s.locations() {
		if loc.dir != "" && filepath.Dir(path) == filepath.Clean(loc.dir) {
			return loc.source
		}
	}
	return SourcePath
}

// List returns project, global and built-in templates. A name defined in
// more than one place is listed once, from the first source; a shadowed
// built-in is still listed with Overrides set.
func (s Store) List() ([]Info, error) {
	seen := make(map[string]string)
	var out []Info

	for _, loc := range s.locations() {
		infos, err := listDir(loc.dir, loc.source)
		if err != nil {
			return nil, err
		}
		for _, info := range infos {
			if _, ok := seen[info.Name]; ok {
				continue
			}
			seen[info.Name] = info.Source
			out = append(out, info)
		}
	}

	for _, info := range listBuiltins() {
		if src, ok := seen[info.Name]; ok {
			info.Overrides = src
		}
		out = append(out, info)
	}
	return out, nil
}

func listDir(dir, source string) ([]Info, error) {
	if dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading template directory %s: %w", dir, err)
	}

	var infos []Info
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), Ext) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		raw, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		meta := Parse(string(raw)).Metadata
		infos = append(infos, Info{
			Name:        strings.TrimSuffix(entry.Name(), Ext),
			Description: meta.Description,
			Engine:      meta.Engine,
			Source:      source,
			Path:        path,
		})
	}
	return infos, nil
}

// Parse reads the metadata block of raw. Text that is not a valid block
// yields empty metadata; Content is always the full input.
func Parse(raw string) *Template {
	tmpl := &Template{Content: raw}

	var block []string
	for line := range strings.Lines(raw) {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "%") {
			break
		}
		trimmed = strings.TrimPrefix(trimmed, "%")
		block = append(block, strings.TrimPrefix(trimmed, " "))
	}
	if len(block) == 0 {
		return tmpl
	}

	var meta Metadata
	if err := yaml.Unmarshal([]byte(strings.Join(block, "\n")), &meta); err == nil {
		tmpl.Metadata = meta
	}
	return tmpl
}
