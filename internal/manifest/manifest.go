// Package manifest reads batch files describing many renders.
//
//	engine: tectonic
//	jobs:
//	  - template: letters/**/*.tex
//	    data: data/common.yaml
//	    set: {signature: Ada}
//	    output: out/
//	    text: out/tex/
//
// Paths are relative to the manifest's directory. A template containing
// glob metacharacters expands to one task per match; its output (and text,
// if given) must then be a directory, written with a trailing slash.
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the manifest looked for when none is named.
const DefaultFile = "typeset.yaml"

// Manifest is a parsed batch file.
type Manifest struct {
	Engine string `yaml:"engine"`
	Jobs   []Job  `yaml:"jobs"`

	// Dir is the directory relative paths are resolved against.
	Dir string `yaml:"-"`
}

// Job is one entry of the jobs list.
type Job struct {
	Template string            `yaml:"template"`
	Data     string            `yaml:"data"`
	Set      map[string]string `yaml:"set"`
	Schema   string            `yaml:"schema"`
	Output   string            `yaml:"output"`
	Text     string            `yaml:"text"`
	TextOnly bool              `yaml:"text_only"`
	Engine   string            `yaml:"engine"`
}

// Task is a job bound to one concrete template.
type Task struct {
	// Job is the index of the originating job.
	Job int
	// Template is a path, or a bare template name to resolve through the
	// template store.
	Template string
	Data     string
	Set      map[string]string
	Schema   string
	Output   string
	Text     string
	TextOnly bool
	Engine   string
}

// Load reads and validates the manifest at path.
func Load(path string) (*Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	m, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m.Dir = filepath.Dir(path)
	return m, nil
}

// Parse decodes and validates manifest YAML. Unknown keys are rejected.
func Parse(raw []byte) (*Manifest, error) {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)

	var m Manifest
	if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	m.Dir = "."
	return &m, nil
}

// Validate checks that every job names a template and an output and that
// its targets are consistent.
func (m *Manifest) Validate() error {
	if len(m.Jobs) == 0 {
		return errors.New("manifest has no jobs")
	}

	var errs []error
	for i, job := range m.Jobs {
		if job.Template == "" {
			errs = append(errs, fmt.Errorf("job %d: template is required", i+1))
		}
		if job.Output == "" {
			errs = append(errs, fmt.Errorf("job %d: output is required", i+1))
		}
		if job.TextOnly && job.Text != "" {
			errs = append(errs, fmt.Errorf("job %d: text cannot be combined with text_only", i+1))
		}
		if isPattern(job.Template) {
			if !isDirPath(job.Output) {
				errs = append(errs, fmt.Errorf("job %d: output must be a directory (ending in /) when template is a pattern", i+1))
			}
			if job.Text != "" && !isDirPath(job.Text) {
				errs = append(errs, fmt.Errorf("job %d: text must be a directory (ending in /) when template is a pattern", i+1))
			}
		}
	}
	return errors.Join(errs...)
}

// Expand turns jobs into tasks, expanding template patterns. Tasks keep job
// order; matches of one pattern are sorted by path. Two tasks writing the
// same file are an error.
func (m *Manifest) Expand() ([]Task, error) {
	var tasks []Task
	for i, job := range m.Jobs {
		expanded, err := m.expandJob(i, job)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, expanded...)
	}

	owners := make(map[string]int)
	for i, task := range tasks {
		for _, path := range []string{task.Output, task.Text} {
			if path == "" {
				continue
			}
			clean := filepath.Clean(path)
			if prev, ok := owners[clean]; ok {
				return nil, fmt.Errorf("tasks %d and %d both write %s", prev+1, i+1, path)
			}
			owners[clean] = i
		}
	}
	return tasks, nil
}

func (m *Manifest) expandJob(index int, job Job) ([]Task, error) {
	engine := job.Engine
	if engine == "" {
		engine = m.Engine
	}
	base := Task{
		Job:      index,
		Data:     m.path(job.Data),
		Set:      job.Set,
		Schema:   m.path(job.Schema),
		TextOnly: job.TextOnly,
		Engine:   engine,
	}

	if !isPattern(job.Template) {
		task := base
		task.Template = job.Template
		if looksLikePath(job.Template) {
			task.Template = m.path(job.Template)
		}
		stem := strings.TrimSuffix(filepath.Base(job.Template), filepath.Ext(job.Template))
		task.Output = m.target(job.Output, stem, outputExt(job.TextOnly))
		if job.Text != "" {
			task.Text = m.target(job.Text, stem, ".tex")
		}
		return []Task{task}, nil
	}

	pattern := m.path(job.Template)
	matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("job %d: bad pattern %q: %w", index+1, job.Template, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("job %d: pattern %q matched no templates", index+1, job.Template)
	}
	slices.Sort(matches)

	tasks := make([]Task, 0, len(matches))
	for _, match := range matches {
		task := base
		task.Template = match
		stem := strings.TrimSuffix(filepath.Base(match), filepath.Ext(match))
		task.Output = m.target(job.Output, stem, outputExt(job.TextOnly))
		if job.Text != "" {
			task.Text = m.target(job.Text, stem, ".tex")
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// path resolves p against the manifest directory.
func (m *Manifest) path(p string) string {
	if p == "" || p == "-" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Dir, p)
}

// target returns the file for a task: p itself, or stem+ext inside p when p
// is a directory.
func (m *Manifest) target(p, stem, ext string) string {
	resolved := m.path(p)
	if isDirPath(p) {
		return filepath.Join(resolved, stem+ext)
	}
	if info, err := os.Stat(resolved); err == nil && info.IsDir() {
		return filepath.Join(resolved, stem+ext)
	}
	return resolved
}

func outputExt(textOnly bool) string {
	if textOnly {
		return ".tex"
	}
	return ".pdf"
}

func isPattern(s string) bool {
	return strings.ContainsAny(s, "*?[{")
}

func isDirPath(s string) bool {
	return strings.HasSuffix(s, "/") || strings.HasSuffix(s, string(filepath.Separator))
}

// looksLikePath tells template paths from bare template names.
func looksLikePath(s string) bool {
	return strings.ContainsRune(s, '/') || strings.ContainsRune(s, filepath.Separator) || filepath.Ext(s) != ""
}
