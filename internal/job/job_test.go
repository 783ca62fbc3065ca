package job

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/gorewood/typeset/internal/compile"
	"github.com/gorewood/typeset/internal/config"
	"github.com/gorewood/typeset/internal/data"
	"github.com/gorewood/typeset/internal/render"
	"github.com/gorewood/typeset/internal/templates"
)

// fakeEngines records which engine each compile asked for and returns the
// source prefixed with "PDF:".
type fakeEngines struct {
	mu    sync.Mutex
	calls []string
	fail  error
}

func (f *fakeEngines) factory(engine string, passes int) (compile.Compiler, error) {
	if _, err := compile.Lookup(engine); err != nil {
		return nil, err
	}
	return compile.CompilerFunc(func(_ context.Context, source string) ([]byte, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.calls = append(f.calls, engine)
		if f.fail != nil {
			return nil, f.fail
		}
		return []byte("PDF:" + source), nil
	}), nil
}

func (f *fakeEngines) last() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return ""
	}
	return f.calls[len(f.calls)-1]
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestRunner(t *testing.T, cfg config.Config) (*Runner, *fakeEngines, string) {
	t.Helper()
	root := t.TempDir()
	store := templates.Store{
		ProjectDir: filepath.Join(root, "project"),
		GlobalDir:  filepath.Join(root, "global"),
	}
	writeFile(t, filepath.Join(store.ProjectDir, "greeting.tex"), "Hello {{ tex .name }}!")
	writeFile(t, filepath.Join(store.ProjectDir, "modern.tex"), "% engine: xelatex\n{{ .name }}")

	engines := &fakeEngines{}
	return NewRunner(store, cfg, WithCompilerFactory(engines.factory)), engines, root
}

func readString(t *testing.T, path string) string {
	t.Helper()
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(raw)
}

func TestText(t *testing.T) {
	r, _, root := newTestRunner(t, config.Default())
	dataFile := writeFile(t, filepath.Join(root, "data.yaml"), "name: Smith & Sons\n")

	got, err := r.Text(Spec{Template: "greeting", DataFile: dataFile})
	if err != nil {
		t.Fatalf("Text() error = %v", err)
	}
	if got != `Hello Smith \& Sons!` {
		t.Errorf("Text() = %q", got)
	}
}

func TestText_NoHelpers(t *testing.T) {
	r, _, _ := newTestRunner(t, config.Default())

	_, err := r.Text(Spec{Template: "greeting", Data: map[string]any{"name": "Ada"}, NoHelpers: true})
	if !errors.Is(err, render.ErrRenderFailed) {
		t.Errorf("Text() without helpers error = %v, want ErrRenderFailed", err)
	}
}

func TestRecipe_DataLayers(t *testing.T) {
	r, _, root := newTestRunner(t, config.Default())
	dataFile := writeFile(t, filepath.Join(root, "data.yaml"), "name: File\nsender:\n  city: Paris\n")

	rec, err := r.Recipe(Spec{
		Template: "greeting",
		DataFile: dataFile,
		Data:     map[string]any{"name": "Inline"},
		Set:      map[string]string{"sender.city": "Lyon", "copies": "2"},
	})
	if err != nil {
		t.Fatalf("Recipe() error = %v", err)
	}

	values := rec.Data.(map[string]any)
	if values["name"] != "Inline" {
		t.Errorf("name = %v, want inline data over file", values["name"])
	}
	if city := values["sender"].(map[string]any)["city"]; city != "Lyon" {
		t.Errorf("sender.city = %v, want override", city)
	}
	if values["copies"] != "2" {
		t.Errorf("copies = %v", values["copies"])
	}
	if len(rec.Helpers) == 0 {
		t.Error("standard helpers not attached")
	}
}

func TestRecipe_LeavesSpecDataAlone(t *testing.T) {
	r, _, _ := newTestRunner(t, config.Default())
	sender := map[string]any{"city": "Paris"}
	spec := Spec{
		Template: "greeting",
		Data:     map[string]any{"name": "Ada", "sender": sender},
		Set:      map[string]string{"sender.city": "Lyon"},
	}

	rec, err := r.Recipe(spec)
	if err != nil {
		t.Fatalf("Recipe() error = %v", err)
	}
	if sender["city"] != "Paris" {
		t.Errorf("caller data mutated: sender.city = %v", sender["city"])
	}
	got := rec.Data.(map[string]any)["sender"].(map[string]any)["city"]
	if got != "Lyon" {
		t.Errorf("recipe sender.city = %v, want Lyon", got)
	}
}

func TestRecipe_Errors(t *testing.T) {
	r, _, root := newTestRunner(t, config.Default())
	schema := writeFile(t, filepath.Join(root, "schema.json"), `{"type":"object","required":["name"]}`)

	t.Run("unknown template", func(t *testing.T) {
		_, err := r.Recipe(Spec{Template: "nope"})
		if !errors.Is(err, templates.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})

	t.Run("missing data file", func(t *testing.T) {
		_, err := r.Recipe(Spec{Template: "greeting", DataFile: filepath.Join(root, "missing.yaml")})
		if err == nil {
			t.Error("Recipe() succeeded")
		}
	})

	t.Run("bad override", func(t *testing.T) {
		_, err := r.Recipe(Spec{Template: "greeting", Set: map[string]string{"a..b": "x"}})
		if err == nil || !strings.Contains(err.Error(), "applying overrides") {
			t.Errorf("error = %v", err)
		}
	})

	t.Run("schema violation", func(t *testing.T) {
		_, err := r.Recipe(Spec{Template: "greeting", Schema: schema})
		var verr *data.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("error = %v, want ValidationError", err)
		}
	})

	t.Run("schema satisfied", func(t *testing.T) {
		_, err := r.Recipe(Spec{Template: "greeting", Schema: schema, Set: map[string]string{"name": "Ada"}})
		if err != nil {
			t.Errorf("Recipe() error = %v", err)
		}
	})
}

func TestRun_Document(t *testing.T) {
	r, engines, root := newTestRunner(t, config.Default())
	out := filepath.Join(root, "out", "nested", "greeting.pdf")

	result, err := r.Run(context.Background(), Spec{
		Template: "greeting",
		Data:     map[string]any{"name": "Ada"},
		Output:   out,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got := readString(t, out); got != "PDF:Hello Ada!" {
		t.Errorf("document = %q", got)
	}
	if result.Bytes != int64(len("PDF:Hello Ada!")) || result.Engine != "tectonic" || result.Output != out {
		t.Errorf("Result = %+v", result)
	}
	if engines.last() != "tectonic" {
		t.Errorf("engine = %q", engines.last())
	}
}

func TestRun_TextAndDocument(t *testing.T) {
	r, engines, root := newTestRunner(t, config.Default())
	out := filepath.Join(root, "greeting.pdf")
	text := filepath.Join(root, "tex", "greeting.tex")
	engines.fail = errors.New("engine exploded")

	_, err := r.Run(context.Background(), Spec{
		Template: "greeting",
		Set:      map[string]string{"name": "Ada"},
		Output:   out,
		Text:     text,
	})
	if !errors.Is(err, render.ErrRenderFailed) {
		t.Fatalf("Run() error = %v, want ErrRenderFailed", err)
	}
	if got := readString(t, text); got != "Hello Ada!" {
		t.Errorf("text = %q, want it kept after compile failure", got)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("document written despite compile failure")
	}

	engines.fail = nil
	result, err := r.Run(context.Background(), Spec{
		Template: "greeting",
		Set:      map[string]string{"name": "Ada"},
		Output:   out,
		Text:     text,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Text != text || readString(t, out) != "PDF:Hello Ada!" {
		t.Errorf("Result = %+v", result)
	}
}

func TestRun_TextOnly(t *testing.T) {
	r, engines, root := newTestRunner(t, config.Default())
	out := filepath.Join(root, "greeting.tex")

	result, err := r.Run(context.Background(), Spec{
		Template: "greeting",
		Data:     map[string]any{"name": "Ada"},
		Output:   out,
		TextOnly: true,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := readString(t, out); got != "Hello Ada!" {
		t.Errorf("text = %q", got)
	}
	if result.Engine != "" || engines.last() != "" {
		t.Errorf("text-only run compiled: %+v", result)
	}
}

func TestRun_EngineSelection(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.Config
		template string
		engine   string
		want     string
	}{
		{name: "configured", cfg: config.Config{Engine: "pdflatex"}, template: "greeting", want: "pdflatex"},
		{name: "default", cfg: config.Config{}, template: "greeting", want: compile.DefaultEngine},
		{name: "template metadata", cfg: config.Config{Engine: "pdflatex"}, template: "modern", want: "xelatex"},
		{name: "explicit", cfg: config.Config{Engine: "pdflatex"}, template: "modern", engine: "lualatex", want: "lualatex"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, engines, root := newTestRunner(t, tt.cfg)

			result, err := r.Run(context.Background(), Spec{
				Template: tt.template,
				Data:     map[string]any{"name": "Ada"},
				Output:   filepath.Join(root, "out.pdf"),
				Engine:   tt.engine,
			})
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if result.Engine != tt.want || engines.last() != tt.want {
				t.Errorf("engine = %q (compiled with %q), want %q", result.Engine, engines.last(), tt.want)
			}
		})
	}
}

func TestRun_Errors(t *testing.T) {
	r, _, root := newTestRunner(t, config.Default())

	if _, err := r.Run(context.Background(), Spec{Template: "greeting"}); err == nil {
		t.Error("Run() without output succeeded")
	}

	_, err := r.Run(context.Background(), Spec{
		Template: "greeting",
		Data:     map[string]any{"name": "Ada"},
		Output:   filepath.Join(root, "out.pdf"),
		Engine:   "nope",
	})
	if err == nil || !strings.Contains(err.Error(), "nope") {
		t.Errorf("Run() with unknown engine error = %v", err)
	}
}

func TestExecCompiler(t *testing.T) {
	r := NewRunner(templates.Store{}, config.Config{Passes: 3, ExtraArgs: []string{"--synctex=1"}})

	c, err := r.execCompiler("pdflatex", 0)
	if err != nil {
		t.Fatalf("execCompiler() error = %v", err)
	}
	if _, ok := c.(*compile.Exec); !ok {
		t.Fatalf("execCompiler() = %T, want *compile.Exec", c)
	}
	if _, err := r.execCompiler("nope", 0); err == nil {
		t.Error("execCompiler(nope) succeeded")
	}
}
