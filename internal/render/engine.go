package render

import (
	"fmt"
	"strings"
	"text/template"
	"unicode"

	"github.com/gorewood/typeset/internal/data"
	"github.com/gorewood/typeset/internal/recipe"
)

const templateName = "typeset"

// builtinFuncs are the text/template functions that data keys must not
// shadow. Helpers may still replace them.
var builtinFuncs = map[string]bool{
	"and": true, "call": true, "html": true, "index": true, "slice": true,
	"js": true, "len": true, "not": true, "or": true, "print": true,
	"printf": true, "println": true, "urlquery": true,
	"eq": true, "ge": true, "gt": true, "le": true, "lt": true, "ne": true,
}

// engine is the substitution context of a single render. It is built per
// call and discarded afterwards.
type engine struct {
	funcs template.FuncMap
	data  any
	state *recipe.State
}

var _ recipe.Engine = (*engine)(nil)

func newEngine(root any, helpers []recipe.NamedHelper) (*engine, error) {
	e := &engine{
		funcs: template.FuncMap{},
		data:  root,
		state: recipe.NewState(),
	}

	if m, ok := root.(map[string]any); ok {
		for key, value := range m {
			if !isIdentifier(key) || builtinFuncs[key] {
				continue
			}
			e.funcs[key] = func() any { return value }
		}
	}

	for _, h := range helpers {
		if !isIdentifier(h.Name) {
			return nil, fmt.Errorf("invalid helper name %q", h.Name)
		}
		if h.Helper == nil {
			return nil, fmt.Errorf("helper %q is nil", h.Name)
		}
		e.funcs[h.Name] = e.adapt(h)
	}

	return e, nil
}

// adapt exposes a helper as a template function.
func (e *engine) adapt(h recipe.NamedHelper) func(args ...any) (string, error) {
	return func(args ...any) (string, error) {
		var out strings.Builder
		call := &recipe.Call{
			Name:   h.Name,
			Args:   args,
			Data:   e.data,
			Engine: e,
			State:  e.state,
		}
		if err := h.Helper.Render(call, &out); err != nil {
			return "", err
		}
		return out.String(), nil
	}
}

func (e *engine) parse(name, source string) (*template.Template, error) {
	return template.New(name).
		Option("missingkey=error").
		Funcs(e.funcs).
		Parse(source)
}

func (e *engine) execute(tmpl *template.Template, v any) (string, error) {
	var out strings.Builder
	if err := tmpl.Execute(&out, v); err != nil {
		return "", err
	}
	return out.String(), nil
}

// Render renders nested template source with the same functions.
func (e *engine) Render(source string, v any) (string, error) {
	normalized, err := data.Normalize(v)
	if err != nil {
		return "", err
	}
	tmpl, err := e.parse(templateName+"-nested", source)
	if err != nil {
		return "", err
	}
	return e.execute(tmpl, blankNulls(normalized))
}

// blankNulls replaces null values inside maps and lists with "" so they
// render as empty text. v must be normalized data.
func blankNulls(v any) any {
	switch v := v.(type) {
	case map[string]any:
		for k, item := range v {
			if item == nil {
				v[k] = ""
				continue
			}
			v[k] = blankNulls(item)
		}
		return v
	case []any:
		for i, item := range v {
			if item == nil {
				v[i] = ""
				continue
			}
			v[i] = blankNulls(item)
		}
		return v
	default:
		return v
	}
}

// isIdentifier reports whether name can be invoked as a template function.
func isIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_' || unicode.IsLetter(r):
		case i > 0 && unicode.IsDigit(r):
		default:
			return false
		}
	}
	return true
}
