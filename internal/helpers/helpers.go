// Package helpers provides the standard template helpers shipped with
// typeset.
//
// Substitution inserts values verbatim, so text that may contain LaTeX
// special characters should go through tex:
//
//	{{tex .customer.name}}
package helpers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/ohler55/ojg/jp"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/gorewood/typeset/internal/recipe"
)

// Standard returns the built-in helper set.
func Standard() []recipe.NamedHelper {
	return []recipe.NamedHelper{
		recipe.Named("tex", Tex),
		recipe.Named("upper", caseHelper(func() cases.Caser { return cases.Upper(language.Und) })),
		recipe.Named("lower", caseHelper(func() cases.Caser { return cases.Lower(language.Und) })),
		recipe.Named("title", caseHelper(func() cases.Caser { return cases.Title(language.English) })),
		recipe.Named("join", Join),
		recipe.Named("jsonpath", JSONPath),
		recipe.Named("expr", Expr),
		recipe.Named("fmtnum", FormatNumber),
		recipe.Named("counter", Counter),
	}
}

// Names lists the helpers in Standard.
func Names() []string {
	std := Standard()
	names := make([]string, len(std))
	for i, h := range std {
		names[i] = h.Name
	}
	return names
}

var texReplacer = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	`{`, `\{`,
	`}`, `\}`,
	`$`, `\$`,
	`&`, `\&`,
	`#`, `\#`,
	`%`, `\%`,
	`_`, `\_`,
	`~`, `\textasciitilde{}`,
	`^`, `\textasciicircum{}`,
)

// EscapeTeX escapes the characters LaTeX treats specially.
func EscapeTeX(s string) string {
	return texReplacer.Replace(s)
}

// Tex writes its argument with LaTeX special characters escaped.
func Tex(call *recipe.Call, out io.Writer) error {
	if err := requireArgs(call, 1); err != nil {
		return err
	}
	_, err := io.WriteString(out, EscapeTeX(toString(call.Arg(0))))
	return err
}

// caseHelper builds a Caser per call; Casers are stateful.
func caseHelper(newCaser func() cases.Caser) recipe.HelperFunc {
	return func(call *recipe.Call, out io.Writer) error {
		if err := requireArgs(call, 1); err != nil {
			return err
		}
		_, err := io.WriteString(out, newCaser().String(toString(call.Arg(0))))
		return err
	}
}

// Join writes the elements of a list separated by the second argument,
// ", " by default.
func Join(call *recipe.Call, out io.Writer) error {
	if err := requireArgs(call, 1); err != nil {
		return err
	}

	sep := ", "
	if len(call.Args) > 1 {
		sep = toString(call.Arg(1))
	}

	var items []string
	switch list := call.Arg(0).(type) {
	case []any:
		for _, item := range list {
			items = append(items, toString(item))
		}
	case []string:
		items = list
	case nil:
	default:
		return fmt.Errorf("join: expected a list, got %T", list)
	}

	_, err := io.WriteString(out, strings.Join(items, sep))
	return err
}

// JSONPath writes the first value matched by a JSONPath expression. The
// expression runs against the root data unless a second argument is given.
func JSONPath(call *recipe.Call, out io.Writer) error {
	if err := requireArgs(call, 1); err != nil {
		return err
	}

	path := toString(call.Arg(0))
	x, err := jp.ParseString(path)
	if err != nil {
		return fmt.Errorf("jsonpath %q: %w", path, err)
	}

	target := call.Data
	if len(call.Args) > 1 {
		target = call.Arg(1)
	}

	results := x.Get(target)
	if len(results) == 0 {
		return fmt.Errorf("jsonpath %q: no match", path)
	}
	_, err = io.WriteString(out, toString(results[0]))
	return err
}

// Expr evaluates an expression and writes the result. The keys of the
// root data, or of the second argument when given, are its variables.
func Expr(call *recipe.Call, out io.Writer) error {
	if err := requireArgs(call, 1); err != nil {
		return err
	}

	scope := call.Data
	if len(call.Args) > 1 {
		scope = call.Arg(1)
	}
	env := map[string]any{}
	if m, ok := numbers(scope).(map[string]any); ok {
		env = m
	}

	code := toString(call.Arg(0))
	program, err := expr.Compile(code, expr.Env(env))
	if err != nil {
		return fmt.Errorf("compile %q: %w", code, err)
	}
	result, err := expr.Run(program, env)
	if err != nil {
		return fmt.Errorf("eval %q: %w", code, err)
	}

	_, err = io.WriteString(out, toString(result))
	return err
}

// FormatNumber formats its second argument, a number or numeric string,
// with the printf verb given first:
//
//	{{fmtnum "%.2f" .price}}
func FormatNumber(call *recipe.Call, out io.Writer) error {
	if err := requireArgs(call, 2); err != nil {
		return err
	}

	var f float64
	switch v := numbers(call.Arg(1)).(type) {
	case int64:
		f = float64(v)
	case float64:
		f = v
	case int:
		f = float64(v)
	default:
		parsed, err := strconv.ParseFloat(toString(v), 64)
		if err != nil {
			return fmt.Errorf("fmtnum: %q is not a number", toString(v))
		}
		f = parsed
	}

	_, err := fmt.Fprintf(out, toString(call.Arg(0)), f)
	return err
}

// Counter increments a named counter kept for the duration of one render
// and writes its new value. Without a name the counter "default" is used.
func Counter(call *recipe.Call, out io.Writer) error {
	if call.State == nil {
		return errors.New("counter: no render state")
	}

	key := "counter:default"
	if len(call.Args) > 0 {
		key = "counter:" + toString(call.Arg(0))
	}

	n := 0
	if v, ok := call.State.Get(key); ok {
		n, _ = v.(int)
	}
	n++
	call.State.Set(key, n)

	_, err := io.WriteString(out, strconv.Itoa(n))
	return err
}

func requireArgs(call *recipe.Call, n int) error {
	if len(call.Args) < n {
		return fmt.Errorf("%s: expected at least %d argument(s), got %d", call.Name, n, len(call.Args))
	}
	return nil
}

func toString(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// numbers returns a copy of v with json.Number replaced by int64 or float64
// so expressions can do arithmetic on it.
func numbers(v any) any {
	switch v := v.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}
		if f, err := v.Float64(); err == nil {
			return f
		}
		return v.String()
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = numbers(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = numbers(item)
		}
		return out
	default:
		return v
	}
}
