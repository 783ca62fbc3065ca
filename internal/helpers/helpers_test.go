package helpers

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorewood/typeset/internal/recipe"
	"github.com/gorewood/typeset/internal/render"
)

func call(h recipe.HelperFunc, c *recipe.Call) (string, error) {
	var out strings.Builder
	err := h(c, &out)
	return out.String(), err
}

func TestEscapeTeX(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"50% & more", `50\% \& more`},
		{`a\b`, `a\textbackslash{}b`},
		{"{x}", `\{x\}`},
		{"$1_000 #2", `\$1\_000 \#2`},
		{"~^", `\textasciitilde{}\textasciicircum{}`},
	}
	for _, tt := range tests {
		if got := EscapeTeX(tt.in); got != tt.want {
			t.Errorf("EscapeTeX(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTex_RequiresArgument(t *testing.T) {
	if _, err := call(Tex, &recipe.Call{Name: "tex"}); err == nil {
		t.Error("Tex() without argument succeeded")
	}
}

func TestJoin(t *testing.T) {
	tests := []struct {
		name    string
		args    []any
		want    string
		wantErr bool
	}{
		{name: "default separator", args: []any{[]any{"a", json.Number("2")}}, want: "a, 2"},
		{name: "custom separator", args: []any{[]string{"a", "b"}, " and "}, want: "a and b"},
		{name: "nil list", args: []any{nil}, want: ""},
		{name: "not a list", args: []any{"abc"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := call(Join, &recipe.Call{Name: "join", Args: tt.args})
			if (err != nil) != tt.wantErr {
				t.Fatalf("Join() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Join() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestJSONPath(t *testing.T) {
	root := map[string]any{
		"items": []any{
			map[string]any{"sku": "A-1"},
			map[string]any{"sku": "B-2"},
		},
	}

	got, err := call(JSONPath, &recipe.Call{Name: "jsonpath", Args: []any{"$.items[1].sku"}, Data: root})
	if err != nil {
		t.Fatalf("JSONPath() error = %v", err)
	}
	if got != "B-2" {
		t.Errorf("JSONPath() = %q", got)
	}

	got, err = call(JSONPath, &recipe.Call{Args: []any{"$.sku", map[string]any{"sku": "own"}}, Data: root})
	if err != nil || got != "own" {
		t.Errorf("JSONPath() with explicit target = %q, %v", got, err)
	}

	if _, err := call(JSONPath, &recipe.Call{Args: []any{"$.nothing"}, Data: root}); err == nil {
		t.Error("JSONPath() without match succeeded")
	}
}

func TestExpr(t *testing.T) {
	root := map[string]any{
		"price": json.Number("12.5"),
		"qty":   json.Number("4"),
		"name":  "widget",
	}

	tests := []struct {
		code    string
		want    string
		wantErr bool
	}{
		{code: "price * qty", want: "50"},
		{code: "qty + 1", want: "5"},
		{code: `name + "s"`, want: "widgets"},
		{code: "qty > 3 ? 'many' : 'few'", want: "many"},
		{code: "missing * 2", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			got, err := call(Expr, &recipe.Call{Name: "expr", Args: []any{tt.code}, Data: root})
			if (err != nil) != tt.wantErr {
				t.Fatalf("Expr() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Expr() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExpr_ExplicitScope(t *testing.T) {
	item := map[string]any{"qty": json.Number("3"), "price": json.Number("2.5")}

	got, err := call(Expr, &recipe.Call{Args: []any{"qty * price", item}, Data: map[string]any{}})
	if err != nil {
		t.Fatalf("Expr() error = %v", err)
	}
	if got != "7.5" {
		t.Errorf("Expr() = %q, want 7.5", got)
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		args    []any
		want    string
		wantErr bool
	}{
		{args: []any{"%.2f", json.Number("12.5")}, want: "12.50"},
		{args: []any{"%.0f", "41.6"}, want: "42"},
		{args: []any{"%.1f", 3}, want: "3.0"},
		{args: []any{"%.2f", "abc"}, wantErr: true},
		{args: []any{"%.2f"}, wantErr: true},
	}
	for _, tt := range tests {
		got, err := call(FormatNumber, &recipe.Call{Name: "fmtnum", Args: tt.args})
		if (err != nil) != tt.wantErr {
			t.Errorf("FormatNumber(%v) error = %v, wantErr %v", tt.args, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("FormatNumber(%v) = %q, want %q", tt.args, got, tt.want)
		}
	}
}

func TestCounter(t *testing.T) {
	state := recipe.NewState()
	var got []string
	for _, args := range [][]any{nil, {"fig"}, nil, {"fig"}} {
		out, err := call(Counter, &recipe.Call{Args: args, State: state})
		if err != nil {
			t.Fatalf("Counter() error = %v", err)
		}
		got = append(got, out)
	}
	if strings.Join(got, ",") != "1,1,2,2" {
		t.Errorf("Counter() sequence = %v", got)
	}

	if _, err := call(Counter, &recipe.Call{}); err == nil {
		t.Error("Counter() without state succeeded")
	}
}

func TestStandard_InTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.tex")
	source := `{{tex .company}} | {{upper .name}} | {{title "hello world"}} | {{join .tags " / "}} | ` +
		`{{expr "qty * 2"}} | {{jsonpath "$.tags[0]"}} | {{counter}}{{counter}}`
	if err := os.WriteFile(path, []byte(source), 0o600); err != nil {
		t.Fatal(err)
	}

	data := map[string]any{
		"company": "Smith & Sons",
		"name":    "ada",
		"tags":    []string{"x", "y"},
		"qty":     21,
	}

	got, err := render.PrepareText(recipe.New(path, "", data, Standard()...))
	if err != nil {
		t.Fatalf("PrepareText() error = %v", err)
	}
	want := `Smith \& Sons | ADA | Hello World | x / y | 42 | x | 12`
	if got != want {
		t.Errorf("PrepareText() = %q, want %q", got, want)
	}
}

func TestNames(t *testing.T) {
	names := Names()
	if len(names) != len(Standard()) {
		t.Fatalf("Names() = %v", names)
	}
	if names[0] != "tex" {
		t.Errorf("first helper = %q", names[0])
	}
}
