package reader

import (
	"encoding/json"
	"reflect"
	"testing"

	"gopkg.in/yaml.v3"

	"pydocket/internal/meta"
)

func paramNames(params []*Parameter) []string {
	var names []string
	for _, p := range params {
		names = append(names, p.Name)
	}
	return names
}

func TestParameter_Merge(t *testing.T) {
	p := &Parameter{Name: "a"}
	p.Merge(meta.Fields{"description": "First", "type": "int", "more": "stuff"})
	p.Merge(meta.Fields{"description": "Second", "name": "ignored"}, "name")

	want := &Parameter{
		Name:        "a",
		Description: "First\n\nSecond",
		Type:        TypeSpec{"int"},
		Extra:       meta.Fields{"more": "stuff"},
	}
	if !reflect.DeepEqual(p, want) {
		t.Errorf("Merge = %+v, want %+v", p, want)
	}
}

func TestSymbol_Merge(t *testing.T) {
	sym := &Symbol{
		Name:        "f",
		Description: "From the class",
		Parameters:  []*Parameter{{Name: "a", Description: "The a"}, {Name: "b"}},
	}
	sym.Merge(meta.Fields{
		"description": "From init",
		"parameters": meta.Fields{
			"a":     "Really",
			"b":     meta.Fields{"type": []any{"int", "None"}},
			"ghost": "Ignored",
		},
		"return": "Something",
		"raises": meta.Fields{"ValueError": "when bad"},
		"usage":  "Use::\n\n    f()\n",
		"since":  "1.2",
	})

	if sym.Description != "From the class\n\nFrom init" {
		t.Errorf("Description = %q", sym.Description)
	}
	if got := sym.Parameter("a").Description; got != "The a\n\nReally" {
		t.Errorf("a description = %q", got)
	}
	if got := sym.Parameter("b").Type; !reflect.DeepEqual(got, TypeSpec{"int", "None"}) {
		t.Errorf("b type = %v", got)
	}
	if len(sym.Parameters) != 2 {
		t.Errorf("unknown parameters should be ignored, got %d", len(sym.Parameters))
	}
	if sym.Return == nil || sym.Return.Description != "Something" {
		t.Errorf("Return = %+v", sym.Return)
	}
	if sym.Raises["ValueError"] != "when bad" {
		t.Errorf("Raises = %v", sym.Raises)
	}
	if sym.Extra["since"] != "1.2" {
		t.Errorf("Extra = %v", sym.Extra)
	}
}

func TestSymbol_MergeReturnKeepsType(t *testing.T) {
	sym := &Symbol{Name: "f", Return: &Return{Type: TypeSpec{"int"}}}
	sym.Merge(meta.Fields{"return": meta.Fields{"description": "The count"}})

	want := &Return{Description: "The count", Type: TypeSpec{"int"}}
	if !reflect.DeepEqual(sym.Return, want) {
		t.Errorf("Return = %+v, want %+v", sym.Return, want)
	}
}

func TestSymbol_MergeSkip(t *testing.T) {
	sym := &Symbol{Name: "Widget", Kind: KindClass}
	init := &Symbol{Name: "__init__", Kind: KindMethod, Signature: "(a)", Description: "Make it"}

	sym.Merge(init.Fields(), "name", "kind")

	if sym.Name != "Widget" || sym.Kind != KindClass {
		t.Errorf("skipped keys changed: %s %s", sym.Name, sym.Kind)
	}
	if sym.Signature != "(a)" || sym.Description != "Make it" {
		t.Errorf("Merge = %+v", sym)
	}
}

func TestSymbol_MergeParameterList(t *testing.T) {
	sym := &Symbol{Parameters: []*Parameter{
		{Name: "width", Description: "how wide"},
		{Name: "height", Description: "how high"},
	}}
	sym.Merge(meta.Fields{"parameters": []any{
		map[string]any{"name": "width", "description": "in cm"},
		map[string]any{"name": "depth"},
	}})

	if got := paramNames(sym.Parameters); !reflect.DeepEqual(got, []string{"width", "height"}) {
		t.Fatalf("parameters = %v", got)
	}
	if d := sym.Parameter("width").Description; d != "how wide\n\nin cm" {
		t.Errorf("width description = %q", d)
	}
	if d := sym.Parameter("height").Description; d != "how high" {
		t.Errorf("height description = %q", d)
	}
}

func TestReturnFields(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want meta.Fields
	}{
		{"scalar", "The area", meta.Fields{"description": "The area"}},
		{"mapping", meta.Fields{"type": "int"}, meta.Fields{"type": "int"}},
		{"number", 3, meta.Fields{"description": "3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ReturnFields(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ReturnFields = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTypeSpec_Marshal(t *testing.T) {
	single, err := yaml.Marshal(&Parameter{Name: "a", Type: TypeSpec{"int"}})
	if err != nil {
		t.Fatal(err)
	}
	if string(single) != "name: a\ntype: int\n" {
		t.Errorf("YAML = %q", single)
	}

	data, err := json.Marshal(&Parameter{Name: "a", Type: TypeSpec{"int", "None"}, Extra: meta.Fields{"unit": "cm"}})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"name":"a","type":["int","None"],"unit":"cm"}` {
		t.Errorf("JSON = %s", data)
	}
}

func TestAnnotation(t *testing.T) {
	tests := []struct {
		text string
		want TypeSpec
	}{
		{"int", TypeSpec{"int"}},
		{"", nil},
		{`"Shape"`, TypeSpec{"Shape"}},
		{"int | None", TypeSpec{"int", "None"}},
		{"Optional[str]", TypeSpec{"str", "None"}},
		{"typing.Union[int, float]", TypeSpec{"int", "float"}},
		{"dict[str, int]", TypeSpec{"dict[str, int]"}},
		{"Union[dict[str, int], None]", TypeSpec{"dict[str, int]", "None"}},
		{"list[int | str]", TypeSpec{"list[int | str]"}},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := Annotation(tt.text); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Annotation(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestSignature(t *testing.T) {
	params := []formal{
		{Name: "a", Text: "a"},
		{Text: "/"},
		{Name: "b", Text: "b: int = 1"},
		{Name: "args", Text: "*args"},
		{Name: "kw", Text: "**kw"},
	}
	if got := signature(params, "dict[str,\n    int]"); got != "(a, /, b: int = 1, *args, **kw) -> dict[str, int]" {
		t.Errorf("signature = %q", got)
	}
	if got := signature(nil, ""); got != "()" {
		t.Errorf("empty signature = %q", got)
	}
}

func TestDropReceiver(t *testing.T) {
	params := []formal{{Name: "self", Text: "self"}, {Text: "*"}, {Name: "a", Text: "a"}}
	got := dropReceiver(params)
	if len(got) != 2 || got[0].Text != "*" || got[1].Name != "a" {
		t.Errorf("dropReceiver = %+v", got)
	}
	if len(params) != 3 {
		t.Error("input should not be modified")
	}
}

func TestFunctionKind(t *testing.T) {
	tests := []struct {
		decorators []string
		method     bool
		want       Kind
	}{
		{nil, false, KindFunction},
		{nil, true, KindMethod},
		{[]string{"staticmethod"}, true, KindStaticMethod},
		{[]string{"functools.cache", "classmethod"}, true, KindClassMethod},
	}
	for _, tt := range tests {
		if got := functionKind(tt.decorators, tt.method); got != tt.want {
			t.Errorf("functionKind(%v, %v) = %s, want %s", tt.decorators, tt.method, got, tt.want)
		}
	}
}
