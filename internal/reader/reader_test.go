//go:build cgo

package reader

import (
	"context"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"pydocket/internal/errors"
	"pydocket/internal/meta"
	"pydocket/internal/source"
	"pydocket/internal/testutil"
)

func readShapes(t *testing.T, dotted string) *Symbol {
	t.Helper()
	sym, err := New(nil).Read(context.Background(), testutil.Fixture(t, "shapes.py"), dotted)
	if err != nil {
		t.Fatalf("Read(%q) failed: %v", dotted, err)
	}
	return sym
}

func parse(t *testing.T, text string) *source.File {
	t.Helper()
	f, err := source.ParseString(context.Background(), "snippet", text)
	if err != nil {
		t.Fatalf("ParseString failed: %v", err)
	}
	return f
}

func lookup(t *testing.T, f *source.File, dotted string) *source.Resource {
	t.Helper()
	res, err := f.Lookup(dotted)
	if err != nil {
		t.Fatalf("Lookup(%q) failed: %v", dotted, err)
	}
	return res
}

func symbolNames(syms []*Symbol) []string {
	var names []string
	for _, s := range syms {
		names = append(names, s.Name)
	}
	return names
}

func TestFunction_Area(t *testing.T) {
	sym := readShapes(t, "area")

	if sym.Kind != KindFunction {
		t.Errorf("Kind = %s, want function", sym.Kind)
	}
	if sym.Signature != "(width, height, *extra, **opts)" {
		t.Errorf("Signature = %q", sym.Signature)
	}
	if sym.Description != "Area of a rectangle" {
		t.Errorf("Description = %q", sym.Description)
	}
	if got := paramNames(sym.Parameters); !reflect.DeepEqual(got, []string{"width", "height", "extra", "opts"}) {
		t.Fatalf("parameters = %v", got)
	}

	width := sym.Parameter("width")
	if width.Description != "The width\n\nMust be positive" {
		t.Errorf("width description = %q", width.Description)
	}
	height := sym.Parameter("height")
	if height.Description != "The height" || height.Extra["unit"] != "cm" {
		t.Errorf("height = %+v", height)
	}
	if extra := sym.Parameter("extra"); extra.Description != "" || len(extra.Extra) != 0 {
		t.Errorf("extra should carry only its name, got %+v", extra)
	}
	opts := sym.Parameter("opts")
	if opts.Extra["round"] != "whether to round" || opts.Extra["places"] != "digits kept" {
		t.Errorf("opts extra = %v", opts.Extra)
	}

	if sym.Return == nil || sym.Return.Description != "The area" {
		t.Errorf("Return = %+v, want description only", sym.Return)
	}
	if sym.Raises["BadSide"] != "when a side is negative" {
		t.Errorf("Raises = %v", sym.Raises)
	}
	if !strings.Contains(sym.Usage, "area(2, 3)") {
		t.Errorf("Usage = %q", sym.Usage)
	}
}

func TestFunction_Annotations(t *testing.T) {
	sym := readShapes(t, "perimeter")

	want := `(width: int, height: "int | None" = None, *, scale: float = 1.0) -> int`
	if sym.Signature != want {
		t.Errorf("Signature = %q, want %q", sym.Signature, want)
	}

	tests := []struct {
		name string
		typ  TypeSpec
	}{
		{"width", TypeSpec{"int"}},
		{"height", TypeSpec{"int", "None"}},
		{"scale", TypeSpec{"float"}},
	}
	if len(sym.Parameters) != len(tests) {
		t.Fatalf("parameters = %v", paramNames(sym.Parameters))
	}
	for i, tt := range tests {
		p := sym.Parameters[i]
		if p.Name != tt.name || !reflect.DeepEqual(p.Type, tt.typ) {
			t.Errorf("parameter %d = %s %v, want %s %v", i, p.Name, p.Type, tt.name, tt.typ)
		}
	}

	if sym.Return == nil || !reflect.DeepEqual(sym.Return.Type, TypeSpec{"int"}) || sym.Return.Description != "" {
		t.Errorf("Return = %+v, want type int only", sym.Return)
	}
	if sym.Description != "The perimeter" {
		t.Errorf("Description = %q", sym.Description)
	}
}

func TestMethod_Kinds(t *testing.T) {
	tests := []struct {
		path      string
		kind      Kind
		signature string
		params    []string
	}{
		{"Shape.scaled", KindMethod, `(factor: float) -> "Shape"`, []string{"factor"}},
		{"Shape.unit", KindStaticMethod, "(size)", []string{"size"}},
		{"Shape.named", KindClassMethod, "(name)", []string{"name"}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			sym := readShapes(t, tt.path)
			if sym.Kind != tt.kind {
				t.Errorf("Kind = %s, want %s", sym.Kind, tt.kind)
			}
			if sym.Signature != tt.signature {
				t.Errorf("Signature = %q, want %q", sym.Signature, tt.signature)
			}
			if got := paramNames(sym.Parameters); !reflect.DeepEqual(got, tt.params) {
				t.Errorf("parameters = %v, want %v", got, tt.params)
			}
		})
	}
}

func TestMethod_ReturnMerge(t *testing.T) {
	scaled := readShapes(t, "Shape.scaled")
	if scaled.Return == nil || scaled.Return.Description != "The copy" || !reflect.DeepEqual(scaled.Return.Type, TypeSpec{"Shape"}) {
		t.Errorf("scaled Return = %+v", scaled.Return)
	}

	named := readShapes(t, "Shape.named")
	if named.Return == nil || named.Return.Description != "A new shape" {
		t.Errorf("scalar return should become a description, got %+v", named.Return)
	}

	unit := readShapes(t, "Shape.unit")
	if p := unit.Parameter("size"); p == nil || p.Description != "Edge length" {
		t.Errorf("size = %+v", p)
	}
}

func TestClass_Shape(t *testing.T) {
	sym := readShapes(t, "Shape")

	if sym.Name != "Shape" || sym.Kind != KindClass {
		t.Errorf("name/kind = %s/%s", sym.Name, sym.Kind)
	}
	if sym.Description != "A shape\n\nMake a shape" {
		t.Errorf("Description = %q", sym.Description)
	}
	if !strings.Contains(sym.Definition, "sides = 4") {
		t.Errorf("Definition = %q", sym.Definition)
	}
	if sym.Signature != "(name, sides: int = 0)" {
		t.Errorf("Signature = %q", sym.Signature)
	}
	if got := paramNames(sym.Parameters); !reflect.DeepEqual(got, []string{"name", "sides"}) {
		t.Fatalf("parameters = %v", got)
	}
	if name := sym.Parameter("name"); !reflect.DeepEqual(name.Type, TypeSpec{"str"}) {
		t.Errorf("name type = %v", name.Type)
	}
	if sides := sym.Parameter("sides"); sides.Description != "Side count" || !reflect.DeepEqual(sides.Type, TypeSpec{"int"}) {
		t.Errorf("sides = %+v", sides)
	}
	if !strings.Contains(sym.Usage, `Shape("box")`) {
		t.Errorf("constructor usage should carry over, got %q", sym.Usage)
	}

	var methods []string
	for _, m := range sym.Methods {
		methods = append(methods, m.Name)
	}
	if !reflect.DeepEqual(methods, []string{"__repr__", "scaled", "unit", "named"}) {
		t.Errorf("methods = %v", methods)
	}
	if len(sym.Classes) != 1 || sym.Classes[0].Name != "Side" {
		t.Errorf("classes = %v", sym.Classes)
	}
	if len(sym.Exceptions) != 1 || sym.Exceptions[0].Name != "Invalid" || sym.Exceptions[0].Kind != KindException {
		t.Errorf("exceptions = %v", sym.Exceptions)
	}
	if len(sym.Attributes) != 1 || sym.Attributes[0].Name != "sides" || sym.Attributes[0].Description != "How many sides" {
		t.Errorf("attributes = %+v", sym.Attributes)
	}
}

func TestClass_NoConstructor(t *testing.T) {
	side := readShapes(t, "Shape.Side")

	if side.Signature != "" || len(side.Parameters) != 0 {
		t.Errorf("class without __init__ should have no signature or parameters, got %q %v", side.Signature, side.Parameters)
	}
	if side.Description != "One side" {
		t.Errorf("Description = %q", side.Description)
	}
	if len(side.Attributes) != 1 || side.Attributes[0].Description != "Side length" {
		t.Errorf("attributes = %+v", side.Attributes)
	}

	plain := readShapes(t, "Plain")
	if !reflect.DeepEqual(plain, &Symbol{Name: "Plain", Kind: KindClass}) {
		t.Errorf("Plain = %+v", plain)
	}
}

func TestModule(t *testing.T) {
	sym := readShapes(t, "")

	if sym.Name != "shapes" || sym.Kind != KindModule {
		t.Errorf("name/kind = %s/%s", sym.Name, sym.Kind)
	}
	if sym.Description != "Shapes and measurements" {
		t.Errorf("Description = %q", sym.Description)
	}

	if got := symbolNames(sym.Functions); !reflect.DeepEqual(got, []string{"area", "perimeter"}) {
		t.Errorf("functions = %v", got)
	}
	if got := symbolNames(sym.Classes); !reflect.DeepEqual(got, []string{"Shape", "Plain"}) {
		t.Errorf("classes = %v", got)
	}
	if got := symbolNames(sym.Exceptions); !reflect.DeepEqual(got, []string{"ShapeError", "BadSide"}) {
		t.Errorf("exceptions = %v", got)
	}

	want := []*Attribute{
		{Name: "UNITS", Description: "Unit every length is in"},
		{Name: "SCALE", Description: "Scale factor\n\nMultiplied into every length"},
		{Name: "LABEL", Description: "Shown in output", Type: TypeSpec{"str"}},
		{Name: "_hidden"},
	}
	if !reflect.DeepEqual(sym.Attributes, want) {
		for _, a := range sym.Attributes {
			t.Logf("attribute %+v", a)
		}
		t.Errorf("attributes mismatch")
	}
}

func TestAttributes_Channels(t *testing.T) {
	f := parse(t, `class Box:
    a = b = 1  # shared
    x, y = 1, 2  # pair
    """
    unit: cm
    """
    z = 3
    z += 1
    """stray"""
    big = """
    Stuff
    """  # Bunch
    """
    more: text
    """
`)
	attrs, err := New(nil).Attributes(context.Background(), lookup(t, f, "Box"))
	if err != nil {
		t.Fatalf("Attributes failed: %v", err)
	}

	byName := make(map[string]*Attribute)
	var order []string
	for _, a := range attrs {
		byName[a.Name] = a
		order = append(order, a.Name)
	}
	if !reflect.DeepEqual(order, []string{"a", "b", "x", "y", "z", "big"}) {
		t.Fatalf("order = %v", order)
	}
	for _, name := range []string{"a", "b"} {
		if byName[name].Description != "shared" {
			t.Errorf("%s description = %q", name, byName[name].Description)
		}
	}
	for _, name := range []string{"x", "y"} {
		if byName[name].Description != "pair" || byName[name].Extra["unit"] != "cm" {
			t.Errorf("%s = %+v", name, byName[name])
		}
	}
	if byName["z"].Description != "" {
		t.Errorf("a stray statement should stop the trailing literal, got %q", byName["z"].Description)
	}
	if byName["big"].Description != "Bunch" || byName["big"].Extra["more"] != "text" {
		t.Errorf("big = %+v", byName["big"])
	}
}

func TestComments(t *testing.T) {
	f := parse(t, `def f(
    a,  # plain
    b=(1, 2),  # type: tuple
    *args,
    c: dict = {"k": 1},  # first: 1
                         # second: 2
    **kw
):
    pass
`)
	comments, err := New(nil).Comments(context.Background(), lookup(t, f, "f"))
	if err != nil {
		t.Fatalf("Comments failed: %v", err)
	}

	want := map[string]meta.Fields{
		"a": {"description": "plain"},
		"b": {"type": "tuple"},
		"c": {"first": 1, "second": 2},
	}
	if !reflect.DeepEqual(comments, want) {
		t.Errorf("Comments = %v, want %v", comments, want)
	}
}

func TestAnnotations(t *testing.T) {
	f := parse(t, "def f(a: int, b, c: Optional[str] = None, *args: int, **kw: Union[int, float]):\n    pass\n")
	got, err := New(nil).Annotations(context.Background(), lookup(t, f, "f"))
	if err != nil {
		t.Fatalf("Annotations failed: %v", err)
	}
	want := map[string]TypeSpec{
		"a":    {"int"},
		"c":    {"str", "None"},
		"args": {"int"},
		"kw":   {"int", "float"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Annotations = %v, want %v", got, want)
	}
}

func TestFunction_CommentTypeWins(t *testing.T) {
	f := parse(t, "def f(a: int,  # type: float\n      b: str  # described\n):\n    pass\n")
	sym, err := New(nil).Function(context.Background(), lookup(t, f, "f"))
	if err != nil {
		t.Fatalf("Function failed: %v", err)
	}
	if !reflect.DeepEqual(sym.Parameter("a").Type, TypeSpec{"float"}) {
		t.Errorf("a type = %v, want comment type", sym.Parameter("a").Type)
	}
	b := sym.Parameter("b")
	if !reflect.DeepEqual(b.Type, TypeSpec{"str"}) || b.Description != "described" {
		t.Errorf("b = %+v", b)
	}
}

func TestClass_DunderMethods(t *testing.T) {
	f := parse(t, `class Box:
    def __init__(self, size):
        pass

    def __repr__(self):
        """
        description: Readable form
        usage: |
            Print it::

                repr(Box(2))
        """

    def size(self):
        pass

    __slots__ = ("size",)


def __getattr__(name):
    """Module fallback"""
`)
	sym, err := New(nil).ReadFile(context.Background(), f, "")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if got := symbolNames(sym.Functions); !reflect.DeepEqual(got, []string{"__getattr__"}) {
		t.Errorf("functions = %v", got)
	}
	if len(sym.Classes) != 1 {
		t.Fatalf("classes = %v", symbolNames(sym.Classes))
	}
	box := sym.Classes[0]
	if got := symbolNames(box.Methods); !reflect.DeepEqual(got, []string{"__repr__", "size"}) {
		t.Fatalf("methods = %v, constructor must be the only method left out", got)
	}
	if repr := box.Methods[0]; repr.Description != "Readable form" || !strings.Contains(repr.Usage, "repr(Box(2))") {
		t.Errorf("__repr__ = %+v", repr)
	}
	if len(box.Attributes) != 0 {
		t.Errorf("dunder attributes should be hidden, got %+v", box.Attributes)
	}
}

func TestSource_Dedents(t *testing.T) {
	f := parse(t, "class A:\n    class B:\n\n        x = 1\n")
	got := New(nil).Source(lookup(t, f, "A.B"))
	if got != "class B:\n\n    x = 1" {
		t.Errorf("Source = %q", got)
	}
}

func TestRead_Errors(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		dotted string
		code   errors.ErrorCode
	}{
		{"malformed comment", "def f(a):  # key: [unclosed\n    pass\n", "f", errors.StructuralParse},
		{"malformed docstring", "def f():\n    \"\"\"\n    a: b: c\n    \"\"\"\n", "f", errors.StructuralParse},
		{"malformed attribute", "X = 1  # - one\n# \n", "", errors.StructuralParse},
		{"unknown parameter", "def f(a):\n    \"\"\"\n    parameters:\n      b: Nobody\n    \"\"\"\n", "f", errors.StructuralParse},
		{"parameter sequence", "def f(a, b):\n    \"\"\"\n    parameters:\n    - name: a\n    \"\"\"\n", "f", errors.StructuralParse},
		{"missing symbol", "def f():\n    pass\n", "g", errors.SourceUnavailable},
		{"not a class", "def f():\n    pass\n", "f.g", errors.SourceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := parse(t, tt.text)
			_, err := New(nil).ReadFile(context.Background(), f, tt.dotted)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, tt.code) {
				t.Errorf("error %v does not carry %s", err, tt.code)
			}
		})
	}
}

func TestRead_MissingFile(t *testing.T) {
	_, err := New(nil).Read(context.Background(), filepath.Join(t.TempDir(), "nope.py"), "")
	if !errors.Is(err, errors.SourceUnavailable) {
		t.Errorf("expected SOURCE_UNAVAILABLE, got %v", err)
	}
}
