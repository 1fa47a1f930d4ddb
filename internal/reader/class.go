package reader

import (
	"context"
	"log/slog"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"pydocket/internal/source"
)

const constructor = "__init__"

// Class reads a class: its docstring, then its constructor (whose signature,
// parameters and description carry over to the class), then its methods,
// nested classes and exceptions, and attributes.
func (r *Reader) Class(ctx context.Context, res *source.Resource) (*Symbol, error) {
	def, err := r.reparse(ctx, res)
	if err != nil {
		return nil, err
	}

	sym := &Symbol{Name: def.Name, Kind: KindClass}
	if exceptionClasses(res.File)[res.Path] {
		sym.Kind = KindException
	}

	body := source.Body(def.Definition)
	doc, err := docFields(def.File, body, res.Path)
	if err != nil {
		return nil, err
	}
	sym.Merge(doc)

	members := def.File.Definitions(body)
	for _, m := range members {
		if m.Kind == source.KindFunction && m.Name == constructor {
			m.Path = res.Path + "." + m.Name
			init, err := r.Method(ctx, m)
			if err != nil {
				return nil, err
			}
			sym.Merge(init.Fields(), "name", "kind")
			break
		}
	}

	if err := r.members(ctx, res, members, sym); err != nil {
		return nil, err
	}

	attrs, err := scanAttributes(def.File, body, res.Path)
	if err != nil {
		return nil, err
	}
	sym.Attributes = publicAttributes(attrs)

	r.logger.Debug("read class",
		slog.String("path", res.Path),
		slog.String("kind", string(sym.Kind)),
		slog.Int("methods", len(sym.Methods)),
		slog.Int("attributes", len(sym.Attributes)),
	)
	return sym, nil
}

// members reads the functions and classes defined in a class body. Nested
// classes are read through the original file so exception bases resolve
// against the whole module.
func (r *Reader) members(ctx context.Context, parent *source.Resource, defs []*source.Resource, sym *Symbol) error {
	for _, m := range defs {
		if m.Kind == source.KindFunction && m.Name == constructor {
			continue
		}
		path := parent.Path + "." + m.Name
		switch m.Kind {
		case source.KindFunction:
			m.Path = path
			method, err := r.Method(ctx, m)
			if err != nil {
				return err
			}
			sym.Methods = append(sym.Methods, method)
		case source.KindClass:
			nested, err := parent.File.Lookup(path)
			if err != nil {
				return err
			}
			cls, err := r.Class(ctx, nested)
			if err != nil {
				return err
			}
			if cls.Kind == KindException {
				sym.Exceptions = append(sym.Exceptions, cls)
			} else {
				sym.Classes = append(sym.Classes, cls)
			}
		}
	}
	return nil
}

func publicAttributes(attrs []*Attribute) []*Attribute {
	out := attrs[:0]
	for _, a := range attrs {
		if !isDunder(a.Name) {
			out = append(out, a)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// builtinExceptions are the exception names Python defines without an
// "Error", "Warning" or "Exception" suffix.
var builtinExceptions = map[string]bool{
	"BaseException":      true,
	"Exception":          true,
	"GeneratorExit":      true,
	"KeyboardInterrupt":  true,
	"StopIteration":      true,
	"StopAsyncIteration": true,
	"SystemExit":         true,
}

// isBuiltinException reports whether a base class name refers to a Python
// builtin exception type.
func isBuiltinException(name string) bool {
	name = name[strings.LastIndex(name, ".")+1:]
	return builtinExceptions[name] ||
		strings.HasSuffix(name, "Error") ||
		strings.HasSuffix(name, "Warning") ||
		strings.HasSuffix(name, "Exception")
}

// exceptionClasses returns the dotted paths of every class in f that derives,
// directly or through other classes of f, from a builtin exception.
func exceptionClasses(f *source.File) map[string]bool {
	type class struct {
		path  string
		bases []string
	}
	var classes []class
	byName := make(map[string][]string)

	var walk func(scope *sitter.Node, prefix string)
	walk = func(scope *sitter.Node, prefix string) {
		for _, res := range f.Definitions(scope) {
			if res.Kind != source.KindClass {
				continue
			}
			path := prefix + res.Name
			classes = append(classes, class{path: path, bases: baseNames(f, res.Definition)})
			byName[res.Name] = append(byName[res.Name], path)
			walk(source.Body(res.Definition), path+".")
		}
	}
	walk(f.Root, "")

	out := make(map[string]bool)
	for changed := true; changed; {
		changed = false
		for _, c := range classes {
			if out[c.path] {
				continue
			}
			for _, base := range c.bases {
				if isBuiltinException(base) || anyTrue(out, byName[base[strings.LastIndex(base, ".")+1:]]) {
					out[c.path] = true
					changed = true
					break
				}
			}
		}
	}
	return out
}

func anyTrue(set map[string]bool, keys []string) bool {
	for _, k := range keys {
		if set[k] {
			return true
		}
	}
	return false
}

// baseNames lists the positional base class expressions of a class definition.
func baseNames(f *source.File, def *sitter.Node) []string {
	args := def.ChildByFieldName("superclasses")
	if args == nil {
		return nil
	}
	var out []string
	for i := 0; i < int(args.NamedChildCount()); i++ {
		arg := args.NamedChild(i)
		switch arg.Type() {
		case "identifier", "attribute":
			out = append(out, f.Content(arg))
		case "subscript":
			if value := arg.ChildByFieldName("value"); value != nil {
				out = append(out, f.Content(value))
			}
		}
	}
	return out
}
