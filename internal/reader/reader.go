// Package reader builds documentation records for Python modules, classes and
// functions by merging trailing comments, annotations and YAML docstrings.
package reader

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"pydocket/internal/errors"
	"pydocket/internal/meta"
	"pydocket/internal/slogutil"
	"pydocket/internal/source"
)

// Reader reads Symbol records from parsed source.
type Reader struct {
	logger *slog.Logger
}

// New creates a Reader. A nil logger discards output.
func New(logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	return &Reader{logger: logger}
}

// Read loads a Python file and reads the symbol at dotted (the module when
// dotted is empty).
func (r *Reader) Read(ctx context.Context, path, dotted string) (*Symbol, error) {
	f, err := source.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	return r.ReadFile(ctx, f, dotted)
}

// ReadFile reads the symbol at dotted inside an already parsed file.
func (r *Reader) ReadFile(ctx context.Context, f *source.File, dotted string) (*Symbol, error) {
	res, err := f.Lookup(dotted)
	if err != nil {
		return nil, err
	}

	switch res.Kind {
	case source.KindModule:
		return r.Module(ctx, f)
	case source.KindClass:
		return r.Class(ctx, res)
	default:
		if strings.Contains(dotted, ".") {
			return r.Method(ctx, res)
		}
		return r.Function(ctx, res)
	}
}

// Source returns the resource's text with common indentation removed.
func (r *Reader) Source(res *source.Resource) string {
	return source.Text(res)
}

// reparse parses the dedented text of a class or function on its own and
// returns the resulting definition.
func (r *Reader) reparse(ctx context.Context, res *source.Resource) (*source.Resource, error) {
	f, err := source.ParseString(ctx, res.Name, r.Source(res))
	if err != nil {
		return nil, errors.New(errors.SourceUnavailable, "reparse "+res.Path, err)
	}
	for _, def := range f.Definitions(f.Root) {
		def.Path = res.Path
		return def, nil
	}
	return nil, errors.Newf(errors.SourceUnavailable, "%s: no definition in source", res.Path)
}

// Comments extracts the trailing "#" comments of every formal parameter,
// parsed as structured text and keyed by parameter name.
//
// The parameter list is scanned token by token. Only names at parenthesis
// depth one that start a parameter count; default values and annotations
// nest deeper or follow the name. Comment lines seen after a parameter belong
// to it until the next one starts, so a comment continued on following lines
// is joined with newlines.
func (r *Reader) Comments(ctx context.Context, res *source.Resource) (map[string]meta.Fields, error) {
	def, err := r.reparse(ctx, res)
	if err != nil {
		return nil, err
	}
	return parameterComments(def)
}

func parameterComments(def *source.Resource) (map[string]meta.Fields, error) {
	params := def.Definition.ChildByFieldName("parameters")
	if params == nil {
		return map[string]meta.Fields{}, nil
	}

	lines := make(map[string][]string)
	var order []string
	depth, current, expecting := 0, "", true

	for _, leaf := range source.Leaves(params) {
		switch leaf.Type() {
		case "(", "[", "{":
			depth++
		case ")", "]", "}":
			depth--
		case ",":
			if depth == 1 {
				expecting = true
			}
		case "identifier":
			if depth == 1 && expecting {
				current = def.File.Content(leaf)
				expecting = false
			}
		case "comment":
			text := source.CommentText(def.File.Content(leaf))
			if current == "" || text == "" {
				continue
			}
			if _, ok := lines[current]; !ok {
				order = append(order, current)
			}
			lines[current] = append(lines[current], text)
		}
	}

	out := make(map[string]meta.Fields, len(order))
	for _, name := range order {
		fields, err := meta.Parse(strings.Join(lines[name], "\n"))
		if err != nil {
			return nil, errors.New(errors.StructuralParse, fmt.Sprintf("comment on parameter %s of %s", name, def.Path), err)
		}
		out[name] = fields
	}
	return out, nil
}

// Annotations returns the type annotation of every annotated parameter.
func (r *Reader) Annotations(ctx context.Context, res *source.Resource) (map[string]TypeSpec, error) {
	def, err := r.reparse(ctx, res)
	if err != nil {
		return nil, err
	}
	out := make(map[string]TypeSpec)
	for _, p := range formals(def.File, def.Definition) {
		if p.Name != "" && len(p.Annotation) > 0 {
			out[p.Name] = p.Annotation
		}
	}
	return out, nil
}

// Function reads a module-level function.
func (r *Reader) Function(ctx context.Context, res *source.Resource) (*Symbol, error) {
	return r.function(ctx, res, false)
}

// Method reads a function defined in a class body. The receiver of plain
// methods and classmethods is left out of the signature and parameters.
func (r *Reader) Method(ctx context.Context, res *source.Resource) (*Symbol, error) {
	return r.function(ctx, res, true)
}

func (r *Reader) function(ctx context.Context, res *source.Resource, method bool) (*Symbol, error) {
	def, err := r.reparse(ctx, res)
	if err != nil {
		return nil, err
	}
	if def.Kind != source.KindFunction {
		return nil, errors.Newf(errors.SourceUnavailable, "%s is not a function", res.Path)
	}

	sym := &Symbol{Name: def.Name, Kind: functionKind(def.Decorators, method)}

	params := formals(def.File, def.Definition)
	if method && sym.Kind != KindStaticMethod {
		params = dropReceiver(params)
	}

	returns := def.File.Content(def.Definition.ChildByFieldName("return_type"))
	sym.Signature = signature(params, returns)

	comments, err := parameterComments(def)
	if err != nil {
		return nil, err
	}

	sym.Parameters = make([]*Parameter, 0, len(params))
	for _, p := range params {
		if p.Name == "" {
			continue
		}
		param := &Parameter{Name: p.Name}
		if fields, ok := comments[p.Name]; ok {
			param.Merge(fields, "name")
		}
		if len(param.Type) == 0 && len(p.Annotation) > 0 {
			param.Type = p.Annotation
		}
		sym.Parameters = append(sym.Parameters, param)
	}

	if returns != "" {
		sym.Return = &Return{Type: Annotation(returns)}
	}

	doc, err := docFields(def.File, source.Body(def.Definition), res.Path)
	if err != nil {
		return nil, err
	}
	if err := checkParameters(sym, doc, res.Path); err != nil {
		return nil, err
	}
	sym.Merge(doc)

	r.logger.Debug("read function",
		slog.String("path", res.Path),
		slog.String("kind", string(sym.Kind)),
		slog.Int("parameters", len(sym.Parameters)),
	)
	return sym, nil
}

// checkParameters rejects a docstring "parameters" value that is not a
// mapping of formal parameter names.
func checkParameters(sym *Symbol, doc meta.Fields, path string) error {
	v, ok := doc["parameters"]
	if !ok || v == nil {
		return nil
	}
	overrides, ok := meta.AsFields(v)
	if !ok {
		return errors.Newf(errors.StructuralParse, "docstring of %s: parameters must be a mapping", path)
	}
	for _, name := range overrides.Keys() {
		if sym.Parameter(name) == nil {
			return errors.Newf(errors.StructuralParse, "docstring of %s documents unknown parameter %q", path, name)
		}
	}
	return nil
}

// functionKind classifies a function by its decorators.
func functionKind(decorators []string, method bool) Kind {
	for _, d := range decorators {
		switch d {
		case "staticmethod":
			return KindStaticMethod
		case "classmethod":
			return KindClassMethod
		}
	}
	if method {
		return KindMethod
	}
	return KindFunction
}

// dropReceiver removes the first named parameter (self or cls).
func dropReceiver(params []formal) []formal {
	for i, p := range params {
		if p.Name != "" {
			return append(append([]formal{}, params[:i]...), params[i+1:]...)
		}
	}
	return params
}

// docFields parses the docstring of a body node.
func docFields(f *source.File, body *sitter.Node, path string) (meta.Fields, error) {
	fields, err := meta.Parse(f.Docstring(body))
	if err != nil {
		return nil, errors.New(errors.StructuralParse, "docstring of "+path, err)
	}
	return fields, nil
}
