package source

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"pydocket/internal/errors"
)

// Kind classifies a resource.
type Kind string

const (
	KindModule   Kind = "module"
	KindClass    Kind = "class"
	KindFunction Kind = "function"
)

// File is one parsed Python source text.
type File struct {
	Name string // module name, e.g. "widgets"
	Path string // file path, empty for in-memory text
	Text []byte
	Root *sitter.Node
	tree *sitter.Tree
}

// Resource is a module, class or function inside a File.
type Resource struct {
	File *File
	Name string // bare name
	Path string // dotted path inside the module, empty for the module itself
	Kind Kind

	// Node spans the definition including its decorators.
	Node *sitter.Node
	// Definition is the class_definition or function_definition node.
	Definition *sitter.Node
	// Decorators holds decorator expressions as written, without the "@".
	Decorators []string
}

// Load reads and parses a Python file. The module name is the file's base name.
func Load(ctx context.Context, path string) (*File, error) {
	text, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.SourceUnavailable, "read "+path, err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	f, err := NewParser().Parse(ctx, name, text)
	if err != nil {
		return nil, err
	}
	f.Path = path
	return f, nil
}

// ParseString parses in-memory Python text under the given module name.
func ParseString(ctx context.Context, name, text string) (*File, error) {
	return NewParser().Parse(ctx, name, []byte(text))
}

// Module returns the resource for the whole file.
func (f *File) Module() *Resource {
	return &Resource{
		File:       f,
		Name:       f.Name,
		Kind:       KindModule,
		Node:       f.Root,
		Definition: f.Root,
	}
}

// Lookup resolves a dotted path such as "Widget.resize" to a resource. An
// empty path returns the module.
func (f *File) Lookup(dotted string) (*Resource, error) {
	if dotted == "" {
		return f.Module(), nil
	}

	scope := f.Root
	var found *Resource
	parts := strings.Split(dotted, ".")
	for i, part := range parts {
		found = nil
		for _, res := range f.Definitions(scope) {
			if res.Name == part {
				found = res
				break
			}
		}
		if found == nil {
			return nil, errors.Newf(errors.SourceUnavailable, "%s has no definition %q", f.Name, strings.Join(parts[:i+1], "."))
		}
		found.Path = strings.Join(parts[:i+1], ".")
		if i < len(parts)-1 {
			if found.Kind != KindClass {
				return nil, errors.Newf(errors.SourceUnavailable, "%s.%s is not a class", f.Name, found.Path)
			}
			scope = Body(found.Definition)
		}
	}
	return found, nil
}

// Definitions lists the class and function definitions directly inside scope
// (a module or a block), in source order.
func (f *File) Definitions(scope *sitter.Node) []*Resource {
	if scope == nil {
		return nil
	}
	var out []*Resource
	for i := 0; i < int(scope.NamedChildCount()); i++ {
		if res := f.Resource(scope.NamedChild(i)); res != nil {
			out = append(out, res)
		}
	}
	return out
}

// Resource wraps a definition statement, or returns nil if node is not one.
func (f *File) Resource(node *sitter.Node) *Resource {
	def := node
	var decorators []string
	if node.Type() == "decorated_definition" {
		def = node.ChildByFieldName("definition")
		for i := 0; i < int(node.NamedChildCount()); i++ {
			child := node.NamedChild(i)
			if child.Type() == "decorator" {
				decorators = append(decorators, strings.TrimSpace(strings.TrimPrefix(f.Content(child), "@")))
			}
		}
	}
	if def == nil {
		return nil
	}

	var kind Kind
	switch def.Type() {
	case "class_definition":
		kind = KindClass
	case "function_definition":
		kind = KindFunction
	default:
		return nil
	}

	name := def.ChildByFieldName("name")
	if name == nil {
		return nil
	}
	return &Resource{
		File:       f,
		Name:       f.Content(name),
		Path:       f.Content(name),
		Kind:       kind,
		Node:       node,
		Definition: def,
		Decorators: decorators,
	}
}

// Content returns the source text spanned by node.
func (f *File) Content(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return string(f.Text[node.StartByte():node.EndByte()])
}

// Body returns the block of a class or function definition.
func Body(def *sitter.Node) *sitter.Node {
	if def == nil {
		return nil
	}
	if def.Type() == "module" {
		return def
	}
	return def.ChildByFieldName("body")
}

// Text returns the resource's source with whole lines preserved and the
// minimum common leading whitespace removed, so that a nested definition reads
// as top-level code.
func Text(res *Resource) string {
	f := res.File
	start := int(res.Node.StartByte()) - int(res.Node.StartPoint().Column)
	if start < 0 {
		start = 0
	}
	return Dedent(string(f.Text[start:res.Node.EndByte()]))
}

// Dedent removes the longest whitespace prefix shared by every non-blank line.
// Blank lines become empty.
func Dedent(text string) string {
	lines := strings.Split(text, "\n")
	margin := ""
	first := true
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		if first {
			margin = indent
			first = false
			continue
		}
		margin = commonPrefix(margin, indent)
	}
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			lines[i] = ""
			continue
		}
		lines[i] = strings.TrimPrefix(line, margin)
	}
	return strings.Join(lines, "\n")
}

func commonPrefix(a, b string) string {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return a[:i]
}

// Comments indexes every comment node under root by its starting row.
func Comments(root *sitter.Node) map[uint32][]*sitter.Node {
	out := make(map[uint32][]*sitter.Node)
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n.Type() == "comment" {
			row := n.StartPoint().Row
			out[row] = append(out[row], n)
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(root)
	return out
}

// Leaves returns the token leaves under node in source order, comments included.
func Leaves(node *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n.ChildCount() == 0 || n.Type() == "comment" {
			out = append(out, n)
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(node)
	return out
}

// CommentText strips the "#" marker and one following space, keeping any
// further indentation so that YAML nesting inside comments survives.
func CommentText(raw string) string {
	text := strings.TrimPrefix(raw, "#")
	text = strings.TrimPrefix(text, " ")
	return strings.TrimRight(text, " \t\r")
}
