package reader

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"pydocket/internal/errors"
	"pydocket/internal/meta"
	"pydocket/internal/source"
)

// Attributes reads the assignments in a class or module body. Each assigned
// name gets one Attribute, in order of first assignment, documented by a
// trailing comment on the assignment's last line and/or a string literal
// statement directly after it.
func (r *Reader) Attributes(ctx context.Context, res *source.Resource) ([]*Attribute, error) {
	def := res
	if res.Kind != source.KindModule {
		var err error
		if def, err = r.reparse(ctx, res); err != nil {
			return nil, err
		}
	}
	return scanAttributes(def.File, source.Body(def.Definition), res.Path)
}

// attributeScanner walks body statements in order. targets holds the names
// of the latest assignment until a statement other than a trailing string
// literal clears it.
type attributeScanner struct {
	file     *source.File
	path     string
	comments map[uint32][]*sitter.Node

	targets []string
	attrs   map[string]*Attribute
	types   map[string]TypeSpec
	order   []string
}

func scanAttributes(f *source.File, body *sitter.Node, path string) ([]*Attribute, error) {
	if body == nil {
		return nil, nil
	}
	s := &attributeScanner{
		file:     f,
		path:     path,
		comments: source.Comments(f.Root),
		attrs:    make(map[string]*Attribute),
		types:    make(map[string]TypeSpec),
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		if err := s.statement(body.NamedChild(i)); err != nil {
			return nil, err
		}
	}
	return s.result(), nil
}

func (s *attributeScanner) statement(stmt *sitter.Node) error {
	if stmt.Type() == "comment" {
		return nil
	}

	if assign := assignment(stmt); assign != nil {
		s.targets = s.assign(assign)
		if comment := s.trailingComment(stmt); comment != "" {
			return s.document(comment, "comment")
		}
		return nil
	}

	if text, ok := s.file.StringStatement(stmt); ok && len(s.targets) > 0 {
		err := s.document(source.Cleandoc(text), "docstring")
		s.targets = nil
		return err
	}

	s.targets = nil
	return nil
}

// assign registers the names bound by an assignment and returns them.
func (s *attributeScanner) assign(node *sitter.Node) []string {
	var names []string
	for node != nil && node.Type() == "assignment" {
		typ := node.ChildByFieldName("type")
		for _, name := range targetNames(s.file, node.ChildByFieldName("left")) {
			names = append(names, name)
			if _, ok := s.attrs[name]; !ok {
				s.attrs[name] = &Attribute{Name: name}
				s.order = append(s.order, name)
			}
			if typ != nil {
				s.types[name] = Annotation(s.file.Content(typ))
			}
		}
		node = node.ChildByFieldName("right")
	}
	return names
}

func (s *attributeScanner) trailingComment(stmt *sitter.Node) string {
	row := stmt.EndPoint().Row
	for _, c := range s.comments[row] {
		if c.StartByte() >= stmt.EndByte() {
			return source.CommentText(s.file.Content(c))
		}
	}
	return ""
}

func (s *attributeScanner) document(text, channel string) error {
	fields, err := meta.Parse(text)
	if err != nil {
		return errors.New(errors.StructuralParse, fmt.Sprintf("%s of attribute %v in %s", channel, s.targets, s.path), err)
	}
	for _, name := range s.targets {
		s.attrs[name].Merge(fields, "name")
	}
	return nil
}

func (s *attributeScanner) result() []*Attribute {
	out := make([]*Attribute, 0, len(s.order))
	for _, name := range s.order {
		attr := s.attrs[name]
		if len(attr.Type) == 0 {
			attr.Type = s.types[name]
		}
		out = append(out, attr)
	}
	return out
}

// assignment returns the assignment inside an expression statement.
func assignment(stmt *sitter.Node) *sitter.Node {
	if stmt.Type() != "expression_statement" || stmt.NamedChildCount() == 0 {
		return nil
	}
	if child := stmt.NamedChild(0); child.Type() == "assignment" {
		return child
	}
	return nil
}

// targetNames lists the plain names bound by an assignment target, looking
// through tuple and list patterns.
func targetNames(f *source.File, target *sitter.Node) []string {
	if target == nil {
		return nil
	}
	switch target.Type() {
	case "identifier":
		return []string{f.Content(target)}
	case "pattern_list", "tuple_pattern", "list_pattern", "tuple", "list":
		var names []string
		for i := 0; i < int(target.NamedChildCount()); i++ {
			names = append(names, targetNames(f, target.NamedChild(i))...)
		}
		return names
	}
	return nil
}
