// Package source loads Python source with tree-sitter and exposes the pieces the
// reader needs: definitions by dotted path, dedented definition text, docstrings,
// comments and token leaves.
package source

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"pydocket/internal/errors"
)

// Parser wraps tree-sitter's Python grammar.
type Parser struct {
	parser *sitter.Parser
}

// NewParser creates a new tree-sitter parser for Python.
func NewParser() *Parser {
	p := sitter.NewParser()
	p.SetLanguage(python.GetLanguage())
	return &Parser{parser: p}
}

// Parse parses Python text. Any syntax error in the tree is reported as
// SourceUnavailable; a partially parsed tree is never returned.
func (p *Parser) Parse(ctx context.Context, name string, text []byte) (*File, error) {
	tree, err := p.parser.ParseCtx(ctx, nil, text)
	if err != nil {
		return nil, errors.New(errors.SourceUnavailable, fmt.Sprintf("parse %s", name), err)
	}

	root := tree.RootNode()
	if root.HasError() {
		bad := firstError(root)
		line, col := uint32(0), uint32(0)
		if bad != nil {
			line, col = bad.StartPoint().Row+1, bad.StartPoint().Column+1
		}
		return nil, errors.Newf(errors.SourceUnavailable, "syntax error in %s at %d:%d", name, line, col)
	}

	return &File{
		Name: name,
		Text: text,
		Root: root,
		tree: tree,
	}, nil
}

// firstError finds the first ERROR or MISSING node in document order.
func firstError(node *sitter.Node) *sitter.Node {
	if node == nil {
		return nil
	}
	if node.Type() == "ERROR" || node.IsMissing() {
		return node
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.HasError() || child.IsMissing() {
			if bad := firstError(child); bad != nil {
				return bad
			}
		}
	}
	return nil
}
