package example

import (
	"fmt"
	"log/slog"
	"sort"

	"go.starlark.net/starlark"

	"pydocket/internal/errors"
	"pydocket/internal/meta"
	"pydocket/internal/reader"
)

// AssertBlock runs b in a fresh namespace and, when it is valued, compares
// the result with the documented value. ev decides whether that value is an
// expression or literal text.
func (v *Verifier) AssertBlock(b Block, comment string, ev Evaluator) error {
	err := v.assertBlock(b, comment, ev)
	if v.OnBlock != nil {
		v.OnBlock(comment, b, err)
	}
	return err
}

func (v *Verifier) assertBlock(b Block, comment string, ev Evaluator) error {
	ns := v.Namespace()
	actual, err := v.Exec(b, ns)
	if err != nil {
		return err
	}
	if !b.Valued() {
		return nil
	}

	evaluate, err := ev.Evaluate(comment)
	if err != nil {
		return err
	}

	var expected starlark.Value = starlark.String(*b.Value)
	if evaluate {
		if expected, err = v.Eval(b, ns); err != nil {
			return err
		}
	}

	equal, err := starlark.Equal(expected, actual)
	if err != nil {
		return errors.New(errors.ExampleCode, "compare example values", err)
	}
	if !equal {
		return newMismatch(comment, expected, actual, evaluate)
	}

	v.logger.Debug("example passed",
		slog.String("comment", comment),
		slog.Bool("evaluate", evaluate),
	)
	return nil
}

// AssertSection asserts every block of a section in order, stopping at the
// first failure.
func (v *Verifier) AssertSection(s *Section, comment string, ev Evaluator) error {
	for _, b := range s.Blocks {
		if err := v.AssertBlock(b, comment, ev); err != nil {
			return err
		}
	}
	return nil
}

// nestedKeys hold symbols that are asserted on their own.
var nestedKeys = map[string]bool{"methods": true, "classes": true, "exceptions": true}

// AssertTree finds every example passage in a documentation tree and asserts
// it. comment is extended with ".field" and "[index]" on the way down.
// Nested methods, classes and exceptions are not entered.
func (v *Verifier) AssertTree(node any, comment string, ev Evaluator) error {
	switch n := node.(type) {
	case nil:
		return nil
	case *Section:
		return v.AssertSection(n, comment, ev)
	case string:
		if IsPassage(n) {
			return v.AssertSection(NewSection(n), comment, ev)
		}
		return nil
	case *reader.Symbol:
		return v.assertFields(n.Fields(), comment, ev)
	case *reader.Parameter:
		return v.assertFields(n.Fields(), comment, ev)
	case *reader.Attribute:
		return v.assertFields(n.Fields(), comment, ev)
	case *reader.Return:
		return v.assertFields(n.Fields(), comment, ev)
	case meta.Fields:
		return v.assertFields(n, comment, ev)
	case map[string]any:
		return v.assertFields(meta.Fields(n), comment, ev)
	case map[string]string:
		f := make(meta.Fields, len(n))
		for k, s := range n {
			f[k] = s
		}
		return v.assertFields(f, comment, ev)
	case []*reader.Symbol:
		return assertItems(v, n, comment, ev)
	case []*reader.Parameter:
		return assertItems(v, n, comment, ev)
	case []*reader.Attribute:
		return assertItems(v, n, comment, ev)
	case []any:
		return assertItems(v, n, comment, ev)
	}
	return nil
}

func (v *Verifier) assertFields(f meta.Fields, comment string, ev Evaluator) error {
	for _, key := range fieldOrder(f) {
		if nestedKeys[key] {
			continue
		}
		if err := v.AssertTree(f[key], comment+"."+key, ev); err != nil {
			return err
		}
	}
	return nil
}

func assertItems[T any](v *Verifier, items []T, comment string, ev Evaluator) error {
	for i, item := range items {
		if err := v.AssertTree(item, fmt.Sprintf("%s[%d]", comment, i), ev); err != nil {
			return err
		}
	}
	return nil
}

// AssertSymbol asserts the examples of sym, then of each nested method,
// class and exception under its own breadcrumb.
func (v *Verifier) AssertSymbol(sym *reader.Symbol, ev Evaluator) error {
	return v.assertSymbol(sym, sym.Name, ev)
}

func (v *Verifier) assertSymbol(sym *reader.Symbol, comment string, ev Evaluator) error {
	if err := v.AssertTree(sym, comment, ev); err != nil {
		return err
	}
	for _, group := range [][]*reader.Symbol{sym.Methods, sym.Classes, sym.Exceptions} {
		for _, nested := range group {
			if err := v.assertSymbol(nested, comment+"."+nested.Name, ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// recordOrder is the order record fields are written and visited in.
var recordOrder = []string{
	"name", "kind", "signature", "description", "definition", "usage",
	"parameters", "return", "raises", "attributes", "functions",
}

// fieldOrder lists the keys of f: known record fields first, the rest sorted.
func fieldOrder(f meta.Fields) []string {
	keys := make([]string, 0, len(f))
	seen := make(map[string]bool, len(recordOrder))
	for _, k := range recordOrder {
		if _, ok := f[k]; ok {
			keys = append(keys, k)
			seen[k] = true
		}
	}
	var rest []string
	for k := range f {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}
