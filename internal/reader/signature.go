package reader

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"pydocket/internal/source"
)

// formal is one entry of a parameter list. Separators ("*", "/") have an empty
// Name and only contribute to the rendered signature.
type formal struct {
	Name       string
	Text       string
	Annotation TypeSpec
}

// formals lists the parameter list entries of a function definition in order.
func formals(f *source.File, def *sitter.Node) []formal {
	params := def.ChildByFieldName("parameters")
	if params == nil {
		return nil
	}

	var out []formal
	for i := 0; i < int(params.NamedChildCount()); i++ {
		node := params.NamedChild(i)
		switch node.Type() {
		case "identifier":
			name := f.Content(node)
			out = append(out, formal{Name: name, Text: name})
		case "list_splat_pattern", "dictionary_splat_pattern":
			out = append(out, formal{Name: splatName(f, node), Text: squash(f.Content(node))})
		case "typed_parameter":
			target := node.NamedChild(0)
			typ := node.ChildByFieldName("type")
			name := f.Content(target)
			if target.Type() != "identifier" {
				name = splatName(f, target)
			}
			out = append(out, formal{
				Name:       name,
				Text:       squash(f.Content(target)) + ": " + squash(f.Content(typ)),
				Annotation: Annotation(f.Content(typ)),
			})
		case "default_parameter":
			name := f.Content(node.ChildByFieldName("name"))
			value := squash(f.Content(node.ChildByFieldName("value")))
			out = append(out, formal{Name: name, Text: name + "=" + value})
		case "typed_default_parameter":
			name := f.Content(node.ChildByFieldName("name"))
			typ := f.Content(node.ChildByFieldName("type"))
			value := squash(f.Content(node.ChildByFieldName("value")))
			out = append(out, formal{
				Name:       name,
				Text:       name + ": " + squash(typ) + " = " + value,
				Annotation: Annotation(typ),
			})
		case "keyword_separator":
			out = append(out, formal{Text: "*"})
		case "positional_separator":
			out = append(out, formal{Text: "/"})
		}
	}
	return out
}

func splatName(f *source.File, node *sitter.Node) string {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if child := node.NamedChild(i); child.Type() == "identifier" {
			return f.Content(child)
		}
	}
	return strings.TrimLeft(f.Content(node), "*")
}

// signature renders formals the way Python's inspect.signature prints them.
func signature(params []formal, returns string) string {
	parts := make([]string, 0, len(params))
	for _, p := range params {
		parts = append(parts, p.Text)
	}
	sig := "(" + strings.Join(parts, ", ") + ")"
	if returns != "" {
		sig += " -> " + squash(returns)
	}
	return sig
}

// squash collapses whitespace runs (including newlines) into single spaces.
func squash(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Annotation converts a type annotation into its alternatives:
// "int | None", "Union[int, None]" and "Optional[int]" all give [int None].
func Annotation(text string) TypeSpec {
	text = strings.Trim(squash(text), `"'`)
	if text == "" {
		return nil
	}

	if alts := splitTop(text, '|'); len(alts) > 1 {
		var out TypeSpec
		for _, alt := range alts {
			out = append(out, Annotation(alt)...)
		}
		return out
	}

	head, args, ok := subscript(text)
	if ok {
		switch strings.TrimPrefix(head, "typing.") {
		case "Union":
			var out TypeSpec
			for _, arg := range splitTop(args, ',') {
				out = append(out, Annotation(arg)...)
			}
			return out
		case "Optional":
			return append(Annotation(args), "None")
		}
	}
	return TypeSpec{text}
}

// subscript splits "Head[args]" into its parts.
func subscript(text string) (string, string, bool) {
	open := strings.IndexByte(text, '[')
	if open <= 0 || !strings.HasSuffix(text, "]") {
		return "", "", false
	}
	return strings.TrimSpace(text[:open]), text[open+1 : len(text)-1], true
}

// splitTop splits on sep outside of any brackets.
func splitTop(text string, sep byte) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '[', '(', '{':
			depth++
		case ']', ')', '}':
			depth--
		case sep:
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(text[start:i]))
				start = i + 1
			}
		}
	}
	return append(parts, strings.TrimSpace(text[start:]))
}
