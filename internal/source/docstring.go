package source

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Docstring returns the cleaned docstring of a module, class or function body,
// or "" when the first statement is not a string literal.
func (f *File) Docstring(body *sitter.Node) string {
	if body == nil {
		return ""
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		stmt := body.NamedChild(i)
		if stmt.Type() == "comment" {
			continue
		}
		if text, ok := f.StringStatement(stmt); ok {
			return Cleandoc(text)
		}
		return ""
	}
	return ""
}

// StringStatement reports whether stmt is a bare string-literal statement and
// returns the literal's value.
func (f *File) StringStatement(stmt *sitter.Node) (string, bool) {
	if stmt == nil || stmt.Type() != "expression_statement" || stmt.NamedChildCount() != 1 {
		return "", false
	}
	return f.StringValue(stmt.NamedChild(0))
}

// StringValue decodes a string or concatenated_string literal node. F-strings
// are returned as written.
func (f *File) StringValue(node *sitter.Node) (string, bool) {
	switch node.Type() {
	case "string":
		return decodeLiteral(f.Content(node)), true
	case "concatenated_string":
		var b strings.Builder
		for i := 0; i < int(node.NamedChildCount()); i++ {
			part, ok := f.StringValue(node.NamedChild(i))
			if !ok {
				return "", false
			}
			b.WriteString(part)
		}
		return b.String(), true
	}
	return "", false
}

// decodeLiteral strips the prefix and quotes of a Python string literal and
// resolves the common escapes of non-raw strings.
func decodeLiteral(raw string) string {
	prefix := 0
	for prefix < len(raw) && strings.ContainsRune("rRuUbBfF", rune(raw[prefix])) {
		prefix++
	}
	isRaw := strings.ContainsAny(raw[:prefix], "rR")
	body := raw[prefix:]

	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if strings.HasPrefix(body, q) && strings.HasSuffix(body, q) && len(body) >= 2*len(q) {
			body = body[len(q) : len(body)-len(q)]
			break
		}
	}
	if isRaw {
		return body
	}
	return unescape(body)
}

func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i == len(s)-1 {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case '\\':
			b.WriteByte('\\')
		case '\'':
			b.WriteByte('\'')
		case '"':
			b.WriteByte('"')
		case '\n':
			// line continuation
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// Cleandoc normalizes docstring indentation the way Python's inspect.cleandoc
// does: the first line loses its leading whitespace, the remaining lines lose
// their common indentation, and leading and trailing blank lines are dropped.
func Cleandoc(doc string) string {
	lines := strings.Split(strings.ReplaceAll(doc, "\t", "        "), "\n")

	margin := -1
	for _, line := range lines[1:] {
		content := strings.TrimLeft(line, " ")
		if content == "" {
			continue
		}
		indent := len(line) - len(content)
		if margin < 0 || indent < margin {
			margin = indent
		}
	}

	lines[0] = strings.TrimLeft(lines[0], " ")
	for i := 1; i < len(lines); i++ {
		if margin > 0 {
			if len(lines[i]) >= margin {
				lines[i] = lines[i][margin:]
			} else {
				lines[i] = strings.TrimLeft(lines[i], " ")
			}
		}
		lines[i] = strings.TrimRight(lines[i], " ")
	}

	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}
