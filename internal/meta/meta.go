// Package meta parses the YAML embedded in comments and docstrings and merges
// the resulting field sets.
package meta

import (
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"pydocket/internal/errors"
)

// Description is the one key whose values accumulate instead of being replaced.
const Description = "description"

// Fields is one structured-metadata mapping, as decoded from YAML.
type Fields map[string]any

// Parse turns a comment or docstring into Fields.
//
// Empty text yields empty Fields. A YAML mapping is returned verbatim and any
// scalar is wrapped as {"description": value}, with the value decoded so
// quotes are removed and plain multi-line prose is folded onto one line.
// Malformed YAML is an error.
func Parse(text string) (Fields, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Fields{}, nil
	}

	var node yaml.Node
	if err := yaml.Unmarshal([]byte(text), &node); err != nil {
		return nil, errors.New(errors.StructuralParse, "invalid structured text", err)
	}
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = *node.Content[0]
	}

	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return Fields{}, nil
		}
		return Fields{Description: node.Value}, nil
	case yaml.MappingNode:
		fields := Fields{}
		if err := node.Decode(&fields); err != nil {
			return nil, errors.New(errors.StructuralParse, "invalid structured text", err)
		}
		return Normalize(fields), nil
	case 0:
		return Fields{}, nil
	default:
		return nil, errors.Newf(errors.StructuralParse, "structured text must be a mapping or a scalar: %q", firstLine(text))
	}
}

// Merge folds secondary into primary in place. A description already present
// in primary gets the new one appended after a blank line; every other key is
// overwritten. Keys listed in skip are left alone.
func Merge(primary, secondary Fields, skip ...string) {
	for _, key := range secondary.Keys() {
		if contains(skip, key) {
			continue
		}
		value := secondary[key]
		if key == Description {
			if existing, ok := primary[Description]; ok {
				primary[Description] = AppendDescription(String(existing), String(value))
				continue
			}
		}
		primary[key] = value
	}
}

// AppendDescription joins two description texts with a blank line.
func AppendDescription(earlier, later string) string {
	return earlier + "\n\n" + later
}

// Keys returns the keys of f in sorted order.
func (f Fields) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a shallow copy of f.
func (f Fields) Clone() Fields {
	c := make(Fields, len(f))
	for k, v := range f {
		c[k] = v
	}
	return c
}

// String renders a scalar YAML value as text. Nil becomes "".
func String(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case bool:
		if s {
			return "true"
		}
		return "false"
	default:
		out, err := yaml.Marshal(v)
		if err != nil {
			return ""
		}
		return strings.TrimSuffix(string(out), "\n")
	}
}

// Normalize rewrites nested map[any]any values (non-string YAML keys) into
// Fields so that callers only ever see string keys.
func Normalize(f Fields) Fields {
	for k, v := range f {
		f[k] = normalizeValue(v)
	}
	return f
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return Normalize(Fields(val))
	case map[any]any:
		out := Fields{}
		for k, inner := range val {
			out[String(k)] = normalizeValue(inner)
		}
		return out
	case []any:
		for i := range val {
			val[i] = normalizeValue(val[i])
		}
		return val
	default:
		return v
	}
}

// AsFields returns v as Fields when it is a mapping.
func AsFields(v any) (Fields, bool) {
	switch m := v.(type) {
	case Fields:
		return m, true
	case map[string]any:
		return Fields(m), true
	}
	return nil, false
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + "..."
	}
	return s
}
