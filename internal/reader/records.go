package reader

import (
	"encoding/json"
	"strings"

	"pydocket/internal/meta"
)

// Kind classifies a Symbol.
type Kind string

const (
	KindModule       Kind = "module"
	KindClass        Kind = "class"
	KindException    Kind = "exception"
	KindFunction     Kind = "function"
	KindMethod       Kind = "method"
	KindStaticMethod Kind = "staticmethod"
	KindClassMethod  Kind = "classmethod"
)

// TypeSpec lists the alternatives of a type. A single alternative marshals as
// a scalar, several as a sequence.
type TypeSpec []string

// MarshalYAML implements yaml.Marshaler.
func (t TypeSpec) MarshalYAML() (interface{}, error) {
	if len(t) == 1 {
		return t[0], nil
	}
	return []string(t), nil
}

// MarshalJSON implements json.Marshaler.
func (t TypeSpec) MarshalJSON() ([]byte, error) {
	if len(t) == 1 {
		return json.Marshal(t[0])
	}
	return json.Marshal([]string(t))
}

// TypeOf converts a YAML type value (a name or a list of names) to a TypeSpec.
func TypeOf(v any) TypeSpec {
	switch val := v.(type) {
	case nil:
		return nil
	case TypeSpec:
		return val
	case []string:
		return TypeSpec(val)
	case []any:
		out := make(TypeSpec, 0, len(val))
		for _, item := range val {
			out = append(out, meta.String(item))
		}
		return out
	default:
		return TypeSpec{meta.String(val)}
	}
}

// Parameter documents one formal parameter.
type Parameter struct {
	Name        string      `yaml:"name" json:"name"`
	Description string      `yaml:"description,omitempty" json:"description,omitempty"`
	Type        TypeSpec    `yaml:"type,omitempty" json:"type,omitempty"`
	Extra       meta.Fields `yaml:",inline" json:"-"`
}

// Merge applies f to the parameter: description appends, everything else overwrites.
func (p *Parameter) Merge(f meta.Fields, skip ...string) {
	for _, key := range f.Keys() {
		if contains(skip, key) {
			continue
		}
		v := f[key]
		switch key {
		case "name":
			p.Name = meta.String(v)
		case meta.Description:
			p.Description = appendText(p.Description, meta.String(v))
		case "type":
			p.Type = TypeOf(v)
		default:
			if p.Extra == nil {
				p.Extra = meta.Fields{}
			}
			p.Extra[key] = v
		}
	}
}

// Fields returns the parameter's present fields.
func (p *Parameter) Fields() meta.Fields {
	f := meta.Fields{"name": p.Name}
	setText(f, meta.Description, p.Description)
	if len(p.Type) > 0 {
		f["type"] = p.Type
	}
	for k, v := range p.Extra {
		f[k] = v
	}
	return f
}

// MarshalJSON flattens Extra into the object.
func (p *Parameter) MarshalJSON() ([]byte, error) { return json.Marshal(p.Fields()) }

// Attribute documents a class or module level assignment target.
type Attribute struct {
	Name        string      `yaml:"name" json:"name"`
	Description string      `yaml:"description,omitempty" json:"description,omitempty"`
	Type        TypeSpec    `yaml:"type,omitempty" json:"type,omitempty"`
	Extra       meta.Fields `yaml:",inline" json:"-"`
}

// Merge applies f to the attribute: description appends, everything else overwrites.
func (a *Attribute) Merge(f meta.Fields, skip ...string) {
	p := Parameter(*a)
	p.Merge(f, skip...)
	*a = Attribute(p)
}

// Fields returns the attribute's present fields.
func (a *Attribute) Fields() meta.Fields {
	p := Parameter(*a)
	return p.Fields()
}

// MarshalJSON flattens Extra into the object.
func (a *Attribute) MarshalJSON() ([]byte, error) { return json.Marshal(a.Fields()) }

// Return documents what a function returns.
type Return struct {
	Description string      `yaml:"description,omitempty" json:"description,omitempty"`
	Type        TypeSpec    `yaml:"type,omitempty" json:"type,omitempty"`
	Extra       meta.Fields `yaml:",inline" json:"-"`
}

// Merge applies f to the return record.
func (r *Return) Merge(f meta.Fields, skip ...string) {
	p := Parameter{Description: r.Description, Type: r.Type, Extra: r.Extra}
	p.Merge(f, append(skip, "name")...)
	r.Description, r.Type, r.Extra = p.Description, p.Type, p.Extra
}

// Fields returns the return record's present fields.
func (r *Return) Fields() meta.Fields {
	f := meta.Fields{}
	setText(f, meta.Description, r.Description)
	if len(r.Type) > 0 {
		f["type"] = r.Type
	}
	for k, v := range r.Extra {
		f[k] = v
	}
	return f
}

// MarshalJSON flattens Extra into the object.
func (r *Return) MarshalJSON() ([]byte, error) { return json.Marshal(r.Fields()) }

// ReturnFields normalizes a docstring "return" value: a scalar becomes
// {"description": text}.
func ReturnFields(v any) meta.Fields {
	if f, ok := meta.AsFields(v); ok {
		return f
	}
	return meta.Fields{meta.Description: meta.String(v)}
}

// Symbol is the documentation record of a module, class or function.
type Symbol struct {
	Name        string            `yaml:"name" json:"name"`
	Kind        Kind              `yaml:"kind,omitempty" json:"kind,omitempty"`
	Signature   string            `yaml:"signature,omitempty" json:"signature,omitempty"`
	Description string            `yaml:"description,omitempty" json:"description,omitempty"`
	Definition  string            `yaml:"definition,omitempty" json:"definition,omitempty"`
	Usage       string            `yaml:"usage,omitempty" json:"usage,omitempty"`
	Parameters  []*Parameter      `yaml:"parameters,omitempty" json:"parameters,omitempty"`
	Return      *Return           `yaml:"return,omitempty" json:"return,omitempty"`
	Raises      map[string]string `yaml:"raises,omitempty" json:"raises,omitempty"`
	Attributes  []*Attribute      `yaml:"attributes,omitempty" json:"attributes,omitempty"`
	Functions   []*Symbol         `yaml:"functions,omitempty" json:"functions,omitempty"`
	Methods     []*Symbol         `yaml:"methods,omitempty" json:"methods,omitempty"`
	Classes     []*Symbol         `yaml:"classes,omitempty" json:"classes,omitempty"`
	Exceptions  []*Symbol         `yaml:"exceptions,omitempty" json:"exceptions,omitempty"`
	Extra       meta.Fields       `yaml:",inline" json:"-"`
}

// Parameter returns the parameter record with the given name.
func (s *Symbol) Parameter(name string) *Parameter {
	for _, p := range s.Parameters {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Merge applies f to the symbol. Descriptions append after a blank line,
// "parameters" entries merge into the existing parameter records by name, a
// "return" value merges into the return record, and every other key
// overwrites. Keys in skip are ignored.
func (s *Symbol) Merge(f meta.Fields, skip ...string) {
	for _, key := range f.Keys() {
		if contains(skip, key) {
			continue
		}
		v := f[key]
		switch key {
		case "name":
			s.Name = meta.String(v)
		case "kind":
			s.Kind = Kind(meta.String(v))
		case "signature":
			s.Signature = meta.String(v)
		case meta.Description:
			s.Description = appendText(s.Description, meta.String(v))
		case "definition":
			s.Definition = meta.String(v)
		case "usage":
			s.Usage = meta.String(v)
		case "parameters":
			s.mergeParameters(v)
		case "return":
			switch r := v.(type) {
			case *Return:
				s.Return = r
			default:
				if s.Return == nil {
					s.Return = &Return{}
				}
				s.Return.Merge(ReturnFields(v))
			}
		case "raises":
			s.Raises = raisesOf(v)
		case "attributes":
			if attrs, ok := v.([]*Attribute); ok {
				s.Attributes = attrs
			} else {
				s.setExtra(key, v)
			}
		case "functions", "methods", "classes", "exceptions":
			if syms, ok := v.([]*Symbol); ok {
				*s.nested(key) = syms
			} else {
				s.setExtra(key, v)
			}
		default:
			s.setExtra(key, v)
		}
	}
}

func (s *Symbol) mergeParameters(v any) {
	switch val := v.(type) {
	case []*Parameter:
		s.Parameters = val
	case []any:
		for _, item := range val {
			fields, ok := meta.AsFields(item)
			if !ok {
				continue
			}
			if p := s.Parameter(meta.String(fields["name"])); p != nil {
				p.Merge(fields, "name")
			}
		}
	default:
		overrides, ok := meta.AsFields(v)
		if !ok {
			return
		}
		for _, name := range overrides.Keys() {
			if p := s.Parameter(name); p != nil {
				p.Merge(paramFields(overrides[name]), "name")
			}
		}
	}
}

func paramFields(v any) meta.Fields {
	if f, ok := meta.AsFields(v); ok {
		return f
	}
	return meta.Fields{meta.Description: meta.String(v)}
}

func raisesOf(v any) map[string]string {
	f, ok := meta.AsFields(v)
	if !ok {
		if m, ok := v.(map[string]string); ok {
			return m
		}
		return nil
	}
	out := make(map[string]string, len(f))
	for k, val := range f {
		out[k] = meta.String(val)
	}
	return out
}

func (s *Symbol) nested(key string) *[]*Symbol {
	switch key {
	case "functions":
		return &s.Functions
	case "methods":
		return &s.Methods
	case "classes":
		return &s.Classes
	default:
		return &s.Exceptions
	}
}

func (s *Symbol) setExtra(key string, v any) {
	if s.Extra == nil {
		s.Extra = meta.Fields{}
	}
	s.Extra[key] = v
}

// Fields returns the symbol's present fields, keyed as in the YAML output.
func (s *Symbol) Fields() meta.Fields {
	f := meta.Fields{"name": s.Name}
	setText(f, "kind", string(s.Kind))
	setText(f, "signature", s.Signature)
	setText(f, meta.Description, s.Description)
	setText(f, "definition", s.Definition)
	setText(f, "usage", s.Usage)
	if len(s.Parameters) > 0 {
		f["parameters"] = s.Parameters
	}
	if s.Return != nil {
		f["return"] = s.Return
	}
	if len(s.Raises) > 0 {
		f["raises"] = s.Raises
	}
	if len(s.Attributes) > 0 {
		f["attributes"] = s.Attributes
	}
	for _, key := range []string{"functions", "methods", "classes", "exceptions"} {
		if syms := *s.nested(key); len(syms) > 0 {
			f[key] = syms
		}
	}
	for k, v := range s.Extra {
		f[k] = v
	}
	return f
}

// MarshalJSON flattens Extra into the object.
func (s *Symbol) MarshalJSON() ([]byte, error) { return json.Marshal(s.Fields()) }

// appendText joins description texts with a blank line; empty means absent.
func appendText(existing, more string) string {
	if existing == "" {
		return more
	}
	return meta.AppendDescription(existing, more)
}

func setText(f meta.Fields, key, value string) {
	if value != "" {
		f[key] = value
	}
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// isDunder reports names of the __x__ form and name-mangled __x names.
func isDunder(name string) bool {
	return strings.HasPrefix(name, "__")
}
