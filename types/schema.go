package types

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wippyai/hail/errors"
)

// Schema is a set of named type definitions, usually loaded from YAML.
// A definition is either a type expression or a mapping of struct fields;
// expressions containing ": " must be quoted.
//
//	types:
//	  point:
//	    x: float64
//	    y: float64
//	  path: array<point>
//	  segment: "struct{from: point, to: point}"
type Schema struct {
	Types map[string]string
}

type schemaDoc struct {
	Types yaml.Node `yaml:"types"`
}

// UnmarshalYAML renders mapping bodies to struct expressions in field order.
func (s *Schema) UnmarshalYAML(node *yaml.Node) error {
	var doc schemaDoc
	if err := node.Decode(&doc); err != nil {
		return err
	}

	s.Types = make(map[string]string)
	defs := &doc.Types
	if defs.Kind == 0 {
		return nil
	}
	if defs.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: types must be a mapping", defs.Line)
	}
	for i := 0; i+1 < len(defs.Content); i += 2 {
		name := defs.Content[i].Value
		if _, dup := s.Types[name]; dup {
			return fmt.Errorf("line %d: definition %q repeated", defs.Content[i].Line, name)
		}
		text, err := typeText(defs.Content[i+1])
		if err != nil {
			return err
		}
		s.Types[name] = text
	}
	return nil
}

func typeText(n *yaml.Node) (string, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		return n.Value, nil

	case yaml.AliasNode:
		return typeText(n.Alias)

	case yaml.MappingNode:
		var b strings.Builder
		b.WriteString("struct{")
		for i := 0; i+1 < len(n.Content); i += 2 {
			if i > 0 {
				b.WriteString(", ")
			}
			body, err := typeText(n.Content[i+1])
			if err != nil {
				return "", err
			}
			b.WriteString(QuoteFieldName(n.Content[i].Value))
			b.WriteString(": ")
			b.WriteString(body)
		}
		b.WriteString("}")
		return b.String(), nil
	}
	return "", fmt.Errorf("line %d: type must be an expression or a field mapping", n.Line)
}

// ParseSchema decodes a YAML schema document and checks definition names.
// Definition bodies are parsed lazily by ResolveSchema.
func ParseSchema(data []byte) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		detail := "decode schema"
		if strings.Contains(err.Error(), "mapping values are not allowed") {
			detail = `decode schema (quote type expressions containing ": ")`
		}
		return nil, errors.Wrap(errors.PhaseResolve, errors.KindMalformedTypeSpec, err, detail)
	}
	if s.Types == nil {
		s.Types = make(map[string]string)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadSchema reads and parses a YAML schema document.
func LoadSchema(r io.Reader) (*Schema, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseResolve, errors.KindMalformedTypeSpec, err, "read schema")
	}
	return ParseSchema(data)
}

// Validate rejects definitions that are not identifiers or that shadow a
// built-in kind.
func (s *Schema) Validate() error {
	for _, name := range s.Names() {
		if !isIdent(name) {
			return errors.MalformedTypeSpec(name, "definition name %q is not an identifier", name)
		}
		if IsKeyword(name) {
			return errors.MalformedTypeSpec(name, "definition %q shadows a built-in kind", name)
		}
	}
	return nil
}

// Names returns the definition names in sorted order.
func (s *Schema) Names() []string {
	names := make([]string, 0, len(s.Types))
	for name := range s.Types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResolveAll resolves every definition, failing on the first malformed one.
func (r *Registry) ResolveAll(s *Schema) (map[string]*Descriptor, error) {
	out := make(map[string]*Descriptor, len(s.Types))
	for _, name := range s.Names() {
		d, err := r.ResolveSchema(s, name)
		if err != nil {
			return nil, err
		}
		out[name] = d
	}
	return out, nil
}
