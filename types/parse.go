package types

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wippyai/hail/errors"
)

type tokenType int

const (
	tokIdent tokenType = iota
	tokString
	tokPunct
	tokEOF
)

func (t tokenType) String() string {
	switch t {
	case tokIdent:
		return "identifier"
	case tokString:
		return "string"
	case tokPunct:
		return "punctuation"
	case tokEOF:
		return "end of input"
	}
	return "unknown"
}

type token struct {
	value string
	typ   tokenType
	pos   int
}

func (t token) describe() string {
	if t.typ == tokEOF {
		return "end of input"
	}
	return strconv.Quote(t.value)
}

func tokenize(input string) ([]token, error) {
	var tokens []token

	for i := 0; i < len(input); i++ {
		c := input[i]

		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			continue

		case strings.IndexByte("<>(){},:", c) >= 0:
			tokens = append(tokens, token{string(c), tokPunct, i})

		case c == '"':
			start := i
			i++
			for i < len(input) && input[i] != '"' {
				if input[i] == '\\' {
					i++
				}
				i++
			}
			if i >= len(input) {
				return nil, fmt.Errorf("unterminated string at offset %d", start)
			}
			s, err := strconv.Unquote(input[start : i+1])
			if err != nil {
				return nil, fmt.Errorf("invalid string at offset %d: %v", start, err)
			}
			tokens = append(tokens, token{s, tokString, start})

		case c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z'):
			start := i
			for i+1 < len(input) {
				n := input[i+1]
				if n == '_' || n == '-' || (n >= 'a' && n <= 'z') || (n >= 'A' && n <= 'Z') || (n >= '0' && n <= '9') {
					i++
				} else {
					break
				}
			}
			tokens = append(tokens, token{input[start : i+1], tokIdent, start})

		default:
			return nil, fmt.Errorf("unexpected character %q at offset %d", c, i)
		}
	}

	tokens = append(tokens, token{"", tokEOF, len(input)})
	return tokens, nil
}

// node is the parsed, unresolved form of a type expression.
type node struct {
	ref   string
	elems []*node
	names []string
	pos   int
	kind  Kind
	isRef bool
}

type parser struct {
	tokens []token
	pos    int
}

// parseSpec parses a complete type expression.
func parseSpec(spec string) (*node, error) {
	tokens, err := tokenize(spec)
	if err != nil {
		return nil, errors.MalformedTypeSpec(spec, "%s", err.Error())
	}
	p := &parser{tokens: tokens}
	n, err := p.parseType()
	if err != nil {
		return nil, errors.MalformedTypeSpec(spec, "%s", err.Error())
	}
	if t := p.peek(); t.typ != tokEOF {
		return nil, errors.MalformedTypeSpec(spec, "unexpected %s at offset %d after type", t.describe(), t.pos)
	}
	return n, nil
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.typ != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) expect(punct string) error {
	t := p.next()
	if t.typ != tokPunct || t.value != punct {
		return fmt.Errorf("expected %q at offset %d, got %s", punct, t.pos, t.describe())
	}
	return nil
}

func (p *parser) accept(punct string) bool {
	t := p.peek()
	if t.typ == tokPunct && t.value == punct {
		p.pos++
		return true
	}
	return false
}

func (p *parser) parseType() (*node, error) {
	t := p.next()
	if t.typ != tokIdent {
		return nil, fmt.Errorf("expected type at offset %d, got %s", t.pos, t.describe())
	}

	if kind, ok := primitiveNames[t.value]; ok {
		return &node{kind: kind, pos: t.pos}, nil
	}

	switch t.value {
	case "array", "nullable":
		if err := p.expect("<"); err != nil {
			return nil, err
		}
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if err := p.expect(">"); err != nil {
			return nil, err
		}
		kind := KindArray
		if t.value == "nullable" {
			kind = KindNullable
		}
		return &node{kind: kind, elems: []*node{elem}, pos: t.pos}, nil

	case "tuple":
		if err := p.expect("("); err != nil {
			return nil, err
		}
		n := &node{kind: KindTuple, pos: t.pos}
		if p.accept(")") {
			return n, nil
		}
		for {
			elem, err := p.parseType()
			if err != nil {
				return nil, err
			}
			n.elems = append(n.elems, elem)
			if p.accept(")") {
				return n, nil
			}
			if err := p.expect(","); err != nil {
				return nil, err
			}
		}

	case "struct":
		if err := p.expect("{"); err != nil {
			return nil, err
		}
		n := &node{kind: KindStruct, pos: t.pos, names: []string{}}
		if p.accept("}") {
			return n, nil
		}
		for {
			name := p.next()
			if name.typ != tokIdent && name.typ != tokString {
				return nil, fmt.Errorf("expected field name at offset %d, got %s", name.pos, name.describe())
			}
			if err := p.expect(":"); err != nil {
				return nil, err
			}
			elem, err := p.parseType()
			if err != nil {
				return nil, err
			}
			n.names = append(n.names, name.value)
			n.elems = append(n.elems, elem)
			if p.accept("}") {
				return n, nil
			}
			if err := p.expect(","); err != nil {
				return nil, err
			}
		}
	}

	return &node{ref: t.value, isRef: true, pos: t.pos}, nil
}
