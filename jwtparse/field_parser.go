// Package jwtparse provides the character-exact JWT payload analysis the
// circuit relies on: locating a single `"key": value` field with its byte
// offsets, and classifying which payload positions lie inside quoted string
// bodies. The grammar is deliberately local — it does not balance braces and
// the value scanner does not interpret backslash escapes — because the
// circuit's in-wire parser behaves the same way, and the two must agree.
package jwtparse

import (
	"fmt"
	"strings"
)

// ParsedField is one `"k": v,` (or `"k": v}`) fragment located inside a JWT
// payload. Offsets are relative to the payload unless noted. WholeField spans
// from the field's opening quote through its trailing delimiter, inclusive.
type ParsedField struct {
	// Index is the byte offset of the field's opening quote in the payload.
	Index int
	Key   string
	Value string
	// ColonIndex points at the ':' separator, relative to WholeField.
	ColonIndex int
	// ValueIndex points at the first value character (the character after
	// the opening quote, for quoted values), relative to WholeField.
	ValueIndex int
	WholeField string
}

// ParseError reports where in the scanned fragment a parse failed.
type ParseError struct {
	Explanation string
	Offset      int
	Scanned     string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error: %s (at index %d of %q)", e.Explanation, e.Offset, e.Scanned)
}

// fieldParser scans one field out of a payload fragment.
type fieldParser struct {
	s   string
	pos int
}

func (p *fieldParser) errorf(format string, args ...any) *ParseError {
	return &ParseError{
		Explanation: fmt.Sprintf(format, args...),
		Offset:      p.pos,
		Scanned:     p.s,
	}
}

func (p *fieldParser) eos() *ParseError {
	return p.errorf("unexpected end of input")
}

func (p *fieldParser) peek() (byte, *ParseError) {
	if p.pos >= len(p.s) {
		return 0, p.eos()
	}
	return p.s[p.pos], nil
}

func (p *fieldParser) pop() (byte, *ParseError) {
	c, err := p.peek()
	if err != nil {
		return 0, err
	}
	p.pos++
	return c, nil
}

// consumeNonWhitespaceChar skips spaces, then consumes one character that
// must be in options.
func (p *fieldParser) consumeNonWhitespaceChar(options ...byte) (int, byte, *ParseError) {
	for {
		c, err := p.peek()
		if err != nil {
			return 0, 0, err
		}
		if c != ' ' {
			break
		}
		p.pos++
	}

	index := p.pos
	c, _ := p.peek()
	for _, opt := range options {
		if c == opt {
			p.pos++
			return index, c, nil
		}
	}
	return 0, 0, p.errorf("expected one of %q, got %q", string(options), string(c))
}

func (p *fieldParser) consumeWhitespace() *ParseError {
	for {
		c, err := p.peek()
		if err != nil {
			return err
		}
		if c != ' ' {
			return nil
		}
		p.pos++
	}
}

// consumeString consumes a double-quoted string and returns the offset of the
// first character after the opening quote. The scan stops at the first '"'
// regardless of any preceding backslash; see the package comment.
func (p *fieldParser) consumeString() (int, string, *ParseError) {
	c, err := p.peek()
	if err != nil {
		return 0, "", err
	}
	if c != '"' {
		return 0, "", p.errorf("expected a string here")
	}
	p.pos++ // opening quote

	index := p.pos
	var sb strings.Builder
	for {
		c, err := p.peek()
		if err != nil {
			return 0, "", err
		}
		if c == '"' {
			p.pos++ // closing quote
			return index, sb.String(), nil
		}
		sb.WriteByte(c)
		p.pos++
	}
}

// consumeUnquoted consumes a run of non-space, non-',', non-'}' characters.
func (p *fieldParser) consumeUnquoted() (int, string, *ParseError) {
	index := p.pos
	var sb strings.Builder
	for {
		c, err := p.peek()
		if err != nil {
			return 0, "", err
		}
		if c == ' ' || c == ',' || c == '}' {
			return index, sb.String(), nil
		}
		sb.WriteByte(c)
		p.pos++
	}
}

func (p *fieldParser) consumeValue() (int, string, *ParseError) {
	if err := p.consumeWhitespace(); err != nil {
		return 0, "", err
	}
	c, err := p.peek()
	if err != nil {
		return 0, "", err
	}
	if c == '"' {
		return p.consumeString()
	}
	return p.consumeUnquoted()
}

// parse scans one complete field from the start of the fragment.
func (p *fieldParser) parse() (*ParsedField, *ParseError) {
	_, key, err := p.consumeString()
	if err != nil {
		return nil, err
	}
	colonIndex, _, err := p.consumeNonWhitespaceChar(':')
	if err != nil {
		return nil, err
	}
	valueIndex, value, err := p.consumeValue()
	if err != nil {
		return nil, err
	}
	delimiterIndex, _, err := p.consumeNonWhitespaceChar(',', '}')
	if err != nil {
		return nil, err
	}

	return &ParsedField{
		Key:        key,
		Value:      value,
		ColonIndex: colonIndex,
		ValueIndex: valueIndex,
		WholeField: p.s[:delimiterIndex+1],
	}, nil
}

// FindAndParseField locates the literal substring "key" (in quotes) in the
// payload and parses the field starting there. Returned offsets inside the
// ParsedField are relative to the field start; Index is relative to the
// payload.
func FindAndParseField(payload, key string) (*ParsedField, error) {
	quoted := `"` + key + `"`
	index := strings.Index(payload, quoted)
	if index < 0 {
		return nil, &ParseError{
			Explanation: fmt.Sprintf("could not find %s in jwt payload", quoted),
			Offset:      0,
			Scanned:     payload,
		}
	}

	parser := &fieldParser{s: payload[index:]}
	field, perr := parser.parse()
	if perr != nil {
		return nil, perr
	}
	field.Index = index
	return field, nil
}
