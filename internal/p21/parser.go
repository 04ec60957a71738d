// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package p21 reads ISO 10303-21 (STEP Part 21) clear-text exchange
// structures into an entity table.
package p21

import (
	"fmt"
	"io"
	"strings"
)

const (
	magicStart = "ISO-10303-21"
	magicEnd   = "END-ISO-10303-21"
)

// SyntaxError reports a lexical or grammatical error with its position.
type SyntaxError struct {
	Line int
	Col  int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d col %d: %s", e.Line, e.Col, e.Msg)
}

// Read parses an exchange structure from r.
func Read(r io.Reader) (*File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading exchange structure: %w", err)
	}
	return Parse(data)
}

// Parse parses an exchange structure held in memory. The input must start
// with the ISO-10303-21 token and carry a header and at least one data
// section.
func Parse(src []byte) (*File, error) {
	p := &parser{lex: newLexer(skipBOM(src))}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p.parseFile()
}

func skipBOM(src []byte) []byte {
	if len(src) >= 3 && src[0] == 0xEF && src[1] == 0xBB && src[2] == 0xBF {
		return src[3:]
	}
	return src
}

type parser struct {
	lex *lexer
	tok token
}

func (p *parser) advance() error {
	t, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = t
	return nil
}

func (p *parser) errorf(format string, args ...any) error {
	return &SyntaxError{Line: p.tok.line, Col: p.tok.col, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) expect(kind tokenKind) (token, error) {
	t := p.tok
	if t.kind != kind {
		return t, p.errorf("expected %s, found %s", kind, describe(t))
	}
	return t, p.advance()
}

func (p *parser) expectKeyword(word string) error {
	if p.tok.kind != tokKeyword || p.tok.text != word {
		return p.errorf("expected %s, found %s", word, describe(p.tok))
	}
	return p.advance()
}

func describe(t token) string {
	switch t.kind {
	case tokKeyword:
		return fmt.Sprintf("keyword %s", t.text)
	case tokInstance:
		return fmt.Sprintf("#%d", t.num)
	case tokInteger, tokReal:
		return fmt.Sprintf("number %s", t.text)
	}
	return t.kind.String()
}

func (p *parser) parseFile() (*File, error) {
	if p.tok.kind != tokKeyword || p.tok.text != magicStart {
		return nil, p.errorf("not an ISO-10303-21 exchange structure")
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if _, err := p.expect(tokSemicolon); err != nil {
		return nil, err
	}

	f := &File{Entities: make(map[int]*Entity)}
	if err := p.parseHeader(&f.Header); err != nil {
		return nil, err
	}

	sections := 0
	for p.tok.kind == tokKeyword && p.tok.text == "DATA" {
		if err := p.parseData(f); err != nil {
			return nil, err
		}
		sections++
	}
	if sections == 0 {
		return nil, p.errorf("missing DATA section")
	}

	if err := p.expectKeyword(magicEnd); err != nil {
		return nil, err
	}
	if _, err := p.expect(tokSemicolon); err != nil {
		return nil, err
	}
	return f, nil
}

func (p *parser) parseHeader(h *Header) error {
	if err := p.expectKeyword("HEADER"); err != nil {
		return err
	}
	if _, err := p.expect(tokSemicolon); err != nil {
		return err
	}
	for !(p.tok.kind == tokKeyword && p.tok.text == "ENDSEC") {
		if p.tok.kind == tokEOF {
			return p.errorf("unterminated HEADER section")
		}
		rec, err := p.parseRecord()
		if err != nil {
			return err
		}
		if _, err := p.expect(tokSemicolon); err != nil {
			return err
		}
		applyHeaderRecord(h, rec)
	}
	if err := p.advance(); err != nil {
		return err
	}
	_, err := p.expect(tokSemicolon)
	return err
}

func applyHeaderRecord(h *Header, rec Record) {
	str := func(i int) string {
		if i < len(rec.Params) && rec.Params[i].Kind == String {
			return rec.Params[i].Str
		}
		return ""
	}
	strs := func(i int) []string {
		if i >= len(rec.Params) || rec.Params[i].Kind != List {
			return nil
		}
		var out []string
		for _, v := range rec.Params[i].List {
			if v.Kind == String {
				out = append(out, v.Str)
			}
		}
		return out
	}

	switch rec.Type {
	case "FILE_DESCRIPTION":
		h.Description = strs(0)
		h.ImplementationLevel = str(1)
	case "FILE_NAME":
		h.Name = str(0)
		h.TimeStamp = str(1)
		h.Author = strs(2)
		h.Organization = strs(3)
		h.PreprocessorVersion = str(4)
		h.OriginatingSystem = str(5)
		h.Authorization = str(6)
	case "FILE_SCHEMA":
		h.Schemas = strs(0)
	}
}

func (p *parser) parseData(f *File) error {
	if err := p.advance(); err != nil {
		return err
	}
	// Second-edition files may parameterize the section: DATA('name',(schema));
	if p.tok.kind == tokLParen {
		if _, err := p.parseList(); err != nil {
			return err
		}
	}
	if _, err := p.expect(tokSemicolon); err != nil {
		return err
	}

	for !(p.tok.kind == tokKeyword && p.tok.text == "ENDSEC") {
		if p.tok.kind == tokEOF {
			return p.errorf("unterminated DATA section")
		}
		e, err := p.parseInstance()
		if err != nil {
			return err
		}
		if _, dup := f.Entities[e.ID]; dup {
			return &SyntaxError{Line: e.Line, Col: 1, Msg: fmt.Sprintf("duplicate instance #%d", e.ID)}
		}
		f.Entities[e.ID] = e
	}
	if err := p.advance(); err != nil {
		return err
	}
	_, err := p.expect(tokSemicolon)
	return err
}

func (p *parser) parseInstance() (*Entity, error) {
	line := p.tok.line
	idTok, err := p.expect(tokInstance)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokEquals); err != nil {
		return nil, err
	}

	e := &Entity{ID: int(idTok.num), Line: line}

	if p.tok.kind == tokLParen {
		if err := p.advance(); err != nil {
			return nil, err
		}
		for p.tok.kind != tokRParen {
			rec, err := p.parseRecord()
			if err != nil {
				return nil, err
			}
			e.Records = append(e.Records, rec)
		}
		if len(e.Records) == 0 {
			return nil, p.errorf("empty complex instance #%d", e.ID)
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	} else {
		rec, err := p.parseRecord()
		if err != nil {
			return nil, err
		}
		e.Records = []Record{rec}
	}

	if _, err := p.expect(tokSemicolon); err != nil {
		return nil, err
	}
	return e, nil
}

func (p *parser) parseRecord() (Record, error) {
	kw, err := p.expect(tokKeyword)
	if err != nil {
		return Record{}, err
	}
	params, err := p.parseList()
	if err != nil {
		return Record{}, err
	}
	return Record{Type: strings.ToUpper(kw.text), Params: params}, nil
}

// parseList parses "(" [value {"," value}] ")".
func (p *parser) parseList() ([]Value, error) {
	if _, err := p.expect(tokLParen); err != nil {
		return nil, err
	}
	var out []Value
	if p.tok.kind == tokRParen {
		return out, p.advance()
	}
	for {
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
		if p.tok.kind == tokComma {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		if _, err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		return out, nil
	}
}

func (p *parser) parseValue() (Value, error) {
	t := p.tok
	var v Value
	switch t.kind {
	case tokOmitted:
		v = Value{Kind: Omitted}
	case tokDerived:
		v = Value{Kind: Derived}
	case tokInteger:
		v = Value{Kind: Integer, Int: t.num}
	case tokReal:
		v = Value{Kind: Real, Num: t.real}
	case tokString:
		v = Value{Kind: String, Str: t.text}
	case tokEnum:
		v = Value{Kind: Enum, Str: strings.ToUpper(t.text)}
	case tokBinary:
		v = Value{Kind: Binary, Str: t.text}
	case tokInstance:
		v = Value{Kind: Ref, Ref: int(t.num)}
	case tokLParen:
		list, err := p.parseList()
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: List, List: list}, nil
	case tokKeyword:
		if err := p.advance(); err != nil {
			return Value{}, err
		}
		args, err := p.parseList()
		if err != nil {
			return Value{}, err
		}
		if len(args) != 1 {
			return Value{}, &SyntaxError{Line: t.line, Col: t.col, Msg: fmt.Sprintf("typed parameter %s takes one value, found %d", t.text, len(args))}
		}
		inner := args[0]
		return Value{Kind: Typed, Str: strings.ToUpper(t.text), Inner: &inner}, nil
	default:
		return Value{}, p.errorf("unexpected %s in parameter list", describe(t))
	}
	return v, p.advance()
}
