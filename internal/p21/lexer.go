// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package p21

import (
	"fmt"
	"strconv"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokKeyword
	tokInstance
	tokInteger
	tokReal
	tokString
	tokEnum
	tokBinary
	tokOmitted
	tokDerived
	tokLParen
	tokRParen
	tokComma
	tokSemicolon
	tokEquals
)

var tokenNames = [...]string{
	tokEOF:       "end of input",
	tokKeyword:   "keyword",
	tokInstance:  "instance name",
	tokInteger:   "integer",
	tokReal:      "real",
	tokString:    "string",
	tokEnum:      "enumeration",
	tokBinary:    "binary",
	tokOmitted:   "'$'",
	tokDerived:   "'*'",
	tokLParen:    "'('",
	tokRParen:    "')'",
	tokComma:     "','",
	tokSemicolon: "';'",
	tokEquals:    "'='",
}

func (k tokenKind) String() string {
	if int(k) < len(tokenNames) {
		return tokenNames[k]
	}
	return fmt.Sprintf("token(%d)", int(k))
}

type token struct {
	kind tokenKind
	text string // keyword, enum, decoded string, binary digits
	num  int64
	real float64
	line int
	col  int
}

// lexer splits a Part 21 exchange structure into tokens. Comments are
// skipped; whitespace outside strings is insignificant.
type lexer struct {
	src  []byte
	pos  int
	line int
	col  int
}

func newLexer(src []byte) *lexer {
	return &lexer{src: src, line: 1, col: 1}
}

func (l *lexer) errorf(line, col int, format string, args ...any) error {
	return &SyntaxError{Line: line, Col: col, Msg: fmt.Sprintf(format, args...)}
}

func (l *lexer) advance() byte {
	c := l.src[l.pos]
	l.pos++
	if c == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return c
}

func (l *lexer) peekByte(off int) byte {
	if l.pos+off < len(l.src) {
		return l.src[l.pos+off]
	}
	return 0
}

func (l *lexer) skipSpaceAndComments() error {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f' || c == '\v':
			l.advance()
		case c == '/' && l.peekByte(1) == '*':
			line, col := l.line, l.col
			l.advance()
			l.advance()
			closed := false
			for l.pos < len(l.src) {
				if l.src[l.pos] == '*' && l.peekByte(1) == '/' {
					l.advance()
					l.advance()
					closed = true
					break
				}
				l.advance()
			}
			if !closed {
				return l.errorf(line, col, "unterminated comment")
			}
		default:
			return nil
		}
	}
	return nil
}

func isUpper(c byte) bool { return c >= 'A' && c <= 'Z' }
func isLower(c byte) bool { return c >= 'a' && c <= 'z' }
func isDigit(c byte) bool { return c >= '0' && c <= '9' }
func isHex(c byte) bool   { return isDigit(c) || (c >= 'A' && c <= 'F') || (c >= 'a' && c <= 'f') }

func isKeywordStart(c byte) bool { return isUpper(c) || isLower(c) || c == '_' || c == '!' }
func isKeywordPart(c byte) bool {
	return isUpper(c) || isLower(c) || isDigit(c) || c == '_' || c == '-'
}

func (l *lexer) next() (token, error) {
	if err := l.skipSpaceAndComments(); err != nil {
		return token{}, err
	}
	if l.pos >= len(l.src) {
		return token{kind: tokEOF, line: l.line, col: l.col}, nil
	}

	line, col := l.line, l.col
	c := l.src[l.pos]
	tok := token{line: line, col: col}

	switch {
	case c == '(':
		l.advance()
		tok.kind = tokLParen
	case c == ')':
		l.advance()
		tok.kind = tokRParen
	case c == ',':
		l.advance()
		tok.kind = tokComma
	case c == ';':
		l.advance()
		tok.kind = tokSemicolon
	case c == '=':
		l.advance()
		tok.kind = tokEquals
	case c == '$':
		l.advance()
		tok.kind = tokOmitted
	case c == '*':
		l.advance()
		tok.kind = tokDerived
	case c == '#':
		l.advance()
		start := l.pos
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.advance()
		}
		if start == l.pos {
			return tok, l.errorf(line, col, "instance name without digits")
		}
		n, err := strconv.ParseInt(string(l.src[start:l.pos]), 10, 64)
		if err != nil {
			return tok, l.errorf(line, col, "instance name: %v", err)
		}
		tok.kind = tokInstance
		tok.num = n
	case c == '\'':
		s, err := l.lexString()
		if err != nil {
			return tok, err
		}
		tok.kind = tokString
		tok.text = s
	case c == '"':
		l.advance()
		start := l.pos
		for l.pos < len(l.src) && l.src[l.pos] != '"' {
			if !isHex(l.src[l.pos]) {
				return tok, l.errorf(l.line, l.col, "invalid binary digit %q", l.src[l.pos])
			}
			l.advance()
		}
		if l.pos >= len(l.src) {
			return tok, l.errorf(line, col, "unterminated binary")
		}
		tok.kind = tokBinary
		tok.text = string(l.src[start:l.pos])
		l.advance()
	case c == '.' && isKeywordStart(l.peekByte(1)):
		l.advance()
		start := l.pos
		for l.pos < len(l.src) && (isKeywordPart(l.src[l.pos])) {
			l.advance()
		}
		if l.pos >= len(l.src) || l.src[l.pos] != '.' {
			return tok, l.errorf(line, col, "unterminated enumeration")
		}
		tok.kind = tokEnum
		tok.text = string(l.src[start:l.pos])
		l.advance()
	case isDigit(c) || c == '+' || c == '-' || (c == '.' && isDigit(l.peekByte(1))):
		return l.lexNumber(tok)
	case isKeywordStart(c):
		start := l.pos
		for l.pos < len(l.src) && isKeywordPart(l.src[l.pos]) {
			l.advance()
		}
		tok.kind = tokKeyword
		tok.text = string(l.src[start:l.pos])
	default:
		return tok, l.errorf(line, col, "unexpected character %q", c)
	}
	return tok, nil
}

// lexString reads a quoted string. Doubled apostrophes are unescaped here;
// backslash control directives are left for decodeString.
func (l *lexer) lexString() (string, error) {
	line, col := l.line, l.col
	l.advance()
	var buf []byte
	for {
		if l.pos >= len(l.src) {
			return "", l.errorf(line, col, "unterminated string")
		}
		c := l.advance()
		if c == '\'' {
			if l.peekByte(0) == '\'' {
				l.advance()
				buf = append(buf, '\'')
				continue
			}
			break
		}
		if c == '\n' || c == '\r' {
			// Writers wrap long strings; line breaks are not part of the value.
			continue
		}
		buf = append(buf, c)
	}
	s, err := decodeString(string(buf))
	if err != nil {
		return "", l.errorf(line, col, "string: %v", err)
	}
	return s, nil
}

func (l *lexer) lexNumber(tok token) (token, error) {
	start := l.pos
	if c := l.src[l.pos]; c == '+' || c == '-' {
		l.advance()
	}
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.advance()
	}
	isReal := false
	if l.pos < len(l.src) && l.src[l.pos] == '.' {
		isReal = true
		l.advance()
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.advance()
		}
	}
	if l.pos < len(l.src) && (l.src[l.pos] == 'E' || l.src[l.pos] == 'e') {
		isReal = true
		l.advance()
		if l.pos < len(l.src) && (l.src[l.pos] == '+' || l.src[l.pos] == '-') {
			l.advance()
		}
		expStart := l.pos
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.advance()
		}
		if expStart == l.pos {
			return tok, l.errorf(tok.line, tok.col, "malformed exponent in %q", l.src[start:l.pos])
		}
	}
	text := string(l.src[start:l.pos])
	if text == "+" || text == "-" {
		return tok, l.errorf(tok.line, tok.col, "sign without digits")
	}
	if isReal {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return tok, l.errorf(tok.line, tok.col, "malformed real %q", text)
		}
		tok.kind = tokReal
		tok.real = f
		tok.text = text
		return tok, nil
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return tok, l.errorf(tok.line, tok.col, "malformed integer %q", text)
	}
	tok.kind = tokInteger
	tok.num = n
	tok.text = text
	return tok, nil
}
