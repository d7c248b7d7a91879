// Package hostscript implements the small brace-delimited scripting language
// that both transpilers target. Programs are parsed into an AST and executed
// by a tree-walking evaluator. Go functions are exposed to scripts as natives,
// which is how the hardware and console runtimes publish their primitives.
package hostscript

import (
	"fmt"
	"strconv"
	"strings"
)

// TokenKind classifies a lexical token.
type TokenKind int

const (
	TokEOF TokenKind = iota
	TokIdent
	TokKeyword
	TokNumber
	TokString
	TokPunct
)

func (k TokenKind) String() string {
	switch k {
	case TokEOF:
		return "EOF"
	case TokIdent:
		return "identifier"
	case TokKeyword:
		return "keyword"
	case TokNumber:
		return "number"
	case TokString:
		return "string"
	case TokPunct:
		return "punctuation"
	default:
		return "unknown"
	}
}

// Token is one lexical unit with its source position.
type Token struct {
	Kind TokenKind
	Text string  // verbatim text for idents, keywords and punctuation
	Str  string  // decoded value for strings
	Num  float64 // decoded value for numbers
	Line int
	Col  int
}

var keywords = map[string]bool{
	"let": true, "const": true, "var": true,
	"function": true, "async": true, "await": true, "return": true,
	"if": true, "else": true, "while": true, "do": true, "for": true,
	"break": true, "continue": true, "switch": true, "case": true, "default": true,
	"true": true, "false": true, "null": true, "undefined": true,
}

// Longest operators first so the scanner can take the first prefix match.
var punctuators = []string{
	"===", "!==", "<<=", ">>=",
	"==", "!=", "<=", ">=", "&&", "||", "++", "--", "**",
	"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "<<", ">>",
	"+", "-", "*", "/", "%", "=", "<", ">", "!", "&", "|", "^", "~",
	"?", ":", ";", ",", ".", "(", ")", "{", "}", "[", "]",
}

// SyntaxError reports a lexing or parsing failure.
type SyntaxError struct {
	Line int
	Col  int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at line %d:%d: %s", e.Line, e.Col, e.Msg)
}

type lexer struct {
	src  string
	pos  int
	line int
	col  int
}

// Tokenize splits src into tokens, always ending with a TokEOF token.
func Tokenize(src string) ([]Token, error) {
	lx := &lexer{src: src, line: 1, col: 1}
	var out []Token
	for {
		tok, err := lx.next()
		if err != nil {
			return nil, err
		}
		out = append(out, tok)
		if tok.Kind == TokEOF {
			return out, nil
		}
	}
}

func (lx *lexer) peekByte(off int) byte {
	if lx.pos+off >= len(lx.src) {
		return 0
	}
	return lx.src[lx.pos+off]
}

func (lx *lexer) advance(n int) {
	for i := 0; i < n && lx.pos < len(lx.src); i++ {
		if lx.src[lx.pos] == '\n' {
			lx.line++
			lx.col = 1
		} else {
			lx.col++
		}
		lx.pos++
	}
}

func (lx *lexer) errorf(format string, args ...any) error {
	return &SyntaxError{Line: lx.line, Col: lx.col, Msg: fmt.Sprintf(format, args...)}
}

func (lx *lexer) skipSpaceAndComments() error {
	for lx.pos < len(lx.src) {
		c := lx.src[lx.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			lx.advance(1)
		case c == '/' && lx.peekByte(1) == '/':
			for lx.pos < len(lx.src) && lx.src[lx.pos] != '\n' {
				lx.advance(1)
			}
		case c == '/' && lx.peekByte(1) == '*':
			end := strings.Index(lx.src[lx.pos+2:], "*/")
			if end < 0 {
				return lx.errorf("unterminated block comment")
			}
			lx.advance(end + 4)
		default:
			return nil
		}
	}
	return nil
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func (lx *lexer) next() (Token, error) {
	if err := lx.skipSpaceAndComments(); err != nil {
		return Token{}, err
	}
	line, col := lx.line, lx.col
	if lx.pos >= len(lx.src) {
		return Token{Kind: TokEOF, Line: line, Col: col}, nil
	}

	c := lx.src[lx.pos]
	switch {
	case isIdentStart(c):
		start := lx.pos
		for lx.pos < len(lx.src) && (isIdentStart(lx.src[lx.pos]) || isDigit(lx.src[lx.pos])) {
			lx.advance(1)
		}
		text := lx.src[start:lx.pos]
		kind := TokIdent
		if keywords[text] {
			kind = TokKeyword
		}
		return Token{Kind: kind, Text: text, Line: line, Col: col}, nil

	case isDigit(c) || (c == '.' && isDigit(lx.peekByte(1))):
		return lx.number(line, col)

	case c == '"' || c == '\'' || c == '`':
		return lx.str(c, line, col)
	}

	for _, p := range punctuators {
		if strings.HasPrefix(lx.src[lx.pos:], p) {
			lx.advance(len(p))
			return Token{Kind: TokPunct, Text: p, Line: line, Col: col}, nil
		}
	}
	return Token{}, lx.errorf("unexpected character %q", c)
}

func (lx *lexer) number(line, col int) (Token, error) {
	start := lx.pos
	if lx.src[lx.pos] == '0' && (lx.peekByte(1) == 'x' || lx.peekByte(1) == 'X') {
		lx.advance(2)
		for lx.pos < len(lx.src) && strings.IndexByte("0123456789abcdefABCDEF", lx.src[lx.pos]) >= 0 {
			lx.advance(1)
		}
		v, err := strconv.ParseUint(lx.src[start+2:lx.pos], 16, 64)
		if err != nil {
			return Token{}, lx.errorf("bad hex literal %q", lx.src[start:lx.pos])
		}
		text := lx.src[start:lx.pos]
		lx.skipNumberSuffix()
		return Token{Kind: TokNumber, Text: text, Num: float64(v), Line: line, Col: col}, nil
	}
	if lx.src[lx.pos] == '0' && (lx.peekByte(1) == 'b' || lx.peekByte(1) == 'B') {
		lx.advance(2)
		for lx.pos < len(lx.src) && (lx.src[lx.pos] == '0' || lx.src[lx.pos] == '1') {
			lx.advance(1)
		}
		v, err := strconv.ParseUint(lx.src[start+2:lx.pos], 2, 64)
		if err != nil {
			return Token{}, lx.errorf("bad binary literal %q", lx.src[start:lx.pos])
		}
		text := lx.src[start:lx.pos]
		lx.skipNumberSuffix()
		return Token{Kind: TokNumber, Text: text, Num: float64(v), Line: line, Col: col}, nil
	}

	for lx.pos < len(lx.src) && isDigit(lx.src[lx.pos]) {
		lx.advance(1)
	}
	if lx.peekByte(0) == '.' && isDigit(lx.peekByte(1)) {
		lx.advance(1)
		for lx.pos < len(lx.src) && isDigit(lx.src[lx.pos]) {
			lx.advance(1)
		}
	} else if lx.peekByte(0) == '.' && !isIdentStart(lx.peekByte(1)) {
		// "1." is a valid float literal
		lx.advance(1)
	}
	if e := lx.peekByte(0); e == 'e' || e == 'E' {
		off := 1
		if s := lx.peekByte(1); s == '+' || s == '-' {
			off = 2
		}
		if isDigit(lx.peekByte(off)) {
			lx.advance(off)
			for lx.pos < len(lx.src) && isDigit(lx.src[lx.pos]) {
				lx.advance(1)
			}
		}
	}
	text := lx.src[start:lx.pos]
	v, err := strconv.ParseFloat(strings.TrimSuffix(text, "."), 64)
	if err != nil {
		return Token{}, lx.errorf("bad number literal %q", text)
	}
	lx.skipNumberSuffix()
	return Token{Kind: TokNumber, Text: text, Num: v, Line: line, Col: col}, nil
}

// skipNumberSuffix tolerates C literal suffixes such as 1000UL or 2.5f.
func (lx *lexer) skipNumberSuffix() {
	for lx.pos < len(lx.src) && strings.IndexByte("uUlLfF", lx.src[lx.pos]) >= 0 {
		if isIdentStart(lx.peekByte(1)) && strings.IndexByte("uUlLfF", lx.peekByte(1)) < 0 {
			return
		}
		lx.advance(1)
	}
}

func (lx *lexer) str(quote byte, line, col int) (Token, error) {
	lx.advance(1)
	var b strings.Builder
	for {
		if lx.pos >= len(lx.src) {
			return Token{}, &SyntaxError{Line: line, Col: col, Msg: "unterminated string"}
		}
		c := lx.src[lx.pos]
		if c == quote {
			lx.advance(1)
			break
		}
		if c == '\n' && quote != '`' {
			return Token{}, &SyntaxError{Line: line, Col: col, Msg: "unterminated string"}
		}
		if c == '\\' && lx.pos+1 < len(lx.src) {
			esc := lx.src[lx.pos+1]
			lx.advance(2)
			switch esc {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '0':
				b.WriteByte(0)
			default:
				b.WriteByte(esc)
			}
			continue
		}
		b.WriteByte(c)
		lx.advance(1)
	}
	return Token{Kind: TokString, Text: string(quote), Str: b.String(), Line: line, Col: col}, nil
}
