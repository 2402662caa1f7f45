// Package lexer tokenizes PNGine DSL source into a flat token stream
// (spec.md §4.1). It is single-pass, allocation-light, and strictly
// synchronous — there is no suspension point anywhere in the compiler
// (spec.md §5).
package lexer

import (
	"strings"

	"github.com/Carmen-Shannon/pngine/compiler/token"
)

// Lexer tokenizes DSL source text into token.Token values on demand.
// A Lexer is single-use: construct one per source file with New.
type Lexer interface {
	// Next returns the next token in the stream, or a token.EOF token once
	// the source is exhausted. Returns an *Error if the source cannot be
	// tokenized further.
	Next() (token.Token, error)

	// All tokenizes the entire remaining source and returns every token up
	// to and including the terminal EOF token. Returns the first error
	// encountered, if any, with the tokens collected before it.
	All() ([]token.Token, error)
}

var _ Lexer = &lexer{}

// lexer is the implementation of Lexer.
type lexer struct {
	src []byte
	pos int
}

// New creates a Lexer over the given DSL source text.
//
// Parameters:
//   - src: the raw DSL source text
//
// Returns:
//   - Lexer: a ready-to-use lexer positioned at the start of src
func New(src string) Lexer {
	return &lexer{src: []byte(src)}
}

func (l *lexer) All() ([]token.Token, error) {
	var out []token.Token
	for {
		tok, err := l.Next()
		if err != nil {
			return out, err
		}
		out = append(out, tok)
		if tok.Kind == token.EOF {
			return out, nil
		}
	}
}

func (l *lexer) Next() (token.Token, error) {
	l.skipTrivia()

	if l.pos >= len(l.src) {
		return token.Token{Kind: token.EOF, Offset: l.pos}, nil
	}

	start := l.pos
	c := l.src[l.pos]

	switch {
	case c == '{':
		l.pos++
		return l.simple(token.LBrace, start), nil
	case c == '}':
		l.pos++
		return l.simple(token.RBrace, start), nil
	case c == '[':
		l.pos++
		return l.simple(token.LBracket, start), nil
	case c == ']':
		l.pos++
		return l.simple(token.RBracket, start), nil
	case c == '=':
		l.pos++
		return l.simple(token.Equals, start), nil
	case c == ',':
		l.pos++
		return l.simple(token.Comma, start), nil
	case c == '.':
		// A leading dot that starts a numeral (".5") is handled by the
		// numeral scanner; otherwise a lone dot is the path separator used
		// in dotted property keys (spec.md §4.2).
		if l.pos+1 < len(l.src) && isDigit(l.src[l.pos+1]) {
			return l.scanNumber(start)
		}
		l.pos++
		return l.simple(token.Dot, start), nil
	case c == '@':
		return l.scanReference(start)
	case c == '"':
		return l.scanString(start)
	case c == '#':
		return l.scanMacroOrDefine(start)
	case isDigit(c) || (c == '-' && l.pos+1 < len(l.src) && isDigit(l.src[l.pos+1])):
		return l.scanNumber(start)
	case isIdentStart(c):
		return l.scanIdent(start)
	default:
		return token.Token{}, &Error{Offset: start, Reason: "unrecognized character " + string(c)}
	}
}

func (l *lexer) simple(kind token.Kind, start int) token.Token {
	return token.Token{Kind: kind, Text: string(l.src[start:l.pos]), Offset: start, Length: l.pos - start}
}

// skipTrivia advances past whitespace and "//" line comments. Comments are
// not part of spec.md's token set but are a harmless extension: they never
// appear inside a raw triple-quoted string because scanRawString consumes
// its body verbatim before trivia-skipping runs again.
func (l *lexer) skipTrivia() {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			l.pos++
		case c == '/' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '/':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		default:
			return
		}
	}
}

func (l *lexer) scanMacroOrDefine(start int) (token.Token, error) {
	l.pos++ // consume '#'
	for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
		l.pos++
	}
	text := string(l.src[start:l.pos])
	if text == "#define" {
		return token.Token{Kind: token.Define, Text: text, Offset: start, Length: l.pos - start}, nil
	}
	if !token.IsMacroKeyword(text) {
		return token.Token{}, &Error{Offset: start, Reason: "unrecognized macro keyword " + text}
	}
	return token.Token{Kind: token.Keyword, Text: text, Offset: start, Length: l.pos - start}, nil
}

func (l *lexer) scanReference(start int) (token.Token, error) {
	l.pos++ // consume '@'
	identStart := l.pos
	for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
		l.pos++
	}
	if l.pos == identStart {
		return token.Token{}, &Error{Offset: start, Reason: "expected identifier after '@'"}
	}
	return token.Token{Kind: token.Reference, Text: string(l.src[identStart:l.pos]), Offset: start, Length: l.pos - start}, nil
}

func (l *lexer) scanIdent(start int) (token.Token, error) {
	for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
		l.pos++
	}
	return token.Token{Kind: token.Ident, Text: string(l.src[start:l.pos]), Offset: start, Length: l.pos - start}, nil
}

func (l *lexer) scanNumber(start int) (token.Token, error) {
	isFloat := false
	if l.src[l.pos] == '-' {
		l.pos++
	}
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.pos++
	}
	if l.pos < len(l.src) && l.src[l.pos] == '.' {
		isFloat = true
		l.pos++
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.pos++
		}
	}
	if l.pos < len(l.src) && (l.src[l.pos] == 'e' || l.src[l.pos] == 'E') {
		isFloat = true
		l.pos++
		if l.pos < len(l.src) && (l.src[l.pos] == '+' || l.src[l.pos] == '-') {
			l.pos++
		}
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.pos++
		}
	}
	kind := token.Int
	if isFloat {
		kind = token.Float
	}
	return token.Token{Kind: kind, Text: string(l.src[start:l.pos]), Offset: start, Length: l.pos - start}, nil
}

// scanString scans either a triple-quoted raw string (`"""…"""`) or a
// normal quoted string with backslash escapes, depending on what follows
// the opening quote.
func (l *lexer) scanString(start int) (token.Token, error) {
	if l.pos+2 < len(l.src) && l.src[l.pos+1] == '"' && l.src[l.pos+2] == '"' {
		return l.scanRawString(start)
	}
	l.pos++ // consume opening quote

	var sb strings.Builder
	for {
		if l.pos >= len(l.src) {
			return token.Token{}, &Error{Offset: start, Reason: "unterminated string literal"}
		}
		c := l.src[l.pos]
		if c == '"' {
			l.pos++
			break
		}
		if c == '\n' {
			return token.Token{}, &Error{Offset: start, Reason: "unterminated string literal"}
		}
		if c == '\\' {
			l.pos++
			if l.pos >= len(l.src) {
				return token.Token{}, &Error{Offset: start, Reason: "unterminated escape sequence"}
			}
			esc, err := decodeEscape(l.src[l.pos])
			if err != nil {
				return token.Token{}, &Error{Offset: l.pos, Reason: err.Error()}
			}
			sb.WriteByte(esc)
			l.pos++
			continue
		}
		sb.WriteByte(c)
		l.pos++
	}
	return token.Token{Kind: token.String, Text: sb.String(), Offset: start, Length: l.pos - start}, nil
}

// scanRawString scans a triple-quoted string: raw content with newlines
// preserved and no escape processing, terminated by the next `"""`. Used
// for embedded WGSL source (spec.md §4.1).
func (l *lexer) scanRawString(start int) (token.Token, error) {
	l.pos += 3 // consume opening """
	bodyStart := l.pos
	for {
		if l.pos+2 >= len(l.src) {
			return token.Token{}, &Error{Offset: start, Reason: "unterminated triple-quoted string"}
		}
		if l.src[l.pos] == '"' && l.src[l.pos+1] == '"' && l.src[l.pos+2] == '"' {
			body := string(l.src[bodyStart:l.pos])
			l.pos += 3
			return token.Token{Kind: token.RawString, Text: body, Offset: start, Length: l.pos - start}, nil
		}
		l.pos++
	}
}

func decodeEscape(c byte) (byte, error) {
	switch c {
	case 'n':
		return '\n', nil
	case 't':
		return '\t', nil
	case 'r':
		return '\r', nil
	case '"':
		return '"', nil
	case '\\':
		return '\\', nil
	case '0':
		return 0, nil
	default:
		return 0, errUnknownEscape(c)
	}
}

func errUnknownEscape(c byte) error {
	return &Error{Reason: "invalid escape sequence '\\" + string(c) + "'"}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}
