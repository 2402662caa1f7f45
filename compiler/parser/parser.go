// Package parser turns a token.Token stream into a flat ast.Tree
// (spec.md §4.2). It is a small recursive-descent parser: the DSL grammar
// has no operator precedence or expression nesting beyond arrays/objects,
// so a single lookahead token is always enough to decide what production
// applies.
package parser

import (
	"strconv"

	"github.com/Carmen-Shannon/pngine/compiler/ast"
	"github.com/Carmen-Shannon/pngine/compiler/token"
)

// Parser builds an ast.Tree from a token stream.
type Parser interface {
	// Parse consumes the entire token stream and returns the resulting
	// tree, or the first *Error encountered.
	Parse() (*ast.Tree, error)
}

var _ Parser = &parser{}

type parser struct {
	toks []token.Token
	pos  int
	tree *ast.Tree
}

// New creates a Parser over a fully-tokenized source.
//
// Parameters:
//   - toks: the complete token stream, including the terminal EOF token
//
// Returns:
//   - Parser: a ready-to-use parser
func New(toks []token.Token) Parser {
	return &parser{toks: toks, tree: ast.NewTree()}
}

func (p *parser) cur() token.Token {
	return p.toks[p.pos]
}

func (p *parser) advance() token.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) expect(k token.Kind, what string) (token.Token, error) {
	if p.cur().Kind != k {
		return token.Token{}, &Error{Span: span(p.cur()), Expected: what, Found: p.cur().Text}
	}
	return p.advance(), nil
}

func span(t token.Token) ast.Span {
	return ast.Span{Start: t.Offset, End: t.Offset + t.Length}
}

func (p *parser) Parse() (*ast.Tree, error) {
	fileStart := p.cur()
	root := p.tree.Add(ast.Node{Kind: ast.File, FirstChild: -1, NextSibling: -1, Span: span(fileStart)})
	p.tree.Root = root

	for p.cur().Kind != token.EOF {
		var child int
		var err error
		switch p.cur().Kind {
		case token.Define:
			child, err = p.parseDefine()
		case token.Keyword:
			child, err = p.parseMacro()
		default:
			return nil, &Error{Span: span(p.cur()), Expected: "macro keyword or #define", Found: p.cur().Text}
		}
		if err != nil {
			return nil, err
		}
		p.tree.AppendChild(root, child)
	}
	return p.tree, nil
}

// parseDefine parses "#define NAME value".
func (p *parser) parseDefine() (int, error) {
	kw := p.advance() // #define
	name, err := p.expect(token.Ident, "identifier after #define")
	if err != nil {
		return 0, err
	}
	valueIdx, err := p.parseValue()
	if err != nil {
		return 0, err
	}
	idx := p.tree.Add(ast.Node{
		Kind:        ast.Define,
		Tok:         kw,
		Name:        name.Text,
		FirstChild:  -1,
		NextSibling: -1,
		Span:        ast.Span{Start: kw.Offset, End: p.tree.Get(valueIdx).Span.End},
	})
	p.tree.AppendChild(idx, valueIdx)
	return idx, nil
}

// parseMacro parses "keyword name { property* }".
func (p *parser) parseMacro() (int, error) {
	kw := p.advance()
	name, err := p.expect(token.Ident, "macro declaration name")
	if err != nil {
		return 0, err
	}
	idx := p.tree.Add(ast.Node{Kind: ast.Macro, Tok: kw, Name: name.Text, FirstChild: -1, NextSibling: -1})

	if _, err := p.expect(token.LBrace, "'{' to open macro body"); err != nil {
		return 0, err
	}
	for p.cur().Kind != token.RBrace {
		if p.cur().Kind == token.EOF {
			return 0, &Error{Span: span(p.cur()), Expected: "'}' to close macro body", Found: "EOF"}
		}
		prop, err := p.parseProperty()
		if err != nil {
			return 0, err
		}
		p.tree.AppendChild(idx, prop)
	}
	end := p.advance() // '}'

	n := p.tree.Get(idx)
	n.Span = ast.Span{Start: kw.Offset, End: end.Offset + end.Length}
	p.tree.Nodes[idx] = n
	return idx, nil
}

// parseProperty parses "key = value".
func (p *parser) parseProperty() (int, error) {
	key, err := p.expect(token.Ident, "property key")
	if err != nil {
		return 0, err
	}
	if _, err := p.expect(token.Equals, "'=' after property key"); err != nil {
		return 0, err
	}
	valueIdx, err := p.parseValue()
	if err != nil {
		return 0, err
	}
	idx := p.tree.Add(ast.Node{
		Kind:        ast.Property,
		Tok:         key,
		Name:        key.Text,
		FirstChild:  -1,
		NextSibling: -1,
		Span:        ast.Span{Start: key.Offset, End: p.tree.Get(valueIdx).Span.End},
	})
	p.tree.AppendChild(idx, valueIdx)
	return idx, nil
}

// parseValue parses a scalar literal, reference, array, or nested object.
func (p *parser) parseValue() (int, error) {
	switch p.cur().Kind {
	case token.Ident:
		return p.parseDottedScalar()
	case token.Int, token.Float, token.String, token.RawString:
		tok := p.advance()
		return p.tree.Add(ast.Node{Kind: ast.Scalar, Tok: tok, Name: tok.Text, FirstChild: -1, NextSibling: -1, Span: span(tok)}), nil
	case token.Reference:
		tok := p.advance()
		return p.tree.Add(ast.Node{Kind: ast.Ref, Tok: tok, Name: tok.Text, FirstChild: -1, NextSibling: -1, Span: span(tok)}), nil
	case token.LBracket:
		return p.parseArray()
	case token.LBrace:
		return p.parseObject()
	default:
		return 0, &Error{Span: span(p.cur()), Expected: "value (identifier, number, string, reference, array, or object)", Found: p.cur().Text}
	}
}

// parseDottedScalar parses a value-position identifier, absorbing any
// trailing ".ident" segments into one combined name — the
// "size = shader.u" reflected-size expression form spec.md §4.3
// describes, where "shader" is a shader declaration name and "u" names
// one of its reflected bindings.
func (p *parser) parseDottedScalar() (int, error) {
	first := p.advance()
	text := first.Text
	end := first.Offset + first.Length
	for p.cur().Kind == token.Dot {
		p.advance()
		part, err := p.expect(token.Ident, "identifier after '.'")
		if err != nil {
			return 0, err
		}
		text += "." + part.Text
		end = part.Offset + part.Length
	}
	tok := token.Token{Kind: token.Ident, Text: text, Offset: first.Offset, Length: end - first.Offset}
	return p.tree.Add(ast.Node{Kind: ast.Scalar, Tok: tok, Name: text, FirstChild: -1, NextSibling: -1, Span: span(tok)}), nil
}

func (p *parser) parseArray() (int, error) {
	open := p.advance() // '['
	idx := p.tree.Add(ast.Node{Kind: ast.Array, Tok: open, FirstChild: -1, NextSibling: -1})
	for p.cur().Kind != token.RBracket {
		if p.cur().Kind == token.EOF {
			return 0, &Error{Span: span(p.cur()), Expected: "']' to close array", Found: "EOF"}
		}
		elem, err := p.parseValue()
		if err != nil {
			return 0, err
		}
		p.tree.AppendChild(idx, elem)
		if p.cur().Kind == token.Comma {
			p.advance()
		}
	}
	close := p.advance() // ']'
	n := p.tree.Get(idx)
	n.Span = ast.Span{Start: open.Offset, End: close.Offset + close.Length}
	p.tree.Nodes[idx] = n
	return idx, nil
}

func (p *parser) parseObject() (int, error) {
	open := p.advance() // '{'
	idx := p.tree.Add(ast.Node{Kind: ast.Object, Tok: open, FirstChild: -1, NextSibling: -1})
	for p.cur().Kind != token.RBrace {
		if p.cur().Kind == token.EOF {
			return 0, &Error{Span: span(p.cur()), Expected: "'}' to close object", Found: "EOF"}
		}
		prop, err := p.parseProperty()
		if err != nil {
			return 0, err
		}
		p.tree.AppendChild(idx, prop)
		if p.cur().Kind == token.Comma {
			p.advance()
		}
	}
	close := p.advance() // '}'
	n := p.tree.Get(idx)
	n.Span = ast.Span{Start: open.Offset, End: close.Offset + close.Length}
	p.tree.Nodes[idx] = n
	return idx, nil
}

// ParseInt parses a Scalar node's Int token text into an int64.
//
// Parameters:
//   - n: a Scalar node whose Tok.Kind is token.Int
//
// Returns:
//   - int64: the parsed value
//   - error: non-nil if the text is not a valid integer
func ParseInt(n ast.Node) (int64, error) {
	return strconv.ParseInt(n.Tok.Text, 10, 64)
}

// ParseFloat parses a Scalar node's Float or Int token text into a float64.
//
// Parameters:
//   - n: a Scalar node whose Tok.Kind is token.Float or token.Int
//
// Returns:
//   - float64: the parsed value
//   - error: non-nil if the text is not a valid number
func ParseFloat(n ast.Node) (float64, error) {
	return strconv.ParseFloat(n.Tok.Text, 64)
}
