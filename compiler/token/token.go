// Package token defines the lexical token kinds produced by the PNGine
// DSL lexer (spec.md §4.1).
package token

import "fmt"

// Kind identifies the lexical category of a Token.
type Kind int

const (
	// Invalid marks a zero-value Token; never produced by a correctly
	// functioning Lexer.
	Invalid Kind = iota

	// Keyword is a macro declaration keyword, e.g. "#wgsl", "#buffer".
	// The exact keyword text is recovered from the source span; Kind alone
	// does not distinguish which keyword matched.
	Keyword

	// Ident is a bare identifier: a declaration name, property key, or
	// scalar identifier value (e.g. an enum literal like `front`).
	Ident

	// Int is an integer literal.
	Int

	// Float is a floating point literal.
	Float

	// String is a quoted string literal with escapes already resolved.
	String

	// RawString is a triple-quoted string: raw WGSL or similar source text
	// with newlines preserved and no escape processing.
	RawString

	// Reference is a leaf value that names another declaration, introduced
	// by the "@" sigil (e.g. "@myBuffer").
	Reference

	// Define is the "#define" marker token.
	Define

	// LBrace, RBrace, LBracket, RBracket, Equals, Comma, Dot are the fixed
	// punctuation set.
	LBrace
	RBrace
	LBracket
	RBracket
	Equals
	Comma
	Dot

	// EOF marks the end of the token stream.
	EOF
)

// macroKeywords is the fixed set of macro declaration keywords recognized
// by the lexer, per spec.md §3.1.
var macroKeywords = map[string]bool{
	"#wgsl":             true,
	"#buffer":           true,
	"#texture":          true,
	"#sampler":          true,
	"#bindGroupLayout":  true,
	"#pipelineLayout":   true,
	"#renderPipeline":   true,
	"#computePipeline":  true,
	"#bindGroup":        true,
	"#textureView":      true,
	"#querySet":         true,
	"#renderPass":       true,
	"#computePass":      true,
	"#queue":            true,
	"#init":             true,
	"#frame":            true,
	"#data":             true,
	"#define":           true,
}

// IsMacroKeyword reports whether text is one of the fixed macro declaration
// keywords recognized by the DSL.
//
// Parameters:
//   - text: the candidate keyword text, including its leading "#"
//
// Returns:
//   - bool: true if text is a recognized macro keyword
func IsMacroKeyword(text string) bool {
	return macroKeywords[text]
}

// Token is a single lexical unit with its source span.
type Token struct {
	// Kind identifies the token's lexical category.
	Kind Kind

	// Text is the token's literal source text (for Keyword, Ident,
	// Reference: the raw identifier/keyword text; for String/RawString:
	// the decoded content; for Int/Float: the numeral text as written).
	Text string

	// Offset is the byte offset of the token's first byte in the source.
	Offset int

	// Length is the token's byte length in the source.
	Length int
}

// String renders a Token for diagnostic output.
//
// Returns:
//   - string: a human-readable representation, e.g. `Ident("time") @12`
func (t Token) String() string {
	return fmt.Sprintf("%s(%q) @%d", t.Kind, t.Text, t.Offset)
}

// String renders a Kind's name for diagnostic output.
func (k Kind) String() string {
	switch k {
	case Invalid:
		return "Invalid"
	case Keyword:
		return "Keyword"
	case Ident:
		return "Ident"
	case Int:
		return "Int"
	case Float:
		return "Float"
	case String:
		return "String"
	case RawString:
		return "RawString"
	case Reference:
		return "Reference"
	case Define:
		return "Define"
	case LBrace:
		return "LBrace"
	case RBrace:
		return "RBrace"
	case LBracket:
		return "LBracket"
	case RBracket:
		return "RBracket"
	case Equals:
		return "Equals"
	case Comma:
		return "Comma"
	case Dot:
		return "Dot"
	case EOF:
		return "EOF"
	default:
		return "Unknown"
	}
}
