package parser

import (
	"fmt"

	"github.com/Carmen-Shannon/pngine/compiler/ast"
)

// Error is the ParseError kind from spec.md §7: a syntax error with the
// source span at which parsing failed, what the parser expected, and what
// it actually found.
type Error struct {
	// Span covers the offending token.
	Span ast.Span

	// Expected describes what the grammar allowed at this position.
	Expected string

	// Found is the text of the token actually encountered.
	Found string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("parse error at %d: expected %s, found %q", e.Span.Start, e.Expected, e.Found)
}
