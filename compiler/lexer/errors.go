package lexer

import "fmt"

// Error is the LexError kind from spec.md §7: a fatal-to-compile error
// carrying the byte offset at which scanning failed and a human-readable
// reason. Error carries only the byte offset; nothing in the compiler
// converts it to a line or column.
type Error struct {
	// Offset is the byte offset in the source at which the lexer failed.
	Offset int

	// Reason describes what went wrong (unterminated string, invalid
	// escape, unrecognized character, …).
	Reason string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("lex error at offset %d: %s", e.Offset, e.Reason)
}
