package analyzer

import "fmt"

// Error is the ResolveError kind from spec.md §7: fatal, reported with
// the referring name and the target kind it could not resolve against.
type Error struct {
	// ReferringName is the declaration or reference that triggered the
	// failure.
	ReferringName string

	// TargetKind is the kind the name was expected to resolve against.
	TargetKind Kind

	// Reason describes the specific failure (duplicate name, unresolved
	// reference, unknown enum value, forward reference, …).
	Reason string

	// Offset is the source byte offset of the offending node.
	Offset int
}

func (e *Error) Error() string {
	return fmt.Sprintf("resolve error at %d: %q (expected %s): %s", e.Offset, e.ReferringName, e.TargetKind, e.Reason)
}
