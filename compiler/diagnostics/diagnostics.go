// Package diagnostics accumulates compiler diagnostics so a single
// invocation can report more than one error or warning, per spec.md §7's
// propagation policy. Grounded on the teacher's
// engine/renderer/shader/annotations.go validation-error collection
// pattern (collect-then-report instead of fail-fast).
package diagnostics

import "fmt"

// Severity classifies a Diagnostic.
type Severity int

const (
	// Warning is non-fatal; compilation continues and the PNGB is still
	// produced.
	Warning Severity = iota

	// Fatal aborts compilation; no PNGB is produced once any Fatal
	// diagnostic has been recorded.
	Fatal
)

// Diagnostic is one reported condition, carrying a stable code (e.g.
// "E001", "W009") matching spec.md §4.12 / §7's taxonomy.
type Diagnostic struct {
	Severity Severity
	Code     string
	Message  string

	// Offset is the byte offset in source (or opcode index, for runtime
	// diagnostics) the diagnostic refers to, or -1 if not applicable.
	Offset int
}

func (d Diagnostic) String() string {
	kind := "warning"
	if d.Severity == Fatal {
		kind = "error"
	}
	if d.Offset >= 0 {
		return fmt.Sprintf("[%s] %s at %d: %s", kind, d.Code, d.Offset, d.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", kind, d.Code, d.Message)
}

// Bag accumulates Diagnostics across a single compile invocation.
type Bag struct {
	items []Diagnostic
}

// NewBag creates an empty Bag.
func NewBag() *Bag {
	return &Bag{}
}

// Add records a diagnostic.
func (b *Bag) Add(d Diagnostic) {
	b.items = append(b.items, d)
}

// Fatalf records a Fatal diagnostic with a formatted message.
func (b *Bag) Fatalf(code string, offset int, format string, args ...any) {
	b.Add(Diagnostic{Severity: Fatal, Code: code, Offset: offset, Message: fmt.Sprintf(format, args...)})
}

// Warnf records a Warning diagnostic with a formatted message.
func (b *Bag) Warnf(code string, offset int, format string, args ...any) {
	b.Add(Diagnostic{Severity: Warning, Code: code, Offset: offset, Message: fmt.Sprintf(format, args...)})
}

// HasFatal reports whether any Fatal diagnostic has been recorded.
func (b *Bag) HasFatal() bool {
	for _, d := range b.items {
		if d.Severity == Fatal {
			return true
		}
	}
	return false
}

// All returns every recorded diagnostic in recording order.
func (b *Bag) All() []Diagnostic {
	return b.items
}

// Warnings returns only the Warning-severity diagnostics.
func (b *Bag) Warnings() []Diagnostic {
	var out []Diagnostic
	for _, d := range b.items {
		if d.Severity == Warning {
			out = append(out, d)
		}
	}
	return out
}

// Fatals returns only the Fatal-severity diagnostics.
func (b *Bag) Fatals() []Diagnostic {
	var out []Diagnostic
	for _, d := range b.items {
		if d.Severity == Fatal {
			out = append(out, d)
		}
	}
	return out
}
