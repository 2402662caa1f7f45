// Package ast defines the flat AST arena produced by the parser
// (spec.md §4.2). Nodes are stored by index in a single slice rather than
// as a pointer tree, mirroring the dense side-table idiom used throughout
// the compiler for cache-friendly single-pass traversal.
package ast

import "github.com/Carmen-Shannon/pngine/compiler/token"

// NodeKind identifies the syntactic role of a Node.
type NodeKind int

const (
	// Invalid marks a zero-value Node; never produced by a correctly
	// functioning parser.
	Invalid NodeKind = iota

	// File is the root node of a parsed source file. Its children are
	// Macro and Define nodes in source order.
	File

	// Macro is a top-level declaration: a keyword, a name, and a body of
	// Property children (e.g. "#buffer myBuf { ... }").
	Macro

	// Define is a "#define NAME value" constant declaration.
	Define

	// Property is a single "key = value" pair inside a macro body. If the
	// value is itself a nested object, its Property children follow.
	Property

	// Array is a "[ v1, v2, ... ]" value; its children are the element
	// nodes (Scalar, Reference, or nested Array/Object nodes).
	Array

	// Object is an inline "{ ... }" value nested inside a Property; its
	// children are Property nodes.
	Object

	// Scalar is a leaf literal value: identifier, int, float, or string.
	Scalar

	// Ref is a leaf "@name" reference value.
	Ref
)

// Node is one entry in a flat arena. Children of a Node are found by
// walking FirstChild and then NextSibling from each child, rather than
// storing a slice of child indices.
type Node struct {
	// Kind identifies the node's syntactic role.
	Kind NodeKind

	// Tok is the primary token associated with this node: the keyword for
	// Macro, the name for Define, the key for Property, the literal token
	// for Scalar/Ref. Punctuation-only nodes (File, Array, Object) carry a
	// zero Tok.
	Tok token.Token

	// Name is the declared or referenced identifier text, when Kind is
	// Macro, Define, Property, or Ref. Empty otherwise.
	Name string

	// FirstChild is the arena index of this node's first child, or -1 if
	// it has none.
	FirstChild int

	// NextSibling is the arena index of this node's next sibling, or -1 if
	// it is the last child of its parent.
	NextSibling int

	// Span covers the node's full source range, from its first token's
	// offset to the end of its last descendant.
	Span Span
}

// Span is a half-open byte range [Start, End) in the source text.
type Span struct {
	Start int
	End   int
}

// Tree is a flat arena of Nodes plus the root index.
type Tree struct {
	Nodes []Node
	Root  int
}

// NewTree creates an empty Tree ready to receive nodes via Add.
func NewTree() *Tree {
	return &Tree{Root: -1}
}

// Add appends n to the arena and returns its index.
//
// Parameters:
//   - n: the node to append; its FirstChild/NextSibling are set by the
//     caller (typically -1 at append time, wired up as children arrive)
//
// Returns:
//   - int: the arena index assigned to n
func (t *Tree) Add(n Node) int {
	if n.FirstChild == 0 {
		n.FirstChild = -1
	}
	t.Nodes = append(t.Nodes, n)
	return len(t.Nodes) - 1
}

// Children returns the arena indices of idx's children in source order.
//
// Parameters:
//   - idx: the arena index of the parent node
//
// Returns:
//   - []int: child indices, empty if idx has no children
func (t *Tree) Children(idx int) []int {
	if idx < 0 || idx >= len(t.Nodes) {
		return nil
	}
	var out []int
	for c := t.Nodes[idx].FirstChild; c != -1; c = t.Nodes[c].NextSibling {
		out = append(out, c)
	}
	return out
}

// AppendChild links child as the new last child of parent.
//
// Parameters:
//   - parent: arena index of the parent node
//   - child: arena index of the node to attach
func (t *Tree) AppendChild(parent, child int) {
	if t.Nodes[parent].FirstChild == -1 {
		t.Nodes[parent].FirstChild = child
		return
	}
	last := t.Nodes[parent].FirstChild
	for t.Nodes[last].NextSibling != -1 {
		last = t.Nodes[last].NextSibling
	}
	t.Nodes[last].NextSibling = child
}

// Get returns the node at idx.
func (t *Tree) Get(idx int) Node {
	return t.Nodes[idx]
}
