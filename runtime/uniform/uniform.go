// Package uniform builds the uniform-by-name lookup table spec.md §4.11
// describes: a flattened `path → {buffer_id, offset, size, type}` map over
// a loaded payload's uniform table, supporting both leaf-field writes and
// whole-struct writes to a contiguous subtree.
//
// Grounded on the teacher's engine/renderer/pipeline/pipeline_builder.go
// id-indexed table idiom, generalized here from "GPU pipeline handle by id"
// to "uniform field by dotted path."
package uniform

import (
	"sort"
	"strings"

	"github.com/Carmen-Shannon/pngine/compiler/bytecode"
	"github.com/Carmen-Shannon/pngine/runtime/backend"
)

// Entry is one resolved uniform write target: which buffer, at what byte
// offset, how many bytes, and (for a single leaf field) its declared type.
// A whole-struct lookup synthesizes an Entry spanning several leaves and
// leaves Type at its zero value, since no single field type describes it.
type Entry struct {
	BufferID backend.Handle
	Offset   uint32
	Size     uint32
	Type     bytecode.UniformType
}

type leaf struct {
	path  string
	entry Entry
}

// Table is the built `path → Entry` index for one loaded payload.
type Table struct {
	byPath map[string]Entry
	leaves []leaf // sorted by (BufferID, Offset), for contiguous-subtree checks
}

// Build flattens a payload's uniform table into a Table. strings must be
// the same payload's interned string table, since UniformField.
// NameStringID and UniformBinding.NameStringID are ids into it.
//
// Parameters:
//   - strings: the payload's interned string table
//   - bindings: the payload's decoded uniform bindings
//
// Returns:
//   - *Table: ready for Lookup and Names
func Build(strs []string, bindings []bytecode.UniformBinding) *Table {
	t := &Table{byPath: map[string]Entry{}}
	for _, b := range bindings {
		for _, f := range b.Fields {
			path := stringAt(strs, f.NameStringID)
			if path == "" {
				continue
			}
			e := Entry{
				BufferID: backend.Handle(b.BufferID),
				Offset:   uint32(f.Offset),
				Size:     uint32(f.Size),
				Type:     f.Type,
			}
			t.byPath[path] = e
			t.leaves = append(t.leaves, leaf{path: path, entry: e})
		}
	}
	sort.Slice(t.leaves, func(i, j int) bool {
		if t.leaves[i].entry.BufferID != t.leaves[j].entry.BufferID {
			return t.leaves[i].entry.BufferID < t.leaves[j].entry.BufferID
		}
		return t.leaves[i].entry.Offset < t.leaves[j].entry.Offset
	})
	return t
}

func stringAt(strs []string, id uint16) string {
	if int(id) >= len(strs) {
		return ""
	}
	return strs[id]
}

// Lookup resolves path to a write target. An exact leaf-field path returns
// that field's entry directly; a path naming an intermediate struct node
// returns a synthetic Entry spanning its subtree, provided that subtree's
// fields are laid out contiguously with no gap (spec.md §4.11: "whole-
// struct writes are allowed if the given path denotes an intermediate node
// whose subtree is contiguous").
//
// Parameters:
//   - path: a dot-notation flattened uniform path
//
// Returns:
//   - Entry: the resolved write target
//   - error: non-nil (*PathError) if path names nothing or an
//     intermediate node whose subtree is not contiguous
func (t *Table) Lookup(path string) (Entry, error) {
	if e, ok := t.byPath[path]; ok {
		return e, nil
	}
	return t.lookupSubtree(path)
}

func (t *Table) lookupSubtree(path string) (Entry, error) {
	prefix := path + "."
	var matched []leaf
	for _, l := range t.leaves {
		if strings.HasPrefix(l.path, prefix) {
			matched = append(matched, l)
		}
	}
	if len(matched) == 0 {
		return Entry{}, &PathError{Path: path, Reason: "no uniform field at this path"}
	}

	bufID := matched[0].entry.BufferID
	start := matched[0].entry.Offset
	cursor := start
	for _, l := range matched {
		if l.entry.BufferID != bufID || l.entry.Offset != cursor {
			return Entry{}, &PathError{Path: path, Reason: "subtree is not laid out contiguously"}
		}
		cursor += l.entry.Size
	}
	return Entry{BufferID: bufID, Offset: start, Size: cursor - start}, nil
}

// Names returns every leaf field's flattened path, sorted lexicographically —
// the host-facing `uniforms` introspection call (spec.md §6.4).
func (t *Table) Names() []string {
	out := make([]string, 0, len(t.byPath))
	for path := range t.byPath {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}

// PathError reports a uniform path Lookup could not resolve.
type PathError struct {
	Path   string
	Reason string
}

func (e *PathError) Error() string {
	return "uniform: " + e.Path + ": " + e.Reason
}

// SizeMismatchError reports a set_uniform call whose payload length does
// not match the resolved entry's declared size.
type SizeMismatchError struct {
	Path string
	Want int
	Got  int
}

func (e *SizeMismatchError) Error() string {
	return "uniform: " + e.Path + ": size mismatch"
}
