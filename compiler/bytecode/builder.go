package bytecode

import (
	"sort"

	"github.com/Carmen-Shannon/pngine/common"
)

// UniformField is one flattened field of a reflected uniform binding,
// already sorted and slot-assigned (spec.md §3.5's uniform table row).
// NameStringID must already be interned by the caller (the emitter),
// since Builder.AddData/InternString are the only places ids are minted.
type UniformField struct {
	Slot         uint16
	Path         string
	NameStringID uint16
	Offset       uint16
	Size         uint16
	Type         UniformType
}

// UniformBinding is one `@group @binding` uniform buffer entry.
type UniformBinding struct {
	BufferID     uint16
	NameStringID uint16
	Group        uint8
	Binding      uint8
	Fields       []UniformField
}

// Builder accumulates a PNGB payload's sections: string table, data
// section, opcode stream, and uniform table (spec.md §4.6). Exposes
// intern_string/add_data/emit_opcode as InternString/AddData/Emit; call
// Finalize once emission is complete to produce the full PNGB bytes.
type Builder struct {
	strings   []string
	stringIDs map[string]uint16

	data [][]byte

	code []byte

	uniforms []UniformBinding

	flags     uint16
	pluginSet uint32
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{stringIDs: map[string]uint16{}}
}

// InternString returns the id for s, interning it on first use.
// String interning is idempotent: interning the same text twice returns
// the same id (spec.md §8's law).
//
// Parameters:
//   - s: the string to intern
//
// Returns:
//   - uint16: the string table id
func (b *Builder) InternString(s string) uint16 {
	if id, ok := b.stringIDs[s]; ok {
		return id
	}
	id := uint16(len(b.strings))
	b.strings = append(b.strings, s)
	b.stringIDs[s] = id
	return id
}

// AddData appends a binary blob to the data section and returns its id.
// Unlike InternString, AddData never deduplicates: two equal-content blobs
// (e.g. two distinct vertex buffers that happen to hold the same bytes)
// are semantically different resources and must get distinct ids.
//
// Parameters:
//   - p: the blob's bytes
//
// Returns:
//   - uint32: the data section id
func (b *Builder) AddData(p []byte) uint32 {
	id := uint32(len(b.data))
	cp := make([]byte, len(p))
	copy(cp, p)
	b.data = append(b.data, cp)
	return id
}

// Emit appends one opcode record: the tag byte followed by operands
// encoded as unsigned LEB128 varints (spec.md §6.2). It also folds the
// opcode's family into the running plugin_set bitmask.
//
// Parameters:
//   - op: the opcode tag
//   - operands: operand values, varint-encoded in order
func (b *Builder) Emit(op Op, operands ...uint64) {
	b.code = append(b.code, byte(op))
	for _, v := range operands {
		b.code = common.AppendUvarint(b.code, v)
	}
	b.pluginSet |= uint32(FamilyOf(op))
}

// EmitRaw appends an opcode record whose trailing bytes are already
// encoded (used for the fixed-width IEEE-754 clear-color fields emitted
// by begin_render_pass, which are not varints).
func (b *Builder) EmitRaw(op Op, raw []byte) {
	b.code = append(b.code, byte(op))
	b.code = append(b.code, raw...)
	b.pluginSet |= uint32(FamilyOf(op))
}

// EmitEnd appends the terminal END opcode.
func (b *Builder) EmitEnd() {
	b.code = append(b.code, byte(OpEnd))
}

// SetUniforms installs the finished uniform table as given. Slots within
// each binding are expected to follow flattened-path order (spec.md §3.5);
// Finalize writes each binding's fields sorted by Path, whatever order
// they were passed in.
func (b *Builder) SetUniforms(bindings []UniformBinding) {
	b.uniforms = bindings
}

// SetFlag ORs bit into the header flags word.
func (b *Builder) SetFlag(bit uint16) {
	b.flags |= bit
}

// Finalize writes the complete PNGB payload: header, string table, data
// section, bytecode, and optional uniform table, in that order.
//
// Returns:
//   - []byte: the finished PNGB payload
func (b *Builder) Finalize() []byte {
	stringTbl := encodeStringTable(b.strings)
	dataSection := encodeDataSection(b.data)
	code := append([]byte{}, b.code...)
	if len(code) == 0 || code[len(code)-1] != byte(OpEnd) {
		code = append(code, byte(OpEnd))
	}
	uniformTbl := encodeUniformTable(b.uniforms)

	const headerSize = 4 + 2 + 2 + 4 + 4 + 4 + 4 + 4
	stringOff := uint32(headerSize)
	dataOff := stringOff + uint32(len(stringTbl))
	codeOff := dataOff + uint32(len(dataSection))
	uniformOff := uint32(0)
	if len(b.uniforms) > 0 {
		uniformOff = codeOff + uint32(len(code))
	}

	out := make([]byte, 0, headerSize+len(stringTbl)+len(dataSection)+len(code)+len(uniformTbl))
	out = append(out, Magic...)
	verBuf := make([]byte, 2)
	common.PutUint16(verBuf, 0, Version)
	out = append(out, verBuf...)
	flagBuf := make([]byte, 2)
	common.PutUint16(flagBuf, 0, b.flags)
	out = append(out, flagBuf...)

	u32 := func(v uint32) []byte {
		buf := make([]byte, 4)
		common.PutUint32(buf, 0, v)
		return buf
	}
	out = append(out, u32(b.pluginSet)...)
	out = append(out, u32(stringOff)...)
	out = append(out, u32(dataOff)...)
	out = append(out, u32(codeOff)...)
	out = append(out, u32(uniformOff)...)

	out = append(out, stringTbl...)
	out = append(out, dataSection...)
	out = append(out, code...)
	out = append(out, uniformTbl...)
	return out
}

func encodeStringTable(strs []string) []byte {
	out := make([]byte, 4)
	common.PutUint32(out, 0, uint32(len(strs)))
	for _, s := range strs {
		lenBuf := make([]byte, 2)
		common.PutUint16(lenBuf, 0, uint16(len(s)))
		out = append(out, lenBuf...)
		out = append(out, s...)
	}
	return out
}

func encodeDataSection(blobs [][]byte) []byte {
	out := make([]byte, 4)
	common.PutUint32(out, 0, uint32(len(blobs)))
	for _, blob := range blobs {
		lenBuf := make([]byte, 4)
		common.PutUint32(lenBuf, 0, uint32(len(blob)))
		out = append(out, lenBuf...)
		out = append(out, blob...)
	}
	return out
}

func encodeUniformTable(bindings []UniformBinding) []byte {
	if len(bindings) == 0 {
		return nil
	}
	out := make([]byte, 2)
	common.PutUint16(out, 0, uint16(len(bindings)))
	for _, b := range bindings {
		fields := append([]UniformField(nil), b.Fields...)
		sort.Slice(fields, func(i, j int) bool { return fields[i].Path < fields[j].Path })

		row := make([]byte, 8)
		common.PutUint16(row, 0, b.BufferID)
		common.PutUint16(row, 2, b.NameStringID)
		row[4] = b.Group
		row[5] = b.Binding
		common.PutUint16(row, 6, uint16(len(fields)))
		out = append(out, row...)

		for _, f := range fields {
			// slot:u16, name_string_id:u16, offset:u16, size:u16, type:u8, pad:u8
			frow := make([]byte, 10)
			common.PutUint16(frow, 0, f.Slot)
			common.PutUint16(frow, 2, f.NameStringID)
			common.PutUint16(frow, 4, f.Offset)
			common.PutUint16(frow, 6, f.Size)
			frow[8] = byte(f.Type)
			frow[9] = 0
			out = append(out, frow...)
		}
	}
	return out
}
