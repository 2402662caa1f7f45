// Package backend declares the abstract WebGPU-shaped device the dispatcher
// drives (spec.md §4.10). Backend is deliberately value-oriented rather than
// handle-oriented: every creation method takes the dense id the compiler
// assigned a declaration (bytecode's resource ids) plus either fixed scalar
// operands or a raw descriptor-field blob, and the implementation owns
// mapping that id to whatever real (or recorded) resource it produces.
//
// Grounded on the teacher's engine/renderer/renderer_backend.go split
// between a small exported interface and a device-holding implementation
// struct; Mock and Native are this package's two implementations, with
// Native in wgpuRendererBackendImpl's role specifically.
package backend

import (
	"github.com/Carmen-Shannon/pngine/common"
	"github.com/Carmen-Shannon/pngine/compiler/descriptor"
)

// Handle is a dense resource id, assigned by the compiler and carried
// verbatim through the opcode stream (spec.md §4.9.1).
type Handle = uint32

// Backend is the full set of operations a PNGB program's opcode stream can
// invoke, grouped the way spec.md §4.9.1 groups the opcodes that drive them:
// resource creation, resource update, render pass, compute pass, control.
type Backend interface {
	// Resource creation

	CreateBuffer(id Handle, size uint64, usage uint32) error
	CreateTexture(id Handle, desc []byte) error
	CreateSampler(id Handle, desc []byte) error
	CreateShader(id Handle, wgslSource string) error
	CreateBindGroupLayout(id Handle, desc []byte) error
	CreatePipelineLayout(id Handle, desc []byte) error
	CreateRenderPipeline(id Handle, desc []byte) error
	CreateComputePipeline(id Handle, desc []byte) error
	CreateBindGroup(id Handle, desc []byte) error
	CreateTextureView(id Handle, desc []byte) error
	CreateQuerySet(id Handle, desc []byte) error

	// Resource update

	WriteBuffer(bufferID Handle, offset uint64, data []byte) error
	WriteTexture(textureID Handle, data []byte) error

	// Render pass

	BeginRenderPass(desc []byte) error
	SetPipeline(id Handle) error
	SetBindGroup(slot uint32, groupID Handle, dynamicOffsets []uint32) error
	SetVertexBuffer(slot uint32, bufferID Handle, offset, size uint64) error
	SetIndexBuffer(bufferID Handle, format uint32, offset uint64) error
	Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) error
	DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) error
	EndPass() error

	// Compute pass

	BeginComputePass() error
	Dispatch(x, y, z uint32) error

	// Control

	Submit() error
	End() error
}

// Field is one decoded descriptor field: its raw value bytes, still in the
// wire encoding compiler/descriptor.Encode produced (spec.md §4.5). Callers
// interpret the bytes according to the tag's known value-kind (fixed-size
// enum code, u32, u16 string id, or f32).
type Field struct {
	Tag   descriptor.FieldTag
	Value []byte
}

// DecodeFields parses a `[field_count:u8] [field_tag:u8 field_value:…]*`
// descriptor record (spec.md §4.5) back into its component fields, keyed by
// tag. Value byte-widths mirror compiler/descriptor.encodeScalar exactly:
// enum codes and FieldLayoutAuto are 1 byte (FieldLayoutAuto carries none),
// lod clamps are 4-byte floats, FieldEntryPoint is a 2-byte interned string
// id, and everything else recognized here is a 4-byte u32 — either a
// numeric value (size, dimension, offset) or a Ref's resolved dense id
// (FieldLayoutID, FieldShaderStringID's render/compute-pipeline-shader use,
// FieldBufferID, FieldSamplerID, FieldTextureViewID).
//
// Parameters:
//   - data: one descriptor record, as stored in the PNGB data section
//
// Returns:
//   - map[descriptor.FieldTag][]byte: each present field's raw value bytes
//   - error: non-nil if data is shorter than its own field_count implies
func DecodeFields(data []byte) (map[descriptor.FieldTag][]byte, error) {
	if len(data) == 0 {
		return map[descriptor.FieldTag][]byte{}, nil
	}
	count := int(data[0])
	out := make(map[descriptor.FieldTag][]byte, count)
	pos := 1
	for i := 0; i < count; i++ {
		if pos >= len(data) {
			return nil, &MalformedDescriptorError{Reason: "truncated field tag"}
		}
		tag := descriptor.FieldTag(data[pos])
		pos++
		width := fieldWidth(tag)
		if pos+width > len(data) {
			return nil, &MalformedDescriptorError{Reason: "truncated field value"}
		}
		out[tag] = data[pos : pos+width]
		pos += width
	}
	return out, nil
}

func fieldWidth(tag descriptor.FieldTag) int {
	switch tag {
	case descriptor.FieldLayoutAuto:
		return 0
	case descriptor.FieldLodMinClamp, descriptor.FieldLodMaxClamp:
		return 4
	case descriptor.FieldEntryPoint, descriptor.FieldBindingType, descriptor.FieldBindingVisibility:
		// "bufferType" and "visibility" carry no dictionary entry in
		// compiler/descriptor's `dictionaries` table, so Encode's
		// encodeScalar default branch interns them as a plain string
		// id rather than a 1-byte enum code or 4-byte numeric field.
		return 2
	default:
		// Every remaining recognized tag (enum codes included — the
		// encoder widens enum codes to a full u32 only for the
		// multi-byte numeric fields; single-byte enum fields are
		// handled below) is a plain 4-byte numeric or id field in
		// this encoder, with the single exception of true enum
		// dictionary codes, which are 1 byte. FieldValue-less tags
		// aside, the encoder's enum path (LookupEnum) always wins
		// over encodeScalar for dictionary-bound keys, so a tag that
		// can ever carry an enum byte is sized 1 here.
		if isEnumCodedTag(tag) {
			return 1
		}
		return 4
	}
}

// isEnumCodedTag reports whether tag's value, when present, is a single
// dictionary-validated enum byte rather than a numeric field — mirrors the
// property-key set compiler/descriptor.go's `dictionaries` table covers.
func isEnumCodedTag(tag descriptor.FieldTag) bool {
	switch tag {
	case descriptor.FieldFormat,
		descriptor.FieldAddressModeU, descriptor.FieldAddressModeV, descriptor.FieldAddressModeW,
		descriptor.FieldMagFilter, descriptor.FieldMinFilter, descriptor.FieldMipmapFilter,
		descriptor.FieldCompare,
		descriptor.FieldTopology, descriptor.FieldCullMode, descriptor.FieldFrontFace,
		descriptor.FieldBlendColorOp, descriptor.FieldBlendColorSrc, descriptor.FieldBlendColorDst,
		descriptor.FieldBlendAlphaOp, descriptor.FieldBlendAlphaSrc, descriptor.FieldBlendAlphaDst,
		descriptor.FieldLoadOp, descriptor.FieldStoreOp,
		descriptor.FieldViewDimension, descriptor.FieldAspect:
		return true
	default:
		return false
	}
}

// PatchFieldU32 returns a copy of desc with tag's 4-byte value overwritten
// by value, leaving every other field untouched. Used by the dispatcher to
// substitute a pool-aware bind group's resolved physical buffer id into an
// already-encoded descriptor at create_bind_group time (spec.md §4.9.3),
// without re-running the encoder.
//
// Parameters:
//   - desc: one descriptor record
//   - tag: the field to overwrite; must be a 4-byte-width tag
//   - value: the replacement u32 value
//
// Returns:
//   - []byte: a patched copy of desc
//   - error: non-nil if desc is malformed or does not carry tag
func PatchFieldU32(desc []byte, tag descriptor.FieldTag, value uint32) ([]byte, error) {
	if len(desc) == 0 {
		return nil, &MalformedDescriptorError{Reason: "empty descriptor"}
	}
	out := make([]byte, len(desc))
	copy(out, desc)

	count := int(out[0])
	pos := 1
	for i := 0; i < count; i++ {
		if pos >= len(out) {
			return nil, &MalformedDescriptorError{Reason: "truncated field tag"}
		}
		fieldTag := descriptor.FieldTag(out[pos])
		pos++
		width := fieldWidth(fieldTag)
		if pos+width > len(out) {
			return nil, &MalformedDescriptorError{Reason: "truncated field value"}
		}
		if fieldTag == tag {
			common.PutUint32(out, pos, value)
			return out, nil
		}
		pos += width
	}
	return nil, &MalformedDescriptorError{Reason: "field not present"}
}

// MalformedDescriptorError reports a descriptor record whose declared field
// count runs past the bytes actually available.
type MalformedDescriptorError struct {
	Reason string
}

func (e *MalformedDescriptorError) Error() string {
	return "backend: malformed descriptor: " + e.Reason
}
