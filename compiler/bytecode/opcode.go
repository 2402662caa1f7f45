// Package bytecode assembles and serializes the PNGB payload: string
// table, data section, opcode stream, and uniform reflection table
// (spec.md §3.5, §4.6, §6.2, §6.3).
//
// Grounded on the teacher's engine/renderer/pipeline/pipeline_builder.go
// (accumulate-then-finalize builder idiom: intern, add, then bake a
// single immutable artifact) and its gpu_types.go little-endian field
// packing, now generalized from "build one GPU pipeline descriptor" to
// "build one PNGB payload."
package bytecode

// Magic is the 4-byte PNGB header magic.
const Magic = "PNGB"

// Version is the PNGB format version this builder/loader pair speaks.
const Version uint16 = 1

// Op is a bytecode opcode tag (spec.md §4.9, §6.2). Operands are emitted
// as unsigned LEB128 varints unless otherwise noted.
type Op uint8

const (
	// Resource creation family.
	OpCreateBuffer Op = iota + 1
	OpCreateTexture
	OpCreateSampler
	OpCreateShader
	OpCreateBindGroupLayout
	OpCreatePipelineLayout
	OpCreateRenderPipeline
	OpCreateComputePipeline
	OpCreateBindGroup
	OpCreateTextureView
	OpCreateQuerySet

	// Resource update family.
	OpWriteBuffer
	OpWriteTexture

	// Render pass family.
	OpBeginRenderPass
	OpSetPipeline
	OpSetBindGroup
	OpSetVertexBuffer
	OpSetIndexBuffer
	OpDraw
	OpDrawIndexed
	OpEndPass

	// Compute pass family.
	OpBeginComputePass
	OpDispatch

	// Control family.
	OpSubmit
)

// OpEnd is the terminal opcode tag (spec.md §6.2: "The terminal opcode is
// END = 0xFF"), distinct from the numerically-assigned family opcodes
// above so that a truncated or corrupt stream can never be mistaken for
// a valid terminator.
const OpEnd Op = 0xFF

// OpFrameStart marks the boundary between the one-shot preamble and a
// named frame body (spec.md §4.9.4). Its single operand is the interned
// string id of the `#frame` declaration's name; the loader splits the
// decoded instruction list at each OpFrameStart into a named frame body,
// which the dispatcher replays on every render_frame call.
// Not itself a WebGPU-shaped operation, so it carries no Family.
const OpFrameStart Op = 0xFE

// Family identifies which of spec.md §4.9.1's opcode families an Op
// belongs to, used to build the plugin_set bitmask.
type Family uint32

const (
	FamilyResourceCreate Family = 1 << iota
	FamilyResourceUpdate
	FamilyRenderPass
	FamilyComputePass
	FamilyControl
)

// FamilyOf reports which plugin_set bit an opcode sets.
func FamilyOf(op Op) Family {
	switch op {
	case OpCreateBuffer, OpCreateTexture, OpCreateSampler, OpCreateShader,
		OpCreateBindGroupLayout, OpCreatePipelineLayout, OpCreateRenderPipeline,
		OpCreateComputePipeline, OpCreateBindGroup, OpCreateTextureView, OpCreateQuerySet:
		return FamilyResourceCreate
	case OpWriteBuffer, OpWriteTexture:
		return FamilyResourceUpdate
	case OpBeginRenderPass, OpSetPipeline, OpSetBindGroup, OpSetVertexBuffer,
		OpSetIndexBuffer, OpDraw, OpDrawIndexed, OpEndPass:
		return FamilyRenderPass
	case OpBeginComputePass, OpDispatch:
		return FamilyComputePass
	case OpSubmit:
		return FamilyControl
	default:
		return 0
	}
}

// UniformType is a §6.3 uniform field type code.
type UniformType uint8

const (
	TypeF32 UniformType = iota
	TypeI32
	TypeU32
	TypeVec2F
	TypeVec3F
	TypeVec4F
	TypeMat3x3F
	TypeMat4x4F
	TypeVec2I
	TypeVec3I
	TypeVec4I
	TypeVec2U
	TypeVec3U
	TypeVec4U
)
