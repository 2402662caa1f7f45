// Package loader maps a decoded PNGB payload into the borrowed views the
// dispatcher walks at runtime (spec.md §4.8): the string table, the data
// section, the decoded opcode stream, and the optional uniform table.
// It decodes the opcode stream once at load time and splits it into the
// preamble and one instruction list per named `#frame` body, so the
// dispatcher can replay any one of them on demand (spec.md §4.9.4).
//
// Grounded on the teacher's engine/renderer/pipeline/pipeline_builder.go
// id-indexed resource table idiom, generalized from "one table of GPU
// pipeline handles" to "one table of payload-relative views."
package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/pngine/common"
	"github.com/Carmen-Shannon/pngine/compiler/bytecode"
)

// SupportedPluginSet is the set of opcode families this runtime build
// knows how to dispatch. A payload whose plugin_set carries a bit outside
// this mask cannot be safely executed (spec.md §4.8's "validate plugin
// set against executor capabilities").
const SupportedPluginSet = uint32(bytecode.FamilyResourceCreate) |
	uint32(bytecode.FamilyResourceUpdate) |
	uint32(bytecode.FamilyRenderPass) |
	uint32(bytecode.FamilyComputePass) |
	uint32(bytecode.FamilyControl)

// PngbErrorKind classifies a load-time failure.
type PngbErrorKind int

const (
	BadMagic PngbErrorKind = iota
	UnsupportedVersion
	UnsupportedPluginSet
	Malformed
)

func (k PngbErrorKind) String() string {
	switch k {
	case BadMagic:
		return "BadMagic"
	case UnsupportedVersion:
		return "UnsupportedVersion"
	case UnsupportedPluginSet:
		return "UnsupportedPluginSet"
	case Malformed:
		return "Malformed"
	default:
		return "Unknown"
	}
}

// PngbError reports a load-time failure distinct from bytecode.DecodeError:
// DecodeError covers structural section corruption, while PngbError covers
// the loader's own magic/version/capability checks (spec.md §4.8).
type PngbError struct {
	Kind   PngbErrorKind
	Reason string
}

func (e *PngbError) Error() string {
	return fmt.Sprintf("pngb: %s: %s", e.Kind, e.Reason)
}

// Instruction is one decoded opcode record: its tag and operands, already
// varint-decoded, at the byte offset it began at within Code.
type Instruction struct {
	Op       bytecode.Op
	Operands []uint64
	Offset   int
}

// FrameRange records a named #frame body's bounds within Code: the byte
// offset of the first instruction after its OpFrameStart marker, through
// (and including) the OpSubmit that closes it.
type FrameRange struct {
	Name  string
	Start int
	End   int
}

// Program is the loaded, borrowed view over one PNGB payload.
type Program struct {
	Payload bytecode.Payload

	// Preamble holds every instruction before the first OpFrameStart —
	// the one-shot resource-creation and init/queue opcodes.
	Preamble []Instruction

	// Frames maps a #frame declaration's name to its body's instruction
	// list, in source order.
	Frames map[string][]Instruction

	// FrameOrder preserves declaration order for hosts that want "the
	// first frame" without naming one.
	FrameOrder []string
}

// Load validates a PNGB payload's magic/version/plugin_set and decodes it
// into a Program.
//
// Parameters:
//   - raw: the complete PNGB payload bytes (already extracted from any
//     PNG host, if applicable — see the png package)
//
// Returns:
//   - *Program: the decoded, partitioned program
//   - error: non-nil (*PngbError or a *bytecode.DecodeError) if raw is
//     malformed or requires unsupported opcode families
func Load(raw []byte) (*Program, error) {
	if len(raw) < 4 || string(raw[0:4]) != bytecode.Magic {
		return nil, &PngbError{Kind: BadMagic, Reason: "missing PNGB magic"}
	}

	payload, err := bytecode.Decode(raw)
	if err != nil {
		return nil, err
	}
	if payload.Version != bytecode.Version {
		return nil, &PngbError{Kind: UnsupportedVersion, Reason: fmt.Sprintf("payload version %d, runtime speaks %d", payload.Version, bytecode.Version)}
	}
	if payload.PluginSet&^SupportedPluginSet != 0 {
		return nil, &PngbError{Kind: UnsupportedPluginSet, Reason: fmt.Sprintf("plugin_set 0x%x exceeds supported 0x%x", payload.PluginSet, SupportedPluginSet)}
	}

	instrs, err := decodeInstructions(payload.Code)
	if err != nil {
		return nil, err
	}

	p := &Program{Payload: payload, Frames: map[string][]Instruction{}}

	var cur []Instruction
	var curName string
	inFrame := false

	for _, in := range instrs {
		switch in.Op {
		case bytecode.OpFrameStart:
			if inFrame {
				p.Frames[curName] = cur
			} else {
				p.Preamble = cur
			}
			if len(in.Operands) == 0 {
				return nil, &PngbError{Kind: Malformed, Reason: "OpFrameStart missing name operand"}
			}
			nameID := in.Operands[0]
			if int(nameID) >= len(payload.Strings) {
				return nil, &PngbError{Kind: Malformed, Reason: "OpFrameStart name string id out of range"}
			}
			curName = payload.Strings[nameID]
			p.FrameOrder = append(p.FrameOrder, curName)
			cur = nil
			inFrame = true
		case bytecode.OpEnd:
			// terminal; flush whatever body was in progress.
		default:
			cur = append(cur, in)
			continue
		}
	}
	if inFrame {
		p.Frames[curName] = cur
	} else {
		p.Preamble = cur
	}

	return p, nil
}

// decodeInstructions walks a varint-encoded opcode stream into a flat
// Instruction list, stopping at the terminal OpEnd.
func decodeInstructions(code []byte) ([]Instruction, error) {
	var out []Instruction
	pos := 0
	for pos < len(code) {
		start := pos
		op := bytecode.Op(code[pos])
		pos++
		if op == bytecode.OpEnd {
			out = append(out, Instruction{Op: op, Offset: start})
			break
		}

		n := operandCount(op)
		operands := make([]uint64, 0, n)
		for i := 0; i < n; i++ {
			v, next, err := common.ReadUvarint(code, pos)
			if err != nil {
				return nil, &PngbError{Kind: Malformed, Reason: "truncated opcode operand"}
			}
			operands = append(operands, v)
			pos = next
		}

		// set_bind_group's dynamic_offsets list is variable length,
		// prefixed by its own count (the third fixed operand read above).
		if op == bytecode.OpSetBindGroup {
			count := int(operands[2])
			for i := 0; i < count; i++ {
				v, next, err := common.ReadUvarint(code, pos)
				if err != nil {
					return nil, &PngbError{Kind: Malformed, Reason: "truncated dynamic offset"}
				}
				operands = append(operands, v)
				pos = next
			}
		}

		out = append(out, Instruction{Op: op, Operands: operands, Offset: start})
	}
	return out, nil
}

// operandCount gives the fixed varint operand count for each opcode, per
// spec.md §4.9/§6.2. set_bind_group's dynamic_offsets list is variable
// length but is itself prefixed by its own count operand, so it is read
// specially rather than counted here.
func operandCount(op bytecode.Op) int {
	switch op {
	case bytecode.OpCreateBuffer:
		return 3 // id, size, usage
	case bytecode.OpCreateShader, bytecode.OpCreateTexture, bytecode.OpCreateSampler,
		bytecode.OpCreateBindGroupLayout, bytecode.OpCreatePipelineLayout,
		bytecode.OpCreateRenderPipeline, bytecode.OpCreateComputePipeline,
		bytecode.OpCreateBindGroup, bytecode.OpCreateTextureView, bytecode.OpCreateQuerySet:
		return 2 // id, data_id
	case bytecode.OpWriteBuffer:
		return 4 // buffer_id, offset, data_id, byte_len
	case bytecode.OpWriteTexture:
		return 3 // texture_id, data_id, byte_len
	case bytecode.OpBeginRenderPass:
		return 1 // descriptor data_id
	case bytecode.OpBeginComputePass:
		return 0
	case bytecode.OpSetPipeline:
		return 1
	case bytecode.OpSetBindGroup:
		return 3 // slot, group_id, dynamic_offset_count (offsets follow separately)
	case bytecode.OpSetVertexBuffer:
		return 4 // slot, buffer_id, offset, size
	case bytecode.OpSetIndexBuffer:
		return 3 // buffer_id, format, offset
	case bytecode.OpDraw:
		return 4
	case bytecode.OpDrawIndexed:
		return 5
	case bytecode.OpDispatch:
		return 3
	case bytecode.OpEndPass, bytecode.OpSubmit:
		return 0
	case bytecode.OpFrameStart:
		return 1
	default:
		return 0
	}
}
