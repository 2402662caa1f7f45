// Package validate implements PNGB check mode (spec.md §4.12): decode a
// payload, replay it against a mock backend, and report every fatal (E0xx)
// and warning (W0xx) condition the spec names.
//
// Grounded on the teacher's engine/renderer/pipeline/pipeline_builder.go
// id-bookkeeping idiom (track what's been created, flag what never got
// used) and runtime/backend.Mock's append-only event log, which this
// package reads back to derive the warnings that need to see the actual
// call sequence rather than just the static opcode stream.
package validate

import (
	"fmt"

	"github.com/Carmen-Shannon/pngine/compiler/bytecode"
	"github.com/Carmen-Shannon/pngine/compiler/descriptor"
	"github.com/Carmen-Shannon/pngine/runtime/backend"
	"github.com/Carmen-Shannon/pngine/runtime/dispatcher"
	"github.com/Carmen-Shannon/pngine/runtime/loader"
)

// Severity classifies a Finding as fatal or advisory.
type Severity int

const (
	Error Severity = iota
	Warning
)

func (s Severity) String() string {
	if s == Warning {
		return "warning"
	}
	return "error"
}

// Finding is one check-mode report line, tagged with its spec.md §4.12 code.
type Finding struct {
	Code     string
	Severity Severity
	Message  string
}

// Report is the complete output of one Check run.
type Report struct {
	Findings []Finding
}

// Fatal reports whether any Finding in the report is an Error — a host
// should refuse to run the payload when this is true.
func (r *Report) Fatal() bool {
	for _, f := range r.Findings {
		if f.Severity == Error {
			return true
		}
	}
	return false
}

func (r *Report) add(code string, sev Severity, format string, args ...any) {
	r.Findings = append(r.Findings, Finding{Code: code, Severity: sev, Message: fmt.Sprintf(format, args...)})
}

// Check runs full check mode over a raw PNGB payload.
//
// Parameters:
//   - raw: the complete PNGB bytes
//
// Returns:
//   - *Report: every Finding the checks below produce
//   - error: non-nil only if raw fails to load at all (bad magic, version,
//     or plugin set) — a payload that loads but fails semantic checks
//     still returns a non-nil *Report with Fatal() == true, not an error
func Check(raw []byte) (*Report, error) {
	prog, err := loader.Load(raw)
	if err != nil {
		return nil, err
	}
	return CheckProgram(prog), nil
}

// CheckProgram runs check mode over an already-loaded Program.
func CheckProgram(prog *loader.Program) *Report {
	r := &Report{}

	staticIDCheck(prog, r)
	staticDescriptorCheck(prog, r)

	m := backend.NewMock()
	d := dispatcher.New(m, prog)

	runAndReport := func(label string, run func() error) {
		if err := run(); err != nil {
			reportDispatchError(r, label, err)
		} else if d.State() != dispatcher.Outside {
			r.add("E007", Error, "%s ended with an open pass (missing end_pass)", label)
		}
	}
	runAndReport("preamble", d.RunPreamble)
	for _, name := range prog.FrameOrder {
		runAndReport(fmt.Sprintf("frame %q", name), func() error { return d.RenderFrame(name) })
	}

	warnUnusedAndEmpty(prog, m, r)
	warnConsecutiveIdenticalSets(m, r)
	warnLargeBuffers(prog, r)
	warnMissingEntryPoint(prog, r)
	warnVertexBufferLargerThanUsed(prog, r)
	warnUniformWriteConflicts(prog, r)

	return r
}

func reportDispatchError(r *Report, label string, err error) {
	var de *dispatcher.DispatchError
	if !asDispatchError(err, &de) {
		r.add("E006", Error, "%s: %v", label, err)
		return
	}
	switch de.Kind {
	case dispatcher.BadState:
		r.add("E002", Error, "%s: %s", label, de.Reason)
	case dispatcher.NestedPass:
		r.add("E008", Error, "%s: %s", label, de.Reason)
	case dispatcher.DataOutOfRange:
		r.add("E004", Error, "%s: %s", label, de.Reason)
	default:
		r.add("E006", Error, "%s: %s", label, de.Reason)
	}
}

func asDispatchError(err error, target **dispatcher.DispatchError) bool {
	de, ok := err.(*dispatcher.DispatchError)
	if ok {
		*target = de
	}
	return ok
}

// staticIDCheck walks every instruction in declaration order, tracking
// which resource ids have been created so far, and flags:
//   - E005 duplicate id: a create_* opcode reusing an id already created.
//   - E001 unresolved id reference: an opcode referencing an id that is
//     never created anywhere in the program.
//   - E003 creation-order violation: an opcode referencing an id that is
//     created later in the stream than the point of reference.
func staticIDCheck(prog *loader.Program, r *Report) {
	allCreated := map[uint64]bool{}
	collectCreatedIDs(prog.Preamble, allCreated)
	for _, name := range prog.FrameOrder {
		collectCreatedIDs(prog.Frames[name], allCreated)
	}

	createdSoFar := map[uint64]bool{}
	check := func(instrs []loader.Instruction) {
		for _, in := range instrs {
			if id, ok := createdID(in); ok {
				if createdSoFar[id] {
					r.add("E005", Error, "duplicate id %d created by opcode %d", id, in.Op)
				}
				createdSoFar[id] = true
				continue
			}
			for _, ref := range referencedIDs(in) {
				if createdSoFar[ref] {
					continue
				}
				if allCreated[ref] {
					r.add("E003", Error, "id %d referenced at offset %d before its creation", ref, in.Offset)
				} else {
					r.add("E001", Error, "id %d referenced at offset %d is never created", ref, in.Offset)
				}
			}
		}
	}
	check(prog.Preamble)
	for _, name := range prog.FrameOrder {
		check(prog.Frames[name])
	}
}

func collectCreatedIDs(instrs []loader.Instruction, out map[uint64]bool) {
	for _, in := range instrs {
		if id, ok := createdID(in); ok {
			out[id] = true
		}
	}
}

func createdID(in loader.Instruction) (uint64, bool) {
	switch in.Op {
	case bytecode.OpCreateBuffer, bytecode.OpCreateTexture, bytecode.OpCreateSampler,
		bytecode.OpCreateShader, bytecode.OpCreateBindGroupLayout, bytecode.OpCreatePipelineLayout,
		bytecode.OpCreateRenderPipeline, bytecode.OpCreateComputePipeline, bytecode.OpCreateBindGroup,
		bytecode.OpCreateTextureView, bytecode.OpCreateQuerySet:
		if len(in.Operands) > 0 {
			return in.Operands[0], true
		}
	}
	return 0, false
}

// referencedIDs names the resource ids a non-create opcode's fixed
// operands point at. Descriptor-embedded references (a create_* opcode's
// own data blob naming FieldLayoutID/FieldBufferID/etc.) are checked
// separately by staticDescriptorCheck, since they need the data section,
// not just the operand list.
func referencedIDs(in loader.Instruction) []uint64 {
	switch in.Op {
	case bytecode.OpSetPipeline:
		return in.Operands
	case bytecode.OpSetBindGroup:
		if len(in.Operands) > 1 {
			return in.Operands[1:2]
		}
	case bytecode.OpSetVertexBuffer:
		if len(in.Operands) > 1 {
			return in.Operands[1:2]
		}
	case bytecode.OpSetIndexBuffer, bytecode.OpWriteBuffer, bytecode.OpWriteTexture:
		if len(in.Operands) > 0 {
			return in.Operands[0:1]
		}
	}
	return nil
}

// staticDescriptorCheck decodes every create_* opcode's descriptor blob
// with backend.DecodeFields and flags E006 on any malformed record, and
// E001 on any embedded id reference (FieldLayoutID, FieldBufferID,
// FieldSamplerID, FieldTextureViewID) the program never creates.
func staticDescriptorCheck(prog *loader.Program, r *Report) {
	created := map[uint64]bool{}
	collectCreatedIDs(prog.Preamble, created)
	for _, name := range prog.FrameOrder {
		collectCreatedIDs(prog.Frames[name], created)
	}

	check := func(instrs []loader.Instruction) {
		for _, in := range instrs {
			if !hasDescriptorOperand(in.Op) || len(in.Operands) < 2 {
				continue
			}
			dataID := in.Operands[1]
			if int(dataID) >= len(prog.Payload.Data) {
				r.add("E004", Error, "opcode at offset %d references out-of-range data id %d", in.Offset, dataID)
				continue
			}
			fields, err := backend.DecodeFields(prog.Payload.Data[dataID])
			if err != nil {
				r.add("E006", Error, "malformed descriptor at offset %d: %v", in.Offset, err)
				continue
			}
			for _, tag := range []descriptor.FieldTag{
				descriptor.FieldLayoutID, descriptor.FieldBufferID,
				descriptor.FieldSamplerID, descriptor.FieldTextureViewID,
			} {
				v, ok := fields[tag]
				if !ok || len(v) != 4 {
					continue
				}
				id := uint64(v[0]) | uint64(v[1])<<8 | uint64(v[2])<<16 | uint64(v[3])<<24
				if !created[id] {
					r.add("E001", Error, "descriptor at offset %d references id %d that is never created", in.Offset, id)
				}
			}
		}
	}
	check(prog.Preamble)
	for _, name := range prog.FrameOrder {
		check(prog.Frames[name])
	}
}

func hasDescriptorOperand(op bytecode.Op) bool {
	switch op {
	case bytecode.OpCreateTexture, bytecode.OpCreateSampler,
		bytecode.OpCreateBindGroupLayout, bytecode.OpCreatePipelineLayout,
		bytecode.OpCreateRenderPipeline, bytecode.OpCreateComputePipeline,
		bytecode.OpCreateBindGroup, bytecode.OpCreateTextureView, bytecode.OpCreateQuerySet:
		return true
	default:
		return false
	}
}

// warnUnusedAndEmpty covers W001 (created-but-never-used) and W003 (empty
// pass), both read back off the Mock's recorded call sequence rather than
// the static opcode stream, since "used" means "actually called," and an
// empty pass is a run-time adjacency (begin immediately followed by end).
func warnUnusedAndEmpty(prog *loader.Program, m *backend.Mock, r *Report) {
	created := map[uint64]bool{}
	collectCreatedIDs(prog.Preamble, created)
	for _, name := range prog.FrameOrder {
		collectCreatedIDs(prog.Frames[name], created)
	}

	used := map[uint64]bool{}
	lastPassStart := -1
	sawActionSincePass := true
	// idArgIndex names, per recorded Event.Op, which Args slot carries the
	// resource id it references — SetBindGroup and SetVertexBuffer both
	// record their slot index before the id, unlike the others.
	idArgIndex := map[string]int{
		"SetPipeline": 0, "SetBindGroup": 1, "SetVertexBuffer": 1,
		"SetIndexBuffer": 0, "WriteBuffer": 0, "WriteTexture": 0,
	}
	for i, ev := range m.Log {
		if idx, ok := idArgIndex[ev.Op]; ok && idx < len(ev.Args) {
			if id, ok := ev.Args[idx].(uint32); ok {
				used[uint64(id)] = true
			}
		}
		switch ev.Op {
		case "BeginRenderPass", "BeginComputePass":
			lastPassStart = i
			sawActionSincePass = false
		case "Draw", "DrawIndexed", "Dispatch":
			sawActionSincePass = true
		case "EndPass":
			if lastPassStart >= 0 && !sawActionSincePass {
				r.add("W003", Warning, "pass at log index %d contains no draw/dispatch call", lastPassStart)
			}
			lastPassStart = -1
		}
	}

	for id := range created {
		if !used[id] {
			r.add("W001", Warning, "id %d is created but never referenced by any later opcode", id)
		}
	}
}

// warnConsecutiveIdenticalSets flags W002: two adjacent identical
// SetPipeline/SetBindGroup/SetVertexBuffer/SetIndexBuffer calls, which
// cost a redundant state change on a real backend.
func warnConsecutiveIdenticalSets(m *backend.Mock, r *Report) {
	setOps := map[string]bool{"SetPipeline": true, "SetBindGroup": true, "SetVertexBuffer": true, "SetIndexBuffer": true}
	for i := 1; i < len(m.Log); i++ {
		prev, cur := m.Log[i-1], m.Log[i]
		if !setOps[cur.Op] || cur.Op != prev.Op {
			continue
		}
		if fmt.Sprint(cur.Args) == fmt.Sprint(prev.Args) {
			r.add("W002", Warning, "consecutive identical %s at log index %d", cur.Op, i)
		}
	}
}

// warnLargeBuffers flags W004: a declared buffer larger than 16 MiB.
func warnLargeBuffers(prog *loader.Program, r *Report) {
	const sixteenMiB = 16 * 1024 * 1024
	walk := func(instrs []loader.Instruction) {
		for _, in := range instrs {
			if in.Op != bytecode.OpCreateBuffer || len(in.Operands) < 2 {
				continue
			}
			if in.Operands[1] > sixteenMiB {
				r.add("W004", Warning, "buffer %d declared at %d bytes exceeds 16 MiB", in.Operands[0], in.Operands[1])
			}
		}
	}
	walk(prog.Preamble)
	for _, name := range prog.FrameOrder {
		walk(prog.Frames[name])
	}
}

// warnMissingEntryPoint flags W005: a render or compute pipeline
// descriptor with no FieldEntryPoint field.
func warnMissingEntryPoint(prog *loader.Program, r *Report) {
	walk := func(instrs []loader.Instruction) {
		for _, in := range instrs {
			if in.Op != bytecode.OpCreateRenderPipeline && in.Op != bytecode.OpCreateComputePipeline {
				continue
			}
			if len(in.Operands) < 2 || int(in.Operands[1]) >= len(prog.Payload.Data) {
				continue
			}
			fields, err := backend.DecodeFields(prog.Payload.Data[in.Operands[1]])
			if err != nil {
				continue
			}
			if _, ok := fields[descriptor.FieldEntryPoint]; !ok {
				r.add("W005", Warning, "pipeline %d has no declared entry point", in.Operands[0])
			}
		}
	}
	walk(prog.Preamble)
	for _, name := range prog.FrameOrder {
		walk(prog.Frames[name])
	}
}

// warnVertexBufferLargerThanUsed flags W006: a buffer declared
// significantly larger than the byte range ever bound to it via
// set_vertex_buffer.
func warnVertexBufferLargerThanUsed(prog *loader.Program, r *Report) {
	declaredSize := map[uint64]uint64{}
	walkBuffers := func(instrs []loader.Instruction) {
		for _, in := range instrs {
			if in.Op == bytecode.OpCreateBuffer && len(in.Operands) >= 2 {
				declaredSize[in.Operands[0]] = in.Operands[1]
			}
		}
	}
	walkBuffers(prog.Preamble)
	for _, name := range prog.FrameOrder {
		walkBuffers(prog.Frames[name])
	}

	maxUsed := map[uint64]uint64{}
	walkUses := func(instrs []loader.Instruction) {
		for _, in := range instrs {
			if in.Op != bytecode.OpSetVertexBuffer || len(in.Operands) < 4 {
				continue
			}
			bufID, offset, size := in.Operands[1], in.Operands[2], in.Operands[3]
			if end := offset + size; end > maxUsed[bufID] {
				maxUsed[bufID] = end
			}
		}
	}
	walkUses(prog.Preamble)
	for _, name := range prog.FrameOrder {
		walkUses(prog.Frames[name])
	}

	for id, used := range maxUsed {
		if declared, ok := declaredSize[id]; ok && declared > used*2 && declared-used > 64 {
			r.add("W006", Warning, "vertex buffer %d declared at %d bytes but only %d bytes ever bound", id, declared, used)
		}
	}
}

// warnUniformWriteConflicts flags W009: a write_buffer opcode whose byte
// range overlaps a uniform table entry on the same buffer — a direct
// write racing the uniform-by-name runtime's own idea of that region.
func warnUniformWriteConflicts(prog *loader.Program, r *Report) {
	if len(prog.Payload.Uniforms) == 0 {
		return
	}
	type span struct{ start, end uint64 }
	uniformSpans := map[uint64][]span{}
	for _, b := range prog.Payload.Uniforms {
		for _, f := range b.Fields {
			uniformSpans[uint64(b.BufferID)] = append(uniformSpans[uint64(b.BufferID)],
				span{start: uint64(f.Offset), end: uint64(f.Offset) + uint64(f.Size)})
		}
	}

	walk := func(instrs []loader.Instruction) {
		for _, in := range instrs {
			if in.Op != bytecode.OpWriteBuffer || len(in.Operands) < 4 {
				continue
			}
			bufID, offset, length := in.Operands[0], in.Operands[1], in.Operands[3]
			end := offset + length
			for _, s := range uniformSpans[bufID] {
				if offset < s.end && s.start < end {
					r.add("W009", Warning, "write_buffer at offset %d targets buffer %d inside a uniform field's range [%d,%d)", in.Offset, bufID, s.start, s.end)
					break
				}
			}
		}
	}
	walk(prog.Preamble)
	for _, name := range prog.FrameOrder {
		walk(prog.Frames[name])
	}
}
