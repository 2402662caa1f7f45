// Package dispatcher walks a loaded PNGB program's opcode stream and drives
// a backend.Backend, enforcing the pass-state machine and preamble/frame
// replay model a bare Backend implementation does not itself know about
// (spec.md §4.9). Backend implementations (runtime/backend's Mock and
// Native) validate only what a single call can see in isolation; Dispatcher
// is the one place that knows the full permitted-transition table and the
// preamble-once/frame-per-call split.
//
// Grounded on the teacher's engine/renderer/wgpu_renderer_backend.go
// BeginComputeFrame/EndComputeFrame pairing (one call bracketing a batch of
// lower-level calls) and engine/profiler/profiler.go's "accumulate across
// calls, reset per tick" state shape, generalized from one frame-scoped
// counter to the dispatcher's pass-state and frame_counter fields.
package dispatcher

import (
	"encoding/binary"
	"fmt"

	"github.com/Carmen-Shannon/pngine/compiler/bytecode"
	"github.com/Carmen-Shannon/pngine/compiler/descriptor"
	"github.com/Carmen-Shannon/pngine/runtime/backend"
	"github.com/Carmen-Shannon/pngine/runtime/loader"
	"github.com/Carmen-Shannon/pngine/runtime/uniform"
)

// PassState is the dispatcher's position in spec.md §4.9.2's state machine.
type PassState int

const (
	Outside PassState = iota
	InRenderPass
	InComputePass
)

func (s PassState) String() string {
	switch s {
	case InRenderPass:
		return "RenderPass"
	case InComputePass:
		return "ComputePass"
	default:
		return "Outside"
	}
}

// Dispatcher replays one loaded Program's opcode stream against one Backend.
// It is not safe for concurrent use — spec.md §5 specifies the executor is
// single-threaded and cooperative, the sole mutator of its own state.
type Dispatcher struct {
	backend backend.Backend
	program *loader.Program

	state        PassState
	frameCounter uint64

	// pools maps a pool-backed buffer's declared id to its physical slot
	// count, for ResolvePoolIndex (spec.md §4.9.3). Populated automatically
	// from a compiled program's own create_bind_group descriptors (see
	// resolvePoolAwareDescriptor) the first time a pool-aware bind group
	// referencing the buffer is created; RegisterPool remains available for
	// a host driving the primitives directly, e.g. without going through
	// the compiler.
	pools map[backend.Handle]uint32
}

// New builds a Dispatcher over an already-loaded program and a live (or
// mock) backend. Callers driving a *backend.Native should call its
// SetStrings with program.Payload.Strings before RunPreamble, since a
// handful of descriptor fields (bufferType, visibility) resolve through
// the string table rather than a dictionary code.
func New(be backend.Backend, program *loader.Program) *Dispatcher {
	return &Dispatcher{backend: be, program: program, pools: map[backend.Handle]uint32{}}
}

// FrameCounter reports the number of submits observed so far, the counter
// spec.md §4.9.3's ping-pong arithmetic is keyed on.
func (d *Dispatcher) FrameCounter() uint64 {
	return d.frameCounter
}

// State reports the dispatcher's current pass-state-machine position.
func (d *Dispatcher) State() PassState {
	return d.state
}

// RegisterPool records that bufferID is backed by n physical sub-buffers
// (spec.md §4.9.3's `pool=N`), so ResolvePoolIndex can compute a physical
// slot for it. resolvePoolAwareDescriptor calls this automatically from a
// compiled program's own pool-aware create_bind_group descriptors; exported
// for a host driving the pool primitives directly, without compiling DSL
// source.
func (d *Dispatcher) RegisterPool(bufferID backend.Handle, n uint32) {
	d.pools[bufferID] = n
}

// ResolvePoolIndex computes the physical sub-buffer index for a bind group
// entry declared at poolOffset against bufferID, per spec.md §4.9.3:
// `(frame_counter + pool_offset) mod N`. A buffer with no registered pool
// behaves as pool size 1 — always physical index 0.
func (d *Dispatcher) ResolvePoolIndex(bufferID backend.Handle, poolOffset uint32) uint32 {
	n := d.pools[bufferID]
	if n == 0 {
		n = 1
	}
	return uint32((d.frameCounter + uint64(poolOffset)) % uint64(n))
}

// resolvePoolAwareDescriptor inspects a freshly-decoded create_bind_group
// descriptor for the FieldBufferID/FieldPoolOffset/FieldPoolSize triple
// compiler/descriptor.Encode synthesizes for a `poolOffset=k` bind group
// (spec.md §4.9.3). When present, it auto-registers the buffer's pool size,
// resolves the physical sub-buffer index against the dispatcher's current
// frame_counter, and returns a copy of data with FieldBufferID patched to
// that physical buffer's id. Descriptors with no pool fields pass through
// unchanged — this is what makes a compiled program's replay actually
// exercise RegisterPool/ResolvePoolIndex, rather than requiring a host to
// call them out of band.
func (d *Dispatcher) resolvePoolAwareDescriptor(data []byte) ([]byte, error) {
	fields, err := backend.DecodeFields(data)
	if err != nil {
		return nil, err
	}
	sizeBytes, hasSize := fields[descriptor.FieldPoolSize]
	offsetBytes, hasOffset := fields[descriptor.FieldPoolOffset]
	bufferBytes, hasBuffer := fields[descriptor.FieldBufferID]
	if !hasSize || !hasOffset || !hasBuffer {
		return data, nil
	}

	declaredID := backend.Handle(binary.LittleEndian.Uint32(bufferBytes))
	n := binary.LittleEndian.Uint32(sizeBytes)
	poolOffset := binary.LittleEndian.Uint32(offsetBytes)

	d.RegisterPool(declaredID, n)
	physical := declaredID + d.ResolvePoolIndex(declaredID, poolOffset)

	return backend.PatchFieldU32(data, descriptor.FieldBufferID, physical)
}

// RunPreamble replays the program's one-shot preamble — every
// resource-creation and init opcode declared before the first `#frame` body
// (spec.md §4.9.4). Call exactly once, before any RenderFrame.
func (d *Dispatcher) RunPreamble() error {
	return d.replay(d.program.Preamble)
}

// RenderFrame replays the named frame body once. Repeated calls replay the
// same instruction list each time, incrementing frame_counter once per
// submit encountered (spec.md §5: "incremented exactly once per submit").
func (d *Dispatcher) RenderFrame(name string) error {
	instrs, ok := d.program.Frames[name]
	if !ok {
		return &DispatchError{Kind: UnknownFrame, Reason: fmt.Sprintf("no frame named %q", name)}
	}
	return d.replay(instrs)
}

// SetUniform resolves path against t and emits the corresponding
// write_buffer to the backend (spec.md §4.11), enforcing the same
// pass-state rule write_buffer itself observes during ordinary replay —
// set_uniform is meant to be called between frames, not mid-pass.
func (d *Dispatcher) SetUniform(t *uniform.Table, path string, data []byte) error {
	e, err := t.Lookup(path)
	if err != nil {
		return err
	}
	if uint32(len(data)) != e.Size {
		return &uniform.SizeMismatchError{Path: path, Want: int(e.Size), Got: len(data)}
	}
	if err := d.checkTransition(bytecode.OpWriteBuffer); err != nil {
		return err
	}
	return d.backend.WriteBuffer(e.BufferID, uint64(e.Offset), data)
}

func (d *Dispatcher) replay(instrs []loader.Instruction) error {
	for _, in := range instrs {
		if err := d.checkTransition(in.Op); err != nil {
			return err
		}
		if err := d.exec(in); err != nil {
			return err
		}
	}
	return nil
}

// checkTransition enforces spec.md §4.9.2's permitted-transition table
// against the dispatcher's current state, without itself mutating state —
// exec updates d.state only after the backend call it guards succeeds.
func (d *Dispatcher) checkTransition(op bytecode.Op) error {
	switch d.state {
	case Outside:
		switch op {
		case bytecode.OpBeginRenderPass, bytecode.OpBeginComputePass,
			bytecode.OpCreateBuffer, bytecode.OpCreateTexture, bytecode.OpCreateSampler,
			bytecode.OpCreateShader, bytecode.OpCreateBindGroupLayout, bytecode.OpCreatePipelineLayout,
			bytecode.OpCreateRenderPipeline, bytecode.OpCreateComputePipeline, bytecode.OpCreateBindGroup,
			bytecode.OpCreateTextureView, bytecode.OpCreateQuerySet,
			bytecode.OpWriteBuffer, bytecode.OpWriteTexture,
			bytecode.OpSubmit:
			return nil
		default:
			return &DispatchError{Kind: BadState, Op: op, Reason: "not permitted outside a pass"}
		}
	case InRenderPass:
		switch op {
		case bytecode.OpBeginRenderPass, bytecode.OpBeginComputePass:
			return &DispatchError{Kind: NestedPass, Op: op, Reason: "a render pass is already active"}
		case bytecode.OpSetPipeline, bytecode.OpSetBindGroup, bytecode.OpSetVertexBuffer,
			bytecode.OpSetIndexBuffer, bytecode.OpDraw, bytecode.OpDrawIndexed, bytecode.OpEndPass:
			return nil
		default:
			return &DispatchError{Kind: BadState, Op: op, Reason: "not permitted inside a render pass"}
		}
	case InComputePass:
		switch op {
		case bytecode.OpBeginRenderPass, bytecode.OpBeginComputePass:
			return &DispatchError{Kind: NestedPass, Op: op, Reason: "a compute pass is already active"}
		case bytecode.OpSetPipeline, bytecode.OpSetBindGroup, bytecode.OpDispatch, bytecode.OpEndPass:
			return nil
		default:
			return &DispatchError{Kind: BadState, Op: op, Reason: "not permitted inside a compute pass"}
		}
	default:
		return &DispatchError{Kind: BadState, Op: op, Reason: "unknown pass state"}
	}
}

// exec translates one already-permitted instruction into its Backend call,
// advancing pass state on the calls that change it.
func (d *Dispatcher) exec(in loader.Instruction) error {
	b := d.backend
	ops := in.Operands

	switch in.Op {
	case bytecode.OpCreateBuffer:
		return b.CreateBuffer(backend.Handle(ops[0]), ops[1], uint32(ops[2]))
	case bytecode.OpCreateTexture:
		data, err := d.dataAt(ops[1])
		if err != nil {
			return err
		}
		return b.CreateTexture(backend.Handle(ops[0]), data)
	case bytecode.OpCreateSampler:
		data, err := d.dataAt(ops[1])
		if err != nil {
			return err
		}
		return b.CreateSampler(backend.Handle(ops[0]), data)
	case bytecode.OpCreateShader:
		data, err := d.dataAt(ops[1])
		if err != nil {
			return err
		}
		return b.CreateShader(backend.Handle(ops[0]), string(data))
	case bytecode.OpCreateBindGroupLayout:
		data, err := d.dataAt(ops[1])
		if err != nil {
			return err
		}
		return b.CreateBindGroupLayout(backend.Handle(ops[0]), data)
	case bytecode.OpCreatePipelineLayout:
		data, err := d.dataAt(ops[1])
		if err != nil {
			return err
		}
		return b.CreatePipelineLayout(backend.Handle(ops[0]), data)
	case bytecode.OpCreateRenderPipeline:
		data, err := d.dataAt(ops[1])
		if err != nil {
			return err
		}
		return b.CreateRenderPipeline(backend.Handle(ops[0]), data)
	case bytecode.OpCreateComputePipeline:
		data, err := d.dataAt(ops[1])
		if err != nil {
			return err
		}
		return b.CreateComputePipeline(backend.Handle(ops[0]), data)
	case bytecode.OpCreateBindGroup:
		data, err := d.dataAt(ops[1])
		if err != nil {
			return err
		}
		data, err = d.resolvePoolAwareDescriptor(data)
		if err != nil {
			return err
		}
		return b.CreateBindGroup(backend.Handle(ops[0]), data)
	case bytecode.OpCreateTextureView:
		data, err := d.dataAt(ops[1])
		if err != nil {
			return err
		}
		return b.CreateTextureView(backend.Handle(ops[0]), data)
	case bytecode.OpCreateQuerySet:
		data, err := d.dataAt(ops[1])
		if err != nil {
			return err
		}
		return b.CreateQuerySet(backend.Handle(ops[0]), data)

	case bytecode.OpWriteBuffer:
		data, err := d.dataAt(ops[2])
		if err != nil {
			return err
		}
		n := int(ops[3])
		if n > len(data) {
			return &DispatchError{Kind: DataOutOfRange, Op: in.Op, Reason: "write_buffer byte_len exceeds data blob"}
		}
		if n == 0 {
			// A zero-length write_buffer is a no-op, not an error.
			return nil
		}
		return b.WriteBuffer(backend.Handle(ops[0]), ops[1], data[:n])
	case bytecode.OpWriteTexture:
		data, err := d.dataAt(ops[1])
		if err != nil {
			return err
		}
		n := int(ops[2])
		if n > len(data) {
			return &DispatchError{Kind: DataOutOfRange, Op: in.Op, Reason: "write_texture byte_len exceeds data blob"}
		}
		return b.WriteTexture(backend.Handle(ops[0]), data[:n])

	case bytecode.OpBeginRenderPass:
		data, err := d.dataAt(ops[0])
		if err != nil {
			return err
		}
		if err := b.BeginRenderPass(data); err != nil {
			return err
		}
		d.state = InRenderPass
		return nil
	case bytecode.OpBeginComputePass:
		if err := b.BeginComputePass(); err != nil {
			return err
		}
		d.state = InComputePass
		return nil
	case bytecode.OpSetPipeline:
		return b.SetPipeline(backend.Handle(ops[0]))
	case bytecode.OpSetBindGroup:
		count := int(ops[2])
		offsets := make([]uint32, count)
		for i := 0; i < count; i++ {
			offsets[i] = uint32(ops[3+i])
		}
		return b.SetBindGroup(uint32(ops[0]), backend.Handle(ops[1]), offsets)
	case bytecode.OpSetVertexBuffer:
		return b.SetVertexBuffer(uint32(ops[0]), backend.Handle(ops[1]), ops[2], ops[3])
	case bytecode.OpSetIndexBuffer:
		return b.SetIndexBuffer(backend.Handle(ops[0]), uint32(ops[1]), ops[2])
	case bytecode.OpDraw:
		return b.Draw(uint32(ops[0]), uint32(ops[1]), uint32(ops[2]), uint32(ops[3]))
	case bytecode.OpDrawIndexed:
		// baseVertex travels as the bit pattern of an int32 widened to
		// uint64 by the emitter; narrow back through uint32 to recover
		// its sign rather than truncating it away.
		baseVertex := int32(uint32(ops[3]))
		return b.DrawIndexed(uint32(ops[0]), uint32(ops[1]), uint32(ops[2]), baseVertex, uint32(ops[4]))
	case bytecode.OpEndPass:
		if err := b.EndPass(); err != nil {
			return err
		}
		d.state = Outside
		return nil

	case bytecode.OpDispatch:
		return b.Dispatch(uint32(ops[0]), uint32(ops[1]), uint32(ops[2]))

	case bytecode.OpSubmit:
		if err := b.Submit(); err != nil {
			return err
		}
		d.frameCounter++
		return nil

	default:
		return &DispatchError{Kind: MalformedOperands, Op: in.Op, Reason: "unrecognized opcode"}
	}
}

func (d *Dispatcher) dataAt(id uint64) ([]byte, error) {
	if int(id) >= len(d.program.Payload.Data) {
		return nil, &DispatchError{Kind: DataOutOfRange, Reason: fmt.Sprintf("data id %d out of range", id)}
	}
	return d.program.Payload.Data[id], nil
}

// ErrorKind classifies a DispatchError.
type ErrorKind int

const (
	// BadState is a transition the pass-state machine forbids in the
	// dispatcher's current state (spec.md §4.9.2).
	BadState ErrorKind = iota
	// NestedPass is a begin_*_pass encountered while a pass is already open.
	NestedPass
	// DataOutOfRange is a data-section or data-length reference past the
	// bounds of the loaded payload.
	DataOutOfRange
	// MalformedOperands is an opcode the dispatcher does not recognize.
	MalformedOperands
	// UnknownFrame is a RenderFrame call naming a #frame the program has no
	// body for.
	UnknownFrame
)

func (k ErrorKind) String() string {
	switch k {
	case BadState:
		return "BadState"
	case NestedPass:
		return "NestedPass"
	case DataOutOfRange:
		return "DataOutOfRange"
	case MalformedOperands:
		return "MalformedOperands"
	case UnknownFrame:
		return "UnknownFrame"
	default:
		return "Unknown"
	}
}

// DispatchError reports a dispatcher-level failure distinct from a raw
// Backend error: it names the opcode and the state-machine or structural
// reason the dispatcher itself refused to call into the backend at all.
type DispatchError struct {
	Kind   ErrorKind
	Op     bytecode.Op
	Reason string
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch: %s: %s", e.Kind, e.Reason)
}
