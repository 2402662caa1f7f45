package dispatcher_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Carmen-Shannon/pngine/compiler/bytecode"
	"github.com/Carmen-Shannon/pngine/runtime/backend"
	"github.com/Carmen-Shannon/pngine/runtime/dispatcher"
	"github.com/Carmen-Shannon/pngine/runtime/loader"
	"github.com/Carmen-Shannon/pngine/runtime/uniform"
)

// program builds a minimal *loader.Program directly from an Instruction
// list, bypassing bytecode.Decode, since these tests only exercise
// dispatcher replay logic rather than payload parsing.
func program(preamble []loader.Instruction, frames map[string][]loader.Instruction) *loader.Program {
	return &loader.Program{
		Payload: bytecode.Payload{Data: [][]byte{{0xAA, 0xBB, 0xCC, 0xDD}}},
		Preamble: preamble,
		Frames:   frames,
	}
}

func TestDispatcher_RunPreambleReplaysResourceCreation(t *testing.T) {
	p := program([]loader.Instruction{
		{Op: bytecode.OpCreateBuffer, Operands: []uint64{1, 256, 0x40}},
		{Op: bytecode.OpCreateShader, Operands: []uint64{2, 0}},
	}, nil)
	m := backend.NewMock()
	d := dispatcher.New(m, p)

	assert.NoError(t, d.RunPreamble())
	assert.Len(t, m.Log, 2)
	assert.Equal(t, "CreateBuffer", m.Log[0].Op)
	assert.Equal(t, "CreateShader", m.Log[1].Op)
	assert.Equal(t, dispatcher.Outside, d.State())
}

func TestDispatcher_RenderFrameRunsRenderPassAndIncrementsFrameCounter(t *testing.T) {
	frame := []loader.Instruction{
		{Op: bytecode.OpBeginRenderPass, Operands: []uint64{0}},
		{Op: bytecode.OpSetPipeline, Operands: []uint64{1}},
		{Op: bytecode.OpDraw, Operands: []uint64{3, 1, 0, 0}},
		{Op: bytecode.OpEndPass},
		{Op: bytecode.OpSubmit},
	}
	p := program(nil, map[string][]loader.Instruction{"main": frame})
	m := backend.NewMock()
	d := dispatcher.New(m, p)

	assert.NoError(t, d.RenderFrame("main"))
	assert.Equal(t, uint64(1), d.FrameCounter())
	assert.Equal(t, dispatcher.Outside, d.State())

	assert.NoError(t, d.RenderFrame("main"))
	assert.Equal(t, uint64(2), d.FrameCounter())
}

func TestDispatcher_UnknownFrameNameErrors(t *testing.T) {
	p := program(nil, map[string][]loader.Instruction{})
	d := dispatcher.New(backend.NewMock(), p)

	err := d.RenderFrame("missing")
	assert.Error(t, err)
	var de *dispatcher.DispatchError
	assert.ErrorAs(t, err, &de)
	assert.Equal(t, dispatcher.UnknownFrame, de.Kind)
}

func TestDispatcher_DrawOutsideAPassIsBadState(t *testing.T) {
	p := program(nil, map[string][]loader.Instruction{
		"main": {{Op: bytecode.OpDraw, Operands: []uint64{1, 1, 0, 0}}},
	})
	d := dispatcher.New(backend.NewMock(), p)

	err := d.RenderFrame("main")
	var de *dispatcher.DispatchError
	assert.ErrorAs(t, err, &de)
	assert.Equal(t, dispatcher.BadState, de.Kind)
}

func TestDispatcher_NestedPassIsRejected(t *testing.T) {
	p := program(nil, map[string][]loader.Instruction{
		"main": {
			{Op: bytecode.OpBeginRenderPass, Operands: []uint64{0}},
			{Op: bytecode.OpBeginComputePass},
		},
	})
	d := dispatcher.New(backend.NewMock(), p)

	err := d.RenderFrame("main")
	var de *dispatcher.DispatchError
	assert.ErrorAs(t, err, &de)
	assert.Equal(t, dispatcher.NestedPass, de.Kind)
}

func TestDispatcher_ComputePassPermitsDispatchNotDraw(t *testing.T) {
	ok := []loader.Instruction{
		{Op: bytecode.OpBeginComputePass},
		{Op: bytecode.OpSetPipeline, Operands: []uint64{1}},
		{Op: bytecode.OpDispatch, Operands: []uint64{4, 4, 1}},
		{Op: bytecode.OpEndPass},
	}
	p := program(nil, map[string][]loader.Instruction{"compute": ok})
	m := backend.NewMock()
	d := dispatcher.New(m, p)
	assert.NoError(t, d.RenderFrame("compute"))

	bad := program(nil, map[string][]loader.Instruction{
		"compute": {
			{Op: bytecode.OpBeginComputePass},
			{Op: bytecode.OpDraw, Operands: []uint64{1, 1, 0, 0}},
		},
	})
	d2 := dispatcher.New(backend.NewMock(), bad)
	err := d2.RenderFrame("compute")
	var de *dispatcher.DispatchError
	assert.ErrorAs(t, err, &de)
	assert.Equal(t, dispatcher.BadState, de.Kind)
}

func TestDispatcher_BackendErrorPropagatesUnwrapped(t *testing.T) {
	p := program(nil, map[string][]loader.Instruction{
		"main": {{Op: bytecode.OpCreateBuffer, Operands: []uint64{1, 64, 0}}},
	})
	m := backend.NewMock()
	boom := assert.AnError
	m.FailOn["CreateBuffer"] = boom
	d := dispatcher.New(m, p)

	err := d.RenderFrame("main")
	assert.ErrorIs(t, err, boom)
}

func TestDispatcher_ResolvePoolIndexFollowsFrameCounter(t *testing.T) {
	p := program(nil, map[string][]loader.Instruction{
		"main": {{Op: bytecode.OpSubmit}},
	})
	d := dispatcher.New(backend.NewMock(), p)
	d.RegisterPool(7, 2)

	assert.Equal(t, uint32(0), d.ResolvePoolIndex(7, 0))
	assert.Equal(t, uint32(1), d.ResolvePoolIndex(7, 1))

	assert.NoError(t, d.RenderFrame("main"))
	assert.Equal(t, uint32(1), d.ResolvePoolIndex(7, 0))
	assert.Equal(t, uint32(0), d.ResolvePoolIndex(7, 1))
}

func TestDispatcher_UnregisteredPoolBehavesAsSizeOne(t *testing.T) {
	d := dispatcher.New(backend.NewMock(), program(nil, nil))
	assert.Equal(t, uint32(0), d.ResolvePoolIndex(99, 0))
}

func TestDispatcher_SetUniformEmitsWriteBuffer(t *testing.T) {
	p := program(nil, nil)
	m := backend.NewMock()
	d := dispatcher.New(m, p)
	tbl := uniform.Build([]string{"time"}, []bytecode.UniformBinding{
		{BufferID: 5, Fields: []bytecode.UniformField{
			{Slot: 0, NameStringID: 0, Offset: 0, Size: 4, Type: bytecode.TypeF32},
		}},
	})

	assert.NoError(t, d.SetUniform(tbl, "time", []byte{0, 0, 0, 0}))
	assert.Len(t, m.Log, 1)
	assert.Equal(t, "WriteBuffer", m.Log[0].Op)
}

func TestDispatcher_SetUniformSizeMismatchErrors(t *testing.T) {
	d := dispatcher.New(backend.NewMock(), program(nil, nil))
	tbl := uniform.Build([]string{"time"}, []bytecode.UniformBinding{
		{BufferID: 5, Fields: []bytecode.UniformField{
			{Slot: 0, NameStringID: 0, Offset: 0, Size: 4, Type: bytecode.TypeF32},
		}},
	})

	err := d.SetUniform(tbl, "time", []byte{0, 0})
	assert.Error(t, err)
	var se *uniform.SizeMismatchError
	assert.ErrorAs(t, err, &se)
}
