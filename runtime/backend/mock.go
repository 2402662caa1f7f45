package backend

import "fmt"

// Event is one recorded Backend call, in invocation order. The validator
// (spec.md §4.12) and tests read Log to assert a dispatch sequence without
// a real device.
type Event struct {
	Op   string
	Args []any
}

func (e Event) String() string {
	return fmt.Sprintf("%s%v", e.Op, e.Args)
}

// Mock is an in-memory Backend that records every call instead of touching
// a device. Grounded on the teacher's use of a plain struct behind the
// wgpuRendererBackend interface: Mock plays the same role Native
// does, minus the wgpu.Device underneath.
//
// Mock never fails a call itself — FailOn lets a test or the validator
// inject a specific op's failure to exercise dispatcher error handling.
type Mock struct {
	Log    []Event
	FailOn map[string]error
}

// NewMock returns an empty Mock ready to receive calls.
func NewMock() *Mock {
	return &Mock{FailOn: map[string]error{}}
}

var _ Backend = (*Mock)(nil)

func (m *Mock) record(op string, args ...any) error {
	m.Log = append(m.Log, Event{Op: op, Args: args})
	if err, ok := m.FailOn[op]; ok {
		return err
	}
	return nil
}

func (m *Mock) CreateBuffer(id Handle, size uint64, usage uint32) error {
	return m.record("CreateBuffer", id, size, usage)
}

func (m *Mock) CreateTexture(id Handle, desc []byte) error {
	return m.record("CreateTexture", id, len(desc))
}

func (m *Mock) CreateSampler(id Handle, desc []byte) error {
	return m.record("CreateSampler", id, len(desc))
}

func (m *Mock) CreateShader(id Handle, wgslSource string) error {
	return m.record("CreateShader", id, len(wgslSource))
}

func (m *Mock) CreateBindGroupLayout(id Handle, desc []byte) error {
	return m.record("CreateBindGroupLayout", id, len(desc))
}

func (m *Mock) CreatePipelineLayout(id Handle, desc []byte) error {
	return m.record("CreatePipelineLayout", id, len(desc))
}

func (m *Mock) CreateRenderPipeline(id Handle, desc []byte) error {
	return m.record("CreateRenderPipeline", id, len(desc))
}

func (m *Mock) CreateComputePipeline(id Handle, desc []byte) error {
	return m.record("CreateComputePipeline", id, len(desc))
}

func (m *Mock) CreateBindGroup(id Handle, desc []byte) error {
	return m.record("CreateBindGroup", id, len(desc))
}

func (m *Mock) CreateTextureView(id Handle, desc []byte) error {
	return m.record("CreateTextureView", id, len(desc))
}

func (m *Mock) CreateQuerySet(id Handle, desc []byte) error {
	return m.record("CreateQuerySet", id, len(desc))
}

func (m *Mock) WriteBuffer(bufferID Handle, offset uint64, data []byte) error {
	return m.record("WriteBuffer", bufferID, offset, len(data))
}

func (m *Mock) WriteTexture(textureID Handle, data []byte) error {
	return m.record("WriteTexture", textureID, len(data))
}

func (m *Mock) BeginRenderPass(desc []byte) error {
	return m.record("BeginRenderPass", len(desc))
}

func (m *Mock) SetPipeline(id Handle) error {
	return m.record("SetPipeline", id)
}

func (m *Mock) SetBindGroup(slot uint32, groupID Handle, dynamicOffsets []uint32) error {
	return m.record("SetBindGroup", slot, groupID, dynamicOffsets)
}

func (m *Mock) SetVertexBuffer(slot uint32, bufferID Handle, offset, size uint64) error {
	return m.record("SetVertexBuffer", slot, bufferID, offset, size)
}

func (m *Mock) SetIndexBuffer(bufferID Handle, format uint32, offset uint64) error {
	return m.record("SetIndexBuffer", bufferID, format, offset)
}

func (m *Mock) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) error {
	return m.record("Draw", vertexCount, instanceCount, firstVertex, firstInstance)
}

func (m *Mock) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) error {
	return m.record("DrawIndexed", indexCount, instanceCount, firstIndex, baseVertex, firstInstance)
}

func (m *Mock) EndPass() error {
	return m.record("EndPass")
}

func (m *Mock) BeginComputePass() error {
	return m.record("BeginComputePass")
}

func (m *Mock) Dispatch(x, y, z uint32) error {
	return m.record("Dispatch", x, y, z)
}

func (m *Mock) Submit() error {
	return m.record("Submit")
}

func (m *Mock) End() error {
	return m.record("End")
}
