package backend

import (
	"encoding/binary"
	"strconv"
	"sync"

	"github.com/Carmen-Shannon/pngine/compiler/descriptor"
	"github.com/cogentcore/webgpu/wgpu"
)

// Native drives a real wgpu.Device, translating decoded descriptor field
// records back into the same wgpu.*Descriptor struct literals the teacher's
// wgpuRendererBackendImpl builds by hand. It keeps one id-indexed table per
// resource kind rather than wgpuRendererBackendImpl's handful of
// scene-shaped fields (bindGroup, vertexBuffer, …), since a PNGB program's
// resources are addressed by the compiler's dense ids rather than by a
// scene graph node.
type Native struct {
	mu      sync.Mutex
	device  *wgpu.Device
	queue   *wgpu.Queue
	strings []string

	buffers         map[Handle]*wgpu.Buffer
	textures        map[Handle]*wgpu.Texture
	textureExtents  map[Handle]wgpu.Extent3D
	textureViews    map[Handle]*wgpu.TextureView
	samplers        map[Handle]*wgpu.Sampler
	shaders         map[Handle]*wgpu.ShaderModule
	bindGroupLayout map[Handle]*wgpu.BindGroupLayout
	pipelineLayout  map[Handle]*wgpu.PipelineLayout
	renderPipeline  map[Handle]*wgpu.RenderPipeline
	computePipeline map[Handle]*wgpu.ComputePipeline
	bindGroups      map[Handle]*wgpu.BindGroup
	querySets       map[Handle]*wgpu.QuerySet

	encoder     *wgpu.CommandEncoder
	renderPass  *wgpu.RenderPassEncoder
	computePass *wgpu.ComputePassEncoder
}

var _ Backend = (*Native)(nil)

// NewNative wraps an already-initialized device and its queue. Device and
// adapter acquisition follows the teacher's engine/window bring-up path and
// is out of this package's scope — callers construct the wgpu.Device the
// same way engine.go does before handing it to NewNative.
func NewNative(device *wgpu.Device, queue *wgpu.Queue) *Native {
	return &Native{
		device:          device,
		queue:           queue,
		buffers:         map[Handle]*wgpu.Buffer{},
		textures:        map[Handle]*wgpu.Texture{},
		textureExtents:  map[Handle]wgpu.Extent3D{},
		textureViews:    map[Handle]*wgpu.TextureView{},
		samplers:        map[Handle]*wgpu.Sampler{},
		shaders:         map[Handle]*wgpu.ShaderModule{},
		bindGroupLayout: map[Handle]*wgpu.BindGroupLayout{},
		pipelineLayout:  map[Handle]*wgpu.PipelineLayout{},
		renderPipeline:  map[Handle]*wgpu.RenderPipeline{},
		computePipeline: map[Handle]*wgpu.ComputePipeline{},
		bindGroups:      map[Handle]*wgpu.BindGroup{},
		querySets:       map[Handle]*wgpu.QuerySet{},
	}
}

// SetStrings gives Native the payload's string table, needed to resolve the
// handful of descriptor fields Encode interns as string ids rather than
// numeric or enum-coded values (FieldBindingType, FieldBindingVisibility).
// The dispatcher never calls it: the host calls it once, right after
// loader.Load and before replaying any opcodes, as pngine.Load does.
func (n *Native) SetStrings(strings []string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.strings = strings
}

func (n *Native) stringAt(fields map[descriptor.FieldTag][]byte, tag descriptor.FieldTag) (string, bool) {
	b, ok := fields[tag]
	if !ok || len(b) < 2 {
		return "", false
	}
	id := int(binary.LittleEndian.Uint16(b))
	if id >= len(n.strings) {
		return "", false
	}
	return n.strings[id], true
}

func u32At(fields map[descriptor.FieldTag][]byte, tag descriptor.FieldTag) (uint32, bool) {
	b, ok := fields[tag]
	if !ok || len(b) < 4 {
		return 0, false
	}
	return binary.LittleEndian.Uint32(b), true
}

func u8At(fields map[descriptor.FieldTag][]byte, tag descriptor.FieldTag) (uint8, bool) {
	b, ok := fields[tag]
	if !ok || len(b) < 1 {
		return 0, false
	}
	return b[0], true
}

func (n *Native) CreateBuffer(id Handle, size uint64, usage uint32) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	buf, err := n.device.CreateBuffer(&wgpu.BufferDescriptor{
		Size:  size,
		Usage: wgpu.BufferUsage(usage),
	})
	if err != nil {
		return err
	}
	n.buffers[id] = buf
	return nil
}

func (n *Native) CreateTexture(id Handle, desc []byte) error {
	fields, err := DecodeFields(desc)
	if err != nil {
		return err
	}
	n.mu.Lock()
	defer n.mu.Unlock()

	width, _ := u32At(fields, descriptor.FieldWidth)
	height, _ := u32At(fields, descriptor.FieldHeight)
	depth, ok := u32At(fields, descriptor.FieldDepthOrArrayLayers)
	if !ok {
		depth = 1
	}
	mip, ok := u32At(fields, descriptor.FieldMipLevelCount)
	if !ok {
		mip = 1
	}
	samples, ok := u32At(fields, descriptor.FieldSampleCount)
	if !ok {
		samples = 1
	}
	usage, _ := u32At(fields, descriptor.FieldUsage)
	format := textureFormatFromCode(codeOrZero(fields, descriptor.FieldFormat))
	dim := textureDimensionFromCode(codeOrZero(fields, descriptor.FieldDimension))
	extent := wgpu.Extent3D{Width: width, Height: height, DepthOrArrayLayers: depth}

	tex, err := n.device.CreateTexture(&wgpu.TextureDescriptor{
		Usage:         wgpu.TextureUsage(usage),
		Dimension:     dim,
		Size:          extent,
		Format:        format,
		MipLevelCount: mip,
		SampleCount:   samples,
	})
	if err != nil {
		return err
	}
	n.textures[id] = tex
	n.textureExtents[id] = extent
	return nil
}

// CreateTextureView resolves its source texture through FieldLayoutID — the
// same "what this descriptor is built from" slot CreatePipelineLayout and
// CreateBindGroup use for their own layout references, since a texture
// view has exactly one such reference and compiler/descriptor has no
// dedicated tag for it.
func (n *Native) CreateTextureView(id Handle, desc []byte) error {
	fields, err := DecodeFields(desc)
	if err != nil {
		return err
	}
	texID, _ := u32At(fields, descriptor.FieldLayoutID)
	n.mu.Lock()
	defer n.mu.Unlock()
	tex, ok := n.textures[texID]
	if !ok {
		return &MissingResourceError{Kind: "texture", ID: texID}
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		return err
	}
	n.textureViews[id] = view
	return nil
}

func (n *Native) CreateSampler(id Handle, desc []byte) error {
	fields, err := DecodeFields(desc)
	if err != nil {
		return err
	}
	n.mu.Lock()
	defer n.mu.Unlock()

	samp, err := n.device.CreateSampler(&wgpu.SamplerDescriptor{
		AddressModeU: addressModeFromCode(codeOrZero(fields, descriptor.FieldAddressModeU)),
		AddressModeV: addressModeFromCode(codeOrZero(fields, descriptor.FieldAddressModeV)),
		AddressModeW: addressModeFromCode(codeOrZero(fields, descriptor.FieldAddressModeW)),
		MagFilter:    filterModeFromCode(codeOrZero(fields, descriptor.FieldMagFilter)),
		MinFilter:    filterModeFromCode(codeOrZero(fields, descriptor.FieldMinFilter)),
		MipmapFilter: mipmapFilterFromCode(codeOrZero(fields, descriptor.FieldMipmapFilter)),
		Compare:      compareFunctionFromCode(codeOrZero(fields, descriptor.FieldCompare)),
	})
	if err != nil {
		return err
	}
	n.samplers[id] = samp
	return nil
}

func (n *Native) CreateShader(id Handle, wgslSource string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	mod, err := n.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: wgslSource},
	})
	if err != nil {
		return err
	}
	n.shaders[id] = mod
	return nil
}

// CreateBindGroupLayout builds a single-entry bind group layout from the
// group/binding/visibility/bufferType fields the encoder records for one
// `#bindGroupLayout` declaration. Each layout holds exactly one binding,
// and CreatePipelineLayout takes at most one bind group layout; layouts
// are not merged.
func (n *Native) CreateBindGroupLayout(id Handle, desc []byte) error {
	fields, err := DecodeFields(desc)
	if err != nil {
		return err
	}
	n.mu.Lock()
	defer n.mu.Unlock()

	binding, _ := u32At(fields, descriptor.FieldBindingIndex)
	visName, _ := n.stringAt(fields, descriptor.FieldBindingVisibility)
	bufTypeName, _ := n.stringAt(fields, descriptor.FieldBindingType)

	layout, err := n.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    binding,
				Visibility: shaderStageFromName(visName),
				Buffer: wgpu.BufferBindingLayout{
					Type: bufferBindingTypeFromName(bufTypeName),
				},
			},
		},
	})
	if err != nil {
		return err
	}
	n.bindGroupLayout[id] = layout
	return nil
}

func (n *Native) CreatePipelineLayout(id Handle, desc []byte) error {
	fields, err := DecodeFields(desc)
	if err != nil {
		return err
	}
	n.mu.Lock()
	defer n.mu.Unlock()

	layouts := []*wgpu.BindGroupLayout{}
	if bglID, ok := u32At(fields, descriptor.FieldLayoutID); ok {
		bgl, ok := n.bindGroupLayout[bglID]
		if !ok {
			return &MissingResourceError{Kind: "bindGroupLayout", ID: bglID}
		}
		layouts = append(layouts, bgl)
	}

	pl, err := n.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		BindGroupLayouts: layouts,
	})
	if err != nil {
		return err
	}
	n.pipelineLayout[id] = pl
	return nil
}

// CreateRenderPipeline builds a minimal wgpu.RenderPipeline: a vertex
// stage using the shader named by FieldShaderStringID with entry point
// "vs_main", the pipeline layout named by FieldLayoutID when present, and
// the pipeline's topology/cullMode/frontFace. It sets no fragment stage,
// no color targets, no vertex buffer layouts and no blend state.
func (n *Native) CreateRenderPipeline(id Handle, desc []byte) error {
	fields, err := DecodeFields(desc)
	if err != nil {
		return err
	}
	n.mu.Lock()
	defer n.mu.Unlock()

	shaderID, _ := u32At(fields, descriptor.FieldShaderStringID)
	shader, ok := n.shaders[shaderID]
	if !ok {
		return &MissingResourceError{Kind: "shader", ID: shaderID}
	}
	var layout *wgpu.PipelineLayout
	if layoutID, ok := u32At(fields, descriptor.FieldLayoutID); ok {
		layout = n.pipelineLayout[layoutID]
	}

	pipe, err := n.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     shader,
			EntryPoint: "vs_main",
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  primitiveTopologyFromCode(codeOrZero(fields, descriptor.FieldTopology)),
			CullMode:  cullModeFromCode(codeOrZero(fields, descriptor.FieldCullMode)),
			FrontFace: frontFaceFromCode(codeOrZero(fields, descriptor.FieldFrontFace)),
		},
	})
	if err != nil {
		return err
	}
	n.renderPipeline[id] = pipe
	return nil
}

func (n *Native) CreateComputePipeline(id Handle, desc []byte) error {
	fields, err := DecodeFields(desc)
	if err != nil {
		return err
	}
	n.mu.Lock()
	defer n.mu.Unlock()

	shaderID, _ := u32At(fields, descriptor.FieldShaderStringID)
	shader, ok := n.shaders[shaderID]
	if !ok {
		return &MissingResourceError{Kind: "shader", ID: shaderID}
	}
	var layout *wgpu.PipelineLayout
	if layoutID, ok := u32At(fields, descriptor.FieldLayoutID); ok {
		layout = n.pipelineLayout[layoutID]
	}

	pipe, err := n.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Layout: layout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     shader,
			EntryPoint: "cs_main",
		},
	})
	if err != nil {
		return err
	}
	n.computePipeline[id] = pipe
	return nil
}

func (n *Native) CreateBindGroup(id Handle, desc []byte) error {
	fields, err := DecodeFields(desc)
	if err != nil {
		return err
	}
	n.mu.Lock()
	defer n.mu.Unlock()

	layoutID, _ := u32At(fields, descriptor.FieldLayoutID)
	layout, ok := n.bindGroupLayout[layoutID]
	if !ok {
		return &MissingResourceError{Kind: "bindGroupLayout", ID: layoutID}
	}
	binding, _ := u32At(fields, descriptor.FieldBindingIndex)

	entry := wgpu.BindGroupEntry{Binding: binding}
	if bufID, ok := u32At(fields, descriptor.FieldBufferID); ok {
		buf, ok := n.buffers[bufID]
		if !ok {
			return &MissingResourceError{Kind: "buffer", ID: bufID}
		}
		entry.Buffer = buf
		entry.Size = wgpu.WholeSize
	} else if sampID, ok := u32At(fields, descriptor.FieldSamplerID); ok {
		samp, ok := n.samplers[sampID]
		if !ok {
			return &MissingResourceError{Kind: "sampler", ID: sampID}
		}
		entry.Sampler = samp
	} else if viewID, ok := u32At(fields, descriptor.FieldTextureViewID); ok {
		view, ok := n.textureViews[viewID]
		if !ok {
			return &MissingResourceError{Kind: "textureView", ID: viewID}
		}
		entry.TextureView = view
	}

	bg, err := n.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Layout:  layout,
		Entries: []wgpu.BindGroupEntry{entry},
	})
	if err != nil {
		return err
	}
	n.bindGroups[id] = bg
	return nil
}

// CreateQuerySet is narrow by design: spec.md's opcode set exposes query
// sets only as an addressable creation target, with no opcode yet reading
// results back out (§4.9.1's Non-goals). A timestamp-only set of the
// requested count is enough to keep the handle real.
func (n *Native) CreateQuerySet(id Handle, desc []byte) error {
	fields, err := DecodeFields(desc)
	if err != nil {
		return err
	}
	n.mu.Lock()
	defer n.mu.Unlock()

	count, _ := u32At(fields, descriptor.FieldSize)
	qs, err := n.device.CreateQuerySet(&wgpu.QuerySetDescriptor{
		Type:  wgpu.QueryTypeTimestamp,
		Count: count,
	})
	if err != nil {
		return err
	}
	n.querySets[id] = qs
	return nil
}

func (n *Native) WriteBuffer(bufferID Handle, offset uint64, data []byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	buf, ok := n.buffers[bufferID]
	if !ok {
		return &MissingResourceError{Kind: "buffer", ID: bufferID}
	}
	return n.queue.WriteBuffer(buf, offset, data)
}

// WriteTexture writes the full extent of the named texture from data, using
// the texture's own stored dimensions as the copy layout — spec.md's
// write_texture opcode carries no separate region, so a write always
// replaces the whole resource. Row stride assumes 4-byte-per-texel formats,
// which covers every texture format reachable from the DSL's own texture
// declarations (see compiler/descriptor's textureFormats table); a future
// block-compressed format would need its own stride rule.
func (n *Native) WriteTexture(textureID Handle, data []byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	tex, ok := n.textures[textureID]
	if !ok {
		return &MissingResourceError{Kind: "texture", ID: textureID}
	}
	extent := n.textureExtents[textureID]
	return n.queue.WriteTexture(
		&wgpu.ImageCopyTexture{Texture: tex, Aspect: wgpu.TextureAspectAll},
		data,
		&wgpu.TextureDataLayout{BytesPerRow: extent.Width * 4, RowsPerImage: extent.Height},
		&extent,
	)
}

// BeginRenderPass opens a new command encoder and begins a render pass on
// it with an empty wgpu.RenderPassDescriptor. desc is not decoded, here or
// by the dispatcher, so the pass has no color or depth attachments. Taking
// desc keeps the Backend interface symmetric with every other
// descriptor-based call.
func (n *Native) BeginRenderPass(desc []byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	enc, err := n.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	n.encoder = enc
	n.renderPass = enc.BeginRenderPass(&wgpu.RenderPassDescriptor{})
	return nil
}

func (n *Native) BeginComputePass() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	enc, err := n.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	n.encoder = enc
	n.computePass = enc.BeginComputePass(nil)
	return nil
}

func (n *Native) SetPipeline(id Handle) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.renderPass != nil {
		if pipe, ok := n.renderPipeline[id]; ok {
			n.renderPass.SetPipeline(pipe)
			return nil
		}
	}
	if n.computePass != nil {
		if pipe, ok := n.computePipeline[id]; ok {
			n.computePass.SetPipeline(pipe)
			return nil
		}
	}
	return &MissingResourceError{Kind: "pipeline", ID: id}
}

func (n *Native) SetBindGroup(slot uint32, groupID Handle, dynamicOffsets []uint32) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	bg, ok := n.bindGroups[groupID]
	if !ok {
		return &MissingResourceError{Kind: "bindGroup", ID: groupID}
	}
	if n.renderPass != nil {
		n.renderPass.SetBindGroup(slot, bg, dynamicOffsets)
		return nil
	}
	if n.computePass != nil {
		n.computePass.SetBindGroup(slot, bg, dynamicOffsets)
		return nil
	}
	return &BadStateError{Reason: "set_bind_group outside any pass"}
}

func (n *Native) SetVertexBuffer(slot uint32, bufferID Handle, offset, size uint64) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.renderPass == nil {
		return &BadStateError{Reason: "set_vertex_buffer outside render pass"}
	}
	buf, ok := n.buffers[bufferID]
	if !ok {
		return &MissingResourceError{Kind: "buffer", ID: bufferID}
	}
	n.renderPass.SetVertexBuffer(slot, buf, offset, size)
	return nil
}

func (n *Native) SetIndexBuffer(bufferID Handle, format uint32, offset uint64) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.renderPass == nil {
		return &BadStateError{Reason: "set_index_buffer outside render pass"}
	}
	buf, ok := n.buffers[bufferID]
	if !ok {
		return &MissingResourceError{Kind: "buffer", ID: bufferID}
	}
	n.renderPass.SetIndexBuffer(buf, indexFormatFromCode(uint8(format)), offset, wgpu.WholeSize)
	return nil
}

func (n *Native) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.renderPass == nil {
		return &BadStateError{Reason: "draw outside render pass"}
	}
	n.renderPass.Draw(vertexCount, instanceCount, firstVertex, firstInstance)
	return nil
}

func (n *Native) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.renderPass == nil {
		return &BadStateError{Reason: "draw_indexed outside render pass"}
	}
	n.renderPass.DrawIndexed(indexCount, instanceCount, firstIndex, baseVertex, firstInstance)
	return nil
}

func (n *Native) Dispatch(x, y, z uint32) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.computePass == nil {
		return &BadStateError{Reason: "dispatch outside compute pass"}
	}
	n.computePass.DispatchWorkgroups(x, y, z)
	return nil
}

func (n *Native) EndPass() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.renderPass != nil {
		n.renderPass.End()
		n.renderPass = nil
		return nil
	}
	if n.computePass != nil {
		n.computePass.End()
		n.computePass = nil
		return nil
	}
	return &BadStateError{Reason: "end_pass outside any pass"}
}

func (n *Native) Submit() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.encoder == nil {
		return &BadStateError{Reason: "submit with no pending command encoder"}
	}
	buf, err := n.encoder.Finish(nil)
	if err != nil {
		return err
	}
	n.queue.Submit(buf)
	n.encoder = nil
	return nil
}

func (n *Native) End() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.device.Release()
	return nil
}

func codeOrZero(fields map[descriptor.FieldTag][]byte, tag descriptor.FieldTag) uint8 {
	v, _ := u8At(fields, tag)
	return v
}

// MissingResourceError reports a descriptor referencing an id this backend
// has not created — either a compiler bug (a dangling analyzer reference)
// or a program driven out of declaration order.
type MissingResourceError struct {
	Kind string
	ID   Handle
}

func (e *MissingResourceError) Error() string {
	return "backend: no " + e.Kind + " with id " + strconv.FormatUint(uint64(e.ID), 10)
}

// BadStateError reports a call made outside the pass state it requires
// (spec.md §4.9.2) — a dispatcher bug if ever seen, since the dispatcher is
// meant to enforce this before the backend is called at all.
type BadStateError struct {
	Reason string
}

func (e *BadStateError) Error() string {
	return "backend: " + e.Reason
}
