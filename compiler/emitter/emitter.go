// Package emitter orchestrates the full compile pipeline — lex, parse,
// analyze, reflect, encode, assemble — into a finished PNGB payload
// (spec.md §2's data flow, §4.6). Grounded on the teacher's
// engine/renderer/pipeline/pipeline_builder.go "collect declarations,
// then bake one artifact" shape, generalized from one render pipeline to
// a whole compiled program.
package emitter

import (
	"strings"

	"github.com/Carmen-Shannon/pngine/compiler/analyzer"
	"github.com/Carmen-Shannon/pngine/compiler/ast"
	"github.com/Carmen-Shannon/pngine/compiler/bytecode"
	"github.com/Carmen-Shannon/pngine/compiler/descriptor"
	"github.com/Carmen-Shannon/pngine/compiler/diagnostics"
	"github.com/Carmen-Shannon/pngine/compiler/lexer"
	"github.com/Carmen-Shannon/pngine/compiler/parser"
	"github.com/Carmen-Shannon/pngine/compiler/reflect"
)

// Result is a finished compile: the PNGB payload bytes plus every
// diagnostic recorded along the way (spec.md §7: diagnostics accumulate
// so one invocation can report more than one issue).
type Result struct {
	Payload     []byte
	Diagnostics *diagnostics.Bag
}

// Compile runs the full pipeline over DSL source text.
//
// Parameters:
//   - src: DSL source text
//
// Returns:
//   - *Result: the compiled payload and diagnostics; Payload is nil if
//     any Fatal diagnostic was recorded (no PNGB is produced — spec.md
//     §8 scenario S5)
//   - error: non-nil only for a LexError or ParseError, which abort
//     before any diagnostic accounting is possible
func Compile(src string) (*Result, error) {
	toks, err := lexer.New(src).All()
	if err != nil {
		return nil, err
	}
	tree, err := parser.New(toks).Parse()
	if err != nil {
		return nil, err
	}

	analysis, err := analyzer.Analyze(tree)
	if err != nil {
		return nil, err
	}
	if analysis.Diagnostics.HasFatal() {
		return &Result{Diagnostics: analysis.Diagnostics}, nil
	}

	e := &emission{
		tree:     tree,
		analysis: analysis,
		builder:  bytecode.NewBuilder(),
		reflects: reflect.NewCache(),
		ids:      map[int]uint32{},
	}
	e.run()

	if e.analysis.Diagnostics.HasFatal() {
		return &Result{Diagnostics: e.analysis.Diagnostics}, nil
	}
	return &Result{Payload: e.builder.Finalize(), Diagnostics: e.analysis.Diagnostics}, nil
}

type emission struct {
	tree     *ast.Tree
	analysis *analyzer.Analysis
	builder  *bytecode.Builder
	reflects *reflect.Cache

	// ids maps a declaration's AST node index to the dense id it was
	// assigned (mirrors the Symbol.ID the analyzer already computed;
	// kept here too since descriptor.Encode's Resolver interface is
	// satisfied by analysis.ResolveRef directly by name).
	ids map[int]uint32
}

func (e *emission) run() {
	e.reflectShaders()
	e.emitPreamble()
	e.emitActionSequences(analyzer.KindInit)
	e.emitActionSequences(analyzer.KindQueue)
	e.buildUniformTable()
	e.emitFrameBodies()
	e.builder.EmitEnd()
}

func (e *emission) reflectShaders() {
	for _, sym := range e.analysis.DeclOrder(analyzer.KindWgsl) {
		src := e.analysis.SubstitutedWGSL[sym.Name]
		if _, err := e.reflects.Resolve(sym.Name, src); err != nil {
			e.analysis.Diagnostics.Warnf("W-REFLECT", e.tree.Get(sym.NodeIndex).Tok.Offset, "%s", err.Error())
		}
	}
}

// emitPreamble emits the one-shot resource-creation opcodes in the
// analyzer's topological emission order.
func (e *emission) emitPreamble() {
	for _, nodeIdx := range e.analysis.EmissionOrder {
		node := e.tree.Get(nodeIdx)
		kind, _ := analyzer.KindOf(node.Tok.Text)
		sym := e.symbolFor(kind, nodeIdx)
		if sym == nil {
			continue
		}

		switch kind {
		case analyzer.KindData:
			e.emitDataDecl(sym)
		case analyzer.KindWgsl:
			e.emitShaderDecl(sym)
		case analyzer.KindBuffer:
			e.emitBufferDecl(sym)
		case analyzer.KindSampler:
			e.emitDescriptorCreate(sym, bytecode.OpCreateSampler)
		case analyzer.KindTexture:
			e.emitDescriptorCreate(sym, bytecode.OpCreateTexture)
		case analyzer.KindTextureView:
			e.emitDescriptorCreate(sym, bytecode.OpCreateTextureView)
		case analyzer.KindBindGroupLayout:
			e.emitDescriptorCreate(sym, bytecode.OpCreateBindGroupLayout)
		case analyzer.KindPipelineLayout:
			e.emitDescriptorCreate(sym, bytecode.OpCreatePipelineLayout)
		case analyzer.KindRenderPipeline:
			e.emitDescriptorCreate(sym, bytecode.OpCreateRenderPipeline)
		case analyzer.KindComputePipeline:
			e.emitDescriptorCreate(sym, bytecode.OpCreateComputePipeline)
		case analyzer.KindBindGroup:
			// A bind group naming a poolOffset is ping-pong aware
			// (spec.md §4.9.3/§4.9.4): it is re-created at the start of
			// every frame body instead of once here, so its resolved
			// physical buffer tracks the then-current frame_counter.
			if e.isDynamicBindGroup(sym) {
				continue
			}
			e.emitDescriptorCreate(sym, bytecode.OpCreateBindGroup)
		case analyzer.KindQuerySet:
			e.emitDescriptorCreate(sym, bytecode.OpCreateQuerySet)
		case analyzer.KindRenderPass, analyzer.KindComputePass:
			// Pass descriptors are data-section blobs referenced later by
			// a #frame's beginRenderPass/beginComputePass action; they
			// are not created via their own opcode.
			e.stashPassDescriptor(sym)
		}
	}
}

func (e *emission) stashPassDescriptor(sym *analyzer.Symbol) {
	bytes, err := descriptor.Encode(e.tree, sym.NodeIndex, e.builder, e.analysis)
	if err != nil {
		e.analysis.Diagnostics.Fatalf("E-DESC", e.tree.Get(sym.NodeIndex).Tok.Offset, "%s", err.Error())
		return
	}
	id := e.builder.AddData(bytes)
	e.ids[sym.NodeIndex] = id
}

func (e *emission) emitDataDecl(sym *analyzer.Symbol) {
	bytes := e.dataBytesOf(sym.NodeIndex)
	id := e.builder.AddData(bytes)
	e.ids[sym.NodeIndex] = id
}

// dataBytesOf reads a #data declaration's "bytes" property as raw UTF-8
// content. The DSL's scalar literal set has no binary-blob syntax of its
// own, so string/raw-string content is the supported way to embed fixed
// binary payloads (vertex/index data authored as packed string literals)
// from source text.
func (e *emission) dataBytesOf(declIdx int) []byte {
	for _, p := range e.tree.Children(declIdx) {
		prop := e.tree.Get(p)
		if prop.Kind != ast.Property || prop.Name != "bytes" {
			continue
		}
		vals := e.tree.Children(p)
		if len(vals) == 0 {
			continue
		}
		return []byte(e.tree.Get(vals[0]).Tok.Text)
	}
	return nil
}

func (e *emission) emitShaderDecl(sym *analyzer.Symbol) {
	src := e.analysis.SubstitutedWGSL[sym.Name]
	dataID := e.builder.AddData([]byte(src))
	e.builder.Emit(bytecode.OpCreateShader, uint64(sym.ID), uint64(dataID))
	e.ids[sym.NodeIndex] = sym.ID
}

func (e *emission) emitBufferDecl(sym *analyzer.Symbol) {
	size, usage := e.bufferSizeAndUsage(sym)
	// A pooled buffer (`pool=N`, spec.md §3.6/§4.9.3) reserves N dense
	// ids at declare time (analyzer.declare); create one physical buffer
	// per id, all sized and used identically, backing the one declared
	// name.
	for i := uint32(0); i < sym.Pool; i++ {
		e.builder.Emit(bytecode.OpCreateBuffer, uint64(sym.ID+i), uint64(size), uint64(usage))
	}
	e.ids[sym.NodeIndex] = sym.ID
}

func (e *emission) bufferSizeAndUsage(sym *analyzer.Symbol) (int64, uint32) {
	var size int64
	var usage uint32
	for _, p := range e.tree.Children(sym.NodeIndex) {
		prop := e.tree.Get(p)
		if prop.Kind != ast.Property {
			continue
		}
		vals := e.tree.Children(p)
		if len(vals) == 0 {
			continue
		}
		val := e.tree.Get(vals[0])

		switch prop.Name {
		case "size":
			if strings.Contains(val.Name, ".") {
				size = e.reflectedStructSize(val.Name)
			} else if n, err := parser.ParseInt(val); err == nil {
				size = n
			}
		case "usage":
			names := make([]string, 0)
			for _, c := range e.tree.Children(vals[0]) {
				names = append(names, e.tree.Get(c).Name)
			}
			if bits, err := descriptor.EncodeUsage(names); err == nil {
				usage = bits
			} else {
				e.analysis.Diagnostics.Fatalf("E-ENUM", e.tree.Get(p).Tok.Offset, "%s", err.Error())
			}
		}
	}
	return size, usage
}

// reflectedStructSize resolves a "shaderName.bindingVarName" expression
// to the reflected struct's total byte size: the largest offset plus size
// over all of its fields (spec.md §4.3's "size=shader.binding expressions
// resolve via the Reflection cache").
func (e *emission) reflectedStructSize(expr string) int64 {
	parts := strings.SplitN(expr, ".", 2)
	if len(parts) != 2 {
		return 0
	}
	result, ok := e.reflects.Get(parts[0])
	if !ok {
		return 0
	}
	for _, b := range result.Bindings {
		if b.VarName != parts[1] {
			continue
		}
		var maxEnd int
		for _, f := range b.Fields {
			if end := f.Offset + f.Size; end > maxEnd {
				maxEnd = end
			}
		}
		return int64(maxEnd)
	}
	return 0
}

func (e *emission) emitDescriptorCreate(sym *analyzer.Symbol, op bytecode.Op) {
	bytes, err := descriptor.Encode(e.tree, sym.NodeIndex, e.builder, e.analysis)
	if err != nil {
		e.analysis.Diagnostics.Fatalf("E-DESC", e.tree.Get(sym.NodeIndex).Tok.Offset, "%s", err.Error())
		return
	}
	dataID := e.builder.AddData(bytes)
	e.builder.Emit(op, uint64(sym.ID), uint64(dataID))
	e.ids[sym.NodeIndex] = sym.ID
}

// isDynamicBindGroup reports whether a #bindGroup declaration carries a
// `poolOffset=k` property, making it ping-pong aware (spec.md §4.9.3):
// such bind groups are re-created at the start of every frame instead of
// once in the preamble (§4.9.4).
func (e *emission) isDynamicBindGroup(sym *analyzer.Symbol) bool {
	for _, p := range e.tree.Children(sym.NodeIndex) {
		prop := e.tree.Get(p)
		if prop.Kind == ast.Property && prop.Name == "poolOffset" {
			return true
		}
	}
	return false
}

// emitDynamicBindGroups re-emits every poolOffset-bearing #bindGroup's
// create_bind_group instruction, called once at the start of each frame
// body. The dispatcher resolves the physical buffer id from the
// descriptor's pool fields against its then-current frame_counter
// (spec.md §4.9.3/§4.9.4).
func (e *emission) emitDynamicBindGroups() {
	for _, sym := range e.analysis.DeclOrder(analyzer.KindBindGroup) {
		if !e.isDynamicBindGroup(sym) {
			continue
		}
		e.emitDescriptorCreate(sym, bytecode.OpCreateBindGroup)
	}
}

func (e *emission) symbolFor(kind analyzer.Kind, nodeIdx int) *analyzer.Symbol {
	for _, sym := range e.analysis.DeclOrder(kind) {
		if sym.NodeIndex == nodeIdx {
			return sym
		}
	}
	return nil
}

// buildUniformTable constructs the optional uniform reflection table from
// every #buffer declaration carrying a `uniformOf = shaderName.varName`
// property, per spec.md §3.5 and §4.11.
func (e *emission) buildUniformTable() {
	var bindings []bytecode.UniformBinding
	for _, sym := range e.analysis.DeclOrder(analyzer.KindBuffer) {
		shaderName, varName, ok := e.uniformOfProperty(sym.NodeIndex)
		if !ok {
			continue
		}
		result, ok := e.reflects.Get(shaderName)
		if !ok {
			continue
		}
		for _, b := range result.Bindings {
			if b.VarName != varName {
				continue
			}
			binding := bytecode.UniformBinding{
				BufferID:     uint16(sym.ID),
				NameStringID: e.builder.InternString(sym.Name),
				Group:        uint8(b.Group),
				Binding:      uint8(b.Binding),
			}
			for slot, f := range b.Fields {
				binding.Fields = append(binding.Fields, bytecode.UniformField{
					Slot:         uint16(slot),
					Path:         f.Path,
					NameStringID: e.builder.InternString(f.Path),
					Offset:       uint16(f.Offset),
					Size:         uint16(f.Size),
					Type:         bytecode.UniformType(f.Type),
				})
			}
			bindings = append(bindings, binding)
		}
	}
	if len(bindings) > 0 {
		e.builder.SetUniforms(bindings)
	}
}

func (e *emission) uniformOfProperty(declIdx int) (shaderName, varName string, ok bool) {
	for _, p := range e.tree.Children(declIdx) {
		prop := e.tree.Get(p)
		if prop.Kind != ast.Property || prop.Name != "uniformOf" {
			continue
		}
		vals := e.tree.Children(p)
		if len(vals) == 0 {
			continue
		}
		val := e.tree.Get(vals[0])
		parts := strings.SplitN(val.Name, ".", 2)
		if len(parts) != 2 {
			continue
		}
		return parts[0], parts[1], true
	}
	return "", "", false
}

// emitActionSequences replays the ordered action properties of every
// declaration of kind (only Init/Queue are meaningful here) as preamble
// write opcodes.
func (e *emission) emitActionSequences(kind analyzer.Kind) {
	for _, sym := range e.analysis.DeclOrder(kind) {
		for _, p := range e.tree.Children(sym.NodeIndex) {
			prop := e.tree.Get(p)
			if prop.Kind != ast.Property {
				continue
			}
			e.emitWriteAction(sym, prop.Name, p)
		}
	}
}

func (e *emission) emitWriteAction(sym *analyzer.Symbol, action string, propIdx int) {
	vals := e.tree.Children(propIdx)
	if len(vals) == 0 {
		return
	}
	objIdx := vals[0]

	switch action {
	case "writeBuffer":
		bufID, offset, dataID, length, ok := e.writeBufferOperands(objIdx)
		if !ok {
			return
		}
		e.builder.Emit(bytecode.OpWriteBuffer, uint64(bufID), uint64(offset), uint64(dataID), uint64(length))
	case "writeTexture":
		texID, dataID, length, ok := e.writeTextureOperands(objIdx)
		if !ok {
			return
		}
		e.builder.Emit(bytecode.OpWriteTexture, uint64(texID), uint64(dataID), uint64(length))
	}
}

func (e *emission) writeBufferOperands(objIdx int) (bufID uint32, offset int64, dataID uint32, length int, ok bool) {
	var bufSym, dataSym *analyzer.Symbol
	for _, p := range e.tree.Children(objIdx) {
		prop := e.tree.Get(p)
		vals := e.tree.Children(p)
		if len(vals) == 0 {
			continue
		}
		val := e.tree.Get(vals[0])
		switch prop.Name {
		case "buffer":
			bufSym = e.refSymbol(val)
		case "data":
			dataSym = e.refSymbol(val)
		case "offset":
			if n, err := parser.ParseInt(val); err == nil {
				offset = n
			}
		}
	}
	if bufSym == nil || dataSym == nil {
		return 0, 0, 0, 0, false
	}
	dataID, hasID := e.ids[dataSym.NodeIndex]
	if !hasID {
		return 0, 0, 0, 0, false
	}
	length = len(e.dataBytesOf(dataSym.NodeIndex))
	return bufSym.ID, offset, dataID, length, true
}

func (e *emission) writeTextureOperands(objIdx int) (texID uint32, dataID uint32, length int, ok bool) {
	var texSym, dataSym *analyzer.Symbol
	for _, p := range e.tree.Children(objIdx) {
		prop := e.tree.Get(p)
		vals := e.tree.Children(p)
		if len(vals) == 0 {
			continue
		}
		val := e.tree.Get(vals[0])
		switch prop.Name {
		case "texture":
			texSym = e.refSymbol(val)
		case "data":
			dataSym = e.refSymbol(val)
		}
	}
	if texSym == nil || dataSym == nil {
		return 0, 0, 0, false
	}
	dataID, hasID := e.ids[dataSym.NodeIndex]
	if !hasID {
		return 0, 0, 0, false
	}
	length = len(e.dataBytesOf(dataSym.NodeIndex))
	return texSym.ID, dataID, length, true
}

func (e *emission) refSymbol(val ast.Node) *analyzer.Symbol {
	if val.Kind != ast.Ref {
		return nil
	}
	for k := analyzer.Kind(0); k <= analyzer.KindData; k++ {
		if sym, ok := e.analysis.Symbols(k)[val.Name]; ok {
			return sym
		}
	}
	return nil
}

// emitFrameBodies emits each #frame declaration as an OpFrameStart marker
// followed by its ordered action opcodes, per spec.md §4.9.4. No submit is
// added: a frame body ends with a submit only when its source declares one.
func (e *emission) emitFrameBodies() {
	for _, sym := range e.analysis.DeclOrder(analyzer.KindFrame) {
		nameID := e.builder.InternString(sym.Name)
		e.builder.Emit(bytecode.OpFrameStart, uint64(nameID))
		e.emitDynamicBindGroups()

		for _, p := range e.tree.Children(sym.NodeIndex) {
			prop := e.tree.Get(p)
			if prop.Kind != ast.Property {
				continue
			}
			e.emitFrameAction(prop.Name, p)
		}
	}
}

func (e *emission) emitFrameAction(action string, propIdx int) {
	vals := e.tree.Children(propIdx)

	switch action {
	case "beginRenderPass":
		if len(vals) == 0 {
			return
		}
		sym := e.refSymbol(e.tree.Get(vals[0]))
		if sym == nil {
			return
		}
		descID, ok := e.ids[sym.NodeIndex]
		if !ok {
			return
		}
		e.builder.Emit(bytecode.OpBeginRenderPass, uint64(descID))
	case "beginComputePass":
		e.builder.Emit(bytecode.OpBeginComputePass)
	case "endPass":
		e.builder.Emit(bytecode.OpEndPass)
	case "setPipeline":
		if len(vals) == 0 {
			return
		}
		sym := e.refSymbol(e.tree.Get(vals[0]))
		if sym != nil {
			e.builder.Emit(bytecode.OpSetPipeline, uint64(sym.ID))
		}
	case "setBindGroup":
		e.emitSetBindGroup(vals)
	case "setVertexBuffer":
		e.emitSetVertexBuffer(vals)
	case "setIndexBuffer":
		e.emitSetIndexBuffer(vals)
	case "draw":
		e.emitDraw(vals)
	case "drawIndexed":
		e.emitDrawIndexed(vals)
	case "dispatch":
		e.emitDispatch(vals)
	case "submit":
		e.builder.Emit(bytecode.OpSubmit)
	}
}

func intProp(tree *ast.Tree, objIdx int, name string, def int64) int64 {
	for _, p := range tree.Children(objIdx) {
		prop := tree.Get(p)
		if prop.Kind != ast.Property || prop.Name != name {
			continue
		}
		vals := tree.Children(p)
		if len(vals) == 0 {
			continue
		}
		if n, err := parser.ParseInt(tree.Get(vals[0])); err == nil {
			return n
		}
	}
	return def
}

func (e *emission) refProp(objIdx int, name string) *analyzer.Symbol {
	for _, p := range e.tree.Children(objIdx) {
		prop := e.tree.Get(p)
		if prop.Kind != ast.Property || prop.Name != name {
			continue
		}
		vals := e.tree.Children(p)
		if len(vals) == 0 {
			continue
		}
		return e.refSymbol(e.tree.Get(vals[0]))
	}
	return nil
}

func (e *emission) emitSetBindGroup(vals []int) {
	if len(vals) == 0 {
		return
	}
	objIdx := vals[0]
	slot := intProp(e.tree, objIdx, "slot", 0)
	groupSym := e.refProp(objIdx, "group")
	if groupSym == nil {
		return
	}
	var offsets []uint64
	for _, p := range e.tree.Children(objIdx) {
		prop := e.tree.Get(p)
		if prop.Kind != ast.Property || prop.Name != "dynamicOffsets" {
			continue
		}
		pv := e.tree.Children(p)
		if len(pv) == 0 {
			continue
		}
		for _, c := range e.tree.Children(pv[0]) {
			if n, err := parser.ParseInt(e.tree.Get(c)); err == nil {
				offsets = append(offsets, uint64(n))
			}
		}
	}
	operands := append([]uint64{uint64(slot), uint64(groupSym.ID), uint64(len(offsets))}, offsets...)
	e.builder.Emit(bytecode.OpSetBindGroup, operands...)
}

func (e *emission) emitSetVertexBuffer(vals []int) {
	if len(vals) == 0 {
		return
	}
	objIdx := vals[0]
	bufSym := e.refProp(objIdx, "buffer")
	if bufSym == nil {
		return
	}
	slot := intProp(e.tree, objIdx, "slot", 0)
	offset := intProp(e.tree, objIdx, "offset", 0)
	size := intProp(e.tree, objIdx, "size", 0)
	e.builder.Emit(bytecode.OpSetVertexBuffer, uint64(slot), uint64(bufSym.ID), uint64(offset), uint64(size))
}

func (e *emission) emitSetIndexBuffer(vals []int) {
	if len(vals) == 0 {
		return
	}
	objIdx := vals[0]
	bufSym := e.refProp(objIdx, "buffer")
	if bufSym == nil {
		return
	}
	format := int64(0)
	for _, p := range e.tree.Children(objIdx) {
		prop := e.tree.Get(p)
		if prop.Kind == ast.Property && prop.Name == "format" {
			pv := e.tree.Children(p)
			if len(pv) > 0 && e.tree.Get(pv[0]).Name == "uint32" {
				format = 1
			}
		}
	}
	offset := intProp(e.tree, objIdx, "offset", 0)
	e.builder.Emit(bytecode.OpSetIndexBuffer, uint64(bufSym.ID), uint64(format), uint64(offset))
}

func (e *emission) emitDraw(vals []int) {
	if len(vals) == 0 {
		e.builder.Emit(bytecode.OpDraw, 0, 1, 0, 0)
		return
	}
	node := e.tree.Get(vals[0])
	if node.Kind == ast.Scalar {
		n, _ := parser.ParseInt(node)
		e.builder.Emit(bytecode.OpDraw, uint64(n), 1, 0, 0)
		return
	}
	objIdx := vals[0]
	v := intProp(e.tree, objIdx, "vertexCount", 0)
	i := intProp(e.tree, objIdx, "instanceCount", 1)
	fv := intProp(e.tree, objIdx, "firstVertex", 0)
	fi := intProp(e.tree, objIdx, "firstInstance", 0)
	e.builder.Emit(bytecode.OpDraw, uint64(v), uint64(i), uint64(fv), uint64(fi))
}

func (e *emission) emitDrawIndexed(vals []int) {
	if len(vals) == 0 {
		return
	}
	objIdx := vals[0]
	ic := intProp(e.tree, objIdx, "indexCount", 0)
	inst := intProp(e.tree, objIdx, "instanceCount", 1)
	fi := intProp(e.tree, objIdx, "firstIndex", 0)
	bv := intProp(e.tree, objIdx, "baseVertex", 0)
	finst := intProp(e.tree, objIdx, "firstInstance", 0)
	e.builder.Emit(bytecode.OpDrawIndexed, uint64(ic), uint64(inst), uint64(fi), uint64(bv), uint64(finst))
}

func (e *emission) emitDispatch(vals []int) {
	if len(vals) == 0 {
		return
	}
	node := e.tree.Get(vals[0])
	if node.Kind == ast.Array {
		children := e.tree.Children(vals[0])
		get := func(i int) int64 {
			if i >= len(children) {
				return 1
			}
			n, _ := parser.ParseInt(e.tree.Get(children[i]))
			return n
		}
		e.builder.Emit(bytecode.OpDispatch, uint64(get(0)), uint64(get(1)), uint64(get(2)))
		return
	}
	objIdx := vals[0]
	x := intProp(e.tree, objIdx, "x", 1)
	y := intProp(e.tree, objIdx, "y", 1)
	z := intProp(e.tree, objIdx, "z", 1)
	e.builder.Emit(bytecode.OpDispatch, uint64(x), uint64(y), uint64(z))
}
