package backend

import "github.com/cogentcore/webgpu/wgpu"

// These tables invert compiler/descriptor's buildTable-assigned codes back
// into wgpu's own enum constants. Index position must track
// compiler/descriptor/enums.go's string lists exactly — each table's order
// here is copied verbatim from there.

var textureFormatByCode = []wgpu.TextureFormat{
	wgpu.TextureFormatR8Unorm, wgpu.TextureFormatR8Snorm, wgpu.TextureFormatR8Uint, wgpu.TextureFormatR8Sint,
	wgpu.TextureFormatRG8Unorm, wgpu.TextureFormatRG8Snorm, wgpu.TextureFormatRG8Uint, wgpu.TextureFormatRG8Sint,
	wgpu.TextureFormatR16Uint, wgpu.TextureFormatR16Sint, wgpu.TextureFormatR16Float,
	wgpu.TextureFormatRG16Uint, wgpu.TextureFormatRG16Sint, wgpu.TextureFormatRG16Float,
	wgpu.TextureFormatRGBA8Unorm, wgpu.TextureFormatRGBA8UnormSrgb, wgpu.TextureFormatRGBA8Snorm,
	wgpu.TextureFormatRGBA8Uint, wgpu.TextureFormatRGBA8Sint,
	wgpu.TextureFormatBGRA8Unorm, wgpu.TextureFormatBGRA8UnormSrgb,
	wgpu.TextureFormatRGB10A2Unorm, wgpu.TextureFormatRG11B10Ufloat, wgpu.TextureFormatRGB9E5Ufloat,
	wgpu.TextureFormatRG32Float, wgpu.TextureFormatRG32Uint, wgpu.TextureFormatRG32Sint,
	wgpu.TextureFormatRGBA16Uint, wgpu.TextureFormatRGBA16Sint, wgpu.TextureFormatRGBA16Float,
	wgpu.TextureFormatRGBA32Float, wgpu.TextureFormatRGBA32Uint, wgpu.TextureFormatRGBA32Sint,
	wgpu.TextureFormatDepth16Unorm, wgpu.TextureFormatDepth24Plus, wgpu.TextureFormatDepth24PlusStencil8,
	wgpu.TextureFormatDepth32Float,
}

func textureFormatFromCode(code uint8) wgpu.TextureFormat {
	if int(code) < len(textureFormatByCode) {
		return textureFormatByCode[code]
	}
	return wgpu.TextureFormatRGBA8Unorm
}

var addressModeByCode = []wgpu.AddressMode{
	wgpu.AddressModeClampToEdge, wgpu.AddressModeRepeat, wgpu.AddressModeMirrorRepeat,
}

func addressModeFromCode(code uint8) wgpu.AddressMode {
	if int(code) < len(addressModeByCode) {
		return addressModeByCode[code]
	}
	return wgpu.AddressModeClampToEdge
}

var filterModeByCode = []wgpu.FilterMode{wgpu.FilterModeNearest, wgpu.FilterModeLinear}

func filterModeFromCode(code uint8) wgpu.FilterMode {
	if int(code) < len(filterModeByCode) {
		return filterModeByCode[code]
	}
	return wgpu.FilterModeLinear
}

var mipmapFilterByCode = []wgpu.MipmapFilterMode{wgpu.MipmapFilterModeNearest, wgpu.MipmapFilterModeLinear}

func mipmapFilterFromCode(code uint8) wgpu.MipmapFilterMode {
	if int(code) < len(mipmapFilterByCode) {
		return mipmapFilterByCode[code]
	}
	return wgpu.MipmapFilterModeLinear
}

var compareFunctionByCode = []wgpu.CompareFunction{
	wgpu.CompareFunctionNever, wgpu.CompareFunctionLess, wgpu.CompareFunctionEqual,
	wgpu.CompareFunctionLessEqual, wgpu.CompareFunctionGreater, wgpu.CompareFunctionNotEqual,
	wgpu.CompareFunctionGreaterEqual, wgpu.CompareFunctionAlways,
}

func compareFunctionFromCode(code uint8) wgpu.CompareFunction {
	if int(code) < len(compareFunctionByCode) {
		return compareFunctionByCode[code]
	}
	return wgpu.CompareFunctionAlways
}

var primitiveTopologyByCode = []wgpu.PrimitiveTopology{
	wgpu.PrimitiveTopologyPointList, wgpu.PrimitiveTopologyLineList, wgpu.PrimitiveTopologyLineStrip,
	wgpu.PrimitiveTopologyTriangleList, wgpu.PrimitiveTopologyTriangleStrip,
}

func primitiveTopologyFromCode(code uint8) wgpu.PrimitiveTopology {
	if int(code) < len(primitiveTopologyByCode) {
		return primitiveTopologyByCode[code]
	}
	return wgpu.PrimitiveTopologyTriangleList
}

var cullModeByCode = []wgpu.CullMode{wgpu.CullModeNone, wgpu.CullModeFront, wgpu.CullModeBack}

func cullModeFromCode(code uint8) wgpu.CullMode {
	if int(code) < len(cullModeByCode) {
		return cullModeByCode[code]
	}
	return wgpu.CullModeNone
}

var frontFaceByCode = []wgpu.FrontFace{wgpu.FrontFaceCCW, wgpu.FrontFaceCW}

func frontFaceFromCode(code uint8) wgpu.FrontFace {
	if int(code) < len(frontFaceByCode) {
		return frontFaceByCode[code]
	}
	return wgpu.FrontFaceCCW
}

var textureDimensionByCode = []wgpu.TextureDimension{
	wgpu.TextureDimension1D, wgpu.TextureDimension2D, wgpu.TextureDimension3D,
}

// textureDimensionFromCode maps the descriptor's `dimension` property, whose
// dictionary is shared with viewDimension's wider 2D-array/cube set in
// compiler/descriptor — only the three values a create_texture descriptor
// can legally carry (1d/2d/3d) index this table; a code past them falls
// back to 2D, the overwhelmingly common case.
func textureDimensionFromCode(code uint8) wgpu.TextureDimension {
	if int(code) < len(textureDimensionByCode) {
		return textureDimensionByCode[code]
	}
	return wgpu.TextureDimension2D
}

// bufferBindingTypeFromName maps a `#bindGroupLayout` binding's bufferType
// property. bufferType carries no compiler/descriptor dictionary entry, so
// Encode interns it as a plain identifier string rather than a dictionary
// code — Native resolves the string itself via its own fixed mapping.
func bufferBindingTypeFromName(name string) wgpu.BufferBindingType {
	switch name {
	case "storage":
		return wgpu.BufferBindingTypeStorage
	case "readOnlyStorage":
		return wgpu.BufferBindingTypeReadOnlyStorage
	default:
		return wgpu.BufferBindingTypeUniform
	}
}

// shaderStageFromName maps a `#bindGroupLayout` binding's visibility
// property, another string-interned (not dictionary-coded) field. It
// yields a single stage; any name other than "fragment" or "compute" maps
// to the vertex stage.
func shaderStageFromName(name string) wgpu.ShaderStage {
	switch name {
	case "fragment":
		return wgpu.ShaderStageFragment
	case "compute":
		return wgpu.ShaderStageCompute
	default:
		return wgpu.ShaderStageVertex
	}
}

// indexFormatFromCode maps set_index_buffer's format operand (0 = 16-bit,
// 1 = 32-bit indices — the only two WebGPU supports).
func indexFormatFromCode(code uint8) wgpu.IndexFormat {
	if code == 1 {
		return wgpu.IndexFormatUint32
	}
	return wgpu.IndexFormatUint16
}
