// Package descriptor serializes WebGPU-shaped descriptors to the
// self-describing typed-field binary encoding of spec.md §4.5:
// `[field_count:u8] [field_tag:u8 field_value:…]*`.
//
// Grounded on the teacher's engine/renderer/wgpu_renderer_backend.go and
// engine/renderer/pipeline/pipeline_builder.go, which build
// github.com/cogentcore/webgpu descriptor structs from string-keyed
// config; this package keeps that same string-to-enum normalization step
// but serializes the result to bytes instead of constructing Go structs
// directly, since the PNGB payload — not a live webgpu.Device — is the
// encoder's real output. runtime/backend's Native is what finally
// turns these bytes back into cogentcore/webgpu descriptor structs.
package descriptor

// FieldTag identifies a descriptor field's WebGPU attribute and, via its
// fixed value-kind, how its bytes are encoded (§4.5).
type FieldTag uint8

const (
	FieldSize FieldTag = iota + 1
	FieldUsage
	FieldFormat
	FieldWidth
	FieldHeight
	FieldDepthOrArrayLayers
	FieldMipLevelCount
	FieldSampleCount
	FieldDimension
	FieldAddressModeU
	FieldAddressModeV
	FieldAddressModeW
	FieldMagFilter
	FieldMinFilter
	FieldMipmapFilter
	FieldCompare
	FieldLodMinClamp
	FieldLodMaxClamp
	FieldMaxAnisotropy
	FieldEntryPoint
	FieldShaderStringID
	FieldTopology
	FieldCullMode
	FieldFrontFace
	FieldBlendColorOp
	FieldBlendColorSrc
	FieldBlendColorDst
	FieldBlendAlphaOp
	FieldBlendAlphaSrc
	FieldBlendAlphaDst
	FieldLoadOp
	FieldStoreOp
	FieldClearColor
	FieldViewDimension
	FieldAspect
	FieldBaseMipLevel
	FieldBaseArrayLayer
	FieldLayoutAuto
	FieldLayoutID
	FieldBindingGroup
	FieldBindingIndex
	FieldBindingVisibility
	FieldBindingType
	FieldBufferID
	FieldSamplerID
	FieldTextureViewID
	FieldOffset
	FieldPoolOffset
	FieldPoolSize
)

// usageFlags are the bitset members of GPUBufferUsage / GPUTextureUsage
// names accepted in `usage = [ ... ]` arrays; array membership ORs the
// corresponding bit into a single u32 field value.
var usageFlags = map[string]uint32{
	"mapRead":      0x0001,
	"mapWrite":     0x0002,
	"copySrc":      0x0004,
	"copyDst":      0x0008,
	"index":        0x0010,
	"vertex":       0x0020,
	"uniform":      0x0040,
	"storage":      0x0080,
	"indirect":     0x0100,
	"queryResolve": 0x0200,
	"renderAttach": 0x0010,
	"textureBind":  0x0004,
	"storageBind":  0x0008,
}

// EncodeUsage ORs together the bit values of every name in names.
//
// Parameters:
//   - names: usage flag identifiers, e.g. ["storage", "copyDst"]
//
// Returns:
//   - uint32: the combined bitset
//   - error: non-nil if any name is not a recognized usage flag
func EncodeUsage(names []string) (uint32, error) {
	var out uint32
	for _, n := range names {
		v, ok := usageFlags[n]
		if !ok {
			return 0, &UnknownEnumError{Dictionary: "usage", Value: n}
		}
		out |= v
	}
	return out, nil
}

var textureFormats = buildTable([]string{
	"r8unorm", "r8snorm", "r8uint", "r8sint",
	"rg8unorm", "rg8snorm", "rg8uint", "rg8sint",
	"r16uint", "r16sint", "r16float",
	"rg16uint", "rg16sint", "rg16float",
	"rgba8unorm", "rgba8unormSrgb", "rgba8snorm", "rgba8uint", "rgba8sint",
	"bgra8unorm", "bgra8unormSrgb",
	"rgb10a2unorm", "rg11b10ufloat", "rgb9e5ufloat",
	"rg32float", "rg32uint", "rg32sint",
	"rgba16uint", "rgba16sint", "rgba16float",
	"rgba32float", "rgba32uint", "rgba32sint",
	"depth16unorm", "depth24plus", "depth24plusStencil8", "depth32float",
})

var addressModes = buildTable([]string{"clampToEdge", "repeat", "mirrorRepeat"})
var filterModes = buildTable([]string{"nearest", "linear"})
var compareFunctions = buildTable([]string{
	"never", "less", "equal", "lessEqual", "greater", "notEqual", "greaterEqual", "always",
})
var blendFactors = buildTable([]string{
	"zero", "one", "src", "oneMinusSrc", "srcAlpha", "oneMinusSrcAlpha",
	"dst", "oneMinusDst", "dstAlpha", "oneMinusDstAlpha",
	"srcAlphaSaturated", "constant", "oneMinusConstant",
})
var blendOperations = buildTable([]string{"add", "subtract", "reverseSubtract", "min", "max"})
var loadOps = buildTable([]string{"load", "clear"})
var storeOps = buildTable([]string{"store", "discard"})
var primitiveTopologies = buildTable([]string{
	"pointList", "lineList", "lineStrip", "triangleList", "triangleStrip",
})
var cullModes = buildTable([]string{"none", "front", "back"})
var frontFaces = buildTable([]string{"ccw", "cw"})
var viewDimensions = buildTable([]string{"1d", "2d", "2dArray", "cube", "cubeArray", "3d"})
var textureAspects = buildTable([]string{"all", "depthOnly", "stencilOnly"})

func buildTable(names []string) map[string]uint8 {
	m := make(map[string]uint8, len(names))
	for i, n := range names {
		m[n] = uint8(i)
	}
	return m
}

// dictionaries maps a well-known property key name to the fixed
// dictionary the analyzer and encoder must validate its scalar value(s)
// against. Keys not present here take no enum validation (numeric,
// string, or reference values).
var dictionaries = map[string]map[string]uint8{
	"format":          textureFormats,
	"addressModeU":    addressModes,
	"addressModeV":    addressModes,
	"addressModeW":    addressModes,
	"magFilter":       filterModes,
	"minFilter":       filterModes,
	"mipmapFilter":    filterModes,
	"compare":         compareFunctions,
	"srcFactor":       blendFactors,
	"dstFactor":       blendFactors,
	"operation":       blendOperations,
	"loadOp":          loadOps,
	"storeOp":         storeOps,
	"topology":        primitiveTopologies,
	"cullMode":        cullModes,
	"frontFace":       frontFaces,
	"viewDimension":   viewDimensions,
	"aspect":          textureAspects,
}

// UnknownEnumError reports a scalar value that does not belong to the
// fixed dictionary its property key requires (spec.md §4.3: "unknown
// values fail").
type UnknownEnumError struct {
	Dictionary string
	Value      string
}

func (e *UnknownEnumError) Error() string {
	return "unknown " + e.Dictionary + " value: " + e.Value
}

// LookupEnum validates value against the dictionary registered for key,
// if any.
//
// Parameters:
//   - key: the property key, e.g. "format", "loadOp"
//   - value: the scalar identifier text to validate
//
// Returns:
//   - uint8: the normalized code for value
//   - bool: whether key has a registered dictionary at all (false means
//     the caller should treat value as a non-enum scalar)
//   - error: non-nil (*UnknownEnumError) if key has a dictionary but
//     value is not a member of it
func LookupEnum(key, value string) (uint8, bool, error) {
	dict, ok := dictionaries[key]
	if !ok {
		return 0, false, nil
	}
	code, ok := dict[value]
	if !ok {
		return 0, true, &UnknownEnumError{Dictionary: key, Value: value}
	}
	return code, true, nil
}
