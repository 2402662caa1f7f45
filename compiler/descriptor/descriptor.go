package descriptor

import (
	"strconv"

	"github.com/Carmen-Shannon/pngine/common"
	"github.com/Carmen-Shannon/pngine/compiler/ast"
)

// Interner is the subset of the bytecode builder's surface the encoder
// needs to turn string and blob values into section ids. Declared here
// (rather than importing compiler/bytecode) to avoid a package cycle,
// since compiler/bytecode itself calls Encode.
type Interner interface {
	InternString(s string) uint16
	AddData(b []byte) uint32
}

// Resolver looks up the dense id the analyzer assigned to a reference's
// target, given the reference's name.
type Resolver interface {
	ResolveRef(name string) (id uint32, ok bool)

	// PoolSizeOf returns the declared `pool=N` size of a #buffer by name
	// (spec.md §4.9.3). Used to auto-synthesize a bind group's
	// FieldPoolSize from the buffer it binds, so `poolOffset=k` is the
	// only pool-related literal a DSL author writes by hand.
	PoolSizeOf(name string) (n uint32, ok bool)
}

// keyToTag maps a property key name to the field tag it encodes as.
// Property keys with no entry here are encoded as FieldLayoutID when
// their value is a reference, or skipped otherwise — covers the common
// shape across all twelve descriptor kinds without one encoder function
// per kind.
var keyToTag = map[string]FieldTag{
	"size":               FieldSize,
	"usage":              FieldUsage,
	"format":              FieldFormat,
	"width":              FieldWidth,
	"height":             FieldHeight,
	"depthOrArrayLayers": FieldDepthOrArrayLayers,
	"mipLevelCount":      FieldMipLevelCount,
	"sampleCount":        FieldSampleCount,
	"dimension":          FieldDimension,
	"addressModeU":       FieldAddressModeU,
	"addressModeV":       FieldAddressModeV,
	"addressModeW":       FieldAddressModeW,
	"magFilter":          FieldMagFilter,
	"minFilter":          FieldMinFilter,
	"mipmapFilter":       FieldMipmapFilter,
	"compare":            FieldCompare,
	"lodMinClamp":        FieldLodMinClamp,
	"lodMaxClamp":        FieldLodMaxClamp,
	"maxAnisotropy":      FieldMaxAnisotropy,
	"entryPoint":         FieldEntryPoint,
	"shader":             FieldShaderStringID,
	"topology":           FieldTopology,
	"cullMode":           FieldCullMode,
	"frontFace":          FieldFrontFace,
	"loadOp":             FieldLoadOp,
	"storeOp":            FieldStoreOp,
	"clearColor":         FieldClearColor,
	"viewDimension":      FieldViewDimension,
	"aspect":             FieldAspect,
	"baseMipLevel":       FieldBaseMipLevel,
	"baseArrayLayer":     FieldBaseArrayLayer,
	"layout":             FieldLayoutID,
	"group":              FieldBindingGroup,
	"binding":            FieldBindingIndex,
	"visibility":         FieldBindingVisibility,
	"bufferType":         FieldBindingType,
	"buffer":             FieldBufferID,
	"sampler":            FieldSamplerID,
	"view":               FieldTextureViewID,
	"offset":             FieldOffset,
	"poolOffset":         FieldPoolOffset,
}

// Encode serializes the Property children of an Object/Macro node as a
// self-describing typed-field record (spec.md §4.5). Fields whose value
// can't be resolved to a known tag are skipped — unknown or default
// fields are omitted per the spec, not a fatal condition here; the
// analyzer is responsible for rejecting genuinely invalid declarations
// before the encoder runs.
//
// Parameters:
//   - tree: the AST the node belongs to
//   - bodyIdx: the arena index of the Macro or Object node whose direct
//     Property children should be encoded
//   - interner: string/data interning surface
//   - resolver: reference-name -> dense id resolution surface
//
// Returns:
//   - []byte: the encoded descriptor record
//   - error: non-nil if an enum value fails dictionary validation or a
//     reference cannot be resolved
func Encode(tree *ast.Tree, bodyIdx int, interner Interner, resolver Resolver) ([]byte, error) {
	props := tree.Children(bodyIdx)
	var fields []byte
	count := 0

	var bufferRefName string
	hasPoolOffset := false

	for _, p := range props {
		prop := tree.Get(p)
		if prop.Kind != ast.Property {
			continue
		}
		tag, ok := keyToTag[prop.Name]
		if !ok && prop.Name == "auto" {
			fields = append(fields, byte(FieldLayoutAuto))
			count++
			continue
		}
		valIdx := tree.Children(p)[0]
		val := tree.Get(valIdx)
		if !ok {
			if val.Kind != ast.Ref {
				continue
			}
			tag = FieldLayoutID
		}

		if tag == FieldBufferID && val.Kind == ast.Ref {
			bufferRefName = val.Name
		}
		if tag == FieldPoolOffset {
			hasPoolOffset = true
		}

		encoded, present, err := encodeValue(tree, prop.Name, tag, valIdx, val, interner, resolver)
		if err != nil {
			return nil, err
		}
		if !present {
			continue
		}
		fields = append(fields, byte(tag))
		fields = append(fields, encoded...)
		count++
	}

	// A bind group entry that names a pool offset is ping-pong aware
	// (spec.md §4.9.3): synthesize the buffer's own declared pool size
	// as a field too, so the dispatcher can resolve a physical slot
	// from the descriptor alone, with no second lookup back to the DSL.
	if hasPoolOffset && bufferRefName != "" {
		if n, ok := resolver.PoolSizeOf(bufferRefName); ok && n > 1 {
			buf := make([]byte, 4)
			common.PutUint32(buf, 0, n)
			fields = append(fields, byte(FieldPoolSize))
			fields = append(fields, buf...)
			count++
		}
	}

	out := make([]byte, 0, len(fields)+1)
	out = append(out, byte(count))
	out = append(out, fields...)
	return out, nil
}

func encodeValue(tree *ast.Tree, key string, tag FieldTag, valIdx int, val ast.Node, interner Interner, resolver Resolver) ([]byte, bool, error) {
	switch val.Kind {
	case ast.Ref:
		id, ok := resolver.ResolveRef(val.Name)
		if !ok {
			return nil, false, &UnresolvedReferenceError{Name: val.Name}
		}
		buf := make([]byte, 4)
		common.PutUint32(buf, 0, id)
		return buf, true, nil

	case ast.Array:
		// Only the usage flag set is array-valued in the descriptor
		// field surface; everything else that reaches an array is a
		// caller error the analyzer should already have rejected.
		if key != "usage" {
			return nil, false, nil
		}
		children := tree.Children(valIdx)
		names := make([]string, 0, len(children))
		for _, c := range children {
			names = append(names, tree.Get(c).Name)
		}
		bits, err := EncodeUsage(names)
		if err != nil {
			return nil, false, err
		}
		buf := make([]byte, 4)
		common.PutUint32(buf, 0, bits)
		return buf, true, nil

	case ast.Scalar:
		return encodeScalar(key, tag, val, interner)

	default:
		return nil, false, nil
	}
}

func encodeScalar(key string, tag FieldTag, val ast.Node, interner Interner) ([]byte, bool, error) {
	if code, isEnum, err := LookupEnum(key, val.Name); isEnum {
		if err != nil {
			return nil, false, err
		}
		return []byte{code}, true, nil
	}

	switch tag {
	case FieldEntryPoint:
		id := interner.InternString(val.Tok.Text)
		buf := make([]byte, 2)
		common.PutUint16(buf, 0, id)
		return buf, true, nil

	case FieldShaderStringID:
		// `shader = "u"` style references by name are handled via Ref
		// nodes above; a bare scalar here names a reflected size
		// expression like `shader.u`, stored as an interned string for
		// the emitter to resolve against the reflection cache.
		id := interner.InternString(val.Name)
		buf := make([]byte, 2)
		common.PutUint16(buf, 0, id)
		return buf, true, nil

	case FieldWidth, FieldHeight, FieldDepthOrArrayLayers, FieldMipLevelCount,
		FieldSampleCount, FieldSize, FieldMaxAnisotropy, FieldBaseMipLevel,
		FieldBaseArrayLayer, FieldBindingGroup, FieldBindingIndex, FieldOffset,
		FieldPoolOffset:
		n, err := parseIntLiteral(val)
		if err != nil {
			return nil, false, err
		}
		buf := make([]byte, 4)
		common.PutUint32(buf, 0, uint32(n))
		return buf, true, nil

	case FieldLodMinClamp, FieldLodMaxClamp:
		f, err := parseFloatLiteral(val)
		if err != nil {
			return nil, false, err
		}
		buf := make([]byte, 4)
		common.PutFloat32(buf, 0, float32(f))
		return buf, true, nil

	default:
		// Bare identifier scalar with no registered enum dictionary:
		// treat it as an interned string (covers free-form names like
		// bind group visibility stage lists handled elsewhere).
		id := interner.InternString(val.Name)
		buf := make([]byte, 2)
		common.PutUint16(buf, 0, id)
		return buf, true, nil
	}
}

func parseIntLiteral(val ast.Node) (int64, error) {
	return strconv.ParseInt(val.Tok.Text, 10, 64)
}

func parseFloatLiteral(val ast.Node) (float64, error) {
	return strconv.ParseFloat(val.Tok.Text, 64)
}

// UnresolvedReferenceError reports a "@name" value whose target the
// resolver does not recognize.
type UnresolvedReferenceError struct {
	Name string
}

func (e *UnresolvedReferenceError) Error() string {
	return "unresolved reference: @" + e.Name
}
