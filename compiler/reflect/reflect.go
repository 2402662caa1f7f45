// Package reflect extracts WGSL binding and struct layouts from shader
// source text (spec.md §4.4). It is a black-box bridge in spec terms —
// the spec treats the reflection tool itself as an external service — but
// the core must still invoke it synchronously and cache its result, so
// this package provides the default in-process resolver the emitter
// calls.
//
// Grounded on the teacher's engine/renderer/shader/wgsl_parser_backend.go
// (regex-based @group/@binding and struct scanning) and on
// other_examples/f06eda03_HugoDaniel-miniray's internal/reflect/reflect.go,
// whose ReflectResult/BindingInfo/StructLayout/FieldInfo shapes this
// package's types mirror, flattened to the dot-notation paths spec.md
// §4.4 requires.
package reflect

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// ScalarType is a WGSL uniform-address-space scalar or vector/matrix
// type, matching the §6.3 type code ordering.
type ScalarType uint8

const (
	F32 ScalarType = iota
	I32
	U32
	Vec2F
	Vec3F
	Vec4F
	Mat3x3F
	Mat4x4F
	Vec2I
	Vec3I
	Vec4I
	Vec2U
	Vec3U
	Vec4U
)

// typeSizes gives the byte size of each scalar/vector/matrix type under
// WGSL's uniform-address-space layout rules (std140-like: vec3 padded to
// 16, mat3x3 stored as three vec4 columns).
var typeSizes = map[string]struct {
	Type  ScalarType
	Size  int
	Align int
}{
	"f32":     {F32, 4, 4},
	"i32":     {I32, 4, 4},
	"u32":     {U32, 4, 4},
	"vec2f":   {Vec2F, 8, 8},
	"vec2<f32>": {Vec2F, 8, 8},
	"vec3f":   {Vec3F, 12, 16},
	"vec3<f32>": {Vec3F, 12, 16},
	"vec4f":   {Vec4F, 16, 16},
	"vec4<f32>": {Vec4F, 16, 16},
	"mat3x3f": {Mat3x3F, 48, 16},
	"mat3x3<f32>": {Mat3x3F, 48, 16},
	"mat4x4f": {Mat4x4F, 64, 16},
	"mat4x4<f32>": {Mat4x4F, 64, 16},
	"vec2i":   {Vec2I, 8, 8},
	"vec2<i32>": {Vec2I, 8, 8},
	"vec3i":   {Vec3I, 12, 16},
	"vec3<i32>": {Vec3I, 12, 16},
	"vec4i":   {Vec4I, 16, 16},
	"vec4<i32>": {Vec4I, 16, 16},
	"vec2u":   {Vec2U, 8, 8},
	"vec2<u32>": {Vec2U, 8, 8},
	"vec3u":   {Vec3U, 12, 16},
	"vec3<u32>": {Vec3U, 12, 16},
	"vec4u":   {Vec4U, 16, 16},
	"vec4<u32>": {Vec4U, 16, 16},
}

// FieldInfo is one flattened, dot-notation field of a reflected struct.
type FieldInfo struct {
	Path   string
	Offset int
	Size   int
	Type   ScalarType
}

// BindingInfo is one `@group(g) @binding(b)` resource declaration.
type BindingInfo struct {
	Group      int
	Binding    int
	VarName    string
	TypeName   string
	StructName string
	Fields     []FieldInfo
}

// EntryPointInfo names a `@vertex`/`@fragment`/`@compute` function.
type EntryPointInfo struct {
	Name  string
	Stage string
}

// Result is the cached reflection output for one shader, per spec.md
// §3.4.
type Result struct {
	EntryPoints []EntryPointInfo
	Bindings    []BindingInfo
}

// Error is the ReflectionError kind from spec.md §7: a non-fatal warning,
// the shader is still emitted but uniform-by-name features become
// unavailable for it.
type Error struct {
	Reason string
}

func (e *Error) Error() string {
	return "reflection error: " + e.Reason
}

var (
	bindingRe = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<[^>]*>)?\s+(\w+)\s*:\s*(\w+)`)
	structRe  = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)
	fieldRe   = regexp.MustCompile(`(\w+)\s*:\s*([\w<>]+)\s*,?`)
	entryRe   = regexp.MustCompile(`@(vertex|fragment|compute)[^f]*?fn\s+(\w+)`)
)

// Reflect extracts entry points and binding/struct layouts from WGSL
// source text.
//
// Parameters:
//   - src: WGSL source text, bit-identical to what will be stored in the
//     PNGB data section for this shader (spec.md §4.4's contract)
//
// Returns:
//   - Result: entry points and bindings found
//   - error: non-nil (*Error) only for conditions that make reflection
//     itself impossible (e.g. empty source); struct-layout misses for an
//     individual binding are tolerated and simply omit that binding's
//     Fields, per the spec's "failure policy"
func Reflect(src string) (Result, error) {
	if strings.TrimSpace(src) == "" {
		return Result{}, &Error{Reason: "empty shader source"}
	}

	rawBodies := map[string]string{}
	for _, m := range structRe.FindAllStringSubmatch(src, -1) {
		rawBodies[m[1]] = m[2]
	}
	structs := map[string][]FieldInfo{}
	for name := range rawBodies {
		resolveStruct(name, rawBodies, structs, map[string]bool{})
	}

	var bindings []BindingInfo
	for _, m := range bindingRe.FindAllStringSubmatch(src, -1) {
		group, _ := strconv.Atoi(m[1])
		binding, _ := strconv.Atoi(m[2])
		typeName := m[4]
		b := BindingInfo{
			Group:      group,
			Binding:    binding,
			VarName:    m[3],
			TypeName:   typeName,
			StructName: typeName,
		}
		if fields, ok := structs[typeName]; ok {
			b.Fields = fields
		}
		bindings = append(bindings, b)
	}

	var entries []EntryPointInfo
	for _, m := range entryRe.FindAllStringSubmatch(src, -1) {
		entries = append(entries, EntryPointInfo{Stage: m[1], Name: m[2]})
	}

	return Result{EntryPoints: entries, Bindings: bindings}, nil
}

// resolveStruct returns name's flattened fields, computing and memoizing
// them in structs on first use. visiting guards a self-referential struct
// type against infinite recursion (WGSL disallows these, but reflection
// tolerates malformed source per its failure policy rather than hanging).
func resolveStruct(name string, rawBodies map[string]string, structs map[string][]FieldInfo, visiting map[string]bool) []FieldInfo {
	if fields, ok := structs[name]; ok {
		return fields
	}
	if visiting[name] {
		return nil
	}
	visiting[name] = true
	fields := layoutFields(rawBodies[name], "", rawBodies, structs, visiting)
	structs[name] = fields
	return fields
}

// layoutFields parses a struct body's field list and computes each
// field's offset under WGSL's uniform-address-space alignment rules,
// then flattens to dot-notation paths sorted alphabetically with slot
// assignment left to the caller (spec.md §4.4 assigns slots after
// sorting, which compiler/emitter does when it builds the uniform
// table). A field whose type is itself a declared
// struct is recursed into and its own flattened fields are prefixed with
// the outer field's path (spec.md §4.4: "flattens nested structs to
// dot-notation paths, e.g. pos.x, color.rgb.r"), rather than silently
// dropped for not matching the scalar/vector/matrix typeSizes table.
func layoutFields(body, prefix string, rawBodies map[string]string, structs map[string][]FieldInfo, visiting map[string]bool) []FieldInfo {
	type raw struct {
		name string
		typ  string
	}
	var rawFields []raw
	for _, m := range fieldRe.FindAllStringSubmatch(body, -1) {
		rawFields = append(rawFields, raw{name: m[1], typ: strings.TrimSpace(m[2])})
	}

	var fields []FieldInfo
	offset := 0
	for _, rf := range rawFields {
		path := rf.name
		if prefix != "" {
			path = prefix + "." + rf.name
		}

		if info, ok := typeSizes[rf.typ]; ok {
			offset = alignUp(offset, info.Align)
			fields = append(fields, FieldInfo{Path: path, Offset: offset, Size: info.Size, Type: info.Type})
			offset += info.Size
			continue
		}

		if _, ok := rawBodies[rf.typ]; ok {
			nested := resolveStruct(rf.typ, rawBodies, structs, visiting)
			// Struct-typed fields align like the other composite types
			// in this table (vec3/vec4/mat3x3 all align to 16).
			base := alignUp(offset, 16)
			size := 0
			for _, nf := range nested {
				fields = append(fields, FieldInfo{Path: path + "." + nf.Path, Offset: base + nf.Offset, Size: nf.Size, Type: nf.Type})
				if end := nf.Offset + nf.Size; end > size {
					size = end
				}
			}
			offset = base + size
			continue
		}
	}

	sort.Slice(fields, func(i, j int) bool { return fields[i].Path < fields[j].Path })
	return fields
}

func alignUp(offset, align int) int {
	if align <= 0 {
		return offset
	}
	rem := offset % align
	if rem == 0 {
		return offset
	}
	return offset + (align - rem)
}

// Cache memoizes Result by shader name, per spec.md §3.4.
type Cache struct {
	byName map[string]Result
	errors map[string]error
}

// NewCache creates an empty reflection Cache.
func NewCache() *Cache {
	return &Cache{byName: map[string]Result{}, errors: map[string]error{}}
}

// Resolve returns the cached Result for name, computing and caching it
// from src on first use. A cached *Error from a prior call is returned
// again rather than re-attempting reflection.
//
// Parameters:
//   - name: the shader's declared name
//   - src: the exact post-substitution source stored in the data section
//
// Returns:
//   - Result: the (possibly empty) reflection result
//   - error: non-nil (*Error) if reflection failed for this shader
func (c *Cache) Resolve(name, src string) (Result, error) {
	if r, ok := c.byName[name]; ok {
		return r, c.errors[name]
	}
	r, err := Reflect(src)
	c.byName[name] = r
	c.errors[name] = err
	return r, err
}

// Get returns a previously resolved Result without recomputing it.
//
// Parameters:
//   - name: the shader's declared name
//
// Returns:
//   - Result: the cached result
//   - bool: whether name has been resolved yet
func (c *Cache) Get(name string) (Result, bool) {
	r, ok := c.byName[name]
	return r, ok
}
