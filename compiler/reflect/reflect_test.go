package reflect_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Carmen-Shannon/pngine/compiler/reflect"
)

func fieldByPath(fields []reflect.FieldInfo, path string) (reflect.FieldInfo, bool) {
	for _, f := range fields {
		if f.Path == path {
			return f, true
		}
	}
	return reflect.FieldInfo{}, false
}

func TestReflect_FlatStructFields(t *testing.T) {
	result, err := reflect.Reflect(`
		struct Uniforms {
			time: f32,
			scale: f32,
		}
		@group(0) @binding(0) var<uniform> u: Uniforms;
		@vertex fn vs_main() {}
	`)
	assert.NoError(t, err)
	assert.Len(t, result.Bindings, 1)
	fields := result.Bindings[0].Fields
	assert.Len(t, fields, 2)

	time, ok := fieldByPath(fields, "time")
	assert.True(t, ok)
	assert.Equal(t, 0, time.Offset)

	scale, ok := fieldByPath(fields, "scale")
	assert.True(t, ok)
	assert.Equal(t, 4, scale.Offset)
}

// Mirrors spec.md §4.4's own two-level nesting example: a field whose
// type is itself a struct containing a field whose type is another
// struct flattens all the way down to "color.rgb.r".
func TestReflect_TwoLevelNestedStructFlattens(t *testing.T) {
	result, err := reflect.Reflect(`
		struct RGB {
			r: f32,
			g: f32,
			b: f32,
		}
		struct ColorWrapper {
			rgb: RGB,
		}
		struct Uniforms {
			pos: vec3f,
			color: ColorWrapper,
		}
		@group(0) @binding(0) var<uniform> u: Uniforms;
		@vertex fn vs_main() {}
	`)
	assert.NoError(t, err)
	assert.Len(t, result.Bindings, 1)
	fields := result.Bindings[0].Fields

	pos, ok := fieldByPath(fields, "pos")
	assert.True(t, ok)
	assert.Equal(t, reflect.Vec3F, pos.Type)
	assert.Equal(t, 12, pos.Size)

	r, ok := fieldByPath(fields, "color.rgb.r")
	assert.True(t, ok, "expected a flattened color.rgb.r field, got %+v", fields)
	assert.Equal(t, reflect.F32, r.Type)
	assert.Equal(t, 4, r.Size)

	g, ok := fieldByPath(fields, "color.rgb.g")
	assert.True(t, ok)
	b, ok := fieldByPath(fields, "color.rgb.b")
	assert.True(t, ok)
	assert.NotEqual(t, g.Offset, b.Offset)
	assert.NotEqual(t, g.Offset, r.Offset)

	assert.Len(t, fields, 4)
}

// A struct reused as the type of two different outer fields flattens
// independently under each field's own prefix rather than sharing offsets.
func TestReflect_SharedNestedStructFlattensUnderEachField(t *testing.T) {
	result, err := reflect.Reflect(`
		struct Vec2 {
			x: f32,
			y: f32,
		}
		struct Uniforms {
			a: Vec2,
			b: Vec2,
		}
		@group(0) @binding(0) var<uniform> u: Uniforms;
		@compute @workgroup_size(1) fn cs_main() {}
	`)
	assert.NoError(t, err)
	fields := result.Bindings[0].Fields

	ax, ok := fieldByPath(fields, "a.x")
	assert.True(t, ok)
	bx, ok := fieldByPath(fields, "b.x")
	assert.True(t, ok)
	assert.NotEqual(t, ax.Offset, bx.Offset)
}
