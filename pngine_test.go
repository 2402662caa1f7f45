package pngine_test

import (
	"bytes"
	"image"
	stdpng "image/png"
	"testing"

	"github.com/stretchr/testify/assert"

	pngine "github.com/Carmen-Shannon/pngine"
	"github.com/Carmen-Shannon/pngine/compiler/bytecode"
	"github.com/Carmen-Shannon/pngine/png"
	"github.com/Carmen-Shannon/pngine/runtime/backend"
)

func buildPNGB(t *testing.T) []byte {
	t.Helper()
	b := bytecode.NewBuilder()
	passDescID := b.AddData([]byte{0})
	b.Emit(bytecode.OpCreateBuffer, 1, 256, 0x20)

	timeName := b.InternString("time")
	b.SetUniforms([]bytecode.UniformBinding{
		{BufferID: 1, NameStringID: 0, Fields: []bytecode.UniformField{
			{Slot: 0, NameStringID: timeName, Offset: 0, Size: 4, Type: bytecode.TypeF32},
		}},
	})

	frameName := b.InternString("main")
	b.Emit(bytecode.OpFrameStart, uint64(frameName))
	b.Emit(bytecode.OpBeginRenderPass, uint64(passDescID))
	b.Emit(bytecode.OpDraw, 3, 1, 0, 0)
	b.Emit(bytecode.OpEndPass)
	b.Emit(bytecode.OpSubmit)
	b.EmitEnd()

	return b.Finalize()
}

func TestLoad_AcceptsBarePNGB(t *testing.T) {
	inst, err := pngine.Load(buildPNGB(t), backend.NewMock())
	assert.NoError(t, err)
	assert.Contains(t, inst.FrameNames(), "main")
}

func TestLoad_AcceptsEmbeddedPNG(t *testing.T) {
	host := minimalPNG(t)
	embedded, err := png.Embed(host, buildPNGB(t))
	assert.NoError(t, err)

	inst, err := pngine.Load(embedded, backend.NewMock())
	assert.NoError(t, err)
	assert.Contains(t, inst.FrameNames(), "main")
}

func TestInstance_RenderFrameWritesTimeUniform(t *testing.T) {
	m := backend.NewMock()
	inst, err := pngine.Load(buildPNGB(t), m)
	assert.NoError(t, err)

	assert.NoError(t, inst.RenderFrame("main", 1.5))

	found := false
	for _, ev := range m.Log {
		if ev.Op == "WriteBuffer" {
			found = true
		}
	}
	assert.True(t, found, "expected RenderFrame to write the time uniform")
}

func TestInstance_SetUniformAndUniformsIntrospection(t *testing.T) {
	inst, err := pngine.Load(buildPNGB(t), backend.NewMock())
	assert.NoError(t, err)

	infos := inst.Uniforms()
	assert.Len(t, infos, 1)
	assert.Equal(t, "time", infos[0].Path)
	assert.Equal(t, uint32(4), infos[0].Size)

	assert.NoError(t, inst.SetUniform("time", []byte{0, 0, 0, 0}))
}

func TestInstance_Destroy(t *testing.T) {
	inst, err := pngine.Load(buildPNGB(t), backend.NewMock())
	assert.NoError(t, err)
	inst.Destroy()
}

func minimalPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	var buf bytes.Buffer
	assert.NoError(t, stdpng.Encode(&buf, img))
	return buf.Bytes()
}
