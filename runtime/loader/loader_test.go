package loader_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Carmen-Shannon/pngine/compiler/bytecode"
	"github.com/Carmen-Shannon/pngine/compiler/emitter"
	"github.com/Carmen-Shannon/pngine/runtime/loader"
)

const source = `
#wgsl shader {
	source = """
	@vertex fn vs_main() {}
	"""
}

#buffer vbuf {
	size = 36
	usage = [vertex, copyDst]
}

#renderPipeline rp {
	shader = @shader
}

#renderPass pass {
	loadOp = clear
	storeOp = store
}

#frame main {
	beginRenderPass = @pass
	setPipeline = @rp
	draw = { vertexCount = 3, instanceCount = 1, firstVertex = 0, firstInstance = 0 }
	endPass = {}
	submit = {}
}
`

func compile(t *testing.T) []byte {
	t.Helper()
	result, err := emitter.Compile(source)
	assert.NoError(t, err)
	assert.False(t, result.Diagnostics.HasFatal())
	return result.Payload
}

func TestLoad_PartitionsPreambleAndFrame(t *testing.T) {
	p, err := loader.Load(compile(t))
	assert.NoError(t, err)

	assert.NotEmpty(t, p.Preamble)
	assert.Contains(t, p.Frames, "main")
	assert.NotEmpty(t, p.Frames["main"])
	assert.Equal(t, []string{"main"}, p.FrameOrder)

	last := p.Frames["main"][len(p.Frames["main"])-1]
	assert.Equal(t, bytecode.OpSubmit, last.Op)
}

func TestLoad_RejectsBadMagic(t *testing.T) {
	_, err := loader.Load([]byte("not a pngb payload at all"))
	assert.Error(t, err)
	var pe *loader.PngbError
	assert.ErrorAs(t, err, &pe)
	assert.Equal(t, loader.BadMagic, pe.Kind)
}
