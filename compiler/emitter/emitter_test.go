package emitter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Carmen-Shannon/pngine/compiler/bytecode"
	"github.com/Carmen-Shannon/pngine/compiler/emitter"
)

const triangleSource = `
#wgsl shader {
	source = """
	struct Uniforms {
		time: f32,
	}
	@group(0) @binding(0) var<uniform> u: Uniforms;
	@vertex fn vs_main() {}
	@fragment fn fs_main() {}
	"""
}

#data verts {
	bytes = "123456789012345678901234567890123456"
}

#buffer vbuf {
	size = 36
	usage = [vertex, copyDst]
}

#buffer ubuf {
	size = 4
	usage = [uniform, copyDst]
	uniformOf = shader.u
}

#bindGroupLayout bgl {
	entry = { binding = 0, buffer = @ubuf }
}

#pipelineLayout pl {
	bindGroupLayout = @bgl
}

#renderPipeline rp {
	layout = @pl
	shader = @shader
}

#bindGroup bg {
	layout = @bgl
	buffer = @ubuf
}

#renderPass pass {
	loadOp = clear
	storeOp = store
}

#init setup {
	writeBuffer = { buffer = @vbuf, data = @verts, offset = 0 }
}

#frame main {
	beginRenderPass = @pass
	setPipeline = @rp
	setBindGroup = { slot = 0, group = @bg }
	setVertexBuffer = { slot = 0, buffer = @vbuf }
	draw = { vertexCount = 3, instanceCount = 1, firstVertex = 0, firstInstance = 0 }
	endPass = {}
	submit = {}
}
`

func TestCompile_TriangleProducesValidPayload(t *testing.T) {
	result, err := emitter.Compile(triangleSource)
	assert.NoError(t, err)
	assert.False(t, result.Diagnostics.HasFatal())
	assert.NotEmpty(t, result.Payload)

	payload, err := bytecode.Decode(result.Payload)
	assert.NoError(t, err)
	assert.Equal(t, bytecode.Version, payload.Version)
	assert.NotEmpty(t, payload.Code)
	assert.NotEmpty(t, payload.Uniforms)

	assert.NoError(t, bytecode.Verify(result.Payload))
}

func TestCompile_UnresolvedReferenceProducesNoPayload(t *testing.T) {
	result, err := emitter.Compile(`
		#bindGroup bg {
			buffer = @missing
		}
	`)
	assert.NoError(t, err)
	assert.True(t, result.Diagnostics.HasFatal())
	assert.Nil(t, result.Payload)
}

func TestCompile_EmptyProgramProducesEndOnlyPayload(t *testing.T) {
	result, err := emitter.Compile(`#init noop {}`)
	assert.NoError(t, err)
	assert.False(t, result.Diagnostics.HasFatal())
	payload, err := bytecode.Decode(result.Payload)
	assert.NoError(t, err)
	assert.Equal(t, []byte{byte(bytecode.OpEnd)}, payload.Code)
}
