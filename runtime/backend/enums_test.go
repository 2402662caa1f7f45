package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/cogentcore/webgpu/wgpu"
)

func TestBufferBindingTypeFromName(t *testing.T) {
	assert.Equal(t, wgpu.BufferBindingTypeUniform, bufferBindingTypeFromName("uniform"))
	assert.Equal(t, wgpu.BufferBindingTypeStorage, bufferBindingTypeFromName("storage"))
	assert.Equal(t, wgpu.BufferBindingTypeReadOnlyStorage, bufferBindingTypeFromName("readOnlyStorage"))
	assert.Equal(t, wgpu.BufferBindingTypeUniform, bufferBindingTypeFromName("garbage"))
}

func TestShaderStageFromName(t *testing.T) {
	assert.Equal(t, wgpu.ShaderStageVertex, shaderStageFromName("vertex"))
	assert.Equal(t, wgpu.ShaderStageFragment, shaderStageFromName("fragment"))
	assert.Equal(t, wgpu.ShaderStageCompute, shaderStageFromName("compute"))
}

func TestTextureFormatFromCode_OutOfRangeFallsBackToRGBA8Unorm(t *testing.T) {
	assert.Equal(t, wgpu.TextureFormatRGBA8Unorm, textureFormatFromCode(255))
}

func TestIndexFormatFromCode(t *testing.T) {
	assert.Equal(t, wgpu.IndexFormatUint16, indexFormatFromCode(0))
	assert.Equal(t, wgpu.IndexFormatUint32, indexFormatFromCode(1))
}
