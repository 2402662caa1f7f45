package bytecode_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Carmen-Shannon/pngine/compiler/bytecode"
)

func TestBuilder_InternStringIsIdempotent(t *testing.T) {
	b := bytecode.NewBuilder()
	id1 := b.InternString("time")
	id2 := b.InternString("time")
	assert.Equal(t, id1, id2)
}

func TestBuilder_FinalizeRoundTrips(t *testing.T) {
	b := bytecode.NewBuilder()
	shaderID := b.AddData([]byte("@vertex fn vs() {}"))
	_ = shaderID
	b.Emit(bytecode.OpCreateShader, 0, uint64(shaderID))
	b.Emit(bytecode.OpCreateRenderPipeline, 0, 0)
	b.Emit(bytecode.OpBeginRenderPass, 0)
	b.Emit(bytecode.OpSetPipeline, 0)
	b.Emit(bytecode.OpDraw, 3, 1, 0, 0)
	b.Emit(bytecode.OpEndPass)
	b.Emit(bytecode.OpSubmit)
	b.EmitEnd()

	payload := b.Finalize()

	decoded, err := bytecode.Decode(payload)
	assert.NoError(t, err)
	assert.Equal(t, bytecode.Version, decoded.Version)
	assert.Len(t, decoded.Data, 1)
	assert.Equal(t, []byte("@vertex fn vs() {}"), decoded.Data[0])

	assert.NoError(t, bytecode.Verify(payload))
}

func TestBuilder_WriteBufferZeroLenDataRoundTrips(t *testing.T) {
	b := bytecode.NewBuilder()
	dataID := b.AddData(nil)
	b.Emit(bytecode.OpWriteBuffer, 0, 0, uint64(dataID), 0)
	b.EmitEnd()
	payload := b.Finalize()
	decoded, err := bytecode.Decode(payload)
	assert.NoError(t, err)
	assert.Equal(t, [][]byte{{}}, orEmptySlices(decoded.Data))
}

func orEmptySlices(in [][]byte) [][]byte {
	out := make([][]byte, len(in))
	for i, b := range in {
		if b == nil {
			out[i] = []byte{}
		} else {
			out[i] = b
		}
	}
	return out
}

func TestBuilder_UniformTableRoundTrip(t *testing.T) {
	b := bytecode.NewBuilder()
	nameID := b.InternString("time")
	b.SetUniforms([]bytecode.UniformBinding{
		{
			BufferID: 0, NameStringID: b.InternString("uniforms"), Group: 0, Binding: 0,
			Fields: []bytecode.UniformField{
				{Slot: 0, Path: "time", NameStringID: nameID, Offset: 0, Size: 4, Type: bytecode.TypeF32},
			},
		},
	})
	b.EmitEnd()
	payload := b.Finalize()

	decoded, err := bytecode.Decode(payload)
	assert.NoError(t, err)
	assert.Len(t, decoded.Uniforms, 1)
	assert.Len(t, decoded.Uniforms[0].Fields, 1)
	assert.Equal(t, uint16(4), decoded.Uniforms[0].Fields[0].Size)
	assert.Equal(t, bytecode.TypeF32, decoded.Uniforms[0].Fields[0].Type)
}

func TestDecode_RejectsBadMagic(t *testing.T) {
	_, err := bytecode.Decode([]byte("not a pngb payload at all......."))
	assert.Error(t, err)
}

func TestDecode_RejectsShortPayload(t *testing.T) {
	_, err := bytecode.Decode([]byte("PNGB"))
	assert.Error(t, err)
}
