package validate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Carmen-Shannon/pngine/compiler/bytecode"
	"github.com/Carmen-Shannon/pngine/validate"
)

func buildValidProgram() []byte {
	b := bytecode.NewBuilder()
	shaderID := b.AddData([]byte("@vertex fn vs() {}"))
	passDescID := b.AddData([]byte{0}) // field_count=0: an empty, valid descriptor record
	b.Emit(bytecode.OpCreateBuffer, 1, 256, 0x20)
	b.Emit(bytecode.OpCreateShader, 2, uint64(shaderID))

	frameName := b.InternString("main")
	b.Emit(bytecode.OpFrameStart, uint64(frameName))
	b.Emit(bytecode.OpBeginRenderPass, uint64(passDescID))
	b.Emit(bytecode.OpSetVertexBuffer, 0, 1, 0, 256)
	b.Emit(bytecode.OpDraw, 3, 1, 0, 0)
	b.Emit(bytecode.OpEndPass)
	b.Emit(bytecode.OpSubmit)
	b.EmitEnd()

	return b.Finalize()
}

func TestCheck_ValidProgramHasNoFatalFindings(t *testing.T) {
	report, err := validate.Check(buildValidProgram())
	assert.NoError(t, err)
	assert.False(t, report.Fatal())
}

func TestCheck_UnresolvedIDReferenceIsFatal(t *testing.T) {
	b := bytecode.NewBuilder()
	frameName := b.InternString("main")
	b.Emit(bytecode.OpFrameStart, uint64(frameName))
	b.Emit(bytecode.OpSetIndexBuffer, 99, 0, 0)
	b.Emit(bytecode.OpSubmit)
	b.EmitEnd()

	report, err := validate.Check(b.Finalize())
	assert.NoError(t, err)
	assert.True(t, report.Fatal())
	assert.True(t, hasCode(report, "E001"))
}

func TestCheck_DuplicateIDIsFatal(t *testing.T) {
	b := bytecode.NewBuilder()
	b.Emit(bytecode.OpCreateBuffer, 1, 64, 0)
	b.Emit(bytecode.OpCreateBuffer, 1, 64, 0)
	b.EmitEnd()

	report, err := validate.Check(b.Finalize())
	assert.NoError(t, err)
	assert.True(t, hasCode(report, "E005"))
}

func TestCheck_DrawOutsideAPassIsFatal(t *testing.T) {
	b := bytecode.NewBuilder()
	frameName := b.InternString("main")
	b.Emit(bytecode.OpFrameStart, uint64(frameName))
	b.Emit(bytecode.OpDraw, 3, 1, 0, 0)
	b.Emit(bytecode.OpSubmit)
	b.EmitEnd()

	report, err := validate.Check(b.Finalize())
	assert.NoError(t, err)
	assert.True(t, hasCode(report, "E002"))
}

func TestCheck_CreatedButUnusedBufferWarns(t *testing.T) {
	b := bytecode.NewBuilder()
	b.Emit(bytecode.OpCreateBuffer, 1, 64, 0)
	b.EmitEnd()

	report, err := validate.Check(b.Finalize())
	assert.NoError(t, err)
	assert.True(t, hasCode(report, "W001"))
}

func TestCheck_LargeBufferWarns(t *testing.T) {
	b := bytecode.NewBuilder()
	b.Emit(bytecode.OpCreateBuffer, 1, 17*1024*1024, 0)
	b.EmitEnd()

	report, err := validate.Check(b.Finalize())
	assert.NoError(t, err)
	assert.True(t, hasCode(report, "W004"))
}

func hasCode(r *validate.Report, code string) bool {
	for _, f := range r.Findings {
		if f.Code == code {
			return true
		}
	}
	return false
}
