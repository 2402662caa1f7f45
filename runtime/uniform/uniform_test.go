package uniform_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Carmen-Shannon/pngine/compiler/bytecode"
	"github.com/Carmen-Shannon/pngine/runtime/uniform"
)

func sampleStrings() []string {
	return []string{"mvp", "mvp.view", "mvp.proj", "time"}
}

func sampleBindings() []bytecode.UniformBinding {
	return []bytecode.UniformBinding{
		{
			BufferID: 1,
			Group:    0,
			Binding:  0,
			Fields: []bytecode.UniformField{
				{Slot: 0, NameStringID: 1, Offset: 0, Size: 64, Type: bytecode.TypeMat4x4F},
				{Slot: 1, NameStringID: 2, Offset: 64, Size: 64, Type: bytecode.TypeMat4x4F},
			},
		},
		{
			BufferID: 2,
			Group:    0,
			Binding:  1,
			Fields: []bytecode.UniformField{
				{Slot: 0, NameStringID: 3, Offset: 0, Size: 4, Type: bytecode.TypeF32},
			},
		},
	}
}

func TestTable_LookupLeafField(t *testing.T) {
	tbl := uniform.Build(sampleStrings(), sampleBindings())

	e, err := tbl.Lookup("time")
	assert.NoError(t, err)
	assert.Equal(t, uint32(2), e.BufferID)
	assert.Equal(t, uint32(0), e.Offset)
	assert.Equal(t, uint32(4), e.Size)
	assert.Equal(t, bytecode.TypeF32, e.Type)
}

func TestTable_LookupContiguousSubtree(t *testing.T) {
	tbl := uniform.Build(sampleStrings(), sampleBindings())

	e, err := tbl.Lookup("mvp")
	assert.NoError(t, err)
	assert.Equal(t, uint32(1), e.BufferID)
	assert.Equal(t, uint32(0), e.Offset)
	assert.Equal(t, uint32(128), e.Size)
}

func TestTable_LookupUnknownPathErrors(t *testing.T) {
	tbl := uniform.Build(sampleStrings(), sampleBindings())

	_, err := tbl.Lookup("nonexistent")
	assert.Error(t, err)
	var pe *uniform.PathError
	assert.ErrorAs(t, err, &pe)
}

func TestTable_LookupNonContiguousSubtreeErrors(t *testing.T) {
	strs := []string{"s", "s.a", "s.c"} // gap where s.b would be
	bindings := []bytecode.UniformBinding{
		{
			BufferID: 1,
			Fields: []bytecode.UniformField{
				{Slot: 0, NameStringID: 1, Offset: 0, Size: 4, Type: bytecode.TypeF32},
				{Slot: 1, NameStringID: 2, Offset: 8, Size: 4, Type: bytecode.TypeF32},
			},
		},
	}
	tbl := uniform.Build(strs, bindings)

	_, err := tbl.Lookup("s")
	assert.Error(t, err)
}

func TestTable_Names(t *testing.T) {
	tbl := uniform.Build(sampleStrings(), sampleBindings())
	assert.ElementsMatch(t, []string{"mvp.view", "mvp.proj", "time"}, tbl.Names())
}
