package backend_test

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Carmen-Shannon/pngine/compiler/descriptor"
	"github.com/Carmen-Shannon/pngine/runtime/backend"
)

func TestDecodeFields_RoundTripsMixedWidths(t *testing.T) {
	var rec []byte
	rec = append(rec, 3) // field_count

	rec = append(rec, byte(descriptor.FieldWidth))
	widthBuf := make([]byte, 4)
	binary.LittleEndian.PutUint32(widthBuf, 256)
	rec = append(rec, widthBuf...)

	rec = append(rec, byte(descriptor.FieldFormat))
	rec = append(rec, 14) // rgba8unorm's table index

	rec = append(rec, byte(descriptor.FieldLayoutAuto)) // no value bytes

	fields, err := backend.DecodeFields(rec)
	assert.NoError(t, err)
	assert.Len(t, fields, 3)
	assert.Equal(t, uint32(256), binary.LittleEndian.Uint32(fields[descriptor.FieldWidth]))
	assert.Equal(t, uint8(14), fields[descriptor.FieldFormat][0])
	assert.Empty(t, fields[descriptor.FieldLayoutAuto])
}

func TestDecodeFields_EmptyRecordIsValid(t *testing.T) {
	fields, err := backend.DecodeFields(nil)
	assert.NoError(t, err)
	assert.Empty(t, fields)
}

func TestDecodeFields_RejectsTruncatedValue(t *testing.T) {
	rec := []byte{1, byte(descriptor.FieldWidth), 0x01, 0x02}
	_, err := backend.DecodeFields(rec)
	assert.Error(t, err)
	var de *backend.MalformedDescriptorError
	assert.ErrorAs(t, err, &de)
}
