package bytecode

import (
	"encoding/binary"
	"fmt"
)

// Payload is a fully-decoded PNGB structure: everything a Loader or the
// Verify round-trip check needs, with section bytes copied out (the
// streaming, zero-copy view used at runtime lives in runtime/loader,
// which works directly off the raw bytes instead of this struct).
type Payload struct {
	Version   uint16
	Flags     uint16
	PluginSet uint32

	Strings []string
	Data    [][]byte
	Code    []byte // includes the terminal END byte

	Uniforms []UniformBinding
}

// DecodeError reports a structurally invalid PNGB payload.
type DecodeError struct {
	Reason string
}

func (e *DecodeError) Error() string { return "pngb decode error: " + e.Reason }

// Decode parses a complete PNGB payload.
//
// Parameters:
//   - b: the raw PNGB bytes (not a PNG file — see the png package for
//     chunk extraction)
//
// Returns:
//   - Payload: the decoded structure
//   - error: non-nil (*DecodeError) if the header, offsets, or any
//     section is malformed
func Decode(b []byte) (Payload, error) {
	const headerSize = 28
	if len(b) < headerSize {
		return Payload{}, &DecodeError{Reason: "payload shorter than header"}
	}
	if string(b[0:4]) != Magic {
		return Payload{}, &DecodeError{Reason: "bad magic"}
	}
	version := binary.LittleEndian.Uint16(b[4:6])
	flags := binary.LittleEndian.Uint16(b[6:8])
	pluginSet := binary.LittleEndian.Uint32(b[8:12])
	stringOff := binary.LittleEndian.Uint32(b[12:16])
	dataOff := binary.LittleEndian.Uint32(b[16:20])
	codeOff := binary.LittleEndian.Uint32(b[20:24])
	uniformOff := binary.LittleEndian.Uint32(b[24:28])

	if int(stringOff) > len(b) || int(dataOff) > len(b) || int(codeOff) > len(b) || int(uniformOff) > len(b) {
		return Payload{}, &DecodeError{Reason: "section offset out of bounds"}
	}

	strs, err := decodeStringTable(b[stringOff:dataOff])
	if err != nil {
		return Payload{}, err
	}
	data, err := decodeDataSection(b[dataOff:codeOff])
	if err != nil {
		return Payload{}, err
	}

	codeEnd := uint32(len(b))
	if uniformOff != 0 {
		codeEnd = uniformOff
	}
	if codeOff > codeEnd {
		return Payload{}, &DecodeError{Reason: "bytecode offset past end of payload"}
	}
	code := append([]byte{}, b[codeOff:codeEnd]...)

	var uniforms []UniformBinding
	if uniformOff != 0 {
		uniforms, err = decodeUniformTable(b[uniformOff:])
		if err != nil {
			return Payload{}, err
		}
	}

	return Payload{
		Version:   version,
		Flags:     flags,
		PluginSet: pluginSet,
		Strings:   strs,
		Data:      data,
		Code:      code,
		Uniforms:  uniforms,
	}, nil
}

func decodeStringTable(b []byte) ([]string, error) {
	if len(b) < 4 {
		return nil, &DecodeError{Reason: "truncated string table"}
	}
	count := binary.LittleEndian.Uint32(b[0:4])
	pos := 4
	out := make([]string, 0, count)
	for i := uint32(0); i < count; i++ {
		if pos+2 > len(b) {
			return nil, &DecodeError{Reason: "truncated string table entry"}
		}
		l := int(binary.LittleEndian.Uint16(b[pos : pos+2]))
		pos += 2
		if pos+l > len(b) {
			return nil, &DecodeError{Reason: "truncated string table bytes"}
		}
		out = append(out, string(b[pos:pos+l]))
		pos += l
	}
	return out, nil
}

func decodeDataSection(b []byte) ([][]byte, error) {
	if len(b) < 4 {
		return nil, &DecodeError{Reason: "truncated data section"}
	}
	count := binary.LittleEndian.Uint32(b[0:4])
	pos := 4
	out := make([][]byte, 0, count)
	for i := uint32(0); i < count; i++ {
		if pos+4 > len(b) {
			return nil, &DecodeError{Reason: "truncated data section entry"}
		}
		l := int(binary.LittleEndian.Uint32(b[pos : pos+4]))
		pos += 4
		if pos+l > len(b) {
			return nil, &DecodeError{Reason: "truncated data section bytes"}
		}
		blob := append([]byte{}, b[pos:pos+l]...)
		out = append(out, blob)
		pos += l
	}
	return out, nil
}

func decodeUniformTable(b []byte) ([]UniformBinding, error) {
	if len(b) < 2 {
		return nil, &DecodeError{Reason: "truncated uniform table"}
	}
	count := binary.LittleEndian.Uint16(b[0:2])
	pos := 2
	out := make([]UniformBinding, 0, count)
	for i := uint16(0); i < count; i++ {
		if pos+8 > len(b) {
			return nil, &DecodeError{Reason: "truncated uniform binding row"}
		}
		binding := UniformBinding{
			BufferID:     binary.LittleEndian.Uint16(b[pos : pos+2]),
			NameStringID: binary.LittleEndian.Uint16(b[pos+2 : pos+4]),
			Group:        b[pos+4],
			Binding:      b[pos+5],
		}
		fieldCount := binary.LittleEndian.Uint16(b[pos+6 : pos+8])
		pos += 8
		for f := uint16(0); f < fieldCount; f++ {
			if pos+10 > len(b) {
				return nil, &DecodeError{Reason: "truncated uniform field row"}
			}
			field := UniformField{
				Slot:         binary.LittleEndian.Uint16(b[pos : pos+2]),
				NameStringID: binary.LittleEndian.Uint16(b[pos+2 : pos+4]),
				Offset:       binary.LittleEndian.Uint16(b[pos+4 : pos+6]),
				Size:         binary.LittleEndian.Uint16(b[pos+6 : pos+8]),
				Type:         UniformType(b[pos+8]),
			}
			pos += 10
			binding.Fields = append(binding.Fields, field)
		}
		out = append(out, binding)
	}
	return out, nil
}

// Verify decodes payload and re-serializes the decoded structure,
// asserting the result is byte-for-byte identical to the input — spec.md
// §8's round-trip-exact invariant.
//
// Parameters:
//   - payload: a complete PNGB payload, as produced by Builder.Finalize
//
// Returns:
//   - error: non-nil if decoding fails or re-serialization diverges
func Verify(payload []byte) error {
	decoded, err := Decode(payload)
	if err != nil {
		return err
	}

	b := NewBuilder()
	for _, s := range decoded.Strings {
		b.InternString(s)
	}
	for _, d := range decoded.Data {
		b.AddData(d)
	}
	b.code = append(b.code, decoded.Code...)
	b.pluginSet = decoded.PluginSet
	b.flags = decoded.Flags
	b.SetUniforms(decoded.Uniforms)

	reserialized := b.Finalize()
	if !bytesEqual(reserialized, payload) {
		return fmt.Errorf("round-trip mismatch: %d bytes in, %d bytes out", len(payload), len(reserialized))
	}
	return nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
