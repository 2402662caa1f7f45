// Package png implements the ancillary PNG chunk codec that carries a
// PNGB payload inside an otherwise ordinary PNG file (spec.md §4.7,
// §6.1). It works at the raw chunk level — length-prefixed blocks with a
// CRC-32 trailer — rather than through the standard library's image/png
// codec, which decodes pixels and does not expose a way to read, insert,
// or preserve an arbitrary ancillary chunk.
//
// Grounded on the teacher's engine/renderer/shader/annotations.go
// validation-error-kind pattern (a typed Kind enum plus one wrapping
// error struct) for PngError, and on stdlib hash/crc32 and compress/gzip
// for the two checksummed/compressed primitives the PNG spec itself
// already standardizes.
package png

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
)

// ChunkID is the PNGine ancillary chunk's stable 4-byte identifier:
// lowercase/uppercase/uppercase/lowercase, marking it ancillary,
// public-like, reserved-uppercase, and safe-to-copy per the PNG spec's
// chunk-naming convention (spec.md §6.1).
const ChunkID = "pNGb"

// chunkVersion is the PNGine chunk body's version byte.
const chunkVersion byte = 0x01

// flagGzip marks the chunk body's payload as gzip-compressed.
const flagGzip byte = 1 << 0

// pngSignature is the fixed 8-byte PNG file signature.
var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// maxPayloadSize bounds an extracted payload to guard against a
// corrupted or hostile length field (spec.md §4.7's "implementation-
// defined upper bound (e.g. 16 MiB)").
const maxPayloadSize = 16 * 1024 * 1024

// ErrorKind classifies a PngError, matching spec.md §4.7's kind set.
type ErrorKind int

const (
	InvalidSignature ErrorKind = iota
	MissingChunk
	UnsupportedVersion
	Decompress
	CrcMismatch
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidSignature:
		return "InvalidSignature"
	case MissingChunk:
		return "MissingChunk"
	case UnsupportedVersion:
		return "UnsupportedVersion"
	case Decompress:
		return "Decompress"
	case CrcMismatch:
		return "CrcMismatch"
	default:
		return "Unknown"
	}
}

// PngError reports a failure embedding or extracting the PNGine chunk.
type PngError struct {
	Kind   ErrorKind
	Reason string
}

func (e *PngError) Error() string {
	return fmt.Sprintf("png: %s: %s", e.Kind, e.Reason)
}

// Embed inserts a PNGB payload into host, a complete PNG file's bytes, as
// a new ancillary chunk placed immediately before IEND (spec.md §4.7).
// The payload is gzip-compressed when doing so clears the compression
// policy's threshold; otherwise it is stored raw.
//
// Parameters:
//   - host: a complete, valid PNG file's bytes
//   - payload: the raw PNGB bytes to embed
//
// Returns:
//   - []byte: host with the new chunk inserted
//   - error: non-nil (*PngError) if host is not a valid PNG or has no
//     IEND chunk
func Embed(host []byte, payload []byte) ([]byte, error) {
	if err := validateSignature(host); err != nil {
		return nil, err
	}
	iendAt, err := findIEND(host)
	if err != nil {
		return nil, err
	}

	body := buildChunkBody(payload)
	chunk := encodeChunk(ChunkID, body)

	out := make([]byte, 0, len(host)+len(chunk))
	out = append(out, host[:iendAt]...)
	out = append(out, chunk...)
	out = append(out, host[iendAt:]...)
	return out, nil
}

// buildChunkBody applies spec.md §4.7's compression policy: gzip only
// when raw exceeds 256 bytes AND the gzip result is smaller than 90% of
// raw; otherwise the payload is stored uncompressed.
func buildChunkBody(payload []byte) []byte {
	flags := byte(0)
	data := payload

	if len(payload) > 256 {
		var buf bytes.Buffer
		gz := gzip.NewWriter(&buf)
		_, _ = gz.Write(payload)
		_ = gz.Close()
		compressed := buf.Bytes()
		if len(compressed) < (len(payload)*9)/10 {
			flags |= flagGzip
			data = compressed
		}
	}

	body := make([]byte, 0, 2+len(data))
	body = append(body, chunkVersion, flags)
	body = append(body, data...)
	return body
}

// Extract locates and decodes the PNGine chunk within a PNG file's
// bytes, decompressing it if the gzip flag is set.
//
// Parameters:
//   - host: a complete PNG file's bytes
//
// Returns:
//   - []byte: the decoded PNGB payload bytes
//   - error: non-nil (*PngError) on an invalid signature, a missing
//     chunk, an unsupported version, a decompression failure, or a CRC
//     mismatch
func Extract(host []byte) ([]byte, error) {
	if err := validateSignature(host); err != nil {
		return nil, err
	}

	pos := len(pngSignature)
	for pos+8 <= len(host) {
		length := binary.BigEndian.Uint32(host[pos : pos+4])
		typeStart := pos + 4
		dataStart := typeStart + 4
		dataEnd := dataStart + int(length)
		crcEnd := dataEnd + 4
		if crcEnd > len(host) {
			break
		}

		chunkType := string(host[typeStart:dataStart])
		if chunkType == ChunkID {
			body := host[dataStart:dataEnd]
			storedCRC := binary.BigEndian.Uint32(host[dataEnd:crcEnd])
			computed := crc32.ChecksumIEEE(host[typeStart:dataEnd])
			if storedCRC != computed {
				return nil, &PngError{Kind: CrcMismatch, Reason: "chunk CRC-32 does not match"}
			}
			return decodeChunkBody(body)
		}

		pos = crcEnd
	}

	return nil, &PngError{Kind: MissingChunk, Reason: "no " + ChunkID + " chunk found"}
}

func decodeChunkBody(body []byte) ([]byte, error) {
	if len(body) < 2 {
		return nil, &PngError{Kind: UnsupportedVersion, Reason: "chunk body shorter than header"}
	}
	version := body[0]
	flags := body[1]
	payload := body[2:]

	if version != chunkVersion {
		return nil, &PngError{Kind: UnsupportedVersion, Reason: fmt.Sprintf("unsupported chunk version %d", version)}
	}

	if flags&flagGzip != 0 {
		r, err := gzip.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, &PngError{Kind: Decompress, Reason: err.Error()}
		}
		defer func() { _ = r.Close() }()
		decompressed, err := io.ReadAll(io.LimitReader(r, maxPayloadSize+1))
		if err != nil {
			return nil, &PngError{Kind: Decompress, Reason: err.Error()}
		}
		if len(decompressed) > maxPayloadSize {
			return nil, &PngError{Kind: Decompress, Reason: "decompressed payload exceeds size bound"}
		}
		return decompressed, nil
	}

	if len(payload) > maxPayloadSize {
		return nil, &PngError{Kind: Decompress, Reason: "payload exceeds size bound"}
	}
	return append([]byte{}, payload...), nil
}

func validateSignature(host []byte) error {
	if len(host) < len(pngSignature) || !bytes.Equal(host[:len(pngSignature)], pngSignature) {
		return &PngError{Kind: InvalidSignature, Reason: "missing PNG signature"}
	}
	return nil
}

// findIEND returns the byte offset of the 8-byte IEND marker pattern
// `00 00 00 00 "IEND"` (spec.md §4.7): a zero-length chunk named IEND.
func findIEND(host []byte) (int, error) {
	marker := []byte{0, 0, 0, 0, 'I', 'E', 'N', 'D'}
	idx := bytes.Index(host, marker)
	if idx < 0 {
		return 0, &PngError{Kind: MissingChunk, Reason: "no IEND chunk found"}
	}
	return idx, nil
}

// encodeChunk assembles one length-prefixed PNG chunk: length, type,
// body, and a CRC-32 over type||body.
func encodeChunk(chunkType string, body []byte) []byte {
	out := make([]byte, 0, 4+4+len(body)+4)

	lenBuf := make([]byte, 4)
	binary.BigEndian.PutUint32(lenBuf, uint32(len(body)))
	out = append(out, lenBuf...)
	out = append(out, chunkType...)
	out = append(out, body...)

	crc := crc32.ChecksumIEEE(append([]byte(chunkType), body...))
	crcBuf := make([]byte, 4)
	binary.BigEndian.PutUint32(crcBuf, crc)
	out = append(out, crcBuf...)

	return out
}
