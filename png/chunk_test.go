package png_test

import (
	"bytes"
	stdpng "image/png"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Carmen-Shannon/pngine/png"
)

// minimalPNG renders a 1x1 image through the standard library's encoder
// to get a real, valid host PNG file to embed into — spec.md §8's S4
// round-trip scenario describes "a 1x1 PNG."
func minimalPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	var buf bytes.Buffer
	assert.NoError(t, stdpng.Encode(&buf, img))
	return buf.Bytes()
}

func TestEmbedExtract_RoundTripsSmallPayload(t *testing.T) {
	host := minimalPNG(t)
	payload := []byte("PNGBtestpayload")

	embedded, err := png.Embed(host, payload)
	assert.NoError(t, err)
	assert.Greater(t, len(embedded), len(host))

	extracted, err := png.Extract(embedded)
	assert.NoError(t, err)
	assert.Equal(t, payload, extracted)
}

func TestEmbed_CompressesLargeHighlyCompressiblePayload(t *testing.T) {
	host := minimalPNG(t)
	payload := bytes.Repeat([]byte("A"), 4096)

	embedded, err := png.Embed(host, payload)
	assert.NoError(t, err)

	idx := bytes.Index(embedded, []byte(png.ChunkID))
	assert.GreaterOrEqual(t, idx, 0)
	flags := embedded[idx+len(png.ChunkID)+1]
	assert.Equal(t, byte(1), flags&1)

	extracted, err := png.Extract(embedded)
	assert.NoError(t, err)
	assert.Equal(t, payload, extracted)
}

func TestEmbed_SmallPayloadStoredUncompressed(t *testing.T) {
	host := minimalPNG(t)
	payload := []byte("short")

	embedded, err := png.Embed(host, payload)
	assert.NoError(t, err)

	idx := bytes.Index(embedded, []byte(png.ChunkID))
	assert.GreaterOrEqual(t, idx, 0)
	flags := embedded[idx+len(png.ChunkID)+1]
	assert.Equal(t, byte(0), flags&1)
}

func TestExtract_RejectsInvalidSignature(t *testing.T) {
	_, err := png.Extract([]byte("not a png"))
	assert.Error(t, err)
	var pe *png.PngError
	assert.ErrorAs(t, err, &pe)
	assert.Equal(t, png.InvalidSignature, pe.Kind)
}

func TestExtract_RejectsMissingChunk(t *testing.T) {
	host := minimalPNG(t)
	_, err := png.Extract(host)
	assert.Error(t, err)
	var pe *png.PngError
	assert.ErrorAs(t, err, &pe)
	assert.Equal(t, png.MissingChunk, pe.Kind)
}

func TestExtract_RejectsTamperedCRC(t *testing.T) {
	host := minimalPNG(t)
	embedded, err := png.Embed(host, []byte("payload"))
	assert.NoError(t, err)

	idx := bytes.Index(embedded, []byte(png.ChunkID))
	assert.GreaterOrEqual(t, idx, 0)
	tampered := append([]byte{}, embedded...)
	tampered[idx+len(png.ChunkID)] ^= 0xFF

	_, err = png.Extract(tampered)
	assert.Error(t, err)
	var pe *png.PngError
	assert.ErrorAs(t, err, &pe)
	assert.Equal(t, png.CrcMismatch, pe.Kind)
}

func TestChunkID_HasLowerUpperUpperLowerCasing(t *testing.T) {
	id := png.ChunkID
	assert.True(t, id[0] >= 'a' && id[0] <= 'z')
	assert.True(t, id[1] >= 'A' && id[1] <= 'Z')
	assert.True(t, id[2] >= 'A' && id[2] <= 'Z')
	assert.True(t, id[3] >= 'a' && id[3] <= 'z')
}
