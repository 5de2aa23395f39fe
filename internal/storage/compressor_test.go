package storage

import (
	"bytes"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchiveCodec_Roundtrip(t *testing.T) {
	c, err := NewZstdCompressor()
	require.NoError(t, err)
	defer c.Close()

	original := []byte(`{"version":2,"profiles":[{"id":"1","xp":42}]}`)
	compressed, err := c.Compress(original)
	require.NoError(t, err)
	assert.NotEqual(t, original, compressed)

	decompressed, err := c.Decompress(compressed)
	require.NoError(t, err)
	assert.Equal(t, original, decompressed)
}

func TestArchiveCodec_EmptyData(t *testing.T) {
	c, err := NewZstdCompressor()
	require.NoError(t, err)
	defer c.Close()

	compressed, err := c.Compress([]byte{})
	require.NoError(t, err)

	decompressed, err := c.Decompress(compressed)
	require.NoError(t, err)
	assert.Empty(t, decompressed)
}

func TestArchiveCodec_LargeData(t *testing.T) {
	c, err := NewZstdCompressor()
	require.NoError(t, err)
	defer c.Close()

	original := bytes.Repeat([]byte(`{"xp":10,"level":1},`), 50_000)
	compressed, err := c.Compress(original)
	require.NoError(t, err)
	assert.Less(t, len(compressed), len(original)/2)

	decompressed, err := c.Decompress(compressed)
	require.NoError(t, err)
	assert.Equal(t, original, decompressed)
}

func TestArchiveCodec_DecompressInvalidData(t *testing.T) {
	c, err := NewZstdCompressor()
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Decompress([]byte("not valid zstd data"))
	assert.ErrorContains(t, err, "unpack archive")
}

func TestArchiveCodec_PlainZstdFrame(t *testing.T) {
	c, err := NewZstdCompressor()
	require.NoError(t, err)
	defer c.Close()

	packed, err := c.Compress([]byte(`{"takenAt":"2026-05-01T12:00:00Z"}`))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x28, 0xb5, 0x2f, 0xfd}, packed[:4])

	dec, err := zstd.NewReader(nil)
	require.NoError(t, err)
	defer dec.Close()
	doc, err := dec.DecodeAll(packed, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"takenAt":"2026-05-01T12:00:00Z"}`, string(doc))
}

func TestArchiveCodec_TruncatedArchive(t *testing.T) {
	c, err := NewZstdCompressor()
	require.NoError(t, err)
	defer c.Close()

	packed, err := c.Compress(bytes.Repeat([]byte("guild "), 1000))
	require.NoError(t, err)

	_, err = c.Decompress(packed[:len(packed)-6])
	assert.Error(t, err)
}
