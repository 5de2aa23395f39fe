package storage

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
	"guildpulse/internal/storage/interfaces"
)

// maxArchiveSize bounds how far a backup archive may expand on read.
const maxArchiveSize = 256 << 20

// archiveCodec packs backup archives as plain zstd frames, readable with
// the zstd command line tool.
type archiveCodec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

func NewZstdCompressor() (interfaces.CompressorInterface, error) {
	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedBetterCompression),
		zstd.WithEncoderConcurrency(1),
		zstd.WithEncoderCRC(true))
	if err != nil {
		return nil, fmt.Errorf("archive encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderMaxMemory(maxArchiveSize))
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("archive decoder: %w", err)
	}
	return &archiveCodec{enc: enc, dec: dec}, nil
}

func (c *archiveCodec) Compress(doc []byte) ([]byte, error) {
	return c.enc.EncodeAll(doc, nil), nil
}

func (c *archiveCodec) Decompress(archive []byte) ([]byte, error) {
	doc, err := c.dec.DecodeAll(archive, nil)
	if err != nil {
		return nil, fmt.Errorf("unpack archive: %w", err)
	}
	return doc, nil
}

func (c *archiveCodec) Close() {
	_ = c.enc.Close()
	c.dec.Close()
}
