package mirror

import (
	"bytes"
	"errors"
	"fmt"
	"pickme/internal/mirror/interfaces"

	"github.com/klauspost/compress/zstd"
)

// zstdMagic opens every zstd frame.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

var ErrUnknownEncoding = errors.New("mirror: neither zstd nor JSON")

// ZstdCompression compresses mirror files. Decompress also accepts a plain
// JSON document, so a hand-written state file can be dropped in place of
// the mirror.
type ZstdCompression struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

func (z *ZstdCompression) Compress(val []byte) ([]byte, error) {
	return z.encoder.EncodeAll(val, make([]byte, 0, len(val)/2)), nil
}

func (z *ZstdCompression) Decompress(val []byte) ([]byte, error) {
	if bytes.HasPrefix(val, zstdMagic) {
		out, err := z.decoder.DecodeAll(val, nil)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		return out, nil
	}
	if trimmed := bytes.TrimSpace(val); len(trimmed) > 0 && trimmed[0] == '{' {
		return val, nil
	}
	return nil, ErrUnknownEncoding
}

func NewZstdCompressor() (interfaces.CompressorInterface, error) {
	encoder, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedBetterCompression),
		zstd.WithEncoderConcurrency(1),
		zstd.WithEncoderCRC(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return &ZstdCompression{encoder: encoder, decoder: decoder}, nil
}
