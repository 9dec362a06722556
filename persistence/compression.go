package persistence

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"github.com/hupe1980/colgo/internal/hash"
	"github.com/hupe1980/colgo/model"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the algorithm of the compressed envelope.
type Compression uint8

const (
	// CompressionNone stores the table stream verbatim inside the envelope.
	CompressionNone Compression = 0
	// CompressionLZ4 uses LZ4 block compression (fast, for frequently loaded tables).
	CompressionLZ4 Compression = 1
	// CompressionZSTD uses ZSTD (better ratio, for archived tables).
	CompressionZSTD Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("Compression(%d)", uint8(c))
	}
}

// Envelope layout:
//
//	Magic            u32  "CGLZ"
//	Compression      u8
//	UncompressedSize u32
//	CompressedSize   u32
//	Checksum         u32  CRC32C of the uncompressed stream
//	Payload          [CompressedSize]byte
const (
	envelopeMagic      = 0x5A4C4743
	envelopeHeaderSize = 17

	// lz4MaxRatio bounds the expansion of an LZ4 block.
	lz4MaxRatio = 255
)

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func putZstdEncoder(enc *zstd.Encoder) {
	zstdEncoderPool.Put(enc)
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderMaxMemory(1<<32),
	)
	return dec
}

func putZstdDecoder(dec *zstd.Decoder) {
	zstdDecoderPool.Put(dec)
}

// decodeZstd decodes at most size+1 bytes so a stream that overshoots the
// declared size fails without being fully materialized.
func decodeZstd(payload []byte, size uint32) ([]byte, error) {
	dec := getZstdDecoder()
	defer putZstdDecoder(dec)

	if err := dec.Reset(bytes.NewReader(payload)); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	n, err := buf.ReadFrom(io.LimitReader(dec, int64(size)+1))
	if err != nil {
		return nil, err
	}
	if n > int64(size) {
		return nil, fmt.Errorf("stream exceeds declared size %d", size)
	}
	return buf.Bytes(), nil
}

// IsEnvelope reports whether data starts with the envelope magic.
//
// A raw table stream is misdetected only if its chunk size equals the magic
// (1514948419 rows).
func IsEnvelope(data []byte) bool {
	return len(data) >= 4 && binary.LittleEndian.Uint32(data) == envelopeMagic
}

// Compress wraps data in an envelope. If the algorithm does not shrink the
// data, it is stored with CompressionNone.
func Compress(data []byte, c Compression) ([]byte, error) {
	if uint64(len(data)) > 1<<32-1 {
		return nil, fmt.Errorf("%w: %d bytes exceed the envelope limit", model.ErrCapacityExceeded, len(data))
	}

	var payload []byte
	switch c {
	case CompressionNone:
	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return nil, fmt.Errorf("lz4: %w", err)
		}
		payload = buf[:n] // n == 0 means incompressible
	case CompressionZSTD:
		enc := getZstdEncoder()
		payload = enc.EncodeAll(data, nil)
		putZstdEncoder(enc)
	default:
		return nil, fmt.Errorf("%w: compression %d", ErrUnsupportedEncoding, c)
	}

	if len(payload) == 0 || len(payload) >= len(data) {
		c, payload = CompressionNone, data
	}

	out := make([]byte, envelopeHeaderSize, envelopeHeaderSize+len(payload))
	binary.LittleEndian.PutUint32(out[0:], envelopeMagic)
	out[4] = byte(c)
	binary.LittleEndian.PutUint32(out[5:], uint32(len(data)))
	binary.LittleEndian.PutUint32(out[9:], uint32(len(payload)))
	binary.LittleEndian.PutUint32(out[13:], hash.CRC32C(data))
	return append(out, payload...), nil
}

// Decompress unwraps an envelope and verifies its checksum.
// Any inconsistency yields model.ErrCorruptFormat.
func Decompress(env []byte) ([]byte, Compression, error) {
	if len(env) < envelopeHeaderSize {
		return nil, 0, fmt.Errorf("%w: envelope of %d bytes", model.ErrCorruptFormat, len(env))
	}
	if !IsEnvelope(env) {
		return nil, 0, fmt.Errorf("%w: bad envelope magic", model.ErrCorruptFormat)
	}
	c := Compression(env[4])
	size := binary.LittleEndian.Uint32(env[5:])
	csize := binary.LittleEndian.Uint32(env[9:])
	sum := binary.LittleEndian.Uint32(env[13:])
	payload := env[envelopeHeaderSize:]
	if uint64(csize) != uint64(len(payload)) {
		return nil, c, fmt.Errorf("%w: envelope payload is %d bytes, header says %d", model.ErrCorruptFormat, len(payload), csize)
	}

	var data []byte
	switch c {
	case CompressionNone:
		if size != csize {
			return nil, c, fmt.Errorf("%w: stored size %d, payload %d", model.ErrCorruptFormat, size, csize)
		}
		data = payload
	case CompressionLZ4:
		if uint64(size) > uint64(csize)*lz4MaxRatio+16 {
			return nil, c, fmt.Errorf("%w: lz4 size %d from %d bytes", model.ErrCorruptFormat, size, csize)
		}
		data = make([]byte, size)
		n, err := lz4.UncompressBlock(payload, data)
		if err != nil {
			return nil, c, fmt.Errorf("%w: lz4: %w", model.ErrCorruptFormat, err)
		}
		data = data[:n]
	case CompressionZSTD:
		out, err := decodeZstd(payload, size)
		if err != nil {
			return nil, c, fmt.Errorf("%w: zstd: %w", model.ErrCorruptFormat, err)
		}
		data = out
	default:
		return nil, c, fmt.Errorf("%w: compression tag %d", model.ErrCorruptFormat, c)
	}

	if uint64(len(data)) != uint64(size) {
		return nil, c, fmt.Errorf("%w: decompressed %d bytes, want %d", model.ErrCorruptFormat, len(data), size)
	}
	if hash.CRC32C(data) != sum {
		return nil, c, fmt.Errorf("%w: checksum mismatch", model.ErrCorruptFormat)
	}
	return data, c, nil
}
