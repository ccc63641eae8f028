package pack

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the per-chunk compression algorithm.
type Compression uint8

const (
	// CompressionNone stores chunks raw.
	CompressionNone Compression = 0
	// CompressionLZ4 is fast with a modest ratio, good for hot data.
	CompressionLZ4 Compression = 1
	// CompressionZSTD trades speed for a better ratio, good for cold data.
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
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// incompressibleRatio is the cutoff above which a chunk is stored raw.
const incompressibleRatio = 0.9

// ZSTD encoder/decoder pools for efficiency
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

	dec, _ := zstd.NewReader(nil)

	return dec
}

func putZstdDecoder(dec *zstd.Decoder) {
	zstdDecoderPool.Put(dec)
}

// encodeChunk compresses data with the requested algorithm. It returns
// the encoded bytes and the compression that was actually applied:
// chunks that do not shrink below incompressibleRatio are stored raw.
func encodeChunk(data []byte, c Compression) ([]byte, Compression, error) {
	if c == CompressionNone || len(data) == 0 {
		return data, CompressionNone, nil
	}

	var (
		encoded []byte
		err     error
	)

	switch c {
	case CompressionLZ4:
		encoded, err = encodeLZ4(data)
	case CompressionZSTD:
		enc := getZstdEncoder()
		encoded = enc.EncodeAll(data, nil)
		putZstdEncoder(enc)
	default:
		return nil, 0, fmt.Errorf("pack: unknown compression: %d", c)
	}

	if err != nil {
		return nil, 0, err
	}

	if len(encoded) == 0 || float64(len(encoded)) > float64(len(data))*incompressibleRatio {
		return data, CompressionNone, nil
	}

	return encoded, c, nil
}

// encodeLZ4 returns nil for incompressible input.
func encodeLZ4(data []byte) ([]byte, error) {
	encoded := make([]byte, lz4.CompressBlockBound(len(data)))

	n, err := lz4.CompressBlock(data, encoded, nil)
	if err != nil {
		return nil, err
	}

	if n == 0 {
		return nil, nil
	}

	return encoded[:n], nil
}

// decodeChunk reverses encodeChunk. The caller supplies the raw length
// recorded in the chunk header.
func decodeChunk(enc []byte, rawLen int, c Compression) ([]byte, error) {
	switch c {
	case CompressionNone:
		if len(enc) != rawLen {
			return nil, fmt.Errorf("%w: raw chunk length %d (expected %d)", ErrCorrupt, len(enc), rawLen)
		}

		return enc, nil

	case CompressionLZ4:
		result := make([]byte, rawLen)

		n, err := lz4.UncompressBlock(enc, result)
		if err != nil {
			return nil, fmt.Errorf("pack: lz4: %w", err)
		}

		if n != rawLen {
			return nil, fmt.Errorf("%w: decompressed %d bytes (expected %d)", ErrCorrupt, n, rawLen)
		}

		return result, nil

	case CompressionZSTD:
		dec := getZstdDecoder()
		defer putZstdDecoder(dec)

		result, err := dec.DecodeAll(enc, make([]byte, 0, rawLen))
		if err != nil {
			return nil, fmt.Errorf("pack: zstd: %w", err)
		}

		if len(result) != rawLen {
			return nil, fmt.Errorf("%w: decompressed %d bytes (expected %d)", ErrCorrupt, len(result), rawLen)
		}

		return result, nil

	default:
		return nil, fmt.Errorf("pack: unknown compression: %d", c)
	}
}
