package pack

import (
	"math"

	"github.com/hupe1980/bigio/codec"
)

type options struct {
	chunkSize   int64
	compression Compression
	codec       codec.Codec
	meta        any
	rateLimit   int64
}

// Option configures packing.
type Option func(*options)

// WithChunkSize sets the uncompressed chunk size in bytes. It must fit
// in 32 bits; out-of-range values keep the default.
func WithChunkSize(n int64) Option {
	return func(o *options) {
		if n > 0 && n <= math.MaxUint32 {
			o.chunkSize = n
		}
	}
}

// WithCompression selects the chunk compression algorithm.
func WithCompression(c Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithCodec sets the codec used to encode the metadata blob. The codec
// name is stored in the header so readers can select it back.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c != nil {
			o.codec = c
		}
	}
}

// WithMeta attaches an application metadata value to the container.
func WithMeta(v any) Option {
	return func(o *options) {
		o.meta = v
	}
}

// WithRateLimit throttles reading the payload to bytesPerSec while
// packing. Zero means unlimited.
func WithRateLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.rateLimit = bytesPerSec
	}
}

func applyOptions(opts []Option) options {
	o := options{
		chunkSize:   DefaultChunkSize,
		compression: CompressionZSTD,
		codec:       codec.Default,
	}

	for _, fn := range opts {
		fn(&o)
	}

	return o
}
