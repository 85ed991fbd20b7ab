// Copyright 2026 The Denali Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/maxponych/denali/internal/denalierr"
)

// compressLevel is pinned, not configurable: the object hash is taken
// over the compressed bytes (spec.md §3, §9), so changing the codec or
// level changes every existing object's identity. Bumping this is a
// breaking, documented compatibility decision, never a silent default.
const compressLevel = zstd.SpeedDefault

// encoders/decoders are pooled: zstd's encoder and decoder hold internal
// buffers that are expensive to allocate per call.
var (
	encoderPool = sync.Pool{
		New: func() any {
			enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(compressLevel))
			if err != nil {
				panic(fmt.Sprintf("store: failed to build zstd encoder: %v", err))
			}
			return enc
		},
	}
	decoderPool = sync.Pool{
		New: func() any {
			dec, err := zstd.NewReader(nil)
			if err != nil {
				panic(fmt.Sprintf("store: failed to build zstd decoder: %v", err))
			}
			return dec
		},
	}
)

func compress(data []byte) ([]byte, error) {
	enc := encoderPool.Get().(*zstd.Encoder)
	defer encoderPool.Put(enc)
	out := enc.EncodeAll(data, make([]byte, 0, len(data)))
	return out, nil
}

func decompress(data []byte) ([]byte, error) {
	dec := decoderPool.Get().(*zstd.Decoder)
	defer decoderPool.Put(dec)
	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, &denalierr.CompressionError{Op: "decompress", Err: err}
	}
	return out, nil
}
