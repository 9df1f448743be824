/*
 * compress.go, part of godadf5.
 *
 *
 * Copyright 2026 Raul Mera <rauldotmeraatusachdotcl>
 *
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package store

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// codec identifies how a dataset payload is stored. The values are
// written to the node table, changing them breaks existing containers.
type codec uint8

const (
	codecNone codec = 0
	codecLZ4  codec = 1
	codecZstd codec = 2
)

func (c codec) String() string {
	switch c {
	case codecNone:
		return "none"
	case codecLZ4:
		return "lz4"
	case codecZstd:
		return "zstd"
	}
	return fmt.Sprintf("unknown(%d)", uint8(c))
}

// zstd encoders and decoders are safe for concurrent use, so one of each
// serves every File in the process.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("store: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("store: zstd decoder initialization failed: " + err.Error())
	}
}

var errIncompressible = errors.New("store: payload is incompressible")

// floatsToBytes lays out values little-endian and groups the bytes by
// lane (all byte 0s, then all byte 1s ...). Neighbouring field values
// share exponents, so the high lanes compress well.
func floatsToBytes(values []float64) []byte {
	n := len(values)
	out := make([]byte, 8*n)
	var tmp [8]byte
	for i, v := range values {
		binary.LittleEndian.PutUint64(tmp[:], math.Float64bits(v))
		for lane := 0; lane < 8; lane++ {
			out[lane*n+i] = tmp[lane]
		}
	}
	return out
}

func bytesToFloats(raw []byte) ([]float64, error) {
	if len(raw)%8 != 0 {
		return nil, errorf("payload size %d is not a multiple of 8", len(raw))
	}
	n := len(raw) / 8
	out := make([]float64, n)
	var tmp [8]byte
	for i := range out {
		for lane := 0; lane < 8; lane++ {
			tmp[lane] = raw[lane*n+i]
		}
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(tmp[:]))
	}
	return out, nil
}

// compress probes the payload with zstd and picks zstd for good ratios,
// LZ4 for modest ones and no compression otherwise.
func compress(raw []byte) ([]byte, codec, error) {
	if len(raw) == 0 {
		return raw, codecNone, nil
	}
	compressed := zstdEncoder.EncodeAll(raw, nil)
	ratio := float64(len(raw)) / float64(len(compressed))
	switch {
	case ratio >= 1.5:
		return compressed, codecZstd, nil
	case ratio >= 1.1:
		out, err := compressLZ4(raw)
		if errors.Is(err, errIncompressible) {
			return raw, codecNone, nil
		}
		if err != nil {
			return nil, 0, err
		}
		return out, codecLZ4, nil
	}
	return raw, codecNone, nil
}

func decompress(payload []byte, c codec, rawSize int) ([]byte, error) {
	switch c {
	case codecNone:
		if len(payload) != rawSize {
			return nil, errorf("stored payload has %d bytes, expected %d", len(payload), rawSize)
		}
		return payload, nil
	case codecLZ4:
		out := make([]byte, rawSize)
		n, err := lz4.UncompressBlock(payload, out)
		if err != nil {
			return nil, fmt.Errorf("store: lz4 decompress: %w", err)
		}
		if n != rawSize {
			return nil, errorf("lz4 decompress: got %d bytes, expected %d", n, rawSize)
		}
		return out, nil
	case codecZstd:
		out, err := zstdDecoder.DecodeAll(payload, make([]byte, 0, rawSize))
		if err != nil {
			return nil, fmt.Errorf("store: zstd decompress: %w", err)
		}
		if len(out) != rawSize {
			return nil, errorf("zstd decompress: got %d bytes, expected %d", len(out), rawSize)
		}
		return out, nil
	}
	return nil, errorf("unsupported payload codec %s", c)
}

func compressLZ4(raw []byte) ([]byte, error) {
	dst := make([]byte, lz4.CompressBlockBound(len(raw)))
	n, err := lz4.CompressBlock(raw, dst, nil)
	if err != nil {
		return nil, fmt.Errorf("store: lz4 compress: %w", err)
	}
	if n == 0 || n >= len(raw) {
		return nil, errIncompressible
	}
	return dst[:n], nil
}
