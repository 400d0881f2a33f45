// Package testutil provides reusable helpers for bit-exact splitter tests.
package testutil

import (
	"bytes"
	"testing"

	"github.com/icza/bitio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bitsPerByte = 8

// maxReadChunk is the largest bit count bitio can read in one call.
const maxReadChunk = 64

// ReferenceBits returns n bits of data starting at absolute bit position
// start, repacked MSB-first from bit 0 of byte 0. It goes through
// icza/bitio one bit at a time, independent of the production shift-merge
// path, so the two can be compared against each other.
func ReferenceBits(t *testing.T, data []byte, start, n int64) []byte {
	t.Helper()

	r := bitio.NewReader(bytes.NewReader(data))
	for skip := start; skip > 0; {
		chunk := uint8(maxReadChunk)
		if skip < maxReadChunk {
			chunk = uint8(skip)
		}
		_, err := r.ReadBits(chunk)
		require.NoError(t, err, "skipping %d bits", start)
		skip -= int64(chunk)
	}

	var buf bytes.Buffer
	w := bitio.NewWriter(&buf)
	for i := int64(0); i < n; i++ {
		bit, err := r.ReadBool()
		require.NoError(t, err, "reading bit %d of %d", i, n)
		require.NoError(t, w.WriteBool(bit))
	}
	// Close pads the final byte with zero bits, matching the splitter's
	// output convention.
	require.NoError(t, w.Close())
	return buf.Bytes()
}

// ConcatBits appends exactly n bits of data to w. Used to rebuild a
// channel's continuous bitstream from per-track extracts.
func ConcatBits(t *testing.T, w *bitio.Writer, data []byte, n int64) {
	t.Helper()
	r := bitio.NewReader(bytes.NewReader(data))
	for i := int64(0); i < n; i++ {
		bit, err := r.ReadBool()
		require.NoError(t, err, "reading bit %d of %d", i, n)
		require.NoError(t, w.WriteBool(bit))
	}
}

// Interleave lays per-channel byte streams out as (block, channel) ordered
// blocks of blockSize bytes, zero-padding every channel's tail block.
func Interleave(channels [][]byte, blockSize int) []byte {
	maxLen := 0
	for _, ch := range channels {
		if len(ch) > maxLen {
			maxLen = len(ch)
		}
	}
	blocks := (maxLen + blockSize - 1) / blockSize

	var out bytes.Buffer
	pad := make([]byte, blockSize)
	for blk := 0; blk < blocks; blk++ {
		for _, ch := range channels {
			start := blk * blockSize
			end := start + blockSize
			if start > len(ch) {
				start = len(ch)
			}
			if end > len(ch) {
				end = len(ch)
			}
			out.Write(ch[start:end])
			out.Write(pad[:blockSize-(end-start)])
		}
	}
	return out.Bytes()
}

// Deinterleave reconstructs each channel's logical byte stream from an
// interleaved data region, truncated to byteLen bytes per channel.
func Deinterleave(data []byte, channels, blockSize, byteLen int) [][]byte {
	out := make([][]byte, channels)
	for c := range out {
		out[c] = make([]byte, 0, byteLen)
	}
	for off := 0; off+blockSize <= len(data); off += blockSize {
		c := (off / blockSize) % channels
		out[c] = append(out[c], data[off:off+blockSize]...)
	}
	for c := range out {
		out[c] = out[c][:byteLen]
	}
	return out
}

// AssertBitsEqual compares the first n bits of want and got, including the
// zero padding convention of the final partial byte.
func AssertBitsEqual(t *testing.T, want, got []byte, n int64) bool {
	t.Helper()

	full := n / bitsPerByte
	require.GreaterOrEqual(t, int64(len(want)), (n+bitsPerByte-1)/bitsPerByte, "want too short for %d bits", n)
	require.GreaterOrEqual(t, int64(len(got)), (n+bitsPerByte-1)/bitsPerByte, "got too short for %d bits", n)

	for i := int64(0); i < full; i++ {
		if !assert.Equalf(t, want[i], got[i], "byte %d of %d bits differs", i, n) {
			return false
		}
	}
	if rem := uint(n % bitsPerByte); rem != 0 {
		mask := byte(0xFF << (bitsPerByte - rem))
		return assert.Equalf(t, want[full]&mask, got[full]&mask, "final partial byte of %d bits differs", n)
	}
	return true
}
