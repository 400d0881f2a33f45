// Package bitstream extracts sample-accurate bit ranges from the
// interleaved multi-channel data region of a 1-bit audio container.
//
// A channel's logical bitstream is not contiguous in the source: it is
// stored as fixed-size blocks interleaved with the other channels' blocks.
// Extract reassembles the requested range from those blocks and repacks it
// MSB-first starting at bit 0 of byte 0, shifting bits across byte
// boundaries when the range does not start on one.
package bitstream

import (
	"errors"
	"fmt"
	"io"
)

const bitsPerByte = 8

// Errors returned by Extract.
var (
	// ErrOutOfRange indicates a bit range whose source bytes fall outside
	// the data region, i.e. a track list referencing time past the end of
	// the recording.
	ErrOutOfRange = errors.New("bit range outside data region")

	// ErrRead indicates a failed read of the source data region.
	ErrRead = errors.New("data region read failed")
)

// Layout describes how channels are interleaved in the data region:
// block b of channel c occupies bytes
// [(b*Channels+c)*BlockSize, +BlockSize).
type Layout struct {
	Channels  int
	BlockSize int // bytes per channel per block
}

// BitsPerBlock returns the number of samples one channel block holds.
func (l Layout) BitsPerBlock() int64 {
	return int64(l.BlockSize) * bitsPerByte
}

// ByteOffset returns the absolute data-region offset of logical byte lb of
// the given channel, where lb indexes the channel's own deinterleaved
// bitstream.
func (l Layout) ByteOffset(channel int, lb int64) int64 {
	block := lb / int64(l.BlockSize)
	within := lb % int64(l.BlockSize)
	return (block*int64(l.Channels)+int64(channel))*int64(l.BlockSize) + within
}

// Range is a bit range in a channel's logical bit-address space: StartBit
// is the first sample, BitLen the number of samples (one bit each).
type Range struct {
	StartBit int64
	BitLen   int64
}

// Extract returns exactly r.BitLen bits of the given channel, freshly
// byte-packed MSB-first. The returned slice is ceil(BitLen/8) bytes long;
// unused low-order bits of the final byte are zero.
//
// regionSize is the size of the data region readable through region; any
// source byte outside it fails with ErrOutOfRange.
func Extract(region io.ReaderAt, regionSize int64, l Layout, channel int, r Range) ([]byte, error) {
	if l.Channels < 1 || l.BlockSize < 1 {
		return nil, fmt.Errorf("invalid layout %+v", l)
	}
	if channel < 0 || channel >= l.Channels {
		return nil, fmt.Errorf("channel %d out of range [0,%d)", channel, l.Channels)
	}
	if r.StartBit < 0 || r.BitLen < 0 {
		return nil, fmt.Errorf("%w: negative range %+v", ErrOutOfRange, r)
	}
	if r.BitLen == 0 {
		return []byte{}, nil
	}

	firstByte := r.StartBit / bitsPerByte
	srcLen := (r.StartBit+r.BitLen+bitsPerByte-1)/bitsPerByte - firstByte

	raw, err := gather(region, regionSize, l, channel, firstByte, srcLen)
	if err != nil {
		return nil, err
	}

	outLen := (r.BitLen + bitsPerByte - 1) / bitsPerByte
	out := make([]byte, outLen)
	k := uint(r.StartBit % bitsPerByte)
	if k == 0 {
		copy(out, raw[:outLen])
	} else {
		// Each output byte merges two adjacent source bytes. The byte past
		// the gathered range contributes only padding and reads as zero.
		for i := range out {
			b := raw[i] << k
			if int64(i)+1 < srcLen {
				b |= raw[i+1] >> (bitsPerByte - k)
			}
			out[i] = b
		}
	}

	// Zero the unused low-order bits of the final byte.
	if rem := uint(r.BitLen % bitsPerByte); rem != 0 {
		out[outLen-1] &= 0xFF << (bitsPerByte - rem)
	}
	return out, nil
}

// gather copies srcLen logical bytes of one channel, starting at logical
// byte firstByte, into a contiguous buffer. Reads are issued per block run
// in strictly increasing address order.
func gather(region io.ReaderAt, regionSize int64, l Layout, channel int, firstByte, srcLen int64) ([]byte, error) {
	raw := make([]byte, srcLen)
	blockSize := int64(l.BlockSize)

	var copied int64
	for copied < srcLen {
		lb := firstByte + copied
		run := blockSize - lb%blockSize
		if rest := srcLen - copied; run > rest {
			run = rest
		}
		off := l.ByteOffset(channel, lb)
		if off < 0 || off+run > regionSize {
			return nil, fmt.Errorf("%w: channel %d needs byte offset %d, region is %d bytes",
				ErrOutOfRange, channel, off+run-1, regionSize)
		}
		if _, err := region.ReadAt(raw[copied:copied+run], off); err != nil {
			return nil, fmt.Errorf("%w: channel %d at offset %d: %v", ErrRead, channel, off, err)
		}
		copied += run
	}
	return raw, nil
}
