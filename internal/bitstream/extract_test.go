package bitstream

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tphakala/go-dsf-split/internal/testutil"
)

// region wraps raw bytes as the data region of a fabricated source.
func region(data []byte) (*bytes.Reader, int64) {
	return bytes.NewReader(data), int64(len(data))
}

func TestLayout_ByteOffset(t *testing.T) {
	tests := []struct {
		name    string
		layout  Layout
		channel int
		lb      int64
		want    int64
	}{
		{"MonoFirstByte", Layout{Channels: 1, BlockSize: 4}, 0, 0, 0},
		{"MonoSecondBlock", Layout{Channels: 1, BlockSize: 4}, 0, 5, 5},
		{"StereoLeftFirstBlock", Layout{Channels: 2, BlockSize: 4}, 0, 3, 3},
		{"StereoRightFirstBlock", Layout{Channels: 2, BlockSize: 4}, 1, 3, 7},
		{"StereoLeftSecondBlock", Layout{Channels: 2, BlockSize: 4}, 0, 4, 8},
		{"StereoRightSecondBlock", Layout{Channels: 2, BlockSize: 4}, 1, 6, 14},
		{"FiveChannelThirdBlock", Layout{Channels: 5, BlockSize: 2}, 3, 4, 26},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.layout.ByteOffset(tt.channel, tt.lb))
		})
	}
}

func TestExtract_ByteAligned(t *testing.T) {
	src, size := region([]byte{0xDE, 0xAD, 0xBE, 0xEF})
	l := Layout{Channels: 1, BlockSize: 4}

	out, err := Extract(src, size, l, 0, Range{StartBit: 8, BitLen: 16})
	require.NoError(t, err)
	assert.Equal(t, []byte{0xAD, 0xBE}, out)
}

// TestExtract_NonAlignedCut pins the shift-merge behavior: starting at
// sample 3, output byte 0 is source bits [3..10] read MSB-first.
func TestExtract_NonAlignedCut(t *testing.T) {
	// bits: 10110100 01011101
	src, size := region([]byte{0b10110100, 0b01011101})
	l := Layout{Channels: 1, BlockSize: 2}

	out, err := Extract(src, size, l, 0, Range{StartBit: 3, BitLen: 8})
	require.NoError(t, err)

	// bits [3..10] = 10100 010 -> 0b10100010
	hi, lo := byte(0b10110100), byte(0b01011101)
	want := hi<<3 | lo>>5
	require.Len(t, out, 1)
	assert.Equal(t, byte(0b10100010), want)
	assert.Equal(t, want, out[0])
}

func TestExtract_TailPaddedWithZeros(t *testing.T) {
	src, size := region([]byte{0xFF, 0xFF})
	l := Layout{Channels: 1, BlockSize: 2}

	out, err := Extract(src, size, l, 0, Range{StartBit: 3, BitLen: 5})
	require.NoError(t, err)
	// Five set bits followed by three zero pad bits.
	assert.Equal(t, []byte{0b11111000}, out)
}

func TestExtract_ZeroLength(t *testing.T) {
	src, size := region([]byte{0xAA})
	l := Layout{Channels: 1, BlockSize: 1}

	out, err := Extract(src, size, l, 0, Range{StartBit: 4, BitLen: 0})
	require.NoError(t, err)
	assert.Empty(t, out)
}

// TestExtract_CrossBlockStereo verifies the block mapping: a channel's
// logical bitstream is reassembled across blocks that are interleaved
// with the other channel's blocks.
func TestExtract_CrossBlockStereo(t *testing.T) {
	left := []byte{0x11, 0x22, 0x33, 0x44, 0x55, 0x66}
	right := []byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}
	data := testutil.Interleave([][]byte{left, right}, 2)
	// layout on disk: 11 22 | AA BB | 33 44 | CC DD | 55 66 | EE FF
	require.Equal(t, []byte{0x11, 0x22, 0xAA, 0xBB, 0x33, 0x44, 0xCC, 0xDD, 0x55, 0x66, 0xEE, 0xFF}, data)

	src, size := region(data)
	l := Layout{Channels: 2, BlockSize: 2}

	gotLeft, err := Extract(src, size, l, 0, Range{StartBit: 0, BitLen: 48})
	require.NoError(t, err)
	assert.Equal(t, left, gotLeft)

	gotRight, err := Extract(src, size, l, 1, Range{StartBit: 0, BitLen: 48})
	require.NoError(t, err)
	assert.Equal(t, right, gotRight)

	// A shifted range crossing two block boundaries.
	got, err := Extract(src, size, l, 1, Range{StartBit: 13, BitLen: 17})
	require.NoError(t, err)
	testutil.AssertBitsEqual(t, testutil.ReferenceBits(t, right, 13, 17), got, 17)
}

// TestExtract_MatchesReference compares the shift-merge path against an
// independent bit-by-bit reference over many ranges.
func TestExtract_MatchesReference(t *testing.T) {
	const (
		channels  = 3
		blockSize = 4
		chBytes   = 32
	)

	chans := make([][]byte, channels)
	for c := range chans {
		chans[c] = make([]byte, chBytes)
		for i := range chans[c] {
			chans[c][i] = byte(i*37 + c*101 + 11)
		}
	}
	data := testutil.Interleave(chans, blockSize)
	src, size := region(data)
	l := Layout{Channels: channels, BlockSize: blockSize}

	totalBits := int64(chBytes * 8)
	for _, start := range []int64{0, 1, 3, 7, 8, 31, 32, 100, totalBits - 9} {
		for _, bitLen := range []int64{1, 5, 8, 9, 64, totalBits - start} {
			if start+bitLen > totalBits {
				continue
			}
			for c := 0; c < channels; c++ {
				got, err := Extract(src, size, l, c, Range{StartBit: start, BitLen: bitLen})
				require.NoError(t, err, "channel %d start %d len %d", c, start, bitLen)
				require.Equal(t, (bitLen+7)/8, int64(len(got)))
				testutil.AssertBitsEqual(t,
					testutil.ReferenceBits(t, chans[c], start, bitLen), got, bitLen)
			}
		}
	}
}

func TestExtract_OutOfRange(t *testing.T) {
	src, size := region(make([]byte, 8)) // stereo, one block each
	l := Layout{Channels: 2, BlockSize: 4}

	// 32 bits per channel exist; asking past them must not truncate.
	_, err := Extract(src, size, l, 0, Range{StartBit: 24, BitLen: 16})
	require.ErrorIs(t, err, ErrOutOfRange)
	assert.Contains(t, err.Error(), "offset")

	_, err = Extract(src, size, l, 1, Range{StartBit: 32, BitLen: 1})
	require.ErrorIs(t, err, ErrOutOfRange)
}

func TestExtract_BadArguments(t *testing.T) {
	src, size := region(make([]byte, 8))
	l := Layout{Channels: 2, BlockSize: 4}

	_, err := Extract(src, size, l, 2, Range{BitLen: 1})
	require.Error(t, err)

	_, err = Extract(src, size, l, -1, Range{BitLen: 1})
	require.Error(t, err)

	_, err = Extract(src, size, l, 0, Range{StartBit: -1, BitLen: 1})
	require.ErrorIs(t, err, ErrOutOfRange)

	_, err = Extract(src, size, Layout{}, 0, Range{BitLen: 1})
	require.Error(t, err)
}

func TestLayout_BitsPerBlock(t *testing.T) {
	assert.Equal(t, int64(32768), Layout{Channels: 2, BlockSize: 4096}.BitsPerBlock())
}
