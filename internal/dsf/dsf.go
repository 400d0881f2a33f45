// Package dsf reads and writes DSF (DSD Stream File) containers.
//
// A DSF file is three fixed chunks followed by an optional ID3v2 metadata
// chunk:
//
//	DSD  (28 bytes)  magic, chunk size, total file size, metadata offset
//	fmt  (52 bytes)  version, format ID, channel type/count, sampling
//	                 frequency, bits per sample, sample count, block size
//	data (12 bytes)  header, then interleaved per-channel blocks
//
// All integers are little-endian and every chunk size field includes the
// chunk's own header. Only uncompressed 1-bit DSD is supported; DST and
// multi-bit variants are rejected, never coerced.
package dsf

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"
)

// Chunk sizes as defined by DSF v1.01; the size fields include the chunk
// headers themselves.
const (
	dsdChunkSize   = 28
	fmtChunkSize   = 52
	dataHeaderSize = 12
	formatDSDRaw   = 0 // format ID of uncompressed DSD
	bitsPerByte    = 8
	supportedDepth = 1 // the only bits-per-sample value this package handles

	// HeaderSize is the fixed byte length of the three chunk headers; the
	// data region starts at this offset.
	HeaderSize = dsdChunkSize + fmtChunkSize + dataHeaderSize
)

// Errors returned by Parse and Build.
var (
	// ErrNotDSF indicates a magic/structure mismatch or impossible header
	// field values.
	ErrNotDSF = errors.New("not a valid DSF container")

	// ErrUnsupportedFormat indicates a DST-compressed (or otherwise
	// non-raw) DSD stream.
	ErrUnsupportedFormat = errors.New("unsupported DSD format (not raw 1-bit DSD)")

	// ErrUnsupportedBitDepth indicates bits per sample other than 1.
	ErrUnsupportedBitDepth = errors.New("unsupported bits per sample")

	// ErrChannelLengthMismatch indicates per-channel streams of differing
	// bit lengths handed to Build.
	ErrChannelLengthMismatch = errors.New("channel bit lengths differ")
)

// Descriptor is the parsed header of a DSF container. It owns the header
// fields; the data region stays in the underlying reader and is served
// read-only through DataRegion, so one Descriptor can back any number of
// concurrent extractions.
type Descriptor struct {
	FormatVersion  uint32
	ChannelType    uint32
	Channels       int
	SampleRate     int // Hz
	BitsPerSample  int
	SampleCount    int64 // samples per channel
	BlockSize      int   // bytes per channel per block
	Reserved       [4]byte
	FileSize       int64
	MetadataOffset int64
	DataStart      int64 // always HeaderSize
	DataSize       int64 // data payload bytes, chunk header excluded

	r io.ReaderAt
}

// Parse reads and validates a DSF header. Only the first HeaderSize bytes
// are read; the data region is accessed lazily by absolute offset, so very
// large sources never need to be memory-resident.
func Parse(r io.ReaderAt) (*Descriptor, error) {
	header := make([]byte, HeaderSize)
	if _, err := r.ReadAt(header, 0); err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", ErrNotDSF, err)
	}

	if string(header[0:4]) != "DSD " {
		return nil, fmt.Errorf("%w: missing DSD chunk", ErrNotDSF)
	}
	if size := binary.LittleEndian.Uint64(header[4:12]); size != dsdChunkSize {
		return nil, fmt.Errorf("%w: DSD chunk size %d", ErrNotDSF, size)
	}
	if string(header[28:32]) != "fmt " {
		return nil, fmt.Errorf("%w: missing fmt chunk", ErrNotDSF)
	}
	if size := binary.LittleEndian.Uint64(header[32:40]); size != fmtChunkSize {
		return nil, fmt.Errorf("%w: fmt chunk size %d", ErrNotDSF, size)
	}
	if string(header[80:84]) != "data" {
		return nil, fmt.Errorf("%w: missing data chunk", ErrNotDSF)
	}

	d := &Descriptor{
		FormatVersion:  binary.LittleEndian.Uint32(header[40:44]),
		ChannelType:    binary.LittleEndian.Uint32(header[48:52]),
		Channels:       int(binary.LittleEndian.Uint32(header[52:56])),
		SampleRate:     int(binary.LittleEndian.Uint32(header[56:60])),
		BitsPerSample:  int(binary.LittleEndian.Uint32(header[60:64])),
		SampleCount:    int64(binary.LittleEndian.Uint64(header[64:72])),
		BlockSize:      int(binary.LittleEndian.Uint32(header[72:76])),
		FileSize:       int64(binary.LittleEndian.Uint64(header[12:20])),
		MetadataOffset: int64(binary.LittleEndian.Uint64(header[20:28])),
		DataStart:      HeaderSize,
		r:              r,
	}
	copy(d.Reserved[:], header[76:80])

	if formatID := binary.LittleEndian.Uint32(header[44:48]); formatID != formatDSDRaw {
		return nil, fmt.Errorf("%w: format ID %d", ErrUnsupportedFormat, formatID)
	}
	if d.BitsPerSample != supportedDepth {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, d.BitsPerSample)
	}
	if d.Channels < 1 || d.SampleRate < 1 || d.BlockSize < 1 || d.SampleCount < 0 {
		return nil, fmt.Errorf("%w: channels=%d rate=%d blockSize=%d samples=%d",
			ErrNotDSF, d.Channels, d.SampleRate, d.BlockSize, d.SampleCount)
	}

	dataSize := int64(binary.LittleEndian.Uint64(header[84:92]))
	if dataSize < dataHeaderSize {
		return nil, fmt.Errorf("%w: data chunk size %d", ErrNotDSF, dataSize)
	}
	d.DataSize = dataSize - dataHeaderSize

	if need := d.blockCount(d.BytesPerChannel()) * int64(d.BlockSize) * int64(d.Channels); d.DataSize < need {
		return nil, fmt.Errorf("%w: data region is %d bytes, %d samples need %d",
			ErrNotDSF, d.DataSize, d.SampleCount, need)
	}
	return d, nil
}

// DataRegion returns a read-only view of the interleaved sample data.
func (d *Descriptor) DataRegion() *io.SectionReader {
	return io.NewSectionReader(d.r, d.DataStart, d.DataSize)
}

// BytesPerChannel returns the byte length of one channel's logical
// bitstream, before block padding.
func (d *Descriptor) BytesPerChannel() int64 {
	return (d.SampleCount + bitsPerByte - 1) / bitsPerByte
}

// Duration returns the playing time of the stream.
func (d *Descriptor) Duration() time.Duration {
	return time.Duration(float64(d.SampleCount) / float64(d.SampleRate) * float64(time.Second))
}

// blockCount returns how many BlockSize blocks are needed per channel to
// hold byteLen bytes.
func (d *Descriptor) blockCount(byteLen int64) int64 {
	return (byteLen + int64(d.BlockSize) - 1) / int64(d.BlockSize)
}
