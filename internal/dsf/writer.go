package dsf

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"

	id3v2 "github.com/bogem/id3v2/v2"
)

// TrackMeta is the minimal per-track metadata embedded as an ID3v2 chunk.
// A nil or all-empty TrackMeta writes no metadata chunk at all and leaves
// the metadata offset zero.
type TrackMeta struct {
	Title  string
	Artist string
	Album  string
	Number int // 1-based track number, 0 omits the frame
	Total  int // total track count, 0 omits the "/total" part
}

func (m *TrackMeta) empty() bool {
	return m == nil || (m.Title == "" && m.Artist == "" && m.Album == "")
}

// Build serializes a complete, independently valid DSF file to w.
//
// channels holds one freshly byte-packed bitstream per channel, all of
// exactly sampleCount bits; differing lengths fail with
// ErrChannelLengthMismatch. Each stream is re-blocked into
// d.BlockSize-byte blocks (the final block zero-padded) and the blocks are
// interleaved in the same (block, channel) order the reader uses. All size
// and count fields are recomputed for the new stream; channel arrangement,
// sampling frequency, bits per sample, format version and the reserved
// bytes are copied from d unchanged.
func Build(w io.Writer, d *Descriptor, channels [][]byte, sampleCount int64, meta *TrackMeta) error {
	if len(channels) != d.Channels {
		return fmt.Errorf("%w: got %d streams for %d channels", ErrChannelLengthMismatch, len(channels), d.Channels)
	}
	chLen := int64(len(channels[0]))
	for c, ch := range channels {
		if int64(len(ch)) != chLen {
			return fmt.Errorf("%w: channel 0 has %d bytes, channel %d has %d",
				ErrChannelLengthMismatch, chLen, c, len(ch))
		}
	}
	if want := (sampleCount + bitsPerByte - 1) / bitsPerByte; chLen != want {
		return fmt.Errorf("%w: %d samples need %d bytes per channel, got %d",
			ErrChannelLengthMismatch, sampleCount, want, chLen)
	}

	blocks := d.blockCount(chLen)
	dataBytes := blocks * int64(d.BlockSize) * int64(d.Channels)

	var tag []byte
	if !meta.empty() {
		rendered, err := renderTag(meta)
		if err != nil {
			return fmt.Errorf("rendering metadata tag: %w", err)
		}
		tag = rendered
	}

	if _, err := w.Write(buildHeader(d, sampleCount, dataBytes, int64(len(tag)))); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	pad := make([]byte, d.BlockSize)
	for blk := int64(0); blk < blocks; blk++ {
		start := blk * int64(d.BlockSize)
		end := start + int64(d.BlockSize)
		if end > chLen {
			end = chLen
		}
		for c := range channels {
			if _, err := w.Write(channels[c][start:end]); err != nil {
				return fmt.Errorf("writing block %d channel %d: %w", blk, c, err)
			}
			if short := int64(d.BlockSize) - (end - start); short > 0 {
				if _, err := w.Write(pad[:short]); err != nil {
					return fmt.Errorf("padding block %d channel %d: %w", blk, c, err)
				}
			}
		}
	}

	if len(tag) > 0 {
		if _, err := w.Write(tag); err != nil {
			return fmt.Errorf("writing metadata tag: %w", err)
		}
	}
	return nil
}

// buildHeader assembles the three fixed chunk headers with recomputed size
// fields. The file size is the true total length; the metadata offset
// points just past the data chunk when a tag follows, and is zero
// otherwise.
func buildHeader(d *Descriptor, sampleCount, dataBytes, tagBytes int64) []byte {
	fileSize := int64(HeaderSize) + dataBytes + tagBytes
	var metaOffset int64
	if tagBytes > 0 {
		metaOffset = int64(HeaderSize) + dataBytes
	}

	h := make([]byte, HeaderSize)
	copy(h[0:4], "DSD ")
	binary.LittleEndian.PutUint64(h[4:12], dsdChunkSize)
	binary.LittleEndian.PutUint64(h[12:20], uint64(fileSize))
	binary.LittleEndian.PutUint64(h[20:28], uint64(metaOffset))

	copy(h[28:32], "fmt ")
	binary.LittleEndian.PutUint64(h[32:40], fmtChunkSize)
	binary.LittleEndian.PutUint32(h[40:44], d.FormatVersion)
	binary.LittleEndian.PutUint32(h[44:48], formatDSDRaw)
	binary.LittleEndian.PutUint32(h[48:52], d.ChannelType)
	binary.LittleEndian.PutUint32(h[52:56], uint32(d.Channels))
	binary.LittleEndian.PutUint32(h[56:60], uint32(d.SampleRate))
	binary.LittleEndian.PutUint32(h[60:64], supportedDepth)
	binary.LittleEndian.PutUint64(h[64:72], uint64(sampleCount))
	binary.LittleEndian.PutUint32(h[72:76], uint32(d.BlockSize))
	copy(h[76:80], d.Reserved[:])

	copy(h[80:84], "data")
	binary.LittleEndian.PutUint64(h[84:92], uint64(dataHeaderSize+dataBytes))
	return h
}

func renderTag(meta *TrackMeta) ([]byte, error) {
	tag := id3v2.NewEmptyTag()
	if meta.Title != "" {
		tag.SetTitle(meta.Title)
	}
	if meta.Artist != "" {
		tag.SetArtist(meta.Artist)
	}
	if meta.Album != "" {
		tag.SetAlbum(meta.Album)
	}
	if meta.Number > 0 {
		trck := strconv.Itoa(meta.Number)
		if meta.Total > 0 {
			trck += "/" + strconv.Itoa(meta.Total)
		}
		tag.AddTextFrame(tag.CommonID("Track number/Position in set"), tag.DefaultEncoding(), trck)
	}

	var buf bytes.Buffer
	if _, err := tag.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
