package dsfsplit

import (
	"errors"

	"github.com/tphakala/go-dsf-split/internal/bitstream"
	"github.com/tphakala/go-dsf-split/internal/cue"
	"github.com/tphakala/go-dsf-split/internal/dsf"
)

// Error kinds returned by Split and SplitCue. Sentinels owned by internal
// packages are re-exported here so callers can match them with errors.Is
// without importing internal paths. Every returned error wraps one of
// these and carries track-number or byte-offset context where applicable.
var (
	// ErrInvalidTrackList indicates malformed CUE sheet syntax.
	ErrInvalidTrackList = cue.ErrInvalidFormat

	// ErrMissingStartIndex indicates a track without an INDEX 01 line.
	ErrMissingStartIndex = cue.ErrMissingIndex

	// ErrNotDSF indicates a source that is not a valid DSF container.
	ErrNotDSF = dsf.ErrNotDSF

	// ErrUnsupportedFormat indicates DST-compressed DSD, which cannot be
	// split bit-exactly without decoding.
	ErrUnsupportedFormat = dsf.ErrUnsupportedFormat

	// ErrUnsupportedBitDepth indicates bits per sample other than 1.
	ErrUnsupportedBitDepth = dsf.ErrUnsupportedBitDepth

	// ErrTrackBoundary indicates a track list referencing time outside the
	// source stream, or boundaries that overlap.
	ErrTrackBoundary = bitstream.ErrOutOfRange

	// ErrIncompatibleChannelLengths indicates per-channel extracts of
	// differing bit lengths; channels of one track always share a sample
	// range, so this points at a corrupted source.
	ErrIncompatibleChannelLengths = dsf.ErrChannelLengthMismatch

	// ErrSourceRead indicates a failed read of the source data region.
	ErrSourceRead = bitstream.ErrRead

	// ErrOutputExists indicates an output path that already exists while
	// Options.Overwrite is false.
	ErrOutputExists = errors.New("output file already exists")

	// ErrOutputWrite indicates a failed create/write/close of an output
	// file.
	ErrOutputWrite = errors.New("output write failed")
)
