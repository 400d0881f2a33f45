// Package dsfsplit splits a continuous 1-bit DSD recording stored in a
// DSF container into independent per-track files, bit-exactly, using the
// track boundaries of a CUE sheet.
//
// There is no lossy intermediate representation anywhere in the pipeline:
// track boundaries are mapped to exact bit positions inside the
// interleaved multi-channel bitstream, the bits are extracted with a
// shift-and-merge across byte boundaries when a cut is not byte-aligned,
// and each range is re-blocked into a new, independently valid DSF file
// with all size and count fields recomputed.
//
// # Features
//
//   - Sample-accurate cuts at Red Book (75 frames/second) CUE positions,
//     including cuts that do not fall on byte or block boundaries
//   - Streaming extraction: only the byte ranges a track needs are read,
//     large sources are never loaded whole
//   - Any channel count; channels share a sample range but are extracted
//     independently through the block interleave
//   - Optional embedded ID3v2 metadata (title, performer, album, track
//     number) on each output
//   - Parallel per-track processing; tracks share only the read-only
//     source descriptor
//
// # Quick Start
//
// Splitting an album next to its CUE sheet:
//
//	results, err := dsfsplit.SplitCue("album.cue", "", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, r := range results {
//	    fmt.Println(r.OutputPath)
//	}
//
// With explicit configuration:
//
//	opts := &dsfsplit.Options{
//	    Overwrite: true,
//	    FailFast:  false, // collect all per-track failures
//	    Parallel:  true,
//	}
//	results, err := dsfsplit.SplitCue("album.cue", "out/", opts)
//
// # Error Handling
//
// Every failure wraps one of the package's sentinel errors
// ([ErrInvalidTrackList], [ErrNotDSF], [ErrTrackBoundary], ...) and can be
// matched with errors.Is. Parse-stage failures abort the run before any
// output file is created; per-track failures are isolated and follow
// [Options.FailFast]. A track list referencing time past the end of the
// recording is always an error, never a truncated output.
//
// # Scope
//
// Only true 1-bit uncompressed DSD is handled. DST-compressed streams,
// multi-bit depths, and any conversion to PCM are rejected or out of
// scope; the output is the input's bits, re-addressed.
package dsfsplit
