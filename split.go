package dsfsplit

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tphakala/go-dsf-split/internal/bitstream"
	"github.com/tphakala/go-dsf-split/internal/cue"
	"github.com/tphakala/go-dsf-split/internal/dsf"
)

const (
	// Write buffer for per-track output files.
	outputBufferSize = 256 * 1024

	outputExt      = ".dsf"
	outputFileMode = 0o644
)

// Options configures a split run. The zero value is valid; nil passed to
// Split or SplitCue means DefaultOptions.
type Options struct {
	// Overwrite allows replacing existing output files instead of failing
	// with ErrOutputExists.
	Overwrite bool

	// FailFast stops the run at the first per-track failure. When false,
	// remaining tracks continue and all failures are collected into the
	// returned error.
	FailFast bool

	// Parallel extracts and writes tracks on concurrent goroutines. Tracks
	// share only the read-only source descriptor, so ordering between
	// their outputs is irrelevant.
	Parallel bool
}

// DefaultOptions returns the default configuration: fail-fast, parallel,
// no overwriting.
func DefaultOptions() *Options {
	return &Options{FailFast: true, Parallel: true}
}

// TrackResult reports the outcome of one track's extraction and write.
type TrackResult struct {
	TrackNumber int
	OutputPath  string
	Err         error
}

// Split splits one DSF source into per-track files in outputDir, using the
// boundaries declared by the CUE sheet text in trackList.
//
// The track list must describe a single FILE; use SplitCue for sheets
// spanning multiple source files. Track-list or container parse failures
// abort the run before any output is written. Per-track failures follow
// opts.FailFast; a failing track never touches its siblings' outputs.
func Split(trackList string, source io.ReaderAt, outputDir string, opts *Options) ([]TrackResult, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	sheet, err := cue.Parse(trackList)
	if err != nil {
		return nil, err
	}
	if len(sheet.Files) != 1 {
		return nil, fmt.Errorf("%w: expected a single FILE entry, got %d", ErrInvalidTrackList, len(sheet.Files))
	}

	desc, err := dsf.Parse(source)
	if err != nil {
		return nil, err
	}
	return splitTracks(desc, sheet, sheet.Files[0].Tracks, outputDir, opts)
}

// SplitCue reads a CUE sheet from disk and splits every DSF file it
// references, resolving source paths relative to the sheet. An empty
// outputDir writes next to the sheet.
func SplitCue(cuePath, outputDir string, opts *Options) ([]TrackResult, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	raw, err := os.ReadFile(cuePath)
	if err != nil {
		return nil, fmt.Errorf("reading cue sheet: %w", err)
	}
	sheet, err := cue.ParseBytes(raw)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(cuePath)
	if outputDir == "" {
		outputDir = dir
	}

	var results []TrackResult
	var errs []error
	for _, file := range sheet.Files {
		src, err := os.Open(filepath.Join(dir, file.Name))
		if err != nil {
			return results, fmt.Errorf("opening source: %w", err)
		}
		desc, err := dsf.Parse(src)
		if err != nil {
			_ = src.Close()
			return results, fmt.Errorf("%s: %w", file.Name, err)
		}

		fileResults, err := splitTracks(desc, sheet, file.Tracks, outputDir, opts)
		_ = src.Close()
		results = append(results, fileResults...)
		if err != nil {
			if opts.FailFast {
				return results, err
			}
			errs = append(errs, err)
		}
	}
	return results, errors.Join(errs...)
}

// splitter holds the per-run state shared by all track workers. Everything
// here is read-only once the run starts.
type splitter struct {
	desc      *dsf.Descriptor
	region    *io.SectionReader
	layout    bitstream.Layout
	sheet     *cue.Sheet
	outputDir string
	total     int
	opts      *Options
}

func splitTracks(desc *dsf.Descriptor, sheet *cue.Sheet, tracks []cue.Track, outputDir string, opts *Options) ([]TrackResult, error) {
	bounds, err := computeBoundaries(tracks, desc.SampleRate, desc.SampleCount)
	if err != nil {
		return nil, err
	}

	s := &splitter{
		desc:      desc,
		region:    desc.DataRegion(),
		layout:    bitstream.Layout{Channels: desc.Channels, BlockSize: desc.BlockSize},
		sheet:     sheet,
		outputDir: outputDir,
		total:     len(bounds),
		opts:      opts,
	}

	results := make([]TrackResult, len(bounds))
	if opts.Parallel && len(bounds) > 1 {
		var wg sync.WaitGroup
		for i := range bounds {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				path, err := s.splitTrack(bounds[i])
				results[i] = TrackResult{TrackNumber: bounds[i].Number, OutputPath: path, Err: err}
			}(i)
		}
		wg.Wait()
	} else {
		for i := range bounds {
			path, err := s.splitTrack(bounds[i])
			results[i] = TrackResult{TrackNumber: bounds[i].Number, OutputPath: path, Err: err}
			if err != nil && opts.FailFast {
				return results[:i+1], err
			}
		}
	}

	var errs []error
	for i := range results {
		if results[i].Err == nil {
			continue
		}
		if opts.FailFast {
			return results, results[i].Err
		}
		errs = append(errs, results[i].Err)
	}
	return results, errors.Join(errs...)
}

// splitTrack extracts one track's bit range from every channel and writes
// an independent DSF file for it. On a write failure the partially written
// output is removed.
func (s *splitter) splitTrack(b trackBoundary) (string, error) {
	path := filepath.Join(s.outputDir, outputFileName(b.Number, b.Title))

	// Extract all channels before touching the filesystem. The shift
	// amount is shared across channels (sample index is), only the byte
	// layout underneath differs.
	r := bitstream.Range{StartBit: b.Start, BitLen: b.End - b.Start}
	streams := make([][]byte, s.desc.Channels)
	for c := range streams {
		data, err := bitstream.Extract(s.region, s.desc.DataSize, s.layout, c, r)
		if err != nil {
			return path, fmt.Errorf("track %d: %w", b.Number, err)
		}
		streams[c] = data
	}

	f, err := s.createOutput(path)
	if err != nil {
		return path, fmt.Errorf("track %d: %w", b.Number, err)
	}

	w := bufio.NewWriterSize(f, outputBufferSize)
	if err := dsf.Build(w, s.desc, streams, r.BitLen, s.trackMeta(b)); err != nil {
		_ = f.Close()
		removePartial(path)
		return path, fmt.Errorf("track %d: %w", b.Number, err)
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		removePartial(path)
		return path, fmt.Errorf("track %d: %w: %s: %w", b.Number, ErrOutputWrite, path, err)
	}
	if err := f.Close(); err != nil {
		removePartial(path)
		return path, fmt.Errorf("track %d: %w: %s: %w", b.Number, ErrOutputWrite, path, err)
	}
	return path, nil
}

func (s *splitter) createOutput(path string) (*os.File, error) {
	if s.opts.Overwrite {
		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrOutputWrite, path, err)
		}
		return f, nil
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, outputFileMode)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("%w: %s", ErrOutputExists, path)
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrOutputWrite, path, err)
	}
	return f, nil
}

// removePartial deletes a track's own failed output. Sibling outputs are
// never touched.
func removePartial(path string) {
	_ = os.Remove(path)
}

// trackMeta assembles the embedded metadata for one track, track-level
// fields overriding album-level ones. Returns nil when there is nothing
// to embed, which keeps the output header's metadata offset zero.
func (s *splitter) trackMeta(b trackBoundary) *dsf.TrackMeta {
	performer := b.Performer
	if performer == "" {
		performer = s.sheet.Performer
	}
	if b.Title == "" && performer == "" && s.sheet.Title == "" {
		return nil
	}
	return &dsf.TrackMeta{
		Title:  b.Title,
		Artist: performer,
		Album:  s.sheet.Title,
		Number: b.Number,
		Total:  s.total,
	}
}

// outputFileName builds "NN - Title.dsf", collapsing a duplicated "NN - "
// prefix already present in the title and sanitizing path separators.
func outputFileName(num int, title string) string {
	prefix := fmt.Sprintf("%02d", num)
	if title == "" {
		title = "Track " + prefix
	}
	title = strings.TrimPrefix(title, prefix+" - ")
	title = strings.ReplaceAll(title, "/", "-")
	title = strings.ReplaceAll(title, string(os.PathSeparator), "-")
	return prefix + " - " + title + outputExt
}
