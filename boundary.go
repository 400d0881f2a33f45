package dsfsplit

import (
	"fmt"

	"github.com/tphakala/go-dsf-split/internal/cue"
)

// trackBoundary is one track's half-open sample range [Start, End) within
// the source stream, with the metadata needed to name and tag its output.
type trackBoundary struct {
	Number    int
	Title     string
	Performer string
	Start     int64 // inclusive
	End       int64 // exclusive
}

// computeBoundaries converts track start timestamps into sample ranges
// that partition [0, totalSamples): each track ends where the next one
// starts and the final track ends at the stream end.
//
// Starts must be strictly ascending and inside the stream; anything else
// is a boundary error, never a truncation.
func computeBoundaries(tracks []cue.Track, rate int, totalSamples int64) ([]trackBoundary, error) {
	if len(tracks) == 0 {
		return nil, fmt.Errorf("%w: no tracks", ErrInvalidTrackList)
	}

	bounds := make([]trackBoundary, len(tracks))
	for i, t := range tracks {
		start := t.Start.Samples(rate)
		if start > totalSamples {
			return nil, fmt.Errorf("%w: track %d starts at sample %d, stream has %d",
				ErrTrackBoundary, t.Number, start, totalSamples)
		}
		bounds[i] = trackBoundary{
			Number:    t.Number,
			Title:     t.Title,
			Performer: t.Performer,
			Start:     start,
		}
	}

	for i := range bounds {
		end := totalSamples
		if i+1 < len(bounds) {
			end = bounds[i+1].Start
		}
		if end <= bounds[i].Start {
			return nil, fmt.Errorf("%w: track %d range [%d, %d) is empty or overlaps its neighbor",
				ErrTrackBoundary, bounds[i].Number, bounds[i].Start, end)
		}
		bounds[i].End = end
	}
	return bounds, nil
}
