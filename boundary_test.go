package dsfsplit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-dsf-split/internal/cue"
)

func TestComputeBoundaries(t *testing.T) {
	tracks := []cue.Track{
		{Number: 1, Title: "A", Start: cue.Time{}},
		{Number: 2, Title: "B", Start: cue.Time{Frame: 35}},
		{Number: 3, Title: "C", Start: cue.Time{Frame: 70}},
	}

	bounds, err := computeBoundaries(tracks, 75, 100)
	require.NoError(t, err)
	require.Len(t, bounds, 3)

	assert.Equal(t, trackBoundary{Number: 1, Title: "A", Start: 0, End: 35}, bounds[0])
	assert.Equal(t, trackBoundary{Number: 2, Title: "B", Start: 35, End: 70}, bounds[1])
	assert.Equal(t, trackBoundary{Number: 3, Title: "C", Start: 70, End: 100}, bounds[2])
}

func TestComputeBoundaries_SingleTrack(t *testing.T) {
	bounds, err := computeBoundaries([]cue.Track{{Number: 1}}, 75, 100)
	require.NoError(t, err)
	require.Len(t, bounds, 1)
	assert.Equal(t, int64(0), bounds[0].Start)
	assert.Equal(t, int64(100), bounds[0].End)
}

func TestComputeBoundaries_Errors(t *testing.T) {
	tests := []struct {
		name   string
		tracks []cue.Track
		total  int64
		want   error
	}{
		{"NoTracks", nil, 100, ErrInvalidTrackList},
		{"StartPastEnd", []cue.Track{
			{Number: 1, Start: cue.Time{Sec: 2}}, // sample 150
		}, 100, ErrTrackBoundary},
		{"StartAtEnd", []cue.Track{
			{Number: 1},
			{Number: 2, Start: cue.Time{Sec: 1, Frame: 25}}, // sample 100: empty final track
		}, 100, ErrTrackBoundary},
		{"EqualStarts", []cue.Track{
			{Number: 1, Start: cue.Time{Frame: 10}},
			{Number: 2, Start: cue.Time{Frame: 10}},
		}, 100, ErrTrackBoundary},
		{"DescendingStarts", []cue.Track{
			{Number: 1, Start: cue.Time{Frame: 20}},
			{Number: 2, Start: cue.Time{Frame: 10}},
		}, 100, ErrTrackBoundary},
		{"ZeroLengthStream", []cue.Track{
			{Number: 1},
		}, 0, ErrTrackBoundary},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := computeBoundaries(tt.tracks, 75, tt.total)
			require.ErrorIs(t, err, tt.want)
		})
	}
}
