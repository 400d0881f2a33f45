// Package cue parses CUE sheet track lists into ordered track entries.
//
// Only the commands relevant to splitting are interpreted: FILE, TITLE,
// PERFORMER, TRACK and INDEX. Everything else (REM, CATALOG, FLAGS, ...)
// is ignored. Timestamps use the Red Book convention of 75 frames per
// second and are kept as exact frame counts until a sample position is
// computed.
package cue

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// FramesPerSecond is the Red Book frame rate used by INDEX timestamps.
const FramesPerSecond = 75

// Timestamp field limits.
const (
	maxSeconds = 60
	maxFrames  = FramesPerSecond
)

// Errors returned by Parse.
var (
	// ErrInvalidFormat indicates malformed CUE sheet syntax.
	ErrInvalidFormat = errors.New("invalid cue sheet")

	// ErrMissingIndex indicates a track without the mandatory INDEX 01 line.
	ErrMissingIndex = errors.New("track has no INDEX 01 line")
)

var quotedRE = regexp.MustCompile(`"(.*?)"`)

// Time is a track start position in minutes, seconds and frames.
type Time struct {
	Min   int
	Sec   int
	Frame int
}

// TotalFrames returns the position as an exact frame count.
func (t Time) TotalFrames() int64 {
	return (int64(t.Min)*60+int64(t.Sec))*FramesPerSecond + int64(t.Frame)
}

// Seconds returns the position in fractional seconds.
func (t Time) Seconds() float64 {
	return float64(t.TotalFrames()) / FramesPerSecond
}

// Samples converts the position to a sample index at the given sampling
// frequency. The computation is exact integer arithmetic; no fractional
// second value is ever rounded.
func (t Time) Samples(rate int) int64 {
	return t.TotalFrames() * int64(rate) / FramesPerSecond
}

func (t Time) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Min, t.Sec, t.Frame)
}

// Track is one parsed TRACK entry.
type Track struct {
	Number    int
	Title     string
	Performer string
	Start     Time
}

// File is one FILE entry with the tracks declared under it.
type File struct {
	Name   string
	Tracks []Track
}

// Sheet is a fully parsed CUE sheet. Title and Performer are the
// album-level values declared before the first TRACK.
type Sheet struct {
	Title     string
	Performer string
	Files     []File
}

// Tracks returns all tracks of all files in declaration order.
func (s *Sheet) Tracks() []Track {
	var all []Track
	for _, f := range s.Files {
		all = append(all, f.Tracks...)
	}
	return all
}

// pending accumulates one TRACK entry until the next TRACK/FILE line or EOF.
type pending struct {
	track    Track
	hasStart bool
}

// Parse parses CUE sheet text into a Sheet.
//
// It fails with ErrInvalidFormat on malformed syntax (bad track numbers,
// out-of-range timestamps, a TRACK before any FILE, no tracks at all) and
// with ErrMissingIndex when a track lacks an INDEX 01 line. Unknown
// commands are skipped.
func Parse(text string) (*Sheet, error) {
	sheet := &Sheet{}
	var cur *pending
	inTracks := false

	flush := func() error {
		if cur == nil {
			return nil
		}
		if !cur.hasStart {
			return fmt.Errorf("%w: track %d", ErrMissingIndex, cur.track.Number)
		}
		f := &sheet.Files[len(sheet.Files)-1]
		f.Tracks = append(f.Tracks, cur.track)
		cur = nil
		return nil
	}

	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		command, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)

		switch command {
		case "FILE":
			if err := flush(); err != nil {
				return nil, err
			}
			sheet.Files = append(sheet.Files, File{Name: fileName(arg)})

		case "TRACK":
			if err := flush(); err != nil {
				return nil, err
			}
			if len(sheet.Files) == 0 {
				return nil, fmt.Errorf("%w: TRACK before any FILE entry", ErrInvalidFormat)
			}
			numField, _, _ := strings.Cut(arg, " ")
			num, err := strconv.Atoi(numField)
			if err != nil || num < 1 {
				return nil, fmt.Errorf("%w: bad track number %q", ErrInvalidFormat, numField)
			}
			cur = &pending{track: Track{Number: num}}
			inTracks = true

		case "TITLE":
			if cur != nil {
				cur.track.Title = unquote(arg)
			} else if !inTracks {
				sheet.Title = unquote(arg)
			}

		case "PERFORMER":
			if cur != nil {
				cur.track.Performer = unquote(arg)
			} else if !inTracks {
				sheet.Performer = unquote(arg)
			}

		case "INDEX":
			if cur == nil {
				return nil, fmt.Errorf("%w: INDEX outside a TRACK", ErrInvalidFormat)
			}
			numField, timeField, ok := strings.Cut(arg, " ")
			if !ok {
				return nil, fmt.Errorf("%w: track %d: bad INDEX line %q", ErrInvalidFormat, cur.track.Number, arg)
			}
			// Only INDEX 01 marks the track start; INDEX 00 is the pregap.
			if numField != "01" {
				continue
			}
			start, err := parseTime(strings.TrimSpace(timeField))
			if err != nil {
				return nil, fmt.Errorf("track %d: %w", cur.track.Number, err)
			}
			cur.track.Start = start
			cur.hasStart = true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if err := flush(); err != nil {
		return nil, err
	}

	if err := validate(sheet); err != nil {
		return nil, err
	}
	return sheet, nil
}

// ParseBytes decodes raw CUE sheet bytes (UTF-8, Shift-JIS or Latin-1)
// and parses them.
func ParseBytes(b []byte) (*Sheet, error) {
	return Parse(DecodeText(b))
}

// DecodeText converts raw CUE sheet bytes to a UTF-8 string. UTF-8 input
// (with or without BOM) is used as-is; otherwise Shift-JIS is tried, and
// Latin-1 is the last resort since it accepts any byte sequence.
func DecodeText(b []byte) string {
	b = bytes.TrimPrefix(b, []byte{0xEF, 0xBB, 0xBF})
	if utf8.Valid(b) {
		return string(b)
	}
	if s, err := decodeWith(japanese.ShiftJIS.NewDecoder(), b); err == nil && !strings.ContainsRune(s, utf8.RuneError) {
		return s
	}
	s, err := decodeWith(charmap.ISO8859_1.NewDecoder(), b)
	if err != nil {
		return string(b)
	}
	return s
}

func decodeWith(dec *encoding.Decoder, b []byte) (string, error) {
	out, err := io.ReadAll(transform.NewReader(bytes.NewReader(b), dec))
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func validate(sheet *Sheet) error {
	total := 0
	last := 0
	for _, f := range sheet.Files {
		for _, t := range f.Tracks {
			if t.Number <= last {
				return fmt.Errorf("%w: track numbers not ascending at track %d", ErrInvalidFormat, t.Number)
			}
			last = t.Number
			total++
		}
	}
	if total == 0 {
		return fmt.Errorf("%w: no tracks found", ErrInvalidFormat)
	}
	return nil
}

// parseTime parses an MM:SS:FF timestamp.
func parseTime(s string) (Time, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return Time{}, fmt.Errorf("%w: bad timestamp %q", ErrInvalidFormat, s)
	}
	fields := make([]int, 3)
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 {
			return Time{}, fmt.Errorf("%w: bad timestamp %q", ErrInvalidFormat, s)
		}
		fields[i] = v
	}
	t := Time{Min: fields[0], Sec: fields[1], Frame: fields[2]}
	if t.Sec >= maxSeconds || t.Frame >= maxFrames {
		return Time{}, fmt.Errorf("%w: timestamp %q out of range", ErrInvalidFormat, s)
	}
	return t, nil
}

// fileName extracts the file name from a FILE argument, which is usually
// quoted and followed by a type word (WAVE, BINARY, ...).
func fileName(arg string) string {
	if m := quotedRE.FindStringSubmatch(arg); m != nil {
		return m[1]
	}
	name, _, _ := strings.Cut(arg, " ")
	return name
}

func unquote(s string) string {
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		return s[1 : len(s)-1]
	}
	return s
}
