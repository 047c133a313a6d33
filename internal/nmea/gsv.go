package nmea

import (
	"fmt"

	"nmea-ng/internal/parse"
)

// satellitesPerLine is the number of satellite blocks one GSV line carries.
const satellitesPerLine = 4

// GSVSentence is a satellites-in-view group. A group split over several lines
// decodes into one record; Satellites keeps the wire order across lines.
type GSVSentence struct {
	Header
	// Lines is the number of physical lines the group was sent as.
	Lines            int         `json:"lines"`
	SatellitesInView *int        `json:"satellites_in_view,omitempty"`
	Satellites       []Satellite `json:"satellites"`
	Signal           *int        `json:"signal_id,omitempty"`
}

// GSVHeader is the group bookkeeping at the start of every GSV line.
type GSVHeader struct {
	Total            int
	Number           int
	SatellitesInView int
}

// ExpectedLines returns how many physical lines a group reporting this many
// satellites occupies. A group always has at least one line.
func ExpectedLines(satellites int) int {
	if satellites <= 0 {
		return 1
	}
	return (satellites + satellitesPerLine - 1) / satellitesPerLine
}

// ParseGSVHeader reads the line count, line number and satellites-in-view
// fields of one GSV line. The line is not checksum validated.
func ParseGSVHeader(line string) (GSVHeader, error) {
	f := newFields(line, GSV)
	total := f.int("total")
	number := f.int("number")
	inView := f.int("satellites_in_view")
	if err := f.err(); err != nil {
		return GSVHeader{}, err
	}
	if total == nil || number == nil {
		return GSVHeader{}, &FieldError{Identifier: GSV, Field: "number", Offset: 0, Err: ErrInvalidFieldValue}
	}
	h := GSVHeader{Total: *total, Number: *number}
	if inView != nil {
		h.SatellitesInView = *inView
	}
	if h.Total < 1 || h.Number < 1 || h.Number > h.Total || h.SatellitesInView < 0 {
		return GSVHeader{}, &FieldError{Identifier: GSV, Field: "number", Value: fmt.Sprintf("%d/%d", h.Number, h.Total), Err: ErrInvalidFieldValue}
	}
	return h, nil
}

// GSV fields:
//
//	1: total lines in group
//	2: line number
//	3: satellites in view
//	4-7, 8-11, 12-15, 16-19: id, elevation, azimuth, SNR for up to four satellites
//	last: signal id (NMEA 4.10+), present when the field count says so
func decodeGSVLine(f *fields, s *GSVSentence) {
	f.int("total")
	f.int("number")
	inView := f.int("satellites_in_view")
	if s.SatellitesInView == nil {
		s.SatellitesInView = inView
	}

	for i := 0; i < satellitesPerLine && f.more(); i++ {
		// A trailing single field is the signal id, not a satellite block.
		if remainingFields(f) < 4 {
			break
		}
		id := f.int("satellite_id")
		sat := Satellite{
			Elevation: f.int("elevation"),
			Azimuth:   f.int("azimuth"),
			SNR:       f.int("snr"),
		}
		if id == nil {
			continue
		}
		sat.ID = *id
		s.Satellites = append(s.Satellites, sat)
	}
	if f.more() {
		s.Signal = f.int("signal_id")
	}
}

var fieldCount = parse.Repeat(fieldRule, 32)

// remainingFields counts the fields left on the line without consuming them.
func remainingFields(f *fields) int {
	vs, _ := parse.Peek(f.c, fieldCount)
	return len(vs)
}

func decodeGSV(lines []string, talker Talker) (*GSVSentence, error) {
	s := &GSVSentence{Header: Header{Talker: talker, Identifier: GSV}, Lines: len(lines)}
	for _, line := range lines {
		f := newFields(line, GSV)
		decodeGSVLine(f, s)
		if err := f.err(); err != nil {
			return nil, err
		}
	}
	return s, nil
}
