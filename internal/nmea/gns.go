package nmea

import "nmea-ng/internal/parse"

// GNSSentence is the GNSS fix data sentence. Modes has one entry per
// constellation in the order GPS, GLONASS, Galileo, BeiDou, QZSS, NavIC,
// truncated to what the receiver sent.
type GNSSentence struct {
	Header
	Time            *TimeOfDay `json:"time,omitempty"`
	Latitude        *float64   `json:"latitude,omitempty"`
	Longitude       *float64   `json:"longitude,omitempty"`
	Modes           []FAAMode  `json:"modes,omitempty"`
	Satellites      *int       `json:"satellites,omitempty"`
	HDOP            *float64   `json:"hdop,omitempty"`
	Altitude        *float64   `json:"altitude_m,omitempty"`
	GeoidSeparation *float64   `json:"geoid_separation_m,omitempty"`
	DifferentialAge *float64   `json:"differential_age_s,omitempty"`
	StationID       *int       `json:"station_id,omitempty"`
	NavStatus       *NavStatus `json:"nav_status,omitempty"`
}

var modeChars = parse.NewSet("ADEFMNPRS")

// GNS fields:
//
//	1: time
//	2-3: latitude, N/S
//	4-5: longitude, E/W
//	6: mode indicator, one character per constellation
//	7: satellites in use
//	8: HDOP
//	9: orthometric height (m)
//	10: geoid separation (m)
//	11: age of differential data
//	12: differential station id
//	13: navigational status (NMEA 4.10+)
func decodeGNS(f *fields, talker Talker) (*GNSSentence, error) {
	s := &GNSSentence{Header: Header{Talker: talker, Identifier: GNS}}
	s.Time = f.time("time")
	s.Latitude = f.latitude("latitude")
	s.Longitude = f.longitude("longitude")
	s.Modes = gnsModes(f)
	s.Satellites = f.int("satellites")
	s.HDOP = f.float("hdop")
	s.Altitude = f.float("altitude")
	s.GeoidSeparation = f.float("geoid_separation")
	s.DifferentialAge = f.float("differential_age")
	s.StationID = f.int("station_id")
	if f.more() {
		s.NavStatus = enum(f, "nav_status", parseNavStatus)
	}
	if err := f.err(); err != nil {
		return nil, err
	}
	return s, nil
}

func gnsModes(f *fields) []FAAMode {
	v, ok := f.raw("mode")
	if !ok || v == "" {
		return nil
	}
	c := parse.NewContext(v)
	modes := make([]FAAMode, 0, len(v))
	for !c.Done() {
		b, ok := parse.Take(c, parse.OneOf(modeChars))
		if !ok {
			f.fail("mode", v, ErrInvalidFieldValue)
			return nil
		}
		m, _ := parseFAAModeByte(b)
		modes = append(modes, m)
	}
	return modes
}
