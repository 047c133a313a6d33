package nmea

// GGASentence is the Global Positioning System Fix Data sentence.
type GGASentence struct {
	Header
	Time            *TimeOfDay  `json:"time,omitempty"`
	Latitude        *float64    `json:"latitude,omitempty"`
	Longitude       *float64    `json:"longitude,omitempty"`
	Quality         *FixQuality `json:"quality,omitempty"`
	Satellites      *int        `json:"satellites,omitempty"`
	HDOP            *float64    `json:"hdop,omitempty"`
	Altitude        *float64    `json:"altitude_m,omitempty"`
	GeoidSeparation *float64    `json:"geoid_separation_m,omitempty"`
	DifferentialAge *float64    `json:"differential_age_s,omitempty"`
	StationID       *int        `json:"station_id,omitempty"`
}

// GGA fields:
//
//	1: time
//	2-3: latitude, N/S
//	4-5: longitude, E/W
//	6: fix quality (0=invalid)
//	7: number of satellites
//	8: HDOP
//	9-10: altitude, M
//	11-12: geoid separation, M
//	13: age of differential data (s)
//	14: differential station id
//
// Some pre NMEA 2.3 receivers end the sentence after field 12.
func decodeGGA(f *fields, talker Talker) (*GGASentence, error) {
	s := &GGASentence{Header: Header{Talker: talker, Identifier: GGA}}
	s.Time = f.time("time")
	s.Latitude = f.latitude("latitude")
	s.Longitude = f.longitude("longitude")
	s.Quality = enum(f, "quality", parseFixQuality)
	s.Satellites = f.int("satellites")
	s.HDOP = f.float("hdop")
	s.Altitude = f.float("altitude")
	f.unit("altitude_unit", 'M')
	s.GeoidSeparation = f.float("geoid_separation")
	f.unit("geoid_separation_unit", 'M')
	if f.more() {
		s.DifferentialAge = f.float("differential_age")
	}
	if f.more() {
		s.StationID = f.int("station_id")
	}
	if err := f.err(); err != nil {
		return nil, err
	}
	return s, nil
}
