package nmea

// GLLSentence is the geographic position (latitude/longitude) sentence.
type GLLSentence struct {
	Header
	Latitude  *float64   `json:"latitude,omitempty"`
	Longitude *float64   `json:"longitude,omitempty"`
	Time      *TimeOfDay `json:"time,omitempty"`
	Status    *Status    `json:"status,omitempty"`
	Mode      *FAAMode   `json:"mode,omitempty"`
}

// GLL fields:
//
//	1-2: latitude, N/S
//	3-4: longitude, E/W
//	5: time
//	6: status (A=valid, V=invalid)
//	7: FAA mode (NMEA 2.3+)
func decodeGLL(f *fields, talker Talker) (*GLLSentence, error) {
	s := &GLLSentence{Header: Header{Talker: talker, Identifier: GLL}}
	s.Latitude = f.latitude("latitude")
	s.Longitude = f.longitude("longitude")
	s.Time = f.time("time")
	s.Status = enum(f, "status", parseStatus)
	if f.more() {
		s.Mode = enum(f, "mode", parseFAAMode)
	}
	if err := f.err(); err != nil {
		return nil, err
	}
	return s, nil
}
