package nmea

// GSTSentence is the pseudorange error statistics sentence. Deviations are in
// metres, orientation in degrees from true north.
type GSTSentence struct {
	Header
	Time           *TimeOfDay `json:"time,omitempty"`
	RMS            *float64   `json:"rms,omitempty"`
	SemiMajor      *float64   `json:"semi_major_m,omitempty"`
	SemiMinor      *float64   `json:"semi_minor_m,omitempty"`
	Orientation    *float64   `json:"orientation_deg,omitempty"`
	LatitudeError  *float64   `json:"latitude_error_m,omitempty"`
	LongitudeError *float64   `json:"longitude_error_m,omitempty"`
	AltitudeError  *float64   `json:"altitude_error_m,omitempty"`
}

func decodeGST(f *fields, talker Talker) (*GSTSentence, error) {
	s := &GSTSentence{Header: Header{Talker: talker, Identifier: GST}}
	s.Time = f.time("time")
	s.RMS = f.float("rms")
	s.SemiMajor = f.float("semi_major")
	s.SemiMinor = f.float("semi_minor")
	s.Orientation = f.float("orientation")
	s.LatitudeError = f.float("latitude_error")
	s.LongitudeError = f.float("longitude_error")
	s.AltitudeError = f.float("altitude_error")
	if err := f.err(); err != nil {
		return nil, err
	}
	return s, nil
}
