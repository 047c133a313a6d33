package nmea

// VTGSentence is the course over ground and ground speed sentence.
type VTGSentence struct {
	Header
	TrueCourse     *float64 `json:"true_course_deg,omitempty"`
	MagneticCourse *float64 `json:"magnetic_course_deg,omitempty"`
	SpeedKnots     *float64 `json:"speed_knots,omitempty"`
	SpeedKPH       *float64 `json:"speed_kph,omitempty"`
	Mode           *FAAMode `json:"mode,omitempty"`
}

// VTG fields:
//
//	1-2: course over ground (true), T
//	3-4: course over ground (magnetic), M
//	5-6: speed, N (knots)
//	7-8: speed, K (km/h)
//	9: FAA mode (NMEA 2.3+)
func decodeVTG(f *fields, talker Talker) (*VTGSentence, error) {
	s := &VTGSentence{Header: Header{Talker: talker, Identifier: VTG}}
	s.TrueCourse = f.float("true_course")
	f.unit("true_course_unit", 'T')
	s.MagneticCourse = f.float("magnetic_course")
	f.unit("magnetic_course_unit", 'M')
	s.SpeedKnots = f.float("speed_knots")
	f.unit("speed_knots_unit", 'N')
	s.SpeedKPH = f.float("speed_kph")
	f.unit("speed_kph_unit", 'K')
	if f.more() {
		s.Mode = enum(f, "mode", parseFAAMode)
	}
	if err := f.err(); err != nil {
		return nil, err
	}
	return s, nil
}
