package nmea

// DHVSentence is the velocity report emitted by u-blox/Unicore style receivers.
// Speeds are in metres per second; the X/Y/Z components are ECEF.
type DHVSentence struct {
	Header
	Time        *TimeOfDay `json:"time,omitempty"`
	Speed3D     *float64   `json:"speed_3d_ms,omitempty"`
	SpeedX      *float64   `json:"speed_x_ms,omitempty"`
	SpeedY      *float64   `json:"speed_y_ms,omitempty"`
	SpeedZ      *float64   `json:"speed_z_ms,omitempty"`
	GroundSpeed *float64   `json:"ground_speed_ms,omitempty"`
}

// DHV fields:
//
//	1: time (hhmmss.sss)
//	2: 3D speed
//	3-5: ECEF X, Y, Z speed
//	6: horizontal ground speed
func decodeDHV(f *fields, talker Talker) (*DHVSentence, error) {
	s := &DHVSentence{Header: Header{Talker: talker, Identifier: DHV}}
	s.Time = f.time("time")
	s.Speed3D = f.float("speed_3d")
	s.SpeedX = f.float("speed_x")
	s.SpeedY = f.float("speed_y")
	s.SpeedZ = f.float("speed_z")
	s.GroundSpeed = f.float("ground_speed")
	if err := f.err(); err != nil {
		return nil, err
	}
	return s, nil
}
