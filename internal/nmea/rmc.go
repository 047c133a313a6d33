package nmea

import "time"

// RMCSentence is the recommended minimum specific GNSS data sentence.
type RMCSentence struct {
	Header
	Time       *TimeOfDay `json:"time,omitempty"`
	Status     *Status    `json:"status,omitempty"`
	Latitude   *float64   `json:"latitude,omitempty"`
	Longitude  *float64   `json:"longitude,omitempty"`
	SpeedKnots *float64   `json:"speed_knots,omitempty"`
	Course     *float64   `json:"course_deg,omitempty"`
	Date       *Date      `json:"date,omitempty"`
	// MagneticVariation is negative for westerly variation.
	MagneticVariation *float64   `json:"magnetic_variation_deg,omitempty"`
	Mode              *FAAMode   `json:"mode,omitempty"`
	NavStatus         *NavStatus `json:"nav_status,omitempty"`
}

// Timestamp combines the time and date fields.
func (s *RMCSentence) Timestamp() (time.Time, bool) {
	if s.Time == nil || s.Date == nil {
		return time.Time{}, false
	}
	return s.Time.On(*s.Date), true
}

// RMC fields (NMEA 0183 v4.10):
//
//	1: time (hhmmss.sss)
//	2: status (A=active, V=void)
//	3-4: latitude, N/S
//	5-6: longitude, E/W
//	7: speed over ground (knots)
//	8: course over ground (deg)
//	9: date (ddmmyy)
//	10-11: magnetic variation, E/W
//	12: FAA mode (NMEA 2.3+)
//	13: navigational status (NMEA 4.10+)
func decodeRMC(f *fields, talker Talker) (*RMCSentence, error) {
	s := &RMCSentence{Header: Header{Talker: talker, Identifier: RMC}}
	s.Time = f.time("time")
	s.Status = enum(f, "status", parseStatus)
	s.Latitude = f.latitude("latitude")
	s.Longitude = f.longitude("longitude")
	s.SpeedKnots = f.float("speed")
	s.Course = f.float("course")
	s.Date = f.date("date")
	s.MagneticVariation = magneticVariation(f)
	if f.more() {
		s.Mode = enum(f, "mode", parseFAAMode)
	}
	if f.more() {
		s.NavStatus = enum(f, "nav_status", parseNavStatus)
	}
	if err := f.err(); err != nil {
		return nil, err
	}
	return s, nil
}

func magneticVariation(f *fields) *float64 {
	v := f.float("magnetic_variation")
	dir, ok := f.raw("magnetic_variation_direction")
	if !ok {
		return nil
	}
	switch dir {
	case "":
		if v != nil {
			f.fail("magnetic_variation_direction", dir, ErrInvalidFieldValue)
		}
		return nil
	case "E":
	case "W":
		if v != nil {
			w := -*v
			v = &w
		}
	default:
		f.fail("magnetic_variation_direction", dir, ErrInvalidFieldValue)
		return nil
	}
	return v
}
