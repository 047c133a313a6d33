package nmea

import (
	"time"
)

// ZDASentence is the UTC date and time sentence.
type ZDASentence struct {
	Header
	Time        *TimeOfDay `json:"time,omitempty"`
	Day         *int       `json:"day,omitempty"`
	Month       *int       `json:"month,omitempty"`
	Year        *int       `json:"year,omitempty"`
	ZoneHours   *int       `json:"zone_hours,omitempty"`
	ZoneMinutes *int       `json:"zone_minutes,omitempty"`
}

// Date returns the calendar date if all three date fields are present.
func (s *ZDASentence) Date() (Date, bool) {
	if s.Day == nil || s.Month == nil || s.Year == nil {
		return Date{}, false
	}
	return Date{Year: *s.Year, Month: time.Month(*s.Month), Day: *s.Day}, true
}

// Timestamp combines the time and date fields in UTC.
func (s *ZDASentence) Timestamp() (time.Time, bool) {
	d, ok := s.Date()
	if !ok || s.Time == nil {
		return time.Time{}, false
	}
	return s.Time.On(d), true
}

// ZDA fields:
//
//	1: time
//	2: day (01-31)
//	3: month (01-12)
//	4: year (4 digits)
//	5: local zone hours (-13..13)
//	6: local zone minutes (0..59)
//
// Fields 5 and 6 are left off by some receivers.
func decodeZDA(f *fields, talker Talker) (*ZDASentence, error) {
	s := &ZDASentence{Header: Header{Talker: talker, Identifier: ZDA}}
	s.Time = f.time("time")
	s.Day = f.int("day")
	s.Month = f.int("month")
	s.Year = f.int("year")
	if f.more() {
		s.ZoneHours = f.int("zone_hours")
	}
	if f.more() {
		s.ZoneMinutes = f.int("zone_minutes")
	}
	if err := f.err(); err != nil {
		return nil, err
	}
	if d, ok := s.Date(); ok && !validDate(d.Year, d.Month, d.Day) {
		return nil, &FieldError{Identifier: ZDA, Field: "date", Value: d.String(), Err: ErrInvalidFieldValue}
	}
	if s.ZoneHours != nil && (*s.ZoneHours < -13 || *s.ZoneHours > 13) {
		return nil, &FieldError{Identifier: ZDA, Field: "zone_hours", Err: ErrInvalidFieldValue}
	}
	if s.ZoneMinutes != nil && (*s.ZoneMinutes < 0 || *s.ZoneMinutes > 59) {
		return nil, &FieldError{Identifier: ZDA, Field: "zone_minutes", Err: ErrInvalidFieldValue}
	}
	return s, nil
}
