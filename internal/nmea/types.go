package nmea

import (
	"fmt"
	"time"
)

// FixQuality is the GGA quality indicator.
type FixQuality int

const (
	InvalidFix FixQuality = iota
	GPSFix
	DGPSFix
	PPSFix
	RealTimeKinematicFix
	FloatRealTimeKinematicFix
	EstimatedFix
	ManualInputModeFix
	SimulationModeFix
)

var fixNames = []string{
	InvalidFix:                "invalid fix",
	GPSFix:                    "gps",
	DGPSFix:                   "dgps",
	PPSFix:                    "pps",
	RealTimeKinematicFix:      "rt kinematic",
	FloatRealTimeKinematicFix: "float rt kinematic",
	EstimatedFix:              "estimated",
	ManualInputModeFix:        "manual mode",
	SimulationModeFix:         "sim mode",
}

func (q FixQuality) String() string {
	if q < 0 || int(q) >= len(fixNames) {
		return fmt.Sprintf("FixQuality(%d)", int(q))
	}
	return fixNames[q]
}

func (q FixQuality) MarshalText() ([]byte, error) { return []byte(q.String()), nil }

func parseFixQuality(s string) (FixQuality, bool) {
	if len(s) != 1 || s[0] < '0' || s[0] > '8' {
		return 0, false
	}
	return FixQuality(s[0] - '0'), true
}

// SelectionMode is the GSA 2D/3D switching mode.
type SelectionMode byte

const (
	Manual    SelectionMode = 'M'
	Automatic SelectionMode = 'A'
)

func (m SelectionMode) String() string {
	switch m {
	case Manual:
		return "manual"
	case Automatic:
		return "automatic"
	}
	return fmt.Sprintf("SelectionMode(%q)", byte(m))
}

func (m SelectionMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func parseSelectionMode(s string) (SelectionMode, bool) {
	if len(s) != 1 {
		return 0, false
	}
	switch m := SelectionMode(s[0]); m {
	case Manual, Automatic:
		return m, true
	}
	return 0, false
}

// FixMode is the GSA fix type.
type FixMode int

const (
	_ FixMode = iota
	NoFix
	Fix2D
	Fix3D
)

func (f FixMode) String() string {
	switch f {
	case NoFix:
		return "no fix"
	case Fix2D:
		return "2D fix"
	case Fix3D:
		return "3D fix"
	}
	return fmt.Sprintf("FixMode(%d)", int(f))
}

func (f FixMode) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

func parseFixMode(s string) (FixMode, bool) {
	if len(s) != 1 || s[0] < '1' || s[0] > '3' {
		return 0, false
	}
	return FixMode(s[0] - '0'), true
}

// SystemID is the GNSS system id carried by NMEA 4.10+ GSA and GRS.
type SystemID int

const (
	_ SystemID = iota
	SystemGPS
	SystemGLONASS
	SystemGalileo
	SystemBeiDou
	SystemQZSS
	SystemNavIC
)

var systemNames = []string{
	SystemGPS:     "GPS",
	SystemGLONASS: "GLONASS",
	SystemGalileo: "Galileo",
	SystemBeiDou:  "BeiDou",
	SystemQZSS:    "QZSS",
	SystemNavIC:   "NavIC",
}

func (s SystemID) String() string {
	if s < SystemGPS || int(s) >= len(systemNames) {
		return fmt.Sprintf("SystemID(%d)", int(s))
	}
	return systemNames[s]
}

func (s SystemID) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func parseSystemID(s string) (SystemID, bool) {
	if len(s) != 1 || s[0] < '1' || s[0] > '6' {
		return 0, false
	}
	return SystemID(s[0] - '0'), true
}

// FAAMode is the positioning mode indicator added in NMEA 2.3.
type FAAMode byte

const (
	Autonomous   FAAMode = 'A'
	Differential FAAMode = 'D'
	Estimated    FAAMode = 'E'
	FloatRTK     FAAMode = 'F'
	ManualInput  FAAMode = 'M'
	NotValid     FAAMode = 'N'
	Precise      FAAMode = 'P'
	RTK          FAAMode = 'R'
	Simulator    FAAMode = 'S'
)

func (m FAAMode) String() string {
	switch m {
	case Autonomous:
		return "autonomous"
	case Differential:
		return "differential"
	case Estimated:
		return "estimated"
	case FloatRTK:
		return "float rtk"
	case ManualInput:
		return "manual"
	case NotValid:
		return "not valid"
	case Precise:
		return "precise"
	case RTK:
		return "rtk"
	case Simulator:
		return "simulator"
	}
	return fmt.Sprintf("FAAMode(%q)", byte(m))
}

func (m FAAMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func parseFAAModeByte(b byte) (FAAMode, bool) {
	switch m := FAAMode(b); m {
	case Autonomous, Differential, Estimated, FloatRTK, ManualInput, NotValid, Precise, RTK, Simulator:
		return m, true
	}
	return 0, false
}

func parseFAAMode(s string) (FAAMode, bool) {
	if len(s) != 1 {
		return 0, false
	}
	return parseFAAModeByte(s[0])
}

// Status is the A/V data valid flag of GLL and RMC.
type Status byte

const (
	StatusValid   Status = 'A'
	StatusInvalid Status = 'V'
)

func (s Status) String() string {
	switch s {
	case StatusValid:
		return "valid"
	case StatusInvalid:
		return "invalid"
	}
	return fmt.Sprintf("Status(%q)", byte(s))
}

func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func parseStatus(s string) (Status, bool) {
	if len(s) != 1 {
		return 0, false
	}
	switch v := Status(s[0]); v {
	case StatusValid, StatusInvalid:
		return v, true
	}
	return 0, false
}

// NavStatus is the navigational status indicator of NMEA 4.10 RMC and GNS.
type NavStatus byte

const (
	NavSafe     NavStatus = 'S'
	NavCaution  NavStatus = 'C'
	NavUnsafe   NavStatus = 'U'
	NavNotValid NavStatus = 'V'
)

func (n NavStatus) String() string {
	switch n {
	case NavSafe:
		return "safe"
	case NavCaution:
		return "caution"
	case NavUnsafe:
		return "unsafe"
	case NavNotValid:
		return "not valid"
	}
	return fmt.Sprintf("NavStatus(%q)", byte(n))
}

func (n NavStatus) MarshalText() ([]byte, error) { return []byte(n.String()), nil }

func parseNavStatus(s string) (NavStatus, bool) {
	if len(s) != 1 {
		return 0, false
	}
	switch v := NavStatus(s[0]); v {
	case NavSafe, NavCaution, NavUnsafe, NavNotValid:
		return v, true
	}
	return 0, false
}

// ResidualMode says how GRS residuals were computed.
type ResidualMode int

const (
	// ResidualsUsedInGGA means residuals were used to calculate the GGA position.
	ResidualsUsedInGGA ResidualMode = 0
	// ResidualsRecomputed means residuals were recomputed after the GGA position.
	ResidualsRecomputed ResidualMode = 1
)

func (m ResidualMode) String() string {
	switch m {
	case ResidualsUsedInGGA:
		return "used in gga"
	case ResidualsRecomputed:
		return "recomputed"
	}
	return fmt.Sprintf("ResidualMode(%d)", int(m))
}

func (m ResidualMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func parseResidualMode(s string) (ResidualMode, bool) {
	switch s {
	case "0":
		return ResidualsUsedInGGA, true
	case "1":
		return ResidualsRecomputed, true
	}
	return 0, false
}

// TextType is the severity of a TXT message.
type TextType int

const (
	TextError   TextType = 0
	TextWarning TextType = 1
	TextNotice  TextType = 2
	TextUser    TextType = 7
)

func (t TextType) String() string {
	switch t {
	case TextError:
		return "error"
	case TextWarning:
		return "warning"
	case TextNotice:
		return "notice"
	case TextUser:
		return "user"
	}
	return fmt.Sprintf("TextType(%d)", int(t))
}

func (t TextType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func parseTextType(s string) (TextType, bool) {
	switch s {
	case "00":
		return TextError, true
	case "01":
		return TextWarning, true
	case "02":
		return TextNotice, true
	case "07":
		return TextUser, true
	}
	return 0, false
}

// TimeOfDay is a UTC time without a date.
type TimeOfDay struct {
	Hour       int `json:"hour"`
	Minute     int `json:"minute"`
	Second     int `json:"second"`
	Nanosecond int `json:"nanosecond"`
}

// Duration returns the time elapsed since midnight.
func (t TimeOfDay) Duration() time.Duration {
	return time.Duration(t.Hour)*time.Hour +
		time.Duration(t.Minute)*time.Minute +
		time.Duration(t.Second)*time.Second +
		time.Duration(t.Nanosecond)
}

// On returns t on the given date in UTC.
func (t TimeOfDay) On(d Date) time.Time {
	return time.Date(d.Year, d.Month, d.Day, t.Hour, t.Minute, t.Second, t.Nanosecond, time.UTC)
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d.%09d", t.Hour, t.Minute, t.Second, t.Nanosecond)
}

// Date is a calendar date.
type Date struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Day   int        `json:"day"`
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// validDate reports whether year-month-day names a real calendar day.
func validDate(year int, month time.Month, day int) bool {
	if month < time.January || month > time.December || day < 1 {
		return false
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return t.Year() == year && t.Month() == month && t.Day() == day
}

// Satellite is one satellite entry of a GSV group.
type Satellite struct {
	ID        int  `json:"id"`
	Elevation *int `json:"elevation_deg,omitempty"`
	Azimuth   *int `json:"azimuth_deg,omitempty"`
	SNR       *int `json:"snr_db,omitempty"`
}
