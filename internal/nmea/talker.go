package nmea

import (
	"fmt"
	"strings"
)

// Talker is the satellite system that produced a sentence.
type Talker int

const (
	TalkerUnknown Talker = iota
	// BD is BeiDou (pre NMEA 4.11 receivers).
	BD
	// GL is GLONASS.
	GL
	// GN is a combined multi-constellation solution.
	GN
	// GP is GPS.
	GP
	// GA is Galileo.
	GA
	// GB is BeiDou as named by NMEA 4.11.
	GB
	// GQ is QZSS.
	GQ
	// GI is NavIC (IRNSS).
	GI
)

var talkerCodes = []string{
	TalkerUnknown: "",
	BD:            "BD",
	GL:            "GL",
	GN:            "GN",
	GP:            "GP",
	GA:            "GA",
	GB:            "GB",
	GQ:            "GQ",
	GI:            "GI",
}

func (t Talker) String() string {
	if t <= TalkerUnknown || int(t) >= len(talkerCodes) {
		return "unknown"
	}
	return talkerCodes[t]
}

func (t Talker) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Talker) UnmarshalText(b []byte) error {
	v, err := ParseTalker(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ParseTalker parses a two letter talker code.
func ParseTalker(code string) (Talker, error) {
	for i, c := range talkerCodes {
		if c != "" && strings.EqualFold(c, code) {
			return Talker(i), nil
		}
	}
	return TalkerUnknown, fmt.Errorf("%w: %q", ErrUnknownTalker, code)
}
