package nmea

import (
	"fmt"
	"strconv"
)

const maxGRSResiduals = 12

// GRSSentence carries range residuals for the satellites of the matching GSA,
// in the same slot order. Empty slots are dropped.
type GRSSentence struct {
	Header
	Time      *TimeOfDay    `json:"time,omitempty"`
	Mode      *ResidualMode `json:"mode,omitempty"`
	Residuals []float64     `json:"residuals_m"`
	System    *SystemID     `json:"system,omitempty"`
	Signal    *int          `json:"signal_id,omitempty"`
}

// GRS fields:
//
//	1: time
//	2: mode (0=used in GGA, 1=recomputed)
//	3-14: residuals (m)
//	15: GNSS system id (NMEA 4.10+)
//	16: signal id (NMEA 4.10+)
func decodeGRS(f *fields, talker Talker) (*GRSSentence, error) {
	s := &GRSSentence{Header: Header{Talker: talker, Identifier: GRS}}
	s.Time = f.time("time")
	s.Mode = enum(f, "mode", parseResidualMode)
	s.Residuals = residuals(f)
	if f.more() {
		s.System = enum(f, "system", parseSystemID)
	}
	if f.more() {
		s.Signal = f.int("signal_id")
	}
	if err := f.err(); err != nil {
		return nil, err
	}
	return s, nil
}

func residuals(f *fields) []float64 {
	out := make([]float64, 0, maxGRSResiduals)
	for i, v := range f.slots("residuals", maxGRSResiduals) {
		if v == "" {
			continue
		}
		r, err := strconv.ParseFloat(v, 64)
		if err != nil {
			f.fail(fmt.Sprintf("residuals[%d]", i), v, ErrInvalidFieldValue)
			return nil
		}
		out = append(out, r)
	}
	return out
}
