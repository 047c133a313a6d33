package nmea

import (
	"fmt"
	"strconv"
)

// maxGSASatellites is the fixed number of satellite id slots in GSA.
const maxGSASatellites = 12

// GSASentence is the DOP and active satellites sentence.
type GSASentence struct {
	Header
	SelectionMode *SelectionMode `json:"selection_mode,omitempty"`
	Mode          *FixMode       `json:"mode,omitempty"`
	// SatelliteIDs holds the non-empty id slots in wire order.
	SatelliteIDs []int     `json:"satellite_ids"`
	PDOP         *float64  `json:"pdop,omitempty"`
	HDOP         *float64  `json:"hdop,omitempty"`
	VDOP         *float64  `json:"vdop,omitempty"`
	System       *SystemID `json:"system,omitempty"`
}

// GSA fields:
//
//	1: selection mode (M/A)
//	2: fix mode (1=none, 2=2D, 3=3D)
//	3-14: satellite ids used in the solution
//	15-17: PDOP, HDOP, VDOP
//	18: GNSS system id (NMEA 4.10+)
func decodeGSA(f *fields, talker Talker) (*GSASentence, error) {
	s := &GSASentence{Header: Header{Talker: talker, Identifier: GSA}}
	s.SelectionMode = enum(f, "selection_mode", parseSelectionMode)
	s.Mode = enum(f, "mode", parseFixMode)
	s.SatelliteIDs = satelliteIDs(f)
	s.PDOP = f.float("pdop")
	s.HDOP = f.float("hdop")
	s.VDOP = f.float("vdop")
	if f.more() {
		s.System = enum(f, "system", parseSystemID)
	}
	if err := f.err(); err != nil {
		return nil, err
	}
	return s, nil
}

func satelliteIDs(f *fields) []int {
	ids := make([]int, 0, maxGSASatellites)
	for i, v := range f.slots("satellite_ids", maxGSASatellites) {
		if v == "" {
			continue
		}
		id, err := strconv.Atoi(v)
		if err != nil {
			f.fail(fmt.Sprintf("satellite_ids[%d]", i), v, ErrInvalidFieldValue)
			return nil
		}
		ids = append(ids, id)
	}
	return ids
}
