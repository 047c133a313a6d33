package nmea

import (
	"fmt"

	"nmea-ng/internal/parse"
)

// Identifier is the three letter sentence type.
type Identifier int

const (
	// IdentifierUnknown is any sentence type this package does not decode.
	IdentifierUnknown Identifier = iota
	DHV
	GGA
	GLL
	GSA
	GST
	GRS
	GNS
	GSV
	RMC
	TXT
	VTG
	ZDA
)

var identifierCodes = []string{
	IdentifierUnknown: "",
	DHV:               "DHV",
	GGA:               "GGA",
	GLL:               "GLL",
	GSA:               "GSA",
	GST:               "GST",
	GRS:               "GRS",
	GNS:               "GNS",
	GSV:               "GSV",
	RMC:               "RMC",
	TXT:               "TXT",
	VTG:               "VTG",
	ZDA:               "ZDA",
}

func (id Identifier) String() string {
	if id <= IdentifierUnknown || int(id) >= len(identifierCodes) {
		return "unknown"
	}
	return identifierCodes[id]
}

func (id Identifier) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *Identifier) UnmarshalText(b []byte) error {
	v := ParseIdentifier(string(b))
	if v == IdentifierUnknown {
		return fmt.Errorf("%w: %q", ErrUnknownIdentifier, b)
	}
	*id = v
	return nil
}

// MultiLine reports whether one logical sentence of this type may be split
// over several physical lines.
func (id Identifier) MultiLine() bool {
	return id == GSV
}

// ParseIdentifier maps a sentence code to an Identifier. Codes this package
// does not know return IdentifierUnknown.
func ParseIdentifier(code string) Identifier {
	for i, c := range identifierCodes {
		if c != "" && c == code {
			return Identifier(i)
		}
	}
	return IdentifierUnknown
}

var (
	headerRule = parse.Preceded(parse.Char('$'), parse.Bytes(5))
	commaRule  = parse.Char(',')
)

// Classify reads the $TTSSS header of a line. An unrecognized sentence code
// is not an error: it yields IdentifierUnknown so callers can skip it. An
// unrecognized talker is an error.
func Classify(line string) (Talker, Identifier, error) {
	c := parse.NewContext(line)
	hdr, err := parse.TakeStrict(c, headerRule)
	if err != nil {
		return TalkerUnknown, IdentifierUnknown, fmt.Errorf("%w: short or missing header: %v", ErrMissingDelimiter, err)
	}
	if _, ok := parse.Peek(c, commaRule); !ok {
		return TalkerUnknown, IdentifierUnknown, fmt.Errorf("%w: header %q is not followed by a comma", ErrMissingDelimiter, hdr)
	}
	talker, err := ParseTalker(hdr[:2])
	if err != nil {
		return TalkerUnknown, IdentifierUnknown, err
	}
	return talker, ParseIdentifier(hdr[2:]), nil
}
