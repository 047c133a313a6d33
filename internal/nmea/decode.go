package nmea

import (
	"fmt"
	"strings"
)

// Decode validates and decodes one sentence. text may hold several lines
// (separated by "\n" or "\r\n") when it is a complete multi-line GSV group.
// Trailing CR/LF and surrounding spaces are ignored.
func Decode(text string) (Sentence, error) {
	return DecodeLines(splitLines(text))
}

// DecodeLines decodes a sentence given as its physical lines. Every line is
// checksum validated before any field is decoded.
func DecodeLines(lines []string) (Sentence, error) {
	clean := make([]string, 0, len(lines))
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l != "" {
			clean = append(clean, l)
		}
	}
	if len(clean) == 0 {
		return nil, fmt.Errorf("%w: empty sentence", ErrMalformedChecksum)
	}

	var talker Talker
	var id Identifier
	for i, l := range clean {
		if err := ValidateChecksum(l); err != nil {
			return nil, err
		}
		t, ident, err := Classify(l)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			talker, id = t, ident
			continue
		}
		if t != talker || ident != id {
			return nil, fmt.Errorf("%w: line %d is %s%s, group started as %s%s", ErrInvalidFieldValue, i+1, t, ident, talker, id)
		}
	}
	if id == IdentifierUnknown {
		return nil, fmt.Errorf("%w: %q", ErrUnknownIdentifier, headerCode(clean[0]))
	}
	if len(clean) > 1 && !id.MultiLine() {
		return nil, fmt.Errorf("%w: %s does not span lines, got %d", ErrInvalidFieldValue, id, len(clean))
	}
	if id == GSV {
		return orNil(decodeGSV(clean, talker))
	}

	f := newFields(clean[0], id)
	// Each case returns a typed nil on error, so keep the interface nil.
	var s Sentence
	var err error
	switch id {
	case DHV:
		s, err = orNil(decodeDHV(f, talker))
	case GGA:
		s, err = orNil(decodeGGA(f, talker))
	case GLL:
		s, err = orNil(decodeGLL(f, talker))
	case GSA:
		s, err = orNil(decodeGSA(f, talker))
	case GST:
		s, err = orNil(decodeGST(f, talker))
	case GRS:
		s, err = orNil(decodeGRS(f, talker))
	case GNS:
		s, err = orNil(decodeGNS(f, talker))
	case RMC:
		s, err = orNil(decodeRMC(f, talker))
	case TXT:
		s, err = orNil(decodeTXT(f, talker))
	case VTG:
		s, err = orNil(decodeVTG(f, talker))
	case ZDA:
		s, err = orNil(decodeZDA(f, talker))
	default:
		err = fmt.Errorf("%w: %s", ErrUnknownIdentifier, id)
	}
	return s, err
}

func orNil[T Sentence](s T, err error) (Sentence, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}

func splitLines(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool { return r == '\n' || r == '\r' })
}

func headerCode(line string) string {
	if len(line) >= 6 {
		return line[3:6]
	}
	return line
}
