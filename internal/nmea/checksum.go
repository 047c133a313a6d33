package nmea

import (
	"fmt"
	"strconv"
	"strings"

	"nmea-ng/internal/parse"
)

// Checksum returns the XOR of all bytes of data. For a sentence, data is
// everything strictly between '$' and '*'.
func Checksum(data string) byte {
	var cs byte
	for i := 0; i < len(data); i++ {
		cs ^= data[i]
	}
	return cs
}

var checksumDigits = parse.WhileN(parse.Hex, 2)

func verifyChecksum(line string) (byte, error) {
	if !strings.HasPrefix(line, "$") {
		return 0, fmt.Errorf("%w: missing '$'", ErrMalformedChecksum)
	}
	if n := strings.Count(line, "*"); n != 1 {
		return 0, fmt.Errorf("%w: want one '*', found %d", ErrMalformedChecksum, n)
	}
	c := parse.NewContext(line)
	data, _ := parse.Take(c, parse.Preceded(parse.Char('$'), parse.Until('*')))
	hh, ok := parse.Take(c, parse.Preceded(parse.Char('*'), checksumDigits))
	if !ok || !c.Done() {
		return 0, fmt.Errorf("%w: checksum must be two hex digits", ErrMalformedChecksum)
	}
	want, err := strconv.ParseUint(hh, 16, 8)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformedChecksum, err)
	}
	if got := Checksum(data); got != byte(want) {
		return 0, fmt.Errorf("%w: computed %02X, sentence says %02X", ErrMalformedChecksum, got, want)
	}
	return byte(want), nil
}

// ValidateChecksum checks the $...*HH envelope of a trimmed sentence and its
// XOR checksum.
func ValidateChecksum(line string) error {
	_, err := verifyChecksum(line)
	return err
}

type checksumRule struct{}

// ChecksumRule validates a whole sentence and yields its checksum. It consumes
// the entire input on success and nothing on failure.
var ChecksumRule parse.Rule[byte] = checksumRule{}

func (checksumRule) Apply(s string) (byte, bool, string) {
	cs, err := verifyChecksum(s)
	if err != nil {
		return 0, false, s
	}
	return cs, true, ""
}
