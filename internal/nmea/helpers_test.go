package nmea

import "fmt"

// nmeaLine wraps a payload in $...*HH with a correct checksum.
func nmeaLine(payload string) string {
	return fmt.Sprintf("$%s*%02X", payload, Checksum(payload))
}
