package nmea

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedChecksum covers both a broken $...*HH envelope and a
	// checksum that does not match the data.
	ErrMalformedChecksum = errors.New("nmea: malformed checksum")
	// ErrMissingDelimiter means a comma or star was expected and not found.
	ErrMissingDelimiter = errors.New("nmea: missing delimiter")
	// ErrInvalidFieldValue means a field is present but does not parse as its
	// type or is not a known code.
	ErrInvalidFieldValue = errors.New("nmea: invalid field value")
	ErrUnknownIdentifier = errors.New("nmea: unknown sentence identifier")
	ErrUnknownTalker     = errors.New("nmea: unknown talker")
	// ErrIncompleteGroup means the input ended inside a multi-line sentence.
	ErrIncompleteGroup = errors.New("nmea: incomplete multi-line group")
)

// FieldError describes a decode failure at one field of a sentence.
type FieldError struct {
	Identifier Identifier
	Field      string
	// Offset is the byte offset of the field within the sentence line.
	Offset int
	Value  string
	Err    error
}

func (e *FieldError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("%s %s at offset %d (%q): %v", e.Identifier, e.Field, e.Offset, e.Value, e.Err)
	}
	return fmt.Sprintf("%s %s at offset %d: %v", e.Identifier, e.Field, e.Offset, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }
