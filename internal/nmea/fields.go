package nmea

import (
	"fmt"
	"strconv"

	"nmea-ng/internal/parse"
)

var (
	slotRule   = parse.UntilAny(",*")
	fieldRule  = parse.Preceded(commaRule, slotRule)
	textRule   = parse.Preceded(commaRule, parse.Until('*'))
	emptyField = parse.Preceded(commaRule, parse.Map(slotRule, func(s string) (struct{}, bool) {
		return struct{}{}, s == ""
	}))
)

// fields walks the comma separated fields of one sentence line. The first
// failure sticks; later calls return nil values and the error is reported
// by err().
type fields struct {
	c    *parse.Context
	line string
	id   Identifier
	e    error
}

func newFields(line string, id Identifier) *fields {
	f := &fields{c: parse.NewContext(line), line: line, id: id}
	if _, err := parse.TakeStrict(f.c, headerRule); err != nil {
		f.fail("header", "", ErrMissingDelimiter)
	}
	return f
}

func (f *fields) err() error { return f.e }

func (f *fields) fail(name, value string, err error) {
	if f.e != nil {
		return
	}
	f.e = &FieldError{Identifier: f.id, Field: name, Offset: f.c.Offset(), Value: value, Err: err}
}

// more reports whether another field follows. Trailing fields added by newer
// protocol versions are absent on older receivers.
func (f *fields) more() bool {
	if f.e != nil {
		return false
	}
	_, ok := parse.Peek(f.c, commaRule)
	return ok
}

// raw returns the next field. An empty slot is "" with ok true.
func (f *fields) raw(name string) (string, bool) {
	if f.e != nil {
		return "", false
	}
	v, err := parse.TakeStrict(f.c, fieldRule)
	if err != nil {
		f.fail(name, "", ErrMissingDelimiter)
		return "", false
	}
	return v, true
}

// slots consumes exactly n fields and returns them, empty slots included.
func (f *fields) slots(name string, n int) []string {
	if f.e != nil {
		return nil
	}
	vs, _ := parse.Take(f.c, parse.Repeat(fieldRule, n))
	if len(vs) < n {
		f.fail(name, "", ErrMissingDelimiter)
		return nil
	}
	return vs
}

// unit consumes a unit letter field. It must be empty or want.
func (f *fields) unit(name string, want byte) {
	s, ok := f.raw(name)
	if !ok || s == "" {
		return
	}
	if len(s) != 1 || s[0] != want {
		f.fail(name, s, ErrInvalidFieldValue)
	}
}

func (f *fields) text(name string) string {
	if f.e != nil {
		return ""
	}
	v, err := parse.TakeStrict(f.c, textRule)
	if err != nil {
		f.fail(name, "", ErrMissingDelimiter)
	}
	return v
}

func (f *fields) float(name string) *float64 {
	s, ok := f.raw(name)
	if !ok || s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		f.fail(name, s, ErrInvalidFieldValue)
		return nil
	}
	return &v
}

func (f *fields) int(name string) *int {
	s, ok := f.raw(name)
	if !ok || s == "" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		f.fail(name, s, ErrInvalidFieldValue)
		return nil
	}
	return &v
}

// enum decodes a coded field with parse. Unknown codes are an error, never a
// default.
func enum[T any](f *fields, name string, decode func(string) (T, bool)) *T {
	s, ok := f.raw(name)
	if !ok || s == "" {
		return nil
	}
	v, ok := decode(s)
	if !ok {
		f.fail(name, s, ErrInvalidFieldValue)
		return nil
	}
	return &v
}

// domainField applies a domain rule to the next field (or field pair for
// coordinates). slots is the number of wire fields the rule spans; all of
// them empty yields nil.
func domainField[T any](f *fields, name string, r parse.Rule[T], slots int) *T {
	if f.e != nil {
		return nil
	}
	if empty(f.c, slots) {
		for i := 0; i < slots; i++ {
			parse.Take(f.c, emptyField)
		}
		return nil
	}
	if _, err := parse.TakeStrict(f.c, commaRule); err != nil {
		f.fail(name, "", ErrMissingDelimiter)
		return nil
	}
	start := f.c.Offset()
	value, _ := parse.Peek(f.c, slotRule)
	v, err := parse.TakeStrict(f.c, r)
	if err != nil {
		f.e = &FieldError{Identifier: f.id, Field: name, Offset: start, Value: value, Err: ErrInvalidFieldValue}
		return nil
	}
	if f.c.Offset() == start {
		panic(fmt.Sprintf("nmea: %s rule for %s reported success without consuming input", name, f.id))
	}
	return &v
}

// empty reports whether the next n fields are all empty slots.
func empty(c *parse.Context, n int) bool {
	rest := c.Remaining()
	for i := 0; i < n; i++ {
		_, ok, r := emptyField.Apply(rest)
		if !ok {
			return false
		}
		rest = r
	}
	return true
}

func (f *fields) latitude(name string) *float64 {
	return domainField(f, name, LatitudeRule, 2)
}

func (f *fields) longitude(name string) *float64 {
	return domainField(f, name, LongitudeRule, 2)
}

func (f *fields) time(name string) *TimeOfDay {
	return domainField(f, name, TimeRule, 1)
}

func (f *fields) date(name string) *Date {
	return domainField(f, name, DateRule, 1)
}
