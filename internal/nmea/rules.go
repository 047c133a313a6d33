package nmea

import (
	"math"
	"strconv"
	"time"

	"nmea-ng/internal/parse"
)

var (
	delimiters = parse.NewSet(",*")
	decimal    = parse.NewSet("0123456789.")
	twoDigits  = parse.WhileN(parse.Digits, 2)
)

// token splits s at the first field delimiter. A token that runs to the end
// of s is allowed so the rules also work on bare values.
func token(s string) (tok, rest string) {
	v, ok, r := parse.UntilIn(delimiters, parse.Exclude).Apply(s)
	if !ok {
		return s, ""
	}
	return v, r
}

// isDecimal reports whether s is digits with at most one decimal point.
func isDecimal(s string) bool {
	v, ok, rest := parse.While(decimal).Apply(s)
	if !ok || rest != "" {
		return false
	}
	dot := false
	for i := 0; i < len(v); i++ {
		if v[i] == '.' {
			if dot {
				return false
			}
			dot = true
		}
	}
	return v != "."
}

type coordinate struct {
	hemispheres parse.Set
	maxDegrees  float64
}

var (
	// LatitudeRule decodes "DDMM.MMMM,N|S" into signed decimal degrees.
	LatitudeRule parse.Rule[float64] = coordinate{hemispheres: parse.NewSet("NS"), maxDegrees: 90}
	// LongitudeRule decodes "DDDMM.MMMM,E|W" into signed decimal degrees.
	LongitudeRule parse.Rule[float64] = coordinate{hemispheres: parse.NewSet("EW"), maxDegrees: 180}
	// CoordinateRule accepts any of the four hemispheres.
	CoordinateRule parse.Rule[float64] = coordinate{hemispheres: parse.NewSet("NSEW"), maxDegrees: 180}
)

// Apply decodes the value and hemisphere slots. On failure the remainder is
// past whatever part of the pair was present.
func (r coordinate) Apply(s string) (float64, bool, string) {
	value, rest := token(s)
	if value == "" || !isDecimal(value) {
		_, rest = skipHemisphere(rest)
		return 0, false, rest
	}
	hemi, rest, ok := hemisphere(rest)
	if !ok {
		return 0, false, rest
	}
	if !r.hemispheres.Has(hemi) {
		return 0, false, rest
	}

	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false, rest
	}
	deg := math.Floor(v / 100)
	minutes := v - deg*100
	if minutes >= 60 || deg > r.maxDegrees {
		return 0, false, rest
	}
	dec := deg + minutes/60
	if dec > r.maxDegrees {
		return 0, false, rest
	}
	if hemi == 'S' || hemi == 'W' {
		dec = -dec
	}
	return dec, true, rest
}

// hemisphere reads ",H" where H is a single character.
func hemisphere(s string) (byte, string, bool) {
	_, ok, rest := commaRule.Apply(s)
	if !ok {
		return 0, s, false
	}
	tok, rest := token(rest)
	if len(tok) != 1 {
		return 0, rest, false
	}
	return tok[0], rest, true
}

func skipHemisphere(s string) (string, string) {
	_, ok, rest := commaRule.Apply(s)
	if !ok {
		return "", s
	}
	return token(rest)
}

type timeOfDay struct{}

// TimeRule decodes "hhmmss" with an optional decimal fraction of seconds.
var TimeRule parse.Rule[TimeOfDay] = timeOfDay{}

func (timeOfDay) Apply(s string) (TimeOfDay, bool, string) {
	tok, rest := token(s)
	c := parse.NewContext(tok)
	var t TimeOfDay
	var ok bool
	if t.Hour, ok = twoDigitField(c, 23); !ok {
		return TimeOfDay{}, false, rest
	}
	if t.Minute, ok = twoDigitField(c, 59); !ok {
		return TimeOfDay{}, false, rest
	}
	if t.Second, ok = twoDigitField(c, 59); !ok {
		return TimeOfDay{}, false, rest
	}
	if !c.Done() {
		frac := c.Remaining()
		if _, ok := parse.Take(c, parse.Char('.')); !ok {
			return TimeOfDay{}, false, rest
		}
		if !c.Done() {
			if _, ok := parse.Take(c, parse.While(parse.Digits)); !ok || !c.Done() {
				return TimeOfDay{}, false, rest
			}
			f, err := strconv.ParseFloat(frac, 64)
			if err != nil {
				return TimeOfDay{}, false, rest
			}
			ns := math.Round(f * 1e9)
			if ns > 999999999 {
				ns = 999999999
			}
			t.Nanosecond = int(ns)
		}
	}
	return t, true, rest
}

func twoDigitField(c *parse.Context, max int) (int, bool) {
	s, ok := parse.Take(c, twoDigits)
	if !ok {
		return 0, false
	}
	v := int(s[0]-'0')*10 + int(s[1]-'0')
	return v, v <= max
}

type date struct{}

// DateRule decodes "ddmmyy". Two digit years are always 20yy.
var DateRule parse.Rule[Date] = date{}

func (date) Apply(s string) (Date, bool, string) {
	tok, rest := token(s)
	if len(tok) != 6 {
		return Date{}, false, rest
	}
	c := parse.NewContext(tok)
	day, ok1 := twoDigitField(c, 31)
	month, ok2 := twoDigitField(c, 12)
	yy, ok3 := twoDigitField(c, 99)
	if !ok1 || !ok2 || !ok3 {
		return Date{}, false, rest
	}
	d := Date{Year: 2000 + yy, Month: time.Month(month), Day: day}
	if !validDate(d.Year, d.Month, d.Day) {
		return Date{}, false, rest
	}
	return d, true, rest
}
