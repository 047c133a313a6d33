package parse

import (
	"errors"
	"fmt"
)

// ErrNoMatch is wrapped by every error TakeStrict returns.
var ErrNoMatch = errors.New("parse: rule did not match")

// Error reports a strict rule failure at a byte offset of the Context input.
type Error struct {
	Offset int
	// Near is a short excerpt of the input at Offset.
	Near string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v at offset %d near %q", e.Err, e.Offset, e.Near)
}

func (e *Error) Unwrap() error { return e.Err }

// Context holds a sentence and a cursor into it.
//
// The cursor is a byte offset and only ever moves forward; every value a rule
// returns is a substring of the text the Context holds.
type Context struct {
	text string
	pos  int
}

func NewContext(text string) *Context {
	return &Context{text: text}
}

// Reset replaces the input and rewinds the cursor.
func (c *Context) Reset(text string) {
	c.text = text
	c.pos = 0
}

func (c *Context) Text() string { return c.text }

// Remaining returns the unconsumed suffix of the input.
func (c *Context) Remaining() string { return c.text[c.pos:] }

// Offset returns the number of bytes consumed so far.
func (c *Context) Offset() int { return c.pos }

func (c *Context) Done() bool { return c.pos >= len(c.text) }

// seek moves the cursor so that Remaining() == rest. Rules must return a
// suffix of their input; anything else is a bug in the rule.
func (c *Context) seek(rest string) {
	next := len(c.text) - len(rest)
	if next < c.pos || next > len(c.text) {
		panic(fmt.Sprintf("parse: rule moved cursor from %d to %d (input length %d)", c.pos, next, len(c.text)))
	}
	c.pos = next
}

func (c *Context) near() string {
	rest := c.Remaining()
	if len(rest) > 16 {
		rest = rest[:16]
	}
	return rest
}

// Take applies r to the remaining input. The cursor moves to the remainder the
// rule reports whether or not it matched.
func Take[T any](c *Context, r Rule[T]) (T, bool) {
	v, ok, rest := r.Apply(c.Remaining())
	c.seek(rest)
	return v, ok
}

// TakeStrict is Take with a failed match turned into an *Error. The cursor
// still moves past whatever the rule skipped so a caller may resynchronize.
func TakeStrict[T any](c *Context, r Rule[T]) (T, error) {
	start := c.pos
	near := c.near()
	v, ok := Take(c, r)
	if !ok {
		return v, &Error{Offset: start, Near: near, Err: ErrNoMatch}
	}
	return v, nil
}

// Peek applies r without moving the cursor.
func Peek[T any](c *Context, r Rule[T]) (T, bool) {
	v, ok, _ := r.Apply(c.Remaining())
	return v, ok
}
