// Package parse is a small rule-based text parsing engine.
//
// A Rule looks at a string and either decodes a value from its prefix or
// fails. Either way it reports the remainder where parsing should continue.
// A Context owns one input string and a byte offset into it; Take and
// TakeStrict apply a rule to the unconsumed part of the input and move the
// offset to whatever remainder the rule reported.
//
// Rules are plain values with no internal state, so the same rule can be
// shared by any number of goroutines and applied again to the same input
// with the same result. That is what makes resynchronization after a bad
// field safe: a failed rule reports where the next attempt should begin.
//
// The character-set rules work on bytes and are meant for ASCII protocols.
// Chars and Char are UTF-8 aware.
package parse
