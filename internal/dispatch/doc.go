// Package dispatch turns a stream of NMEA lines into complete messages.
//
// Single-line sentences are emitted as they arrive. GSV groups are held per
// (talker, identifier) until every line has been seen and are then emitted
// as one message. Lines that fail checksum or header checks are logged,
// counted and dropped; the stream keeps going.
package dispatch
