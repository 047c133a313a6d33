// Package source provides line sources for the dispatcher: plain readers and
// files, USB/UART serial receivers, TCP line feeds (including gpsd in raw
// NMEA mode), UDP listeners and timed capture replay.
//
// Every source returns one trimmed line per ReadLine call and io.EOF when the
// stream is over. Other errors are transient; the caller retries.
package source
