// Package nmea decodes NMEA 0183 sentences from GNSS receivers.
//
// Decoding is built on the rules in nmea-ng/internal/parse: every sentence
// decoder walks the comma separated fields with the same small set of rules
// and maps each wire position to a field of a typed record.
//
// Supported sentences: DHV, GGA, GLL, GNS, GRS, GSA, GST, GSV, RMC, TXT, VTG
// and ZDA. Optional fields are pointers and are nil exactly when the wire
// slot is empty. GSV groups that span several lines decode into one record.
package nmea
