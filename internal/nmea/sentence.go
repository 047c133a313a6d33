package nmea

// Header identifies the source and type of a decoded sentence.
type Header struct {
	Talker     Talker     `json:"talker"`
	Identifier Identifier `json:"identifier"`
}

// SentenceHeader returns h. It is promoted to every record type.
func (h Header) SentenceHeader() Header { return h }

// Sentence is implemented by every decoded record: *DHVSentence,
// *GGASentence, *GLLSentence, *GNSSentence, *GRSSentence, *GSASentence,
// *GSTSentence, *GSVSentence, *RMCSentence, *TXTSentence, *VTGSentence and
// *ZDASentence. Switch on the concrete type to read the fields.
type Sentence interface {
	SentenceHeader() Header
}
