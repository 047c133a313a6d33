package nmea

// TXTSentence is a free text message from the receiver.
type TXTSentence struct {
	Header
	Total  *int      `json:"total,omitempty"`
	Number *int      `json:"number,omitempty"`
	Type   *TextType `json:"type,omitempty"`
	Text   string    `json:"text"`
}

func decodeTXT(f *fields, talker Talker) (*TXTSentence, error) {
	s := &TXTSentence{Header: Header{Talker: talker, Identifier: TXT}}
	s.Total = f.int("total")
	s.Number = f.int("number")
	s.Type = enum(f, "type", parseTextType)
	s.Text = f.text("text")
	if err := f.err(); err != nil {
		return nil, err
	}
	return s, nil
}
