package models

// IncomingMessage is the normalized form of one WhatsApp message extracted
// from a webhook delivery.
type IncomingMessage struct {
	ID       string
	From     string
	Type     string
	Text     string
	Payload  string
	Location *Location
}

// HasPayload reports whether the message came from an interactive reply
// (button tap or list row) rather than free text.
func (m *IncomingMessage) HasPayload() bool {
	return m.Payload != ""
}
