package models

import (
	"encoding/json"
	"strings"
)

// AddressMeta is the address envelope stored on customer profiles: the
// human-readable text plus the coordinates it was quoted against, if any.
type AddressMeta struct {
	Text     string    `json:"text"`
	Location *Location `json:"location,omitempty"`
}

// ParseAddressMeta decodes a stored address column value. Values that are
// not a JSON object are treated as plain address text from older rows.
func ParseAddressMeta(raw string) AddressMeta {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return AddressMeta{}
	}
	if !strings.HasPrefix(raw, "{") {
		return AddressMeta{Text: raw}
	}
	var meta AddressMeta
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return AddressMeta{Text: raw}
	}
	return meta
}

// Encode renders the envelope for storage. Without coordinates the address
// is stored as plain text so the column stays readable.
func (a AddressMeta) Encode() string {
	if a.Location == nil {
		return a.Text
	}
	b, err := json.Marshal(a)
	if err != nil {
		return a.Text
	}
	return string(b)
}
