package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddressMetaPlainText(t *testing.T) {
	meta := ParseAddressMeta("Jr. Lima 123, Miraflores")
	assert.Equal(t, "Jr. Lima 123, Miraflores", meta.Text)
	assert.Nil(t, meta.Location)
}

func TestParseAddressMetaEnvelope(t *testing.T) {
	raw := `{"text":"Av. Brasil 1200","location":{"lat":-12.05,"lng":-77.04}}`
	meta := ParseAddressMeta(raw)
	assert.Equal(t, "Av. Brasil 1200", meta.Text)
	require.NotNil(t, meta.Location)
	assert.InDelta(t, -12.05, meta.Location.Lat, 1e-9)
}

func TestParseAddressMetaBadJSONFallsBackToText(t *testing.T) {
	meta := ParseAddressMeta(`{"text": broken`)
	assert.Equal(t, `{"text": broken`, meta.Text)
	assert.Nil(t, meta.Location)
}

func TestEncodeRoundTrip(t *testing.T) {
	meta := AddressMeta{
		Text:     "Calle Luna 55",
		Location: &Location{Lat: -12.1, Lng: -77.1},
	}
	back := ParseAddressMeta(meta.Encode())
	assert.Equal(t, meta.Text, back.Text)
	require.NotNil(t, back.Location)
	assert.InDelta(t, -12.1, back.Location.Lat, 1e-9)
}

func TestEncodeTextOnly(t *testing.T) {
	// With no coordinates the address is stored as plain text, not JSON.
	meta := AddressMeta{Text: "Calle Luna 55"}
	assert.Equal(t, "Calle Luna 55", meta.Encode())
}
