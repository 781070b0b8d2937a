package models

import "time"

// Customer is the persisted profile for a phone number. Address holds the
// JSON envelope produced by AddressMeta.Encode; legacy rows may hold a bare
// address string instead.
type Customer struct {
	PhoneNumber string    `json:"phone_number"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Address     string    `json:"address"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AddressInfo returns the decoded address envelope for the profile.
func (c *Customer) AddressInfo() AddressMeta {
	return ParseAddressMeta(c.Address)
}
