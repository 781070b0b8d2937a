package models

import "fmt"

// Location is a WGS84 coordinate pair.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (l Location) String() string {
	return fmt.Sprintf("%.6f,%.6f", l.Lat, l.Lng)
}

// IsZero reports whether the location carries no coordinates. The
// restaurant never sits on null island, so a zero value means unset.
func (l Location) IsZero() bool {
	return l.Lat == 0 && l.Lng == 0
}
