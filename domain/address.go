package domain

// Coordinates is a WGS84 point reported by the device or a dragged map pin.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Address holds the structured delivery address for the active session.
// Pincode and Landmark keep their previous values when a reverse-geocode
// response omits them.
type Address struct {
	Line1    string       `json:"line1"`
	Line2    string       `json:"line2"`
	Pincode  string       `json:"pincode"`
	Landmark string       `json:"landmark"`
	Coords   *Coordinates `json:"coords,omitempty"`
}

// Empty reports whether no part of the address has been filled in yet.
func (a Address) Empty() bool {
	return a.Line1 == "" && a.Line2 == "" && a.Pincode == "" && a.Landmark == ""
}
