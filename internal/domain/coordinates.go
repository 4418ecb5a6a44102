package domain

// Immutable geographic coordinates (longitude, latitude).
// The zero value {0,0} marks a location that has not been geocoded yet.
type Coordinates struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Return coordinates as [lon, lat] for external API compatibility.
func (c Coordinates) CoordsToList() []float64 { return []float64{c.Lon, c.Lat} }

// Report whether the location still needs geocoding.
func (c Coordinates) IsUnresolved() bool { return c.Lon == 0 && c.Lat == 0 }
