package domain

import "fmt"

// Immutable geographic coordinates (WGS-84 decimal degrees).
type Coordinates struct {
	Lat float64
	Lon float64
}

// Return coordinates as [lon, lat] for external API compatibility.
func (c Coordinates) CoordsToList() []float64 { return []float64{c.Lon, c.Lat} }

// Validate reports whether the coordinates are inside the valid lat/lon range.
func (c Coordinates) Validate() error {
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("latitude %v out of range [-90, 90]", c.Lat)
	}
	if c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("longitude %v out of range [-180, 180]", c.Lon)
	}
	return nil
}

// BoundingBox is the minimal lat/lon rectangle enclosing a geometry.
type BoundingBox struct {
	MinLat float64
	MinLon float64
	MaxLat float64
	MaxLon float64
}

// Return the box as [minLon, minLat, maxLon, maxLat] (GeoJSON order).
func (b BoundingBox) ToList() []float64 {
	return []float64{b.MinLon, b.MinLat, b.MaxLon, b.MaxLat}
}

// Location is a trip endpoint as submitted by the caller. Either Coords or a
// non-empty Address must be present.
type Location struct {
	Coords  *Coordinates
	Address string
}
