package domain

// RouteGeometry is the driving route between the two trip endpoints.
// Vertices are ordered from start to end. It is produced once per request
// and never persisted.
type RouteGeometry struct {
	Vertices      []Coordinates
	DistanceMiles float64
	DurationHours float64
	BBox          BoundingBox
}

// AverageSpeedMph returns the constant speed assumed for corridor sampling.
// Zero-duration routes report 0.
func (r RouteGeometry) AverageSpeedMph() float64 {
	if r.DurationHours <= 0 {
		return 0
	}
	return r.DistanceMiles / r.DurationHours
}
