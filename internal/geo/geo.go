// Package geo provides great-circle helpers for route geometry.
//
// Distances use the Haversine formula on WGS-84 coordinates and are reported
// in statute miles.
package geo

import (
	"math"

	"roadtrip-meal-service/internal/domain"
)

const (
	EarthRadiusMiles = 3958.8
	MetersPerMile    = 1609.344
)

// HaversineMiles returns the great-circle distance between a and b.
func HaversineMiles(a, b domain.Coordinates) float64 {
	dLat := degToRad(b.Lat - a.Lat)
	dLon := degToRad(b.Lon - a.Lon)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)

	h := sinLat*sinLat +
		math.Cos(degToRad(a.Lat))*math.Cos(degToRad(b.Lat))*sinLon*sinLon

	return 2 * EarthRadiusMiles * math.Asin(math.Min(1, math.Sqrt(h)))
}

func MetersToMiles(m float64) float64 { return m / MetersPerMile }
func MilesToMeters(mi float64) float64 { return mi * MetersPerMile }

// CumulativeMiles returns, for every vertex, the distance travelled along the
// polyline from the first vertex. The result has len(vertices) entries.
func CumulativeMiles(vertices []domain.Coordinates) []float64 {
	out := make([]float64, len(vertices))
	for i := 1; i < len(vertices); i++ {
		out[i] = out[i-1] + HaversineMiles(vertices[i-1], vertices[i])
	}
	return out
}

// PointAtFraction locates the point whose cumulative distance along the
// polyline equals fraction of its total length, interpolating linearly
// between the two bracketing vertices. fraction is clamped to [0, 1].
func PointAtFraction(vertices []domain.Coordinates, fraction float64) domain.Coordinates {
	switch len(vertices) {
	case 0:
		return domain.Coordinates{}
	case 1:
		return vertices[0]
	}

	fraction = domain.Clamp(fraction, 0, 1)
	cum := CumulativeMiles(vertices)
	total := cum[len(cum)-1]
	if total == 0 {
		return vertices[0]
	}

	target := fraction * total
	for i := 1; i < len(cum); i++ {
		if cum[i] < target {
			continue
		}
		seg := cum[i] - cum[i-1]
		if seg == 0 {
			return vertices[i]
		}
		t := (target - cum[i-1]) / seg
		return Lerp(vertices[i-1], vertices[i], t)
	}
	return vertices[len(vertices)-1]
}

// Lerp interpolates between a and b in lat/lon space. Route segments are
// short enough that the planar approximation stays well inside search radii.
func Lerp(a, b domain.Coordinates, t float64) domain.Coordinates {
	return domain.Coordinates{
		Lat: a.Lat + (b.Lat-a.Lat)*t,
		Lon: a.Lon + (b.Lon-a.Lon)*t,
	}
}

// Bounds returns the bounding box of the given points.
func Bounds(points []domain.Coordinates) domain.BoundingBox {
	if len(points) == 0 {
		return domain.BoundingBox{}
	}
	b := domain.BoundingBox{
		MinLat: points[0].Lat, MaxLat: points[0].Lat,
		MinLon: points[0].Lon, MaxLon: points[0].Lon,
	}
	for _, p := range points[1:] {
		b.MinLat = math.Min(b.MinLat, p.Lat)
		b.MaxLat = math.Max(b.MaxLat, p.Lat)
		b.MinLon = math.Min(b.MinLon, p.Lon)
		b.MaxLon = math.Max(b.MaxLon, p.Lon)
	}
	return b
}

func degToRad(deg float64) float64 {
	return deg * (math.Pi / 180.0)
}
