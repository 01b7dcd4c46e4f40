package ports

import (
	"context"
	"roadtrip-meal-service/internal/domain"
)

// GeocodeResult is the best match for a free-text address.
type GeocodeResult struct {
	Coordinates domain.Coordinates
	Label       string
	Confidence  float64
	// Ambiguous is set when another match was equally strong and no
	// disambiguating context was available.
	Ambiguous bool
}

// Contract for resolving free-text addresses to coordinates.
type Geocoder interface {
	// Resolve an address, landmark or intersection. Fails with
	// domain.ErrAddressNotFound when no match clears the confidence threshold.
	Geocode(ctx context.Context, address string) (GeocodeResult, error)
}

// Persistent address -> coordinate store shared across processes.
type GeocodeCache interface {
	GetMany(ctx context.Context, addresses []string) (map[string]domain.Coordinates, error)
	PutMany(ctx context.Context, results map[string]domain.Coordinates) error
}
