package ports

import (
	"context"
	"roadtrip-meal-service/internal/domain"
	"time"
)

// Contract for a point-of-interest provider returning canonical restaurants.
type RestaurantSource interface {
	// Name identifies the provider in logs, cache keys and Restaurant.Sources.
	Name() string
	// Return venues within radiusMiles of position. DistanceFromAnchorMiles is
	// populated on every result.
	FindNear(ctx context.Context, position domain.Coordinates, radiusMiles float64, cuisineHints []string) ([]domain.Restaurant, error)
}

// Short-lived store for source results keyed by query.
type CandidateCache interface {
	Get(ctx context.Context, key string) ([]domain.Restaurant, bool, error)
	Put(ctx context.Context, key string, restaurants []domain.Restaurant, ttl time.Duration) error
}
