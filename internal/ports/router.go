package ports

import (
	"context"
	"roadtrip-meal-service/internal/domain"
)

// Contract for computing a single continuous driving route.
type Router interface {
	// Fails with domain.ErrNoRouteFound when the points are not connected and
	// domain.ErrProviderUnavailable when the provider errors or times out.
	Route(ctx context.Context, start, end domain.Coordinates) (domain.RouteGeometry, error)
}
