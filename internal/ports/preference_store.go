package ports

import (
	"context"
	"roadtrip-meal-service/internal/domain"
)

// Keyed store for per-user PreferenceWeights.
type WeightsStore interface {
	// Return the stored weights; ok is false when the user has no history.
	GetWeights(ctx context.Context, userID string) (w domain.PreferenceWeights, ok bool, err error)
	PutWeights(ctx context.Context, w domain.PreferenceWeights) error
	// Remove all learned state for a user (explicit account reset only).
	DeleteWeights(ctx context.Context, userID string) error
}

// Append-only log of selection events.
type SelectionLog interface {
	AppendSelection(ctx context.Context, event domain.UserSelectionEvent) error
}
