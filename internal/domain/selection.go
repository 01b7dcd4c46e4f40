package domain

import "time"

// SelectedRestaurant is one restaurant the user chose (or was shown) for a meal.
type SelectedRestaurant struct {
	Restaurant
	MealType MealType
}

// TripContext identifies the trip a selection was made on.
type TripContext struct {
	TripID string
	Start  Location
	End    Location
}

// PreferencesSnapshot is the subset of the TripRequest that was in force when
// the candidates were ranked.
type PreferencesSnapshot struct {
	Meals               map[MealType]MealPreference
	DietaryRestrictions []string
	PreferredCuisines   []string
	DailyBudget         float64
}

// Constraints rebuilds the ranking constraints from the snapshot.
func (s PreferencesSnapshot) Constraints() Constraints {
	enabled := 0
	for _, p := range s.Meals {
		if p.Enabled {
			enabled++
		}
	}
	return Constraints{
		DietaryRestrictions: s.DietaryRestrictions,
		PreferredCuisines:   s.PreferredCuisines,
		DailyBudget:         s.DailyBudget,
		MealsPerDay:         enabled,
	}
}

// RadiusFor returns the configured radius for a meal, or 0 when unknown.
func (s PreferencesSnapshot) RadiusFor(m MealType) float64 {
	return s.Meals[m].RadiusMiles
}

// UserSelectionEvent is append-only: it is never mutated after creation.
type UserSelectionEvent struct {
	ID                  string
	UserID              string
	Trip                TripContext
	Selected            []SelectedRestaurant
	Shown               []SelectedRestaurant
	PreferencesSnapshot PreferencesSnapshot
	RecordedAt          time.Time
}
