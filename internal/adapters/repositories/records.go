package repositories

import (
	"roadtrip-meal-service/internal/domain"
	"time"
)

// Storage shapes for JSONB columns. They are kept separate from the API DTOs
// so the wire contract can change without a data migration.

type locationRecord struct {
	Lat     *float64 `json:"lat,omitempty"`
	Lng     *float64 `json:"lng,omitempty"`
	Address string   `json:"address,omitempty"`
}

type restaurantRecord struct {
	SourceID    string   `json:"source_id"`
	Name        string   `json:"name"`
	Cuisine     string   `json:"cuisine,omitempty"`
	Lat         float64  `json:"lat"`
	Lng         float64  `json:"lng"`
	Address     string   `json:"address,omitempty"`
	Rating      float64  `json:"rating"`
	PriceLevel  int      `json:"price_level"`
	DietaryTags []string `json:"dietary_tags,omitempty"`
	Deal        string   `json:"deal,omitempty"`
	Distance    float64  `json:"distance_from_anchor_miles"`
	MealType    string   `json:"meal_type"`
}

type mealRecord struct {
	Enabled       bool    `json:"enabled"`
	RadiusMiles   float64 `json:"radius_miles"`
	PreferredTime string  `json:"preferred_time"`
}

type selectionEventRecord struct {
	ID         string                `json:"id"`
	UserID     string                `json:"user_id"`
	TripID     string                `json:"trip_id,omitempty"`
	Start      locationRecord        `json:"start"`
	End        locationRecord        `json:"end"`
	Selected   []restaurantRecord    `json:"selected_restaurants"`
	Shown      []restaurantRecord    `json:"shown_restaurants,omitempty"`
	Meals      map[string]mealRecord `json:"meal_preferences,omitempty"`
	Dietary    []string              `json:"dietary_restrictions,omitempty"`
	Cuisines   []string              `json:"preferred_cuisines,omitempty"`
	Budget     float64               `json:"daily_budget,omitempty"`
	RecordedAt time.Time             `json:"recorded_at"`
}

func toLocationRecord(l domain.Location) locationRecord {
	rec := locationRecord{Address: l.Address}
	if l.Coords != nil {
		lat, lng := l.Coords.Lat, l.Coords.Lon
		rec.Lat, rec.Lng = &lat, &lng
	}
	return rec
}

func toRestaurantRecords(in []domain.SelectedRestaurant) []restaurantRecord {
	out := make([]restaurantRecord, len(in))
	for i, s := range in {
		out[i] = restaurantRecord{
			SourceID:    s.SourceID,
			Name:        s.Name,
			Cuisine:     s.Cuisine,
			Lat:         s.Lat,
			Lng:         s.Lon,
			Address:     s.Address,
			Rating:      s.Rating,
			PriceLevel:  s.PriceLevel,
			DietaryTags: s.DietaryTags,
			Deal:        s.Deal,
			Distance:    s.DistanceFromAnchorMiles,
			MealType:    string(s.MealType),
		}
	}
	return out
}

func toSelectionEventRecord(e domain.UserSelectionEvent) selectionEventRecord {
	meals := make(map[string]mealRecord, len(e.PreferencesSnapshot.Meals))
	for m, p := range e.PreferencesSnapshot.Meals {
		meals[string(m)] = mealRecord{
			Enabled:       p.Enabled,
			RadiusMiles:   p.RadiusMiles,
			PreferredTime: p.PreferredTime.String(),
		}
	}

	return selectionEventRecord{
		ID:         e.ID,
		UserID:     e.UserID,
		TripID:     e.Trip.TripID,
		Start:      toLocationRecord(e.Trip.Start),
		End:        toLocationRecord(e.Trip.End),
		Selected:   toRestaurantRecords(e.Selected),
		Shown:      toRestaurantRecords(e.Shown),
		Meals:      meals,
		Dietary:    e.PreferencesSnapshot.DietaryRestrictions,
		Cuisines:   e.PreferencesSnapshot.PreferredCuisines,
		Budget:     e.PreferencesSnapshot.DailyBudget,
		RecordedAt: e.RecordedAt.UTC(),
	}
}
