package dto

import (
	"roadtrip-meal-service/internal/domain"
	"strings"
	"time"
)

// Restaurant is the wire form of a venue, shared by plan responses and the
// selection events clients echo back.
type Restaurant struct {
	SourceID                string   `json:"source_id" validate:"required,max=256"`
	Name                    string   `json:"name" validate:"max=256"`
	Cuisine                 string   `json:"cuisine,omitempty" validate:"max=64"`
	Lat                     float64  `json:"lat" validate:"gte=-90,lte=90"`
	Lng                     float64  `json:"lng" validate:"gte=-180,lte=180"`
	Address                 string   `json:"address,omitempty"`
	Rating                  float64  `json:"rating" validate:"gte=0,lte=5"`
	PriceLevel              int      `json:"price_level" validate:"gte=0,lte=4"`
	DietaryTags             []string `json:"dietary_tags"`
	Deal                    string   `json:"deal,omitempty"`
	Sources                 []string `json:"sources,omitempty"`
	DistanceFromAnchorMiles float64  `json:"distance_from_anchor_miles" validate:"gte=0"`
}

func NewRestaurant(r domain.Restaurant) Restaurant {
	tags := r.DietaryTags
	if tags == nil {
		tags = []string{}
	}
	return Restaurant{
		SourceID:                r.SourceID,
		Name:                    r.Name,
		Cuisine:                 r.Cuisine,
		Lat:                     r.Lat,
		Lng:                     r.Lon,
		Address:                 r.Address,
		Rating:                  r.Rating,
		PriceLevel:              r.PriceLevel,
		DietaryTags:             tags,
		Deal:                    r.Deal,
		Sources:                 r.Sources,
		DistanceFromAnchorMiles: r.DistanceFromAnchorMiles,
	}
}

func (r Restaurant) ToDomain() domain.Restaurant {
	price := r.PriceLevel
	if price == 0 {
		price = domain.DefaultPriceLevel
	}
	return domain.Restaurant{
		SourceID:                r.SourceID,
		Name:                    r.Name,
		Cuisine:                 r.Cuisine,
		Lat:                     r.Lat,
		Lon:                     r.Lng,
		Address:                 r.Address,
		Rating:                  r.Rating,
		PriceLevel:              price,
		DietaryTags:             r.DietaryTags,
		Deal:                    r.Deal,
		Sources:                 r.Sources,
		DistanceFromAnchorMiles: r.DistanceFromAnchorMiles,
	}
}

type SelectedRestaurant struct {
	Restaurant Restaurant `json:"restaurant"`
	MealType   string     `json:"meal_type" validate:"required,oneof=breakfast lunch dinner"`
}

type TripContext struct {
	TripID string   `json:"trip_id" validate:"max=128"`
	Start  Location `json:"start"`
	End    Location `json:"end"`
}

type PreferencesSnapshot struct {
	MealPreferences     MealPreferences `json:"meal_preferences" validate:"max=3,dive,keys,oneof=breakfast lunch dinner,endkeys"`
	DietaryRestrictions []string        `json:"dietary_restrictions" validate:"max=16,dive,max=64"`
	PreferredCuisines   []string        `json:"preferred_cuisines" validate:"max=16,dive,max=64"`
	DailyBudget         float64         `json:"daily_budget" validate:"gte=0"`
}

type SelectionEventRequest struct {
	UserID              string               `json:"user_id" validate:"required,max=128"`
	TripContext         TripContext          `json:"trip_context"`
	SelectedRestaurants []SelectedRestaurant `json:"selected_restaurants" validate:"required,min=1,max=20,dive"`
	ShownRestaurants    []SelectedRestaurant `json:"shown_restaurants" validate:"max=60,dive"`
	PreferencesSnapshot PreferencesSnapshot  `json:"preferences_snapshot"`
	// RecordedAt defaults to the time the event is received.
	RecordedAt *time.Time `json:"recorded_at,omitempty"`
}

func (e SelectionEventRequest) mealPreferences() map[string]MealPreferences {
	return map[string]MealPreferences{"preferences_snapshot.meal_preferences": e.PreferencesSnapshot.MealPreferences}
}

func (e SelectionEventRequest) ToDomain() (domain.UserSelectionEvent, error) {
	start, err := e.TripContext.Start.ToDomain("trip_context.start")
	if err != nil {
		return domain.UserSelectionEvent{}, err
	}
	end, err := e.TripContext.End.ToDomain("trip_context.end")
	if err != nil {
		return domain.UserSelectionEvent{}, err
	}
	meals, err := e.PreferencesSnapshot.MealPreferences.toDomain()
	if err != nil {
		return domain.UserSelectionEvent{}, err
	}
	selected, err := toSelected(e.SelectedRestaurants)
	if err != nil {
		return domain.UserSelectionEvent{}, err
	}
	shown, err := toSelected(e.ShownRestaurants)
	if err != nil {
		return domain.UserSelectionEvent{}, err
	}

	out := domain.UserSelectionEvent{
		UserID:   strings.TrimSpace(e.UserID),
		Trip:     domain.TripContext{TripID: e.TripContext.TripID, Start: start, End: end},
		Selected: selected,
		Shown:    shown,
		PreferencesSnapshot: domain.PreferencesSnapshot{
			Meals:               meals,
			DietaryRestrictions: e.PreferencesSnapshot.DietaryRestrictions,
			PreferredCuisines:   e.PreferencesSnapshot.PreferredCuisines,
			DailyBudget:         e.PreferencesSnapshot.DailyBudget,
		},
	}
	if e.RecordedAt != nil {
		out.RecordedAt = e.RecordedAt.UTC()
	}
	return out, nil
}

func toSelected(in []SelectedRestaurant) ([]domain.SelectedRestaurant, error) {
	out := make([]domain.SelectedRestaurant, 0, len(in))
	for _, s := range in {
		meal, err := domain.ParseMealType(s.MealType)
		if err != nil {
			return nil, invalid("%v", err)
		}
		out = append(out, domain.SelectedRestaurant{Restaurant: s.Restaurant.ToDomain(), MealType: meal})
	}
	return out, nil
}

type LearnResponse struct {
	Success bool `json:"success"`
	// Updates is the user's total number of learned selection events.
	Updates int `json:"updates"`
}

type PreferenceWeightsResponse struct {
	UserID          string             `json:"user_id"`
	Weights         map[string]float64 `json:"weights"`
	CuisineAffinity map[string]float64 `json:"cuisine_affinity"`
	Updates         int                `json:"updates"`
	UpdatedAt       *time.Time         `json:"updated_at,omitempty"`
}

func NewPreferenceWeightsResponse(w domain.PreferenceWeights) PreferenceWeightsResponse {
	weights := make(map[string]float64, len(domain.Features))
	for _, f := range domain.Features {
		weights[string(f)] = w.Weight(f)
	}
	affinity := make(map[string]float64, len(w.CuisineAffinity))
	for c, a := range w.CuisineAffinity {
		affinity[c] = a
	}
	out := PreferenceWeightsResponse{
		UserID:          w.UserID,
		Weights:         weights,
		CuisineAffinity: affinity,
		Updates:         w.Updates,
	}
	if !w.UpdatedAt.IsZero() {
		t := w.UpdatedAt.UTC()
		out.UpdatedAt = &t
	}
	return out
}

type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}
