package dto

import (
	"roadtrip-meal-service/internal/domain"
	"strings"
)

type Location struct {
	Lat     *float64 `json:"lat,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Lng     *float64 `json:"lng,omitempty" validate:"omitempty,gte=-180,lte=180"`
	Address string   `json:"address,omitempty" validate:"max=512"`
}

// ToDomain uses lat/lng when both are given and falls back to the address.
func (l Location) ToDomain(name string) (domain.Location, error) {
	if (l.Lat == nil) != (l.Lng == nil) {
		return domain.Location{}, invalid("%s: lat and lng must be given together", name)
	}
	loc := domain.Location{Address: strings.TrimSpace(l.Address)}
	if l.Lat != nil {
		loc.Coords = &domain.Coordinates{Lat: *l.Lat, Lon: *l.Lng}
	}
	return loc, nil
}

func newLocation(l domain.Location) Location {
	out := Location{Address: l.Address}
	if l.Coords != nil {
		lat, lng := l.Coords.Lat, l.Coords.Lon
		out.Lat, out.Lng = &lat, &lng
	}
	return out
}

type MealPreference struct {
	Enabled       bool    `json:"enabled"`
	RadiusMiles   float64 `json:"radius_miles" validate:"gte=0,lte=50"`
	PreferredTime string  `json:"preferred_time" validate:"required_if=Enabled true"`
}

// MealPreferences is keyed by meal name ("breakfast", "lunch", "dinner").
type MealPreferences map[string]MealPreference

func (m MealPreferences) toDomain() (map[domain.MealType]domain.MealPreference, error) {
	out := make(map[domain.MealType]domain.MealPreference, len(m))
	for name, p := range m {
		meal, err := domain.ParseMealType(name)
		if err != nil {
			return nil, invalid("meal_preferences: %v", err)
		}
		if p.RadiusMiles < 0 || p.RadiusMiles > domain.MaxRadiusMiles {
			return nil, invalid("meal_preferences[%s].radius_miles must be in [0, %v]", meal, domain.MaxRadiusMiles)
		}
		if p.Enabled && strings.TrimSpace(p.PreferredTime) == "" {
			return nil, invalid("meal_preferences[%s].preferred_time is required", meal)
		}
		pref := domain.MealPreference{Enabled: p.Enabled, RadiusMiles: p.RadiusMiles}
		if strings.TrimSpace(p.PreferredTime) != "" {
			t, err := domain.ParseClockTime(p.PreferredTime)
			if err != nil {
				return nil, invalid("meal_preferences.%s.preferred_time: %v", meal, err)
			}
			pref.PreferredTime = t
		}
		out[meal] = pref
	}
	return out, nil
}

func newMealPreferences(in map[domain.MealType]domain.MealPreference) MealPreferences {
	out := make(MealPreferences, len(in))
	for m, p := range in {
		out[string(m)] = MealPreference{
			Enabled:       p.Enabled,
			RadiusMiles:   p.RadiusMiles,
			PreferredTime: p.PreferredTime.String(),
		}
	}
	return out
}

type TripRequest struct {
	UserID              string          `json:"user_id" validate:"max=128"`
	StartLocation       Location        `json:"start_location"`
	EndLocation         Location        `json:"end_location"`
	DepartureTime       string          `json:"departure_time" validate:"required"`
	MealPreferences     MealPreferences `json:"meal_preferences" validate:"required,min=1,max=3,dive,keys,oneof=breakfast lunch dinner,endkeys"`
	DietaryRestrictions []string        `json:"dietary_restrictions" validate:"max=16,dive,max=64"`
	PreferredCuisines   []string        `json:"preferred_cuisines" validate:"max=16,dive,max=64"`
	DailyBudget         float64         `json:"daily_budget" validate:"gte=0"`
}

func (r TripRequest) mealPreferences() map[string]MealPreferences {
	return map[string]MealPreferences{"meal_preferences": r.MealPreferences}
}

// ToDomain converts a validated request. Range checks that depend on which
// meals are enabled are left to domain.TripRequest.Validate.
func (r TripRequest) ToDomain() (domain.TripRequest, error) {
	start, err := r.StartLocation.ToDomain("start_location")
	if err != nil {
		return domain.TripRequest{}, err
	}
	end, err := r.EndLocation.ToDomain("end_location")
	if err != nil {
		return domain.TripRequest{}, err
	}
	departure, err := domain.ParseClockTime(r.DepartureTime)
	if err != nil {
		return domain.TripRequest{}, invalid("departure_time: %v", err)
	}
	meals, err := r.MealPreferences.toDomain()
	if err != nil {
		return domain.TripRequest{}, err
	}

	return domain.TripRequest{
		UserID:              strings.TrimSpace(r.UserID),
		Start:               start,
		End:                 end,
		DepartureTime:       departure,
		Meals:               meals,
		DietaryRestrictions: r.DietaryRestrictions,
		PreferredCuisines:   r.PreferredCuisines,
		DailyBudget:         r.DailyBudget,
	}, nil
}

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func newCoordinates(c domain.Coordinates) Coordinates { return Coordinates{Lat: c.Lat, Lng: c.Lon} }

type RouteResponse struct {
	Geometry      []Coordinates `json:"geometry"`
	DistanceMiles float64       `json:"distance_miles"`
	DurationHours float64       `json:"duration_hours"`
	// BBox is [minLng, minLat, maxLng, maxLat].
	BBox []float64 `json:"bbox"`
}

type AnchorResponse struct {
	MealType           string      `json:"meal_type"`
	Position           Coordinates `json:"position"`
	RadiusMiles        float64     `json:"radius_miles"`
	EstimatedArrival   string      `json:"estimated_arrival"`
	HoursFromDeparture float64     `json:"hours_from_departure"`
	DayOffset          int         `json:"day_offset"`
}

type ScoredCandidateResponse struct {
	Restaurant
	MealType string             `json:"meal_type"`
	Score    float64            `json:"score"`
	Features map[string]float64 `json:"features"`
	Reasons  []string           `json:"reasons"`
}

type TimingResponse struct {
	DepartureTime    string  `json:"departure_time"`
	ArrivalTime      string  `json:"arrival_time"`
	ArrivalDayOffset int     `json:"arrival_day_offset"`
	TotalTravelHours float64 `json:"total_travel_hours"`
}

type SearchMetadataResponse struct {
	AnchorsSearched int                `json:"anchors_searched"`
	CandidatesFound int                `json:"candidates_found"`
	RadiusByMeal    map[string]float64 `json:"radius_by_meal"`
	Source          string             `json:"source"`
	Personalized    bool               `json:"personalized"`
}

type TripPlanResponse struct {
	Route             RouteResponse                        `json:"route"`
	Anchors           []AnchorResponse                     `json:"anchors"`
	RestaurantsByMeal map[string][]ScoredCandidateResponse `json:"restaurants_by_meal"`
	Timing            TimingResponse                       `json:"timing"`
	SearchMetadata    SearchMetadataResponse               `json:"search_metadata"`
	Warnings          []string                             `json:"warnings"`
}

func NewTripPlanResponse(p *domain.TripPlan) TripPlanResponse {
	geometry := make([]Coordinates, len(p.Route.Vertices))
	for i, v := range p.Route.Vertices {
		geometry[i] = newCoordinates(v)
	}

	anchors := make([]AnchorResponse, len(p.Anchors))
	for i, a := range p.Anchors {
		anchors[i] = AnchorResponse{
			MealType:           string(a.MealType),
			Position:           newCoordinates(a.Position),
			RadiusMiles:        a.RadiusMiles,
			EstimatedArrival:   a.EstimatedArrival.String(),
			HoursFromDeparture: a.HoursFromDeparture,
			DayOffset:          a.DayOffset,
		}
	}

	byMeal := make(map[string][]ScoredCandidateResponse, len(p.RestaurantsByMeal))
	for m, cs := range p.RestaurantsByMeal {
		out := make([]ScoredCandidateResponse, len(cs))
		for i, c := range cs {
			out[i] = newScoredCandidate(c)
		}
		byMeal[string(m)] = out
	}

	radii := make(map[string]float64, len(p.Metadata.RadiusByMeal))
	for m, r := range p.Metadata.RadiusByMeal {
		radii[string(m)] = r
	}

	warnings := p.Warnings
	if warnings == nil {
		warnings = []string{}
	}

	return TripPlanResponse{
		Route: RouteResponse{
			Geometry:      geometry,
			DistanceMiles: p.Route.DistanceMiles,
			DurationHours: p.Route.DurationHours,
			BBox:          p.Route.BBox.ToList(),
		},
		Anchors:           anchors,
		RestaurantsByMeal: byMeal,
		Timing: TimingResponse{
			DepartureTime:    p.Timing.Departure.String(),
			ArrivalTime:      p.Timing.Arrival.String(),
			ArrivalDayOffset: p.Timing.ArrivalDayOffset,
			TotalTravelHours: p.Timing.TotalTravelHours,
		},
		SearchMetadata: SearchMetadataResponse{
			AnchorsSearched: p.Metadata.AnchorsSearched,
			CandidatesFound: p.Metadata.CandidatesFound,
			RadiusByMeal:    radii,
			Source:          p.Metadata.Source,
			Personalized:    p.Metadata.Personalized,
		},
		Warnings: warnings,
	}
}

func newScoredCandidate(c domain.ScoredCandidate) ScoredCandidateResponse {
	features := make(map[string]float64, len(c.Features))
	for f, v := range c.Features {
		features[string(f)] = v
	}
	reasons := c.Reasons
	if reasons == nil {
		reasons = []string{}
	}
	return ScoredCandidateResponse{
		Restaurant: NewRestaurant(c.Restaurant),
		MealType:   string(c.MealType),
		Score:      c.Score,
		Features:   features,
		Reasons:    reasons,
	}
}
