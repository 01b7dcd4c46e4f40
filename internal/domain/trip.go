package domain

import (
	"fmt"
	"strings"
)

// MealType enumerates the meals a trip can plan stops for.
type MealType string

const (
	Breakfast MealType = "breakfast"
	Lunch     MealType = "lunch"
	Dinner    MealType = "dinner"
)

// MealTypes lists every meal in the order they are planned and reported.
var MealTypes = []MealType{Breakfast, Lunch, Dinner}

// ParseMealType normalizes s into a MealType.
func ParseMealType(s string) (MealType, error) {
	m := MealType(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case Breakfast, Lunch, Dinner:
		return m, nil
	}
	return "", fmt.Errorf("unknown meal type %q", s)
}

// MealPreference configures the stop for a single meal.
type MealPreference struct {
	Enabled       bool
	RadiusMiles   float64
	PreferredTime ClockTime
}

// TripRequest is one immutable planning request.
type TripRequest struct {
	UserID              string
	Start               Location
	End                 Location
	DepartureTime       ClockTime
	Meals               map[MealType]MealPreference
	DietaryRestrictions []string
	PreferredCuisines   []string
	DailyBudget         float64
}

// EnabledMeals returns enabled meals in canonical order.
func (r TripRequest) EnabledMeals() []MealType {
	out := make([]MealType, 0, len(MealTypes))
	for _, m := range MealTypes {
		if p, ok := r.Meals[m]; ok && p.Enabled {
			out = append(out, m)
		}
	}
	return out
}

// Constraints returns the filter inputs carried by the request.
func (r TripRequest) Constraints() Constraints {
	return Constraints{
		DietaryRestrictions: r.DietaryRestrictions,
		PreferredCuisines:   r.PreferredCuisines,
		DailyBudget:         r.DailyBudget,
		MealsPerDay:         len(r.EnabledMeals()),
	}
}

// Constraints are the hard and soft inputs to filtering and ranking.
type Constraints struct {
	DietaryRestrictions []string
	PreferredCuisines   []string
	DailyBudget         float64
	// MealsPerDay is the divisor for the naive per-meal budget share.
	MealsPerDay int
}

// PerMealBudget returns the naive share of the daily budget for one meal,
// or 0 when no budget was given.
func (c Constraints) PerMealBudget() float64 {
	if c.DailyBudget <= 0 {
		return 0
	}
	n := c.MealsPerDay
	if n <= 0 {
		n = len(MealTypes)
	}
	return c.DailyBudget / float64(n)
}

// MealAnchor is the search center for one meal along the route.
type MealAnchor struct {
	MealType           MealType
	Position           Coordinates
	RadiusMiles        float64
	HoursFromDeparture float64
	EstimatedArrival   ClockTime
	// DayOffset counts midnights crossed between departure and arrival.
	DayOffset int
	// RouteFraction is the fraction of route distance covered at the anchor.
	RouteFraction float64
}

// MealTimePolicy decides what to do with a meal whose preferred time of day
// is earlier than the departure time.
type MealTimePolicy string

const (
	// MealTimeWrap treats the meal as the next day.
	MealTimeWrap MealTimePolicy = "wrap"
	// MealTimeSkip drops the meal for this trip.
	MealTimeSkip MealTimePolicy = "skip"
)

func ParseMealTimePolicy(s string) (MealTimePolicy, error) {
	switch p := MealTimePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case MealTimeWrap, MealTimeSkip:
		return p, nil
	case "":
		return MealTimeWrap, nil
	}
	return "", fmt.Errorf("unknown meal time policy %q", s)
}

// MaxRadiusMiles bounds per-meal search radii.
const MaxRadiusMiles = 50.0

// Validate checks the request at the boundary. Failures wrap ErrInvalidRequest.
func (r TripRequest) Validate() error {
	if err := r.Start.validate("start"); err != nil {
		return err
	}
	if err := r.End.validate("end"); err != nil {
		return err
	}
	if len(r.EnabledMeals()) == 0 {
		return fmt.Errorf("%w: at least one meal must be enabled", ErrInvalidRequest)
	}
	for _, m := range r.EnabledMeals() {
		p := r.Meals[m]
		if p.RadiusMiles <= 0 || p.RadiusMiles > MaxRadiusMiles {
			return fmt.Errorf("%w: %s radius %v must be in (0, %v] miles", ErrInvalidRequest, m, p.RadiusMiles, MaxRadiusMiles)
		}
	}
	if r.DailyBudget < 0 {
		return fmt.Errorf("%w: daily budget must not be negative", ErrInvalidRequest)
	}
	return nil
}

func (l Location) validate(name string) error {
	if l.Coords != nil {
		if err := l.Coords.Validate(); err != nil {
			return fmt.Errorf("%w: %s location: %v", ErrInvalidRequest, name, err)
		}
		return nil
	}
	if strings.TrimSpace(l.Address) == "" {
		return fmt.Errorf("%w: %s location needs lat/lng or an address", ErrInvalidRequest, name)
	}
	return nil
}
