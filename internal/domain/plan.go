package domain

// TripTiming summarizes departure and arrival for the whole drive.
type TripTiming struct {
	Departure ClockTime
	Arrival   ClockTime
	// ArrivalDayOffset counts midnights crossed before arrival.
	ArrivalDayOffset int
	TotalTravelHours float64
}

// SearchMetadata describes how the candidate search was run.
type SearchMetadata struct {
	AnchorsSearched int
	// CandidatesFound counts distinct venues before filtering.
	CandidatesFound int
	RadiusByMeal    map[MealType]float64
	Source          string
	// Personalized is true when the user's learned weights were applied.
	Personalized bool
}

// TripPlan is the successful result of planning one trip.
type TripPlan struct {
	Route             RouteGeometry
	Anchors           []MealAnchor
	RestaurantsByMeal map[MealType][]ScoredCandidate
	Timing            TripTiming
	Metadata          SearchMetadata
	Warnings          []string
}
