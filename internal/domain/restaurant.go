package domain

import "strings"

// Restaurant is the canonical venue model every source normalizes into.
// SourceID is the uniqueness key.
type Restaurant struct {
	SourceID string
	Name     string
	Cuisine  string
	Lat      float64
	Lon      float64
	Address  string
	// Rating on a 0-5 scale. Sources without ratings use NeutralRating.
	Rating float64
	// PriceLevel is 1-4 ("$" to "$$$$").
	PriceLevel              int
	DietaryTags             []string
	Deal                    string
	Sources                 []string
	DistanceFromAnchorMiles float64
}

const (
	NeutralRating     = 2.5
	MaxRating         = 5.0
	MinPriceLevel     = 1
	MaxPriceLevel     = 4
	DefaultPriceLevel = 2
)

func (r Restaurant) Coordinates() Coordinates { return Coordinates{Lat: r.Lat, Lon: r.Lon} }

// HasDietaryTag reports whether the venue carries tag after normalization.
func (r Restaurant) HasDietaryTag(tag string) bool {
	want := NormalizeTag(tag)
	for _, t := range r.DietaryTags {
		if NormalizeTag(t) == want {
			return true
		}
	}
	return false
}

// NormalizeTag folds dietary and cuisine vocabulary into a single form:
// lower case, with spaces and hyphens collapsed to underscores
// ("Gluten-free" and "gluten free" both become "gluten_free").
func NormalizeTag(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("-", "_", " ", "_").Replace(s)
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	return s
}

// Feature names scored by the ranker and learned by the preference learner.
type Feature string

const (
	FeatureCuisineMatch Feature = "cuisine_match"
	FeaturePriceFit     Feature = "price_fit"
	FeatureRating       Feature = "rating"
	FeatureDistance     Feature = "distance"
	FeatureDeal         Feature = "deal"
)

// Features lists every scored feature in a stable order.
var Features = []Feature{FeatureCuisineMatch, FeaturePriceFit, FeatureRating, FeatureDistance, FeatureDeal}

// FeatureVector holds normalized [0,1] feature values for one candidate.
type FeatureVector map[Feature]float64

// ScoredCandidate is a ranked restaurant for one meal.
type ScoredCandidate struct {
	Restaurant
	MealType MealType
	Score    float64
	Features FeatureVector
	Reasons  []string
}

// CandidateLess orders by descending score, then ascending distance from
// the anchor, then descending rating. SourceID breaks remaining ties so the
// ordering is total.
func CandidateLess(a, b ScoredCandidate) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.DistanceFromAnchorMiles != b.DistanceFromAnchorMiles {
		return a.DistanceFromAnchorMiles < b.DistanceFromAnchorMiles
	}
	if a.Rating != b.Rating {
		return a.Rating > b.Rating
	}
	return a.SourceID < b.SourceID
}
