package services

import (
	"roadtrip-meal-service/internal/domain"
	"strings"
)

// cuisineGroups maps a normalized cuisine to its family. Cuisines in the same
// family count as a partial match.
var cuisineGroups = map[string]string{
	"chinese": "east_asian", "japanese": "east_asian", "korean": "east_asian",
	"sushi": "east_asian", "ramen": "east_asian", "asian": "east_asian",
	"thai": "southeast_asian", "vietnamese": "southeast_asian", "filipino": "southeast_asian",
	"indian": "south_asian", "pakistani": "south_asian", "nepalese": "south_asian",
	"mexican": "latin", "tex_mex": "latin", "tacos": "latin", "latin": "latin",
	"latin_american": "latin", "brazilian": "latin", "peruvian": "latin",
	"italian": "european", "pizza": "european", "french": "european",
	"spanish": "european", "german": "european", "european": "european",
	"greek": "mediterranean", "mediterranean": "mediterranean", "lebanese": "mediterranean",
	"turkish": "mediterranean", "middle_eastern": "mediterranean", "kebab": "mediterranean",
	"american": "american", "burger": "american", "bbq": "american", "barbecue": "american",
	"diner": "american", "steak_house": "american", "chicken": "american",
	"sandwich": "american", "fast_food": "american", "hot_dog": "american",
	"cafe": "cafe", "coffee_shop": "cafe", "bakery": "cafe", "breakfast": "cafe",
	"donut": "cafe", "brunch": "cafe",
	"seafood": "seafood", "fish": "seafood", "fish_and_chips": "seafood",
	"vegan": "plant_based", "vegetarian": "plant_based", "salad": "plant_based",
}

// requestCuisineMatch is 1 for an exact match, 0.5 for the same family and 0
// otherwise. Without stated preferences every venue is a neutral 0.5.
func requestCuisineMatch(cuisine string, preferred []string) float64 {
	prefs := make([]string, 0, len(preferred))
	for _, p := range preferred {
		if n := domain.NormalizeTag(p); n != "" {
			prefs = append(prefs, n)
		}
	}
	if len(prefs) == 0 {
		return 0.5
	}

	c := domain.NormalizeTag(cuisine)
	if c == "" {
		return 0
	}

	best := 0.0
	for _, p := range prefs {
		switch {
		case c == p, strings.Contains(c, p):
			return 1
		case cuisineGroups[c] != "" && cuisineGroups[c] == cuisineGroups[p]:
			best = 0.5
		}
	}
	return best
}

// cuisineScore lifts the request match toward 1 by the learned affinity for
// the venue's cuisine.
func cuisineScore(cuisine string, preferred []string, w domain.PreferenceWeights) float64 {
	base := requestCuisineMatch(cuisine, preferred)
	aff := domain.Clamp(w.Affinity(cuisine), 0, 1)
	return base + (1-base)*aff
}
