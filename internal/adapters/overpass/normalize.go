package overpass

import (
	"roadtrip-meal-service/internal/domain"
	"sort"
	"strconv"
	"strings"
)

// cuisineOf returns the first cuisine value, or the amenity type when the
// venue has no cuisine tag ("cafe", "fast_food").
func cuisineOf(tags map[string]string) string {
	if c := tags["cuisine"]; c != "" {
		first, _, _ := strings.Cut(c, ";")
		if n := domain.NormalizeTag(first); n != "" {
			return n
		}
	}
	switch a := tags["amenity"]; a {
	case "cafe", "fast_food", "pub":
		return a
	}
	return ""
}

func addressOf(tags map[string]string) string {
	parts := make([]string, 0, 4)

	street := tags["addr:street"]
	switch {
	case street != "" && tags["addr:housenumber"] != "":
		parts = append(parts, tags["addr:housenumber"]+" "+street)
	case street != "":
		parts = append(parts, street)
	}
	for _, k := range []string{"addr:city", "addr:state", "addr:postcode"} {
		if v := tags[k]; v != "" {
			parts = append(parts, v)
		}
	}

	return strings.Join(parts, ", ")
}

// ratingOf reads the OSM stars tag; venues without one get the neutral rating.
func ratingOf(tags map[string]string) float64 {
	if s, ok := tags["stars"]; ok {
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return domain.Clamp(v, 0, domain.MaxRating)
		}
	}
	return domain.NeutralRating
}

// priceLevelOf maps the price tag ("$$", "cheap", "expensive") to a 1-4 tier
// and otherwise infers it from the amenity type.
func priceLevelOf(tags map[string]string) int {
	if p := strings.ToLower(strings.TrimSpace(tags["price"])); p != "" {
		switch {
		case strings.Contains(p, "$$$$"):
			return 4
		case strings.Contains(p, "$$$"), strings.Contains(p, "expensive"):
			return 3
		case strings.Contains(p, "$$"), strings.Contains(p, "moderate"):
			return 2
		case strings.Contains(p, "$"), strings.Contains(p, "cheap"):
			return 1
		}
	}

	switch tags["amenity"] {
	case "fast_food", "food_court":
		return 1
	}
	return domain.DefaultPriceLevel
}

// dietaryTagsOf collects diet:*=yes|only tags plus dietary clues in the
// cuisine tag. Output is sorted and normalized.
func dietaryTagsOf(tags map[string]string) []string {
	set := map[string]struct{}{}
	for k, v := range tags {
		diet, ok := strings.CutPrefix(k, "diet:")
		if !ok {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "yes", "only":
			set[domain.NormalizeTag(diet)] = struct{}{}
		}
	}

	cuisine := strings.ToLower(tags["cuisine"])
	if strings.Contains(cuisine, "vegan") {
		set["vegan"] = struct{}{}
		set["vegetarian"] = struct{}{}
	} else if strings.Contains(cuisine, "vegetarian") {
		set["vegetarian"] = struct{}{}
	}

	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
