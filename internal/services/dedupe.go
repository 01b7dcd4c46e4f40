package services

import (
	"roadtrip-meal-service/internal/domain"
	"roadtrip-meal-service/internal/geo"
	"sort"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
)

const (
	// sameVenueMiles is how close two records must be (about 50 m) to be
	// considered for a name match.
	sameVenueMiles = 0.031
	// sameNameSimilarity is the minimum normalized name similarity.
	sameNameSimilarity = 0.8
)

// SameVenue reports whether a and b describe the same place: identical
// source ids, or neighbouring coordinates with near-identical names.
func SameVenue(a, b domain.Restaurant) bool {
	if a.SourceID != "" && a.SourceID == b.SourceID {
		return true
	}
	if geo.HaversineMiles(a.Coordinates(), b.Coordinates()) > sameVenueMiles {
		return false
	}
	return NameSimilarity(a.Name, b.Name) >= sameNameSimilarity
}

// NameSimilarity is 1 - levenshtein/maxLen over names folded to lower-case
// letters and digits.
func NameSimilarity(a, b string) float64 {
	na, nb := foldName(a), foldName(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}
	longest := max(len([]rune(na)), len([]rune(nb)))
	return 1 - float64(levenshtein.ComputeDistance(na, nb))/float64(longest)
}

func foldName(s string) string {
	var b strings.Builder
	space := false
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteRune(r)
			space = false
		case r == '&':
			// "&" and "and" name the same venue.
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteString("and")
			space = true
		default:
			space = true
		}
	}
	return b.String()
}

// Deduplicate merges records of the same venue, keeping the first occurrence
// and filling its gaps from later ones. Order of first occurrences is kept.
func Deduplicate(rs []domain.Restaurant) []domain.Restaurant {
	out := make([]domain.Restaurant, 0, len(rs))
	for _, r := range rs {
		merged := false
		for i := range out {
			if SameVenue(out[i], r) {
				out[i] = mergeVenue(out[i], r)
				merged = true
				break
			}
		}
		if !merged {
			r.DietaryTags = append([]string(nil), r.DietaryTags...)
			r.Sources = append([]string(nil), r.Sources...)
			out = append(out, r)
		}
	}
	return out
}

func mergeVenue(keep, dup domain.Restaurant) domain.Restaurant {
	if keep.Cuisine == "" {
		keep.Cuisine = dup.Cuisine
	}
	if keep.Address == "" {
		keep.Address = dup.Address
	}
	if keep.Deal == "" {
		keep.Deal = dup.Deal
	}
	if keep.Rating == domain.NeutralRating && dup.Rating != domain.NeutralRating {
		keep.Rating = dup.Rating
	}
	keep.DietaryTags = unionSorted(keep.DietaryTags, dup.DietaryTags)
	keep.Sources = unionSorted(keep.Sources, dup.Sources)
	keep.DistanceFromAnchorMiles = min(keep.DistanceFromAnchorMiles, dup.DistanceFromAnchorMiles)
	return keep
}

func unionSorted(a, b []string) []string {
	set := make(map[string]struct{}, len(a)+len(b))
	for _, s := range a {
		set[s] = struct{}{}
	}
	for _, s := range b {
		set[s] = struct{}{}
	}
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
