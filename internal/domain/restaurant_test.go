package domain

import (
	"context"
	"fmt"
	"sort"
	"testing"
)

func TestNormalizeTag(t *testing.T) {
	for in, want := range map[string]string{
		"Gluten-free":  "gluten_free",
		" gluten free": "gluten_free",
		"Vegan":        "vegan",
		"Dairy - free": "dairy_free",
	} {
		if got := NormalizeTag(in); got != want {
			t.Errorf("NormalizeTag(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCandidateLessOrdering(t *testing.T) {
	cands := []ScoredCandidate{
		{Restaurant: Restaurant{SourceID: "far", DistanceFromAnchorMiles: 4, Rating: 4}, Score: 0.8},
		{Restaurant: Restaurant{SourceID: "best", DistanceFromAnchorMiles: 9, Rating: 1}, Score: 0.9},
		{Restaurant: Restaurant{SourceID: "near", DistanceFromAnchorMiles: 1, Rating: 3}, Score: 0.8},
		{Restaurant: Restaurant{SourceID: "near-better", DistanceFromAnchorMiles: 1, Rating: 4.5}, Score: 0.8},
	}

	sort.SliceStable(cands, func(i, j int) bool { return CandidateLess(cands[i], cands[j]) })

	want := []string{"best", "near-better", "near", "far"}
	for i, id := range want {
		if cands[i].SourceID != id {
			t.Fatalf("position %d = %q, want %q", i, cands[i].SourceID, id)
		}
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorKind
	}{
		{fmt.Errorf("geocode: %w", ErrAddressNotFound), KindAddressNotFound},
		{fmt.Errorf("route: %w", ErrNoRouteFound), KindNoRouteFound},
		{fmt.Errorf("route: %w", context.DeadlineExceeded), KindProviderUnavailable},
		{fmt.Errorf("decode: %w", ErrInvalidRequest), KindInvalidRequest},
		{fmt.Errorf("plan: %w", context.Canceled), KindCanceled},
		{fmt.Errorf("route: %w: %w", ErrProviderUnavailable, context.Canceled), KindCanceled},
		{fmt.Errorf("boom"), KindInternal},
	}
	for _, tt := range tests {
		if got := KindOf(tt.err); got != tt.want {
			t.Errorf("KindOf(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
