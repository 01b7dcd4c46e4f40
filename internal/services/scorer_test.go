package services

import (
	"fmt"
	"roadtrip-meal-service/internal/domain"
	"testing"
)

func venue(id, cuisine string, dist, rating float64, price int, tags ...string) domain.Restaurant {
	return domain.Restaurant{
		SourceID:                id,
		Name:                    id,
		Cuisine:                 cuisine,
		Rating:                  rating,
		PriceLevel:              price,
		DietaryTags:             tags,
		DistanceFromAnchorMiles: dist,
	}
}

func TestRankFiltersDietaryRestrictions(t *testing.T) {
	s := NewScorer(ScorerConfig{})
	pool := []domain.Restaurant{
		venue("a", "italian", 1, 4, 2, "vegetarian"),
		venue("b", "burger", 2, 3, 1),
	}

	got, stats := s.Rank(domain.Lunch, pool, domain.Constraints{DietaryRestrictions: []string{"Vegan"}}, domain.DefaultWeights(""), 10)
	if len(got) != 0 {
		t.Fatalf("got %d candidates, want none without a vegan tag", len(got))
	}
	if stats.Considered != 2 || stats.Eligible != 0 {
		t.Errorf("stats = %+v", stats)
	}
	if got == nil {
		t.Error("empty result should be an empty slice, not nil")
	}

	pool = append(pool, venue("c", "vegan", 3, 4, 2, "vegan", "gluten_free"))
	got, _ = s.Rank(domain.Lunch, pool, domain.Constraints{DietaryRestrictions: []string{"Vegan", "Gluten-Free"}}, domain.DefaultWeights(""), 10)
	if len(got) != 1 || got[0].SourceID != "c" {
		t.Fatalf("got %+v, want only c", got)
	}
}

func TestRankBudgetFilterUsesSlack(t *testing.T) {
	s := NewScorer(ScorerConfig{BudgetSlack: 0.25})
	pool := []domain.Restaurant{
		venue("cheap", "", 1, 3, 1),
		venue("mid", "", 1, 3, 2),
		venue("fancy", "", 1, 3, 3),
	}

	// $48/day over two meals is $24 per meal; $20 fits, $40 exceeds $30.
	got, _ := s.Rank(domain.Dinner, pool, domain.Constraints{DailyBudget: 48, MealsPerDay: 2}, domain.DefaultWeights(""), 5)
	ids := map[string]bool{}
	for _, c := range got {
		ids[c.SourceID] = true
	}
	if !ids["cheap"] || !ids["mid"] || ids["fancy"] {
		t.Fatalf("kept %v, want cheap and mid", ids)
	}
}

func TestRankRespectsRadiusOrderAndTopN(t *testing.T) {
	s := NewScorer(ScorerConfig{TopN: 5})
	var pool []domain.Restaurant
	for i := 0; i < 12; i++ {
		pool = append(pool, venue(fmt.Sprintf("r%02d", i), "thai", float64(i), float64(i%5)+0.5, 1+i%4))
	}

	got, _ := s.Rank(domain.Lunch, pool, domain.Constraints{PreferredCuisines: []string{"thai"}}, domain.DefaultWeights(""), 8)
	if len(got) != 5 {
		t.Fatalf("got %d, want top 5", len(got))
	}
	for i, c := range got {
		if c.DistanceFromAnchorMiles > 8 {
			t.Errorf("%s at %v miles exceeds radius", c.SourceID, c.DistanceFromAnchorMiles)
		}
		if c.MealType != domain.Lunch {
			t.Errorf("meal type = %s", c.MealType)
		}
		if i > 0 && c.Score > got[i-1].Score {
			t.Errorf("scores not non-increasing at %d: %v > %v", i, c.Score, got[i-1].Score)
		}
		if c.Score < 0 || c.Score > 1 {
			t.Errorf("score %v outside [0,1]", c.Score)
		}
		if len(c.Reasons) == 0 {
			t.Errorf("%s has no reasons", c.SourceID)
		}
	}
}

func TestFeatures(t *testing.T) {
	s := NewScorer(ScorerConfig{})
	w := domain.DefaultWeights("")
	c := domain.Constraints{PreferredCuisines: []string{"Thai"}, DailyBudget: 60, MealsPerDay: 3}

	r := venue("a", "thai", 2.5, 4, 2)
	r.Deal = "10% off"
	fv := s.Features(r, c, w, 10)

	want := domain.FeatureVector{
		domain.FeatureCuisineMatch: 1,
		domain.FeatureRating:       0.8,
		domain.FeaturePriceFit:     1,
		domain.FeatureDistance:     0.75,
		domain.FeatureDeal:         1,
	}
	for f, v := range want {
		if diff := fv[f] - v; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("%s = %v, want %v", f, fv[f], v)
		}
	}

	if got := s.Features(venue("b", "vietnamese", 0, 0, 4), c, w, 10)[domain.FeatureCuisineMatch]; got != 0.5 {
		t.Errorf("related cuisine = %v, want 0.5", got)
	}
	if got := s.Features(venue("b", "burger", 0, 0, 4), c, w, 10)[domain.FeatureCuisineMatch]; got != 0 {
		t.Errorf("unrelated cuisine = %v, want 0", got)
	}
	if got := s.Features(venue("b", "burger", 0, 0, 4), domain.Constraints{}, w, 10); got[domain.FeatureCuisineMatch] != 0.5 || got[domain.FeaturePriceFit] != 0.5 {
		t.Errorf("no preferences should be neutral, got %v", got)
	}
}

func TestEstimatedCostClampsLevels(t *testing.T) {
	s := NewScorer(ScorerConfig{TierCosts: [4]float64{5, 15, 30, 60}})
	if s.EstimatedCost(0) != 5 || s.EstimatedCost(9) != 60 || s.EstimatedCost(2) != 15 {
		t.Fatalf("unexpected tier mapping")
	}
}
