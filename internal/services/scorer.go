package services

import (
	"fmt"
	"math"
	"roadtrip-meal-service/internal/domain"
	"sort"
	"strings"
)

// DefaultTierCosts is the estimated cost of one meal per price level 1-4.
var DefaultTierCosts = [4]float64{10, 20, 40, 70}

type ScorerConfig struct {
	// TopN caps each meal's ranked list.
	TopN int
	// BudgetSlack is the fraction a venue may exceed the per-meal budget
	// share before it is filtered out.
	BudgetSlack float64
	TierCosts   [4]float64
}

// Scorer filters candidates on hard constraints and ranks the survivors by a
// weighted sum of normalized features.
type Scorer struct {
	cfg ScorerConfig
}

func NewScorer(cfg ScorerConfig) *Scorer {
	if cfg.TopN <= 0 {
		cfg.TopN = 5
	}
	if cfg.BudgetSlack < 0 {
		cfg.BudgetSlack = 0
	}
	if cfg.TierCosts == ([4]float64{}) {
		cfg.TierCosts = DefaultTierCosts
	}
	return &Scorer{cfg: cfg}
}

// EstimatedCost maps a price level to the estimated cost of one meal.
// Out-of-range levels are clamped.
func (s *Scorer) EstimatedCost(priceLevel int) float64 {
	lvl := min(max(priceLevel, domain.MinPriceLevel), domain.MaxPriceLevel)
	return s.cfg.TierCosts[lvl-1]
}

// RankStats reports how many candidates were considered and how many passed
// the hard constraints.
type RankStats struct {
	Considered int
	Eligible   int
}

// Eligible applies the hard constraints: inside the radius, every dietary
// restriction covered, and estimated cost within the slack-adjusted
// per-meal share of the daily budget.
func (s *Scorer) Eligible(r domain.Restaurant, c domain.Constraints, radiusMiles float64) bool {
	if r.DistanceFromAnchorMiles > radiusMiles {
		return false
	}
	for _, d := range c.DietaryRestrictions {
		if strings.TrimSpace(d) == "" {
			continue
		}
		if !r.HasDietaryTag(d) {
			return false
		}
	}
	if perMeal := c.PerMealBudget(); perMeal > 0 {
		if s.EstimatedCost(r.PriceLevel) > perMeal*(1+s.cfg.BudgetSlack) {
			return false
		}
	}
	return true
}

// Features computes the normalized [0,1] feature vector for r.
func (s *Scorer) Features(r domain.Restaurant, c domain.Constraints, w domain.PreferenceWeights, radiusMiles float64) domain.FeatureVector {
	fv := domain.FeatureVector{
		domain.FeatureCuisineMatch: cuisineScore(r.Cuisine, c.PreferredCuisines, w),
		domain.FeatureRating:       domain.Clamp(r.Rating/domain.MaxRating, 0, 1),
		domain.FeaturePriceFit:     s.priceFit(r.PriceLevel, c.PerMealBudget()),
		domain.FeatureDistance:     0.5,
		domain.FeatureDeal:         0,
	}
	if radiusMiles > 0 {
		fv[domain.FeatureDistance] = domain.Clamp(1-r.DistanceFromAnchorMiles/radiusMiles, 0, 1)
	}
	if strings.TrimSpace(r.Deal) != "" {
		fv[domain.FeatureDeal] = 1
	}
	return fv
}

// priceFit is 1 when the estimated cost equals the per-meal share and falls
// off linearly to 0 at twice (or zero times) the share. Without a budget
// every venue scores a neutral 0.5.
func (s *Scorer) priceFit(priceLevel int, perMeal float64) float64 {
	if perMeal <= 0 {
		return 0.5
	}
	return 1 - math.Min(1, math.Abs(s.EstimatedCost(priceLevel)-perMeal)/perMeal)
}

// Score is the weight-normalized sum of features, in [0,1].
func Score(fv domain.FeatureVector, w domain.PreferenceWeights) float64 {
	var sum, total float64
	for _, f := range domain.Features {
		wt := w.Weight(f)
		sum += wt * fv[f]
		total += wt
	}
	if total == 0 {
		return 0
	}
	return sum / total
}

// Rank filters, scores, orders and truncates the candidates for one meal.
func (s *Scorer) Rank(
	meal domain.MealType,
	candidates []domain.Restaurant,
	c domain.Constraints,
	w domain.PreferenceWeights,
	radiusMiles float64,
) ([]domain.ScoredCandidate, RankStats) {
	stats := RankStats{Considered: len(candidates)}

	scored := make([]domain.ScoredCandidate, 0, len(candidates))
	for _, r := range candidates {
		if !s.Eligible(r, c, radiusMiles) {
			continue
		}
		fv := s.Features(r, c, w, radiusMiles)
		scored = append(scored, domain.ScoredCandidate{
			Restaurant: r,
			MealType:   meal,
			Score:      Score(fv, w),
			Features:   fv,
			Reasons:    reasons(r, fv, c),
		})
	}
	stats.Eligible = len(scored)

	sort.SliceStable(scored, func(i, j int) bool {
		return domain.CandidateLess(scored[i], scored[j])
	})
	if len(scored) > s.cfg.TopN {
		scored = scored[:s.cfg.TopN]
	}
	return scored, stats
}

func reasons(r domain.Restaurant, fv domain.FeatureVector, c domain.Constraints) []string {
	var out []string
	if len(c.PreferredCuisines) > 0 && fv[domain.FeatureCuisineMatch] >= 0.99 {
		out = append(out, "Matches your cuisine preferences")
	} else if fv[domain.FeatureCuisineMatch] > 0.5 {
		out = append(out, "Similar to places you picked before")
	}
	if fv[domain.FeatureDistance] >= 0.75 {
		out = append(out, "Very close to your route")
	}
	if fv[domain.FeatureRating] >= 0.8 {
		out = append(out, "Highly rated")
	}
	if c.PerMealBudget() > 0 && fv[domain.FeaturePriceFit] >= 0.75 {
		out = append(out, "Fits your budget")
	}
	if fv[domain.FeatureDeal] > 0 {
		out = append(out, fmt.Sprintf("Has a deal: %s", r.Deal))
	}
	if len(out) == 0 {
		out = append(out, "Convenient stop along your route")
	}
	return out
}
