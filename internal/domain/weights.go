package domain

import "time"

// PreferenceWeights are the per-user ranking weights. A zero-history user gets
// DefaultWeights. Values stay inside the bounds configured on the learner.
type PreferenceWeights struct {
	UserID  string
	Weights map[Feature]float64
	// CuisineAffinity is a learned [0,1] preference per normalized cuisine.
	CuisineAffinity map[string]float64
	Updates         int
	UpdatedAt       time.Time
}

// DefaultWeightValue is the uniform starting weight for every feature.
const DefaultWeightValue = 0.5

// DefaultWeights returns uniform weights for the given user.
func DefaultWeights(userID string) PreferenceWeights {
	w := make(map[Feature]float64, len(Features))
	for _, f := range Features {
		w[f] = DefaultWeightValue
	}
	return PreferenceWeights{
		UserID:          userID,
		Weights:         w,
		CuisineAffinity: map[string]float64{},
	}
}

// Weight returns the weight for f, falling back to the default.
func (p PreferenceWeights) Weight(f Feature) float64 {
	if v, ok := p.Weights[f]; ok {
		return v
	}
	return DefaultWeightValue
}

// Affinity returns the learned affinity for a cuisine, or 0 when unknown.
func (p PreferenceWeights) Affinity(cuisine string) float64 {
	return p.CuisineAffinity[NormalizeTag(cuisine)]
}

// Clone returns a deep copy so callers can mutate without sharing maps.
func (p PreferenceWeights) Clone() PreferenceWeights {
	out := p
	out.Weights = make(map[Feature]float64, len(p.Weights))
	for k, v := range p.Weights {
		out.Weights[k] = v
	}
	out.CuisineAffinity = make(map[string]float64, len(p.CuisineAffinity))
	for k, v := range p.CuisineAffinity {
		out.CuisineAffinity[k] = v
	}
	return out
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
