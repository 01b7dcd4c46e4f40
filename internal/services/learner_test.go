package services

import (
	"context"
	"errors"
	"roadtrip-meal-service/internal/adapters/repositories"
	"roadtrip-meal-service/internal/domain"
	"sync"
	"testing"
)

func newTestLearner(cfg LearnerConfig) (*Learner, *repositories.MemoryWeightsStore, *repositories.MemorySelectionLog) {
	store := repositories.NewMemoryWeightsStore()
	events := repositories.NewMemorySelectionLog()
	return NewLearner(store, events, NewScorer(ScorerConfig{}), cfg, nil), store, events
}

func lunchSnapshot() domain.PreferencesSnapshot {
	return domain.PreferencesSnapshot{
		Meals: map[domain.MealType]domain.MealPreference{
			domain.Lunch: {Enabled: true, RadiusMiles: 10, PreferredTime: domain.NewClockTime(12, 0)},
		},
	}
}

func selectionEvent(userID string, chosen domain.Restaurant, shown ...domain.Restaurant) domain.UserSelectionEvent {
	e := domain.UserSelectionEvent{
		UserID:              userID,
		Selected:            []domain.SelectedRestaurant{{Restaurant: chosen, MealType: domain.Lunch}},
		PreferencesSnapshot: lunchSnapshot(),
	}
	for _, s := range shown {
		e.Shown = append(e.Shown, domain.SelectedRestaurant{Restaurant: s, MealType: domain.Lunch})
	}
	return e
}

func TestRecordSelectionsMovesWeightsTowardChoice(t *testing.T) {
	l, _, events := newTestLearner(DefaultLearnerConfig)
	ctx := context.Background()

	chosen := venue("thai-1", "thai", 1, 5, 2)
	passed := venue("burger-1", "burger", 9, 1, 1)

	w, err := l.RecordSelections(ctx, selectionEvent("u1", chosen, chosen, passed))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if w.Updates != 1 || w.UserID != "u1" || w.UpdatedAt.IsZero() {
		t.Errorf("metadata = %+v", w)
	}
	if got := w.Weight(domain.FeatureRating); got <= domain.DefaultWeightValue {
		t.Errorf("rating weight = %v, want above default after choosing a 5-star venue", got)
	}
	if got := w.Weight(domain.FeatureDeal); got >= domain.DefaultWeightValue {
		t.Errorf("deal weight = %v, want below default after choosing a venue without a deal", got)
	}
	if got := w.Affinity("thai"); got <= 0 {
		t.Errorf("thai affinity = %v, want positive", got)
	}
	if _, ok := w.CuisineAffinity["burger"]; ok {
		t.Errorf("passed-over cuisine should not gain an affinity entry")
	}
	for f, v := range w.Weights {
		if v < DefaultLearnerConfig.MinWeight || v > DefaultLearnerConfig.MaxWeight {
			t.Errorf("%s = %v outside bounds", f, v)
		}
	}

	if got := events.Events("u1"); len(got) != 1 || got[0].ID == "" || got[0].RecordedAt.IsZero() {
		t.Errorf("logged events = %+v", got)
	}

	stored, err := l.GetWeights(ctx, "u1")
	if err != nil || stored.Updates != 1 {
		t.Errorf("stored = %+v err=%v", stored, err)
	}
}

func TestRecordSelectionsClampsWeights(t *testing.T) {
	l, _, _ := newTestLearner(LearnerConfig{Rate: 1, NegativeRate: 0, MinWeight: 0.05, MaxWeight: 1})

	w, err := l.RecordSelections(context.Background(), selectionEvent("u1", venue("a", "", 0, 5, 2)))
	if err != nil {
		t.Fatal(err)
	}
	if got := w.Weight(domain.FeatureDeal); got != 0.05 {
		t.Errorf("deal weight = %v, want clamped to 0.05", got)
	}
	if got := w.Weight(domain.FeatureRating); got != 1 {
		t.Errorf("rating weight = %v, want 1", got)
	}
}

func TestRecordSelectionsRejectsIncompleteEvents(t *testing.T) {
	l, _, _ := newTestLearner(DefaultLearnerConfig)
	ctx := context.Background()

	if _, err := l.RecordSelections(ctx, selectionEvent("", venue("a", "", 0, 5, 2))); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("missing user: err = %v", err)
	}
	if _, err := l.RecordSelections(ctx, domain.UserSelectionEvent{UserID: "u1"}); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("no selections: err = %v", err)
	}
}

func TestRecordSelectionsSerializesPerUser(t *testing.T) {
	l, _, _ := newTestLearner(DefaultLearnerConfig)
	ctx := context.Background()

	const n = 25
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.RecordSelections(ctx, selectionEvent("u1", venue("a", "thai", 1, 4, 2))); err != nil {
				t.Errorf("RecordSelections: %v", err)
			}
		}()
	}
	wg.Wait()

	w, _ := l.GetWeights(ctx, "u1")
	if w.Updates != n {
		t.Fatalf("updates = %d, want %d (lost updates)", w.Updates, n)
	}
}

func TestLearnedCuisineShiftsRanking(t *testing.T) {
	l, _, _ := newTestLearner(DefaultLearnerConfig)
	s := NewScorer(ScorerConfig{})
	ctx := context.Background()

	thai := venue("z-thai", "thai", 2, 4, 2)
	burger := venue("a-burger", "burger", 2, 4, 2)
	pool := []domain.Restaurant{thai, burger}

	before, _ := s.Rank(domain.Lunch, pool, domain.Constraints{}, domain.DefaultWeights("u1"), 10)
	if before[0].SourceID != "a-burger" {
		t.Fatalf("precondition: equal scores should fall back to id order, got %s first", before[0].SourceID)
	}

	if _, err := l.RecordSelections(ctx, selectionEvent("u1", venue("elsewhere", "Thai", 4, 3, 2))); err != nil {
		t.Fatal(err)
	}
	w, _ := l.GetWeights(ctx, "u1")

	after, _ := s.Rank(domain.Lunch, pool, domain.Constraints{}, w, 10)
	if after[0].SourceID != "z-thai" || after[0].Score <= after[1].Score {
		t.Fatalf("after learning: %+v", after)
	}
}

func TestResetRestoresDefaults(t *testing.T) {
	l, _, _ := newTestLearner(DefaultLearnerConfig)
	ctx := context.Background()

	if _, err := l.RecordSelections(ctx, selectionEvent("u1", venue("a", "thai", 1, 4, 2))); err != nil {
		t.Fatal(err)
	}
	if err := l.Reset(ctx, "u1"); err != nil {
		t.Fatal(err)
	}
	w, _ := l.GetWeights(ctx, "u1")
	if w.Updates != 0 || w.Affinity("thai") != 0 || w.Weight(domain.FeatureRating) != domain.DefaultWeightValue {
		t.Fatalf("weights after reset = %+v", w)
	}
	if err := l.Reset(ctx, ""); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("reset without user: err = %v", err)
	}
}
