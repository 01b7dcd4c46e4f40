package repositories

import (
	"context"
	"encoding/json"
	"roadtrip-meal-service/internal/domain"
	"strings"
	"testing"
	"time"
)

func TestMemoryWeightsStoreIsolatesCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryWeightsStore()

	if _, ok, err := s.GetWeights(ctx, "u1"); ok || err != nil {
		t.Fatalf("empty store: ok=%v err=%v", ok, err)
	}

	w := domain.DefaultWeights("u1")
	w.Weights[domain.FeatureRating] = 0.9
	if err := s.PutWeights(ctx, w); err != nil {
		t.Fatal(err)
	}
	w.Weights[domain.FeatureRating] = 0.1

	got, ok, _ := s.GetWeights(ctx, "u1")
	if !ok || got.Weight(domain.FeatureRating) != 0.9 {
		t.Fatalf("stored weights mutated through caller map: %+v", got)
	}

	got.CuisineAffinity["thai"] = 1
	again, _, _ := s.GetWeights(ctx, "u1")
	if again.Affinity("thai") != 0 {
		t.Fatal("returned weights share state with store")
	}

	if err := s.DeleteWeights(ctx, "u1"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := s.GetWeights(ctx, "u1"); ok {
		t.Fatal("weights should be deleted")
	}
}

func TestMemorySelectionLogAppendOnly(t *testing.T) {
	ctx := context.Background()
	l := NewMemorySelectionLog()

	for _, id := range []string{"e1", "e2", "e1"} {
		if err := l.AppendSelection(ctx, domain.UserSelectionEvent{ID: id, UserID: "u1"}); err != nil {
			t.Fatal(err)
		}
	}
	_ = l.AppendSelection(ctx, domain.UserSelectionEvent{ID: "e3", UserID: "u2"})

	got := l.Events("u1")
	if len(got) != 2 || got[0].ID != "e1" || got[1].ID != "e2" {
		t.Fatalf("events = %+v, want e1,e2 with replay ignored", got)
	}
}

func TestSelectionEventRecordShape(t *testing.T) {
	start := domain.Coordinates{Lat: 40, Lon: -75}
	e := domain.UserSelectionEvent{
		ID:     "e1",
		UserID: "u1",
		Trip:   domain.TripContext{TripID: "t1", Start: domain.Location{Coords: &start}, End: domain.Location{Address: "Trenton, NJ"}},
		Selected: []domain.SelectedRestaurant{{
			Restaurant: domain.Restaurant{SourceID: "osm:node/1", Name: "Green Leaf", Cuisine: "thai"},
			MealType:   domain.Lunch,
		}},
		PreferencesSnapshot: domain.PreferencesSnapshot{
			Meals: map[domain.MealType]domain.MealPreference{
				domain.Lunch: {Enabled: true, RadiusMiles: 10, PreferredTime: domain.NewClockTime(12, 0)},
			},
		},
		RecordedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	b, err := json.Marshal(toSelectionEventRecord(e))
	if err != nil {
		t.Fatal(err)
	}
	s := string(b)
	for _, want := range []string{
		`"trip_id":"t1"`,
		`"start":{"lat":40,"lng":-75}`,
		`"end":{"address":"Trenton, NJ"}`,
		`"meal_type":"lunch"`,
		`"preferred_time":"12:00 PM"`,
	} {
		if !strings.Contains(s, want) {
			t.Errorf("record %s missing %s", s, want)
		}
	}
}
