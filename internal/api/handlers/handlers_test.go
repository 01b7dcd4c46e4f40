package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"roadtrip-meal-service/internal/adapters/repositories"
	"roadtrip-meal-service/internal/api/dto"
	"roadtrip-meal-service/internal/domain"
	"roadtrip-meal-service/internal/services"
	"strings"
	"testing"
)

type fakePlanner struct {
	plan *domain.TripPlan
	err  error
	got  domain.TripRequest
}

func (f *fakePlanner) PlanRoute(_ context.Context, req domain.TripRequest) (*domain.TripPlan, error) {
	f.got = req
	return f.plan, f.err
}

const planBody = `{
	"start_location": {"lat": 40, "lng": -75},
	"end_location": {"lat": 40.5, "lng": -75},
	"departure_time": "9:00 AM",
	"meal_preferences": {"lunch": {"enabled": true, "radius_miles": 10, "preferred_time": "12:00 PM"}}
}`

func samplePlan() *domain.TripPlan {
	r := domain.Restaurant{SourceID: "osm:node/1", Name: "Thai Palace", Cuisine: "thai", Lat: 40.38, Lon: -75, Rating: 4.5, PriceLevel: 2, DistanceFromAnchorMiles: 0.4}
	return &domain.TripPlan{
		Route: domain.RouteGeometry{
			Vertices:      []domain.Coordinates{{Lat: 40, Lon: -75}, {Lat: 40.5, Lon: -75}},
			DistanceMiles: 34.5,
			DurationHours: 4,
			BBox:          domain.BoundingBox{MinLat: 40, MinLon: -75, MaxLat: 40.5, MaxLon: -75},
		},
		Anchors: []domain.MealAnchor{{MealType: domain.Lunch, Position: domain.Coordinates{Lat: 40.375, Lon: -75}, RadiusMiles: 10, EstimatedArrival: domain.NewClockTime(12, 0), HoursFromDeparture: 3}},
		RestaurantsByMeal: map[domain.MealType][]domain.ScoredCandidate{
			domain.Lunch: {{Restaurant: r, MealType: domain.Lunch, Score: 0.71, Features: domain.FeatureVector{domain.FeatureRating: 0.9}, Reasons: []string{"Highly rated"}}},
		},
		Timing:   domain.TripTiming{Departure: domain.NewClockTime(9, 0), Arrival: domain.NewClockTime(13, 0), TotalTravelHours: 4},
		Metadata: domain.SearchMetadata{AnchorsSearched: 1, CandidatesFound: 3, RadiusByMeal: map[domain.MealType]float64{domain.Lunch: 10}, Source: "overpass"},
	}
}

func post(h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

func TestPlanRouteReturnsPlan(t *testing.T) {
	planner := &fakePlanner{plan: samplePlan()}
	h := &PlanHandler{Planner: planner}

	rr := post(h.PlanRoute, planBody)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content-type = %q", ct)
	}

	var res dto.TripPlanResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	lunch := res.RestaurantsByMeal["lunch"]
	if len(lunch) != 1 || lunch[0].SourceID != "osm:node/1" || lunch[0].Score != 0.71 {
		t.Errorf("lunch = %+v", lunch)
	}
	if res.Timing.ArrivalTime != "1:00 PM" || res.Anchors[0].EstimatedArrival != "12:00 PM" {
		t.Errorf("timing = %+v anchors = %+v", res.Timing, res.Anchors)
	}
	if res.Warnings == nil {
		t.Error("warnings should encode as an empty list")
	}
	if len(res.Route.BBox) != 4 || res.Route.DistanceMiles != 34.5 {
		t.Errorf("route = %+v", res.Route)
	}

	if planner.got.Meals[domain.Lunch].RadiusMiles != 10 || planner.got.Start.Coords == nil {
		t.Errorf("planner received %+v", planner.got)
	}
}

func TestPlanRouteErrorEnvelope(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   domain.ErrorKind
	}{
		{"address not found", fmt.Errorf("geocode: %w", domain.ErrAddressNotFound), http.StatusBadRequest, domain.KindAddressNotFound},
		{"ambiguous", fmt.Errorf("geocode: %w", domain.ErrAmbiguousAddress), http.StatusBadRequest, domain.KindAmbiguousAddress},
		{"no route", fmt.Errorf("route: %w", domain.ErrNoRouteFound), http.StatusBadRequest, domain.KindNoRouteFound},
		{"provider down", fmt.Errorf("route: %w", domain.ErrProviderUnavailable), http.StatusBadGateway, domain.KindProviderUnavailable},
		{"provider timeout", fmt.Errorf("route: %w: %w", domain.ErrProviderUnavailable, context.DeadlineExceeded), http.StatusGatewayTimeout, domain.KindProviderUnavailable},
		{"client canceled", fmt.Errorf("plan: %w", context.Canceled), statusClientClosedRequest, domain.KindCanceled},
		{"canceled during lookup", fmt.Errorf("find near: %w: %w", domain.ErrSourceUnavailable, context.Canceled), statusClientClosedRequest, domain.KindCanceled},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, domain.KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &PlanHandler{Planner: &fakePlanner{err: tt.err}}
			rr := post(h.PlanRoute, planBody)
			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			var res dto.ErrorResponse
			if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
				t.Fatal(err)
			}
			if res.Kind != string(tt.wantKind) || res.Error == "" {
				t.Errorf("envelope = %+v", res)
			}
			if tt.wantKind == domain.KindInternal && strings.Contains(res.Error, "boom") {
				t.Errorf("internal error leaked cause: %q", res.Error)
			}
		})
	}
}

func TestPlanRouteRejectsBadBodies(t *testing.T) {
	planner := &fakePlanner{plan: samplePlan()}
	h := &PlanHandler{Planner: planner}

	bodies := map[string]string{
		"malformed":     `{"start_location":`,
		"unknown field": strings.Replace(planBody, `"departure_time"`, `"depart":"x","departure_time"`, 1),
		"two objects":   planBody + planBody,
		"bad time":      strings.Replace(planBody, "9:00 AM", "9 o'clock", 1),
		"no meals":      `{"start_location":{"lat":40,"lng":-75},"end_location":{"lat":41,"lng":-75},"departure_time":"9:00 AM","meal_preferences":{}}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			rr := post(h.PlanRoute, body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d body=%s", rr.Code, rr.Body.String())
			}
			if !strings.Contains(rr.Body.String(), string(domain.KindInvalidRequest)) {
				t.Errorf("body = %s", rr.Body.String())
			}
		})
	}
}

const selectionBody = `{
	"user_id": "u1",
	"trip_context": {"trip_id": "t1", "start": {"lat": 40, "lng": -75}, "end": {"lat": 40.5, "lng": -75}},
	"selected_restaurants": [{"restaurant": {"source_id": "osm:node/1", "name": "Thai Palace", "cuisine": "thai", "lat": 40.38, "lng": -75, "rating": 4.5, "price_level": 2, "distance_from_anchor_miles": 0.4}, "meal_type": "lunch"}],
	"preferences_snapshot": {"meal_preferences": {"lunch": {"enabled": true, "radius_miles": 10, "preferred_time": "12:00 PM"}}}
}`

func newPreferencesHandler() *PreferencesHandler {
	learner := services.NewLearner(
		repositories.NewMemoryWeightsStore(),
		repositories.NewMemorySelectionLog(),
		services.NewScorer(services.ScorerConfig{}),
		services.DefaultLearnerConfig,
		nil,
	)
	return &PreferencesHandler{Learner: learner}
}

func withUser(method, userID string) *http.Request {
	req := httptest.NewRequest(method, "/preferences/"+userID, nil)
	req.SetPathValue("user_id", userID)
	return req
}

func getWeights(t *testing.T, h *PreferencesHandler, userID string) dto.PreferenceWeightsResponse {
	t.Helper()
	rr := httptest.NewRecorder()
	h.Get(rr, withUser(http.MethodGet, userID))
	if rr.Code != http.StatusOK {
		t.Fatalf("GET status = %d body=%s", rr.Code, rr.Body.String())
	}
	var res dto.PreferenceWeightsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	return res
}

func TestLearnSelectionsLifecycle(t *testing.T) {
	h := newPreferencesHandler()

	fresh := getWeights(t, h, "u1")
	if fresh.Updates != 0 || fresh.Weights["rating"] != domain.DefaultWeightValue {
		t.Fatalf("fresh weights = %+v", fresh)
	}

	rr := post(h.LearnSelections, selectionBody)
	if rr.Code != http.StatusOK {
		t.Fatalf("learn status = %d body=%s", rr.Code, rr.Body.String())
	}
	var learned dto.LearnResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &learned); err != nil {
		t.Fatal(err)
	}
	if !learned.Success || learned.Updates != 1 {
		t.Errorf("learn response = %+v", learned)
	}

	after := getWeights(t, h, "u1")
	if after.Updates != 1 || after.CuisineAffinity["thai"] <= 0 || after.UpdatedAt == nil {
		t.Errorf("weights after learning = %+v", after)
	}

	rr = httptest.NewRecorder()
	h.Reset(rr, withUser(http.MethodDelete, "u1"))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("DELETE status = %d", rr.Code)
	}
	if reset := getWeights(t, h, "u1"); reset.Updates != 0 || len(reset.CuisineAffinity) != 0 {
		t.Errorf("weights after reset = %+v", reset)
	}
}

func TestLearnSelectionsRejectsEmptySelection(t *testing.T) {
	h := newPreferencesHandler()
	rr := post(h.LearnSelections, `{"user_id":"u1","selected_restaurants":[]}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestHealth(t *testing.T) {
	rr := httptest.NewRecorder()
	Health(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"ok"`) {
		t.Fatalf("status = %d body=%s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	Health(rr, httptest.NewRequest(http.MethodPost, "/health", nil))
	if rr.Code != http.StatusMethodNotAllowed || rr.Header().Get("Allow") != http.MethodGet {
		t.Fatalf("status = %d allow=%q", rr.Code, rr.Header().Get("Allow"))
	}
}
