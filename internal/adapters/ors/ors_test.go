package ors

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"roadtrip-meal-service/internal/domain"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewClient("test-key", Options{
		BaseURL:     srv.URL,
		Retries:     2,
		BackoffBase: time.Millisecond,
		Timeout:     time.Second,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient("  ", Options{}); err == nil {
		t.Fatal("expected error for empty api key")
	}
}

const twoMatches = `{"features":[
 {"geometry":{"coordinates":[-75.16,39.95]},"properties":{"label":"Philadelphia, PA","confidence":0.9}},
 {"geometry":{"coordinates":[-89.10,32.77]},"properties":{"label":"Philadelphia, MS","confidence":0.9}}
]}`

func TestGeocodeReturnsBestMatch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/geocode/search" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("text"); got != "1 Main St Springfield" {
			t.Errorf("text = %q, want normalized address", got)
		}
		if r.Header.Get("Authorization") != "test-key" {
			t.Errorf("missing api key header")
		}
		io.WriteString(w, `{"features":[
		 {"geometry":{"coordinates":[-75.0,40.0]},"properties":{"label":"weak","confidence":0.6}},
		 {"geometry":{"coordinates":[-75.5,40.5]},"properties":{"label":"strong","confidence":1}}
		]}`)
	})
	g := NewGeocoder(c, GeocoderOptions{MinConfidence: 0.5})

	res, err := g.Geocode(context.Background(), "  1 Main St   Springfield ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Label != "strong" || res.Coordinates.Lat != 40.5 || res.Coordinates.Lon != -75.5 {
		t.Errorf("got %+v, want strong match at (40.5,-75.5)", res)
	}
	if res.Ambiguous {
		t.Errorf("unexpected ambiguity flag")
	}
}

func TestGeocodeBelowThresholdIsNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"features":[{"geometry":{"coordinates":[-75,40]},"properties":{"confidence":0.2}}]}`)
	})
	g := NewGeocoder(c, GeocoderOptions{MinConfidence: 0.5})

	_, err := g.Geocode(context.Background(), "nowhere")
	if !errors.Is(err, domain.ErrAddressNotFound) {
		t.Fatalf("err = %v, want ErrAddressNotFound", err)
	}
}

func TestGeocodeAmbiguity(t *testing.T) {
	h := func(w http.ResponseWriter, r *http.Request) { io.WriteString(w, twoMatches) }

	t.Run("lenient flags ambiguity", func(t *testing.T) {
		g := NewGeocoder(newTestClient(t, h), GeocoderOptions{MinConfidence: 0.5})
		res, err := g.Geocode(context.Background(), "Philadelphia")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !res.Ambiguous {
			t.Errorf("expected Ambiguous=true")
		}
		if res.Label != "Philadelphia, PA" {
			t.Errorf("label = %q, want first of equal matches", res.Label)
		}
	})

	t.Run("strict fails", func(t *testing.T) {
		g := NewGeocoder(newTestClient(t, h), GeocoderOptions{MinConfidence: 0.5, StrictAmbiguity: true})
		_, err := g.Geocode(context.Background(), "Philadelphia")
		if !errors.Is(err, domain.ErrAmbiguousAddress) {
			t.Fatalf("err = %v, want ErrAmbiguousAddress", err)
		}
	})

	t.Run("focus disambiguates", func(t *testing.T) {
		var gotFocus string
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			gotFocus = r.URL.Query().Get("focus.point.lat")
			io.WriteString(w, twoMatches)
		})
		g := NewGeocoder(c, GeocoderOptions{
			MinConfidence:   0.5,
			StrictAmbiguity: true,
			Focus:           &domain.Coordinates{Lat: 39.9, Lon: -75.1},
		})
		res, err := g.Geocode(context.Background(), "Philadelphia")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Ambiguous || gotFocus != "39.9" {
			t.Errorf("ambiguous=%v focus=%q", res.Ambiguous, gotFocus)
		}
	})
}

func TestGeocodeEmptyAddress(t *testing.T) {
	g := NewGeocoder(newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("provider must not be called")
	}), GeocoderOptions{})

	if _, err := g.Geocode(context.Background(), "   "); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("err = %v, want ErrInvalidRequest", err)
	}
}

const routeBody = `{"type":"FeatureCollection","bbox":[-75.0,40.0,-75.0,40.5],"features":[{
 "bbox":[-75.0,40.0,-75.0,40.5],
 "properties":{"summary":{"distance":55660.0,"duration":14400.0}},
 "geometry":{"type":"LineString","coordinates":[[-75.0,40.0],[-75.0,40.25],[-75.0,40.5]]}}]}`

func TestRouteParsesGeometry(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v2/directions/driving-car/geojson" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		b, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(b), `[[-75,40],[-75,40.5]]`) {
			t.Errorf("body = %s, want [lon,lat] pairs", b)
		}
		io.WriteString(w, routeBody)
	})

	route, err := NewRouter(c).Route(context.Background(),
		domain.Coordinates{Lat: 40, Lon: -75}, domain.Coordinates{Lat: 40.5, Lon: -75})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(route.Vertices) != 3 {
		t.Fatalf("vertices = %d, want 3", len(route.Vertices))
	}
	if route.DurationHours != 4 {
		t.Errorf("DurationHours = %v, want 4", route.DurationHours)
	}
	if route.DistanceMiles < 34.5 || route.DistanceMiles > 34.7 {
		t.Errorf("DistanceMiles = %v, want ~34.6", route.DistanceMiles)
	}
	if route.BBox.MaxLat != 40.5 || route.BBox.MinLat != 40 {
		t.Errorf("bbox = %+v", route.BBox)
	}
}

func TestRouteNoRouteFound(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"error":{"code":2010,"message":"Could not find routable point"}}`)
	})

	_, err := NewRouter(c).Route(context.Background(),
		domain.Coordinates{Lat: 21.3, Lon: -157.8}, domain.Coordinates{Lat: 34, Lon: -118})
	if !errors.Is(err, domain.ErrNoRouteFound) {
		t.Fatalf("err = %v, want ErrNoRouteFound", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want no retries on 404", calls.Load())
	}
}

func TestRouteRetriesThenFails(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := NewRouter(c).Route(context.Background(), domain.Coordinates{}, domain.Coordinates{Lat: 1})
	if !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Fatalf("err = %v, want ErrProviderUnavailable", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 1 attempt + 2 retries", calls.Load())
	}
}

func TestRouteRecoversAfterTransientFailure(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		io.WriteString(w, routeBody)
	})

	if _, err := NewRouter(c).Route(context.Background(), domain.Coordinates{}, domain.Coordinates{Lat: 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestRouteTimeoutIsReported(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient("k", Options{BaseURL: srv.URL, Retries: 0, Timeout: 20 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}

	_, err = NewRouter(c).Route(context.Background(), domain.Coordinates{}, domain.Coordinates{Lat: 1})
	if domain.KindOf(err) != domain.KindProviderUnavailable {
		t.Fatalf("kind = %q, want ProviderUnavailable (err=%v)", domain.KindOf(err), err)
	}
	if !domain.IsTimeout(err) {
		t.Errorf("expected timeout to be detectable, got %v", err)
	}
}
