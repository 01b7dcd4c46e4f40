// Package mock provides deterministic in-memory providers that satisfy the
// same ports as the real geocoding, routing and restaurant adapters.
package mock

import (
	"context"
	"fmt"
	"roadtrip-meal-service/internal/domain"
	"roadtrip-meal-service/internal/geo"
	"roadtrip-meal-service/internal/platform/slots"
	"roadtrip-meal-service/internal/ports"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Geocoder resolves addresses from a fixed table. Lookups are
// case-insensitive and whitespace-normalized.
type Geocoder struct {
	results map[string]ports.GeocodeResult
	calls   atomic.Int32
}

var _ ports.Geocoder = (*Geocoder)(nil)

func NewGeocoder(results map[string]ports.GeocodeResult) *Geocoder {
	m := make(map[string]ports.GeocodeResult, len(results))
	for k, v := range results {
		m[key(k)] = v
	}
	return &Geocoder{results: m}
}

func key(s string) string { return strings.ToLower(strings.Join(strings.Fields(s), " ")) }

func (g *Geocoder) Geocode(ctx context.Context, address string) (ports.GeocodeResult, error) {
	g.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return ports.GeocodeResult{}, err
	}
	r, ok := g.results[key(address)]
	if !ok {
		return ports.GeocodeResult{}, fmt.Errorf("mock geocode %q: %w", address, domain.ErrAddressNotFound)
	}
	return r, nil
}

// Calls reports how many lookups reached the mock.
func (g *Geocoder) Calls() int { return int(g.calls.Load()) }

// Router returns a straight-line route sampled into Segments pieces with the
// configured duration, or Err when set.
type Router struct {
	DurationHours float64
	Segments      int
	Err           error
	calls         atomic.Int32
}

var _ ports.Router = (*Router)(nil)

func (r *Router) Route(ctx context.Context, start, end domain.Coordinates) (domain.RouteGeometry, error) {
	r.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return domain.RouteGeometry{}, err
	}
	if r.Err != nil {
		return domain.RouteGeometry{}, r.Err
	}

	n := r.Segments
	if n < 1 {
		n = 1
	}
	vertices := make([]domain.Coordinates, 0, n+1)
	for i := 0; i <= n; i++ {
		vertices = append(vertices, geo.Lerp(start, end, float64(i)/float64(n)))
	}

	return domain.RouteGeometry{
		Vertices:      vertices,
		DistanceMiles: geo.HaversineMiles(start, end),
		DurationHours: r.DurationHours,
		BBox:          geo.Bounds(vertices),
	}, nil
}

func (r *Router) Calls() int { return int(r.calls.Load()) }

// RestaurantSource serves a fixed venue pool, returning the entries within
// the radius of each query position ordered by distance.
type RestaurantSource struct {
	SourceName string
	Pool       []domain.Restaurant
	// Err, when set, fails every lookup.
	Err error
	// FailNear fails lookups whose position is within 0.5 mi of any listed point.
	FailNear []domain.Coordinates
	// Delay holds each lookup open for this long, or until ctx is done.
	Delay time.Duration
	// InFlight, when set, counts lookups holding a concurrency slot.
	InFlight *Gauge

	mu    sync.Mutex
	calls []domain.Coordinates
}

var _ ports.RestaurantSource = (*RestaurantSource)(nil)

func (s *RestaurantSource) Name() string {
	if s.SourceName == "" {
		return "mock"
	}
	return s.SourceName
}

func (s *RestaurantSource) FindNear(ctx context.Context, position domain.Coordinates, radiusMiles float64, _ []string) ([]domain.Restaurant, error) {
	s.mu.Lock()
	s.calls = append(s.calls, position)
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	release, err := slots.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	if s.InFlight != nil {
		s.InFlight.inc()
		defer s.InFlight.dec()
	}
	if s.Delay > 0 {
		timer := time.NewTimer(s.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if s.Err != nil {
		return nil, s.Err
	}
	for _, p := range s.FailNear {
		if geo.HaversineMiles(p, position) <= 0.5 {
			return nil, fmt.Errorf("mock find near %v: %w", position, domain.ErrSourceUnavailable)
		}
	}

	out := make([]domain.Restaurant, 0, len(s.Pool))
	for _, r := range s.Pool {
		d := geo.HaversineMiles(position, r.Coordinates())
		if d > radiusMiles {
			continue
		}
		r.DistanceFromAnchorMiles = d
		if len(r.Sources) == 0 {
			r.Sources = []string{s.Name()}
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DistanceFromAnchorMiles < out[j].DistanceFromAnchorMiles
	})
	return out, nil
}

// Calls returns the positions queried so far.
func (s *RestaurantSource) Calls() []domain.Coordinates {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Coordinates(nil), s.calls...)
}

// Gauge tracks how many lookups run at once and the highest count seen.
type Gauge struct {
	mu   sync.Mutex
	cur  int
	peak int
}

func (g *Gauge) inc() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cur++
	if g.cur > g.peak {
		g.peak = g.cur
	}
}

func (g *Gauge) dec() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cur--
}

// Peak returns the highest number of concurrent lookups observed.
func (g *Gauge) Peak() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.peak
}
