package services

import (
	"context"
	"errors"
	"fmt"
	"roadtrip-meal-service/internal/domain"
	"roadtrip-meal-service/internal/geo"
	"roadtrip-meal-service/internal/ports"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// MultiSource queries several restaurant providers concurrently and merges
// their results. It fails only when every provider fails.
type MultiSource struct {
	sources []ports.RestaurantSource
	log     *zap.Logger
}

var _ ports.RestaurantSource = (*MultiSource)(nil)

func NewMultiSource(log *zap.Logger, sources ...ports.RestaurantSource) *MultiSource {
	if log == nil {
		log = zap.NewNop()
	}
	return &MultiSource{sources: sources, log: log}
}

func (m *MultiSource) Name() string {
	names := make([]string, len(m.sources))
	for i, s := range m.sources {
		names[i] = s.Name()
	}
	return strings.Join(names, "+")
}

func (m *MultiSource) FindNear(ctx context.Context, position domain.Coordinates, radiusMiles float64, cuisineHints []string) ([]domain.Restaurant, error) {
	if len(m.sources) == 0 {
		return nil, fmt.Errorf("multi source: %w: no sources configured", domain.ErrSourceUnavailable)
	}

	results := make([][]domain.Restaurant, len(m.sources))
	errs := make([]error, len(m.sources))

	// Provider failures are soft, so no member returns an error to the group.
	var g errgroup.Group
	for i, s := range m.sources {
		g.Go(func() error {
			rs, err := s.FindNear(ctx, position, radiusMiles, cuisineHints)
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", s.Name(), err)
				return nil
			}
			results[i] = rs
			return nil
		})
	}
	_ = g.Wait()

	var merged []domain.Restaurant
	failed := 0
	for i := range m.sources {
		if errs[i] != nil {
			failed++
			m.log.Warn("restaurant source failed", zap.String("source", m.sources[i].Name()), zap.Error(errs[i]))
			continue
		}
		merged = append(merged, results[i]...)
	}
	if failed == len(m.sources) {
		return nil, fmt.Errorf("multi source: %w: %w", domain.ErrSourceUnavailable, errors.Join(errs...))
	}

	merged = Deduplicate(merged)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].DistanceFromAnchorMiles < merged[j].DistanceFromAnchorMiles
	})
	return merged, nil
}

// CachedSource serves repeated lookups of the same corridor point from a
// CandidateCache. Cache failures fall through to the provider.
type CachedSource struct {
	next  ports.RestaurantSource
	cache ports.CandidateCache
	ttl   time.Duration
	log   *zap.Logger
}

var _ ports.RestaurantSource = (*CachedSource)(nil)

func NewCachedSource(next ports.RestaurantSource, cache ports.CandidateCache, ttl time.Duration, log *zap.Logger) *CachedSource {
	if log == nil {
		log = zap.NewNop()
	}
	return &CachedSource{next: next, cache: cache, ttl: ttl, log: log}
}

func (c *CachedSource) Name() string { return c.next.Name() }

// CandidateKey rounds the position to three decimals (about 100 m) so nearby
// queries share an entry.
func CandidateKey(source string, position domain.Coordinates, radiusMiles float64, cuisineHints []string) string {
	hints := make([]string, 0, len(cuisineHints))
	for _, h := range cuisineHints {
		if n := domain.NormalizeTag(h); n != "" {
			hints = append(hints, n)
		}
	}
	sort.Strings(hints)
	return fmt.Sprintf("%s:%.3f:%.3f:%.2f:%s", source, position.Lat, position.Lon, radiusMiles, strings.Join(hints, ","))
}

func (c *CachedSource) FindNear(ctx context.Context, position domain.Coordinates, radiusMiles float64, cuisineHints []string) ([]domain.Restaurant, error) {
	key := CandidateKey(c.next.Name(), position, radiusMiles, cuisineHints)

	cached, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.log.Warn("candidate cache read failed", zap.String("key", key), zap.Error(err))
	}
	if ok {
		return relocate(cached, position, radiusMiles), nil
	}

	rs, err := c.next.FindNear(ctx, position, radiusMiles, cuisineHints)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Put(ctx, key, rs, c.ttl); err != nil {
		c.log.Warn("candidate cache write failed", zap.String("key", key), zap.Error(err))
	}
	return rs, nil
}

// relocate recomputes distances for a cached list against the exact query
// position, dropping venues that fall outside the radius after rounding.
func relocate(rs []domain.Restaurant, position domain.Coordinates, radiusMiles float64) []domain.Restaurant {
	out := make([]domain.Restaurant, 0, len(rs))
	for _, r := range rs {
		r.DistanceFromAnchorMiles = geo.HaversineMiles(position, r.Coordinates())
		if r.DistanceFromAnchorMiles > radiusMiles {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DistanceFromAnchorMiles < out[j].DistanceFromAnchorMiles
	})
	return out
}
