package services

import (
	"context"
	"fmt"
	"roadtrip-meal-service/internal/domain"
	"roadtrip-meal-service/internal/ports"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// CachingGeocoder memoizes lookups for the lifetime of the process and
// coalesces concurrent lookups of the same address into one provider
// call. An optional persistent cache is consulted before the provider.
type CachingGeocoder struct {
	next       ports.Geocoder
	persistent ports.GeocodeCache
	log        *zap.Logger

	mu    sync.RWMutex
	mem   map[string]ports.GeocodeResult
	group singleflight.Group
}

var _ ports.Geocoder = (*CachingGeocoder)(nil)

func NewCachingGeocoder(next ports.Geocoder, persistent ports.GeocodeCache, log *zap.Logger) *CachingGeocoder {
	if log == nil {
		log = zap.NewNop()
	}
	return &CachingGeocoder{
		next:       next,
		persistent: persistent,
		log:        log,
		mem:        map[string]ports.GeocodeResult{},
	}
}

// NormalizeAddress is the cache key for an address: whitespace collapsed
// and lower-cased.
func NormalizeAddress(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func (c *CachingGeocoder) Geocode(ctx context.Context, address string) (ports.GeocodeResult, error) {
	key := NormalizeAddress(address)
	if key == "" {
		return ports.GeocodeResult{}, fmt.Errorf("geocode: %w: address must be non-empty", domain.ErrInvalidRequest)
	}

	c.mu.RLock()
	hit, ok := c.mem[key]
	c.mu.RUnlock()
	if ok {
		return hit, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		if res, ok := c.fromPersistent(ctx, key); ok {
			c.remember(key, res)
			return res, nil
		}

		res, err := c.next.Geocode(ctx, address)
		if err != nil {
			return ports.GeocodeResult{}, err
		}
		c.remember(key, res)

		// Ambiguous matches are not shared across processes so a later
		// lookup with better provider data can settle them.
		if c.persistent != nil && !res.Ambiguous {
			if err := c.persistent.PutMany(ctx, map[string]domain.Coordinates{key: res.Coordinates}); err != nil {
				c.log.Warn("geocode cache write failed", zap.String("address", key), zap.Error(err))
			}
		}
		return res, nil
	})
	if err != nil {
		return ports.GeocodeResult{}, err
	}
	return v.(ports.GeocodeResult), nil
}

func (c *CachingGeocoder) fromPersistent(ctx context.Context, key string) (ports.GeocodeResult, bool) {
	if c.persistent == nil {
		return ports.GeocodeResult{}, false
	}
	hits, err := c.persistent.GetMany(ctx, []string{key})
	if err != nil {
		c.log.Warn("geocode cache read failed", zap.String("address", key), zap.Error(err))
		return ports.GeocodeResult{}, false
	}
	coords, ok := hits[key]
	if !ok {
		return ports.GeocodeResult{}, false
	}
	return ports.GeocodeResult{Coordinates: coords, Label: key, Confidence: 1}, true
}

func (c *CachingGeocoder) remember(key string, res ports.GeocodeResult) {
	c.mu.Lock()
	c.mem[key] = res
	c.mu.Unlock()
}
