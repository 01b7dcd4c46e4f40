package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"roadtrip-meal-service/internal/domain"
	"roadtrip-meal-service/internal/platform/obs"
	"roadtrip-meal-service/internal/ports"
	"time"

	"github.com/redis/go-redis/v9"
)

const candidateKeyPrefix = "candidates:"

// RedisCandidateCache stores restaurant source results for a short TTL so
// repeated plans over the same corridor avoid provider calls.
type RedisCandidateCache struct {
	client *redis.Client
}

var _ ports.CandidateCache = (*RedisCandidateCache)(nil)

func NewRedisCandidateCache(client *redis.Client) *RedisCandidateCache {
	return &RedisCandidateCache{client: client}
}

type cachedRestaurant struct {
	SourceID    string   `json:"source_id"`
	Name        string   `json:"name"`
	Cuisine     string   `json:"cuisine,omitempty"`
	Lat         float64  `json:"lat"`
	Lon         float64  `json:"lon"`
	Address     string   `json:"address,omitempty"`
	Rating      float64  `json:"rating"`
	PriceLevel  int      `json:"price_level"`
	DietaryTags []string `json:"dietary_tags,omitempty"`
	Deal        string   `json:"deal,omitempty"`
	Sources     []string `json:"sources,omitempty"`
	Distance    float64  `json:"distance_miles"`
}

func (c *RedisCandidateCache) Get(ctx context.Context, key string) (_ []domain.Restaurant, _ bool, err error) {
	defer obs.Time(ctx, "candidate.cache.Get")(&err)

	b, err := c.client.Get(ctx, candidateKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get candidate cache %q: %w", key, err)
	}

	var stored []cachedRestaurant
	if err := json.Unmarshal(b, &stored); err != nil {
		return nil, false, fmt.Errorf("decode candidate cache %q: %w", key, err)
	}

	out := make([]domain.Restaurant, len(stored))
	for i, s := range stored {
		out[i] = domain.Restaurant{
			SourceID:                s.SourceID,
			Name:                    s.Name,
			Cuisine:                 s.Cuisine,
			Lat:                     s.Lat,
			Lon:                     s.Lon,
			Address:                 s.Address,
			Rating:                  s.Rating,
			PriceLevel:              s.PriceLevel,
			DietaryTags:             s.DietaryTags,
			Deal:                    s.Deal,
			Sources:                 s.Sources,
			DistanceFromAnchorMiles: s.Distance,
		}
	}
	return out, true, nil
}

func (c *RedisCandidateCache) Put(ctx context.Context, key string, restaurants []domain.Restaurant, ttl time.Duration) (err error) {
	defer obs.Time(ctx, "candidate.cache.Put")(&err)

	stored := make([]cachedRestaurant, len(restaurants))
	for i, r := range restaurants {
		stored[i] = cachedRestaurant{
			SourceID:    r.SourceID,
			Name:        r.Name,
			Cuisine:     r.Cuisine,
			Lat:         r.Lat,
			Lon:         r.Lon,
			Address:     r.Address,
			Rating:      r.Rating,
			PriceLevel:  r.PriceLevel,
			DietaryTags: r.DietaryTags,
			Deal:        r.Deal,
			Sources:     r.Sources,
			Distance:    r.DistanceFromAnchorMiles,
		}
	}

	b, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("encode candidate cache %q: %w", key, err)
	}
	if err := c.client.Set(ctx, candidateKeyPrefix+key, b, ttl).Err(); err != nil {
		return fmt.Errorf("put candidate cache %q: %w", key, err)
	}
	return nil
}
