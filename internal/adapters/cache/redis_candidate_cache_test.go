package cache

import (
	"context"
	"roadtrip-meal-service/internal/domain"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T) (*RedisCandidateCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCandidateCache(client), mr
}

func TestRedisCandidateCacheRoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	want := []domain.Restaurant{{
		SourceID: "osm:node/1", Name: "Green Leaf", Cuisine: "vegan",
		Lat: 40.001, Lon: -75, Rating: 4.5, PriceLevel: 2,
		DietaryTags: []string{"vegan"}, Sources: []string{"overpass"},
		DistanceFromAnchorMiles: 0.07,
	}}

	if err := c.Put(ctx, "k1", want, time.Minute); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok, err := c.Get(ctx, "k1")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if len(got) != 1 || got[0].SourceID != "osm:node/1" || got[0].DistanceFromAnchorMiles != 0.07 || got[0].DietaryTags[0] != "vegan" {
		t.Errorf("got %+v", got)
	}
}

func TestRedisCandidateCacheMissAndExpiry(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	if _, ok, err := c.Get(ctx, "absent"); ok || err != nil {
		t.Fatalf("miss: ok=%v err=%v", ok, err)
	}

	if err := c.Put(ctx, "k", []domain.Restaurant{}, time.Minute); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := c.Get(ctx, "k"); !ok {
		t.Fatal("empty result should still be cached")
	}

	mr.FastForward(2 * time.Minute)
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Fatal("entry should have expired")
	}
}
