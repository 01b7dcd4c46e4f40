// Package overpass finds restaurants in OpenStreetMap through the Overpass API.
package overpass

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"roadtrip-meal-service/internal/domain"
	"roadtrip-meal-service/internal/geo"
	"roadtrip-meal-service/internal/platform/obs"
	"roadtrip-meal-service/internal/platform/slots"
	"roadtrip-meal-service/internal/ports"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const SourceName = "overpass"

// DefaultURLs is the public interpreter followed by its mirrors.
var DefaultURLs = []string{
	"https://overpass-api.de/api/interpreter",
	"https://lz4.overpass-api.de/api/interpreter",
	"https://z.overpass-api.de/api/interpreter",
}

type Options struct {
	// URLs are tried in order until one answers.
	URLs []string
	// RatePerSec caps outbound queries across all callers. Zero disables the cap.
	RatePerSec float64
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Source implements ports.RestaurantSource on OSM amenity nodes and ways.
type Source struct {
	session *http.Client
	urls    []string
	limiter *rate.Limiter
	log     *zap.Logger
}

var _ ports.RestaurantSource = (*Source)(nil)

func New(opts Options) *Source {
	s := &Source{
		session: opts.HTTPClient,
		urls:    opts.URLs,
		log:     opts.Logger,
	}
	if s.session == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		s.session = &http.Client{Timeout: timeout}
	}
	if len(s.urls) == 0 {
		s.urls = DefaultURLs
	}
	if opts.RatePerSec > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(opts.RatePerSec), 1)
	} else {
		s.limiter = rate.NewLimiter(rate.Inf, 1)
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

func (s *Source) Name() string { return SourceName }

type response struct {
	Elements []element `json:"elements"`
}

type element struct {
	Type   string  `json:"type"`
	ID     int64   `json:"id"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Center *struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"center"`
	Tags map[string]string `json:"tags"`
}

// FindNear queries every food amenity within the radius. Cuisine hints are
// not pushed into the query: OSM cuisine tagging is sparse, and the ranker
// treats cuisine as a soft signal.
func (s *Source) FindNear(
	ctx context.Context,
	position domain.Coordinates,
	radiusMiles float64,
	cuisineHints []string,
) (_ []domain.Restaurant, err error) {
	defer obs.Time(ctx, "overpass.FindNear")(&err)

	if radiusMiles <= 0 {
		return nil, nil
	}

	release, err := slots.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("overpass find near: %w: %w", domain.ErrSourceUnavailable, err)
	}
	defer release()

	query := buildQuery(position, radiusMiles)

	var lastErr error
	for _, u := range s.urls {
		decoded, err := s.post(ctx, u, query)
		if err == nil {
			return normalize(decoded.Elements, position, radiusMiles), nil
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("overpass find near: %w: %w", domain.ErrSourceUnavailable, ctx.Err())
		}
		s.log.Warn("overpass interpreter failed", zap.String("url", u), zap.Error(err))
		lastErr = err
	}

	return nil, fmt.Errorf("overpass find near: all %d interpreters failed: %w: %w", len(s.urls), domain.ErrSourceUnavailable, lastErr)
}

func buildQuery(p domain.Coordinates, radiusMiles float64) string {
	meters := int(geo.MilesToMeters(radiusMiles))
	around := fmt.Sprintf("(around:%d,%f,%f)", meters, p.Lat, p.Lon)
	return fmt.Sprintf(`[out:json][timeout:25];
(
  node["amenity"~"^(restaurant|cafe|fast_food|pub|food_court)$"]%[1]s;
  way["amenity"~"^(restaurant|cafe|fast_food|pub|food_court)$"]%[1]s;
);
out center tags;`, around)
}

func (s *Source) post(ctx context.Context, endpoint, query string) (*response, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	form := url.Values{"data": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := s.session.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var decoded response
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode overpass response: %w", err)
	}
	if decoded.Elements == nil {
		return nil, errors.New("decode overpass response: missing elements")
	}
	return &decoded, nil
}

// normalize converts OSM elements to restaurants inside the radius, ordered
// by distance from the query point.
func normalize(elements []element, position domain.Coordinates, radiusMiles float64) []domain.Restaurant {
	out := make([]domain.Restaurant, 0, len(elements))
	for _, el := range elements {
		r, ok := toRestaurant(el)
		if !ok {
			continue
		}
		d := geo.HaversineMiles(position, r.Coordinates())
		if d > radiusMiles {
			continue
		}
		r.DistanceFromAnchorMiles = d
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DistanceFromAnchorMiles != out[j].DistanceFromAnchorMiles {
			return out[i].DistanceFromAnchorMiles < out[j].DistanceFromAnchorMiles
		}
		return out[i].SourceID < out[j].SourceID
	})
	return out
}

func toRestaurant(el element) (domain.Restaurant, bool) {
	name := strings.TrimSpace(el.Tags["name"])
	if name == "" {
		return domain.Restaurant{}, false
	}

	lat, lon := el.Lat, el.Lon
	if el.Center != nil {
		lat, lon = el.Center.Lat, el.Center.Lon
	}
	if lat == 0 && lon == 0 {
		return domain.Restaurant{}, false
	}

	return domain.Restaurant{
		SourceID:    fmt.Sprintf("osm:%s/%d", el.Type, el.ID),
		Name:        name,
		Cuisine:     cuisineOf(el.Tags),
		Lat:         lat,
		Lon:         lon,
		Address:     addressOf(el.Tags),
		Rating:      ratingOf(el.Tags),
		PriceLevel:  priceLevelOf(el.Tags),
		DietaryTags: dietaryTagsOf(el.Tags),
		Sources:     []string{SourceName},
	}, true
}
