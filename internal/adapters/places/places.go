// Package places finds restaurants with the Google Places Nearby Search API.
package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"roadtrip-meal-service/internal/domain"
	"roadtrip-meal-service/internal/geo"
	"roadtrip-meal-service/internal/platform/obs"
	"roadtrip-meal-service/internal/platform/slots"
	"roadtrip-meal-service/internal/ports"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	SourceName     = "google"
	DefaultBaseURL = "https://maps.googleapis.com/maps/api/place"
	// maxRadiusMeters is the Nearby Search upper bound.
	maxRadiusMeters = 50000
)

// Options tunes the Places client. Zero values fall back to production defaults.
type Options struct {
	BaseURL string
	Timeout time.Duration
	// Retries is the number of extra attempts after a transient failure.
	Retries     int
	BackoffBase time.Duration
	HTTPClient  *http.Client
	Logger      *zap.Logger
}

type Source struct {
	session     *http.Client
	apiKey      string
	baseURL     string
	retries     int
	backoffBase time.Duration
	log         *zap.Logger
}

var _ ports.RestaurantSource = (*Source)(nil)

func New(apiKey string, opts Options) (*Source, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("google places api key is empty")
	}

	s := &Source{
		session:     opts.HTTPClient,
		apiKey:      apiKey,
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		retries:     max(opts.Retries, 0),
		backoffBase: opts.BackoffBase,
		log:         opts.Logger,
	}
	if s.session == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		s.session = &http.Client{Timeout: timeout}
	}
	if s.baseURL == "" {
		s.baseURL = DefaultBaseURL
	}
	if s.backoffBase <= 0 {
		s.backoffBase = 500 * time.Millisecond
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s, nil
}

func (s *Source) Name() string { return SourceName }

type nearbyResponse struct {
	Status       string  `json:"status"`
	ErrorMessage string  `json:"error_message"`
	Results      []place `json:"results"`
}

type place struct {
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	Rating           *float64 `json:"rating"`
	UserRatingsTotal int      `json:"user_ratings_total"`
	PriceLevel       *int     `json:"price_level"`
	Vicinity         string   `json:"vicinity"`
	Types            []string `json:"types"`
	Geometry         struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
}

// statusError is a failed Nearby Search attempt, either an HTTP status or
// an API status in a 200 body.
type statusError struct {
	HTTPCode  int
	APIStatus string
	Message   string
}

func (e *statusError) Error() string {
	if e.APIStatus != "" {
		return fmt.Sprintf("status %s: %s", e.APIStatus, e.Message)
	}
	return fmt.Sprintf("status %d: %s", e.HTTPCode, e.Message)
}

func (s *Source) FindNear(
	ctx context.Context,
	position domain.Coordinates,
	radiusMiles float64,
	cuisineHints []string,
) (_ []domain.Restaurant, err error) {
	defer obs.Time(ctx, "places.FindNear")(&err)

	if radiusMiles <= 0 {
		return nil, nil
	}

	release, err := slots.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("places find near: %w: %w", domain.ErrSourceUnavailable, err)
	}
	defer release()

	radius := int(geo.MilesToMeters(radiusMiles))
	if radius > maxRadiusMeters {
		radius = maxRadiusMeters
	}

	q := url.Values{}
	q.Set("location", strconv.FormatFloat(position.Lat, 'f', -1, 64)+","+strconv.FormatFloat(position.Lon, 'f', -1, 64))
	q.Set("radius", strconv.Itoa(radius))
	q.Set("type", "restaurant")
	if len(cuisineHints) > 0 {
		q.Set("keyword", strings.Join(cuisineHints, " "))
	}
	q.Set("key", s.apiKey)
	endpoint := s.baseURL + "/nearbysearch/json?" + q.Encode()

	decoded, err := s.searchWithRetry(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("places find near: %w: %w", domain.ErrSourceUnavailable, err)
	}

	out := make([]domain.Restaurant, 0, len(decoded.Results))
	for _, p := range decoded.Results {
		r := toRestaurant(p)
		d := geo.HaversineMiles(position, r.Coordinates())
		if d > radiusMiles {
			continue
		}
		r.DistanceFromAnchorMiles = d
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DistanceFromAnchorMiles < out[j].DistanceFromAnchorMiles
	})

	return out, nil
}

// searchWithRetry retries transient failures up to s.retries times with
// exponential backoff starting at s.backoffBase, while respecting context
// cancellation.
func (s *Source) searchWithRetry(ctx context.Context, endpoint string) (*nearbyResponse, error) {
	maxAttempts := s.retries + 1
	backoff := s.backoffBase

	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		res, err := s.search(ctx, endpoint)
		if err == nil {
			return res, nil
		}
		lastErr = err

		if !retryable(err) || attempt == maxAttempts {
			return nil, lastErr
		}
		s.log.Warn("places search failed; retrying",
			zap.String("req_id", obs.RequestID(ctx)),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		backoff *= 2
	}

	return nil, lastErr
}

func (s *Source) search(ctx context.Context, endpoint string) (*nearbyResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := s.session.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, &statusError{HTTPCode: resp.StatusCode, Message: strings.TrimSpace(string(b))}
	}

	var decoded nearbyResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	switch decoded.Status {
	case "OK", "ZERO_RESULTS":
		return &decoded, nil
	}
	return nil, &statusError{HTTPCode: resp.StatusCode, APIStatus: decoded.Status, Message: decoded.ErrorMessage}
}

// retryable reports network errors, 429/5xx responses and the API's own
// transient statuses. Denied or malformed requests are final.
func retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		switch se.APIStatus {
		case "OVER_QUERY_LIMIT", "UNKNOWN_ERROR":
			return true
		case "":
		default:
			return false
		}
		switch se.HTTPCode {
		case 429, 500, 502, 503, 504:
			return true
		}
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

// genericTypes carry no cuisine information.
var genericTypes = map[string]bool{
	"restaurant":        true,
	"food":              true,
	"point_of_interest": true,
	"establishment":     true,
	"store":             true,
}

func toRestaurant(p place) domain.Restaurant {
	rating := domain.NeutralRating
	if p.Rating != nil && p.UserRatingsTotal > 0 {
		rating = domain.Clamp(*p.Rating, 0, domain.MaxRating)
	}

	// Google uses 0 for free; the canonical tiers start at 1.
	price := domain.DefaultPriceLevel
	if p.PriceLevel != nil {
		price = min(max(*p.PriceLevel, domain.MinPriceLevel), domain.MaxPriceLevel)
	}

	cuisine := ""
	for _, t := range p.Types {
		if !genericTypes[t] {
			cuisine = domain.NormalizeTag(t)
			break
		}
	}

	return domain.Restaurant{
		SourceID:   "google:" + p.PlaceID,
		Name:       p.Name,
		Cuisine:    cuisine,
		Lat:        p.Geometry.Location.Lat,
		Lon:        p.Geometry.Location.Lng,
		Address:    p.Vicinity,
		Rating:     rating,
		PriceLevel: price,
		Sources:    []string{SourceName},
	}
}
