package ors

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"roadtrip-meal-service/internal/domain"
	"roadtrip-meal-service/internal/platform/obs"
	"roadtrip-meal-service/internal/ports"
	"strconv"
	"strings"
)

type geocodeResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
		Properties struct {
			Label      string   `json:"label"`
			Confidence *float64 `json:"confidence"`
		} `json:"properties"`
	} `json:"features"`
}

// GeocoderOptions controls match acceptance.
type GeocoderOptions struct {
	// MinConfidence is the lowest provider confidence accepted as a match.
	MinConfidence float64
	// StrictAmbiguity fails with domain.ErrAmbiguousAddress instead of
	// returning the first of several equally strong matches.
	StrictAmbiguity bool
	// Focus biases results toward a point (a city center, for example).
	// Biased lookups are never reported as ambiguous.
	Focus *domain.Coordinates
	// Country restricts results to an ISO country code. Empty means worldwide.
	Country string
}

// Geocoder resolves addresses with the ORS /geocode/search endpoint.
type Geocoder struct {
	c    *Client
	opts GeocoderOptions
}

var _ ports.Geocoder = (*Geocoder)(nil)

func NewGeocoder(c *Client, opts GeocoderOptions) *Geocoder {
	return &Geocoder{c: c, opts: opts}
}

// normalize collapses whitespace so equivalent inputs share a request.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func (g *Geocoder) Geocode(ctx context.Context, address string) (_ ports.GeocodeResult, err error) {
	defer obs.Time(ctx, "ors.Geocode")(&err)

	norm := normalize(address)
	if norm == "" {
		return ports.GeocodeResult{}, fmt.Errorf("geocode: %w: address must be non-empty", domain.ErrInvalidRequest)
	}

	endpoint := g.c.baseURL + "/geocode/search"

	resp, err := g.c.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := g.c.newRequest(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		q := req.URL.Query()
		q.Set("text", norm)
		q.Set("size", "5")
		if g.opts.Country != "" {
			q.Set("boundary.country", g.opts.Country)
		}
		if g.opts.Focus != nil {
			q.Set("focus.point.lat", strconv.FormatFloat(g.opts.Focus.Lat, 'f', -1, 64))
			q.Set("focus.point.lon", strconv.FormatFloat(g.opts.Focus.Lon, 'f', -1, 64))
		}
		req.URL.RawQuery = q.Encode()
		return req, nil
	})
	if err != nil {
		return ports.GeocodeResult{}, unavailable(fmt.Sprintf("geocode %q", norm), err)
	}
	defer resp.Body.Close()

	var decoded geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return ports.GeocodeResult{}, unavailable("decode geocode response", err)
	}

	matches := make([]ports.GeocodeResult, 0, len(decoded.Features))
	for _, f := range decoded.Features {
		coords := f.Geometry.Coordinates
		if len(coords) != 2 {
			continue
		}
		confidence := 0.0
		if f.Properties.Confidence != nil {
			confidence = *f.Properties.Confidence
		}
		if confidence < g.opts.MinConfidence {
			continue
		}
		matches = append(matches, ports.GeocodeResult{
			Coordinates: domain.Coordinates{Lon: coords[0], Lat: coords[1]},
			Label:       f.Properties.Label,
			Confidence:  confidence,
		})
	}

	if len(matches) == 0 {
		return ports.GeocodeResult{}, fmt.Errorf("geocode %q: %w", norm, domain.ErrAddressNotFound)
	}

	best := matches[0]
	for _, m := range matches[1:] {
		if m.Confidence > best.Confidence {
			best = m
		}
	}

	if g.opts.Focus == nil && ambiguous(best, matches) {
		if g.opts.StrictAmbiguity {
			return ports.GeocodeResult{}, fmt.Errorf("geocode %q: %w", norm, domain.ErrAmbiguousAddress)
		}
		best.Ambiguous = true
	}

	return best, nil
}

// ambiguous reports whether another match ties best on confidence at a
// different place.
func ambiguous(best ports.GeocodeResult, matches []ports.GeocodeResult) bool {
	const eps = 1e-9
	const samePlaceDeg = 1e-3
	for _, m := range matches {
		if math.Abs(m.Confidence-best.Confidence) > eps {
			continue
		}
		if math.Abs(m.Coordinates.Lat-best.Coordinates.Lat) > samePlaceDeg ||
			math.Abs(m.Coordinates.Lon-best.Coordinates.Lon) > samePlaceDeg {
			return true
		}
	}
	return false
}
