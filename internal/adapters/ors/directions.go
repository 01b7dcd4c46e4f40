package ors

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"roadtrip-meal-service/internal/domain"
	"roadtrip-meal-service/internal/geo"
	"roadtrip-meal-service/internal/platform/obs"
	"roadtrip-meal-service/internal/ports"
)

// ORS error codes meaning the points cannot be connected.
const (
	codeRouteNotFound = 2009
	codePointNotFound = 2010
)

type directionsRequest struct {
	Coordinates  [][]float64 `json:"coordinates"`
	Instructions bool        `json:"instructions"`
}

type directionsResponse struct {
	BBox     []float64 `json:"bbox"`
	Features []struct {
		BBox       []float64 `json:"bbox"`
		Properties struct {
			Summary struct {
				Distance float64 `json:"distance"`
				Duration float64 `json:"duration"`
			} `json:"summary"`
		} `json:"properties"`
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

type errorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Router computes driving routes with /v2/directions/{profile}/geojson.
type Router struct {
	c *Client
}

var _ ports.Router = (*Router)(nil)

func NewRouter(c *Client) *Router {
	return &Router{c: c}
}

func (r *Router) Route(ctx context.Context, start, end domain.Coordinates) (_ domain.RouteGeometry, err error) {
	defer obs.Time(ctx, "ors.Route")(&err)

	payload, err := json.Marshal(directionsRequest{
		Coordinates: [][]float64{start.CoordsToList(), end.CoordsToList()},
	})
	if err != nil {
		return domain.RouteGeometry{}, fmt.Errorf("marshal directions request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v2/directions/%s/geojson", r.c.baseURL, r.c.profile)

	resp, err := r.c.doWithRetry(ctx, func() (*http.Request, error) {
		return r.c.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	})
	if err != nil {
		if noRoute(err) {
			return domain.RouteGeometry{}, fmt.Errorf("route %v -> %v: %w: %w", start, end, domain.ErrNoRouteFound, err)
		}
		return domain.RouteGeometry{}, unavailable("route request", err)
	}
	defer resp.Body.Close()

	var decoded directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.RouteGeometry{}, unavailable("decode directions response", err)
	}

	if len(decoded.Features) == 0 {
		return domain.RouteGeometry{}, fmt.Errorf("route %v -> %v: %w: empty feature collection", start, end, domain.ErrNoRouteFound)
	}
	f := decoded.Features[0]

	vertices := make([]domain.Coordinates, 0, len(f.Geometry.Coordinates))
	for _, c := range f.Geometry.Coordinates {
		if len(c) < 2 {
			continue
		}
		vertices = append(vertices, domain.Coordinates{Lon: c[0], Lat: c[1]})
	}
	if len(vertices) == 0 {
		vertices = []domain.Coordinates{start, end}
	}

	bbox := geo.Bounds(vertices)
	if b := firstBBox(f.BBox, decoded.BBox); b != nil {
		bbox = *b
	}

	return domain.RouteGeometry{
		Vertices:      vertices,
		DistanceMiles: geo.MetersToMiles(f.Properties.Summary.Distance),
		DurationHours: f.Properties.Summary.Duration / 3600,
		BBox:          bbox,
	}, nil
}

// noRoute reports whether a provider error means the road network cannot
// connect the points.
func noRoute(err error) bool {
	var he *httpStatusError
	if !errors.As(err, &he) {
		return false
	}
	var body errorBody
	if json.Unmarshal([]byte(he.Body), &body) == nil {
		switch body.Error.Code {
		case codeRouteNotFound, codePointNotFound:
			return true
		}
	}
	return he.Code == http.StatusNotFound
}

// firstBBox returns the first 2D [minLon, minLat, maxLon, maxLat] box given.
func firstBBox(candidates ...[]float64) *domain.BoundingBox {
	for _, b := range candidates {
		if len(b) == 4 {
			return &domain.BoundingBox{MinLon: b[0], MinLat: b[1], MaxLon: b[2], MaxLat: b[3]}
		}
	}
	return nil
}
