package services

import (
	"context"
	"fmt"
	"roadtrip-meal-service/internal/domain"
	"roadtrip-meal-service/internal/platform/obs"
	"roadtrip-meal-service/internal/platform/slots"
	"roadtrip-meal-service/internal/ports"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// WeightsReader returns the ranking weights for a user.
type WeightsReader interface {
	GetWeights(ctx context.Context, userID string) (domain.PreferenceWeights, error)
}

type PlannerConfig struct {
	MealTimePolicy domain.MealTimePolicy
	// ProviderTimeout bounds each geocode and restaurant lookup.
	ProviderTimeout time.Duration
	// MaxConcurrentLookups caps restaurant lookups in flight per plan.
	MaxConcurrentLookups int
}

// TripPlanner composes geocoding, routing, corridor sampling, restaurant
// lookup and ranking into one plan. Only geocoding and routing failures are
// fatal; everything downstream degrades into warnings.
type TripPlanner struct {
	geocoder ports.Geocoder
	router   ports.Router
	source   ports.RestaurantSource
	scorer   *Scorer
	weights  WeightsReader
	cfg      PlannerConfig
	log      *zap.Logger
}

func NewTripPlanner(
	geocoder ports.Geocoder,
	router ports.Router,
	source ports.RestaurantSource,
	scorer *Scorer,
	weights WeightsReader,
	cfg PlannerConfig,
	log *zap.Logger,
) *TripPlanner {
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = 10 * time.Second
	}
	if cfg.MaxConcurrentLookups <= 0 {
		cfg.MaxConcurrentLookups = 3
	}
	if cfg.MealTimePolicy == "" {
		cfg.MealTimePolicy = domain.MealTimeWrap
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &TripPlanner{
		geocoder: geocoder,
		router:   router,
		source:   source,
		scorer:   scorer,
		weights:  weights,
		cfg:      cfg,
		log:      log,
	}
}

func (p *TripPlanner) PlanRoute(ctx context.Context, req domain.TripRequest) (_ *domain.TripPlan, err error) {
	defer obs.Time(ctx, "planner.PlanRoute")(&err)

	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("plan route: %w", err)
	}

	var warnings []string

	start, end, geoWarnings, err := p.resolveEndpoints(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("plan route: %w", err)
	}
	warnings = append(warnings, geoWarnings...)

	route, err := p.router.Route(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("plan route: %w", err)
	}

	anchors, sampleWarnings := SampleCorridor(route, req.DepartureTime, req.Meals, p.cfg.MealTimePolicy)
	warnings = append(warnings, sampleWarnings...)

	candidates, lookupFailed, err := p.lookup(ctx, anchors, req.PreferredCuisines)
	if err != nil {
		return nil, fmt.Errorf("plan route: %w", err)
	}
	for _, a := range anchors {
		if cause, ok := lookupFailed[a.MealType]; ok {
			warnings = append(warnings, lookupFailedWarning(a.MealType, cause))
		}
	}

	found := 0
	for _, rs := range candidates {
		found += len(rs)
	}

	weights, personalized := p.weightsFor(ctx, req.UserID, &warnings)

	constraints := req.Constraints()
	byMeal := make(map[domain.MealType][]domain.ScoredCandidate, len(req.EnabledMeals()))
	for _, m := range req.EnabledMeals() {
		byMeal[m] = []domain.ScoredCandidate{}
	}
	for _, a := range anchors {
		ranked, stats := p.scorer.Rank(a.MealType, candidates[a.MealType], constraints, weights, a.RadiusMiles)
		byMeal[a.MealType] = ranked
		switch {
		case stats.Eligible > 0:
		case lookupFailed[a.MealType] != nil:
		case stats.Considered == 0:
			warnings = append(warnings, fmt.Sprintf("no matches for %s: no restaurants found within %g miles", a.MealType, a.RadiusMiles))
		case stats.Considered > 0:
			warnings = append(warnings, fmt.Sprintf(
				"no matches for %s: none of %d nearby restaurants meet your dietary and budget preferences",
				a.MealType, stats.Considered,
			))
		}
	}

	arrival, days := req.DepartureTime.AddHours(route.DurationHours)
	radii := make(map[domain.MealType]float64, len(anchors))
	for _, a := range anchors {
		radii[a.MealType] = a.RadiusMiles
	}

	return &domain.TripPlan{
		Route:             route,
		Anchors:           anchors,
		RestaurantsByMeal: byMeal,
		Timing: domain.TripTiming{
			Departure:        req.DepartureTime,
			Arrival:          arrival,
			ArrivalDayOffset: days,
			TotalTravelHours: route.DurationHours,
		},
		Metadata: domain.SearchMetadata{
			AnchorsSearched: len(anchors),
			CandidatesFound: found,
			RadiusByMeal:    radii,
			Source:          p.source.Name(),
			Personalized:    personalized,
		},
		Warnings: warnings,
	}, nil
}

// resolveEndpoints geocodes whichever endpoints lack coordinates, in parallel.
func (p *TripPlanner) resolveEndpoints(ctx context.Context, req domain.TripRequest) (domain.Coordinates, domain.Coordinates, []string, error) {
	locs := [2]domain.Location{req.Start, req.End}
	names := [2]string{"start", "end"}
	var coords [2]domain.Coordinates
	var warnings [2]string

	g, gctx := errgroup.WithContext(ctx)
	for i, loc := range locs {
		if loc.Coords != nil {
			coords[i] = *loc.Coords
			continue
		}
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(gctx, p.cfg.ProviderTimeout)
			defer cancel()

			res, err := p.geocoder.Geocode(cctx, loc.Address)
			if err != nil {
				return fmt.Errorf("resolve %s address %q: %w", names[i], loc.Address, err)
			}
			coords[i] = res.Coordinates
			if res.Ambiguous {
				warnings[i] = fmt.Sprintf("%s address %q is ambiguous; using %q", names[i], loc.Address, res.Label)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.Coordinates{}, domain.Coordinates{}, nil, err
	}

	var out []string
	for _, w := range warnings {
		if w != "" {
			out = append(out, w)
		}
	}
	return coords[0], coords[1], out, nil
}

// lookup queries the restaurant source for every anchor with bounded
// concurrency. A failed lookup leaves that meal empty and is reported in the
// second result. Only cancellation of ctx itself is returned as an error.
func (p *TripPlanner) lookup(
	ctx context.Context,
	anchors []domain.MealAnchor,
	hints []string,
) (map[domain.MealType][]domain.Restaurant, map[domain.MealType]error, error) {
	results := make([][]domain.Restaurant, len(anchors))
	errs := make([]error, len(anchors))

	// Sources may fan out further; the budget caps the leaf provider calls.
	ctx = slots.With(ctx, p.cfg.MaxConcurrentLookups)

	var g errgroup.Group
	g.SetLimit(p.cfg.MaxConcurrentLookups)
	for i, a := range anchors {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(ctx, p.cfg.ProviderTimeout)
			defer cancel()

			rs, err := p.source.FindNear(cctx, a.Position, a.RadiusMiles, hints)
			if err != nil {
				errs[i] = err
				return nil
			}
			results[i] = Deduplicate(rs)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	failedMeals := map[domain.MealType]error{}
	byMeal := make(map[domain.MealType][]domain.Restaurant, len(anchors))
	for i, a := range anchors {
		if errs[i] != nil {
			p.log.Warn("restaurant lookup failed",
				zap.String("req_id", obs.RequestID(ctx)),
				zap.String("meal", string(a.MealType)),
				zap.Error(errs[i]),
			)
			failedMeals[a.MealType] = errs[i]
		}
		byMeal[a.MealType] = results[i]
	}

	return byMeal, failedMeals, nil
}

func lookupFailedWarning(m domain.MealType, err error) string {
	if domain.IsTimeout(err) {
		return fmt.Sprintf("restaurant search for %s timed out; no options available", m)
	}
	return fmt.Sprintf("restaurant search for %s is unavailable; no options available", m)
}

// weightsFor falls back to the global defaults when the store is unreachable.
func (p *TripPlanner) weightsFor(ctx context.Context, userID string, warnings *[]string) (domain.PreferenceWeights, bool) {
	if userID == "" || p.weights == nil {
		return domain.DefaultWeights(""), false
	}
	w, err := p.weights.GetWeights(ctx, userID)
	if err != nil {
		p.log.Warn("weights lookup failed", zap.String("user_id", userID), zap.Error(err))
		*warnings = append(*warnings, "personalized ranking unavailable; using default weights")
		return domain.DefaultWeights(userID), false
	}
	return w, w.Updates > 0
}
