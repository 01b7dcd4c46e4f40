package services

import (
	"fmt"
	"roadtrip-meal-service/internal/domain"
	"roadtrip-meal-service/internal/geo"
)

// SampleCorridor places one search anchor per enabled meal along the route,
// assuming a constant average speed. A meal whose preferred time falls
// outside the drive produces a warning instead of an anchor.
//
// Preferred times earlier than departure are handled by policy: wrap moves
// the meal to the next day, skip drops it.
func SampleCorridor(
	route domain.RouteGeometry,
	departure domain.ClockTime,
	meals map[domain.MealType]domain.MealPreference,
	policy domain.MealTimePolicy,
) ([]domain.MealAnchor, []string) {
	anchors := make([]domain.MealAnchor, 0, len(domain.MealTypes))
	var warnings []string

	for _, m := range domain.MealTypes {
		pref, ok := meals[m]
		if !ok || !pref.Enabled {
			continue
		}

		target := departure.HoursUntil(pref.PreferredTime)
		if target < 0 {
			if policy == domain.MealTimeSkip {
				warnings = append(warnings, fmt.Sprintf(
					"%s skipped: preferred time %s is before departure at %s",
					m, pref.PreferredTime, departure,
				))
				continue
			}
			target += 24
		}

		if route.DurationHours <= 0 || target > route.DurationHours {
			arrival, _ := departure.AddHours(route.DurationHours)
			warnings = append(warnings, fmt.Sprintf(
				"%s skipped: preferred time %s falls after the estimated arrival at %s",
				m, pref.PreferredTime, arrival,
			))
			continue
		}

		fraction := target / route.DurationHours
		at, days := departure.AddHours(target)
		anchors = append(anchors, domain.MealAnchor{
			MealType:           m,
			Position:           geo.PointAtFraction(route.Vertices, fraction),
			RadiusMiles:        pref.RadiusMiles,
			HoursFromDeparture: target,
			EstimatedArrival:   at,
			DayOffset:          days,
			RouteFraction:      fraction,
		})
	}

	return anchors, warnings
}
