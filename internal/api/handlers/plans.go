package handlers

import (
	"context"
	"net/http"
	"roadtrip-meal-service/internal/api/dto"
	"roadtrip-meal-service/internal/domain"
)

type RoutePlanner interface {
	PlanRoute(ctx context.Context, req domain.TripRequest) (*domain.TripPlan, error)
}

type PlanHandler struct {
	Planner RoutePlanner
}

// PlanRoute returns ranked meal stops along the route between two locations.
// Fatal planning errors become the error envelope; partial failures arrive
// as warnings on a 200 response.
func (h *PlanHandler) PlanRoute(w http.ResponseWriter, r *http.Request) {
	var req dto.TripRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}

	trip, err := req.ToDomain()
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	plan, err := h.Planner.PlanRoute(r.Context(), trip)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.NewTripPlanResponse(plan))
}
