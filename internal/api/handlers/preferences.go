package handlers

import (
	"context"
	"net/http"
	"roadtrip-meal-service/internal/api/dto"
	"roadtrip-meal-service/internal/domain"
	"strings"
)

type PreferenceLearner interface {
	RecordSelections(ctx context.Context, event domain.UserSelectionEvent) (domain.PreferenceWeights, error)
	GetWeights(ctx context.Context, userID string) (domain.PreferenceWeights, error)
	Reset(ctx context.Context, userID string) error
}

type PreferencesHandler struct {
	Learner PreferenceLearner
}

// LearnSelections folds a selection event into the user's weights.
func (h *PreferencesHandler) LearnSelections(w http.ResponseWriter, r *http.Request) {
	var req dto.SelectionEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}

	event, err := req.ToDomain()
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	weights, err := h.Learner.RecordSelections(r.Context(), event)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.LearnResponse{Success: true, Updates: weights.Updates})
}

// Get returns the learned weights, or the global defaults for a user with
// no history.
func (h *PreferencesHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.PathValue("user_id"))
	if userID == "" {
		writeError(w, r, http.StatusBadRequest, domain.KindInvalidRequest, "user_id is required")
		return
	}

	weights, err := h.Learner.GetWeights(r.Context(), userID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewPreferenceWeightsResponse(weights))
}

// Reset is the explicit account reset: learned weights are dropped and the
// user starts again from the defaults.
func (h *PreferencesHandler) Reset(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.PathValue("user_id"))
	if err := h.Learner.Reset(r.Context(), userID); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
