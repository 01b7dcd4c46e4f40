package api

import (
	"net/http"
	"roadtrip-meal-service/internal/api/handlers"

	"github.com/rs/cors"
	"go.uber.org/zap"
)

type Options struct {
	// CORSOrigins lists allowed browser origins; "*" allows any.
	CORSOrigins []string
	Logger      *zap.Logger
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(planner handlers.RoutePlanner, learner handlers.PreferenceLearner, opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	mux := http.NewServeMux()

	planHandler := &handlers.PlanHandler{Planner: planner}
	prefHandler := &handlers.PreferencesHandler{Learner: learner}

	mux.HandleFunc("/health", handlers.Health)
	mux.HandleFunc("POST /plan-route", planHandler.PlanRoute)
	mux.HandleFunc("POST /learn-selections", prefHandler.LearnSelections)
	mux.HandleFunc("GET /preferences/{user_id}", prefHandler.Get)
	mux.HandleFunc("DELETE /preferences/{user_id}", prefHandler.Reset)

	c := cors.New(cors.Options{
		AllowedOrigins: opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Authorization", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
	})

	return requestIDMiddleware(loggingMiddleware(log, c.Handler(mux)))
}
