package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"roadtrip-meal-service/internal/adapters/cache"
	"roadtrip-meal-service/internal/adapters/ors"
	"roadtrip-meal-service/internal/adapters/overpass"
	"roadtrip-meal-service/internal/adapters/places"
	"roadtrip-meal-service/internal/adapters/repositories"
	"roadtrip-meal-service/internal/api"
	"roadtrip-meal-service/internal/config"
	"roadtrip-meal-service/internal/domain"
	"roadtrip-meal-service/internal/platform/db"
	"roadtrip-meal-service/internal/platform/kv"
	"roadtrip-meal-service/internal/platform/logger"
	"roadtrip-meal-service/internal/ports"
	"roadtrip-meal-service/internal/services"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// main is the application composition root.
// It wires concrete adapters (ORS, Overpass, Postgres, Redis) behind ports and starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	zl, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, zl); err != nil {
		zl.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, zl *zap.Logger) error {
	stores, closeStores, err := openStores(ctx, cfg, zl)
	if err != nil {
		return err
	}
	defer closeStores()

	orsClient, err := ors.NewClient(cfg.ORSAPIKey, ors.Options{
		BaseURL:     cfg.ORSBaseURL,
		Profile:     cfg.ORSProfile,
		Timeout:     cfg.ProviderTimeout,
		Retries:     cfg.RouteRetries,
		BackoffBase: cfg.RouteBackoffBase,
	})
	if err != nil {
		return fmt.Errorf("ORS client: %w (set ORS_API_KEY)", err)
	}

	geoOpts := ors.GeocoderOptions{
		MinConfidence:   cfg.GeocodeMinConfidence,
		StrictAmbiguity: cfg.GeocodeStrictAmbiguity,
	}
	if cfg.HasGeocodeFocus() {
		geoOpts.Focus = &domain.Coordinates{Lat: cfg.GeocodeFocusLat, Lon: cfg.GeocodeFocusLng}
	}
	geocoder := services.NewCachingGeocoder(ors.NewGeocoder(orsClient, geoOpts), stores.geocodeCache, zl)

	source, err := restaurantSource(cfg, zl)
	if err != nil {
		return err
	}
	if stores.candidateCache != nil {
		source = services.NewCachedSource(source, stores.candidateCache, cfg.CandidateCacheTTL, zl)
	}

	tiers, err := cfg.PriceTiers()
	if err != nil {
		return err
	}
	scorer := services.NewScorer(services.ScorerConfig{
		TopN:        cfg.TopN,
		BudgetSlack: cfg.BudgetSlack,
		TierCosts:   tiers,
	})
	learner := services.NewLearner(stores.weights, stores.events, scorer, services.LearnerConfig{
		Rate:         cfg.LearningRate,
		NegativeRate: cfg.NegativeLearningRate,
		MinWeight:    cfg.WeightMin,
		MaxWeight:    cfg.WeightMax,
	}, zl)

	policy, err := domain.ParseMealTimePolicy(cfg.MealTimePolicy)
	if err != nil {
		return err
	}
	planner := services.NewTripPlanner(geocoder, ors.NewRouter(orsClient), source, scorer, learner, services.PlannerConfig{
		MealTimePolicy:  policy,
		ProviderTimeout: cfg.ProviderTimeout,
	}, zl)

	router := api.NewRouter(planner, learner, api.Options{CORSOrigins: cfg.CORSOrigins, Logger: zl})

	// Timeouts are tuned for cold-cache planning (several provider calls per request).
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zl.Info("server listening", zap.String("addr", srv.Addr), zap.String("sources", source.Name()))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	zl.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type storeSet struct {
	weights        ports.WeightsStore
	events         ports.SelectionLog
	geocodeCache   ports.GeocodeCache
	candidateCache ports.CandidateCache
}

// openStores uses Postgres and Redis when configured and in-memory stores
// otherwise. The returned func closes whatever was opened.
func openStores(ctx context.Context, cfg *config.Config, zl *zap.Logger) (storeSet, func(), error) {
	var (
		stores  storeSet
		sqlDB   *sql.DB
		rclient *redis.Client
	)
	closeAll := func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
		if rclient != nil {
			_ = rclient.Close()
		}
	}

	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		var err error
		sqlDB, err = db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return stores, closeAll, err
		}
		if err := repositories.InitSchema(ctx, sqlDB); err != nil {
			closeAll()
			return stores, func() {}, err
		}
		stores.weights = repositories.NewPostgresWeightsStore(sqlDB)
		stores.events = repositories.NewPostgresSelectionLog(sqlDB)
		stores.geocodeCache = cache.NewSQLGeocodeCache(sqlDB)
		zl.Info("using postgres stores")
	} else {
		stores.weights = repositories.NewMemoryWeightsStore()
		stores.events = repositories.NewMemorySelectionLog()
		zl.Warn("DATABASE_URL not set; learned preferences are kept in memory only")
	}

	if strings.TrimSpace(cfg.RedisAddr) != "" {
		var err error
		rclient, err = kv.Open(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			closeAll()
			return stores, func() {}, err
		}
		stores.candidateCache = cache.NewRedisCandidateCache(rclient)
		zl.Info("using redis candidate cache", zap.String("addr", cfg.RedisAddr), zap.Duration("ttl", cfg.CandidateCacheTTL))
	}

	return stores, closeAll, nil
}

// restaurantSource builds the configured providers, merged when more than one.
func restaurantSource(cfg *config.Config, zl *zap.Logger) (ports.RestaurantSource, error) {
	var sources []ports.RestaurantSource
	for _, name := range cfg.RestaurantSources {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "":
		case overpass.SourceName:
			sources = append(sources, overpass.New(overpass.Options{
				URLs:       cfg.OverpassURLs,
				RatePerSec: cfg.OverpassRatePerSec,
				Logger:     zl,
			}))
		case places.SourceName, "places":
			s, err := places.New(cfg.GooglePlacesAPIKey, places.Options{
				Timeout:     cfg.ProviderTimeout,
				Retries:     cfg.RouteRetries,
				BackoffBase: cfg.RouteBackoffBase,
				Logger:      zl,
			})
			if err != nil {
				return nil, fmt.Errorf("restaurant source %q: %w (set GOOGLE_PLACES_API_KEY)", name, err)
			}
			sources = append(sources, s)
		default:
			return nil, fmt.Errorf("unknown restaurant source %q", name)
		}
	}

	switch len(sources) {
	case 0:
		return nil, errors.New("RESTAURANT_SOURCES must name at least one source")
	case 1:
		return sources[0], nil
	}
	return services.NewMultiSource(zl, sources...), nil
}
