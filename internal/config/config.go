package config

import (
	"errors"
	"fmt"
	"os"
	"roadtrip-meal-service/internal/domain"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	Port        string   `mapstructure:"PORT"`
	Env         string   `mapstructure:"ENV"`
	LogLevel    string   `mapstructure:"LOG_LEVEL"`
	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`

	// OpenRouteService (geocoding + directions).
	ORSAPIKey  string `mapstructure:"ORS_API_KEY"`
	ORSBaseURL string `mapstructure:"ORS_BASE_URL"`
	ORSProfile string `mapstructure:"ORS_PROFILE"`

	GeocodeMinConfidence   float64 `mapstructure:"GEOCODE_MIN_CONFIDENCE"`
	GeocodeStrictAmbiguity bool    `mapstructure:"GEOCODE_STRICT_AMBIGUITY"`
	GeocodeFocusLat        float64 `mapstructure:"GEOCODE_FOCUS_LAT"`
	GeocodeFocusLng        float64 `mapstructure:"GEOCODE_FOCUS_LNG"`

	// Restaurant sources.
	RestaurantSources  []string `mapstructure:"RESTAURANT_SOURCES"`
	OverpassURLs       []string `mapstructure:"OVERPASS_URLS"`
	OverpassRatePerSec float64  `mapstructure:"OVERPASS_RATE_PER_SEC"`
	GooglePlacesAPIKey string   `mapstructure:"GOOGLE_PLACES_API_KEY"`

	// Storage.
	DatabaseURL       string        `mapstructure:"DATABASE_URL"`
	RedisAddr         string        `mapstructure:"REDIS_ADDR"`
	RedisPassword     string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB           int           `mapstructure:"REDIS_DB"`
	CandidateCacheTTL time.Duration `mapstructure:"CANDIDATE_CACHE_TTL"`

	// Provider call policy.
	ProviderTimeout  time.Duration `mapstructure:"PROVIDER_TIMEOUT"`
	RouteRetries     int           `mapstructure:"ROUTE_RETRIES"`
	RouteBackoffBase time.Duration `mapstructure:"ROUTE_BACKOFF_BASE"`

	// Ranking.
	TopN           int     `mapstructure:"TOP_N"`
	BudgetSlack    float64 `mapstructure:"BUDGET_SLACK"`
	PriceTierCosts string  `mapstructure:"PRICE_TIER_COSTS"`
	MealTimePolicy string  `mapstructure:"MEAL_TIME_POLICY"`

	// Learning.
	LearningRate         float64 `mapstructure:"LEARNING_RATE"`
	NegativeLearningRate float64 `mapstructure:"NEGATIVE_LEARNING_RATE"`
	WeightMin            float64 `mapstructure:"WEIGHT_MIN"`
	WeightMax            float64 `mapstructure:"WEIGHT_MAX"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ORIGINS", []string{"*"})

	v.SetDefault("ORS_API_KEY", "")
	v.SetDefault("ORS_BASE_URL", "https://api.openrouteservice.org")
	v.SetDefault("ORS_PROFILE", "driving-car")
	v.SetDefault("GEOCODE_MIN_CONFIDENCE", 0.5)
	v.SetDefault("GEOCODE_STRICT_AMBIGUITY", false)
	v.SetDefault("GEOCODE_FOCUS_LAT", 0.0)
	v.SetDefault("GEOCODE_FOCUS_LNG", 0.0)

	v.SetDefault("RESTAURANT_SOURCES", []string{"overpass"})
	v.SetDefault("OVERPASS_URLS", []string{
		"https://overpass-api.de/api/interpreter",
		"https://lz4.overpass-api.de/api/interpreter",
		"https://z.overpass-api.de/api/interpreter",
	})
	v.SetDefault("OVERPASS_RATE_PER_SEC", 2.0)
	v.SetDefault("GOOGLE_PLACES_API_KEY", "")

	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CANDIDATE_CACHE_TTL", "10m")

	v.SetDefault("PROVIDER_TIMEOUT", "10s")
	v.SetDefault("ROUTE_RETRIES", 2)
	v.SetDefault("ROUTE_BACKOFF_BASE", "500ms")

	v.SetDefault("TOP_N", 5)
	v.SetDefault("BUDGET_SLACK", 0.25)
	v.SetDefault("PRICE_TIER_COSTS", "10,20,40,70")
	v.SetDefault("MEAL_TIME_POLICY", "wrap")

	v.SetDefault("LEARNING_RATE", 0.1)
	v.SetDefault("NEGATIVE_LEARNING_RATE", 0.03)
	v.SetDefault("WEIGHT_MIN", 0.05)
	v.SetDefault("WEIGHT_MAX", 1.0)
}

// Load reads defaults, an optional config.yaml in "." or "./config", and the
// environment (which wins).
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("load config: read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("load config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.TopN < 1 {
		return fmt.Errorf("TOP_N must be >= 1, got %d", c.TopN)
	}
	if c.BudgetSlack < 0 {
		return fmt.Errorf("BUDGET_SLACK must be >= 0, got %v", c.BudgetSlack)
	}
	if c.RouteRetries < 0 {
		return fmt.Errorf("ROUTE_RETRIES must be >= 0, got %d", c.RouteRetries)
	}
	if c.ProviderTimeout <= 0 {
		return fmt.Errorf("PROVIDER_TIMEOUT must be positive, got %v", c.ProviderTimeout)
	}
	if c.WeightMin < 0 || c.WeightMax > 1 || c.WeightMin >= c.WeightMax {
		return fmt.Errorf("weight bounds must satisfy 0 <= WEIGHT_MIN < WEIGHT_MAX <= 1, got [%v, %v]", c.WeightMin, c.WeightMax)
	}
	// New users start every weight at the default, which must lie inside the clamp.
	if c.WeightMin > domain.DefaultWeightValue || c.WeightMax < domain.DefaultWeightValue {
		return fmt.Errorf("weight bounds [%v, %v] must contain the default weight %v", c.WeightMin, c.WeightMax, domain.DefaultWeightValue)
	}
	if c.LearningRate <= 0 || c.LearningRate > 1 {
		return fmt.Errorf("LEARNING_RATE must be in (0, 1], got %v", c.LearningRate)
	}
	if c.NegativeLearningRate < 0 || c.NegativeLearningRate > c.LearningRate {
		return fmt.Errorf("NEGATIVE_LEARNING_RATE must be in [0, LEARNING_RATE], got %v", c.NegativeLearningRate)
	}
	if _, err := c.PriceTiers(); err != nil {
		return err
	}
	switch strings.ToLower(c.MealTimePolicy) {
	case "wrap", "skip":
	default:
		return fmt.Errorf("MEAL_TIME_POLICY must be wrap or skip, got %q", c.MealTimePolicy)
	}
	return nil
}

// PriceTiers parses PRICE_TIER_COSTS into the estimated per-meal cost of
// price levels 1..4.
func (c *Config) PriceTiers() ([4]float64, error) {
	var out [4]float64
	parts := strings.Split(c.PriceTierCosts, ",")
	if len(parts) != len(out) {
		return out, fmt.Errorf("PRICE_TIER_COSTS must list 4 costs, got %q", c.PriceTierCosts)
	}
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || v < 0 {
			return out, fmt.Errorf("PRICE_TIER_COSTS entry %d: invalid cost %q", i+1, p)
		}
		if i > 0 && v < out[i-1] {
			return out, fmt.Errorf("PRICE_TIER_COSTS must be non-decreasing, got %q", c.PriceTierCosts)
		}
		out[i] = v
	}
	return out, nil
}

// HasGeocodeFocus reports whether a city bias point is configured.
func (c *Config) HasGeocodeFocus() bool {
	return c.GeocodeFocusLat != 0 || c.GeocodeFocusLng != 0
}

// Get returns an environment variable or fallback when unset.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
