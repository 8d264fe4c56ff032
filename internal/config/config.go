package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Geocoder GeocoderConfig
	Pipeline PipelineConfig

	ScraperBaseURL string

	// FallbackRegions maps a normalized city to its commuter-belt towns.
	FallbackRegions map[string][]string
}

type AppConfig struct {
	AppName     string
	Environment string
	HTTPPort    string
}

type DatabaseConfig struct {
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	ConnectTimeout      time.Duration
	PoolMaxConns        int32
	PoolMinConns        int32
	PoolMaxConnLifetime time.Duration
	PoolMaxConnIdleTime time.Duration
}

type GeocoderConfig struct {
	BaseURL     string
	UserAgent   string
	Concurrency int
	CacheTTL    time.Duration
}

type PipelineConfig struct {
	Workers           int
	DefaultRadiusKm   float64
	EligibilityPolicy string
}

var errMissingRequiredEnv = errors.New("missing required environment variables")

func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{}

	var missing []string
	req := func(key string) string {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}
	opt := func(key, def string) string {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			return def
		}
		return v
	}

	cfg.App = AppConfig{
		AppName:     opt("APP_NAME", "next-gig"),
		Environment: opt("APP_ENV", "development"),
		HTTPPort:    opt("HTTP_PORT", "8080"),
	}

	cfg.Database = DatabaseConfig{
		DBHost:              req("DB_HOST"),
		DBPort:              opt("DB_PORT", "5432"),
		DBName:              req("DB_NAME"),
		DBUser:              req("DB_USER"),
		DBPassword:          os.Getenv("DB_PASSWORD"),
		DBSSLMode:           opt("DB_SSL_MODE", "disable"),
		ConnectTimeout:      optDuration("DB_CONNECT_TIMEOUT", 5*time.Second),
		PoolMaxConns:        int32(optInt("DB_POOL_MAX_CONNS", 10)),
		PoolMinConns:        int32(optInt("DB_POOL_MIN_CONNS", 0)),
		PoolMaxConnLifetime: optDuration("DB_POOL_MAX_CONN_LIFETIME", time.Hour),
		PoolMaxConnIdleTime: optDuration("DB_POOL_MAX_CONN_IDLE_TIME", 30*time.Minute),
	}

	cfg.Geocoder = GeocoderConfig{
		BaseURL:     opt("GEOCODER_BASE_URL", "https://nominatim.openstreetmap.org"),
		UserAgent:   opt("GEOCODER_USER_AGENT", "next_gig_job_search"),
		Concurrency: optInt("GEOCODER_CONCURRENCY", 2),
		CacheTTL:    optDuration("GEOCODER_CACHE_TTL", 7*24*time.Hour),
	}

	cfg.Pipeline = PipelineConfig{
		Workers:           optInt("PIPELINE_WORKERS", 4),
		DefaultRadiusKm:   optFloat("MATCH_RADIUS_KM", 50),
		EligibilityPolicy: opt("ELIGIBILITY_POLICY", "subscribed"),
	}

	cfg.ScraperBaseURL = strings.TrimSpace(os.Getenv("SCRAPER_BASE_URL"))

	regions, err := loadFallbackRegions(strings.TrimSpace(os.Getenv("FALLBACK_REGIONS_FILE")))
	if err != nil {
		return Config{}, err
	}
	cfg.FallbackRegions = regions

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("%w: %s", errMissingRequiredEnv, strings.Join(missing, ", "))
	}

	return cfg, nil
}

// loadFallbackRegions returns the built-in commuter-belt table, optionally
// replaced by a JSON file of the same shape.
func loadFallbackRegions(path string) (map[string][]string, error) {
	if path == "" {
		return DefaultFallbackRegions(), nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fallback regions file: %w", err)
	}
	out := map[string][]string{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("parse fallback regions file %s: %w", path, err)
	}
	return out, nil
}

func optInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func optFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func optDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v <= 0 {
		return def
	}
	return v
}
