package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_NAME", "nextgig")
	t.Setenv("DB_USER", "postgres")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)
	t.Setenv("FALLBACK_REGIONS_FILE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if cfg.App.HTTPPort != "8080" {
		t.Fatalf("expected default port, got %q", cfg.App.HTTPPort)
	}
	if cfg.Pipeline.Workers != 4 || cfg.Pipeline.DefaultRadiusKm != 50 {
		t.Fatalf("unexpected pipeline defaults: %+v", cfg.Pipeline)
	}
	if cfg.Pipeline.EligibilityPolicy != "subscribed" {
		t.Fatalf("unexpected default policy: %q", cfg.Pipeline.EligibilityPolicy)
	}
	if cfg.Geocoder.Concurrency != 2 {
		t.Fatalf("unexpected geocoder concurrency: %d", cfg.Geocoder.Concurrency)
	}
	if len(cfg.FallbackRegions) == 0 {
		t.Fatalf("expected built-in fallback regions")
	}
	if _, ok := cfg.FallbackRegions["london"]; !ok {
		t.Fatalf("built-in table must cover london")
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("DB_HOST", "")
	t.Setenv("DB_NAME", "")
	t.Setenv("DB_USER", "")

	_, err := Load()
	if !errors.Is(err, errMissingRequiredEnv) {
		t.Fatalf("expected missing env error, got %v", err)
	}
}

func TestLoad_FallbackRegionsFile(t *testing.T) {
	setRequired(t)

	path := filepath.Join(t.TempDir(), "regions.json")
	if err := os.WriteFile(path, []byte(`{"cardiff": ["newport", "barry"]}`), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FALLBACK_REGIONS_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if towns := cfg.FallbackRegions["cardiff"]; len(towns) != 2 {
		t.Fatalf("file table must replace the built-in one, got %+v", cfg.FallbackRegions)
	}
	if _, ok := cfg.FallbackRegions["london"]; ok {
		t.Fatalf("built-in table must not leak through a file override")
	}
}

func TestLoad_BadDurationFallsBackToDefault(t *testing.T) {
	setRequired(t)
	t.Setenv("GEOCODER_CACHE_TTL", "not-a-duration")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if cfg.Geocoder.CacheTTL.Hours() != 7*24 {
		t.Fatalf("expected default ttl, got %v", cfg.Geocoder.CacheTTL)
	}
}
