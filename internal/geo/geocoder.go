package geo

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"next-gig/internal/config"

	"github.com/go-resty/resty/v2"
)

// Coordinates is a resolved (lat, lon) pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// RemoteCache is the optional shared cache tier in front of the geocoding
// provider. Satisfied by the Redis wrapper; nil disables the tier.
type RemoteCache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
}

// Geocoder resolves free-text locations to coordinates via Nominatim.
// Results are memoized for the lifetime of the process; the input domain is
// UK place names, small enough that the in-process map never matters.
// Lookups against the provider run behind a small semaphore so a large run
// cannot fan out unbounded requests against a shared public service.
type Geocoder struct {
	client *resty.Client
	cache  RemoteCache
	ttl    time.Duration
	sem    chan struct{}
	logger *log.Logger

	mu   sync.RWMutex
	memo map[string]*Coordinates
}

func NewGeocoder(cfg config.GeocoderConfig, cache RemoteCache, logger *log.Logger) *Geocoder {
	if logger == nil {
		logger = log.Default()
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 2
	}

	client := resty.New()
	client.SetBaseURL(strings.TrimRight(cfg.BaseURL, "/"))
	client.SetHeader("User-Agent", cfg.UserAgent)
	client.SetTimeout(10 * time.Second)

	return &Geocoder{
		client: client,
		cache:  cache,
		ttl:    cfg.CacheTTL,
		sem:    make(chan struct{}, concurrency),
		logger: logger,
		memo:   map[string]*Coordinates{},
	}
}

type nominatimResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Geocode resolves a location to coordinates, or nil when the provider has
// no answer or the lookup fails. Failure is not an error here: callers
// exclude the location from radius consideration and move on.
func (g *Geocoder) Geocode(ctx context.Context, location string) *Coordinates {
	location = strings.ToLower(strings.TrimSpace(location))
	if location == "" {
		return nil
	}

	g.mu.RLock()
	coords, ok := g.memo[location]
	g.mu.RUnlock()
	if ok {
		return coords
	}

	if g.cache != nil {
		var cached Coordinates
		hit, err := g.cache.GetJSON(ctx, "geocode:"+location, &cached)
		if err == nil && hit {
			g.remember(location, &cached)
			return &cached
		}
	}

	select {
	case g.sem <- struct{}{}:
	case <-ctx.Done():
		return nil
	}
	defer func() { <-g.sem }()

	coords, err := g.lookup(ctx, location)
	if err != nil {
		g.logger.Printf("geocode status=error location=%q err=%v", location, err)
		g.remember(location, nil)
		return nil
	}
	g.remember(location, coords)

	if coords != nil && g.cache != nil {
		_ = g.cache.SetJSON(ctx, "geocode:"+location, coords, g.ttl)
	}
	return coords
}

func (g *Geocoder) lookup(ctx context.Context, location string) (*Coordinates, error) {
	var results []nominatimResult
	resp, err := g.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":      location + ", United Kingdom",
			"format": "json",
			"limit":  "1",
		}).
		SetResult(&results).
		// Parse the body as JSON even when the provider labels it text/plain.
		ForceContentType("application/json").
		Get("/search")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("geocoder status %d", resp.StatusCode())
	}
	if len(results) == 0 {
		// No result is a cacheable non-answer, not a transport failure.
		return nil, nil
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("bad latitude %q", results[0].Lat)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("bad longitude %q", results[0].Lon)
	}
	return &Coordinates{Lat: lat, Lon: lon}, nil
}

func (g *Geocoder) remember(location string, coords *Coordinates) {
	g.mu.Lock()
	g.memo[location] = coords
	g.mu.Unlock()
}
