package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"next-gig/internal/domain/job"
	"next-gig/internal/domain/matching"
	"next-gig/internal/geo"
	"next-gig/internal/repository"
)

type mockQueryRepo struct {
	userJobs []repository.UserJob
	compiled []job.CompiledJob
	err      error

	listCalls int
}

func (m *mockQueryRepo) ListUserJobs(context.Context, string, int, bool) ([]repository.UserJob, error) {
	m.listCalls++
	return m.userJobs, m.err
}

func (m *mockQueryRepo) ListCompiledJobs(context.Context, int) ([]job.CompiledJob, error) {
	return m.compiled, m.err
}

func (m *mockQueryRepo) ListPendingNotifications(context.Context, int) ([]repository.PendingNotification, error) {
	return nil, nil
}

type mockCache struct {
	store map[string][]byte
	hits  map[string][]UserJobItem
	sets  []string
}

func (m *mockCache) GetJSON(_ context.Context, key string, out any) (bool, error) {
	items, ok := m.hits[key]
	if !ok {
		return false, nil
	}
	*(out.(*[]UserJobItem)) = items
	return true, nil
}

func (m *mockCache) SetJSON(_ context.Context, key string, _ any, _ time.Duration) error {
	m.sets = append(m.sets, key)
	return nil
}

func TestUserJobs_EmptyUserID(t *testing.T) {
	uc := NewUserJobsUsecase(&mockQueryRepo{}, nil, nil)
	_, err := uc.ListUserJobs(context.Background(), UserJobsParams{UserID: "  "})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestUserJobs_InvalidLimit(t *testing.T) {
	uc := NewUserJobsUsecase(&mockQueryRepo{}, nil, nil)
	_, err := uc.ListUserJobs(context.Background(), UserJobsParams{UserID: "u1", Limit: -1})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestUserJobs_Success(t *testing.T) {
	added := time.Now().UTC()
	repo := &mockQueryRepo{userJobs: []repository.UserJob{{
		JobID:   "abc",
		Source:  "linkedin",
		Title:   "Graphic Designer",
		Company: "Acme",
		URL:     "https://x/1",
		AddedAt: added,
	}}}
	cache := &mockCache{}
	uc := NewUserJobsUsecase(repo, cache, nil)

	items, err := uc.ListUserJobs(context.Background(), UserJobsParams{UserID: "u1"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(items) != 1 || items[0].JobID != "abc" {
		t.Fatalf("unexpected items: %+v", items)
	}
	if len(cache.sets) != 1 {
		t.Fatalf("result must be cached, sets=%v", cache.sets)
	}
}

func TestUserJobs_CacheHitSkipsRepository(t *testing.T) {
	repo := &mockQueryRepo{}
	key := userJobsCacheKey("u1", 50, false)
	cache := &mockCache{hits: map[string][]UserJobItem{key: {{JobID: "cached"}}}}
	uc := NewUserJobsUsecase(repo, cache, nil)

	items, err := uc.ListUserJobs(context.Background(), UserJobsParams{UserID: "u1"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(items) != 1 || items[0].JobID != "cached" {
		t.Fatalf("expected cached item, got %+v", items)
	}
	if repo.listCalls != 0 {
		t.Fatalf("repository must not be hit on cache hit")
	}
}

func TestUserJobs_RepositoryError(t *testing.T) {
	uc := NewUserJobsUsecase(&mockQueryRepo{err: errors.New("boom")}, nil, nil)
	_, err := uc.ListUserJobs(context.Background(), UserJobsParams{UserID: "u1"})
	if !errors.Is(err, ErrInternal) {
		t.Fatalf("expected ErrInternal, got %v", err)
	}
}

// mockRadiusSearcher returns canned matches per origin, standing in for the
// geocoder without a provider round trip.
type mockRadiusSearcher struct {
	byOrigin map[string][]geo.RadiusMatch
	origins  []string
}

func (m *mockRadiusSearcher) WithinRadius(_ context.Context, _ string, origin string, _ []job.RawJob, _ float64) []geo.RadiusMatch {
	m.origins = append(m.origins, origin)
	return m.byOrigin[origin]
}

func TestNearbyJobs_EmptyLocation(t *testing.T) {
	uc := NewNearbyJobsUsecase(&mockQueryRepo{}, &mockRadiusSearcher{}, nil, 50, nil)
	_, err := uc.FindNearby(context.Background(), NearbyJobsParams{Location: ""})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestNearbyJobs_SweepsFallbackOrigins(t *testing.T) {
	repo := &mockQueryRepo{compiled: []job.CompiledJob{
		{JobID: "j1", Title: "Designer", Location: "Luton", URL: "https://x/1"},
		{JobID: "j2", Title: "Designer", Location: "Watford", URL: "https://x/2"},
	}}
	resolver := matching.NewFallbackResolver(map[string][]string{
		"london": {"luton", "watford"},
	})
	searcher := &mockRadiusSearcher{byOrigin: map[string][]geo.RadiusMatch{
		"luton":   {{Job: job.RawJob{Title: "Designer", Location: "Luton", URL: "https://x/1"}, DistanceKm: 3.1}},
		"watford": {{Job: job.RawJob{Title: "Designer", Location: "Watford", URL: "https://x/2"}, DistanceKm: 1.2}},
	}}
	uc := NewNearbyJobsUsecase(repo, searcher, resolver, 50, nil)

	items, err := uc.FindNearby(context.Background(), NearbyJobsParams{Location: "London"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(searcher.origins) != 3 {
		t.Fatalf("expected 3 origins swept (satellites + primary), got %v", searcher.origins)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	// Ascending by distance.
	if items[0].URL != "https://x/2" || items[1].URL != "https://x/1" {
		t.Fatalf("expected distance-sorted results, got %+v", items)
	}
	if items[0].JobID != "j2" {
		t.Fatalf("compiled metadata must be joined back, got %+v", items[0])
	}
}

func TestNearbyJobs_DedupesByURLKeepingClosest(t *testing.T) {
	repo := &mockQueryRepo{compiled: []job.CompiledJob{
		{JobID: "j1", Title: "Designer", Location: "Luton", URL: "https://x/1"},
	}}
	resolver := matching.NewFallbackResolver(map[string][]string{
		"london": {"luton"},
	})
	searcher := &mockRadiusSearcher{byOrigin: map[string][]geo.RadiusMatch{
		"luton":  {{Job: job.RawJob{Title: "Designer", URL: "https://x/1"}, DistanceKm: 2.0}},
		"london": {{Job: job.RawJob{Title: "Designer", URL: "https://x/1"}, DistanceKm: 48.7}},
	}}
	uc := NewNearbyJobsUsecase(repo, searcher, resolver, 50, nil)

	items, err := uc.FindNearby(context.Background(), NearbyJobsParams{Location: "London"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected dedup to 1 item, got %d", len(items))
	}
	if items[0].DistanceKm != 2.0 || items[0].Origin != "luton" {
		t.Fatalf("expected closest origin kept, got %+v", items[0])
	}
}

func TestNearbyJobs_EmptyPool(t *testing.T) {
	uc := NewNearbyJobsUsecase(&mockQueryRepo{}, &mockRadiusSearcher{}, nil, 50, nil)
	items, err := uc.FindNearby(context.Background(), NearbyJobsParams{Location: "London"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected no items, got %+v", items)
	}
}
