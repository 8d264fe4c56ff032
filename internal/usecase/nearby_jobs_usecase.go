package usecase

import (
	"context"
	"log"
	"sort"
	"strings"

	"next-gig/internal/domain/job"
	"next-gig/internal/domain/matching"
	"next-gig/internal/geo"
	"next-gig/internal/repository"
)

type NearbyJobsParams struct {
	Title    string
	Location string
	RadiusKm float64
	Limit    int
}

type NearbyJobItem struct {
	JobID      string  `json:"job_id"`
	Title      string  `json:"title"`
	Company    string  `json:"company"`
	Location   string  `json:"location"`
	URL        string  `json:"url"`
	Salary     string  `json:"salary,omitempty"`
	Source     string  `json:"source"`
	DistanceKm float64 `json:"distance_km"`
	Origin     string  `json:"origin"`
}

type NearbyJobsUsecase interface {
	FindNearby(ctx context.Context, params NearbyJobsParams) ([]NearbyJobItem, error)
}

type radiusSearcher interface {
	WithinRadius(ctx context.Context, title, origin string, jobs []job.RawJob, maxKm float64) []geo.RadiusMatch
}

type NearbyJobs struct {
	jobs            repository.JobQueryRepository
	geocoder        radiusSearcher
	fallbacks       *matching.FallbackResolver
	defaultRadiusKm float64
	logger          *log.Logger
}

func NewNearbyJobsUsecase(jobs repository.JobQueryRepository, geocoder radiusSearcher, fallbacks *matching.FallbackResolver, defaultRadiusKm float64, logger *log.Logger) *NearbyJobs {
	if logger == nil {
		logger = log.Default()
	}
	if defaultRadiusKm <= 0 {
		defaultRadiusKm = 50
	}
	return &NearbyJobs{jobs: jobs, geocoder: geocoder, fallbacks: fallbacks, defaultRadiusKm: defaultRadiusKm, logger: logger}
}

// FindNearby searches the compiled job pool around a location. The search
// runs from the location itself plus its fallback region satellites, so a
// query for a major city also sweeps its commuter belt. Results are deduped
// by URL keeping the closest origin, sorted ascending by distance.
func (u *NearbyJobs) FindNearby(ctx context.Context, params NearbyJobsParams) ([]NearbyJobItem, error) {
	location := strings.TrimSpace(params.Location)
	if location == "" {
		return nil, ErrInvalidInput
	}
	radius := params.RadiusKm
	if radius == 0 {
		radius = u.defaultRadiusKm
	}
	if radius < 0 || radius > 500 {
		return nil, ErrInvalidInput
	}
	limit := params.Limit
	if limit == 0 {
		limit = 50
	}
	if limit < 0 || limit > 200 {
		return nil, ErrInvalidInput
	}

	compiled, err := u.jobs.ListCompiledJobs(ctx, 0)
	if err != nil {
		u.logger.Printf("usecase=nearby_jobs status=error location=%q err=%v", location, err)
		return nil, ErrInternal
	}
	if len(compiled) == 0 {
		return []NearbyJobItem{}, nil
	}

	pool := make([]job.RawJob, 0, len(compiled))
	byURL := make(map[string]job.CompiledJob, len(compiled))
	for _, cj := range compiled {
		if cj.URL == "" || cj.Location == "" {
			continue
		}
		pool = append(pool, job.RawJob{
			Title:    cj.Title,
			Company:  cj.Company,
			Location: cj.Location,
			URL:      cj.URL,
			Salary:   cj.Salary,
			Source:   cj.Source,
		})
		byURL[cj.URL] = cj
	}

	origins := []string{matching.NormalizeLocation(location)}
	if u.fallbacks != nil {
		origins = u.fallbacks.Fallbacks(location)
	}

	best := map[string]NearbyJobItem{}
	for _, origin := range origins {
		for _, m := range u.geocoder.WithinRadius(ctx, params.Title, origin, pool, radius) {
			cj := byURL[m.Job.URL]
			item := NearbyJobItem{
				JobID:      cj.JobID,
				Title:      m.Job.Title,
				Company:    m.Job.Company,
				Location:   m.Job.Location,
				URL:        m.Job.URL,
				Salary:     m.Job.Salary,
				Source:     m.Job.Source,
				DistanceKm: m.DistanceKm,
				Origin:     origin,
			}
			if prev, ok := best[m.Job.URL]; !ok || item.DistanceKm < prev.DistanceKm {
				best[m.Job.URL] = item
			}
		}
	}

	out := make([]NearbyJobItem, 0, len(best))
	for _, item := range best {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DistanceKm != out[j].DistanceKm {
			return out[i].DistanceKm < out[j].DistanceKm
		}
		return out[i].URL < out[j].URL
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
