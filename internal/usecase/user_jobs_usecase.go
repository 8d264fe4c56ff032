package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"next-gig/internal/repository"
)

type UserJobsParams struct {
	UserID    string
	Limit     int
	SavedOnly bool
}

type UserJobItem struct {
	JobID      string    `json:"job_id"`
	Source     string    `json:"source"`
	Title      string    `json:"title"`
	Company    string    `json:"company"`
	URL        string    `json:"url"`
	Location   string    `json:"location"`
	Salary     string    `json:"salary,omitempty"`
	AddedAt    time.Time `json:"added_at"`
	HasApplied bool      `json:"has_applied"`
	IsSaved    bool      `json:"is_saved"`
	Notes      string    `json:"notes,omitempty"`
}

type UserJobsUsecase interface {
	ListUserJobs(ctx context.Context, params UserJobsParams) ([]UserJobItem, error)
}

// ListingCache is the subset of the cache tier the listing path needs.
type ListingCache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
}

type UserJobs struct {
	jobs   repository.JobQueryRepository
	cache  ListingCache
	logger *log.Logger
}

func NewUserJobsUsecase(jobs repository.JobQueryRepository, cache ListingCache, logger *log.Logger) *UserJobs {
	if logger == nil {
		logger = log.Default()
	}
	return &UserJobs{jobs: jobs, cache: cache, logger: logger}
}

func (u *UserJobs) ListUserJobs(ctx context.Context, params UserJobsParams) ([]UserJobItem, error) {
	userID := strings.TrimSpace(params.UserID)
	if userID == "" {
		return nil, ErrInvalidInput
	}
	limit := params.Limit
	if limit == 0 {
		limit = 50
	}
	if limit < 0 || limit > 200 {
		return nil, ErrInvalidInput
	}

	cacheKey := userJobsCacheKey(userID, limit, params.SavedOnly)
	if u.cache != nil {
		var cached []UserJobItem
		hit, err := u.cache.GetJSON(ctx, cacheKey, &cached)
		if err == nil && hit {
			u.logger.Printf("[Jobs] Cache HIT: %s", cacheKey)
			return cached, nil
		}
	}

	rows, err := u.jobs.ListUserJobs(ctx, userID, limit, params.SavedOnly)
	if err != nil {
		u.logger.Printf("usecase=user_jobs status=error user_id=%s err=%v", userID, err)
		return nil, ErrInternal
	}

	out := make([]UserJobItem, 0, len(rows))
	for _, r := range rows {
		out = append(out, UserJobItem{
			JobID:      r.JobID,
			Source:     r.Source,
			Title:      r.Title,
			Company:    r.Company,
			URL:        r.URL,
			Location:   r.Location,
			Salary:     r.Salary,
			AddedAt:    r.AddedAt,
			HasApplied: r.HasApplied,
			IsSaved:    r.IsSaved,
			Notes:      r.Notes,
		})
	}

	if u.cache != nil {
		_ = u.cache.SetJSON(ctx, cacheKey, out, 0)
	}
	return out, nil
}

// The key prefix matches what the pipeline invalidates after a run writes
// new records for a user.
func userJobsCacheKey(userID string, limit int, savedOnly bool) string {
	return fmt.Sprintf("userjobs:%s:limit=%d:saved=%t", userID, limit, savedOnly)
}
