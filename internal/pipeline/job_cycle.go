package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"next-gig/internal/domain/job"
	"next-gig/internal/domain/matching"
	"next-gig/internal/domain/user"
	"next-gig/internal/infrastructure/scraper"
	"next-gig/internal/repository"
)

// RunStatus distinguishes a clean empty run from one that did work and from
// one that lost part of its batch.
type RunStatus string

const (
	StatusNoop      RunStatus = "no_op"
	StatusCompleted RunStatus = "completed"
	StatusPartial   RunStatus = "partial_failure"
)

// RunReport is the operator-facing summary of one job cycle.
type RunReport struct {
	Status        RunStatus
	EligibleUsers int
	SearchPairs   int
	ScrapedJobs   int
	MatchedUsers  int
	Matched       int
	New           int
	Duplicate     int
	FailedJobs    int
	UserErrors    int
	Duration      time.Duration
}

// Notifier receives the handoff when a run produced new records. The
// collaborator behind it owns composing and delivering any message.
type Notifier interface {
	NewJobsStored(totalNew int, userIDs []string)
}

// Locker guards against overlapping cycles from competing schedulers.
// A nil Locker or an unavailable backend admits the run.
type Locker interface {
	SetIfNotExists(ctx context.Context, key string, value string, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, key string) error
}

// UserJobsInvalidator drops per-user cached listings after new writes.
type UserJobsInvalidator interface {
	InvalidateUserJobs(ctx context.Context, userID string) error
}

// JobCycle orchestrates one aggregation run: eligible users in, per-user
// persisted deltas out.
type JobCycle struct {
	users   repository.UserRepository
	store   repository.JobStoreRepository
	scraper scraper.Client

	policy    repository.EligibilityPolicy
	workers   int
	notifier  Notifier
	locker    Locker
	userCache UserJobsInvalidator

	log *log.Logger
}

type JobCycleParams struct {
	Policy  repository.EligibilityPolicy
	Workers int
}

func NewJobCycle(
	users repository.UserRepository,
	store repository.JobStoreRepository,
	scraperClient scraper.Client,
	notifier Notifier,
	locker Locker,
	userCache UserJobsInvalidator,
	params JobCycleParams,
	logger *log.Logger,
) *JobCycle {
	if logger == nil {
		logger = log.Default()
	}
	workers := params.Workers
	if workers <= 0 {
		workers = 4
	}
	policy := params.Policy
	if policy == "" {
		policy = repository.PolicySubscribed
	}
	return &JobCycle{
		users:     users,
		store:     store,
		scraper:   scraperClient,
		policy:    policy,
		workers:   workers,
		notifier:  notifier,
		locker:    locker,
		userCache: userCache,
		log:       logger,
	}
}

const runLockKey = "jobcycle:lock"

// Run executes one cycle. Input-absence (no users, no pairs, no scraped
// jobs) ends the run cleanly with StatusNoop; a missing collaborator or a
// load failure is a run failure. Per-user errors never stop the batch.
func (c *JobCycle) Run(ctx context.Context) (RunReport, error) {
	start := time.Now()
	report := RunReport{Status: StatusNoop}

	if c.users == nil || c.store == nil || c.scraper == nil {
		return report, fmt.Errorf("job cycle missing collaborator")
	}

	c.log.Printf("pipeline=job_cycle status=started policy=%s", c.policy)
	defer func() {
		report.Duration = time.Since(start)
		c.log.Printf("pipeline=job_cycle status=finished run_status=%s users=%d pairs=%d scraped=%d matched=%d new=%d duplicate=%d failed_jobs=%d user_errors=%d duration=%s",
			report.Status, report.EligibleUsers, report.SearchPairs, report.ScrapedJobs,
			report.Matched, report.New, report.Duplicate, report.FailedJobs, report.UserErrors, report.Duration)
	}()

	if c.locker != nil {
		ok, err := c.locker.SetIfNotExists(ctx, runLockKey, start.UTC().Format(time.RFC3339), 10*time.Minute)
		if err == nil && !ok {
			c.log.Printf("pipeline=job_cycle status=skipped reason=already_running")
			return report, nil
		}
		// Released on completion; the TTL only covers a crashed run.
		defer func() { _ = c.locker.Delete(ctx, runLockKey) }()
	}

	users, err := c.users.ListEligible(ctx, c.policy)
	if err != nil {
		return report, fmt.Errorf("load eligible users: %w", err)
	}
	report.EligibleUsers = len(users)
	if len(users) == 0 {
		c.log.Printf("pipeline=job_cycle status=noop reason=no_eligible_users")
		return report, nil
	}

	pairs := deriveSearchPairs(users)
	report.SearchPairs = len(pairs)
	if len(pairs) == 0 {
		c.log.Printf("pipeline=job_cycle status=noop reason=no_search_pairs")
		return report, nil
	}

	jobsBySource, sources, err := c.scraper.FetchJobs(ctx, pairs)
	if err != nil {
		return report, fmt.Errorf("fetch jobs: %w", err)
	}
	for _, jobs := range jobsBySource {
		report.ScrapedJobs += len(jobs)
	}
	if report.ScrapedJobs == 0 {
		c.log.Printf("pipeline=job_cycle status=noop reason=no_scraped_jobs pairs=%d", len(pairs))
		return report, nil
	}
	c.log.Printf("pipeline=job_cycle step=scrape status=ok sources=%d jobs=%d", len(jobsBySource), report.ScrapedJobs)

	matcher := matching.NewMatcher(sources)

	var mu sync.Mutex
	var notifyUsers []string

	pool := NewWorkerPool(c.workers, c.workers*2)
	results := pool.Run(ctx)

	// Drain before submitting: with the consumer behind all the Submits, a
	// batch larger than the channel buffers wedges every worker.
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for r := range results {
			if r.Err != nil {
				mu.Lock()
				report.UserErrors++
				mu.Unlock()
			}
		}
	}()

	for _, u := range users {
		u := u
		pool.Submit(func(ctx context.Context) Result {
			matched := matcher.Match(jobsBySource, u)
			if len(matched) == 0 {
				c.log.Printf("pipeline=job_cycle step=match status=ok user_id=%s email=%s matched=0", u.ID, u.Email)
				return Result{}
			}

			grouped := groupBySource(matched)

			res, err := c.store.Persist(ctx, u.ID, grouped)
			if err != nil {
				c.log.Printf("pipeline=job_cycle step=persist status=error user_id=%s err=%v", u.ID, err)
				return Result{Err: err}
			}

			mu.Lock()
			report.MatchedUsers++
			report.Matched += len(matched)
			report.New += res.New
			report.Duplicate += res.Duplicate
			report.FailedJobs += res.Failed
			if res.New > 0 {
				notifyUsers = append(notifyUsers, u.ID)
			}
			mu.Unlock()

			c.log.Printf("pipeline=job_cycle step=persist status=ok user_id=%s email=%s matched=%d new=%d duplicate=%d failed=%d",
				u.ID, u.Email, len(matched), res.New, res.Duplicate, res.Failed)

			if res.New > 0 && c.userCache != nil {
				_ = c.userCache.InvalidateUserJobs(ctx, u.ID)
			}
			return Result{}
		})
	}
	pool.Close()
	<-drained

	switch {
	case report.UserErrors > 0 || report.FailedJobs > 0:
		report.Status = StatusPartial
	default:
		report.Status = StatusCompleted
	}

	if report.New > 0 && c.notifier != nil {
		c.notifier.NewJobsStored(report.New, notifyUsers)
	}

	return report, nil
}

func groupBySource(matched []job.RawJob) map[string][]job.RawJob {
	out := make(map[string][]job.RawJob)
	for _, j := range matched {
		out[j.Source] = append(out[j.Source], j)
	}
	return out
}

// deriveSearchPairs unions the per-user cross products into one deduped
// set, so a pair shared by N users drives one scrape instead of N.
func deriveSearchPairs(users []user.Preference) []user.SearchPair {
	seen := map[string]struct{}{}
	out := make([]user.SearchPair, 0)
	for _, u := range users {
		if !u.HasSearchCriteria() {
			continue
		}
		for _, p := range u.SearchPairs() {
			key := strings.ToLower(p.Title) + "|" + strings.ToLower(p.Location)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}
