package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"next-gig/internal/domain/job"
	"next-gig/internal/domain/user"
	"next-gig/internal/repository"
)

type fakeUserRepo struct {
	users []user.Preference
	err   error
}

func (f fakeUserRepo) ListEligible(context.Context, repository.EligibilityPolicy) ([]user.Preference, error) {
	return f.users, f.err
}

func (f fakeUserRepo) CountByStatus(context.Context) (map[string]int, error) {
	return nil, nil
}

type fakeStore struct {
	mu        sync.Mutex
	persisted map[string]map[string][]job.RawJob
	results   map[string]repository.StoreResult
	errFor    map[string]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		persisted: map[string]map[string][]job.RawJob{},
		results:   map[string]repository.StoreResult{},
		errFor:    map[string]error{},
	}
}

func (f *fakeStore) Persist(_ context.Context, userID string, matches map[string][]job.RawJob) (repository.StoreResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errFor[userID]; err != nil {
		return repository.StoreResult{}, err
	}
	f.persisted[userID] = matches
	if res, ok := f.results[userID]; ok {
		return res, nil
	}
	total := 0
	for _, js := range matches {
		total += len(js)
	}
	return repository.StoreResult{New: total}, nil
}

type fakeScraper struct {
	jobs    map[string][]job.RawJob
	sources []job.Source
	err     error

	mu    sync.Mutex
	calls int
	pairs []user.SearchPair
}

func (f *fakeScraper) FetchJobs(_ context.Context, pairs []user.SearchPair) (map[string][]job.RawJob, []job.Source, error) {
	f.mu.Lock()
	f.calls++
	f.pairs = pairs
	f.mu.Unlock()
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.jobs, f.sources, nil
}

type fakeNotifier struct {
	mu      sync.Mutex
	calls   int
	lastNew int
	userIDs []string
}

func (f *fakeNotifier) NewJobsStored(totalNew int, userIDs []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastNew = totalNew
	f.userIDs = userIDs
}

func designerUser(id string) user.Preference {
	return user.Preference{
		ID:           id,
		Email:        id + "@test.com",
		JobTitles:    []string{"graphic designer"},
		JobLocations: []string{"london"},
		Subscribed:   true,
	}
}

func linkedinJobs() (map[string][]job.RawJob, []job.Source) {
	jobs := map[string][]job.RawJob{
		"linkedin": {
			{Title: "Graphic Designer", Location: "London, UK", URL: "https://x/1", Company: "Acme"},
		},
	}
	return jobs, []job.Source{{Name: "linkedin", ReliableTitle: true}}
}

func TestJobCycle_HappyPath(t *testing.T) {
	jobs, sources := linkedinJobs()
	scr := &fakeScraper{jobs: jobs, sources: sources}
	store := newFakeStore()
	notifier := &fakeNotifier{}

	c := NewJobCycle(
		fakeUserRepo{users: []user.Preference{designerUser("u1"), designerUser("u2")}},
		store, scr, notifier, nil, nil, JobCycleParams{Workers: 2}, nil,
	)

	report, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if report.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s", report.Status)
	}
	if report.EligibleUsers != 2 || report.MatchedUsers != 2 {
		t.Fatalf("unexpected user counts: %+v", report)
	}
	if report.New != 2 {
		t.Fatalf("expected 2 new records, got %d", report.New)
	}
	if len(store.persisted) != 2 {
		t.Fatalf("expected persistence for both users, got %d", len(store.persisted))
	}
	if notifier.calls != 1 || notifier.lastNew != 2 {
		t.Fatalf("expected one notification handoff with 2 new, got calls=%d new=%d", notifier.calls, notifier.lastNew)
	}
}

func TestJobCycle_NoEligibleUsersIsNoop(t *testing.T) {
	scr := &fakeScraper{}
	c := NewJobCycle(fakeUserRepo{}, newFakeStore(), scr, nil, nil, nil, JobCycleParams{}, nil)

	report, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if report.Status != StatusNoop {
		t.Fatalf("expected noop, got %s", report.Status)
	}
	if scr.calls != 0 {
		t.Fatalf("scraper must not be invoked without users")
	}
}

func TestJobCycle_UsersWithoutCriteriaIsNoop(t *testing.T) {
	users := []user.Preference{{ID: "u1", Email: "u1@test.com", Subscribed: true}}
	scr := &fakeScraper{}
	c := NewJobCycle(fakeUserRepo{users: users}, newFakeStore(), scr, nil, nil, nil, JobCycleParams{}, nil)

	report, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if report.Status != StatusNoop || report.SearchPairs != 0 {
		t.Fatalf("expected noop with zero pairs, got %+v", report)
	}
}

func TestJobCycle_EmptyScrapeIsNoop(t *testing.T) {
	scr := &fakeScraper{jobs: map[string][]job.RawJob{"linkedin": {}}, sources: []job.Source{{Name: "linkedin", ReliableTitle: true}}}
	store := newFakeStore()
	notifier := &fakeNotifier{}
	c := NewJobCycle(fakeUserRepo{users: []user.Preference{designerUser("u1")}}, store, scr, notifier, nil, nil, JobCycleParams{}, nil)

	report, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if report.Status != StatusNoop {
		t.Fatalf("expected noop, got %s", report.Status)
	}
	if len(store.persisted) != 0 || notifier.calls != 0 {
		t.Fatalf("no persistence or notification expected on empty scrape")
	}
}

func TestJobCycle_ScraperFailureIsRunFailure(t *testing.T) {
	scr := &fakeScraper{err: errors.New("scraper down")}
	c := NewJobCycle(fakeUserRepo{users: []user.Preference{designerUser("u1")}}, newFakeStore(), scr, nil, nil, nil, JobCycleParams{}, nil)

	if _, err := c.Run(context.Background()); err == nil {
		t.Fatalf("expected run failure when scraper collaborator is unreachable")
	}
}

func TestJobCycle_PerUserErrorDoesNotBlockOthers(t *testing.T) {
	jobs, sources := linkedinJobs()
	scr := &fakeScraper{jobs: jobs, sources: sources}
	store := newFakeStore()
	store.errFor["u1"] = errors.New("write refused")

	c := NewJobCycle(
		fakeUserRepo{users: []user.Preference{designerUser("u1"), designerUser("u2")}},
		store, scr, nil, nil, nil, JobCycleParams{Workers: 1}, nil,
	)

	report, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("per-user error must not fail the run: %v", err)
	}
	if report.Status != StatusPartial {
		t.Fatalf("expected partial failure, got %s", report.Status)
	}
	if report.UserErrors != 1 {
		t.Fatalf("expected 1 user error, got %d", report.UserErrors)
	}
	if _, ok := store.persisted["u2"]; !ok {
		t.Fatalf("u2 should still be processed after u1 failed")
	}
}

func TestJobCycle_SearchPairsDeduplicatedAcrossUsers(t *testing.T) {
	jobs, sources := linkedinJobs()
	scr := &fakeScraper{jobs: jobs, sources: sources}

	u1 := designerUser("u1")
	u2 := designerUser("u2")
	u2.JobTitles = []string{"Graphic Designer", "ui designer"}

	c := NewJobCycle(fakeUserRepo{users: []user.Preference{u1, u2}}, newFakeStore(), scr, nil, nil, nil, JobCycleParams{}, nil)
	if _, err := c.Run(context.Background()); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	// u1 and u2 share (graphic designer, london); u2 adds one more pair.
	if len(scr.pairs) != 2 {
		t.Fatalf("expected 2 deduplicated pairs, got %d: %v", len(scr.pairs), scr.pairs)
	}
}

func TestJobCycle_DuplicateRunReportsDuplicates(t *testing.T) {
	jobs, sources := linkedinJobs()
	scr := &fakeScraper{jobs: jobs, sources: sources}
	store := newFakeStore()
	store.results["u1"] = repository.StoreResult{New: 0, Duplicate: 1}
	notifier := &fakeNotifier{}

	c := NewJobCycle(fakeUserRepo{users: []user.Preference{designerUser("u1")}}, store, scr, notifier, nil, nil, JobCycleParams{}, nil)
	report, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if report.New != 0 || report.Duplicate != 1 {
		t.Fatalf("unexpected counts: %+v", report)
	}
	if notifier.calls != 0 {
		t.Fatalf("no notification expected without new records")
	}
}

type fakeLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{held: map[string]bool{}}
}

func (f *fakeLocker) SetIfNotExists(_ context.Context, key, _ string, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.held[key] {
		return false, nil
	}
	f.held[key] = true
	return true, nil
}

func (f *fakeLocker) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.held, key)
	return nil
}

func TestJobCycle_HeldLockSkipsRun(t *testing.T) {
	jobs, sources := linkedinJobs()
	scr := &fakeScraper{jobs: jobs, sources: sources}
	locker := newFakeLocker()
	if _, err := locker.SetIfNotExists(context.Background(), runLockKey, "other", time.Minute); err != nil {
		t.Fatalf("seed lock: %v", err)
	}

	c := NewJobCycle(fakeUserRepo{users: []user.Preference{designerUser("u1")}}, newFakeStore(), scr, nil, locker, nil, JobCycleParams{}, nil)
	report, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if scr.calls != 0 {
		t.Fatalf("scraper must not run while another cycle holds the lock")
	}
	if report.Status != StatusNoop {
		t.Fatalf("expected noop, got %s", report.Status)
	}
}

func TestJobCycle_ReleasesLockAfterRun(t *testing.T) {
	jobs, sources := linkedinJobs()
	scr := &fakeScraper{jobs: jobs, sources: sources}
	locker := newFakeLocker()
	store := newFakeStore()

	c := NewJobCycle(fakeUserRepo{users: []user.Preference{designerUser("u1")}}, store, scr, nil, locker, nil, JobCycleParams{}, nil)

	for i := 0; i < 2; i++ {
		report, err := c.Run(context.Background())
		if err != nil {
			t.Fatalf("run %d: unexpected err: %v", i, err)
		}
		if report.Status != StatusCompleted {
			t.Fatalf("run %d: expected completed, got %s", i, report.Status)
		}
	}
	if scr.calls != 2 {
		t.Fatalf("expected both back-to-back runs to execute, scraper calls=%d", scr.calls)
	}
	if locker.held[runLockKey] {
		t.Fatalf("lock must be released once the run finishes")
	}
}

func TestJobCycle_LargeUserBatchCompletes(t *testing.T) {
	jobs, sources := linkedinJobs()
	scr := &fakeScraper{jobs: jobs, sources: sources}

	users := make([]user.Preference, 0, 3000)
	for i := 0; i < 3000; i++ {
		users = append(users, designerUser(fmt.Sprintf("u%d", i)))
	}

	c := NewJobCycle(fakeUserRepo{users: users}, newFakeStore(), scr, nil, nil, nil, JobCycleParams{Workers: 1}, nil)

	done := make(chan RunReport, 1)
	go func() {
		report, err := c.Run(context.Background())
		if err != nil {
			t.Errorf("unexpected err: %v", err)
		}
		done <- report
	}()

	select {
	case report := <-done:
		if report.EligibleUsers != 3000 || report.MatchedUsers != 3000 {
			t.Fatalf("unexpected user counts: %+v", report)
		}
	case <-time.After(30 * time.Second):
		t.Fatalf("run did not finish; workers stalled on an undrained result channel")
	}
}
