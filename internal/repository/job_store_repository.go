package repository

import (
	"context"
	"log"
	"time"

	"next-gig/internal/database"
	"next-gig/internal/domain/job"

	"github.com/google/uuid"
)

// StoreResult reports what one persistence pass did for one user.
type StoreResult struct {
	New       int
	Duplicate int
	Failed    int
}

// JobStoreRepository is the deduplicating store adapter. Writes are
// conditional inserts: re-running the pipeline against the same (user, job)
// pair never creates a second record and never mutates the first.
type JobStoreRepository interface {
	Persist(ctx context.Context, userID string, matchesBySource map[string][]job.RawJob) (StoreResult, error)
}

type PostgresJobStoreRepository struct {
	db     database.DB
	logger *log.Logger
}

func NewPostgresJobStoreRepository(db database.DB, logger *log.Logger) *PostgresJobStoreRepository {
	if logger == nil {
		logger = log.Default()
	}
	return &PostgresJobStoreRepository{db: db, logger: logger}
}

func (r *PostgresJobStoreRepository) Persist(ctx context.Context, userID string, matchesBySource map[string][]job.RawJob) (StoreResult, error) {
	var res StoreResult

	for source, jobs := range matchesBySource {
		for _, j := range jobs {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			if !job.Valid(j) {
				continue
			}
			j.Source = source

			jobID := job.ID(j)
			isNew, err := r.persistOne(ctx, userID, jobID, j)
			if err != nil {
				// One job failing must not cost the rest of the batch.
				res.Failed++
				r.logger.Printf("store=jobs status=error user_id=%s job_id=%s url=%s err=%v", userID, jobID, j.URL, err)
				continue
			}
			if isNew {
				res.New++
			} else {
				res.Duplicate++
			}
		}
	}
	return res, nil
}

func (r *PostgresJobStoreRepository) persistOne(ctx context.Context, userID, jobID string, j job.RawJob) (bool, error) {
	now := time.Now().UTC()

	// Global compiled record: written on first sighting across all users,
	// untouched afterwards. Separate check from the per-user one below.
	if _, err := r.db.Exec(ctx,
		`INSERT INTO jobs_compiled (job_id, title, company, location, url, salary, source, first_seen, sent)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, FALSE)
		 ON CONFLICT (job_id) DO NOTHING`,
		jobID, j.Title, companyOrUnknown(j.Company), j.Location, j.URL, j.Salary, j.Source, now,
	); err != nil {
		return false, err
	}

	affected, err := r.db.Exec(ctx,
		`INSERT INTO user_jobs (user_id, job_id, source, title, company, url, location, added_at, has_applied, is_saved, notes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, FALSE, FALSE, '')
		 ON CONFLICT (user_id, job_id) DO NOTHING`,
		userID, jobID, j.Source, j.Title, companyOrUnknown(j.Company), j.URL, j.Location, now,
	)
	if err != nil {
		return false, err
	}
	if affected == 0 {
		return false, nil
	}

	// Each fresh match gets its own notification row, keyed by uuid, so a
	// job re-matched on a later run still produces a new opportunity.
	if _, err := r.db.Exec(ctx,
		`INSERT INTO pending_notifications (id, user_id, job_id, matched_at, notified)
		 VALUES ($1, $2, $3, $4, FALSE)`,
		uuid.New(), userID, jobID, now,
	); err != nil {
		r.logger.Printf("store=notifications status=error user_id=%s job_id=%s err=%v", userID, jobID, err)
	}

	return true, nil
}

func companyOrUnknown(company string) string {
	if company == "" {
		return "Unknown"
	}
	return company
}
