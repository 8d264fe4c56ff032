package repository

import (
	"context"
	"time"

	"next-gig/internal/database"
	"next-gig/internal/domain/job"
)

// UserJob is a per-user row merged with its compiled job details.
type UserJob struct {
	JobID      string
	Source     string
	Title      string
	Company    string
	URL        string
	Location   string
	Salary     string
	AddedAt    time.Time
	HasApplied bool
	IsSaved    bool
	Notes      string
}

type PendingNotification struct {
	ID        string
	UserID    string
	JobID     string
	MatchedAt time.Time
}

type JobQueryRepository interface {
	ListUserJobs(ctx context.Context, userID string, limit int, savedOnly bool) ([]UserJob, error)
	ListCompiledJobs(ctx context.Context, limit int) ([]job.CompiledJob, error)
	ListPendingNotifications(ctx context.Context, limit int) ([]PendingNotification, error)
}

type PostgresJobQueryRepository struct {
	db database.DB
}

func NewPostgresJobQueryRepository(db database.DB) *PostgresJobQueryRepository {
	return &PostgresJobQueryRepository{db: db}
}

func (r *PostgresJobQueryRepository) ListUserJobs(ctx context.Context, userID string, limit int, savedOnly bool) ([]UserJob, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	q := `SELECT uj.job_id, uj.source, uj.title, uj.company, uj.url, uj.location,
		COALESCE(jc.salary, ''), uj.added_at, uj.has_applied, uj.is_saved, uj.notes
	 FROM user_jobs uj
	 LEFT JOIN jobs_compiled jc ON jc.job_id = uj.job_id
	 WHERE uj.user_id = $1`
	if savedOnly {
		q += ` AND uj.is_saved = TRUE`
	}
	q += ` ORDER BY uj.added_at DESC LIMIT $2`

	rows, err := r.db.Query(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]UserJob, 0)
	for rows.Next() {
		var uj UserJob
		if err := rows.Scan(&uj.JobID, &uj.Source, &uj.Title, &uj.Company, &uj.URL, &uj.Location,
			&uj.Salary, &uj.AddedAt, &uj.HasApplied, &uj.IsSaved, &uj.Notes); err != nil {
			return nil, err
		}
		out = append(out, uj)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresJobQueryRepository) ListCompiledJobs(ctx context.Context, limit int) ([]job.CompiledJob, error) {
	if limit <= 0 {
		limit = 1000
	}

	rows, err := r.db.Query(ctx,
		`SELECT job_id, title, company, location, url, salary, source, first_seen, sent
		 FROM jobs_compiled
		 ORDER BY first_seen DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]job.CompiledJob, 0)
	for rows.Next() {
		var cj job.CompiledJob
		if err := rows.Scan(&cj.JobID, &cj.Title, &cj.Company, &cj.Location, &cj.URL,
			&cj.Salary, &cj.Source, &cj.FirstSeen, &cj.Sent); err != nil {
			return nil, err
		}
		out = append(out, cj)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListPendingNotifications is the read surface the notification collaborator
// consumes; flipping notified/sent is its responsibility, not the core's.
func (r *PostgresJobQueryRepository) ListPendingNotifications(ctx context.Context, limit int) ([]PendingNotification, error) {
	if limit <= 0 {
		limit = 500
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, job_id, matched_at
		 FROM pending_notifications
		 WHERE notified = FALSE
		 ORDER BY matched_at ASC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]PendingNotification, 0)
	for rows.Next() {
		var pn PendingNotification
		if err := rows.Scan(&pn.ID, &pn.UserID, &pn.JobID, &pn.MatchedAt); err != nil {
			return nil, err
		}
		out = append(out, pn)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
