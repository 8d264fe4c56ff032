package repository

import (
	"context"
	"fmt"
	"strings"

	"next-gig/internal/database"
	"next-gig/internal/domain/user"
)

// EligibilityPolicy selects which users take part in a job cycle. The exact
// gating rule is a deployment concern, so it is data, not code.
type EligibilityPolicy string

const (
	// PolicySubscribed admits users with the subscribed flag set.
	PolicySubscribed EligibilityPolicy = "subscribed"
	// PolicyStatus admits users whose status is subscribed or trial.
	PolicyStatus EligibilityPolicy = "status"
	// PolicyOpen admits any user with non-empty preferences.
	PolicyOpen EligibilityPolicy = "open"
)

func ParseEligibilityPolicy(raw string) (EligibilityPolicy, error) {
	switch EligibilityPolicy(strings.ToLower(strings.TrimSpace(raw))) {
	case PolicySubscribed, "":
		return PolicySubscribed, nil
	case PolicyStatus:
		return PolicyStatus, nil
	case PolicyOpen:
		return PolicyOpen, nil
	}
	return "", fmt.Errorf("unknown eligibility policy: %q", raw)
}

type UserRepository interface {
	ListEligible(ctx context.Context, policy EligibilityPolicy) ([]user.Preference, error)
	CountByStatus(ctx context.Context) (map[string]int, error)
}

type PostgresUserRepository struct {
	db database.DB
}

func NewPostgresUserRepository(db database.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) ListEligible(ctx context.Context, policy EligibilityPolicy) ([]user.Preference, error) {
	where := ""
	switch policy {
	case PolicyStatus:
		where = `WHERE status IN ('subscribed', 'trial')`
	case PolicyOpen:
		where = `WHERE cardinality(job_titles) > 0 AND cardinality(job_locations) > 0`
	default:
		where = `WHERE subscribed = TRUE`
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, email, subscribed, status, job_titles, job_locations
		 FROM users `+where+`
		 ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]user.Preference, 0)
	for rows.Next() {
		var p user.Preference
		if err := rows.Scan(&p.ID, &p.Email, &p.Subscribed, &p.Status, &p.JobTitles, &p.JobLocations); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresUserRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM users GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[status] = n
	}
	return out, rows.Err()
}
