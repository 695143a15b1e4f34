package postgres

import (
	"context"
	"time"

	"github.com/frahmantamala/zhar/internal/credit"
	"github.com/frahmantamala/zhar/internal/leaderboard"
	"github.com/jmoiron/sqlx"
)

const (
	staffQuery = `SELECT id, email, full_name, role, sector FROM profiles WHERE role <> ?`

	approvedCreditRequestsQuery = `SELECT id, employee_id, credits_requested, status, created_at
		FROM credit_requests
		WHERE status = ? AND created_at >= ?`

	approvedMissionRequestsQuery = `SELECT id, employee_id, credits_requested, status, created_at
		FROM mission_requests
		WHERE status = ? AND created_at >= ?`
)

// Repository reads the leaderboard inputs with plain SQL.
type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

var _ leaderboard.RepositoryAPI = (*Repository)(nil)

func (r *Repository) Staff(ctx context.Context, sector string) ([]leaderboard.Staff, error) {
	query := staffQuery
	args := []interface{}{"admin"}
	if sector != "" {
		query += ` AND sector = ?`
		args = append(args, sector)
	}
	query += ` ORDER BY id`

	var staff []leaderboard.Staff
	if err := r.db.SelectContext(ctx, &staff, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return staff, nil
}

func (r *Repository) ApprovedSince(ctx context.Context, since time.Time) ([]credit.Request, error) {
	projectReqs, err := r.approved(ctx, approvedCreditRequestsQuery, since, credit.SourceProject)
	if err != nil {
		return nil, err
	}
	missionReqs, err := r.approved(ctx, approvedMissionRequestsQuery, since, credit.SourceMission)
	if err != nil {
		return nil, err
	}
	return append(projectReqs, missionReqs...), nil
}

func (r *Repository) approved(ctx context.Context, query string, since time.Time, source credit.Source) ([]credit.Request, error) {
	var reqs []credit.Request
	if err := r.db.SelectContext(ctx, &reqs, r.db.Rebind(query), credit.StatusApproved, since.UTC()); err != nil {
		return nil, err
	}
	for i := range reqs {
		reqs[i].Source = source
	}
	return reqs, nil
}
