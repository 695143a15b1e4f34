// Package leaderboard ranks staff by approved credits over a time window.
package leaderboard

import (
	"context"
	"time"

	"github.com/frahmantamala/zhar/internal"
	"github.com/frahmantamala/zhar/internal/credit"
)

// Staff is a non-admin profile as read by the leaderboard queries.
type Staff struct {
	ID       string  `db:"id" json:"id"`
	Email    string  `db:"email" json:"email"`
	FullName string  `db:"full_name" json:"full_name"`
	Role     string  `db:"role" json:"role"`
	Sector   *string `db:"sector" json:"sector,omitempty"`
}

type Entry struct {
	Rank       int     `json:"rank"`
	EmployeeID string  `json:"employee_id"`
	FullName   string  `json:"full_name"`
	Role       string  `json:"role"`
	Sector     *string `json:"sector,omitempty"`
	Credits    int64   `json:"credits"`
	// Change is the number of places gained since the previous window. Nil for all_time.
	Change *int `json:"change,omitempty"`
}

type Board struct {
	Period      credit.Period `json:"period"`
	Sector      string        `json:"sector,omitempty"`
	WindowStart *time.Time    `json:"window_start,omitempty"`
	Entries     []Entry       `json:"entries"`
	GeneratedAt time.Time     `json:"generated_at"`
}

// Find returns the entry of employeeID.
func (b *Board) Find(employeeID string) (Entry, bool) {
	for _, e := range b.Entries {
		if e.EmployeeID == employeeID {
			return e, true
		}
	}
	return Entry{}, false
}

// Standing is one employee's position as shown on the employee dashboard.
type Standing struct {
	EmployeeID     string `json:"employee_id"`
	MonthlyCredits int64  `json:"monthly_credits"`
	TotalCredits   int64  `json:"total_credits"`
	MonthlyRank    int    `json:"monthly_rank"`
	RankedOf       int    `json:"ranked_of"`
}

type RepositoryAPI interface {
	Staff(ctx context.Context, sector string) ([]Staff, error)
	// ApprovedSince returns approved credit and mission requests created at or after since.
	ApprovedSince(ctx context.Context, since time.Time) ([]credit.Request, error)
}

var ErrInvalidPeriod = internal.NewValidationError("period must be one of weekly, monthly, yearly, all_time", internal.ErrCodeInvalidPeriod)
