// Package dashboard composes the read-only views behind the role-gated pages.
package dashboard

import (
	"context"
	"time"

	"github.com/frahmantamala/zhar/internal/approval"
	"github.com/frahmantamala/zhar/internal/assignment"
	"github.com/frahmantamala/zhar/internal/core/user"
	"github.com/frahmantamala/zhar/internal/credit"
	"github.com/frahmantamala/zhar/internal/creditrequest"
	"github.com/frahmantamala/zhar/internal/leaderboard"
	"github.com/frahmantamala/zhar/internal/mission"
	"github.com/frahmantamala/zhar/internal/profile"
	"github.com/frahmantamala/zhar/internal/project"
)

type Profiles interface {
	Get(ctx context.Context, id string) (*profile.Profile, error)
	List(ctx context.Context, filter profile.ListFilter) ([]*profile.Profile, error)
	Lookup(ctx context.Context, ids []string) (map[string]*profile.Profile, error)
	CountByRole(ctx context.Context, role user.Role) (int64, error)
}

type Projects interface {
	List(ctx context.Context, filter project.ListFilter) ([]*project.Project, error)
	Lookup(ctx context.Context, ids []string) (map[string]*project.Project, error)
	CountActive(ctx context.Context) (int64, error)
}

type Assignments interface {
	ListMine(ctx context.Context, employeeID string) ([]*assignment.Assignment, error)
	ListForProjects(ctx context.Context, projectIDs []string) ([]*assignment.Assignment, error)
	Lookup(ctx context.Context, ids []string) (map[string]*assignment.Assignment, error)
	CountActive(ctx context.Context, employeeID string) (int64, error)
}

type CreditRequests interface {
	List(ctx context.Context, filter creditrequest.ListFilter) ([]*creditrequest.CreditRequest, error)
	ApprovedAssignmentIDs(ctx context.Context, employeeID string) (map[string]bool, error)
	CountPending(ctx context.Context) (int64, error)
}

type Missions interface {
	ListMissions(ctx context.Context, activeOnly bool) ([]*mission.Mission, error)
	ListRequests(ctx context.Context, filter mission.RequestFilter) ([]*mission.Request, error)
	ApprovedClaimCounts(ctx context.Context, employeeID string) (map[string]int64, error)
	Lookup(ctx context.Context, ids []string) (map[string]*mission.Mission, error)
	CountPending(ctx context.Context) (int64, error)
}

type Leaderboard interface {
	Board(ctx context.Context, period credit.Period, sector string) (*leaderboard.Board, error)
	Standing(ctx context.Context, employeeID string) (*leaderboard.Standing, error)
	Totals(ctx context.Context) (map[string]int64, error)
	Awarded(ctx context.Context) (int64, error)
}

type EmployeeView struct {
	Profile           *profile.Profile `json:"profile"`
	MonthlyCredits    int64            `json:"monthly_credits"`
	MonthlyTarget     int64            `json:"monthly_target"`
	MonthlyPercent    int              `json:"monthly_percent"`
	TotalCredits      int64            `json:"total_credits"`
	MonthlyRank       int              `json:"monthly_rank"`
	RankedOf          int              `json:"ranked_of"`
	ActiveAssignments int64            `json:"active_assignments"`
	PendingRequests   int              `json:"pending_requests"`
}

type Member struct {
	ID            string    `json:"id"`
	FullName      string    `json:"full_name"`
	Email         string    `json:"email"`
	Role          user.Role `json:"role"`
	Sector        *string   `json:"sector,omitempty"`
	TotalCredits  int64     `json:"total_credits"`
	Progress      int       `json:"progress"`
	ProjectsCount int       `json:"projects_count"`
}

type LeadView struct {
	Sector         string   `json:"sector,omitempty"`
	Team           []Member `json:"team"`
	TeamTotal      int64    `json:"team_total"`
	TeamAverage    int64    `json:"team_average"`
	ActiveProjects int64    `json:"active_projects"`
}

type AdminView struct {
	EmployeeCount    int64               `json:"employee_count"`
	ActiveProjects   int64               `json:"active_projects"`
	PendingApprovals int64               `json:"pending_approvals"`
	CreditsAwarded   int64               `json:"credits_awarded"`
	MonthlyTarget    int64               `json:"monthly_target"`
	TopPerformers    []leaderboard.Entry `json:"top_performers"`
	NeedsAttention   []leaderboard.Entry `json:"needs_attention"`
}

// ApprovalItem is one credit or mission request on the approvals page.
type ApprovalItem struct {
	Kind         string          `json:"kind"`
	ID           string          `json:"id"`
	EmployeeID   string          `json:"employee_id"`
	EmployeeName string          `json:"employee_name"`
	Subject      string          `json:"subject"`
	Credits      int64           `json:"credits"`
	Status       approval.Status `json:"status"`
	Notes        *string         `json:"notes,omitempty"`
	ReviewedBy   *string         `json:"reviewed_by,omitempty"`
	ReviewedAt   *time.Time      `json:"reviewed_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

const (
	KindCredit  = "credit"
	KindMission = "mission"
)

type ApprovalsView struct {
	Pending   []ApprovalItem `json:"pending"`
	Processed []ApprovalItem `json:"processed"`
}

type MyProject struct {
	Assignment        *assignment.Assignment `json:"assignment"`
	Project           *project.Project       `json:"project,omitempty"`
	HasApprovedCredit bool                   `json:"has_approved_credit"`
}

type MissionOffer struct {
	*mission.Mission
	ApprovedClaims int64 `json:"approved_claims"`
}

type MyProjectsView struct {
	Projects []MyProject    `json:"projects"`
	Missions []MissionOffer `json:"missions"`
}

type ProjectOverview struct {
	*project.Project
	Assignees []Assignee `json:"assignees"`
}

type Assignee struct {
	AssignmentID string            `json:"assignment_id"`
	EmployeeID   string            `json:"employee_id"`
	FullName     string            `json:"full_name"`
	Status       assignment.Status `json:"status"`
	Progress     int               `json:"progress"`
}

type ProfileView struct {
	Profile  *profile.Profile      `json:"profile"`
	Standing *leaderboard.Standing `json:"standing"`
}

type SettingsView struct {
	Profile       *profile.Profile `json:"profile"`
	Home          string           `json:"home"`
	MonthlyTarget int64            `json:"monthly_target"`
	Sectors       []string         `json:"sectors"`
}
