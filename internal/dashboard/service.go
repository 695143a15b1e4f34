package dashboard

import (
	"context"
	"log/slog"
	"sort"

	"github.com/frahmantamala/zhar/internal/approval"
	"github.com/frahmantamala/zhar/internal/core/user"
	"github.com/frahmantamala/zhar/internal/credit"
	"github.com/frahmantamala/zhar/internal/creditrequest"
	"github.com/frahmantamala/zhar/internal/leaderboard"
	"github.com/frahmantamala/zhar/internal/mission"
	"github.com/frahmantamala/zhar/internal/profile"
	"github.com/frahmantamala/zhar/internal/project"
)

const highlightSize = 5

type Deps struct {
	Profiles       Profiles
	Projects       Projects
	Assignments    Assignments
	CreditRequests CreditRequests
	Missions       Missions
	Leaderboard    Leaderboard
}

type Service struct {
	deps          Deps
	monthlyTarget int64
	logger        *slog.Logger
}

func NewService(deps Deps, monthlyTarget int64, logger *slog.Logger) *Service {
	return &Service{
		deps:          deps,
		monthlyTarget: monthlyTarget,
		logger:        logger,
	}
}

func (s *Service) Employee(ctx context.Context, userID string) (*EmployeeView, error) {
	p, err := s.deps.Profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	standing, err := s.deps.Leaderboard.Standing(ctx, userID)
	if err != nil {
		return nil, err
	}
	active, err := s.deps.Assignments.CountActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	pendingCredits, err := s.deps.CreditRequests.List(ctx, creditrequest.ListFilter{EmployeeID: userID, Status: approval.StatusPending})
	if err != nil {
		return nil, err
	}
	pendingMissions, err := s.deps.Missions.ListRequests(ctx, mission.RequestFilter{EmployeeID: userID, Status: approval.StatusPending})
	if err != nil {
		return nil, err
	}

	return &EmployeeView{
		Profile:           p,
		MonthlyCredits:    standing.MonthlyCredits,
		MonthlyTarget:     s.monthlyTarget,
		MonthlyPercent:    credit.Percent(standing.MonthlyCredits, s.monthlyTarget),
		TotalCredits:      standing.TotalCredits,
		MonthlyRank:       standing.MonthlyRank,
		RankedOf:          standing.RankedOf,
		ActiveAssignments: active,
		PendingRequests:   len(pendingCredits) + len(pendingMissions),
	}, nil
}

// Lead lists the employees of sector with all-time totals, highest first.
func (s *Service) Lead(ctx context.Context, sector string) (*LeadView, error) {
	team, err := s.members(ctx, profile.ListFilter{Role: user.RoleEmployee, Sector: sector})
	if err != nil {
		return nil, err
	}
	activeProjects, err := s.deps.Projects.CountActive(ctx)
	if err != nil {
		return nil, err
	}

	view := &LeadView{Sector: sector, Team: team, ActiveProjects: activeProjects}
	for _, m := range team {
		view.TeamTotal += m.TotalCredits
	}
	if len(team) > 0 {
		view.TeamAverage = view.TeamTotal / int64(len(team))
	}
	return view, nil
}

// Team lists employees and leads of sector with their assignment counts.
func (s *Service) Team(ctx context.Context, sector string) ([]Member, error) {
	return s.members(ctx, profile.ListFilter{Sector: sector, ExcludeAdmins: true})
}

func (s *Service) members(ctx context.Context, filter profile.ListFilter) ([]Member, error) {
	profiles, err := s.deps.Profiles.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	totals, err := s.deps.Leaderboard.Totals(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := s.assignmentCounts(ctx)
	if err != nil {
		return nil, err
	}

	members := make([]Member, 0, len(profiles))
	for _, p := range profiles {
		total := totals[p.ID]
		members = append(members, Member{
			ID:            p.ID,
			FullName:      p.FullName,
			Email:         p.Email,
			Role:          p.Role,
			Sector:        p.Sector,
			TotalCredits:  total,
			Progress:      credit.Clamp(total),
			ProjectsCount: counts[p.ID],
		})
	}
	sort.SliceStable(members, func(i, j int) bool {
		if members[i].TotalCredits != members[j].TotalCredits {
			return members[i].TotalCredits > members[j].TotalCredits
		}
		return members[i].ID < members[j].ID
	})
	return members, nil
}

func (s *Service) assignmentCounts(ctx context.Context) (map[string]int, error) {
	projects, err := s.deps.Projects.List(ctx, project.ListFilter{})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(projects))
	for _, p := range projects {
		ids = append(ids, p.ID)
	}
	assignments, err := s.deps.Assignments.ListForProjects(ctx, ids)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, a := range assignments {
		counts[a.EmployeeID]++
	}
	return counts, nil
}

func (s *Service) Admin(ctx context.Context) (*AdminView, error) {
	employees, err := s.deps.Profiles.CountByRole(ctx, user.RoleEmployee)
	if err != nil {
		return nil, err
	}
	activeProjects, err := s.deps.Projects.CountActive(ctx)
	if err != nil {
		return nil, err
	}
	pendingCredits, err := s.deps.CreditRequests.CountPending(ctx)
	if err != nil {
		return nil, err
	}
	pendingMissions, err := s.deps.Missions.CountPending(ctx)
	if err != nil {
		return nil, err
	}
	awarded, err := s.deps.Leaderboard.Awarded(ctx)
	if err != nil {
		return nil, err
	}
	board, err := s.deps.Leaderboard.Board(ctx, credit.PeriodMonthly, "")
	if err != nil {
		return nil, err
	}

	return &AdminView{
		EmployeeCount:    employees,
		ActiveProjects:   activeProjects,
		PendingApprovals: pendingCredits + pendingMissions,
		CreditsAwarded:   awarded,
		MonthlyTarget:    s.monthlyTarget,
		TopPerformers:    topPerformers(board.Entries),
		NeedsAttention:   needsAttention(board.Entries, s.monthlyTarget),
	}, nil
}

func topPerformers(entries []leaderboard.Entry) []leaderboard.Entry {
	out := make([]leaderboard.Entry, 0, highlightSize)
	for _, e := range entries {
		if len(out) == highlightSize || e.Credits == 0 {
			break
		}
		out = append(out, e)
	}
	return out
}

// needsAttention returns the lowest ranked staff below half of the monthly target,
// lowest first.
func needsAttention(entries []leaderboard.Entry, target int64) []leaderboard.Entry {
	out := make([]leaderboard.Entry, 0, highlightSize)
	for i := len(entries) - 1; i >= 0 && len(out) < highlightSize; i-- {
		if credit.Percent(entries[i].Credits, target) < 50 {
			out = append(out, entries[i])
		}
	}
	return out
}

// Approvals lists every credit and mission request, newest first, split into pending
// and processed.
func (s *Service) Approvals(ctx context.Context) (*ApprovalsView, error) {
	creditReqs, err := s.deps.CreditRequests.List(ctx, creditrequest.ListFilter{})
	if err != nil {
		return nil, err
	}
	missionReqs, err := s.deps.Missions.ListRequests(ctx, mission.RequestFilter{})
	if err != nil {
		return nil, err
	}

	employeeIDs := make([]string, 0, len(creditReqs)+len(missionReqs))
	assignmentIDs := make([]string, 0, len(creditReqs))
	missionIDs := make([]string, 0, len(missionReqs))
	for _, r := range creditReqs {
		employeeIDs = append(employeeIDs, r.EmployeeID)
		assignmentIDs = append(assignmentIDs, r.AssignmentID)
	}
	for _, r := range missionReqs {
		employeeIDs = append(employeeIDs, r.EmployeeID)
		missionIDs = append(missionIDs, r.MissionID)
	}

	employees, err := s.deps.Profiles.Lookup(ctx, unique(employeeIDs))
	if err != nil {
		return nil, err
	}
	assignments, err := s.deps.Assignments.Lookup(ctx, unique(assignmentIDs))
	if err != nil {
		return nil, err
	}
	projectIDs := make([]string, 0, len(assignments))
	for _, a := range assignments {
		projectIDs = append(projectIDs, a.ProjectID)
	}
	projects, err := s.deps.Projects.Lookup(ctx, unique(projectIDs))
	if err != nil {
		return nil, err
	}
	missions, err := s.deps.Missions.Lookup(ctx, unique(missionIDs))
	if err != nil {
		return nil, err
	}

	items := make([]ApprovalItem, 0, len(creditReqs)+len(missionReqs))
	for _, r := range creditReqs {
		item := ApprovalItem{
			Kind:         KindCredit,
			ID:           r.ID,
			EmployeeID:   r.EmployeeID,
			EmployeeName: nameOf(employees, r.EmployeeID),
			Credits:      r.CreditsRequested,
			Status:       r.Status,
			Notes:        r.Notes,
			ReviewedBy:   r.ReviewedBy,
			ReviewedAt:   r.ReviewedAt,
			CreatedAt:    r.CreatedAt,
		}
		if a, ok := assignments[r.AssignmentID]; ok {
			if p, ok := projects[a.ProjectID]; ok {
				item.Subject = p.Name
			}
		}
		items = append(items, item)
	}
	for _, r := range missionReqs {
		item := ApprovalItem{
			Kind:         KindMission,
			ID:           r.ID,
			EmployeeID:   r.EmployeeID,
			EmployeeName: nameOf(employees, r.EmployeeID),
			Credits:      r.CreditsRequested,
			Status:       r.Status,
			Notes:        r.Description,
			ReviewedBy:   r.ReviewedBy,
			ReviewedAt:   r.ReviewedAt,
			CreatedAt:    r.CreatedAt,
		}
		if m, ok := missions[r.MissionID]; ok {
			item.Subject = m.MissionName
		}
		items = append(items, item)
	}

	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID < items[j].ID
	})

	view := &ApprovalsView{Pending: []ApprovalItem{}, Processed: []ApprovalItem{}}
	for _, item := range items {
		if item.Status == approval.StatusPending {
			view.Pending = append(view.Pending, item)
		} else {
			view.Processed = append(view.Processed, item)
		}
	}
	return view, nil
}

// MyProjects lists the caller's assignments and the active missions they can claim.
func (s *Service) MyProjects(ctx context.Context, userID string) (*MyProjectsView, error) {
	assignments, err := s.deps.Assignments.ListMine(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(assignments))
	for _, a := range assignments {
		ids = append(ids, a.ProjectID)
	}
	projects, err := s.deps.Projects.Lookup(ctx, ids)
	if err != nil {
		return nil, err
	}
	approved, err := s.deps.CreditRequests.ApprovedAssignmentIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	missions, err := s.deps.Missions.ListMissions(ctx, true)
	if err != nil {
		return nil, err
	}
	claims, err := s.deps.Missions.ApprovedClaimCounts(ctx, userID)
	if err != nil {
		return nil, err
	}

	view := &MyProjectsView{
		Projects: make([]MyProject, 0, len(assignments)),
		Missions: make([]MissionOffer, 0, len(missions)),
	}
	for _, a := range assignments {
		view.Projects = append(view.Projects, MyProject{
			Assignment:        a,
			Project:           projects[a.ProjectID],
			HasApprovedCredit: approved[a.ID],
		})
	}
	for _, m := range missions {
		view.Missions = append(view.Missions, MissionOffer{Mission: m, ApprovedClaims: claims[m.ID]})
	}
	return view, nil
}

// ProjectsOverview lists projects with the names of their assignees.
func (s *Service) ProjectsOverview(ctx context.Context, filter project.ListFilter) ([]ProjectOverview, error) {
	projects, err := s.deps.Projects.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(projects))
	for _, p := range projects {
		ids = append(ids, p.ID)
	}
	assignments, err := s.deps.Assignments.ListForProjects(ctx, ids)
	if err != nil {
		return nil, err
	}
	employeeIDs := make([]string, 0, len(assignments))
	for _, a := range assignments {
		employeeIDs = append(employeeIDs, a.EmployeeID)
	}
	employees, err := s.deps.Profiles.Lookup(ctx, unique(employeeIDs))
	if err != nil {
		return nil, err
	}

	byProject := make(map[string][]Assignee, len(projects))
	for _, a := range assignments {
		byProject[a.ProjectID] = append(byProject[a.ProjectID], Assignee{
			AssignmentID: a.ID,
			EmployeeID:   a.EmployeeID,
			FullName:     nameOf(employees, a.EmployeeID),
			Status:       a.Status,
			Progress:     a.Progress,
		})
	}

	out := make([]ProjectOverview, 0, len(projects))
	for _, p := range projects {
		assignees := byProject[p.ID]
		if assignees == nil {
			assignees = []Assignee{}
		}
		out = append(out, ProjectOverview{Project: p, Assignees: assignees})
	}
	return out, nil
}

func (s *Service) ProfileView(ctx context.Context, userID string) (*ProfileView, error) {
	p, err := s.deps.Profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	standing, err := s.deps.Leaderboard.Standing(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &ProfileView{Profile: p, Standing: standing}, nil
}

// Employees lists every profile for the admin employees page.
func (s *Service) Employees(ctx context.Context, filter profile.ListFilter) ([]Member, error) {
	return s.members(ctx, filter)
}

func (s *Service) Settings(ctx context.Context, userID string) (*SettingsView, error) {
	p, err := s.deps.Profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	staff, err := s.deps.Profiles.List(ctx, profile.ListFilter{ExcludeAdmins: true})
	if err != nil {
		return nil, err
	}

	sectors := make([]string, 0)
	for _, st := range staff {
		if st.Sector != nil {
			sectors = append(sectors, *st.Sector)
		}
	}
	sectors = unique(sectors)
	sort.Strings(sectors)

	return &SettingsView{
		Profile:       p,
		Home:          p.Role.Home(),
		MonthlyTarget: s.monthlyTarget,
		Sectors:       sectors,
	}, nil
}

func nameOf(profiles map[string]*profile.Profile, id string) string {
	if p, ok := profiles[id]; ok {
		return p.FullName
	}
	return ""
}

func unique(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
