package leaderboard

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/zhar/internal/credit"
)

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Board ranks the staff of sector (all sectors when empty) over the period ending now.
// Staff without approved credits are ranked with zero.
func (s *Service) Board(ctx context.Context, period credit.Period, sector string) (*Board, error) {
	now := s.now()
	start, err := credit.WindowStart(period, now)
	if err != nil {
		return nil, ErrInvalidPeriod
	}

	staff, err := s.repo.Staff(ctx, sector)
	if err != nil {
		s.logger.Error("failed to load staff", "error", err, "sector", sector)
		return nil, err
	}

	from := start
	var prevStart, prevEnd time.Time
	if period != credit.PeriodAllTime {
		if prevStart, prevEnd, err = credit.PreviousWindow(period, now); err != nil {
			return nil, ErrInvalidPeriod
		}
		from = prevStart
	}

	reqs, err := s.repo.ApprovedSince(ctx, from)
	if err != nil {
		s.logger.Error("failed to load approved requests", "error", err, "period", period)
		return nil, err
	}

	current := rank(staff, credit.TotalsByEmployee(credit.Since(reqs, start)))
	var previous map[string]int
	if period != credit.PeriodAllTime {
		previous = rankIndex(rank(staff, credit.TotalsByEmployee(credit.Between(reqs, prevStart, prevEnd))))
	}

	byID := make(map[string]Staff, len(staff))
	for _, st := range staff {
		byID[st.ID] = st
	}

	entries := make([]Entry, 0, len(current))
	for _, r := range current {
		st := byID[r.ID]
		e := Entry{
			Rank:       r.Rank,
			EmployeeID: r.ID,
			FullName:   st.FullName,
			Role:       st.Role,
			Sector:     st.Sector,
			Credits:    r.Credits,
		}
		if previous != nil {
			change := previous[r.ID] - r.Rank
			e.Change = &change
		}
		entries = append(entries, e)
	}

	board := &Board{
		Period:      period,
		Sector:      sector,
		Entries:     entries,
		GeneratedAt: now,
	}
	if period != credit.PeriodAllTime {
		board.WindowStart = &start
	}
	return board, nil
}

// Standing reports the monthly rank and credits of one employee among all staff, plus
// the all-time total.
func (s *Service) Standing(ctx context.Context, employeeID string) (*Standing, error) {
	board, err := s.Board(ctx, credit.PeriodMonthly, "")
	if err != nil {
		return nil, err
	}
	total, err := s.TotalFor(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	standing := &Standing{
		EmployeeID:   employeeID,
		TotalCredits: total,
		RankedOf:     len(board.Entries),
	}
	if e, ok := board.Find(employeeID); ok {
		standing.MonthlyCredits = e.Credits
		standing.MonthlyRank = e.Rank
	}
	return standing, nil
}

// Totals returns all-time approved credits per employee.
func (s *Service) Totals(ctx context.Context) (map[string]int64, error) {
	reqs, err := s.repo.ApprovedSince(ctx, time.Time{})
	if err != nil {
		return nil, err
	}
	return credit.TotalsByEmployee(reqs), nil
}

func (s *Service) TotalFor(ctx context.Context, employeeID string) (int64, error) {
	totals, err := s.Totals(ctx)
	if err != nil {
		return 0, err
	}
	return totals[employeeID], nil
}

// Awarded sums every approved credit ever granted.
func (s *Service) Awarded(ctx context.Context) (int64, error) {
	reqs, err := s.repo.ApprovedSince(ctx, time.Time{})
	if err != nil {
		return 0, err
	}
	return credit.SumApproved(reqs), nil
}

func rank(staff []Staff, totals map[string]int64) []credit.Ranked {
	entries := make([]credit.Entry, 0, len(staff))
	for _, st := range staff {
		entries = append(entries, credit.Entry{ID: st.ID, Credits: totals[st.ID]})
	}
	return credit.Rank(entries)
}

func rankIndex(ranked []credit.Ranked) map[string]int {
	out := make(map[string]int, len(ranked))
	for _, r := range ranked {
		out[r.ID] = r.Rank
	}
	return out
}
