// Package credit aggregates approved credit-bearing requests into totals and rankings.
// Nothing here performs I/O; callers load rows and pass them in.
package credit

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

const StatusApproved = "approved"

// Source tells which table a request row came from.
type Source string

const (
	SourceProject Source = "project"
	SourceMission Source = "mission"
)

// Request is the aggregation view of a credit request or a mission request.
type Request struct {
	ID               string    `db:"id"`
	EmployeeID       string    `db:"employee_id"`
	CreditsRequested int64     `db:"credits_requested"`
	Status           string    `db:"status"`
	Source           Source    `db:"source"`
	CreatedAt        time.Time `db:"created_at"`
}

type Entry struct {
	ID      string
	Credits int64
}

type Ranked struct {
	ID      string `json:"id"`
	Credits int64  `json:"credits"`
	Rank    int    `json:"rank"`
}

type Period string

const (
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
	PeriodYearly  Period = "yearly"
	PeriodAllTime Period = "all_time"
)

func ParsePeriod(s string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(s))); p {
	case PeriodWeekly, PeriodMonthly, PeriodYearly, PeriodAllTime:
		return p, nil
	case "":
		return PeriodMonthly, nil
	}
	return "", fmt.Errorf("unknown period %q", s)
}

// SumApproved adds credits_requested over approved rows only.
func SumApproved(reqs []Request) int64 {
	var total int64
	for _, r := range reqs {
		if r.Status == StatusApproved {
			total += r.CreditsRequested
		}
	}
	return total
}

// TotalsByEmployee applies SumApproved per employee.
func TotalsByEmployee(reqs []Request) map[string]int64 {
	totals := make(map[string]int64)
	for _, r := range reqs {
		if r.Status == StatusApproved {
			totals[r.EmployeeID] += r.CreditsRequested
		}
	}
	return totals
}

// Rank orders entries by credits descending, then id ascending, and numbers them from 1.
// Equal totals receive consecutive distinct ranks.
func Rank(entries []Entry) []Ranked {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)

	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Credits != sorted[j].Credits {
			return sorted[i].Credits > sorted[j].Credits
		}
		return sorted[i].ID < sorted[j].ID
	})

	ranked := make([]Ranked, len(sorted))
	for i, e := range sorted {
		ranked[i] = Ranked{ID: e.ID, Credits: e.Credits, Rank: i + 1}
	}
	return ranked
}

// WindowStart returns the inclusive lower bound of the period ending at now.
// PeriodAllTime yields the zero time.
func WindowStart(p Period, now time.Time) (time.Time, error) {
	switch p {
	case PeriodWeekly:
		return now.AddDate(0, 0, -7), nil
	case PeriodMonthly:
		return now.AddDate(0, -1, 0), nil
	case PeriodYearly:
		return now.AddDate(-1, 0, 0), nil
	case PeriodAllTime:
		return time.Time{}, nil
	}
	return time.Time{}, fmt.Errorf("unknown period %q", p)
}

// PreviousWindow returns the window of the same length that ends where the current one starts.
func PreviousWindow(p Period, now time.Time) (start, end time.Time, err error) {
	end, err = WindowStart(p, now)
	if err != nil || p == PeriodAllTime {
		return time.Time{}, time.Time{}, err
	}
	start, err = WindowStart(p, end)
	return start, end, err
}

// Since keeps requests created at or after start. Filtering is on creation time, not review time.
func Since(reqs []Request, start time.Time) []Request {
	out := make([]Request, 0, len(reqs))
	for _, r := range reqs {
		if !r.CreatedAt.Before(start) {
			out = append(out, r)
		}
	}
	return out
}

// Between keeps requests created in [start, end).
func Between(reqs []Request, start, end time.Time) []Request {
	out := make([]Request, 0, len(reqs))
	for _, r := range reqs {
		if !r.CreatedAt.Before(start) && r.CreatedAt.Before(end) {
			out = append(out, r)
		}
	}
	return out
}

// Percent renders current/target as a whole percentage clamped to [0, 100].
func Percent(current, target int64) int {
	if target <= 0 || current <= 0 {
		return 0
	}
	if current >= target {
		return 100
	}
	return int(current * 100 / target)
}

// Clamp bounds a raw value to [0, 100] for progress displays.
func Clamp(v int64) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return int(v)
}
