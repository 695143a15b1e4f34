package assignment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/zhar/internal"
	projectDatamodel "github.com/frahmantamala/zhar/internal/core/datamodel/project"
	"github.com/frahmantamala/zhar/internal/core/events"
	"github.com/frahmantamala/zhar/internal/profile"
	"github.com/frahmantamala/zhar/internal/project"
	"github.com/google/uuid"
)

type Projects interface {
	Get(ctx context.Context, id string) (*project.Project, error)
}

type Employees interface {
	Get(ctx context.Context, id string) (*profile.Profile, error)
}

type Service struct {
	repo      RepositoryAPI
	projects  Projects
	employees Employees
	logger    *slog.Logger
}

func NewService(repo RepositoryAPI, projects Projects, employees Employees, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		projects:  projects,
		employees: employees,
		logger:    logger,
	}
}

// Assign links an employee to a project with status not_started and progress 0.
func (s *Service) Assign(ctx context.Context, actorID string, dto AssignDTO) (*Assignment, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.projects.Get(ctx, dto.ProjectID); err != nil {
		return nil, err
	}
	employee, err := s.employees.Get(ctx, dto.EmployeeID)
	if err != nil {
		return nil, err
	}
	if !employee.IsStaff() {
		return nil, ErrNotAssignable
	}

	now := time.Now().UTC()
	a := &Assignment{
		ID:         uuid.NewString(),
		ProjectID:  dto.ProjectID,
		EmployeeID: dto.EmployeeID,
		Status:     StatusNotStarted,
		Progress:   0,
		AssignedBy: &actorID,
		AssignedAt: now,
		UpdatedAt:  now,
	}
	if err := s.repo.Create(ctx, ToDataModel(a)); err != nil {
		if !errors.Is(err, ErrAlreadyAssigned) {
			s.logger.Error("failed to create assignment", "error", err, "project_id", dto.ProjectID)
		}
		return nil, err
	}

	s.logger.Info("employee assigned",
		"assignment_id", a.ID,
		"project_id", a.ProjectID,
		"employee_id", a.EmployeeID,
		"assigned_by", actorID)
	return a, nil
}

// Advance moves the assignment one step forward. On completed it returns the
// assignment unchanged.
func (s *Service) Advance(ctx context.Context, actorID, id string) (*Assignment, error) {
	for attempt := 0; attempt < 2; attempt++ {
		a, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if !a.OwnedBy(actorID) {
			return nil, ErrNotOwner
		}

		next, ok := a.Status.Next()
		if !ok {
			s.logger.Debug("advance on final status ignored", "assignment_id", id, "status", a.Status)
			return a, nil
		}

		fields := map[string]interface{}{"status": string(next)}
		if next == StatusCompleted {
			fields["progress"] = 100
		}
		applied, err := s.repo.CompareAndSet(ctx, id, a.Status, fields)
		if err != nil {
			s.logger.Error("failed to advance assignment", "error", err, "assignment_id", id)
			return nil, err
		}
		if applied {
			s.logger.Info("assignment advanced", "assignment_id", id, "from", a.Status, "to", next)
			return s.Get(ctx, id)
		}
	}
	return nil, internal.NewConflictError("assignment changed while advancing", internal.ErrCodeConcurrentUpdate)
}

func (s *Service) SetProgress(ctx context.Context, actorID, id string, dto ProgressDTO) (*Assignment, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !a.OwnedBy(actorID) {
		return nil, ErrNotOwner
	}

	if err := s.repo.UpdateProgress(ctx, id, dto.Progress); err != nil {
		s.logger.Error("failed to update progress", "error", err, "assignment_id", id)
		return nil, err
	}
	return s.Get(ctx, id)
}

// HandleCreditApproved completes the assignment behind an approved credit request.
func (s *Service) HandleCreditApproved(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.CreditRequestApprovedEvent)
	if !ok {
		return fmt.Errorf("unexpected event %T for %s", event, events.EventTypeCreditRequestApproved)
	}

	if err := s.repo.Complete(ctx, e.AssignmentID, e.Credits); err != nil {
		return fmt.Errorf("complete assignment %s: %w", e.AssignmentID, err)
	}

	s.logger.Info("assignment completed by credit approval",
		"assignment_id", e.AssignmentID,
		"request_id", e.RequestID,
		"credits", e.Credits)
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (*Assignment, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromDataModel(row), nil
}

// Lookup returns the assignments for ids keyed by id. Unknown ids are skipped.
func (s *Service) Lookup(ctx context.Context, ids []string) (map[string]*Assignment, error) {
	out := make(map[string]*Assignment, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.repo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = FromDataModel(row)
	}
	return out, nil
}

func (s *Service) ListMine(ctx context.Context, employeeID string) ([]*Assignment, error) {
	rows, err := s.repo.ListByEmployee(ctx, employeeID)
	if err != nil {
		s.logger.Error("failed to list assignments", "error", err, "employee_id", employeeID)
		return nil, err
	}
	return fromRows(rows), nil
}

func (s *Service) ListForProjects(ctx context.Context, projectIDs []string) ([]*Assignment, error) {
	if len(projectIDs) == 0 {
		return []*Assignment{}, nil
	}
	rows, err := s.repo.ListByProjects(ctx, projectIDs)
	if err != nil {
		return nil, err
	}
	return fromRows(rows), nil
}

func (s *Service) CountActive(ctx context.Context, employeeID string) (int64, error) {
	return s.repo.CountActiveByEmployee(ctx, employeeID)
}

func fromRows(rows []*projectDatamodel.ProjectAssignment) []*Assignment {
	out := make([]*Assignment, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromDataModel(row))
	}
	return out
}
