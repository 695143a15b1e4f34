package creditrequest

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/frahmantamala/zhar/internal/approval"
	"github.com/frahmantamala/zhar/internal/assignment"
	"github.com/frahmantamala/zhar/internal/core/events"
	"github.com/frahmantamala/zhar/internal/project"
	"github.com/google/uuid"
)

type Assignments interface {
	Get(ctx context.Context, id string) (*assignment.Assignment, error)
}

type Projects interface {
	Get(ctx context.Context, id string) (*project.Project, error)
}

type Service struct {
	repo        RepositoryAPI
	assignments Assignments
	projects    Projects
	publisher   events.Publisher
	logger      *slog.Logger
}

func NewService(repo RepositoryAPI, assignments Assignments, projects Projects, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:        repo,
		assignments: assignments,
		projects:    projects,
		publisher:   publisher,
		logger:      logger,
	}
}

// Create files a pending request for the actor's own assignment. The credits are copied
// from the project's expected_credits and never recomputed.
func (s *Service) Create(ctx context.Context, actorID string, dto CreateDTO) (*CreditRequest, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	a, err := s.assignments.Get(ctx, dto.AssignmentID)
	if err != nil {
		return nil, err
	}
	if !a.OwnedBy(actorID) {
		return nil, assignment.ErrNotOwner
	}

	live, err := s.repo.LiveForAssignment(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	if live != nil {
		if approval.Status(live.Status) == approval.StatusApproved {
			return nil, ErrAlreadyCredited
		}
		return nil, ErrAlreadyRequested
	}

	p, err := s.projects.Get(ctx, a.ProjectID)
	if err != nil {
		return nil, err
	}

	notes := dto.Notes
	if notes == nil {
		n := "Credit request for " + p.Name
		notes = &n
	}

	now := time.Now().UTC()
	req := &CreditRequest{
		ID:               uuid.NewString(),
		AssignmentID:     a.ID,
		EmployeeID:       actorID,
		CreditsRequested: p.ExpectedCredits,
		Status:           approval.StatusPending,
		Notes:            notes,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.repo.Create(ctx, ToDataModel(req)); err != nil {
		if !errors.Is(err, ErrAlreadyRequested) {
			s.logger.Error("failed to create credit request", "error", err, "assignment_id", a.ID)
		}
		return nil, err
	}

	s.logger.Info("credit request created",
		"request_id", req.ID,
		"assignment_id", a.ID,
		"employee_id", actorID,
		"credits", req.CreditsRequested)
	return req, nil
}

func (s *Service) Approve(ctx context.Context, actorID, id string) (*CreditRequest, error) {
	return s.review(ctx, actorID, id, approval.DecisionApprove)
}

func (s *Service) Reject(ctx context.Context, actorID, id string) (*CreditRequest, error) {
	return s.review(ctx, actorID, id, approval.DecisionReject)
}

// review applies the decision. A fresh approval completes the linked assignment
// through a synchronous event; a failure there is logged and the approval stands.
func (s *Service) review(ctx context.Context, actorID, id string, d approval.Decision) (*CreditRequest, error) {
	outcome, err := approval.Apply(ctx, s.repo, id, d, actorID, time.Now().UTC())
	if err != nil {
		s.logger.Warn("credit request review refused", "error", err, "request_id", id, "decision", d)
		return nil, err
	}

	req, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !outcome.Changed {
		s.logger.Info("credit request review repeated", "request_id", id, "status", outcome.To)
		return req, nil
	}

	s.logger.Info("credit request reviewed",
		"request_id", id,
		"from", outcome.From,
		"to", outcome.To,
		"reviewed_by", actorID)

	if outcome.To == approval.StatusApproved && s.publisher != nil {
		event := events.NewCreditRequestApprovedEvent(req.ID, req.AssignmentID, req.EmployeeID, req.CreditsRequested, actorID)
		if err := s.publisher.PublishSync(ctx, event); err != nil {
			s.logger.Error("assignment completion after approval failed",
				"error", err,
				"request_id", req.ID,
				"assignment_id", req.AssignmentID)
		}
	}
	return req, nil
}

func (s *Service) Get(ctx context.Context, id string) (*CreditRequest, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromDataModel(row), nil
}

// List returns requests newest first.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*CreditRequest, error) {
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list credit requests", "error", err)
		return nil, err
	}
	out := make([]*CreditRequest, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromDataModel(row))
	}
	return out, nil
}

func (s *Service) ApprovedAssignmentIDs(ctx context.Context, employeeID string) (map[string]bool, error) {
	ids, err := s.repo.ApprovedAssignmentIDs(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

func (s *Service) CountPending(ctx context.Context) (int64, error) {
	return s.repo.CountByStatus(ctx, approval.StatusPending)
}
