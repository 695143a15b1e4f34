package project

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// Create stores a new project owned by actorID.
func (s *Service) Create(ctx context.Context, actorID string, dto CreateProjectDTO) (*Project, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	p := &Project{
		ID:              uuid.NewString(),
		Name:            dto.Name,
		Description:     dto.Description,
		ClientName:      dto.ClientName,
		ProjectType:     dto.ProjectType,
		Status:          dto.Status,
		StartDate:       utcPtr(dto.StartDate),
		EndDate:         utcPtr(dto.EndDate),
		ExpectedCredits: dto.ExpectedCredits,
		CreatedBy:       actorID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.Create(ctx, ToDataModel(p)); err != nil {
		s.logger.Error("failed to create project", "error", err, "name", dto.Name)
		return nil, err
	}

	s.logger.Info("project created",
		"project_id", p.ID,
		"created_by", actorID,
		"expected_credits", p.ExpectedCredits)
	return p, nil
}

func (s *Service) Update(ctx context.Context, id string, dto UpdateProjectDTO) (*Project, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if fields := dto.fields(); len(fields) > 0 {
		if err := s.repo.Update(ctx, id, fields); err != nil {
			s.logger.Error("failed to update project", "error", err, "project_id", id)
			return nil, err
		}
	}
	return s.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id string) (*Project, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromDataModel(row), nil
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Project, error) {
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list projects", "error", err)
		return nil, err
	}
	projects := make([]*Project, 0, len(rows))
	for _, row := range rows {
		projects = append(projects, FromDataModel(row))
	}
	return projects, nil
}

// Lookup returns the projects for ids keyed by id. Unknown ids are skipped.
func (s *Service) Lookup(ctx context.Context, ids []string) (map[string]*Project, error) {
	out := make(map[string]*Project, len(ids))
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

func (s *Service) CountActive(ctx context.Context) (int64, error) {
	return s.repo.CountByStatus(ctx, StatusActive)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
