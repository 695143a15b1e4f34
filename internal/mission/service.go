package mission

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/zhar/internal/approval"
	"github.com/google/uuid"
)

type Service struct {
	missions MissionRepositoryAPI
	requests RequestRepositoryAPI
	logger   *slog.Logger
}

func NewService(missions MissionRepositoryAPI, requests RequestRepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		missions: missions,
		requests: requests,
		logger:   logger,
	}
}

func (s *Service) CreateMission(ctx context.Context, dto CreateMissionDTO) (*Mission, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	active := true
	if dto.IsActive != nil {
		active = *dto.IsActive
	}
	now := time.Now().UTC()
	m := &Mission{
		ID:                 uuid.NewString(),
		MissionName:        dto.MissionName,
		MissionDescription: dto.MissionDescription,
		DefaultCreditValue: dto.DefaultCreditValue,
		IsActive:           active,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.missions.Create(ctx, ToDataModel(m)); err != nil {
		s.logger.Error("failed to create mission", "error", err, "mission_name", m.MissionName)
		return nil, err
	}

	s.logger.Info("mission created", "mission_id", m.ID, "credits", m.DefaultCreditValue, "active", m.IsActive)
	return m, nil
}

// UpdateMission edits the catalog entry. Existing requests keep the credits they copied.
func (s *Service) UpdateMission(ctx context.Context, id string, dto UpdateMissionDTO) (*Mission, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if fields := dto.fields(); len(fields) > 0 {
		if err := s.missions.Update(ctx, id, fields); err != nil {
			return nil, err
		}
	}
	return s.GetMission(ctx, id)
}

func (s *Service) GetMission(ctx context.Context, id string) (*Mission, error) {
	row, err := s.missions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromDataModel(row), nil
}

func (s *Service) ListMissions(ctx context.Context, activeOnly bool) ([]*Mission, error) {
	rows, err := s.missions.List(ctx, activeOnly)
	if err != nil {
		s.logger.Error("failed to list missions", "error", err)
		return nil, err
	}
	out := make([]*Mission, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromDataModel(row))
	}
	return out, nil
}

// Lookup returns the missions for ids keyed by id.
func (s *Service) Lookup(ctx context.Context, ids []string) (map[string]*Mission, error) {
	out := make(map[string]*Mission, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	missions, err := s.ListMissions(ctx, false)
	if err != nil {
		return nil, err
	}
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	for _, m := range missions {
		if wanted[m.ID] {
			out[m.ID] = m
		}
	}
	return out, nil
}

// Request claims an active mission. The credits are copied from the mission's
// default_credit_value.
func (s *Service) Request(ctx context.Context, actorID string, dto RequestDTO) (*Request, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	m, err := s.GetMission(ctx, dto.MissionID)
	if err != nil {
		return nil, err
	}
	if !m.IsActive {
		return nil, ErrMissionInactive
	}

	now := time.Now().UTC()
	req := &Request{
		ID:               uuid.NewString(),
		MissionID:        m.ID,
		EmployeeID:       actorID,
		CreditsRequested: m.DefaultCreditValue,
		Description:      dto.Description,
		Status:           approval.StatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.requests.Create(ctx, RequestToDataModel(req)); err != nil {
		s.logger.Error("failed to create mission request", "error", err, "mission_id", m.ID)
		return nil, err
	}

	s.logger.Info("mission request created",
		"request_id", req.ID,
		"mission_id", m.ID,
		"employee_id", actorID,
		"credits", req.CreditsRequested)
	return req, nil
}

func (s *Service) Approve(ctx context.Context, actorID, id string) (*Request, error) {
	return s.review(ctx, actorID, id, approval.DecisionApprove)
}

func (s *Service) Reject(ctx context.Context, actorID, id string) (*Request, error) {
	return s.review(ctx, actorID, id, approval.DecisionReject)
}

func (s *Service) review(ctx context.Context, actorID, id string, d approval.Decision) (*Request, error) {
	outcome, err := approval.Apply(ctx, s.requests, id, d, actorID, time.Now().UTC())
	if err != nil {
		s.logger.Warn("mission request review refused", "error", err, "request_id", id, "decision", d)
		return nil, err
	}
	if outcome.Changed {
		s.logger.Info("mission request reviewed", "request_id", id, "to", outcome.To, "reviewed_by", actorID)
	}
	return s.GetRequest(ctx, id)
}

func (s *Service) GetRequest(ctx context.Context, id string) (*Request, error) {
	row, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return RequestFromDataModel(row), nil
}

// ListRequests returns requests newest first.
func (s *Service) ListRequests(ctx context.Context, filter RequestFilter) ([]*Request, error) {
	rows, err := s.requests.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list mission requests", "error", err)
		return nil, err
	}
	out := make([]*Request, 0, len(rows))
	for _, row := range rows {
		out = append(out, RequestFromDataModel(row))
	}
	return out, nil
}

func (s *Service) ApprovedClaimCounts(ctx context.Context, employeeID string) (map[string]int64, error) {
	return s.requests.ApprovedCounts(ctx, employeeID)
}

func (s *Service) CountPending(ctx context.Context) (int64, error) {
	return s.requests.CountByStatus(ctx, approval.StatusPending)
}
