package mission

import (
	"context"
	"time"

	"github.com/frahmantamala/zhar/internal"
	"github.com/frahmantamala/zhar/internal/approval"
	missionDatamodel "github.com/frahmantamala/zhar/internal/core/datamodel/mission"
)

// Mission is a reusable credit-earning task from the common catalog.
type Mission struct {
	ID                 string    `json:"id"`
	MissionName        string    `json:"mission_name"`
	MissionDescription *string   `json:"mission_description,omitempty"`
	DefaultCreditValue int64     `json:"default_credit_value"`
	IsActive           bool      `json:"is_active"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type Request struct {
	ID               string          `json:"id"`
	MissionID        string          `json:"mission_id"`
	EmployeeID       string          `json:"employee_id"`
	CreditsRequested int64           `json:"credits_requested"`
	Description      *string         `json:"description,omitempty"`
	Status           approval.Status `json:"status"`
	ReviewedBy       *string         `json:"reviewed_by,omitempty"`
	ReviewedAt       *time.Time      `json:"reviewed_at,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

type RequestFilter struct {
	Status     approval.Status
	EmployeeID string
}

type MissionRepositoryAPI interface {
	Create(ctx context.Context, m *missionDatamodel.CommonMission) error
	GetByID(ctx context.Context, id string) (*missionDatamodel.CommonMission, error)
	List(ctx context.Context, activeOnly bool) ([]*missionDatamodel.CommonMission, error)
	Update(ctx context.Context, id string, fields map[string]interface{}) error
}

type RequestRepositoryAPI interface {
	approval.Store
	Create(ctx context.Context, req *missionDatamodel.MissionRequest) error
	GetByID(ctx context.Context, id string) (*missionDatamodel.MissionRequest, error)
	List(ctx context.Context, filter RequestFilter) ([]*missionDatamodel.MissionRequest, error)
	// ApprovedCounts returns approved request counts per mission for one employee.
	ApprovedCounts(ctx context.Context, employeeID string) (map[string]int64, error)
	CountByStatus(ctx context.Context, status approval.Status) (int64, error)
}

var (
	ErrMissionNotFound = internal.NewNotFoundError("mission not found", internal.ErrCodeMissionNotFound)
	ErrRequestNotFound = internal.NewNotFoundError("mission request not found", internal.ErrCodeRequestNotFound)
	ErrMissionInactive = internal.NewConflictError("mission is not active", internal.ErrCodeMissionInactive)
)

func FromDataModel(m *missionDatamodel.CommonMission) *Mission {
	return &Mission{
		ID:                 m.ID,
		MissionName:        m.MissionName,
		MissionDescription: m.MissionDescription,
		DefaultCreditValue: m.DefaultCreditValue,
		IsActive:           m.IsActive,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

func ToDataModel(m *Mission) *missionDatamodel.CommonMission {
	return &missionDatamodel.CommonMission{
		ID:                 m.ID,
		MissionName:        m.MissionName,
		MissionDescription: m.MissionDescription,
		DefaultCreditValue: m.DefaultCreditValue,
		IsActive:           m.IsActive,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

func RequestFromDataModel(r *missionDatamodel.MissionRequest) *Request {
	return &Request{
		ID:               r.ID,
		MissionID:        r.MissionID,
		EmployeeID:       r.EmployeeID,
		CreditsRequested: r.CreditsRequested,
		Description:      r.Description,
		Status:           approval.Status(r.Status),
		ReviewedBy:       r.ReviewedBy,
		ReviewedAt:       r.ReviewedAt,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

func RequestToDataModel(r *Request) *missionDatamodel.MissionRequest {
	return &missionDatamodel.MissionRequest{
		ID:               r.ID,
		MissionID:        r.MissionID,
		EmployeeID:       r.EmployeeID,
		CreditsRequested: r.CreditsRequested,
		Description:      r.Description,
		Status:           string(r.Status),
		ReviewedBy:       r.ReviewedBy,
		ReviewedAt:       r.ReviewedAt,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}
