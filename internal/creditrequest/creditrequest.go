package creditrequest

import (
	"context"
	"time"

	"github.com/frahmantamala/zhar/internal"
	"github.com/frahmantamala/zhar/internal/approval"
	creditDatamodel "github.com/frahmantamala/zhar/internal/core/datamodel/credit"
)

type CreditRequest struct {
	ID               string          `json:"id"`
	AssignmentID     string          `json:"assignment_id"`
	EmployeeID       string          `json:"employee_id"`
	CreditsRequested int64           `json:"credits_requested"`
	Status           approval.Status `json:"status"`
	Notes            *string         `json:"notes,omitempty"`
	ReviewedBy       *string         `json:"reviewed_by,omitempty"`
	ReviewedAt       *time.Time      `json:"reviewed_at,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func (c *CreditRequest) IsPending() bool {
	return c.Status == approval.StatusPending
}

type ListFilter struct {
	Status     approval.Status
	EmployeeID string
}

type RepositoryAPI interface {
	approval.Store
	Create(ctx context.Context, req *creditDatamodel.CreditRequest) error
	GetByID(ctx context.Context, id string) (*creditDatamodel.CreditRequest, error)
	// LiveForAssignment returns the pending or approved request of an assignment, or nil.
	LiveForAssignment(ctx context.Context, assignmentID string) (*creditDatamodel.CreditRequest, error)
	List(ctx context.Context, filter ListFilter) ([]*creditDatamodel.CreditRequest, error)
	ApprovedAssignmentIDs(ctx context.Context, employeeID string) ([]string, error)
	CountByStatus(ctx context.Context, status approval.Status) (int64, error)
}

var (
	ErrRequestNotFound  = internal.NewNotFoundError("credit request not found", internal.ErrCodeRequestNotFound)
	ErrAlreadyCredited  = internal.NewConflictError("assignment has already been credited", internal.ErrCodeAlreadyCredited)
	ErrAlreadyRequested = internal.NewConflictError("a credit request for this assignment is already pending", internal.ErrCodeAlreadyRequested)
)

func FromDataModel(c *creditDatamodel.CreditRequest) *CreditRequest {
	return &CreditRequest{
		ID:               c.ID,
		AssignmentID:     c.AssignmentID,
		EmployeeID:       c.EmployeeID,
		CreditsRequested: c.CreditsRequested,
		Status:           approval.Status(c.Status),
		Notes:            c.Notes,
		ReviewedBy:       c.ReviewedBy,
		ReviewedAt:       c.ReviewedAt,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}

func ToDataModel(c *CreditRequest) *creditDatamodel.CreditRequest {
	return &creditDatamodel.CreditRequest{
		ID:               c.ID,
		AssignmentID:     c.AssignmentID,
		EmployeeID:       c.EmployeeID,
		CreditsRequested: c.CreditsRequested,
		Status:           string(c.Status),
		Notes:            c.Notes,
		ReviewedBy:       c.ReviewedBy,
		ReviewedAt:       c.ReviewedAt,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}
