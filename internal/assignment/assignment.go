package assignment

import (
	"context"
	"fmt"
	"time"

	"github.com/frahmantamala/zhar/internal"
	projectDatamodel "github.com/frahmantamala/zhar/internal/core/datamodel/project"
)

// Status moves forward only: not_started -> in_progress -> ready_for_review -> completed.
type Status string

const (
	StatusNotStarted     Status = "not_started"
	StatusInProgress     Status = "in_progress"
	StatusReadyForReview Status = "ready_for_review"
	StatusCompleted      Status = "completed"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusNotStarted, StatusInProgress, StatusReadyForReview, StatusCompleted:
		return st, nil
	}
	return "", fmt.Errorf("unknown assignment status %q", s)
}

// Next returns the following status. ok is false for completed and unknown values.
func (s Status) Next() (next Status, ok bool) {
	switch s {
	case StatusNotStarted:
		return StatusInProgress, true
	case StatusInProgress:
		return StatusReadyForReview, true
	case StatusReadyForReview:
		return StatusCompleted, true
	}
	return s, false
}

func (s Status) IsActive() bool {
	return s != StatusCompleted
}

type Assignment struct {
	ID            string    `json:"id"`
	ProjectID     string    `json:"project_id"`
	EmployeeID    string    `json:"employee_id"`
	Status        Status    `json:"status"`
	Progress      int       `json:"progress"`
	CreditsEarned *int64    `json:"credits_earned,omitempty"`
	AssignedBy    *string   `json:"assigned_by,omitempty"`
	AssignedAt    time.Time `json:"assigned_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (a *Assignment) OwnedBy(employeeID string) bool {
	return a.EmployeeID == employeeID
}

type RepositoryAPI interface {
	Create(ctx context.Context, a *projectDatamodel.ProjectAssignment) error
	GetByID(ctx context.Context, id string) (*projectDatamodel.ProjectAssignment, error)
	GetByIDs(ctx context.Context, ids []string) ([]*projectDatamodel.ProjectAssignment, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]*projectDatamodel.ProjectAssignment, error)
	ListByProjects(ctx context.Context, projectIDs []string) ([]*projectDatamodel.ProjectAssignment, error)
	// CompareAndSet writes fields only while the row still has status from.
	CompareAndSet(ctx context.Context, id string, from Status, fields map[string]interface{}) (bool, error)
	UpdateProgress(ctx context.Context, id string, progress int) error
	Complete(ctx context.Context, id string, credits int64) error
	CountActiveByEmployee(ctx context.Context, employeeID string) (int64, error)
}

var (
	ErrAssignmentNotFound = internal.NewNotFoundError("assignment not found", internal.ErrCodeAssignmentNotFound)
	ErrAlreadyAssigned    = internal.NewConflictError("employee is already assigned to this project", internal.ErrCodeAlreadyAssigned)
	ErrNotOwner           = internal.NewForbiddenError("assignment belongs to another employee", internal.ErrCodeNotOwner)
	ErrNotAssignable      = internal.NewValidationFieldError("employee_id", "admins cannot be assigned to projects", internal.ErrCodeInvalidRole)
)

func FromDataModel(a *projectDatamodel.ProjectAssignment) *Assignment {
	return &Assignment{
		ID:            a.ID,
		ProjectID:     a.ProjectID,
		EmployeeID:    a.EmployeeID,
		Status:        Status(a.Status),
		Progress:      a.Progress,
		CreditsEarned: a.CreditsEarned,
		AssignedBy:    a.AssignedBy,
		AssignedAt:    a.AssignedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

func ToDataModel(a *Assignment) *projectDatamodel.ProjectAssignment {
	return &projectDatamodel.ProjectAssignment{
		ID:            a.ID,
		ProjectID:     a.ProjectID,
		EmployeeID:    a.EmployeeID,
		Status:        string(a.Status),
		Progress:      a.Progress,
		CreditsEarned: a.CreditsEarned,
		AssignedBy:    a.AssignedBy,
		AssignedAt:    a.AssignedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}
