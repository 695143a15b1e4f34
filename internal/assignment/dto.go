package assignment

import (
	"strings"

	"github.com/frahmantamala/zhar/internal"
	"github.com/frahmantamala/zhar/internal/core/common/validation"
)

type AssignDTO struct {
	ProjectID  string `json:"project_id" validate:"required"`
	EmployeeID string `json:"employee_id" validate:"required"`
}

func (d *AssignDTO) Normalize() {
	d.ProjectID = strings.TrimSpace(d.ProjectID)
	d.EmployeeID = strings.TrimSpace(d.EmployeeID)
}

func (d AssignDTO) Validate() *internal.AppError {
	return validation.Struct(d)
}

type ProgressDTO struct {
	Progress int `json:"progress"`
}

func (d ProgressDTO) Validate() *internal.AppError {
	return validation.ValidateProgress(d.Progress)
}
