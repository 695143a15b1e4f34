package creditrequest

import (
	"strings"

	"github.com/frahmantamala/zhar/internal"
	"github.com/frahmantamala/zhar/internal/core/common/validation"
)

type CreateDTO struct {
	AssignmentID string  `json:"assignment_id" validate:"required"`
	Notes        *string `json:"notes" validate:"omitempty,max=1000"`
}

func (d *CreateDTO) Normalize() {
	d.AssignmentID = strings.TrimSpace(d.AssignmentID)
	if d.Notes != nil {
		n := strings.TrimSpace(*d.Notes)
		if n == "" {
			d.Notes = nil
		} else {
			d.Notes = &n
		}
	}
}

func (d CreateDTO) Validate() *internal.AppError {
	return validation.Struct(d)
}
