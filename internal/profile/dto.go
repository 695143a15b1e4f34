package profile

import (
	"strings"

	"github.com/frahmantamala/zhar/internal"
	"github.com/frahmantamala/zhar/internal/core/common/validation"
)

// UpdateSelfDTO carries the fields a user may change on their own profile.
type UpdateSelfDTO struct {
	FullName  *string `json:"full_name" validate:"omitempty,min=1,max=120"`
	AvatarURL *string `json:"avatar_url" validate:"omitempty,url"`
}

func (d *UpdateSelfDTO) Normalize() {
	if d.FullName != nil {
		name := strings.TrimSpace(*d.FullName)
		d.FullName = &name
	}
}

func (d UpdateSelfDTO) Validate() *internal.AppError {
	return validation.Struct(d)
}

// AdminUpdateDTO carries the fields only an admin may change.
type AdminUpdateDTO struct {
	Role   *string `json:"role" validate:"omitempty,oneof=admin lead employee"`
	Sector *string `json:"sector" validate:"omitempty,max=80"`
}

func (d AdminUpdateDTO) Validate() *internal.AppError {
	return validation.Struct(d)
}

// CreateProfileDTO provisions an identity and its profile in one step.
type CreateProfileDTO struct {
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=6"`
	FullName string  `json:"full_name" validate:"required,max=120"`
	Role     string  `json:"role" validate:"required,oneof=admin lead employee"`
	Sector   *string `json:"sector" validate:"omitempty,max=80"`
}

func (d *CreateProfileDTO) Normalize() {
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
	d.FullName = strings.TrimSpace(d.FullName)
	d.Role = strings.ToLower(strings.TrimSpace(d.Role))
}

func (d CreateProfileDTO) Validate() *internal.AppError {
	return validation.Struct(d)
}

// BootstrapAdmin are the credentials of the first administrator.
type BootstrapAdmin struct {
	Email    string
	Password string
	FullName string
}

type BootstrapResult struct {
	Success bool   `json:"success"`
	Created bool   `json:"created"`
	Message string `json:"message"`
	Email   string `json:"email"`
}
