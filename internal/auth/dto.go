package auth

import (
	"strings"

	"github.com/frahmantamala/zhar/internal"
	"github.com/frahmantamala/zhar/internal/core/common/validation"
)

// LoginDTO is the transport shape used by the HTTP handlers to accept login requests.
type LoginDTO struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshTokenDTO for refresh token requests
type RefreshTokenDTO struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

func (d *LoginDTO) Normalize() {
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
}

func (d LoginDTO) Validate() *internal.AppError {
	return validation.Struct(d)
}

func (d RefreshTokenDTO) Validate() *internal.AppError {
	return validation.Struct(d)
}
