package mission

import (
	"strings"

	"github.com/frahmantamala/zhar/internal"
	"github.com/frahmantamala/zhar/internal/core/common/validation"
)

type CreateMissionDTO struct {
	MissionName        string  `json:"mission_name" validate:"required,max=200"`
	MissionDescription *string `json:"mission_description" validate:"omitempty,max=2000"`
	DefaultCreditValue int64   `json:"default_credit_value"`
	IsActive           *bool   `json:"is_active"`
}

func (d *CreateMissionDTO) Normalize() {
	d.MissionName = strings.TrimSpace(d.MissionName)
}

func (d CreateMissionDTO) Validate() *internal.AppError {
	if err := validation.Struct(d); err != nil {
		return err
	}
	return validation.ValidateCredits("default_credit_value", d.DefaultCreditValue)
}

type UpdateMissionDTO struct {
	MissionName        *string `json:"mission_name" validate:"omitempty,min=1,max=200"`
	MissionDescription *string `json:"mission_description" validate:"omitempty,max=2000"`
	DefaultCreditValue *int64  `json:"default_credit_value"`
	IsActive           *bool   `json:"is_active"`
}

func (d UpdateMissionDTO) Validate() *internal.AppError {
	if err := validation.Struct(d); err != nil {
		return err
	}
	if d.DefaultCreditValue != nil {
		return validation.ValidateCredits("default_credit_value", *d.DefaultCreditValue)
	}
	return nil
}

func (d UpdateMissionDTO) fields() map[string]interface{} {
	fields := map[string]interface{}{}
	if d.MissionName != nil {
		fields["mission_name"] = strings.TrimSpace(*d.MissionName)
	}
	if d.MissionDescription != nil {
		fields["mission_description"] = *d.MissionDescription
	}
	if d.DefaultCreditValue != nil {
		fields["default_credit_value"] = *d.DefaultCreditValue
	}
	if d.IsActive != nil {
		fields["is_active"] = *d.IsActive
	}
	return fields
}

type RequestDTO struct {
	MissionID   string  `json:"mission_id" validate:"required"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
}

func (d *RequestDTO) Normalize() {
	d.MissionID = strings.TrimSpace(d.MissionID)
}

func (d RequestDTO) Validate() *internal.AppError {
	return validation.Struct(d)
}
