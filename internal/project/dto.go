package project

import (
	"strings"
	"time"

	"github.com/frahmantamala/zhar/internal"
	"github.com/frahmantamala/zhar/internal/core/common/validation"
)

type CreateProjectDTO struct {
	Name            string     `json:"name" validate:"required,max=200"`
	Description     *string    `json:"description" validate:"omitempty,max=2000"`
	ClientName      *string    `json:"client_name" validate:"omitempty,max=200"`
	ProjectType     string     `json:"project_type" validate:"required,max=80"`
	Status          string     `json:"status" validate:"omitempty,max=40"`
	StartDate       *time.Time `json:"start_date"`
	EndDate         *time.Time `json:"end_date"`
	ExpectedCredits int64      `json:"expected_credits"`
}

func (d *CreateProjectDTO) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
	d.ProjectType = strings.TrimSpace(d.ProjectType)
	d.Status = strings.ToLower(strings.TrimSpace(d.Status))
	if d.Status == "" {
		d.Status = StatusActive
	}
}

func (d CreateProjectDTO) Validate() *internal.AppError {
	if err := validation.Struct(d); err != nil {
		return err
	}
	if err := validation.ValidateCredits("expected_credits", d.ExpectedCredits); err != nil {
		return err
	}
	return validateDates(d.StartDate, d.EndDate)
}

// UpdateProjectDTO changes only the fields that are set.
type UpdateProjectDTO struct {
	Name            *string    `json:"name" validate:"omitempty,min=1,max=200"`
	Description     *string    `json:"description" validate:"omitempty,max=2000"`
	ClientName      *string    `json:"client_name" validate:"omitempty,max=200"`
	ProjectType     *string    `json:"project_type" validate:"omitempty,min=1,max=80"`
	Status          *string    `json:"status" validate:"omitempty,min=1,max=40"`
	StartDate       *time.Time `json:"start_date"`
	EndDate         *time.Time `json:"end_date"`
	ExpectedCredits *int64     `json:"expected_credits"`
}

func (d UpdateProjectDTO) Validate() *internal.AppError {
	if err := validation.Struct(d); err != nil {
		return err
	}
	if d.ExpectedCredits != nil {
		if err := validation.ValidateCredits("expected_credits", *d.ExpectedCredits); err != nil {
			return err
		}
	}
	return validateDates(d.StartDate, d.EndDate)
}

func (d UpdateProjectDTO) fields() map[string]interface{} {
	fields := map[string]interface{}{}
	if d.Name != nil {
		fields["name"] = strings.TrimSpace(*d.Name)
	}
	if d.Description != nil {
		fields["description"] = *d.Description
	}
	if d.ClientName != nil {
		fields["client_name"] = *d.ClientName
	}
	if d.ProjectType != nil {
		fields["project_type"] = strings.TrimSpace(*d.ProjectType)
	}
	if d.Status != nil {
		fields["status"] = strings.ToLower(strings.TrimSpace(*d.Status))
	}
	if d.StartDate != nil {
		fields["start_date"] = d.StartDate.UTC()
	}
	if d.EndDate != nil {
		fields["end_date"] = d.EndDate.UTC()
	}
	if d.ExpectedCredits != nil {
		fields["expected_credits"] = *d.ExpectedCredits
	}
	return fields
}

func validateDates(start, end *time.Time) *internal.AppError {
	if start != nil && end != nil && end.Before(*start) {
		return internal.NewValidationFieldError("end_date", "end_date must not be before start_date", internal.ErrCodeValidationFailed)
	}
	return nil
}
