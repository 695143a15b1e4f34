package project

import (
	"context"
	"time"

	"github.com/frahmantamala/zhar/internal"
	projectDatamodel "github.com/frahmantamala/zhar/internal/core/datamodel/project"
)

const StatusActive = "active"

type Project struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Description     *string    `json:"description,omitempty"`
	ClientName      *string    `json:"client_name,omitempty"`
	ProjectType     string     `json:"project_type"`
	Status          string     `json:"status"`
	StartDate       *time.Time `json:"start_date,omitempty"`
	EndDate         *time.Time `json:"end_date,omitempty"`
	ExpectedCredits int64      `json:"expected_credits"`
	CreatedBy       string     `json:"created_by"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (p *Project) IsActive() bool {
	return p.Status == StatusActive
}

type ListFilter struct {
	Status      string
	ProjectType string
}

type RepositoryAPI interface {
	Create(ctx context.Context, project *projectDatamodel.Project) error
	GetByID(ctx context.Context, id string) (*projectDatamodel.Project, error)
	GetByIDs(ctx context.Context, ids []string) ([]*projectDatamodel.Project, error)
	List(ctx context.Context, filter ListFilter) ([]*projectDatamodel.Project, error)
	Update(ctx context.Context, id string, fields map[string]interface{}) error
	CountByStatus(ctx context.Context, status string) (int64, error)
}

var ErrProjectNotFound = internal.NewNotFoundError("project not found", internal.ErrCodeProjectNotFound)

func FromDataModel(p *projectDatamodel.Project) *Project {
	return &Project{
		ID:              p.ID,
		Name:            p.Name,
		Description:     p.Description,
		ClientName:      p.ClientName,
		ProjectType:     p.ProjectType,
		Status:          p.Status,
		StartDate:       p.StartDate,
		EndDate:         p.EndDate,
		ExpectedCredits: p.ExpectedCredits,
		CreatedBy:       p.CreatedBy,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func ToDataModel(p *Project) *projectDatamodel.Project {
	return &projectDatamodel.Project{
		ID:              p.ID,
		Name:            p.Name,
		Description:     p.Description,
		ClientName:      p.ClientName,
		ProjectType:     p.ProjectType,
		Status:          p.Status,
		StartDate:       p.StartDate,
		EndDate:         p.EndDate,
		ExpectedCredits: p.ExpectedCredits,
		CreatedBy:       p.CreatedBy,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}
