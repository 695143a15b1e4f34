package postgres

import (
	"context"

	"github.com/frahmantamala/zhar/internal/core/common/dberr"
	projectDatamodel "github.com/frahmantamala/zhar/internal/core/datamodel/project"
	"github.com/frahmantamala/zhar/internal/project"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

var _ project.RepositoryAPI = (*Repository)(nil)

func (r *Repository) Create(ctx context.Context, p *projectDatamodel.Project) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *Repository) GetByID(ctx context.Context, id string) (*projectDatamodel.Project, error) {
	var p projectDatamodel.Project
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		if dberr.IsNotFound(err) {
			return nil, project.ErrProjectNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *Repository) GetByIDs(ctx context.Context, ids []string) ([]*projectDatamodel.Project, error) {
	var projects []*projectDatamodel.Project
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&projects).Error
	return projects, err
}

func (r *Repository) List(ctx context.Context, filter project.ListFilter) ([]*projectDatamodel.Project, error) {
	q := r.db.WithContext(ctx).Model(&projectDatamodel.Project{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.ProjectType != "" {
		q = q.Where("project_type = ?", filter.ProjectType)
	}

	var projects []*projectDatamodel.Project
	err := q.Order("created_at DESC").Order("id ASC").Find(&projects).Error
	return projects, err
}

func (r *Repository) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&projectDatamodel.Project{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return project.ErrProjectNotFound
	}
	return nil
}

func (r *Repository) CountByStatus(ctx context.Context, status string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&projectDatamodel.Project{}).Where("status = ?", status).Count(&n).Error
	return n, err
}
