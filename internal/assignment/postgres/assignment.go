package postgres

import (
	"context"

	"github.com/frahmantamala/zhar/internal/assignment"
	"github.com/frahmantamala/zhar/internal/core/common/dberr"
	projectDatamodel "github.com/frahmantamala/zhar/internal/core/datamodel/project"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

var _ assignment.RepositoryAPI = (*Repository)(nil)

func (r *Repository) Create(ctx context.Context, a *projectDatamodel.ProjectAssignment) error {
	if err := r.db.WithContext(ctx).Create(a).Error; err != nil {
		if dberr.IsUniqueViolation(err) {
			return assignment.ErrAlreadyAssigned
		}
		return err
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*projectDatamodel.ProjectAssignment, error) {
	var a projectDatamodel.ProjectAssignment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		if dberr.IsNotFound(err) {
			return nil, assignment.ErrAssignmentNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *Repository) GetByIDs(ctx context.Context, ids []string) ([]*projectDatamodel.ProjectAssignment, error) {
	var rows []*projectDatamodel.ProjectAssignment
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error
	return rows, err
}

func (r *Repository) ListByEmployee(ctx context.Context, employeeID string) ([]*projectDatamodel.ProjectAssignment, error) {
	var rows []*projectDatamodel.ProjectAssignment
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Order("assigned_at DESC").
		Find(&rows).Error
	return rows, err
}

func (r *Repository) ListByProjects(ctx context.Context, projectIDs []string) ([]*projectDatamodel.ProjectAssignment, error) {
	var rows []*projectDatamodel.ProjectAssignment
	err := r.db.WithContext(ctx).
		Where("project_id IN ?", projectIDs).
		Order("assigned_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *Repository) CompareAndSet(ctx context.Context, id string, from assignment.Status, fields map[string]interface{}) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&projectDatamodel.ProjectAssignment{}).
		Where("id = ? AND status = ?", id, string(from)).
		Updates(fields)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *Repository) UpdateProgress(ctx context.Context, id string, progress int) error {
	res := r.db.WithContext(ctx).
		Model(&projectDatamodel.ProjectAssignment{}).
		Where("id = ?", id).
		Update("progress", progress)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return assignment.ErrAssignmentNotFound
	}
	return nil
}

// Complete marks the assignment completed with the credits it earned.
func (r *Repository) Complete(ctx context.Context, id string, credits int64) error {
	res := r.db.WithContext(ctx).
		Model(&projectDatamodel.ProjectAssignment{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":         string(assignment.StatusCompleted),
			"progress":       100,
			"credits_earned": credits,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return assignment.ErrAssignmentNotFound
	}
	return nil
}

func (r *Repository) CountActiveByEmployee(ctx context.Context, employeeID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&projectDatamodel.ProjectAssignment{}).
		Where("employee_id = ? AND status <> ?", employeeID, string(assignment.StatusCompleted)).
		Count(&n).Error
	return n, err
}
