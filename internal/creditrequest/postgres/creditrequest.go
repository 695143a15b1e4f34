package postgres

import (
	"context"

	"github.com/frahmantamala/zhar/internal/approval"
	"github.com/frahmantamala/zhar/internal/core/common/dberr"
	creditDatamodel "github.com/frahmantamala/zhar/internal/core/datamodel/credit"
	"github.com/frahmantamala/zhar/internal/creditrequest"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

var _ creditrequest.RepositoryAPI = (*Repository)(nil)

func (r *Repository) Create(ctx context.Context, req *creditDatamodel.CreditRequest) error {
	if err := r.db.WithContext(ctx).Create(req).Error; err != nil {
		if dberr.IsUniqueViolation(err) {
			return creditrequest.ErrAlreadyRequested
		}
		return err
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*creditDatamodel.CreditRequest, error) {
	var req creditDatamodel.CreditRequest
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&req).Error; err != nil {
		if dberr.IsNotFound(err) {
			return nil, creditrequest.ErrRequestNotFound
		}
		return nil, err
	}
	return &req, nil
}

func (r *Repository) LiveForAssignment(ctx context.Context, assignmentID string) (*creditDatamodel.CreditRequest, error) {
	var rows []*creditDatamodel.CreditRequest
	err := r.db.WithContext(ctx).
		Where("assignment_id = ? AND status <> ?", assignmentID, string(approval.StatusRejected)).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if row.Status == string(approval.StatusApproved) {
			return row, nil
		}
	}
	if len(rows) > 0 {
		return rows[0], nil
	}
	return nil, nil
}

func (r *Repository) List(ctx context.Context, filter creditrequest.ListFilter) ([]*creditDatamodel.CreditRequest, error) {
	q := r.db.WithContext(ctx).Model(&creditDatamodel.CreditRequest{})
	if filter.Status != "" {
		q = q.Where("status = ?", string(filter.Status))
	}
	if filter.EmployeeID != "" {
		q = q.Where("employee_id = ?", filter.EmployeeID)
	}

	var rows []*creditDatamodel.CreditRequest
	err := q.Order("created_at DESC").Order("id ASC").Find(&rows).Error
	return rows, err
}

func (r *Repository) ApprovedAssignmentIDs(ctx context.Context, employeeID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&creditDatamodel.CreditRequest{}).
		Where("employee_id = ? AND status = ?", employeeID, string(approval.StatusApproved)).
		Pluck("assignment_id", &ids).Error
	return ids, err
}

func (r *Repository) CountByStatus(ctx context.Context, status approval.Status) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&creditDatamodel.CreditRequest{}).
		Where("status = ?", string(status)).
		Count(&n).Error
	return n, err
}

func (r *Repository) CurrentStatus(ctx context.Context, id string) (approval.Status, error) {
	row, err := r.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return approval.Status(row.Status), nil
}

func (r *Repository) CompareAndSetReview(ctx context.Context, id string, from approval.Status, review approval.Review) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&creditDatamodel.CreditRequest{}).
		Where("id = ? AND status = ?", id, string(from)).
		Updates(map[string]interface{}{
			"status":      string(review.Status),
			"reviewed_by": review.ReviewedBy,
			"reviewed_at": review.ReviewedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
