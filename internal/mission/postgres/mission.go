package postgres

import (
	"context"

	"github.com/frahmantamala/zhar/internal/approval"
	"github.com/frahmantamala/zhar/internal/core/common/dberr"
	missionDatamodel "github.com/frahmantamala/zhar/internal/core/datamodel/mission"
	"github.com/frahmantamala/zhar/internal/mission"
	"gorm.io/gorm"
)

type MissionRepository struct {
	db *gorm.DB
}

func NewMissionRepository(db *gorm.DB) *MissionRepository {
	return &MissionRepository{db: db}
}

var _ mission.MissionRepositoryAPI = (*MissionRepository)(nil)

func (r *MissionRepository) Create(ctx context.Context, m *missionDatamodel.CommonMission) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *MissionRepository) GetByID(ctx context.Context, id string) (*missionDatamodel.CommonMission, error) {
	var m missionDatamodel.CommonMission
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if dberr.IsNotFound(err) {
			return nil, mission.ErrMissionNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *MissionRepository) List(ctx context.Context, activeOnly bool) ([]*missionDatamodel.CommonMission, error) {
	q := r.db.WithContext(ctx).Model(&missionDatamodel.CommonMission{})
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}

	var rows []*missionDatamodel.CommonMission
	err := q.Order("mission_name ASC").Order("id ASC").Find(&rows).Error
	return rows, err
}

func (r *MissionRepository) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&missionDatamodel.CommonMission{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return mission.ErrMissionNotFound
	}
	return nil
}

type RequestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

var _ mission.RequestRepositoryAPI = (*RequestRepository)(nil)

func (r *RequestRepository) Create(ctx context.Context, req *missionDatamodel.MissionRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *RequestRepository) GetByID(ctx context.Context, id string) (*missionDatamodel.MissionRequest, error) {
	var req missionDatamodel.MissionRequest
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&req).Error; err != nil {
		if dberr.IsNotFound(err) {
			return nil, mission.ErrRequestNotFound
		}
		return nil, err
	}
	return &req, nil
}

func (r *RequestRepository) List(ctx context.Context, filter mission.RequestFilter) ([]*missionDatamodel.MissionRequest, error) {
	q := r.db.WithContext(ctx).Model(&missionDatamodel.MissionRequest{})
	if filter.Status != "" {
		q = q.Where("status = ?", string(filter.Status))
	}
	if filter.EmployeeID != "" {
		q = q.Where("employee_id = ?", filter.EmployeeID)
	}

	var rows []*missionDatamodel.MissionRequest
	err := q.Order("created_at DESC").Order("id ASC").Find(&rows).Error
	return rows, err
}

func (r *RequestRepository) ApprovedCounts(ctx context.Context, employeeID string) (map[string]int64, error) {
	var rows []struct {
		MissionID string
		N         int64
	}
	err := r.db.WithContext(ctx).
		Model(&missionDatamodel.MissionRequest{}).
		Select("mission_id, COUNT(*) AS n").
		Where("employee_id = ? AND status = ?", employeeID, string(approval.StatusApproved)).
		Group("mission_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.MissionID] = row.N
	}
	return counts, nil
}

func (r *RequestRepository) CountByStatus(ctx context.Context, status approval.Status) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&missionDatamodel.MissionRequest{}).
		Where("status = ?", string(status)).
		Count(&n).Error
	return n, err
}

func (r *RequestRepository) CurrentStatus(ctx context.Context, id string) (approval.Status, error) {
	row, err := r.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return approval.Status(row.Status), nil
}

func (r *RequestRepository) CompareAndSetReview(ctx context.Context, id string, from approval.Status, review approval.Review) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&missionDatamodel.MissionRequest{}).
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
