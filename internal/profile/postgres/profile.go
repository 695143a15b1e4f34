package postgres

import (
	"context"
	"strings"

	"github.com/frahmantamala/zhar/internal"
	"github.com/frahmantamala/zhar/internal/core/common/dberr"
	profileDatamodel "github.com/frahmantamala/zhar/internal/core/datamodel/profile"
	"github.com/frahmantamala/zhar/internal/core/user"
	"github.com/frahmantamala/zhar/internal/profile"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

var _ profile.RepositoryAPI = (*Repository)(nil)

var errProfileExists = internal.NewConflictError("profile already exists", internal.ErrCodeEmailTaken)

func (r *Repository) GetByID(ctx context.Context, id string) (*profileDatamodel.Profile, error) {
	var p profileDatamodel.Profile
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		if dberr.IsNotFound(err) {
			return nil, profile.ErrProfileNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*profileDatamodel.Profile, error) {
	var p profileDatamodel.Profile
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&p).Error; err != nil {
		if dberr.IsNotFound(err) {
			return nil, profile.ErrProfileNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *Repository) GetByIDs(ctx context.Context, ids []string) ([]*profileDatamodel.Profile, error) {
	var profiles []*profileDatamodel.Profile
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&profiles).Error
	return profiles, err
}

func (r *Repository) List(ctx context.Context, filter profile.ListFilter) ([]*profileDatamodel.Profile, error) {
	q := r.db.WithContext(ctx).Model(&profileDatamodel.Profile{})
	if filter.Role != "" {
		q = q.Where("role = ?", string(filter.Role))
	}
	if filter.ExcludeAdmins {
		q = q.Where("role <> ?", string(user.RoleAdmin))
	}
	if filter.Sector != "" {
		q = q.Where("sector = ?", filter.Sector)
	}
	if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
		like := "%" + search + "%"
		q = q.Where("LOWER(full_name) LIKE ? OR LOWER(email) LIKE ?", like, like)
	}

	var profiles []*profileDatamodel.Profile
	err := q.Order("created_at DESC").Order("id ASC").Find(&profiles).Error
	return profiles, err
}

func (r *Repository) Create(ctx context.Context, p *profileDatamodel.Profile) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		if dberr.IsUniqueViolation(err) {
			return errProfileExists
		}
		return err
	}
	return nil
}

func (r *Repository) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&profileDatamodel.Profile{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return profile.ErrProfileNotFound
	}
	return nil
}

func (r *Repository) CountByRole(ctx context.Context, role user.Role) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&profileDatamodel.Profile{}).Where("role = ?", string(role)).Count(&n).Error
	return n, err
}
