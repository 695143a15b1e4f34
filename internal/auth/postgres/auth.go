package postgres

import (
	"context"
	"time"

	"github.com/frahmantamala/zhar/internal/auth"
	"github.com/frahmantamala/zhar/internal/core/common/dberr"
	userDatamodel "github.com/frahmantamala/zhar/internal/core/datamodel/user"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

var _ auth.RepositoryAPI = (*Repository)(nil)

func (r *Repository) GetIdentityByEmail(ctx context.Context, email string) (*userDatamodel.Identity, error) {
	var identity userDatamodel.Identity
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&identity).Error; err != nil {
		if dberr.IsNotFound(err) {
			return nil, auth.ErrIdentityNotFound
		}
		return nil, err
	}
	return &identity, nil
}

func (r *Repository) GetIdentityByID(ctx context.Context, id string) (*userDatamodel.Identity, error) {
	var identity userDatamodel.Identity
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&identity).Error; err != nil {
		if dberr.IsNotFound(err) {
			return nil, auth.ErrIdentityNotFound
		}
		return nil, err
	}
	return &identity, nil
}

func (r *Repository) CreateIdentity(ctx context.Context, identity *userDatamodel.Identity) error {
	if err := r.db.WithContext(ctx).Create(identity).Error; err != nil {
		if dberr.IsUniqueViolation(err) {
			return auth.ErrEmailTaken
		}
		return err
	}
	return nil
}

func (r *Repository) DeleteIdentity(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&userDatamodel.Identity{}).Error
}

func (r *Repository) CreateSession(ctx context.Context, session *userDatamodel.AuthSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *Repository) GetSession(ctx context.Context, id string) (*userDatamodel.AuthSession, error) {
	var session userDatamodel.AuthSession
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&session).Error; err != nil {
		if dberr.IsNotFound(err) {
			return nil, auth.ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}

func (r *Repository) RevokeSession(ctx context.Context, id string, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&userDatamodel.AuthSession{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Update("revoked_at", at)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return auth.ErrSessionNotFound
	}
	return nil
}

func (r *Repository) ListActiveSessions(ctx context.Context, now time.Time) ([]auth.Identity, error) {
	var rows []struct {
		SessionID string
		UserID    string
		Email     string
		ExpiresAt time.Time
	}

	err := r.db.WithContext(ctx).
		Table("auth_sessions AS s").
		Select("s.id AS session_id, i.id AS user_id, i.email AS email, s.expires_at AS expires_at").
		Joins("JOIN identities AS i ON i.id = s.identity_id").
		Where("s.revoked_at IS NULL AND s.expires_at > ?", now).
		Order("s.created_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]auth.Identity, 0, len(rows))
	for _, row := range rows {
		out = append(out, auth.Identity{
			UserID:    row.UserID,
			Email:     row.Email,
			SessionID: row.SessionID,
			ExpiresAt: row.ExpiresAt,
		})
	}
	return out, nil
}

func (r *Repository) DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at < ? OR revoked_at < ?", before, before).
		Delete(&userDatamodel.AuthSession{})
	return result.RowsAffected, result.Error
}
