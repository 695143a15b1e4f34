package user

import "time"

// Identity is the credential record behind a profile. Profile ids equal identity ids.
type Identity struct {
	ID           string    `gorm:"primaryKey;column:id"`
	Email        string    `gorm:"column:email;uniqueIndex;not null"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Identity) TableName() string {
	return "identities"
}

// AuthSession is one sign-in. Its id is the jti of every token issued for it.
type AuthSession struct {
	ID         string     `gorm:"primaryKey;column:id"`
	IdentityID string     `gorm:"column:identity_id;index;not null"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	ExpiresAt  time.Time  `gorm:"column:expires_at;not null"`
	RevokedAt  *time.Time `gorm:"column:revoked_at"`
}

func (AuthSession) TableName() string {
	return "auth_sessions"
}

func (s *AuthSession) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}
