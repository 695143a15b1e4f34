package profile

import "time"

type Profile struct {
	ID        string    `gorm:"primaryKey;column:id"`
	Email     string    `gorm:"column:email;not null"`
	FullName  string    `gorm:"column:full_name;not null"`
	Role      string    `gorm:"column:role;not null;default:'employee'"`
	Sector    *string   `gorm:"column:sector"`
	AvatarURL *string   `gorm:"column:avatar_url"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Profile) TableName() string {
	return "profiles"
}
