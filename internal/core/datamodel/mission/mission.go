package mission

import "time"

type CommonMission struct {
	ID                 string    `gorm:"primaryKey;column:id"`
	MissionName        string    `gorm:"column:mission_name;not null"`
	MissionDescription *string   `gorm:"column:mission_description"`
	DefaultCreditValue int64     `gorm:"column:default_credit_value;not null"`
	IsActive           bool      `gorm:"column:is_active;not null"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (CommonMission) TableName() string {
	return "common_missions"
}

type MissionRequest struct {
	ID               string     `gorm:"primaryKey;column:id"`
	MissionID        string     `gorm:"column:mission_id;not null;index"`
	EmployeeID       string     `gorm:"column:employee_id;not null;index"`
	CreditsRequested int64      `gorm:"column:credits_requested;not null"`
	Description      *string    `gorm:"column:description"`
	Status           string     `gorm:"column:status;not null;default:'pending'"`
	ReviewedBy       *string    `gorm:"column:reviewed_by"`
	ReviewedAt       *time.Time `gorm:"column:reviewed_at"`
	CreatedAt        time.Time  `gorm:"column:created_at;not null"`
	UpdatedAt        time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (MissionRequest) TableName() string {
	return "mission_requests"
}
