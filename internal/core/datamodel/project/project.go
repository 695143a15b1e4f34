package project

import "time"

type Project struct {
	ID              string     `gorm:"primaryKey;column:id"`
	Name            string     `gorm:"column:name;not null"`
	Description     *string    `gorm:"column:description"`
	ClientName      *string    `gorm:"column:client_name"`
	ProjectType     string     `gorm:"column:project_type;not null"`
	Status          string     `gorm:"column:status;not null;default:'active'"`
	StartDate       *time.Time `gorm:"column:start_date"`
	EndDate         *time.Time `gorm:"column:end_date"`
	ExpectedCredits int64      `gorm:"column:expected_credits;not null;default:0"`
	CreatedBy       string     `gorm:"column:created_by;not null"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Project) TableName() string {
	return "projects"
}

type ProjectAssignment struct {
	ID            string    `gorm:"primaryKey;column:id"`
	ProjectID     string    `gorm:"column:project_id;not null;uniqueIndex:idx_project_assignments_project_employee"`
	EmployeeID    string    `gorm:"column:employee_id;not null;uniqueIndex:idx_project_assignments_project_employee"`
	Status        string    `gorm:"column:status;not null;default:'not_started'"`
	Progress      int       `gorm:"column:progress;not null;default:0"`
	CreditsEarned *int64    `gorm:"column:credits_earned"`
	AssignedBy    *string   `gorm:"column:assigned_by"`
	AssignedAt    time.Time `gorm:"column:assigned_at;not null"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (ProjectAssignment) TableName() string {
	return "project_assignments"
}
