package credit

import "time"

// CreditRequest rows. At most one non-rejected request may exist per assignment.
type CreditRequest struct {
	ID               string     `gorm:"primaryKey;column:id"`
	AssignmentID     string     `gorm:"column:assignment_id;not null;uniqueIndex:idx_credit_requests_live_assignment,where:status <> 'rejected'"`
	EmployeeID       string     `gorm:"column:employee_id;not null;index"`
	CreditsRequested int64      `gorm:"column:credits_requested;not null"`
	Status           string     `gorm:"column:status;not null;default:'pending'"`
	Notes            *string    `gorm:"column:notes"`
	ReviewedBy       *string    `gorm:"column:reviewed_by"`
	ReviewedAt       *time.Time `gorm:"column:reviewed_at"`
	CreatedAt        time.Time  `gorm:"column:created_at;not null"`
	UpdatedAt        time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (CreditRequest) TableName() string {
	return "credit_requests"
}
