package dbtest

import (
	"time"

	creditDatamodel "github.com/frahmantamala/zhar/internal/core/datamodel/credit"
	missionDatamodel "github.com/frahmantamala/zhar/internal/core/datamodel/mission"
	profileDatamodel "github.com/frahmantamala/zhar/internal/core/datamodel/profile"
	projectDatamodel "github.com/frahmantamala/zhar/internal/core/datamodel/project"
	"gorm.io/gorm"
)

// SeedProfile inserts a profile row. sector may be empty.
func SeedProfile(db *gorm.DB, id, fullName, role, sector string) error {
	p := &profileDatamodel.Profile{
		ID:       id,
		Email:    id + "@example.com",
		FullName: fullName,
		Role:     role,
	}
	if sector != "" {
		p.Sector = &sector
	}
	return db.Create(p).Error
}

// SeedProject inserts an active project row.
func SeedProject(db *gorm.DB, id, name string, expectedCredits int64) error {
	now := time.Now().UTC()
	return db.Create(&projectDatamodel.Project{
		ID:              id,
		Name:            name,
		ProjectType:     "Web Development",
		Status:          "active",
		ExpectedCredits: expectedCredits,
		CreatedBy:       "admin",
		CreatedAt:       now,
		UpdatedAt:       now,
	}).Error
}

// SeedCreditRequest inserts a credit request on its own assignment.
func SeedCreditRequest(db *gorm.DB, id, employeeID, status string, credits int64, createdAt time.Time) error {
	return db.Create(&creditDatamodel.CreditRequest{
		ID:               id,
		AssignmentID:     "asg-" + id,
		EmployeeID:       employeeID,
		CreditsRequested: credits,
		Status:           status,
		CreatedAt:        createdAt.UTC(),
		UpdatedAt:        createdAt.UTC(),
	}).Error
}

// SeedMissionRequest inserts a mission request against a placeholder mission.
func SeedMissionRequest(db *gorm.DB, id, employeeID, status string, credits int64, createdAt time.Time) error {
	return db.Create(&missionDatamodel.MissionRequest{
		ID:               id,
		MissionID:        "mission-seed",
		EmployeeID:       employeeID,
		CreditsRequested: credits,
		Status:           status,
		CreatedAt:        createdAt.UTC(),
		UpdatedAt:        createdAt.UTC(),
	}).Error
}
