package cmd

import (
	"errors"
	"fmt"
	"log"
	"time"

	creditDatamodel "github.com/frahmantamala/zhar/internal/core/datamodel/credit"
	missionDatamodel "github.com/frahmantamala/zhar/internal/core/datamodel/mission"
	profileDatamodel "github.com/frahmantamala/zhar/internal/core/datamodel/profile"
	projectDatamodel "github.com/frahmantamala/zhar/internal/core/datamodel/project"
	userDatamodel "github.com/frahmantamala/zhar/internal/core/datamodel/user"
	"github.com/frahmantamala/zhar/internal/core/user"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const seedPassword = "password"

type seedPerson struct {
	Email    string
	FullName string
	Role     user.Role
	Sector   string
}

var seedPeople = []seedPerson{
	{"admin@zhar.local", "Padil Admin", user.RoleAdmin, ""},
	{"lead.web@zhar.local", "Rani Lead", user.RoleLead, "Web Development"},
	{"fadhil@zhar.local", "Fadhil", user.RoleEmployee, "Web Development"},
	{"sari@zhar.local", "Sari", user.RoleEmployee, "Digital Marketing"},
}

var seedProjects = []struct {
	Name     string
	Client   string
	Type     string
	Expected int64
}{
	{"Company Website Revamp", "Acme", "website", 40},
	{"Q3 Ads Campaign", "Globex", "campaign", 25},
	{"Internal Design System", "", "internal", 15},
}

var seedMissions = []struct {
	Name    string
	Desc    string
	Credits int64
}{
	{"Write a blog post", "Publish an article on the company blog", 5},
	{"Mentor a new hire", "Pair with a new hire for their first two weeks", 10},
	{"Run a knowledge session", "Host an internal talk for the team", 8},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample profiles, projects and missions for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, gdb, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer db.Close()

		if err := seed(gdb, clearData, cfg.Security.BCryptCost); err != nil {
			log.Fatalf("seed failed: %v", err)
		}
		fmt.Println("Seeding complete. Every seeded account uses password:", seedPassword)
	},
}

func seed(db *gorm.DB, clear bool, cost int) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if clear {
			if err := clearSeedTables(tx); err != nil {
				return err
			}
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), cost)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}

		ids := make(map[user.Role][]string)
		for _, person := range seedPeople {
			id, err := seedProfile(tx, person, string(hash))
			if err != nil {
				return err
			}
			ids[person.Role] = append(ids[person.Role], id)
		}
		adminID := ids[user.RoleAdmin][0]

		var projectIDs []string
		for _, p := range seedProjects {
			row := projectDatamodel.Project{
				ID:              uuid.NewString(),
				Name:            p.Name,
				ProjectType:     p.Type,
				Status:          "active",
				ExpectedCredits: p.Expected,
				CreatedBy:       adminID,
			}
			if p.Client != "" {
				client := p.Client
				row.ClientName = &client
			}
			if err := tx.Where("name = ?", p.Name).FirstOrCreate(&row).Error; err != nil {
				return fmt.Errorf("seed project %s: %w", p.Name, err)
			}
			projectIDs = append(projectIDs, row.ID)
		}

		for i, employeeID := range ids[user.RoleEmployee] {
			row := projectDatamodel.ProjectAssignment{
				ID:         uuid.NewString(),
				ProjectID:  projectIDs[i%len(projectIDs)],
				EmployeeID: employeeID,
				Status:     "not_started",
				AssignedBy: &adminID,
				AssignedAt: time.Now().UTC(),
			}
			err := tx.Where("project_id = ? AND employee_id = ?", row.ProjectID, employeeID).FirstOrCreate(&row).Error
			if err != nil {
				return fmt.Errorf("seed assignment: %w", err)
			}
		}

		for _, m := range seedMissions {
			desc := m.Desc
			row := missionDatamodel.CommonMission{
				ID:                 uuid.NewString(),
				MissionName:        m.Name,
				MissionDescription: &desc,
				DefaultCreditValue: m.Credits,
				IsActive:           true,
			}
			if err := tx.Where("mission_name = ?", m.Name).FirstOrCreate(&row).Error; err != nil {
				return fmt.Errorf("seed mission %s: %w", m.Name, err)
			}
		}

		fmt.Printf("Seeded %d profiles, %d projects, %d missions\n", len(seedPeople), len(seedProjects), len(seedMissions))
		return nil
	})
}

// seedProfile creates the identity and profile for person unless the email is taken.
func seedProfile(tx *gorm.DB, person seedPerson, hash string) (string, error) {
	var identity userDatamodel.Identity
	err := tx.Where("email = ?", person.Email).First(&identity).Error
	switch {
	case err == nil:
		fmt.Println("identity already exists:", person.Email)
	case errors.Is(err, gorm.ErrRecordNotFound):
		identity = userDatamodel.Identity{ID: uuid.NewString(), Email: person.Email, PasswordHash: hash}
		if err := tx.Create(&identity).Error; err != nil {
			return "", fmt.Errorf("seed identity %s: %w", person.Email, err)
		}
	default:
		return "", fmt.Errorf("lookup identity %s: %w", person.Email, err)
	}

	row := profileDatamodel.Profile{
		ID:       identity.ID,
		Email:    person.Email,
		FullName: person.FullName,
		Role:     string(person.Role),
	}
	if person.Sector != "" {
		sector := person.Sector
		row.Sector = &sector
	}
	if err := tx.Where("id = ?", identity.ID).FirstOrCreate(&row).Error; err != nil {
		return "", fmt.Errorf("seed profile %s: %w", person.Email, err)
	}
	return identity.ID, nil
}

func clearSeedTables(tx *gorm.DB) error {
	tables := []interface{}{
		&missionDatamodel.MissionRequest{},
		&creditDatamodel.CreditRequest{},
		&projectDatamodel.ProjectAssignment{},
		&missionDatamodel.CommonMission{},
		&projectDatamodel.Project{},
		&userDatamodel.AuthSession{},
		&profileDatamodel.Profile{},
		&userDatamodel.Identity{},
	}
	for _, table := range tables {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(table).Error; err != nil {
			return fmt.Errorf("clear %T: %w", table, err)
		}
	}
	fmt.Println("Cleared existing data")
	return nil
}
