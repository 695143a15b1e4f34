package profile

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/frahmantamala/zhar/internal"
	profileDatamodel "github.com/frahmantamala/zhar/internal/core/datamodel/profile"
	userDatamodel "github.com/frahmantamala/zhar/internal/core/datamodel/user"
	"github.com/frahmantamala/zhar/internal/core/user"
)

type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      user.Role `json:"role"`
	Sector    *string   `json:"sector,omitempty"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Principal is the view of the profile the session and access layers work with.
func (p *Profile) Principal() *user.User {
	return &user.User{
		ID:       p.ID,
		Email:    p.Email,
		FullName: p.FullName,
		Role:     p.Role,
		Sector:   p.Sector,
	}
}

func (p *Profile) IsStaff() bool {
	return p.Role != user.RoleAdmin
}

// ListFilter narrows profile listings. Empty fields match everything.
type ListFilter struct {
	Role          user.Role
	Sector        string
	ExcludeAdmins bool
	Search        string
}

type RepositoryAPI interface {
	GetByID(ctx context.Context, id string) (*profileDatamodel.Profile, error)
	GetByEmail(ctx context.Context, email string) (*profileDatamodel.Profile, error)
	GetByIDs(ctx context.Context, ids []string) ([]*profileDatamodel.Profile, error)
	List(ctx context.Context, filter ListFilter) ([]*profileDatamodel.Profile, error)
	Create(ctx context.Context, profile *profileDatamodel.Profile) error
	Update(ctx context.Context, id string, fields map[string]interface{}) error
	CountByRole(ctx context.Context, role user.Role) (int64, error)
}

// Identities creates and looks up sign-in identities.
type Identities interface {
	CreateIdentity(ctx context.Context, email, password string) (*userDatamodel.Identity, error)
	IdentityByEmail(ctx context.Context, email string) (*userDatamodel.Identity, error)
	DeleteIdentity(ctx context.Context, id string) error
}

var (
	ErrProfileNotFound   = internal.NewNotFoundError("profile not found", internal.ErrCodeProfileNotFound)
	ErrInvalidRole       = internal.NewValidationError("role must be one of admin, lead, employee", internal.ErrCodeInvalidRole)
	ErrBootstrapDisabled = internal.NewForbiddenError("admin bootstrap is disabled", internal.ErrCodeBootstrapDisabled)
)

func FromDataModel(p *profileDatamodel.Profile) (*Profile, error) {
	role, err := user.ParseRole(p.Role)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", p.ID, err)
	}
	return &Profile{
		ID:        p.ID,
		Email:     p.Email,
		FullName:  p.FullName,
		Role:      role,
		Sector:    p.Sector,
		AvatarURL: p.AvatarURL,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}, nil
}

func ToDataModel(p *Profile) *profileDatamodel.Profile {
	return &profileDatamodel.Profile{
		ID:        p.ID,
		Email:     p.Email,
		FullName:  p.FullName,
		Role:      string(p.Role),
		Sector:    p.Sector,
		AvatarURL: p.AvatarURL,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// normalizeSector trims the sector and maps blank to nil. Admins never carry a sector.
func normalizeSector(role user.Role, sector *string) *string {
	if role == user.RoleAdmin || sector == nil {
		return nil
	}
	s := strings.TrimSpace(*sector)
	if s == "" {
		return nil
	}
	return &s
}
