package profile

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/frahmantamala/zhar/internal/auth"
	"github.com/frahmantamala/zhar/internal/core/events"
	"github.com/frahmantamala/zhar/internal/core/user"
	"github.com/frahmantamala/zhar/internal/session"
)

const defaultAdminName = "System Admin"

type Service struct {
	repo       RepositoryAPI
	identities Identities
	publisher  events.Publisher
	logger     *slog.Logger
}

func NewService(repo RepositoryAPI, identities Identities, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		identities: identities,
		publisher:  publisher,
		logger:     logger,
	}
}

// LoadPrincipal resolves the profile behind a signed-in identity. It returns
// session.ErrNoProfile when the identity has no profile row yet.
func (s *Service) LoadPrincipal(ctx context.Context, userID string) (*user.User, error) {
	p, err := s.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return nil, session.ErrNoProfile
		}
		return nil, err
	}
	return p.Principal(), nil
}

func (s *Service) Get(ctx context.Context, id string) (*Profile, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromDataModel(row)
}

// Lookup returns the profiles for ids keyed by id. Unknown ids are skipped.
func (s *Service) Lookup(ctx context.Context, ids []string) (map[string]*Profile, error) {
	out := make(map[string]*Profile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.repo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		p, err := FromDataModel(row)
		if err != nil {
			s.logger.Warn("skipping profile with unknown role", "profile_id", row.ID, "error", err)
			continue
		}
		out[p.ID] = p
	}
	return out, nil
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Profile, error) {
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list profiles", "error", err)
		return nil, err
	}

	profiles := make([]*Profile, 0, len(rows))
	for _, row := range rows {
		p, err := FromDataModel(row)
		if err != nil {
			s.logger.Warn("skipping profile with unknown role", "profile_id", row.ID, "error", err)
			continue
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

func (s *Service) CountByRole(ctx context.Context, role user.Role) (int64, error) {
	return s.repo.CountByRole(ctx, role)
}

// UpdateSelf changes the caller's name and avatar.
func (s *Service) UpdateSelf(ctx context.Context, userID string, dto UpdateSelfDTO) (*Profile, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if dto.FullName != nil {
		fields["full_name"] = *dto.FullName
	}
	if dto.AvatarURL != nil {
		fields["avatar_url"] = *dto.AvatarURL
	}
	return s.update(ctx, userID, fields)
}

// AdminUpdate changes role and sector. Promoting to admin clears the sector.
func (s *Service) AdminUpdate(ctx context.Context, id string, dto AdminUpdateDTO) (*Profile, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	role := current.Role
	fields := map[string]interface{}{}
	if dto.Role != nil {
		parsed, err := user.ParseRole(*dto.Role)
		if err != nil {
			return nil, ErrInvalidRole
		}
		role = parsed
		fields["role"] = string(role)
	}
	if dto.Sector != nil || role == user.RoleAdmin {
		sector := current.Sector
		if dto.Sector != nil {
			sector = dto.Sector
		}
		fields["sector"] = normalizeSector(role, sector)
	}

	return s.update(ctx, id, fields)
}

func (s *Service) update(ctx context.Context, id string, fields map[string]interface{}) (*Profile, error) {
	if len(fields) > 0 {
		if err := s.repo.Update(ctx, id, fields); err != nil {
			s.logger.Error("failed to update profile", "profile_id", id, "error", err)
			return nil, err
		}
		s.publish(ctx, events.EventTypeProfileUpdated, id)
	}
	return s.Get(ctx, id)
}

// CreateEmployee provisions an identity with its profile. The identity is removed again
// when the profile cannot be stored.
func (s *Service) CreateEmployee(ctx context.Context, dto CreateProfileDTO) (*Profile, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	role, err := user.ParseRole(dto.Role)
	if err != nil {
		return nil, ErrInvalidRole
	}

	identity, err := s.identities.CreateIdentity(ctx, dto.Email, dto.Password)
	if err != nil {
		return nil, err
	}

	p := &Profile{
		ID:       identity.ID,
		Email:    identity.Email,
		FullName: dto.FullName,
		Role:     role,
		Sector:   normalizeSector(role, dto.Sector),
	}
	if err := s.create(ctx, p); err != nil {
		if delErr := s.identities.DeleteIdentity(ctx, identity.ID); delErr != nil {
			s.logger.Error("failed to remove orphaned identity", "identity_id", identity.ID, "error", delErr)
		}
		return nil, err
	}

	s.logger.Info("profile provisioned", "profile_id", p.ID, "role", p.Role)
	return s.Get(ctx, p.ID)
}

func (s *Service) create(ctx context.Context, p *Profile) error {
	if err := s.repo.Create(ctx, ToDataModel(p)); err != nil {
		s.logger.Error("failed to create profile", "profile_id", p.ID, "error", err)
		return err
	}
	s.publish(ctx, events.EventTypeProfileCreated, p.ID)
	return nil
}

// EnsureAdmin creates the bootstrap administrator. An existing profile with the email wins;
// an identity without a profile gets one; otherwise both are created.
func (s *Service) EnsureAdmin(ctx context.Context, admin BootstrapAdmin) (BootstrapResult, error) {
	email := strings.ToLower(strings.TrimSpace(admin.Email))
	name := strings.TrimSpace(admin.FullName)
	if name == "" {
		name = defaultAdminName
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		s.logger.Info("admin user already exists", "email", email)
		return BootstrapResult{Success: true, Message: "Admin user already exists", Email: email}, nil
	} else if !errors.Is(err, ErrProfileNotFound) {
		return BootstrapResult{}, err
	}

	identity, err := s.identities.IdentityByEmail(ctx, email)
	switch {
	case err == nil:
		p := &Profile{ID: identity.ID, Email: email, FullName: name, Role: user.RoleAdmin}
		if err := s.create(ctx, p); err != nil {
			return BootstrapResult{}, err
		}
		s.logger.Info("admin profile created for existing identity", "email", email)
		return BootstrapResult{Success: true, Created: true, Message: "Admin profile created for existing user", Email: email}, nil
	case !errors.Is(err, auth.ErrIdentityNotFound):
		return BootstrapResult{}, err
	}

	identity, err = s.identities.CreateIdentity(ctx, email, admin.Password)
	if err != nil {
		return BootstrapResult{}, err
	}
	p := &Profile{ID: identity.ID, Email: email, FullName: name, Role: user.RoleAdmin}
	if err := s.create(ctx, p); err != nil {
		return BootstrapResult{}, err
	}

	s.logger.Info("admin user created", "email", email)
	return BootstrapResult{Success: true, Created: true, Message: "Admin user created successfully", Email: email}, nil
}

func (s *Service) publish(ctx context.Context, eventType, profileID string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events.NewProfileChangedEvent(eventType, profileID)); err != nil {
		s.logger.Error("failed to publish profile event", "event_type", eventType, "profile_id", profileID, "error", err)
	}
}

var _ session.ProfileLoader = (*Service)(nil)

