package users

import (
	"context"
	"errors"
	"strings"

	"admissions-backend/internal/shared/telemetry"
)

var (
	// ErrInvalidInput is returned for an unknown role or missing identity fields.
	ErrInvalidInput = errors.New("invalid input")
	// ErrForbidden is returned when the caller may not manage roles.
	ErrForbidden = errors.New("forbidden")
)

type Service struct {
	Repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// UpsertFromAuth records the identity from an OAuth sign-in. New users start
// as active standard users.
func (s *Service) UpsertFromAuth(ctx context.Context, user User) error {
	if s == nil || s.Repo == nil {
		return errors.New("users service not configured")
	}
	if strings.TrimSpace(user.ID) == "" || strings.TrimSpace(user.Email) == "" {
		return errors.New("user id and email are required")
	}
	user.Role = RoleStandard
	return s.Repo.Upsert(ctx, user)
}

func (s *Service) GetByID(ctx context.Context, userID string) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errors.New("users service not configured")
	}
	if strings.TrimSpace(userID) == "" {
		return User{}, ErrNotFound
	}
	return s.Repo.GetByID(ctx, userID)
}

// SetRole changes a user's role and active flag.
func (s *Service) SetRole(ctx context.Context, userID, role string, active bool) error {
	if s == nil || s.Repo == nil {
		return errors.New("users service not configured")
	}
	if role != RoleStandard && role != RoleElevated {
		return ErrInvalidInput
	}
	return s.Repo.SetRole(ctx, userID, role, active)
}

// Provision sets a user's role and active flag, creating the user first when
// it does not exist yet. Existing profile fields are left untouched.
func (s *Service) Provision(ctx context.Context, user User, role string, active bool) error {
	if s == nil || s.Repo == nil {
		return errors.New("users service not configured")
	}
	user.ID = strings.TrimSpace(user.ID)
	if user.ID == "" {
		return ErrInvalidInput
	}
	if role != RoleStandard && role != RoleElevated {
		return ErrInvalidInput
	}

	if _, err := s.Repo.GetByID(ctx, user.ID); errors.Is(err, ErrNotFound) {
		if strings.TrimSpace(user.Email) == "" {
			return ErrInvalidInput
		}
		if err := s.Repo.Upsert(ctx, user); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	if err := s.Repo.SetRole(ctx, user.ID, role, active); err != nil {
		return err
	}
	telemetry.Info("users.provisioned", map[string]any{"user_id": user.ID, "role": role, "active": active})
	return nil
}

// ChangeRole lets an active elevated actor change another user's role and
// active flag. Actors cannot change their own access.
func (s *Service) ChangeRole(ctx context.Context, actorID, userID, role string, active bool) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errors.New("users service not configured")
	}
	actor, err := s.Repo.GetByID(ctx, actorID)
	if errors.Is(err, ErrNotFound) {
		return User{}, ErrForbidden
	}
	if err != nil {
		return User{}, err
	}
	if actor.Role != RoleElevated || !actor.IsActive {
		return User{}, ErrForbidden
	}
	if strings.TrimSpace(userID) == "" || userID == actorID {
		return User{}, ErrInvalidInput
	}
	if err := s.SetRole(ctx, userID, role, active); err != nil {
		return User{}, err
	}
	telemetry.Info("users.role_changed", map[string]any{
		"actor_id": actorID,
		"user_id":  userID,
		"role":     role,
		"active":   active,
	})
	return s.Repo.GetByID(ctx, userID)
}
