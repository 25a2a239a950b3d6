package bootstrap

import (
	"context"
	"errors"

	"admissions-backend/internal/applications"
	"admissions-backend/internal/documents"
	"admissions-backend/internal/users"
)

// roleAdapter exposes users as the documents role provider.
type roleAdapter struct {
	users *users.Service
}

func (a roleAdapter) ActorRole(ctx context.Context, actorID string) (documents.Actor, error) {
	user, err := a.users.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return documents.Actor{}, documents.ErrUnknownActor
		}
		return documents.Actor{}, err
	}
	role := documents.RoleStandard
	if user.Role == users.RoleElevated {
		role = documents.RoleElevated
	}
	return documents.Actor{ID: user.ID, Role: role, Active: user.IsActive}, nil
}

// ownerAdapter exposes applications as the documents owner registry.
type ownerAdapter struct {
	apps *applications.Service
}

func (a ownerAdapter) ApplicationOwner(ctx context.Context, applicationID string) (string, error) {
	owner, err := a.apps.Owner(ctx, applicationID)
	if err != nil {
		if errors.Is(err, applications.ErrNotFound) {
			return "", documents.ErrUnknownApplication
		}
		return "", err
	}
	return owner, nil
}
