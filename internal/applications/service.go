package applications

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	Repo Repo
	Now  func() time.Time
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// Create opens a draft application owned by ownerID.
func (s *Service) Create(ctx context.Context, ownerID, program string) (Application, error) {
	if s == nil || s.Repo == nil {
		return Application{}, errors.New("applications service not configured")
	}
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return Application{}, fmt.Errorf("%w: owner required", ErrInvalidInput)
	}
	now := s.now()
	app := Application{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Program:   strings.TrimSpace(program),
		Status:    StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Repo.Create(ctx, app); err != nil {
		return Application{}, err
	}
	return app, nil
}

// Owner returns the owning actor of an application.
func (s *Service) Owner(ctx context.Context, applicationID string) (string, error) {
	if s == nil || s.Repo == nil {
		return "", errors.New("applications service not configured")
	}
	if strings.TrimSpace(applicationID) == "" {
		return "", ErrNotFound
	}
	app, err := s.Repo.GetByID(ctx, applicationID)
	if err != nil {
		return "", err
	}
	return app.OwnerID, nil
}

func (s *Service) ListMine(ctx context.Context, ownerID string) ([]Application, error) {
	if s == nil || s.Repo == nil {
		return nil, errors.New("applications service not configured")
	}
	return s.Repo.ListByOwner(ctx, ownerID)
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
