package documents

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"admissions-backend/internal/audit"
	"admissions-backend/internal/shared/metrics"
	"admissions-backend/internal/shared/telemetry"
)

// Role is the access level of an actor.
type Role string

const (
	RoleStandard Role = "standard"
	RoleElevated Role = "elevated"
)

// Actor is an identity as seen by the gate.
type Actor struct {
	ID     string
	Role   Role
	Active bool
}

// RoleProvider resolves actor identities. Unknown ids yield ErrUnknownActor.
type RoleProvider interface {
	ActorRole(ctx context.Context, actorID string) (Actor, error)
}

// OwnerRegistry resolves application owners. Unknown ids yield ErrUnknownApplication.
type OwnerRegistry interface {
	ApplicationOwner(ctx context.Context, applicationID string) (string, error)
}

// DenyReason explains a denial in logs. It is never shown to callers.
type DenyReason string

const (
	DenyDocumentNotFound    DenyReason = "document_not_found"
	DenyApplicationNotFound DenyReason = "application_not_found"
	DenyActorUnknown        DenyReason = "actor_unknown"
	DenyActorInactive       DenyReason = "actor_inactive"
	DenyNotOwner            DenyReason = "not_owner"
)

// Decision is the outcome of a gate check.
type Decision struct {
	Allowed  bool
	Reason   DenyReason
	Actor    Actor
	Document Document
}

// Err converts a denial into the error callers return.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	if d.Reason == DenyDocumentNotFound || d.Reason == DenyApplicationNotFound {
		return ErrNotFound
	}
	return ErrAccessDenied
}

// Gate decides whether an actor may touch a document or an application's documents.
type Gate struct {
	Repo   DocumentsRepo
	Roles  RoleProvider
	Owners OwnerRegistry
	Audit  audit.Recorder
	Now    func() time.Time
}

// Authorize decides read access to one document. Elevated access is always
// audited; if the audit entry cannot be written the access is refused.
func (g *Gate) Authorize(ctx context.Context, actorID, documentID string) (Decision, error) {
	return g.authorizeDocument(ctx, actorID, documentID, audit.ActionRead)
}

func (g *Gate) authorizeDocument(ctx context.Context, actorID, documentID, action string) (Decision, error) {
	actor, reason, err := g.actor(ctx, actorID)
	if err != nil {
		return Decision{}, err
	}
	if reason != "" {
		return g.deny(actorID, documentID, "", action, reason), nil
	}

	doc, err := g.Repo.GetByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return g.deny(actorID, documentID, "", action, DenyDocumentNotFound), nil
		}
		return Decision{}, fmt.Errorf("%w: load document: %v", ErrStorage, err)
	}

	if actor.Role == RoleElevated {
		if err := g.audit(ctx, actor, action, doc.ID, doc.ApplicationID); err != nil {
			return Decision{}, err
		}
		return Decision{Allowed: true, Actor: actor, Document: doc}, nil
	}

	owner, err := g.Owners.ApplicationOwner(ctx, doc.ApplicationID)
	if err != nil {
		if errors.Is(err, ErrUnknownApplication) {
			return g.deny(actorID, documentID, doc.ApplicationID, action, DenyApplicationNotFound), nil
		}
		return Decision{}, fmt.Errorf("%w: resolve owner: %v", ErrStorage, err)
	}
	if owner != actor.ID {
		return g.deny(actorID, documentID, doc.ApplicationID, action, DenyNotOwner), nil
	}
	return Decision{Allowed: true, Actor: actor, Document: doc}, nil
}

// AuthorizeApplication decides access to an application's documents as a whole.
// The returned Decision carries no Document.
func (g *Gate) AuthorizeApplication(ctx context.Context, actorID, applicationID, action string) (Decision, error) {
	actor, reason, err := g.actor(ctx, actorID)
	if err != nil {
		return Decision{}, err
	}
	if reason != "" {
		return g.deny(actorID, "", applicationID, action, reason), nil
	}

	owner, err := g.Owners.ApplicationOwner(ctx, applicationID)
	if err != nil {
		if errors.Is(err, ErrUnknownApplication) {
			return g.deny(actorID, "", applicationID, action, DenyApplicationNotFound), nil
		}
		return Decision{}, fmt.Errorf("%w: resolve owner: %v", ErrStorage, err)
	}

	if actor.Role == RoleElevated {
		if err := g.audit(ctx, actor, action, "", applicationID); err != nil {
			return Decision{}, err
		}
		return Decision{Allowed: true, Actor: actor}, nil
	}
	if owner != actor.ID {
		return g.deny(actorID, "", applicationID, action, DenyNotOwner), nil
	}
	return Decision{Allowed: true, Actor: actor}, nil
}

// actor resolves an identity, reporting unknown or inactive identities as a deny reason.
func (g *Gate) actor(ctx context.Context, actorID string) (Actor, DenyReason, error) {
	if actorID == "" {
		return Actor{}, DenyActorUnknown, nil
	}
	actor, err := g.Roles.ActorRole(ctx, actorID)
	if err != nil {
		if errors.Is(err, ErrUnknownActor) {
			return Actor{}, DenyActorUnknown, nil
		}
		return Actor{}, "", fmt.Errorf("%w: resolve actor: %v", ErrStorage, err)
	}
	if !actor.Active {
		return actor, DenyActorInactive, nil
	}
	if actor.Role != RoleElevated {
		actor.Role = RoleStandard
	}
	return actor, "", nil
}

func (g *Gate) audit(ctx context.Context, actor Actor, action, documentID, applicationID string) error {
	at := g.now()
	telemetry.Info("documents.access.elevated", map[string]any{
		"actor_id":       actor.ID,
		"action":         action,
		"document_id":    documentID,
		"application_id": applicationID,
		"at":             at.Format(time.RFC3339Nano),
	})
	metrics.IncElevatedAccess()

	if g.Audit == nil {
		return nil
	}
	if err := g.Audit.Record(ctx, audit.Entry{
		ID:            uuid.NewString(),
		ActorID:       actor.ID,
		Action:        action,
		DocumentID:    documentID,
		ApplicationID: applicationID,
		OccurredAt:    at,
	}); err != nil {
		telemetry.Error("documents.access.audit_failed", map[string]any{
			"actor_id":    actor.ID,
			"action":      action,
			"document_id": documentID,
			"error":       err,
		})
		return fmt.Errorf("%w: audit: %v", ErrStorage, err)
	}
	return nil
}

func (g *Gate) deny(actorID, documentID, applicationID, action string, reason DenyReason) Decision {
	telemetry.Info("documents.access.denied", map[string]any{
		"actor_id":       actorID,
		"document_id":    documentID,
		"application_id": applicationID,
		"action":         action,
		"reason":         string(reason),
	})
	return Decision{Allowed: false, Reason: reason}
}

func (g *Gate) now() time.Time {
	if g.Now != nil {
		return g.Now().UTC()
	}
	return time.Now().UTC()
}
