// Package service holds the business rules behind every Warbler endpoint.
package service

import (
	"context"

	"warbler/internal/models"
	"warbler/internal/observability"
	"warbler/internal/repository"
)

// Messages shown to the user when the gate rejects a request.
const (
	MsgUnauthorized = "Access unauthorized."
	MsgForbidden    = "Access Denied."
)

// Gate enforces the per-request authorization rules: a session identity must
// be present, must name an existing user, and may only act on what it owns.
type Gate struct {
	users repository.UserRepository
}

// NewGate returns a new Gate.
func NewGate(users repository.UserRepository) *Gate {
	return &Gate{users: users}
}

// RequireUser resolves the session identity. present is false for anonymous requests.
func (g *Gate) RequireUser(ctx context.Context, userID uint, present bool) (*models.User, error) {
	if !present {
		observability.RecordDenial("anonymous")
		return nil, models.NewUnauthorizedError(MsgUnauthorized)
	}

	user, err := g.users.GetByID(ctx, userID)
	if err != nil {
		if models.IsNotFound(err) {
			observability.RecordDenial("unknown_user")
		}
		return nil, err
	}
	return user, nil
}

// RequireOwner rejects actor unless it owns the resource.
func (g *Gate) RequireOwner(actor *models.User, ownerID uint, action string) error {
	if actor == nil || actor.ID != ownerID {
		observability.RecordDenial("not_owner:" + action)
		return models.NewForbiddenError(MsgForbidden)
	}
	return nil
}
