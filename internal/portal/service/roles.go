package service

import (
	"context"
	"errors"

	"github.com/laeyue/msu-iit-connect/internal/portal/domain"
	"github.com/laeyue/msu-iit-connect/internal/portal/store"
)

type RolesService struct {
	Store store.Store
}

// IsAdministrator reports whether an administrator role row exists for the
// user. Absence of the row is the normal "standard user" outcome, not an
// error.
func (s *RolesService) IsAdministrator(ctx context.Context, userID string) (bool, error) {
	_, err := s.Store.Roles().GetAssignment(ctx, userID, domain.RoleAdministrator)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Grant assigns the administrator role. Granting twice is a no-op.
func (s *RolesService) Grant(ctx context.Context, userID string, role domain.Role) error {
	err := s.Store.Roles().GrantRole(ctx, domain.RoleAssignment{UserID: userID, Role: role})
	if errors.Is(err, store.ErrAlreadyExists) {
		return nil
	}
	return err
}

// Revoke removes a role assignment. Revoking an absent role is a no-op.
func (s *RolesService) Revoke(ctx context.Context, userID string, role domain.Role) error {
	err := s.Store.Roles().RevokeRole(ctx, userID, role)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}
