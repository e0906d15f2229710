package service

import (
	"context"
	"strings"

	"github.com/laeyue/msu-iit-connect/internal/portal/domain"
	"github.com/laeyue/msu-iit-connect/internal/portal/store"
)

type ProfileService struct {
	Store store.Store
}

// GetByUserID returns a user's profile or store.ErrNotFound.
func (s *ProfileService) GetByUserID(ctx context.Context, userID string) (domain.Profile, error) {
	return s.Store.Profiles().GetProfileByUserID(ctx, userID)
}

// GetByUserIDs resolves a batch of user ids in a single query. Duplicate ids
// are collapsed; missing profiles are absent from the map.
func (s *ProfileService) GetByUserIDs(ctx context.Context, userIDs []string) (map[string]domain.Profile, error) {
	distinct := make([]string, 0, len(userIDs))
	seen := make(map[string]struct{}, len(userIDs))
	for _, id := range userIDs {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		distinct = append(distinct, id)
	}
	return s.Store.Profiles().GetProfilesByUserIDs(ctx, distinct)
}

// UpdateDisplayName mutates the owner-editable field.
func (s *ProfileService) UpdateDisplayName(ctx context.Context, userID, displayName string) error {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return ErrInvalidProfile
	}
	return s.Store.Profiles().UpdateDisplayName(ctx, userID, displayName)
}

// SetVerified flips the administrator-only verified flag.
func (s *ProfileService) SetVerified(ctx context.Context, userID string, verified bool) error {
	return s.Store.Profiles().SetVerified(ctx, userID, verified)
}
