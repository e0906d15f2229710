package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/laeyue/msu-iit-connect/internal/portal/domain"
	"github.com/laeyue/msu-iit-connect/internal/portal/store"
	"github.com/laeyue/msu-iit-connect/pkg/cryptox"
	"github.com/laeyue/msu-iit-connect/pkg/idx"
	"github.com/laeyue/msu-iit-connect/pkg/jwtx"
)

// AuthService owns sign-up and sign-in. Sign-up writes the user row and its
// profile row (verified=false) in one transaction so a half-registered
// account can never exist.
type AuthService struct {
	Store  store.Store
	Signer *jwtx.Signer
}

// SignUpParams are the fields collected by the registration form.
type SignUpParams struct {
	Email       string
	Password    string
	DisplayName string
	Category    domain.Category
	College     string
}

// Token is a minted access token and its expiry.
type Token struct {
	AccessToken string
	ExpiresAt   time.Time
}

func (s *AuthService) SignUp(ctx context.Context, p SignUpParams) (domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(p.Email))
	if email == "" || p.Password == "" {
		return domain.User{}, ErrInvalidCredentials
	}
	if strings.TrimSpace(p.DisplayName) == "" || !p.Category.Valid() {
		return domain.User{}, ErrInvalidProfile
	}

	hash, err := cryptox.HashPassword(p.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := domain.User{
		ID:           idx.MustNew().String(),
		Email:        email,
		PasswordHash: hash,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, user); err != nil {
			return err
		}
		return tx.Profiles().CreateProfile(ctx, domain.Profile{
			UserID:      user.ID,
			DisplayName: strings.TrimSpace(p.DisplayName),
			Category:    p.Category,
			College:     strings.TrimSpace(p.College),
			Verified:    false,
		})
	})
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrEmailTaken
		}
		return domain.User{}, err
	}

	return user, nil
}

// SignIn verifies credentials and mints an access token. Unknown emails and
// wrong passwords are indistinguishable to the caller.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (domain.User, Token, error) {
	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, Token{}, ErrInvalidCredentials
		}
		return domain.User{}, Token{}, err
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		return domain.User{}, Token{}, ErrInvalidCredentials
	}

	raw, expiresAt, err := s.Signer.Mint(user.ID, user.Email)
	if err != nil {
		return domain.User{}, Token{}, err
	}

	return user, Token{AccessToken: raw, ExpiresAt: expiresAt}, nil
}

// GetUserByID fetches a user by id.
func (s *AuthService) GetUserByID(ctx context.Context, userID string) (domain.User, error) {
	return s.Store.Users().GetUserByID(ctx, userID)
}
