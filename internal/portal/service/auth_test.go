package service

import (
	"testing"

	"github.com/laeyue/msu-iit-connect/internal/portal/domain"
	"github.com/laeyue/msu-iit-connect/internal/portal/store"
	"github.com/stretchr/testify/require"
)

func TestSignUpAndSignIn(t *testing.T) {
	t.Parallel()

	svc := &AuthService{Store: newTestStore(t), Signer: newTestSigner(t)}
	ctx := t.Context()

	user, err := svc.SignUp(ctx, SignUpParams{
		Email:       "Ada@g.msuiit.edu.ph",
		Password:    "correct-horse",
		DisplayName: "Ada Reyes",
		Category:    domain.CategoryStudent,
		College:     "CCS",
	})
	require.NoError(t, err)
	require.NotEmpty(t, user.ID)
	require.Equal(t, "ada@g.msuiit.edu.ph", user.Email, "email should be normalized")

	t.Run("profile row written with verified=false", func(t *testing.T) {
		profile, err := svc.Store.Profiles().GetProfileByUserID(ctx, user.ID)
		require.NoError(t, err)
		require.Equal(t, "Ada Reyes", profile.DisplayName)
		require.Equal(t, domain.CategoryStudent, profile.Category)
		require.False(t, profile.Verified)
	})

	t.Run("sign in mints a verifiable token", func(t *testing.T) {
		got, token, err := svc.SignIn(ctx, "ada@g.msuiit.edu.ph", "correct-horse")
		require.NoError(t, err)
		require.Equal(t, user.ID, got.ID)

		claims, err := svc.Signer.Verifier().Verify(token.AccessToken)
		require.NoError(t, err)
		require.Equal(t, user.ID, claims.Subject)
		require.Equal(t, user.Email, claims.Email)
	})

	t.Run("wrong password rejected", func(t *testing.T) {
		_, _, err := svc.SignIn(ctx, "ada@g.msuiit.edu.ph", "wrong")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email indistinguishable from wrong password", func(t *testing.T) {
		_, _, err := svc.SignIn(ctx, "nobody@g.msuiit.edu.ph", "whatever")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("duplicate sign up rejected", func(t *testing.T) {
		_, err := svc.SignUp(ctx, SignUpParams{
			Email:       "ADA@g.msuiit.edu.ph",
			Password:    "another",
			DisplayName: "Imposter",
			Category:    domain.CategoryStudent,
		})
		require.ErrorIs(t, err, ErrEmailTaken)
	})
}

func TestSignUpValidation(t *testing.T) {
	t.Parallel()

	svc := &AuthService{Store: newTestStore(t), Signer: newTestSigner(t)}
	ctx := t.Context()

	t.Run("missing credentials", func(t *testing.T) {
		_, err := svc.SignUp(ctx, SignUpParams{DisplayName: "X", Category: domain.CategoryStudent})
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("missing display name", func(t *testing.T) {
		_, err := svc.SignUp(ctx, SignUpParams{
			Email: "a@b.c", Password: "pw", DisplayName: "   ", Category: domain.CategoryStudent,
		})
		require.ErrorIs(t, err, ErrInvalidProfile)
	})

	t.Run("unknown category", func(t *testing.T) {
		_, err := svc.SignUp(ctx, SignUpParams{
			Email: "a@b.c", Password: "pw", DisplayName: "X", Category: domain.Category("alumni"),
		})
		require.ErrorIs(t, err, ErrInvalidProfile)
	})

	t.Run("failed sign up leaves no user row", func(t *testing.T) {
		_, err := svc.Store.Users().GetUserByEmail(ctx, "a@b.c")
		require.Error(t, err)
	})
}

func TestRolesService(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	auth := &AuthService{Store: st, Signer: newTestSigner(t)}
	roles := &RolesService{Store: st}
	ctx := t.Context()

	user, err := auth.SignUp(ctx, SignUpParams{
		Email: "dean@msuiit.edu.ph", Password: "pw",
		DisplayName: "Dean Santos", Category: domain.CategoryFaculty,
	})
	require.NoError(t, err)

	isAdmin, err := roles.IsAdministrator(ctx, user.ID)
	require.NoError(t, err)
	require.False(t, isAdmin, "absence of a role row means standard user")

	require.NoError(t, roles.Grant(ctx, user.ID, domain.RoleAdministrator))

	isAdmin, err = roles.IsAdministrator(ctx, user.ID)
	require.NoError(t, err)
	require.True(t, isAdmin)

	t.Run("grant is idempotent", func(t *testing.T) {
		require.NoError(t, roles.Grant(ctx, user.ID, domain.RoleAdministrator))
	})

	t.Run("revoke removes the capability", func(t *testing.T) {
		require.NoError(t, roles.Revoke(ctx, user.ID, domain.RoleAdministrator))

		isAdmin, err := roles.IsAdministrator(ctx, user.ID)
		require.NoError(t, err)
		require.False(t, isAdmin)

		// Revoking again is a no-op.
		require.NoError(t, roles.Revoke(ctx, user.ID, domain.RoleAdministrator))
	})

	t.Run("a standard role row does not confer administrator", func(t *testing.T) {
		require.NoError(t, roles.Grant(ctx, user.ID, domain.RoleStandard))

		isAdmin, err := roles.IsAdministrator(ctx, user.ID)
		require.NoError(t, err)
		require.False(t, isAdmin)

		// Both rows may coexist; only the administrator one decides.
		require.NoError(t, roles.Grant(ctx, user.ID, domain.RoleAdministrator))
		isAdmin, err = roles.IsAdministrator(ctx, user.ID)
		require.NoError(t, err)
		require.True(t, isAdmin)
	})

	t.Run("grant to an unknown user reports not found", func(t *testing.T) {
		require.ErrorIs(t, roles.Grant(ctx, "ghost", domain.RoleAdministrator), store.ErrNotFound)
	})
}

func TestProfileService(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	auth := &AuthService{Store: st, Signer: newTestSigner(t)}
	profiles := &ProfileService{Store: st}
	ctx := t.Context()

	a, err := auth.SignUp(ctx, SignUpParams{
		Email: "a@x.y", Password: "pw", DisplayName: "A", Category: domain.CategoryStudent,
	})
	require.NoError(t, err)
	b, err := auth.SignUp(ctx, SignUpParams{
		Email: "b@x.y", Password: "pw", DisplayName: "B", Category: domain.CategoryStudentCouncil,
	})
	require.NoError(t, err)

	t.Run("batched lookup collapses duplicates and skips missing", func(t *testing.T) {
		got, err := profiles.GetByUserIDs(ctx, []string{a.ID, b.ID, a.ID, "missing", ""})
		require.NoError(t, err)
		require.Len(t, got, 2)
		require.Equal(t, "A", got[a.ID].DisplayName)
		require.Equal(t, "B", got[b.ID].DisplayName)
	})

	t.Run("display name update", func(t *testing.T) {
		require.NoError(t, profiles.UpdateDisplayName(ctx, a.ID, "Ada"))

		p, err := profiles.GetByUserID(ctx, a.ID)
		require.NoError(t, err)
		require.Equal(t, "Ada", p.DisplayName)

		require.ErrorIs(t, profiles.UpdateDisplayName(ctx, a.ID, "  "), ErrInvalidProfile)
	})

	t.Run("verified flag", func(t *testing.T) {
		require.NoError(t, profiles.SetVerified(ctx, b.ID, true))

		p, err := profiles.GetByUserID(ctx, b.ID)
		require.NoError(t, err)
		require.True(t, p.Verified)
	})
}
