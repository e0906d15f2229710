package portalsdk

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSessionManagerSignInResolvesCapabilities(t *testing.T) {
	t.Parallel()

	backend := newFakeBackend()
	backend.profiles["user-chair@example.edu"] = Profile{
		UserID:      "user-chair@example.edu",
		DisplayName: "Council Chair",
		UserType:    UserTypeStudentCouncil,
		Verified:    true,
	}

	var routes []string
	m := NewSessionManager(backend, nil)
	m.Navigate = func(route string) { routes = append(routes, route) }
	require.NoError(t, m.Initialize(t.Context()))
	defer m.Close()

	require.False(t, m.Snapshot().Loading, "no stored identity settles immediately")
	require.False(t, m.Snapshot().SignedIn())

	updates := make(chan Session, 16)
	unsub := m.Subscribe(func(s Session) { updates <- s })
	defer unsub()

	require.NoError(t, m.SignIn(t.Context(), "chair@example.edu", "pw"))
	require.Equal(t, []string{RouteHome}, routes, "sign-in lands on the home route")

	// The identity is visible before capabilities resolve.
	got := waitForSession(t, updates, func(s Session) bool { return s.SignedIn() })
	require.Equal(t, "chair@example.edu", got.Identity.Email)

	got = waitForSession(t, updates, func(s Session) bool { return !s.Loading })
	require.True(t, got.StudentCouncil)
	require.True(t, got.Verified)
	require.False(t, got.Administrator)
	require.False(t, got.Faculty)
}

func TestSessionManagerSignOutClearsSynchronously(t *testing.T) {
	t.Parallel()

	backend := newFakeBackend()
	backend.adminUsers["user-root@example.edu"] = true

	var routes []string
	m := NewSessionManager(backend, nil)
	m.Navigate = func(route string) { routes = append(routes, route) }
	require.NoError(t, m.Initialize(t.Context()))
	defer m.Close()

	updates := make(chan Session, 16)
	unsub := m.Subscribe(func(s Session) { updates <- s })
	defer unsub()

	require.NoError(t, m.SignIn(t.Context(), "root@example.edu", "pw"))
	waitForSession(t, updates, func(s Session) bool { return s.Administrator })

	require.NoError(t, m.SignOut(t.Context()))

	// The backend callback completed before SignOut returned, so the
	// snapshot is already cleared with no flag left behind.
	got := m.Snapshot()
	require.False(t, got.SignedIn())
	require.False(t, got.Administrator)
	require.False(t, got.Loading)

	require.Equal(t, []string{RouteHome, RouteLogin}, routes)
}

func TestSessionManagerFailedSignInChangesNothing(t *testing.T) {
	t.Parallel()

	backend := newFakeBackend()
	backend.signInErr = ErrInvalidCredentials

	var navigated bool
	m := NewSessionManager(backend, nil)
	m.Navigate = func(string) { navigated = true }
	require.NoError(t, m.Initialize(t.Context()))
	defer m.Close()

	err := m.SignIn(t.Context(), "x@example.edu", "bad")
	require.ErrorIs(t, err, ErrInvalidCredentials, "backend error surfaces unmodified")
	require.False(t, navigated)
	require.False(t, m.Snapshot().SignedIn())
}

func TestSessionManagerRoleLookupFailsClosed(t *testing.T) {
	t.Parallel()

	backend := newFakeBackend()
	backend.adminUsers["user-dean@example.edu"] = true
	backend.adminErr = errors.New("role store unreachable")

	m := NewSessionManager(backend, nil)
	require.NoError(t, m.Initialize(t.Context()))
	defer m.Close()

	updates := make(chan Session, 16)
	unsub := m.Subscribe(func(s Session) { updates <- s })
	defer unsub()

	require.NoError(t, m.SignIn(t.Context(), "dean@example.edu", "pw"))

	got := waitForSession(t, updates, func(s Session) bool { return !s.Loading })
	require.True(t, got.SignedIn(), "user keeps basic access")
	require.False(t, got.Administrator, "capability stays off when its lookup fails")
}

func TestSessionManagerMissingProfileIsNormal(t *testing.T) {
	t.Parallel()

	backend := newFakeBackend()

	m := NewSessionManager(backend, nil)
	require.NoError(t, m.Initialize(t.Context()))
	defer m.Close()

	updates := make(chan Session, 16)
	unsub := m.Subscribe(func(s Session) { updates <- s })
	defer unsub()

	require.NoError(t, m.SignIn(t.Context(), "ghost@example.edu", "pw"))

	got := waitForSession(t, updates, func(s Session) bool { return !s.Loading })
	require.True(t, got.SignedIn())
	require.False(t, got.StudentCouncil)
	require.False(t, got.Faculty)
	require.False(t, got.Verified)
}

func TestSessionManagerLatestAuthEventWins(t *testing.T) {
	t.Parallel()

	backend := newFakeBackend()
	backend.adminUsers["user-a@example.edu"] = true

	m := NewSessionManager(backend, nil)
	require.NoError(t, m.Initialize(t.Context()))
	defer m.Close()

	updates := make(chan Session, 16)
	unsub := m.Subscribe(func(s Session) { updates <- s })
	defer unsub()

	require.NoError(t, m.SignIn(t.Context(), "a@example.edu", "pw"))
	// Sign out before the resolution for user A necessarily applied.
	require.NoError(t, m.SignOut(t.Context()))

	got := m.Snapshot()
	require.False(t, got.SignedIn())
	require.False(t, got.Administrator)

	// A stale resolution from the first sign-in must not resurface later.
	m.resolveRoles(t.Context(), 1, Identity{UserID: "user-a@example.edu", Email: "a@example.edu"})
	require.False(t, m.Snapshot().SignedIn())
}

func TestSessionManagerInitializeRestoresIdentity(t *testing.T) {
	t.Parallel()

	backend := newFakeBackend()
	identity := Identity{UserID: "user-kept", Email: "kept@example.edu"}
	backend.identity = &identity
	backend.profiles["user-kept"] = Profile{
		UserID:   "user-kept",
		UserType: UserTypeFaculty,
		Verified: true,
	}

	m := NewSessionManager(backend, nil)
	require.NoError(t, m.Initialize(t.Context()))
	defer m.Close()

	got := m.Snapshot()
	require.False(t, got.Loading)
	require.True(t, got.SignedIn())
	require.Equal(t, "kept@example.edu", got.Identity.Email)
	require.True(t, got.Faculty)
	require.True(t, got.Verified)
}
