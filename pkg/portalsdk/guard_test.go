package portalsdk

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecide(t *testing.T) {
	t.Parallel()

	identity := &Identity{UserID: "u1", Email: "u1@example.edu"}

	cases := []struct {
		name    string
		session Session
		req     Requirements
		want    Decision
	}{
		{
			name:    "loading always waits",
			session: Session{Loading: true},
			req:     Requirements{Admin: true},
			want:    DecisionWait,
		},
		{
			name:    "loading waits even with no requirements",
			session: Session{Loading: true},
			want:    DecisionWait,
		},
		{
			name:    "signed out goes to login",
			session: Session{},
			want:    DecisionRedirectLogin,
		},
		{
			name:    "signed out with requirements goes to login not home",
			session: Session{},
			req:     Requirements{Faculty: true},
			want:    DecisionRedirectLogin,
		},
		{
			name:    "signed in with no requirements allowed",
			session: Session{Identity: identity},
			want:    DecisionAllow,
		},
		{
			name:    "admin requirement unmet",
			session: Session{Identity: identity, Verified: true},
			req:     Requirements{Admin: true},
			want:    DecisionRedirectHome,
		},
		{
			name:    "admin requirement met",
			session: Session{Identity: identity, Administrator: true},
			req:     Requirements{Admin: true},
			want:    DecisionAllow,
		},
		{
			name:    "student council flag satisfies its requirement",
			session: Session{Identity: identity, StudentCouncil: true},
			req:     Requirements{StudentCouncil: true},
			want:    DecisionAllow,
		},
		{
			name:    "administrator overrides student council requirement",
			session: Session{Identity: identity, Administrator: true},
			req:     Requirements{StudentCouncil: true},
			want:    DecisionAllow,
		},
		{
			name:    "faculty without verified fails a verified route",
			session: Session{Identity: identity, Faculty: true},
			req:     Requirements{Faculty: true, Verified: true},
			want:    DecisionRedirectHome,
		},
		{
			name:    "faculty with verified passes a faculty+verified route",
			session: Session{Identity: identity, Faculty: true, Verified: true},
			req:     Requirements{Faculty: true, Verified: true},
			want:    DecisionAllow,
		},
		{
			name:    "administrator overrides every non-admin requirement at once",
			session: Session{Identity: identity, Administrator: true},
			req:     Requirements{StudentCouncil: true, Faculty: true, Verified: true},
			want:    DecisionAllow,
		},
		{
			name:    "student council flag does not satisfy admin requirement",
			session: Session{Identity: identity, StudentCouncil: true, Verified: true},
			req:     Requirements{Admin: true},
			want:    DecisionRedirectHome,
		},
		{
			name:    "verified alone fails a student council route",
			session: Session{Identity: identity, Verified: true},
			req:     Requirements{StudentCouncil: true},
			want:    DecisionRedirectHome,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, Decide(tc.session, tc.req))
		})
	}
}

func TestGuardWatchReactsToSessionChanges(t *testing.T) {
	t.Parallel()

	backend := newFakeBackend()
	backend.adminUsers["user-a@example.edu"] = true

	m := NewSessionManager(backend, nil)
	require.NoError(t, m.Initialize(t.Context()))
	defer m.Close()

	settled := make(chan Session, 16)
	unsubSettle := m.Subscribe(func(s Session) { settled <- s })
	defer unsubSettle()

	decisions := make(chan Decision, 16)
	guard := &Guard{Sessions: m}
	unsub := guard.Watch(Requirements{Admin: true}, func(d Decision) { decisions <- d })
	defer unsub()

	// Signed out at start.
	require.Equal(t, DecisionRedirectLogin, <-decisions)

	require.NoError(t, m.SignIn(t.Context(), "a@example.edu", "pw"))
	waitForSession(t, settled, func(s Session) bool { return s.Administrator })

	// Sign-in first re-enters loading, then resolves to allow.
	require.Equal(t, DecisionWait, <-decisions)
	require.Equal(t, DecisionAllow, <-decisions)

	// Revocation takes effect on the next auth event without a reload.
	require.NoError(t, m.SignOut(t.Context()))
	require.Equal(t, DecisionRedirectLogin, <-decisions)
}
