package portalsdk

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// User types carried on profiles.
const (
	UserTypeStudent        = "student"
	UserTypeFaculty        = "faculty"
	UserTypeStudentCouncil = "student_council"
)

// Routes the session manager navigates to.
const (
	RouteHome  = "/"
	RouteLogin = "/auth"
)

// SessionManager tracks who is signed in and what they may do. It is an
// explicit object: construct one per frontend and pass it where needed.
//
// Capability flags are resolved from the backend after every sign-in, off
// the auth-change callback, so a slow role lookup never blocks the event
// source. Until resolution completes the session reports Loading and guards
// hold their routes.
type SessionManager struct {
	// Navigate is invoked with the target route after a successful sign-in,
	// sign-up or sign-out. Set before Initialize; a nil hook is a no-op.
	Navigate func(route string)

	backend Backend
	logger  *slog.Logger

	mu          sync.Mutex
	session     Session
	generation  uint64
	subs        map[int]func(Session)
	nextSubID   int
	unsubscribe func()

	ctx context.Context
}

// NewSessionManager creates a SessionManager. The session starts in the
// Loading state until Initialize resolves it.
func NewSessionManager(backend Backend, logger *slog.Logger) *SessionManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionManager{
		backend: backend,
		logger:  logger,
		session: Session{Loading: true},
		subs:    make(map[int]func(Session)),
	}
}

// Initialize performs the one-shot restore of any existing identity and
// registers the standing auth-change subscription. ctx bounds the lifetime
// of deferred role resolutions.
func (m *SessionManager) Initialize(ctx context.Context) error {
	m.mu.Lock()
	m.ctx = ctx
	m.mu.Unlock()

	m.unsubscribe = m.backend.OnAuthChange(m.handleAuthChange)

	identity, err := m.backend.CurrentIdentity(ctx)
	if err != nil {
		// Cannot know who is signed in: settle as signed out so guards
		// stop waiting.
		m.logger.Warn("session restore failed", "err", err)
		m.setSignedOut()
		return err
	}

	if identity == nil {
		m.setSignedOut()
		return nil
	}

	m.mu.Lock()
	m.generation++
	gen := m.generation
	m.session = Session{Identity: identity, Loading: true}
	subs := m.subscribersLocked()
	snapshot := m.session
	m.mu.Unlock()
	notify(subs, snapshot)

	m.resolveRoles(ctx, gen, *identity)
	return nil
}

// Close drops the auth-change subscription. In-flight role resolutions
// apply nothing afterwards.
func (m *SessionManager) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}

	m.mu.Lock()
	m.generation++
	m.mu.Unlock()
}

// Snapshot returns the current session state.
func (m *SessionManager) Snapshot() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// Subscribe registers fn to run after every session change. It returns an
// unsubscribe func. fn runs outside the manager's lock; it may call
// Snapshot but must not block.
func (m *SessionManager) Subscribe(fn func(Session)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextSubID
	m.nextSubID++
	m.subs[id] = fn

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

// SignIn authenticates and, on success, navigates to the landing route.
// Backend errors surface unmodified so the caller can present them.
func (m *SessionManager) SignIn(ctx context.Context, email, password string) error {
	if _, err := m.backend.SignIn(ctx, email, password); err != nil {
		return err
	}
	m.navigateTo(RouteHome)
	return nil
}

// SignUp registers an account and, on success, navigates to the landing
// route. The new profile is written unverified.
func (m *SessionManager) SignUp(ctx context.Context, email, password string, profile NewProfile) error {
	if _, err := m.backend.SignUp(ctx, email, password, profile); err != nil {
		return err
	}
	m.navigateTo(RouteHome)
	return nil
}

// SignOut clears the session and navigates to the login route.
func (m *SessionManager) SignOut(ctx context.Context) error {
	if err := m.backend.SignOut(ctx); err != nil {
		return err
	}
	m.navigateTo(RouteLogin)
	return nil
}

// handleAuthChange reacts to backend auth transitions. Sign-out clears
// synchronously; sign-in publishes the identity immediately and defers the
// capability lookups to a separate goroutine, so this callback never
// re-enters the backend.
func (m *SessionManager) handleAuthChange(ch AuthChange) {
	if ch.Identity == nil {
		m.setSignedOut()
		return
	}

	m.mu.Lock()
	m.generation++
	gen := m.generation
	ctx := m.ctx
	m.session = Session{Identity: ch.Identity, Loading: true}
	subs := m.subscribersLocked()
	snapshot := m.session
	m.mu.Unlock()
	notify(subs, snapshot)

	if ctx == nil {
		ctx = context.Background()
	}
	go m.resolveRoles(ctx, gen, *ch.Identity)
}

// resolveRoles performs the two capability lookups for one sign-in. Lookup
// failures fail closed: the capability stays false and the user keeps basic
// access. The generation check makes the latest auth event win: a resolution
// that started before a newer sign-in or sign-out applies nothing.
func (m *SessionManager) resolveRoles(ctx context.Context, gen uint64, identity Identity) {
	admin, err := m.backend.AdminRoleExists(ctx, identity.UserID)
	if err != nil {
		m.logger.Warn("admin role lookup failed", "user_id", identity.UserID, "err", err)
		admin = false
	}

	var studentCouncil, faculty, verified bool
	profile, err := m.backend.ProfileByUser(ctx, identity.UserID)
	switch {
	case err == nil:
		studentCouncil = profile.UserType == UserTypeStudentCouncil
		faculty = profile.UserType == UserTypeFaculty
		verified = profile.Verified
	case errors.Is(err, ErrNotFound):
		// No profile row is a normal "no capabilities".
	default:
		m.logger.Warn("profile lookup failed", "user_id", identity.UserID, "err", err)
	}

	m.mu.Lock()
	if gen != m.generation {
		m.mu.Unlock()
		return
	}
	m.session = Session{
		Identity:       &identity,
		Administrator:  admin,
		StudentCouncil: studentCouncil,
		Faculty:        faculty,
		Verified:       verified,
		Loading:        false,
	}
	subs := m.subscribersLocked()
	snapshot := m.session
	m.mu.Unlock()
	notify(subs, snapshot)
}

func (m *SessionManager) setSignedOut() {
	m.mu.Lock()
	m.generation++
	m.session = Session{}
	subs := m.subscribersLocked()
	snapshot := m.session
	m.mu.Unlock()
	notify(subs, snapshot)
}

func (m *SessionManager) navigateTo(route string) {
	if m.Navigate != nil {
		m.Navigate(route)
	}
}

func (m *SessionManager) subscribersLocked() []func(Session) {
	subs := make([]func(Session), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	return subs
}

func notify(subs []func(Session), s Session) {
	for _, fn := range subs {
		fn(s)
	}
}
