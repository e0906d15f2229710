package portalsdk

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

// fakeBackend is an in-memory Backend. Behavior hooks replace individual
// operations per test; everything else falls back to the stored state.
type fakeBackend struct {
	mu       sync.Mutex
	identity *Identity
	subs     map[int]func(AuthChange)
	nextSub  int

	adminUsers map[string]bool
	profiles   map[string]Profile

	likeCount    int
	commentCount int
	liked        bool
	comments     []Comment

	stream         *fakeStream
	subscribeCount int

	signInErr        error
	adminErr         error
	profileErr       error
	insertLikeErr    error
	deleteLikeErr    error
	insertCommentErr error

	// insertLikeStarted, when non-nil, receives once per InsertLike call
	// before insertLikeGate is awaited. Lets tests hold a mutation open.
	insertLikeStarted chan struct{}
	insertLikeGate    chan struct{}
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		subs:       make(map[int]func(AuthChange)),
		adminUsers: make(map[string]bool),
		profiles:   make(map[string]Profile),
		stream:     newFakeStream(),
	}
}

func (f *fakeBackend) SignIn(ctx context.Context, email, password string) (Identity, error) {
	if f.signInErr != nil {
		return Identity{}, f.signInErr
	}

	identity := Identity{UserID: "user-" + email, Email: email}
	f.mu.Lock()
	f.identity = &identity
	subs := f.snapshotSubs()
	f.mu.Unlock()

	id := identity
	for _, fn := range subs {
		fn(AuthChange{Identity: &id})
	}
	return identity, nil
}

func (f *fakeBackend) SignUp(ctx context.Context, email, password string, profile NewProfile) (Identity, error) {
	identity, err := f.SignIn(ctx, email, password)
	if err != nil {
		return Identity{}, err
	}

	f.mu.Lock()
	f.profiles[identity.UserID] = Profile{
		UserID:      identity.UserID,
		DisplayName: profile.DisplayName,
		UserType:    profile.UserType,
		College:     profile.College,
		Verified:    false,
	}
	f.mu.Unlock()
	return identity, nil
}

func (f *fakeBackend) SignOut(ctx context.Context) error {
	f.mu.Lock()
	f.identity = nil
	subs := f.snapshotSubs()
	f.mu.Unlock()

	for _, fn := range subs {
		fn(AuthChange{Identity: nil})
	}
	return nil
}

func (f *fakeBackend) CurrentIdentity(ctx context.Context) (*Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.identity == nil {
		return nil, nil
	}
	id := *f.identity
	return &id, nil
}

func (f *fakeBackend) OnAuthChange(fn func(AuthChange)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.nextSub
	f.nextSub++
	f.subs[id] = fn

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs, id)
	}
}

func (f *fakeBackend) snapshotSubs() []func(AuthChange) {
	subs := make([]func(AuthChange), 0, len(f.subs))
	for _, fn := range f.subs {
		subs = append(subs, fn)
	}
	return subs
}

func (f *fakeBackend) AdminRoleExists(ctx context.Context, userID string) (bool, error) {
	if f.adminErr != nil {
		return false, f.adminErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.adminUsers[userID], nil
}

func (f *fakeBackend) ProfileByUser(ctx context.Context, userID string) (Profile, error) {
	if f.profileErr != nil {
		return Profile{}, f.profileErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.profiles[userID]
	if !ok {
		return Profile{}, ErrNotFound
	}
	return p, nil
}

func (f *fakeBackend) ProfilesByIDs(ctx context.Context, userIDs []string) (map[string]Profile, error) {
	if f.profileErr != nil {
		return nil, f.profileErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	out := make(map[string]Profile)
	for _, id := range userIDs {
		if p, ok := f.profiles[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (f *fakeBackend) UpdateProfile(ctx context.Context, displayName string) error {
	return nil
}

func (f *fakeBackend) LikeExists(ctx context.Context, postID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.liked, nil
}

func (f *fakeBackend) LikeCount(ctx context.Context, postID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.likeCount, nil
}

func (f *fakeBackend) CommentCount(ctx context.Context, postID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.commentCount, nil
}

func (f *fakeBackend) CommentsByPost(ctx context.Context, postID string) ([]Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Comment(nil), f.comments...), nil
}

func (f *fakeBackend) InsertLike(ctx context.Context, postID string) error {
	if f.insertLikeStarted != nil {
		f.insertLikeStarted <- struct{}{}
		<-f.insertLikeGate
	}
	if f.insertLikeErr != nil {
		return f.insertLikeErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.likeCount++
	f.liked = true
	return nil
}

func (f *fakeBackend) DeleteLike(ctx context.Context, postID string) error {
	if f.deleteLikeErr != nil {
		return f.deleteLikeErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.likeCount > 0 {
		f.likeCount--
	}
	f.liked = false
	return nil
}

func (f *fakeBackend) InsertComment(ctx context.Context, postID, body string) (Comment, error) {
	if f.insertCommentErr != nil {
		return Comment{}, f.insertCommentErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	c := Comment{
		ID:        fmt.Sprintf("c%d", len(f.comments)+1),
		PostID:    postID,
		UserID:    "user-author",
		Body:      body,
		CreatedAt: time.Now(),
	}
	f.comments = append(f.comments, c)
	f.commentCount++
	return c, nil
}

// SubscribeChanges hands out the scripted stream, replacing it with a fresh
// one on reconnects so tests can end a stream and watch it reopen.
func (f *fakeBackend) SubscribeChanges(ctx context.Context, postID string, tables ...string) (ChangeStream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.subscribeCount++
	if f.subscribeCount > 1 {
		f.stream = newFakeStream()
	}
	return f.stream, nil
}

func (f *fakeBackend) currentStream() *fakeStream {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stream
}

func (f *fakeBackend) subscribeCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subscribeCount
}

// fakeStream is a scripted ChangeStream: tests push events with emit.
type fakeStream struct {
	ch chan ChangeEvent

	mu     sync.Mutex
	closed bool
}

func newFakeStream() *fakeStream {
	return &fakeStream{ch: make(chan ChangeEvent, 16)}
}

func (s *fakeStream) Events() <-chan ChangeEvent { return s.ch }

func (s *fakeStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		close(s.ch)
	}
	return nil
}

func (s *fakeStream) emit(ev ChangeEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.ch <- ev
	}
}

func (s *fakeStream) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// signedInSessions returns a SessionManager already resolved for a plain
// signed-in user.
func signedInSessions(t *testing.T, backend *fakeBackend) *SessionManager {
	t.Helper()

	m := NewSessionManager(backend, nil)
	if err := m.Initialize(t.Context()); err != nil {
		t.Fatalf("initialize sessions: %v", err)
	}
	t.Cleanup(m.Close)

	settled := make(chan Session, 16)
	unsub := m.Subscribe(func(s Session) { settled <- s })
	defer unsub()

	if err := m.SignIn(t.Context(), "a@example.edu", "pw"); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	waitForSession(t, settled, func(s Session) bool {
		return s.SignedIn() && !s.Loading
	})
	return m
}

// waitForSession drains updates until cond matches or the deadline passes.
func waitForSession(t *testing.T, updates <-chan Session, cond func(Session) bool) Session {
	t.Helper()

	deadline := time.After(time.Second)
	for {
		select {
		case s := <-updates:
			if cond(s) {
				return s
			}
		case <-deadline:
			t.Fatal("timed out waiting for session state")
			return Session{}
		}
	}
}
