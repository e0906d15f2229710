package portalsdk

import "context"

// AuthChange describes one authentication-state transition.
type AuthChange struct {
	// Identity is the newly signed-in principal, or nil on sign-out.
	Identity *Identity
}

// Backend is the portal surface the SDK components are built against. The
// HTTP *Client implements it; tests substitute fakes.
type Backend interface {
	// SignIn exchanges credentials for an authenticated identity. Auth-change
	// subscribers are notified after the exchange completes.
	SignIn(ctx context.Context, email, password string) (Identity, error)

	// SignUp registers a new account with its profile (written unverified)
	// and signs it in.
	SignUp(ctx context.Context, email, password string, profile NewProfile) (Identity, error)

	// SignOut discards the current credentials. Always succeeds locally.
	SignOut(ctx context.Context) error

	// CurrentIdentity returns the identity held by the backend, or nil when
	// signed out.
	CurrentIdentity(ctx context.Context) (*Identity, error)

	// OnAuthChange registers a callback fired after every sign-in, sign-up
	// and sign-out. It returns an unsubscribe func.
	OnAuthChange(fn func(AuthChange)) (unsubscribe func())

	// AdminRoleExists reports whether userID holds the administrator role.
	AdminRoleExists(ctx context.Context, userID string) (bool, error)

	// ProfileByUser fetches one profile. Missing profiles return ErrNotFound.
	ProfileByUser(ctx context.Context, userID string) (Profile, error)

	// ProfilesByIDs fetches profiles in one batch. Missing ids are absent
	// from the result, never an error.
	ProfilesByIDs(ctx context.Context, userIDs []string) (map[string]Profile, error)

	// UpdateProfile changes the signed-in user's display name.
	UpdateProfile(ctx context.Context, displayName string) error

	LikeExists(ctx context.Context, postID string) (bool, error)
	LikeCount(ctx context.Context, postID string) (int, error)
	CommentCount(ctx context.Context, postID string) (int, error)
	CommentsByPost(ctx context.Context, postID string) ([]Comment, error)

	InsertLike(ctx context.Context, postID string) error
	DeleteLike(ctx context.Context, postID string) error
	InsertComment(ctx context.Context, postID, body string) (Comment, error)

	// SubscribeChanges opens a change stream for one post, filtered to the
	// given tables.
	SubscribeChanges(ctx context.Context, postID string, tables ...string) (ChangeStream, error)
}
