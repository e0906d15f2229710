package store

import (
	"context"
	"errors"

	"github.com/laeyue/msu-iit-connect/internal/portal/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite for now)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable, and to actively stop people from accidentally doing transactions
// within transactions.
type Store interface {
	Users() Users
	Profiles() Profiles
	Roles() Roles
	Posts() Posts
	Likes() Likes
	Comments() Comments

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail is used during sign-in.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by app via ULID).
	// Returns ErrAlreadyExists when the email is taken.
	CreateUser(ctx context.Context, u domain.User) error
}

type Profiles interface {
	// GetProfileByUserID returns the profile for a user or ErrNotFound.
	GetProfileByUserID(ctx context.Context, userID string) (domain.Profile, error)

	// GetProfilesByUserIDs resolves a batch of user ids in one query. Missing
	// profiles are simply absent from the result map, not an error.
	GetProfilesByUserIDs(ctx context.Context, userIDs []string) (map[string]domain.Profile, error)

	// CreateProfile inserts the profile row written at sign-up.
	CreateProfile(ctx context.Context, p domain.Profile) error

	// UpdateDisplayName mutates display_name and bumps updated_at.
	UpdateDisplayName(ctx context.Context, userID, displayName string) error

	// SetVerified flips the verified flag (administrator action).
	SetVerified(ctx context.Context, userID string, verified bool) error
}

type Roles interface {
	// GetAssignment returns the user's row for one role or ErrNotFound when
	// the user does not hold it.
	GetAssignment(ctx context.Context, userID string, role domain.Role) (domain.RoleAssignment, error)

	// GrantRole inserts a role row for a user.
	GrantRole(ctx context.Context, a domain.RoleAssignment) error

	// RevokeRole removes the role row for a user.
	RevokeRole(ctx context.Context, userID string, role domain.Role) error
}

type Posts interface {
	// GetPostByID returns a post by id.
	GetPostByID(ctx context.Context, id string) (domain.Post, error)

	// ListPosts returns posts newest first, the order the feed renders.
	ListPosts(ctx context.Context) ([]domain.Post, error)

	// CreatePost inserts a feed post.
	CreatePost(ctx context.Context, p domain.Post) error
}

type Likes interface {
	// LikeExists reports whether the (post, user) pair exists.
	LikeExists(ctx context.Context, postID, userID string) (bool, error)

	// CountLikes returns the authoritative like count for a post.
	CountLikes(ctx context.Context, postID string) (int, error)

	// CreateLike inserts the pair; ErrAlreadyExists on the uniqueness
	// constraint so a raced double-like cannot double-count.
	CreateLike(ctx context.Context, l domain.Like) error

	// DeleteLike removes the pair; ErrNotFound when it does not exist.
	DeleteLike(ctx context.Context, postID, userID string) error
}

type Comments interface {
	// CreateComment inserts a comment (id is ULID).
	CreateComment(ctx context.Context, c domain.Comment) error

	// CountComments returns the authoritative comment count for a post.
	CountComments(ctx context.Context, postID string) (int, error)

	// ListCommentsByPost returns all comments for a post ordered by
	// created_at ascending.
	ListCommentsByPost(ctx context.Context, postID string) ([]domain.Comment, error)
}
