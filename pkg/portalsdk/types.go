package portalsdk

import "time"

// ============================================================================
// Wire Types (shared between the portal HTTP API and the SDK client)
// ============================================================================

// SignUpRequest is the body of POST /v1/auth/signup.
type SignUpRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	UserType    string `json:"user_type"`
	College     string `json:"college,omitempty"`
}

// TokenRequest is the body of POST /v1/auth/token.
type TokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse is returned by signup and token endpoints.
type TokenResponse struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// IdentityResponse is returned by GET /v1/auth/me.
type IdentityResponse struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// RoleResponse is returned by GET /v1/users/{id}/role.
type RoleResponse struct {
	UserID        string `json:"user_id"`
	Administrator bool   `json:"administrator"`
}

// ProfileResponse is a single profile row.
type ProfileResponse struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	UserType    string `json:"user_type"`
	College     string `json:"college,omitempty"`
	Verified    bool   `json:"verified"`
}

// ProfileLookupRequest is the body of POST /v1/profiles/lookup.
type ProfileLookupRequest struct {
	UserIDs []string `json:"user_ids"`
}

// ProfileLookupResponse maps user ids to their profiles. Missing ids are
// simply absent.
type ProfileLookupResponse struct {
	Profiles map[string]ProfileResponse `json:"profiles"`
}

// ProfileUpdateRequest is the body of PATCH /v1/profiles/me.
type ProfileUpdateRequest struct {
	DisplayName string `json:"display_name"`
}

// VerifiedUpdateRequest is the body of PUT /v1/profiles/{id}/verified.
type VerifiedUpdateRequest struct {
	Verified bool `json:"verified"`
}

// LikeStateResponse is returned by GET /v1/posts/{id}/likes/me.
type LikeStateResponse struct {
	Liked bool `json:"liked"`
}

// CountResponse is returned by the like/comment count endpoints.
type CountResponse struct {
	Count int `json:"count"`
}

// CommentResponse is a single comment row.
type CommentResponse struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	UserID    string    `json:"user_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// CommentListResponse is returned by GET /v1/posts/{id}/comments.
type CommentListResponse struct {
	Comments []CommentResponse `json:"comments"`
}

// CommentCreateRequest is the body of POST /v1/posts/{id}/comments.
type CommentCreateRequest struct {
	Body string `json:"body"`
}

// PostResponse is a single feed post.
type PostResponse struct {
	ID          string    `json:"id"`
	Publication string    `json:"publication,omitempty"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Author      string    `json:"author"`
	CreatedAt   time.Time `json:"created_at"`
}

// PostListResponse is returned by GET /v1/posts.
type PostListResponse struct {
	Posts []PostResponse `json:"posts"`
}

// PostCreateRequest is the body of POST /v1/posts.
type PostCreateRequest struct {
	Publication string `json:"publication,omitempty"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	Author      string `json:"author"`
}

// HealthResponse is returned by the livez and readyz endpoints.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports per-dependency readiness.
type HealthChecks struct {
	Database string `json:"database"`
}

// ChangeEvent is one realtime change notification delivered on a post's
// change stream. Events carry no row data: receivers re-fetch authoritative
// state, so a dropped or duplicated event is harmless.
type ChangeEvent struct {
	Table  string    `json:"table"`
	Op     string    `json:"op"`
	PostID string    `json:"post_id"`
	UserID string    `json:"user_id,omitempty"`
	At     time.Time `json:"at"`
}

// Tables carried on change streams.
const (
	TableLikes    = "post_likes"
	TableComments = "post_comments"
)

// ============================================================================
// SDK Types
// ============================================================================

// Identity is the authenticated principal.
type Identity struct {
	UserID string
	Email  string
}

// Profile is a user's portal profile.
type Profile struct {
	UserID      string
	DisplayName string
	UserType    string
	College     string
	Verified    bool
}

// NewProfile carries the profile fields collected at sign-up.
type NewProfile struct {
	DisplayName string
	UserType    string
	College     string
}

// Session is a snapshot of the authentication and authorization state.
// Capability flags are only meaningful once Loading is false.
type Session struct {
	Identity       *Identity
	Administrator  bool
	StudentCouncil bool
	Faculty        bool
	Verified       bool
	Loading        bool
}

// SignedIn reports whether the snapshot carries an identity.
func (s Session) SignedIn() bool { return s.Identity != nil }

// Requirements declares which capabilities a route demands.
type Requirements struct {
	Admin          bool
	StudentCouncil bool
	Faculty        bool
	Verified       bool
}

// Comment is one thread entry.
type Comment struct {
	ID        string
	PostID    string
	UserID    string
	Body      string
	CreatedAt time.Time
}

// CommentView is a comment joined with its author's display name.
type CommentView struct {
	Comment
	AuthorName string
}

// ChangeStream is a live feed of change events for one post. Events() is
// closed when the stream ends; Close releases the underlying subscription
// and is safe to call more than once.
type ChangeStream interface {
	Events() <-chan ChangeEvent
	Close() error
}
