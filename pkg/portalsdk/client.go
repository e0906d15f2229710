package portalsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Client is an HTTP client for the portal service implementing Backend. It
// holds the access token for the signed-in user and is the source of
// authentication-state change notifications: callbacks registered with
// OnAuthChange fire after the client's own sign-in, sign-up and sign-out
// operations complete.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	mu          sync.Mutex
	accessToken string
	identity    *Identity
	authSubs    map[int]func(AuthChange)
	nextSubID   int
}

// NewClient creates a portal client.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		authSubs: make(map[int]func(AuthChange)),
	}
}

var _ Backend = (*Client)(nil)

// SignIn exchanges credentials for an access token and notifies auth-change
// subscribers.
func (c *Client) SignIn(ctx context.Context, email, password string) (Identity, error) {
	body, err := json.Marshal(TokenRequest{Email: email, Password: password})
	if err != nil {
		return Identity{}, fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/auth/token", bytes.NewReader(body), nil)
	if err != nil {
		return Identity{}, err
	}

	var tokenResp TokenResponse
	if err := decodeJSON(resp, &tokenResp, http.StatusOK); err != nil {
		return Identity{}, err
	}

	return c.setSignedIn(tokenResp), nil
}

// SignUp registers an account (profile written unverified) and signs it in.
func (c *Client) SignUp(ctx context.Context, email, password string, profile NewProfile) (Identity, error) {
	body, err := json.Marshal(SignUpRequest{
		Email:       email,
		Password:    password,
		DisplayName: profile.DisplayName,
		UserType:    profile.UserType,
		College:     profile.College,
	})
	if err != nil {
		return Identity{}, fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/auth/signup", bytes.NewReader(body), nil)
	if err != nil {
		return Identity{}, err
	}

	var tokenResp TokenResponse
	if err := decodeJSON(resp, &tokenResp, http.StatusCreated); err != nil {
		return Identity{}, err
	}

	return c.setSignedIn(tokenResp), nil
}

// SignOut discards the held credentials and notifies subscribers. The access
// token is stateless, so no server call is needed; it simply ages out.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	c.accessToken = ""
	c.identity = nil
	subs := c.subscribersLocked()
	c.mu.Unlock()

	for _, fn := range subs {
		fn(AuthChange{Identity: nil})
	}
	return nil
}

// CurrentIdentity returns the identity held by the client, or nil when
// signed out.
func (c *Client) CurrentIdentity(ctx context.Context) (*Identity, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.identity == nil {
		return nil, nil
	}
	id := *c.identity
	return &id, nil
}

// OnAuthChange registers a callback fired after every sign-in, sign-up and
// sign-out. It returns an unsubscribe func.
func (c *Client) OnAuthChange(fn func(AuthChange)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSubID
	c.nextSubID++
	c.authSubs[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.authSubs, id)
	}
}

func (c *Client) setSignedIn(tokenResp TokenResponse) Identity {
	identity := Identity{UserID: tokenResp.UserID, Email: tokenResp.Email}

	c.mu.Lock()
	c.accessToken = tokenResp.AccessToken
	c.identity = &identity
	subs := c.subscribersLocked()
	c.mu.Unlock()

	id := identity
	for _, fn := range subs {
		fn(AuthChange{Identity: &id})
	}
	return identity
}

// subscribersLocked snapshots the callback set so callbacks run without
// holding the mutex.
func (c *Client) subscribersLocked() []func(AuthChange) {
	subs := make([]func(AuthChange), 0, len(c.authSubs))
	for _, fn := range c.authSubs {
		subs = append(subs, fn)
	}
	return subs
}

// AdminRoleExists reports whether userID holds the administrator role.
func (c *Client) AdminRoleExists(ctx context.Context, userID string) (bool, error) {
	resp, err := c.doAuthRequest(ctx, http.MethodGet, "/v1/users/"+userID+"/role", nil)
	if err != nil {
		return false, err
	}

	var roleResp RoleResponse
	if err := decodeJSON(resp, &roleResp, http.StatusOK); err != nil {
		return false, err
	}
	return roleResp.Administrator, nil
}

// ProfileByUser fetches one profile.
func (c *Client) ProfileByUser(ctx context.Context, userID string) (Profile, error) {
	resp, err := c.doAuthRequest(ctx, http.MethodGet, "/v1/profiles/"+userID, nil)
	if err != nil {
		return Profile{}, err
	}

	var profileResp ProfileResponse
	if err := decodeJSON(resp, &profileResp, http.StatusOK); err != nil {
		return Profile{}, err
	}
	return profileFromResponse(profileResp), nil
}

// ProfilesByIDs fetches profiles in one batch. Missing ids are absent from
// the result.
func (c *Client) ProfilesByIDs(ctx context.Context, userIDs []string) (map[string]Profile, error) {
	body, err := json.Marshal(ProfileLookupRequest{UserIDs: userIDs})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := c.doAuthRequest(ctx, http.MethodPost, "/v1/profiles/lookup", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var lookupResp ProfileLookupResponse
	if err := decodeJSON(resp, &lookupResp, http.StatusOK); err != nil {
		return nil, err
	}

	profiles := make(map[string]Profile, len(lookupResp.Profiles))
	for id, p := range lookupResp.Profiles {
		profiles[id] = profileFromResponse(p)
	}
	return profiles, nil
}

// UpdateProfile changes the signed-in user's display name.
func (c *Client) UpdateProfile(ctx context.Context, displayName string) error {
	body, err := json.Marshal(ProfileUpdateRequest{DisplayName: displayName})
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := c.doAuthRequest(ctx, http.MethodPatch, "/v1/profiles/me", bytes.NewReader(body))
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

// LikeExists reports whether the signed-in user likes postID.
func (c *Client) LikeExists(ctx context.Context, postID string) (bool, error) {
	resp, err := c.doAuthRequest(ctx, http.MethodGet, "/v1/posts/"+postID+"/likes/me", nil)
	if err != nil {
		return false, err
	}

	var state LikeStateResponse
	if err := decodeJSON(resp, &state, http.StatusOK); err != nil {
		return false, err
	}
	return state.Liked, nil
}

// LikeCount returns the authoritative like count for a post.
func (c *Client) LikeCount(ctx context.Context, postID string) (int, error) {
	return c.fetchCount(ctx, "/v1/posts/"+postID+"/likes/count")
}

// CommentCount returns the authoritative comment count for a post.
func (c *Client) CommentCount(ctx context.Context, postID string) (int, error) {
	return c.fetchCount(ctx, "/v1/posts/"+postID+"/comments/count")
}

func (c *Client) fetchCount(ctx context.Context, path string) (int, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return 0, err
	}

	var count CountResponse
	if err := decodeJSON(resp, &count, http.StatusOK); err != nil {
		return 0, err
	}
	return count.Count, nil
}

// CommentsByPost returns a post's comments, oldest first.
func (c *Client) CommentsByPost(ctx context.Context, postID string) ([]Comment, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/v1/posts/"+postID+"/comments", nil, nil)
	if err != nil {
		return nil, err
	}

	var list CommentListResponse
	if err := decodeJSON(resp, &list, http.StatusOK); err != nil {
		return nil, err
	}

	comments := make([]Comment, 0, len(list.Comments))
	for _, cr := range list.Comments {
		comments = append(comments, Comment{
			ID:        cr.ID,
			PostID:    cr.PostID,
			UserID:    cr.UserID,
			Body:      cr.Body,
			CreatedAt: cr.CreatedAt,
		})
	}
	return comments, nil
}

// InsertLike records the signed-in user's like on a post.
func (c *Client) InsertLike(ctx context.Context, postID string) error {
	resp, err := c.doAuthRequest(ctx, http.MethodPut, "/v1/posts/"+postID+"/likes/me", nil)
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

// DeleteLike removes the signed-in user's like from a post.
func (c *Client) DeleteLike(ctx context.Context, postID string) error {
	resp, err := c.doAuthRequest(ctx, http.MethodDelete, "/v1/posts/"+postID+"/likes/me", nil)
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

// InsertComment appends a comment to a post's thread.
func (c *Client) InsertComment(ctx context.Context, postID, body string) (Comment, error) {
	reqBody, err := json.Marshal(CommentCreateRequest{Body: body})
	if err != nil {
		return Comment{}, fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := c.doAuthRequest(ctx, http.MethodPost, "/v1/posts/"+postID+"/comments", bytes.NewReader(reqBody))
	if err != nil {
		return Comment{}, err
	}

	var created CommentResponse
	if err := decodeJSON(resp, &created, http.StatusCreated); err != nil {
		return Comment{}, err
	}
	return Comment{
		ID:        created.ID,
		PostID:    created.PostID,
		UserID:    created.UserID,
		Body:      created.Body,
		CreatedAt: created.CreatedAt,
	}, nil
}

func profileFromResponse(p ProfileResponse) Profile {
	return Profile{
		UserID:      p.UserID,
		DisplayName: p.DisplayName,
		UserType:    p.UserType,
		College:     p.College,
		Verified:    p.Verified,
	}
}
