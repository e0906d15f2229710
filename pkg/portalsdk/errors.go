package portalsdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/laeyue/msu-iit-connect/pkg/httpx"
)

// Error codes reported by the portal API.
const (
	ErrorCodeInvalidRequest     = "invalid_request"
	ErrorCodeInvalidCredentials = "invalid_credentials"
	ErrorCodeEmailTaken         = "email_taken"
	ErrorCodeInvalidToken       = "invalid_token"
	ErrorCodeNotFound           = "not_found"
	ErrorCodeAlreadyLiked       = "already_liked"
	ErrorCodeNotLiked           = "not_liked"
	ErrorCodeEmptyComment       = "empty_comment"
	ErrorCodeServerError        = "server_error"
)

// APIError is a failure reported by the portal API. It is used both by the
// server (to write HTTP error responses) and by the SDK client (to represent
// decoded errors).
type APIError struct {
	// StatusCode is the HTTP status code for this error.
	StatusCode int `json:"-"`

	// Code is the machine-readable error code.
	Code string `json:"error"`

	// Description is a human-readable description of the error.
	Description string `json:"error_description"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// WriteError writes this APIError to an HTTP response writer.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             e.Code,
		"error_description": e.Description,
	})
}

// Is makes errors.Is match two APIErrors with the same code, so callers can
// compare a decoded error against the predefined values below.
func (e *APIError) Is(target error) bool {
	var apiErr *APIError
	if !errors.As(target, &apiErr) {
		return false
	}
	return e.Code == apiErr.Code
}

// Predefined API errors.
var (
	ErrInvalidRequest = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "the request is malformed or missing required parameters",
	}

	ErrInvalidCredentials = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidCredentials,
		Description: "invalid email or password",
	}

	ErrEmailTaken = &APIError{
		StatusCode:  http.StatusConflict,
		Code:        ErrorCodeEmailTaken,
		Description: "an account with this email already exists",
	}

	ErrInvalidToken = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidToken,
		Description: "invalid or expired access token",
	}

	ErrNotFound = &APIError{
		StatusCode:  http.StatusNotFound,
		Code:        ErrorCodeNotFound,
		Description: "the requested resource does not exist",
	}

	ErrAlreadyLiked = &APIError{
		StatusCode:  http.StatusConflict,
		Code:        ErrorCodeAlreadyLiked,
		Description: "this post is already liked by the user",
	}

	ErrNotLiked = &APIError{
		StatusCode:  http.StatusConflict,
		Code:        ErrorCodeNotLiked,
		Description: "this post is not liked by the user",
	}

	ErrCommentEmpty = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeEmptyComment,
		Description: "comment text must not be empty",
	}

	ErrServerError = &APIError{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "internal server error",
	}
)

// Sentinel errors raised by the SDK before any network call is made.
var (
	// ErrSignInRequired is returned by mutating operations when no user is
	// signed in.
	ErrSignInRequired = errors.New("sign in required")

	// ErrMutationPending is returned when a mutation of the same class is
	// already in flight for the component.
	ErrMutationPending = errors.New("a mutation is already in flight")

	// ErrEmptyComment is returned when a comment body is empty or whitespace.
	ErrEmptyComment = errors.New("comment text must not be empty")

	// ErrDetached is returned by operations on a detached component.
	ErrDetached = errors.New("component is detached")
)
