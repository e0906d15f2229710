package service

import "errors"

var (
	// ErrInvalidCredentials covers unknown email and wrong password alike so
	// sign-in failures don't leak which one it was.
	ErrInvalidCredentials = errors.New("service: invalid credentials")

	// ErrEmailTaken reports a duplicate sign-up.
	ErrEmailTaken = errors.New("service: email already registered")

	// ErrInvalidProfile reports missing or malformed sign-up profile fields.
	ErrInvalidProfile = errors.New("service: invalid profile fields")

	// ErrEmptyComment reports an empty or whitespace-only comment body.
	ErrEmptyComment = errors.New("service: comment body is empty")

	// ErrAlreadyLiked reports a like insert that hit the (post, user)
	// uniqueness constraint.
	ErrAlreadyLiked = errors.New("service: post already liked")

	// ErrNotLiked reports an unlike for a pair that does not exist.
	ErrNotLiked = errors.New("service: post not liked")

	// ErrPostNotFound reports an interaction against a missing post.
	ErrPostNotFound = errors.New("service: post not found")
)
