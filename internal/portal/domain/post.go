package domain

import "time"

// Post is a feed entry published by a campus publication or an administrator.
type Post struct {
	ID          string
	Publication string
	Title       string
	Content     string
	Author      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Like is the unique (post, user) pair. Row existence is the sole source of
// truth for "this user likes this post".
type Like struct {
	PostID    string
	UserID    string
	CreatedAt time.Time
}
