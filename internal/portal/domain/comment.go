package domain

import "time"

// Comment is immutable once created; there is no edit or delete.
type Comment struct {
	ID        string
	PostID    string
	UserID    string
	Body      string
	CreatedAt time.Time
}
