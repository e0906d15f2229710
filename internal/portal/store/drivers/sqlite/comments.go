package sqlite

import (
	"context"
	"time"

	"github.com/laeyue/msu-iit-connect/internal/portal/domain"
)

type commentsRepo struct {
	db dbtx
}

func (r *commentsRepo) CreateComment(ctx context.Context, c domain.Comment) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO post_comments (id, post_id, user_id, body, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.PostID, c.UserID, c.Body, c.CreatedAt)
	return mapConstraint(err)
}

func (r *commentsRepo) CountComments(ctx context.Context, postID string) (int, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM post_comments WHERE post_id = ?`, postID)

	var count int
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *commentsRepo) ListCommentsByPost(ctx context.Context, postID string) ([]domain.Comment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, post_id, user_id, body, created_at
		 FROM post_comments WHERE post_id = ?
		 ORDER BY created_at ASC, id ASC`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []domain.Comment
	for rows.Next() {
		var c domain.Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.UserID, &c.Body, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}
