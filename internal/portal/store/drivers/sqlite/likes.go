package sqlite

import (
	"context"
	"time"

	"github.com/laeyue/msu-iit-connect/internal/portal/domain"
)

type likesRepo struct {
	db dbtx
}

func (r *likesRepo) LikeExists(ctx context.Context, postID, userID string) (bool, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM post_likes WHERE post_id = ? AND user_id = ?`, postID, userID)

	var count int
	if err := row.Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *likesRepo) CountLikes(ctx context.Context, postID string) (int, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM post_likes WHERE post_id = ?`, postID)

	var count int
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *likesRepo) CreateLike(ctx context.Context, l domain.Like) error {
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO post_likes (post_id, user_id, created_at) VALUES (?, ?, ?)`,
		l.PostID, l.UserID, l.CreatedAt)
	return mapConstraint(err)
}

func (r *likesRepo) DeleteLike(ctx context.Context, postID, userID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM post_likes WHERE post_id = ? AND user_id = ?`, postID, userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}
