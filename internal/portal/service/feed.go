package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/laeyue/msu-iit-connect/internal/portal/domain"
	"github.com/laeyue/msu-iit-connect/internal/portal/realtime"
	"github.com/laeyue/msu-iit-connect/internal/portal/store"
	"github.com/laeyue/msu-iit-connect/pkg/idx"
)

// FeedService owns post interactions: likes, comments and their counts.
// Every successful write publishes a change event so connected clients
// reconcile. Publish failures are logged, not returned: the write is already
// durable and other clients will converge on their next event.
type FeedService struct {
	Store  store.Store
	Broker realtime.Broker
	Logger *slog.Logger
}

// InteractionCounts is the authoritative like/comment tally for a post.
type InteractionCounts struct {
	Likes    int
	Comments int
}

// Like records the (post, user) pair. A raced duplicate maps onto
// ErrAlreadyLiked via the uniqueness constraint, never a double count.
func (s *FeedService) Like(ctx context.Context, postID, userID string) error {
	if err := s.requirePost(ctx, postID); err != nil {
		return err
	}

	err := s.Store.Likes().CreateLike(ctx, domain.Like{PostID: postID, UserID: userID})
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return ErrAlreadyLiked
		}
		return err
	}

	s.publish(ctx, realtime.Event{
		Table: realtime.TableLikes, Op: realtime.OpInsert, PostID: postID, UserID: userID,
	})
	return nil
}

// Unlike removes the pair.
func (s *FeedService) Unlike(ctx context.Context, postID, userID string) error {
	err := s.Store.Likes().DeleteLike(ctx, postID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotLiked
		}
		return err
	}

	s.publish(ctx, realtime.Event{
		Table: realtime.TableLikes, Op: realtime.OpDelete, PostID: postID, UserID: userID,
	})
	return nil
}

// LikeExists reports whether userID currently likes postID.
func (s *FeedService) LikeExists(ctx context.Context, postID, userID string) (bool, error) {
	return s.Store.Likes().LikeExists(ctx, postID, userID)
}

// Counts returns the authoritative like and comment counts for a post.
func (s *FeedService) Counts(ctx context.Context, postID string) (InteractionCounts, error) {
	likes, err := s.Store.Likes().CountLikes(ctx, postID)
	if err != nil {
		return InteractionCounts{}, err
	}
	comments, err := s.Store.Comments().CountComments(ctx, postID)
	if err != nil {
		return InteractionCounts{}, err
	}
	return InteractionCounts{Likes: likes, Comments: comments}, nil
}

// AddComment validates and appends a comment. Comments are immutable once
// written.
func (s *FeedService) AddComment(ctx context.Context, postID, userID, body string) (domain.Comment, error) {
	if strings.TrimSpace(body) == "" {
		return domain.Comment{}, ErrEmptyComment
	}
	if err := s.requirePost(ctx, postID); err != nil {
		return domain.Comment{}, err
	}

	comment := domain.Comment{
		ID:        idx.MustNew().String(),
		PostID:    postID,
		UserID:    userID,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Store.Comments().CreateComment(ctx, comment); err != nil {
		return domain.Comment{}, err
	}

	s.publish(ctx, realtime.Event{
		Table: realtime.TableComments, Op: realtime.OpInsert, PostID: postID, UserID: userID,
	})
	return comment, nil
}

// ListComments returns a post's comments in created_at ascending order.
func (s *FeedService) ListComments(ctx context.Context, postID string) ([]domain.Comment, error) {
	return s.Store.Comments().ListCommentsByPost(ctx, postID)
}

// CreatePost publishes a feed post (administrator surface).
func (s *FeedService) CreatePost(ctx context.Context, p domain.Post) (domain.Post, error) {
	if p.ID == "" {
		p.ID = idx.MustNew().String()
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = now
	}
	if err := s.Store.Posts().CreatePost(ctx, p); err != nil {
		return domain.Post{}, err
	}
	return p, nil
}

// ListPosts returns the feed, newest first.
func (s *FeedService) ListPosts(ctx context.Context) ([]domain.Post, error) {
	return s.Store.Posts().ListPosts(ctx)
}

// GetPost returns a single post.
func (s *FeedService) GetPost(ctx context.Context, postID string) (domain.Post, error) {
	p, err := s.Store.Posts().GetPostByID(ctx, postID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Post{}, ErrPostNotFound
		}
		return domain.Post{}, err
	}
	return p, nil
}

func (s *FeedService) requirePost(ctx context.Context, postID string) error {
	_, err := s.Store.Posts().GetPostByID(ctx, postID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrPostNotFound
	}
	return err
}

func (s *FeedService) publish(ctx context.Context, ev realtime.Event) {
	ev.At = time.Now().UTC()
	if err := s.Broker.Publish(ctx, ev); err != nil {
		logger := s.Logger
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("feed: publish change event failed",
			"table", ev.Table, "post_id", ev.PostID, "err", err)
	}
}
