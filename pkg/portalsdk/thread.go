package portalsdk

import (
	"context"
	"log/slog"
	"sync"
)

// PlaceholderAuthorName labels comments whose author has no profile row.
const PlaceholderAuthorName = "Unknown user"

// ThreadLoader loads one post's comment thread joined with author display
// names. Profiles resolve in a single batched lookup per load, not one
// request per comment.
//
// The loader tracks whether its thread is on screen: comment-change
// notifications refresh an open thread immediately, while a collapsed
// thread is only marked stale and refreshed on the next Open.
type ThreadLoader struct {
	// OnThread, when set, runs after every refresh with the new thread.
	OnThread func([]CommentView)

	backend Backend
	postID  string
	logger  *slog.Logger

	mu       sync.Mutex
	open     bool
	stale    bool
	loaded   bool
	comments []CommentView
}

// NewThreadLoader creates a ThreadLoader for one post's thread.
func NewThreadLoader(backend Backend, postID string, logger *slog.Logger) *ThreadLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &ThreadLoader{
		backend: backend,
		postID:  postID,
		logger:  logger,
	}
}

// Load fetches the thread: comments oldest first, then one batched profile
// lookup over the distinct author set. Authors without a profile get the
// placeholder name.
func (l *ThreadLoader) Load(ctx context.Context) ([]CommentView, error) {
	comments, err := l.backend.CommentsByPost(ctx, l.postID)
	if err != nil {
		return nil, err
	}

	views := make([]CommentView, 0, len(comments))
	if len(comments) > 0 {
		seen := make(map[string]bool, len(comments))
		authorIDs := make([]string, 0, len(comments))
		for _, c := range comments {
			if !seen[c.UserID] {
				seen[c.UserID] = true
				authorIDs = append(authorIDs, c.UserID)
			}
		}

		profiles, err := l.backend.ProfilesByIDs(ctx, authorIDs)
		if err != nil {
			return nil, err
		}

		for _, c := range comments {
			name := PlaceholderAuthorName
			if p, ok := profiles[c.UserID]; ok && p.DisplayName != "" {
				name = p.DisplayName
			}
			views = append(views, CommentView{Comment: c, AuthorName: name})
		}
	}

	l.mu.Lock()
	l.comments = views
	l.loaded = true
	l.stale = false
	onThread := l.OnThread
	l.mu.Unlock()

	if onThread != nil {
		onThread(views)
	}
	return views, nil
}

// Open marks the thread as on screen and loads it if it has never loaded
// or went stale while collapsed.
func (l *ThreadLoader) Open(ctx context.Context) ([]CommentView, error) {
	l.mu.Lock()
	l.open = true
	needs := !l.loaded || l.stale
	current := l.comments
	l.mu.Unlock()

	if !needs {
		return current, nil
	}
	return l.Load(ctx)
}

// Collapse marks the thread as off screen. Change notifications while
// collapsed defer their refresh to the next Open.
func (l *ThreadLoader) Collapse() {
	l.mu.Lock()
	l.open = false
	l.mu.Unlock()
}

// NotifyCommentChange reacts to a comment change on this post: refresh now
// if the thread is open, otherwise remember that it is out of date. Wire it
// to PostSync.OnCommentAdded or a change-stream consumer.
func (l *ThreadLoader) NotifyCommentChange(ctx context.Context) {
	l.mu.Lock()
	open := l.open
	if !open {
		l.stale = true
	}
	l.mu.Unlock()

	if !open {
		return
	}
	if _, err := l.Load(ctx); err != nil {
		l.logger.Warn("thread refresh failed", "post_id", l.postID, "err", err)
	}
}

// Comments returns the last loaded thread.
func (l *ThreadLoader) Comments() []CommentView {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.comments
}

// Stale reports whether a change arrived while the thread was collapsed.
func (l *ThreadLoader) Stale() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stale
}
