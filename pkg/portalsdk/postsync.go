package portalsdk

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Reconnect pacing for a change stream the server ended.
const (
	resubscribeBaseDelay = time.Second
	resubscribeMaxDelay  = 30 * time.Second
)

// PostState is the interaction state PostSync maintains for one post.
type PostState struct {
	LikeCount    int
	CommentCount int
	Liked        bool
}

// PostSync keeps one post's like and comment state converged with the
// server while the post is on screen.
//
// Writes are optimistic: the local state flips immediately and rolls back if
// the server rejects the write. Convergence comes from the change stream:
// every inbound event triggers a full re-fetch of the authoritative counts,
// and the fetched state overwrites whatever the optimistic path guessed.
// Events carry no payload, so duplicates and drops are harmless: any one
// event forces a complete reconciliation. A stream the server ends is
// reopened with backoff, and each reconnect starts with a reconciliation
// covering whatever was published while disconnected.
type PostSync struct {
	// OnState, when set before Attach, runs after every state change with
	// the new snapshot. It stops firing after Detach.
	OnState func(PostState)

	// OnCommentAdded, when set before Attach, runs after each comment this
	// component successfully writes.
	OnCommentAdded func()

	// OnCommentChange, when set before Attach, runs whenever the change
	// stream reports a comment-table event on this post, other clients'
	// comments included. Wire it to ThreadLoader.NotifyCommentChange so an
	// open thread re-loads when anyone comments.
	OnCommentChange func()

	backend  Backend
	sessions *SessionManager
	postID   string
	logger   *slog.Logger

	mu             sync.Mutex
	state          PostState
	stateVersion   uint64
	likePending    bool
	commentPending bool
	attached       bool
	detached       bool
	stream         ChangeStream

	detachOnce sync.Once
}

// NewPostSync creates a PostSync for one post. Call Attach to start it.
func NewPostSync(backend Backend, sessions *SessionManager, postID string, logger *slog.Logger) *PostSync {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostSync{
		backend:  backend,
		sessions: sessions,
		postID:   postID,
		logger:   logger,
	}
}

// Attach fetches the initial state and opens the change stream. ctx bounds
// the stream and all reconciliation fetches.
func (p *PostSync) Attach(ctx context.Context) error {
	p.mu.Lock()
	if p.attached || p.detached {
		p.mu.Unlock()
		return ErrDetached
	}
	p.attached = true
	p.mu.Unlock()

	if err := p.reconcile(ctx); err != nil {
		return err
	}

	stream, err := p.backend.SubscribeChanges(ctx, p.postID, TableLikes, TableComments)
	if err != nil {
		return err
	}

	p.mu.Lock()
	if p.detached {
		p.mu.Unlock()
		_ = stream.Close()
		return ErrDetached
	}
	p.stream = stream
	p.mu.Unlock()

	go p.reconcileLoop(ctx, stream)
	return nil
}

// Detach closes the change stream and stops all callbacks. Safe to call
// more than once; anything still in flight is discarded on arrival.
func (p *PostSync) Detach() {
	p.detachOnce.Do(func() {
		p.mu.Lock()
		p.detached = true
		stream := p.stream
		p.mu.Unlock()

		if stream != nil {
			_ = stream.Close()
		}
	})
}

// State returns the current snapshot.
func (p *PostSync) State() PostState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// ToggleLike flips the signed-in user's like. The flip applies locally
// before the server round trip; a rejected write rolls back unless a
// reconciliation has already replaced the guess with authoritative state.
// One like mutation may be in flight at a time.
func (p *PostSync) ToggleLike(ctx context.Context) error {
	if !p.sessions.Snapshot().SignedIn() {
		return ErrSignInRequired
	}

	p.mu.Lock()
	if p.detached {
		p.mu.Unlock()
		return ErrDetached
	}
	if p.likePending {
		p.mu.Unlock()
		return ErrMutationPending
	}
	p.likePending = true

	prev := p.state
	version := p.stateVersion
	liking := !p.state.Liked

	p.state.Liked = liking
	if liking {
		p.state.LikeCount++
	} else if p.state.LikeCount > 0 {
		p.state.LikeCount--
	}
	snapshot := p.state
	p.mu.Unlock()
	p.emit(snapshot)

	var err error
	if liking {
		err = p.backend.InsertLike(ctx, p.postID)
	} else {
		err = p.backend.DeleteLike(ctx, p.postID)
	}

	p.mu.Lock()
	p.likePending = false
	if err != nil && !p.detached && p.stateVersion == version {
		// No reconciliation landed in between: undo the guess.
		p.state = prev
		snapshot = p.state
		p.mu.Unlock()
		p.emit(snapshot)
		return err
	}
	p.mu.Unlock()

	return err
}

// AddComment appends a comment. Comments are append-only, so a successful
// write bumps the local count without waiting for the change stream. One
// comment mutation may be in flight at a time; a pending like does not
// block it.
func (p *PostSync) AddComment(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyComment
	}
	if !p.sessions.Snapshot().SignedIn() {
		return ErrSignInRequired
	}

	p.mu.Lock()
	if p.detached {
		p.mu.Unlock()
		return ErrDetached
	}
	if p.commentPending {
		p.mu.Unlock()
		return ErrMutationPending
	}
	p.commentPending = true
	p.mu.Unlock()

	_, err := p.backend.InsertComment(ctx, p.postID, text)

	p.mu.Lock()
	p.commentPending = false
	if err != nil || p.detached {
		p.mu.Unlock()
		return err
	}
	p.state.CommentCount++
	snapshot := p.state
	p.mu.Unlock()

	p.emit(snapshot)
	if p.OnCommentAdded != nil {
		p.OnCommentAdded()
	}
	return nil
}

func (p *PostSync) reconcileLoop(ctx context.Context, stream ChangeStream) {
	for {
		for ev := range stream.Events() {
			if err := p.reconcile(ctx); err != nil {
				p.logger.Warn("post state reconcile failed", "post_id", p.postID, "err", err)
			}
			if ev.Table == TableComments {
				p.notifyCommentChange()
			}
		}

		// The server ended the stream. Reopen it unless this component was
		// detached or its context is gone.
		stream = p.resubscribe(ctx)
		if stream == nil {
			return
		}
	}
}

func (p *PostSync) notifyCommentChange() {
	p.mu.Lock()
	detached := p.detached
	p.mu.Unlock()

	if !detached && p.OnCommentChange != nil {
		p.OnCommentChange()
	}
}

// resubscribe re-establishes the change stream with exponential backoff. It
// returns nil once the component is detached or ctx is cancelled.
func (p *PostSync) resubscribe(ctx context.Context) ChangeStream {
	delay := resubscribeBaseDelay
	for {
		if ctx.Err() != nil || p.isDetached() {
			return nil
		}

		stream, err := p.backend.SubscribeChanges(ctx, p.postID, TableLikes, TableComments)
		if err == nil {
			p.mu.Lock()
			if p.detached {
				p.mu.Unlock()
				_ = stream.Close()
				return nil
			}
			p.stream = stream
			p.mu.Unlock()

			// Anything published during the gap was missed.
			if err := p.reconcile(ctx); err != nil {
				p.logger.Warn("post state reconcile failed", "post_id", p.postID, "err", err)
			}
			return stream
		}

		p.logger.Warn("change stream reconnect failed", "post_id", p.postID, "err", err)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
		if delay < resubscribeMaxDelay {
			delay *= 2
		}
	}
}

func (p *PostSync) isDetached() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.detached
}

// reconcile fetches the authoritative state and overwrites the local copy.
func (p *PostSync) reconcile(ctx context.Context) error {
	likeCount, err := p.backend.LikeCount(ctx, p.postID)
	if err != nil {
		return err
	}
	commentCount, err := p.backend.CommentCount(ctx, p.postID)
	if err != nil {
		return err
	}

	var liked bool
	if p.sessions.Snapshot().SignedIn() {
		liked, err = p.backend.LikeExists(ctx, p.postID)
		if err != nil {
			return err
		}
	}

	p.mu.Lock()
	if p.detached {
		p.mu.Unlock()
		return nil
	}
	p.stateVersion++
	p.state = PostState{LikeCount: likeCount, CommentCount: commentCount, Liked: liked}
	snapshot := p.state
	p.mu.Unlock()

	p.emit(snapshot)
	return nil
}

func (p *PostSync) emit(s PostState) {
	p.mu.Lock()
	detached := p.detached
	p.mu.Unlock()

	if !detached && p.OnState != nil {
		p.OnState(s)
	}
}
