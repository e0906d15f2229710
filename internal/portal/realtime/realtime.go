// Package realtime delivers row-level change notifications to subscribers
// scoped by post. Events carry enough to know that something changed, not the
// changed data itself: consumers are expected to re-derive authoritative
// state from the store, so dropping an event under backpressure only delays a
// refresh rather than corrupting it.
package realtime

import (
	"context"
	"time"
)

// Tables that emit change events.
const (
	TableLikes    = "post_likes"
	TableComments = "post_comments"
)

type Operation string

const (
	OpInsert Operation = "insert"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Event is a single row-level change notification.
type Event struct {
	Table  string    `json:"table"`
	Op     Operation `json:"op"`
	PostID string    `json:"post_id"`
	UserID string    `json:"user_id,omitempty"`
	At     time.Time `json:"at"`
}

// Subscription is an open change stream. It is exclusively owned by the
// component that opened it and must be closed exactly once.
type Subscription interface {
	// Events yields change notifications. The channel is closed after Close
	// or when the broker shuts down.
	Events() <-chan Event

	// Close releases the subscription. Safe to call once; events arriving
	// afterwards are discarded.
	Close() error
}

// Broker fans change events out to per-post subscribers.
type Broker interface {
	// Publish delivers an event to every subscription matching its post and
	// table. Publishing never blocks on slow subscribers.
	Publish(ctx context.Context, ev Event) error

	// Subscribe opens a stream of events for one post, limited to the given
	// tables (all tables when none are given).
	Subscribe(ctx context.Context, postID string, tables ...string) (Subscription, error)

	// Close shuts the broker down and closes all open subscriptions.
	Close() error
}
