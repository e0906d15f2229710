package realtime

import (
	"context"
	"log/slog"
	"sync"
)

// subscriptionBuffer is how many undelivered events a subscriber may lag
// before new events for it are dropped.
const subscriptionBuffer = 16

// MemoryBroker is an in-process Broker for single-node deployments and tests.
type MemoryBroker struct {
	logger *slog.Logger

	mu     sync.Mutex
	nextID int
	subs   map[int]*memorySubscription
	closed bool
}

type memorySubscription struct {
	broker *MemoryBroker
	id     int
	postID string
	tables map[string]struct{} // empty means all tables
	ch     chan Event
	once   sync.Once
}

func NewMemoryBroker(logger *slog.Logger) *MemoryBroker {
	if logger == nil {
		logger = slog.Default()
	}
	return &MemoryBroker{
		logger: logger,
		subs:   make(map[int]*memorySubscription),
	}
}

func (b *MemoryBroker) Publish(ctx context.Context, ev Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}

	for _, sub := range b.subs {
		if !sub.matches(ev) {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			// Subscriber is lagging; the next delivered event triggers a full
			// reconciliation anyway.
			b.logger.Warn("realtime: dropping event for slow subscriber",
				"post_id", ev.PostID, "table", ev.Table)
		}
	}
	return nil
}

func (b *MemoryBroker) Subscribe(ctx context.Context, postID string, tables ...string) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &memorySubscription{
		broker: b,
		id:     b.nextID,
		postID: postID,
		tables: tableSet(tables),
		ch:     make(chan Event, subscriptionBuffer),
	}
	b.nextID++

	if b.closed {
		close(sub.ch)
		return sub, nil
	}

	b.subs[sub.id] = sub
	return sub, nil
}

func (b *MemoryBroker) Close() error {
	b.mu.Lock()
	subs := make([]*memorySubscription, 0, len(b.subs))
	for _, sub := range b.subs {
		subs = append(subs, sub)
	}
	b.closed = true
	b.mu.Unlock()

	for _, sub := range subs {
		_ = sub.Close()
	}
	return nil
}

func (s *memorySubscription) matches(ev Event) bool {
	if ev.PostID != s.postID {
		return false
	}
	if len(s.tables) == 0 {
		return true
	}
	_, ok := s.tables[ev.Table]
	return ok
}

func (s *memorySubscription) Events() <-chan Event { return s.ch }

func (s *memorySubscription) Close() error {
	s.once.Do(func() {
		s.broker.mu.Lock()
		delete(s.broker.subs, s.id)
		s.broker.mu.Unlock()
		close(s.ch)
	})
	return nil
}

func tableSet(tables []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tables))
	for _, t := range tables {
		if t != "" {
			set[t] = struct{}{}
		}
	}
	return set
}
