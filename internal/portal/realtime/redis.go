package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"
)

// channelPrefix namespaces the portal's pub/sub channels, one per post.
const channelPrefix = "campuslink:feed:"

// RedisBroker is a Broker backed by Redis pub/sub, for deployments with more
// than one portal node. Each post maps to one channel; table filtering
// happens subscriber-side.
type RedisBroker struct {
	client *redis.Client
	logger *slog.Logger

	mu     sync.Mutex
	nextID int
	subs   map[int]*redisSubscription
	closed bool
}

func NewRedisBroker(client *redis.Client, logger *slog.Logger) *RedisBroker {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisBroker{
		client: client,
		logger: logger,
		subs:   make(map[int]*redisSubscription),
	}
}

func (b *RedisBroker) Publish(ctx context.Context, ev Event) error {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return nil
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, channelPrefix+ev.PostID, payload).Err()
}

func (b *RedisBroker) Subscribe(ctx context.Context, postID string, tables ...string) (Subscription, error) {
	b.mu.Lock()
	sub := &redisSubscription{
		broker: b,
		id:     b.nextID,
		logger: b.logger,
		postID: postID,
		tables: tableSet(tables),
		ch:     make(chan Event, subscriptionBuffer),
	}
	b.nextID++

	if b.closed {
		b.mu.Unlock()
		close(sub.ch)
		return sub, nil
	}
	b.mu.Unlock()

	pubsub := b.client.Subscribe(ctx, channelPrefix+postID)

	// Force the SUBSCRIBE round-trip so a broken transport surfaces here
	// rather than as a silently dead stream.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		_ = pubsub.Close()
		close(sub.ch)
		return sub, nil
	}
	sub.pubsub = pubsub
	b.subs[sub.id] = sub
	b.mu.Unlock()

	go sub.run()
	return sub, nil
}

// Close closes every open subscription and releases the Redis client.
func (b *RedisBroker) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	subs := make([]*redisSubscription, 0, len(b.subs))
	for _, sub := range b.subs {
		subs = append(subs, sub)
	}
	b.mu.Unlock()

	for _, sub := range subs {
		_ = sub.Close()
	}
	return b.client.Close()
}

type redisSubscription struct {
	broker *RedisBroker
	id     int
	logger *slog.Logger
	postID string
	tables map[string]struct{}
	pubsub *redis.PubSub
	ch     chan Event
	once   sync.Once
}

func (s *redisSubscription) run() {
	defer close(s.ch)

	for msg := range s.pubsub.Channel() {
		var ev Event
		if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
			s.logger.Warn("realtime: malformed event payload", "err", err)
			continue
		}
		if len(s.tables) > 0 {
			if _, ok := s.tables[ev.Table]; !ok {
				continue
			}
		}
		select {
		case s.ch <- ev:
		default:
			s.logger.Warn("realtime: dropping event for slow subscriber",
				"post_id", ev.PostID, "table", ev.Table)
		}
	}
}

func (s *redisSubscription) Events() <-chan Event { return s.ch }

func (s *redisSubscription) Close() error {
	var err error
	s.once.Do(func() {
		s.broker.mu.Lock()
		delete(s.broker.subs, s.id)
		s.broker.mu.Unlock()

		if s.pubsub != nil {
			// Closing the PubSub ends the Channel() range in run, which in
			// turn closes s.ch.
			err = s.pubsub.Close()
		}
	})
	return err
}
