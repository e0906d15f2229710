package realtime_test

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/laeyue/msu-iit-connect/internal/portal/realtime"
)

// Exercises the shutdown contract without a live server: pub/sub traffic
// needs one, but Close bookkeeping does not.
func TestRedisBrokerCloseReleasesClient(t *testing.T) {
	t.Parallel()

	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	broker := realtime.NewRedisBroker(client, nil)

	ctx := context.Background()

	require.NoError(t, broker.Close())
	require.NoError(t, broker.Close(), "close is idempotent")

	// A closed broker hands out a pre-closed subscription instead of dialing.
	sub, err := broker.Subscribe(ctx, "post-1")
	require.NoError(t, err)
	_, open := <-sub.Events()
	require.False(t, open, "subscription channel closed")
	require.NoError(t, sub.Close())

	// Publishes after close are dropped rather than sent on a dead client.
	require.NoError(t, broker.Publish(ctx, realtime.Event{
		Table: realtime.TableLikes, Op: realtime.OpInsert, PostID: "post-1",
	}))

	// The client itself was released.
	require.ErrorIs(t, client.Ping(ctx).Err(), redis.ErrClosed)
}
