package realtime_test

import (
	"context"
	"testing"
	"time"

	"github.com/laeyue/msu-iit-connect/internal/portal/realtime"
	"github.com/stretchr/testify/require"
)

func recvEvent(t *testing.T, sub realtime.Subscription) realtime.Event {
	t.Helper()
	select {
	case ev, ok := <-sub.Events():
		require.True(t, ok, "stream closed unexpectedly")
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return realtime.Event{}
	}
}

func TestMemoryBrokerScopesByPost(t *testing.T) {
	t.Parallel()

	broker := realtime.NewMemoryBroker(nil)
	defer broker.Close()

	ctx := context.Background()

	subA, err := broker.Subscribe(ctx, "post-a")
	require.NoError(t, err)
	defer subA.Close()

	subB, err := broker.Subscribe(ctx, "post-b")
	require.NoError(t, err)
	defer subB.Close()

	require.NoError(t, broker.Publish(ctx, realtime.Event{
		Table: realtime.TableLikes, Op: realtime.OpInsert, PostID: "post-a", UserID: "u1",
	}))

	ev := recvEvent(t, subA)
	require.Equal(t, "post-a", ev.PostID)
	require.Equal(t, realtime.TableLikes, ev.Table)

	select {
	case ev := <-subB.Events():
		t.Fatalf("post-b subscriber received foreign event: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryBrokerFiltersTables(t *testing.T) {
	t.Parallel()

	broker := realtime.NewMemoryBroker(nil)
	defer broker.Close()

	ctx := context.Background()

	sub, err := broker.Subscribe(ctx, "post-1", realtime.TableComments)
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, broker.Publish(ctx, realtime.Event{
		Table: realtime.TableLikes, Op: realtime.OpInsert, PostID: "post-1",
	}))
	require.NoError(t, broker.Publish(ctx, realtime.Event{
		Table: realtime.TableComments, Op: realtime.OpInsert, PostID: "post-1",
	}))

	ev := recvEvent(t, sub)
	require.Equal(t, realtime.TableComments, ev.Table)
}

func TestMemoryBrokerCloseIsIdempotent(t *testing.T) {
	t.Parallel()

	broker := realtime.NewMemoryBroker(nil)
	ctx := context.Background()

	sub, err := broker.Subscribe(ctx, "post-1")
	require.NoError(t, err)

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())

	// Publishing after the subscription closed must not panic or deliver.
	require.NoError(t, broker.Publish(ctx, realtime.Event{
		Table: realtime.TableLikes, Op: realtime.OpInsert, PostID: "post-1",
	}))

	_, ok := <-sub.Events()
	require.False(t, ok, "channel should be closed")

	require.NoError(t, broker.Close())
}

func TestMemoryBrokerDropsWhenSubscriberLags(t *testing.T) {
	t.Parallel()

	broker := realtime.NewMemoryBroker(nil)
	defer broker.Close()

	ctx := context.Background()
	sub, err := broker.Subscribe(ctx, "post-1")
	require.NoError(t, err)
	defer sub.Close()

	// Publish more than the buffer without draining; must not block.
	for range 64 {
		require.NoError(t, broker.Publish(ctx, realtime.Event{
			Table: realtime.TableLikes, Op: realtime.OpInsert, PostID: "post-1",
		}))
	}

	// The buffered events are still deliverable.
	recvEvent(t, sub)
}
