package portalsdk

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func seedThread(backend *fakeBackend) {
	backend.comments = []Comment{
		{ID: "c1", PostID: "post-1", UserID: "user-a", Body: "first", CreatedAt: time.Unix(100, 0)},
		{ID: "c2", PostID: "post-1", UserID: "user-b", Body: "second", CreatedAt: time.Unix(200, 0)},
		{ID: "c3", PostID: "post-1", UserID: "user-a", Body: "third", CreatedAt: time.Unix(300, 0)},
	}
	backend.profiles["user-a"] = Profile{UserID: "user-a", DisplayName: "Ada", UserType: UserTypeStudent}
	backend.profiles["user-b"] = Profile{UserID: "user-b", DisplayName: "Ben", UserType: UserTypeFaculty}
}

func TestThreadLoaderLoad(t *testing.T) {
	t.Parallel()

	backend := newFakeBackend()
	seedThread(backend)

	l := NewThreadLoader(backend, "post-1", nil)
	views, err := l.Load(t.Context())
	require.NoError(t, err)

	require.Len(t, views, 3)
	require.Equal(t, []string{"c1", "c2", "c3"},
		[]string{views[0].ID, views[1].ID, views[2].ID}, "oldest first")
	require.Equal(t, "Ada", views[0].AuthorName)
	require.Equal(t, "Ben", views[1].AuthorName)
	require.Equal(t, "Ada", views[2].AuthorName)
}

func TestThreadLoaderMissingProfileGetsPlaceholder(t *testing.T) {
	t.Parallel()

	backend := newFakeBackend()
	seedThread(backend)
	delete(backend.profiles, "user-b")

	l := NewThreadLoader(backend, "post-1", nil)
	views, err := l.Load(t.Context())
	require.NoError(t, err)

	require.Equal(t, PlaceholderAuthorName, views[1].AuthorName)
	require.Equal(t, "Ada", views[0].AuthorName, "other authors unaffected")
}

func TestThreadLoaderBatchesProfileLookups(t *testing.T) {
	t.Parallel()

	backend := newFakeBackend()
	seedThread(backend)

	var (
		mu      sync.Mutex
		lookups int
		lastIDs []string
	)
	counting := &countingBackend{
		fakeBackend: backend,
		onLookup: func(ids []string) {
			mu.Lock()
			lookups++
			lastIDs = ids
			mu.Unlock()
		},
	}

	l := NewThreadLoader(counting, "post-1", nil)
	_, err := l.Load(t.Context())
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 1, lookups, "one batched lookup per load")
	require.ElementsMatch(t, []string{"user-a", "user-b"}, lastIDs, "distinct authors only")
}

func TestThreadLoaderOpenStaleRefresh(t *testing.T) {
	t.Parallel()

	backend := newFakeBackend()
	seedThread(backend)

	l := NewThreadLoader(backend, "post-1", nil)

	views, err := l.Open(t.Context())
	require.NoError(t, err)
	require.Len(t, views, 3)

	t.Run("open thread refreshes immediately on change", func(t *testing.T) {
		backend.mu.Lock()
		backend.comments = append(backend.comments, Comment{
			ID: "c4", PostID: "post-1", UserID: "user-b", Body: "fourth", CreatedAt: time.Unix(400, 0),
		})
		backend.mu.Unlock()

		l.NotifyCommentChange(t.Context())
		require.Len(t, l.Comments(), 4)
		require.False(t, l.Stale())
	})

	t.Run("collapsed thread defers the refresh", func(t *testing.T) {
		l.Collapse()

		backend.mu.Lock()
		backend.comments = append(backend.comments, Comment{
			ID: "c5", PostID: "post-1", UserID: "user-a", Body: "fifth", CreatedAt: time.Unix(500, 0),
		})
		backend.mu.Unlock()

		l.NotifyCommentChange(t.Context())
		require.Len(t, l.Comments(), 4, "no refresh while collapsed")
		require.True(t, l.Stale())

		views, err := l.Open(t.Context())
		require.NoError(t, err)
		require.Len(t, views, 5, "next open catches up")
		require.False(t, l.Stale())
	})

	t.Run("reopening a fresh thread does not reload", func(t *testing.T) {
		l.Collapse()

		views, err := l.Open(t.Context())
		require.NoError(t, err)
		require.Len(t, views, 5)
	})
}

func TestThreadLoaderEmptyThread(t *testing.T) {
	t.Parallel()

	backend := newFakeBackend()

	l := NewThreadLoader(backend, "post-1", nil)
	views, err := l.Load(t.Context())
	require.NoError(t, err)
	require.Empty(t, views)
}

// countingBackend wraps fakeBackend to observe profile lookups.
type countingBackend struct {
	*fakeBackend
	onLookup func(ids []string)
}

func (c *countingBackend) ProfilesByIDs(ctx context.Context, userIDs []string) (map[string]Profile, error) {
	c.onLookup(userIDs)
	return c.fakeBackend.ProfilesByIDs(ctx, userIDs)
}
