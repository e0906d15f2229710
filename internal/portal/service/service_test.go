package service

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/laeyue/msu-iit-connect/internal/portal/domain"
	"github.com/laeyue/msu-iit-connect/internal/portal/realtime"
	"github.com/laeyue/msu-iit-connect/internal/portal/store"
	"github.com/laeyue/msu-iit-connect/internal/portal/store/drivers/sqlite"
	"github.com/laeyue/msu-iit-connect/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.NewStore(filepath.Join(t.TempDir(), "portal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func newTestSigner(t *testing.T) *jwtx.Signer {
	t.Helper()

	signer, err := jwtx.NewSigner("campuslink-test", time.Hour)
	require.NoError(t, err)
	return signer
}

func seedPost(t *testing.T, st store.Store, id string) {
	t.Helper()

	require.NoError(t, st.Posts().CreatePost(t.Context(), domain.Post{
		ID:      id,
		Title:   "General Assembly",
		Content: "All students are required to attend.",
		Author:  "Student Affairs Office",
	}))
}

func seedUser(t *testing.T, st store.Store, id string) {
	t.Helper()

	require.NoError(t, st.Users().CreateUser(t.Context(), domain.User{
		ID:           id,
		Email:        id + "@g.msuiit.edu.ph",
		PasswordHash: "x",
	}))
}

func newFeedService(t *testing.T) (*FeedService, *realtime.MemoryBroker) {
	t.Helper()

	broker := realtime.NewMemoryBroker(nil)
	t.Cleanup(func() { _ = broker.Close() })

	return &FeedService{Store: newTestStore(t), Broker: broker}, broker
}
