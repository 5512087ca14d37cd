package session_test

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/rueidis"
	"github.com/steamdex/steamdex/internal/session"
	"github.com/steamdex/steamdex/internal/steam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTest(t *testing.T) (*session.Manager, *miniredis.Miniredis, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{mr.Addr()},
		DisableCache: true,
	})
	require.NoError(t, err)

	manager := session.NewManager(client, time.Hour, zap.NewNop())

	cleanup := func() {
		client.Close()
		mr.Close()
	}

	return manager, mr, cleanup
}

func TestSessionRoundTrip(t *testing.T) {
	t.Parallel()
	manager, _, cleanup := setupTest(t)
	defer cleanup()

	ctx := t.Context()
	player := &steam.PlayerSummary{
		SteamID:     "76561197960287930",
		PersonaName: "Rabscuttle",
		AvatarFull:  "https://avatars.example/full.jpg",
	}

	sess, err := manager.Create(ctx, player)
	require.NoError(t, err)
	assert.Len(t, sess.Token, 64)

	loaded, err := manager.Get(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, "76561197960287930", loaded.SteamID)
	assert.Equal(t, "Rabscuttle", loaded.PersonaName)
	assert.Equal(t, "https://avatars.example/full.jpg", loaded.Avatar)
}

func TestSessionUnknownToken(t *testing.T) {
	t.Parallel()
	manager, _, cleanup := setupTest(t)
	defer cleanup()

	_, err := manager.Get(t.Context(), "deadbeef")
	require.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestSessionExpiry(t *testing.T) {
	t.Parallel()
	manager, mr, cleanup := setupTest(t)
	defer cleanup()

	ctx := t.Context()
	sess, err := manager.Create(ctx, &steam.PlayerSummary{SteamID: "76561197960287930"})
	require.NoError(t, err)
	assert.Equal(t, time.Hour, mr.TTL("session:"+sess.Token))

	mr.FastForward(2 * time.Hour)

	_, err = manager.Get(ctx, sess.Token)
	require.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestSessionDestroy(t *testing.T) {
	t.Parallel()
	manager, _, cleanup := setupTest(t)
	defer cleanup()

	ctx := t.Context()
	sess, err := manager.Create(ctx, &steam.PlayerSummary{SteamID: "76561197960287930"})
	require.NoError(t, err)

	require.NoError(t, manager.Destroy(ctx, sess.Token))

	_, err = manager.Get(ctx, sess.Token)
	require.ErrorIs(t, err, session.ErrSessionNotFound)

	// Destroying again is a no-op
	require.NoError(t, manager.Destroy(ctx, sess.Token))
}
