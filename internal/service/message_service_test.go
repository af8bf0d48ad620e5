package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoute(t *testing.T) {
	ctx := context.Background()

	users := newFakeUserRepo()
	alice := users.addUser("alice")
	bob := users.addUser("bob")
	carol := users.addUser("carol")

	friends := newFakeFriendRepo(users)
	friends.addAccepted(alice.ID, bob.ID)

	msgs := newFakeMessageRepo()
	notifier := &recordingNotifier{}
	svc := NewMessageService(msgs, friends)
	svc.SetNotifier(notifier)

	origin := uuid.New()

	t.Run("empty body rejected", func(t *testing.T) {
		_, err := svc.Route(ctx, alice.ID, bob.ID, "   \n", "", origin)
		assert.ErrorIs(t, err, ErrEmptyMessage)
		assert.Empty(t, notifier.messages)
	})

	t.Run("non-friends rejected in both directions", func(t *testing.T) {
		_, err := svc.Route(ctx, alice.ID, carol.ID, "hi", "", origin)
		assert.ErrorIs(t, err, ErrNotFriends)
		_, err = svc.Route(ctx, carol.ID, alice.ID, "hi", "", origin)
		assert.ErrorIs(t, err, ErrNotFriends)
	})

	t.Run("friends may message in both directions", func(t *testing.T) {
		msg, err := svc.Route(ctx, alice.ID, bob.ID, "hi bob", "nonce-1", origin)
		require.NoError(t, err)
		assert.Equal(t, "hi bob", msg.Body)
		assert.Equal(t, alice.ID, msg.FromID)

		_, err = svc.Route(ctx, bob.ID, alice.ID, "hi alice", "", origin)
		require.NoError(t, err)

		require.Len(t, notifier.messages, 2)
		assert.Equal(t, "nonce-1", notifier.messages[0].nonce)
		assert.Equal(t, origin, notifier.messages[0].originConn)
	})

	t.Run("persist failure reaches sender only, no fan-out", func(t *testing.T) {
		before := len(notifier.messages)
		msgs.failCreate = true
		defer func() { msgs.failCreate = false }()

		_, err := svc.Route(ctx, alice.ID, bob.ID, "lost", "", origin)
		assert.Error(t, err)
		assert.Len(t, notifier.messages, before)
	})

	t.Run("offline recipient still gets the message persisted", func(t *testing.T) {
		// The notifier is fan-out only; persistence never depends on
		// the recipient being reachable.
		_, err := svc.Route(ctx, alice.ID, bob.ID, "while you were away", "", origin)
		require.NoError(t, err)

		history, err := svc.History(ctx, bob.ID, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, "while you were away", history[len(history)-1].Body)
	})
}

func TestHistory(t *testing.T) {
	ctx := context.Background()

	users := newFakeUserRepo()
	alice := users.addUser("alice")
	bob := users.addUser("bob")

	friends := newFakeFriendRepo(users)
	rel := friends.addAccepted(alice.ID, bob.ID)

	msgs := newFakeMessageRepo()
	svc := NewMessageService(msgs, friends)

	origin := uuid.New()
	_, err := svc.Route(ctx, alice.ID, bob.ID, "one", "", origin)
	require.NoError(t, err)
	_, err = svc.Route(ctx, bob.ID, alice.ID, "two", "", origin)
	require.NoError(t, err)

	t.Run("oldest first, same for both participants", func(t *testing.T) {
		got, err := svc.History(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "one", got[0].Body)
		assert.Equal(t, "two", got[1].Body)

		mirror, err := svc.History(ctx, bob.ID, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, got, mirror)
	})

	t.Run("clear removes messages but not the friendship", func(t *testing.T) {
		require.NoError(t, svc.ClearHistory(ctx, bob.ID, alice.ID))

		got, err := svc.History(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		assert.Empty(t, got)

		still, err := friends.GetByID(ctx, rel.ID)
		require.NoError(t, err)
		assert.NotNil(t, still)

		ok, err := friends.AreFriends(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}
