package chat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkup-chat/internal/chat"
	"linkup-chat/internal/store"
)

func TestSubscriptionManager_OpenIsIdempotent(t *testing.T) {
	m := chat.NewSubscriptionManager(nil)

	starts := 0
	start := func() (store.Unsubscribe, error) {
		starts++
		return func() {}, nil
	}

	opened, err := m.Open("messages/alice_bob", start)
	require.NoError(t, err)
	assert.True(t, opened)
	assert.Equal(t, chat.SubscriptionActive, m.State("messages/alice_bob"))

	opened, err = m.Open("messages/alice_bob", start)
	require.NoError(t, err)
	assert.False(t, opened, "reopening an active key must be a no-op")
	assert.Equal(t, 1, starts)
}

func TestSubscriptionManager_CancelStopsFeed(t *testing.T) {
	m := chat.NewSubscriptionManager(nil)

	cancelled := false
	_, err := m.Open("messages/alice_bob", func() (store.Unsubscribe, error) {
		return func() { cancelled = true }, nil
	})
	require.NoError(t, err)

	assert.True(t, m.Cancel("messages/alice_bob"))
	assert.True(t, cancelled)
	assert.Equal(t, chat.SubscriptionInactive, m.State("messages/alice_bob"))

	assert.False(t, m.Cancel("messages/alice_bob"), "double cancel is a no-op")
}

func TestSubscriptionManager_CancelAll(t *testing.T) {
	m := chat.NewSubscriptionManager(nil)

	cancels := 0
	for _, key := range []string{"messages/a_b", "block/a_b", "scan/carol"} {
		_, err := m.Open(key, func() (store.Unsubscribe, error) {
			return func() { cancels++ }, nil
		})
		require.NoError(t, err)
	}
	require.Equal(t, 3, m.ActiveCount())

	m.CancelAll()
	assert.Equal(t, 3, cancels)
	assert.Equal(t, 0, m.ActiveCount())
}

func TestSubscriptionManager_ReopenAfterCancel(t *testing.T) {
	m := chat.NewSubscriptionManager(nil)

	starts := 0
	start := func() (store.Unsubscribe, error) {
		starts++
		return func() {}, nil
	}

	_, err := m.Open("scan/carol", start)
	require.NoError(t, err)
	m.Cancel("scan/carol")

	opened, err := m.Open("scan/carol", start)
	require.NoError(t, err)
	assert.True(t, opened)
	assert.Equal(t, 2, starts)
}
