package chat_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkup-chat/internal/chat"
	"linkup-chat/internal/domain"
	"linkup-chat/internal/store"
)

func strPtr(s string) *string { return &s }

func seedConversation(t *testing.T, mem *store.Memory, conversationID string, sender, receiver uuid.UUID, texts ...string) []uuid.UUID {
	t.Helper()
	ids := make([]uuid.UUID, 0, len(texts))
	for _, text := range texts {
		id, err := mem.Append(context.Background(), conversationID, domain.Message{
			SenderID:   sender,
			ReceiverID: receiver,
			Text:       strPtr(text),
		})
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return ids
}

func messagesOf(t *testing.T, mem *store.Memory, conversationID string) []domain.Message {
	t.Helper()
	var msgs []domain.Message
	unsub, err := mem.SubscribeMessages(context.Background(), conversationID,
		func(snapshot []domain.Message) { msgs = snapshot },
		func(error) {})
	require.NoError(t, err)
	unsub()
	return msgs
}

func TestReadTracker_MarkInboundRead_FlipsOnlyInboundUnread(t *testing.T) {
	mem := store.NewMemory()
	alice, bob := uuid.New(), uuid.New()
	tracker := chat.NewReadTracker(bob, mem, nil)

	seedConversation(t, mem, "alice_bob", alice, bob, "hi", "there")
	// One outbound message from bob; the tracker must never touch it.
	_, err := mem.Append(context.Background(), "alice_bob", domain.Message{
		SenderID: bob, ReceiverID: alice, Text: strPtr("hey"),
	})
	require.NoError(t, err)

	tracker.MarkInboundRead(context.Background(), "alice_bob", messagesOf(t, mem, "alice_bob"))

	require.Eventually(t, func() bool {
		msgs := messagesOf(t, mem, "alice_bob")
		return msgs[0].Read && msgs[1].Read
	}, time.Second, 5*time.Millisecond)

	msgs := messagesOf(t, mem, "alice_bob")
	assert.False(t, msgs[2].Read, "outbound message must stay unread for its receiver")
}

func TestReadTracker_MarkInboundRead_NoopWhenAllRead(t *testing.T) {
	mem := store.NewMemory()
	alice, bob := uuid.New(), uuid.New()
	tracker := chat.NewReadTracker(bob, mem, nil)

	ids := seedConversation(t, mem, "alice_bob", alice, bob, "hi")
	require.NoError(t, mem.MarkRead(context.Background(), "alice_bob", ids[0]))

	// Nothing unread: should not spawn any work. Verify state is unchanged
	// after a settle window.
	tracker.MarkInboundRead(context.Background(), "alice_bob", messagesOf(t, mem, "alice_bob"))
	time.Sleep(20 * time.Millisecond)
	assert.True(t, messagesOf(t, mem, "alice_bob")[0].Read)
}

func TestReadTracker_HasUnreadInbound(t *testing.T) {
	alice, bob := uuid.New(), uuid.New()
	tracker := chat.NewReadTracker(bob, store.NewMemory(), nil)

	assert.False(t, tracker.HasUnreadInbound(nil))
	assert.False(t, tracker.HasUnreadInbound([]domain.Message{
		{SenderID: bob, ReceiverID: alice, Read: false}, // outbound
		{SenderID: alice, ReceiverID: bob, Read: true},  // inbound, read
	}))
	assert.True(t, tracker.HasUnreadInbound([]domain.Message{
		{SenderID: alice, ReceiverID: bob, Read: false},
	}))
}
