package chat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"linkup-chat/internal/chat"
	chat_errors "linkup-chat/pkg/errors"
)

func TestDeriveConversationID_Commutative(t *testing.T) {
	ab, err := chat.DeriveConversationID("alice", "bob")
	assert.NoError(t, err)
	ba, err := chat.DeriveConversationID("bob", "alice")
	assert.NoError(t, err)

	assert.Equal(t, "alice_bob", ab)
	assert.Equal(t, ab, ba)
}

func TestDeriveConversationID_DistinctPairsDistinctIDs(t *testing.T) {
	first, err := chat.DeriveConversationID("alice", "bob")
	assert.NoError(t, err)
	second, err := chat.DeriveConversationID("alice", "carol")
	assert.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestDeriveConversationID_RejectsEmptyIdentity(t *testing.T) {
	_, err := chat.DeriveConversationID("", "bob")
	assert.ErrorIs(t, err, chat_errors.ErrInvalidIdentity)

	_, err = chat.DeriveConversationID("alice", "")
	assert.ErrorIs(t, err, chat_errors.ErrInvalidIdentity)
}

func TestDeriveConversationID_RejectsSelfConversation(t *testing.T) {
	_, err := chat.DeriveConversationID("alice", "alice")
	assert.ErrorIs(t, err, chat_errors.ErrSelfConversation)
}
