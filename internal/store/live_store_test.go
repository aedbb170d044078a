package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"linkup-chat/internal/domain"
	"linkup-chat/internal/store"
	chat_errors "linkup-chat/pkg/errors"
	"linkup-chat/pkg/events"
)

func strPtr(s string) *string { return &s }

func eventOf(eventType string) events.Event {
	return events.Event{Type: eventType, Timestamp: time.Now().UnixMilli()}
}

func newLiveStore(t *testing.T) (*store.LiveStore, *MockMessageRepository, *MockBlockStatusRepository, *fakeBroker) {
	t.Helper()
	msgRepo := new(MockMessageRepository)
	blockRepo := new(MockBlockStatusRepository)
	broker := newFakeBroker()
	return store.NewLiveStore(msgRepo, blockRepo, broker, nil), msgRepo, blockRepo, broker
}

func TestLiveStore_Append_PersistsAndRefreshesPreview(t *testing.T) {
	s, msgRepo, blockRepo, _ := newLiveStore(t)
	sender := uuid.New()
	receiver := uuid.New()

	msgRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Message")).Return(nil)
	blockRepo.On("UpsertPreview", mock.Anything, sender, "alice_bob", "hi").Return(nil)

	id, err := s.Append(context.Background(), "alice_bob", domain.Message{
		SenderID:   sender,
		ReceiverID: receiver,
		Text:       strPtr("hi"),
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)

	msgRepo.AssertCalled(t, "Create", mock.Anything, mock.MatchedBy(func(m *domain.Message) bool {
		return m.ConversationID == "alice_bob" && !m.Read && !m.CreatedAt.IsZero() && m.ID == id
	}))
	blockRepo.AssertExpectations(t)
}

func TestLiveStore_Append_RejectsEmptyMessage(t *testing.T) {
	s, msgRepo, _, _ := newLiveStore(t)

	_, err := s.Append(context.Background(), "alice_bob", domain.Message{
		SenderID:   uuid.New(),
		ReceiverID: uuid.New(),
	})
	assert.ErrorIs(t, err, chat_errors.ErrEmptyMessage)
	msgRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestLiveStore_Append_AttachmentOnlyIsValid(t *testing.T) {
	s, msgRepo, blockRepo, _ := newLiveStore(t)
	sender := uuid.New()

	msgRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Message")).Return(nil)
	blockRepo.On("UpsertPreview", mock.Anything, sender, "alice_bob", "[attachment]").Return(nil)

	_, err := s.Append(context.Background(), "alice_bob", domain.Message{
		SenderID:      sender,
		ReceiverID:    uuid.New(),
		AttachmentURL: strPtr("https://cdn.example.com/cv.pdf"),
	})
	require.NoError(t, err)
	blockRepo.AssertExpectations(t)
}

func TestLiveStore_SubscribeMessages_DeliversInitialAndChangedSnapshots(t *testing.T) {
	s, msgRepo, blockRepo, _ := newLiveStore(t)
	sender := uuid.New()
	receiver := uuid.New()

	first := domain.Message{ID: uuid.New(), ConversationID: "alice_bob", SenderID: sender, ReceiverID: receiver, Text: strPtr("hi"), CreatedAt: time.Now()}
	second := domain.Message{ID: uuid.New(), ConversationID: "alice_bob", SenderID: sender, ReceiverID: receiver, Text: strPtr("there"), CreatedAt: time.Now().Add(time.Second)}

	msgRepo.On("ListByConversation", mock.Anything, "alice_bob").Return([]domain.Message{first}, nil).Once()
	msgRepo.On("ListByConversation", mock.Anything, "alice_bob").Return([]domain.Message{first, second}, nil)
	msgRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Message")).Return(nil)
	blockRepo.On("UpsertPreview", mock.Anything, sender, "alice_bob", mock.Anything).Return(nil)

	var snapshots [][]domain.Message
	unsubscribe, err := s.SubscribeMessages(context.Background(), "alice_bob",
		func(msgs []domain.Message) { snapshots = append(snapshots, msgs) },
		func(err error) { t.Fatalf("unexpected subscription error: %v", err) })
	require.NoError(t, err)
	defer unsubscribe()

	require.Len(t, snapshots, 1)
	assert.Len(t, snapshots[0], 1)

	_, err = s.Append(context.Background(), "alice_bob", domain.Message{SenderID: sender, ReceiverID: receiver, Text: strPtr("there")})
	require.NoError(t, err)

	require.Len(t, snapshots, 2)
	assert.Len(t, snapshots[1], 2)
	assert.True(t, !snapshots[1][0].CreatedAt.After(snapshots[1][1].CreatedAt))
}

func TestLiveStore_SubscribeMessages_ErrorsGoToErrorCallback(t *testing.T) {
	s, msgRepo, _, broker := newLiveStore(t)

	msgRepo.On("ListByConversation", mock.Anything, "alice_bob").Return(nil, errors.New("connection reset")).Once()
	msgRepo.On("ListByConversation", mock.Anything, "alice_bob").Return([]domain.Message{}, nil)

	var snapshots int
	var subErrs []error
	unsubscribe, err := s.SubscribeMessages(context.Background(), "alice_bob",
		func([]domain.Message) { snapshots++ },
		func(err error) { subErrs = append(subErrs, err) })
	require.NoError(t, err)
	defer unsubscribe()

	// Initial read failed; the subscription stays alive and the next change
	// event recovers.
	assert.Equal(t, 0, snapshots)
	require.Len(t, subErrs, 1)

	require.NoError(t, broker.Publish(context.Background(), "conversation:alice_bob", eventOf("messages.changed")))
	assert.Equal(t, 1, snapshots)
}

func TestLiveStore_SubscribeMessages_NoDeliveryAfterUnsubscribe(t *testing.T) {
	s, msgRepo, _, broker := newLiveStore(t)
	msgRepo.On("ListByConversation", mock.Anything, "alice_bob").Return([]domain.Message{}, nil)

	var snapshots int
	unsubscribe, err := s.SubscribeMessages(context.Background(), "alice_bob",
		func([]domain.Message) { snapshots++ },
		func(error) {})
	require.NoError(t, err)
	assert.Equal(t, 1, snapshots)

	unsubscribe()
	require.NoError(t, broker.Publish(context.Background(), "conversation:alice_bob", eventOf("messages.changed")))
	assert.Equal(t, 1, snapshots)
}

func TestLiveStore_MarkRead_IdempotentAndSilentOnMissing(t *testing.T) {
	s, msgRepo, _, _ := newLiveStore(t)
	msgID := uuid.New()

	msgRepo.On("MarkRead", mock.Anything, msgID).Return(nil).Twice()
	require.NoError(t, s.MarkRead(context.Background(), "alice_bob", msgID))
	require.NoError(t, s.MarkRead(context.Background(), "alice_bob", msgID))

	gone := uuid.New()
	msgRepo.On("MarkRead", mock.Anything, gone).Return(chat_errors.ErrNotFound)
	assert.NoError(t, s.MarkRead(context.Background(), "alice_bob", gone))
}

func TestLiveStore_MarkRead_PublishesChangeEvent(t *testing.T) {
	s, msgRepo, _, broker := newLiveStore(t)
	msgID := uuid.New()
	msgRepo.On("MarkRead", mock.Anything, msgID).Return(nil)

	var notified int
	cancel, err := broker.Subscribe(context.Background(), "conversation:alice_bob", func(context.Context, events.Event) {
		notified++
	})
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, s.MarkRead(context.Background(), "alice_bob", msgID))
	assert.Equal(t, 1, notified)
}

func TestLiveStore_OwnBlockStatus_MissingRowMeansUnblocked(t *testing.T) {
	s, _, blockRepo, _ := newLiveStore(t)
	owner := uuid.New()

	blockRepo.On("Get", mock.Anything, owner, "alice_bob").Return(domain.BlockStatus{}, chat_errors.ErrNotFound)

	bs, err := s.OwnBlockStatus(context.Background(), owner, "alice_bob")
	require.NoError(t, err)
	assert.False(t, bs.Blocked)
	assert.Equal(t, owner, bs.OwnerID)
}

func TestLiveStore_SubscribeBlockStatus_DeliversOwnRow(t *testing.T) {
	s, _, blockRepo, broker := newLiveStore(t)
	owner := uuid.New()

	blockRepo.On("Get", mock.Anything, owner, "alice_bob").Return(domain.BlockStatus{OwnerID: owner, ConversationID: "alice_bob", Blocked: false}, nil).Once()
	blockRepo.On("Get", mock.Anything, owner, "alice_bob").Return(domain.BlockStatus{OwnerID: owner, ConversationID: "alice_bob", Blocked: true}, nil)

	var statuses []domain.BlockStatus
	unsubscribe, err := s.SubscribeBlockStatus(context.Background(), owner, "alice_bob",
		func(bs domain.BlockStatus) { statuses = append(statuses, bs) },
		func(err error) { t.Fatalf("unexpected subscription error: %v", err) })
	require.NoError(t, err)
	defer unsubscribe()

	require.Len(t, statuses, 1)
	assert.False(t, statuses[0].Blocked)

	require.NoError(t, broker.Publish(context.Background(), "blockstatus:"+owner.String()+":alice_bob", eventOf("blockstatus.changed")))
	require.Len(t, statuses, 2)
	assert.True(t, statuses[1].Blocked)
}

func TestLiveStore_SetBlocked_PersistsAndPublishes(t *testing.T) {
	s, _, blockRepo, _ := newLiveStore(t)
	owner := uuid.New()

	blockRepo.On("SetBlocked", mock.Anything, owner, "alice_bob", true).Return(nil)
	blockRepo.On("Get", mock.Anything, owner, "alice_bob").Return(domain.BlockStatus{OwnerID: owner, ConversationID: "alice_bob", Blocked: true}, nil)

	var statuses []domain.BlockStatus
	unsubscribe, err := s.SubscribeBlockStatus(context.Background(), owner, "alice_bob",
		func(bs domain.BlockStatus) { statuses = append(statuses, bs) },
		func(err error) { t.Fatalf("unexpected subscription error: %v", err) })
	require.NoError(t, err)
	defer unsubscribe()
	require.Len(t, statuses, 1)

	require.NoError(t, s.SetBlocked(context.Background(), owner, "alice_bob", true))

	require.Len(t, statuses, 2, "the flip must reach the owner's live subscription")
	assert.True(t, statuses[1].Blocked)
	blockRepo.AssertCalled(t, "SetBlocked", mock.Anything, owner, "alice_bob", true)
}

func TestLiveStore_SetBlocked_RepositoryFailureDoesNotPublish(t *testing.T) {
	s, _, blockRepo, broker := newLiveStore(t)
	owner := uuid.New()
	boom := errors.New("write failed")

	blockRepo.On("SetBlocked", mock.Anything, owner, "alice_bob", false).Return(boom)

	err := s.SetBlocked(context.Background(), owner, "alice_bob", false)
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, broker.publishCount("blockstatus:"+owner.String()+":alice_bob"))
}
