package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"linkup-chat/internal/domain"
	"linkup-chat/internal/repository"
	chat_errors "linkup-chat/pkg/errors"
	"linkup-chat/pkg/events"
)

const (
	eventMessagesChanged    = "messages.changed"
	eventBlockStatusChanged = "blockstatus.changed"

	previewMaxLen         = 200
	attachmentPlaceholder = "[attachment]"
)

func conversationChannel(conversationID string) string {
	return "conversation:" + conversationID
}

func blockStatusChannel(ownerID uuid.UUID, conversationID string) string {
	return "blockstatus:" + ownerID.String() + ":" + conversationID
}

// LiveStore realizes the Store contract on Postgres rows with Redis pub/sub
// change notification. Every change event triggers a full re-read of the
// affected conversation, which keeps reconciliation trivial at the cost of
// re-reading history on each update.
type LiveStore struct {
	messages repository.MessageRepository
	blocks   repository.BlockStatusRepository
	broker   events.Broker
	logger   *zap.Logger
}

func NewLiveStore(messages repository.MessageRepository, blocks repository.BlockStatusRepository, broker events.Broker, logger *zap.Logger) *LiveStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LiveStore{
		messages: messages,
		blocks:   blocks,
		broker:   broker,
		logger:   logger,
	}
}

func (s *LiveStore) Append(ctx context.Context, conversationID string, msg domain.Message) (uuid.UUID, error) {
	if conversationID == "" {
		return uuid.Nil, chat_errors.ErrInvalidInput
	}
	if msg.Empty() {
		return uuid.Nil, chat_errors.ErrEmptyMessage
	}

	msg.ID = uuid.New()
	msg.ConversationID = conversationID
	msg.CreatedAt = time.Now()
	msg.Read = false

	if err := s.messages.Create(ctx, &msg); err != nil {
		return uuid.Nil, err
	}

	// Index metadata and change fan-out are best effort once the message row
	// exists; a failure here leaves the write durable and the next change
	// event repairs the view.
	if err := s.blocks.UpsertPreview(ctx, msg.SenderID, conversationID, preview(msg)); err != nil {
		s.logger.Warn("failed to refresh conversation preview",
			zap.String("conversation_id", conversationID), zap.Error(err))
	} else {
		s.publish(ctx, blockStatusChannel(msg.SenderID, conversationID), eventBlockStatusChanged, conversationID)
	}
	s.publish(ctx, conversationChannel(conversationID), eventMessagesChanged, msg.ID.String())

	return msg.ID, nil
}

func (s *LiveStore) SubscribeMessages(ctx context.Context, conversationID string, onSnapshot func([]domain.Message), onError func(error)) (Unsubscribe, error) {
	var mu sync.Mutex
	deliver := func() {
		// One delivery at a time per subscription; each delivery re-reads
		// the full current state so the last one to run wins.
		mu.Lock()
		defer mu.Unlock()
		msgs, err := s.messages.ListByConversation(ctx, conversationID)
		if err != nil {
			onError(err)
			return
		}
		onSnapshot(msgs)
	}

	// Subscribe before the initial read so a write landing in between is
	// still observed.
	cancel, err := s.broker.Subscribe(ctx, conversationChannel(conversationID), func(context.Context, events.Event) {
		deliver()
	})
	if err != nil {
		return nil, err
	}
	deliver()

	return Unsubscribe(cancel), nil
}

func (s *LiveStore) SubscribeBlockStatus(ctx context.Context, ownerID uuid.UUID, conversationID string, onStatus func(domain.BlockStatus), onError func(error)) (Unsubscribe, error) {
	var mu sync.Mutex
	deliver := func() {
		mu.Lock()
		defer mu.Unlock()
		bs, err := s.OwnBlockStatus(ctx, ownerID, conversationID)
		if err != nil {
			onError(err)
			return
		}
		onStatus(bs)
	}

	cancel, err := s.broker.Subscribe(ctx, blockStatusChannel(ownerID, conversationID), func(context.Context, events.Event) {
		deliver()
	})
	if err != nil {
		return nil, err
	}
	deliver()

	return Unsubscribe(cancel), nil
}

func (s *LiveStore) MarkRead(ctx context.Context, conversationID string, messageID uuid.UUID) error {
	err := s.messages.MarkRead(ctx, messageID)
	if errors.Is(err, chat_errors.ErrNotFound) {
		// The store is eventually consistent; a flip on a vanished message
		// is a no-op, not a failure.
		return nil
	}
	if err != nil {
		return err
	}
	s.publish(ctx, conversationChannel(conversationID), eventMessagesChanged, messageID.String())
	return nil
}

func (s *LiveStore) OwnBlockStatus(ctx context.Context, ownerID uuid.UUID, conversationID string) (domain.BlockStatus, error) {
	bs, err := s.blocks.Get(ctx, ownerID, conversationID)
	if errors.Is(err, chat_errors.ErrNotFound) {
		return domain.BlockStatus{OwnerID: ownerID, ConversationID: conversationID}, nil
	}
	if err != nil {
		return domain.BlockStatus{}, err
	}
	return bs, nil
}

func (s *LiveStore) SetBlocked(ctx context.Context, ownerID uuid.UUID, conversationID string, blocked bool) error {
	if err := s.blocks.SetBlocked(ctx, ownerID, conversationID, blocked); err != nil {
		return err
	}
	s.publish(ctx, blockStatusChannel(ownerID, conversationID), eventBlockStatusChanged, conversationID)
	return nil
}

func (s *LiveStore) publish(ctx context.Context, channel, eventType, payload string) {
	event := events.Event{
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now().UnixMilli(),
	}
	if err := s.broker.Publish(ctx, channel, event); err != nil {
		s.logger.Warn("failed to publish change event",
			zap.String("channel", channel), zap.Error(err))
	}
}

func preview(msg domain.Message) string {
	if msg.Text != nil && *msg.Text != "" {
		text := *msg.Text
		if len(text) > previewMaxLen {
			text = text[:previewMaxLen]
		}
		return text
	}
	return attachmentPlaceholder
}
